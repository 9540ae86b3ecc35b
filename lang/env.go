package lang

import (
	"log/slog"
	"maps"
	"slices"
)

// Environment is one scope in a chain of variable scopes.
//
// Lookups walk outward through parent scopes, so an inner binding shadows an
// outer one. A name may be bound only once per scope. Scopes never own their
// parents; a chain is discarded when its innermost scope is released.
type Environment struct {
	parent *Environment
	names  map[string]Value
	depth  int
}

// NewEnvironment returns a root scope holding a copy of bindings.
// A nil or empty map yields an empty scope.
func NewEnvironment(bindings map[string]Value) *Environment {
	env := &Environment{}

	if len(bindings) > 0 {
		env.names = maps.Clone(bindings)
	}

	return env
}

// Push returns a new empty scope whose parent is e.
func (e *Environment) Push() *Environment {
	return &Environment{parent: e, depth: e.depth + 1}
}

// Parent returns the enclosing scope, or nil for a root scope.
func (e *Environment) Parent() *Environment { return e.parent }

// Depth returns the number of scopes enclosing e.
func (e *Environment) Depth() int { return e.depth }

// Lookup resolves name in e or the nearest enclosing scope that binds it.
func (e *Environment) Lookup(name string) (Value, bool) {
	for s := e; s != nil; s = s.parent {
		if v, ok := s.names[name]; ok {
			return v, true
		}
	}

	return Value{}, false
}

// Bind defines name in e. It fails with [ErrDuplicateBinding] if e itself
// already binds name; bindings in enclosing scopes are shadowed.
func (e *Environment) Bind(name string, v Value) error {
	if _, ok := e.names[name]; ok {
		return ErrDuplicateBinding.With(slog.String("name", name))
	}

	if e.names == nil {
		e.names = make(map[string]Value, 1)
	}

	e.names[name] = v

	return nil
}

// Names returns the sorted set of names visible from e.
func (e *Environment) Names() []string {
	seen := make(map[string]struct{})

	for s := e; s != nil; s = s.parent {
		for name := range s.names {
			seen[name] = struct{}{}
		}
	}

	return slices.Sorted(maps.Keys(seen))
}
