package lang

import (
	"iter"

	"github.com/google/uuid"
)

// Cursor is a forward-only handle over the rows of one evaluation.
//
// A cursor from a failed evaluation has its error marker set and holds no
// rows. Check [Cursor.IsError] before consuming rows. A Cursor is not safe
// for concurrent use.
type Cursor struct {
	env  *Environment
	err  error
	rows []Value
	pos  int
	id   uuid.UUID
}

func newCursor(env *Environment) *Cursor {
	return &Cursor{id: uuid.New(), env: env}
}

// fail sets the error marker and drops any rows collected so far.
func (c *Cursor) fail(err error) {
	c.err = err
	c.rows = nil
	c.pos = 0
}

// Next returns the next row. The second result is false once all rows have
// been consumed.
func (c *Cursor) Next() (Value, bool) {
	if c.pos >= len(c.rows) {
		return Value{}, false
	}

	v := c.rows[c.pos]
	c.pos++

	return v, true
}

// HasMore reports whether [Cursor.Next] would return a row.
func (c *Cursor) HasMore() bool { return c.pos < len(c.rows) }

// ToList drains the remaining rows into a slice. The result is never nil.
func (c *Cursor) ToList() []Value {
	out := make([]Value, 0, len(c.rows)-c.pos)

	for v := range c.All() {
		out = append(out, v)
	}

	return out
}

// All returns an iterator that drains the remaining rows.
func (c *Cursor) All() iter.Seq[Value] {
	return func(yield func(Value) bool) {
		for {
			v, ok := c.Next()
			if !ok || !yield(v) {
				return
			}
		}
	}
}

// Err returns the error that aborted the evaluation, if any.
func (c *Cursor) Err() error { return c.err }

// IsError reports whether the evaluation failed.
func (c *Cursor) IsError() bool { return c.err != nil }

// ID returns the unique identifier of the evaluation.
func (c *Cursor) ID() uuid.UUID { return c.id }

// Count returns the total number of rows produced, consumed or not.
func (c *Cursor) Count() int { return len(c.rows) }

// Environment returns the top-level scope the query was evaluated against.
func (c *Cursor) Environment() *Environment { return c.env }
