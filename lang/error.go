package lang

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Predefined errors (sentinel values).
//
// Every error produced by this package derives from one of these, so callers
// can classify failures with [errors.Is] regardless of the position or
// attributes attached along the way.
var (
	ErrSyntax           = NewError("syntax error")
	ErrMaxDepthExceeded = NewError("maximum nesting depth exceeded")
	ErrUnboundVariable  = NewError("unbound variable")
	ErrTypeMismatch     = NewError("type mismatch")
	ErrDivisionByZero   = NewError("division by zero")
	ErrDuplicateBinding = NewError("duplicate binding")
	ErrInvalidNode      = NewError("invalid node")
	ErrCanceled         = NewError("evaluation canceled")
	ErrReadInput        = NewError("failed to read input")
	ErrInvalidNative    = NewError("unsupported native value")
)

// Position identifies a location in query text.
// Line and Column are 1-based; Offset is a 0-based byte offset.
type Position struct {
	Offset int
	Line   int
	Column int
}

// IsValid reports whether p refers to an actual location.
func (p Position) IsValid() bool { return p.Line > 0 }

func (p Position) String() string {
	return "line " + strconv.Itoa(p.Line) + ", column " + strconv.Itoa(p.Column)
}

// Error represents an error with optional structured logging attributes and
// an optional source position.
// It implements both error and slog.LogValuer interfaces.
type Error struct {
	msg   string
	err   error       // Wrapped error (for errors.Unwrap)
	attrs []slog.Attr // Attributes for structured logging
	pos   Position
	base  *Error // sentinel this error was derived from
}

// NewError creates a new Error with a message.
func NewError(msg string) *Error {
	return &Error{msg: msg}
}

// WrapError wraps a standard error into an Error.
// If err already is (or wraps) an *Error, that value is returned.
func WrapError(err error) *Error {
	var ee *Error
	if errors.As(err, &ee) {
		return ee
	}

	return &Error{err: err}
}

// Error implements the error interface.
//
// The message is composed as "<msg> (<attrs>) at <pos>: <err>", omitting
// any part that is unset.
func (e *Error) Error() string {
	var b strings.Builder

	b.WriteString(e.msg)

	if len(e.attrs) > 0 {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}

		b.WriteByte('(')

		for i, a := range e.attrs {
			if i > 0 {
				b.WriteString(", ")
			}

			b.WriteString(a.Key)
			b.WriteByte('=')
			b.WriteString(a.Value.String())
		}

		b.WriteByte(')')
	}

	if e.pos.IsValid() {
		b.WriteString(" at ")
		b.WriteString(e.pos.String())
	}

	if e.err != nil {
		if b.Len() > 0 {
			b.WriteString(": ")
		}

		b.WriteString(e.err.Error())
	}

	return b.String()
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *Error) Unwrap() error { return e.err }

// Is reports whether target is the sentinel e was derived from.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	return e.origin() == t.origin()
}

// Position returns the source position attached to e, if any.
func (e *Error) Position() (Position, bool) {
	return e.pos, e.pos.IsValid()
}

// LogValue implements slog.LogValuer for rich structured logging.
func (e *Error) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, len(e.attrs)+4)

	if e.msg != "" {
		attrs = append(attrs, slog.String("error", e.msg))
	}

	if e.err != nil {
		attrs = append(attrs, slog.String("cause", e.err.Error()))
	}

	if e.pos.IsValid() {
		attrs = append(attrs,
			slog.Int("line", e.pos.Line),
			slog.Int("column", e.pos.Column),
		)
	}

	return slog.GroupValue(append(attrs, e.attrs...)...)
}

// Wrap creates a new Error wrapping another error.
func (e *Error) Wrap(err error) *Error {
	c := e.clone()
	c.err = err

	return c
}

// With adds attributes to the error for structured logging.
// This creates a new Error instance to maintain immutability.
func (e *Error) With(attrs ...slog.Attr) *Error {
	c := e.clone()
	c.attrs = make([]slog.Attr, len(e.attrs)+len(attrs))
	copy(c.attrs, e.attrs)
	copy(c.attrs[len(e.attrs):], attrs)

	return c
}

// WithPosition returns a copy of e located at pos.
func (e *Error) WithPosition(pos Position) *Error {
	c := e.clone()
	c.pos = pos

	return c
}

func (e *Error) clone() *Error {
	return &Error{
		msg:   e.msg,
		err:   e.err,
		attrs: e.attrs,
		pos:   e.pos,
		base:  e.origin(),
	}
}

func (e *Error) origin() *Error {
	if e.base != nil {
		return e.base
	}

	return e
}

// atPosition attaches pos to err if err is an *Error without a position.
func atPosition(err error, pos Position) error {
	var ee *Error
	if !errors.As(err, &ee) || ee.pos.IsValid() || !pos.IsValid() {
		return err
	}

	return ee.WithPosition(pos)
}

// IsSyntaxError reports whether err belongs to the syntax error class,
// which includes exceeding the maximum nesting depth.
func IsSyntaxError(err error) bool {
	return errors.Is(err, ErrSyntax) || errors.Is(err, ErrMaxDepthExceeded)
}

// FormatError renders err together with the offending line of source and a
// caret marking the error column, when err carries a position.
func FormatError(err error, source string) string {
	if err == nil {
		return ""
	}

	var ee *Error
	if !errors.As(err, &ee) || !ee.pos.IsValid() {
		return err.Error()
	}

	lines := strings.Split(source, "\n")
	if ee.pos.Line > len(lines) {
		return err.Error()
	}

	line := strings.TrimRight(lines[ee.pos.Line-1], "\r")
	num := strconv.Itoa(ee.pos.Line)

	var b strings.Builder

	b.WriteString(err.Error())
	b.WriteByte('\n')
	fmt.Fprintf(&b, "  %s | %s\n", num, line)

	// 2 leading spaces + " | " (3 chars)
	pad := len(num) + 5 + max(0, min(ee.pos.Column-1, utf8.RuneCountInString(line)))

	b.WriteString(strings.Repeat(" ", pad))
	b.WriteByte('^')

	return b.String()
}
