package lang

import (
	"context"
	"errors"
	"testing"
)

func FuzzParse(f *testing.F) {
	seeds := []string{
		"return 1",
		"for u in [1, 2, 3] filter u > 1 sort u desc limit 1, 1 return {u: u}",
		"let x = (for u in xs return u.a[0]) return x",
		`return 'a\'b' + "c"`,
		"return ((((1))))",
		"return /* c */ -!x // end",
		"FOR `for` IN [] RETURN `for`",
	}
	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, text string) {
		q, err := Parse(context.Background(), text)
		if err != nil {
			var e *Error
			if !errors.As(err, &e) {
				t.Fatalf("Parse(%q) error %T is not *Error", text, err)
			}

			return
		}

		// Canonical text reparses to itself.
		canon := q.String()

		again, err := Parse(context.Background(), canon)
		if err != nil {
			t.Fatalf("reparse %q (from %q): %v", canon, text, err)
		}

		if again.String() != canon {
			t.Fatalf("canonical text not stable: %q then %q", canon, again.String())
		}

		// Evaluation may fail but never panics or yields rows with an error.
		cur := Evaluate(context.Background(), text, nil)
		if cur.IsError() && cur.Count() != 0 {
			t.Fatalf("error cursor for %q holds %d rows", text, cur.Count())
		}
	})
}
