package lang_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/ardnew/aql/lang"
)

func TestEvaluateAll(t *testing.T) {
	reqs := make([]lang.Request, 20)
	for i := range reqs {
		reqs[i] = lang.Request{
			Query:    "for u in [1, 2] return u * n",
			Bindings: map[string]lang.Value{"n": lang.Int(int64(i))},
		}
	}

	reqs[7] = lang.Request{Query: "return 1 / 0"}

	curs, err := lang.EvaluateAll(t.Context(), reqs, lang.WithPoolSize(4))
	if err != nil {
		t.Fatalf("EvaluateAll: %v", err)
	}

	if len(curs) != len(reqs) {
		t.Fatalf("got %d cursors, want %d", len(curs), len(reqs))
	}

	for i, cur := range curs {
		if i == 7 {
			if !errors.Is(cur.Err(), lang.ErrDivisionByZero) {
				t.Errorf("cursor 7 error = %v, want %v", cur.Err(), lang.ErrDivisionByZero)
			}

			continue
		}

		if cur.IsError() {
			t.Errorf("cursor %d: %v", i, cur.Err())

			continue
		}

		want := fmt.Sprintf("[%d, %d]", i, 2*i)
		if got := lang.List(cur.ToList()...).String(); got != want {
			t.Errorf("cursor %d = %s, want %s", i, got, want)
		}
	}
}

func TestEvaluateAll_Empty(t *testing.T) {
	curs, err := lang.EvaluateAll(t.Context(), nil)
	if err != nil || len(curs) != 0 {
		t.Errorf("EvaluateAll(nil) = %v, %v", curs, err)
	}
}
