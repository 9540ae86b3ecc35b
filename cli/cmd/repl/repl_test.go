package repl

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/aql/lang"
	"github.com/ardnew/aql/log"
)

func testModel(t *testing.T, bindings map[string]lang.Value) model {
	t.Helper()

	return newModel(newSession(t.Context(), bindings, log.Logger{}), NewHistory(""))
}

func TestSession_Let(t *testing.T) {
	s := newSession(t.Context(), nil, log.Logger{})

	if _, err := s.let("xs", "for u in [1, 2, 3] return u * 2"); err != nil {
		t.Fatalf("let xs: %v", err)
	}

	v, err := s.let("n", "return xs[2]")
	if err != nil {
		t.Fatalf("let n: %v", err)
	}

	if got := v.String(); got != "6" {
		t.Errorf("n = %s, want 6", got)
	}

	if got := s.bindings["xs"].String(); got != "[2, 4, 6]" {
		t.Errorf("xs = %s", got)
	}

	if _, err := s.let("1x", "return 1"); !errors.Is(err, ErrUsage) {
		t.Errorf("let 1x error = %v, want ErrUsage", err)
	}

	if _, err := s.let("Return", "return 1"); !errors.Is(err, ErrUsage) {
		t.Errorf("let Return error = %v, want ErrUsage", err)
	}

	if v, err := s.let("ñ", "return 1"); err != nil || v.String() != "1" {
		t.Errorf("let ñ = %v, %v", v, err)
	}

	if _, err := s.let("bad", "return 1 / 0"); !errors.Is(err, lang.ErrDivisionByZero) {
		t.Errorf("let bad error = %v, want ErrDivisionByZero", err)
	}

	if _, ok := s.bindings["bad"]; ok {
		t.Error("failed let bound its name")
	}

	if !s.unset("n") || s.unset("n") {
		t.Error("unset did not report the prior binding")
	}

	if v, ok := s.lookup("xs"); !ok || v.Len() != 3 {
		t.Errorf("lookup(xs) = %v, %v", v, ok)
	}
}

func TestRenderCursor(t *testing.T) {
	s := newSession(t.Context(), map[string]lang.Value{"x": lang.Int(2)}, log.Logger{})

	tests := []struct {
		query string
		want  []string
	}{
		{"for i in [1, x] return {i: i}", []string{"{i: 1}\n{i: 2}"}},
		{"for i in [] return i", []string{"(no rows)"}},
		{"return y", []string{"unbound", "  1 | return y", "^"}},
	}

	for _, tt := range tests {
		got := renderCursor(s.eval(tt.query), tt.query)

		for _, want := range tt.want {
			if !strings.Contains(got, want) {
				t.Errorf("renderCursor(%q) = %q, lacks %q", tt.query, got, want)
			}
		}
	}
}

func TestModel_Dispatch(t *testing.T) {
	m := testModel(t, map[string]lang.Value{"limit": lang.Int(3)})

	tests := []struct {
		line  string
		check func(outcome) bool
	}{
		{"help", func(o outcome) bool { return strings.Contains(o.text, "let NAME QUERY") }},
		{"vars", func(o outcome) bool { return strings.Contains(o.text, "limit") }},
		{"let evens for i in [1, 2, 3, 4] filter i % 2 == 0 return i", func(o outcome) bool {
			return strings.Contains(o.text, "evens = [2, 4]")
		}},
		{"vars", func(o outcome) bool { return strings.Contains(o.text, "evens") }},
		{"unset evens", func(o outcome) bool { return strings.Contains(o.text, "unset evens") }},
		{"unset evens", func(o outcome) bool { return strings.Contains(o.text, "not bound") }},
		{"let", func(o outcome) bool { return strings.Contains(o.text, "usage") }},
		{"edit return 1", func(o outcome) bool { return o.edit && o.arg == "return 1" }},
		{"clear", func(o outcome) bool { return o.clear }},
		{"quit", func(o outcome) bool { return o.quit }},
		{"bogus", func(o outcome) bool { return strings.Contains(o.text, "unknown command: bogus") }},
	}

	for _, tt := range tests {
		if out := m.dispatch(tt.line); !tt.check(out) {
			t.Errorf("dispatch(%q) = %+v", tt.line, out)
		}
	}
}

func TestModel_ExecuteInput(t *testing.T) {
	m := testModel(t, nil)

	m.input.SetValue(":let n return 40 + 2")
	m, _ = m.executeInput()

	if got := m.session.bindings["n"].String(); got != "42" {
		t.Errorf("n = %s, want 42", got)
	}

	m.input.SetValue("return n")
	m, _ = m.executeInput()

	want := []HistoryEntry{{"let n return 40 + 2", modeCtrl}, {"return n", modeEval}}
	if got := m.history.Entries(); len(got) != 2 || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("history = %v, want %v", got, want)
	}

	if m.input.Value() != "" || m.historyIdx != 2 {
		t.Errorf("input = %q, historyIdx = %d", m.input.Value(), m.historyIdx)
	}
}

func TestModel_HistoryNavigation(t *testing.T) {
	m := testModel(t, nil)

	for _, e := range []HistoryEntry{
		{"return 1", modeEval},
		{"vars", modeCtrl},
		{"return 2", modeEval},
	} {
		if err := m.history.Add(e.Line, e.Mode); err != nil {
			t.Fatal(err)
		}
	}

	m.historyIdx = m.history.Len()

	m = m.historyStep(-1, false)
	if m.input.Value() != "return 2" || m.mode != modeEval {
		t.Fatalf("step 1: %q mode %d", m.input.Value(), m.mode)
	}

	m = m.historyStep(-1, false)
	if m.input.Value() != "vars" || m.mode != modeCtrl {
		t.Fatalf("step 2: %q mode %d", m.input.Value(), m.mode)
	}

	m = m.switchToMode(modeEval)
	m.historyIdx = m.history.Len()

	m = m.historyStep(-1, true)
	m = m.historyStep(-1, true)
	if m.input.Value() != "return 1" || m.mode != modeEval {
		t.Fatalf("same-mode step: %q mode %d", m.input.Value(), m.mode)
	}

	m = m.historyStep(1, true)
	m = m.historyStep(1, true)
	if m.input.Value() != "" || m.historyIdx != m.history.Len() {
		t.Errorf("past newest: %q at %d", m.input.Value(), m.historyIdx)
	}
}

func TestModel_TabCompletion(t *testing.T) {
	m := testModel(t, map[string]lang.Value{
		"users":  lang.List(),
		"userID": lang.Int(1),
	})

	m.input.SetValue("for u in use")
	m.input.SetCursor(len("for u in use"))
	m.refreshMatches(false)

	if len(m.matches) != 2 {
		t.Fatalf("matches = %v, want users and userID", m.matches)
	}

	m = m.cycle(1)
	first := m.input.Value()

	m = m.cycle(1)
	second := m.input.Value()

	if first == second || !strings.HasPrefix(first, "for u in user") || !strings.HasPrefix(second, "for u in user") {
		t.Errorf("cycle produced %q then %q", first, second)
	}

	next, _ := m.handleKey(tea.KeyMsg{Type: tea.KeyEsc})
	if next.input.Value() != "for u in use" || next.tabActive {
		t.Errorf("Esc during cycling = %q, tabActive %v", next.input.Value(), next.tabActive)
	}
}

func TestModel_Quit(t *testing.T) {
	m := testModel(t, nil)

	next, cmd := m.handleKey(tea.KeyMsg{Type: tea.KeyCtrlD})
	if !next.quitting || cmd == nil {
		t.Error("Ctrl+D on empty input did not quit")
	}

	if next.View() != "" {
		t.Errorf("View after quit = %q", next.View())
	}
}
