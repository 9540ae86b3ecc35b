package repl

import (
	"regexp"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	"github.com/ardnew/aql/lang"
)

// ctrlCommands are the available control-mode commands.
var ctrlCommands = []string{"help", "vars", "let", "unset", "edit", "clear", "quit"}

// isWordBoundary reports whether r delimits a completion word. Identifiers
// consist of letters, digits, and underscores; everything else, including
// the member-access dot, ends a word.
func isWordBoundary(r rune) bool {
	return !(r == '_' || r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' ||
		r >= '0' && r <= '9' || r >= utf8.RuneSelf)
}

// wordBounds returns the word around the cursor and its byte boundaries
// within input. The word is empty when the cursor sits between two
// boundaries.
func wordBounds(input string, cursor int) (word string, start, end int) {
	cursor = min(max(cursor, 0), len(input))

	start = cursor
	for start > 0 {
		r, size := utf8.DecodeLastRuneInString(input[:start])
		if isWordBoundary(r) {
			break
		}

		start -= size
	}

	end = cursor
	for end < len(input) {
		r, size := utf8.DecodeRuneInString(input[end:])
		if isWordBoundary(r) {
			break
		}

		end += size
	}

	return input[start:end], start, end
}

// parentPath returns the member-access chain leading up to the word that
// starts at wordStart. For "u.address.ci" with the word "ci" it is
// "u.address". It is empty when the word is not preceded by a dot.
func parentPath(input string, wordStart int) string {
	prefix := input[:wordStart]
	if !strings.HasSuffix(prefix, ".") {
		return ""
	}

	prefix = strings.TrimSuffix(prefix, ".")

	pos := len(prefix)
	for pos > 0 {
		r, size := utf8.DecodeLastRuneInString(prefix[:pos])
		if r != '.' && isWordBoundary(r) {
			break
		}

		pos -= size
	}

	chain := prefix[pos:]
	if chain == "" || strings.HasPrefix(chain, ".") || strings.HasSuffix(chain, ".") ||
		strings.Contains(chain, "..") {
		return ""
	}

	return chain
}

// localPattern matches the variables introduced by for and let clauses.
var localPattern = regexp.MustCompile(`(?i)\b(?:for|let)\s+([\p{L}\p{Nl}_][\p{L}\p{Nl}\p{Mn}\p{Mc}\p{Nd}\p{Pc}]*)`)

// localNames returns the variables the query text introduces, in order of
// appearance.
func localNames(input string) []string {
	var names []string

	for _, m := range localPattern.FindAllStringSubmatch(input, -1) {
		if !slices.Contains(names, m[1]) {
			names = append(names, m[1])
		}
	}

	return names
}

// candidates returns the completions for the word at wordStart. At the top
// level these are the keywords, the session bindings, and the query's own
// variables. After a dot they are the member keys of the bound object the
// chain resolves to.
func (s *session) candidates(input string, wordStart int) []string {
	if parent := parentPath(input, wordStart); parent != "" {
		v, ok := s.lookup(parent)
		if !ok {
			return nil
		}

		return slices.DeleteFunc(v.Keys(), func(k string) bool {
			return !lang.IsIdentifier(k)
		})
	}

	out := slices.Concat(s.names(), localNames(input[:wordStart]), lang.Keywords())
	slices.Sort(out)

	return slices.Compact(out)
}

// computeMatches ranks the candidates for the word under the cursor.
// An empty word lists every member after a dot and nothing at the top level,
// so the hint line stays visible.
func (m model) computeMatches() (matches fuzzy.Matches, wordStart, wordEnd int) {
	input := m.input.Value()

	word, wordStart, wordEnd := wordBounds(input, m.input.Position())

	var cands []string

	if lead, ok := commandLead(input[:wordStart], m.mode); ok {
		if word == "" || lead != "" {
			return nil, wordStart, wordEnd
		}

		cands = ctrlCommands
	} else {
		cands = m.session.candidates(input, wordStart)
	}

	if len(cands) == 0 {
		return nil, wordStart, wordEnd
	}

	if word == "" {
		if parentPath(input, wordStart) == "" {
			return nil, wordStart, wordEnd
		}

		matches = make(fuzzy.Matches, len(cands))
		for i, c := range cands {
			matches[i] = fuzzy.Match{Str: c, Index: i}
		}

		return matches, wordStart, wordEnd
	}

	return fuzzy.Find(word, cands), wordStart, wordEnd
}

// commandLead reports whether the text before the current word belongs to a
// control command, entered in control mode or after a leading colon, and
// returns that text without the colon.
func commandLead(before string, mode inputMode) (string, bool) {
	before = strings.TrimSpace(before)

	if mode == modeCtrl {
		return before, true
	}

	lead, ok := strings.CutPrefix(before, ":")

	return strings.TrimSpace(lead), ok
}

// renderCandidateBar builds the single-line completion bar, ellipsized to fit
// within width. The selected candidate, while tab-cycling, uses the selected
// style.
func renderCandidateBar(
	matches fuzzy.Matches,
	suggIdx int,
	tabActive bool,
	width int,
) string {
	if len(matches) == 0 || width <= 0 {
		return ""
	}

	const sep = "  "

	ellipsis := hintStyle.Render("...")
	reserve := lipgloss.Width(sep) + lipgloss.Width(ellipsis)

	var b strings.Builder

	used := 0

	for i, match := range matches {
		rendered := renderCandidate(match, tabActive && i == suggIdx)

		w := lipgloss.Width(rendered)
		if i > 0 {
			w += lipgloss.Width(sep)
		}

		if i > 0 && i < len(matches)-1 && used+w+reserve > width {
			b.WriteString(sep)
			b.WriteString(ellipsis)

			break
		}

		if i > 0 {
			b.WriteString(sep)
		}

		b.WriteString(rendered)

		used += w
	}

	return b.String()
}

// renderCandidate renders one candidate with its matched characters
// highlighted.
func renderCandidate(match fuzzy.Match, selected bool) string {
	base, highlight := suggestionStyle, suggestionStyle.Bold(true)
	if selected {
		base, highlight = selectedStyle, selectedStyle.Bold(true)
	}

	var b strings.Builder

	for i, r := range match.Str {
		if slices.Contains(match.MatchedIndexes, i) {
			b.WriteString(highlight.Render(string(r)))
		} else {
			b.WriteString(base.Render(string(r)))
		}
	}

	return b.String()
}

// preview abbreviates the literal form of v to fit a listing.
func preview(v lang.Value, limit int) string {
	s := v.String()
	if utf8.RuneCountInString(s) <= limit {
		return s
	}

	r := []rune(s)

	return string(r[:limit-3]) + "..."
}
