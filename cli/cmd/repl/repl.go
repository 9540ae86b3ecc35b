// Package repl implements the interactive query prompt of the aql CLI.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ardnew/aql/lang"
	"github.com/ardnew/aql/log"
)

// editQueryMsg is sent when the editor returns a query that parses.
type editQueryMsg struct{ text string }

// editCancelledMsg is sent when the user cleared the editor content.
type editCancelledMsg struct{}

// editDeclinedMsg is sent when the user declined to re-edit after a syntax
// error.
type editDeclinedMsg struct{}

// editErrorMsg is sent when the edit process fails.
type editErrorMsg struct{ err error }

const (
	evalPrompt = "➜ "
	ctrlPrompt = " :"
)

const helpMessage = `
: Commands (press Esc to toggle mode, or prefix with ':' at the query prompt):

  help              Print this help
  vars              List session bindings
  let NAME QUERY    Bind NAME to the result of QUERY
  unset NAME        Remove a binding
  edit [QUERY]      Edit a query in $EDITOR, then evaluate it
  clear             Clear screen
  quit              Exit REPL

Usage:
  Type a query to evaluate it; bindings are visible as variables
  Completions appear as you type: keywords, bindings, query variables,
    and member keys after a dot
  Press Tab / Shift-Tab to cycle through candidates
  Use Up/Down arrows for history (mode switches automatically)
  Use Shift+Up/Shift+Down for history within the current mode only
  Press Ctrl+C on empty line or Ctrl+D to exit
`

// inputMode represents the current input mode.
type inputMode int

const (
	modeEval inputMode = iota
	modeCtrl
)

// Styles.
var (
	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true)
	ctrlPromptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("5")).
			Bold(true)
	inputStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("15"))
	resultStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
	hintStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	suggestionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	selectedStyle   = lipgloss.NewStyle().
			Foreground(lipgloss.Color("0")).
			Background(lipgloss.Color("4"))
)

// Config configures [Run].
type Config struct {
	// Bindings seed the session; let and unset modify the map.
	Bindings map[string]lang.Value
	// Options are passed to every evaluation.
	Options []lang.Option
	// CacheDir holds the history file. Empty keeps history in memory.
	CacheDir string
	Logger   log.Logger
	// Input and Output default to the terminal.
	Input  io.Reader
	Output io.Writer
}

// Run starts the interactive prompt and returns when the user quits.
func Run(ctx context.Context, cfg Config) (err error) {
	ctx, cancel := context.WithCancelCause(ctx)

	defer func(err *error) { cancel(*err) }(&err)

	var path string
	if cfg.CacheDir != "" {
		path = filepath.Join(cfg.CacheDir, baseHistory)
	}

	history := NewHistory(path)
	if err := history.Load(); err != nil {
		cfg.Logger.WarnContext(ctx, "history not loaded",
			slog.String("path", path),
			slog.Any("error", err),
		)
	}

	cfg.Logger.TraceContext(ctx, "repl start",
		slog.String("history", path),
		slog.Int("history_entries", history.Len()),
		slog.Int("bindings", len(cfg.Bindings)),
	)

	m := newModel(newSession(ctx, cfg.Bindings, cfg.Logger, cfg.Options...), history)

	opts := []tea.ProgramOption{tea.WithContext(ctx)}
	if cfg.Input != nil {
		opts = append(opts, tea.WithInput(cfg.Input))
	}

	if cfg.Output != nil {
		opts = append(opts, tea.WithOutput(cfg.Output))
	}

	_, err = tea.NewProgram(m, opts...).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}

	return err
}

const defaultWidth = 80

// model is the Bubble Tea model for the REPL.
type model struct {
	input        textinput.Model
	session      *session
	logger       log.Logger
	history      *History
	historyIdx   int
	matches      fuzzy.Matches // current fuzzy match results
	wordStart    int           // byte offset of current word start
	wordEnd      int           // byte offset of current word end
	suggIdx      int           // selected candidate index
	tabActive    bool          // whether user is tab-cycling
	preTabText   string        // input text before tab-cycling began
	preTabCursor int           // cursor position before tab-cycling began
	width        int
	quitting     bool
	mode         inputMode
	saved        [2]struct {
		text   string
		cursor int
	} // per-mode input while the other mode is active
}

func newModel(s *session, history *History) model {
	ti := textinput.New()
	ti.Prompt = promptStyle.Render(evalPrompt)
	ti.Focus()
	ti.CharLimit = 4096
	ti.Width = defaultWidth

	return model{
		input:      ti,
		session:    s,
		logger:     s.logger,
		history:    history,
		historyIdx: history.Len(),
		width:      defaultWidth,
		suggIdx:    -1,
	}
}

func (m model) ctx() context.Context { return m.session.ctx() }

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(msg.Width-len(evalPrompt)-2, 1)

		return m, nil

	case editQueryMsg:
		return m.evaluate(msg.text)

	case editCancelledMsg:
		return m, tea.Println(hintStyle.Render("edit cancelled"))

	case editDeclinedMsg:
		return m, tea.Println(hintStyle.Render("edit abandoned"))

	case editErrorMsg:
		return m, tea.Println(errorStyle.Render("error: " + msg.err.Error()))
	}

	var cmd tea.Cmd

	m.input, cmd = m.input.Update(msg)

	return m, cmd
}

func (m model) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(m.input.View())
	b.WriteString("\n")

	switch {
	case m.historyIdx < m.history.Len():
		hint := fmt.Sprintf("%s/%d",
			lipgloss.NewStyle().Bold(true).Render(strconv.Itoa(m.historyIdx+1)),
			m.history.Len())
		b.WriteString(hintStyle.Render(hint))

	case strings.TrimSpace(m.input.Value()) == "":
		hint := "Type a query or press Esc for commands"
		if m.mode == modeCtrl {
			hint = "Type: " + strings.Join(ctrlCommands, ", ") + " (press Esc to return)"
		}

		b.WriteString(hintStyle.Render(hint))

	case len(m.matches) > 0:
		b.WriteString(renderCandidateBar(m.matches, m.suggIdx, m.tabActive, m.width))
	}

	b.WriteString("\n")

	return b.String()
}

func (m model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		m.input.SetValue("")
		m.tabActive = false
		m.historyIdx = m.history.Len()
		m.refreshMatches(false)

		return m, nil

	case tea.KeyCtrlD:
		if m.input.Value() == "" {
			m.quitting = true

			return m, tea.Quit
		}

		return m, nil

	case tea.KeyEnter:
		if !m.tabActive || len(m.matches) == 0 {
			return m.executeInput()
		}

		m.tabActive = false
		m.refreshMatches(true)

		return m, nil

	case tea.KeyTab:
		return m.cycle(1), nil

	case tea.KeyShiftTab:
		return m.cycle(-1), nil

	case tea.KeyUp:
		return m.historyStep(-1, false), nil

	case tea.KeyDown:
		return m.historyStep(1, false), nil

	case tea.KeyShiftUp:
		return m.historyStep(-1, true), nil

	case tea.KeyShiftDown:
		return m.historyStep(1, true), nil

	case tea.KeyEsc:
		if m.tabActive {
			m.tabActive = false
			m.input.SetValue(m.preTabText)
			m.input.SetCursor(m.preTabCursor)
			m.refreshMatches(false)

			return m, nil
		}

		return m.switchToMode(1 - m.mode), nil
	}

	if msg.Type == tea.KeyRunes && m.tabActive && msg.String() == " " {
		m.tabActive = false
	}

	if msg.Type != tea.KeyRunes {
		m.tabActive = false
	}

	var cmd tea.Cmd

	m.historyIdx = m.history.Len()
	m.input, cmd = m.input.Update(msg)
	m.refreshMatches(msg.Type == tea.KeyRunes)

	return m, cmd
}

// cycle moves the tab selection by step, wrapping around. A sole candidate
// is completed at once.
func (m model) cycle(step int) model {
	if len(m.matches) == 0 {
		return m
	}

	if len(m.matches) == 1 {
		m.replaceCurrentWord(m.matches[0].Str)
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil

		return m
	}

	if m.tabActive {
		m.suggIdx = (m.suggIdx + step + len(m.matches)) % len(m.matches)
	} else {
		m.tabActive = true
		m.preTabText = m.input.Value()
		m.preTabCursor = m.input.Position()

		m.suggIdx = 0
		if step < 0 {
			m.suggIdx = len(m.matches) - 1
		}
	}

	m.replaceCurrentWord(m.matches[m.suggIdx].Str)

	return m
}

// replaceCurrentWord replaces the current word with replacement and moves
// the cursor after it.
func (m *model) replaceCurrentWord(replacement string) {
	input := m.input.Value()

	m.input.SetValue(input[:m.wordStart] + replacement + input[m.wordEnd:])
	m.wordEnd = m.wordStart + len(replacement)
	m.input.SetCursor(m.wordEnd)
}

// refreshMatches recomputes the completion candidates. With autoConfirm, a
// word that already equals its sole candidate is accepted.
func (m *model) refreshMatches(autoConfirm bool) {
	m.matches, m.wordStart, m.wordEnd = m.computeMatches()

	if !m.tabActive {
		m.suggIdx = -1
	}

	if !autoConfirm || len(m.matches) != 1 {
		return
	}

	if m.input.Value()[m.wordStart:m.wordEnd] == m.matches[0].Str {
		m.tabActive = false
		m.suggIdx = -1
		m.matches = nil
	}
}

func (m model) executeInput() (model, tea.Cmd) {
	input := strings.TrimSpace(m.input.Value())
	if input == "" {
		return m, nil
	}

	m.saved = [2]struct {
		text   string
		cursor int
	}{}
	m.input.SetValue("")
	m.matches = nil
	m.tabActive = false

	mode := m.mode
	line := input

	if cmd, ok := strings.CutPrefix(input, ":"); ok && mode == modeEval {
		mode, line = modeCtrl, strings.TrimSpace(cmd)
	}

	if err := m.history.Add(line, mode); err != nil {
		m.logger.DebugContext(m.ctx(), "history not saved", slog.Any("error", err))
	}

	m.historyIdx = m.history.Len()

	if mode == modeCtrl {
		return m.executeCommand(line)
	}

	return m.evaluate(input)
}

// evaluate runs a query and prints its echo and result.
func (m model) evaluate(text string) (model, tea.Cmd) {
	c := m.session.eval(text)

	return m, tea.Sequence(
		tea.Println(promptStyle.Render(evalPrompt)+inputStyle.Render(text)),
		tea.Println(renderCursor(c, text)),
	)
}

// renderCursor formats the rows of c one per line in literal syntax, or its
// error with the offending source line.
func renderCursor(c *lang.Cursor, text string) string {
	if c.IsError() {
		return errorStyle.Render(lang.FormatError(c.Err(), text))
	}

	if c.Count() == 0 {
		return hintStyle.Render("(no rows)")
	}

	rows := make([]string, 0, c.Count())
	for v := range c.All() {
		rows = append(rows, resultStyle.Render(v.String()))
	}

	return strings.Join(rows, "\n")
}

// outcome is the effect of a control command.
type outcome struct {
	text  string
	quit  bool
	clear bool
	edit  bool
	arg   string
}

// dispatch runs the control command line.
func (m model) dispatch(line string) outcome {
	name, arg, _ := strings.Cut(strings.TrimSpace(line), " ")
	arg = strings.TrimSpace(arg)

	m.logger.TraceContext(m.ctx(), "repl command",
		slog.String("command", name),
		slog.String("args", arg),
	)

	switch name {
	case "q", "quit", "exit":
		return outcome{quit: true}

	case "h", "help":
		return outcome{text: helpMessage}

	case "v", "vars":
		return outcome{text: m.listBindings()}

	case "l", "let":
		target, query, _ := strings.Cut(arg, " ")

		v, err := m.session.let(target, strings.TrimSpace(query))
		if err != nil {
			return outcome{text: errorStyle.Render(lang.FormatError(err, strings.TrimSpace(query)))}
		}

		return outcome{text: resultStyle.Render(target + " = " + preview(v, m.width))}

	case "u", "unset":
		if !m.session.unset(arg) {
			return outcome{text: errorStyle.Render("not bound: " + arg)}
		}

		return outcome{text: hintStyle.Render("unset " + arg)}

	case "e", "edit":
		return outcome{edit: true, arg: arg}

	case "c", "clear":
		return outcome{clear: true}

	default:
		return outcome{text: errorStyle.Render("unknown command: " + name + " (try 'help')")}
	}
}

func (m model) executeCommand(line string) (model, tea.Cmd) {
	echo := tea.Println(ctrlPromptStyle.Render(ctrlPrompt) + inputStyle.Render(line))

	out := m.dispatch(line)

	switch {
	case out.quit:
		m.quitting = true

		return m, tea.Sequence(echo, tea.Quit)

	case out.clear:
		return m, tea.ClearScreen

	case out.edit:
		return m, tea.Sequence(echo, m.edit(out.arg))
	}

	return m, tea.Sequence(echo, tea.Println(out.text))
}

// edit opens text, or the most recent query when text is empty, in the
// user's editor.
func (m model) edit(text string) tea.Cmd {
	if text == "" {
		for i := m.history.Len() - 1; i >= 0; i-- {
			if e, err := m.history.At(i); err == nil && e.Mode == modeEval {
				text = e.Line

				break
			}
		}
	}

	cmd := &editQueryCommand{
		ctxFunc: m.session.ctx,
		logger:  m.logger,
		opts:    m.session.opts,
		text:    text,
	}

	return tea.Exec(cmd, func(err error) tea.Msg {
		switch {
		case errors.Is(err, ErrEditDeclined):
			return editDeclinedMsg{}
		case err != nil:
			return editErrorMsg{err: err}
		case cmd.result == "":
			return editCancelledMsg{}
		}

		return editQueryMsg{text: cmd.result}
	})
}

// listBindings renders one line per session binding.
func (m model) listBindings() string {
	names := m.session.names()
	if len(names) == 0 {
		return hintStyle.Render("  (no bindings)")
	}

	var b strings.Builder

	for _, name := range names {
		v := m.session.bindings[name]
		fmt.Fprintf(&b, "  %s %s\n", name,
			hintStyle.Render(v.TypeName()+" "+preview(v, max(m.width-len(name)-12, 16))))
	}

	return strings.TrimSuffix(b.String(), "\n")
}

// historyStep moves through history by step. Outside of sameMode the input
// mode follows the recalled entry; with sameMode, entries of the other mode
// are skipped. Stepping past the newest entry clears the input.
func (m model) historyStep(step int, sameMode bool) model {
	for i := m.historyIdx + step; i >= 0 && i < m.history.Len(); i += step {
		entry, err := m.history.At(i)
		if err != nil || (sameMode && entry.Mode != m.mode) {
			continue
		}

		if entry.Mode != m.mode {
			m = m.switchToMode(entry.Mode)
		}

		m.historyIdx = i
		m.input.SetValue(entry.Line)
		m.input.SetCursor(len(entry.Line))
		m.refreshMatches(false)

		return m
	}

	if step > 0 && m.historyIdx < m.history.Len() {
		m.historyIdx = m.history.Len()
		m.input.SetValue("")
		m.refreshMatches(false)
	}

	return m
}

// switchToMode switches input mode, keeping each mode's pending input.
func (m model) switchToMode(mode inputMode) model {
	if mode == m.mode {
		return m
	}

	m.saved[m.mode].text = m.input.Value()
	m.saved[m.mode].cursor = m.input.Position()

	m.mode = mode
	if mode == modeEval {
		m.input.Prompt = promptStyle.Render(evalPrompt)
	} else {
		m.input.Prompt = ctrlPromptStyle.Render(ctrlPrompt)
	}

	m.input.SetValue(m.saved[mode].text)
	m.input.SetCursor(m.saved[mode].cursor)
	m.refreshMatches(false)

	return m
}
