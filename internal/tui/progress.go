package tui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/EmundoT/connected-lint/internal/types"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// progressFinishTimeout bounds how long Complete and Fail wait for the final frame.
const progressFinishTimeout = 500 * time.Millisecond

var (
	_ types.ProgressTracker = (*BubbleteaProgressTracker)(nil)
	_ types.ProgressTracker = (*TextProgressTracker)(nil)
	_ types.ProgressTracker = (*NoOpProgressTracker)(nil)
)

var progressStyleLabel = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))

// progressModel renders a batch as a bar plus the last processed item.
type progressModel struct {
	label   string
	current int
	total   int
	last    string
	width   int
	started time.Time
	done    bool
	err     error
}

type (
	progressIncrementMsg struct{ message string }
	progressSetTotalMsg  struct{ total int }
	progressCompleteMsg  struct{}
	progressFailMsg      struct{ err error }
)

func (m progressModel) Init() tea.Cmd { return nil }

func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
	case progressIncrementMsg:
		m.current++
		m.last = msg.message
	case progressSetTotalMsg:
		m.total = msg.total
	case progressCompleteMsg:
		m.done = true
		return m, tea.Quit
	case progressFailMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	}
	return m, nil
}

func (m progressModel) View() string {
	switch {
	case m.done && m.err != nil:
		return styleErr.Render(fmt.Sprintf("✖ %s failed after %d/%d: %v", m.label, m.current, m.total, m.err)) + "\n"
	case m.done:
		return styleSuccess.Render(fmt.Sprintf("✔ %s (%d/%d)%s", m.label, m.current, m.total, m.elapsed())) + "\n"
	}

	width := 40
	if m.width > 0 && m.width < 80 {
		width = 20
	}
	filled := 0
	if m.total > 0 {
		filled = width * m.current / m.total
		if filled > width {
			filled = width
		}
	}
	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	line := fmt.Sprintf("%s %d/%d", bar, m.current, m.total)
	if m.last != "" {
		line += " " + styleDim.Render(m.last)
	}
	return progressStyleLabel.Render(m.label) + "\n" + line
}

func (m progressModel) elapsed() string {
	if m.started.IsZero() {
		return ""
	}
	return " in " + time.Since(m.started).Round(time.Millisecond).String()
}

// BubbleteaProgressTracker animates a progress bar on stderr.
type BubbleteaProgressTracker struct {
	program *tea.Program
	exited  chan struct{}
}

// NewBubbleteaProgressTracker starts rendering immediately; call Complete or Fail to stop.
func NewBubbleteaProgressTracker(total int, label string) *BubbleteaProgressTracker {
	m := progressModel{label: label, total: total, started: time.Now()}
	t := &BubbleteaProgressTracker{
		program: tea.NewProgram(m, tea.WithOutput(os.Stderr), tea.WithInput(nil)),
		exited:  make(chan struct{}),
	}
	go func() {
		defer close(t.exited)
		_, _ = t.program.Run()
	}()
	return t
}

func (t *BubbleteaProgressTracker) Increment(message string) {
	t.program.Send(progressIncrementMsg{message: message})
}

func (t *BubbleteaProgressTracker) SetTotal(total int) {
	t.program.Send(progressSetTotalMsg{total: total})
}

// Complete renders the final frame and waits for the program to exit.
func (t *BubbleteaProgressTracker) Complete() {
	t.program.Send(progressCompleteMsg{})
	t.wait()
}

// Fail renders err and waits for the program to exit.
func (t *BubbleteaProgressTracker) Fail(err error) {
	t.program.Send(progressFailMsg{err: err})
	t.wait()
}

func (t *BubbleteaProgressTracker) wait() {
	select {
	case <-t.exited:
	case <-time.After(progressFinishTimeout):
	}
}

// TextProgressTracker prints one line per processed item. Used when stderr is not a terminal.
type TextProgressTracker struct {
	out     io.Writer
	label   string
	current int
	total   int
}

// NewTextProgressTracker writes to stderr so stdout stays parseable.
func NewTextProgressTracker(total int, label string) *TextProgressTracker {
	return newTextProgressTracker(os.Stderr, total, label)
}

func newTextProgressTracker(out io.Writer, total int, label string) *TextProgressTracker {
	fmt.Fprintf(out, "Starting: %s (0/%d)\n", label, total)
	return &TextProgressTracker{out: out, label: label, total: total}
}

func (t *TextProgressTracker) Increment(message string) {
	t.current++
	line := fmt.Sprintf("  [%d/%d]", t.current, t.total)
	if message != "" {
		line += " " + message
	}
	fmt.Fprintln(t.out, line)
}

func (t *TextProgressTracker) SetTotal(total int) { t.total = total }

func (t *TextProgressTracker) Complete() {
	fmt.Fprintf(t.out, "✓ %s: Completed (%d/%d)\n", t.label, t.current, t.total)
}

func (t *TextProgressTracker) Fail(err error) {
	fmt.Fprintf(t.out, "✗ %s: Failed - %v\n", t.label, err)
}

// NoOpProgressTracker discards progress. Used in quiet and JSON modes.
type NoOpProgressTracker struct{}

// NewNoOpProgressTracker creates a NoOpProgressTracker.
func NewNoOpProgressTracker() *NoOpProgressTracker { return &NoOpProgressTracker{} }

func (*NoOpProgressTracker) Increment(string) {}
func (*NoOpProgressTracker) SetTotal(int)     {}
func (*NoOpProgressTracker) Complete()        {}
func (*NoOpProgressTracker) Fail(error)       {}
