package concertina

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"
	"golang.org/x/text/width"
)

// displayWidth reports how many terminal cells s occupies, counting
// East Asian wide/fullwidth runes as two so predicate names mixing
// CJK and ASCII still line up in the action column.
func displayWidth(s string) int {
	n := 0
	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			n += 2
		default:
			n++
		}
	}
	return n
}

// padRight pads s with spaces until it occupies at least cells
// terminal columns, per displayWidth.
func padRight(s string, cells int) string {
	if n := displayWidth(s); n < cells {
		s += strings.Repeat(" ", cells-n)
	}
	return s
}

// TTYDisplay drives a full-screen bubbletea program showing every
// action's status plus an overall progress bar, §4.9's third
// display mode ("no-op, ascii, [live terminal]") for the `run_in_terminal`
// verb. Render/Update are called synchronously from Concertina's own
// goroutine, so they only forward a snapshot to the bubbletea program,
// which runs and repaints on its own goroutine.
type TTYDisplay struct {
	mu      sync.Mutex
	program *tea.Program
	group   *errgroup.Group
	started bool
}

// NewTTYDisplay returns a display that lazily starts its terminal program
// on the first Render call.
func NewTTYDisplay() *TTYDisplay {
	return &TTYDisplay{}
}

func isTerminal() bool {
	return term.IsTerminal(int(os.Stdout.Fd()))
}

type ttyActionStatus struct {
	Name   string
	Status string // "pending", "running", "done"
	Type   ActionType
}

type ttySnapshot struct {
	runID   string
	actions []ttyActionStatus
}

type ttyQuitMsg struct{}

var (
	runningTTYStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	completeTTYStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	pendingTTYStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	dataTTYStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
)

type ttyModel struct {
	snapshot ttySnapshot
	bar      progress.Model
	done     bool
}

func newTTYModel() ttyModel {
	return ttyModel{bar: progress.New(progress.WithDefaultGradient())}
}

func (m ttyModel) Init() tea.Cmd { return nil }

func (m ttyModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch v := msg.(type) {
	case ttySnapshot:
		m.snapshot = v
		return m, nil
	case ttyQuitMsg:
		m.done = true
		return m, tea.Quit
	case tea.KeyMsg:
		if v.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m ttyModel) View() string {
	if m.done {
		return ""
	}
	actions := append([]ttyActionStatus{}, m.snapshot.actions...)
	sort.Slice(actions, func(i, j int) bool { return actions[i].Name < actions[j].Name })

	nameWidth := 0
	for _, a := range actions {
		if w := displayWidth(a.Name); w > nameWidth {
			nameWidth = w
		}
	}

	var rows []string
	total, done := 0, 0
	for _, a := range actions {
		style := pendingTTYStyle
		switch {
		case a.Type == ActionData:
			style = dataTTYStyle
		case a.Status == "done":
			style = completeTTYStyle
		case a.Status == "running":
			style = runningTTYStyle
		}
		if a.Type != ActionData {
			total++
			if a.Status == "done" {
				done++
			}
		}
		rows = append(rows, style.Render(fmt.Sprintf("%-8s %s", a.Status, padRight(a.Name, nameWidth))))
	}

	frac := 0.0
	if total > 0 {
		frac = float64(done) / float64(total)
	}
	header := fmt.Sprintf("run %s", m.snapshot.runID)
	return header + "\n" + strings.Join(rows, "\n") + "\n\n" + m.bar.ViewAs(frac) + "\n"
}

func (d *TTYDisplay) ensureStarted() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return
	}
	d.started = true
	if !isTerminal() {
		return
	}
	lipgloss.SetColorProfile(termenv.NewOutput(os.Stdout).Profile)
	d.program = tea.NewProgram(newTTYModel(), tea.WithoutSignalHandler())
	var g errgroup.Group
	d.group = &g
	g.Go(func() error {
		_, err := d.program.Run()
		return err
	})
}

func (d *TTYDisplay) snapshotOf(c *Concertina) ttySnapshot {
	all := c.AllActions()
	out := make([]ttyActionStatus, 0, len(all))
	for _, a := range all {
		status := "pending"
		switch {
		case c.IsComplete(a.Name):
			status = "done"
		case c.IsRunning(a.Name):
			status = "running"
		}
		out = append(out, ttyActionStatus{Name: a.Name, Status: status, Type: a.Type})
	}
	return ttySnapshot{runID: c.RunID(), actions: out}
}

func (d *TTYDisplay) Render(_ context.Context, c *Concertina) {
	d.ensureStarted()
	d.mu.Lock()
	program := d.program
	d.mu.Unlock()
	if program != nil {
		program.Send(d.snapshotOf(c))
	}
}

func (d *TTYDisplay) Update(ctx context.Context, c *Concertina) { d.Render(ctx, c) }

// Close asks the terminal program to quit and waits for its goroutine to
// return, the caller's cue that the alternate screen buffer has been torn
// down and normal output can resume.
func (d *TTYDisplay) Close() error {
	d.mu.Lock()
	program, group := d.program, d.group
	d.mu.Unlock()
	if program == nil {
		return nil
	}
	program.Send(ttyQuitMsg{})
	return group.Wait()
}
