package concertina

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Display renders a Concertina's current scheduling state; §4.9
// requires this to be pluggable (none, ascii, graph), all three showing
// the same underlying graph.
type Display interface {
	Render(ctx context.Context, c *Concertina)
	Update(ctx context.Context, c *Concertina)
}

// NoopDisplay renders nothing, for headless/batch runs.
type NoopDisplay struct{}

func (NoopDisplay) Render(context.Context, *Concertina) {}
func (NoopDisplay) Update(context.Context, *Concertina) {}

var (
	runningStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	completeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	pendingStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// AsciiDisplay prints a plain-text rendering of the dependency graph to
// Out on every Render/Update call, coloring nodes by their run state the
// way the original's terminal mode colors the currently-running action
// bold yellow (AsNodesAndEdges's ColoredNode).
type AsciiDisplay struct {
	Out io.Writer
}

func (d AsciiDisplay) render(_ context.Context, c *Concertina, updating bool) {
	if d.Out == nil {
		return
	}
	actions := c.AllActions()
	sort.Slice(actions, func(i, j int) bool { return actions[i].Name < actions[j].Name })

	var b strings.Builder
	fmt.Fprintf(&b, "run %s\n", c.RunID())
	for _, a := range actions {
		b.WriteString(d.node(c, a.Name))
		if len(a.Requires) > 0 {
			deps := append([]string{}, a.Requires...)
			sort.Strings(deps)
			rendered := make([]string, len(deps))
			for i, dep := range deps {
				rendered[i] = d.node(c, dep)
			}
			b.WriteString(" <- ")
			b.WriteString(strings.Join(rendered, ", "))
		}
		b.WriteString("\n")
	}
	if updating {
		fmt.Fprint(d.Out, "\033[H\033[2J")
	}
	fmt.Fprint(d.Out, b.String())
}

func (d AsciiDisplay) node(c *Concertina, name string) string {
	switch {
	case c.IsRunning(name):
		return runningStyle.Render(name)
	case c.IsComplete(name):
		return completeStyle.Render(name)
	default:
		return pendingStyle.Render(name)
	}
}

func (d AsciiDisplay) Render(ctx context.Context, c *Concertina) { d.render(ctx, c, false) }
func (d AsciiDisplay) Update(ctx context.Context, c *Concertina) { d.render(ctx, c, true) }

// GraphDisplay writes the dependency graph as Graphviz DOT text, the
// textual equivalent of the original notebook's graphviz.Digraph
// rendering (AsGraphViz) — no Go graphviz-binding dependency appears
// anywhere in the retrieval pack, so this emits DOT source for the
// caller to feed to an external `dot` process or file rather than
// rendering an image itself.
type GraphDisplay struct {
	Out io.Writer
}

func (d GraphDisplay) render(_ context.Context, c *Concertina) {
	if d.Out == nil {
		return
	}
	actions := c.AllActions()
	sort.Slice(actions, func(i, j int) bool { return actions[i].Name < actions[j].Name })

	var b strings.Builder
	b.WriteString("digraph Concertina {\n")
	for _, a := range actions {
		fmt.Fprintf(&b, "  %q [shape=%s, style=\"filled,rounded\", fillcolor=%q, color=gray34];\n",
			a.Name, c.ActionShape(a.Name), c.ActionColor(a.Name))
		deps := append([]string{}, a.Requires...)
		sort.Strings(deps)
		for _, dep := range deps {
			fmt.Fprintf(&b, "  %q -> %q;\n", dep, a.Name)
		}
	}
	b.WriteString("}\n")
	fmt.Fprint(d.Out, b.String())
}

func (d GraphDisplay) Render(ctx context.Context, c *Concertina) { d.render(ctx, c) }
func (d GraphDisplay) Update(ctx context.Context, c *Concertina) { d.render(ctx, c) }
