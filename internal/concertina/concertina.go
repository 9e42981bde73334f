// Package concertina is the workflow executor §4.9 describes: a
// small, single-threaded topological scheduler that runs compiled
// per-predicate SQL against a pluggable runner, optionally rendering its
// progress as it goes.
package concertina

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// ActionType distinguishes a raw input table from SQL the executor must
// actually run, and final predicates (whose rows the caller wants back)
// from merely intermediate ones.
type ActionType string

const (
	ActionData         ActionType = "data"
	ActionIntermediate ActionType = "intermediate"
	ActionFinal        ActionType = "final"
)

// Launcher says whether an Action runs a query or is a no-op placeholder
// for data the caller already provided.
type Launcher string

const (
	LauncherNone  Launcher = "none"
	LauncherQuery Launcher = "query"
)

// Action is one node of the dependency graph the executor schedules.
type Action struct {
	Name     string
	Type     ActionType
	Requires []string
	Launcher Launcher
	Engine   string
	Predicate string
	SQL      string
}

// ActionEngine runs a single Action; QueryEngine and DryRunEngine are the
// two implementations, mirroring ConcertinaQueryEngine/
// ConcertinaDryRunEngine.
type ActionEngine interface {
	Run(ctx context.Context, action Action) error
}

// Concertina schedules and runs a set of Actions, one at a time,
// tracking which are still pending, running, or complete so a Display
// can render the graph's state as it evolves.
type Concertina struct {
	config       []Action
	byName       map[string]Action
	actionsToRun []string
	engine       ActionEngine
	display      Display

	// runID identifies this run for logs and display headers. It has no
	// bearing on scheduling; it exists purely so two runs of the same
	// program can be told apart.
	runID string

	allActions      map[string]struct{}
	completeActions map[string]struct{}
	runningActions  map[string]struct{}
}

// RunID is this Concertina's unique run identifier, generated once in
// New.
func (c *Concertina) RunID() string { return c.runID }

// New builds a Concertina over config, validating that every action name
// is unique, and renders the initial (all-pending) display state.
func New(ctx context.Context, config []Action, engine ActionEngine, display Display) (*Concertina, error) {
	if display == nil {
		display = NoopDisplay{}
	}
	byName := make(map[string]Action, len(config))
	for _, a := range config {
		if _, dup := byName[a.Name]; dup {
			return nil, fmt.Errorf("concertina: duplicate action name %q", a.Name)
		}
		byName[a.Name] = a
	}

	c := &Concertina{
		config:          config,
		byName:          byName,
		engine:          engine,
		display:         display,
		runID:           uuid.NewString(),
		allActions:      make(map[string]struct{}, len(config)),
		completeActions: map[string]struct{}{},
		runningActions:  map[string]struct{}{},
	}
	for _, a := range config {
		c.allActions[a.Name] = struct{}{}
	}

	order, err := c.sortActions()
	if err != nil {
		return nil, err
	}
	c.actionsToRun = order

	display.Render(ctx, c)
	return c, nil
}

// sortActions produces a dependency-respecting order by repeatedly
// picking any action whose requirements are all already scheduled,
// exactly as SortActions does in the original: quadratic but stable,
// never reordering two actions that don't need to be reordered.
func (c *Concertina) sortActions() ([]string, error) {
	pending := make(map[string]struct{}, len(c.config))
	for _, a := range c.config {
		pending[a.Name] = struct{}{}
	}
	complete := map[string]struct{}{}
	var result []string

	for len(pending) > 0 {
		before := len(pending)
		for _, a := range c.config {
			if _, done := pending[a.Name]; !done {
				continue
			}
			if requirementsMet(c.byName[a.Name].Requires, complete) {
				result = append(result, a.Name)
				complete[a.Name] = struct{}{}
				delete(pending, a.Name)
			}
		}
		if len(pending) == before {
			return nil, fmt.Errorf("concertina: could not schedule actions (cyclic requires?): %v", pendingNames(pending))
		}
	}
	return result, nil
}

func requirementsMet(requires []string, complete map[string]struct{}) bool {
	for _, r := range requires {
		if _, ok := complete[r]; !ok {
			return false
		}
	}
	return true
}

func pendingNames(pending map[string]struct{}) []string {
	names := make([]string, 0, len(pending))
	for n := range pending {
		names = append(names, n)
	}
	return names
}

// RunOneAction runs the next scheduled action, updating the running and
// complete sets around the call so a Display mid-run shows it as active.
func (c *Concertina) RunOneAction(ctx context.Context) error {
	if len(c.actionsToRun) == 0 {
		return fmt.Errorf("concertina: no actions left to run")
	}
	c.display.Update(ctx, c)
	name := c.actionsToRun[0]
	c.actionsToRun = c.actionsToRun[1:]

	c.runningActions[name] = struct{}{}
	c.display.Update(ctx, c)

	err := c.engine.Run(ctx, c.byName[name])

	delete(c.runningActions, name)
	c.completeActions[name] = struct{}{}
	c.display.Update(ctx, c)
	return err
}

// Run drives every scheduled action to completion in order, stopping at
// the first error.
func (c *Concertina) Run(ctx context.Context) error {
	for len(c.actionsToRun) > 0 {
		if err := c.RunOneAction(ctx); err != nil {
			return err
		}
	}
	return nil
}

// AllActions, CompleteActions and RunningActions expose the scheduler's
// current state to a Display implementation.
func (c *Concertina) AllActions() []Action {
	out := make([]Action, 0, len(c.config))
	out = append(out, c.config...)
	return out
}

func (c *Concertina) IsComplete(name string) bool {
	_, ok := c.completeActions[name]
	return ok
}

func (c *Concertina) IsRunning(name string) bool {
	_, ok := c.runningActions[name]
	return ok
}

// ActionColor reports a status color for name, in the palette the
// original notebook graphviz rendering used, so a terminal Display can
// reuse the same semantics with ANSI colors instead.
func (c *Concertina) ActionColor(name string) string {
	a := c.byName[name]
	switch {
	case a.Type == ActionData:
		return "lightskyblue1"
	case c.IsComplete(name):
		return "darkolivegreen1"
	case c.IsRunning(name):
		return "gold"
	default:
		return "gray"
	}
}

// ActionShape mirrors the original's node shapes: a cylinder for data, a
// diamond for a final predicate, a box otherwise.
func (c *Concertina) ActionShape(name string) string {
	switch c.byName[name].Type {
	case ActionData:
		return "cylinder"
	case ActionFinal:
		return "diamond"
	default:
		return "box"
	}
}
