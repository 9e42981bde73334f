package concertina_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/logica-lang/logica/internal/concertina"
)

type recordingEngine struct {
	order []string
}

func (e *recordingEngine) Run(_ context.Context, a concertina.Action) error {
	e.order = append(e.order, a.Name)
	return nil
}

func TestConcertinaRunsInDependencyOrder(t *testing.T) {
	config := []concertina.Action{
		{Name: "C", Requires: []string{"A", "B"}, Launcher: concertina.LauncherQuery},
		{Name: "A", Requires: nil, Launcher: concertina.LauncherQuery},
		{Name: "B", Requires: []string{"A"}, Launcher: concertina.LauncherQuery},
	}
	engine := &recordingEngine{}
	c, err := concertina.New(context.Background(), config, engine, nil)
	require.NoError(t, err)
	require.NoError(t, c.Run(context.Background()))

	require.Equal(t, []string{"A", "B", "C"}, engine.order)
	for _, name := range []string{"A", "B", "C"} {
		require.True(t, c.IsComplete(name))
		require.False(t, c.IsRunning(name))
	}
}

func TestConcertinaRejectsUnschedulableCycle(t *testing.T) {
	config := []concertina.Action{
		{Name: "A", Requires: []string{"B"}},
		{Name: "B", Requires: []string{"A"}},
	}
	_, err := concertina.New(context.Background(), config, &recordingEngine{}, nil)
	require.Error(t, err)
}

func TestConcertinaRejectsDuplicateNames(t *testing.T) {
	config := []concertina.Action{{Name: "A"}, {Name: "A"}}
	_, err := concertina.New(context.Background(), config, &recordingEngine{}, nil)
	require.Error(t, err)
}

func TestActionColorAndShape(t *testing.T) {
	config := []concertina.Action{
		{Name: "input", Type: concertina.ActionData},
		{Name: "out", Type: concertina.ActionFinal, Requires: []string{"input"}, Launcher: concertina.LauncherQuery},
	}
	c, err := concertina.New(context.Background(), config, &recordingEngine{}, nil)
	require.NoError(t, err)
	require.Equal(t, "lightskyblue1", c.ActionColor("input"))
	require.Equal(t, "cylinder", c.ActionShape("input"))
	require.Equal(t, "gray", c.ActionColor("out"))
	require.Equal(t, "diamond", c.ActionShape("out"))
}

func TestRenamePredicate(t *testing.T) {
	tableMap := map[string]string{"P": "SELECT 1", "Q": "SELECT 2"}
	deps := map[concertina.Edge]struct{}{{From: "P", To: "Q"}: {}}
	dataDeps := map[concertina.Edge]struct{}{}

	newMap, newDeps, _ := concertina.RenamePredicate(tableMap, deps, dataDeps, "P", "⤓P")
	require.Equal(t, "SELECT 1", newMap["⤓P"])
	require.Equal(t, "SELECT 2", newMap["Q"])
	_, hasOld := newMap["P"]
	require.False(t, hasOld)

	_, hasRenamedEdge := newDeps[concertina.Edge{From: "⤓P", To: "Q"}]
	require.True(t, hasRenamedEdge)
}
