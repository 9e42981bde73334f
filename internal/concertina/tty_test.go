package concertina_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/logica-lang/logica/internal/concertina"
)

type noopEngine struct{}

func (noopEngine) Run(context.Context, concertina.Action) error { return nil }

func TestTTYDisplayNoopWithoutATerminal(t *testing.T) {
	// Test binaries never run with stdout attached to a pty, so the
	// display should start no bubbletea program and every call should be
	// a harmless no-op.
	config := []concertina.Action{
		{Name: "Foo", Type: concertina.ActionFinal, Launcher: concertina.LauncherQuery},
	}
	c, err := concertina.New(context.Background(), config, noopEngine{}, concertina.NewTTYDisplay())
	require.NoError(t, err)

	require.NoError(t, c.Run(context.Background()))
	require.NoError(t, concertina.NewTTYDisplay().Close())
}
