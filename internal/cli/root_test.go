package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunRootRejectsUnknownCommand(t *testing.T) {
	err := runRoot(nil, []string{"prog.l", "frobnicate"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown command")
}

func TestRunRootRequiresAtLeastTwoArgs(t *testing.T) {
	err := runRoot(nil, []string{"prog.l"})
	require.Error(t, err)
}

func TestRunRootRequiresPredicateListForCompilingCommands(t *testing.T) {
	err := runRoot(nil, []string{"prog.l", "print"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "requires a predicate list")
}

func TestRunRootPropagatesMalformedFlagErrors(t *testing.T) {
	err := runRoot(nil, []string{"prog.l", "print", "Main", "bad-flag"})
	require.Error(t, err)
}

func TestRunRootRejectsMissingFile(t *testing.T) {
	err := runRoot(nil, []string{"/no/such/file.l", "parse"})
	require.Error(t, err)
}

func TestNewRootCmdDisablesFlagParsing(t *testing.T) {
	cmd := NewRootCmd()
	assert.True(t, cmd.DisableFlagParsing)
}
