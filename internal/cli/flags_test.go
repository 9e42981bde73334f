package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUserFlagsEmpty(t *testing.T) {
	flags, err := parseUserFlags(nil)
	require.NoError(t, err)
	assert.Empty(t, flags)
}

func TestParseUserFlagsParsesNameEqualsValue(t *testing.T) {
	flags, err := parseUserFlags([]string{"--region=us", "--limit=10"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"region": "us", "limit": "10"}, flags)
}

func TestParseUserFlagsAllowsEqualsInValue(t *testing.T) {
	flags, err := parseUserFlags([]string{"--filter=a=b"})
	require.NoError(t, err)
	assert.Equal(t, "a=b", flags["filter"])
}

func TestParseUserFlagsRejectsMissingDashes(t *testing.T) {
	_, err := parseUserFlags([]string{"region=us"})
	require.Error(t, err)
}

func TestParseUserFlagsRejectsMissingEquals(t *testing.T) {
	_, err := parseUserFlags([]string{"--region"})
	require.Error(t, err)
}

func TestParseUserFlagsRejectsEmptyName(t *testing.T) {
	_, err := parseUserFlags([]string{"--=us"})
	require.Error(t, err)
}
