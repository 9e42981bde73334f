package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/require"

	"github.com/logica-lang/logica/internal/config"
)

func chdir(t *testing.T, dir string) {
	t.Helper()
	cwd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { require.NoError(t, os.Chdir(cwd)) })
}

func TestLoadDefaultsWithNoFileOrFlags(t *testing.T) {
	chdir(t, t.TempDir())

	cfg, err := config.Load("", nil)
	require.NoError(t, err)
	require.Equal(t, config.DefaultEngine, cfg.DefaultEngine)
	require.Equal(t, config.DefaultDisplayMode, cfg.DisplayMode)
	require.Empty(t, cfg.SearchPaths)
}

func TestLoadReadsProjectFile(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logica.yaml"), []byte(
		"default_engine: duckdb\ndisplay_mode: ascii\nconnections:\n  duckdb: ./warehouse.db\n"),
		0o644))

	cfg, err := config.Load("", nil)
	require.NoError(t, err)
	require.Equal(t, "duckdb", cfg.DefaultEngine)
	require.Equal(t, "ascii", cfg.DisplayMode)
	require.Equal(t, "./warehouse.db", cfg.ConnectionFor("duckdb"))
}

func TestLoadLogicapathSeedsSearchPaths(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("LOGICAPATH", "/a/lib:/b/lib")

	cfg, err := config.Load("", nil)
	require.NoError(t, err)
	require.Equal(t, []string{"/a/lib", "/b/lib"}, cfg.SearchPaths)
}

func TestLoadPsqlConnectionFromEnv(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("LOGICA_PSQL_CONNECTION", "host=localhost dbname=logica")

	cfg, err := config.Load("", nil)
	require.NoError(t, err)
	require.Equal(t, "host=localhost dbname=logica", cfg.ConnectionFor("psql"))
}

func TestLoadEnvOverridesDefaultEngine(t *testing.T) {
	chdir(t, t.TempDir())
	t.Setenv("LOGICA_DEFAULT_ENGINE", "psql")

	cfg, err := config.Load("", nil)
	require.NoError(t, err)
	require.Equal(t, "psql", cfg.DefaultEngine)
}

func TestLoadFlagOverridesFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logica.yaml"),
		[]byte("default_engine: duckdb\n"), 0o644))
	t.Setenv("LOGICA_DEFAULT_ENGINE", "psql")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("default-engine", "", "")
	require.NoError(t, flags.Set("default-engine", "sqlite"))

	cfg, err := config.Load("", flags)
	require.NoError(t, err)
	require.Equal(t, "sqlite", cfg.DefaultEngine)
}

func TestLoadUnchangedFlagsDoNotOverride(t *testing.T) {
	chdir(t, t.TempDir())

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("default-engine", "duckdb", "")

	cfg, err := config.Load("", flags)
	require.NoError(t, err)
	require.Equal(t, config.DefaultEngine, cfg.DefaultEngine)
}
