package cli

import (
	"fmt"
	"os"
	"strings"

	"github.com/logica-lang/logica/internal/config"
	"github.com/spf13/cobra"

	_ "github.com/logica-lang/logica/pkg/runner/duckdb"    // register the duckdb backend
	_ "github.com/logica-lang/logica/pkg/runner/postgres"  // register the psql backend
	_ "github.com/logica-lang/logica/pkg/runner/sqlite"    // register the sqlite backend
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// commandsRequiringPredicates are the commands whose third argument is
// a comma-separated predicate list rather than the start of the
// --flag=value tail, mirroring logica.py's predicates_list handling.
var commandsRequiringPredicates = map[string]bool{
	"print":           true,
	"run":             true,
	"run_to_csv":      true,
	"run_in_terminal": true,
	"build_schema":    true,
}

var knownCommands = map[string]bool{
	"parse":           true,
	"infer_types":     true,
	"show_signatures": true,
	"print":           true,
	"run":             true,
	"run_to_csv":      true,
	"run_in_terminal": true,
	"build_schema":    true,
}

// NewRootCmd builds the command line surface: a single cobra command
// with flag parsing disabled, since Logica's own argument order (file,
// then command, then an optional predicate list, then --flag=value
// tokens whose names come from the program's own @DefineFlag rules) has
// nothing in common with cobra's per-verb subcommand convention.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "logica <file|-> <command> [predicate1,predicate2,...] [--flag=value ...]",
		Short:   "Logica compiles logic-programming rules into SQL",
		Version: Version,

		DisableFlagParsing: true,
		SilenceUsage:       true,
		SilenceErrors:      true,
		Args:               cobra.MinimumNArgs(1),
		RunE:               runRoot,
	}
	return root
}

// Execute runs the root command, printing any error to stderr and
// exiting with status 1, mirroring logica.py's sys.exit(1) on failure.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runRoot(_ *cobra.Command, args []string) error {
	if len(args) == 1 && (args[0] == "-h" || args[0] == "--help") {
		return printUsage()
	}
	if len(args) < 2 {
		return fmt.Errorf("usage: logica <file|-> <command> [predicates] [--flag=value ...]")
	}

	fileArg, command := args[0], args[1]
	if !knownCommands[command] {
		return fmt.Errorf("unknown command %q (want one of parse, infer_types, show_signatures, print, run, run_to_csv, run_in_terminal, build_schema)", command)
	}

	rest := args[2:]
	var predicates []string
	if commandsRequiringPredicates[command] {
		if len(rest) == 0 {
			return fmt.Errorf("command %q requires a predicate list", command)
		}
		predicates = strings.Split(rest[0], ",")
		rest = rest[1:]
	}

	userFlags, err := parseUserFlags(rest)
	if err != nil {
		return err
	}

	cfg, err := config.Load("", nil)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	switch command {
	case "parse":
		return cmdParse(fileArg, cfg)
	case "infer_types":
		return cmdInferTypes(fileArg, cfg)
	case "show_signatures":
		return cmdShowSignatures(fileArg, cfg)
	case "print":
		return cmdPrint(fileArg, predicates, userFlags, cfg)
	case "run":
		return cmdRun(fileArg, predicates, userFlags, cfg)
	case "run_to_csv":
		return cmdRunToCSV(fileArg, predicates, userFlags, cfg)
	case "run_in_terminal":
		return cmdRunInTerminal(fileArg, predicates, userFlags, cfg)
	case "build_schema":
		return cmdBuildSchema(fileArg, predicates, cfg)
	}
	return fmt.Errorf("unknown command %q", command)
}

func printUsage() error {
	fmt.Println("usage: logica <file|-> <command> [predicate1,predicate2,...] [--flag=value ...]")
	fmt.Println("commands: parse, infer_types, show_signatures, print, run, run_to_csv, run_in_terminal, build_schema")
	return nil
}
