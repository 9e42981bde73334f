package cli

import (
	"fmt"
	"strings"

	"github.com/logica-lang/logica/internal/config"
	"github.com/logica-lang/logica/internal/universe"
)

// cmdPrint compiles each requested predicate to SQL and prints it,
// mirroring logica.py's 'print' command.
func cmdPrint(fileArg string, predicates []string, userFlags map[string]string, cfg *config.Config) error {
	rules, err := desugaredProgram(fileArg, cfg.SearchPaths)
	if err != nil {
		return err
	}
	program, err := universe.NewProgram(rules, nil, userFlags)
	if err != nil {
		return err
	}

	texts := make([]string, 0, len(predicates))
	for _, name := range predicates {
		result, err := program.FormattedPredicateSql(name)
		if err != nil {
			return fmt.Errorf("compiling %s: %w", name, err)
		}
		texts = append(texts, result.SQL)
	}
	fmt.Println(strings.Join(texts, "\n\n"))
	return nil
}
