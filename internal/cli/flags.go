package cli

import "fmt"

// parseUserFlags turns the command line's trailing `--name=value` tokens
// into the flag map universe.NewProgram's userFlags parameter expects,
// grounded on logica.py's ReadUserFlags — except validation that a name
// was actually declared via @DefineFlag happens one layer down, inside
// universe.NewAnnotations, so this stage only needs to reject malformed
// tokens.
func parseUserFlags(args []string) (map[string]string, error) {
	flags := make(map[string]string, len(args))
	for _, arg := range args {
		if len(arg) < 2 || arg[0] != '-' || arg[1] != '-' {
			return nil, fmt.Errorf("unexpected argument %q: flags must be given as --name=value", arg)
		}
		body := arg[2:]
		eq := -1
		for i, r := range body {
			if r == '=' {
				eq = i
				break
			}
		}
		if eq <= 0 {
			return nil, fmt.Errorf("malformed flag %q: expected --name=value", arg)
		}
		flags[body[:eq]] = body[eq+1:]
	}
	return flags, nil
}
