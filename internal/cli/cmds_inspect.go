package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/logica-lang/logica/internal/config"
	"github.com/logica-lang/logica/internal/typeinfer"
)

// rulesToJSON renders rules as the plain JSON array `parse`/`infer_types`
// print, mirroring logica.py's `json.dumps(parsed_rules, sort_keys=True,
// indent=' ')` — encoding/json already sorts map[string]interface{} keys
// alphabetically on marshal, so ast.Rule.ToJSON's map tree gets
// sort_keys=true for free.
func rulesToJSON(rules []interface{ ToJSON() map[string]interface{} }) (string, error) {
	out := make([]interface{}, 0, len(rules))
	for _, r := range rules {
		out = append(out, r.ToJSON())
	}
	data, err := json.MarshalIndent(out, "", " ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func cmdParse(fileArg string, cfg *config.Config) error {
	_, rules, err := parseProgram(fileArg, cfg.SearchPaths)
	if err != nil {
		return err
	}
	boxed := make([]interface{ ToJSON() map[string]interface{} }, 0, len(rules))
	for _, r := range rules {
		boxed = append(boxed, r)
	}
	text, err := rulesToJSON(boxed)
	if err != nil {
		return err
	}
	fmt.Println(text)
	return nil
}

func cmdInferTypes(fileArg string, cfg *config.Config) error {
	_, rules, err := parseProgram(fileArg, cfg.SearchPaths)
	if err != nil {
		return err
	}

	var diags []typeinfer.Diagnostic
	for _, r := range rules {
		_, ds := typeinfer.Infer(r)
		diags = append(diags, ds...)
	}
	if len(diags) > 0 {
		for _, d := range diags {
			fmt.Fprintln(os.Stderr, d.Error())
		}
		return fmt.Errorf("type inference found %d error(s)", len(diags))
	}

	boxed := make([]interface{ ToJSON() map[string]interface{} }, 0, len(rules))
	for _, r := range rules {
		boxed = append(boxed, r)
	}
	text, err := rulesToJSON(boxed)
	if err != nil {
		return err
	}
	fmt.Println(text)
	return nil
}

func cmdShowSignatures(fileArg string, cfg *config.Config) error {
	_, rules, err := parseProgram(fileArg, cfg.SearchPaths)
	if err != nil {
		return err
	}

	sigs, diags := buildSignatures(rules)
	for _, sig := range sigs {
		fmt.Println(sig.String())
	}
	if len(diags) > 0 {
		for _, d := range diags {
			fmt.Fprintln(os.Stderr, d.Error())
		}
		return fmt.Errorf("type inference found %d error(s)", len(diags))
	}
	return nil
}
