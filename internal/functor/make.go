package functor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/logica-lang/logica/internal/ast"
	"github.com/logica-lang/logica/internal/heritage"
	"github.com/logica-lang/logica/internal/lexer"
	"github.com/logica-lang/logica/internal/parser"
)

var annotationKinds = map[string]struct{}{
	"@Limit": {}, "@OrderBy": {}, "@Ground": {}, "@NoInject": {}, "@Iteration": {},
}

// ParseMakeInstruction extracts the new predicate name, the applicant
// predicate name, and the argument substitution from an `@Make` rule,
// grounded on functors.py's ParseMakeInstruction. A literal constant
// argument (a number or a string) is lifted to a synthetic zero-argument
// predicate via GetConstantFunction, exactly as the original does so
// every functor argument is uniformly a predicate name.
func (f *Functors) ParseMakeInstruction(rule *ast.Rule) (predicate, applicant string, argsMap map[string]string, err error) {
	bad := func() (string, string, map[string]string, error) {
		return "", "", nil, &Error{
			Message: "bad functor call (@Make instruction): " + ruleText(rule),
		}
	}
	if rule.Head == nil || rule.Head.Args == nil || len(rule.Head.Args.Fields) < 3 {
		return bad()
	}
	newLit, ok := rule.Head.Args.Fields[0].Expr.(*ast.PredicateLiteral)
	if !ok {
		return bad()
	}
	predicate = newLit.Name
	appLit, ok := rule.Head.Args.Fields[1].Expr.(*ast.PredicateLiteral)
	if !ok {
		return bad()
	}
	applicant = appLit.Name
	bindings, ok := rule.Head.Args.Fields[2].Expr.(*ast.RecordExpr)
	if !ok || bindings.Record == nil {
		return bad()
	}
	argsMap = map[string]string{}
	for _, fv := range bindings.Record.Fields {
		if fv.Field.Positional {
			return bad()
		}
		switch v := fv.Expr.(type) {
		case *ast.PredicateLiteral:
			argsMap[fv.Field.Name] = v.Name
		case *ast.NumberLiteral:
			argsMap[fv.Field.Name] = f.getConstantFunction("n:"+v.Text, false, v.Text)
		case *ast.StringLiteral:
			argsMap[fv.Field.Name] = f.getConstantFunction("s:"+v.Value, true, v.Value)
		default:
			return bad()
		}
	}
	return predicate, applicant, argsMap, nil
}

func firstArgPredicateLiteral(rule *ast.Rule) (string, bool) {
	if rule.Head == nil || rule.Head.Args == nil || len(rule.Head.Args.Fields) == 0 {
		return "", false
	}
	lit, ok := rule.Head.Args.Fields[0].Expr.(*ast.PredicateLiteral)
	if !ok {
		return "", false
	}
	return lit.Name, true
}

// CollectAnnotations gathers every @Limit/@OrderBy/@Ground/@NoInject/
// @Iteration rule whose first positional argument names one of
// predicates, deep-copied so the caller can append and rename them onto
// a freshly made predicate.
func (f *Functors) CollectAnnotations(predicates []string) ([]*ast.Rule, error) {
	wanted := map[string]struct{}{}
	for _, p := range predicates {
		wanted[p] = struct{}{}
	}
	var result []*ast.Rule
	for annotation, rules := range f.rulesOf {
		if _, ok := annotationKinds[annotation]; !ok {
			continue
		}
		for _, rule := range rules {
			name, ok := firstArgPredicateLiteral(rule)
			if !ok {
				return nil, &Error{
					Message: "this annotation requires a predicate symbol as its first positional argument",
					Functor: ruleText(rule),
				}
			}
			if _, ok := wanted[name]; ok {
				result = append(result, rule)
			}
		}
	}
	return ast.CloneRules(result), nil
}

// CallFunctor instantiates applicant(argsMap) as a new predicate name,
// grounded on functors.py's CallFunctor: it validates argsMap against
// ArgsOf(applicant), collects every rule that must move along (the
// applicant's own rules, plus any transitively-reachable predicate that
// uses one of the substituted arguments), renames them simultaneously
// through a substitution table (memoizing repeat sub-calls via CallKey),
// carries annotations along, and folds the result into extendedRules.
func (f *Functors) CallFunctor(name, applicant string, argsMap map[string]string) error {
	applicantArgs := f.ArgsOf(applicant)
	var bad []string
	for k := range argsMap {
		if _, ok := applicantArgs[k]; !ok {
			bad = append(bad, k)
		}
	}
	if len(bad) > 0 {
		sort.Strings(bad)
		return &Error{
			Message: fmt.Sprintf("functor %s is applied to arguments %s, which it does not have",
				applicant, strings.Join(bad, ",")),
			Functor: name,
		}
	}
	f.creationCount++

	allRules, err := f.AllRulesOf(applicant)
	if err != nil {
		return err
	}
	args := map[string]struct{}{}
	for k := range argsMap {
		args[k] = struct{}{}
	}
	var rules []*ast.Rule
	for _, r := range allRules {
		head := r.Head.Name
		if head == applicant {
			rules = append(rules, r)
			continue
		}
		used := false
		for a := range f.ArgsOf(head) {
			if _, ok := args[a]; ok {
				used = true
				break
			}
		}
		if used {
			rules = append(rules, r)
		}
	}
	if len(rules) == 0 {
		return &Error{
			Message: fmt.Sprintf("rules for %s when making %s are not found", applicant, name),
			Functor: name,
		}
	}
	sort.SliceStable(rules, func(i, j int) bool { return ruleText(rules[i]) < ruleText(rules[j]) })

	extendedArgsMap := map[string]string{}
	for k, v := range argsMap {
		extendedArgsMap[k] = v
	}
	var rulesToUpdate []*ast.Rule
	cacheUpdate := map[string]string{}
	predicatesToAnnotate := map[string]struct{}{}

	for _, r := range rules {
		head := r.Head.Name
		if head == applicant {
			extendedArgsMap[head] = name
			rulesToUpdate = append(rulesToUpdate, r)
			predicatesToAnnotate[head] = struct{}{}
			continue
		}
		if _, ok := argsMap[head]; ok {
			continue
		}
		callKey := f.CallKey(head, argsMap)
		if cached, ok := f.cachedCalls[callKey]; ok {
			extendedArgsMap[head] = cached
			continue
		}
		newName := fmt.Sprintf("%s_f%d", head, f.creationCount)
		extendedArgsMap[head] = newName
		cacheUpdate[callKey] = newName
		rulesToUpdate = append(rulesToUpdate, r)
		predicatesToAnnotate[head] = struct{}{}
	}
	rules = rulesToUpdate
	for k, v := range cacheUpdate {
		f.cachedCalls[k] = v
	}

	annotated := make([]string, 0, len(predicatesToAnnotate))
	for p := range predicatesToAnnotate {
		annotated = append(annotated, p)
	}
	annotations, err := f.CollectAnnotations(annotated)
	if err != nil {
		return err
	}
	rules = append(rules, annotations...)

	ast.RenamePredicatesInRules(rules, extendedArgsMap)
	f.extendedRules = append(f.extendedRules, rules...)
	f.UpdateStructure(name)
	return nil
}

// Make parses and executes a single `@Make` rule.
func (f *Functors) Make(rule *ast.Rule) error {
	predicate, applicant, argsMap, err := f.ParseMakeInstruction(rule)
	if err != nil {
		return err
	}
	return f.CallFunctor(predicate, applicant, argsMap)
}

// MakeAll builds every `@Make` rule in makeRules in dependency order (the
// transitive closure of args_of), then proves empty predicates nil and
// synthesizes the zero-argument predicates GetConstantFunction minted
// along the way, mirroring functors.py's MakeAll.
func (f *Functors) MakeAll(makeRules []*ast.Rule) error {
	type pending struct {
		rule                 *ast.Rule
		predicate, applicant string
		argsMap              map[string]string
	}
	var parsed []pending
	needsBuilding := map[string]struct{}{}
	for _, r := range makeRules {
		p, a, m, err := f.ParseMakeInstruction(r)
		if err != nil {
			return err
		}
		parsed = append(parsed, pending{r, p, a, m})
		needsBuilding[p] = struct{}{}
	}
	sort.SliceStable(parsed, func(i, j int) bool { return parsed[i].predicate < parsed[j].predicate })

	for len(needsBuilding) > 0 {
		builtSomething := false
		for _, pr := range parsed {
			if _, ok := needsBuilding[pr.predicate]; !ok {
				continue
			}
			if _, ok := needsBuilding[pr.applicant]; ok {
				continue
			}
			blocked := false
			for a := range f.ArgsOf(pr.applicant) {
				if _, ok := needsBuilding[a]; ok {
					blocked = true
					break
				}
			}
			if !blocked {
				for _, v := range pr.argsMap {
					if _, ok := needsBuilding[v]; ok {
						blocked = true
						break
					}
				}
			}
			if blocked {
				continue
			}
			if err := f.CallFunctor(pr.predicate, pr.applicant, pr.argsMap); err != nil {
				return err
			}
			builtSomething = true
			delete(needsBuilding, pr.predicate)
		}
		if len(needsBuilding) > 0 && !builtSomething {
			names := make([]string, 0, len(needsBuilding))
			for p := range needsBuilding {
				names = append(names, p)
			}
			sort.Strings(names)
			return &Error{Message: "could not resolve make order", Functor: strings.Join(names, ",")}
		}
	}

	rulesPerPredicate, err := f.RemoveRulesProvenToBeNil(f.extendedRules)
	if err != nil {
		return err
	}

	for _, cf := range f.constantFunctions {
		var src string
		if cf.IsString {
			src = fmt.Sprintf("%s() = %q", cf.Name, cf.Text)
		} else {
			src = fmt.Sprintf("%s() = %s", cf.Name, cf.Text)
		}
		rule, err := parser.ParseRule(lexer.NewSource(heritage.NewBuffer("<synthetic>", src)))
		if err != nil {
			return err
		}
		f.extendedRules = append(f.extendedRules, rule)
	}

	for p, count := range rulesPerPredicate {
		if count == 0 {
			return &Error{
				Message: fmt.Sprintf("all rules contain nil for predicate %s; recursion unfolding failed", p),
				Functor: p,
			}
		}
	}
	return nil
}
