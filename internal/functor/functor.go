// Package functor implements `@Make` functor instantiation and recursion
// unfolding (§4.4), grounded on the original compiler's
// compiler/functors.py. A Functors value owns one program's rule set; it
// answers "what does predicate P transitively depend on" (ArgsOf), can
// stamp out a new predicate from an existing one plus an argument
// substitution (CallFunctor/Make/MakeAll), can prove a predicate has no
// surviving base case (RemoveRulesProvenToBeNil), and can rewrite a
// recursive cycle into a bounded SQL-friendly unfolding (UnfoldRecursions).
package functor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/logica-lang/logica/internal/ast"
	"github.com/logica-lang/logica/internal/parser"
)

// Error reports a problem making or unfolding a functor, the Go analogue
// of functors.py's FunctorError.
type Error struct {
	Message string
	Functor string
}

func (e *Error) Error() string {
	if e.Functor == "" {
		return e.Message
	}
	return fmt.Sprintf("making %s: %s", e.Functor, e.Message)
}

type constantFunction struct {
	Name     string
	IsString bool
	Text     string // number literal text, or the unescaped string value
}

// Functors instantiates functors and unfolds recursion over one program's
// rule set.
type Functors struct {
	rules         []*ast.Rule
	extendedRules []*ast.Rule

	rulesOf      map[string][]*ast.Rule
	predicates   map[string]struct{}
	directArgsOf map[string]map[string]struct{}
	argsOf       map[string]map[string]struct{}

	creationCount int
	cachedCalls   map[string]string

	constantIndex     map[string]string
	constantFunctions []constantFunction
}

// New builds a Functors over rules, computing the direct/transitive
// argument-of relation eagerly, as the original's constructor does.
func New(rules []*ast.Rule) *Functors {
	f := &Functors{
		rules:         rules,
		extendedRules: ast.CloneRules(rules),
		cachedCalls:   map[string]string{},
		argsOf:        map[string]map[string]struct{}{},
		constantIndex: map[string]string{},
	}
	f.rulesOf = parser.DefinedPredicatesRules(f.extendedRules)
	f.predicates = predicateSet(f.rulesOf)
	f.directArgsOf = f.buildDirectArgsOf()
	for p := range f.predicates {
		f.ArgsOf(p)
	}
	return f
}

// Rules returns the current extended rule set (the original rules plus
// everything Make/MakeAll and recursion unfolding have appended).
func (f *Functors) Rules() []*ast.Rule { return f.extendedRules }

func predicateSet(rulesOf map[string][]*ast.Rule) map[string]struct{} {
	out := make(map[string]struct{}, len(rulesOf))
	for p := range rulesOf {
		out[p] = struct{}{}
	}
	return out
}

func (f *Functors) buildDirectArgsOfPredicate(functor string) map[string]struct{} {
	args := map[string]struct{}{}
	for _, rule := range f.rulesOf[functor] {
		for name := range ast.CollectArgPredicateNames(rule) {
			args[name] = struct{}{}
		}
	}
	return args
}

func (f *Functors) buildDirectArgsOf() map[string]map[string]struct{} {
	out := make(map[string]map[string]struct{}, len(f.rulesOf))
	for functor := range f.rulesOf {
		out[functor] = f.buildDirectArgsOfPredicate(functor)
	}
	return out
}

// UpdateStructure refreshes rulesOf/predicates/directArgsOf/argsOf after
// extendedRules has grown with rules defining newPredicate, mirroring the
// original's UpdateStructure.
func (f *Functors) UpdateStructure(newPredicate string) {
	f.rulesOf = parser.DefinedPredicatesRules(f.extendedRules)
	f.predicates = predicateSet(f.rulesOf)
	if _, ok := f.rulesOf[newPredicate]; ok {
		f.directArgsOf[newPredicate] = f.buildDirectArgsOfPredicate(newPredicate)
	}
	for p := range f.rulesOf {
		if _, ok := f.directArgsOf[p]; !ok {
			f.directArgsOf[p] = f.buildDirectArgsOfPredicate(p)
		}
	}
	for predicate, args := range f.argsOf {
		if _, ok := args[newPredicate]; ok || predicate == newPredicate {
			delete(f.argsOf, predicate)
		}
	}
	for p := range f.predicates {
		f.ArgsOf(p)
	}
}

// ArgsOf returns every predicate transitively reachable from functor
// through direct_args_of, including functor itself when it recurses.
//
// The original computes this lazily per-functor with a memoized
// generator-based BFS (and an optional numpy matrix-power shortcut);
// since Go has neither duck-typed generators nor a numpy-equivalent
// dependency in the retrieval pack, ArgsOf instead runs a single
// fixed-point closure pass over directArgsOf the first time an unknown
// functor is asked for — the same least fixed point, computed eagerly
// rather than lazily per call.
func (f *Functors) ArgsOf(functor string) map[string]struct{} {
	if cached, ok := f.argsOf[functor]; ok {
		return cached
	}
	f.closeArgsOf()
	if cached, ok := f.argsOf[functor]; ok {
		return cached
	}
	return map[string]struct{}{}
}

func (f *Functors) closeArgsOf() {
	for p, direct := range f.directArgsOf {
		if _, ok := f.argsOf[p]; ok {
			continue
		}
		set := make(map[string]struct{}, len(direct))
		for d := range direct {
			set[d] = struct{}{}
		}
		f.argsOf[p] = set
	}
	for changed := true; changed; {
		changed = false
		for p, set := range f.argsOf {
			for d := range f.directArgsOf[p] {
				for a := range f.argsOf[d] {
					if _, ok := set[a]; !ok {
						set[a] = struct{}{}
						changed = true
					}
				}
			}
		}
	}
}

// AllRulesOf returns functor's own rules plus the rules of every
// predicate in ArgsOf(functor), deep-copied so a caller may rename or
// otherwise mutate the result freely.
func (f *Functors) AllRulesOf(functor string) ([]*ast.Rule, error) {
	own, ok := f.rulesOf[functor]
	if !ok {
		return nil, nil
	}
	result := append([]*ast.Rule{}, own...)
	for a := range f.ArgsOf(functor) {
		if a == functor {
			return nil, &Error{
				Message: fmt.Sprintf("failed to eliminate recursion of %s", functor),
				Functor: functor,
			}
		}
		if rs, ok := f.rulesOf[a]; ok {
			result = append(result, rs...)
		}
	}
	return ast.CloneRules(result), nil
}

// CallKey is a deterministic string key for a functor call: functor is
// memoized per the subset of args_map it actually depends on, so two
// calls that differ only in irrelevant arguments share one instantiation.
func (f *Functors) CallKey(functor string, argsMap map[string]string) string {
	relevant := f.ArgsOf(functor)
	keys := make([]string, 0, len(argsMap))
	for k := range argsMap {
		if _, ok := relevant[k]; ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + argsMap[k]
	}
	return functor + "(" + strings.Join(parts, ",") + ")"
}

func (f *Functors) getConstantFunction(key string, isString bool, text string) string {
	if name, ok := f.constantIndex[key]; ok {
		return name
	}
	name := fmt.Sprintf("LogicaCompilerConstant%d", len(f.constantIndex))
	f.constantIndex[key] = name
	f.constantFunctions = append(f.constantFunctions, constantFunction{Name: name, IsString: isString, Text: text})
	return name
}

func ruleText(r *ast.Rule) string {
	if r == nil {
		return ""
	}
	if t := r.FullText.Text(); t != "" {
		return t
	}
	if r.Head != nil {
		return r.Head.Name
	}
	return ""
}
