package functor

import (
	"fmt"
	"sort"
	"strings"

	"github.com/logica-lang/logica/internal/ast"
	"github.com/logica-lang/logica/internal/parser"
)

// DepthSpec carries a per-predicate override parsed from a program's
// @Recursive annotations (depth, iteration style, ignition steps, stop
// signal), the Go analogue of functors.py's depth_map entries.
type DepthSpec struct {
	Depth         int
	HasDepth      bool
	Iterative     *bool
	Stop          string
	IgnitionSteps int
	HasIgnition   bool
}

// IsCutOfCover reports whether removing p breaks every cycle within
// coverLeaf, grounded on functors.py's IsCutOfCover: a DFS over
// direct_args_of restricted to coverLeaf that fails as soon as it
// revisits a node without passing through p.
func (f *Functors) IsCutOfCover(p string, coverLeaf map[string]struct{}) bool {
	type frame struct {
		node    string
		visited map[string]struct{}
	}
	stack := []frame{{p, map[string]struct{}{}}}
	for len(stack) > 0 {
		top := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, seen := top.visited[top.node]; seen {
			return false
		}
		next := make(map[string]struct{}, len(top.visited)+1)
		for k := range top.visited {
			next[k] = struct{}{}
		}
		next[top.node] = struct{}{}
		for x := range coverLeaf {
			if x == p {
				continue
			}
			if _, ok := f.directArgsOf[top.node][x]; ok {
				stack = append(stack, frame{x, next})
			}
		}
	}
	return true
}

// RecursiveAnalysis finds every recursive component in args_of (excluding
// _MultBodyAggAux auxiliary predicates), picks one representative
// predicate per component, and decides vertical/horizontal/
// iterative_horizontal unfolding for each, grounded on
// functors.py's RecursiveAnalysis.
func (f *Functors) RecursiveAnalysis(depthMap map[string]DepthSpec, defaultIterative bool, defaultDepth int) (
	map[string]string, map[string]map[string]struct{}) {

	deep := map[string]struct{}{}
	for p := range depthMap {
		deep[p] = struct{}{}
	}

	names := make([]string, 0, len(f.argsOf))
	for p := range f.argsOf {
		names = append(names, p)
	}
	sort.Strings(names)

	var cover []map[string]struct{}
	covered := map[string]struct{}{}
	for _, p := range names {
		args := f.argsOf[p]
		if _, ok := args[p]; !ok {
			continue
		}
		if _, ok := covered[p]; ok {
			continue
		}
		if strings.Contains(p, "_MultBodyAggAux") {
			continue
		}
		c := map[string]struct{}{p: {}}
		for p2 := range args {
			if args2, ok := f.argsOf[p2]; ok {
				if _, ok2 := args2[p]; ok2 {
					c[p2] = struct{}{}
				}
			}
		}
		cover = append(cover, c)
		for m := range c {
			covered[m] = struct{}{}
		}
	}

	myCover := map[string]map[string]struct{}{}
	for _, c := range cover {
		for p := range c {
			myCover[p] = c
		}
	}

	shouldRecurse := map[string]string{}
	for _, c := range cover {
		var candidates []string
		for m := range c {
			if _, ok := deep[m]; ok {
				candidates = append(candidates, m)
			}
		}
		if len(candidates) == 0 {
			for m := range c {
				candidates = append(candidates, m)
			}
		}
		sort.Strings(candidates)
		p := candidates[0]

		spec := depthMap[p]
		depth := defaultDepth
		if spec.HasDepth {
			depth = spec.Depth
		}
		if depth == -1 {
			depth = 1000000000
		}

		iterative := defaultIterative
		if spec.Iterative != nil {
			iterative = *spec.Iterative
		} else if depth > 20 {
			iterative = true
		}

		switch {
		case iterative:
			shouldRecurse[p] = "iterative_horizontal"
		case f.IsCutOfCover(p, c):
			shouldRecurse[p] = "vertical"
		default:
			shouldRecurse[p] = "horizontal"
		}
	}
	return shouldRecurse, myCover
}

// GetStop returns the stop-signal predicate name p's DepthSpec names, if
// any.
func (f *Functors) GetStop(depthMap map[string]DepthSpec, p string) string {
	return depthMap[p].Stop
}

func isInCover(name string, cover map[string]struct{}) bool {
	_, ok := cover[name]
	return ok
}

// unfoldRecursivePredicate performs vertical unfolding of predicate's
// recursive cycle: its own rules are renamed to a "_recursive_head" copy
// that calls itself through "_recursive", every other cover member is
// renamed to its own "_recursive_head", and the vertical unfolding
// functor (depth layers of GetRecursionFunctor) is appended. Grounded on
// functors.py's UnfoldRecursivePredicate.
func (f *Functors) unfoldRecursivePredicate(predicate string, cover map[string]struct{}, depth int,
	rules []*ast.Rule) ([]*ast.Rule, error) {

	newPredicateName := predicate + "_recursive"
	newHeadName := predicate + "_recursive_head"

	for _, r := range rules {
		head := r.Head.Name
		switch {
		case head == predicate:
			r.Head.Name = newHeadName
			ast.RenamePredicate(r, predicate, newPredicateName)
			for c := range cover {
				if c != predicate {
					ast.RenamePredicate(r, c, c+"_recursive_head")
				}
			}
		case isInCover(head, cover):
			ast.RenamePredicate(r, predicate, newPredicateName)
			for c := range cover {
				if c != predicate {
					ast.RenamePredicate(r, c, c+"_recursive_head")
				}
			}
		case strings.HasPrefix(head, "@") && head != "@Make":
			ast.RenamePredicate(r, predicate, newHeadName)
			for c := range cover {
				if c != predicate {
					ast.RenamePredicate(r, c, c+"_recursive_head")
				}
			}
		}
	}

	lib := strings.ReplaceAll(GetRecursionFunctor(depth), "P", predicate)
	libFile, err := parser.ParseFile(lib, "<synthetic recursion functor>")
	if err != nil {
		return nil, err
	}
	rules = append(rules, libFile.Rules...)

	for c := range cover {
		if c == predicate {
			continue
		}
		renameLib := GetRenamingFunctor(c, predicate)
		renameFile, err := parser.ParseFile(renameLib, "<synthetic renaming functor>")
		if err != nil {
			return nil, err
		}
		rules = append(rules, renameFile.Rules...)
	}
	return rules, nil
}

// unfoldRecursivePredicateFlatFashion performs horizontal (or iterative
// horizontal) unfolding of every predicate in cover together, grounded on
// functors.py's UnfoldRecursivePredicateFlatFashion.
func (f *Functors) unfoldRecursivePredicateFlatFashion(cover map[string]struct{}, depth int, rules []*ast.Rule,
	iterative bool, ignitionSteps int, stop string) ([]*ast.Rule, error) {

	visible := func(p string) bool { return !strings.Contains(p, "_MultBodyAggAux") }
	simplifiedCover := map[string]struct{}{}
	for c := range cover {
		if visible(c) {
			simplifiedCover[c] = struct{}{}
		}
	}

	directArgsOf := map[string][]string{}
	for c := range simplifiedCover {
		directArgsOf[c] = nil
	}
	for p, args := range f.directArgsOf {
		if _, ok := simplifiedCover[p]; !ok {
			continue
		}
		for a := range args {
			if _, ok := cover[a]; !ok {
				continue
			}
			if visible(a) {
				directArgsOf[p] = append(directArgsOf[p], a)
			} else {
				for a2 := range f.directArgsOf[a] {
					if _, ok := cover[a2]; ok {
						directArgsOf[p] = append(directArgsOf[p], a2)
					}
				}
			}
		}
	}

	for _, r := range rules {
		head := r.Head.Name
		switch {
		case isInCover(head, cover):
			if visible(head) {
				r.Head.Name = head + "_ROne"
			}
			for c := range simplifiedCover {
				ast.RenamePredicate(r, c, c+"_RZero")
			}
		case strings.HasPrefix(head, "@") && head != "@Make":
			for c := range cover {
				ast.RenamePredicate(r, c, c+"_ROne")
			}
		}
	}

	var lib string
	if iterative {
		lib = GetFlatIterativeRecursionFunctor(depth, simplifiedCover, directArgsOf, ignitionSteps, stop)
	} else {
		lib = GetFlatRecursionFunctor(depth, simplifiedCover, directArgsOf)
	}
	libFile, err := parser.ParseFile(lib, "<synthetic flat recursion functor>")
	if err != nil {
		return nil, err
	}
	return append(rules, libFile.Rules...), nil
}

// UnfoldRecursions rewrites every recursive component of the original
// rule set into a bounded unfolding, choosing vertical, horizontal, or
// iterative horizontal unfolding per RecursiveAnalysis, grounded on
// functors.py's UnfoldRecursions.
func (f *Functors) UnfoldRecursions(depthMap map[string]DepthSpec, defaultIterative bool, defaultDepth int) (
	[]*ast.Rule, error) {

	shouldRecurse, myCover := f.RecursiveAnalysis(depthMap, defaultIterative, defaultDepth)
	newRules := ast.CloneRules(f.rules)

	names := make([]string, 0, len(shouldRecurse))
	for p := range shouldRecurse {
		names = append(names, p)
	}
	sort.Strings(names)

	for _, p := range names {
		style := shouldRecurse[p]
		spec := depthMap[p]
		depth := defaultDepth
		if spec.HasDepth {
			depth = spec.Depth
		}

		switch style {
		case "vertical":
			updated, err := f.unfoldRecursivePredicate(p, myCover[p], depth, newRules)
			if err != nil {
				return nil, err
			}
			newRules = updated
		case "horizontal", "iterative_horizontal":
			ignition := len(myCover[p]) + 3
			if ignition%2 == depth%2 {
				ignition++
			}
			if spec.HasIgnition {
				ignition = spec.IgnitionSteps
			}
			stop := f.GetStop(depthMap, p)
			if stop != "" {
				if _, ok := myCover[p][stop]; !ok {
					return nil, &Error{
						Message: fmt.Sprintf("recursive predicate %s uses stop signal %s that does not "+
							"exist or is outside of the recursive component", p, stop),
						Functor: p,
					}
				}
			}
			updated, err := f.unfoldRecursivePredicateFlatFashion(
				myCover[p], depth, newRules, style == "iterative_horizontal", ignition, stop)
			if err != nil {
				return nil, err
			}
			newRules = updated
		default:
			return nil, &Error{Message: "unknown recursion style: " + style, Functor: p}
		}
	}
	return newRules, nil
}
