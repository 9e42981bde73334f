package typeinfer

import (
	"fmt"
	"sort"

	"github.com/logica-lang/logica/internal/ast"
	"github.com/logica-lang/logica/internal/heritage"
)

// Diagnostic is one unification failure: the variable whose uses imply
// two incompatible kinds, grounded on the original's
// "variable X is implied to be A and B, which is impossible" message
// (§4.11).
type Diagnostic struct {
	Variable string
	First    Kind
	Second   Kind
	Source   heritage.Span
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("variable %s is implied to be %s and %s, which is impossible",
		d.Variable, d.First, d.Second)
}

// node is one slot in the unification graph: either a named variable or
// a synthetic slot for an anonymous sub-expression (a literal, a call
// result, a record/list element).
type node struct {
	name string // variable name, or "" for a synthetic node
	id   int    // disambiguates synthetic nodes and repeated predicate uses
}

// Graph accumulates Kind constraints for one rule's variables and
// resolves them to a fixed point via union-find, the Go analogue of
// type_inference.types.types_graph.TypesGraph plus
// type_inference_service.TypeInference.Infer, scoped to a single rule
// rather than merged across a whole program (§4.11's permitted
// simplification). Every node that has ever been unified with another
// shares one representative, so a kind learned anywhere in the
// equivalence class is visible from every member — this is what makes
// `x == 5, y == x` give y the kind Num.
type Graph struct {
	parent map[node]node
	kinds  map[node]Kind
	spans  map[node]heritage.Span
	diags  []Diagnostic
	next   int
}

// NewGraph returns an empty unification graph.
func NewGraph() *Graph {
	return &Graph{
		parent: map[node]node{},
		kinds:  map[node]Kind{},
		spans:  map[node]heritage.Span{},
	}
}

// Diagnostics returns every unification conflict recorded so far.
func (g *Graph) Diagnostics() []Diagnostic { return g.diags }

func (g *Graph) fresh() node {
	g.next++
	return node{id: g.next}
}

func (g *Graph) varNode(name string) node { return node{name: name} }

// find returns n's equivalence-class representative, path-compressing
// as it goes.
func (g *Graph) find(n node) node {
	p, ok := g.parent[n]
	if !ok {
		return n
	}
	root := g.find(p)
	g.parent[n] = root
	return root
}

// assign unifies n's equivalence class with kind k, recording a
// Diagnostic (and keeping the pre-existing kind) on conflict rather
// than aborting — matching §7's "first error reported" only at the
// CLI layer; the inferencer itself keeps going to report every
// independent conflict in one pass.
func (g *Graph) assign(n node, k Kind, source heritage.Span) {
	r := g.find(n)
	existing, ok := g.kinds[r]
	if !ok {
		g.kinds[r] = k
		g.spans[r] = source
		return
	}
	merged, ok := Intersect(existing, k)
	if !ok {
		g.diags = append(g.diags, Diagnostic{
			Variable: r.name,
			First:    existing,
			Second:   k,
			Source:   source,
		})
		return
	}
	g.kinds[r] = merged
}

// unify merges a and b's equivalence classes, propagating whichever
// kind either side already carries onto the merged class.
func (g *Graph) unify(a, b node, source heritage.Span) {
	ra, rb := g.find(a), g.find(b)
	if ra == rb {
		return
	}
	// Prefer a named variable as the surviving representative, so a
	// later diagnostic or KindOf lookup can still report its name
	// instead of an anonymous synthetic slot.
	if ra.name != "" && rb.name == "" {
		ra, rb = rb, ra
	}
	ka, hasA := g.kinds[ra]
	kb, hasB := g.kinds[rb]
	g.parent[ra] = rb
	delete(g.kinds, ra)
	switch {
	case hasA && hasB:
		merged, ok := Intersect(ka, kb)
		if !ok {
			g.diags = append(g.diags, Diagnostic{
				Variable: pickName(ra, rb),
				First:    ka,
				Second:   kb,
				Source:   source,
			})
			g.kinds[rb] = kb
			return
		}
		g.kinds[rb] = merged
	case hasA:
		g.kinds[rb] = ka
	case hasB:
		g.kinds[rb] = kb
	}
}

func pickName(a, b node) string {
	if a.name != "" {
		return a.name
	}
	return b.name
}

// KindOf returns the inferred kind for a variable name, or AnyKind if
// nothing constrained it.
func (g *Graph) KindOf(name string) Kind {
	r := g.find(g.varNode(name))
	if k, ok := g.kinds[r]; ok {
		return k
	}
	return AnyKind{}
}

// VariableNames returns every variable name the graph has an entry for,
// sorted for deterministic diagnostic/signature output.
func (g *Graph) VariableNames() []string {
	seen := map[string]struct{}{}
	for n := range g.parent {
		if n.name != "" {
			seen[n.name] = struct{}{}
		}
	}
	for n := range g.kinds {
		if n.name != "" {
			seen[n.name] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Build runs literal typing and unification over a single rule's head
// and body, grounded on TypesGraphBuilder.TraverseTree/FillField/
// FillConjunct. Predicate calls, including a call to the rule's own
// predicate, are opaque (AnyKind): cross-predicate field addressing is the part of
// §4.11 explicitly permits stubbing out.
func Build(rule *ast.Rule) *Graph {
	g := NewGraph()
	if rule.Head != nil && rule.Head.Args != nil {
		for _, fv := range rule.Head.Args.Fields {
			g.fillField(fv, rule.FullText)
		}
	}
	if rule.Body != nil {
		g.fillConjunction(rule.Body)
	}
	return g
}

// Infer runs Build and then resolves the graph to completion, returning
// both the graph (for signature reporting) and every diagnostic found.
func Infer(rule *ast.Rule) (*Graph, []Diagnostic) {
	g := Build(rule)
	return g, g.Diagnostics()
}

func (g *Graph) fillField(fv ast.FieldValue, source heritage.Span) {
	var fieldNode node
	if !fv.Field.Positional {
		fieldNode = g.varNode("." + fv.Field.Name)
	} else {
		fieldNode = g.fresh()
	}
	if fv.Agg != nil {
		n := g.convertExpr(fv.Agg.Arg)
		g.unify(fieldNode, n, source)
		return
	}
	n := g.convertExpr(fv.Expr)
	g.unify(fieldNode, n, source)
}

func (g *Graph) fillConjunction(c *ast.Conjunction) {
	for _, cj := range c.Conjuncts {
		g.fillConjunct(cj)
	}
}

func (g *Graph) fillConjunct(c ast.Conjunct) {
	switch n := c.(type) {
	case *ast.UnificationConjunct:
		l := g.convertExpr(n.LHS)
		r := g.convertExpr(n.RHS)
		g.unify(l, r, n.Source)
	case *ast.InclusionConjunct:
		elem := g.convertExpr(n.Element)
		list := g.convertExpr(n.List)
		lk, ok := g.kinds[g.find(list)].(ListKind)
		if !ok {
			lk = ListKind{Elem: AnyKind{}}
		}
		g.assign(elem, lk.Elem, n.Source)
		elemKind := g.kinds[g.find(elem)]
		if elemKind == nil {
			elemKind = AnyKind{}
		}
		g.assign(list, ListKind{Elem: elemKind}, n.Source)
	case *ast.PredicateConjunct:
		// Each argument expression is still walked for its own internal
		// literal typing and sub-unifications, even though the call's
		// result type is not fed back (§4.11).
		if n.Call.Args != nil {
			for _, fv := range n.Call.Args.Fields {
				if fv.Agg != nil {
					g.convertExpr(fv.Agg.Arg)
					continue
				}
				g.convertExpr(fv.Expr)
			}
		}
	case *ast.Conjunction:
		g.fillConjunction(n)
	case *ast.DisjunctionConjunct:
		for i := range n.Disjuncts {
			g.fillConjunction(&n.Disjuncts[i])
		}
	}
}

// convertExpr walks e, recording literal kinds and record/list structure,
// and returns the node representing e's own value.
func (g *Graph) convertExpr(e ast.Expr) node {
	if e == nil {
		return g.fresh()
	}
	n := g.fresh()
	switch v := e.(type) {
	case *ast.NumberLiteral:
		g.assign(n, NumKind, v.Source)
	case *ast.StringLiteral:
		g.assign(n, StrKind, v.Source)
	case *ast.BoolLiteral:
		g.assign(n, BoolKind, v.Source)
	case *ast.NullLiteral:
		g.assign(n, NullKind, v.Source)
	case *ast.ListLiteral:
		elemKind := Kind(AnyKind{})
		for _, el := range v.Elements {
			en := g.convertExpr(el)
			ek := g.kinds[g.find(en)]
			if ek == nil {
				ek = AnyKind{}
			}
			if merged, ok := Intersect(elemKind, ek); ok {
				elemKind = merged
			}
		}
		g.assign(n, ListKind{Elem: elemKind}, v.Source)
	case *ast.Variable:
		vn := g.varNode(v.Name)
		g.unify(n, vn, v.Source)
	case *ast.RecordExpr:
		fields := map[string]Kind{}
		for _, fv := range v.Record.Fields {
			if fv.Field.Positional {
				continue
			}
			var fn node
			if fv.Agg != nil {
				fn = g.convertExpr(fv.Agg.Arg)
			} else {
				fn = g.convertExpr(fv.Expr)
			}
			k := g.kinds[g.find(fn)]
			if k == nil {
				k = AnyKind{}
			}
			fields[fv.Field.Name] = k
		}
		g.assign(n, RecordKind{Fields: fields, Open: v.Record.HasRest}, v.Source)
	case *ast.Subscript:
		rn := g.convertExpr(v.Record)
		rk, ok := g.kinds[g.find(rn)].(RecordKind)
		if ok {
			if fk, ok := rk.Fields[v.Field]; ok {
				g.assign(n, fk, v.Source)
			}
		}
	case *ast.Call:
		if v.Args != nil {
			for _, fv := range v.Args.Fields {
				if fv.Agg != nil {
					g.convertExpr(fv.Agg.Arg)
					continue
				}
				g.convertExpr(fv.Expr)
			}
		}
	case *ast.Combine:
		// The combine's own sub-rule gets its own independent graph; only
		// its shape (Any) flows into the enclosing expression.
	case *ast.Implication:
		for _, b := range v.Branches {
			g.convertExpr(b.Cond)
			g.convertExpr(b.Then)
		}
		if v.Else != nil {
			g.convertExpr(v.Else)
		}
	case *ast.PredicateLiteral:
		// opaque
	}
	return n
}
