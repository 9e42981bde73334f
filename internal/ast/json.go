package ast

// ToJSON converts a parsed File into a plain map/slice tree suitable for
// `encoding/json`, grounded on the CLI surface §6 describes ("Output
// of parse / infer_types is JSON with sort_keys=true, indent=' '"):
// each node becomes the same dict shape a Python-style AST would dump
// directly, so a struct-based tree still serializes to the same JSON.
// encoding/json sorts map[string]interface{} keys alphabetically on
// marshal, giving sort_keys=true behavior without a custom encoder.
func (f *File) ToJSON() map[string]interface{} {
	rules := make([]interface{}, 0, len(f.Rules))
	for _, r := range f.Rules {
		rules = append(rules, r.ToJSON())
	}
	imports := make([]interface{}, 0, len(f.Imports))
	for _, imp := range f.Imports {
		imports = append(imports, imp.ToJSON())
	}
	return map[string]interface{}{
		"rule":                rules,
		"imported_predicate":  f.ImportedPredicates,
		"predicates_prefix":   f.PredicatesPrefix,
		"file_name":           f.FileName,
		"import":              imports,
	}
}

// ToJSON converts a single Import statement.
func (i *Import) ToJSON() map[string]interface{} {
	return map[string]interface{}{
		"path":      i.Path,
		"predicate": i.Predicate,
		"as":        i.As,
	}
}

// ToJSON converts a single Rule, the unit `logica <file> parse` and
// `infer_types` ultimately emit one array element per.
func (r *Rule) ToJSON() map[string]interface{} {
	out := map[string]interface{}{
		"head":             r.Head.ToJSON(),
		"distinct_denoted": r.DistinctDenoted,
		"full_text":        r.FullText.Text(),
	}
	if r.Body != nil {
		out["body"] = r.Body.ToJSON()
	}
	return out
}

// ToJSON converts a PredicateCall.
func (c *PredicateCall) ToJSON() map[string]interface{} {
	out := map[string]interface{}{
		"predicate_name": c.Name,
	}
	if c.Args != nil {
		out["record"] = c.Args.ToJSON()
	}
	return out
}

// ToJSON converts a Record.
func (r *Record) ToJSON() map[string]interface{} {
	fields := make([]interface{}, 0, len(r.Fields))
	for _, fv := range r.Fields {
		fields = append(fields, fv.ToJSON())
	}
	return map[string]interface{}{
		"field_value": fields,
		"has_rest":    r.HasRest,
	}
}

// ToJSON converts one FieldValue.
func (fv *FieldValue) ToJSON() map[string]interface{} {
	out := map[string]interface{}{
		"field": fv.Field.jsonValue(),
	}
	if fv.Agg != nil {
		out["value"] = map[string]interface{}{
			"aggregation": map[string]interface{}{
				"operator":   fv.Agg.Op,
				"expression": exprToJSON(fv.Agg.Arg),
			},
		}
		return out
	}
	out["value"] = map[string]interface{}{
		"expression": exprToJSON(fv.Expr),
	}
	return out
}

func (f Field) jsonValue() interface{} {
	if f.Positional {
		return f.Index
	}
	return f.Name
}

// ToJSON converts a Conjunction (an &&-joined body).
func (c *Conjunction) ToJSON() map[string]interface{} {
	conjuncts := make([]interface{}, 0, len(c.Conjuncts))
	for _, cj := range c.Conjuncts {
		conjuncts = append(conjuncts, conjunctToJSON(cj))
	}
	return map[string]interface{}{
		"conjunct": conjuncts,
	}
}

func conjunctToJSON(c Conjunct) map[string]interface{} {
	switch n := c.(type) {
	case *PredicateConjunct:
		return map[string]interface{}{"predicate": n.Call.ToJSON()}
	case *UnificationConjunct:
		return map[string]interface{}{
			"unification": map[string]interface{}{
				"left_hand_side":  exprToJSON(n.LHS),
				"right_hand_side": exprToJSON(n.RHS),
			},
		}
	case *InclusionConjunct:
		return map[string]interface{}{
			"inclusion": map[string]interface{}{
				"element": exprToJSON(n.Element),
				"list":    exprToJSON(n.List),
			},
		}
	case *DisjunctionConjunct:
		disjuncts := make([]interface{}, 0, len(n.Disjuncts))
		for _, d := range n.Disjuncts {
			disjuncts = append(disjuncts, d.ToJSON())
		}
		return map[string]interface{}{"disjunction": map[string]interface{}{"disjunct": disjuncts}}
	case *Conjunction:
		return n.ToJSON()
	default:
		return map[string]interface{}{"unknown_conjunct": true}
	}
}

func exprToJSON(e Expr) map[string]interface{} {
	if e == nil {
		return nil
	}
	switch n := e.(type) {
	case *NumberLiteral:
		return map[string]interface{}{"literal": map[string]interface{}{"the_number": map[string]interface{}{"number": n.Text}}}
	case *StringLiteral:
		return map[string]interface{}{"literal": map[string]interface{}{"the_string": map[string]interface{}{"the_string": n.Value}}}
	case *BoolLiteral:
		return map[string]interface{}{"literal": map[string]interface{}{"the_bool": n.Value}}
	case *NullLiteral:
		return map[string]interface{}{"literal": map[string]interface{}{"the_null": true}}
	case *ListLiteral:
		elems := make([]interface{}, 0, len(n.Elements))
		for _, el := range n.Elements {
			elems = append(elems, exprToJSON(el))
		}
		return map[string]interface{}{"literal": map[string]interface{}{"the_list": map[string]interface{}{"element": elems}}}
	case *PredicateLiteral:
		return map[string]interface{}{"literal": map[string]interface{}{"the_predicate": map[string]interface{}{"predicate_name": n.Name}}}
	case *Variable:
		return map[string]interface{}{"variable": map[string]interface{}{"var_name": n.Name}}
	case *Call:
		out := map[string]interface{}{"predicate_name": n.Predicate}
		if n.Args != nil {
			out["record"] = n.Args.ToJSON()
		}
		return map[string]interface{}{"call": out}
	case *Subscript:
		return map[string]interface{}{
			"subscript": map[string]interface{}{
				"record": exprToJSON(n.Record),
				"field":  n.Field,
			},
		}
	case *RecordExpr:
		return map[string]interface{}{"record": n.Record.ToJSON()}
	case *Combine:
		return map[string]interface{}{"combine": n.Rule.ToJSON()}
	case *Implication:
		branches := make([]interface{}, 0, len(n.Branches))
		for _, b := range n.Branches {
			branches = append(branches, map[string]interface{}{
				"condition": exprToJSON(b.Cond),
				"consequent": exprToJSON(b.Then),
			})
		}
		out := map[string]interface{}{"if_then": branches}
		if n.Else != nil {
			out["otherwise"] = exprToJSON(n.Else)
		}
		return map[string]interface{}{"implication": out}
	default:
		return map[string]interface{}{"unknown_expression": true}
	}
}
