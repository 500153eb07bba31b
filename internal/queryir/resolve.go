package queryir

import "fmt"

// Resolve rewrites every AttrRef in a predicate using lookup.
//
// lookup returns the expression the attribute stands for, or false when the
// attribute is not available in the surrounding query. Nodes without AttrRef
// are returned unchanged. Resolve(nil, ...) returns nil.
func Resolve(p Predicate, lookup func(name string) (Expr, bool)) (Predicate, error) {
	if p == nil {
		return nil, nil
	}

	switch pred := p.(type) {
	case Equals:
		left, err := resolveExpr(pred.Left, lookup)
		if err != nil {
			return nil, err
		}
		pred.Left = left
		return pred, nil
	case ColumnEquals:
		left, err := resolveExpr(pred.Left, lookup)
		if err != nil {
			return nil, err
		}
		right, err := resolveExpr(pred.Right, lookup)
		if err != nil {
			return nil, err
		}
		pred.Left, pred.Right = left, right
		return pred, nil
	case In:
		left, err := resolveExpr(pred.Left, lookup)
		if err != nil {
			return nil, err
		}
		pred.Left = left
		return pred, nil
	case Compare:
		left, err := resolveExpr(pred.Left, lookup)
		if err != nil {
			return nil, err
		}
		pred.Left = left
		return pred, nil
	case Like:
		left, err := resolveExpr(pred.Left, lookup)
		if err != nil {
			return nil, err
		}
		pred.Left = left
		return pred, nil
	case Contains:
		left, err := resolveExpr(pred.Left, lookup)
		if err != nil {
			return nil, err
		}
		pred.Left = left
		return pred, nil
	case And:
		preds, err := resolveAll(pred.Predicates, lookup)
		if err != nil {
			return nil, err
		}
		return And{Predicates: preds}, nil
	case Or:
		preds, err := resolveAll(pred.Predicates, lookup)
		if err != nil {
			return nil, err
		}
		return Or{Predicates: preds}, nil
	case Not:
		inner, err := Resolve(pred.Predicate, lookup)
		if err != nil {
			return nil, err
		}
		return Not{Predicate: inner}, nil
	default:
		return nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func resolveAll(preds []Predicate, lookup func(string) (Expr, bool)) ([]Predicate, error) {
	out := make([]Predicate, len(preds))
	for i, p := range preds {
		r, err := Resolve(p, lookup)
		if err != nil {
			return nil, err
		}
		out[i] = r
	}
	return out, nil
}

func resolveExpr(e Expr, lookup func(string) (Expr, bool)) (Expr, error) {
	switch expr := e.(type) {
	case AttrRef:
		resolved, ok := lookup(expr.Name)
		if !ok {
			return nil, fmt.Errorf("attribute %q is not available in this query", expr.Name)
		}
		return resolved, nil
	case Call:
		args := make([]Expr, len(expr.Args))
		for i, arg := range expr.Args {
			r, err := resolveExpr(arg, lookup)
			if err != nil {
				return nil, err
			}
			args[i] = r
		}
		return Call{Func: expr.Func, Args: args}, nil
	case Aggregate:
		arg, err := resolveExpr(expr.Arg, lookup)
		if err != nil {
			return nil, err
		}
		return Aggregate{Func: expr.Func, Arg: arg}, nil
	default:
		return e, nil
	}
}

// ColumnRefs returns every column referenced by a predicate, in traversal
// order. AttrRef nodes are not columns and are skipped.
func ColumnRefs(p Predicate) []ColumnRef {
	var refs []ColumnRef
	var walkExpr func(Expr)
	walkExpr = func(e Expr) {
		switch expr := e.(type) {
		case ColumnRef:
			refs = append(refs, expr)
		case Call:
			for _, arg := range expr.Args {
				walkExpr(arg)
			}
		case Aggregate:
			walkExpr(expr.Arg)
		}
	}
	var walk func(Predicate)
	walk = func(p Predicate) {
		switch pred := p.(type) {
		case Equals:
			walkExpr(pred.Left)
		case ColumnEquals:
			walkExpr(pred.Left)
			walkExpr(pred.Right)
		case In:
			walkExpr(pred.Left)
		case Compare:
			walkExpr(pred.Left)
		case Like:
			walkExpr(pred.Left)
		case Contains:
			walkExpr(pred.Left)
		case And:
			for _, sub := range pred.Predicates {
				walk(sub)
			}
		case Or:
			for _, sub := range pred.Predicates {
				walk(sub)
			}
		case Not:
			walk(pred.Predicate)
		}
	}
	walk(p)
	return refs
}
