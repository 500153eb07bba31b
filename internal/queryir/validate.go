package queryir

import (
	"fmt"
	"strings"
)

// ValidationResult contains the structural analysis of a query.
type ValidationResult struct {
	// Valid indicates the query can be compiled.
	Valid bool

	// Problems lists every structural defect found. Empty when Valid is true.
	Problems []string
}

// Error joins the problems into a single message. Returns "" when valid.
func (r ValidationResult) Error() string {
	return strings.Join(r.Problems, "; ")
}

// Validate checks that a query is well-formed before compilation.
//
// Rules:
//  1. Every node is non-nil where the grammar requires one
//  2. Projections are explicit (no SELECT *) and labels are unique
//  3. Sub-queries carry an alias
//  4. Joins carry an ON predicate
//  5. Literal values are scalars and In lists are non-empty
//  6. Operators and aggregate functions are known
//  7. No AttrRef survives (builders must Resolve them first)
//
// Validate is a pure function with no side effects.
func Validate(query Query) ValidationResult {
	v := &validator{
		problems: []string{},
	}
	v.validateQuery(query)

	return ValidationResult{
		Valid:    len(v.problems) == 0,
		Problems: v.problems,
	}
}

// validator accumulates problems during traversal.
type validator struct {
	problems []string
}

func (v *validator) addProblem(format string, args ...any) {
	v.problems = append(v.problems, fmt.Sprintf(format, args...))
}

func (v *validator) validateQuery(q Query) {
	if q == nil {
		v.addProblem("nil query")
		return
	}

	switch query := q.(type) {
	case Select:
		v.validateSelect(query)
	case *Select:
		v.validateSelect(*query)
	default:
		v.addProblem("unknown query type: %T", q)
	}
}

func (v *validator) validateSelect(sel Select) {
	if len(sel.Columns) == 0 {
		v.addProblem("empty projection (SELECT *) - columns must be explicit")
	}

	labels := make(map[string]bool, len(sel.Columns))
	for i, col := range sel.Columns {
		if col.Expr == nil {
			v.addProblem("column %d has no expression", i)
			continue
		}
		v.validateExpr(col.Expr)
		if col.Label == "" {
			continue
		}
		if labels[col.Label] {
			v.addProblem("duplicate column label %q", col.Label)
		}
		labels[col.Label] = true
	}

	if sel.From == nil {
		v.addProblem("missing FROM source")
	} else {
		v.validateSource(sel.From)
	}

	if sel.Where != nil {
		v.validatePredicate(sel.Where)
	}
	for _, e := range sel.GroupBy {
		v.validateExpr(e)
	}
	if sel.Having != nil {
		v.validatePredicate(sel.Having)
	}
	for _, e := range sel.OrderBy {
		v.validateExpr(e)
	}
}

func (v *validator) validateSource(s Source) {
	switch src := s.(type) {
	case Table:
		if src.Name == "" {
			v.addProblem("table with empty name")
		}
	case Subquery:
		if src.Alias == "" {
			v.addProblem("sub-query without alias")
		}
		v.validateSelect(src.Query)
	case Join:
		if src.Left == nil || src.Right == nil {
			v.addProblem("join with missing side")
		} else {
			v.validateSource(src.Left)
			v.validateSource(src.Right)
		}
		if src.On == nil {
			v.addProblem("join without ON predicate")
		} else {
			v.validatePredicate(src.On)
		}
	case nil:
		v.addProblem("nil source")
	default:
		v.addProblem("unknown source type: %T", s)
	}
}

func (v *validator) validateExpr(e Expr) {
	switch expr := e.(type) {
	case ColumnRef:
		if expr.Column == "" {
			v.addProblem("column reference with empty name")
		}
	case Call:
		if expr.Func == "" {
			v.addProblem("function call with empty name")
		}
		for _, arg := range expr.Args {
			v.validateExpr(arg)
		}
	case Aggregate:
		if !expr.Func.Valid() {
			v.addProblem("unknown aggregate function %q", expr.Func)
		}
		v.validateExpr(expr.Arg)
	case AttrRef:
		v.addProblem("unresolved attribute reference %q", expr.Name)
	case nil:
		v.addProblem("nil expression")
	default:
		v.addProblem("unknown expression type: %T", e)
	}
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case Equals:
		v.validateExpr(pred.Left)
		v.validateValue(pred.Value)
	case ColumnEquals:
		v.validateExpr(pred.Left)
		v.validateExpr(pred.Right)
	case In:
		v.validateExpr(pred.Left)
		if len(pred.Values) == 0 {
			v.addProblem("IN with empty value list")
		}
		for _, val := range pred.Values {
			v.validateValue(val)
		}
	case Compare:
		v.validateExpr(pred.Left)
		if !pred.Op.Valid() {
			v.addProblem("unknown comparison operator %q", pred.Op)
		}
		v.validateValue(pred.Value)
	case Like:
		v.validateExpr(pred.Left)
	case Contains:
		v.validateExpr(pred.Left)
	case And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	case Or:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	case Not:
		v.validatePredicate(pred.Predicate)
	case nil:
		v.addProblem("nil predicate")
	default:
		v.addProblem("unknown predicate type: %T", p)
	}
}

func (v *validator) validateValue(val any) {
	if !IsScalarValue(val) {
		v.addProblem("unsupported literal type %T", val)
	}
}
