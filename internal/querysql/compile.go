// Package querysql compiles QueryIR trees to parameterized SQLite SQL.
package querysql

import (
	"fmt"
	"strings"

	"github.com/mxsrc/oppsql/internal/queryir"
)

// SQLCompiler compiles QueryIR to parameterized SQL for SQLite.
//
// CRITICAL: All values are parameterized (never interpolated). Parameters are
// returned in the order their placeholders appear in the statement.
type SQLCompiler struct{}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// Compile converts a QueryIR query to parameterized SQL.
// Returns (sql, params, error) tuple.
//
// The query is validated first; structural problems are reported together
// in the returned error and no SQL is produced.
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	if q == nil {
		return "", nil, fmt.Errorf("cannot compile nil query")
	}
	if result := queryir.Validate(q); !result.Valid {
		return "", nil, fmt.Errorf("invalid query: %s", result.Error())
	}

	switch query := q.(type) {
	case queryir.Select:
		return c.compileSelect(query, "\n")
	case *queryir.Select:
		return c.compileSelect(*query, "\n")
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

// compileSelect renders a Select with clauses separated by sep. Top-level
// statements use newlines; nested sub-queries stay on one line.
func (c *SQLCompiler) compileSelect(q queryir.Select, sep string) (string, []any, error) {
	var b strings.Builder
	var params []any

	b.WriteString("SELECT ")
	if q.Distinct {
		b.WriteString("DISTINCT ")
	}
	cols, colParams, err := c.compileProjections(q.Columns)
	if err != nil {
		return "", nil, err
	}
	b.WriteString(cols)
	params = append(params, colParams...)

	from, fromParams, err := c.compileSource(q.From, sep)
	if err != nil {
		return "", nil, fmt.Errorf("compile FROM: %w", err)
	}
	b.WriteString(sep + "FROM " + from)
	params = append(params, fromParams...)

	if q.Where != nil {
		where, whereParams, err := c.compilePredicate(q.Where)
		if err != nil {
			return "", nil, fmt.Errorf("compile WHERE: %w", err)
		}
		b.WriteString(sep + "WHERE " + where)
		params = append(params, whereParams...)
	}

	if len(q.GroupBy) > 0 {
		group, groupParams, err := c.compileExprList(q.GroupBy)
		if err != nil {
			return "", nil, fmt.Errorf("compile GROUP BY: %w", err)
		}
		b.WriteString(sep + "GROUP BY " + group)
		params = append(params, groupParams...)
	}

	if q.Having != nil {
		having, havingParams, err := c.compilePredicate(q.Having)
		if err != nil {
			return "", nil, fmt.Errorf("compile HAVING: %w", err)
		}
		b.WriteString(sep + "HAVING " + having)
		params = append(params, havingParams...)
	}

	if len(q.OrderBy) > 0 {
		order, orderParams, err := c.compileExprList(q.OrderBy)
		if err != nil {
			return "", nil, fmt.Errorf("compile ORDER BY: %w", err)
		}
		b.WriteString(sep + "ORDER BY " + order)
		params = append(params, orderParams...)
	}

	return b.String(), params, nil
}

// compileProjections renders the SELECT column list.
// Example: {vectordata.value, "collisions"} → vectordata.value AS "collisions"
func (c *SQLCompiler) compileProjections(cols []queryir.Projection) (string, []any, error) {
	parts := make([]string, 0, len(cols))
	var params []any
	for _, col := range cols {
		sql, p, err := c.compileExpr(col.Expr)
		if err != nil {
			return "", nil, fmt.Errorf("compile column: %w", err)
		}
		if col.Label != "" {
			sql += " AS " + QuoteIdent(col.Label)
		}
		parts = append(parts, sql)
		params = append(params, p...)
	}
	return strings.Join(parts, ", "), params, nil
}

func (c *SQLCompiler) compileExprList(exprs []queryir.Expr) (string, []any, error) {
	parts := make([]string, 0, len(exprs))
	var params []any
	for _, e := range exprs {
		sql, p, err := c.compileExpr(e)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		params = append(params, p...)
	}
	return strings.Join(parts, ", "), params, nil
}

// compileSource renders a FROM clause relation.
func (c *SQLCompiler) compileSource(s queryir.Source, sep string) (string, []any, error) {
	switch src := s.(type) {
	case queryir.Table:
		return identifier(src.Name), nil, nil
	case queryir.Subquery:
		inner, params, err := c.compileSelect(src.Query, " ")
		if err != nil {
			return "", nil, fmt.Errorf("compile sub-query %s: %w", src.Alias, err)
		}
		return "(" + inner + ") AS " + identifier(src.Alias), params, nil
	case queryir.Join:
		return c.compileJoin(src, sep)
	default:
		return "", nil, fmt.Errorf("unsupported source type: %T", s)
	}
}

// compileJoin renders <left> INNER JOIN <right> ON <on>. A join nested on
// the right-hand side is parenthesized; left-deep chains are emitted flat.
func (c *SQLCompiler) compileJoin(j queryir.Join, sep string) (string, []any, error) {
	left, params, err := c.compileSource(j.Left, sep)
	if err != nil {
		return "", nil, err
	}

	right, rightParams, err := c.compileSource(j.Right, sep)
	if err != nil {
		return "", nil, err
	}
	if _, nested := j.Right.(queryir.Join); nested {
		right = "(" + right + ")"
	}
	params = append(params, rightParams...)

	on, onParams, err := c.compilePredicate(j.On)
	if err != nil {
		return "", nil, fmt.Errorf("compile join ON: %w", err)
	}
	params = append(params, onParams...)

	return left + sep + "INNER JOIN " + right + " ON " + on, params, nil
}

// compileExpr renders an expression. Only column names and function names
// appear in the SQL text.
func (c *SQLCompiler) compileExpr(e queryir.Expr) (string, []any, error) {
	switch expr := e.(type) {
	case queryir.ColumnRef:
		if expr.Table == "" {
			return identifier(expr.Column), nil, nil
		}
		return identifier(expr.Table) + "." + identifier(expr.Column), nil, nil
	case queryir.Call:
		if !isSimpleIdent(expr.Func) {
			return "", nil, fmt.Errorf("invalid function name %q", expr.Func)
		}
		args, params, err := c.compileExprList(expr.Args)
		if err != nil {
			return "", nil, err
		}
		return expr.Func + "(" + args + ")", params, nil
	case queryir.Aggregate:
		arg, params, err := c.compileExpr(expr.Arg)
		if err != nil {
			return "", nil, err
		}
		return string(expr.Func) + "(" + arg + ")", params, nil
	case queryir.AttrRef:
		return "", nil, fmt.Errorf("unresolved attribute reference %q", expr.Name)
	default:
		return "", nil, fmt.Errorf("unsupported expression type: %T", e)
	}
}

// compilePredicate compiles a predicate to a WHERE/ON fragment.
// CRITICAL: Values NEVER interpolated - always use ? placeholders.
func (c *SQLCompiler) compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case queryir.Equals:
		return c.compileComparison(pred.Left, "=", pred.Value)
	case queryir.Compare:
		return c.compileComparison(pred.Left, string(pred.Op), pred.Value)
	case queryir.ColumnEquals:
		left, params, err := c.compileExpr(pred.Left)
		if err != nil {
			return "", nil, err
		}
		right, rightParams, err := c.compileExpr(pred.Right)
		if err != nil {
			return "", nil, err
		}
		return left + " = " + right, append(params, rightParams...), nil
	case queryir.In:
		left, params, err := c.compileExpr(pred.Left)
		if err != nil {
			return "", nil, err
		}
		placeholders := make([]string, len(pred.Values))
		for i := range placeholders {
			placeholders[i] = "?"
		}
		params = append(params, pred.Values...)
		return left + " IN (" + strings.Join(placeholders, ", ") + ")", params, nil
	case queryir.Like:
		return c.compileComparison(pred.Left, "LIKE", pred.Pattern)
	case queryir.Contains:
		left, params, err := c.compileExpr(pred.Left)
		if err != nil {
			return "", nil, err
		}
		return "instr(" + left + ", ?) > 0", append(params, pred.Substring), nil
	case queryir.And:
		return c.compileJunction(pred.Predicates, " AND ", "1 = 1")
	case queryir.Or:
		return c.compileJunction(pred.Predicates, " OR ", "1 = 0")
	case queryir.Not:
		inner, params, err := c.compilePredicate(pred.Predicate)
		if err != nil {
			return "", nil, err
		}
		return "NOT (" + inner + ")", params, nil
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (c *SQLCompiler) compileComparison(left queryir.Expr, op string, value any) (string, []any, error) {
	sql, params, err := c.compileExpr(left)
	if err != nil {
		return "", nil, err
	}
	return sql + " " + op + " ?", append(params, value), nil
}

// compileJunction joins sub-predicates with AND/OR. Nested junctions are
// parenthesized so precedence never depends on SQL operator rules.
func (c *SQLCompiler) compileJunction(preds []queryir.Predicate, op, empty string) (string, []any, error) {
	if len(preds) == 0 {
		return empty, nil, nil
	}

	parts := make([]string, 0, len(preds))
	var params []any
	for _, pred := range preds {
		sql, p, err := c.compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		switch pred.(type) {
		case queryir.And, queryir.Or:
			if len(preds) > 1 {
				sql = "(" + sql + ")"
			}
		}
		parts = append(parts, sql)
		params = append(params, p...)
	}
	return strings.Join(parts, op), params, nil
}

// QuoteIdent quotes an SQL identifier with double quotes, doubling any
// embedded quote character.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// identifier emits catalog names as-is and quotes anything else.
func identifier(name string) string {
	if isSimpleIdent(name) {
		return name
	}
	return QuoteIdent(name)
}

func isSimpleIdent(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}
