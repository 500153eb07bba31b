package queryir

// Query represents an abstract query in the QueryIR.
//
// This is a sealed interface - only types in this package implement it.
// Select is currently the only query type; compound queries (UNION and
// friends) are not needed by any builder.
type Query interface {
	queryNode() // Marker method - seals interface to this package
}

// Source represents a relation in a FROM clause.
//
// Source types:
//   - Table: a catalog table referenced by name
//   - Subquery: an aliased nested Select
//   - Join: inner join of two sources
type Source interface {
	sourceNode()
}

// Expr represents a value-producing expression in a projection, predicate,
// GROUP BY or ORDER BY position.
type Expr interface {
	exprNode()
}

// Predicate represents a boolean condition in WHERE or JOIN ... ON.
type Predicate interface {
	predicateNode()
}

// Select represents a single SELECT statement.
//
// Semantics:
//
//	SELECT [DISTINCT] <columns> FROM <from> [WHERE <where>]
//	[GROUP BY <group by>] [HAVING <having>] [ORDER BY <order by>]
//
// Columns are emitted in slice order and the materialized result keeps that
// order. Labels become the result column names.
type Select struct {
	Distinct bool
	Columns  []Projection
	From     Source
	Where    Predicate // nil = no filter
	GroupBy  []Expr
	Having   Predicate // nil = no group filter
	OrderBy  []Expr
}

func (Select) queryNode() {}

// Projection is one output column of a Select.
type Projection struct {
	Expr  Expr
	Label string // result column name ("" = backend default)
}

// Labeled builds a projection with an explicit result column name.
func Labeled(expr Expr, label string) Projection {
	return Projection{Expr: expr, Label: label}
}

// Unlabeled builds a projection that keeps the backend's column name.
func Unlabeled(expr Expr) Projection {
	return Projection{Expr: expr}
}

// Table references a table by name.
type Table struct {
	Name string
}

func (Table) sourceNode() {}

// Subquery is a nested Select used as a relation. Alias is required so the
// outer query can reference its columns.
type Subquery struct {
	Query Select
	Alias string
}

func (Subquery) sourceNode() {}

// Join represents an inner join of two sources.
//
// Semantics:
//
//	<left> INNER JOIN <right> ON <on>
//
// Joins are left-deep in practice: builders fold a list of sources with
// Join{Left: acc, Right: next}. Only INNER joins exist - rows of the left
// side without a partner on the right side are excluded.
type Join struct {
	Left  Source
	Right Source
	On    Predicate // required
}

func (Join) sourceNode() {}

// ColumnRef references a column of a table or an aliased sub-query.
type ColumnRef struct {
	Table  string // table name or sub-query alias
	Column string
}

func (ColumnRef) exprNode() {}

// Col is shorthand for ColumnRef{Table: table, Column: column}.
func Col(table, column string) ColumnRef {
	return ColumnRef{Table: table, Column: column}
}

// Call invokes a scalar SQL function, e.g. simtime(raw, exp).
type Call struct {
	Func string
	Args []Expr
}

func (Call) exprNode() {}

// AggregateFunc names an SQL aggregate.
type AggregateFunc string

const (
	AggAvg   AggregateFunc = "AVG"
	AggSum   AggregateFunc = "SUM"
	AggMin   AggregateFunc = "MIN"
	AggMax   AggregateFunc = "MAX"
	AggCount AggregateFunc = "COUNT"
)

// Valid reports whether f is one of the supported aggregates.
func (f AggregateFunc) Valid() bool {
	switch f {
	case AggAvg, AggSum, AggMin, AggMax, AggCount:
		return true
	}
	return false
}

// Aggregate applies an aggregate function to an expression.
type Aggregate struct {
	Func AggregateFunc
	Arg  Expr
}

func (Aggregate) exprNode() {}

// AttrRef names a run attribute instead of a concrete column.
//
// Builders that join attribute sub-queries resolve AttrRef to the matching
// sub-query column with Resolve before compilation. The compiler rejects any
// AttrRef left in the tree.
type AttrRef struct {
	Name string
}

func (AttrRef) exprNode() {}

// Equals represents <left> = <value>.
//
// Value must be a scalar (see IsScalarValue) and is always bound as a
// parameter.
type Equals struct {
	Left  Expr
	Value any
}

func (Equals) predicateNode() {}

// ColumnEquals represents <left> = <right> between two expressions, used for
// join conditions.
type ColumnEquals struct {
	Left  Expr
	Right Expr
}

func (ColumnEquals) predicateNode() {}

// In represents <left> IN (<values>). Values must be non-empty.
type In struct {
	Left   Expr
	Values []any
}

func (In) predicateNode() {}

// CompareOp is a binary comparison operator.
type CompareOp string

const (
	OpEq CompareOp = "="
	OpNe CompareOp = "<>"
	OpLt CompareOp = "<"
	OpLe CompareOp = "<="
	OpGt CompareOp = ">"
	OpGe CompareOp = ">="
)

// Valid reports whether op is a supported operator.
func (op CompareOp) Valid() bool {
	switch op {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return true
	}
	return false
}

// Compare represents <left> <op> <value>.
type Compare struct {
	Left  Expr
	Op    CompareOp
	Value any
}

func (Compare) predicateNode() {}

// Like represents <left> LIKE <pattern>. SQLite LIKE is case-insensitive
// for ASCII letters.
type Like struct {
	Left    Expr
	Pattern string
}

func (Like) predicateNode() {}

// Contains is a case-sensitive substring test. The substring is matched
// literally: % and _ carry no wildcard meaning.
type Contains struct {
	Left      Expr
	Substring string
}

func (Contains) predicateNode() {}

// And represents a conjunction of predicates (empty = always true).
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Or represents a disjunction of predicates (empty = always false).
type Or struct {
	Predicates []Predicate
}

func (Or) predicateNode() {}

// Not negates a predicate.
type Not struct {
	Predicate Predicate
}

func (Not) predicateNode() {}

// Conjoin combines predicates with AND, skipping nil entries.
// Returns nil when nothing remains and the predicate itself when only one
// remains.
func Conjoin(preds ...Predicate) Predicate {
	var kept []Predicate
	for _, p := range preds {
		if p != nil {
			kept = append(kept, p)
		}
	}
	switch len(kept) {
	case 0:
		return nil
	case 1:
		return kept[0]
	default:
		return And{Predicates: kept}
	}
}

// IsScalarValue reports whether v can be bound as a query parameter:
// strings, bools, signed integers and floats. Unsigned integers are
// rejected; SQLite integers are signed.
func IsScalarValue(v any) bool {
	switch v.(type) {
	case string, bool,
		int, int8, int16, int32, int64,
		float32, float64:
		return true
	default:
		return false
	}
}
