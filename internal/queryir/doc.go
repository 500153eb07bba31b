// Package queryir provides an abstract query intermediate representation (IR)
// for reading OMNeT++ result databases.
//
// The IR sits between the query builders in internal/query and the SQL
// backend in internal/querysql:
//
//	[VectorRequest] → [Query IR] → [SQLite SQL + params]
//
// Builders never assemble SQL text. They compose typed nodes (column
// references taken from internal/schema, predicates, sub-queries and joins)
// and hand the tree to the compiler. This keeps value handling in one place:
// the compiler parameterizes every literal, so attribute values supplied by
// an analyst are never interpolated into the statement.
//
// SUPPORTED FRAGMENT:
//
//   - Select(distinct, projections, from, where, group by, order by)
//   - Sources: Table, Subquery (always aliased), Join (inner only)
//   - Expressions: ColumnRef, Call (scalar function), Aggregate
//   - Predicates: Equals, ColumnEquals, In, Compare, Like, Contains,
//     And, Or, Not
//
// Outer joins are deliberately absent. Result metadata is stored as
// name/value rows, and a run that lacks a requested attribute must drop out
// of the result rather than surface as NULL.
//
// SEALED INTERFACES:
//
// Query, Source, Expr and Predicate are sealed interfaces using the marker
// method pattern. Only types in this package implement them, which lets the
// compiler and the validator switch over them exhaustively:
//
//	switch src := source.(type) {
//	case Table:
//	    // FROM <name>
//	case Subquery:
//	    // (<select>) AS <alias>
//	case Join:
//	    // <left> INNER JOIN <right> ON <on>
//	}
//
// Validate performs a structural check of a tree before compilation. It is
// a pure function and reports every problem it finds instead of stopping at
// the first one.
package queryir
