package query

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mxsrc/oppsql/internal/queryir"
	"github.com/mxsrc/oppsql/internal/querysql"
	"github.com/mxsrc/oppsql/internal/schema"
	"github.com/mxsrc/oppsql/internal/store"
)

// GetVector reads the samples of the requested vectors, one row per sample,
// labelled with the values of the requested run attributes.
//
// Result columns, in order:
//  1. one column per Unconstrained or OneOf group-by entry, named after the
//     attribute, holding its value as text
//  2. simtime (seconds), when IncludeTime is set
//  3. moduleName, when IncludeModule is set
//  4. the value column named after the variable (single mode), or
//     vectorName and value (multi mode)
//
// With Aggregate set, rows are grouped by every non-value column above, not
// only by the attribute columns: simtime, moduleName and vectorName split
// groups when present. One row per attribute combination therefore requires
// a single variable without IncludeTime or IncludeModule.
//
// The request is validated before a connection is acquired. The call uses
// exactly one connection from c and releases it before returning.
func GetVector(ctx context.Context, c Conner, req VectorRequest) (*Table, error) {
	sqlText, params, err := BuildVectorQuery(req)
	if err != nil {
		return nil, err
	}

	logger := zerolog.Ctx(ctx).With().
		Str("query_id", newQueryID()).
		Str("op", "vector").
		Logger()
	logger.Debug().
		Str("sql", sqlText).
		Interface("params", params).
		Str("variables", req.Variables.String()).
		Msg("executing vector query")

	table, err := execute(logger.WithContext(ctx), c, sqlText, params, req.IncludeTime)
	if err != nil {
		return nil, fmt.Errorf("vector query: %w", err)
	}

	logger.Debug().Int("rows", table.Len()).Msg("vector query complete")
	return table, nil
}

// BuildVectorQuery validates req and compiles it to SQL without touching a
// database. The statement calls simtime() when IncludeTime is set, so it
// only runs on a connection where store.RegisterSimtime was applied.
func BuildVectorQuery(req VectorRequest) (string, []any, error) {
	sel, err := buildVectorSelect(req)
	if err != nil {
		return "", nil, err
	}
	sqlText, params, err := querysql.NewSQLCompiler().Compile(sel)
	if err != nil {
		return "", nil, &Error{Code: ErrCodeInvalidRequest, Message: err.Error(), Err: err}
	}
	return sqlText, params, nil
}

func buildVectorSelect(req VectorRequest) (queryir.Select, error) {
	if err := req.validate(); err != nil {
		return queryir.Select{}, err
	}

	vectorOn, err := schema.JoinCondition(schema.Vector.Table, schema.Run.Table)
	if err != nil {
		return queryir.Select{}, err
	}
	dataOn, err := schema.JoinCondition(schema.VectorData.Table, schema.Vector.Table)
	if err != nil {
		return queryir.Select{}, err
	}
	var from queryir.Source = queryir.Join{
		Left:  queryir.Join{Left: schema.Run.Source(), Right: schema.Vector.Source(), On: vectorOn},
		Right: schema.VectorData.Source(),
		On:    dataOn,
	}

	var (
		columns   []queryir.Projection
		groupKeys []queryir.Expr
	)
	attrColumns := map[string]queryir.Expr{}
	aliases := map[string]bool{}

	for i, g := range req.GroupBy {
		alias := fmt.Sprintf("a%d", i)
		aliases[alias] = true

		on, err := schema.JoinConditionAs(schema.RunAttr.Table, alias, schema.Run.Table)
		if err != nil {
			return queryir.Select{}, err
		}
		from = queryir.Join{Left: from, Right: attributeSubquery(g, alias), On: on}

		if keepsColumn(g) {
			col := schema.RunAttr.AttrValue.RefAs(alias)
			columns = append(columns, queryir.Labeled(col, g.Attribute()))
			groupKeys = append(groupKeys, col)
			attrColumns[g.Attribute()] = col
		}
	}

	if req.IncludeTime {
		simtime := queryir.Call{
			Func: store.SimtimeFunc,
			Args: []queryir.Expr{schema.VectorData.SimtimeRaw.Ref(), schema.Run.SimtimeExp.Ref()},
		}
		columns = append(columns, queryir.Labeled(simtime, SimtimeColumn))
		groupKeys = append(groupKeys, simtime)
	}
	if req.IncludeModule {
		module := schema.Vector.ModuleName.Ref()
		columns = append(columns, queryir.Labeled(module, ModuleColumn))
		groupKeys = append(groupKeys, module)
	}

	var value queryir.Expr = schema.VectorData.Value.Ref()
	if req.Aggregate != AggregateNone {
		value = queryir.Aggregate{Func: aggregateSQL[req.Aggregate], Arg: value}
	}
	names := req.Variables.names
	if req.Variables.multi {
		vectorName := schema.Vector.VectorName.Ref()
		columns = append(columns,
			queryir.Labeled(vectorName, VectorNameColumn),
			queryir.Labeled(value, ValueColumn),
		)
		groupKeys = append(groupKeys, vectorName)
	} else {
		columns = append(columns, queryir.Labeled(value, names[0]))
	}

	filter, err := resolveFilter(req.Filter, attrColumns, aliases)
	if err != nil {
		return queryir.Select{}, err
	}

	sel := queryir.Select{
		Columns: columns,
		From:    from,
		Where:   queryir.Conjoin(filter, vectorNameConstraint(names)),
	}

	if req.Aggregate == AggregateNone {
		sel.OrderBy = []queryir.Expr{
			schema.Run.DbID.Ref(),
			schema.Run.RunID.Ref(),
			schema.Vector.VectorID.Ref(),
			schema.VectorData.EventNumber.Ref(),
		}
		return sel, nil
	}

	if len(groupKeys) == 0 {
		// Without keys SQLite returns one NULL row even when nothing matched.
		sel.Having = queryir.Compare{
			Left:  queryir.Aggregate{Func: queryir.AggCount, Arg: schema.VectorData.Value.Ref()},
			Op:    queryir.OpGt,
			Value: 0,
		}
		return sel, nil
	}
	sel.GroupBy = groupKeys
	sel.OrderBy = groupKeys
	return sel, nil
}

// attributeSubquery selects the runs carrying attribute g.Attribute(),
// restricted to the requested values.
func attributeSubquery(g GroupBy, alias string) queryir.Subquery {
	attr := schema.RunAttr
	cols := []queryir.Projection{
		queryir.Unlabeled(attr.OwnerID.Ref()),
		queryir.Unlabeled(attr.DbID.Ref()),
	}
	if keepsColumn(g) {
		cols = append(cols, queryir.Unlabeled(attr.AttrValue.Ref()))
	}

	var where queryir.Predicate = queryir.Equals{Left: attr.AttrName.Ref(), Value: g.Attribute()}
	switch entry := g.(type) {
	case EqualTo:
		where = queryir.Conjoin(where, queryir.Equals{Left: attr.AttrValue.Ref(), Value: entry.Value})
	case OneOf:
		where = queryir.Conjoin(where, queryir.In{Left: attr.AttrValue.Ref(), Values: entry.Values})
	}

	return queryir.Subquery{
		Alias: alias,
		Query: queryir.Select{Columns: cols, From: attr.Source(), Where: where},
	}
}

func vectorNameConstraint(names []string) queryir.Predicate {
	col := schema.Vector.VectorName.Ref()
	if len(names) == 1 {
		return queryir.Equals{Left: col, Value: names[0]}
	}
	values := make([]any, len(names))
	for i, name := range names {
		values[i] = name
	}
	return queryir.In{Left: col, Values: values}
}

// resolveFilter replaces attribute references with sub-query columns and
// checks that every column belongs to a relation of the vector query.
func resolveFilter(filter queryir.Predicate, attrColumns map[string]queryir.Expr, aliases map[string]bool) (queryir.Predicate, error) {
	if filter == nil {
		return nil, nil
	}

	resolved, err := queryir.Resolve(filter, func(name string) (queryir.Expr, bool) {
		col, ok := attrColumns[name]
		return col, ok
	})
	if err != nil {
		return nil, invalidRequest("filter: %v", err)
	}

	for _, ref := range queryir.ColumnRefs(resolved) {
		if aliases[ref.Table] {
			continue
		}
		switch ref.Table {
		case schema.Run.Name, schema.Vector.Name, schema.VectorData.Name:
		default:
			return nil, invalidRequest("filter references %s.%s outside run, vector and vectordata", ref.Table, ref.Column)
		}
		if _, ok := schema.LookupColumn(ref.Table, ref.Column); !ok {
			return nil, invalidRequest("filter references unknown column %s.%s", ref.Table, ref.Column)
		}
	}

	if result := queryir.Validate(queryir.Select{
		Columns: []queryir.Projection{queryir.Unlabeled(schema.Run.RunID.Ref())},
		From:    schema.Run.Source(),
		Where:   resolved,
	}); !result.Valid {
		return nil, invalidRequest("filter: %s", result.Error())
	}
	return resolved, nil
}

func newQueryID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
