package query

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cast"

	"github.com/mxsrc/oppsql/internal/queryir"
	"github.com/mxsrc/oppsql/internal/querysql"
	"github.com/mxsrc/oppsql/internal/schema"
)

// VectorSummary describes one recorded vector name per module.
type VectorSummary struct {
	Name   string `json:"name"`
	Module string `json:"module"`
	// Count is the number of vectors with this name and module across runs.
	Count int64 `json:"count"`
}

// AttributeSummary lists the values a run attribute takes.
type AttributeSummary struct {
	Name   string           `json:"name"`
	Values []AttributeValue `json:"values"`
}

// AttributeValue is one value of a run attribute.
type AttributeValue struct {
	Value string `json:"value"`
	// Runs is the number of runattr rows carrying this value, which is the
	// number of runs unless a run repeats the attribute.
	Runs int64 `json:"runs"`
}

// ListVectors returns the vector names in the database, grouped by module
// and ordered by name then module.
func ListVectors(ctx context.Context, c Conner) ([]VectorSummary, error) {
	v := schema.Vector
	sel := queryir.Select{
		Columns: []queryir.Projection{
			queryir.Labeled(v.VectorName.Ref(), "name"),
			queryir.Labeled(v.ModuleName.Ref(), "module"),
			queryir.Labeled(queryir.Aggregate{Func: queryir.AggCount, Arg: v.VectorID.Ref()}, "count"),
		},
		From:    v.Source(),
		GroupBy: []queryir.Expr{v.VectorName.Ref(), v.ModuleName.Ref()},
		OrderBy: []queryir.Expr{v.VectorName.Ref(), v.ModuleName.Ref()},
	}

	table, err := runListing(ctx, c, "vectors", sel)
	if err != nil {
		return nil, err
	}

	out := make([]VectorSummary, 0, table.Len())
	for _, row := range table.Rows {
		count, err := cast.ToInt64E(row[2])
		if err != nil {
			return nil, fmt.Errorf("vector count: %w", err)
		}
		out = append(out, VectorSummary{
			Name:   cast.ToString(row[0]),
			Module: cast.ToString(row[1]),
			Count:  count,
		})
	}
	return out, nil
}

// ListRunAttributes returns every run attribute with its distinct values,
// ordered by attribute name then value.
func ListRunAttributes(ctx context.Context, c Conner) ([]AttributeSummary, error) {
	a := schema.RunAttr
	sel := queryir.Select{
		Columns: []queryir.Projection{
			queryir.Labeled(a.AttrName.Ref(), "name"),
			queryir.Labeled(a.AttrValue.Ref(), "value"),
			queryir.Labeled(queryir.Aggregate{Func: queryir.AggCount, Arg: a.OwnerID.Ref()}, "runs"),
		},
		From:    a.Source(),
		GroupBy: []queryir.Expr{a.AttrName.Ref(), a.AttrValue.Ref()},
		OrderBy: []queryir.Expr{a.AttrName.Ref(), a.AttrValue.Ref()},
	}

	table, err := runListing(ctx, c, "attributes", sel)
	if err != nil {
		return nil, err
	}

	out := []AttributeSummary{}
	for _, row := range table.Rows {
		name := cast.ToString(row[0])
		runs, err := cast.ToInt64E(row[2])
		if err != nil {
			return nil, fmt.Errorf("attribute run count: %w", err)
		}
		if len(out) == 0 || out[len(out)-1].Name != name {
			out = append(out, AttributeSummary{Name: name})
		}
		last := &out[len(out)-1]
		last.Values = append(last.Values, AttributeValue{Value: cast.ToString(row[1]), Runs: runs})
	}
	return out, nil
}

func runListing(ctx context.Context, c Conner, what string, sel queryir.Select) (*Table, error) {
	sqlText, params, err := querysql.NewSQLCompiler().Compile(sel)
	if err != nil {
		return nil, fmt.Errorf("compile %s listing: %w", what, err)
	}

	logger := zerolog.Ctx(ctx).With().
		Str("query_id", newQueryID()).
		Str("op", "list_"+what).
		Logger()
	logger.Debug().Str("sql", sqlText).Msg("executing listing")

	table, err := execute(logger.WithContext(ctx), c, sqlText, params, false)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", what, err)
	}
	return table, nil
}
