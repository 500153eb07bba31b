package querysql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mxsrc/oppsql/internal/queryir"
)

func TestCompile_SimpleSelect(t *testing.T) {
	compiler := NewSQLCompiler()

	query := queryir.Select{
		Columns: []queryir.Projection{
			queryir.Unlabeled(queryir.Col("run", "runName")),
			queryir.Labeled(queryir.Col("run", "simtimeExp"), "exp"),
		},
		From:  queryir.Table{Name: "run"},
		Where: queryir.Equals{Left: queryir.Col("run", "dbId"), Value: 1},
	}

	sql, params, err := compiler.Compile(query)
	require.NoError(t, err)

	assert.Equal(t, "SELECT run.runName, run.simtimeExp AS \"exp\"\nFROM run\nWHERE run.dbId = ?", sql)
	assert.Equal(t, []any{1}, params)
}

func TestCompile_PointerSelect(t *testing.T) {
	compiler := NewSQLCompiler()

	query := &queryir.Select{
		Distinct: true,
		Columns:  []queryir.Projection{queryir.Unlabeled(queryir.Col("runparam", "parValue"))},
		From:     queryir.Table{Name: "runparam"},
		Where:    queryir.Contains{Left: queryir.Col("runparam", "parName"), Substring: "nCars"},
	}

	sql, params, err := compiler.Compile(query)
	require.NoError(t, err)

	assert.Equal(t, "SELECT DISTINCT runparam.parValue\nFROM runparam\nWHERE instr(runparam.parName, ?) > 0", sql)
	assert.Equal(t, []any{"nCars"}, params)
}

func TestCompile_NoStringInterpolation(t *testing.T) {
	compiler := NewSQLCompiler()

	// Use a value that would be dangerous if interpolated
	dangerousValue := "'; DROP TABLE run; --"

	query := queryir.Select{
		Columns: []queryir.Projection{queryir.Unlabeled(queryir.Col("runattr", "runId"))},
		From:    queryir.Table{Name: "runattr"},
		Where: queryir.And{Predicates: []queryir.Predicate{
			queryir.Equals{Left: queryir.Col("runattr", "attrName"), Value: "nCars"},
			queryir.In{Left: queryir.Col("runattr", "attrValue"), Values: []any{dangerousValue, "x"}},
		}},
	}

	sql, params, err := compiler.Compile(query)
	require.NoError(t, err)

	assert.NotContains(t, sql, dangerousValue,
		"Value MUST NOT be interpolated into SQL (SQL injection risk)")
	assert.Contains(t, sql, "runattr.attrValue IN (?, ?)")
	assert.Equal(t, []any{"nCars", dangerousValue, "x"}, params)
}

func TestCompile_LabelsAreQuoted(t *testing.T) {
	compiler := NewSQLCompiler()

	query := queryir.Select{
		Columns: []queryir.Projection{
			queryir.Labeled(queryir.Col("a0", "attrValue"), `odd "name"`),
		},
		From: queryir.Table{Name: "runattr"},
	}

	sql, _, err := compiler.Compile(query)
	require.NoError(t, err)
	assert.Contains(t, sql, `a0.attrValue AS "odd ""name"""`)
}

func TestCompile_JoinParamsInTextualOrder(t *testing.T) {
	compiler := NewSQLCompiler()

	sub := func(alias, name string) queryir.Subquery {
		return queryir.Subquery{
			Alias: alias,
			Query: queryir.Select{
				Columns: []queryir.Projection{
					queryir.Unlabeled(queryir.Col("runattr", "runId")),
					queryir.Unlabeled(queryir.Col("runattr", "dbId")),
				},
				From:  queryir.Table{Name: "runattr"},
				Where: queryir.Equals{Left: queryir.Col("runattr", "attrName"), Value: name},
			},
		}
	}
	on := func(alias string) queryir.Predicate {
		return queryir.And{Predicates: []queryir.Predicate{
			queryir.ColumnEquals{Left: queryir.Col(alias, "runId"), Right: queryir.Col("run", "runId")},
			queryir.ColumnEquals{Left: queryir.Col(alias, "dbId"), Right: queryir.Col("run", "dbId")},
		}}
	}

	query := queryir.Select{
		Columns: []queryir.Projection{queryir.Unlabeled(queryir.Col("run", "runName"))},
		From: queryir.Join{
			Left:  queryir.Join{Left: queryir.Table{Name: "run"}, Right: sub("a0", "first"), On: on("a0")},
			Right: sub("a1", "second"),
			On:    on("a1"),
		},
		Where: queryir.Like{Left: queryir.Col("run", "runName"), Pattern: "General-%"},
	}

	sql, params, err := compiler.Compile(query)
	require.NoError(t, err)

	want := "SELECT run.runName\n" +
		"FROM run\n" +
		"INNER JOIN (SELECT runattr.runId, runattr.dbId FROM runattr WHERE runattr.attrName = ?) AS a0 ON a0.runId = run.runId AND a0.dbId = run.dbId\n" +
		"INNER JOIN (SELECT runattr.runId, runattr.dbId FROM runattr WHERE runattr.attrName = ?) AS a1 ON a1.runId = run.runId AND a1.dbId = run.dbId\n" +
		"WHERE run.runName LIKE ?"
	assert.Equal(t, want, sql)
	assert.Equal(t, []any{"first", "second", "General-%"}, params)
}

func TestCompile_GroupByAndAggregates(t *testing.T) {
	compiler := NewSQLCompiler()

	query := queryir.Select{
		Columns: []queryir.Projection{
			queryir.Labeled(queryir.Col("vector", "vectorName"), "name"),
			queryir.Labeled(queryir.Aggregate{Func: queryir.AggAvg, Arg: queryir.Col("vectordata", "value")}, "mean"),
		},
		From:    queryir.Table{Name: "vector"},
		GroupBy: []queryir.Expr{queryir.Col("vector", "vectorName")},
		OrderBy: []queryir.Expr{queryir.Col("vector", "vectorName")},
	}

	sql, params, err := compiler.Compile(query)
	require.NoError(t, err)

	assert.Equal(t, "SELECT vector.vectorName AS \"name\", AVG(vectordata.value) AS \"mean\"\n"+
		"FROM vector\n"+
		"GROUP BY vector.vectorName\n"+
		"ORDER BY vector.vectorName", sql)
	assert.Empty(t, params)
}

func TestCompile_PredicateShapes(t *testing.T) {
	compiler := NewSQLCompiler()
	value := queryir.Col("vectordata", "value")

	testCases := []struct {
		name   string
		pred   queryir.Predicate
		want   string
		params []any
	}{
		{
			name:   "compare",
			pred:   queryir.Compare{Left: value, Op: queryir.OpGe, Value: 2.5},
			want:   "vectordata.value >= ?",
			params: []any{2.5},
		},
		{
			name: "or inside and is parenthesized",
			pred: queryir.And{Predicates: []queryir.Predicate{
				queryir.Compare{Left: value, Op: queryir.OpGt, Value: 1},
				queryir.Or{Predicates: []queryir.Predicate{
					queryir.Equals{Left: value, Value: 5},
					queryir.Equals{Left: value, Value: 6},
				}},
			}},
			want:   "vectordata.value > ? AND (vectordata.value = ? OR vectordata.value = ?)",
			params: []any{1, 5, 6},
		},
		{
			name:   "not",
			pred:   queryir.Not{Predicate: queryir.Equals{Left: value, Value: 0}},
			want:   "NOT (vectordata.value = ?)",
			params: []any{0},
		},
		{
			name: "empty and",
			pred: queryir.And{},
			want: "1 = 1",
		},
		{
			name: "empty or",
			pred: queryir.Or{},
			want: "1 = 0",
		},
		{
			name: "call",
			pred: queryir.Compare{
				Left:  queryir.Call{Func: "simtime", Args: []queryir.Expr{queryir.Col("vectordata", "simtimeRaw"), queryir.Col("run", "simtimeExp")}},
				Op:    queryir.OpLt,
				Value: 10.0,
			},
			want:   "simtime(vectordata.simtimeRaw, run.simtimeExp) < ?",
			params: []any{10.0},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sql, params, err := compiler.Compile(queryir.Select{
				Columns: []queryir.Projection{queryir.Unlabeled(value)},
				From:    queryir.Table{Name: "vectordata"},
				Where:   tc.pred,
			})
			require.NoError(t, err)
			assert.Equal(t, "SELECT vectordata.value\nFROM vectordata\nWHERE "+tc.want, sql)
			assert.Equal(t, tc.params, params)
		})
	}
}

func TestCompile_Errors(t *testing.T) {
	compiler := NewSQLCompiler()

	_, _, err := compiler.Compile(nil)
	require.Error(t, err)

	_, _, err = compiler.Compile(queryir.Select{From: queryir.Table{Name: "run"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid query")

	_, _, err = compiler.Compile(queryir.Select{
		Columns: []queryir.Projection{queryir.Unlabeled(queryir.Call{Func: "drop table", Args: nil})},
		From:    queryir.Table{Name: "run"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid function name")
}

func TestQuoteIdent(t *testing.T) {
	assert.Equal(t, `"nCars"`, QuoteIdent("nCars"))
	assert.Equal(t, `"a""b"`, QuoteIdent(`a"b`))
	assert.Equal(t, "run", identifier("run"))
	assert.Equal(t, `"my table"`, identifier("my table"))
	assert.Equal(t, `"1abc"`, identifier("1abc"))
}

func TestCompile_Having(t *testing.T) {
	compiler := NewSQLCompiler()
	value := queryir.Col("vectordata", "value")

	sql, params, err := compiler.Compile(queryir.Select{
		Columns: []queryir.Projection{queryir.Labeled(queryir.Aggregate{Func: queryir.AggSum, Arg: value}, "total")},
		From:    queryir.Table{Name: "vectordata"},
		Having:  queryir.Compare{Left: queryir.Aggregate{Func: queryir.AggCount, Arg: value}, Op: queryir.OpGt, Value: 0},
	})
	require.NoError(t, err)

	assert.Equal(t, "SELECT SUM(vectordata.value) AS \"total\"\nFROM vectordata\nHAVING COUNT(vectordata.value) > ?", sql)
	assert.Equal(t, []any{0}, params)
}
