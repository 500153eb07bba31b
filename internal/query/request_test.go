package query

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mxsrc/oppsql/internal/queryir"
	"github.com/mxsrc/oppsql/internal/schema"
)

func TestLoadRequest(t *testing.T) {
	req, err := LoadRequest(filepath.Join("testdata", "requests", "study.yaml"))
	require.NoError(t, err)

	assert.Equal(t, []GroupBy{
		Unconstrained{Name: "nCars"},
		EqualTo{Name: "sigma", Value: 0.5},
		OneOf{Name: "speed", Values: []any{10, 20}},
	}, req.GroupBy)
	assert.Equal(t, []string{"collisions", "delay"}, req.Variables.Names())
	assert.True(t, req.Variables.IsMulti())
	assert.False(t, req.IncludeTime)
	assert.True(t, req.IncludeModule)
	assert.Equal(t, AggregateMean, req.Aggregate)
	assert.Equal(t, queryir.And{Predicates: []queryir.Predicate{
		queryir.Compare{Left: schema.VectorData.Value.Ref(), Op: queryir.OpGt, Value: 0},
		queryir.Compare{Left: Attr("nCars"), Op: queryir.OpEq, Value: "160"},
	}}, req.Filter)

	_, _, err = BuildVectorQuery(req)
	require.NoError(t, err)
}

func TestLoadRequest_RejectsUnknownFields(t *testing.T) {
	_, err := LoadRequest(filepath.Join("testdata", "requests", "typo.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "variable")
}

func TestLoadRequest_MissingFile(t *testing.T) {
	_, err := LoadRequest(filepath.Join("testdata", "requests", "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read request file")
}

func TestParseRequest_Shapes(t *testing.T) {
	testCases := []struct {
		name    string
		yaml    string
		wantErr string
		check   func(t *testing.T, req VectorRequest)
	}{
		{
			name: "single variable",
			yaml: "by: [nCars]\nvariables: collisions\ntime: true\n",
			check: func(t *testing.T, req VectorRequest) {
				assert.False(t, req.Variables.IsMulti())
				assert.Equal(t, []string{"collisions"}, req.Variables.Names())
				assert.True(t, req.IncludeTime)
				assert.Nil(t, req.Filter)
			},
		},
		{
			name: "no group-by",
			yaml: "variables: [a]\n",
			check: func(t *testing.T, req VectorRequest) {
				assert.Empty(t, req.GroupBy)
				assert.True(t, req.Variables.IsMulti())
			},
		},
		{
			name:    "equals and in together",
			yaml:    "by:\n  - name: x\n    equals: 1\n    in: [1]\nvariables: v\n",
			wantErr: "both equals and in",
		},
		{
			name:    "unknown group-by key",
			yaml:    "by:\n  - name: x\n    eq: 1\nvariables: v\n",
			wantErr: "field eq not found",
		},
		{
			name:    "group-by without name",
			yaml:    "by:\n  - equals: 1\nvariables: v\n",
			wantErr: "without name",
		},
		{
			name:    "variables mapping",
			yaml:    "variables: {a: b}\n",
			wantErr: "variables must be",
		},
		{
			name:    "unknown aggregate",
			yaml:    "variables: v\naggregate: median\n",
			wantErr: "unknown aggregate",
		},
		{
			name:    "unknown column",
			yaml:    "variables: v\nwhere:\n  - column: vector.bogus\n    value: 1\n",
			wantErr: "unknown column",
		},
		{
			name:    "unqualified column",
			yaml:    "variables: v\nwhere:\n  - column: value\n    value: 1\n",
			wantErr: "table.column",
		},
		{
			name:    "bad operator",
			yaml:    "variables: v\nwhere:\n  - column: vectordata.value\n    op: \"!=\"\n    value: 1\n",
			wantErr: "unknown comparison operator",
		},
		{
			name:    "non-scalar where value",
			yaml:    "variables: v\nwhere:\n  - column: vectordata.value\n    value: [1, 2]\n",
			wantErr: "unsupported value type",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req, err := ParseRequest([]byte(tc.yaml))
			if tc.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tc.wantErr)
				return
			}
			require.NoError(t, err)
			tc.check(t, req)
		})
	}
}

func TestParseRequest_EndToEnd(t *testing.T) {
	fx := scenarioDB(t)

	req, err := ParseRequest([]byte("by: [nCars]\nvariables: collisions\ntime: true\n"))
	require.NoError(t, err)

	table, err := GetVector(context.Background(), fx.Store(), req)
	require.NoError(t, err)
	assert.Equal(t, [][]any{
		{"160", 1.0, int64(150)},
		{"320", 2.0, int64(484)},
	}, table.Rows)
}

func TestParseAggregate(t *testing.T) {
	for in, want := range map[string]AggregateFunc{
		"":      AggregateNone,
		"mean":  AggregateMean,
		"AVG":   AggregateMean,
		" sum ": AggregateSum,
		"min":   AggregateMin,
		"max":   AggregateMax,
		"count": AggregateCount,
	} {
		got, err := ParseAggregate(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseAggregate("median")
	assert.True(t, IsInvalidRequest(err))
}

func TestVariables(t *testing.T) {
	single := Single("collisions")
	assert.False(t, single.IsMulti())
	assert.Equal(t, "collisions", single.String())

	multi := Many("a", "b")
	assert.True(t, multi.IsMulti())
	assert.Equal(t, "[a,b]", multi.String())

	names := multi.Names()
	names[0] = "changed"
	assert.Equal(t, []string{"a", "b"}, multi.Names(), "Names returns a copy")
}

func TestGroupByConstructors(t *testing.T) {
	assert.Equal(t, []GroupBy{Unconstrained{Name: "a"}, Unconstrained{Name: "b"}}, By("a", "b"))
	assert.Equal(t, EqualTo{Name: "a", Value: 1}, Eq("a", 1))
	assert.Equal(t, OneOf{Name: "a", Values: []any{1, 2}}, In("a", 1, 2))
	assert.Equal(t, "a", In("a").Attribute())
}
