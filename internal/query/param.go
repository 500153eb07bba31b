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

// Converter turns a stored parameter value into T. It receives nil when no
// run carries a matching parameter.
type Converter[T any] func(v any) (T, error)

// AsString returns the value as text.
func AsString(v any) (string, error) { return cast.ToStringE(v) }

// AsInt parses the value as an int. Fractional text such as "1.0" is
// accepted when the fraction is zero.
func AsInt(v any) (int, error) { return cast.ToIntE(v) }

// AsInt64 parses the value as an int64.
func AsInt64(v any) (int64, error) { return cast.ToInt64E(v) }

// AsFloat64 parses the value as a float64.
func AsFloat64(v any) (float64, error) { return cast.ToFloat64E(v) }

// AsBool parses the value as a bool ("true", "false", "1", "0", ...).
func AsBool(v any) (bool, error) { return cast.ToBoolE(v) }

// UniqueParam looks up the single value of a run parameter.
//
// Parameters match when their name contains pattern as a case-sensitive
// substring, so "nCars" finds "*.nCars" as well as "Net.nCars". All runs
// must agree: more than one distinct value is an AMBIGUOUS_PARAM error.
// When nothing matches, convert receives nil and the result is typically
// the zero value of T.
func UniqueParam[T any](ctx context.Context, c Conner, pattern string, convert Converter[T]) (T, error) {
	var zero T
	if pattern == "" {
		return zero, invalidRequest("empty parameter pattern")
	}
	if convert == nil {
		return zero, invalidRequest("nil converter")
	}

	param := schema.RunParam
	sel := queryir.Select{
		Distinct: true,
		Columns:  []queryir.Projection{queryir.Unlabeled(param.ParValue.Ref())},
		From:     param.Source(),
		Where:    queryir.Contains{Left: param.ParName.Ref(), Substring: pattern},
		OrderBy:  []queryir.Expr{param.ParValue.Ref()},
	}
	sqlText, params, err := querysql.NewSQLCompiler().Compile(sel)
	if err != nil {
		return zero, fmt.Errorf("compile parameter lookup: %w", err)
	}

	logger := zerolog.Ctx(ctx).With().
		Str("query_id", newQueryID()).
		Str("op", "param").
		Str("pattern", pattern).
		Logger()
	logger.Debug().Str("sql", sqlText).Msg("executing parameter lookup")

	table, err := execute(logger.WithContext(ctx), c, sqlText, params, false)
	if err != nil {
		return zero, fmt.Errorf("parameter lookup %q: %w", pattern, err)
	}

	var raw any
	switch table.Len() {
	case 0:
		logger.Debug().Msg("no parameter matched")
	case 1:
		raw = table.Rows[0][0]
	default:
		values, _ := table.Strings(table.Columns[0])
		return zero, NewAmbiguousParamError(pattern, values)
	}

	v, err := convert(raw)
	if err != nil {
		return zero, fmt.Errorf("convert parameter %q value %v: %w", pattern, raw, err)
	}
	return v, nil
}
