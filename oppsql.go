// Package oppsql queries OMNeT++ SQLite result databases.
//
// Open a result file read-only and read vectors grouped by run attributes:
//
//	st, err := oppsql.Open("results.sqlite")
//	if err != nil {
//	    return err
//	}
//	defer st.Close()
//
//	table, err := oppsql.GetVector(ctx, st, oppsql.VectorRequest{
//	    GroupBy:   oppsql.By("nCars"),
//	    Variables: oppsql.Single("collisions"),
//	})
//
// Run parameters shared by every run are read with UniqueParam:
//
//	n, err := oppsql.UniqueParam(ctx, st, "nCars", oppsql.AsInt)
//
// The command line front end lives in cmd/oppsql.
package oppsql

import (
	"context"

	"github.com/mxsrc/oppsql/internal/query"
	"github.com/mxsrc/oppsql/internal/store"
)

type (
	Store            = store.Store
	Conner           = query.Conner
	VectorRequest    = query.VectorRequest
	GroupBy          = query.GroupBy
	Unconstrained    = query.Unconstrained
	EqualTo          = query.EqualTo
	OneOf            = query.OneOf
	Variables        = query.Variables
	AggregateFunc    = query.AggregateFunc
	Table            = query.Table
	Record           = query.Record
	Error            = query.Error
	ErrorCode        = query.ErrorCode
	VectorSummary    = query.VectorSummary
	AttributeSummary = query.AttributeSummary
	AttributeValue   = query.AttributeValue
)

// Aggregates accepted in VectorRequest.Aggregate.
const (
	AggregateNone  = query.AggregateNone
	AggregateMean  = query.AggregateMean
	AggregateSum   = query.AggregateSum
	AggregateMin   = query.AggregateMin
	AggregateMax   = query.AggregateMax
	AggregateCount = query.AggregateCount
)

// Error codes carried by *Error.
const (
	ErrCodeInvalidRequest    = query.ErrCodeInvalidRequest
	ErrCodeAmbiguousParam    = query.ErrCodeAmbiguousParam
	ErrCodeUnsupportedDriver = query.ErrCodeUnsupportedDriver
)

// Open opens an existing result database read-only.
func Open(path string) (*Store, error) {
	return store.Open(path)
}

// GetVector reads the requested vectors, one row per sample or per group
// when aggregating.
func GetVector(ctx context.Context, c Conner, req VectorRequest) (*Table, error) {
	return query.GetVector(ctx, c, req)
}

// UniqueParam returns the single value of the run parameters whose name
// contains pattern, converted with convert.
func UniqueParam[T any](ctx context.Context, c Conner, pattern string, convert query.Converter[T]) (T, error) {
	return query.UniqueParam(ctx, c, pattern, convert)
}

// ListVectors lists the vector names in the database.
func ListVectors(ctx context.Context, c Conner) ([]VectorSummary, error) {
	return query.ListVectors(ctx, c)
}

// ListRunAttributes lists run attributes with their values.
func ListRunAttributes(ctx context.Context, c Conner) ([]AttributeSummary, error) {
	return query.ListRunAttributes(ctx, c)
}

// LoadRequest reads a VectorRequest from a YAML file.
func LoadRequest(path string) (VectorRequest, error) {
	return query.LoadRequest(path)
}

var (
	By     = query.By
	Eq     = query.Eq
	In     = query.In
	Single = query.Single
	Many   = query.Many

	AsString  = query.AsString
	AsInt     = query.AsInt
	AsInt64   = query.AsInt64
	AsFloat64 = query.AsFloat64
	AsBool    = query.AsBool

	IsInvalidRequest    = query.IsInvalidRequest
	IsAmbiguous         = query.IsAmbiguous
	IsUnsupportedDriver = query.IsUnsupportedDriver
)
