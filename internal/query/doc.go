// Package query reads OMNeT++ result databases.
//
// GetVector turns a VectorRequest into one SQL statement over run, vector
// and vectordata, joined with one runattr sub-query per group-by attribute:
//
//	req := query.VectorRequest{
//	    GroupBy:     query.By("nCars"),
//	    Variables:   query.Single("collisions"),
//	    IncludeTime: true,
//	}
//	table, err := query.GetVector(ctx, st, req)
//
// yields the columns nCars, simtime and collisions. Attribute values are
// returned as stored (text); vector values keep their SQLite type.
//
// UniqueParam reads a run parameter that is expected to be the same in every
// run, converting it with a Converter such as AsInt.
//
// # Connections
//
// Every operation takes a Conner (a *sql.DB or *store.Store) and runs on one
// dedicated connection that is released before the call returns. When the
// request needs simulation time, the simtime function is registered on that
// connection first.
//
// # Errors
//
// Malformed requests fail with an *Error of code INVALID_REQUEST before any
// connection is acquired. Empty results are not errors.
//
// # Logging
//
// Operations log through zerolog.Ctx(ctx) at debug level, tagging each
// statement with a query_id. Attach a logger with logger.WithContext(ctx);
// without one nothing is logged.
package query
