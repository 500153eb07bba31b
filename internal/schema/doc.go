// Package schema declares the catalog of an OMNeT++ SQLite result database.
//
// The catalog mirrors the storage schema written by the simulator and is
// read-only from this module's perspective. Each table has a typed handle
// (Run, Vector, VectorData, ...) whose fields are column descriptors, so
// query builders reference columns without string literals:
//
//	schema.VectorData.SimtimeRaw.Ref()  // vectordata.simtimeRaw
//
// Metadata is stored as name/value rows (runattr, runparam, vectorattr, ...)
// instead of fixed columns, because the set of attributes depends on the
// simulation and the simulator version. Builders pivot it on demand with one
// sub-query per requested attribute name.
//
// Every child table references its parent with a composite (id, dbId)
// foreign key declared ON DELETE CASCADE ON UPDATE CASCADE; JoinCondition
// turns those declarations into join predicates.
package schema
