// Package store provides SQLite access to OMNeT++ result databases.
//
// Result databases are produced by the simulator (and merged by external
// tooling); this package only reads them. Open attaches to an existing file
// in read-only mode. Create exists for test fixtures: it opens read-write
// and applies the catalog DDL from internal/schema.
//
// # Scalar functions
//
// Vector samples store time as raw integer ticks; each run declares the
// decimal exponent of its time scale. The simtime(raw, exp) SQL function
// reconstructs real simulation time inside a query:
//
//	SELECT simtime(vectordata.simtimeRaw, run.simtimeExp) ...
//
// SQLite functions are registered per connection, so RegisterSimtime takes
// a *sql.Conn. Callers acquire a dedicated connection, register, run their
// statement and release the connection; registration on a connection that
// already has the function simply replaces it.
//
// # Database Configuration
//
//   - mode=ro for Open: result files are never modified
//   - busy_timeout=5000: wait for locks held by a concurrent writer
//   - foreign_keys=ON: enforce referential integrity when writing fixtures
package store
