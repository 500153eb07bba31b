package testutil

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/mxsrc/oppsql/internal/store"
)

// ResultDB is a fixture result database. All writes fail the test on error.
type ResultDB struct {
	t     testing.TB
	store *store.Store
	dbID  int64

	runs    *Sequence
	vectors *Sequence
	events  *Sequence
}

// NewResultDB creates an empty result database with the full schema and one
// db row (dbId 1). The store is closed when the test ends.
func NewResultDB(t testing.TB) *ResultDB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "results.sqlite")
	st, err := store.Create(path)
	require.NoError(t, err, "create fixture database")
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Errorf("close fixture database: %v", err)
		}
	})

	d := newResultDB(t, st, 1)
	d.exec(`INSERT INTO db (dbId, dbName) VALUES (?, ?)`, d.dbID, "results")
	return d
}

func newResultDB(t testing.TB, st *store.Store, dbID int64) *ResultDB {
	return &ResultDB{
		t:       t,
		store:   st,
		dbID:    dbID,
		runs:    &Sequence{},
		vectors: &Sequence{},
		events:  &Sequence{},
	}
}

// Store returns the read-write store holding the fixture.
func (d *ResultDB) Store() *store.Store {
	return d.store
}

// Path returns the database file, e.g. for store.Open or the CLI --db flag.
func (d *ResultDB) Path() string {
	return d.store.Path()
}

// DbID returns the db row the writer inserts into.
func (d *ResultDB) DbID() int64 {
	return d.dbID
}

// Database adds another merged database to the same file and returns a
// writer for it. Its identifier sequences start at 1 again.
func (d *ResultDB) Database(dbID int64, name string) *ResultDB {
	d.t.Helper()
	other := newResultDB(d.t, d.store, dbID)
	other.exec(`INSERT INTO db (dbId, dbName) VALUES (?, ?)`, dbID, name)
	return other
}

// Exec runs an arbitrary statement against the fixture.
func (d *ResultDB) Exec(query string, args ...any) {
	d.t.Helper()
	d.exec(query, args...)
}

func (d *ResultDB) exec(query string, args ...any) {
	d.t.Helper()
	_, err := d.store.DB().Exec(query, args...)
	require.NoError(d.t, err, "fixture statement: %s", query)
}

// Run inserts a run with the given time scale exponent.
func (d *ResultDB) Run(name string, simtimeExp int64) *Run {
	d.t.Helper()
	r := &Run{db: d, ID: d.runs.Next()}
	d.exec(`INSERT INTO run (dbId, runId, runName, simtimeExp) VALUES (?, ?, ?, ?)`,
		d.dbID, r.ID, name, simtimeExp)
	return r
}

// Run is a fixture run.
type Run struct {
	db *ResultDB
	ID int64
}

// Attr adds a run attribute.
func (r *Run) Attr(name, value string) *Run {
	r.db.t.Helper()
	r.db.exec(`INSERT INTO runattr (dbId, runId, attrName, attrValue) VALUES (?, ?, ?, ?)`,
		r.db.dbID, r.ID, name, value)
	return r
}

// Param adds a run parameter.
func (r *Run) Param(name, value string) *Run {
	r.db.t.Helper()
	r.db.exec(`INSERT INTO runparam (dbId, runId, parName, parValue) VALUES (?, ?, ?, ?)`,
		r.db.dbID, r.ID, name, value)
	return r
}

// Scalar adds a scalar result.
func (r *Run) Scalar(module, name string, value float64) *Run {
	r.db.t.Helper()
	var next int64
	err := r.db.store.DB().QueryRow(`SELECT COALESCE(MAX(scalarId), 0) + 1 FROM scalar WHERE dbId = ?`, r.db.dbID).Scan(&next)
	require.NoError(r.db.t, err, "next scalar id")
	r.db.exec(`INSERT INTO scalar (dbId, scalarId, runId, moduleName, scalarName, scalarValue) VALUES (?, ?, ?, ?, ?, ?)`,
		r.db.dbID, next, r.ID, module, name, value)
	return r
}

// Vector inserts a vector owned by the run.
func (r *Run) Vector(module, name string) *Vector {
	r.db.t.Helper()
	v := &Vector{run: r, ID: r.db.vectors.Next()}
	r.db.exec(`INSERT INTO vector (dbId, vectorId, runId, moduleName, vectorName) VALUES (?, ?, ?, ?, ?)`,
		r.db.dbID, v.ID, r.ID, module, name)
	return v
}

// Vector is a fixture vector.
type Vector struct {
	run *Run
	ID  int64
}

// Run returns the owning run for further chaining.
func (v *Vector) Run() *Run {
	return v.run
}

// Sample appends a data point at simtimeRaw ticks. Event numbers increase
// across the whole database.
func (v *Vector) Sample(simtimeRaw int64, value any) *Vector {
	v.run.db.t.Helper()
	return v.SampleAt(v.run.db.events.Next(), simtimeRaw, value)
}

// SampleAt appends a data point with an explicit event number.
func (v *Vector) SampleAt(eventNumber, simtimeRaw int64, value any) *Vector {
	d := v.run.db
	d.t.Helper()
	d.exec(`INSERT INTO vectordata (dbId, vectorId, eventNumber, simtimeRaw, value) VALUES (?, ?, ?, ?, ?)`,
		d.dbID, v.ID, eventNumber, simtimeRaw, value)
	return v
}

func (v *Vector) String() string {
	return fmt.Sprintf("vector %d (run %d, db %d)", v.ID, v.run.ID, v.run.db.dbID)
}
