package schema

import (
	"database/sql"
	"strings"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mxsrc/oppsql/internal/queryir"
)

func openWithDDL(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(DDL())
	require.NoError(t, err)
	return db
}

type tableInfoRow struct {
	name    string
	typ     string
	notNull bool
	pk      int
}

func tableInfo(t *testing.T, db *sql.DB, table string) []tableInfoRow {
	t.Helper()
	rows, err := db.Query("SELECT name, type, \"notnull\", pk FROM pragma_table_info(?)", table)
	require.NoError(t, err)
	defer rows.Close()

	var out []tableInfoRow
	for rows.Next() {
		var r tableInfoRow
		require.NoError(t, rows.Scan(&r.name, &r.typ, &r.notNull, &r.pk))
		out = append(out, r)
	}
	require.NoError(t, rows.Err())
	return out
}

func TestCatalogMatchesDDL_Columns(t *testing.T) {
	db := openWithDDL(t)

	for _, table := range Tables() {
		t.Run(table.Name, func(t *testing.T) {
			info := tableInfo(t, db, table.Name)
			require.Len(t, info, len(table.Columns), "column count")

			for i, col := range table.Columns {
				assert.Equal(t, col.Name, info[i].name)
				assert.Equal(t, string(col.Type), strings.ToUpper(info[i].typ), col.Name)
				assert.Equal(t, !col.Nullable, info[i].notNull, "%s nullability", col.Name)
				assert.Equal(t, col.PrimaryKey, info[i].pk > 0, "%s primary key", col.Name)
				if col.PrimaryKey {
					assert.Equal(t, col.Name, table.PrimaryKey[info[i].pk-1])
				}
			}
		})
	}
}

func TestCatalogMatchesDDL_ForeignKeys(t *testing.T) {
	db := openWithDDL(t)

	for _, table := range Tables() {
		t.Run(table.Name, func(t *testing.T) {
			rows, err := db.Query(`SELECT "table", "from", "to", on_update, on_delete
				FROM pragma_foreign_key_list(?) ORDER BY id, seq`, table.Name)
			require.NoError(t, err)
			defer rows.Close()

			var got []ForeignKey
			for rows.Next() {
				var parent, from, to, onUpdate, onDelete string
				require.NoError(t, rows.Scan(&parent, &from, &to, &onUpdate, &onDelete))
				if n := len(got); n == 0 || got[n-1].RefTable != parent {
					got = append(got, ForeignKey{RefTable: parent, OnUpdate: onUpdate, OnDelete: onDelete})
				}
				fk := &got[len(got)-1]
				fk.Columns = append(fk.Columns, from)
				fk.RefColumns = append(fk.RefColumns, to)
			}
			require.NoError(t, rows.Err())

			assert.Equal(t, table.ForeignKeys, got)
		})
	}
}

func TestTables_ParentsBeforeChildren(t *testing.T) {
	seen := map[string]bool{}
	for _, table := range Tables() {
		for _, fk := range table.ForeignKeys {
			assert.True(t, seen[fk.RefTable], "%s listed before its parent %s", table.Name, fk.RefTable)
		}
		seen[table.Name] = true
	}
	assert.Len(t, seen, 12)
}

func TestLookup(t *testing.T) {
	table, ok := Lookup("vectordata")
	require.True(t, ok)
	assert.Same(t, VectorData.Table, table)

	_, ok = Lookup("nope")
	assert.False(t, ok)

	col, ok := LookupColumn("run", "simtimeExp")
	require.True(t, ok)
	assert.Same(t, Run.SimtimeExp, col)

	_, ok = LookupColumn("run", "nope")
	assert.False(t, ok)
	_, ok = LookupColumn("nope", "runId")
	assert.False(t, ok)
}

func TestColumnRefs(t *testing.T) {
	assert.Equal(t, queryir.Col("vectordata", "simtimeRaw"), VectorData.SimtimeRaw.Ref())
	assert.Equal(t, queryir.Col("a0", "attrValue"), RunAttr.AttrValue.RefAs("a0"))
	assert.Equal(t, "vector.vectorName", Vector.VectorName.String())
	assert.Equal(t, "runId", RunAttr.OwnerID.Name)
	assert.Equal(t, "statId", StatisticAttr.OwnerID.Name)
	assert.Equal(t, queryir.Table{Name: "run"}, Run.Source())
}

func TestJoinCondition(t *testing.T) {
	pred, err := JoinCondition(Vector.Table, Run.Table)
	require.NoError(t, err)
	assert.Equal(t, queryir.And{Predicates: []queryir.Predicate{
		queryir.ColumnEquals{Left: queryir.Col("vector", "runId"), Right: queryir.Col("run", "runId")},
		queryir.ColumnEquals{Left: queryir.Col("vector", "dbId"), Right: queryir.Col("run", "dbId")},
	}}, pred)

	pred, err = JoinConditionAs(RunAttr.Table, "a1", Run.Table)
	require.NoError(t, err)
	assert.Equal(t, queryir.And{Predicates: []queryir.Predicate{
		queryir.ColumnEquals{Left: queryir.Col("a1", "runId"), Right: queryir.Col("run", "runId")},
		queryir.ColumnEquals{Left: queryir.Col("a1", "dbId"), Right: queryir.Col("run", "dbId")},
	}}, pred)

	_, err = JoinCondition(Run.Table, Vector.Table)
	require.Error(t, err)
}

func TestDDL_Idempotent(t *testing.T) {
	db := openWithDDL(t)
	_, err := db.Exec(DDL())
	require.NoError(t, err)
}
