package schema

import (
	_ "embed"
	"fmt"

	"github.com/mxsrc/oppsql/internal/queryir"
)

//go:embed schema.sql
var schemaSQL string

// DDL returns the CREATE TABLE statements matching the catalog.
// Statements use IF NOT EXISTS and can be applied to an existing database.
func DDL() string {
	return schemaSQL
}

// ColumnType is the declared SQLite type of a column.
type ColumnType string

const (
	Integer ColumnType = "INTEGER"
	Text    ColumnType = "TEXT"
	Real    ColumnType = "REAL"
	Numeric ColumnType = "NUMERIC"
)

// Column describes one column of a catalog table.
type Column struct {
	Table      string
	Name       string
	Type       ColumnType
	Nullable   bool
	PrimaryKey bool
	Unique     bool
}

// Ref returns a query IR reference to the column, qualified by its table.
func (c *Column) Ref() queryir.ColumnRef {
	return queryir.Col(c.Table, c.Name)
}

// RefAs returns a reference to the same column exposed by an aliased
// sub-query over the column's table.
func (c *Column) RefAs(alias string) queryir.ColumnRef {
	return queryir.Col(alias, c.Name)
}

func (c *Column) String() string {
	return c.Table + "." + c.Name
}

// ForeignKey is a composite reference from Columns to RefColumns of RefTable.
type ForeignKey struct {
	Columns    []string
	RefTable   string
	RefColumns []string
	OnDelete   string
	OnUpdate   string
}

// Table describes a catalog table.
type Table struct {
	Name        string
	Columns     []*Column
	PrimaryKey  []string
	ForeignKeys []ForeignKey
}

// Source returns the table as a query IR source.
func (t *Table) Source() queryir.Table {
	return queryir.Table{Name: t.Name}
}

// Column looks up a column by name.
func (t *Table) Column(name string) (*Column, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return nil, false
}

// ForeignKeyTo returns the foreign key referencing parent, if any.
func (t *Table) ForeignKeyTo(parent *Table) (ForeignKey, bool) {
	for _, fk := range t.ForeignKeys {
		if fk.RefTable == parent.Name {
			return fk, true
		}
	}
	return ForeignKey{}, false
}

type columnOption func(*Column)

func primaryKey(c *Column) { c.PrimaryKey = true }
func nullable(c *Column)   { c.Nullable = true }
func unique(c *Column)     { c.Unique = true }

func newTable(name string) *Table {
	return &Table{Name: name}
}

func (t *Table) col(name string, typ ColumnType, opts ...columnOption) *Column {
	c := &Column{Table: t.Name, Name: name, Type: typ}
	for _, opt := range opts {
		opt(c)
	}
	if c.PrimaryKey {
		t.PrimaryKey = append(t.PrimaryKey, name)
	}
	t.Columns = append(t.Columns, c)
	return c
}

// references declares a cascading foreign key from cols to the same-named
// columns of parent.
func (t *Table) references(parent string, cols ...string) {
	t.ForeignKeys = append(t.ForeignKeys, ForeignKey{
		Columns:    cols,
		RefTable:   parent,
		RefColumns: cols,
		OnDelete:   "CASCADE",
		OnUpdate:   "CASCADE",
	})
}

// JoinCondition derives the ON predicate joining child to parent from the
// child's foreign key.
func JoinCondition(child, parent *Table) (queryir.Predicate, error) {
	return JoinConditionAs(child, child.Name, parent)
}

// JoinConditionAs is JoinCondition for a child exposed under an alias, such
// as a sub-query over the child table that projects the key columns.
//
// Example: JoinConditionAs(RunAttr.Table, "a0", Run.Table) yields
//
//	a0.runId = run.runId AND a0.dbId = run.dbId
func JoinConditionAs(child *Table, alias string, parent *Table) (queryir.Predicate, error) {
	fk, ok := child.ForeignKeyTo(parent)
	if !ok {
		return nil, fmt.Errorf("table %s has no foreign key to %s", child.Name, parent.Name)
	}

	preds := make([]queryir.Predicate, len(fk.Columns))
	for i := range fk.Columns {
		preds[i] = queryir.ColumnEquals{
			Left:  queryir.Col(alias, fk.Columns[i]),
			Right: queryir.Col(parent.Name, fk.RefColumns[i]),
		}
	}
	return queryir.And{Predicates: preds}, nil
}
