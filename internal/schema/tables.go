package schema

// DBTable lists the databases merged into a result file.
type DBTable struct {
	*Table
	DbID, DbName *Column
}

// RunTable holds one row per simulation run.
type RunTable struct {
	*Table
	DbID, RunID, RunName *Column
	// SimtimeExp is the decimal exponent of the run's time scale:
	// real time = raw tick × 10^SimtimeExp.
	SimtimeExp *Column
}

// AttrTable is a sparse name/value side-table. OwnerID is the id column of
// the owning entity (runId, scalarId, statId or vectorId).
type AttrTable struct {
	*Table
	DbID, OwnerID, AttrName, AttrValue *Column
}

// ParamTable holds the input parameters of a run as name/value rows.
type ParamTable struct {
	*Table
	DbID, RunID, ParName, ParValue *Column
}

// ScalarTable holds single recorded values.
type ScalarTable struct {
	*Table
	DbID, ScalarID, RunID, ModuleName, ScalarName, ScalarValue *Column
}

// StatisticTable holds summary statistics and histogram headers.
type StatisticTable struct {
	*Table
	DbID, StatID, RunID, ModuleName, StatName, StatCount *Column

	StatMean, StatStddev, StatSum, StatSqrsum, StatMin, StatMax *Column

	StatWeights, StatWeightedSum, StatSqrSumWeights, StatWeightedSqrSum *Column
}

// HistBinTable holds the cells of histogram statistics.
type HistBinTable struct {
	*Table
	DbID, StatID, BaseValue, CellValue *Column
}

// VectorTable holds one row per recorded time series.
type VectorTable struct {
	*Table
	DbID, VectorID, RunID, ModuleName, VectorName *Column

	VectorCount, VectorMin, VectorMax, VectorSum, VectorSumSqr *Column

	StartEventNum, EndEventNum, StartSimtimeRaw, EndSimtimeRaw *Column
}

// VectorDataTable holds the samples of every vector.
type VectorDataTable struct {
	*Table
	DbID, VectorID, EventNumber *Column
	// SimtimeRaw is the sample time in ticks of the owning run's time scale.
	SimtimeRaw *Column
	Value      *Column
}

var DB = func() DBTable {
	t := newTable("db")
	return DBTable{
		Table:  t,
		DbID:   t.col("dbId", Integer, primaryKey),
		DbName: t.col("dbName", Text, unique),
	}
}()

var Run = func() RunTable {
	t := newTable("run")
	return RunTable{
		Table:      t,
		DbID:       t.col("dbId", Integer, primaryKey),
		RunID:      t.col("runId", Integer, primaryKey),
		RunName:    t.col("runName", Text),
		SimtimeExp: t.col("simtimeExp", Integer),
	}
}()

var RunAttr = newAttrTable("runattr", "runId", "run")

var RunParam = func() ParamTable {
	t := newTable("runparam")
	p := ParamTable{
		Table:    t,
		DbID:     t.col("dbId", Integer),
		RunID:    t.col("runId", Integer),
		ParName:  t.col("parName", Text),
		ParValue: t.col("parValue", Text),
	}
	t.references("run", "runId", "dbId")
	return p
}()

var Scalar = func() ScalarTable {
	t := newTable("scalar")
	s := ScalarTable{
		Table:       t,
		DbID:        t.col("dbId", Integer, primaryKey),
		ScalarID:    t.col("scalarId", Integer, primaryKey),
		RunID:       t.col("runId", Integer),
		ModuleName:  t.col("moduleName", Text),
		ScalarName:  t.col("scalarName", Text),
		ScalarValue: t.col("scalarValue", Real, nullable),
	}
	t.references("run", "runId", "dbId")
	return s
}()

var ScalarAttr = newAttrTable("scalarattr", "scalarId", "scalar")

var Statistic = func() StatisticTable {
	t := newTable("statistic")
	s := StatisticTable{
		Table:              t,
		DbID:               t.col("dbId", Integer, primaryKey),
		StatID:             t.col("statId", Integer, primaryKey),
		RunID:              t.col("runId", Integer),
		ModuleName:         t.col("moduleName", Text),
		StatName:           t.col("statName", Text),
		StatCount:          t.col("statCount", Integer),
		StatMean:           t.col("statMean", Real, nullable),
		StatStddev:         t.col("statStddev", Real, nullable),
		StatSum:            t.col("statSum", Real, nullable),
		StatSqrsum:         t.col("statSqrsum", Real, nullable),
		StatMin:            t.col("statMin", Real, nullable),
		StatMax:            t.col("statMax", Real, nullable),
		StatWeights:        t.col("statWeights", Real, nullable),
		StatWeightedSum:    t.col("statWeightedSum", Real, nullable),
		StatSqrSumWeights:  t.col("statSqrSumWeights", Real, nullable),
		StatWeightedSqrSum: t.col("statWeightedSqrSum", Real, nullable),
	}
	t.references("run", "runId", "dbId")
	return s
}()

var StatisticAttr = newAttrTable("statisticattr", "statId", "statistic")

var HistBin = func() HistBinTable {
	t := newTable("histbin")
	h := HistBinTable{
		Table:     t,
		DbID:      t.col("dbId", Integer),
		StatID:    t.col("statId", Integer),
		BaseValue: t.col("baseValue", Numeric),
		CellValue: t.col("cellValue", Integer),
	}
	t.references("statistic", "statId", "dbId")
	return h
}()

var Vector = func() VectorTable {
	t := newTable("vector")
	v := VectorTable{
		Table:           t,
		DbID:            t.col("dbId", Integer, primaryKey),
		VectorID:        t.col("vectorId", Integer, primaryKey),
		RunID:           t.col("runId", Integer),
		ModuleName:      t.col("moduleName", Text),
		VectorName:      t.col("vectorName", Text),
		VectorCount:     t.col("vectorCount", Integer, nullable),
		VectorMin:       t.col("vectorMin", Real, nullable),
		VectorMax:       t.col("vectorMax", Real, nullable),
		VectorSum:       t.col("vectorSum", Real, nullable),
		VectorSumSqr:    t.col("vectorSumSqr", Real, nullable),
		StartEventNum:   t.col("startEventNum", Integer, nullable),
		EndEventNum:     t.col("endEventNum", Integer, nullable),
		StartSimtimeRaw: t.col("startSimtimeRaw", Integer, nullable),
		EndSimtimeRaw:   t.col("endSimtimeRaw", Integer, nullable),
	}
	t.references("run", "runId", "dbId")
	return v
}()

var VectorAttr = newAttrTable("vectorattr", "vectorId", "vector")

var VectorData = func() VectorDataTable {
	t := newTable("vectordata")
	d := VectorDataTable{
		Table:       t,
		DbID:        t.col("dbId", Integer),
		VectorID:    t.col("vectorId", Integer),
		EventNumber: t.col("eventNumber", Integer),
		SimtimeRaw:  t.col("simtimeRaw", Integer),
		Value:       t.col("value", Numeric),
	}
	t.references("vector", "vectorId", "dbId")
	return d
}()

func newAttrTable(name, ownerColumn, owner string) AttrTable {
	t := newTable(name)
	a := AttrTable{
		Table:     t,
		DbID:      t.col("dbId", Integer),
		OwnerID:   t.col(ownerColumn, Integer),
		AttrName:  t.col("attrName", Text),
		AttrValue: t.col("attrValue", Text),
	}
	t.references(owner, ownerColumn, "dbId")
	return a
}

// Tables returns every catalog table, parents before children.
func Tables() []*Table {
	return []*Table{
		DB.Table,
		Run.Table,
		RunAttr.Table,
		RunParam.Table,
		Scalar.Table,
		ScalarAttr.Table,
		Statistic.Table,
		StatisticAttr.Table,
		HistBin.Table,
		Vector.Table,
		VectorAttr.Table,
		VectorData.Table,
	}
}

// Lookup finds a catalog table by name.
func Lookup(name string) (*Table, bool) {
	for _, t := range Tables() {
		if t.Name == name {
			return t, true
		}
	}
	return nil, false
}

// LookupColumn resolves a "table.column" reference.
func LookupColumn(table, column string) (*Column, bool) {
	t, ok := Lookup(table)
	if !ok {
		return nil, false
	}
	return t.Column(column)
}
