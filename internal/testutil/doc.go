// Package testutil builds result databases for tests.
//
// A fixture is a fresh file in t.TempDir() created with store.Create, filled
// through a small fluent writer:
//
//	fx := testutil.NewResultDB(t)
//	fx.Run("General-0", -3).
//		Attr("nCars", "160").
//		Param("Net.nCars", "160").
//		Vector("Net.sink", "collisions").
//		Sample(1000, 150)
//
// Identifiers (run, vector and event numbers) come from per-database
// sequences starting at 1, so fixtures are deterministic. Merged databases
// are modelled with Database, which adds a second dbId to the same file with
// its own sequences; runs of different databases then share runIds.
package testutil
