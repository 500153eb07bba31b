package query

import (
	"database/sql"
	"database/sql/driver"
	"errors"
	"testing"

	"github.com/mxsrc/oppsql/internal/testutil"
)

// scenarioDB holds two runs that differ in nCars, each with one collisions
// sample.
func scenarioDB(t *testing.T) *testutil.ResultDB {
	t.Helper()
	fx := testutil.NewResultDB(t)
	fx.Run("General-0", -3).
		Attr("nCars", "160").
		Param("Net.nCars", "160").
		Vector("Net.sink", "collisions").
		Sample(1000, 150)
	fx.Run("General-1", -3).
		Attr("nCars", "320").
		Param("Net.nCars", "320").
		Vector("Net.sink", "collisions").
		Sample(2000, 484)
	return fx
}

// parameterStudy holds four runs over nCars × speed with two vectors each.
//
//	run  nCars speed  collisions        delay
//	1    160   10     1, 3              10
//	2    160   20     5                 20
//	3    320   10     7, 9, 11          30
//	4    320   20     13                40
func parameterStudy(t *testing.T) *testutil.ResultDB {
	t.Helper()
	fx := testutil.NewResultDB(t)

	type run struct {
		nCars, speed string
		collisions   []int
		delay        int
	}
	runs := []run{
		{"160", "10", []int{1, 3}, 10},
		{"160", "20", []int{5}, 20},
		{"320", "10", []int{7, 9, 11}, 30},
		{"320", "20", []int{13}, 40},
	}
	for i, r := range runs {
		rr := fx.Run("General-"+string(rune('0'+i)), -3).
			Attr("nCars", r.nCars).
			Attr("speed", r.speed).
			Param("Net.speed", r.speed)
		vec := rr.Vector("Net.sink", "collisions")
		for j, v := range r.collisions {
			vec.Sample(int64(1000*(j+1)), v)
		}
		rr.Vector("Net.host[0]", "delay").Sample(500, r.delay)
	}
	return fx
}

// fakeDriver opens connections that are not go-sqlite3 connections.
type fakeDriver struct{}

func (fakeDriver) Open(string) (driver.Conn, error) { return fakeConn{}, nil }

type fakeConn struct{}

func (fakeConn) Prepare(string) (driver.Stmt, error) { return nil, errors.New("fake: no statements") }
func (fakeConn) Close() error                        { return nil }
func (fakeConn) Begin() (driver.Tx, error)           { return nil, errors.New("fake: no transactions") }

func init() {
	sql.Register("oppsql-fake", fakeDriver{})
}
