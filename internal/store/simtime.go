package store

import (
	"database/sql"
	"errors"
	"fmt"
	"math"

	sqlite3 "github.com/mattn/go-sqlite3"
)

// SimtimeFunc is the SQL name of the time reconstruction function.
const SimtimeFunc = "simtime"

// ErrUnsupportedDriver is returned when a connection does not come from the
// go-sqlite3 driver and therefore cannot host Go scalar functions.
var ErrUnsupportedDriver = errors.New("connection does not support scalar function registration")

// Simtime converts a raw tick count to simulation time in seconds:
// raw × 10^exp.
//
// Negative exponents divide by the exact power of ten instead of multiplying
// by its inexact reciprocal, so 1000 ticks at exp -3 yield exactly 1.
func Simtime(raw, exp int64) float64 {
	if exp < 0 {
		return float64(raw) / math.Pow10(int(-exp))
	}
	return float64(raw) * math.Pow10(int(exp))
}

// RegisterSimtime registers the simtime(raw, exp) function on conn.
// Registering again on the same connection replaces the previous definition.
func RegisterSimtime(conn *sql.Conn) error {
	if conn == nil {
		return fmt.Errorf("register %s: nil connection", SimtimeFunc)
	}
	err := conn.Raw(func(driverConn any) error {
		sc, ok := driverConn.(*sqlite3.SQLiteConn)
		if !ok {
			return fmt.Errorf("%w (driver connection %T)", ErrUnsupportedDriver, driverConn)
		}
		return sc.RegisterFunc(SimtimeFunc, Simtime, true)
	})
	if err != nil {
		return fmt.Errorf("register %s: %w", SimtimeFunc, err)
	}
	return nil
}
