package query

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mxsrc/oppsql/internal/cleanup"
	"github.com/mxsrc/oppsql/internal/store"
)

// Conner hands out dedicated connections. *sql.DB and *store.Store both
// satisfy it.
type Conner interface {
	Conn(ctx context.Context) (*sql.Conn, error)
}

// execute runs one statement on a dedicated connection and materializes the
// result. The connection is released on every path.
func execute(ctx context.Context, c Conner, sqlText string, params []any, withSimtime bool) (*Table, error) {
	if c == nil {
		return nil, fmt.Errorf("no connection source")
	}
	logger := zerolog.Ctx(ctx)

	conn, err := c.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	defer cleanup.DeferClose(logger, conn, "failed to release connection")

	if withSimtime {
		if err := store.RegisterSimtime(conn); err != nil {
			if errors.Is(err, store.ErrUnsupportedDriver) {
				return nil, unsupportedDriver(err)
			}
			return nil, err
		}
	}

	rows, err := conn.QueryContext(ctx, sqlText, params...)
	if err != nil {
		return nil, fmt.Errorf("execute: %w", err)
	}
	defer cleanup.DeferClose(logger, rows, "failed to close rows")

	return scanTable(rows)
}

func scanTable(rows *sql.Rows) (*Table, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	table := &Table{Columns: columns, Rows: [][]any{}}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		for i, v := range values {
			// Drivers may reuse byte buffers between rows.
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		table.Rows = append(table.Rows, values)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return table, nil
}
