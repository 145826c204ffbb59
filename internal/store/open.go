package store

import (
	"context"
	"fmt"
)

// Supported STORE_DRIVER values.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open returns the repository selected by driver.
func Open(ctx context.Context, driver, dbPath string, pg PostgresConfig) (Repository, error) {
	switch driver {
	case "", DriverSQLite:
		return NewSQLite(dbPath)
	case DriverPostgres:
		return NewPostgres(ctx, pg)
	default:
		return nil, fmt.Errorf("unknown store driver %q", driver)
	}
}
