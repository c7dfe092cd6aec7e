package store

import (
	"context"
	"fmt"
)

// Driver names accepted by Open.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
	DriverSQLite = "sqlite"
)

// Drivers lists the accepted driver names.
var Drivers = []string{DriverMemory, DriverRedis, DriverSQLite}

// Open returns a Store for driver. dsn is a Redis URL for "redis", a SQLite
// DSN for "sqlite" and ignored for "memory". table names the record set.
func Open(ctx context.Context, driver, dsn, table string, opts ...Option) (Store, error) {
	switch driver {
	case DriverMemory:
		return NewMemoryStore(opts...), nil
	case DriverRedis:
		s, err := OpenRedis(dsn, table, opts...)
		if err != nil {
			return nil, err
		}
		return s, nil
	case DriverSQLite:
		s, err := OpenSQLite(ctx, dsn, table, opts...)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, driver)
	}
}
