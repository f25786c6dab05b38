package trustdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Conn is the slice of a pooled connection handle the manager owns.
// *pgxpool.Pool satisfies it. No caller outside the manager may invoke
// Close; the eviction and shutdown paths are the only closers.
type Conn interface {
	Ping(ctx context.Context) error
	Close()
}

// Connector builds a live, authenticated pool for one trust database.
// Implementations must verify the connection (ping) before returning so a
// READY cache entry is always usable.
type Connector interface {
	Connect(ctx context.Context, databaseName string) (Conn, error)
}

// PGConnector builds pgx pools from a DSN template. The database name is
// the only per-trust variable; credentials, host and pool sizing are fixed
// by configuration.
type PGConnector struct {
	cfg Config
}

// NewPGConnector creates the production connector for trust databases.
func NewPGConnector(cfg Config) *PGConnector {
	return &PGConnector{cfg: cfg}
}

func (c *PGConnector) Connect(ctx context.Context, databaseName string) (Conn, error) {
	dsn := fmt.Sprintf(c.cfg.DSNTemplate, databaseName)

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errors.Join(ErrConnectionFailed, err)
	}
	poolCfg.MaxConns = c.cfg.PoolMaxConns
	poolCfg.MinConns = c.cfg.PoolMinConns
	poolCfg.MaxConnIdleTime = c.cfg.PoolConnIdleTime
	poolCfg.MaxConnLifetime = c.cfg.PoolConnLifetime
	poolCfg.HealthCheckPeriod = c.cfg.PoolHealthCheckTime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, errors.Join(ErrConnectionFailed, err)
	}

	// Verify with an actual ping so authentication and permission problems
	// surface here, not on the first query of some unlucky request.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errors.Join(ErrConnectionFailed, err)
	}

	return pool, nil
}

// ConnectorFunc adapts a function to the Connector interface.
type ConnectorFunc func(ctx context.Context, databaseName string) (Conn, error)

func (f ConnectorFunc) Connect(ctx context.Context, databaseName string) (Conn, error) {
	return f(ctx, databaseName)
}

// AsPool unwraps a Conn back to the concrete pgx pool for query layers
// that need the full pgxpool API. Returns false for non-pgx handles
// (tests inject fakes).
func AsPool(c Conn) (*pgxpool.Pool, bool) {
	pool, ok := c.(*pgxpool.Pool)
	return pool, ok
}
