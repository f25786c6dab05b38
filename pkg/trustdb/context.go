package trustdb

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// connKey is a private type to prevent collisions with other context keys.
type connKey struct{}

// WithConn attaches a trust's pool handle to the context. The handle stays
// owned by the manager; consumers must never close it.
func WithConn(ctx context.Context, conn Conn) context.Context {
	return context.WithValue(ctx, connKey{}, conn)
}

// ConnFromContext retrieves the trust pool handle from the context.
func ConnFromContext(ctx context.Context) (Conn, bool) {
	conn, ok := ctx.Value(connKey{}).(Conn)
	return conn, ok
}

// PoolFromContext retrieves the concrete pgx pool from the context, for
// query layers built directly on the pgxpool API.
func PoolFromContext(ctx context.Context) (*pgxpool.Pool, bool) {
	conn, ok := ConnFromContext(ctx)
	if !ok {
		return nil, false
	}
	return AsPool(conn)
}

// MustConnFromContext retrieves the trust pool handle and panics if none
// is attached. Use only in handlers behind the trust middleware.
func MustConnFromContext(ctx context.Context) Conn {
	conn, ok := ConnFromContext(ctx)
	if !ok {
		panic("trustdb: no trust connection in context")
	}
	return conn
}
