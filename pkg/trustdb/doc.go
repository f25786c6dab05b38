// Package trustdb maintains one pgx connection pool per trust database and
// routes requests to the right one. It is the only long-lived cache in the
// tenancy layer and the sole owner of every pool it hands out.
//
// # Pool cache
//
// Pools are built lazily on first acquire. Construction is exactly-once
// under concurrency: the first caller inserts a placeholder under the
// cache lock and connects outside it, everyone else waits on the
// placeholder and shares the single outcome. A failed build removes the
// placeholder before waiters wake, so the next acquire retries instead of
// hitting a tombstone. The cache-wide lock is held only for map
// bookkeeping; one trust's slow connect never blocks another trust.
//
//	mgr := trustdb.NewManager(cfg, trustdb.NewPGConnector(cfg), registry,
//		trustdb.WithLogger(log))
//	defer mgr.Shutdown(ctx)
//
//	conn, err := mgr.Acquire(ctx, "maroon")
//
// # Eviction and limits
//
// A background sweeper closes pools idle past IdleEviction. Hits re-check
// the trust's registry status at most once per StatusRecheck window; a
// trust that left the active status is evicted and the acquire fails the
// same way an unknown trust does. Construction is refused with
// ErrPoolLimitReached once READY plus BUILDING entries reach MaxPools.
//
// # Middleware
//
// Middleware ties the tenancy layer together per request: resolve the
// candidate code, enforce path scope, acquire the pool, and attach both
// the trust and its handle to the context. Handlers reach the pool with
// PoolFromContext and must never close it.
package trustdb
