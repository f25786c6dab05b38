// Package pg owns the shared system database handle: the single pgx pool
// pointing at the platform's system database, which holds the trust
// registry, system administrators and the audit log.
//
// The handle is built once, eagerly, at process start. There is no degraded
// mode without it — the trust registry lives there — so a Connect failure
// is fatal to startup. The pool is never closed except at shutdown.
//
//	var cfg pg.Config
//	config.MustLoad(&cfg)
//
//	systemDB, err := pg.Connect(ctx, cfg)
//	if err != nil {
//		log.Error("system database unavailable", "error", err)
//		os.Exit(1)
//	}
//	defer systemDB.Close()
//
//	if err := pg.Migrate(ctx, systemDB, cfg, log); err != nil {
//		log.Error("system schema migration failed", "error", err)
//		os.Exit(1)
//	}
//
// Connect retries with linear backoff, verifies the connection with a ping,
// and applies pool sizing from Config. Migrate keeps the system schema up
// to date via goose before any traffic is served. Healthcheck returns a
// probe-shaped closure, and the error classifiers (IsNotFoundError,
// IsDuplicateKeyError, IsForeignKeyViolationError) keep pgx error handling
// consistent across the provisioning layer.
package pg
