package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/schooltrust/platform/modules/trusts"
	"github.com/schooltrust/platform/pkg/config"
	"github.com/schooltrust/platform/pkg/httpserver"
	"github.com/schooltrust/platform/pkg/logger"
	"github.com/schooltrust/platform/pkg/pg"
	"github.com/schooltrust/platform/pkg/redis"
	"github.com/schooltrust/platform/pkg/trust"
	"github.com/schooltrust/platform/pkg/trustdb"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var logCfg logger.Config
	config.MustLoad(&logCfg)
	log := logger.NewFromConfig(logCfg,
		logger.WithContextExtractors(trust.LoggerExtractor()),
	)
	logger.SetAsDefault(log)

	if err := run(ctx, log); err != nil {
		log.Error("server exited", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, log *slog.Logger) error {
	var (
		pgCfg     pg.Config
		trustCfg  trust.Config
		poolCfg   trustdb.Config
		serverCfg httpserver.Config
	)
	config.MustLoad(&pgCfg)
	config.MustLoad(&trustCfg)
	config.MustLoad(&poolCfg)
	config.MustLoad(&serverCfg)

	// System database is a hard dependency: registry lookups and
	// provisioning cannot run without it.
	systemDB, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer systemDB.Close()

	if err := pg.Migrate(ctx, systemDB, pgCfg, log); err != nil {
		return err
	}

	readiness := []func(context.Context) error{pg.Healthcheck(systemDB)}

	// Registry cache backend. Redis survives restarts and is shared across
	// replicas; memory is the single-node default.
	cache := trust.NewNoOpCache()
	switch trustCfg.CacheBackend {
	case "redis":
		var redisCfg redis.Config
		config.MustLoad(&redisCfg)
		client, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return err
		}
		defer client.Close()
		cache = trust.NewRedisCache(client)
		readiness = append(readiness, redis.Healthcheck(client))
	case "memory":
		cache = trust.NewMemoryCache()
	}
	defer cache.Close()

	registry := trust.NewCachedRegistry(
		trust.NewPGRegistry(systemDB),
		cache,
		min(trustCfg.CacheTTL, poolCfg.StatusRecheck),
	)

	manager := trustdb.NewManager(poolCfg, trustdb.NewPGConnector(poolCfg), registry,
		trustdb.WithLogger(log))

	resolver := trust.NewDefaultResolver(trustCfg)
	guard := trust.NewGuard(trustCfg.SystemPathPrefixes, trustCfg.TrustPathPrefixes)

	provisioning := trusts.NewService(trusts.NewPGStorage(systemDB), trustCfg.DatabasePrefix,
		trusts.WithPoolEvictor(manager),
		trusts.WithCacheInvalidator(registry),
		trusts.WithServiceLogger(log),
	)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", httpserver.HealthCheckHandler(ctx, log))
	r.Get("/readyz", httpserver.HealthCheckHandler(ctx, log, readiness...))

	r.Group(func(r chi.Router) {
		r.Use(trustdb.Middleware(resolver, guard, manager,
			trustdb.WithSkipPaths([]string{"/healthz", "/readyz"}),
			trustdb.WithMiddlewareLogger(log),
		))
		r.Mount("/platform/trusts", provisioning.Handler())

		// Trust-scoped modules mount here; each handler reads its pool via
		// trustdb.PoolFromContext.
		r.With(trust.RequireTrust(trustdb.DefaultErrorHandler)).
			Get("/whoami", func(w http.ResponseWriter, r *http.Request) {
				t := trust.MustFromContext(r.Context())
				w.Write([]byte(t.Code))
			})
	})

	srv := httpserver.NewFromConfig(serverCfg,
		httpserver.WithLogger(log),
		httpserver.WithStopHook(func(ctx context.Context) {
			if err := manager.Shutdown(ctx); err != nil {
				log.Error("trust pool shutdown failed", logger.Error(err))
			}
		}),
	)
	return srv.Run(ctx, r)
}
