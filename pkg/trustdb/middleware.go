package trustdb

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/schooltrust/platform/pkg/logger"
	"github.com/schooltrust/platform/pkg/trust"
)

// ErrorHandler renders routing failures to the client.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

// middlewareConfig holds middleware configuration.
type middlewareConfig struct {
	errorHandler ErrorHandler
	skipPaths    []string
	logger       *slog.Logger
}

// MiddlewareOption configures the middleware.
type MiddlewareOption func(*middlewareConfig)

// WithErrorHandler sets a custom error handler.
func WithErrorHandler(handler ErrorHandler) MiddlewareOption {
	return func(c *middlewareConfig) {
		if handler != nil {
			c.errorHandler = handler
		}
	}
}

// WithSkipPaths sets path prefixes that bypass trust routing entirely
// (health probes, static assets).
func WithSkipPaths(paths []string) MiddlewareOption {
	return func(c *middlewareConfig) {
		c.skipPaths = paths
	}
}

// WithMiddlewareLogger sets the logger for rejected requests.
func WithMiddlewareLogger(logger *slog.Logger) MiddlewareOption {
	return func(c *middlewareConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Middleware routes each request to its trust database. Order of work:
// resolve the candidate code (no database involved), enforce the path
// scope, then and only then acquire the pool and attach trust and handle
// to the request context. System-scoped requests pass through untouched;
// their handlers use the system database handle directly.
func Middleware(resolver trust.Resolver, guard *trust.Guard, manager *Manager, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	cfg := &middlewareConfig{
		errorHandler: DefaultErrorHandler,
		logger:       slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, skip := range cfg.skipPaths {
				if strings.HasPrefix(r.URL.Path, skip) {
					next.ServeHTTP(w, r)
					return
				}
			}

			code, err := resolver(r)
			if err != nil {
				cfg.logger.InfoContext(r.Context(), "rejected trust code", "path", r.URL.Path, logger.Error(err))
				cfg.errorHandler(w, r, err)
				return
			}

			if err := guard.Check(r.URL.Path, code != ""); err != nil {
				cfg.logger.InfoContext(r.Context(), "rejected by scope guard", "path", r.URL.Path, logger.TrustCode(code), logger.Error(err))
				cfg.errorHandler(w, r, err)
				return
			}

			// No trust and the guard allowed it: a system or public route.
			if code == "" {
				next.ServeHTTP(w, r)
				return
			}

			t, conn, err := manager.AcquireTrust(r.Context(), code)
			if err != nil {
				cfg.logger.WarnContext(r.Context(), "trust pool acquire failed", logger.TrustCode(code), logger.Error(err))
				cfg.errorHandler(w, r, err)
				return
			}

			ctx := trust.WithTrust(r.Context(), t)
			ctx = WithConn(ctx, conn)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// DefaultErrorHandler maps router errors onto HTTP statuses. Capacity and
// connectivity problems get 5xx codes distinct from the 404 of an unknown
// trust, so operators can tell infrastructure trouble from typoed codes.
func DefaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, trust.ErrInvalidCode), errors.Is(err, trust.ErrContextMismatch),
		errors.Is(err, trust.ErrNoTrustInContext):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, trust.ErrTrustNotFound):
		http.Error(w, "trust not found", http.StatusNotFound)
	case errors.Is(err, trust.ErrTrustInactive):
		http.Error(w, "trust is not active", http.StatusForbidden)
	case errors.Is(err, ErrPoolLimitReached):
		http.Error(w, "trust capacity reached, retry later", http.StatusServiceUnavailable)
	case errors.Is(err, ErrConnectionFailed):
		http.Error(w, "trust database unavailable", http.StatusBadGateway)
	default:
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}
