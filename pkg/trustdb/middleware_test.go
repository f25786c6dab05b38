package trustdb_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/schooltrust/platform/pkg/trust"
	"github.com/schooltrust/platform/pkg/trustdb"
)

func newTestStack(t *testing.T, connector trustdb.Connector, registry trust.Registry, opts ...trustdb.MiddlewareOption) (http.Handler, *trustdb.Manager) {
	t.Helper()

	mgr := trustdb.NewManager(testConfig(), connector, registry)
	t.Cleanup(func() { _ = mgr.Shutdown(context.Background()) })

	resolver := trust.NewHeaderResolver("X-Trust-Code")
	guard := trust.NewGuard([]string{"/platform"}, []string{"/students"})

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if tr, ok := trust.FromContext(r.Context()); ok {
			if _, ok := trustdb.ConnFromContext(r.Context()); !ok {
				http.Error(w, "trust without connection", http.StatusInternalServerError)
				return
			}
			w.Header().Set("X-Served-Trust", tr.Code)
		}
		w.WriteHeader(http.StatusOK)
	})

	return trustdb.Middleware(resolver, guard, mgr, opts...)(inner), mgr
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	t.Run("routes trust request with context", func(t *testing.T) {
		t.Parallel()

		handler, _ := newTestStack(t, &fakeConnector{}, newMemRegistry("demo"))

		req := httptest.NewRequest("GET", "/students/42", nil)
		req.Header.Set("X-Trust-Code", "demo")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "demo", rec.Header().Get("X-Served-Trust"))
	})

	t.Run("system path passes through without a pool", func(t *testing.T) {
		t.Parallel()

		connector := &fakeConnector{}
		handler, mgr := newTestStack(t, connector, newMemRegistry("demo"))

		req := httptest.NewRequest("GET", "/platform/trusts", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, rec.Header().Get("X-Served-Trust"))
		assert.Zero(t, connector.connectCount())
		assert.Zero(t, mgr.Size())
	})

	t.Run("guard rejects before any database work", func(t *testing.T) {
		t.Parallel()

		connector := &fakeConnector{}
		handler, _ := newTestStack(t, connector, newMemRegistry("demo"))

		// Trust code on a system-only path.
		req := httptest.NewRequest("GET", "/platform/trusts", nil)
		req.Header.Set("X-Trust-Code", "demo")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Zero(t, connector.connectCount())

		// No code on a trust-required path.
		req = httptest.NewRequest("GET", "/students/42", nil)
		rec = httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Zero(t, connector.connectCount())
	})

	t.Run("malformed code is rejected by the resolver", func(t *testing.T) {
		t.Parallel()

		connector := &fakeConnector{}
		handler, _ := newTestStack(t, connector, newMemRegistry("demo"))

		req := httptest.NewRequest("GET", "/students/42", nil)
		req.Header.Set("X-Trust-Code", "no spaces!")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Zero(t, connector.connectCount())
	})

	t.Run("unknown trust maps to 404", func(t *testing.T) {
		t.Parallel()

		handler, _ := newTestStack(t, &fakeConnector{}, newMemRegistry("demo"))

		req := httptest.NewRequest("GET", "/students/42", nil)
		req.Header.Set("X-Trust-Code", "ghost")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("inactive trust maps to 403", func(t *testing.T) {
		t.Parallel()

		registry := newMemRegistry("demo")
		registry.setStatus("demo", trust.StatusSuspended)
		handler, _ := newTestStack(t, &fakeConnector{}, registry)

		req := httptest.NewRequest("GET", "/students/42", nil)
		req.Header.Set("X-Trust-Code", "demo")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("connect failure maps to 502", func(t *testing.T) {
		t.Parallel()

		connector := &fakeConnector{failWith: errors.New("dial refused")}
		handler, _ := newTestStack(t, connector, newMemRegistry("demo"))

		req := httptest.NewRequest("GET", "/students/42", nil)
		req.Header.Set("X-Trust-Code", "demo")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadGateway, rec.Code)
	})

	t.Run("skip paths bypass routing entirely", func(t *testing.T) {
		t.Parallel()

		connector := &fakeConnector{}
		handler, _ := newTestStack(t, connector, newMemRegistry("demo"),
			trustdb.WithSkipPaths([]string{"/healthz"}))

		req := httptest.NewRequest("GET", "/healthz", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Zero(t, connector.connectCount())
	})

	t.Run("custom error handler overrides the default", func(t *testing.T) {
		t.Parallel()

		handler, _ := newTestStack(t, &fakeConnector{}, newMemRegistry("demo"),
			trustdb.WithErrorHandler(func(w http.ResponseWriter, r *http.Request, err error) {
				w.WriteHeader(http.StatusTeapot)
			}))

		req := httptest.NewRequest("GET", "/students/42", nil)
		req.Header.Set("X-Trust-Code", "ghost")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusTeapot, rec.Code)
	})
}

func TestMiddleware_PoolLimitMapsTo503(t *testing.T) {
	t.Parallel()

	cfg := testConfig()
	cfg.MaxPools = 1
	mgr := trustdb.NewManager(cfg, &fakeConnector{}, newMemRegistry("alpha", "bravo"))
	t.Cleanup(func() { _ = mgr.Shutdown(context.Background()) })

	_, err := mgr.Acquire(context.Background(), "alpha")
	require.NoError(t, err)

	resolver := trust.NewHeaderResolver("X-Trust-Code")
	guard := trust.NewGuard(nil, nil)
	handler := trustdb.Middleware(resolver, guard, mgr)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/anything", nil)
	req.Header.Set("X-Trust-Code", "bravo")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRequireTrustWithDefaultErrorHandler(t *testing.T) {
	t.Parallel()

	// Routes that dereference the trust unconditionally must sit behind
	// RequireTrust so a request with no tenant signal gets a 400 from the
	// error handler instead of reaching the handler.
	handler := trust.RequireTrust(trustdb.DefaultErrorHandler)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t := trust.MustFromContext(r.Context())
			w.Write([]byte(t.Code))
		}))

	t.Run("rejects missing trust before the handler", func(t *testing.T) {
		t.Parallel()

		rec := httptest.NewRecorder()
		assert.NotPanics(t, func() {
			handler.ServeHTTP(rec, httptest.NewRequest("GET", "/whoami", nil))
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("serves with trust attached", func(t *testing.T) {
		t.Parallel()

		req := httptest.NewRequest("GET", "/whoami", nil)
		req = req.WithContext(trust.WithTrust(req.Context(), &trust.Trust{Code: "demo"}))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "demo", rec.Body.String())
	})
}

func TestConnContext(t *testing.T) {
	t.Parallel()

	conn := &fakeConn{}
	ctx := trustdb.WithConn(context.Background(), conn)

	got, ok := trustdb.ConnFromContext(ctx)
	require.True(t, ok)
	assert.Same(t, conn, got)

	_, ok = trustdb.ConnFromContext(context.Background())
	assert.False(t, ok)

	assert.Panics(t, func() {
		trustdb.MustConnFromContext(context.Background())
	})
}
