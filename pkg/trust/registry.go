package trust

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"golang.org/x/sync/singleflight"
)

// RegistryDB is the slice of the system database handle the registry needs.
// *pgxpool.Pool satisfies it.
type RegistryDB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGRegistry resolves trust codes against the trusts table in the system
// database. Concurrent lookups for the same code are collapsed into a
// single query.
type PGRegistry struct {
	db    RegistryDB
	group singleflight.Group
}

// NewPGRegistry creates a registry backed by the system database handle.
func NewPGRegistry(db RegistryDB) *PGRegistry {
	return &PGRegistry{db: db}
}

const resolveQuery = `
SELECT id, code, name, database_name, status, created_at, updated_at
FROM trusts
WHERE code = $1`

// Resolve looks up a trust by normalized code. Returns ErrTrustNotFound
// when no row matches. The code is normalized again here so the registry
// is safe to call with raw input, though resolvers normalize upstream.
func (r *PGRegistry) Resolve(ctx context.Context, code string) (*Trust, error) {
	code = NormalizeCode(code)

	// The query's result is shared by every collapsed caller, so it must
	// not run on the first caller's cancellable context.
	queryCtx := context.WithoutCancel(ctx)
	v, err, _ := r.group.Do(code, func() (any, error) {
		var t Trust
		err := r.db.QueryRow(queryCtx, resolveQuery, code).Scan(
			&t.ID, &t.Code, &t.Name, &t.DatabaseName, &t.Status, &t.CreatedAt, &t.UpdatedAt,
		)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, fmt.Errorf("%w: %s", ErrTrustNotFound, code)
			}
			return nil, fmt.Errorf("resolve trust %s: %w", code, err)
		}
		return &t, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Trust), nil
}

// CachedRegistry wraps a Registry with a short-TTL cache. The TTL is
// clamped so a cached row can never outlive the status-recheck window it
// was configured against.
type CachedRegistry struct {
	inner Registry
	cache Cache
	ttl   time.Duration
}

// NewCachedRegistry wraps inner with cache. A non-positive maxTTL disables
// caching entirely.
func NewCachedRegistry(inner Registry, cache Cache, maxTTL time.Duration) *CachedRegistry {
	if maxTTL <= 0 {
		cache = NewNoOpCache()
	}
	return &CachedRegistry{inner: inner, cache: cache, ttl: maxTTL}
}

func (r *CachedRegistry) Resolve(ctx context.Context, code string) (*Trust, error) {
	code = NormalizeCode(code)

	if t, ok := r.cache.Get(ctx, code); ok {
		return t, nil
	}

	t, err := r.inner.Resolve(ctx, code)
	if err != nil {
		return nil, err
	}

	r.cache.Set(ctx, code, t, r.ttl)
	return t, nil
}

// Invalidate drops a cached row, forcing the next Resolve to hit the
// inner registry. Provisioning calls this after status transitions.
func (r *CachedRegistry) Invalidate(ctx context.Context, code string) {
	r.cache.Delete(ctx, NormalizeCode(code))
}

// ResolveActive resolves a code and additionally requires the trust to be
// active. Returns ErrTrustInactive for suspended or archived trusts so
// callers can render forbidden rather than not-found.
func ResolveActive(ctx context.Context, reg Registry, code string) (*Trust, error) {
	t, err := reg.Resolve(ctx, code)
	if err != nil {
		return nil, err
	}
	if !t.Active() {
		return nil, fmt.Errorf("%w: %s is %s", ErrTrustInactive, t.Code, t.Status)
	}
	return t, nil
}
