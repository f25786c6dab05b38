package trustdb

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/schooltrust/platform/pkg/logger"
	"github.com/schooltrust/platform/pkg/trust"
)

// entry is one trust's slot in the pool cache. Its build state is carried
// by the done channel: open means BUILDING, closed means the build
// finished with either conn or err set. Failed entries are removed from
// the cache before done closes, so the map only ever holds BUILDING and
// READY entries and a later acquire can retry a failed trust.
type entry struct {
	code      string
	createdAt time.Time
	lastUsed  atomic.Int64 // unix nanos
	lastCheck atomic.Int64 // unix nanos of last registry re-validation

	done chan struct{}
	conn Conn
	err  error

	// info is the registry row observed at build time, refreshed by each
	// successful status recheck.
	info atomic.Pointer[trust.Trust]
}

func newEntry(code string) *entry {
	return &entry{
		code:      code,
		createdAt: time.Now(),
		done:      make(chan struct{}),
	}
}

// ready reports whether the build has finished. Only the manager may call
// this; callers of Acquire always wait on done instead.
func (e *entry) ready() bool {
	select {
	case <-e.done:
		return true
	default:
		return false
	}
}

func (e *entry) touch() {
	e.lastUsed.Store(time.Now().UnixNano())
}

// Manager is the per-trust connection pool cache. Pools are built lazily,
// exactly once per trust under concurrent access, evicted when idle or
// when the trust leaves the active status, and closed on shutdown. The
// manager is the sole owner of every handle it returns: callers must not
// close them.
type Manager struct {
	cfg       Config
	connector Connector
	registry  trust.Registry
	log       *slog.Logger

	mu      sync.Mutex
	entries map[string]*entry
	closed  bool

	sweeping  bool
	stopSweep chan struct{}
	sweepDone chan struct{}
}

// Option configures the manager.
type Option func(*Manager)

// WithLogger sets the logger used for eviction and recheck events.
func WithLogger(log *slog.Logger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// NewManager creates a pool manager. The registry supplies status and
// canonical database names; the connector builds the actual pools. The
// idle sweeper starts immediately when both IdleEviction and SweepInterval
// are positive.
func NewManager(cfg Config, connector Connector, registry trust.Registry, opts ...Option) *Manager {
	m := &Manager{
		cfg:       cfg,
		connector: connector,
		registry:  registry,
		log:       slog.New(slog.DiscardHandler),
		entries:   make(map[string]*entry),
		stopSweep: make(chan struct{}),
		sweepDone: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(m)
	}

	if cfg.IdleEviction > 0 && cfg.SweepInterval > 0 {
		m.sweeping = true
		go m.sweep()
	}

	return m
}

// Acquire returns the live pool handle for a trust, building it first if
// necessary. Concurrent acquires for one code share a single construction
// attempt and its outcome. The cache-wide lock is held only for map
// bookkeeping, never across the network round-trip, so one trust's slow
// connect cannot block another trust's lookup.
func (m *Manager) Acquire(ctx context.Context, code string) (Conn, error) {
	_, conn, err := m.AcquireTrust(ctx, code)
	return conn, err
}

// AcquireTrust is Acquire plus the registry row the pool was built (or
// last re-validated) against, for callers that attach the trust to the
// request context.
func (m *Manager) AcquireTrust(ctx context.Context, code string) (*trust.Trust, Conn, error) {
	code = trust.NormalizeCode(code)

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, nil, ErrManagerClosed
	}
	if e, ok := m.entries[code]; ok {
		// Claim the entry before releasing the lock: refreshing the idle
		// stamp here means the sweeper, which scans under the same lock,
		// can never select an entry a caller is about to be handed.
		if e.ready() {
			e.touch()
		}
		m.mu.Unlock()
		return m.await(ctx, e)
	}
	if m.cfg.MaxPools > 0 && len(m.entries) >= m.cfg.MaxPools {
		m.mu.Unlock()
		return nil, nil, fmt.Errorf("%w: %d pools in use", ErrPoolLimitReached, m.cfg.MaxPools)
	}
	e := newEntry(code)
	m.entries[code] = e
	m.mu.Unlock()

	return m.build(ctx, e)
}

// await waits for an in-flight or finished build and serves the hit path,
// including the throttled status re-validation.
func (m *Manager) await(ctx context.Context, e *entry) (*trust.Trust, Conn, error) {
	select {
	case <-e.done:
	case <-ctx.Done():
		// The build itself keeps running for the other waiters.
		return nil, nil, ctx.Err()
	}

	if e.err != nil {
		return nil, nil, e.err
	}
	e.touch()

	if m.cfg.StatusRecheck > 0 {
		now := time.Now().UnixNano()
		last := e.lastCheck.Load()
		// CAS so exactly one of the concurrent hitters pays for the
		// registry round-trip per recheck window.
		if now-last >= int64(m.cfg.StatusRecheck) && e.lastCheck.CompareAndSwap(last, now) {
			t, err := trust.ResolveActive(ctx, m.registry, e.code)
			switch {
			case err == nil:
				e.info.Store(t)
			case errors.Is(err, trust.ErrTrustInactive) || errors.Is(err, trust.ErrTrustNotFound):
				m.log.InfoContext(ctx, "evicting pool after status change", logger.TrustCode(e.code), logger.Error(err))
				m.Evict(e.code)
				return nil, nil, err
			default:
				// Transient registry failure: keep serving the pool we
				// have and let the next window retry the check.
				m.log.WarnContext(ctx, "trust status recheck failed", logger.TrustCode(e.code), logger.Error(err))
			}
		}
	}

	return e.info.Load(), e.conn, nil
}

// build performs the connect-and-authenticate work for a fresh placeholder
// entry, outside any cache-wide lock. Exactly one goroutine runs build per
// entry; everyone else goes through await.
func (m *Manager) build(ctx context.Context, e *entry) (*trust.Trust, Conn, error) {
	// Detach from the first caller's cancellation: the outcome is shared
	// by every waiter, so one impatient client must not fail them all.
	buildCtx := context.WithoutCancel(ctx)
	if m.cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		buildCtx, cancel = context.WithTimeout(buildCtx, m.cfg.ConnectTimeout)
		defer cancel()
	}

	t, err := trust.ResolveActive(buildCtx, m.registry, e.code)
	if err != nil {
		return nil, nil, m.failBuild(e, err)
	}

	conn, err := m.connector.Connect(buildCtx, t.DatabaseName)
	if err != nil {
		if !errors.Is(err, ErrConnectionFailed) {
			err = errors.Join(ErrConnectionFailed, err)
		}
		m.log.ErrorContext(ctx, "trust pool construction failed", logger.TrustCode(e.code), logger.Database(t.DatabaseName), logger.Error(err))
		return nil, nil, m.failBuild(e, err)
	}

	now := time.Now().UnixNano()
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		conn.Close()
		e.err = ErrManagerClosed
		close(e.done)
		return nil, nil, ErrManagerClosed
	}
	e.conn = conn
	e.info.Store(t)
	e.lastUsed.Store(now)
	e.lastCheck.Store(now)
	m.mu.Unlock()
	close(e.done)

	m.log.InfoContext(ctx, "trust pool ready", logger.TrustCode(e.code), logger.Database(t.DatabaseName))
	return t, conn, nil
}

// failBuild removes the placeholder and fans the error out to all waiters.
// Removal happens before done closes so the next acquire starts a fresh
// attempt instead of observing the dead entry.
func (m *Manager) failBuild(e *entry, err error) error {
	m.mu.Lock()
	delete(m.entries, e.code)
	m.mu.Unlock()

	e.err = err
	close(e.done)
	return err
}

// Evict removes a trust's pool from the cache and closes it. Entries
// still building are left alone; their builder owns the entry until the
// done channel closes, which is what keeps eviction and construction from
// racing on one key.
func (m *Manager) Evict(code string) {
	code = trust.NormalizeCode(code)

	m.mu.Lock()
	e, ok := m.entries[code]
	if !ok || !e.ready() {
		m.mu.Unlock()
		return
	}
	delete(m.entries, code)
	m.mu.Unlock()

	if e.conn != nil {
		e.conn.Close()
	}
}

// Size returns the number of READY and BUILDING entries.
func (m *Manager) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *Manager) sweep() {
	ticker := time.NewTicker(m.cfg.SweepInterval)
	defer ticker.Stop()
	defer close(m.sweepDone)

	for {
		select {
		case <-ticker.C:
			m.evictIdle(time.Now())
		case <-m.stopSweep:
			return
		}
	}
}

// evictIdle closes every ready pool whose last use is older than the idle
// threshold. Exposed to tests through the sweeper only; eviction decisions
// use the same lock discipline as Evict.
func (m *Manager) evictIdle(now time.Time) {
	var victims []*entry

	m.mu.Lock()
	for code, e := range m.entries {
		if !e.ready() {
			continue
		}
		idle := now.Sub(time.Unix(0, e.lastUsed.Load()))
		if idle >= m.cfg.IdleEviction {
			delete(m.entries, code)
			victims = append(victims, e)
		}
	}
	m.mu.Unlock()

	for _, e := range victims {
		m.log.Info("evicting idle trust pool", logger.TrustCode(e.code))
		e.conn.Close()
	}
}

// Shutdown closes the sweeper and every cached pool. In-flight builds are
// waited for so their pools are closed rather than leaked; builds that
// finish after the deadline close their own pool via the closed flag.
func (m *Manager) Shutdown(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil
	}
	m.closed = true
	entries := m.entries
	m.entries = make(map[string]*entry)
	m.mu.Unlock()

	if m.sweeping {
		close(m.stopSweep)
		<-m.sweepDone
	}

	for _, e := range entries {
		select {
		case <-e.done:
			if e.err == nil && e.conn != nil {
				e.conn.Close()
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}
