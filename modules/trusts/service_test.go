package trusts_test

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/schooltrust/platform/modules/trusts"
	"github.com/schooltrust/platform/pkg/trust"
)

type fakeStorage struct {
	mu     sync.Mutex
	nextID int64
	rows   map[string]*trust.Trust
	admins map[int64][2]string // trust id -> email, password hash
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{
		rows:   make(map[string]*trust.Trust),
		admins: make(map[int64][2]string),
	}
}

func (s *fakeStorage) CreateTrust(ctx context.Context, t *trust.Trust) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[t.Code]; ok {
		return fmt.Errorf("%w: %s", trusts.ErrCodeTaken, t.Code)
	}
	s.nextID++
	t.ID = s.nextID
	t.CreatedAt = time.Now()
	t.UpdatedAt = t.CreatedAt
	cp := *t
	s.rows[t.Code] = &cp
	return nil
}

func (s *fakeStorage) CreateTrustAdmin(ctx context.Context, trustID int64, email, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.admins[trustID] = [2]string{email, passwordHash}
	return nil
}

func (s *fakeStorage) GetTrust(ctx context.Context, code string) (*trust.Trust, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.rows[code]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, fmt.Errorf("%w: %s", trust.ErrTrustNotFound, code)
}

func (s *fakeStorage) ListTrusts(ctx context.Context) ([]*trust.Trust, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*trust.Trust, 0, len(s.rows))
	for _, t := range s.rows {
		cp := *t
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out, nil
}

func (s *fakeStorage) UpdateStatus(ctx context.Context, code string, status trust.Status) (*trust.Trust, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.rows[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", trust.ErrTrustNotFound, code)
	}
	t.Status = status
	t.UpdatedAt = time.Now()
	cp := *t
	return &cp, nil
}

func (s *fakeStorage) adminFor(id int64) ([2]string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.admins[id]
	return a, ok
}

type recorder struct {
	mu          sync.Mutex
	evicted     []string
	invalidated []string
}

func (r *recorder) Evict(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.evicted = append(r.evicted, code)
}

func (r *recorder) Invalidate(ctx context.Context, code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.invalidated = append(r.invalidated, code)
}

const dbPrefix = "school_erp_trust_"

func TestService_Provision(t *testing.T) {
	t.Parallel()

	t.Run("creates trust with derived database name", func(t *testing.T) {
		t.Parallel()

		storage := newFakeStorage()
		svc := trusts.NewService(storage, dbPrefix)

		got, err := svc.Provision(context.Background(), trusts.ProvisionRequest{
			Code: "Maroon",
			Name: "Maroon Academy Trust",
		})
		require.NoError(t, err)
		assert.Equal(t, "maroon", got.Code)
		assert.Equal(t, "school_erp_trust_maroon", got.DatabaseName)
		assert.Equal(t, trust.StatusActive, got.Status)
		assert.NotZero(t, got.ID)
	})

	t.Run("hashes the bootstrap admin password", func(t *testing.T) {
		t.Parallel()

		storage := newFakeStorage()
		svc := trusts.NewService(storage, dbPrefix)

		got, err := svc.Provision(context.Background(), trusts.ProvisionRequest{
			Code:          "demo",
			Name:          "Demo Trust",
			AdminEmail:    "head@demo.example",
			AdminPassword: "correct horse",
		})
		require.NoError(t, err)

		admin, ok := storage.adminFor(got.ID)
		require.True(t, ok)
		assert.Equal(t, "head@demo.example", admin[0])
		assert.NotEqual(t, "correct horse", admin[1])
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(admin[1]), []byte("correct horse")))
	})

	t.Run("skips admin when credentials absent", func(t *testing.T) {
		t.Parallel()

		storage := newFakeStorage()
		svc := trusts.NewService(storage, dbPrefix)

		got, err := svc.Provision(context.Background(), trusts.ProvisionRequest{
			Code: "demo",
			Name: "Demo Trust",
		})
		require.NoError(t, err)

		_, ok := storage.adminFor(got.ID)
		assert.False(t, ok)
	})

	t.Run("rejects invalid codes", func(t *testing.T) {
		t.Parallel()

		svc := trusts.NewService(newFakeStorage(), dbPrefix)

		for _, code := range []string{"", "a", "no spaces", "admin", "www"} {
			_, err := svc.Provision(context.Background(), trusts.ProvisionRequest{
				Code: code,
				Name: "Some Trust",
			})
			assert.ErrorIs(t, err, trust.ErrInvalidCode, "code %q", code)
		}
	})

	t.Run("rejects missing name", func(t *testing.T) {
		t.Parallel()

		svc := trusts.NewService(newFakeStorage(), dbPrefix)

		_, err := svc.Provision(context.Background(), trusts.ProvisionRequest{Code: "demo"})
		assert.ErrorIs(t, err, trust.ErrInvalidCode)
	})

	t.Run("duplicate code surfaces as taken", func(t *testing.T) {
		t.Parallel()

		svc := trusts.NewService(newFakeStorage(), dbPrefix)

		_, err := svc.Provision(context.Background(), trusts.ProvisionRequest{Code: "demo", Name: "First"})
		require.NoError(t, err)

		_, err = svc.Provision(context.Background(), trusts.ProvisionRequest{Code: "demo", Name: "Second"})
		assert.ErrorIs(t, err, trusts.ErrCodeTaken)
	})
}

func TestService_ChangeStatus(t *testing.T) {
	t.Parallel()

	provision := func(t *testing.T, svc *trusts.Service, code string) {
		t.Helper()
		_, err := svc.Provision(context.Background(), trusts.ProvisionRequest{Code: code, Name: code})
		require.NoError(t, err)
	}

	t.Run("suspend evicts pool and cache", func(t *testing.T) {
		t.Parallel()

		rec := &recorder{}
		svc := trusts.NewService(newFakeStorage(), dbPrefix,
			trusts.WithPoolEvictor(rec), trusts.WithCacheInvalidator(rec))
		provision(t, svc, "demo")

		got, err := svc.ChangeStatus(context.Background(), "demo", trust.StatusSuspended)
		require.NoError(t, err)
		assert.Equal(t, trust.StatusSuspended, got.Status)
		assert.Equal(t, []string{"demo"}, rec.evicted)
		assert.Equal(t, []string{"demo"}, rec.invalidated)
	})

	t.Run("reactivation invalidates cache but keeps no pool to evict", func(t *testing.T) {
		t.Parallel()

		rec := &recorder{}
		svc := trusts.NewService(newFakeStorage(), dbPrefix,
			trusts.WithPoolEvictor(rec), trusts.WithCacheInvalidator(rec))
		provision(t, svc, "demo")

		_, err := svc.ChangeStatus(context.Background(), "demo", trust.StatusSuspended)
		require.NoError(t, err)
		_, err = svc.ChangeStatus(context.Background(), "demo", trust.StatusActive)
		require.NoError(t, err)

		// Eviction fires only on the way out of active.
		assert.Equal(t, []string{"demo"}, rec.evicted)
		assert.Equal(t, []string{"demo", "demo"}, rec.invalidated)
	})

	t.Run("archived is terminal", func(t *testing.T) {
		t.Parallel()

		svc := trusts.NewService(newFakeStorage(), dbPrefix)
		provision(t, svc, "demo")

		_, err := svc.ChangeStatus(context.Background(), "demo", trust.StatusArchived)
		require.NoError(t, err)

		_, err = svc.ChangeStatus(context.Background(), "demo", trust.StatusActive)
		assert.ErrorIs(t, err, trusts.ErrArchived)
	})

	t.Run("same status is a no-op", func(t *testing.T) {
		t.Parallel()

		rec := &recorder{}
		svc := trusts.NewService(newFakeStorage(), dbPrefix,
			trusts.WithPoolEvictor(rec), trusts.WithCacheInvalidator(rec))
		provision(t, svc, "demo")

		got, err := svc.ChangeStatus(context.Background(), "demo", trust.StatusActive)
		require.NoError(t, err)
		assert.Equal(t, trust.StatusActive, got.Status)
		assert.Empty(t, rec.evicted)
		assert.Empty(t, rec.invalidated)
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		t.Parallel()

		svc := trusts.NewService(newFakeStorage(), dbPrefix)
		provision(t, svc, "demo")

		_, err := svc.ChangeStatus(context.Background(), "demo", trust.Status("dormant"))
		assert.ErrorIs(t, err, trusts.ErrInvalidStatus)
	})

	t.Run("unknown trust", func(t *testing.T) {
		t.Parallel()

		svc := trusts.NewService(newFakeStorage(), dbPrefix)

		_, err := svc.ChangeStatus(context.Background(), "ghost", trust.StatusSuspended)
		assert.ErrorIs(t, err, trust.ErrTrustNotFound)
	})
}

func TestService_GetAndList(t *testing.T) {
	t.Parallel()

	svc := trusts.NewService(newFakeStorage(), dbPrefix)
	for _, code := range []string{"bravo", "alpha"} {
		_, err := svc.Provision(context.Background(), trusts.ProvisionRequest{Code: code, Name: code})
		require.NoError(t, err)
	}

	got, err := svc.Get(context.Background(), "ALPHA")
	require.NoError(t, err)
	assert.Equal(t, "alpha", got.Code)

	list, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "alpha", list[0].Code)
	assert.Equal(t, "bravo", list[1].Code)
}
