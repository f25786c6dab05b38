package trusts

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/schooltrust/platform/pkg/logger"
	"github.com/schooltrust/platform/pkg/trust"
)

// bcryptCost matches the cost the platform's seeding tooling has always
// used for administrator credentials.
const bcryptCost = 12

// PoolEvictor removes a trust's cached connection pool. Satisfied by
// *trustdb.Manager. Status transitions must evict so a suspended trust
// stops being served without waiting for the recheck window.
type PoolEvictor interface {
	Evict(code string)
}

// CacheInvalidator drops a trust's cached registry row. Satisfied by
// *trust.CachedRegistry.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, code string)
}

// Service provisions trusts and manages their lifecycle status. All
// operations are system-scoped: they run against the system database and
// must never be reachable with trust context.
type Service struct {
	storage     Storage
	dbPrefix    string
	evictor     PoolEvictor
	invalidator CacheInvalidator
	log         *slog.Logger
}

// ServiceOption configures the service.
type ServiceOption func(*Service)

// WithPoolEvictor wires the pool cache so status transitions evict.
func WithPoolEvictor(e PoolEvictor) ServiceOption {
	return func(s *Service) { s.evictor = e }
}

// WithCacheInvalidator wires the registry cache so status transitions are
// visible before the TTL expires.
func WithCacheInvalidator(i CacheInvalidator) ServiceOption {
	return func(s *Service) { s.invalidator = i }
}

// WithServiceLogger sets the provisioning logger.
func WithServiceLogger(log *slog.Logger) ServiceOption {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

func NewService(storage Storage, dbPrefix string, opts ...ServiceOption) *Service {
	s := &Service{
		storage:  storage,
		dbPrefix: dbPrefix,
		log:      slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProvisionRequest carries the inputs for creating a trust.
type ProvisionRequest struct {
	Code          string `json:"code"`
	Name          string `json:"name"`
	AdminEmail    string `json:"admin_email"`
	AdminPassword string `json:"admin_password"`
}

// Provision creates a trust registry row and its bootstrap administrator.
// The database name is derived from the validated code, never from the
// raw request. New trusts start active.
func (s *Service) Provision(ctx context.Context, req ProvisionRequest) (*trust.Trust, error) {
	code, err := trust.ValidateCode(req.Code)
	if err != nil {
		return nil, err
	}
	if req.Name == "" {
		return nil, fmt.Errorf("%w: trust name is required", trust.ErrInvalidCode)
	}

	opID := uuid.New()
	s.log.InfoContext(ctx, "provisioning trust", "op_id", opID, logger.TrustCode(code))

	t := &trust.Trust{
		Code:         code,
		Name:         req.Name,
		DatabaseName: trust.DatabaseName(s.dbPrefix, code),
		Status:       trust.StatusActive,
	}
	if err := s.storage.CreateTrust(ctx, t); err != nil {
		return nil, err
	}

	if req.AdminEmail != "" && req.AdminPassword != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.AdminPassword), bcryptCost)
		if err != nil {
			return nil, fmt.Errorf("hash admin password: %w", err)
		}
		if err := s.storage.CreateTrustAdmin(ctx, t.ID, req.AdminEmail, string(hash)); err != nil {
			return nil, err
		}
	}

	s.log.InfoContext(ctx, "trust provisioned", "op_id", opID, logger.TrustCode(code), logger.Database(t.DatabaseName))
	return t, nil
}

// Get returns one trust by code.
func (s *Service) Get(ctx context.Context, code string) (*trust.Trust, error) {
	code = trust.NormalizeCode(code)
	return s.storage.GetTrust(ctx, code)
}

// List returns all trusts ordered by code.
func (s *Service) List(ctx context.Context) ([]*trust.Trust, error) {
	return s.storage.ListTrusts(ctx)
}

// ChangeStatus transitions a trust between lifecycle states. Archived is
// terminal. Any transition away from active immediately evicts the
// trust's pool and registry cache entry, so in-flight sessions are cut
// rather than allowed to drain through the recheck window.
func (s *Service) ChangeStatus(ctx context.Context, code string, status trust.Status) (*trust.Trust, error) {
	code = trust.NormalizeCode(code)

	switch status {
	case trust.StatusActive, trust.StatusSuspended, trust.StatusArchived:
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}

	current, err := s.storage.GetTrust(ctx, code)
	if err != nil {
		return nil, err
	}
	if current.Status == trust.StatusArchived {
		return nil, fmt.Errorf("%w: %s", ErrArchived, code)
	}
	if current.Status == status {
		return current, nil
	}

	updated, err := s.storage.UpdateStatus(ctx, code, status)
	if err != nil {
		return nil, err
	}

	if s.invalidator != nil {
		s.invalidator.Invalidate(ctx, code)
	}
	if status != trust.StatusActive && s.evictor != nil {
		s.evictor.Evict(code)
	}

	s.log.InfoContext(ctx, "trust status changed", logger.TrustCode(code), "from", current.Status, "to", status)
	return updated, nil
}
