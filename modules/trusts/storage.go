package trusts

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/schooltrust/platform/pkg/pg"
	"github.com/schooltrust/platform/pkg/trust"
)

// Storage is the persistence surface of the provisioning service.
type Storage interface {
	CreateTrust(ctx context.Context, t *trust.Trust) error
	CreateTrustAdmin(ctx context.Context, trustID int64, email, passwordHash string) error
	GetTrust(ctx context.Context, code string) (*trust.Trust, error)
	ListTrusts(ctx context.Context) ([]*trust.Trust, error)
	UpdateStatus(ctx context.Context, code string, status trust.Status) (*trust.Trust, error)
}

// DB is the slice of the system database handle the storage needs.
// *pgxpool.Pool satisfies it.
type DB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PGStorage persists trusts and their bootstrap admins in the system
// database.
type PGStorage struct {
	db DB
}

func NewPGStorage(db DB) *PGStorage {
	return &PGStorage{db: db}
}

func (s *PGStorage) CreateTrust(ctx context.Context, t *trust.Trust) error {
	err := s.db.QueryRow(ctx, `
		INSERT INTO trusts (code, name, database_name, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at`,
		t.Code, t.Name, t.DatabaseName, t.Status,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return fmt.Errorf("%w: %s", ErrCodeTaken, t.Code)
		}
		return fmt.Errorf("create trust %s: %w", t.Code, err)
	}
	return nil
}

func (s *PGStorage) CreateTrustAdmin(ctx context.Context, trustID int64, email, passwordHash string) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO trust_admins (trust_id, email, password_hash)
		VALUES ($1, $2, $3)`,
		trustID, email, passwordHash,
	)
	if err != nil {
		return fmt.Errorf("create trust admin for trust %d: %w", trustID, err)
	}
	return nil
}

func (s *PGStorage) GetTrust(ctx context.Context, code string) (*trust.Trust, error) {
	var t trust.Trust
	err := s.db.QueryRow(ctx, `
		SELECT id, code, name, database_name, status, created_at, updated_at
		FROM trusts WHERE code = $1`,
		code,
	).Scan(&t.ID, &t.Code, &t.Name, &t.DatabaseName, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: %s", trust.ErrTrustNotFound, code)
		}
		return nil, fmt.Errorf("get trust %s: %w", code, err)
	}
	return &t, nil
}

func (s *PGStorage) ListTrusts(ctx context.Context) ([]*trust.Trust, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, code, name, database_name, status, created_at, updated_at
		FROM trusts ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("list trusts: %w", err)
	}
	defer rows.Close()

	var out []*trust.Trust
	for rows.Next() {
		var t trust.Trust
		if err := rows.Scan(&t.ID, &t.Code, &t.Name, &t.DatabaseName, &t.Status, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan trust: %w", err)
		}
		out = append(out, &t)
	}
	return out, rows.Err()
}

func (s *PGStorage) UpdateStatus(ctx context.Context, code string, status trust.Status) (*trust.Trust, error) {
	var t trust.Trust
	err := s.db.QueryRow(ctx, `
		UPDATE trusts SET status = $2, updated_at = now()
		WHERE code = $1
		RETURNING id, code, name, database_name, status, created_at, updated_at`,
		code, status,
	).Scan(&t.ID, &t.Code, &t.Name, &t.DatabaseName, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, fmt.Errorf("%w: %s", trust.ErrTrustNotFound, code)
		}
		return nil, fmt.Errorf("update trust %s status: %w", code, err)
	}
	return &t, nil
}
