package trust

import (
	"context"
	"time"
)

// Status is the lifecycle state of a trust. Only active trusts may be
// served; the router treats the other two states identically to a missing
// trust except for the error it reports.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusArchived  Status = "archived"
)

// Trust represents one organizational customer of the platform. Each trust
// owns a dedicated database whose name is derived from the code at creation
// time and never changes afterwards.
type Trust struct {
	ID           int64     `json:"id"`
	Code         string    `json:"code"`
	Name         string    `json:"name"`
	DatabaseName string    `json:"database_name"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Active reports whether the trust may currently be served.
func (t *Trust) Active() bool {
	return t.Status == StatusActive
}

// Registry resolves trust codes against the system database.
// Implementations must distinguish "no such trust" (ErrTrustNotFound) from
// "exists but not active" (ErrTrustInactive wrapped by callers that care),
// and must never derive the database name from request input.
type Registry interface {
	// Resolve returns the trust for a normalized code.
	// Returns ErrTrustNotFound if no trust matches. The returned trust may
	// be in any status; callers decide whether non-active is acceptable.
	Resolve(ctx context.Context, code string) (*Trust, error)
}

// DatabaseName derives the canonical database name for a trust code.
// The mapping is deterministic and immutable: prefix plus the normalized
// code, matching the naming used by the provisioning tooling.
func DatabaseName(prefix, code string) string {
	return prefix + NormalizeCode(code)
}
