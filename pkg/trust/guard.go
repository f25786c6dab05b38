package trust

import (
	"fmt"
	"net/http"
	"strings"
)

// Scope classifies a request path by the database context it may run in.
type Scope int

const (
	// ScopeEither paths work with or without trust context.
	ScopeEither Scope = iota
	// ScopeSystemOnly paths must not carry trust context; they operate on
	// the shared system database (platform administration).
	ScopeSystemOnly
	// ScopeTrustRequired paths must carry a resolvable trust.
	ScopeTrustRequired
)

func (s Scope) String() string {
	switch s {
	case ScopeSystemOnly:
		return "system-only"
	case ScopeTrustRequired:
		return "trust-required"
	default:
		return "either"
	}
}

// Guard classifies request paths and enforces the classification against
// the presence or absence of a resolved trust. Classification happens
// before any registry or pool work so mismatched requests are rejected
// without touching a database.
type Guard struct {
	systemPrefixes []string
	trustPrefixes  []string
}

// NewGuard builds a guard from path prefix lists. System prefixes are
// checked first, so a prefix listed in both is treated as system-only.
func NewGuard(systemPrefixes, trustPrefixes []string) *Guard {
	return &Guard{
		systemPrefixes: normalizePrefixes(systemPrefixes),
		trustPrefixes:  normalizePrefixes(trustPrefixes),
	}
}

func normalizePrefixes(prefixes []string) []string {
	out := make([]string, 0, len(prefixes))
	for _, p := range prefixes {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if !strings.HasPrefix(p, "/") {
			p = "/" + p
		}
		out = append(out, p)
	}
	return out
}

// Classify returns the scope for a request path.
func (g *Guard) Classify(path string) Scope {
	for _, p := range g.systemPrefixes {
		if matchesPrefix(path, p) {
			return ScopeSystemOnly
		}
	}
	for _, p := range g.trustPrefixes {
		if matchesPrefix(path, p) {
			return ScopeTrustRequired
		}
	}
	return ScopeEither
}

// matchesPrefix matches whole path segments, so "/platform" matches
// "/platform/trusts" but not "/platformx".
func matchesPrefix(path, prefix string) bool {
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	if len(path) == len(prefix) {
		return true
	}
	return path[len(prefix)] == '/' || strings.HasSuffix(prefix, "/")
}

// Check enforces the scope of a path against trust presence. Returns nil
// when the combination is allowed, or an error wrapping ErrContextMismatch.
func (g *Guard) Check(path string, hasTrust bool) error {
	switch g.Classify(path) {
	case ScopeSystemOnly:
		if hasTrust {
			return fmt.Errorf("%w: %s is system-only but request carries a trust", ErrContextMismatch, path)
		}
	case ScopeTrustRequired:
		if !hasTrust {
			return fmt.Errorf("%w: %s requires a trust and none was resolved", ErrContextMismatch, path)
		}
	}
	return nil
}

// RequireTrust is standalone middleware that ensures a trust was attached
// to the request context, for protecting individual trust-scoped routes.
func RequireTrust(errorHandler func(w http.ResponseWriter, r *http.Request, err error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if t, ok := FromContext(r.Context()); !ok || t == nil {
				errorHandler(w, r, ErrNoTrustInContext)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireSystem is standalone middleware that rejects requests carrying
// trust context, for protecting platform administration routes.
func RequireSystem(errorHandler func(w http.ResponseWriter, r *http.Request, err error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := FromContext(r.Context()); ok {
				errorHandler(w, r, fmt.Errorf("%w: system route called with trust context", ErrContextMismatch))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
