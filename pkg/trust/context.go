package trust

import (
	"context"
	"log/slog"
)

// contextKey is a private type to prevent collisions with other context keys.
type contextKey struct{}

// WithTrust attaches a trust to the context.
func WithTrust(ctx context.Context, t *Trust) context.Context {
	return context.WithValue(ctx, contextKey{}, t)
}

// FromContext retrieves the trust from the context.
// Returns nil, false if no trust is attached.
func FromContext(ctx context.Context) (*Trust, bool) {
	t, ok := ctx.Value(contextKey{}).(*Trust)
	return t, ok
}

// CodeFromContext retrieves just the trust code from the context.
// Returns empty string and false if no trust is attached.
func CodeFromContext(ctx context.Context) (string, bool) {
	t, ok := FromContext(ctx)
	if !ok || t == nil {
		return "", false
	}
	return t.Code, true
}

// MustFromContext retrieves the trust from the context and panics if none
// is attached. Use only in handlers behind RequireTrust.
func MustFromContext(ctx context.Context) *Trust {
	t, ok := FromContext(ctx)
	if !ok || t == nil {
		panic("trust: no trust in context")
	}
	return t
}

// LoggerExtractor returns a context extractor that exposes the trust code
// as a slog attribute, so every request log line carries the tenant.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if code, ok := CodeFromContext(ctx); ok {
			return slog.String("trust_code", code), true
		}
		return slog.Attr{}, false
	}
}
