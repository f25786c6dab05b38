package trust

import "errors"

var (
	// ErrInvalidCode is returned when a candidate trust code is malformed
	// or reserved. User-correctable; maps to a 400-style response.
	ErrInvalidCode = errors.New("invalid trust code")

	// ErrTrustNotFound is returned when no trust matches a well-formed code.
	ErrTrustNotFound = errors.New("trust not found")

	// ErrTrustInactive is returned when a trust exists but its status is
	// not active. Callers should render this as forbidden, not as missing.
	ErrTrustInactive = errors.New("trust is not active")

	// ErrNoTrustInContext is returned when a handler requires trust context
	// and none was attached to the request.
	ErrNoTrustInContext = errors.New("no trust in context")

	// ErrContextMismatch is returned by the scope guard when a request's
	// trust presence does not match its path classification.
	ErrContextMismatch = errors.New("request context does not match path scope")
)
