package trust

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Resolver extracts a candidate trust code from an HTTP request.
// Returns empty string if the request carries no code for this strategy,
// or an error if a code was present but failed validation. A successfully
// resolved code is normalized and syntactically valid, but not yet proven
// to exist in the registry.
type Resolver func(r *http.Request) (string, error)

// NewSubdomainResolver extracts the trust code from the request host,
// optionally stripping a configured suffix (e.g. ".schooltrust.io").
// Returns empty string for the base domain and for single-label hosts.
func NewSubdomainResolver(suffix string) Resolver {
	return func(req *http.Request) (string, error) {
		host := req.Host

		// Remove port if present
		if idx := strings.LastIndex(host, ":"); idx != -1 {
			host = host[:idx]
		}

		originalParts := strings.Split(host, ".")

		if suffix != "" && strings.HasSuffix(host, suffix) && len(host) > len(suffix) {
			host = host[:len(host)-len(suffix)]
		}

		parts := strings.Split(host, ".")
		if len(parts) == 0 || parts[0] == "" {
			return "", nil
		}

		subdomain := parts[0]
		// Skip www prefix, use next label if available
		if subdomain == "www" {
			if len(parts) > 1 {
				subdomain = parts[1]
			} else {
				return "", nil
			}
		}

		// Require at least subdomain.domain.tld before treating the first
		// label as a trust code, so bare domains never resolve.
		if len(originalParts) < 3 {
			return "", nil
		}
		if subdomain == "" {
			return "", nil
		}

		code, err := ValidateCode(subdomain)
		if err != nil {
			return "", fmt.Errorf("subdomain %q: %w", subdomain, err)
		}
		return code, nil
	}
}

// NewHeaderResolver extracts the trust code from an HTTP header.
// Defaults to "X-Trust-Code" if headerName is empty.
func NewHeaderResolver(headerName string) Resolver {
	if headerName == "" {
		headerName = "X-Trust-Code"
	}

	return func(req *http.Request) (string, error) {
		value := req.Header.Get(headerName)
		if value == "" {
			return "", nil
		}

		code, err := ValidateCode(value)
		if err != nil {
			return "", fmt.Errorf("header %s: %w", headerName, err)
		}
		return code, nil
	}
}

// NewPathResolver extracts the trust code from a URL path segment at a
// 1-based position. Position 2 extracts from /trusts/{code}/students.
func NewPathResolver(position int) Resolver {
	return func(req *http.Request) (string, error) {
		if position < 1 {
			return "", fmt.Errorf("invalid path position: %d", position)
		}

		path := strings.TrimPrefix(req.URL.Path, "/")
		path = strings.TrimSuffix(path, "/")
		if path == "" {
			return "", nil
		}

		parts := strings.Split(path, "/")
		if position > len(parts) {
			return "", nil
		}

		value := parts[position-1]
		if value == "" {
			return "", nil
		}

		code, err := ValidateCode(value)
		if err != nil {
			return "", fmt.Errorf("path segment %d: %w", position, err)
		}
		return code, nil
	}
}

// NewCookieResolver extracts the trust code from a cookie. Useful for
// staff accounts that can move between trusts within one browser session.
// Defaults to "trust_code" if cookieName is empty.
func NewCookieResolver(cookieName string) Resolver {
	if cookieName == "" {
		cookieName = "trust_code"
	}

	return func(req *http.Request) (string, error) {
		cookie, err := req.Cookie(cookieName)
		if err != nil {
			if errors.Is(err, http.ErrNoCookie) {
				return "", nil
			}
			return "", fmt.Errorf("cookie %s: %w", cookieName, err)
		}
		if cookie.Value == "" {
			return "", nil
		}

		code, err := ValidateCode(cookie.Value)
		if err != nil {
			return "", fmt.Errorf("cookie %s: %w", cookieName, err)
		}
		return code, nil
	}
}

// NewChainResolver tries resolvers in the given order and stops at the
// first that produces a code or an error. An invalid code from an earlier
// strategy is a hard failure, never a fall-through: a request whose
// subdomain is malformed must not be silently re-routed by its header.
func NewChainResolver(resolvers ...Resolver) Resolver {
	return func(r *http.Request) (string, error) {
		for _, resolve := range resolvers {
			code, err := resolve(r)
			if err != nil {
				return "", err
			}
			if code != "" {
				return code, nil
			}
		}
		return "", nil
	}
}

// NewDefaultResolver builds the platform's standard precedence chain:
// subdomain, then header, then path segment, then cookie. Subdomain wins
// because it is the hardest signal to spoof casually.
func NewDefaultResolver(cfg Config) Resolver {
	return NewChainResolver(
		NewSubdomainResolver(cfg.SubdomainSuffix),
		NewHeaderResolver(cfg.HeaderName),
		NewPathResolver(cfg.PathPosition),
		NewCookieResolver(cfg.CookieName),
	)
}
