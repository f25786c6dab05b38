package trust

import "time"

type Config struct {
	SubdomainSuffix string `env:"TRUST_SUBDOMAIN_SUFFIX"`                       // SubdomainSuffix is stripped from the host before subdomain extraction, e.g. ".schooltrust.io".
	HeaderName      string `env:"TRUST_HEADER_NAME" envDefault:"X-Trust-Code"`  // HeaderName carries the trust code when no subdomain is available.
	CookieName      string `env:"TRUST_COOKIE_NAME" envDefault:"trust_code"`    // CookieName is the lowest-precedence code source.
	PathPosition    int    `env:"TRUST_PATH_POSITION" envDefault:"2"`           // PathPosition is the 1-based path segment holding the code, e.g. 2 for /trusts/{code}/....
	DatabasePrefix  string `env:"TRUST_DB_PREFIX" envDefault:"school_erp_trust_"` // DatabasePrefix prefixes the normalized code to form the trust database name.

	SystemPathPrefixes []string `env:"TRUST_SYSTEM_PATHS" envSeparator:"," envDefault:"/platform"` // SystemPathPrefixes are routes that must not carry trust context.
	TrustPathPrefixes  []string `env:"TRUST_REQUIRED_PATHS" envSeparator:","`                      // TrustPathPrefixes are routes that must carry trust context; unlisted paths accept either.

	CacheBackend string        `env:"TRUST_CACHE_BACKEND" envDefault:"memory"` // CacheBackend selects the registry cache: "memory", "redis", or "none".
	CacheTTL     time.Duration `env:"TRUST_CACHE_TTL" envDefault:"30s"`        // CacheTTL bounds how long a registry row may be served from cache; keep at or below the pool status-recheck interval.
}
