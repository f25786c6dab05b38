// Package trust provides tenant identification for the school platform:
// resolving which trust an HTTP request belongs to, validating trust codes,
// looking codes up in the system database, and enforcing path scoping.
//
// The package is built around four pieces:
//
//  1. Resolvers - extract a candidate trust code from a request
//     (subdomain, header, path segment, cookie) in a fixed precedence order
//  2. Registry - confirms the code names an existing trust and returns its
//     canonical database name and status
//  3. Guard - classifies paths as system-only, trust-required or either,
//     and rejects mismatched requests before any database work
//  4. Context helpers - propagate the resolved trust through the request
//
// # Resolution
//
// Build the standard precedence chain from configuration:
//
//	var cfg trust.Config
//	config.MustLoad(&cfg)
//	resolver := trust.NewDefaultResolver(cfg)
//
// Subdomain wins over header, header over path, path over cookie. A code
// that is present but malformed or reserved fails resolution with
// ErrInvalidCode; it never falls through to a weaker strategy.
//
// # Registry
//
// The pgx-backed registry reads the trusts table through the system
// database handle. Concurrent lookups for one code collapse into a single
// query via singleflight. Wrap it with NewCachedRegistry for a short-TTL
// cache (in-memory or Redis); the TTL must stay within the pool cache's
// status-recheck window, since the pool cache is the only long-lived cache
// in the router.
//
// # Errors
//
//   - ErrInvalidCode: malformed or reserved candidate code
//   - ErrTrustNotFound: well-formed code with no registry row
//   - ErrTrustInactive: trust exists but is suspended or archived
//   - ErrContextMismatch: path scope and trust presence disagree
//   - ErrNoTrustInContext: handler requires a trust and none is attached
//
// Database names are always derived as prefix + normalized code and never
// taken from request input, so a spoofed header can at worst name a trust
// that exists and is active.
package trust
