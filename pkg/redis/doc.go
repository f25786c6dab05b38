// Package redis connects the platform to a Redis server, used as the
// shared backend for the short-TTL trust registry cache so that a trust
// status change observed by one instance expires everywhere at once.
//
// Connect retries per Config and verifies the server with a ping.
// Healthcheck integrates with readiness probes. Multi-instance deployments
// wire the client into trust.NewRedisCache; single-instance deployments
// can skip Redis entirely and use the in-process cache.
package redis
