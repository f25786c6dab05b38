// Package config loads typed configuration structs from environment
// variables, with struct tags from github.com/caarlos0/env and optional
// .env bootstrap via godotenv.
//
// Every tunable of the platform — resolver header names, pool limits,
// eviction intervals, database URLs — lives in an env-tagged struct owned
// by the package that consumes it, never in ambient globals. Tests inject
// small literal Config values instead of going through Load, which keeps
// boundary behavior (tiny pool limits, short recheck windows)
// deterministic.
//
// Load caches each config type after its first successful parse, so the
// same type loaded from two places always agrees.
package config
