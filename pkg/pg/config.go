package pg

import "time"

type Config struct {
	ConnectionString  string        `env:"SYSTEM_DB_URL,required"`                        // ConnectionString points at the shared system database (trust registry, system admins, audit log).
	MaxOpenConns      int32         `env:"SYSTEM_DB_MAX_OPEN_CONNS" envDefault:"10"`      // MaxOpenConns is the maximum number of open connections.
	MaxIdleConns      int32         `env:"SYSTEM_DB_MAX_IDLE_CONNS" envDefault:"5"`       // MaxIdleConns is the minimum number of idle connections kept ready.
	HealthCheckPeriod time.Duration `env:"SYSTEM_DB_HEALTHCHECK_PERIOD" envDefault:"1m"`  // HealthCheckPeriod is the period between background health checks.
	MaxConnIdleTime   time.Duration `env:"SYSTEM_DB_MAX_CONN_IDLE_TIME" envDefault:"10m"` // MaxConnIdleTime is the maximum time a connection may sit idle.
	MaxConnLifetime   time.Duration `env:"SYSTEM_DB_MAX_CONN_LIFETIME" envDefault:"30m"`  // MaxConnLifetime is the maximum time a connection may be reused.

	RetryAttempts int           `env:"SYSTEM_DB_RETRY_ATTEMPTS" envDefault:"3"`  // RetryAttempts is the number of startup connection attempts.
	RetryInterval time.Duration `env:"SYSTEM_DB_RETRY_INTERVAL" envDefault:"5s"` // RetryInterval is the base delay between attempts.

	MigrationsPath  string `env:"SYSTEM_DB_MIGRATIONS_PATH" envDefault:"migrations/system"`  // MigrationsPath is the directory holding system-schema migrations.
	MigrationsTable string `env:"SYSTEM_DB_MIGRATIONS_TABLE" envDefault:"schema_migrations"` // MigrationsTable stores the applied migration versions.
}
