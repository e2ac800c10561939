package pg

import "time"

// Config is loaded from the environment.
type Config struct {
	URL             string        `env:"DATABASE_URL,required"`
	MaxConns        int32         `env:"DATABASE_MAX_CONNS" envDefault:"20"`
	MinConns        int32         `env:"DATABASE_MIN_CONNS" envDefault:"2"`
	MaxConnIdleTime time.Duration `env:"DATABASE_MAX_CONN_IDLE_TIME" envDefault:"30s"`
	ConnectTimeout  time.Duration `env:"DATABASE_CONNECT_TIMEOUT" envDefault:"2s"`

	RetryAttempts     int           `env:"DATABASE_RETRY_ATTEMPTS" envDefault:"5"`
	RetryInitialDelay time.Duration `env:"DATABASE_RETRY_INITIAL_DELAY" envDefault:"1s"`
	RetryMaxDelay     time.Duration `env:"DATABASE_RETRY_MAX_DELAY" envDefault:"30s"`
	ProbeAttempts     int           `env:"DATABASE_PROBE_ATTEMPTS" envDefault:"3"`

	// InsecureTLS enables TLS without certificate verification for non-local
	// hosts. It protects against passive sniffing only.
	InsecureTLS bool `env:"DATABASE_INSECURE_TLS" envDefault:"false"`

	MigrationsTable string `env:"DATABASE_MIGRATIONS_TABLE" envDefault:"schema_migrations"`
}

// DefaultConfig returns the pool defaults for url.
func DefaultConfig(url string) Config {
	return Config{
		URL:               url,
		MaxConns:          20,
		MinConns:          2,
		MaxConnIdleTime:   30 * time.Second,
		ConnectTimeout:    2 * time.Second,
		RetryAttempts:     5,
		RetryInitialDelay: time.Second,
		RetryMaxDelay:     30 * time.Second,
		ProbeAttempts:     3,
		MigrationsTable:   "schema_migrations",
	}
}
