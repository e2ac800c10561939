package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrymomot/storefront/core/cookie"
	"github.com/dmitrymomot/storefront/core/server"
	"github.com/dmitrymomot/storefront/integration/database/pg"
	"github.com/dmitrymomot/storefront/integration/database/redis"
	"github.com/dmitrymomot/storefront/integration/email/postmark"
	"github.com/dmitrymomot/storefront/integration/email/smtp"
	"github.com/dmitrymomot/storefront/integration/storage/s3"
)

// Environments.
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Token store backends.
const (
	TokenStoreMemory = "memory"
	TokenStoreRedis  = "redis"
)

var ErrInvalidConfig = errors.New("invalid configuration")

// Config is the whole process configuration, read from the environment.
type Config struct {
	DB        pg.Config
	Redis     redis.Config
	Cookie    cookie.Config
	Server    server.Config
	Postmark  postmark.Config
	SMTP      smtp.Config
	S3        s3.Config
	RateLimit RateLimitConfig

	AppName string `env:"APP_NAME" envDefault:"storefront"`
	// Env falls back to NODE_ENV for deployments that already set it.
	Env     string `env:"APP_ENV"`
	NodeEnv string `env:"NODE_ENV"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT"` // json or text, by environment when empty

	JWTSecret   string   `env:"JWT_SECRET"`
	FrontendURL []string `env:"FRONTEND_URL" envSeparator:","`

	AdminUsername string `env:"DEFAULT_ADMIN_USERNAME"`
	AdminPassword string `env:"DEFAULT_ADMIN_PASSWORD"`

	TokenStore string `env:"TOKEN_STORE" envDefault:"memory"`

	NotifyEmail string `env:"NOTIFY_EMAIL"`
	EmailDir    string `env:"EMAIL_DEV_DIR" envDefault:"tmp/emails"`

	RequestTimeout    time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	IdempotencyTTL    time.Duration `env:"IDEMPOTENCY_TTL" envDefault:"24h"`
	CSRFSweepInterval time.Duration `env:"CSRF_SWEEP_INTERVAL" envDefault:"5m"`
	IdempotencySweep  time.Duration `env:"IDEMPOTENCY_SWEEP_INTERVAL" envDefault:"1h"`
}

// RateLimitConfig holds the per-class windows.
type RateLimitConfig struct {
	APIMax       int           `env:"RATE_LIMIT_API_MAX" envDefault:"100"`
	APIWindow    time.Duration `env:"RATE_LIMIT_API_WINDOW" envDefault:"60s"`
	AuthMax      int           `env:"RATE_LIMIT_AUTH_MAX" envDefault:"5"`
	AuthWindow   time.Duration `env:"RATE_LIMIT_AUTH_WINDOW" envDefault:"60s"`
	SubmitMax    int           `env:"RATE_LIMIT_SUBMIT_MAX" envDefault:"10"`
	SubmitWindow time.Duration `env:"RATE_LIMIT_SUBMIT_WINDOW" envDefault:"60s"`
	// FailOpen lets requests through while the token store is unreachable.
	FailOpen bool `env:"RATE_LIMIT_FAIL_OPEN" envDefault:"false"`
}

// Environment returns APP_ENV, then NODE_ENV, then development.
func (c Config) Environment() string {
	for _, v := range []string{c.Env, c.NodeEnv} {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			return v
		}
	}
	return EnvDevelopment
}

func (c Config) Production() bool { return c.Environment() == EnvProduction }

// JSONLogs reports whether logs are written as JSON.
func (c Config) JSONLogs() bool {
	switch strings.ToLower(c.LogFormat) {
	case "json":
		return true
	case "text":
		return false
	}
	return c.Environment() != EnvDevelopment
}

// Validate checks what the struct tags cannot express. The JWT secret is
// checked when the session service is built.
func (c Config) Validate() error {
	var errs []error
	switch c.Environment() {
	case EnvDevelopment, EnvStaging, EnvProduction:
	default:
		errs = append(errs, fmt.Errorf("APP_ENV must be development, staging or production, got %q", c.Environment()))
	}
	if c.Production() && len(c.FrontendURL) == 0 {
		errs = append(errs, errors.New("FRONTEND_URL is required in production"))
	}
	switch c.TokenStore {
	case TokenStoreMemory, TokenStoreRedis:
	default:
		errs = append(errs, fmt.Errorf("TOKEN_STORE must be memory or redis, got %q", c.TokenStore))
	}
	rl := c.RateLimit
	limits := []struct {
		name   string
		max    int
		window time.Duration
	}{
		{"API", rl.APIMax, rl.APIWindow},
		{"AUTH", rl.AuthMax, rl.AuthWindow},
		{"SUBMIT", rl.SubmitMax, rl.SubmitWindow},
	}
	for _, l := range limits {
		if l.max <= 0 {
			errs = append(errs, fmt.Errorf("RATE_LIMIT_%s_MAX must be positive", l.name))
		}
		if l.window <= 0 {
			errs = append(errs, fmt.Errorf("RATE_LIMIT_%s_WINDOW must be positive", l.name))
		}
	}
	if (c.AdminUsername == "") != (c.AdminPassword == "") {
		errs = append(errs, errors.New("DEFAULT_ADMIN_USERNAME and DEFAULT_ADMIN_PASSWORD must be set together"))
	}
	if c.RequestTimeout <= 0 {
		errs = append(errs, errors.New("REQUEST_TIMEOUT must be positive"))
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{ErrInvalidConfig}, errs...)...)
	}
	return nil
}
