package cookie

// Config is loaded from the environment. Secure is normally forced on in
// production by the caller.
type Config struct {
	Domain string `env:"COOKIE_DOMAIN" envDefault:""`
	Secure bool   `env:"COOKIE_SECURE" envDefault:"false"`
}

// NewFromConfig builds a Manager from cfg; opts win over config values.
func NewFromConfig(cfg Config, opts ...Option) *Manager {
	base := []Option{WithDomain(cfg.Domain), WithSecure(cfg.Secure)}
	return New(append(base, opts...)...)
}
