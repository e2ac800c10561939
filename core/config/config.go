package config

import (
	"fmt"
	"reflect"
	"sync"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

var (
	loadEnvOnce sync.Once
	cache       sync.Map // reflect.Type -> any (a struct value)
)

// Load parses environment variables into cfg, which must be a pointer to a
// struct. The first successful result per type is cached; later calls copy it.
func Load[T any](cfg *T) error {
	if cfg == nil {
		return ErrNilConfig
	}
	typ := reflect.TypeFor[T]()
	if typ.Kind() != reflect.Struct {
		return fmt.Errorf("%w: %s", ErrNotStruct, typ)
	}

	loadEnvOnce.Do(func() {
		// Missing .env is the normal case outside development.
		_ = godotenv.Load()
	})

	if v, ok := cache.Load(typ); ok {
		*cfg = v.(T)
		return nil
	}

	var fresh T
	if err := env.Parse(&fresh); err != nil {
		return fmt.Errorf("%w: %w", ErrParse, err)
	}
	actual, _ := cache.LoadOrStore(typ, fresh)
	*cfg = actual.(T)
	return nil
}

// MustLoad is Load that panics on error.
func MustLoad[T any](cfg *T) {
	if err := Load(cfg); err != nil {
		panic(err)
	}
}

// Parse parses the environment into cfg without touching the cache or .env.
func Parse[T any](cfg *T) error {
	if cfg == nil {
		return ErrNilConfig
	}
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("%w: %w", ErrParse, err)
	}
	return nil
}

// ParseWithEnv parses cfg from vars instead of the process environment.
func ParseWithEnv[T any](cfg *T, vars map[string]string) error {
	if cfg == nil {
		return ErrNilConfig
	}
	if err := env.ParseWithOptions(cfg, env.Options{Environment: vars}); err != nil {
		return fmt.Errorf("%w: %w", ErrParse, err)
	}
	return nil
}
