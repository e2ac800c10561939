package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/storefront/core/config"
)

type serverConfig struct {
	Port    int           `env:"PORT" envDefault:"3000"`
	Timeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	Secret  string        `env:"JWT_SECRET,required"`
}

func TestParseWithEnv(t *testing.T) {
	t.Parallel()

	var cfg serverConfig
	require.NoError(t, config.ParseWithEnv(&cfg, map[string]string{"JWT_SECRET": "s", "PORT": "8080"}))
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.Timeout)

	err := config.ParseWithEnv(&cfg, map[string]string{})
	assert.ErrorIs(t, err, config.ErrParse)
}

type cachedConfig struct {
	Value string `env:"STOREFRONT_CONFIG_TEST_VALUE" envDefault:"first"`
}

func TestLoad_CachesPerType(t *testing.T) {
	var a cachedConfig
	require.NoError(t, config.Load(&a))
	assert.Equal(t, "first", a.Value)

	t.Setenv("STOREFRONT_CONFIG_TEST_VALUE", "second")
	var b cachedConfig
	require.NoError(t, config.Load(&b))
	assert.Equal(t, "first", b.Value)

	var m map[string]string
	assert.ErrorIs(t, config.Load(&m), config.ErrNotStruct)
	assert.ErrorIs(t, config.Load[cachedConfig](nil), config.ErrNilConfig)
}
