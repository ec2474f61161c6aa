package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Port    int      `env:"TEST_CFG_PORT" envDefault:"8080"`
	Backend string   `env:"TEST_CFG_BACKEND" envDefault:"memory"`
	Brokers []string `env:"TEST_CFG_BROKERS" envDefault:"localhost:9092" envSeparator:","`
}

type requiredConfig struct {
	APIKey string `env:"TEST_CFG_API_KEY,required"`
}

func TestLoad_Defaults(t *testing.T) {
	var cfg testConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "memory", cfg.Backend)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Brokers)
}

func TestLoad_FromEnvVars(t *testing.T) {
	t.Setenv("TEST_CFG_PORT", "9090")
	t.Setenv("TEST_CFG_BROKERS", "a:9092,b:9092")

	var cfg testConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Brokers)
}

func TestLoad_RequiredFieldMissing(t *testing.T) {
	var cfg requiredConfig
	err := Load(&cfg)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoadFrom_UsesGivenEnvironment(t *testing.T) {
	var cfg testConfig
	require.NoError(t, LoadFrom(&cfg, map[string]string{"TEST_CFG_BACKEND": "postgres"}))

	assert.Equal(t, "postgres", cfg.Backend)
	assert.Equal(t, 8080, cfg.Port)
}

func TestLoadFrom_InvalidType(t *testing.T) {
	var cfg testConfig
	err := LoadFrom(&cfg, map[string]string{"TEST_CFG_PORT": "not-a-number"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}
