package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("X_STR", "value")
	assert.Equal(t, "value", GetEnv("X_STR", "def"))
	assert.Equal(t, "def", GetEnv("X_STR_UNSET", "def"))
}

func TestGetEnvInt(t *testing.T) {
	t.Setenv("X_INT", "42")
	t.Setenv("X_INT_BAD", "forty-two")
	assert.Equal(t, 42, GetEnvInt("X_INT", 7))
	assert.Equal(t, 7, GetEnvInt("X_INT_BAD", 7))
	assert.Equal(t, 7, GetEnvInt("X_INT_UNSET", 7))
}

func TestGetEnvFloat(t *testing.T) {
	t.Setenv("X_FLOAT", "84.5")
	assert.Equal(t, 84.5, GetEnvFloat("X_FLOAT", 1.0))
	assert.Equal(t, 84.0, GetEnvFloat("X_FLOAT_UNSET", 84.0))
}

func TestGetEnvDuration(t *testing.T) {
	t.Setenv("X_DUR", "30s")
	t.Setenv("X_DUR_BAD", "soon")
	assert.Equal(t, 30*time.Second, GetEnvDuration("X_DUR", time.Minute))
	assert.Equal(t, time.Minute, GetEnvDuration("X_DUR_BAD", time.Minute))
}

func TestLoad_Defaults(t *testing.T) {
	cfg := Load()

	assert.Equal(t, "usd", cfg.VsCurrency)
	assert.Equal(t, "market_cap_desc", cfg.MarketOrder)
	assert.Equal(t, 10, cfg.PerPage)
	assert.Equal(t, 1, cfg.Page)
	assert.Equal(t, 84.0, cfg.USDINRRate)
	assert.Equal(t, 10*time.Second, cfg.HTTPTimeout)
}
