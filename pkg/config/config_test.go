package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roli854/travelclick-htng-gateway/pkg/config"
	"github.com/roli854/travelclick-htng-gateway/pkg/domain"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("CRS_ENDPOINT_PRODUCTION", "")
	t.Setenv("TRANSPORT_CONNECT_TIMEOUT_SECONDS", "")

	cfg := config.Load()

	assert.Equal(t, "INFO", cfg.LogLevel)
	assert.Contains(t, cfg.DatabaseURL, "postgres://")
	assert.Equal(t, 30, cfg.DefaultTimeouts.ConnectSeconds)
	assert.Equal(t, "exponential", cfg.DefaultRetryPolicy.BackoffStrategy)
	assert.True(t, cfg.DefaultEnabledTypes[domain.MessageTypeInventory])
	assert.False(t, cfg.DefaultEnabledTypes[domain.MessageTypeGroupBlock])
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("TRANSPORT_CONNECT_TIMEOUT_SECONDS", "15")
	t.Setenv("RETRY_MAX_ATTEMPTS", "3")

	cfg := config.Load()

	assert.Equal(t, "DEBUG", cfg.LogLevel)
	assert.Equal(t, 15, cfg.DefaultTimeouts.ConnectSeconds)
	assert.Equal(t, 3, cfg.DefaultRetryPolicy.MaxAttempts)
}

func TestGlobalConfig_RequestTimeout_WidensReservationWindow(t *testing.T) {
	cfg := config.Load()
	cfg.DefaultTimeouts.RequestSeconds = 60

	assert.Equal(t, 60, int(cfg.RequestTimeout(domain.MessageTypeInventory).Seconds()))
	assert.Equal(t, 90, int(cfg.RequestTimeout(domain.MessageTypeReservation).Seconds()))
}
