package config_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github/chapool/waves-ledger/internal/config"
)

func TestPrintServiceEnv(t *testing.T) {
	config := config.DefaultServiceConfigFromEnv()
	_, err := json.MarshalIndent(config, "", "  ")

	if err != nil {
		t.Fatal(err)
	}
}

func TestDefaultServiceConfigDefaults(t *testing.T) {
	cfg := config.DefaultServiceConfigFromEnv()

	assert.Equal(t, 76, cfg.Ledger.NetworkCode)
	assert.Equal(t, 3*time.Second, cfg.Ledger.OpenTimeout)
	assert.Equal(t, 30*time.Second, cfg.Ledger.ListenTimeout)
	assert.Equal(t, time.Minute, cfg.Ledger.ExchangeTimeout)
	assert.Equal(t, config.TransportHID, cfg.Transport.Kind)
	assert.Equal(t, ":8080", cfg.Echo.ListenAddress)
}

func TestServiceConfigFromEnvOverrides(t *testing.T) {
	t.Setenv("LEDGER_NETWORK_CODE", "84")
	t.Setenv("LEDGER_DEBUG", "true")
	t.Setenv("LEDGER_EXCHANGE_TIMEOUT_MS", "1500")
	t.Setenv("LEDGER_TRANSPORT", "SPECULOS")
	t.Setenv("LEDGER_SPECULOS_ADDRESS", "speculos:40000")
	t.Setenv("LOGGER_LEVEL", "trace")
	t.Setenv("LOGGER_PRETTY_PRINT_CONSOLE", "false")

	cfg := config.DefaultServiceConfigFromEnv()

	require.Equal(t, 84, cfg.Ledger.NetworkCode)
	assert.True(t, cfg.Ledger.Debug)
	assert.Equal(t, 1500*time.Millisecond, cfg.Ledger.ExchangeTimeout)
	assert.Equal(t, config.TransportSpeculos, cfg.Transport.Kind)
	assert.Equal(t, "speculos:40000", cfg.Transport.SpeculosAddress)
	assert.Equal(t, zerolog.TraceLevel, cfg.Logger.Level)
	assert.False(t, cfg.Logger.PrettyPrintConsole)
}

func TestServiceConfigInvalidLevelFallsBack(t *testing.T) {
	t.Setenv("LOGGER_LEVEL", "chatty")

	cfg := config.DefaultServiceConfigFromEnv()
	assert.Equal(t, zerolog.InfoLevel, cfg.Logger.Level)
}

func TestFormattedBuildArgs(t *testing.T) {
	assert.Contains(t, config.GetFormattedBuildArgs(), config.ModuleName)
}
