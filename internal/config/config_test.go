package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	// Save original env vars
	originalVars := map[string]string{
		"RPC_ENDPOINTS":         os.Getenv("RPC_ENDPOINTS"),
		"WALLET_KEYPAIR":        os.Getenv("WALLET_KEYPAIR"),
		"TREASURY_ADDRESS":      os.Getenv("TREASURY_ADDRESS"),
		"CONFIRM_TIMEOUT":       os.Getenv("CONFIRM_TIMEOUT"),
		"CONFIRM_POLL_INTERVAL": os.Getenv("CONFIRM_POLL_INTERVAL"),
		"RECONCILE_INTERVAL":    os.Getenv("RECONCILE_INTERVAL"),
		"LOG_LEVEL":             os.Getenv("LOG_LEVEL"),
		"METRICS_PORT":          os.Getenv("METRICS_PORT"),
	}

	// Restore env vars after test
	defer func() {
		for key, value := range originalVars {
			if value == "" {
				os.Unsetenv(key)
			} else {
				os.Setenv(key, value)
			}
		}
	}()

	clearEnv := func() {
		for key := range originalVars {
			os.Unsetenv(key)
		}
	}

	t.Run("successful load with all vars", func(t *testing.T) {
		clearEnv()
		os.Setenv("RPC_ENDPOINTS", "https://api.mainnet-beta.solana.com, https://rpc.ankr.com/solana")
		os.Setenv("WALLET_KEYPAIR", "/etc/crowdmint/id.json")
		os.Setenv("TREASURY_ADDRESS", "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM")
		os.Setenv("CONFIRM_TIMEOUT", "45s")
		os.Setenv("CONFIRM_POLL_INTERVAL", "500ms")
		os.Setenv("RECONCILE_INTERVAL", "1m")
		os.Setenv("LOG_LEVEL", "debug")
		os.Setenv("METRICS_PORT", "9090")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, []string{"https://api.mainnet-beta.solana.com", "https://rpc.ankr.com/solana"}, cfg.RPCEndpoints)
		assert.Equal(t, "/etc/crowdmint/id.json", cfg.WalletKeypair)
		assert.Equal(t, "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM", cfg.TreasuryAddress)
		assert.Equal(t, 45*time.Second, cfg.ConfirmTimeout)
		assert.Equal(t, 500*time.Millisecond, cfg.ConfirmPollInterval)
		assert.Equal(t, time.Minute, cfg.ReconcileInterval)
		assert.Equal(t, "debug", cfg.LogLevel)
		assert.Equal(t, "9090", cfg.MetricsPort)
	})

	t.Run("defaults applied", func(t *testing.T) {
		clearEnv()
		os.Setenv("RPC_ENDPOINTS", "https://api.devnet.solana.com")
		os.Setenv("TREASURY_ADDRESS", "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, 90*time.Second, cfg.ConfirmTimeout)
		assert.Equal(t, 2*time.Second, cfg.ConfirmPollInterval)
		assert.Equal(t, "info", cfg.LogLevel)
		assert.Equal(t, "9100", cfg.MetricsPort)
	})

	t.Run("missing RPC endpoints", func(t *testing.T) {
		clearEnv()
		os.Setenv("TREASURY_ADDRESS", "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "RPC_ENDPOINTS")
	})

	t.Run("missing treasury address", func(t *testing.T) {
		clearEnv()
		os.Setenv("RPC_ENDPOINTS", "https://api.devnet.solana.com")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "TREASURY_ADDRESS")
	})

	t.Run("invalid confirm timeout", func(t *testing.T) {
		clearEnv()
		os.Setenv("RPC_ENDPOINTS", "https://api.devnet.solana.com")
		os.Setenv("TREASURY_ADDRESS", "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM")
		os.Setenv("CONFIRM_TIMEOUT", "not-a-duration")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "CONFIRM_TIMEOUT")
	})

	t.Run("poll interval must be shorter than timeout", func(t *testing.T) {
		clearEnv()
		os.Setenv("RPC_ENDPOINTS", "https://api.devnet.solana.com")
		os.Setenv("TREASURY_ADDRESS", "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM")
		os.Setenv("CONFIRM_TIMEOUT", "1s")
		os.Setenv("CONFIRM_POLL_INTERVAL", "5s")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "CONFIRM_POLL_INTERVAL")
	})

	t.Run("invalid log level", func(t *testing.T) {
		clearEnv()
		os.Setenv("RPC_ENDPOINTS", "https://api.devnet.solana.com")
		os.Setenv("TREASURY_ADDRESS", "9WzDXwBbmkg8ZTbNMqUxvQRAyrZzDsGYdLVL9zYtAWWM")
		os.Setenv("LOG_LEVEL", "verbose")

		_, err := Load()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "LOG_LEVEL")
	})
}
