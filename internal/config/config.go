package config

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Config holds all configuration for Crowdmint
type Config struct {
	// RPC configuration
	RPCEndpoints []string

	// Wallet configuration
	WalletKeypair   string
	TreasuryAddress string

	// Confirmation configuration
	ConfirmTimeout      time.Duration
	ConfirmPollInterval time.Duration

	// Reconciler configuration
	ReconcileInterval time.Duration

	// Logging configuration
	LogLevel string

	// Metrics configuration
	MetricsPort string
}

// Load reads configuration from environment variables and validates it
func Load() (Config, error) {
	cfg := Config{
		WalletKeypair:   getEnv("WALLET_KEYPAIR", ""),
		TreasuryAddress: getEnv("TREASURY_ADDRESS", ""),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		MetricsPort:     getEnv("METRICS_PORT", "9100"),
	}

	// Parse RPC endpoints
	rpcEndpointsStr := getEnv("RPC_ENDPOINTS", "")
	if rpcEndpointsStr == "" {
		return cfg, fmt.Errorf("RPC_ENDPOINTS environment variable is required")
	}
	cfg.RPCEndpoints = strings.Split(rpcEndpointsStr, ",")
	for i, endpoint := range cfg.RPCEndpoints {
		cfg.RPCEndpoints[i] = strings.TrimSpace(endpoint)
	}

	// Parse confirmation bounds
	var err error
	cfg.ConfirmTimeout, err = parseDurationEnv("CONFIRM_TIMEOUT", 90*time.Second)
	if err != nil {
		return cfg, fmt.Errorf("invalid CONFIRM_TIMEOUT: %w", err)
	}

	cfg.ConfirmPollInterval, err = parseDurationEnv("CONFIRM_POLL_INTERVAL", 2*time.Second)
	if err != nil {
		return cfg, fmt.Errorf("invalid CONFIRM_POLL_INTERVAL: %w", err)
	}

	cfg.ReconcileInterval, err = parseDurationEnv("RECONCILE_INTERVAL", 5*time.Minute)
	if err != nil {
		return cfg, fmt.Errorf("invalid RECONCILE_INTERVAL: %w", err)
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return cfg, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks that the configuration is valid
func (c Config) validate() error {
	if len(c.RPCEndpoints) == 0 {
		return fmt.Errorf("at least one RPC endpoint is required")
	}

	if c.TreasuryAddress == "" {
		return fmt.Errorf("TREASURY_ADDRESS is required")
	}

	if c.ConfirmTimeout <= 0 {
		return fmt.Errorf("CONFIRM_TIMEOUT must be positive")
	}

	if c.ConfirmPollInterval <= 0 {
		return fmt.Errorf("CONFIRM_POLL_INTERVAL must be positive")
	}

	if c.ConfirmPollInterval >= c.ConfirmTimeout {
		return fmt.Errorf("CONFIRM_POLL_INTERVAL must be shorter than CONFIRM_TIMEOUT")
	}

	validLogLevels := map[string]bool{
		"trace": true,
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
		"fatal": true,
		"panic": true,
	}

	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		return fmt.Errorf("invalid LOG_LEVEL: %s (must be one of: trace, debug, info, warn, error, fatal, panic)", c.LogLevel)
	}

	return nil
}

// getEnv retrieves an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseDurationEnv parses a duration environment variable with a default value
func parseDurationEnv(key string, defaultValue time.Duration) (time.Duration, error) {
	str := os.Getenv(key)
	if str == "" {
		return defaultValue, nil
	}
	return time.ParseDuration(str)
}
