package config

import (
	"errors"
	"math/big"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"
)

// AppConfig holds all application configuration loaded from environment variables.
// These are populated at startup by the LoadConfig function.
var (
	// Network is the name of the target network (e.g. "polygon", "mumbai").
	Network string

	// WalletPrivateKey is the hex-encoded private key of the liquidator signer.
	WalletPrivateKey string

	// PollInterval is the delay between vault polling cycles for each core.
	PollInterval time.Duration
	// ReportInterval is the minimum delay between operator summary messages.
	ReportInterval time.Duration

	// LiquidationGasLimit is the fixed gas limit attached to liquidation calls.
	LiquidationGasLimit uint64

	// BorrowerTracking selects the borrower set lifecycle: "prune" rebuilds the
	// set from live debt state each cycle, "append" retains every borrower seen.
	BorrowerTracking string

	// MinSignerBalanceWei is the native balance below which the operator is paged.
	MinSignerBalanceWei *big.Int

	// Port is the HTTP port for the status server.
	Port string
)

const (
	defaultPollIntervalMs   = 300000
	defaultReportIntervalMs = 86400000
	defaultGasLimit         = 1000000
	defaultMinBalanceWei    = "500000000000000000" // 0.5 native units
)

// LoadConfig loads configuration from environment variables and sets the global
// config vars. Endpoint and wallet variables are required; the rest default.
func LoadConfig() error {
	log.Info().Msg("Loading application configuration from environment variables...")

	var err error

	Network, err = getEnv("NETWORK")
	if err != nil {
		return err
	}

	WalletPrivateKey, err = getEnv("WALLET_PRIVATE_KEY")
	if err != nil {
		return err
	}

	pollMs := getEnvAsUint64Default("POLL_INTERVAL_MS", defaultPollIntervalMs)
	PollInterval = time.Duration(pollMs) * time.Millisecond

	reportMs := getEnvAsUint64Default("REPORT_INTERVAL_MS", defaultReportIntervalMs)
	ReportInterval = time.Duration(reportMs) * time.Millisecond

	LiquidationGasLimit = getEnvAsUint64Default("LIQUIDATION_GAS_LIMIT", defaultGasLimit)

	BorrowerTracking = getEnvDefault("BORROWER_TRACKING", "prune")
	if BorrowerTracking != "prune" && BorrowerTracking != "append" {
		return errors.New("environment variable BORROWER_TRACKING must be \"prune\" or \"append\", got: " + BorrowerTracking)
	}

	minBalance := getEnvDefault("MIN_SIGNER_BALANCE_WEI", defaultMinBalanceWei)
	var ok bool
	MinSignerBalanceWei, ok = new(big.Int).SetString(minBalance, 10)
	if !ok {
		return errors.New("environment variable MIN_SIGNER_BALANCE_WEI must be a base-10 integer, got: " + minBalance)
	}

	Port = getEnvDefault("PORT", "8080")

	// Load endpoint configuration
	if err := loadEndpointConfig(); err != nil {
		return err
	}

	log.Debug().
		Str("Network", Network).
		Dur("PollInterval", PollInterval).
		Uint64("GasLimit", LiquidationGasLimit).
		Str("BorrowerTracking", BorrowerTracking).
		Msg("Configuration loaded successfully.")

	return nil
}

// getEnv retrieves a string environment variable. Returns error if not set
// or empty.
func getEnv(key string) (string, error) {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value, nil
	}
	return "", errors.New("environment variable " + key + " is required but not set")
}

// getEnvDefault retrieves a string environment variable with a fallback value.
func getEnvDefault(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return fallback
}

// getEnvAsUint64Default retrieves an environment variable as a uint64 with a
// fallback value. An unparsable value falls back rather than aborting startup.
func getEnvAsUint64Default(key string, fallback uint64) uint64 {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return fallback
	}
	value, err := strconv.ParseUint(valueStr, 10, 64)
	if err != nil {
		log.Warn().Str("key", key).Str("value", valueStr).Msg("Invalid numeric environment variable, using default")
		return fallback
	}
	return value
}
