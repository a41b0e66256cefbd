package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequiredEnv(t *testing.T) {
	t.Setenv("NETWORK", "polygon")
	t.Setenv("WALLET_PRIVATE_KEY", "ac0974bec39a17e36ba4a6b4d238ff944bacb478cbed5efcae784d7bf4f2ff80")
	t.Setenv("RPC_URL", "http://localhost:8545")
}

func TestLoadConfigDefaults(t *testing.T) {
	setRequiredEnv(t)

	require.NoError(t, LoadConfig())

	assert.Equal(t, "polygon", Network)
	assert.Equal(t, 5*time.Minute, PollInterval)
	assert.Equal(t, 24*time.Hour, ReportInterval)
	assert.Equal(t, uint64(1_000_000), LiquidationGasLimit)
	assert.Equal(t, "prune", BorrowerTracking)
	assert.Equal(t, "500000000000000000", MinSignerBalanceWei.String())
	assert.Equal(t, "8080", Port)
	assert.Equal(t, "disable", DBSSLMode)
}

func TestLoadConfigOverrides(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("POLL_INTERVAL_MS", "60000")
	t.Setenv("LIQUIDATION_GAS_LIMIT", "2000000")
	t.Setenv("BORROWER_TRACKING", "append")
	t.Setenv("MIN_SIGNER_BALANCE_WEI", "1000000000000000000")

	require.NoError(t, LoadConfig())

	assert.Equal(t, time.Minute, PollInterval)
	assert.Equal(t, uint64(2_000_000), LiquidationGasLimit)
	assert.Equal(t, "append", BorrowerTracking)
	assert.Equal(t, "1000000000000000000", MinSignerBalanceWei.String())
}

func TestLoadConfigMissingRequired(t *testing.T) {
	t.Setenv("NETWORK", "polygon")
	t.Setenv("WALLET_PRIVATE_KEY", "ab")
	// RPC_URL intentionally unset.
	t.Setenv("RPC_URL", "")

	err := LoadConfig()
	require.Error(t, err)
}

func TestLoadConfigRejectsUnknownTracking(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("BORROWER_TRACKING", "keep-everything")

	err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BORROWER_TRACKING")
}

func TestLoadConfigInvalidNumberFallsBack(t *testing.T) {
	setRequiredEnv(t)
	t.Setenv("POLL_INTERVAL_MS", "not-a-number")

	require.NoError(t, LoadConfig())
	assert.Equal(t, 5*time.Minute, PollInterval)
}
