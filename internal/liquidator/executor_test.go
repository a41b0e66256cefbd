package liquidator

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sapphire-tools/liquidator/internal/types"
)

func candidate(n byte) types.LiquidationCandidate {
	account := addr(n)
	return types.LiquidationCandidate{
		Account:        account,
		Proof:          types.EmptyScoreProof(account, "sapphire.credit"),
		AssessedCRatio: scaled(2),
	}
}

func TestLiquidateVaultsReportsBalanceDelta(t *testing.T) {
	f := newFakeChain()
	f.tokenBalances = []*big.Int{scaled(100), scaled(137)}
	l, _, _, _ := newTestLiquidator(f)

	report, err := l.liquidateVaults(context.Background(), []types.LiquidationCandidate{candidate(0x01), candidate(0x02)}, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, 2, report.Confirmed())
	assert.Equal(t, scaled(37), report.BalanceDelta())
	assert.Equal(t, "37", report.FormattedDelta())
	assert.Len(t, f.liquidated, 2)
}

func TestLiquidateVaultsIsolatesFailures(t *testing.T) {
	f := newFakeChain()
	f.tokenBalances = []*big.Int{scaled(100), scaled(110)}
	bad, good := addr(0x01), addr(0x02)
	f.liquidateErr[bad] = errors.New("nonce too low")
	l, _, _, _ := newTestLiquidator(f)

	report, err := l.liquidateVaults(context.Background(), []types.LiquidationCandidate{candidate(0x01), candidate(0x02)}, zerolog.Nop())
	require.NoError(t, err, "one failed submission must not fail the batch")

	assert.Equal(t, 1, report.Confirmed())
	require.Len(t, report.Outcomes, 2)
	assert.Equal(t, bad, report.Outcomes[0].Account)
	assert.Contains(t, report.Outcomes[0].Error, "nonce too low")
	assert.False(t, report.Outcomes[0].Confirmed)
	assert.Equal(t, good, report.Outcomes[1].Account)
	assert.True(t, report.Outcomes[1].Confirmed)
}

func TestLiquidateVaultsRevertedTransaction(t *testing.T) {
	f := newFakeChain()
	f.tokenBalances = []*big.Int{scaled(100), scaled(100)}
	f.revertAll = true
	l, _, _, _ := newTestLiquidator(f)

	report, err := l.liquidateVaults(context.Background(), []types.LiquidationCandidate{candidate(0x01)}, zerolog.Nop())
	require.NoError(t, err)

	assert.Equal(t, 0, report.Confirmed())
	require.Len(t, report.Outcomes, 1)
	assert.Equal(t, "transaction reverted", report.Outcomes[0].Error)
	assert.Equal(t, "0", report.FormattedDelta())
}
