package liquidator

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sapphire-tools/liquidator/internal/types"
)

func testParams() types.CoreParameters {
	return types.CoreParameters{
		HighCRatio:         scaled(2),
		LowCRatio:          scaled(1),
		CurrentBorrowIndex: scaled(1),
		CurrentPrice:       scaled(1),
		MaxScore:           big.NewInt(1000),
		Protocol:           "sapphire.credit",
	}
}

func TestAssessedCRatioInterpolation(t *testing.T) {
	params := testParams()

	// Zero score lands on the conservative upper bound.
	assert.Equal(t, scaled(2), AssessedCRatio(params, big.NewInt(0)))

	// Max score lands on the lower bound.
	assert.Equal(t, scaled(1), AssessedCRatio(params, big.NewInt(1000)))

	// Midpoint score lands halfway: 2.0 - 0.5 = 1.5.
	mid := AssessedCRatio(params, big.NewInt(500))
	expected := new(big.Int).Add(scaled(1), new(big.Int).Div(types.Unit, big.NewInt(2)))
	assert.Equal(t, expected, mid)
}

func TestAssessedCRatioMonotonicInScore(t *testing.T) {
	params := testParams()
	prev := AssessedCRatio(params, big.NewInt(0))
	for score := int64(100); score <= 1000; score += 100 {
		cur := AssessedCRatio(params, big.NewInt(score))
		assert.True(t, cur.Cmp(prev) <= 0, "threshold must not rise with score %d", score)
		prev = cur
	}
}

func TestCheckLiquidatableZeroDebt(t *testing.T) {
	vault := types.VaultState{
		NormalizedBorrowedAmount: new(big.Int),
		CollateralAmount:         scaled(10),
	}
	liquidatable, assessed, current := CheckLiquidatable(vault, testParams(), big.NewInt(0))
	assert.False(t, liquidatable)
	assert.Nil(t, assessed)
	assert.Nil(t, current)
}

func TestCheckLiquidatableBoundaryEquality(t *testing.T) {
	params := testParams()

	// Score 500 gives an assessed threshold of exactly 1.5. Collateral 1.5
	// against debt 1.0 gives a current ratio of exactly 1.5.
	vault := types.VaultState{
		NormalizedBorrowedAmount: scaled(1),
		CollateralAmount:         new(big.Int).Add(scaled(1), new(big.Int).Div(types.Unit, big.NewInt(2))),
	}
	liquidatable, assessed, current := CheckLiquidatable(vault, params, big.NewInt(500))
	require.NotNil(t, current)
	assert.Equal(t, 0, current.Cmp(assessed), "setup must hit the boundary exactly")
	assert.True(t, liquidatable, "a vault exactly at its threshold is liquidatable")
}

func TestCheckLiquidatableHealthyVault(t *testing.T) {
	vault := types.VaultState{
		NormalizedBorrowedAmount: scaled(1),
		CollateralAmount:         scaled(3),
	}
	liquidatable, _, current := CheckLiquidatable(vault, testParams(), big.NewInt(0))
	assert.False(t, liquidatable)
	assert.Equal(t, scaled(3), current)
}

func TestCurrentCRatioAppliesBorrowIndex(t *testing.T) {
	params := testParams()
	// A borrow index of 2.0 doubles the effective debt, halving the ratio.
	params.CurrentBorrowIndex = scaled(2)

	vault := types.VaultState{
		NormalizedBorrowedAmount: scaled(1),
		CollateralAmount:         scaled(4),
	}
	assert.Equal(t, scaled(2), CurrentCRatio(vault, params))
}

func TestCurrentCRatioZeroScoreFailOpen(t *testing.T) {
	// With a zero-score proof the threshold is the full highCRatio, so a
	// vault at 1.9 is liquidatable even though a scored borrower at the
	// same ratio might not be.
	params := testParams()
	vault := types.VaultState{
		NormalizedBorrowedAmount: scaled(1),
		CollateralAmount:         new(big.Int).Sub(scaled(2), new(big.Int).Div(types.Unit, big.NewInt(10))),
	}

	liquidatable, _, _ := CheckLiquidatable(vault, params, big.NewInt(0))
	assert.True(t, liquidatable)

	liquidatable, _, _ = CheckLiquidatable(vault, params, big.NewInt(1000))
	assert.False(t, liquidatable)
}
