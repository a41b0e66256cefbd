package liquidator

import (
	"math/big"

	"github.com/sapphire-tools/liquidator/internal/types"
)

// AssessedCRatio interpolates a vault's personal liquidation threshold from
// its credit score:
//
//	assessed = highCRatio - score * (highCRatio - lowCRatio) / maxScore
//
// A zero score yields the full highCRatio (most conservative); a max score
// yields lowCRatio. All values are fixed-point scaled by types.Unit except
// score and maxScore, which are plain integers.
func AssessedCRatio(params types.CoreParameters, score *big.Int) *big.Int {
	boundsDiff := new(big.Int).Sub(params.HighCRatio, params.LowCRatio)
	discount := new(big.Int).Mul(score, boundsDiff)
	discount.Div(discount, params.MaxScore)
	return new(big.Int).Sub(params.HighCRatio, discount)
}

// CurrentCRatio computes a vault's present collateralization ratio, scaled by
// types.Unit. Multiplications happen before divisions so precision is only
// lost once per term. Returns nil for a debt-free vault, whose ratio is
// undefined.
func CurrentCRatio(vault types.VaultState, params types.CoreParameters) *big.Int {
	if vault.NormalizedBorrowedAmount == nil || vault.NormalizedBorrowedAmount.Sign() == 0 {
		return nil
	}

	denormalizedDebt := new(big.Int).Mul(vault.NormalizedBorrowedAmount, params.CurrentBorrowIndex)
	denormalizedDebt.Div(denormalizedDebt, types.Unit)
	if denormalizedDebt.Sign() == 0 {
		return nil
	}

	collateralValue := new(big.Int).Mul(vault.CollateralAmount, params.CurrentPrice)
	collateralValue.Div(collateralValue, types.Unit)

	ratio := new(big.Int).Mul(collateralValue, types.Unit)
	return ratio.Div(ratio, denormalizedDebt)
}

// CheckLiquidatable decides whether a vault can be liquidated right now.
// A vault with no debt is never liquidatable. Otherwise it is liquidatable
// when its current ratio has fallen to or below its assessed threshold.
// Returns the assessed threshold alongside the verdict for reporting.
func CheckLiquidatable(vault types.VaultState, params types.CoreParameters, score *big.Int) (liquidatable bool, assessed, current *big.Int) {
	current = CurrentCRatio(vault, params)
	if current == nil {
		return false, nil, nil
	}
	assessed = AssessedCRatio(params, score)
	return current.Cmp(assessed) <= 0, assessed, current
}
