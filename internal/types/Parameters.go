package types

import (
	"errors"
	"fmt"
	"math/big"
)

// Unit is the fixed-point scale used by the protocol's ratio convention;
// a ratio of 1.0 is represented as 1e18.
var Unit = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// ErrParameterUnavailable indicates a risk parameter read returned a zero or
// empty value. A snapshot carrying such a value must not be used for
// assessment; the current cycle is aborted.
var ErrParameterUnavailable = errors.New("core parameter unavailable")

// CoreParameters is a per-cycle snapshot of a core's risk parameters.
// Re-created fresh on every poll cycle, never mutated, never cached.
type CoreParameters struct {
	// HighCRatio and LowCRatio bound the assessed collateralization ratio,
	// fixed-point scaled by Unit.
	HighCRatio *big.Int
	LowCRatio  *big.Int
	// CurrentBorrowIndex is the protocol's cumulative debt growth accumulator.
	CurrentBorrowIndex *big.Int
	// CurrentPrice is the collateral price, fixed-point scaled by Unit.
	CurrentPrice *big.Int
	// MaxScore is the upper bound of the credit score range.
	MaxScore *big.Int
	// Protocol selects the score proof namespace for this core.
	Protocol string
}

// Validate checks the snapshot invariant: all numeric bounds strictly positive
// and the protocol identifier non-empty.
func (p CoreParameters) Validate() error {
	for name, v := range map[string]*big.Int{
		"highCRatio":         p.HighCRatio,
		"lowCRatio":          p.LowCRatio,
		"currentBorrowIndex": p.CurrentBorrowIndex,
		"currentPrice":       p.CurrentPrice,
		"maxScore":           p.MaxScore,
	} {
		if v == nil || v.Sign() <= 0 {
			return fmt.Errorf("%w: %s is zero", ErrParameterUnavailable, name)
		}
	}
	if p.Protocol == "" {
		return fmt.Errorf("%w: protocol is empty", ErrParameterUnavailable)
	}
	return nil
}
