package types

import (
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// LiquidationCandidate is a vault judged undercollateralized during one cycle.
// Ephemeral; exists only between assessment and execution.
type LiquidationCandidate struct {
	Account common.Address
	Proof   ScoreProof
	// AssessedCRatio is the personalized threshold the vault fell to or below.
	AssessedCRatio *big.Int
}

// LiquidationOutcome records the fate of one submitted liquidation call.
// A failure here never affects sibling liquidations in the same batch.
type LiquidationOutcome struct {
	Account   common.Address `json:"account"`
	TxHash    common.Hash    `json:"tx_hash"`
	Confirmed bool           `json:"confirmed"`
	Error     string         `json:"error,omitempty"`
}

// LiquidationReport summarizes one execution batch, including the liquidator's
// borrow asset balance movement across it.
type LiquidationReport struct {
	Outcomes    []LiquidationOutcome
	PreBalance  *big.Int
	PostBalance *big.Int
	Decimals    uint8
}

// BalanceDelta returns the signed balance change (post minus pre).
func (r LiquidationReport) BalanceDelta() *big.Int {
	return new(big.Int).Sub(r.PostBalance, r.PreBalance)
}

// FormattedDelta renders the balance delta in asset units.
func (r LiquidationReport) FormattedDelta() string {
	return FormatUnits(r.BalanceDelta(), r.Decimals)
}

// Confirmed returns how many liquidations in the batch confirmed.
func (r LiquidationReport) Confirmed() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Confirmed {
			n++
		}
	}
	return n
}

// CycleReport is the persisted record of one completed poll cycle.
type CycleReport struct {
	CycleID         string    `json:"cycle_id"`
	CollateralGroup string    `json:"collateral_group"`
	Core            string    `json:"core"`
	Height          uint64    `json:"height"`
	KnownBorrowers  int       `json:"known_borrowers"`
	ActiveBorrowers int       `json:"active_borrowers"`
	Candidates      int       `json:"candidates"`
	Liquidated      int       `json:"liquidated"`
	BalanceDelta    string    `json:"balance_delta,omitempty"`
	Error           string    `json:"error,omitempty"`
	Timestamp       time.Time `json:"timestamp"`
	DurationMs      int64     `json:"duration_ms"`
}

// FormatUnits renders a fixed-point integer amount as a decimal string using
// the given number of fractional digits, trimming trailing zeros.
func FormatUnits(amount *big.Int, decimals uint8) string {
	if amount == nil {
		return "0"
	}
	sign := ""
	abs := new(big.Int).Abs(amount)
	if amount.Sign() < 0 {
		sign = "-"
	}

	scale := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(decimals)), nil)
	whole, frac := new(big.Int).QuoRem(abs, scale, new(big.Int))

	if frac.Sign() == 0 {
		return sign + whole.String()
	}

	fracStr := frac.String()
	if pad := int(decimals) - len(fracStr); pad > 0 {
		fracStr = strings.Repeat("0", pad) + fracStr
	}
	fracStr = strings.TrimRight(fracStr, "0")
	return sign + whole.String() + "." + fracStr
}
