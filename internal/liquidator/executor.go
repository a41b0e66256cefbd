package liquidator

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/rs/zerolog"

	"github.com/sapphire-tools/liquidator/internal/types"
)

// explorerBases maps chain ids to block explorer transaction URL prefixes.
var explorerBases = map[uint64]string{
	137:   "https://polygonscan.com/tx/",
	80001: "https://mumbai.polygonscan.com/tx/",
}

func explorerTxURL(chainID *big.Int, hash common.Hash) string {
	if chainID != nil {
		if base, ok := explorerBases[chainID.Uint64()]; ok {
			return base + hash.Hex()
		}
	}
	return hash.Hex()
}

// liquidateVaults submits one liquidation per candidate and waits for all of
// them to mine. Submissions run concurrently; each failure is isolated to its
// own outcome and never stops the batch. The liquidator's borrow asset
// balance is sampled before and after so the report carries the realized
// profit.
func (l *CoreLiquidator) liquidateVaults(ctx context.Context, candidates []types.LiquidationCandidate, log zerolog.Logger) (types.LiquidationReport, error) {
	report := types.LiquidationReport{}

	borrowAsset, err := l.chain.SupportedBorrowAsset(ctx, l.core.Address)
	if err != nil {
		return report, fmt.Errorf("failed to resolve borrow asset: %w", err)
	}
	report.Decimals, err = l.chain.TokenDecimals(ctx, borrowAsset)
	if err != nil {
		return report, fmt.Errorf("failed to read borrow asset decimals: %w", err)
	}
	report.PreBalance, err = l.chain.TokenBalance(ctx, borrowAsset, l.chain.SignerAddress())
	if err != nil {
		return report, fmt.Errorf("failed to read pre-batch balance: %w", err)
	}

	outcomes := make([]types.LiquidationOutcome, len(candidates))
	var wg sync.WaitGroup
	for i, candidate := range candidates {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcomes[i] = l.liquidateOne(ctx, candidate, log)
		}()
	}
	wg.Wait()
	report.Outcomes = outcomes

	report.PostBalance, err = l.chain.TokenBalance(ctx, borrowAsset, l.chain.SignerAddress())
	if err != nil {
		return report, fmt.Errorf("failed to read post-batch balance: %w", err)
	}
	return report, nil
}

// liquidateOne submits and confirms a single liquidation.
func (l *CoreLiquidator) liquidateOne(ctx context.Context, candidate types.LiquidationCandidate, log zerolog.Logger) types.LiquidationOutcome {
	outcome := types.LiquidationOutcome{Account: candidate.Account}

	gasPrice, err := l.chain.SuggestGasPrice(ctx)
	if err != nil {
		outcome.Error = fmt.Sprintf("failed to fetch gas price: %v", err)
		return outcome
	}

	tx, err := l.chain.Liquidate(ctx, l.flashLiquidator, l.core.Address, candidate.Proof, gasPrice, l.gasLimit)
	if err != nil {
		outcome.Error = err.Error()
		log.Error().Err(err).Str("account", candidate.Account.Hex()).Msg("Liquidation submission failed")
		return outcome
	}
	outcome.TxHash = tx.Hash()
	log.Info().
		Str("account", candidate.Account.Hex()).
		Str("assessedCRatio", candidate.AssessedCRatio.String()).
		Str("tx", explorerTxURL(l.chain.ChainID(), tx.Hash())).
		Msg("Liquidation submitted")

	receipt, err := l.chain.WaitMined(ctx, tx.Hash())
	if err != nil {
		outcome.Error = fmt.Sprintf("confirmation wait failed: %v", err)
		return outcome
	}
	if receipt.Status != ethtypes.ReceiptStatusSuccessful {
		outcome.Error = "transaction reverted"
		log.Error().Str("account", candidate.Account.Hex()).Str("tx", tx.Hash().Hex()).Msg("Liquidation reverted")
		return outcome
	}

	outcome.Confirmed = true
	log.Info().Str("account", candidate.Account.Hex()).Str("tx", tx.Hash().Hex()).Msg("Liquidation confirmed")
	return outcome
}
