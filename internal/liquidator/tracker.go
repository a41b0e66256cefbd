package liquidator

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/sapphire-tools/liquidator/internal/types"
)

// vaultReadConcurrency caps parallel per-borrower vault reads so a large
// borrower set does not flood the RPC endpoint.
const vaultReadConcurrency = 8

// discoverNewBorrowers scans Borrowed events from fromBlock to head and
// returns, in first-seen order, the borrower addresses not already in known.
// Re-scanning an overlapping range is harmless: duplicates are dropped here.
func discoverNewBorrowers(ctx context.Context, ch Chain, core common.Address, fromBlock uint64, known map[common.Address]struct{}) ([]common.Address, error) {
	logs, err := ch.BorrowedLogs(ctx, core, fromBlock)
	if err != nil {
		return nil, err
	}

	seen := make(map[common.Address]struct{})
	var fresh []common.Address
	for _, l := range logs {
		if len(l.Topics) < 2 {
			continue
		}
		borrower := common.BytesToAddress(l.Topics[1].Bytes())
		if _, ok := known[borrower]; ok {
			continue
		}
		if _, ok := seen[borrower]; ok {
			continue
		}
		seen[borrower] = struct{}{}
		fresh = append(fresh, borrower)
	}
	return fresh, nil
}

// refreshActiveBorrowers reads every known borrower's vault and returns the
// subset that still carries debt, with their states. Order follows the input
// order so results are deterministic across cycles.
func refreshActiveBorrowers(ctx context.Context, ch Chain, core common.Address, borrowers []common.Address, log zerolog.Logger) ([]common.Address, []types.VaultState, error) {
	states := make([]types.VaultState, len(borrowers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(vaultReadConcurrency)
	for i, borrower := range borrowers {
		g.Go(func() error {
			state, err := ch.Vault(gctx, core, borrower)
			if err != nil {
				return fmt.Errorf("failed to read vault of %s: %w", borrower, err)
			}
			states[i] = state
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var active []common.Address
	var activeStates []types.VaultState
	for i, borrower := range borrowers {
		if states[i].NormalizedBorrowedAmount == nil || states[i].NormalizedBorrowedAmount.Sign() == 0 {
			log.Debug().Str("borrower", borrower.Hex()).Msg("Borrower has no outstanding debt, skipping")
			continue
		}
		active = append(active, borrower)
		activeStates = append(activeStates, states[i])
	}
	return active, activeStates, nil
}
