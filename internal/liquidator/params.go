package liquidator

import (
	"context"
	"math/big"

	"golang.org/x/sync/errgroup"

	"github.com/sapphire-tools/liquidator/internal/types"
)

// fetchCoreParameters builds a fresh per-cycle snapshot of the core's risk
// parameters: the four core values in one aggregated call, plus the oracle
// price and assessor max score concurrently. A snapshot that fails validation
// wraps types.ErrParameterUnavailable and aborts the cycle.
func fetchCoreParameters(ctx context.Context, ch Chain, core types.Core) (types.CoreParameters, error) {
	var params types.CoreParameters

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		high, low, index, protocol, err := ch.CoreRiskParameters(gctx, core.Address)
		if err != nil {
			return err
		}
		params.HighCRatio = high
		params.LowCRatio = low
		params.CurrentBorrowIndex = index
		params.Protocol = protocol
		return nil
	})

	var price, maxScore *big.Int
	g.Go(func() error {
		p, err := ch.OraclePrice(gctx, core.Oracle)
		if err != nil {
			return err
		}
		price = p
		return nil
	})
	g.Go(func() error {
		m, err := ch.MaxScore(gctx, core.Assessor)
		if err != nil {
			return err
		}
		maxScore = m
		return nil
	})

	if err := g.Wait(); err != nil {
		return types.CoreParameters{}, err
	}

	params.CurrentPrice = price
	params.MaxScore = maxScore

	if err := params.Validate(); err != nil {
		return types.CoreParameters{}, err
	}
	return params, nil
}
