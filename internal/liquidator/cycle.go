package liquidator

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/sapphire-tools/liquidator/internal/logger"
	"github.com/sapphire-tools/liquidator/internal/notify"
	"github.com/sapphire-tools/liquidator/internal/scoreproof"
	"github.com/sapphire-tools/liquidator/internal/types"
)

// Borrower tracking policies.
const (
	// TrackingPrune rebuilds the borrower set from live debt state each
	// cycle, so repaid vaults stop being polled.
	TrackingPrune = "prune"
	// TrackingAppend retains every borrower ever seen. Repaid vaults keep
	// being polled, which catches re-borrows without a fresh event scan.
	TrackingAppend = "append"
)

// Config wires one CoreLiquidator's dependencies and policy knobs.
type Config struct {
	Chain           Chain
	Core            types.Core
	FlashLiquidator common.Address
	Proofs          scoreproof.Resolver
	Notifier        notify.Notifier
	Store           ReportStore

	GasLimit         uint64
	Tracking         string
	ReportInterval   time.Duration
	MinSignerBalance *big.Int
}

// CoreLiquidator monitors one core's vaults and liquidates the
// undercollateralized ones. Each instance owns its borrower set and block
// cursor; instances for different cores never share state.
type CoreLiquidator struct {
	chain           Chain
	core            types.Core
	flashLiquidator common.Address
	proofs          scoreproof.Resolver
	notifier        notify.Notifier
	store           ReportStore

	gasLimit         uint64
	tracking         string
	reportInterval   time.Duration
	minSignerBalance *big.Int

	// running guards against overlapping cycles when one runs longer than
	// the poll interval.
	running atomic.Bool

	knownBorrowers []common.Address
	knownSet       map[common.Address]struct{}
	// lastBlockScanned is the borrow event cursor. It only advances after a
	// fully successful cycle, so failures cause a harmless re-scan rather
	// than a gap.
	lastBlockScanned uint64
	lastReport       time.Time

	log zerolog.Logger
}

// NewCoreLiquidator builds a liquidator for one core. Call Init before the
// first cycle.
func NewCoreLiquidator(cfg Config) *CoreLiquidator {
	return &CoreLiquidator{
		chain:            cfg.Chain,
		core:             cfg.Core,
		flashLiquidator:  cfg.FlashLiquidator,
		proofs:           cfg.Proofs,
		notifier:         cfg.Notifier,
		store:            cfg.Store,
		gasLimit:         cfg.GasLimit,
		tracking:         cfg.Tracking,
		reportInterval:   cfg.ReportInterval,
		minSignerBalance: cfg.MinSignerBalance,
		knownSet:         make(map[common.Address]struct{}),
		log:              logger.GetForComponent("liquidator").With().Str("group", cfg.Core.CollateralGroup).Logger(),
	}
}

// Init anchors the borrow event cursor at the core's deployment block.
func (l *CoreLiquidator) Init(ctx context.Context) error {
	creation, err := l.chain.CreationBlock(ctx, l.core.CreationTx)
	if err != nil {
		return fmt.Errorf("failed to resolve creation block for %s: %w", l.core.CollateralGroup, err)
	}
	l.lastBlockScanned = creation
	l.log.Info().
		Str("core", l.core.Address.Hex()).
		Uint64("creationBlock", creation).
		Msg("Core liquidator initialized.")
	return nil
}

// PollVaults runs one full decision cycle: discover borrowers, snapshot risk
// parameters, assess every active vault, and liquidate the candidates. A
// failure anywhere aborts the cycle without advancing the event cursor and
// never crashes the process.
func (l *CoreLiquidator) PollVaults(ctx context.Context) {
	if !l.running.CompareAndSwap(false, true) {
		l.log.Warn().Msg("Previous cycle still running, skipping this tick")
		return
	}
	defer l.running.Store(false)

	cycleID := uuid.New().String()
	log := l.log.With().Str("cycle_id", cycleID).Logger()
	start := time.Now()

	report := types.CycleReport{
		CycleID:         cycleID,
		CollateralGroup: l.core.CollateralGroup,
		Core:            l.core.Address.Hex(),
		Timestamp:       start,
	}

	err := l.runCycle(ctx, log, &report)
	report.DurationMs = time.Since(start).Milliseconds()
	if err != nil {
		report.Error = err.Error()
		log.Error().Err(err).Msg("Cycle aborted")
		l.notifier.Critical(fmt.Sprintf("[%s] cycle failed: %v", l.core.CollateralGroup, err))
	}

	l.persist(report, log)
	l.maybeSummarize(report)
}

func (l *CoreLiquidator) runCycle(ctx context.Context, log zerolog.Logger, report *types.CycleReport) error {
	log.Info().Msg("--- Step 1: Checking signer health ---")
	l.checkSignerBalance(ctx, log)

	log.Info().Msg("--- Step 2: Capturing chain height ---")
	height, err := l.chain.BlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("failed to read chain height: %w", err)
	}
	report.Height = height

	log.Info().Msg("--- Step 3: Discovering borrowers and snapshotting parameters ---")
	var fresh []common.Address
	var params types.CoreParameters
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		fresh, err = discoverNewBorrowers(gctx, l.chain, l.core.Address, l.lastBlockScanned, l.knownSet)
		if err != nil {
			return fmt.Errorf("borrower discovery failed: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		params, err = fetchCoreParameters(gctx, l.chain, l.core)
		if err != nil {
			return fmt.Errorf("parameter snapshot failed: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}

	for _, b := range fresh {
		l.knownBorrowers = append(l.knownBorrowers, b)
		l.knownSet[b] = struct{}{}
	}
	if len(fresh) > 0 {
		log.Info().Int("new", len(fresh)).Msg("Discovered new borrowers")
	}

	log.Info().Msg("--- Step 4: Refreshing vault states ---")
	active, states, err := refreshActiveBorrowers(ctx, l.chain, l.core.Address, l.knownBorrowers, log)
	if err != nil {
		return err
	}
	if l.tracking == TrackingPrune {
		l.knownBorrowers = active
		l.knownSet = make(map[common.Address]struct{}, len(active))
		for _, b := range active {
			l.knownSet[b] = struct{}{}
		}
	}
	report.KnownBorrowers = len(l.knownBorrowers)
	report.ActiveBorrowers = len(active)

	log.Info().Msg("--- Step 5: Assessing vaults ---")
	candidates, err := l.assessVaults(ctx, active, states, params, log)
	if err != nil {
		return err
	}
	report.Candidates = len(candidates)

	if len(candidates) > 0 {
		log.Info().Int("candidates", len(candidates)).Msg("--- Step 6: Executing liquidations ---")
		batch, err := l.liquidateVaults(ctx, candidates, log)
		if err != nil {
			return err
		}
		report.Liquidated = batch.Confirmed()
		report.BalanceDelta = batch.FormattedDelta()
		l.notifier.Info(fmt.Sprintf("[%s] liquidated %d/%d vaults, balance delta %s",
			l.core.CollateralGroup, batch.Confirmed(), len(candidates), batch.FormattedDelta()))
	} else {
		log.Info().Msg("No liquidatable vaults this cycle")
	}

	// The cycle completed; the next scan can start past the height captured
	// at the top. Borrows landing after that height are caught next cycle.
	l.lastBlockScanned = height + 1

	log.Info().
		Int("known", report.KnownBorrowers).
		Int("active", report.ActiveBorrowers).
		Int("liquidated", report.Liquidated).
		Msg("Cycle complete")
	return nil
}

// assessVaults resolves a score proof for each active borrower and checks
// liquidatability against the cycle's parameter snapshot. Proof resolution is
// concurrent; proof failures degrade to the zero-score proof inside the
// resolver and never abort the cycle.
func (l *CoreLiquidator) assessVaults(ctx context.Context, borrowers []common.Address, states []types.VaultState, params types.CoreParameters, log zerolog.Logger) ([]types.LiquidationCandidate, error) {
	results := make([]*types.LiquidationCandidate, len(borrowers))

	var wg sync.WaitGroup
	sem := make(chan struct{}, vaultReadConcurrency)
	for i, borrower := range borrowers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			proof := l.proofs.Resolve(ctx, borrower, params.Protocol)
			liquidatable, assessed, current := CheckLiquidatable(states[i], params, proof.Score)
			if !liquidatable {
				return
			}
			log.Info().
				Str("borrower", borrower.Hex()).
				Str("currentCRatio", current.String()).
				Str("assessedCRatio", assessed.String()).
				Msg("Vault is undercollateralized")
			results[i] = &types.LiquidationCandidate{
				Account:        borrower,
				Proof:          proof,
				AssessedCRatio: assessed,
			}
		}()
	}
	wg.Wait()

	var candidates []types.LiquidationCandidate
	for _, r := range results {
		if r != nil {
			candidates = append(candidates, *r)
		}
	}
	return candidates, nil
}

// checkSignerBalance pages the operator when the signer is low on gas money.
// Never fatal: a low balance still allows read-only assessment.
func (l *CoreLiquidator) checkSignerBalance(ctx context.Context, log zerolog.Logger) {
	balance, err := l.chain.NativeBalance(ctx, l.chain.SignerAddress())
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read signer balance")
		return
	}
	if balance.Cmp(l.minSignerBalance) < 0 {
		msg := fmt.Sprintf("Signer %s balance %s wei is below the %s wei floor, top up gas funds",
			l.chain.SignerAddress().Hex(), balance, l.minSignerBalance)
		log.Warn().Msg(msg)
		l.notifier.Critical(msg)
	}
}

func (l *CoreLiquidator) persist(report types.CycleReport, log zerolog.Logger) {
	if l.store == nil {
		return
	}
	if _, err := l.store.SaveCycleReport(report); err != nil {
		log.Error().Err(err).Msg("Failed to persist cycle report")
	}
}

// maybeSummarize sends a periodic heartbeat summary, throttled so quiet
// markets do not spam the operator.
func (l *CoreLiquidator) maybeSummarize(report types.CycleReport) {
	if time.Since(l.lastReport) < l.reportInterval {
		return
	}
	l.lastReport = time.Now()
	l.notifier.Info(fmt.Sprintf("[%s] heartbeat: height %d, tracking %d borrowers (%d active), %d liquidated last cycle",
		l.core.CollateralGroup, report.Height, report.KnownBorrowers, report.ActiveBorrowers, report.Liquidated))
}
