package liquidator

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/sapphire-tools/liquidator/internal/logger"
	"github.com/sapphire-tools/liquidator/internal/notify"
	"github.com/sapphire-tools/liquidator/internal/registry"
	"github.com/sapphire-tools/liquidator/internal/scoreproof"
	"github.com/sapphire-tools/liquidator/internal/types"
)

// SupervisorConfig wires the supervisor's dependencies and per-core policy.
type SupervisorConfig struct {
	Network  string
	Chain    Chain
	Registry *registry.Registry
	Proofs   scoreproof.Resolver
	Notifier notify.Notifier
	Store    ReportStore

	PollInterval     time.Duration
	ReportInterval   time.Duration
	GasLimit         uint64
	Tracking         string
	MinSignerBalance *big.Int
}

// Supervisor runs one CoreLiquidator per deployed core, each on its own
// independent ticker. A slow or failing core never delays its siblings.
type Supervisor struct {
	liquidators  []*CoreLiquidator
	pollInterval time.Duration
	log          zerolog.Logger
}

// NewSupervisor resolves every core deployment on the network and builds a
// liquidator for each. Startup resolution errors are fatal: running against a
// partially resolved deployment would silently skip markets.
func NewSupervisor(cfg SupervisorConfig) (*Supervisor, error) {
	log := logger.GetForComponent("supervisor")

	// The registry's chain id must match the node we are connected to.
	network, err := cfg.Registry.NetworkByChainID(cfg.Chain.ChainID())
	if err != nil {
		return nil, err
	}
	if network != cfg.Network {
		return nil, fmt.Errorf("configured network %q but RPC endpoint serves %q", cfg.Network, network)
	}

	flash, err := cfg.Registry.One(cfg.Network, registry.Filter{Name: "FlashLiquidator"})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve flash liquidator contract: %w", err)
	}

	proxies := cfg.Registry.Lookup(cfg.Network, registry.Filter{Name: "CoreProxy"})
	if len(proxies) == 0 {
		return nil, fmt.Errorf("no core deployments found on network %s", cfg.Network)
	}

	sup := &Supervisor{pollInterval: cfg.PollInterval, log: log}
	for _, proxy := range proxies {
		oracle, err := cfg.Registry.One(cfg.Network, registry.Filter{Name: "Oracle", Group: proxy.Group})
		if err != nil {
			return nil, fmt.Errorf("failed to resolve oracle for group %s: %w", proxy.Group, err)
		}
		assessor, err := cfg.Registry.One(cfg.Network, registry.Filter{Name: "Assessor", Group: proxy.Group})
		if err != nil {
			return nil, fmt.Errorf("failed to resolve assessor for group %s: %w", proxy.Group, err)
		}

		core := types.Core{
			CollateralGroup: proxy.Group,
			Address:         proxy.Address,
			Oracle:          oracle.Address,
			Assessor:        assessor.Address,
			CreationTx:      proxy.Txn,
		}
		sup.liquidators = append(sup.liquidators, NewCoreLiquidator(Config{
			Chain:            cfg.Chain,
			Core:             core,
			FlashLiquidator:  flash.Address,
			Proofs:           cfg.Proofs,
			Notifier:         cfg.Notifier,
			Store:            cfg.Store,
			GasLimit:         cfg.GasLimit,
			Tracking:         cfg.Tracking,
			ReportInterval:   cfg.ReportInterval,
			MinSignerBalance: cfg.MinSignerBalance,
		}))
		log.Info().
			Str("group", proxy.Group).
			Str("core", proxy.Address.Hex()).
			Msg("Registered core liquidator.")
	}
	return sup, nil
}

// CoreCount returns the number of monitored cores.
func (s *Supervisor) CoreCount() int {
	return len(s.liquidators)
}

// Run initializes every liquidator, runs the first cycle for each
// immediately, then polls each on its own ticker until the context is
// cancelled.
func (s *Supervisor) Run(ctx context.Context) error {
	for _, l := range s.liquidators {
		if err := l.Init(ctx); err != nil {
			return err
		}
	}

	s.log.Info().
		Int("cores", len(s.liquidators)).
		Dur("pollInterval", s.pollInterval).
		Msg("Supervisor starting poll loops.")

	var wg sync.WaitGroup
	for _, l := range s.liquidators {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.PollVaults(ctx)

			ticker := time.NewTicker(s.pollInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					l.PollVaults(ctx)
				}
			}
		}()
	}
	wg.Wait()

	s.log.Info().Msg("Supervisor stopped.")
	return ctx.Err()
}
