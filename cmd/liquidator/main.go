package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/sapphire-tools/liquidator/internal/chain"
	"github.com/sapphire-tools/liquidator/internal/config"
	"github.com/sapphire-tools/liquidator/internal/liquidator"
	"github.com/sapphire-tools/liquidator/internal/logger"
	"github.com/sapphire-tools/liquidator/internal/notify"
	"github.com/sapphire-tools/liquidator/internal/registry"
	"github.com/sapphire-tools/liquidator/internal/scoreproof"
	"github.com/sapphire-tools/liquidator/internal/state"
	"github.com/sapphire-tools/liquidator/internal/web"
)

func main() {
	// A missing .env is fine in containerized deployments.
	_ = godotenv.Load()

	logger.Initialize(os.Getenv("LOG_LEVEL"))

	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg, err := registry.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load deployment registry")
	}

	rpc, err := ethclient.DialContext(ctx, config.RPCURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to RPC endpoint")
	}
	defer rpc.Close()

	chainID, err := rpc.ChainID(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to read chain id")
	}

	signer, err := chain.NewSigner(config.WalletPrivateKey, chainID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize signer")
	}
	log.Info().Str("signer", signer.Address().Hex()).Str("chainID", chainID.String()).Msg("Signer ready.")

	client, err := chain.NewClient(ctx, rpc, signer)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize chain client")
	}

	var notifier notify.Notifier
	if config.DiscordWebhookURL != "" {
		notifier = notify.NewDiscordNotifier(config.DiscordWebhookURL, config.DiscordNotificationID)
	} else {
		notifier = notify.NewLogNotifier()
	}
	defer notifier.Close()

	var store *state.Store
	var reportStore liquidator.ReportStore
	var cycleStore web.CycleStore
	if config.DBHost != "" {
		store, err = state.Open(state.DBConfig{
			Host:     config.DBHost,
			Port:     config.DBPort,
			User:     config.DBUser,
			Password: config.DBPassword,
			DBName:   config.DBName,
			SSLMode:  config.DBSSLMode,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer store.Close()
		if err := store.EnsureSchema(); err != nil {
			log.Fatal().Err(err).Msg("Failed to ensure database schema")
		}
		reportStore = store
		cycleStore = store
	} else {
		log.Info().Msg("DB_HOST not set, cycle report persistence disabled.")
	}

	proofs := scoreproof.NewHTTPResolver(config.ScoreAPIURL, scoreproof.DefaultRetryPolicy())

	sup, err := liquidator.NewSupervisor(liquidator.SupervisorConfig{
		Network:          config.Network,
		Chain:            client,
		Registry:         reg,
		Proofs:           proofs,
		Notifier:         notifier,
		Store:            reportStore,
		PollInterval:     config.PollInterval,
		ReportInterval:   config.ReportInterval,
		GasLimit:         config.LiquidationGasLimit,
		Tracking:         config.BorrowerTracking,
		MinSignerBalance: config.MinSignerBalanceWei,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build supervisor")
	}

	server := web.NewServer(config.Port, config.Network, sup.CoreCount(), cycleStore)
	go func() {
		if err := server.Start(); err != nil {
			log.Error().Err(err).Msg("Status server stopped")
		}
	}()

	notifier.Info("Liquidator starting on " + config.Network)
	if err := sup.Run(ctx); err != nil && ctx.Err() == nil {
		log.Fatal().Err(err).Msg("Supervisor exited with error")
	}
	log.Info().Msg("Shutdown complete.")
}
