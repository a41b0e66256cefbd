package config

import (
	"github.com/rs/zerolog/log"
)

// Endpoint configuration loaded from environment variables.
// These are populated at startup by the LoadConfig function.
var (
	// RPCURL is the JSON-RPC endpoint of the target chain node.
	RPCURL string

	// ScoreAPIURL is the base URL of the credit score proof service.
	// Empty means every borrower is assessed with a zero-score proof.
	ScoreAPIURL string

	// DiscordWebhookURL is the webhook used for operator notifications.
	// Empty disables webhook delivery; messages are still logged.
	DiscordWebhookURL string
	// DiscordNotificationID is the user id mentioned on critical alerts.
	DiscordNotificationID string

	// Database connection parameters for the optional cycle report store.
	// Leaving DBHost empty disables persistence entirely.
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
)

// loadEndpointConfig loads endpoint configuration from environment variables.
// This function is called by LoadConfig() in General.go.
func loadEndpointConfig() error {
	log.Info().Msg("Loading endpoint configuration from environment variables...")

	var err error

	RPCURL, err = getEnv("RPC_URL")
	if err != nil {
		return err
	}

	ScoreAPIURL = getEnvDefault("SCORE_API_URL", "")
	DiscordWebhookURL = getEnvDefault("DISCORD_WEBHOOK_URL", "")
	DiscordNotificationID = getEnvDefault("DISCORD_NOTIFICATION_ID", "")

	DBHost = getEnvDefault("DB_HOST", "")
	DBPort = int(getEnvAsUint64Default("DB_PORT", 5432))
	DBUser = getEnvDefault("DB_USER", "")
	DBPassword = getEnvDefault("DB_PASSWORD", "")
	DBName = getEnvDefault("DB_NAME", "")
	DBSSLMode = getEnvDefault("DB_SSLMODE", "disable")

	log.Debug().
		Str("RPCURL", RPCURL).
		Str("ScoreAPIURL", ScoreAPIURL).
		Bool("webhookConfigured", DiscordWebhookURL != "").
		Bool("dbConfigured", DBHost != "").
		Msg("Endpoint configuration loaded successfully.")

	return nil
}
