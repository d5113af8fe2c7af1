// Package app wires environment configuration into the concrete
// clients the commands run with.
package app

import (
	"context"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"arb-profit-bot/internal/cursor"
	"arb-profit-bot/internal/keepa"
	"arb-profit-bot/internal/notifications"
	"arb-profit-bot/internal/ratelimit"
	"arb-profit-bot/internal/scan"
	"arb-profit-bot/internal/sheets"
)

// Scan batching defaults. A batch of 10 keeps each pricing API call
// cheap; 50 rows is the point where the token budget gets re-checked.
const (
	DefaultBatchSize     = 10
	DefaultMaxRowsPerRun = 50
)

// initialRefillRate is the assumed tokens-per-minute before the first
// API response reports the real rate.
const initialRefillRate = 20

// SetupEnvironment loads .env file and configures zerolog output and log level.
func SetupEnvironment() {
	// Load .env file if it exists
	err := godotenv.Load()

	// Configure logging
	if os.Getenv("ENV") == "production" {
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = log.Output(os.Stderr)
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}

	levelStr := strings.ToLower(os.Getenv("LOGLEVEL"))
	switch levelStr {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn", "warning":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	case "fatal":
		zerolog.SetGlobalLevel(zerolog.FatalLevel)
	case "panic":
		zerolog.SetGlobalLevel(zerolog.PanicLevel)
	case "disabled":
		zerolog.SetGlobalLevel(zerolog.Disabled)
	case "":
		// Default based on environment
		if os.Getenv("ENV") == "production" {
			zerolog.SetGlobalLevel(zerolog.WarnLevel)
		} else {
			zerolog.SetGlobalLevel(zerolog.InfoLevel)
		}
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		log.Warn().Msgf("Unknown LOGLEVEL '%s', defaulting to info.", levelStr)
	}

	// wait until now to report on the .env file so we have the chance to set up logging first
	if err == nil {
		log.Debug().Msg("Loaded environment variables from .env file.")
	} else {
		log.Debug().Msg("No .env file found or error loading .env file; proceeding with existing environment variables.")
	}
}

// GetRequiredEnv fetches a required environment variable or exits if not set.
func GetRequiredEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		log.Fatal().Msgf("%s environment variable is required", key)
	}
	return value
}

// GetEnvWithDefault fetches an environment variable with a default fallback.
func GetEnvWithDefault(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// Clients bundles everything a scan needs.
type Clients struct {
	Keepa    *keepa.Client
	Budget   *keepa.TokenBudget
	Sheet    *sheets.Spreadsheet
	Notifier *notifications.Client
	Cursor   *cursor.Store
}

// InitializeClients builds the pricing API client, the spreadsheet
// service and the supporting pieces from the environment.
func InitializeClients(ctx context.Context) *Clients {
	log.Debug().Msg("Initializing clients")

	apiKey := GetRequiredEnv("KEEPA_API_KEY")
	domain := GetEnvWithDefault("KEEPA_DOMAIN", "2")
	spreadsheetID := GetRequiredEnv("SPREADSHEET_ID")
	credsFile := GetEnvWithDefault("GOOGLE_CREDENTIALS_FILE", "credentials.json")
	cursorFile := GetEnvWithDefault("CURSOR_FILE", "scan_cursor.json")

	limiter := ratelimit.NewDefault()
	budget := keepa.NewTokenBudget(keepa.MaxTokens, initialRefillRate)
	keepaClient := keepa.NewClient(apiKey, domain, limiter, budget)

	sheetsClient, err := sheets.NewClient(ctx, credsFile)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create sheets client")
	}
	spreadsheet := sheets.NewSpreadsheet(sheetsClient, spreadsheetID, limiter)

	log.Debug().Msg("Clients initialized successfully")
	return &Clients{
		Keepa:    keepaClient,
		Budget:   budget,
		Sheet:    spreadsheet,
		Notifier: InitializeNotificationClient(),
		Cursor:   cursor.NewStore(cursorFile),
	}
}

// InitializeNotificationClient creates and returns the notification client
func InitializeNotificationClient() *notifications.Client {
	enabled := GetEnvWithDefault("NTFY_ENABLED", "false") == "true"
	baseURL := GetEnvWithDefault("NTFY_URL", "https://ntfy.sh")
	topic := GetEnvWithDefault("NTFY_TOPIC", "arb-profit-bot")

	log.Debug().
		Bool("enabled", enabled).
		Str("base_url", baseURL).
		Str("topic", topic).
		Msg("Initializing notification client")

	client := notifications.NewClient(baseURL, topic, enabled)

	if enabled {
		log.Info().Str("topic", topic).Msg("Notifications enabled")
	} else {
		log.Debug().Msg("Notifications disabled")
	}

	return client
}

// NewOrchestrator assembles a scan orchestrator over the initialized
// clients.
func (c *Clients) NewOrchestrator(highOnly bool) *scan.Orchestrator {
	return scan.New(c.Keepa, c.Sheet, c.Notifier, c.Budget, c.Cursor, scan.Config{
		BatchSize:     DefaultBatchSize,
		MaxRowsPerRun: DefaultMaxRowsPerRun,
		HighOnly:      highOnly,
	})
}
