package main

import (
	"context"
	"strings"
	"time"

	"game_validator/internal/airtable"
	"game_validator/internal/config"
	"game_validator/internal/itchio"
	"game_validator/internal/notifications"
	"game_validator/internal/sheets"
	"game_validator/internal/validator"

	"github.com/rs/zerolog/log"
)

func main() {
	log.Debug().Msg("Starting game validator")
	setupEnvironment()

	ctx := context.Background()

	source := initializeSource(ctx)
	checker := itchio.NewChecker(
		getEnvWithDefault("PLAYABLE_MARKER", "game_frame"),
		config.DefaultResilienceConfig.PageFetch,
	)
	notifier := initializeNotificationClient()

	pipeline := validator.New(source, checker.IsPlayable, validator.Config{
		TargetStatus: getEnvWithDefault("TARGET_STATUS", "Ready"),
		CheckDelay:   getDurationEnv("CHECK_DELAY", 1*time.Second),
	})

	summary, err := pipeline.Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Validation run failed")
	}

	log.Info().
		Int("checked", summary.Checked).
		Int("updated", summary.Updated).
		Int("skipped", summary.Skipped).
		Msg("Validation complete")

	notifier.NotifyRunSummary(ctx, summary.Checked, summary.Updated, summary.Skipped)
}

// initializeSource builds the record source selected by SOURCE_BACKEND.
// Missing credentials are fatal here, before any network call is made.
func initializeSource(ctx context.Context) validator.Source {
	skipStatuses := []string{
		getEnvWithDefault("TARGET_STATUS", "Ready"),
		"Invalid",
	}

	backend := strings.ToLower(getEnvWithDefault("SOURCE_BACKEND", "airtable"))
	switch backend {
	case "airtable":
		apiKey := getRequiredEnv("AIRTABLE_API_KEY")
		baseID := getRequiredEnv("AIRTABLE_BASE_ID")
		client := airtable.NewClient(apiKey, baseID)
		return airtable.NewSource(client, airtable.SourceConfig{
			Table:        getEnvWithDefault("AIRTABLE_TABLE", "projects"),
			View:         getEnvWithDefault("AIRTABLE_VIEW", "viwTShFXBXjhP4w9s"),
			URLField:     getEnvWithDefault("URL_FIELD", "gameplay_url"),
			StatusField:  getEnvWithDefault("STATUS_FIELD", "ysws_status"),
			SkipStatuses: skipStatuses,
		})
	case "sheets":
		spreadsheetID := getRequiredEnv("SPREADSHEET_ID")
		sheetRange := getEnvWithDefault("SPREADSHEET_RANGE", "Submissions!A1")
		client, err := sheets.NewClient(ctx, "credentials.json")
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create sheets client")
		}
		return sheets.NewSource(client, spreadsheetID, sheetRange, skipStatuses)
	default:
		log.Fatal().Str("backend", backend).Msg("Unknown SOURCE_BACKEND, expected 'airtable' or 'sheets'")
		return nil
	}
}

// initializeNotificationClient creates the ntfy client for run summaries.
func initializeNotificationClient() *notifications.Client {
	enabled := getEnvWithDefault("NTFY_ENABLED", "false") == "true"
	baseURL := getEnvWithDefault("NTFY_URL", "https://ntfy.sh")
	topic := getEnvWithDefault("NTFY_TOPIC", "game-validator")

	log.Debug().
		Bool("enabled", enabled).
		Str("base_url", baseURL).
		Str("topic", topic).
		Msg("Initializing notification client")

	if enabled {
		log.Info().Str("topic", topic).Msg("Notifications enabled")
	}

	return notifications.NewClient(baseURL, topic, enabled, config.DefaultResilienceConfig.Notify)
}
