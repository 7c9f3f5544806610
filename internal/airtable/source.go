package airtable

import (
	"context"
	"fmt"
	"strings"

	"game_validator/internal/validator"

	"github.com/rs/zerolog/log"
)

// SourceConfig names the table, view, and fields the validator reads.
type SourceConfig struct {
	Table       string
	View        string
	URLField    string
	StatusField string
	// SkipStatuses are statuses that mark a row as already processed;
	// such rows are never returned as pending.
	SkipStatuses []string
}

// Source exposes one Airtable table view as the validator's record source.
type Source struct {
	client *Client
	cfg    SourceConfig
	skip   map[string]bool
}

func NewSource(client *Client, cfg SourceConfig) *Source {
	skip := make(map[string]bool, len(cfg.SkipStatuses))
	for _, status := range cfg.SkipStatuses {
		skip[status] = true
	}
	return &Source{
		client: client,
		cfg:    cfg,
		skip:   skip,
	}
}

// Pending lists all records of the configured view that carry a gameplay
// URL and whose status is not already final.
func (s *Source) Pending(ctx context.Context) ([]validator.Submission, error) {
	records, err := s.client.ListRecords(ctx, s.cfg.Table, s.cfg.View)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}

	var pending []validator.Submission
	for _, record := range records {
		gameURL := stringField(record.Fields, s.cfg.URLField)
		status := stringField(record.Fields, s.cfg.StatusField)

		if gameURL == "" {
			log.Debug().
				Str("record", record.ID).
				Msg("Skipping record without gameplay URL")
			continue
		}
		if s.skip[status] {
			log.Debug().
				Str("record", record.ID).
				Str("status", status).
				Msg("Skipping already processed record")
			continue
		}

		pending = append(pending, validator.Submission{
			ID:     record.ID,
			URL:    gameURL,
			Status: status,
		})
	}

	log.Info().
		Int("total", len(records)).
		Int("pending", len(pending)).
		Msg("Fetched submissions to validate")

	return pending, nil
}

// UpdateStatus writes the status field of one record.
func (s *Source) UpdateStatus(ctx context.Context, id, status string) error {
	return s.client.UpdateRecord(ctx, s.cfg.Table, id, map[string]interface{}{
		s.cfg.StatusField: status,
	})
}

// stringField safely extracts a string field from a record's field map.
func stringField(fields map[string]interface{}, key string) string {
	value, ok := fields[key]
	if !ok || value == nil {
		return ""
	}
	return strings.TrimSpace(fmt.Sprintf("%v", value))
}
