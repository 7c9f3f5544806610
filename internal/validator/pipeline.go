package validator

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
)

// Submission is one game-submission row from the record source. ID is the
// backend's row identifier and is stable for the duration of a run.
type Submission struct {
	ID     string
	URL    string
	Status string
}

// Source lists the submissions that still need a playability check and
// writes status values back to individual rows.
type Source interface {
	Pending(ctx context.Context) ([]Submission, error)
	UpdateStatus(ctx context.Context, id, status string) error
}

// CheckFunc reports whether the game at url is playable in the browser.
// It must treat fetch failures as a plain negative.
type CheckFunc func(ctx context.Context, url string) bool

type Config struct {
	// TargetStatus is written to rows whose game passes the check.
	TargetStatus string
	// CheckDelay is the pause between consecutive rows, to stay under
	// the remote services' rate limits.
	CheckDelay time.Duration
}

// Summary counts the per-row outcomes of one run.
type Summary struct {
	Checked int
	Updated int
	Skipped int
}

// Pipeline runs the fetch -> check -> update sequence over all pending
// submissions, one row at a time.
type Pipeline struct {
	source Source
	check  CheckFunc
	cfg    Config
}

func New(source Source, check CheckFunc, cfg Config) *Pipeline {
	return &Pipeline{
		source: source,
		check:  check,
		cfg:    cfg,
	}
}

// Run fetches all pending submissions and processes them sequentially.
// A listing failure is returned to the caller; per-row failures are
// logged and the row is skipped.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	submissions, err := p.source.Pending(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to fetch pending submissions: %w", err)
	}

	if len(submissions) == 0 {
		log.Info().Msg("No submissions to validate")
		return Summary{}, nil
	}

	log.Info().Int("count", len(submissions)).Msg("Validating submissions")

	var summary Summary
	for i, sub := range submissions {
		if i > 0 && p.cfg.CheckDelay > 0 {
			select {
			case <-ctx.Done():
				return summary, ctx.Err()
			case <-time.After(p.cfg.CheckDelay):
			}
		}

		summary.Checked++
		if p.processSubmission(ctx, sub) {
			summary.Updated++
		} else {
			summary.Skipped++
		}
	}

	return summary, nil
}

// processSubmission checks one row and conditionally writes the target
// status. Returns true only when the row was actually updated.
func (p *Pipeline) processSubmission(ctx context.Context, sub Submission) bool {
	log.Debug().
		Str("record", sub.ID).
		Str("url", sub.URL).
		Str("status", sub.Status).
		Msg("Checking submission")

	if !p.check(ctx, sub.URL) {
		log.Info().
			Str("record", sub.ID).
			Str("url", sub.URL).
			Msg("Game not playable in browser")
		return false
	}

	if sub.Status == p.cfg.TargetStatus {
		log.Debug().
			Str("record", sub.ID).
			Str("status", sub.Status).
			Msg("Status already set, nothing to update")
		return false
	}

	if err := p.source.UpdateStatus(ctx, sub.ID, p.cfg.TargetStatus); err != nil {
		log.Error().
			Err(err).
			Str("record", sub.ID).
			Msg("Failed to update submission status")
		return false
	}

	log.Info().
		Str("record", sub.ID).
		Str("url", sub.URL).
		Str("status", p.cfg.TargetStatus).
		Msg("Updated submission status")
	return true
}
