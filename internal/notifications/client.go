// Package notifications pushes run summaries to an ntfy topic so an
// operator hears about finished validation runs without reading logs.
package notifications

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"game_validator/internal/retry"

	"github.com/rs/zerolog/log"
)

type Client struct {
	httpClient *http.Client
	baseURL    string
	topic      string
	enabled    bool
	retryCfg   retry.Config
}

type NotificationError struct {
	StatusCode int
	Underlying error
}

func (e *NotificationError) Error() string {
	return fmt.Sprintf("notification failed (HTTP %d): %v", e.StatusCode, e.Underlying)
}

// IsRetryable reports whether another attempt could succeed. Client-side
// errors other than rate limiting are final.
func (e *NotificationError) IsRetryable() bool {
	if e.StatusCode == http.StatusTooManyRequests {
		return true
	}
	return e.StatusCode == 0 || e.StatusCode >= 500
}

func NewClient(baseURL, topic string, enabled bool, retryCfg retry.Config) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		baseURL:  baseURL,
		topic:    topic,
		enabled:  enabled,
		retryCfg: retryCfg,
	}
}

// NotifyRunSummary sends one message describing a finished run. Failures
// are logged, never propagated; a lost notification must not fail a run
// that already completed.
func (c *Client) NotifyRunSummary(ctx context.Context, checked, updated, skipped int) {
	if !c.enabled {
		log.Debug().Msg("Notifications disabled, skipping run summary")
		return
	}

	message := formatRunSummary(checked, updated, skipped)
	if err := c.send(ctx, message); err != nil {
		log.Warn().Err(err).Msg("Failed to send run summary notification")
		return
	}
	log.Debug().Msg("Sent run summary notification")
}

// send retries transient failures with the configured backoff but gives
// up immediately on errors that another attempt cannot fix.
func (c *Client) send(ctx context.Context, message string) error {
	var lastErr error
	for attempt := 0; attempt <= c.retryCfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := retry.BackoffDelay(attempt-1, c.retryCfg.BaseDelay, c.retryCfg.MaxDelay)
			log.Debug().
				Int("attempt", attempt+1).
				Dur("delay", delay).
				Msg("Retrying notification after delay")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		err := c.post(ctx, message)
		if err == nil {
			return nil
		}
		lastErr = err

		var notifErr *NotificationError
		if errors.As(err, &notifErr) && !notifErr.IsRetryable() {
			return err
		}

		log.Debug().
			Err(err).
			Int("attempt", attempt+1).
			Msg("Notification attempt failed")
	}
	return fmt.Errorf("notification failed after %d attempts: %w", c.retryCfg.MaxRetries+1, lastErr)
}

func (c *Client) post(ctx context.Context, message string) error {
	url := fmt.Sprintf("%s/%s", c.baseURL, c.topic)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBufferString(message))
	if err != nil {
		return &NotificationError{Underlying: err}
	}
	req.Header.Set("Content-Type", "text/plain")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NotificationError{Underlying: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return &NotificationError{
			StatusCode: resp.StatusCode,
			Underlying: fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status),
		}
	}

	return nil
}

func formatRunSummary(checked, updated, skipped int) string {
	if checked == 0 {
		return "Game validation: no submissions to check"
	}
	return fmt.Sprintf("Game validation: %d checked, %d set to Ready, %d skipped",
		checked, updated, skipped)
}
