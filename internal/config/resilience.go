package config

import (
	"time"

	"game_validator/internal/retry"
)

// ResilienceConfig holds the retry budgets for the two outbound HTTP
// concerns that tolerate transient failure. Record-source calls are
// deliberately not retried: a listing failure aborts the run and an
// update failure skips the row.
type ResilienceConfig struct {
	PageFetch retry.Config
	Notify    retry.Config
}

var DefaultResilienceConfig = ResilienceConfig{
	PageFetch: retry.Config{
		MaxRetries: 2,
		BaseDelay:  1 * time.Second,
		MaxDelay:   10 * time.Second,
		Timeout:    10 * time.Second,
	},
	Notify: retry.Config{
		MaxRetries: 3,
		BaseDelay:  500 * time.Millisecond,
		MaxDelay:   5 * time.Second,
		Timeout:    10 * time.Second,
	},
}
