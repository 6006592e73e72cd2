package resilience

import (
	"time"
)

// FromSearchConfig builds the search retry policy: a flat cool-down for
// rate-limit/overload responses and a shorter flat delay for other transient
// faults.
func FromSearchConfig(maxAttempts int, rateLimitBackoff, transientBackoff time.Duration) RetryConfig {
	cfg := RetryConfig{MaxAttempts: 3}
	if maxAttempts > 0 {
		cfg.MaxAttempts = maxAttempts
	}
	if rateLimitBackoff <= 0 {
		rateLimitBackoff = 20 * time.Second
	}
	if transientBackoff <= 0 {
		transientBackoff = 2 * time.Second
	}
	cfg.Backoff = StatusAware{
		RateLimited: Flat(rateLimitBackoff),
		Other:       Flat(transientBackoff),
	}
	return cfg
}
