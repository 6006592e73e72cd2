package resilience

import (
	"math"
	"math/rand/v2"
	"time"
)

// Backoff decides how long to wait before retry number attempt (1-based),
// given the error that triggered it.
type Backoff interface {
	Delay(attempt int, err error) time.Duration
}

// BackoffFunc adapts a function to the Backoff interface.
type BackoffFunc func(attempt int, err error) time.Duration

// Delay implements Backoff.
func (f BackoffFunc) Delay(attempt int, err error) time.Duration {
	return f(attempt, err)
}

// Flat waits the same duration before every retry.
type Flat time.Duration

// Delay implements Backoff.
func (f Flat) Delay(int, error) time.Duration {
	return time.Duration(f)
}

// Exponential grows the delay by Multiplier per attempt, capped at Max, with
// optional ±Jitter fraction.
type Exponential struct {
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	Jitter     float64
}

// Delay implements Backoff.
func (e Exponential) Delay(attempt int, _ error) time.Duration {
	mult := e.Multiplier
	if mult <= 0 {
		mult = 2.0
	}
	if attempt < 1 {
		attempt = 1
	}
	delay := float64(e.Initial) * math.Pow(mult, float64(attempt-1))
	if e.Max > 0 && delay > float64(e.Max) {
		delay = float64(e.Max)
	}

	if e.Jitter > 0 {
		jitterRange := delay * e.Jitter
		delay += (rand.Float64()*2 - 1) * jitterRange
	}
	if delay < 0 {
		delay = 0
	}
	return time.Duration(delay)
}

// StatusAware uses RateLimited for 429/503/504 responses and Other for every
// other retryable error. Providers answer overload with long cool-downs, so
// the two classes need distinct delays.
type StatusAware struct {
	RateLimited Backoff
	Other       Backoff
}

// Delay implements Backoff.
func (s StatusAware) Delay(attempt int, err error) time.Duration {
	if IsRateLimited(err) && s.RateLimited != nil {
		return s.RateLimited.Delay(attempt, err)
	}
	if s.Other != nil {
		return s.Other.Delay(attempt, err)
	}
	return 0
}
