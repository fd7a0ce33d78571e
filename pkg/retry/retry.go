// Package retry runs an operation with exponential backoff.
package retry

import (
	"context"
	"fmt"
	"math/rand"
	"time"
)

// Config controls how attempts are spaced. The delay starts at
// InitialDelay, grows by Multiplier after each failure, and is capped
// at MaxDelay. JitterFactor spreads delays by up to +/- that fraction
// so retrying clients do not fall into lockstep.
type Config struct {
	MaxRetries   int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	JitterFactor float64
}

// DefaultConfig suits short-lived API calls: three retries starting at
// 100ms, capped at 5s.
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:   3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		JitterFactor: 0.1,
	}
}

// Do runs fn until it succeeds or the attempts are exhausted, sleeping
// between attempts per cfg. It returns the last error, or a wrapped
// context error if the context is cancelled while waiting. A nil cfg
// uses DefaultConfig.
func Do(ctx context.Context, cfg *Config, fn func() error) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	delay := cfg.InitialDelay
	var lastErr error
	for attempt := 0; ; attempt++ {
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if attempt >= cfg.MaxRetries {
			return lastErr
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("retry cancelled: %w", ctx.Err())
		case <-time.After(jittered(delay, cfg.JitterFactor)):
		}

		delay = time.Duration(float64(delay) * cfg.Multiplier)
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
}

func jittered(delay time.Duration, factor float64) time.Duration {
	if factor <= 0 {
		return delay
	}
	spread := float64(delay) * factor * (rand.Float64()*2 - 1)
	return time.Duration(float64(delay) + spread)
}
