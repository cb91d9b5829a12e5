package retry

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"
)

var (
	ErrMaxRetriesExceeded = errors.New("max retries exceeded")
	ErrContextCanceled    = errors.New("context canceled during retry")
)

// Config contains retry configuration
type Config struct {
	// MaxRetries is the maximum number of retry attempts (0 = no retries, just initial attempt)
	MaxRetries int
	// InitialInterval is the initial backoff interval
	InitialInterval time.Duration
	// MaxInterval is the maximum backoff interval
	MaxInterval time.Duration
	// Multiplier is the factor applied to the interval after each retry
	Multiplier float64
	// JitterFactor is the random jitter factor (0-1) added to/subtracted from the interval
	JitterFactor float64
}

// DefaultConfig returns default retry configuration.
// Exponential backoff: 1s, 2s, 4s, 8s, 16s, 30s (capped).
func DefaultConfig() *Config {
	return &Config{
		MaxRetries:      5,
		InitialInterval: 1 * time.Second,
		MaxInterval:     30 * time.Second,
		Multiplier:      2.0,
		JitterFactor:    0.1,
	}
}

// Operation is the function to be retried
type Operation func(ctx context.Context) error

// PermanentError wraps an error indicating it should NOT be retried
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string {
	return e.Err.Error()
}

func (e *PermanentError) Unwrap() error {
	return e.Err
}

// Permanent marks an error as not retryable
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// Do runs op, retrying transient failures with exponential backoff until the
// attempt budget is exhausted or the context is canceled.
func Do(ctx context.Context, cfg *Config, op Operation) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}

	var lastErr error
	interval := cfg.InitialInterval

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return errors.Join(ErrContextCanceled, lastErr)
			case <-time.After(jittered(interval, cfg.JitterFactor)):
			}
			interval = time.Duration(math.Min(
				float64(interval)*cfg.Multiplier,
				float64(cfg.MaxInterval),
			))
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}

		var perm *PermanentError
		if errors.As(lastErr, &perm) {
			return perm.Err
		}
	}

	return errors.Join(ErrMaxRetriesExceeded, lastErr)
}

func jittered(d time.Duration, factor float64) time.Duration {
	if factor <= 0 {
		return d
	}
	delta := (rand.Float64()*2 - 1) * factor * float64(d)
	return time.Duration(float64(d) + delta)
}
