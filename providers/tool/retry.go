package tool

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

// ErrRetryExhausted wraps the last failure when every retry attempt has
// been spent.
var ErrRetryExhausted = errors.New("retry attempts exhausted")

// RetryConfig holds the tuning parameters for [WithRetry]. Zero values are
// replaced with the defaults documented on each field.
type RetryConfig struct {
	// MaxRetries is the number of retry attempts after the first failure.
	// A value of 3 means the tool is called at most 4 times. Default: 3.
	MaxRetries int

	// InitialBackoff is the wait before the first retry. Default: 1s.
	InitialBackoff time.Duration

	// MaxBackoff caps the computed backoff. Default: 30s.
	MaxBackoff time.Duration

	// BackoffFactor is the exponential growth multiplier
	// (backoff = min(InitialBackoff * BackoffFactor^attempt, MaxBackoff)).
	// Default: 2.0.
	BackoffFactor float64

	// JitterFraction adds random noise in [0, JitterFraction*backoff] to
	// avoid synchronized retries. Default: 0.1.
	JitterFraction float64
}

func applyRetryDefaults(config *RetryConfig) {
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.InitialBackoff == 0 {
		config.InitialBackoff = time.Second
	}
	if config.MaxBackoff == 0 {
		config.MaxBackoff = 30 * time.Second
	}
	if config.BackoffFactor == 0 {
		config.BackoffFactor = 2.0
	}
	if config.JitterFraction == 0 {
		config.JitterFraction = 0.1
	}
}

// computeBackoff returns the backoff for the given attempt (0-indexed):
// min(InitialBackoff * BackoffFactor^attempt, MaxBackoff) + jitter.
func computeBackoff(config RetryConfig, attempt int) time.Duration {
	base := float64(config.InitialBackoff) * math.Pow(config.BackoffFactor, float64(attempt))
	if base > float64(config.MaxBackoff) {
		base = float64(config.MaxBackoff)
	}
	jitter := base * config.JitterFraction * rand.Float64() //nolint:gosec // non-cryptographic jitter is intentional
	return time.Duration(base + jitter)
}

// WithRetry wraps a tool so transient failures are retried with exponential
// backoff and jitter. Permanent failures propagate immediately, as does
// context cancellation between attempts. On exhaustion the returned error
// wraps [ErrRetryExhausted], the last failure, and keeps the transient
// classification so observers still see the failure kind.
//
// This is the retry policy the agent runner deliberately does not have: the
// loop's contract is one dispatch per step, so retries live with the tool.
func WithRetry(inner GenericTool, config RetryConfig) GenericTool {
	applyRetryDefaults(&config)
	return &retryTool{inner: inner, config: config}
}

type retryTool struct {
	inner  GenericTool
	config RetryConfig
}

func (t *retryTool) ToolInfo() Description {
	return t.inner.ToolInfo()
}

func (t *retryTool) Call(ctx context.Context, inputJSON string) (string, error) {
	var lastErr error

	for attempt := 0; attempt <= t.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := computeBackoff(t.config, attempt-1)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		output, err := t.inner.Call(ctx, inputJSON)
		if err == nil {
			return output, nil
		}
		lastErr = err

		if KindOf(err) != FailureTransient {
			return "", err
		}
	}

	return "", Transient(fmt.Errorf("%w after %d retries: %w", ErrRetryExhausted, t.config.MaxRetries, lastErr))
}
