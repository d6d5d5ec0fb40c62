package shell

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"time"

	"github.com/stocklift/picking-orchestrator/internal/observability"
)

const (
	defaultMaxAttempts  = 6
	defaultBaseDelay    = 10 * time.Millisecond
	defaultJitterFactor = 0.3
)

// Metric names emitted by the retry loop.
const (
	RetryAttemptsMetric    = "consumer_handler_retries_total"
	RetryDelayMetric       = "consumer_handler_retry_delay"
	RetriesExhaustedMetric = "consumer_handler_retries_exhausted_total"
)

var (
	// ErrInvalidMaxAttempts is returned when max attempts are not positive.
	ErrInvalidMaxAttempts = errors.New("max attempts must be positive")

	// ErrNegativeBaseDelay is returned when the base delay is negative.
	ErrNegativeBaseDelay = errors.New("base delay must not be negative")

	// ErrInvalidJitterFactor is returned when the jitter factor is not between 0.0 and 1.0.
	ErrInvalidJitterFactor = errors.New("jitter factor must be between 0.0 and 1.0")
)

// RetryableFunc represents a function that can be retried.
//
// For optimistic-concurrency retries the function MUST reload the aggregate
// and recompute the intended transition from scratch on every invocation.
// Retrying a stale in-memory mutation would re-apply a decision that was
// made against state that no longer exists.
type RetryableFunc func(ctx context.Context) error

// RetryMetrics captures what happened during a retry loop execution.
type RetryMetrics struct {
	// Attempts is the total number of attempts made (1 means no retries).
	Attempts int

	// TotalDelay is the cumulative time spent sleeping between attempts.
	TotalDelay time.Duration

	// LastErrorType describes the final error: "none", "concurrency_conflict",
	// "context_canceled", "context_deadline_exceeded", or "other".
	LastErrorType string

	// RetriesExhausted is true when all attempts were used up on a
	// retryable error.
	RetriesExhausted bool
}

// retryConfig holds configuration for exponential backoff retry logic.
type retryConfig struct {
	maxAttempts      int
	baseDelay        time.Duration
	jitterFactor     float64
	metricsCollector observability.MetricsCollector
	handlerName      string
}

// RetryOption configures retry behavior using the functional options pattern.
type RetryOption func(*retryConfig) error

// RetryWithExponentialBackoff executes fn with bounded retries on
// optimistic-concurrency conflicts, doubling the delay per attempt and
// adding a small random jitter to avoid thundering-herd retries.
//
// Default schedule: 0 ms, 10 ms, 20 ms, 40 ms, 80 ms, 160 ms (plus jitter),
// roughly 300 ms worst case. Only ErrConcurrencyConflict is retried; every
// other error fails fast and is returned as-is.
func RetryWithExponentialBackoff(
	ctx context.Context,
	fn RetryableFunc,
	options ...RetryOption,
) (RetryMetrics, error) {
	config := &retryConfig{
		maxAttempts:  defaultMaxAttempts,
		baseDelay:    defaultBaseDelay,
		jitterFactor: defaultJitterFactor,
	}

	metrics := RetryMetrics{LastErrorType: "none"}

	for _, option := range options {
		if err := option(config); err != nil {
			return metrics, err
		}
	}

	var lastErr error

	for attempt := 0; attempt < config.maxAttempts; attempt++ {
		if attempt > 0 {
			// Exponential backoff: baseDelay * 2^(attempt-1)
			delay := config.baseDelay * time.Duration(1<<(attempt-1))

			jitter := rand.Float64() * float64(delay) * config.jitterFactor //nolint:gosec // math/rand is sufficient for jitter
			backoffDelay := delay + time.Duration(jitter)

			recordRetryDelay(config, attempt, backoffDelay)

			select {
			case <-time.After(backoffDelay):
				metrics.TotalDelay += backoffDelay
			case <-ctx.Done():
				metrics.Attempts = attempt
				metrics.LastErrorType = errorTypeOf(ctx.Err())

				return metrics, ctx.Err()
			}
		}

		metrics.Attempts = attempt + 1

		lastErr = fn(ctx)
		if lastErr == nil {
			metrics.LastErrorType = "none"

			return metrics, nil
		}

		metrics.LastErrorType = errorTypeOf(lastErr)

		if !errors.Is(lastErr, ErrConcurrencyConflict) {
			return metrics, lastErr // Permanent failure, fail fast
		}

		recordRetryAttempt(config, attempt, lastErr)
	}

	metrics.RetriesExhausted = true
	recordRetriesExhausted(config, lastErr)

	return metrics, lastErr
}

func recordRetryDelay(config *retryConfig, attempt int, delay time.Duration) {
	if config.metricsCollector == nil {
		return
	}

	config.metricsCollector.RecordDuration(RetryDelayMetric, delay, map[string]string{
		"handler":        config.handlerName,
		"attempt_number": strconv.Itoa(attempt),
	})
}

func recordRetryAttempt(config *retryConfig, attempt int, lastErr error) {
	if attempt >= config.maxAttempts-1 || config.metricsCollector == nil {
		return
	}

	config.metricsCollector.IncrementCounter(RetryAttemptsMetric, map[string]string{
		"handler":    config.handlerName,
		"error_type": errorTypeOf(lastErr),
	})
}

func recordRetriesExhausted(config *retryConfig, lastErr error) {
	if config.metricsCollector == nil {
		return
	}

	config.metricsCollector.IncrementCounter(RetriesExhaustedMetric, map[string]string{
		"handler":          config.handlerName,
		"final_error_type": errorTypeOf(lastErr),
	})
}

// errorTypeOf extracts a string representation of the error type for
// metrics labeling.
func errorTypeOf(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrConcurrencyConflict):
		return "concurrency_conflict"
	case errors.Is(err, context.Canceled):
		return "context_canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "context_deadline_exceeded"
	default:
		return "other"
	}
}

// WithMaxAttempts sets the maximum number of retry attempts.
func WithMaxAttempts(attempts int) RetryOption {
	return func(config *retryConfig) error {
		if attempts <= 0 {
			return ErrInvalidMaxAttempts
		}

		config.maxAttempts = attempts

		return nil
	}
}

// WithBaseDelay sets the base delay for exponential backoff.
func WithBaseDelay(delay time.Duration) RetryOption {
	return func(config *retryConfig) error {
		if delay < 0 {
			return ErrNegativeBaseDelay
		}

		config.baseDelay = delay

		return nil
	}
}

// WithJitterFactor sets the jitter factor. Valid range: 0.0 (no jitter) to
// 1.0 (100% jitter).
func WithJitterFactor(factor float64) RetryOption {
	return func(config *retryConfig) error {
		if factor < 0.0 || factor > 1.0 {
			return ErrInvalidJitterFactor
		}

		config.jitterFactor = factor

		return nil
	}
}

// WithRetryMetrics sets the metrics collector for retry instrumentation,
// labeled with the handler name.
func WithRetryMetrics(collector observability.MetricsCollector, handlerName string) RetryOption {
	return func(config *retryConfig) error {
		config.metricsCollector = collector
		config.handlerName = handlerName

		return nil
	}
}
