package broker

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stocklift/picking-orchestrator/internal/observability"
	"github.com/stocklift/picking-orchestrator/internal/shell"
)

const defaultRestartDelay = 2 * time.Second

// Runner drives one consumer group: it fetches messages, dispatches them to
// the handler, and applies the acknowledgment policy of the error taxonomy.
//
//   - nil: side effect done, commit the offset.
//   - poison (shell.IsPoison): producer bug, log at error level and commit
//     so the stream is not blocked.
//   - retryable (shell.IsRetryable): leave the offset uncommitted and
//     recreate the consumer, which makes the broker redeliver from the last
//     committed offset.
//   - anything else: treated as poison, but logged loudly; an unclassified
//     error must not wedge a partition forever.
type Runner struct {
	name         string
	factory      ConsumerFactory
	handler      Handler
	concurrency  int
	restartDelay time.Duration
	logger       observability.Logger
	metrics      observability.MetricsCollector
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithRestartDelay overrides the pause before a worker recreates its
// consumer after a retryable failure.
func WithRestartDelay(delay time.Duration) RunnerOption {
	return func(r *Runner) {
		if delay > 0 {
			r.restartDelay = delay
		}
	}
}

// NewRunner creates a runner. concurrency is the number of parallel group
// members; the group assigns partitions among them, so messages of one
// partition are always handled by exactly one worker at a time.
func NewRunner(
	name string,
	factory ConsumerFactory,
	handler Handler,
	concurrency int,
	logger observability.Logger,
	metrics observability.MetricsCollector,
	options ...RunnerOption,
) *Runner {
	if concurrency < 1 {
		concurrency = 1
	}

	runner := &Runner{
		name:         name,
		factory:      factory,
		handler:      handler,
		concurrency:  concurrency,
		restartDelay: defaultRestartDelay,
		logger:       logger,
		metrics:      metrics,
	}

	for _, option := range options {
		option(runner)
	}

	return runner
}

// Run blocks until ctx is canceled, keeping the worker pool alive across
// retryable failures.
func (r *Runner) Run(ctx context.Context) error {
	group, groupCtx := errgroup.WithContext(ctx)

	for i := 0; i < r.concurrency; i++ {
		worker := i
		group.Go(func() error {
			return r.runWorker(groupCtx, worker)
		})
	}

	return group.Wait()
}

func (r *Runner) runWorker(ctx context.Context, worker int) error {
	for {
		consumer := r.factory()

		err := r.consumeLoop(ctx, consumer)
		_ = consumer.Close()

		if ctx.Err() != nil {
			r.logger.Info("consumer worker stopping", "runner", r.name, "worker", worker)
			return nil
		}

		r.logger.Warn("consumer worker restarting after retryable failure",
			"runner", r.name, "worker", worker, "error", err, "restart_delay", r.restartDelay)
		r.metrics.IncrementCounter("consumer_worker_restarts_total", map[string]string{"runner": r.name})

		select {
		case <-time.After(r.restartDelay):
		case <-ctx.Done():
			return nil
		}
	}
}

// consumeLoop processes messages until a retryable failure or context
// cancellation. Returning a non-nil error without committing is this
// service's equivalent of "rethrow so the broker redelivers".
func (r *Runner) consumeLoop(ctx context.Context, consumer Consumer) error {
	for {
		msg, err := consumer.FetchMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}

			r.logger.Error("fetching message failed", "runner", r.name, "error", err)
			return err
		}

		handleErr := r.handler.Handle(ctx, msg)

		switch {
		case handleErr == nil:
			// fall through to commit

		case shell.IsRetryable(handleErr):
			r.logger.Warn("message handling failed, leaving uncommitted for redelivery",
				"runner", r.name, "topic", msg.Topic, "partition", msg.Partition,
				"offset", msg.Offset, "key", string(msg.Key), "error", handleErr)
			r.metrics.IncrementCounter("consumer_messages_redelivered_total", map[string]string{"runner": r.name})

			return handleErr

		default:
			// Poison or unclassified: retrying cannot fix it, acknowledge
			// so the stream keeps flowing.
			r.logger.Error("dropping unprocessable message",
				"runner", r.name, "topic", msg.Topic, "partition", msg.Partition,
				"offset", msg.Offset, "key", string(msg.Key),
				"classified_poison", shell.IsPoison(handleErr), "error", handleErr)
			r.metrics.IncrementCounter("consumer_messages_poisoned_total", map[string]string{"runner": r.name})
		}

		if err := consumer.CommitMessages(ctx, msg); err != nil {
			r.logger.Error("committing offset failed", "runner", r.name, "error", err)
			return err
		}
	}
}
