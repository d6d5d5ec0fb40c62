package shell

import "errors"

// The error taxonomy below is what the broker runner inspects to decide
// between acknowledging a message and letting the broker redeliver it.
var (
	// ErrConcurrencyConflict indicates an optimistic-lock conflict: the row
	// version changed between read and write. Retryable in-process.
	ErrConcurrencyConflict = errors.New("concurrency conflict, no rows were affected")

	// ErrMalformedEvent indicates a poison message: a payload that can never
	// be processed no matter how often it is redelivered. It must be
	// acknowledged and logged, never retried, since it signals a producer
	// bug.
	ErrMalformedEvent = errors.New("malformed event")

	// ErrDownstreamUnavailable indicates a transient collaborator failure
	// (connection refused, 5xx, client-side timeout). Not acknowledged, so
	// the broker redelivers per its own policy.
	ErrDownstreamUnavailable = errors.New("downstream service unavailable")
)

// IsRetryable reports whether the broker should redeliver the message that
// produced err. Exhausted local retries surface their last error, so a
// concurrency conflict that survived the in-process retry loop also lands
// here and converts into a broker-level redelivery.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrDownstreamUnavailable) || errors.Is(err, ErrConcurrencyConflict)
}

// IsPoison reports whether err marks a message that retrying cannot fix.
func IsPoison(err error) bool {
	return errors.Is(err, ErrMalformedEvent)
}
