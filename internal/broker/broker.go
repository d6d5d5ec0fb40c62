// Package broker wraps the Kafka transport: a producer that keys messages
// by aggregate id and a consumer runner that enforces the error-taxonomy
// acknowledgment policy shared by all consumers.
package broker

import (
	"context"

	"github.com/segmentio/kafka-go"
)

// Producer writes messages to a topic.
type Producer interface {
	WriteMessage(ctx context.Context, msg kafka.Message) error
	Close() error
}

// Consumer fetches messages and commits offsets explicitly. Fetching does
// not acknowledge: a message counts as processed only once its offset is
// committed.
type Consumer interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Handler processes one fetched message. The returned error is classified
// by the runner: nil and poison both acknowledge, retryable errors leave
// the offset uncommitted so the broker redelivers.
type Handler interface {
	Handle(ctx context.Context, msg kafka.Message) error
}
