package broker

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
)

// KafkaProducer wraps a kafka-go Writer.
type KafkaProducer struct {
	writer *kafka.Writer
}

// NewKafkaProducer creates a producer for one topic. The hash balancer
// routes each message by its key, so all events for one aggregate land on
// one partition and are consumed in emission order.
func NewKafkaProducer(brokers []string, topic string) *KafkaProducer {
	return &KafkaProducer{
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// WriteMessage produces a single message.
func (p *KafkaProducer) WriteMessage(ctx context.Context, msg kafka.Message) error {
	return p.writer.WriteMessages(ctx, msg)
}

// Close flushes and closes the underlying writer.
func (p *KafkaProducer) Close() error {
	return p.writer.Close()
}

var _ Producer = (*KafkaProducer)(nil)

// ConsumerFactory creates a fresh Consumer. The runner recreates consumers
// after a retryable handler failure so fetching resumes from the last
// committed offset.
type ConsumerFactory func() Consumer

// NewKafkaConsumerFactory returns a factory producing group consumers for
// the given topic. Partition assignment within the group gives every
// partition to exactly one reader at a time.
func NewKafkaConsumerFactory(brokers []string, groupID string, topic string) ConsumerFactory {
	return func() Consumer {
		return kafka.NewReader(kafka.ReaderConfig{
			Brokers:        brokers,
			GroupID:        groupID,
			Topic:          topic,
			MinBytes:       1,
			MaxBytes:       10e6,
			MaxWait:        500 * time.Millisecond,
			CommitInterval: 0, // synchronous commits, ack only after the side effect
		})
	}
}
