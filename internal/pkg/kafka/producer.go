package kafka

import (
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"
)

// NewProducer initializes and returns a new Kafka writer (producer).
// Writes are asynchronous; failures are only reported through logger.
func NewProducer(logger *slog.Logger, brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{}, // Events of one session stay ordered on one partition.
		RequiredAcks:           kafka.RequireOne,
		Async:                  true,
		BatchTimeout:           50 * time.Millisecond,
		AllowAutoTopicCreation: true,
		Completion: func(messages []kafka.Message, err error) {
			if err != nil {
				logger.Error("Kafka async write failed", "topic", topic, "messages", len(messages), "error", err)
			}
		},
	}
}
