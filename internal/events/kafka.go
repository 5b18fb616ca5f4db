// Package events publishes game lifecycle events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"

	"github.com/cheildo/game-of-three/internal/game"
)

const headerEventType = "event-type"

var _ game.EventPublisher = (*KafkaPublisher)(nil)

type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaPublisher writes one message per event, keyed by session so that the
// events of a game stay in order.
type KafkaPublisher struct {
	writer writer
}

func NewKafkaPublisher(w writer) *KafkaPublisher {
	return &KafkaPublisher{writer: w}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event game.Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("could not encode %s event: %w", event.Type, err)
	}

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.SessionID),
		Value: value,
		Headers: []kafka.Header{
			{Key: headerEventType, Value: []byte(event.Type)},
		},
		Time: event.OccurredAt,
	})
	if err != nil {
		return fmt.Errorf("could not publish %s event: %w", event.Type, err)
	}
	return nil
}
