package events

import (
	"context"
	"encoding/json"
	"fmt"
	"heritage-route-service/internal/ports"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

// MessageWriter is the part of kafka.Writer the publisher needs, so tests
// can substitute an in-memory writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher publishes route events as JSON, keyed by session id so a
// session's events land on one partition.
type KafkaPublisher struct {
	writer  MessageWriter
	timeout time.Duration
}

func NewKafkaPublisher(broker, topic string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(broker),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
	}
	return NewPublisherWithWriter(w)
}

func NewPublisherWithWriter(w MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: w, timeout: 5 * time.Second}
}

var _ ports.RouteEventPublisher = (*KafkaPublisher)(nil)

// Publish writes one event. The write is bounded by the publisher timeout
// and detached from request cancellation, so a client hanging up does not
// drop the event.
func (p *KafkaPublisher) Publish(ctx context.Context, ev ports.RouteEvent) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("publish route event: encode: %w", err)
	}

	key := ev.SessionID
	if key == "" {
		key = ev.Outcome
	}

	wctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), p.timeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(key),
		Value: value,
		Time:  ev.At,
		Headers: []kafka.Header{
			{Key: "outcome", Value: []byte(ev.Outcome)},
		},
	}
	if err := p.writer.WriteMessages(wctx, msg); err != nil {
		return fmt.Errorf("publish route event outcome=%s: %w", ev.Outcome, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	log.Println("Closing route event writer...")
	return p.writer.Close()
}
