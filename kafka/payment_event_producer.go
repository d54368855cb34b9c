package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/yashrajoria/payment-api/models"

	"github.com/segmentio/kafka-go"
)

// BatchTimeout bounds how long a single event waits for a batch to fill.
// Writes are synchronous, so it adds directly to request latency.
const BatchTimeout = 10 * time.Millisecond

// messageWriter is the part of *kafka.Writer the producer uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// PaymentEventProducer writes payment events to a Kafka topic, keyed by
// payment intent id so events for one intent stay ordered.
type PaymentEventProducer struct {
	writer messageWriter
	topic  string
}

func NewPaymentEventProducer(brokers []string, topic string) *PaymentEventProducer {
	w := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: BatchTimeout,
	}
	return &PaymentEventProducer{writer: w, topic: topic}
}

func newPaymentEventProducerWithWriter(w messageWriter, topic string) *PaymentEventProducer {
	return &PaymentEventProducer{writer: w, topic: topic}
}

func (p *PaymentEventProducer) PublishPaymentEvent(ctx context.Context, event models.PaymentEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal payment event: %w", err)
	}

	msg := kafka.Message{
		Key:   []byte(event.PaymentIntentID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka write to %s: %w", p.topic, err)
	}
	return nil
}

func (p *PaymentEventProducer) Close() error {
	return p.writer.Close()
}
