package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/yashrajoria/payment-api/models"
	aws_pkg "github.com/yashrajoria/payment-api/pkg/aws"
)

// EventPublisher delivers payment events to a downstream sink.
type EventPublisher interface {
	PublishPaymentEvent(ctx context.Context, event models.PaymentEvent) error
}

// SNSEventPublisher publishes payment events as JSON to an SNS topic.
type SNSEventPublisher struct {
	client   aws_pkg.SNSPublisher
	topicArn string
}

func NewSNSEventPublisher(client aws_pkg.SNSPublisher, topicArn string) *SNSEventPublisher {
	return &SNSEventPublisher{client: client, topicArn: topicArn}
}

// PublishPaymentEvent publishes event as JSON with an event_type attribute
// subscribers can filter on.
func (p *SNSEventPublisher) PublishPaymentEvent(ctx context.Context, event models.PaymentEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal payment event: %w", err)
	}
	return p.client.Publish(ctx, p.topicArn, payload, map[string]string{"event_type": event.Type})
}
