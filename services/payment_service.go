package services

import (
	"context"
	"fmt"
	"time"

	"github.com/yashrajoria/payment-api/models"
	"github.com/yashrajoria/payment-api/providers"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// List limits accepted by the provider.
const (
	MinListLimit     = 1
	MaxListLimit     = 100
	DefaultListLimit = 10
)

// Business metric names recorded after successful provider calls.
const (
	MetricPaymentIntentsCreated = "PaymentIntentsCreated"
	MetricPaymentsConfirmed     = "PaymentsConfirmed"
	MetricRefundsCreated        = "RefundsCreated"
)

// PaymentService defines the payment operations exposed over HTTP.
type PaymentService interface {
	CreatePaymentIntent(ctx context.Context, req *models.CreatePaymentIntentRequest) (*models.PaymentIntentView, error)
	ConfirmPayment(ctx context.Context, paymentIntentID string) (*models.PaymentIntentView, error)
	GetPaymentIntent(ctx context.Context, paymentIntentID string) (*models.PaymentIntentView, error)
	CreateRefund(ctx context.Context, req *models.RefundRequest) (*models.RefundView, error)
	ListPaymentIntents(ctx context.Context, req *models.ListPaymentIntentsRequest) (*models.PaymentIntentPage, error)
}

// MetricsRecorder is the subset of the CloudWatch client the service needs.
type MetricsRecorder interface {
	RecordCount(ctx context.Context, metricName string, dimensions map[string]string) error
}

type paymentServiceImpl struct {
	provider  providers.PaymentProvider
	publisher EventPublisher
	metrics   MetricsRecorder
	logger    *zap.Logger
}

// NewPaymentService creates a PaymentService. publisher and metrics may be
// nil when those sinks are not configured.
func NewPaymentService(
	provider providers.PaymentProvider,
	publisher EventPublisher,
	metrics MetricsRecorder,
	logger *zap.Logger,
) PaymentService {
	return &paymentServiceImpl{
		provider:  provider,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

// CreatePaymentIntent creates an intent, defaulting currency to USD and
// metadata to an empty map.
func (s *paymentServiceImpl) CreatePaymentIntent(ctx context.Context, req *models.CreatePaymentIntentRequest) (*models.PaymentIntentView, error) {
	currency := req.Currency
	if currency == "" {
		currency = models.DefaultCurrency
	}

	in := providers.CreateIntentInput{
		Amount:   req.Amount,
		Currency: currency,
		Metadata: flattenMetadata(req.Metadata),
	}
	if req.Description != nil {
		in.Description = *req.Description
	}

	intent, err := s.provider.CreateIntent(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("create payment intent: %w", err)
	}

	s.logger.Info("Payment intent created",
		zap.String("payment_intent_id", intent.ID),
		zap.String("status", intent.Status),
		zap.Float64("amount", intent.Amount),
		zap.String("currency", intent.Currency),
	)
	s.emit(ctx, models.EventPaymentIntentCreated, MetricPaymentIntentsCreated, models.PaymentEvent{
		PaymentIntentID: intent.ID,
		Status:          intent.Status,
		Amount:          intent.Amount,
		Currency:        intent.Currency,
	})
	return intent, nil
}

// ConfirmPayment confirms an intent unless it has already succeeded, in which
// case the retrieved intent is returned as-is. The check and the confirm are
// two separate provider calls; a concurrent change in between is left to the
// provider to reject.
func (s *paymentServiceImpl) ConfirmPayment(ctx context.Context, paymentIntentID string) (*models.PaymentIntentView, error) {
	current, err := s.provider.RetrieveIntent(ctx, paymentIntentID)
	if err != nil {
		return nil, fmt.Errorf("retrieve payment intent %s: %w", paymentIntentID, err)
	}

	if current.Status == models.StatusSucceeded {
		s.logger.Info("Payment intent already succeeded, skipping confirm",
			zap.String("payment_intent_id", paymentIntentID),
		)
		return current, nil
	}

	confirmed, err := s.provider.ConfirmIntent(ctx, paymentIntentID)
	if err != nil {
		return nil, fmt.Errorf("confirm payment intent %s: %w", paymentIntentID, err)
	}

	s.logger.Info("Payment intent confirmed",
		zap.String("payment_intent_id", confirmed.ID),
		zap.String("status", confirmed.Status),
	)
	s.emit(ctx, models.EventPaymentConfirmed, MetricPaymentsConfirmed, models.PaymentEvent{
		PaymentIntentID: confirmed.ID,
		Status:          confirmed.Status,
		Amount:          confirmed.Amount,
		Currency:        confirmed.Currency,
	})
	return confirmed, nil
}

func (s *paymentServiceImpl) GetPaymentIntent(ctx context.Context, paymentIntentID string) (*models.PaymentIntentView, error) {
	intent, err := s.provider.RetrieveIntent(ctx, paymentIntentID)
	if err != nil {
		return nil, fmt.Errorf("retrieve payment intent %s: %w", paymentIntentID, err)
	}
	return intent, nil
}

// CreateRefund issues a full refund when req.Amount is nil, a partial one
// otherwise. The refundable balance is checked by the provider.
func (s *paymentServiceImpl) CreateRefund(ctx context.Context, req *models.RefundRequest) (*models.RefundView, error) {
	refund, err := s.provider.CreateRefund(ctx, req.PaymentIntentID, req.Amount)
	if err != nil {
		return nil, fmt.Errorf("refund payment intent %s: %w", req.PaymentIntentID, err)
	}

	s.logger.Info("Refund created",
		zap.String("refund_id", refund.ID),
		zap.String("payment_intent_id", refund.PaymentIntentID),
		zap.Bool("partial", req.Amount != nil),
		zap.Float64("amount", refund.Amount),
	)
	s.emit(ctx, models.EventRefundCreated, MetricRefundsCreated, models.PaymentEvent{
		PaymentIntentID: refund.PaymentIntentID,
		RefundID:        refund.ID,
		Status:          refund.Status,
		Amount:          refund.Amount,
		Currency:        refund.Currency,
	})
	return refund, nil
}

// ListPaymentIntents returns one page, clamping the limit to [1,100].
func (s *paymentServiceImpl) ListPaymentIntents(ctx context.Context, req *models.ListPaymentIntentsRequest) (*models.PaymentIntentPage, error) {
	limit := ClampListLimit(req.Limit)

	page, err := s.provider.ListIntents(ctx, limit, req.StartingAfter)
	if err != nil {
		return nil, fmt.Errorf("list payment intents: %w", err)
	}
	return page, nil
}

// ClampListLimit pins limit into [MinListLimit, MaxListLimit]. Zero and
// negative values clamp up to MinListLimit rather than being rejected.
func ClampListLimit(limit int64) int64 {
	switch {
	case limit < MinListLimit:
		return MinListLimit
	case limit > MaxListLimit:
		return MaxListLimit
	default:
		return limit
	}
}

// emit publishes an event and bumps a metric. Neither may fail the request.
func (s *paymentServiceImpl) emit(ctx context.Context, eventType, metricName string, event models.PaymentEvent) {
	event.Type = eventType
	event.Timestamp = time.Now().UTC()

	if s.publisher != nil {
		if err := s.publisher.PublishPaymentEvent(ctx, event); err != nil {
			s.logger.Error("Failed to publish payment event",
				zap.String("event_type", eventType),
				zap.String("payment_intent_id", event.PaymentIntentID),
				zap.Error(err),
			)
		}
	}

	if s.metrics != nil {
		dims := map[string]string{"Service": "payment-api", "Currency": event.Currency}
		if err := s.metrics.RecordCount(ctx, metricName, dims); err != nil {
			s.logger.Warn("Failed to record metric", zap.String("metric", metricName), zap.Error(err))
		}
	}
}

// flattenMetadata converts validated scalar metadata into the string map the
// provider accepts. A nil map becomes an empty one.
func flattenMetadata(in map[string]any) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		switch val := v.(type) {
		case nil:
			out[k] = ""
		case string:
			out[k] = val
		case float64:
			out[k] = decimal.NewFromFloat(val).String()
		default:
			out[k] = fmt.Sprint(val)
		}
	}
	return out
}
