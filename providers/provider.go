package providers

import (
	"context"

	"github.com/yashrajoria/payment-api/models"

	"github.com/shopspring/decimal"
)

// CreateIntentInput carries a create request in major currency units.
type CreateIntentInput struct {
	Amount      decimal.Decimal
	Currency    string
	Description string
	Metadata    map[string]string
}

// PaymentProvider defines the payment-intent operations every provider
// integration must implement. Failures are returned as
// *errors.ProviderError when the provider categorised them.
type PaymentProvider interface {
	// CreateIntent creates a payment intent and returns it with its client secret.
	CreateIntent(ctx context.Context, in CreateIntentInput) (*models.PaymentIntentView, error)

	// RetrieveIntent fetches a payment intent, client secret included.
	RetrieveIntent(ctx context.Context, id string) (*models.PaymentIntentView, error)

	// ConfirmIntent confirms a payment intent.
	ConfirmIntent(ctx context.Context, id string) (*models.PaymentIntentView, error)

	// CreateRefund refunds a payment intent. A nil amount refunds in full.
	CreateRefund(ctx context.Context, intentID string, amount *decimal.Decimal) (*models.RefundView, error)

	// ListIntents returns one forward page of intents after startingAfter.
	ListIntents(ctx context.Context, limit int64, startingAfter string) (*models.PaymentIntentPage, error)
}
