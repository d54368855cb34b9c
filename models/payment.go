package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment intent statuses as reported by Stripe. The service treats them as
// opaque strings except for StatusSucceeded.
const (
	StatusRequiresPaymentMethod = "requires_payment_method"
	StatusRequiresConfirmation  = "requires_confirmation"
	StatusRequiresAction        = "requires_action"
	StatusProcessing            = "processing"
	StatusRequiresCapture       = "requires_capture"
	StatusCanceled              = "canceled"
	StatusSucceeded             = "succeeded"
)

// DefaultCurrency is used when a create request carries no currency.
const DefaultCurrency = "USD"

// CreatePaymentIntentRequest is the payload for POST /payments/intent.
// Amount is in major currency units (e.g. dollars) and capped at Stripe's
// 99999999 minor units.
type CreatePaymentIntentRequest struct {
	Amount      decimal.Decimal `json:"amount" validate:"required,gte=0.01,lte=999999.99"`
	Currency    string          `json:"currency" validate:"required,len=3,alpha,uppercase"`
	Description *string         `json:"description,omitempty" validate:"omitnil,min=1,max=500"`
	Metadata    map[string]any  `json:"metadata,omitempty" validate:"omitnil,flatmap"`
}

// ConfirmPaymentRequest is the payload for POST /payments/confirm.
type ConfirmPaymentRequest struct {
	PaymentIntentID string `json:"paymentIntentId" validate:"required"`
}

// RefundRequest is the payload for POST /payments/refund. A nil Amount
// requests a full refund.
type RefundRequest struct {
	PaymentIntentID string           `json:"paymentIntentId" validate:"required"`
	Amount          *decimal.Decimal `json:"amount,omitempty" validate:"omitnil,gte=0.01,lte=999999.99"`
}

// ListPaymentIntentsRequest carries the list query after parsing.
type ListPaymentIntentsRequest struct {
	Limit         int64
	StartingAfter string
}

// PaymentIntentView is the stable shape returned to callers for a Stripe
// PaymentIntent. ClientSecret is only filled on create and retrieve.
type PaymentIntentView struct {
	ID           string            `json:"id"`
	Status       string            `json:"status"`
	Amount       float64           `json:"amount"`
	Currency     string            `json:"currency"`
	Description  string            `json:"description,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	Created      time.Time         `json:"created"`
	ClientSecret string            `json:"clientSecret,omitempty"`
}

// RefundView is the stable shape returned to callers for a Stripe Refund.
type RefundView struct {
	ID              string    `json:"id"`
	Amount          float64   `json:"amount"`
	Currency        string    `json:"currency"`
	Status          string    `json:"status"`
	PaymentIntentID string    `json:"paymentIntentId"`
	Created         time.Time `json:"created"`
}

// PaymentIntentPage is one forward page of payment intents.
type PaymentIntentPage struct {
	Data       []PaymentIntentView `json:"data"`
	NextCursor string              `json:"nextCursor,omitempty"`
	HasMore    bool                `json:"hasMore"`
}
