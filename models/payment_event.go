package models

import "time"

// Payment event types published after successful provider calls.
const (
	EventPaymentIntentCreated = "payment_intent_created"
	EventPaymentConfirmed     = "payment_confirmed"
	EventRefundCreated        = "refund_created"
)

type PaymentEvent struct {
	Type            string    `json:"type"`
	PaymentIntentID string    `json:"payment_intent_id"`
	RefundID        string    `json:"refund_id,omitempty"`
	Status          string    `json:"status"`
	Amount          float64   `json:"amount"`   // major currency unit
	Currency        string    `json:"currency"` // "USD", "EUR"
	Timestamp       time.Time `json:"timestamp"`
}
