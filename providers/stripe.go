package providers

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/yashrajoria/payment-api/common/errors"
	"github.com/yashrajoria/payment-api/models"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v80"
	"github.com/stripe/stripe-go/v80/client"
	"go.uber.org/zap"
)

// StripeOptions tweaks how the Stripe client reaches the API.
type StripeOptions struct {
	// BaseURL overrides https://api.stripe.com, e.g. for stripe-mock.
	BaseURL    string
	HTTPClient *http.Client
}

// StripeProvider implements PaymentProvider on the Stripe API.
type StripeProvider struct {
	api    *client.API
	logger *zap.Logger
}

// NewStripeProvider builds a Stripe client scoped to secretKey. The SDK's own
// network retries are disabled; failures go straight back to the caller.
func NewStripeProvider(secretKey string, opts StripeOptions, logger *zap.Logger) *StripeProvider {
	backends := &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, backendConfig(opts, logger)),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, backendConfig(opts, logger)),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, backendConfig(opts, logger)),
	}
	return &StripeProvider{
		api:    client.New(secretKey, backends),
		logger: logger,
	}
}

// backendConfig returns a fresh config per backend; the SDK fills defaults
// into the struct it is given.
func backendConfig(opts StripeOptions, logger *zap.Logger) *stripe.BackendConfig {
	cfg := &stripe.BackendConfig{
		MaxNetworkRetries: stripe.Int64(0),
		LeveledLogger:     logger.Sugar(),
		HTTPClient:        opts.HTTPClient,
	}
	if opts.BaseURL != "" {
		cfg.URL = stripe.String(opts.BaseURL)
	}
	return cfg
}

// CreateIntent creates a PaymentIntent with automatic payment methods enabled.
func (s *StripeProvider) CreateIntent(ctx context.Context, in CreateIntentInput) (*models.PaymentIntentView, error) {
	minor, err := ToMinorUnits(in.Amount)
	if err != nil {
		return nil, amountError(in.Amount)
	}
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(minor),
		Currency: stripe.String(strings.ToLower(in.Currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	if in.Description != "" {
		params.Description = stripe.String(in.Description)
	}
	for k, v := range in.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return nil, toProviderError(err)
	}
	s.logger.Debug("stripe payment intent created", zap.String("payment_intent_id", pi.ID))
	return toIntentView(pi, true), nil
}

// RetrieveIntent fetches a PaymentIntent by id.
func (s *StripeProvider) RetrieveIntent(ctx context.Context, id string) (*models.PaymentIntentView, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := s.api.PaymentIntents.Get(id, params)
	if err != nil {
		return nil, toProviderError(err)
	}
	return toIntentView(pi, true), nil
}

// ConfirmIntent confirms a PaymentIntent.
func (s *StripeProvider) ConfirmIntent(ctx context.Context, id string) (*models.PaymentIntentView, error) {
	params := &stripe.PaymentIntentConfirmParams{}
	params.Context = ctx

	pi, err := s.api.PaymentIntents.Confirm(id, params)
	if err != nil {
		return nil, toProviderError(err)
	}
	return toIntentView(pi, false), nil
}

// CreateRefund refunds intentID. The amount field is only sent for partial
// refunds.
func (s *StripeProvider) CreateRefund(ctx context.Context, intentID string, amount *decimal.Decimal) (*models.RefundView, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(intentID),
	}
	params.Context = ctx
	if amount != nil {
		minor, err := ToMinorUnits(*amount)
		if err != nil {
			return nil, amountError(*amount)
		}
		params.Amount = stripe.Int64(minor)
	}

	r, err := s.api.Refunds.New(params)
	if err != nil {
		return nil, toProviderError(err)
	}

	view := &models.RefundView{
		ID:       r.ID,
		Amount:   FromMinorUnits(r.Amount).InexactFloat64(),
		Currency: strings.ToUpper(string(r.Currency)),
		Status:   string(r.Status),
		Created:  time.Unix(r.Created, 0).UTC(),
	}
	if r.PaymentIntent != nil {
		view.PaymentIntentID = r.PaymentIntent.ID
	}
	return view, nil
}

// ListIntents fetches a single page; the iterator is never advanced past it.
func (s *StripeProvider) ListIntents(ctx context.Context, limit int64, startingAfter string) (*models.PaymentIntentPage, error) {
	params := &stripe.PaymentIntentListParams{}
	params.Context = ctx
	params.Limit = stripe.Int64(limit)
	params.Single = true
	if startingAfter != "" {
		params.StartingAfter = stripe.String(startingAfter)
	}

	it := s.api.PaymentIntents.List(params)
	page := &models.PaymentIntentPage{Data: []models.PaymentIntentView{}}
	for it.Next() {
		page.Data = append(page.Data, *toIntentView(it.PaymentIntent(), false))
	}
	if err := it.Err(); err != nil {
		return nil, toProviderError(err)
	}

	if meta := it.Meta(); meta != nil {
		page.HasMore = meta.HasMore
	}
	if n := len(page.Data); n > 0 && page.HasMore {
		page.NextCursor = page.Data[n-1].ID
	}
	return page, nil
}

func toIntentView(pi *stripe.PaymentIntent, withSecret bool) *models.PaymentIntentView {
	view := &models.PaymentIntentView{
		ID:          pi.ID,
		Status:      string(pi.Status),
		Amount:      FromMinorUnits(pi.Amount).InexactFloat64(),
		Currency:    strings.ToUpper(string(pi.Currency)),
		Description: pi.Description,
		Metadata:    pi.Metadata,
		Created:     time.Unix(pi.Created, 0).UTC(),
	}
	if withSecret {
		view.ClientSecret = pi.ClientSecret
	}
	return view
}

// toProviderError tags Stripe API errors by category. Anything else
// (transport failures, context cancellation) is returned unchanged.
// amountError rejects an amount before it reaches Stripe.
func amountError(amount decimal.Decimal) error {
	return apperrors.NewValidationError(apperrors.FieldError{
		Field:   "amount",
		Message: "Amount must be between 0.01 and 999999.99",
		Value:   amount.String(),
	})
}

func toProviderError(err error) error {
	var se *stripe.Error
	if !errors.As(err, &se) {
		return err
	}

	pe := &apperrors.ProviderError{
		Message:    se.Msg,
		Code:       string(se.Code),
		Param:      se.Param,
		StatusCode: se.HTTPStatusCode,
		Err:        err,
	}
	switch se.Type {
	case stripe.ErrorTypeCard:
		pe.Kind = apperrors.KindCard
	case stripe.ErrorTypeInvalidRequest:
		pe.Kind = apperrors.KindInvalidRequest
	case stripe.ErrorTypeAPI:
		pe.Kind = apperrors.KindAPI
	case stripe.ErrorTypeIdempotency:
		pe.Kind = apperrors.KindIdempotency
	default:
		pe.Kind = apperrors.KindUnknown
	}
	return pe
}
