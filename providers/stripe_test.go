package providers_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	apperrors "github.com/yashrajoria/payment-api/common/errors"
	"github.com/yashrajoria/payment-api/providers"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeStripe records every request it serves and replies with canned JSON.
type fakeStripe struct {
	mu       sync.Mutex
	requests []recordedRequest
	handler  func(w http.ResponseWriter, r *http.Request, form url.Values)
}

type recordedRequest struct {
	Method string
	Path   string
	Form   url.Values
}

func (f *fakeStripe) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	form := r.Form
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{Method: r.Method, Path: r.URL.Path, Form: form})
	f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	f.handler(w, r, form)
}

func (f *fakeStripe) last() recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func newTestProvider(t *testing.T, handler func(w http.ResponseWriter, r *http.Request, form url.Values)) (*providers.StripeProvider, *fakeStripe) {
	t.Helper()
	fake := &fakeStripe{handler: handler}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	p := providers.NewStripeProvider("sk_test_123", providers.StripeOptions{BaseURL: srv.URL}, zap.NewNop())
	return p, fake
}

const intentJSON = `{
	"id": "pi_123",
	"object": "payment_intent",
	"amount": 1050,
	"currency": "usd",
	"status": %q,
	"description": "Gift card",
	"metadata": {"order_id": "42"},
	"created": 1700000000,
	"client_secret": "pi_123_secret_abc"
}`

func TestCreateIntent_SendsMinorUnitsAndLowercaseCurrency(t *testing.T) {
	p, fake := newTestProvider(t, func(w http.ResponseWriter, r *http.Request, _ url.Values) {
		fmt.Fprintf(w, intentJSON, "requires_payment_method")
	})

	view, err := p.CreateIntent(context.Background(), providers.CreateIntentInput{
		Amount:      decimal.RequireFromString("10.50"),
		Currency:    "USD",
		Description: "Gift card",
		Metadata:    map[string]string{"order_id": "42"},
	})
	require.NoError(t, err)

	req := fake.last()
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/v1/payment_intents", req.Path)
	assert.Equal(t, "1050", req.Form.Get("amount"))
	assert.Equal(t, "usd", req.Form.Get("currency"))
	assert.Equal(t, "true", req.Form.Get("automatic_payment_methods[enabled]"))
	assert.Equal(t, "Gift card", req.Form.Get("description"))
	assert.Equal(t, "42", req.Form.Get("metadata[order_id]"))

	assert.Equal(t, "pi_123", view.ID)
	assert.Equal(t, 10.50, view.Amount)
	assert.Equal(t, "USD", view.Currency)
	assert.Equal(t, "requires_payment_method", view.Status)
	assert.Equal(t, "pi_123_secret_abc", view.ClientSecret)
	assert.Equal(t, int64(1700000000), view.Created.Unix())
}

func TestAmountsOutsideStripeRangeNeverLeaveTheProcess(t *testing.T) {
	p, fake := newTestProvider(t, func(w http.ResponseWriter, r *http.Request, _ url.Values) {
		fmt.Fprintf(w, intentJSON, "requires_payment_method")
	})

	for _, raw := range []string{"184467440737095526.16", "92233720368547758.08", "1000000"} {
		amount := decimal.RequireFromString(raw)

		_, err := p.CreateIntent(context.Background(), providers.CreateIntentInput{Amount: amount, Currency: "USD"})
		var ve *apperrors.ValidationError
		require.ErrorAs(t, err, &ve, raw)
		assert.Equal(t, "amount", ve.Fields[0].Field)

		_, err = p.CreateRefund(context.Background(), "pi_123", &amount)
		require.ErrorAs(t, err, &ve, raw)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Empty(t, fake.requests)
}

func TestRetrieveIntent_IncludesClientSecret(t *testing.T) {
	p, fake := newTestProvider(t, func(w http.ResponseWriter, r *http.Request, _ url.Values) {
		fmt.Fprintf(w, intentJSON, "requires_confirmation")
	})

	view, err := p.RetrieveIntent(context.Background(), "pi_123")
	require.NoError(t, err)

	assert.Equal(t, http.MethodGet, fake.last().Method)
	assert.Equal(t, "/v1/payment_intents/pi_123", fake.last().Path)
	assert.Equal(t, "pi_123_secret_abc", view.ClientSecret)
	assert.Equal(t, map[string]string{"order_id": "42"}, view.Metadata)
}

func TestConfirmIntent_OmitsClientSecret(t *testing.T) {
	p, fake := newTestProvider(t, func(w http.ResponseWriter, r *http.Request, _ url.Values) {
		fmt.Fprintf(w, intentJSON, "succeeded")
	})

	view, err := p.ConfirmIntent(context.Background(), "pi_123")
	require.NoError(t, err)

	assert.Equal(t, "/v1/payment_intents/pi_123/confirm", fake.last().Path)
	assert.Equal(t, "succeeded", view.Status)
	assert.Empty(t, view.ClientSecret)
}

func TestCreateRefund(t *testing.T) {
	refundJSON := `{"id":"re_1","object":"refund","amount":%d,"currency":"usd","status":"succeeded","payment_intent":"pi_123","created":1700000100}`

	t.Run("full refund sends no amount", func(t *testing.T) {
		p, fake := newTestProvider(t, func(w http.ResponseWriter, r *http.Request, _ url.Values) {
			fmt.Fprintf(w, refundJSON, 1050)
		})

		view, err := p.CreateRefund(context.Background(), "pi_123", nil)
		require.NoError(t, err)

		req := fake.last()
		assert.Equal(t, "/v1/refunds", req.Path)
		assert.Equal(t, "pi_123", req.Form.Get("payment_intent"))
		_, hasAmount := req.Form["amount"]
		assert.False(t, hasAmount)
		assert.Equal(t, 10.50, view.Amount)
		assert.Equal(t, "pi_123", view.PaymentIntentID)
		assert.Equal(t, "USD", view.Currency)
	})

	t.Run("partial refund sends minor units", func(t *testing.T) {
		p, fake := newTestProvider(t, func(w http.ResponseWriter, r *http.Request, _ url.Values) {
			fmt.Fprintf(w, refundJSON, 500)
		})

		amount := decimal.RequireFromString("5.00")
		view, err := p.CreateRefund(context.Background(), "pi_123", &amount)
		require.NoError(t, err)

		assert.Equal(t, "500", fake.last().Form.Get("amount"))
		assert.Equal(t, 5.0, view.Amount)
	})
}

func TestListIntents_SinglePage(t *testing.T) {
	p, fake := newTestProvider(t, func(w http.ResponseWriter, r *http.Request, _ url.Values) {
		fmt.Fprint(w, `{
			"object": "list",
			"url": "/v1/payment_intents",
			"has_more": true,
			"data": [
				{"id": "pi_a", "object": "payment_intent", "amount": 100, "currency": "eur", "status": "succeeded", "created": 1, "client_secret": "secret_a"},
				{"id": "pi_b", "object": "payment_intent", "amount": 250, "currency": "eur", "status": "processing", "created": 2}
			]
		}`)
	})

	page, err := p.ListIntents(context.Background(), 2, "pi_start")
	require.NoError(t, err)

	require.Len(t, fake.requests, 1, "only one page may be fetched")
	req := fake.last()
	assert.Equal(t, http.MethodGet, req.Method)
	assert.Equal(t, "2", req.Form.Get("limit"))
	assert.Equal(t, "pi_start", req.Form.Get("starting_after"))

	require.Len(t, page.Data, 2)
	assert.True(t, page.HasMore)
	assert.Equal(t, "pi_b", page.NextCursor)
	assert.Equal(t, "EUR", page.Data[0].Currency)
	assert.Equal(t, 2.5, page.Data[1].Amount)
	assert.Empty(t, page.Data[0].ClientSecret)
}

func TestProviderErrors_AreTagged(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		kind   apperrors.ProviderErrorKind
		check  func(t *testing.T, pe *apperrors.ProviderError)
	}{
		{
			name:   "card error",
			status: http.StatusPaymentRequired,
			body:   `{"error":{"type":"card_error","code":"card_declined","message":"Your card was declined."}}`,
			kind:   apperrors.KindCard,
			check: func(t *testing.T, pe *apperrors.ProviderError) {
				assert.Equal(t, "card_declined", pe.Code)
				assert.Equal(t, "Your card was declined.", pe.Message)
			},
		},
		{
			name:   "invalid request",
			status: http.StatusBadRequest,
			body:   `{"error":{"type":"invalid_request_error","param":"amount","message":"Amount must be at least 50 cents"}}`,
			kind:   apperrors.KindInvalidRequest,
			check: func(t *testing.T, pe *apperrors.ProviderError) {
				assert.Equal(t, "amount", pe.Param)
			},
		},
		{
			name:   "api outage",
			status: http.StatusInternalServerError,
			body:   `{"error":{"type":"api_error","message":"Something went wrong on Stripe's end."}}`,
			kind:   apperrors.KindAPI,
			check: func(t *testing.T, pe *apperrors.ProviderError) {
				assert.Equal(t, http.StatusInternalServerError, pe.StatusCode)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, fake := newTestProvider(t, func(w http.ResponseWriter, r *http.Request, _ url.Values) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			})

			_, err := p.CreateIntent(context.Background(), providers.CreateIntentInput{
				Amount:   decimal.RequireFromString("1.00"),
				Currency: "USD",
			})
			require.Error(t, err)

			var pe *apperrors.ProviderError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.kind, pe.Kind)
			tt.check(t, pe)
			assert.Len(t, fake.requests, 1, "provider calls must not be retried")
		})
	}
}
