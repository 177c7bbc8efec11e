package stripe

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	domainErrors "github.com/vihaglobalsystems-prog/selt-backend/internal/domain/errors"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/event"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/domain/provider"
	"github.com/vihaglobalsystems-prog/selt-backend/internal/infrastructure/provider/stripe/stripetest"
)

const testSecret = "whsec_test_secret"

func newTestProcessor(t *testing.T) (*Processor, *stripetest.Server) {
	t.Helper()
	srv := stripetest.NewServer(t)
	p := NewProcessor(Config{
		SecretKey:     "sk_test_123",
		WebhookSecret: testSecret,
		Backend:       srv.Backend(),
	}, zap.NewNop())
	return p, srv
}

func TestProcessor_VerifyEvent(t *testing.T) {
	p, _ := newTestProcessor(t)

	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)

	t.Run("subscription updated", func(t *testing.T) {
		payload := stripetest.Event("evt_1", "customer.subscription.updated",
			stripetest.Subscription("sub_1", "cus_1", "active", start, end, true))

		evt, err := p.VerifyEvent(payload, stripetest.Sign(payload, testSecret))
		require.NoError(t, err)

		assert.Equal(t, "evt_1", evt.ID)
		assert.Equal(t, event.SubscriptionUpdated, evt.Kind)
		require.NotNil(t, evt.Subscription)
		assert.Equal(t, &provider.Subscription{
			ID:                 "sub_1",
			CustomerID:         "cus_1",
			PriceID:            "price_premium",
			Status:             "active",
			CurrentPeriodStart: start,
			CurrentPeriodEnd:   end,
			CancelAtPeriodEnd:  true,
		}, evt.Subscription)
	})

	t.Run("invoice paid", func(t *testing.T) {
		payload := stripetest.Event("evt_2", "invoice.paid",
			stripetest.Invoice("in_1", "cus_1", "sub_1", "pi_1", 1299, 1299, "gbp"))

		evt, err := p.VerifyEvent(payload, stripetest.Sign(payload, testSecret))
		require.NoError(t, err)

		assert.Equal(t, event.InvoicePaid, evt.Kind)
		require.NotNil(t, evt.Invoice)
		assert.Equal(t, "sub_1", evt.Invoice.SubscriptionID)
		assert.Equal(t, "pi_1", evt.Invoice.PaymentIntentID)
		assert.Equal(t, int64(1299), evt.Invoice.AmountPaid)
		assert.Equal(t, "gbp", evt.Invoice.Currency)
	})

	t.Run("checkout without subscription", func(t *testing.T) {
		payload := stripetest.Event("evt_3", "checkout.session.completed",
			stripetest.CheckoutSession("cs_1", "cus_1", "", "payment"))

		evt, err := p.VerifyEvent(payload, stripetest.Sign(payload, testSecret))
		require.NoError(t, err)

		require.NotNil(t, evt.CheckoutSession)
		assert.Equal(t, "cus_1", evt.CheckoutSession.CustomerID)
		assert.Empty(t, evt.CheckoutSession.SubscriptionID)
	})

	t.Run("unknown type", func(t *testing.T) {
		payload := stripetest.Event("evt_4", "customer.created", map[string]interface{}{"id": "cus_1"})

		evt, err := p.VerifyEvent(payload, stripetest.Sign(payload, testSecret))
		require.NoError(t, err)

		assert.Equal(t, event.Unknown, evt.Kind)
		assert.Nil(t, evt.Subscription)
		assert.Nil(t, evt.Invoice)
		assert.Nil(t, evt.CheckoutSession)
	})
}

func TestProcessor_VerifyEventRejects(t *testing.T) {
	p, _ := newTestProcessor(t)

	payload := stripetest.Event("evt_1", "invoice.paid",
		stripetest.Invoice("in_1", "cus_1", "", "", 1299, 1299, "gbp"))
	signature := stripetest.Sign(payload, testSecret)

	altered := append([]byte(nil), payload...)
	altered[len(altered)-2] ^= 0x01

	tests := []struct {
		name      string
		payload   []byte
		signature string
	}{
		{"altered byte", altered, signature},
		{"missing signature", payload, ""},
		{"wrong secret", payload, stripetest.Sign(payload, "whsec_other")},
		{"garbage signature", payload, "t=1,v1=deadbeef"},
		{"malformed payload", []byte("{not json"), stripetest.Sign([]byte("{not json"), testSecret)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			evt, err := p.VerifyEvent(tt.payload, tt.signature)
			assert.Nil(t, evt)
			assert.ErrorIs(t, err, domainErrors.ErrUnauthenticatedEvent)
		})
	}
}

func TestProcessor_GetSubscription(t *testing.T) {
	p, srv := newTestProcessor(t)

	start := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, 0)
	srv.Handle(http.MethodGet, "/v1/subscriptions/sub_1", http.StatusOK,
		stripetest.Subscription("sub_1", "cus_1", "trialing", start, end, false))

	sub, err := p.GetSubscription(context.Background(), "sub_1")
	require.NoError(t, err)
	assert.Equal(t, "trialing", sub.Status)
	assert.Equal(t, "cus_1", sub.CustomerID)
	assert.True(t, sub.CurrentPeriodEnd.Equal(end))

	srv.Handle(http.MethodGet, "/v1/subscriptions/sub_down", http.StatusInternalServerError,
		stripetest.ErrorBody("api_error", "boom"))

	_, err = p.GetSubscription(context.Background(), "sub_down")
	assert.ErrorIs(t, err, domainErrors.ErrUpstream)
}

func TestProcessor_GetInvoice(t *testing.T) {
	p, srv := newTestProcessor(t)

	srv.Handle(http.MethodGet, "/v1/invoices/in_1", http.StatusOK,
		stripetest.Invoice("in_1", "cus_1", "sub_1", "pi_found", 1299, 1299, "gbp"))

	invoice, err := p.GetInvoice(context.Background(), "in_1")
	require.NoError(t, err)
	assert.Equal(t, "pi_found", invoice.PaymentIntentID)

	_, err = p.GetInvoice(context.Background(), "in_missing")
	assert.ErrorIs(t, err, domainErrors.ErrUpstream)
}

func TestProcessor_CreateRefund(t *testing.T) {
	p, srv := newTestProcessor(t)

	srv.Handle(http.MethodPost, "/v1/refunds", http.StatusOK, map[string]interface{}{
		"id":     "re_1",
		"object": "refund",
		"amount": 500,
		"status": "succeeded",
	})

	amount := int64(500)
	refund, err := p.CreateRefund(context.Background(), &provider.RefundRequest{
		PaymentIntentID: "pi_1",
		Amount:          &amount,
		Reason:          "duplicate charge",
		IdempotencyKey:  "refund-key-1",
	})
	require.NoError(t, err)
	assert.Equal(t, &provider.Refund{ID: "re_1", Amount: 500, Status: "succeeded"}, refund)

	reqs := srv.Requests(http.MethodPost, "/v1/refunds")
	require.Len(t, reqs, 1)
	assert.Equal(t, "pi_1", reqs[0].Form.Get("payment_intent"))
	assert.Equal(t, "500", reqs[0].Form.Get("amount"))
	assert.Equal(t, "requested_by_customer", reqs[0].Form.Get("reason"))
	assert.Equal(t, "duplicate charge", reqs[0].Form.Get("metadata[reason]"))
	assert.Equal(t, "refund-key-1", reqs[0].Header.Get("Idempotency-Key"))
}

func TestProcessor_CancelAndSchedule(t *testing.T) {
	p, srv := newTestProcessor(t)

	now := time.Now().UTC()
	srv.Handle(http.MethodDelete, "/v1/subscriptions/sub_1", http.StatusOK,
		stripetest.Subscription("sub_1", "cus_1", "canceled", now, now.AddDate(0, 1, 0), false))
	srv.Handle(http.MethodPost, "/v1/subscriptions/sub_1", http.StatusOK,
		stripetest.Subscription("sub_1", "cus_1", "active", now, now.AddDate(0, 1, 0), true))

	canceled, err := p.CancelSubscription(context.Background(), "sub_1")
	require.NoError(t, err)
	assert.Equal(t, "canceled", canceled.Status)

	scheduled, err := p.SetCancelAtPeriodEnd(context.Background(), "sub_1", true)
	require.NoError(t, err)
	assert.True(t, scheduled.CancelAtPeriodEnd)

	reqs := srv.Requests(http.MethodPost, "/v1/subscriptions/sub_1")
	require.Len(t, reqs, 1)
	assert.Equal(t, "true", reqs[0].Form.Get("cancel_at_period_end"))
}

func TestProcessor_CheckoutFlow(t *testing.T) {
	p, srv := newTestProcessor(t)

	srv.Handle(http.MethodPost, "/v1/customers", http.StatusOK, map[string]interface{}{
		"id": "cus_new", "object": "customer",
	})
	srv.Handle(http.MethodPost, "/v1/checkout/sessions", http.StatusOK,
		stripetest.CheckoutSession("cs_1", "cus_new", "", "subscription"))

	customer, err := p.CreateCustomer(context.Background(), &provider.CreateCustomerRequest{
		Email: "user@selt.app", Name: "user", UserID: "u-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "cus_new", customer.ID)

	session, err := p.CreateCheckoutSession(context.Background(), &provider.CheckoutSessionRequest{
		CustomerID: "cus_new",
		PriceID:    "price_premium",
		SuccessURL: "https://selt.app/?payment=success",
		CancelURL:  "https://selt.app/?payment=cancel",
		UserID:     "u-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "cs_1", session.ID)
	assert.NotEmpty(t, session.URL)

	custReqs := srv.Requests(http.MethodPost, "/v1/customers")
	require.Len(t, custReqs, 1)
	assert.Equal(t, "u-1", custReqs[0].Form.Get("metadata[user_id]"))

	sessReqs := srv.Requests(http.MethodPost, "/v1/checkout/sessions")
	require.Len(t, sessReqs, 1)
	assert.Equal(t, "subscription", sessReqs[0].Form.Get("mode"))
	assert.Equal(t, "price_premium", sessReqs[0].Form.Get("line_items[0][price]"))
}
