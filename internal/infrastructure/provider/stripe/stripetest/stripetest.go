// Package stripetest provides a fake Stripe API server and signed webhook
// payloads for tests.
package stripetest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"
	"time"

	stripeapi "github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
)

// Request is a request received by the fake server
type Request struct {
	Method string
	Path   string
	Form   url.Values
	Header http.Header
}

type route struct {
	status int
	body   interface{}
}

// Server is a fake Stripe API that serves canned JSON per method and path
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	routes   map[string]route
	requests []Request
}

// NewServer starts a fake Stripe API closed at test cleanup
func NewServer(t testing.TB) *Server {
	t.Helper()
	s := &Server{routes: make(map[string]route)}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	t.Cleanup(s.Close)
	return s
}

// Handle registers the response for method and path, e.g. ("GET", "/v1/subscriptions/sub_1")
func (s *Server) Handle(method, path string, status int, body interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes[method+" "+path] = route{status: status, body: body}
}

// Requests returns the requests received for method and path
func (s *Server) Requests(method, path string) []Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Request
	for _, r := range s.requests {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// Backend returns a stripe-go backend pointed at the fake server without retries
func (s *Server) Backend() stripeapi.Backend {
	return stripeapi.GetBackendWithConfig(stripeapi.APIBackend, &stripeapi.BackendConfig{
		URL:               stripeapi.String(s.URL),
		MaxNetworkRetries: stripeapi.Int64(0),
		LeveledLogger:     &stripeapi.LeveledLogger{Level: stripeapi.LevelNull},
	})
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()

	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Form:   r.Form,
		Header: r.Header.Clone(),
	})
	rt, ok := s.routes[r.Method+" "+r.URL.Path]
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(ErrorBody("invalid_request_error", "No such resource: "+r.URL.Path))
		return
	}
	w.WriteHeader(rt.status)
	_ = json.NewEncoder(w).Encode(rt.body)
}

// ErrorBody builds a Stripe API error response
func ErrorBody(errType, message string) map[string]interface{} {
	return map[string]interface{}{
		"error": map[string]interface{}{
			"type":    errType,
			"message": message,
		},
	}
}

// Event builds a Stripe event envelope carrying object
func Event(id, eventType string, object interface{}) []byte {
	obj, err := json.Marshal(object)
	if err != nil {
		panic(fmt.Sprintf("stripetest: marshal object: %v", err))
	}

	body, err := json.Marshal(map[string]interface{}{
		"id":          id,
		"object":      "event",
		"type":        eventType,
		"api_version": stripeapi.APIVersion,
		"created":     time.Now().Unix(),
		"livemode":    false,
		"data": map[string]json.RawMessage{
			"object": obj,
		},
	})
	if err != nil {
		panic(fmt.Sprintf("stripetest: marshal event: %v", err))
	}
	return body
}

// Sign returns a valid Stripe-Signature header for payload
func Sign(payload []byte, secret string) string {
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
	})
	return signed.Header
}

// Subscription builds a subscription object
func Subscription(id, customerID, status string, start, end time.Time, cancelAtPeriodEnd bool) map[string]interface{} {
	return map[string]interface{}{
		"id":                   id,
		"object":               "subscription",
		"customer":             customerID,
		"status":               status,
		"current_period_start": start.Unix(),
		"current_period_end":   end.Unix(),
		"cancel_at_period_end": cancelAtPeriodEnd,
		"items": map[string]interface{}{
			"object": "list",
			"data": []map[string]interface{}{
				{
					"id":     "si_" + id,
					"object": "subscription_item",
					"price":  map[string]interface{}{"id": "price_premium", "object": "price"},
				},
			},
		},
	}
}

// Invoice builds an invoice object; empty subscription or payment intent IDs are sent as null
func Invoice(id, customerID, subscriptionID, paymentIntentID string, amountPaid, amountDue int64, currency string) map[string]interface{} {
	return map[string]interface{}{
		"id":             id,
		"object":         "invoice",
		"customer":       customerID,
		"subscription":   nullable(subscriptionID),
		"payment_intent": nullable(paymentIntentID),
		"amount_paid":    amountPaid,
		"amount_due":     amountDue,
		"currency":       currency,
	}
}

// CheckoutSession builds a checkout session object
func CheckoutSession(id, customerID, subscriptionID, mode string) map[string]interface{} {
	return map[string]interface{}{
		"id":           id,
		"object":       "checkout.session",
		"customer":     customerID,
		"subscription": nullable(subscriptionID),
		"mode":         mode,
		"url":          "https://checkout.stripe.com/c/pay/" + id,
	}
}

func nullable(id string) interface{} {
	if id == "" {
		return nil
	}
	return id
}
