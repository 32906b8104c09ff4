package payment

import (
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

const (
	defaultProductName = "Checkout Payment"

	// Upstream retries are delegated to the SDK; this layer adds none.
	maxNetworkRetries = 2
)

// Service wraps the Stripe checkout and webhook APIs. A Service holds no
// per-call state and is safe for concurrent use.
type Service struct {
	client        *client.API
	webhookSecret string
}

// NewService builds a Service from the two mandatory secrets. It fails fast
// before any network capability is usable.
func NewService(apiKey, webhookSecret string) (*Service, error) {
	if apiKey == "" {
		return nil, NewInitError("stripe API key is required")
	}
	if webhookSecret == "" {
		return nil, NewInitError("stripe webhook secret is required")
	}

	backends := stripe.NewBackendsWithConfig(&stripe.BackendConfig{
		MaxNetworkRetries: stripe.Int64(maxNetworkRetries),
	})

	sc := &client.API{}
	sc.Init(apiKey, backends)

	return &Service{
		client:        sc,
		webhookSecret: webhookSecret,
	}, nil
}

// CheckoutSessionRequest carries the caller-supplied session parameters.
// Amount is in minor currency units.
type CheckoutSessionRequest struct {
	Amount     int64  `json:"amount"`
	Currency   string `json:"currency"`
	SuccessURL string `json:"success_url"`
	CancelURL  string `json:"cancel_url"`

	// Optional line-item extras.
	ProductName string            `json:"product_name,omitempty"`
	Quantity    int64             `json:"quantity,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// CheckoutSessionResult is the caller-facing slice of a created session.
type CheckoutSessionResult struct {
	URL               string `json:"url"`
	SessionID         string `json:"session_id"`
	ClientReferenceID string `json:"client_reference_id"`
}

func (r CheckoutSessionRequest) validate() error {
	if r.Amount <= 0 {
		return NewMissingParamError("amount")
	}
	if r.Currency == "" {
		return NewMissingParamError("currency")
	}
	if r.SuccessURL == "" {
		return NewMissingParamError("success_url")
	}
	if r.CancelURL == "" {
		return NewMissingParamError("cancel_url")
	}
	return nil
}

// CreateCheckoutSession creates a Stripe-hosted checkout session with a
// single card line item. Every failure, validation included, surfaces as a
// SESSION_CREATE_ERROR; the original cause stays reachable via errors.As.
func (s *Service) CreateCheckoutSession(req CheckoutSessionRequest) (*CheckoutSessionResult, error) {
	if err := req.validate(); err != nil {
		log.Printf("Checkout session validation failed: %v", err)
		return nil, NewSessionCreateError("failed to create checkout session", err)
	}

	// Fresh correlation id per call, attached as client_reference_id so
	// webhook events can be tied back to this session.
	clientReferenceID := uuid.New().String()

	productName := req.ProductName
	if productName == "" {
		productName = defaultProductName
	}

	quantity := req.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	params := &stripe.CheckoutSessionParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		ClientReferenceID:  stripe.String(clientReferenceID),
		SuccessURL:         stripe.String(appendSessionPlaceholder(req.SuccessURL)),
		CancelURL:          stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(req.Currency),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(productName),
					},
					UnitAmount: stripe.Int64(req.Amount),
				},
				Quantity: stripe.Int64(quantity),
			},
		},
	}

	if len(req.Metadata) > 0 {
		params.Metadata = req.Metadata
	}

	sess, err := s.client.CheckoutSessions.New(params)
	if err != nil {
		log.Printf("Stripe checkout session creation failed: %v", err)
		return nil, NewSessionCreateError("failed to create checkout session", err)
	}

	if sess.URL == "" || sess.ID == "" {
		return nil, NewSessionCreateError("stripe returned an incomplete checkout session", nil)
	}

	log.Printf("Created checkout session %s (client_reference_id=%s, amount=%d %s)",
		sess.ID, clientReferenceID, req.Amount, req.Currency)

	return &CheckoutSessionResult{
		URL:               sess.URL,
		SessionID:         sess.ID,
		ClientReferenceID: clientReferenceID,
	}, nil
}

// GetCheckoutSession returns the full session object as Stripe defines it.
// Like creation, every failure surfaces as a SESSION_RETRIEVE_ERROR.
func (s *Service) GetCheckoutSession(sessionID string) (*stripe.CheckoutSession, error) {
	if sessionID == "" {
		err := NewMissingParamError("session_id")
		log.Printf("Checkout session retrieval validation failed: %v", err)
		return nil, NewSessionRetrieveError("failed to retrieve checkout session", err)
	}

	sess, err := s.client.CheckoutSessions.Get(sessionID, nil)
	if err != nil {
		log.Printf("Stripe checkout session retrieval failed for %s: %v", sessionID, err)
		return nil, NewSessionRetrieveError(fmt.Sprintf("failed to retrieve checkout session %s", sessionID), err)
	}

	return sess, nil
}

// ListCheckoutSessions returns sessions created at or after the given Unix
// timestamp, newest first, up to limit.
func (s *Service) ListCheckoutSessions(createdAfter int64, limit int64) ([]*stripe.CheckoutSession, error) {
	params := &stripe.CheckoutSessionListParams{
		CreatedRange: &stripe.RangeQueryParams{
			GreaterThanOrEqual: createdAfter,
		},
	}
	params.Limit = stripe.Int64(limit)

	var sessions []*stripe.CheckoutSession
	iter := s.client.CheckoutSessions.List(params)
	for iter.Next() {
		sessions = append(sessions, iter.CheckoutSession())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to list checkout sessions: %w", err)
	}

	return sessions, nil
}

// appendSessionPlaceholder adds the templated session id query parameter so
// Stripe substitutes the real id on redirect.
func appendSessionPlaceholder(successURL string) string {
	sep := "?"
	if strings.Contains(successURL, "?") {
		sep = "&"
	}
	return successURL + sep + "session_id={CHECKOUT_SESSION_ID}"
}
