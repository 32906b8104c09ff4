package payment

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

// Recognized webhook event types. Anything else falls through to the
// generic envelope and a nil dispatch result.
const (
	EventPaymentIntentCreated     = "payment_intent.created"
	EventPaymentIntentSucceeded   = "payment_intent.succeeded"
	EventChargeUpdated            = "charge.updated"
	EventChargeSucceeded          = "charge.succeeded"
	EventCheckoutSessionCompleted = "checkout.session.completed"
)

// WebhookEvent is the verified, dispatched form of a Stripe event. Exactly
// one of the payload fields is set for recognized types; unrecognized types
// never produce a WebhookEvent.
type WebhookEvent struct {
	ID   string
	Type string

	PaymentIntent   *stripe.PaymentIntent
	Charge          *stripe.Charge
	CheckoutSession *stripe.CheckoutSession
}

type webhookHandler func(stripe.Event) (*WebhookEvent, error)

func (s *Service) webhookHandlers() map[string]webhookHandler {
	return map[string]webhookHandler{
		EventPaymentIntentCreated:     s.handlePaymentIntentCreated,
		EventPaymentIntentSucceeded:   s.handlePaymentIntentSucceeded,
		EventChargeUpdated:            s.handleChargeUpdated,
		EventChargeSucceeded:          s.handleChargeSucceeded,
		EventCheckoutSessionCompleted: s.handleCheckoutSessionCompleted,
	}
}

// HandleWebhook verifies the raw payload against the signature header, then
// dispatches the event by type. The payload must be the unparsed request
// body or verification fails. Signature failures never reach dispatch.
// Unrecognized event types return (nil, nil): expected and non-fatal.
func (s *Service) HandleWebhook(payload []byte, sigHeader string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, sigHeader, s.webhookSecret)
	if err != nil {
		log.Printf("Webhook signature verification failed: %v", err)
		return nil, NewSignatureError("webhook signature verification failed", err)
	}

	handler, ok := s.webhookHandlers()[string(event.Type)]
	if !ok {
		log.Printf("Unhandled webhook event type: %s (id=%s)", event.Type, event.ID)
		return nil, nil
	}

	result, err := s.dispatch(handler, event)
	if err != nil {
		return nil, NewProcessingError(fmt.Sprintf("failed to process webhook event %s", event.Type), err)
	}
	return result, nil
}

// dispatch runs a handler, converting a panic into an error so one bad
// event cannot take the caller down with it.
func (s *Service) dispatch(handler webhookHandler, event stripe.Event) (result *WebhookEvent, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("webhook handler panic: %v", r)
		}
	}()
	return handler(event)
}

func (s *Service) handlePaymentIntentCreated(event stripe.Event) (*WebhookEvent, error) {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("failed to parse payment intent: %w", err)
	}

	log.Printf("PaymentIntent created: id=%s amount=%d currency=%s created=%d",
		pi.ID, pi.Amount, pi.Currency, pi.Created)

	// Add business logic here (e.g. record the pending payment).

	return &WebhookEvent{
		ID:            event.ID,
		Type:          string(event.Type),
		PaymentIntent: &pi,
	}, nil
}

func (s *Service) handlePaymentIntentSucceeded(event stripe.Event) (*WebhookEvent, error) {
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("failed to parse payment intent: %w", err)
	}

	log.Printf("PaymentIntent succeeded: id=%s amount=%d currency=%s status=%s receipt_email=%s",
		pi.ID, pi.Amount, pi.Currency, pi.Status, pi.ReceiptEmail)

	// Add business logic here (e.g. mark the order paid).

	return &WebhookEvent{
		ID:            event.ID,
		Type:          string(event.Type),
		PaymentIntent: &pi,
	}, nil
}

func (s *Service) handleChargeUpdated(event stripe.Event) (*WebhookEvent, error) {
	var ch stripe.Charge
	if err := json.Unmarshal(event.Data.Raw, &ch); err != nil {
		return nil, fmt.Errorf("failed to parse charge: %w", err)
	}

	log.Printf("Charge updated: id=%s amount=%d paid=%t status=%s",
		ch.ID, ch.Amount, ch.Paid, ch.Status)

	return &WebhookEvent{
		ID:     event.ID,
		Type:   string(event.Type),
		Charge: &ch,
	}, nil
}

func (s *Service) handleChargeSucceeded(event stripe.Event) (*WebhookEvent, error) {
	var ch stripe.Charge
	if err := json.Unmarshal(event.Data.Raw, &ch); err != nil {
		return nil, fmt.Errorf("failed to parse charge: %w", err)
	}

	log.Printf("Charge succeeded: id=%s amount=%d payment_method=%s status=%s",
		ch.ID, ch.Amount, ch.PaymentMethod, ch.Status)

	return &WebhookEvent{
		ID:     event.ID,
		Type:   string(event.Type),
		Charge: &ch,
	}, nil
}

func (s *Service) handleCheckoutSessionCompleted(event stripe.Event) (*WebhookEvent, error) {
	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return nil, fmt.Errorf("failed to parse checkout session: %w", err)
	}

	customerID := ""
	if sess.Customer != nil {
		customerID = sess.Customer.ID
	}

	log.Printf("Checkout session completed: id=%s customer=%s payment_status=%s amount_total=%d currency=%s url=%s client_reference_id=%s",
		sess.ID, customerID, sess.PaymentStatus, sess.AmountTotal, sess.Currency, sess.URL, sess.ClientReferenceID)

	// Add business logic here (e.g. fulfill the purchase).

	return &WebhookEvent{
		ID:              event.ID,
		Type:            string(event.Type),
		CheckoutSession: &sess,
	}, nil
}
