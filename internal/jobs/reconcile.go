package jobs

import (
	"fmt"
	"log"
	"time"

	"github.com/paywise/checkout-api/internal/currency"
	"github.com/paywise/checkout-api/internal/payment"
	"github.com/stripe/stripe-go/v76"
)

// ReconcileCheckoutSessions lists recent Stripe checkout sessions and logs a
// completion summary. Log-only: this job persists nothing and retries
// nothing, it exists so operators can spot sessions that never complete.
func ReconcileCheckoutSessions(svc *payment.Service, lookback time.Duration, batchSize int64) error {
	since := time.Now().Add(-lookback).Unix()

	log.Printf("Reconciling checkout sessions created since %s", time.Unix(since, 0).UTC().Format(time.RFC3339))

	sessions, err := svc.ListCheckoutSessions(since, batchSize)
	if err != nil {
		return fmt.Errorf("failed to reconcile checkout sessions: %w", err)
	}

	var completed, open, expired int
	now := time.Now().Unix()

	for _, sess := range sessions {
		switch sess.Status {
		case stripe.CheckoutSessionStatusComplete:
			completed++
		case stripe.CheckoutSessionStatusExpired:
			expired++
		case stripe.CheckoutSessionStatusOpen:
			open++
			if sess.ExpiresAt > 0 && sess.ExpiresAt-now < int64(time.Hour.Seconds()) {
				log.Printf("Checkout session %s still open and expiring soon (amount: %s %s, client_reference_id: %s)",
					sess.ID,
					currency.FormatMinorUnits(sess.AmountTotal, string(sess.Currency)),
					sess.Currency,
					sess.ClientReferenceID,
				)
			}
		}
	}

	log.Printf("Reconciliation complete: %d sessions (%d completed, %d open, %d expired)",
		len(sessions), completed, open, expired)

	return nil
}
