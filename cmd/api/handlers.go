package main

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/paywise/checkout-api/internal/currency"
	"github.com/paywise/checkout-api/internal/payment"
)

const maxWebhookBodyBytes = int64(65536)

func (cfg *apiConfig) createCheckoutSessionHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		respondWithError(w, http.StatusUnauthorized, ApiError{
			Code:    "UNAUTHORIZED",
			Message: "User not authenticated",
		})
		return
	}

	var req payment.CheckoutSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, ApiError{
			Code:    "INVALID_REQUEST",
			Message: "Invalid request body",
		})
		return
	}

	if req.Currency != "" && !currency.IsSupported(req.Currency) {
		respondWithError(w, http.StatusBadRequest, ApiError{
			Code:    "VALIDATION_ERROR",
			Message: "Currency must be 'usd' or 'eur'",
			Details: map[string]interface{}{
				"field":  "currency",
				"reason": "Unsupported currency code",
			},
		})
		return
	}

	result, err := cfg.paymentSvc.CreateCheckoutSession(req)
	if err != nil {
		respondWithPaymentError(w, err)
		return
	}

	log.Printf("User %s created checkout session %s", userID, result.SessionID)

	respondWithJSON(w, http.StatusCreated, ApiResponse{
		Success: true,
		Message: "Checkout session created",
		Data: map[string]interface{}{
			"url":                 result.URL,
			"session_id":          result.SessionID,
			"client_reference_id": result.ClientReferenceID,
			"amount":              req.Amount,
			"amount_display":      currency.FormatMinorUnits(req.Amount, req.Currency),
			"currency":            req.Currency,
		},
	})
}

func (cfg *apiConfig) getCheckoutSessionHandler(w http.ResponseWriter, r *http.Request) {
	if _, ok := GetUserID(r.Context()); !ok {
		respondWithError(w, http.StatusUnauthorized, ApiError{
			Code:    "UNAUTHORIZED",
			Message: "User not authenticated",
		})
		return
	}

	sessionID := r.PathValue("id")

	sess, err := cfg.paymentSvc.GetCheckoutSession(sessionID)
	if err != nil {
		respondWithPaymentError(w, err)
		return
	}

	customerID := ""
	if sess.Customer != nil {
		customerID = sess.Customer.ID
	}

	respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Data: map[string]interface{}{
			"session_id":          sess.ID,
			"status":              sess.Status,
			"payment_status":      sess.PaymentStatus,
			"amount_total":        sess.AmountTotal,
			"amount_display":      currency.FormatMinorUnits(sess.AmountTotal, string(sess.Currency)),
			"currency":            sess.Currency,
			"url":                 sess.URL,
			"client_reference_id": sess.ClientReferenceID,
			"customer":            customerID,
			"created":             sess.Created,
			"expires_at":          sess.ExpiresAt,
		},
	})
}

func (cfg *apiConfig) stripeWebhookHandler(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxWebhookBodyBytes)
	payloadBytes, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			respondWithError(w, http.StatusRequestEntityTooLarge, ApiError{
				Code:    "REQUEST_TOO_LARGE",
				Message: "Webhook payload exceeds the allowed size",
			})
			return
		}
		respondWithError(w, http.StatusBadRequest, ApiError{
			Code:    "INVALID_REQUEST",
			Message: "Failed to read webhook payload",
		})
		return
	}

	sigHeader := r.Header.Get("Stripe-Signature")

	event, err := cfg.paymentSvc.HandleWebhook(payloadBytes, sigHeader)
	if err != nil {
		respondWithPaymentError(w, err)
		return
	}

	// Unrecognized event types are acknowledged so Stripe stops retrying.
	if event == nil {
		respondWithJSON(w, http.StatusOK, map[string]string{
			"status": "received",
		})
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{
		"status":     "received",
		"event_id":   event.ID,
		"event_type": event.Type,
	})
}

func (cfg *apiConfig) healthHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, ApiResponse{
		Success: true,
		Message: "ok",
	})
}

