package main

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/paywise/checkout-api/internal/payment"
)

type ApiResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ApiError is the wire form of a failure. Code carries either a handler
// code string or a payment.ErrorKind tag.
type ApiError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

type ErrorResponse struct {
	Success bool     `json:"success"`
	Error   ApiError `json:"error"`
}

// respondWithPaymentError maps a payment-service failure onto the error
// envelope. The PaymentError's kind becomes the code and its status code
// drives the HTTP status; anything else is treated as internal.
func respondWithPaymentError(w http.ResponseWriter, err error) {
	var pe *payment.PaymentError
	if errors.As(err, &pe) {
		respondWithError(w, pe.StatusCode, ApiError{
			Code:    string(pe.Kind),
			Message: pe.Message,
		})
		return
	}

	respondWithError(w, http.StatusInternalServerError, ApiError{
		Code:    "INTERNAL_ERROR",
		Message: "An unexpected error occurred",
	})
}

func respondWithError(w http.ResponseWriter, code int, apiErr ApiError) {
	if code >= 500 {
		log.Printf("Responding with 5XX error: %s - %s", apiErr.Code, apiErr.Message)
	}

	respondWithJSON(w, code, ErrorResponse{
		Success: false,
		Error:   apiErr,
	})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")

	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("Error marshalling JSON: %s", err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(ErrorResponse{
			Success: false,
			Error: ApiError{
				Code:    "INTERNAL_ERROR",
				Message: "Failed to generate response",
			},
		})
		return
	}

	w.WriteHeader(code)
	w.Write(data)
}
