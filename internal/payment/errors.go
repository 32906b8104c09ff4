package payment

import (
	"fmt"
	"net/http"
)

// ErrorKind tags a PaymentError with the operation stage it came from.
type ErrorKind string

const (
	KindInit            ErrorKind = "INIT_ERROR"
	KindMissingParam    ErrorKind = "MISSING_PARAM"
	KindSessionCreate   ErrorKind = "SESSION_CREATE_ERROR"
	KindSessionRetrieve ErrorKind = "SESSION_RETRIEVE_ERROR"
	KindSignature       ErrorKind = "SIGNATURE_ERROR"
	KindProcessing      ErrorKind = "PROCESSING_ERROR"
)

// PaymentError carries a message, an HTTP-style status code, and the
// underlying cause. Instances are never mutated after construction.
type PaymentError struct {
	Kind       ErrorKind
	Message    string
	StatusCode int
	Err        error
}

func (e *PaymentError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *PaymentError) Unwrap() error {
	return e.Err
}

// Is matches two PaymentErrors by kind, so callers can use
// errors.Is(err, &PaymentError{Kind: KindSignature}).
func (e *PaymentError) Is(target error) bool {
	t, ok := target.(*PaymentError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func newPaymentError(kind ErrorKind, statusCode int, message string, err error) *PaymentError {
	if statusCode == 0 {
		statusCode = http.StatusInternalServerError
	}
	return &PaymentError{
		Kind:       kind,
		Message:    message,
		StatusCode: statusCode,
		Err:        err,
	}
}

// NewInitError reports a construction-time failure. Fatal, no recovery.
func NewInitError(message string) *PaymentError {
	return newPaymentError(KindInit, http.StatusBadRequest, message, nil)
}

// NewMissingParamError reports a caller input defect.
func NewMissingParamError(field string) *PaymentError {
	return newPaymentError(KindMissingParam, http.StatusUnprocessableEntity, fmt.Sprintf("missing required parameter: %s", field), nil)
}

// NewSessionCreateError wraps any failure during session creation.
func NewSessionCreateError(message string, err error) *PaymentError {
	return newPaymentError(KindSessionCreate, http.StatusBadRequest, message, err)
}

// NewSessionRetrieveError wraps any failure during session retrieval.
func NewSessionRetrieveError(message string, err error) *PaymentError {
	return newPaymentError(KindSessionRetrieve, http.StatusBadRequest, message, err)
}

// NewSignatureError reports a webhook integrity failure. Kept distinct from
// ProcessingError: callers reject these instead of retrying.
func NewSignatureError(message string, err error) *PaymentError {
	return newPaymentError(KindSignature, http.StatusBadRequest, message, err)
}

// NewProcessingError wraps a failure inside post-verification dispatch.
func NewProcessingError(message string, err error) *PaymentError {
	return newPaymentError(KindProcessing, http.StatusBadRequest, message, err)
}
