package payment

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

func TestNewService(t *testing.T) {
	tests := []struct {
		name          string
		apiKey        string
		webhookSecret string
		wantErr       bool
	}{
		{
			name:          "Valid secrets",
			apiKey:        "sk_test_123",
			webhookSecret: "whsec_test_123",
			wantErr:       false,
		},
		{
			name:          "Missing API key",
			apiKey:        "",
			webhookSecret: "whsec_test_123",
			wantErr:       true,
		},
		{
			name:          "Missing webhook secret",
			apiKey:        "sk_test_123",
			webhookSecret: "",
			wantErr:       true,
		},
		{
			name:          "Both missing",
			apiKey:        "",
			webhookSecret: "",
			wantErr:       true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewService(tt.apiKey, tt.webhookSecret)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewService() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, &PaymentError{Kind: KindInit}) {
					t.Errorf("NewService() error kind = %v, want %s", err, KindInit)
				}
				return
			}
			if svc == nil {
				t.Fatal("NewService() returned nil service")
			}
		})
	}
}

func TestCreateCheckoutSessionValidation(t *testing.T) {
	svc, err := NewService("sk_test_123", "whsec_test_123")
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	valid := CheckoutSessionRequest{
		Amount:     500,
		Currency:   "usd",
		SuccessURL: "https://x/ok",
		CancelURL:  "https://x/cancel",
	}

	tests := []struct {
		name   string
		mutate func(r *CheckoutSessionRequest)
	}{
		{
			name:   "Missing amount",
			mutate: func(r *CheckoutSessionRequest) { r.Amount = 0 },
		},
		{
			name:   "Negative amount",
			mutate: func(r *CheckoutSessionRequest) { r.Amount = -500 },
		},
		{
			name:   "Missing currency",
			mutate: func(r *CheckoutSessionRequest) { r.Currency = "" },
		},
		{
			name:   "Missing success URL",
			mutate: func(r *CheckoutSessionRequest) { r.SuccessURL = "" },
		},
		{
			name:   "Missing cancel URL",
			mutate: func(r *CheckoutSessionRequest) { r.CancelURL = "" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := valid
			tt.mutate(&req)

			result, err := svc.CreateCheckoutSession(req)
			if err == nil {
				t.Fatal("CreateCheckoutSession() expected error, got nil")
			}
			if result != nil {
				t.Errorf("CreateCheckoutSession() result = %v, want nil", result)
			}

			// The caller always sees a creation failure.
			if !errors.Is(err, &PaymentError{Kind: KindSessionCreate}) {
				t.Errorf("CreateCheckoutSession() error kind = %v, want %s", err, KindSessionCreate)
			}

			// The missing-parameter cause survives the wrap.
			if !errors.Is(err, &PaymentError{Kind: KindMissingParam}) {
				t.Errorf("CreateCheckoutSession() expected a %s cause in the chain", KindMissingParam)
			}
		})
	}
}

func TestGetCheckoutSessionEmptyID(t *testing.T) {
	svc, err := NewService("sk_test_123", "whsec_test_123")
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}

	sess, err := svc.GetCheckoutSession("")
	if err == nil {
		t.Fatal("GetCheckoutSession() expected error, got nil")
	}
	if sess != nil {
		t.Errorf("GetCheckoutSession() session = %v, want nil", sess)
	}

	if !errors.Is(err, &PaymentError{Kind: KindSessionRetrieve}) {
		t.Errorf("GetCheckoutSession() error kind = %v, want %s", err, KindSessionRetrieve)
	}
	if !errors.Is(err, &PaymentError{Kind: KindMissingParam}) {
		t.Errorf("GetCheckoutSession() expected a %s cause in the chain", KindMissingParam)
	}
}

// newStubService points the SDK backend at a local test server so the
// success paths can run without the real Stripe API.
func newStubService(t *testing.T, handler http.Handler) *Service {
	t.Helper()

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	backends := stripe.NewBackendsWithConfig(&stripe.BackendConfig{
		URL:               stripe.String(ts.URL),
		MaxNetworkRetries: stripe.Int64(0),
	})

	sc := &client.API{}
	sc.Init("sk_test_123", backends)

	return &Service{
		client:        sc,
		webhookSecret: "whsec_test_stub",
	}
}

func TestCreateCheckoutSessionSuccess(t *testing.T) {
	var gotSuccessURL, gotClientReferenceID, gotUnitAmount string

	svc := newStubService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/v1/checkout/sessions" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm() error = %v", err)
		}
		gotSuccessURL = r.PostFormValue("success_url")
		gotClientReferenceID = r.PostFormValue("client_reference_id")
		gotUnitAmount = r.PostFormValue("line_items[0][price_data][unit_amount]")

		fmt.Fprint(w, `{
			"id": "cs_test_123",
			"object": "checkout.session",
			"url": "https://checkout.stripe.com/c/pay/cs_test_123"
		}`)
	}))

	result, err := svc.CreateCheckoutSession(CheckoutSessionRequest{
		Amount:     500,
		Currency:   "usd",
		SuccessURL: "https://x/ok",
		CancelURL:  "https://x/cancel",
	})
	if err != nil {
		t.Fatalf("CreateCheckoutSession() error = %v", err)
	}

	if result.SessionID == "" {
		t.Error("Expected non-empty session ID")
	}
	if result.URL == "" {
		t.Error("Expected non-empty checkout URL")
	}
	if _, err := uuid.Parse(result.ClientReferenceID); err != nil {
		t.Errorf("ClientReferenceID %q is not a valid UUID", result.ClientReferenceID)
	}

	if !strings.Contains(gotSuccessURL, "{CHECKOUT_SESSION_ID}") {
		t.Errorf("success_url sent to Stripe = %q, expected the {CHECKOUT_SESSION_ID} placeholder", gotSuccessURL)
	}
	if gotClientReferenceID != result.ClientReferenceID {
		t.Errorf("client_reference_id sent to Stripe = %q, want %q", gotClientReferenceID, result.ClientReferenceID)
	}
	if gotUnitAmount != "500" {
		t.Errorf("unit_amount sent to Stripe = %q, want 500", gotUnitAmount)
	}
}

func TestGetCheckoutSessionIdempotent(t *testing.T) {
	svc := newStubService(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/v1/checkout/sessions/cs_test_123" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		fmt.Fprint(w, `{
			"id": "cs_test_123",
			"object": "checkout.session",
			"status": "open",
			"payment_status": "unpaid",
			"amount_total": 500,
			"currency": "usd",
			"url": "https://checkout.stripe.com/c/pay/cs_test_123",
			"client_reference_id": "ref-123"
		}`)
	}))

	first, err := svc.GetCheckoutSession("cs_test_123")
	if err != nil {
		t.Fatalf("GetCheckoutSession() first call error = %v", err)
	}
	second, err := svc.GetCheckoutSession("cs_test_123")
	if err != nil {
		t.Fatalf("GetCheckoutSession() second call error = %v", err)
	}

	// Response metadata differs per call; the session snapshots must not.
	first.LastResponse = nil
	second.LastResponse = nil

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Repeated retrieval returned different snapshots:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestAppendSessionPlaceholder(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{
			name: "No query string",
			url:  "https://x/ok",
			want: "https://x/ok?session_id={CHECKOUT_SESSION_ID}",
		},
		{
			name: "Existing query string",
			url:  "https://x/ok?ref=abc",
			want: "https://x/ok?ref=abc&session_id={CHECKOUT_SESSION_ID}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := appendSessionPlaceholder(tt.url)
			if got != tt.want {
				t.Errorf("appendSessionPlaceholder(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}
