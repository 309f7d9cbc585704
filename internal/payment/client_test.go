package payment

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/reliefgrid/relief-api/internal/config"
	"github.com/rs/zerolog"
)

func testPaymentConfig(baseURL string) config.PaymentConfig {
	return config.PaymentConfig{
		BaseURL:   baseURL,
		SecretKey: "sk_test_123",
		Currency:  "usd",
	}
}

func TestCreateIntent(t *testing.T) {
	var gotForm map[string]string
	var gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/payment_intents" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if user, _, ok := r.BasicAuth(); !ok || user != "sk_test_123" {
			t.Errorf("expected secret key as basic auth user")
		}
		gotKey = r.Header.Get("Idempotency-Key")
		r.ParseForm()
		gotForm = map[string]string{
			"amount":                r.PostFormValue("amount"),
			"currency":              r.PostFormValue("currency"),
			"receipt_email":         r.PostFormValue("receipt_email"),
			"metadata[alert_id]":    r.PostFormValue("metadata[alert_id]"),
			"metadata[donation_id]": r.PostFormValue("metadata[donation_id]"),
		}
		w.Write([]byte(`{"id":"pi_1","client_secret":"pi_1_secret"}`))
	}))
	defer server.Close()

	client := NewIntentClient(testPaymentConfig(server.URL), zerolog.Nop())
	intent, err := client.CreateIntent(context.Background(), "donation-1", 5000, "alex@example.com", "alert-1")
	if err != nil {
		t.Fatalf("create intent failed: %v", err)
	}
	if intent.ID != "pi_1" || intent.ClientSecret != "pi_1_secret" {
		t.Fatalf("unexpected intent %+v", intent)
	}

	want := map[string]string{
		"amount":                "5000",
		"currency":              "usd",
		"receipt_email":         "alex@example.com",
		"metadata[alert_id]":    "alert-1",
		"metadata[donation_id]": "donation-1",
	}
	for k, v := range want {
		if gotForm[k] != v {
			t.Fatalf("form field %s = %q, want %q", k, gotForm[k], v)
		}
	}
	if gotKey == "" {
		t.Fatal("expected an idempotency key")
	}
}

func TestIdempotencyKeyStablePerDonation(t *testing.T) {
	if intentIdempotencyKey("donation-1") != intentIdempotencyKey("donation-1") {
		t.Fatal("retries for the same donation must reuse the key")
	}
	if intentIdempotencyKey("donation-1") == intentIdempotencyKey("donation-2") {
		t.Fatal("different donations must not share a key")
	}
}

func TestCreateIntentProcessorError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"error":{"message":"card declined"}}`))
	}))
	defer server.Close()

	client := NewIntentClient(testPaymentConfig(server.URL), zerolog.Nop())
	if _, err := client.CreateIntent(context.Background(), "donation-1", 5000, "", "alert-1"); err == nil {
		t.Fatal("expected error on processor rejection")
	}
}

func TestCreateIntentUnconfigured(t *testing.T) {
	cfg := testPaymentConfig("https://api.stripe.com")
	cfg.SecretKey = ""
	client := NewIntentClient(cfg, zerolog.Nop())

	if client.Configured() {
		t.Fatal("client without a secret key must report unconfigured")
	}
	if _, err := client.CreateIntent(context.Background(), "donation-1", 5000, "", "alert-1"); err == nil {
		t.Fatal("expected error from unconfigured client")
	}
}
