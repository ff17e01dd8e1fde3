package payment

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stripe/stripe-go/v83"
)

func TestParseNowPaymentsIPN_StatusMapping(t *testing.T) {
	cases := []struct {
		status string
		kind   EventKind
	}{
		{"finished", PaymentConfirmed},
		{"confirmed", PaymentConfirmed},
		{"failed", PaymentFailed},
		{"expired", PaymentFailed},
		{"refunded", PaymentFailed},
		{"waiting", PaymentInProgress},
		{"confirming", PaymentInProgress},
		{"sending", PaymentInProgress},
		{"partially_paid", PaymentInProgress},
	}

	for _, tc := range cases {
		t.Run(tc.status, func(t *testing.T) {
			body := fmt.Sprintf(`{"order_id":"ord-1","payment_status":%q,"invoice_id":77}`, tc.status)
			evt, err := ParseNowPaymentsIPN([]byte(body))
			if err != nil {
				t.Fatalf("parse a échoué: %v", err)
			}
			if evt.Kind != tc.kind {
				t.Errorf("statut %s: kind %v, attendu %v", tc.status, evt.Kind, tc.kind)
			}
			if evt.OrderRef != "ord-1" {
				t.Errorf("order ref %q, attendu ord-1", evt.OrderRef)
			}
			if evt.ProviderRef != "77" {
				t.Errorf("provider ref %q, attendu 77", evt.ProviderRef)
			}
		})
	}
}

func TestParseNowPaymentsIPN_MissingOrderID(t *testing.T) {
	_, err := ParseNowPaymentsIPN([]byte(`{"payment_status":"finished"}`))
	if !errors.Is(err, ErrMissingOrderRef) {
		t.Errorf("attendu ErrMissingOrderRef, obtenu %v", err)
	}
}

func TestParseStripeEvent_CheckoutCompleted(t *testing.T) {
	raw, _ := json.Marshal(map[string]any{
		"id":                  "cs_test_1",
		"client_reference_id": "ord-9",
		"payment_status":      "paid",
	})
	event := stripe.Event{
		Type: "checkout.session.completed",
		Data: &stripe.EventData{Raw: raw},
	}

	evt, actionable, err := ParseStripeEvent(event)
	if err != nil {
		t.Fatalf("parse a échoué: %v", err)
	}
	if !actionable {
		t.Fatal("checkout.session.completed doit être actionnable")
	}
	if evt.Kind != PaymentConfirmed {
		t.Errorf("kind %v, attendu PaymentConfirmed", evt.Kind)
	}
	if evt.OrderRef != "ord-9" || evt.ProviderRef != "cs_test_1" {
		t.Errorf("références inattendues: %+v", evt)
	}
}

func TestParseStripeEvent_MetadataFallback(t *testing.T) {
	raw, _ := json.Marshal(map[string]any{
		"id":       "cs_test_2",
		"metadata": map[string]string{"order_id": "ord-10"},
	})
	event := stripe.Event{
		Type: "checkout.session.completed",
		Data: &stripe.EventData{Raw: raw},
	}

	evt, _, err := ParseStripeEvent(event)
	if err != nil {
		t.Fatalf("parse a échoué: %v", err)
	}
	if evt.OrderRef != "ord-10" {
		t.Errorf("le metadata order_id doit servir de repli, obtenu %q", evt.OrderRef)
	}
}

func TestParseStripeEvent_IgnoresOtherTypes(t *testing.T) {
	event := stripe.Event{Type: "payment_intent.succeeded", Data: &stripe.EventData{Raw: []byte(`{}`)}}

	_, actionable, err := ParseStripeEvent(event)
	if err != nil {
		t.Fatalf("parse a échoué: %v", err)
	}
	if actionable {
		t.Error("seul checkout.session.completed doit être actionnable")
	}
}
