package payment

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/webhook"
)

const testSecret = "whsec_test_secret"

func signedPayload(t *testing.T, eventType, objectJSON string) ([]byte, string) {
	t.Helper()
	body := fmt.Sprintf(`{"id":"evt_1","object":"event","api_version":%q,"type":%q,"data":{"object":%s}}`,
		stripe.APIVersion, eventType, objectJSON)
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(body),
		Secret:    testSecret,
		Timestamp: time.Now(),
	})
	return signed.Payload, signed.Header
}

func TestParseEventCheckoutCompleted(t *testing.T) {
	g := NewStripeGateway("sk_test_x", testSecret)
	payload, header := signedPayload(t, EventCheckoutCompleted, `{"id":"cs_test_123","object":"checkout.session"}`)
	ev, err := g.ParseEvent(payload, header)
	if err != nil {
		t.Fatalf("ParseEvent: %v", err)
	}
	if ev.CheckoutSessionID != "cs_test_123" {
		t.Fatalf("session id = %q", ev.CheckoutSessionID)
	}
}

func TestParseEventOtherType(t *testing.T) {
	g := NewStripeGateway("sk_test_x", testSecret)
	payload, header := signedPayload(t, "customer.created", `{"id":"cus_1","object":"customer"}`)
	ev, err := g.ParseEvent(payload, header)
	if !errors.Is(err, ErrUnhandledEvent) {
		t.Fatalf("expected ErrUnhandledEvent, got %v", err)
	}
	if ev == nil || ev.Type != "customer.created" {
		t.Fatalf("event = %+v", ev)
	}
}

func TestParseEventBadSignature(t *testing.T) {
	g := NewStripeGateway("sk_test_x", testSecret)
	payload, _ := signedPayload(t, EventCheckoutCompleted, `{"id":"cs_1","object":"checkout.session"}`)
	if _, err := g.ParseEvent(payload, "t=1,v1=deadbeef"); err == nil {
		t.Fatal("expected signature error")
	}
}

func TestToSessionCarriesPaymentIntent(t *testing.T) {
	s := toSession(&stripe.CheckoutSession{
		ID:            "cs_test_9",
		PaymentStatus: stripe.CheckoutSessionPaymentStatusPaid,
		PaymentIntent: &stripe.PaymentIntent{ID: "pi_9"},
		Metadata:      map[string]string{"offerId": "4"},
	})
	if !s.Paid || s.PaymentIntentID != "pi_9" || s.Metadata["offerId"] != "4" {
		t.Errorf("session = %+v", s)
	}
}

func TestRefundNeedsPaymentIntent(t *testing.T) {
	g := NewStripeGateway("sk_test_x", testSecret)
	if _, err := g.Refund(context.Background(), RefundRequest{}); err == nil {
		t.Fatal("refund without payment intent succeeded")
	}
}
