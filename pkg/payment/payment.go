// Package payment is the boundary to the card processor: checkout sessions for
// customers, Connect accounts and transfers for providers.
package payment

import (
	"context"
	"errors"
)

var ErrUnhandledEvent = errors.New("unhandled webhook event")

type CheckoutRequest struct {
	Name          string
	Description   string
	AmountCents   int64
	Currency      string
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
	TransferGroup string
	Metadata      map[string]string
}

type CheckoutSession struct {
	ID              string
	URL             string
	Paid            bool
	PaymentIntentID string
	AmountTotal   int64
	CustomerEmail string
	Metadata      map[string]string
}

type TransferRequest struct {
	AmountCents    int64
	Currency       string
	Destination    string
	Group          string
	IdempotencyKey string
}

// RefundRequest returns a captured checkout payment in full.
type RefundRequest struct {
	PaymentIntentID string
	Reason          string
	IdempotencyKey  string
}

type Account struct {
	ID               string
	PayoutsEnabled   bool
	DetailsSubmitted bool
	Metadata         map[string]string
}

// Event is a verified webhook notification.
type Event struct {
	Type              string
	CheckoutSessionID string
}

type Gateway interface {
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error)
	GetCheckout(ctx context.Context, sessionID string) (*CheckoutSession, error)
	Transfer(ctx context.Context, req TransferRequest) (string, error)
	ReverseTransfer(ctx context.Context, transferID string) error
	Refund(ctx context.Context, req RefundRequest) (string, error)
	CreateAccount(ctx context.Context, email string, metadata map[string]string) (*Account, error)
	GetAccount(ctx context.Context, accountID string) (*Account, error)
	OnboardingLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error)
	ParseEvent(payload []byte, signature string) (*Event, error)
}
