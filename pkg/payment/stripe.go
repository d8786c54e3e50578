package payment

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/client"
	"github.com/stripe/stripe-go/v74/webhook"
)

const EventCheckoutCompleted = "checkout.session.completed"

// StripeGateway implements Gateway on Stripe Checkout and Stripe Connect.
type StripeGateway struct {
	api           *client.API
	webhookSecret string
}

func NewStripeGateway(secretKey, webhookSecret string) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{api: api, webhookSecret: webhookSecret}
}

func (g *StripeGateway) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			Quantity: stripe.Int64(1),
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(req.Currency),
				UnitAmount: stripe.Int64(req.AmountCents),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String(req.Name),
					Description: optional(req.Description),
				},
			},
		}},
	}
	if req.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(req.CustomerEmail)
	}
	if req.TransferGroup != "" {
		params.PaymentIntentData = &stripe.CheckoutSessionPaymentIntentDataParams{
			TransferGroup: stripe.String(req.TransferGroup),
		}
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx
	s, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create checkout session: %w", err)
	}
	return toSession(s), nil
}

func (g *StripeGateway) GetCheckout(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx
	s, err := g.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: get checkout session: %w", err)
	}
	return toSession(s), nil
}

func (g *StripeGateway) Transfer(ctx context.Context, req TransferRequest) (string, error) {
	params := &stripe.TransferParams{
		Amount:      stripe.Int64(req.AmountCents),
		Currency:    stripe.String(req.Currency),
		Destination: stripe.String(req.Destination),
	}
	if req.Group != "" {
		params.TransferGroup = stripe.String(req.Group)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	params.Context = ctx
	t, err := g.api.Transfers.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe: transfer: %w", err)
	}
	return t.ID, nil
}

func (g *StripeGateway) ReverseTransfer(ctx context.Context, transferID string) error {
	params := &stripe.TransferReversalParams{ID: stripe.String(transferID)}
	params.Context = ctx
	if _, err := g.api.TransferReversals.New(params); err != nil {
		return fmt.Errorf("stripe: reverse transfer %s: %w", transferID, err)
	}
	return nil
}

func (g *StripeGateway) Refund(ctx context.Context, req RefundRequest) (string, error) {
	if req.PaymentIntentID == "" {
		return "", fmt.Errorf("stripe: refund: checkout session has no payment intent")
	}
	params := &stripe.RefundParams{PaymentIntent: stripe.String(req.PaymentIntentID)}
	if req.Reason != "" {
		params.AddMetadata("reason", req.Reason)
	}
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	params.Context = ctx
	r, err := g.api.Refunds.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe: refund %s: %w", req.PaymentIntentID, err)
	}
	return r.ID, nil
}

func (g *StripeGateway) CreateAccount(ctx context.Context, email string, metadata map[string]string) (*Account, error) {
	params := &stripe.AccountParams{
		Type:  stripe.String(string(stripe.AccountTypeExpress)),
		Email: optional(email),
		Capabilities: &stripe.AccountCapabilitiesParams{
			CardPayments: &stripe.AccountCapabilitiesCardPaymentsParams{Requested: stripe.Bool(true)},
			Transfers:    &stripe.AccountCapabilitiesTransfersParams{Requested: stripe.Bool(true)},
		},
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	params.Context = ctx
	a, err := g.api.Accounts.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe: create account: %w", err)
	}
	return toAccount(a), nil
}

func (g *StripeGateway) GetAccount(ctx context.Context, accountID string) (*Account, error) {
	params := &stripe.AccountParams{}
	params.Context = ctx
	a, err := g.api.Accounts.GetByID(accountID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe: get account: %w", err)
	}
	return toAccount(a), nil
}

func (g *StripeGateway) OnboardingLink(ctx context.Context, accountID, refreshURL, returnURL string) (string, error) {
	params := &stripe.AccountLinkParams{
		Account:    stripe.String(accountID),
		RefreshURL: stripe.String(refreshURL),
		ReturnURL:  stripe.String(returnURL),
		Type:       stripe.String("account_onboarding"),
	}
	params.Context = ctx
	link, err := g.api.AccountLinks.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe: account link: %w", err)
	}
	return link.URL, nil
}

// ParseEvent verifies the Stripe-Signature header and extracts the checkout
// session of a completed checkout. Other event types return ErrUnhandledEvent.
func (g *StripeGateway) ParseEvent(payload []byte, signature string) (*Event, error) {
	event, err := webhook.ConstructEvent(payload, signature, g.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("stripe: verify webhook: %w", err)
	}
	if string(event.Type) != EventCheckoutCompleted {
		return &Event{Type: string(event.Type)}, ErrUnhandledEvent
	}
	var s stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
		return nil, fmt.Errorf("stripe: decode checkout session: %w", err)
	}
	return &Event{Type: string(event.Type), CheckoutSessionID: s.ID}, nil
}

func toSession(s *stripe.CheckoutSession) *CheckoutSession {
	out := &CheckoutSession{
		ID:          s.ID,
		URL:         s.URL,
		Paid:        s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		AmountTotal: s.AmountTotal,
		Metadata:    s.Metadata,
	}
	if s.CustomerDetails != nil {
		out.CustomerEmail = s.CustomerDetails.Email
	}
	if s.PaymentIntent != nil {
		out.PaymentIntentID = s.PaymentIntent.ID
	}
	return out
}

func toAccount(a *stripe.Account) *Account {
	return &Account{
		ID:               a.ID,
		PayoutsEnabled:   a.PayoutsEnabled,
		DetailsSubmitted: a.DetailsSubmitted,
		Metadata:         a.Metadata,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return stripe.String(s)
}
