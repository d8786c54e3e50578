package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"jobmarket/internal/domain"
	"jobmarket/internal/lifecycle"
	"jobmarket/internal/models"
	"jobmarket/pkg/payment"
)

func TestCheckoutCarriesCommission(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c, p := e.customer(t, "Carol"), e.provider(t, "Paul")
	o, _ := e.offers.Propose(ctx, p.ID, ProposeInput{To: c.ID, OfferTerms: OfferTerms{ProjectName: "Deck", Budget: 250}})

	_, err := e.payments.Checkout(ctx, p.ID, o.ID)
	wantKind(t, err, domain.ErrUnauthorized)

	res, err := e.payments.Checkout(ctx, c.ID, o.ID)
	if err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if res.Amount != 250 || res.Commission != 25 || res.CommissionPercentage != 10 {
		t.Errorf("result = %+v", res)
	}
	req := e.gw.checkouts[0]
	if req.AmountCents != 25000 || req.Currency != "usd" || req.CustomerEmail != c.Email {
		t.Errorf("checkout request = %+v", req)
	}
	if req.Metadata[metaOfferID] != uitoa(o.ID) || req.Metadata[metaUserID] != uitoa(c.ID) || req.Metadata[metaCommission] != "25" {
		t.Errorf("metadata = %v", req.Metadata)
	}
	if !strings.HasPrefix(req.SuccessURL, "https://api.test/api/v1/payments/success") {
		t.Errorf("success url = %s", req.SuccessURL)
	}
}

func TestCheckoutUsesCurrentCommission(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c, p := e.customer(t, "Carol"), e.provider(t, "Paul")
	o, _ := e.offers.Propose(ctx, p.ID, ProposeInput{To: c.ID, OfferTerms: OfferTerms{Budget: 100}})
	if _, err := e.commission.Update(12.2); err != nil {
		t.Fatal(err)
	}
	res, err := e.payments.Checkout(ctx, c.ID, o.ID)
	if err != nil {
		t.Fatal(err)
	}
	if res.CommissionPercentage != 13 || res.Commission != 13 {
		t.Errorf("result = %+v", res)
	}
}

func TestCheckoutRequiresPayoutAccount(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c, p := e.customer(t, "Carol"), e.provider(t, "Paul")
	o, _ := e.offers.Propose(ctx, p.ID, ProposeInput{To: c.ID, OfferTerms: OfferTerms{Budget: 100}})
	if err := e.store.Users.SetPayoutAccount(p.ID, p.PayoutAccountID, false); err != nil {
		t.Fatal(err)
	}
	_, err := e.payments.Checkout(ctx, c.ID, o.ID)
	wantKind(t, err, domain.ErrForbidden)
}

func TestCheckoutOnDeclinedOfferConflicts(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c, p := e.customer(t, "Carol"), e.provider(t, "Paul")
	job := e.post(t, c)
	a, _ := e.offers.OfferOnPost(ctx, p.ID, job.ID, OfferTerms{Budget: 100})
	b, _ := e.offers.Counter(ctx, c.ID, a.ID, counterTerms(90))
	if _, err := e.offers.Respond(ctx, p.ID, b.ID, lifecycle.ActionApprove); err != nil {
		t.Fatal(err)
	}
	// a was superseded by the accepted counter.
	_, err := e.payments.Checkout(ctx, c.ID, a.ID)
	wantKind(t, err, domain.ErrConflict)
}

func TestCaptureFromSession(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c, p := e.customer(t, "Carol"), e.provider(t, "Paul")
	o, _ := e.offers.Propose(ctx, p.ID, ProposeInput{To: c.ID, OfferTerms: OfferTerms{ProjectName: "Deck", Budget: 250}})
	res, err := e.payments.Checkout(ctx, c.ID, o.ID)
	if err != nil {
		t.Fatal(err)
	}

	_, err = e.payments.Capture(ctx, res.SessionID)
	wantKind(t, err, domain.ErrConflict)

	e.gw.pay(res.SessionID)
	order, err := e.payments.Capture(ctx, res.SessionID)
	if err != nil {
		t.Fatalf("Capture: %v", err)
	}
	if order.OfferID != o.ID || order.CommissionPercentage != 10 {
		t.Errorf("order = %+v", order)
	}
	post, err := e.store.Posts.GetByID(*order.ProjectID)
	if err != nil {
		t.Fatal(err)
	}
	if !post.AutoCreated || !post.IsPaid || post.AcceptedOfferID == nil || *post.AcceptedOfferID != o.ID {
		t.Errorf("post = %+v", post)
	}
	if n := e.countNotifications(t, "user_id = ? AND notification_type = ?", c.ID, domain.NotifyPayment); n != 1 {
		t.Errorf("payment notifications = %d", n)
	}
	if n := e.countNotifications(t, "user_id = ? AND notification_type = ?", p.ID, domain.NotifyOrder); n != 1 {
		t.Errorf("order notifications = %d", n)
	}
}

func TestCaptureRejectsBadCommission(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c, p := e.customer(t, "Carol"), e.provider(t, "Paul")
	o, _ := e.offers.Propose(ctx, p.ID, ProposeInput{To: c.ID, OfferTerms: OfferTerms{Budget: 100}})
	_, err := e.payments.CapturePayment(ctx, CaptureInput{OfferID: o.ID, PayerID: c.ID, Commission: 150})
	wantKind(t, err, domain.ErrValidation)
}

func TestWebhookReplayIsAcknowledged(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c, p := e.customer(t, "Carol"), e.provider(t, "Paul")
	o, _ := e.offers.Propose(ctx, p.ID, ProposeInput{To: c.ID, OfferTerms: OfferTerms{Budget: 80}})
	res, _ := e.payments.Checkout(ctx, c.ID, o.ID)
	e.gw.pay(res.SessionID)
	e.gw.event = &payment.Event{Type: "checkout.session.completed", CheckoutSessionID: res.SessionID}

	wantKind(t, e.payments.HandleWebhook(ctx, []byte("{}"), "forged"), domain.ErrValidation)
	for i := 0; i < 2; i++ {
		if err := e.payments.HandleWebhook(ctx, []byte("{}"), "valid"); err != nil {
			t.Fatalf("delivery %d: %v", i, err)
		}
	}
	charge, err := e.store.Payments.GetChargeBySession(res.SessionID)
	if err != nil {
		t.Fatal(err)
	}
	if n := e.countPayments(t, charge.OrderID, domain.PaymentKindCharge); n != 1 {
		t.Errorf("charges = %d", n)
	}
	if len(e.gw.refunds) != 0 {
		t.Errorf("replay refunded: %+v", e.gw.refunds)
	}
	_, err = e.payments.Capture(ctx, res.SessionID)
	if !errors.Is(err, ErrSessionCaptured) {
		t.Errorf("recapture = %v", err)
	}

	e.gw.event = nil
	if err := e.payments.HandleWebhook(ctx, []byte("{}"), "valid"); err != nil {
		t.Errorf("unhandled event: %v", err)
	}
}

// twoPaidCheckouts opens and pays checkouts for offers from two providers on
// the same post.
func (e *testEnv) twoPaidCheckouts(t *testing.T) (c *models.User, first, second *CheckoutResult, o2 *models.Offer) {
	t.Helper()
	ctx := context.Background()
	c = e.customer(t, "Carol")
	p1, p2 := e.provider(t, "Paul"), e.provider(t, "Pia")
	job := e.post(t, c)
	o1, err := e.offers.OfferOnPost(ctx, p1.ID, job.ID, OfferTerms{Budget: 100})
	if err != nil {
		t.Fatal(err)
	}
	o2, err = e.offers.OfferOnPost(ctx, p2.ID, job.ID, OfferTerms{Budget: 120})
	if err != nil {
		t.Fatal(err)
	}
	if first, err = e.payments.Checkout(ctx, c.ID, o1.ID); err != nil {
		t.Fatal(err)
	}
	if second, err = e.payments.Checkout(ctx, c.ID, o2.ID); err != nil {
		t.Fatal(err)
	}
	e.gw.pay(first.SessionID)
	e.gw.pay(second.SessionID)
	return c, first, second, o2
}

func TestCheckoutRejectsPostWithAcceptedOffer(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c, first, _, o2 := e.twoPaidCheckouts(t)
	if _, err := e.payments.Capture(ctx, first.SessionID); err != nil {
		t.Fatal(err)
	}
	_, err := e.payments.Checkout(ctx, c.ID, o2.ID)
	wantKind(t, err, domain.ErrConflict)
}

func TestWebhookRefundsSessionThatCannotBeCaptured(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c, first, second, o2 := e.twoPaidCheckouts(t)
	if _, err := e.payments.Capture(ctx, first.SessionID); err != nil {
		t.Fatal(err)
	}

	e.gw.event = &payment.Event{Type: "checkout.session.completed", CheckoutSessionID: second.SessionID}
	if err := e.payments.HandleWebhook(ctx, []byte("{}"), "valid"); err != nil {
		t.Fatalf("webhook: %v", err)
	}
	if len(e.gw.refunds) != 1 {
		t.Fatalf("refunds = %+v", e.gw.refunds)
	}
	r := e.gw.refunds[0]
	if r.PaymentIntentID != e.gw.sessions[second.SessionID].PaymentIntentID || r.IdempotencyKey != "refund_"+second.SessionID {
		t.Errorf("refund = %+v", r)
	}
	if _, err := e.store.Payments.GetChargeBySession(second.SessionID); err == nil {
		t.Error("charge recorded for refunded session")
	}
	if got, _ := e.store.Offers.GetByID(o2.ID); got.Status != domain.StatusWaiting {
		t.Errorf("offer status = %s", got.Status)
	}
	if n := e.countNotifications(t, "user_id = ? AND notification_type = ? AND content LIKE ?", c.ID, domain.NotifyPayment, "Your payment was refunded%"); n != 1 {
		t.Errorf("refund notifications = %d", n)
	}
}

func TestFailedRefundIsNotAcknowledged(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	_, first, second, _ := e.twoPaidCheckouts(t)
	if _, err := e.payments.Capture(ctx, first.SessionID); err != nil {
		t.Fatal(err)
	}
	e.gw.refundErr = errors.New("processor unavailable")
	e.gw.event = &payment.Event{Type: "checkout.session.completed", CheckoutSessionID: second.SessionID}
	wantKind(t, e.payments.HandleWebhook(ctx, []byte("{}"), "valid"), domain.ErrDependency)

	e.gw.refundErr = nil
	if err := e.payments.HandleWebhook(ctx, []byte("{}"), "valid"); err != nil {
		t.Fatalf("redelivery: %v", err)
	}
	if len(e.gw.refunds) != 1 {
		t.Errorf("refunds = %d", len(e.gw.refunds))
	}
}

func TestPayoutOnboarding(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c := e.customer(t, "Carol")
	p := e.user(t, "Paul", domain.RoleServiceProvider, false)

	_, err := e.payments.ConnectPayoutAccount(ctx, c.ID)
	wantKind(t, err, domain.ErrForbidden)

	link, err := e.payments.ConnectPayoutAccount(ctx, p.ID)
	if err != nil {
		t.Fatalf("ConnectPayoutAccount: %v", err)
	}
	u, _ := e.store.Users.GetByID(p.ID)
	if u.PayoutAccountID == "" || u.PayoutsEnabled {
		t.Fatalf("user payout state = %q %v", u.PayoutAccountID, u.PayoutsEnabled)
	}
	if !strings.Contains(link, "/api/v1/payments/connect/return/"+u.PayoutAccountID) {
		t.Errorf("link = %s", link)
	}

	_, err = e.payments.CompleteOnboarding(ctx, u.PayoutAccountID)
	wantKind(t, err, domain.ErrConflict)

	acct := e.gw.accounts[u.PayoutAccountID]
	acct.DetailsSubmitted, acct.PayoutsEnabled = true, true
	done, err := e.payments.CompleteOnboarding(ctx, u.PayoutAccountID)
	if err != nil {
		t.Fatal(err)
	}
	if !done.HasPayoutAccount() {
		t.Error("payouts not enabled")
	}
	_, err = e.payments.ConnectPayoutAccount(ctx, p.ID)
	wantKind(t, err, domain.ErrConflict)

	_, err = e.payments.RefreshOnboarding(ctx, "acct_unknown")
	wantKind(t, err, domain.ErrNotFound)
}

func TestPaymentRecords(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	order, c, p := e.paidOrder(t, 300, 30)
	req, _ := e.orders.SubmitDelivery(ctx, p.ID, order.ID, delivered)
	if _, err := e.orders.ActOnDelivery(ctx, c.ID, req.ID, lifecycle.ActionApprove); err != nil {
		t.Fatal(err)
	}
	for _, tc := range []struct {
		user uint
		kind string
	}{{c.ID, domain.PaymentKindCharge}, {p.ID, domain.PaymentKindPayout}} {
		list, total, err := e.payments.Records(tc.user, 1, 10)
		if err != nil || total != 1 || list[0].Kind != tc.kind {
			t.Errorf("records of %d = %+v (%d), %v", tc.user, list, total, err)
		}
	}
}
