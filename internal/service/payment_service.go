package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"

	"jobmarket/config"
	"jobmarket/internal/domain"
	"jobmarket/internal/lifecycle"
	"jobmarket/internal/models"
	"jobmarket/internal/repository"
	"jobmarket/pkg/mailer"
	"jobmarket/pkg/payment"
)

// Checkout metadata keys carried through the processor back to Capture.
const (
	metaOfferID    = "offerId"
	metaUserID     = "userId"
	metaCommission = "commission"
	metaPercentage = "commissionPercentage"
)

// ErrSessionCaptured is returned when a checkout session was already turned
// into an order. The webhook and the success redirect both capture, so the
// second one to arrive gets this.
var ErrSessionCaptured = domain.Conflict("checkout session is already captured")

type CheckoutResult struct {
	SessionID            string  `json:"sessionId"`
	URL                  string  `json:"url"`
	Amount               float64 `json:"amount"`
	Commission           float64 `json:"commission"`
	CommissionPercentage float64 `json:"commissionPercentage"`
}

// PaymentService moves money: customer checkout, capture into an order and
// provider payout onboarding.
type PaymentService struct {
	store      *repository.Store
	gateway    payment.Gateway
	commission *CommissionService
	notify     *NotificationService
	mail       Mailer
	server     config.ServerConfig
	stripe     config.StripeConfig
}

func NewPaymentService(store *repository.Store, gateway payment.Gateway, commission *CommissionService, notify *NotificationService, mail Mailer, cfg *config.Config) *PaymentService {
	return &PaymentService{
		store:      store,
		gateway:    gateway,
		commission: commission,
		notify:     notify,
		mail:       mail,
		server:     cfg.Server,
		stripe:     cfg.Stripe,
	}
}

// Checkout opens a checkout session for the customer of an accepted or
// waiting offer.
func (s *PaymentService) Checkout(ctx context.Context, actorID, offerID uint) (*CheckoutResult, error) {
	offer, err := s.store.Offers.GetByID(offerID)
	if err != nil {
		return nil, lookupErr(err, "offer")
	}
	if !offer.HasParty(actorID) {
		return nil, domain.Unauthorized("you are not a party to this offer")
	}
	if _, err := lifecycle.NextOfferStatus(offer.Status, lifecycle.ActionPay); err != nil {
		return nil, err
	}
	actor, err := loadActive(s.store.Users, actorID)
	if err != nil {
		return nil, err
	}
	other, err := loadActive(s.store.Users, lifecycle.Counterparty(offer, actorID))
	if err != nil {
		return nil, err
	}
	customer, provider, err := lifecycle.ResolveParties(actor, other)
	if err != nil {
		return nil, err
	}
	if customer.ID != actorID {
		return nil, domain.Unauthorized("only the customer can pay for this offer")
	}
	if !provider.HasPayoutAccount() {
		return nil, domain.Forbidden("the provider has not connected a payout account yet")
	}
	if offer.ProjectID != nil {
		post, err := s.store.Posts.GetByID(*offer.ProjectID)
		if err != nil {
			return nil, lookupErr(err, "post")
		}
		if post.AcceptedOfferID != nil && *post.AcceptedOfferID != offer.ID {
			return nil, domain.Conflict("this post already has an accepted offer")
		}
	}
	pct, err := s.commission.Percentage(nil)
	if err != nil {
		return nil, err
	}
	fee, err := lifecycle.Commission(offer.Budget, pct)
	if err != nil {
		return nil, err
	}
	if lifecycle.ToCents(offer.Budget) <= 0 {
		return nil, domain.Validation("offer budget must be greater than zero to pay")
	}

	sess, err := s.gateway.CreateCheckout(ctx, payment.CheckoutRequest{
		Name:          offer.ProjectName,
		Description:   fmt.Sprintf("Order for %s with %s", offer.ProjectName, displayName(provider)),
		AmountCents:   lifecycle.ToCents(offer.Budget),
		Currency:      s.stripe.Currency,
		CustomerEmail: customer.Email,
		SuccessURL:    strings.TrimRight(s.server.PublicURL, "/") + "/api/v1/payments/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:     s.cancelURL(),
		TransferGroup: transferGroup(offer.ID),
		Metadata: map[string]string{
			metaOfferID:    uitoa(offer.ID),
			metaUserID:     uitoa(customer.ID),
			metaCommission: strconv.FormatFloat(fee, 'f', -1, 64),
			metaPercentage: strconv.FormatFloat(pct, 'f', -1, 64),
		},
	})
	if err != nil {
		return nil, domain.Dependency("create checkout session failed", err)
	}
	return &CheckoutResult{
		SessionID:            sess.ID,
		URL:                  sess.URL,
		Amount:               offer.Budget,
		Commission:           fee,
		CommissionPercentage: pct,
	}, nil
}

func (s *PaymentService) cancelURL() string {
	if s.stripe.CancelRedirectURL != "" {
		return s.stripe.CancelRedirectURL
	}
	return s.server.PublicURL
}

// SuccessRedirect is where the client is sent after a captured checkout.
func (s *PaymentService) SuccessRedirect() string { return s.stripe.SuccessRedirectURL }

// OnboardingRedirect is where the client is sent after Connect onboarding.
func (s *PaymentService) OnboardingRedirect() string { return s.stripe.OnboardingRedirectURL }

// Capture confirms a paid checkout session and turns its offer into an order.
// A paid session that can no longer become an order is refunded and reported
// as a conflict. A refund that fails is a dependency error so the caller can
// retry.
func (s *PaymentService) Capture(ctx context.Context, sessionID string) (*models.Order, error) {
	if sessionID == "" {
		return nil, domain.Validation("session_id is required")
	}
	sess, err := s.gateway.GetCheckout(ctx, sessionID)
	if err != nil {
		return nil, domain.Dependency("retrieve checkout session failed", err)
	}
	if !sess.Paid {
		return nil, domain.Conflict("checkout session is not paid")
	}
	offerID, err := strconv.ParseUint(sess.Metadata[metaOfferID], 10, 64)
	if err != nil {
		return nil, domain.Validation("checkout session has no offer")
	}
	payerID, err := strconv.ParseUint(sess.Metadata[metaUserID], 10, 64)
	if err != nil {
		return nil, domain.Validation("checkout session has no payer")
	}
	fee, err := strconv.ParseFloat(sess.Metadata[metaCommission], 64)
	if err != nil {
		return nil, domain.Validation("checkout session has no commission")
	}
	order, err := s.CapturePayment(ctx, CaptureInput{
		OfferID:    uint(offerID),
		PayerID:    uint(payerID),
		Commission: fee,
		SessionID:  sess.ID,
	})
	if err == nil || !rejectsCapture(err) {
		return order, err
	}
	if _, lookup := s.store.Payments.GetChargeBySession(sess.ID); lookup == nil {
		return nil, ErrSessionCaptured
	}
	return nil, s.refund(ctx, sess, uint(payerID), uint(offerID), err)
}

// rejectsCapture reports whether err means the offer can never be captured,
// as opposed to a transient failure worth retrying.
func rejectsCapture(err error) bool {
	for _, kind := range []error{domain.ErrConflict, domain.ErrNotFound, domain.ErrUnauthorized, domain.ErrForbidden, domain.ErrValidation} {
		if errors.Is(err, kind) {
			return true
		}
	}
	return false
}

func (s *PaymentService) refund(ctx context.Context, sess *payment.CheckoutSession, payerID, offerID uint, cause error) error {
	reason := domain.Message(cause)
	refundID, err := s.gateway.Refund(ctx, payment.RefundRequest{
		PaymentIntentID: sess.PaymentIntentID,
		Reason:          reason,
		IdempotencyKey:  "refund_" + sess.ID,
	})
	if err != nil {
		log.Printf("[payment] refund of session %s (offer %d) failed: %v", sess.ID, offerID, err)
		return domain.Dependency("payment could not be applied and the refund failed", err)
	}
	log.Printf("[payment] session %s for offer %d refunded as %s: %s", sess.ID, offerID, refundID, reason)
	s.notify.DispatchAll(ctx, &models.Notification{
		For:              payerID,
		Content:          "Your payment was refunded because the offer could no longer be accepted: " + reason,
		NotificationType: domain.NotifyPayment,
		Data:             models.NotificationData{Title: "Payment refunded", OfferID: uintPtr(offerID)},
	})
	return domain.Conflict("payment refunded: " + reason)
}

type CaptureInput struct {
	OfferID    uint
	PayerID    uint
	Commission float64
	SessionID  string
}

// CapturePayment records a captured payment for an offer: the offer becomes
// PAID, its post goes on project, and an order with its CHARGE ledger entry
// is created. A second capture of the same offer is a conflict.
func (s *PaymentService) CapturePayment(ctx context.Context, in CaptureInput) (*models.Order, error) {
	offer, err := s.store.Offers.GetByID(in.OfferID)
	if err != nil {
		return nil, lookupErr(err, "offer")
	}
	if _, err := lifecycle.NextOfferStatus(offer.Status, lifecycle.ActionPay); err != nil {
		return nil, err
	}
	if !offer.HasParty(in.PayerID) {
		return nil, domain.Unauthorized("payer is not a party to this offer")
	}
	payer, err := loadUser(s.store.Users, in.PayerID)
	if err != nil {
		return nil, err
	}
	other, err := loadUser(s.store.Users, lifecycle.Counterparty(offer, in.PayerID))
	if err != nil {
		return nil, err
	}
	customer, provider, err := lifecycle.ResolveParties(payer, other)
	if err != nil {
		return nil, err
	}
	if offer.Budget > 0 && (in.Commission < 0 || in.Commission > offer.Budget) {
		return nil, domain.Validation("commission must be between zero and the budget")
	}

	var order *models.Order
	var post *models.Post
	err = s.store.Transaction(func(tx *repository.Store) error {
		ok, err := tx.Offers.CompareAndSetStatus(offer.ID, lifecycle.OfferSourcesFor(lifecycle.ActionPay), domain.StatusPaid)
		if err != nil {
			return err
		}
		if !ok {
			return domain.Conflict("offer is already paid")
		}
		post, err = resolveOrCreatePost(tx, offer, customer.ID, uintPtr(offer.ID))
		if err != nil {
			return err
		}
		if post.AcceptedOfferID == nil {
			ok, err := tx.Posts.SetAccepted(post.ID, offer.ID, offer.DeliveryDate())
			if err != nil {
				return err
			}
			if !ok {
				return domain.Conflict("this post already has an accepted offer")
			}
		} else if *post.AcceptedOfferID != offer.ID {
			return domain.Conflict("this post already has an accepted offer")
		}
		if err := tx.Posts.MarkPaid(post.ID); err != nil {
			return err
		}

		order = &models.Order{
			OfferID:              offer.ID,
			ProjectID:            uintPtr(post.ID),
			CustomerID:           customer.ID,
			ProviderID:           provider.ID,
			Budget:               offer.Budget,
			CommissionPercentage: lifecycle.PercentageOf(in.Commission, offer.Budget),
			DeliveryDate:         offer.DeliveryDate(),
		}
		if err := tx.Orders.Create(order); err != nil {
			return err
		}
		for _, uid := range []uint{customer.ID, provider.ID} {
			if err := tx.Refs.Append(uid, domain.RefOrder, order.ID); err != nil {
				return err
			}
		}
		if err := tx.Refs.RemoveEverywhere(offerRefKinds, []uint{offer.ID}); err != nil {
			return err
		}
		return tx.Payments.Create(&models.Payment{
			UserID:            customer.ID,
			OrderID:           order.ID,
			Kind:              domain.PaymentKindCharge,
			Amount:            offer.Budget,
			Commission:        in.Commission,
			Currency:          s.stripe.Currency,
			Status:            domain.PaymentPending,
			CheckoutSessionID: in.SessionID,
		})
	})
	if err != nil {
		return nil, err
	}
	log.Printf("[payment] offer %d captured as order %d", offer.ID, order.ID)

	data := models.NotificationData{
		Title:   post.ProjectName,
		OfferID: uintPtr(offer.ID),
		PostID:  uintPtr(post.ID),
		OrderID: uintPtr(order.ID),
	}
	s.notify.DispatchAll(ctx,
		&models.Notification{
			For:              customer.ID,
			Content:          "Your payment was successful. Your order has been placed.",
			NotificationType: domain.NotifyPayment,
			Data:             data,
		},
		&models.Notification{
			For:              provider.ID,
			Content:          fmt.Sprintf("%s paid for %s. You can start working on the order.", displayName(customer), post.ProjectName),
			NotificationType: domain.NotifyOrder,
			Data:             models.NotificationData{Title: data.Title, OfferID: data.OfferID, PostID: data.PostID, OrderID: data.OrderID, Image: customer.ProfileImage},
		},
	)
	s.sendReceipt(ctx, customer, post, order, in.Commission)
	return order, nil
}

func (s *PaymentService) sendReceipt(ctx context.Context, customer *models.User, post *models.Post, order *models.Order, fee float64) {
	if s.mail == nil {
		return
	}
	err := s.mail.SendReceipt(ctx, mailer.Receipt{
		To:          customer.Email,
		Name:        displayName(customer),
		ProjectName: post.ProjectName,
		OrderID:     order.ID,
		Amount:      order.Budget,
		Commission:  fee,
		Currency:    s.stripe.Currency,
		PaidAt:      time.Now(),
	})
	if err != nil {
		log.Printf("[payment] receipt for order %d: %v", order.ID, err)
	}
}

// HandleWebhook verifies and applies a processor event. Events other than a
// completed checkout are acknowledged, as are sessions that were already
// captured, refunded or not yet paid. Any other failure is returned so the
// processor retries the delivery.
func (s *PaymentService) HandleWebhook(ctx context.Context, payload []byte, signature string) error {
	ev, err := s.gateway.ParseEvent(payload, signature)
	if errors.Is(err, payment.ErrUnhandledEvent) {
		return nil
	}
	if err != nil {
		return domain.Validation("invalid webhook: " + err.Error())
	}
	_, err = s.Capture(ctx, ev.CheckoutSessionID)
	if errors.Is(err, domain.ErrConflict) {
		log.Printf("[payment] webhook for session %s ignored: %s", ev.CheckoutSessionID, domain.Message(err))
		return nil
	}
	return err
}

// ConnectPayoutAccount starts (or resumes) Connect onboarding for a provider
// and returns the onboarding URL.
func (s *PaymentService) ConnectPayoutAccount(ctx context.Context, userID uint) (string, error) {
	u, err := loadActive(s.store.Users, userID)
	if err != nil {
		return "", err
	}
	if !u.IsProvider() {
		return "", domain.Forbidden("only service providers can receive payouts")
	}
	if u.HasPayoutAccount() {
		return "", domain.Conflict("payout account is already connected")
	}
	accountID := u.PayoutAccountID
	if accountID == "" {
		acct, err := s.gateway.CreateAccount(ctx, u.Email, map[string]string{metaUserID: uitoa(u.ID)})
		if err != nil {
			return "", domain.Dependency("create payout account failed", err)
		}
		accountID = acct.ID
		if err := s.store.Users.SetPayoutAccount(u.ID, accountID, false); err != nil {
			return "", err
		}
	}
	return s.onboardingLink(ctx, accountID)
}

// RefreshOnboarding issues a new onboarding link when the previous one expired.
func (s *PaymentService) RefreshOnboarding(ctx context.Context, accountID string) (string, error) {
	if _, err := s.store.Users.GetByPayoutAccount(accountID); err != nil {
		return "", lookupErr(err, "payout account")
	}
	return s.onboardingLink(ctx, accountID)
}

// CompleteOnboarding enables payouts once the processor reports the account ready.
func (s *PaymentService) CompleteOnboarding(ctx context.Context, accountID string) (*models.User, error) {
	u, err := s.store.Users.GetByPayoutAccount(accountID)
	if err != nil {
		return nil, lookupErr(err, "payout account")
	}
	acct, err := s.gateway.GetAccount(ctx, accountID)
	if err != nil {
		return nil, domain.Dependency("retrieve payout account failed", err)
	}
	if !acct.DetailsSubmitted || !acct.PayoutsEnabled {
		return nil, domain.Conflict("payout account onboarding is not complete yet")
	}
	if err := s.store.Users.SetPayoutAccount(u.ID, accountID, true); err != nil {
		return nil, err
	}
	u.PayoutsEnabled = true
	return u, nil
}

func (s *PaymentService) onboardingLink(ctx context.Context, accountID string) (string, error) {
	base := strings.TrimRight(s.server.PublicURL, "/") + "/api/v1/payments/connect/"
	url, err := s.gateway.OnboardingLink(ctx, accountID, base+"refresh/"+accountID, base+"return/"+accountID)
	if err != nil {
		return "", domain.Dependency("create onboarding link failed", err)
	}
	return url, nil
}

func (s *PaymentService) Records(userID uint, page, limit int) ([]models.Payment, int64, error) {
	page, limit = normalizePage(page, limit)
	return s.store.Payments.ListForUser(userID, page, limit)
}

func transferGroup(offerID uint) string { return "offer_" + uitoa(offerID) }
