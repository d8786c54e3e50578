package service

import (
	"context"
	"errors"
	"testing"

	"jobmarket/internal/domain"
	"jobmarket/internal/lifecycle"
	"jobmarket/internal/models"
)

var delivered = DeliveryInput{
	ProjectDoc: "All cabinets installed",
	PDF:        "https://res.cloudinary.com/demo/raw/upload/v1/deliveries/report.pdf",
}

// paidOrder runs a post through offer, acceptance and capture and returns
// the order with its parties.
func (e *testEnv) paidOrder(t *testing.T, budget, commission float64) (*models.Order, *models.User, *models.User) {
	t.Helper()
	ctx := context.Background()
	c, p := e.customer(t, "Carol"), e.provider(t, "Paul")
	job := e.post(t, c)
	o, err := e.offers.OfferOnPost(ctx, p.ID, job.ID, OfferTerms{Budget: budget, Deadline: days(14)})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.offers.Respond(ctx, c.ID, o.ID, lifecycle.ActionApprove); err != nil {
		t.Fatal(err)
	}
	order, err := e.payments.CapturePayment(ctx, CaptureInput{OfferID: o.ID, PayerID: c.ID, Commission: commission, SessionID: "cs_test"})
	if err != nil {
		t.Fatalf("CapturePayment: %v", err)
	}
	return order, c, p
}

func TestOfferToPayoutScenario(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	c, p := e.customer(t, "Carol"), e.provider(t, "Paul")
	job := e.post(t, c)

	o1, err := e.offers.OfferOnPost(ctx, p.ID, job.ID, OfferTerms{Budget: 500})
	if err != nil {
		t.Fatal(err)
	}
	o2, err := e.offers.Counter(ctx, p.ID, o1.ID, counterTerms(600))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := e.offers.Respond(ctx, c.ID, o1.ID, lifecycle.ActionApprove); err != nil {
		t.Fatal(err)
	}
	if _, err := e.store.Offers.GetByID(o2.ID); err == nil {
		t.Fatal("counter-offer survived approval")
	}
	if n := e.countNotifications(t, "data_offer_id = ?", o2.ID); n != 0 {
		t.Fatalf("counter notifications = %d", n)
	}

	capture := CaptureInput{OfferID: o1.ID, PayerID: c.ID, Commission: 50, SessionID: "cs_1"}
	order, err := e.payments.CapturePayment(ctx, capture)
	if err != nil {
		t.Fatalf("CapturePayment: %v", err)
	}
	paid, _ := e.store.Offers.GetByID(o1.ID)
	if paid.Status != domain.StatusPaid {
		t.Errorf("offer status = %s", paid.Status)
	}
	post, _ := e.store.Posts.GetByID(job.ID)
	if !post.IsOnProject || !post.IsPaid {
		t.Errorf("post flags = onProject %v paid %v", post.IsOnProject, post.IsPaid)
	}
	if order.CustomerID != c.ID || order.ProviderID != p.ID || order.Budget != 500 || order.CommissionPercentage != 10 {
		t.Errorf("order = %+v", order)
	}
	charge, err := e.store.Payments.GetByOrder(order.ID, domain.PaymentKindCharge)
	if err != nil {
		t.Fatal(err)
	}
	if charge.Amount != 500 || charge.Commission != 50 || charge.Status != domain.PaymentPending {
		t.Errorf("charge = %+v", charge)
	}
	for _, u := range []uint{c.ID, p.ID} {
		if ok, _ := e.store.Refs.Has(u, domain.RefOrder, order.ID); !ok {
			t.Errorf("order missing from user %d", u)
		}
	}
	if len(e.mail.receipts) != 1 || e.mail.receipts[0].To != c.Email {
		t.Errorf("receipts = %+v", e.mail.receipts)
	}

	_, err = e.payments.CapturePayment(ctx, capture)
	wantKind(t, err, domain.ErrConflict)
	if n := e.countPayments(t, order.ID, domain.PaymentKindCharge); n != 1 {
		t.Fatalf("charges after replay = %d", n)
	}

	req, err := e.orders.SubmitDelivery(ctx, p.ID, order.ID, delivered)
	if err != nil {
		t.Fatalf("SubmitDelivery: %v", err)
	}
	done, err := e.orders.ActOnDelivery(ctx, c.ID, req.ID, lifecycle.ActionApprove)
	if err != nil {
		t.Fatalf("ActOnDelivery: %v", err)
	}
	if !done.IsCompleted || done.CompletedAt == nil {
		t.Errorf("order not completed: %+v", done)
	}
	if len(e.gw.transfers) != 1 {
		t.Fatalf("transfers = %d", len(e.gw.transfers))
	}
	tr := e.gw.transfers[0]
	if tr.AmountCents != 45000 || tr.Destination != p.PayoutAccountID || tr.Group != transferGroup(o1.ID) {
		t.Errorf("transfer = %+v", tr)
	}
	payout, err := e.store.Payments.GetByOrder(order.ID, domain.PaymentKindPayout)
	if err != nil {
		t.Fatal(err)
	}
	if payout.Amount != 450 || payout.Commission != 50 || payout.Status != domain.PaymentSuccess || payout.UserID != p.ID {
		t.Errorf("payout = %+v", payout)
	}
	charge, _ = e.store.Payments.GetByOrder(order.ID, domain.PaymentKindCharge)
	if charge.Status != domain.PaymentSuccess {
		t.Errorf("charge status = %s", charge.Status)
	}

	_, err = e.orders.ActOnDelivery(ctx, c.ID, req.ID, lifecycle.ActionApprove)
	wantKind(t, err, domain.ErrConflict)
	if n := e.countPayments(t, order.ID, domain.PaymentKindPayout); n != 1 {
		t.Errorf("payouts = %d", n)
	}
	if len(e.gw.transfers) != 1 {
		t.Errorf("transfers after replay = %d", len(e.gw.transfers))
	}
}

func TestFailedTransferLeavesOrderOpen(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	order, c, p := e.paidOrder(t, 500, 50)
	req, err := e.orders.SubmitDelivery(ctx, p.ID, order.ID, delivered)
	if err != nil {
		t.Fatal(err)
	}
	e.gw.transferErr = errors.New("insufficient platform balance")

	_, err = e.orders.ActOnDelivery(ctx, c.ID, req.ID, lifecycle.ActionApprove)
	wantKind(t, err, domain.ErrDependency)

	got, _ := e.store.Orders.GetByID(order.ID)
	if got.IsCompleted {
		t.Error("order completed despite failed transfer")
	}
	r, _ := e.store.Requests.GetByID(req.ID)
	if r.RequestStatus != domain.StatusWaiting {
		t.Errorf("request status = %s", r.RequestStatus)
	}
	if n := e.countPayments(t, order.ID, domain.PaymentKindPayout); n != 0 {
		t.Errorf("payouts = %d", n)
	}

	e.gw.transferErr = nil
	if _, err := e.orders.ActOnDelivery(ctx, c.ID, req.ID, lifecycle.ActionApprove); err != nil {
		t.Fatalf("retry: %v", err)
	}
}

func TestPayoutRetryAfterReversalTransfersAgain(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	order, c, p := e.paidOrder(t, 500, 50)
	req, err := e.orders.SubmitDelivery(ctx, p.ID, order.ID, delivered)
	if err != nil {
		t.Fatal(err)
	}
	// An existing PAYOUT row makes recording the payout fail after the transfer.
	blocker := &models.Payment{UserID: p.ID, OrderID: order.ID, Kind: domain.PaymentKindPayout, Status: domain.PaymentFailed}
	if err := e.store.Payments.Create(blocker); err != nil {
		t.Fatal(err)
	}
	_, err = e.orders.ActOnDelivery(ctx, c.ID, req.ID, lifecycle.ActionApprove)
	wantKind(t, err, domain.ErrDependency)
	if len(e.gw.reversed) != 1 || len(e.gw.transfers) != 1 {
		t.Fatalf("reversed = %v, transfers = %d", e.gw.reversed, len(e.gw.transfers))
	}
	reversed := e.gw.reversed[0]
	if got, _ := e.store.Orders.GetByID(order.ID); got.IsCompleted {
		t.Fatal("order completed after failed payout")
	}

	if err := e.store.DB().Delete(&models.Payment{}, blocker.ID).Error; err != nil {
		t.Fatal(err)
	}
	if _, err := e.orders.ActOnDelivery(ctx, c.ID, req.ID, lifecycle.ActionApprove); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if len(e.gw.transfers) != 2 {
		t.Fatalf("transfers = %d", len(e.gw.transfers))
	}
	if k1, k2 := e.gw.transfers[0].IdempotencyKey, e.gw.transfers[1].IdempotencyKey; k1 == k2 {
		t.Errorf("retry reused idempotency key %q", k1)
	}
	payout, err := e.store.Payments.GetByOrder(order.ID, domain.PaymentKindPayout)
	if err != nil {
		t.Fatal(err)
	}
	if payout.TransferID == "" || payout.TransferID == reversed || payout.Status != domain.PaymentSuccess {
		t.Errorf("payout = %+v, reversed transfer %s", payout, reversed)
	}
}

func TestNewDeliverySupersedesWaitingOne(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	order, c, p := e.paidOrder(t, 200, 20)
	first, err := e.orders.SubmitDelivery(ctx, p.ID, order.ID, delivered)
	if err != nil {
		t.Fatal(err)
	}
	ext, err := e.orders.RequestTimeExtension(ctx, p.ID, order.ID, TimeExtensionInput{Reason: "parts delayed", NextExtendedDate: days(20)})
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.orders.SubmitDelivery(ctx, p.ID, order.ID, delivered)
	if err != nil {
		t.Fatal(err)
	}

	_, err = e.orders.ActOnDelivery(ctx, c.ID, first.ID, lifecycle.ActionApprove)
	wantKind(t, err, domain.ErrConflict)
	if r, _ := e.store.Requests.GetByID(ext.ID); !r.IsValid {
		t.Error("time extension invalidated by a delivery")
	}
	got, _ := e.store.Orders.GetByID(order.ID)
	if !got.DeliveryRequested || got.RequestID == nil || *got.RequestID != second.ID {
		t.Errorf("order request = %v", got.RequestID)
	}
	list, err := e.orders.ListDeliveryRequests(c.ID, order.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Errorf("deliveries listed = %d", len(list))
	}
}

func TestDeliveryNeedsContent(t *testing.T) {
	e := newEnv(t)
	order, _, p := e.paidOrder(t, 200, 20)
	_, err := e.orders.SubmitDelivery(context.Background(), p.ID, order.ID, DeliveryInput{ProjectDoc: "done"})
	wantKind(t, err, domain.ErrValidation)
}

func TestOnlyProviderDelivers(t *testing.T) {
	e := newEnv(t)
	order, c, _ := e.paidOrder(t, 200, 20)
	_, err := e.orders.SubmitDelivery(context.Background(), c.ID, order.ID, delivered)
	wantKind(t, err, domain.ErrUnauthorized)
	if len(e.files.deleted) != 1 {
		t.Errorf("rejected upload not discarded: %v", e.files.deleted)
	}
}

func TestDeclineDeliveryMarksOrder(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	order, c, p := e.paidOrder(t, 200, 20)
	req, _ := e.orders.SubmitDelivery(ctx, p.ID, order.ID, delivered)

	_, err := e.orders.ActOnDelivery(ctx, p.ID, req.ID, lifecycle.ActionDecline)
	wantKind(t, err, domain.ErrUnauthorized)

	got, err := e.orders.ActOnDelivery(ctx, c.ID, req.ID, lifecycle.ActionDecline)
	if err != nil {
		t.Fatal(err)
	}
	if got.Status != domain.OrderStatusDeclined || got.IsCompleted {
		t.Errorf("order = %+v", got)
	}
	if n := e.countNotifications(t, "user_id = ? AND notification_type = ?", p.ID, domain.NotifyDeliveryDeclined); n != 1 {
		t.Errorf("decline notifications = %d", n)
	}
	_, err = e.orders.ActOnDelivery(ctx, c.ID, req.ID, lifecycle.ActionApprove)
	wantKind(t, err, domain.ErrConflict)
	if list, _ := e.orders.ListDeliveryRequests(c.ID, order.ID); len(list) != 0 {
		t.Errorf("declined delivery still listed")
	}
}

func TestTimeExtension(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	order, c, p := e.paidOrder(t, 200, 20)

	_, err := e.orders.RequestTimeExtension(ctx, p.ID, order.ID, TimeExtensionInput{Reason: "late", NextExtendedDate: days(-1)})
	wantKind(t, err, domain.ErrValidation)

	next := days(30)
	ext, err := e.orders.RequestTimeExtension(ctx, p.ID, order.ID, TimeExtensionInput{Reason: "parts delayed", NextExtendedDate: next})
	if err != nil {
		t.Fatal(err)
	}
	_, err = e.orders.ActOnDelivery(ctx, c.ID, ext.ID, lifecycle.ActionApprove)
	wantKind(t, err, domain.ErrNotFound)

	got, err := e.orders.ActOnTimeExtension(ctx, c.ID, ext.ID, lifecycle.ActionApprove)
	if err != nil {
		t.Fatal(err)
	}
	if !got.IsExtended || got.ExtendsDate == nil || !got.ExtendsDate.Equal(*next) || got.ExtendsMessage != "parts delayed" {
		t.Errorf("order = %+v", got)
	}

	again, _ := e.orders.RequestTimeExtension(ctx, p.ID, order.ID, TimeExtensionInput{Reason: "more", NextExtendedDate: days(40)})
	got, err = e.orders.ActOnTimeExtension(ctx, c.ID, again.ID, lifecycle.ActionDecline)
	if err != nil {
		t.Fatal(err)
	}
	if !got.ExtendsDate.Equal(*next) {
		t.Errorf("declined extension moved the date to %v", got.ExtendsDate)
	}
	if n := e.countNotifications(t, "user_id = ? AND notification_type IN ?", p.ID,
		[]string{domain.NotifyTimeExtendApproved, domain.NotifyTimeExtendDeclined}); n != 2 {
		t.Errorf("extension answers = %d", n)
	}
	list, total, err := e.orders.ListTimeExtensions(c.ID, 1, 10)
	if err != nil || total != 2 || len(list) != 2 {
		t.Errorf("ListTimeExtensions = %d/%d, %v", len(list), total, err)
	}
}

func TestDeleteOrder(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	order, c, p := e.paidOrder(t, 200, 20)
	x := e.customer(t, "Xena")

	wantKind(t, e.orders.DeleteOrder(ctx, x.ID, order.ID), domain.ErrUnauthorized)
	if err := e.orders.DeleteOrder(ctx, c.ID, order.ID); err != nil {
		t.Fatal(err)
	}
	for _, u := range []uint{c.ID, p.ID} {
		if ok, _ := e.store.Refs.Has(u, domain.RefOrder, order.ID); ok {
			t.Errorf("order still listed for user %d", u)
		}
	}
	if n := e.countNotifications(t, "user_id = ? AND notification_type = ? AND content = ?", p.ID, domain.NotifyOrder,
		"Carol cancelled order #"+uitoa(order.ID)+"."); n != 1 {
		t.Errorf("cancel notifications = %d", n)
	}
	wantKind(t, e.orders.DeleteOrder(ctx, c.ID, order.ID), domain.ErrNotFound)
}

func TestCompletedOrderCannotBeDeleted(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	order, c, p := e.paidOrder(t, 200, 20)
	req, _ := e.orders.SubmitDelivery(ctx, p.ID, order.ID, delivered)
	if _, err := e.orders.ActOnDelivery(ctx, c.ID, req.ID, lifecycle.ActionApprove); err != nil {
		t.Fatal(err)
	}
	wantKind(t, e.orders.DeleteOrder(ctx, c.ID, order.ID), domain.ErrConflict)
	_, err := e.orders.SubmitDelivery(ctx, p.ID, order.ID, delivered)
	wantKind(t, err, domain.ErrConflict)
}
