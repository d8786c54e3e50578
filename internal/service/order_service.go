package service

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"time"

	"jobmarket/config"
	"jobmarket/internal/domain"
	"jobmarket/internal/lifecycle"
	"jobmarket/internal/models"
	"jobmarket/internal/repository"
	"jobmarket/pkg/payment"

	"github.com/google/uuid"
)

type DeliveryInput struct {
	ProjectDoc      string   `json:"projectDoc" validate:"max=10000"`
	UploadedProject string   `json:"uploadedProject" validate:"omitempty,url"`
	PDF             string   `json:"pdf" validate:"omitempty,url"`
	Images          []string `json:"images" validate:"max=10,dive,url"`
	Location        string   `json:"location" validate:"max=255"`
}

func (in DeliveryInput) uploads() []string {
	return append([]string{in.UploadedProject, in.PDF}, in.Images...)
}

type TimeExtensionInput struct {
	Reason           string     `json:"reason" validate:"required,max=2000"`
	NextExtendedDate *time.Time `json:"nextExtendedDate" validate:"required"`
}

// OrderService drives an order from payment to completion: delivery
// submissions, time extensions, the payout on approval and cancellation.
type OrderService struct {
	store      *repository.Store
	gateway    payment.Gateway
	commission *CommissionService
	notify     *NotificationService
	files      FileStore
	currency   string
	now        func() time.Time
}

func NewOrderService(store *repository.Store, gateway payment.Gateway, commission *CommissionService, notify *NotificationService, files FileStore, stripe config.StripeConfig) *OrderService {
	return &OrderService{
		store:      store,
		gateway:    gateway,
		commission: commission,
		notify:     notify,
		files:      files,
		currency:   stripe.Currency,
		now:        time.Now,
	}
}

// loadProviderOrder loads an open order the actor is the provider of, with both parties.
func (s *OrderService) loadProviderOrder(actorID, orderID uint) (*models.Order, *models.User, *models.User, error) {
	order, err := s.store.Orders.GetByID(orderID)
	if err != nil {
		return nil, nil, nil, lookupErr(err, "order")
	}
	if order.ProviderID != actorID {
		return nil, nil, nil, domain.Unauthorized("only the provider of this order can do this")
	}
	if order.IsCompleted {
		return nil, nil, nil, domain.Conflict("order is already completed")
	}
	provider, err := loadActive(s.store.Users, order.ProviderID)
	if err != nil {
		return nil, nil, nil, err
	}
	customer, err := loadActive(s.store.Users, order.CustomerID)
	if err != nil {
		return nil, nil, nil, err
	}
	return order, provider, customer, nil
}

// SubmitDelivery records the provider's delivery and supersedes their earlier
// WAITING deliveries for the order.
func (s *OrderService) SubmitDelivery(ctx context.Context, actorID, orderID uint, in DeliveryInput) (req *models.DeliveryRequest, err error) {
	defer func() {
		if err != nil {
			discardUploads(ctx, s.files, in.uploads()...)
		}
	}()
	if err := validateInput(&in); err != nil {
		return nil, err
	}
	if in.PDF == "" && len(in.Images) == 0 && in.UploadedProject == "" {
		return nil, domain.Validation("a pdf, images or a project file is required")
	}
	order, provider, customer, err := s.loadProviderOrder(actorID, orderID)
	if err != nil {
		return nil, err
	}

	req = &models.DeliveryRequest{
		OrderID:         order.ID,
		For:             customer.ID,
		From:            provider.ID,
		RequestType:     domain.RequestTypeDelivery,
		ProjectDoc:      in.ProjectDoc,
		UploadedProject: in.UploadedProject,
		PDF:             in.PDF,
		Images:          models.StringList(in.Images),
		Location:        in.Location,
		RequestStatus:   domain.StatusWaiting,
		IsValid:         true,
	}
	err = s.store.Transaction(func(tx *repository.Store) error {
		if err := tx.Requests.Create(req); err != nil {
			return err
		}
		if _, err := tx.Requests.InvalidatePrior(req, domain.StatusWaiting); err != nil {
			return err
		}
		return tx.Orders.SetDeliveryRequested(order.ID, req.ID)
	})
	if err != nil {
		return nil, err
	}

	s.notify.DispatchAll(ctx, &models.Notification{
		For:              customer.ID,
		Content:          fmt.Sprintf("%s has delivered your order. Please review the delivery.", displayName(provider)),
		NotificationType: domain.NotifyDeliveryRequest,
		Data:             s.orderData(order, req.ID, provider.ProfileImage),
	})
	return req, nil
}

// RequestTimeExtension asks the customer to move the delivery date. Earlier
// requests stay valid.
func (s *OrderService) RequestTimeExtension(ctx context.Context, actorID, orderID uint, in TimeExtensionInput) (*models.DeliveryRequest, error) {
	if err := validateInput(&in); err != nil {
		return nil, err
	}
	if !in.NextExtendedDate.After(s.now()) {
		return nil, domain.Validation("nextExtendedDate must be in the future")
	}
	order, provider, customer, err := s.loadProviderOrder(actorID, orderID)
	if err != nil {
		return nil, err
	}
	req := &models.DeliveryRequest{
		OrderID:          order.ID,
		For:              customer.ID,
		From:             provider.ID,
		RequestType:      domain.RequestTypeTimeExtend,
		Reason:           in.Reason,
		NextExtendedDate: in.NextExtendedDate,
		RequestStatus:    domain.StatusWaiting,
		IsValid:          true,
	}
	if err := s.store.Requests.Create(req); err != nil {
		return nil, err
	}
	s.notify.DispatchAll(ctx, &models.Notification{
		For:              customer.ID,
		Content:          fmt.Sprintf("%s requested more time to deliver your order.", displayName(provider)),
		NotificationType: domain.NotifyTimeExtendRequest,
		Data:             s.orderData(order, req.ID, provider.ProfileImage),
	})
	return req, nil
}

// loadRequestFor loads a request of requestType the actor may answer with action.
func (s *OrderService) loadRequestFor(actorID, requestID uint, requestType, action string) (*models.DeliveryRequest, *models.Order, error) {
	if !lifecycle.ValidResponse(action) {
		return nil, nil, domain.Validation("action must be APPROVE or DECLINE")
	}
	req, err := s.store.Requests.GetByID(requestID)
	if err != nil {
		return nil, nil, lookupErr(err, "request")
	}
	if req.RequestType != requestType {
		return nil, nil, domain.NotFound("request not found")
	}
	if req.For != actorID {
		return nil, nil, domain.Unauthorized("this request is not addressed to you")
	}
	if !req.IsValid {
		return nil, nil, domain.Conflict("this request was superseded by a newer one")
	}
	if _, err := lifecycle.NextRequestStatus(req.RequestStatus, action); err != nil {
		return nil, nil, err
	}
	order, err := s.store.Orders.GetByID(req.OrderID)
	if err != nil {
		return nil, nil, lookupErr(err, "order")
	}
	if order.IsCompleted {
		return nil, nil, domain.Conflict("order is already completed")
	}
	if _, err := loadActive(s.store.Users, actorID); err != nil {
		return nil, nil, err
	}
	return req, order, nil
}

// ActOnDelivery approves or declines a delivery. Approval completes the order
// and pays the provider their share.
func (s *OrderService) ActOnDelivery(ctx context.Context, actorID, requestID uint, action string) (*models.Order, error) {
	req, order, err := s.loadRequestFor(actorID, requestID, domain.RequestTypeDelivery, action)
	if err != nil {
		return nil, err
	}
	provider, err := loadUser(s.store.Users, order.ProviderID)
	if err != nil {
		return nil, err
	}
	if action == lifecycle.ActionDecline {
		return s.declineDelivery(ctx, req, order, provider)
	}
	return s.approveDelivery(ctx, req, order, provider)
}

func (s *OrderService) declineDelivery(ctx context.Context, req *models.DeliveryRequest, order *models.Order, provider *models.User) (*models.Order, error) {
	err := s.store.Transaction(func(tx *repository.Store) error {
		ok, err := tx.Requests.CompareAndSetStatus(req.ID, lifecycle.RequestSourcesFor(lifecycle.ActionDecline), domain.StatusDecline)
		if err != nil {
			return err
		}
		if !ok {
			return domain.Conflict("request was already answered")
		}
		return tx.Orders.SetDeclined(order.ID, domain.OrderStatusDeclined)
	})
	if err != nil {
		return nil, err
	}
	s.notify.DispatchAll(ctx, &models.Notification{
		For:              provider.ID,
		Content:          "Your delivery was declined. Please review the feedback and deliver again.",
		NotificationType: domain.NotifyDeliveryDeclined,
		Data:             s.orderData(order, req.ID, ""),
	})
	return s.store.Orders.GetByID(order.ID)
}

func (s *OrderService) approveDelivery(ctx context.Context, req *models.DeliveryRequest, order *models.Order, provider *models.User) (*models.Order, error) {
	if !provider.HasPayoutAccount() {
		return nil, domain.Forbidden("the provider has not connected a payout account yet")
	}
	pct, err := s.commission.Percentage(&order.CommissionPercentage)
	if err != nil {
		return nil, err
	}
	fee, err := lifecycle.Commission(order.Budget, pct)
	if err != nil {
		return nil, err
	}
	payout, err := lifecycle.ProviderReceives(order.Budget, pct)
	if err != nil {
		return nil, err
	}
	// A reversed transfer must never be replayed by a later attempt, so each
	// attempt carries its own key.
	idempotencyKey := payoutKey(order.ID)

	var transferID string
	saga := lifecycle.NewSaga(
		lifecycle.Step{
			Name: "complete order",
			Do: func(context.Context) error {
				return s.store.Transaction(func(tx *repository.Store) error {
					ok, err := tx.Requests.CompareAndSetStatus(req.ID, lifecycle.RequestSourcesFor(lifecycle.ActionApprove), domain.StatusApprove)
					if err != nil {
						return err
					}
					if !ok {
						return domain.Conflict("request was already answered")
					}
					ok, err = tx.Orders.MarkComplete(order.ID, s.now())
					if err != nil {
						return err
					}
					if !ok {
						return domain.Conflict("order is already completed")
					}
					return nil
				})
			},
			Undo: func(context.Context) error {
				return s.store.Transaction(func(tx *repository.Store) error {
					if err := tx.Requests.SetStatus(req.ID, domain.StatusWaiting); err != nil {
						return err
					}
					return tx.Orders.RevertComplete(order.ID)
				})
			},
		},
		lifecycle.Step{
			Name: "payout transfer",
			Do: func(ctx context.Context) error {
				cents := lifecycle.ToCents(payout)
				if cents <= 0 {
					return nil
				}
				id, err := s.gateway.Transfer(ctx, payment.TransferRequest{
					AmountCents:    cents,
					Currency:       s.currency,
					Destination:    provider.PayoutAccountID,
					Group:          transferGroup(order.OfferID),
					IdempotencyKey: idempotencyKey,
				})
				transferID = id
				return err
			},
			Undo: func(ctx context.Context) error {
				if transferID == "" {
					return nil
				}
				return s.gateway.ReverseTransfer(ctx, transferID)
			},
		},
		lifecycle.Step{
			Name: "record payout",
			Do: func(context.Context) error {
				return s.store.Transaction(func(tx *repository.Store) error {
					if err := tx.Payments.Create(&models.Payment{
						UserID:     provider.ID,
						OrderID:    order.ID,
						Kind:       domain.PaymentKindPayout,
						Amount:     payout,
						Commission: fee,
						Currency:   s.currency,
						Status:     domain.PaymentSuccess,
						TransferID: transferID,
					}); err != nil {
						return err
					}
					if err := tx.Payments.SetStatus(order.ID, domain.PaymentKindCharge, domain.PaymentSuccess); err != nil {
						return err
					}
					return tx.Orders.SetPayoutTransfer(order.ID, transferID)
				})
			},
		},
	)
	if err := saga.Run(ctx); err != nil {
		log.Printf("[order] approve delivery %d for order %d: %v", req.ID, order.ID, err)
		return nil, err
	}
	log.Printf("[order] order %d completed, paid out %.2f (commission %.2f)", order.ID, payout, fee)

	s.notify.DispatchAll(ctx, &models.Notification{
		For:              provider.ID,
		Content:          fmt.Sprintf("Your delivery was approved. %s %s has been sent to your account.", strconv.FormatFloat(payout, 'f', 2, 64), s.currency),
		NotificationType: domain.NotifyDeliveryApproved,
		Data:             s.orderData(order, req.ID, ""),
	})
	return s.store.Orders.GetByID(order.ID)
}

// ActOnTimeExtension approves or declines a time extension. Only approval
// moves the delivery date.
func (s *OrderService) ActOnTimeExtension(ctx context.Context, actorID, requestID uint, action string) (*models.Order, error) {
	req, order, err := s.loadRequestFor(actorID, requestID, domain.RequestTypeTimeExtend, action)
	if err != nil {
		return nil, err
	}
	next, _ := lifecycle.NextRequestStatus(req.RequestStatus, action)
	err = s.store.Transaction(func(tx *repository.Store) error {
		ok, err := tx.Requests.CompareAndSetStatus(req.ID, lifecycle.RequestSourcesFor(action), next)
		if err != nil {
			return err
		}
		if !ok {
			return domain.Conflict("request was already answered")
		}
		if next != domain.StatusApprove {
			return nil
		}
		if req.NextExtendedDate == nil {
			return domain.Validation("request has no extended date")
		}
		return tx.Orders.Extend(order.ID, *req.NextExtendedDate, req.Reason)
	})
	if err != nil {
		return nil, err
	}

	n := &models.Notification{
		For:              order.ProviderID,
		Content:          "Your time extension request was declined.",
		NotificationType: domain.NotifyTimeExtendDeclined,
		Data:             s.orderData(order, req.ID, ""),
	}
	if next == domain.StatusApprove {
		n.Content = fmt.Sprintf("Your time extension was approved. The new delivery date is %s.", req.NextExtendedDate.Format("2006-01-02"))
		n.NotificationType = domain.NotifyTimeExtendApproved
	}
	s.notify.DispatchAll(ctx, n)
	return s.store.Orders.GetByID(order.ID)
}

// DeleteOrder removes an order that has not been completed, from both
// parties' lists.
func (s *OrderService) DeleteOrder(ctx context.Context, actorID, orderID uint) error {
	order, err := s.store.Orders.GetByID(orderID)
	if err != nil {
		return lookupErr(err, "order")
	}
	if !order.HasParty(actorID) {
		return domain.Unauthorized("you are not a party to this order")
	}
	if order.IsCompleted {
		return domain.Conflict("a completed order cannot be deleted")
	}
	actor, err := loadActive(s.store.Users, actorID)
	if err != nil {
		return err
	}
	err = s.store.Transaction(func(tx *repository.Store) error {
		ok, err := tx.Orders.DeleteIncomplete(order.ID)
		if err != nil {
			return err
		}
		if !ok {
			return domain.Conflict("a completed order cannot be deleted")
		}
		if err := tx.Refs.RemoveEverywhere([]string{domain.RefOrder}, []uint{order.ID}); err != nil {
			return err
		}
		return tx.Requests.DeleteByOrder(order.ID)
	})
	if err != nil {
		return err
	}
	other := order.CustomerID
	if other == actorID {
		other = order.ProviderID
	}
	s.notify.DispatchAll(ctx, &models.Notification{
		For:              other,
		Content:          fmt.Sprintf("%s cancelled order #%d.", displayName(actor), order.ID),
		NotificationType: domain.NotifyOrder,
		Data:             models.NotificationData{Title: "Order cancelled", PostID: order.ProjectID, Image: actor.ProfileImage},
	})
	return nil
}

func (s *OrderService) Get(actorID, orderID uint) (*models.Order, error) {
	order, err := s.store.Orders.GetByID(orderID)
	if err != nil {
		return nil, lookupErr(err, "order")
	}
	if !order.HasParty(actorID) {
		return nil, domain.Unauthorized("you are not a party to this order")
	}
	return order, nil
}

func (s *OrderService) List(actorID uint, completed *bool, page, limit int) ([]models.Order, int64, error) {
	page, limit = normalizePage(page, limit)
	return s.store.Orders.ListForUser(actorID, completed, page, limit)
}

// ListDeliveryRequests returns the order's deliveries that were not declined.
func (s *OrderService) ListDeliveryRequests(actorID, orderID uint) ([]models.DeliveryRequest, error) {
	if _, err := s.Get(actorID, orderID); err != nil {
		return nil, err
	}
	return s.store.Requests.ListByOrder(orderID, domain.RequestTypeDelivery, domain.StatusDecline)
}

// ListTimeExtensions returns time extension requests addressed to the actor.
func (s *OrderService) ListTimeExtensions(actorID uint, page, limit int) ([]models.DeliveryRequest, int64, error) {
	page, limit = normalizePage(page, limit)
	return s.store.Requests.ListForRecipient(actorID, domain.RequestTypeTimeExtend, page, limit)
}

func (s *OrderService) orderData(order *models.Order, requestID uint, image string) models.NotificationData {
	return models.NotificationData{
		Title:     "Order #" + uitoa(order.ID),
		OfferID:   uintPtr(order.OfferID),
		PostID:    order.ProjectID,
		OrderID:   uintPtr(order.ID),
		RequestID: uintPtr(requestID),
		Image:     image,
	}
}

func payoutKey(orderID uint) string {
	return "payout_order_" + uitoa(orderID) + "_" + uuid.NewString()
}
