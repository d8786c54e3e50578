package handler

import (
	"errors"
	"net/http"

	"jobmarket/internal/middleware"
	"jobmarket/internal/service"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	svc *service.PaymentService
}

func NewPaymentHandler(svc *service.PaymentService) *PaymentHandler {
	return &PaymentHandler{svc: svc}
}

// Checkout handles POST /payments/checkout with {"offerId": n}.
func (h *PaymentHandler) Checkout(c *gin.Context) {
	var req struct {
		OfferID uint `json:"offerId" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "offerId required")
		return
	}
	res, err := h.svc.Checkout(c.Request.Context(), middleware.GetUserID(c), req.OfferID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Success handles the processor's redirect after checkout. The session is
// captured here as well as by the webhook; whichever comes second is a no-op.
func (h *PaymentHandler) Success(c *gin.Context) {
	order, err := h.svc.Capture(c.Request.Context(), c.Query("session_id"))
	if err != nil && !errors.Is(err, service.ErrSessionCaptured) {
		respondError(c, err)
		return
	}
	if to := h.svc.SuccessRedirect(); to != "" {
		c.Redirect(http.StatusFound, to)
		return
	}
	if order == nil {
		c.JSON(http.StatusOK, gin.H{"status": "already captured"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "paid", "order": order})
}

// Connect starts payout onboarding for the current provider.
func (h *PaymentHandler) Connect(c *gin.Context) {
	url, err := h.svc.ConnectPayoutAccount(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (h *PaymentHandler) ConnectReturn(c *gin.Context) {
	u, err := h.svc.CompleteOnboarding(c.Request.Context(), c.Param("account"))
	if err != nil {
		respondError(c, err)
		return
	}
	if to := h.svc.OnboardingRedirect(); to != "" {
		c.Redirect(http.StatusFound, to)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "connected", "payoutsEnabled": u.PayoutsEnabled})
}

func (h *PaymentHandler) ConnectRefresh(c *gin.Context) {
	url, err := h.svc.RefreshOnboarding(c.Request.Context(), c.Param("account"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.Redirect(http.StatusFound, url)
}

func (h *PaymentHandler) Records(c *gin.Context) {
	page, limit := parsePagination(c)
	list, total, err := h.svc.Records(middleware.GetUserID(c), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, paged(list, total, page, limit))
}
