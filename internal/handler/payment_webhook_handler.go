package handler

import (
	"io"
	"net/http"

	"jobmarket/internal/service"

	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 1 << 16

type PaymentWebhookHandler struct {
	svc *service.PaymentService
}

func NewPaymentWebhookHandler(svc *service.PaymentService) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{svc: svc}
}

// Handle verifies the Stripe-Signature header and applies the event. The
// processor retries on any non-2xx answer.
func (h *PaymentWebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		badRequest(c, "invalid body")
		return
	}
	if err := h.svc.HandleWebhook(c.Request.Context(), body, c.GetHeader("Stripe-Signature")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true})
}
