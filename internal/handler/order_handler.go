package handler

import (
	"net/http"
	"strconv"

	"jobmarket/internal/middleware"
	"jobmarket/internal/service"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	svc *service.OrderService
}

func NewOrderHandler(svc *service.OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

// List handles GET /orders?completed=true|false.
func (h *OrderHandler) List(c *gin.Context) {
	var completed *bool
	if v := c.Query("completed"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			badRequest(c, "completed must be true or false")
			return
		}
		completed = &b
	}
	page, limit := parsePagination(c)
	list, total, err := h.svc.List(middleware.GetUserID(c), completed, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, paged(list, total, page, limit))
}

func (h *OrderHandler) Get(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	order, err := h.svc.Get(middleware.GetUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *OrderHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteOrder(c.Request.Context(), middleware.GetUserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *OrderHandler) SubmitDelivery(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req service.DeliveryInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	dr, err := h.svc.SubmitDelivery(c.Request.Context(), middleware.GetUserID(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dr)
}

func (h *OrderHandler) RequestTimeExtension(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req service.TimeExtensionInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	dr, err := h.svc.RequestTimeExtension(c.Request.Context(), middleware.GetUserID(c), id, req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dr)
}

func (h *OrderHandler) DeliveryRequests(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	list, err := h.svc.ListDeliveryRequests(middleware.GetUserID(c), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list})
}

func (h *OrderHandler) TimeExtensions(c *gin.Context) {
	page, limit := parsePagination(c)
	list, total, err := h.svc.ListTimeExtensions(middleware.GetUserID(c), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, paged(list, total, page, limit))
}

// ActOnDelivery handles POST /delivery-requests/:id/action.
func (h *OrderHandler) ActOnDelivery(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "action required")
		return
	}
	order, err := h.svc.ActOnDelivery(c.Request.Context(), middleware.GetUserID(c), id, req.Action)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// ActOnTimeExtension handles POST /time-extensions/:id/action.
func (h *OrderHandler) ActOnTimeExtension(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req actionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "action required")
		return
	}
	order, err := h.svc.ActOnTimeExtension(c.Request.Context(), middleware.GetUserID(c), id, req.Action)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
