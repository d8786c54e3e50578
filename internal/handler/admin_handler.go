package handler

import (
	"net/http"

	"jobmarket/internal/middleware"
	"jobmarket/internal/service"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	svc     *service.AdminService
	authSvc *service.AuthService
}

func NewAdminHandler(svc *service.AdminService, authSvc *service.AuthService) *AdminHandler {
	return &AdminHandler{svc: svc, authSvc: authSvc}
}

// AdminLogin handles POST /admin/login. Non-admin accounts get 403.
func (h *AdminHandler) AdminLogin(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	u, pair, err := h.authSvc.Login(req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	if !u.IsAdmin() {
		c.JSON(http.StatusForbidden, gin.H{"error": "admin access required"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":         u,
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

// Overview handles GET /admin/overview.
func (h *AdminHandler) Overview(c *gin.Context) {
	o, err := h.svc.Overview(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// ListUsers handles GET /admin/users?search=&role=&status=.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	page, limit := parsePagination(c)
	users, total, err := h.svc.ListUsers(c.Query("search"), c.Query("role"), c.Query("status"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, paged(users, total, page, limit))
}

// SetUserStatus handles PATCH /admin/users/:id/status.
func (h *AdminHandler) SetUserStatus(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "status required")
		return
	}
	u, err := h.svc.SetAccountStatus(middleware.GetUserID(c), id, req.Status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *AdminHandler) GetCommission(c *gin.Context) {
	pct, err := h.svc.Commission()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"commissionPercentage": pct})
}

// UpdateCommission handles PUT /admin/commission. The value is rounded up
// to a whole percent.
func (h *AdminHandler) UpdateCommission(c *gin.Context) {
	var req struct {
		Percentage *float64 `json:"commissionPercentage" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "commissionPercentage required")
		return
	}
	pct, err := h.svc.UpdateCommission(*req.Percentage)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"commissionPercentage": pct})
}

// ListPayments handles GET /admin/payments?kind=&status=.
func (h *AdminHandler) ListPayments(c *gin.Context) {
	page, limit := parsePagination(c)
	list, total, err := h.svc.Payments(c.Query("kind"), c.Query("status"), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, paged(list, total, page, limit))
}

func (h *AdminHandler) ListAdmins(c *gin.Context) {
	page, limit := parsePagination(c)
	list, total, err := h.svc.ListAdmins(page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, paged(list, total, page, limit))
}

// AddAdmin handles POST /admin/admins (super admin only).
func (h *AdminHandler) AddAdmin(c *gin.Context) {
	var req service.NewAdminInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}
	u, err := h.svc.AddAdmin(middleware.GetUserID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, u)
}

func (h *AdminHandler) DeleteAdmin(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.DeleteAdmin(middleware.GetUserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
