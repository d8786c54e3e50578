package handler

import (
	"net/http"

	"jobmarket/internal/middleware"
	"jobmarket/internal/service"

	"github.com/gin-gonic/gin"
)

type MeHandler struct {
	authSvc  *service.AuthService
	notifSvc *service.NotificationService
}

func NewMeHandler(authSvc *service.AuthService, notifSvc *service.NotificationService) *MeHandler {
	return &MeHandler{authSvc: authSvc, notifSvc: notifSvc}
}

// GetProfile returns the current user with their unread notification count.
func (h *MeHandler) GetProfile(c *gin.Context) {
	userID := middleware.GetUserID(c)
	u, err := h.authSvc.Profile(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	unread, err := h.notifSvc.UnreadCount(userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user":             u,
		"payoutsEnabled":   u.HasPayoutAccount(),
		"unreadNotifCount": unread,
	})
}

// RegisterDeviceToken saves the FCM token used for push notifications.
func (h *MeHandler) RegisterDeviceToken(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "token required")
		return
	}
	if err := h.authSvc.SetDeviceToken(middleware.GetUserID(c), req.Token); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
