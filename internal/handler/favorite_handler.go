package handler

import (
	"net/http"

	"jobmarket/internal/middleware"
	"jobmarket/internal/service"

	"github.com/gin-gonic/gin"
)

type FavoriteHandler struct {
	svc *service.PostService
}

func NewFavoriteHandler(svc *service.PostService) *FavoriteHandler {
	return &FavoriteHandler{svc: svc}
}

func (h *FavoriteHandler) AddPost(c *gin.Context) {
	h.apply(c, http.StatusCreated, h.svc.AddFavouritePost)
}

func (h *FavoriteHandler) RemovePost(c *gin.Context) {
	h.apply(c, http.StatusOK, h.svc.RemoveFavouritePost)
}

func (h *FavoriteHandler) AddProvider(c *gin.Context) {
	h.apply(c, http.StatusCreated, h.svc.AddFavouriteProvider)
}

func (h *FavoriteHandler) RemoveProvider(c *gin.Context) {
	h.apply(c, http.StatusOK, h.svc.RemoveFavouriteProvider)
}

func (h *FavoriteHandler) apply(c *gin.Context, status int, fn func(userID, id uint) error) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := fn(middleware.GetUserID(c), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(status, gin.H{"status": "ok"})
}

func (h *FavoriteHandler) List(c *gin.Context) {
	fav, err := h.svc.Favourites(middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, fav)
}
