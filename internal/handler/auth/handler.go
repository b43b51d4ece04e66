package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pricewatch/tracker-api/internal/handler"
	"github.com/pricewatch/tracker-api/internal/service/auth"
)

type Handler struct {
	service *auth.Service
}

func NewHandler(service *auth.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	a := r.Group("/auth")
	{
		a.POST("/google", h.GoogleExchange)
	}
}

type googleExchangeRequest struct {
	AccessToken string `json:"access_token" binding:"required"`
}

// GoogleExchange trades a Google OAuth access token for a session token.
func (h *Handler) GoogleExchange(c *gin.Context) {
	var req googleExchangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	resp, err := h.service.ExchangeGoogleToken(c.Request.Context(), req.AccessToken)
	if err != nil {
		c.JSON(handler.StatusForError(err), handler.NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(resp))
}
