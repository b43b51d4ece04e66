package tracking

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pricewatch/tracker-api/internal/handler"
	"github.com/pricewatch/tracker-api/internal/model"
	"github.com/pricewatch/tracker-api/internal/service/tracking"
)

type Handler struct {
	service *tracking.Service
}

func NewHandler(service *tracking.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	t := r.Group("/tracking")
	{
		t.POST("", h.AddTracking)
		t.GET("/watchlist/:email", h.ListWatchlist)
		t.GET("/status/:email", h.CheckStatus)
		t.DELETE("/watchlist/:email", h.RemoveTracking)
		t.DELETE("/:id", h.DeactivateTracking)
		t.POST("/:id/check", h.CheckNow)
		t.POST("/:id/test-notification", h.TestNotification)
	}
}

func (h *Handler) AddTracking(c *gin.Context) {
	var req model.CreateAlertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	alert, err := h.service.AddOrUpdate(c.Request.Context(), &req)
	if err != nil {
		c.JSON(handler.StatusForError(err), handler.NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusCreated, handler.NewSuccessResponse(alert))
}

func (h *Handler) ListWatchlist(c *gin.Context) {
	alerts, err := h.service.ListWatchlist(c.Request.Context(), c.Param("email"))
	if err != nil {
		c.JSON(handler.StatusForError(err), handler.NewErrorResponse(err.Error()))
		return
	}
	if alerts == nil {
		alerts = []*model.Alert{}
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(alerts))
}

// CheckStatus reports whether the user already tracks the URL given in the
// "url" query parameter.
func (h *Handler) CheckStatus(c *gin.Context) {
	rawURL := c.Query("url")
	if rawURL == "" {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("url query parameter is required"))
		return
	}

	alert, tracked, err := h.service.Exists(c.Request.Context(), c.Param("email"), rawURL)
	if err != nil {
		c.JSON(handler.StatusForError(err), handler.NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"is_tracking": tracked,
		"alert":       alert,
	}))
}

func (h *Handler) RemoveTracking(c *gin.Context) {
	rawURL := c.Query("url")
	if rawURL == "" {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("url query parameter is required"))
		return
	}

	if err := h.service.RemoveByURL(c.Request.Context(), c.Param("email"), rawURL); err != nil {
		c.JSON(handler.StatusForError(err), handler.NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"removed": true}))
}

func (h *Handler) DeactivateTracking(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid alert ID"))
		return
	}

	if err := h.service.Deactivate(c.Request.Context(), id); err != nil {
		c.JSON(handler.StatusForError(err), handler.NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"deactivated": true}))
}

func (h *Handler) CheckNow(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid alert ID"))
		return
	}

	outcome, err := h.service.CheckNow(c.Request.Context(), id)
	if err != nil {
		c.JSON(handler.StatusForError(err), handler.NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(outcome))
}

func (h *Handler) TestNotification(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid alert ID"))
		return
	}

	if err := h.service.TestNotification(c.Request.Context(), id); err != nil {
		c.JSON(handler.StatusForError(err), handler.NewErrorResponse(err.Error()))
		return
	}
	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{"sent": true}))
}
