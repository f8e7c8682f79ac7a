package delivery

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/carvalholeo/sistema-caronas-sub001/internal/notification/domain"
	"github.com/carvalholeo/sistema-caronas-sub001/internal/notification/repository"
	"github.com/carvalholeo/sistema-caronas-sub001/internal/notification/usecase"

	"github.com/gin-gonic/gin"
)

// NotificationHandler handles subscription and dispatch HTTP requests
type NotificationHandler struct {
	subscriptions usecase.SubscriptionUsecase
	dispatcher    usecase.Dispatcher
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(subscriptions usecase.SubscriptionUsecase, dispatcher usecase.Dispatcher) *NotificationHandler {
	return &NotificationHandler{
		subscriptions: subscriptions,
		dispatcher:    dispatcher,
	}
}

// RegisterSubscription creates or replaces the subscription of a device
// POST /api/notifications/subscriptions
func (h *NotificationHandler) RegisterSubscription(c *gin.Context) {
	userID := c.GetString("userID")

	var req usecase.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sub, err := h.subscriptions.Register(c.Request.Context(), userID, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, sub)
}

// UpdatePreferences changes the window, kinds or permission of a device
// PUT /api/notifications/subscriptions/:device_id/preferences
func (h *NotificationHandler) UpdatePreferences(c *gin.Context) {
	userID := c.GetString("userID")
	deviceID := c.Param("device_id")

	var req usecase.PreferencesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sub, err := h.subscriptions.UpdatePreferences(c.Request.Context(), userID, deviceID, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, sub)
}

// DeleteSubscription removes a device
// DELETE /api/notifications/subscriptions/:device_id
func (h *NotificationHandler) DeleteSubscription(c *gin.Context) {
	userID := c.GetString("userID")

	if err := h.subscriptions.Unsubscribe(c.Request.Context(), userID, c.Param("device_id")); err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// ListSubscriptions returns the authenticated user's devices
// GET /api/notifications/subscriptions
func (h *NotificationHandler) ListSubscriptions(c *gin.Context) {
	subs, err := h.subscriptions.List(c.Request.Context(), c.GetString("userID"))
	if err != nil {
		writeError(c, err)
		return
	}
	if subs == nil {
		subs = []*domain.Subscription{}
	}

	c.JSON(http.StatusOK, gin.H{"subscriptions": subs})
}

// GetAudit returns recent audit events of the authenticated user
// GET /api/notifications/audit?limit=50
func (h *NotificationHandler) GetAudit(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	events, err := h.subscriptions.History(c.Request.Context(), c.GetString("userID"), limit)
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]gin.H, 0, len(events))
	for _, ev := range events {
		out = append(out, gin.H{"kind": ev.Kind(), "event": ev})
	}
	c.JSON(http.StatusOK, gin.H{"events": out})
}

// Send dispatches a notification on behalf of another service
// POST /api/internal/notifications/send
func (h *NotificationHandler) Send(c *gin.Context) {
	var req usecase.SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.Validate(); err != nil {
		writeError(c, err)
		return
	}

	// A dispatch runs to completion even if the caller disconnects
	ctx := context.WithoutCancel(c.Request.Context())
	if err := h.dispatcher.SendNotification(ctx, req.Users(), req.Payload); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "dispatched", "users": len(req.UserIDs)})
}

func writeError(c *gin.Context, err error) {
	switch {
	case domain.IsValidation(err):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Subscription not found"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
