package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/flownco2789-ui/codeai/internal/models"
	appErrors "github.com/flownco2789-ui/codeai/pkg/errors"
	"github.com/flownco2789-ui/codeai/pkg/response"
)

type notificationService interface {
	List(ctx context.Context, filter models.NotificationFilter) ([]models.NotificationLogEntry, error)
}

const maxNotificationRows = 200

type NotificationHandler struct {
	service notificationService
}

func NewNotificationHandler(service notificationService) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// List godoc
// @Summary Browse the notification ledger
// @Description Access codes and temporary passwords are redacted.
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param eventType query string false "Event type"
// @Param phone query string false "Recipient phone"
// @Param limit query int false "Max rows (at most 200)"
// @Success 200 {object} response.Envelope
// @Router /admin/notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	filter := models.NotificationFilter{EventType: c.Query("eventType"), Phone: c.Query("phone")}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit <= 0 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "limit must be a positive integer"))
			return
		}
		filter.Limit = limit
	}
	entries, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	if filter.Limit == 0 || filter.Limit > maxNotificationRows {
		filter.Limit = maxNotificationRows
	}
	response.JSON(c, http.StatusOK, entries, &response.Page{Limit: filter.Limit, Count: len(entries)})
}
