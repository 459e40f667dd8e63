package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sfp-api/internal/models"
	appErrors "github.com/noah-isme/sfp-api/pkg/errors"
	"github.com/noah-isme/sfp-api/pkg/response"
)

type reminderService interface {
	Create(ctx context.Context, parentID string, req models.CreateReminderRequest) (*models.Reminder, error)
	List(ctx context.Context, parentID string) ([]models.Reminder, error)
}

// ReminderHandler serves fee reminder endpoints.
type ReminderHandler struct {
	service reminderService
}

// NewReminderHandler constructs a reminder handler.
func NewReminderHandler(service reminderService) *ReminderHandler {
	return &ReminderHandler{service: service}
}

// Create godoc
// @Summary Create a reminder
// @Description Record a fee reminder for an owned student
// @Tags Reminders
// @Accept json
// @Produce json
// @Param payload body models.CreateReminderRequest true "Reminder payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reminders [post]
func (h *ReminderHandler) Create(c *gin.Context) {
	claims := currentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req models.CreateReminderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid reminder payload"))
		return
	}

	reminder, err := h.service.Create(c.Request.Context(), claims.ParentID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, reminder)
}

// List godoc
// @Summary List reminders
// @Description Reminders for the caller's students, soonest due first
// @Tags Reminders
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /reminders [get]
func (h *ReminderHandler) List(c *gin.Context) {
	claims := currentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	reminders, err := h.service.List(c.Request.Context(), claims.ParentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, reminders, nil)
}
