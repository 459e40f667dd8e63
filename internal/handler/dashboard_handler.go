package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sfp-api/internal/middleware"
	"github.com/noah-isme/sfp-api/internal/models"
	appErrors "github.com/noah-isme/sfp-api/pkg/errors"
	"github.com/noah-isme/sfp-api/pkg/response"
)

type dashboardService interface {
	FeeBreakdown(ctx context.Context, parentID string) (*models.FeeBreakdownResponse, error)
	PaymentHistory(ctx context.Context, parentID string) ([]models.Payment, error)
	UpcomingDues(ctx context.Context, parentID string) (*models.UpcomingDuesResponse, bool, error)
}

// DashboardHandler serves the parent dashboard endpoints.
type DashboardHandler struct {
	service dashboardService
}

// NewDashboardHandler constructs a dashboard handler.
func NewDashboardHandler(service dashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// FeeBreakdown godoc
// @Summary Fee breakdown
// @Description Full fee breakdown for the parent's student
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /dashboard/fee-breakdown [get]
func (h *DashboardHandler) FeeBreakdown(c *gin.Context) {
	claims := currentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	res, err := h.service.FeeBreakdown(c.Request.Context(), claims.ParentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, res, nil)
}

// PaymentHistory godoc
// @Summary Payment history
// @Description All payment attempts by the parent, latest first
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /dashboard/payment-history [get]
func (h *DashboardHandler) PaymentHistory(c *gin.Context) {
	claims := currentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	history, err := h.service.PaymentHistory(c.Request.Context(), claims.ParentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, history, nil)
}

// UpcomingDues godoc
// @Summary Upcoming dues
// @Description Outstanding dues per category after scholarship deduction
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /dashboard/upcoming-dues [get]
func (h *DashboardHandler) UpcomingDues(c *gin.Context) {
	claims := currentClaims(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	res, cacheHit, err := h.service.UpcomingDues(c.Request.Context(), claims.ParentID)
	if err != nil {
		response.Error(c, err)
		return
	}

	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, res, nil, middleware.ExtractMeta(c))
}
