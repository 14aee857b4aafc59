package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/step-lms-api/internal/dto"
	"github.com/noah-isme/step-lms-api/internal/middleware"
	"github.com/noah-isme/step-lms-api/internal/models"
	appErrors "github.com/noah-isme/step-lms-api/pkg/errors"
	"github.com/noah-isme/step-lms-api/pkg/response"
)

type dashboardService interface {
	Principal(ctx context.Context) (*dto.PrincipalDashboardResponse, bool, error)
	UpdateSettings(ctx context.Context, req dto.UpdateAcademicSettingsRequest, actor *string) (*models.SchoolSettings, error)
}

type activityFeed interface {
	Recent(ctx context.Context, limit int) ([]models.Activity, error)
}

// DashboardHandler wires the principal dashboard and activity feed.
type DashboardHandler struct {
	service    dashboardService
	activities activityFeed
}

// NewDashboardHandler constructs the handler.
func NewDashboardHandler(service dashboardService, activities activityFeed) *DashboardHandler {
	return &DashboardHandler{service: service, activities: activities}
}

// Principal godoc
// @Summary Principal dashboard summary
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /principal/dashboard [get]
func (h *DashboardHandler) Principal(c *gin.Context) {
	if h.service == nil {
		response.Error(c, appErrors.ErrInternal)
		return
	}
	summary, cacheHit, err := h.service.Principal(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, cacheHit)
	response.JSON(c, http.StatusOK, summary, nil, middleware.Meta(c))
}

// UpdateSettings godoc
// @Summary Update academic year settings
// @Tags Dashboard
// @Accept json
// @Produce json
// @Param payload body dto.UpdateAcademicSettingsRequest true "Settings"
// @Success 200 {object} response.Envelope
// @Router /settings/academic [post]
func (h *DashboardHandler) UpdateSettings(c *gin.Context) {
	var req dto.UpdateAcademicSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	settings, err := h.service.UpdateSettings(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, settings, nil)
}

// RecentActivities godoc
// @Summary Recent school activity
// @Tags Dashboard
// @Produce json
// @Param limit query int false "Number of entries (1-100, default 20)"
// @Success 200 {object} response.Envelope
// @Router /activities/recent [get]
func (h *DashboardHandler) RecentActivities(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "limit must be a number"))
			return
		}
		limit = parsed
	}
	items, err := h.activities.Recent(c.Request.Context(), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, items, nil)
}
