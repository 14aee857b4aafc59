package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/step-lms-api/internal/dto"
	"github.com/noah-isme/step-lms-api/internal/middleware"
	"github.com/noah-isme/step-lms-api/internal/models"
	"github.com/noah-isme/step-lms-api/internal/service"
	"github.com/noah-isme/step-lms-api/pkg/response"
)

type placementService interface {
	ClassBuckets(ctx context.Context) ([]models.ClassBucket, error)
	Unassigned(ctx context.Context) ([]models.Student, error)
	Finalize(ctx context.Context, req dto.FinalizePlacementRequest, actor *string) (*models.PlacementResult, error)
}

// PlacementHandler serves the classroom placement board.
type PlacementHandler struct {
	service placementService
}

// NewPlacementHandler constructs the handler.
func NewPlacementHandler(svc placementService) *PlacementHandler {
	return &PlacementHandler{service: svc}
}

// ClassesWithStudents godoc
// @Summary List classes with their rosters
// @Tags Placement
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /classes/with-students [get]
func (h *PlacementHandler) ClassesWithStudents(c *gin.Context) {
	buckets, err := h.service.ClassBuckets(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, buckets, nil, middleware.Meta(c))
}

// Unassigned godoc
// @Summary List students without a section
// @Tags Placement
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /students/unassigned [get]
func (h *PlacementHandler) Unassigned(c *gin.Context) {
	students, err := h.service.Unassigned(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}

// Finalize godoc
// @Summary Save student placements
// @Description Applies every pair in request order inside one transaction.
// @Tags Placement
// @Accept json
// @Produce json
// @Param payload body dto.FinalizePlacementRequest true "Placements"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /students/placement/finalize [post]
func (h *PlacementHandler) Finalize(c *gin.Context) {
	var req dto.FinalizePlacementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	if len(req.Placements) == 0 {
		response.Message(c, http.StatusOK, service.NoPlacementsMessage, nil)
		return
	}

	result, err := h.service.Finalize(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
