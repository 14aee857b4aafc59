package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/step-lms-api/internal/models"
	"github.com/noah-isme/step-lms-api/internal/service"
	"github.com/noah-isme/step-lms-api/pkg/response"
)

type teacherService interface {
	Faculty(ctx context.Context) ([]models.Teacher, error)
	AvailableForHomeroom(ctx context.Context) ([]models.Teacher, error)
	Create(ctx context.Context, req service.CreateTeacherRequest, actor *string) (*models.Teacher, error)
	Delete(ctx context.Context, id string, actor *string) error
}

// TeacherHandler manages teacher endpoints.
type TeacherHandler struct {
	service teacherService
}

// NewTeacherHandler constructs handler.
func NewTeacherHandler(svc teacherService) *TeacherHandler {
	return &TeacherHandler{service: svc}
}

// Faculty godoc
// @Summary List faculty
// @Tags Teachers
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /faculty [get]
func (h *TeacherHandler) Faculty(c *gin.Context) {
	teachers, err := h.service.Faculty(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teachers, nil)
}

// AvailableForHomeroom godoc
// @Summary Active teachers without a homeroom class
// @Tags Teachers
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /teachers/available-for-homeroom [get]
func (h *TeacherHandler) AvailableForHomeroom(c *gin.Context) {
	teachers, err := h.service.AvailableForHomeroom(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teachers, nil)
}

// Create godoc
// @Summary Create teacher
// @Tags Teachers
// @Accept json
// @Produce json
// @Param payload body service.CreateTeacherRequest true "Teacher payload"
// @Success 201 {object} response.Envelope
// @Router /teachers [post]
func (h *TeacherHandler) Create(c *gin.Context) {
	var req service.CreateTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	teacher, err := h.service.Create(c.Request.Context(), req, actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, teacher)
}

// Delete godoc
// @Summary Delete teacher
// @Tags Teachers
// @Param id path string true "Teacher ID"
// @Success 204
// @Router /teachers/{id} [delete]
func (h *TeacherHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id"), actorFromContext(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
