package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/step-lms-api/internal/dto"
	"github.com/noah-isme/step-lms-api/internal/models"
	"github.com/noah-isme/step-lms-api/internal/service"
	"github.com/noah-isme/step-lms-api/pkg/response"
)

type homeroomService interface {
	Roster(ctx context.Context, className, date string) ([]models.RosterEntry, error)
	Absentees(ctx context.Context, className string) ([]models.Absentee, error)
	RecordAttendance(ctx context.Context, req dto.RecordAttendanceRequest) (*models.Attendance, error)
	MarkAllPresent(ctx context.Context, req dto.MarkAllPresentRequest) (int64, error)
}

// HomeroomHandler serves the homeroom roster and attendance endpoints.
type HomeroomHandler struct {
	service homeroomService
}

// NewHomeroomHandler constructs the handler.
func NewHomeroomHandler(svc homeroomService) *HomeroomHandler {
	return &HomeroomHandler{service: svc}
}

// Roster godoc
// @Summary Homeroom roster with attendance of a day
// @Tags Homeroom
// @Produce json
// @Param className path string true "Class name"
// @Param date query string false "Date (YYYY-MM-DD). Defaults to today"
// @Success 200 {object} response.Envelope
// @Router /homeroom/{className} [get]
func (h *HomeroomHandler) Roster(c *gin.Context) {
	entries, err := h.service.Roster(c.Request.Context(), c.Param("className"), c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Absentees godoc
// @Summary Most frequently absent students of a class
// @Tags Homeroom
// @Produce json
// @Param className path string true "Class name"
// @Success 200 {object} response.Envelope
// @Router /homeroom/{className}/absentees [get]
func (h *HomeroomHandler) Absentees(c *gin.Context) {
	rows, err := h.service.Absentees(c.Request.Context(), c.Param("className"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rows, nil)
}

// RecordAttendance godoc
// @Summary Record one attendance entry
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body dto.RecordAttendanceRequest true "Attendance"
// @Success 200 {object} response.Envelope
// @Router /attendance [post]
func (h *HomeroomHandler) RecordAttendance(c *gin.Context) {
	var req dto.RecordAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	record, err := h.service.RecordAttendance(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// MarkAllPresent godoc
// @Summary Mark students present
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body dto.MarkAllPresentRequest true "Students"
// @Success 200 {object} response.Envelope
// @Router /attendance/mark-all [post]
func (h *HomeroomHandler) MarkAllPresent(c *gin.Context) {
	var req dto.MarkAllPresentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, invalidPayload(err))
		return
	}
	if len(req.StudentIDs) == 0 {
		response.Message(c, http.StatusOK, service.MsgNoStudents, gin.H{"updated": 0})
		return
	}
	n, err := h.service.MarkAllPresent(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"updated": n}, nil)
}
