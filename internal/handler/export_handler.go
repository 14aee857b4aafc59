package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/step-lms-api/internal/service"
	"github.com/noah-isme/step-lms-api/pkg/response"
)

type exportService interface {
	RosterExport(ctx context.Context, format string) (*service.ExportFile, error)
}

// ExportHandler streams roster downloads.
type ExportHandler struct {
	service exportService
}

// NewExportHandler constructs the handler.
func NewExportHandler(svc exportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Rosters godoc
// @Summary Download class rosters
// @Tags Placement
// @Produce octet-stream
// @Param format query string false "csv, pdf or xlsx (default csv)"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /classes/with-students/export [get]
func (h *ExportHandler) Rosters(c *gin.Context) {
	file, err := h.service.RosterExport(c.Request.Context(), c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Attachment(c, file.Filename, file.ContentType, file.Payload)
}
