package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/step-lms-api/internal/service"
	appErrors "github.com/noah-isme/step-lms-api/pkg/errors"
)

type fakeExportSrv struct {
	format string
}

func (f *fakeExportSrv) RosterExport(_ context.Context, format string) (*service.ExportFile, error) {
	f.format = format
	if format == "docx" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "format must be csv, pdf or xlsx")
	}
	return &service.ExportFile{Filename: "class-rosters-20250903.csv", ContentType: "text/csv", Payload: []byte("Class,Room\n")}, nil
}

func TestExportHandlerDefaultsToCSV(t *testing.T) {
	svc := &fakeExportSrv{}
	c, rec := newContext(http.MethodGet, "/classes/with-students/export", nil)

	NewExportHandler(svc).Rosters(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "csv", svc.format)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "class-rosters-20250903.csv")
	assert.Equal(t, "Class,Room\n", rec.Body.String())
}

func TestExportHandlerRejectsUnknownFormat(t *testing.T) {
	c, rec := newContext(http.MethodGet, "/classes/with-students/export?format=docx", nil)

	NewExportHandler(&fakeExportSrv{}).Rosters(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
