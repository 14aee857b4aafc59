package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/step-lms-api/internal/models"
	appErrors "github.com/noah-isme/step-lms-api/pkg/errors"
	"github.com/noah-isme/step-lms-api/pkg/export"
)

// Roster export column headers.
const (
	colClass       = "Class"
	colRoom        = "Room"
	colTeacher     = "Homeroom Teacher"
	colStudentID   = "Student ID"
	colStudentName = "Student Name"
	colGPA         = "GPA"
)

var rosterHeaders = []string{colClass, colRoom, colTeacher, colStudentID, colStudentName, colGPA}

type bucketSource interface {
	ClassBuckets(ctx context.Context) ([]models.ClassBucket, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

type xlsxRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

// ExportFile is a rendered download.
type ExportFile struct {
	Filename    string
	ContentType string
	Payload     []byte
}

// ExportService renders the class roster view as CSV, PDF or XLSX.
type ExportService struct {
	buckets bucketSource
	csv     csvRenderer
	pdf     pdfRenderer
	xlsx    xlsxRenderer
	logger  *zap.Logger
	now     func() time.Time
}

// NewExportService constructs an ExportService. Nil renderers get the
// package defaults.
func NewExportService(buckets bucketSource, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer, xlsx xlsxRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	if xlsx == nil {
		xlsx = export.NewXLSXExporter("Rosters")
	}
	return &ExportService{buckets: buckets, csv: csv, pdf: pdf, xlsx: xlsx, logger: logger, now: time.Now}
}

// RosterExport renders every class bucket as one flat table in format.
func (s *ExportService) RosterExport(ctx context.Context, rawFormat string) (*ExportFile, error) {
	format, err := export.ParseFormat(rawFormat)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "format must be csv, pdf or xlsx")
	}
	buckets, err := s.buckets.ClassBuckets(ctx)
	if err != nil {
		return nil, err
	}
	data := RosterDataset(buckets)

	var payload []byte
	switch format {
	case export.FormatPDF:
		payload, err = s.pdf.Render(data, "Class Rosters")
	case export.FormatXLSX:
		payload, err = s.xlsx.Render(data)
	default:
		payload, err = s.csv.Render(data)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render roster export")
	}

	s.logger.Debug("roster export rendered", zap.String("format", string(format)), zap.Int("rows", len(data.Rows)))
	return &ExportFile{
		Filename:    format.Filename(fmt.Sprintf("class-rosters-%s", s.now().UTC().Format("20060102"))),
		ContentType: format.ContentType(),
		Payload:     payload,
	}, nil
}

// RosterDataset flattens buckets into one row per placed student. A class
// without students still contributes a row with blank student columns.
func RosterDataset(buckets []models.ClassBucket) export.Dataset {
	data := export.Dataset{Headers: rosterHeaders}
	for _, b := range buckets {
		base := map[string]string{
			colClass:   b.ClassName,
			colRoom:    b.RoomNumber,
			colTeacher: b.TeacherName,
		}
		if len(b.Students) == 0 {
			data.Rows = append(data.Rows, base)
			continue
		}
		for _, st := range b.Students {
			row := make(map[string]string, len(rosterHeaders))
			for k, v := range base {
				row[k] = v
			}
			row[colStudentID] = st.ID
			row[colStudentName] = st.Name
			if st.GPA != nil {
				row[colGPA] = strconv.FormatFloat(*st.GPA, 'f', 2, 64)
			}
			data.Rows = append(data.Rows, row)
		}
	}
	return data
}
