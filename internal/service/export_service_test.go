package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/step-lms-api/internal/models"
	appErrors "github.com/noah-isme/step-lms-api/pkg/errors"
	"github.com/noah-isme/step-lms-api/pkg/export"
)

type bucketStub struct {
	buckets []models.ClassBucket
}

func (b bucketStub) ClassBuckets(ctx context.Context) ([]models.ClassBucket, error) {
	return b.buckets, nil
}

func rosterBuckets() []models.ClassBucket {
	gpa := 3.456
	return []models.ClassBucket{
		{
			ClassName:   "Grade 10-A",
			RoomNumber:  "101",
			TeacherName: "Ms. Rahma",
			Students: []models.BucketStudent{
				{ID: "s1", Name: "Ana", GPA: &gpa},
				{ID: "s2", Name: "Budi"},
			},
		},
		{ClassName: "Grade 10-B", RoomNumber: "102", TeacherName: models.UnassignedTeacherName},
	}
}

func TestRosterDataset(t *testing.T) {
	data := RosterDataset(rosterBuckets())

	assert.Equal(t, rosterHeaders, data.Headers)
	require.Len(t, data.Rows, 3)
	assert.Equal(t, "Ana", data.Rows[0][colStudentName])
	assert.Equal(t, "3.46", data.Rows[0][colGPA])
	assert.Empty(t, data.Rows[1][colGPA])
	assert.Equal(t, "Grade 10-B", data.Rows[2][colClass])
	assert.Empty(t, data.Rows[2][colStudentID])
}

func TestExportServiceRosterExport(t *testing.T) {
	svc := NewExportService(bucketStub{buckets: rosterBuckets()}, nil, nil, nil, nil)
	svc.now = func() time.Time { return time.Date(2025, 9, 3, 8, 0, 0, 0, time.UTC) }

	file, err := svc.RosterExport(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, "class-rosters-20250903.csv", file.Filename)
	assert.Equal(t, "text/csv", file.ContentType)
	assert.True(t, strings.HasPrefix(strings.TrimPrefix(string(file.Payload), "\ufeff"), "Class,Room,Homeroom Teacher"))

	file, err = svc.RosterExport(context.Background(), "XLSX")
	require.NoError(t, err)
	assert.Equal(t, "class-rosters-20250903.xlsx", file.Filename)
	parsed, err := export.OpenXLSXBytes(file.Payload)
	require.NoError(t, err)
	assert.Len(t, parsed.Rows, 3)

	file, err = svc.RosterExport(context.Background(), "pdf")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(file.Payload), "%PDF"))
}

func TestExportServiceRejectsUnknownFormat(t *testing.T) {
	svc := NewExportService(bucketStub{}, nil, nil, nil, nil)

	_, err := svc.RosterExport(context.Background(), "docx")
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}
