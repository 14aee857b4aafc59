package dto

import "github.com/noah-isme/step-lms-api/internal/models"

// QuickStats are the headline counters on the principal dashboard.
type QuickStats struct {
	EnrolledStudents int     `json:"enrolledStudents"`
	ActiveClasses    int     `json:"activeClasses"`
	AvgAttendance    float64 `json:"avgAttendance"`
}

// PrincipalDashboardResponse aggregates the principal landing page.
type PrincipalDashboardResponse struct {
	AcademicYearSettings models.SchoolSettings `json:"academicYearSettings"`
	FacultyStats         models.FacultyStats   `json:"facultyStats"`
	QuickStats           QuickStats            `json:"quickStats"`
	RecentActivities     []models.Activity     `json:"recentActivities"`
}

// UpdateAcademicSettingsRequest replaces the academic year settings row.
type UpdateAcademicSettingsRequest struct {
	AcademicYear string  `json:"academicYear" validate:"required"`
	StartDate    string  `json:"startDate" validate:"required"`
	EndDate      *string `json:"endDate"`
	WorkingDays  *int    `json:"workingDays" validate:"omitempty,min=0,max=366"`
	Holidays     *int    `json:"holidays" validate:"omitempty,min=0,max=366"`
}

// StudentDashboardResponse is the student landing page. Optional sections
// degrade to empty values when their source is unavailable.
type StudentDashboardResponse struct {
	Profile    models.Student        `json:"profile"`
	Teacher    *models.Teacher       `json:"teacher"`
	GPAHistory []models.GPARecord    `json:"gpaHistory"`
	Subjects   []models.SubjectScore `json:"subjects"`
	FocusAreas []models.FocusArea    `json:"focusAreas"`
}
