package models

import "time"

// Activity actions recorded in activity_logs.
const (
	ActivityPlacementFinalized = "PLACEMENT_FINALIZED"
	ActivityClassCreated       = "CLASS_CREATED"
	ActivityClassDeleted       = "CLASS_DELETED"
	ActivityTeacherCreated     = "TEACHER_CREATED"
	ActivityTeacherDeleted     = "TEACHER_DELETED"
	ActivityStudentCreated     = "STUDENT_CREATED"
	ActivityStudentsImported   = "STUDENTS_IMPORTED"
	ActivitySettingsUpdated    = "SETTINGS_UPDATED"
	ActivityUserCreated        = "USER_CREATED"
	ActivityUserDeleted        = "USER_DELETED"
	ActivityLogin              = "LOGIN"
)

// Activity is an entry of the school activity feed.
type Activity struct {
	ID          string    `db:"id" json:"id"`
	Actor       *string   `db:"actor" json:"actor,omitempty"`
	Action      string    `db:"action" json:"action"`
	Description string    `db:"description" json:"description"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// SchoolSettings is the single row of academic year configuration.
type SchoolSettings struct {
	AcademicYear     string  `db:"academic_year" json:"currentSession"`
	StartDate        string  `db:"start_date" json:"startDate"`
	EndDate          *string `db:"end_date" json:"endDate"`
	TotalWorkingDays *int    `db:"total_working_days" json:"workingDays"`
	Holidays         *int    `db:"holidays" json:"holidays"`
}

// DefaultSchoolSettings is served when the settings row is missing.
func DefaultSchoolSettings() SchoolSettings {
	return SchoolSettings{AcademicYear: "2025-2026", StartDate: "Aug 2025"}
}
