package models

import "time"

const (
	TeacherStatusActive   = "Active"
	TeacherStatusOnLeave  = "On Leave"
	TeacherStatusInactive = "Inactive"

	EmploymentFullTime = "Full-Time"
	EmploymentPartTime = "Part-Time"
)

// Teacher represents a faculty member.
type Teacher struct {
	ID               string    `db:"id" json:"id"`
	Name             string    `db:"name" json:"name"`
	Email            string    `db:"email" json:"email"`
	SubjectSpecialty *string   `db:"subject_specialty" json:"subject_specialty,omitempty"`
	EmploymentType   string    `db:"employment_type" json:"employment_type"`
	Status           string    `db:"status" json:"status"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
}

// FacultyStats aggregates teacher headcount for the principal dashboard.
type FacultyStats struct {
	Total    int `db:"total" json:"total"`
	FullTime int `db:"full_time" json:"fullTime"`
	PartTime int `db:"part_time" json:"partTime"`
	OnLeave  int `db:"on_leave" json:"onLeave"`
}
