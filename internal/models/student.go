package models

import "time"

// StudentStatus is the enrolment state of a student record.
type StudentStatus string

const (
	StudentStatusActive   StudentStatus = "active"
	StudentStatusInactive StudentStatus = "inactive"
	StudentStatusPending  StudentStatus = "pending"
)

// Student represents a learner. EnrolledClass holds the placement label:
// nil or empty when unplaced, a generic grade such as "Grade 10" before
// sectioning, or a section such as "Grade 10-A".
type Student struct {
	ID            string        `db:"id" json:"id"`
	Name          string        `db:"name" json:"name"`
	Email         string        `db:"email" json:"email"`
	EnrolledClass *string       `db:"enrolled_class" json:"enrolled_class"`
	Status        StudentStatus `db:"status" json:"status"`
	CreatedAt     time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time     `db:"updated_at" json:"updated_at"`
}

// StudentFilter encapsulates allowed search parameters for listing students.
type StudentFilter struct {
	Search    string
	ClassName string
	Status    StudentStatus
	Page      int
	PageSize  int
}

// GPARecord is one semester of a student's GPA history.
type GPARecord struct {
	Semester string  `db:"semester" json:"semester"`
	GPA      float64 `db:"gpa" json:"gpa"`
}

// SubjectScore is a student's score in one subject.
type SubjectScore struct {
	Subject string  `db:"subject" json:"subject"`
	Score   float64 `db:"score" json:"score"`
}

// FocusArea is a topic flagged for a student's attention.
type FocusArea struct {
	Topic      string `db:"topic" json:"topic"`
	Confidence int    `db:"confidence" json:"confidence"`
	Priority   string `db:"priority" json:"priority"`
}

// StudentPerformance summarises attendance and grades for one student.
type StudentPerformance struct {
	ID             string   `db:"id" json:"id"`
	Name           string   `db:"name" json:"name"`
	Email          string   `db:"email" json:"email"`
	EnrolledClass  *string  `db:"enrolled_class" json:"enrolled_class"`
	AttendanceRate *float64 `db:"attendance_rate" json:"attendance_rate"`
	LatestGPA      *float64 `db:"latest_gpa" json:"latest_gpa"`
	Standing       string   `db:"-" json:"standing"`
}

const (
	StandingGood   = "Good Standing"
	StandingAtRisk = "At Risk"
)

// ComputeStanding flags a student at risk below 75% attendance or a 2.0 GPA.
func (p *StudentPerformance) ComputeStanding() {
	p.Standing = StandingGood
	if p.AttendanceRate != nil && *p.AttendanceRate < 75 {
		p.Standing = StandingAtRisk
	}
	if p.LatestGPA != nil && *p.LatestGPA < 2.0 {
		p.Standing = StandingAtRisk
	}
}
