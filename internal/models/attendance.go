package models

import "time"

// AttendanceStatus represents the status for attendance records.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
	AttendanceExcused AttendanceStatus = "excused"
)

// Valid returns true when the status is a supported value.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case AttendancePresent, AttendanceAbsent, AttendanceLate, AttendanceExcused:
		return true
	default:
		return false
	}
}

// Attendance is one student's status on one date. (student_id, date) is unique.
type Attendance struct {
	StudentID string           `db:"student_id" json:"student_id"`
	Date      time.Time        `db:"date" json:"date"`
	Status    AttendanceStatus `db:"status" json:"status"`
}

// RosterEntry is a homeroom roster row for a given day.
type RosterEntry struct {
	ID             string            `db:"id" json:"id"`
	Name           string            `db:"name" json:"name"`
	Email          string            `db:"email" json:"email"`
	TodayStatus    *AttendanceStatus `db:"today_status" json:"today_status"`
	AttendanceRate *float64          `db:"attendance_rate" json:"attendance_rate"`
	AbsenceCount   int               `db:"absence_count" json:"absence_count"`
}

// Absentee summarises a frequently absent student.
type Absentee struct {
	ID         string     `db:"id" json:"id"`
	Name       string     `db:"name" json:"name"`
	Absences   int        `db:"absences" json:"absences"`
	LastAbsent *time.Time `db:"last_absent" json:"lastAbsent"`
}
