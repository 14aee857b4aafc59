package models

import "time"

// DefaultClassCapacity applies when a class has no capacity configured.
const DefaultClassCapacity = 30

// Class represents a sectioned class. ClassName doubles as the label stored
// on students.enrolled_class.
type Class struct {
	ID                string    `db:"id" json:"id"`
	ClassName         string    `db:"class_name" json:"class_name"`
	RoomNumber        string    `db:"room_number" json:"room_number"`
	HomeroomTeacherID *string   `db:"homeroom_teacher_id" json:"homeroom_teacher_id,omitempty"`
	Capacity          *int      `db:"capacity" json:"capacity,omitempty"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

// ClassDetail extends Class with the homeroom teacher name and roster size.
type ClassDetail struct {
	Class
	TeacherName  *string `db:"teacher_name" json:"teacher_name,omitempty"`
	StudentCount int     `db:"student_count" json:"student_count"`
}

// ClassFilter defines filter criteria for listing classes.
type ClassFilter struct {
	Search string
}

// EffectiveCapacity returns the configured capacity or fallback when unset.
func EffectiveCapacity(capacity *int, fallback int) int {
	if capacity != nil && *capacity > 0 {
		return *capacity
	}
	if fallback > 0 {
		return fallback
	}
	return DefaultClassCapacity
}
