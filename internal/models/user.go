package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RolePrincipal       UserRole = "PRINCIPAL"
	RoleHomeroomTeacher UserRole = "HOMEROOM_TEACHER"
	RoleSubjectTeacher  UserRole = "SUBJECT_TEACHER"
	RoleStudent         UserRole = "STUDENT"
	RoleAdmin           UserRole = "ADMIN"
)

// Valid reports whether r is a known role.
func (r UserRole) Valid() bool {
	switch r {
	case RolePrincipal, RoleHomeroomTeacher, RoleSubjectTeacher, RoleStudent, RoleAdmin:
		return true
	default:
		return false
	}
}

// User represents an account stored in the users table.
type User struct {
	ID           string    `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Role         UserRole  `db:"role" json:"role"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
