package models

type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
	RoleAdmin   UserRole = "admin"
)

// ParseRole maps an identity provider role name onto a UserRole. Anything
// unrecognized is treated as a student.
func ParseRole(value string) UserRole {
	switch UserRole(value) {
	case RoleTeacher, RoleAdmin:
		return UserRole(value)
	default:
		return RoleStudent
	}
}

// Caller is the authenticated user behind a request.
type Caller struct {
	UserID string   `json:"user_id"`
	Name   string   `json:"name,omitempty"`
	Role   UserRole `json:"role"`
}

// IsStaff reports whether the caller may read or recompute analytics for
// sessions they do not own.
func (c Caller) IsStaff() bool {
	return c.Role == RoleTeacher || c.Role == RoleAdmin
}
