package model

import "fmt"

// Role is one of the closed set of principals the school recognises.
type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

// Roles lists every recognised role.
var Roles = []Role{RoleStudent, RoleTeacher, RoleAdmin}

// Valid reports whether r belongs to the closed role set.
func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

// HomePath is the landing route of the role's navigation tree.
func (r Role) HomePath() string {
	switch r {
	case RoleStudent:
		return "/student"
	case RoleTeacher:
		return "/teacher"
	case RoleAdmin:
		return "/admin"
	}
	return "/result"
}

// ParseRole converts a raw directory value, rejecting anything outside the closed set.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", fmt.Errorf("invalid role %q: must be student, teacher or admin", s)
	}
	return r, nil
}
