// Package scope narrows leave records to what an identity may see.
//
// Everything here is pure: no I/O, and input slices are never modified.
package scope

import (
	"fmt"
	"strings"

	"schoolleave/internal/model"
)

// TeacherScope selects which of a teacher's own fields a record must share.
type TeacherScope struct {
	Department bool
	Classroom  bool
	// SkipEmpty leaves a field unconstrained when the teacher has no value for it.
	SkipEmpty bool
}

// ParseTeacherScope reads a comma separated list of "department" and "classroom".
func ParseTeacherScope(s string, skipEmpty bool) (TeacherScope, error) {
	ts := TeacherScope{SkipEmpty: skipEmpty}
	for _, part := range strings.Split(s, ",") {
		switch strings.ToLower(strings.TrimSpace(part)) {
		case "department":
			ts.Department = true
		case "classroom":
			ts.Classroom = true
		case "":
		default:
			return TeacherScope{}, fmt.Errorf("unknown teacher scope field %q", part)
		}
	}
	if !ts.Department && !ts.Classroom {
		return TeacherScope{}, fmt.Errorf("teacher scope %q names no field", s)
	}
	return ts, nil
}

func (ts TeacherScope) matches(identity model.Identity, rec *model.LeaveForm) bool {
	if ts.Department && !fieldMatches(identity.Department, rec.Department, ts.SkipEmpty) {
		return false
	}
	if ts.Classroom && !fieldMatches(identity.Classroom, rec.Classroom, ts.SkipEmpty) {
		return false
	}
	return true
}

func fieldMatches(own, recorded string, skipEmpty bool) bool {
	if skipEmpty && own == "" {
		return true
	}
	return own == recorded
}

// Policy is the role-scoped visibility rule.
type Policy struct {
	Teacher TeacherScope
}

// DepartmentOnly is the strict teacher rule used by the leave list.
var DepartmentOnly = Policy{Teacher: TeacherScope{Department: true}}

// Visible reports whether identity may see rec. A nil identity sees nothing.
func (p Policy) Visible(identity *model.Identity, rec *model.LeaveForm) bool {
	if identity == nil {
		return false
	}
	switch identity.Role {
	case model.RoleAdmin:
		return true
	case model.RoleTeacher:
		return p.Teacher.matches(*identity, rec)
	case model.RoleStudent:
		return rec.StudentID == identity.Username
	}
	return false
}

// Filter returns the visible records that also satisfy c, in input order.
func (p Policy) Filter(identity *model.Identity, records []model.LeaveForm, c Criteria) []model.LeaveForm {
	out := make([]model.LeaveForm, 0, len(records))
	for i := range records {
		rec := &records[i]
		if p.Visible(identity, rec) && c.Match(rec) {
			out = append(out, *rec)
		}
	}
	return out
}
