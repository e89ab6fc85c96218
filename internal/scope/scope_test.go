package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolleave/internal/model"
)

func rec(id uint, studentID, department, classroom string) model.LeaveForm {
	return model.LeaveForm{
		ID:         id,
		FullName:   "Student " + studentID,
		StudentID:  studentID,
		Department: department,
		Classroom:  classroom,
		LeaveType:  model.LeaveSick,
		LeaveDate:  "10/01/2025",
		Status:     model.LeavePending,
	}
}

func ids(records []model.LeaveForm) []uint {
	out := make([]uint, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func sample() []model.LeaveForm {
	return []model.LeaveForm{
		rec(1, "S100", "IT", "4/1"),
		rec(2, "S200", "IT", "4/2"),
		rec(3, "S100", "Accounting", "5/1"),
		rec(4, "S300", "Accounting", "4/1"),
		rec(5, "S400", "", ""),
	}
}

func TestPolicyFilter(t *testing.T) {
	t.Run("Should keep only own records for a student", func(t *testing.T) {
		student := &model.Identity{ID: 1, Username: "S100", Role: model.RoleStudent, Department: "IT"}
		got := DepartmentOnly.Filter(student, sample(), Criteria{})
		assert.Equal(t, []uint{1, 3}, ids(got))
	})

	t.Run("Should keep only the department for a teacher", func(t *testing.T) {
		teacher := &model.Identity{ID: 2, Username: "T1", Role: model.RoleTeacher, Department: "IT", Classroom: "4/1"}
		got := DepartmentOnly.Filter(teacher, sample(), Criteria{})
		assert.Equal(t, []uint{1, 2}, ids(got))
	})

	t.Run("Should compose department and classroom when configured", func(t *testing.T) {
		teacher := &model.Identity{ID: 2, Username: "T1", Role: model.RoleTeacher, Department: "IT", Classroom: "4/1"}
		p := Policy{Teacher: TeacherScope{Department: true, Classroom: true}}
		assert.Equal(t, []uint{1}, ids(p.Filter(teacher, sample(), Criteria{})))
	})

	t.Run("Should match classroom alone when configured", func(t *testing.T) {
		teacher := &model.Identity{ID: 2, Username: "T1", Role: model.RoleTeacher, Department: "IT", Classroom: "4/1"}
		p := Policy{Teacher: TeacherScope{Classroom: true}}
		assert.Equal(t, []uint{1, 4}, ids(p.Filter(teacher, sample(), Criteria{})))
	})

	t.Run("Should skip empty teacher fields when asked", func(t *testing.T) {
		teacher := &model.Identity{ID: 2, Username: "T1", Role: model.RoleTeacher, Department: "IT"}
		p := Policy{Teacher: TeacherScope{Department: true, Classroom: true, SkipEmpty: true}}
		assert.Equal(t, []uint{1, 2}, ids(p.Filter(teacher, sample(), Criteria{})))
	})

	t.Run("Should compare empty teacher fields strictly by default", func(t *testing.T) {
		teacher := &model.Identity{ID: 2, Username: "T1", Role: model.RoleTeacher}
		assert.Equal(t, []uint{5}, ids(DepartmentOnly.Filter(teacher, sample(), Criteria{})))
	})

	t.Run("Should pass everything for an admin", func(t *testing.T) {
		admin := &model.Identity{ID: 3, Username: "A1", Role: model.RoleAdmin}
		in := sample()
		assert.Equal(t, in, DepartmentOnly.Filter(admin, in, Criteria{}))
	})

	t.Run("Should pass nothing for unknown roles or no identity", func(t *testing.T) {
		guest := &model.Identity{ID: 4, Username: "G1", Role: "guest", Department: "IT"}
		assert.Empty(t, DepartmentOnly.Filter(guest, sample(), Criteria{}))
		assert.Empty(t, DepartmentOnly.Filter(nil, sample(), Criteria{}))
	})

	t.Run("Should not modify the input", func(t *testing.T) {
		in := sample()
		before := sample()
		student := &model.Identity{Username: "S200", Role: model.RoleStudent}
		_ = DepartmentOnly.Filter(student, in, Criteria{Status: model.LeaveApproved})
		assert.Equal(t, before, in)
	})

	t.Run("Should return the first record in the login scenario", func(t *testing.T) {
		student := &model.Identity{ID: 1, Username: "S100", Role: model.RoleStudent, Department: "IT"}
		in := []model.LeaveForm{{ID: 10, StudentID: "S100"}, {ID: 11, StudentID: "S200"}}
		got := DepartmentOnly.Filter(student, in, Criteria{})
		require.Len(t, got, 1)
		assert.Equal(t, "S100", got[0].StudentID)
	})
}

func TestParseTeacherScope(t *testing.T) {
	t.Run("Should parse both fields", func(t *testing.T) {
		ts, err := ParseTeacherScope(" Department , classroom", true)
		require.NoError(t, err)
		assert.Equal(t, TeacherScope{Department: true, Classroom: true, SkipEmpty: true}, ts)
	})

	t.Run("Should reject unknown fields", func(t *testing.T) {
		_, err := ParseTeacherScope("department,grade", false)
		assert.Error(t, err)
	})

	t.Run("Should reject an empty list", func(t *testing.T) {
		_, err := ParseTeacherScope(" , ", false)
		assert.Error(t, err)
	})
}
