package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"schoolleave/internal/model"
)

func TestCriteriaMatch(t *testing.T) {
	form := model.LeaveForm{
		FullName:  "Somchai Jaidee",
		LeaveType: model.LeavePersonal,
		LeaveDate: "05/03/2025",
		StartTime: "09:00",
		EndTime:   "11:30",
		Status:    model.LeaveApproved,
	}
	allDay := form
	allDay.StartTime, allDay.EndTime = "", ""

	tests := []struct {
		name string
		c    Criteria
		rec  model.LeaveForm
		want bool
	}{
		{"Should match with no criteria", Criteria{}, form, true},
		{"Should match an exact date", Criteria{Date: "05/03/2025"}, form, true},
		{"Should reject another date", Criteria{Date: "06/03/2025"}, form, false},
		{"Should match the month", Criteria{Month: "03/2025"}, form, true},
		{"Should reject another month", Criteria{Month: "04/2025"}, form, false},
		{"Should match a window that covers the range", Criteria{TimeStart: "08:00", TimeEnd: "12:00"}, form, true},
		{"Should match a window equal to the range", Criteria{TimeStart: "09:00", TimeEnd: "11:30"}, form, true},
		{"Should reject a range that starts early", Criteria{TimeStart: "09:30", TimeEnd: "12:00"}, form, false},
		{"Should reject a range that ends late", Criteria{TimeStart: "08:00", TimeEnd: "11:00"}, form, false},
		{"Should reject an all-day form under a window", Criteria{TimeStart: "08:00", TimeEnd: "12:00"}, allDay, false},
		{"Should ignore a half-open window", Criteria{TimeStart: "10:00"}, allDay, true},
		{"Should match the leave type", Criteria{LeaveType: model.LeavePersonal}, form, true},
		{"Should reject another leave type", Criteria{LeaveType: model.LeaveSick}, form, false},
		{"Should match the status", Criteria{Status: model.LeaveApproved}, form, true},
		{"Should reject another status", Criteria{Status: model.LeavePending}, form, false},
		{"Should search names case-insensitively", Criteria{Search: "jAiDe"}, form, true},
		{"Should reject a missing name", Criteria{Search: "Malee"}, form, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := tt.rec
			assert.Equal(t, tt.want, tt.c.Match(&rec))
		})
	}
}

func TestCriteriaValidate(t *testing.T) {
	assert.NoError(t, Criteria{Date: "31/12/2024", Month: "12/2024", TimeStart: "08:00", TimeEnd: "17:00"}.Validate())
	assert.Error(t, Criteria{Date: "2024-12-31"}.Validate())
	assert.Error(t, Criteria{Month: "13/2024"}.Validate())
	assert.Error(t, Criteria{TimeStart: "8:00"}.Validate())
	assert.Error(t, Criteria{LeaveType: "holiday"}.Validate())
	assert.Error(t, Criteria{Status: "done"}.Validate())
}
