package scope

import (
	"fmt"
	"strings"

	"schoolleave/internal/model"
)

// Criteria are value filters applied the same way for every role.
// Zero fields do not constrain.
type Criteria struct {
	Date      string // DD/MM/YYYY
	Month     string // MM/YYYY
	TimeStart string // HH:mm, used only together with TimeEnd
	TimeEnd   string
	LeaveType model.LeaveType
	Status    model.LeaveStatus
	Search    string // case-insensitive substring of the full name
}

// Validate checks the formats of the set fields.
func (c Criteria) Validate() error {
	if c.Date != "" {
		if err := model.ValidateDate(c.Date); err != nil {
			return err
		}
	}
	if c.Month != "" {
		if err := model.ValidateMonth(c.Month); err != nil {
			return err
		}
	}
	for _, clock := range []string{c.TimeStart, c.TimeEnd} {
		if clock != "" {
			if err := model.ValidateClock(clock); err != nil {
				return err
			}
		}
	}
	if c.LeaveType != "" && !c.LeaveType.Valid() {
		return fmt.Errorf("invalid leave type %q", c.LeaveType)
	}
	if c.Status != "" && !c.Status.Valid() {
		return fmt.Errorf("invalid status %q", c.Status)
	}
	return nil
}

func (c Criteria) hasTimeWindow() bool {
	return c.TimeStart != "" && c.TimeEnd != ""
}

// Match reports whether rec satisfies every set field.
func (c Criteria) Match(rec *model.LeaveForm) bool {
	if c.Date != "" && rec.LeaveDate != c.Date {
		return false
	}
	if c.Month != "" && monthOf(rec.LeaveDate) != c.Month {
		return false
	}
	if c.hasTimeWindow() {
		// HH:mm values compare correctly as strings.
		if !rec.HasTimeRange() || rec.StartTime < c.TimeStart || rec.EndTime > c.TimeEnd {
			return false
		}
	}
	if c.LeaveType != "" && rec.LeaveType != c.LeaveType {
		return false
	}
	if c.Status != "" && rec.Status != c.Status {
		return false
	}
	if c.Search != "" && !strings.Contains(strings.ToLower(rec.FullName), strings.ToLower(c.Search)) {
		return false
	}
	return true
}

// monthOf extracts MM/YYYY from DD/MM/YYYY.
func monthOf(date string) string {
	if len(date) != len(model.LeaveDateLayout) {
		return ""
	}
	return date[3:]
}
