package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Wire layouts used by the leave form.
const (
	LeaveDateLayout  = "02/01/2006"
	LeaveMonthLayout = "01/2006"
	ClockLayout      = "15:04"
)

// LeaveType is the fixed enumeration of leave reasons.
type LeaveType string

const (
	LeaveSick      LeaveType = "sick"
	LeavePersonal  LeaveType = "personal"
	LeaveStudy     LeaveType = "study"
	LeaveOffCampus LeaveType = "off_campus"
	LeaveActivity  LeaveType = "activity"
	LeaveOther     LeaveType = "other"
)

// LeaveTypes lists the enumeration in display order.
var LeaveTypes = []LeaveType{LeaveSick, LeavePersonal, LeaveStudy, LeaveOffCampus, LeaveActivity, LeaveOther}

// Valid reports whether t is part of the enumeration.
func (t LeaveType) Valid() bool {
	for _, known := range LeaveTypes {
		if t == known {
			return true
		}
	}
	return false
}

// LeaveStatus is the workflow state of a leave form.
type LeaveStatus string

const (
	LeavePending  LeaveStatus = "pending"
	LeaveApproved LeaveStatus = "approved"
	LeaveRejected LeaveStatus = "rejected"
)

// Valid reports whether s is a known workflow state.
func (s LeaveStatus) Valid() bool {
	return s == LeavePending || s == LeaveApproved || s == LeaveRejected
}

// LeaveForm is a single leave request and its decision.
type LeaveForm struct {
	ID           uint         `gorm:"primaryKey" json:"id"`
	FullName     string       `gorm:"type:varchar(255);not null;uniqueIndex:idx_leave_forms_name_date" json:"fullName"`
	StudentID    string       `gorm:"type:varchar(50);not null;index" json:"studentId"`
	Grade        string       `gorm:"type:varchar(50)" json:"grade,omitempty"`
	Classroom    string       `gorm:"type:varchar(50)" json:"classroom"`
	Department   string       `gorm:"type:varchar(255);index" json:"department"`
	LeaveType    LeaveType    `gorm:"type:varchar(30);not null" json:"leaveType"`
	LeaveDate    string       `gorm:"type:varchar(10);not null;uniqueIndex:idx_leave_forms_name_date" json:"leaveDate"`
	StartTime    string       `gorm:"type:varchar(5)" json:"startTime,omitempty"`
	EndTime      string       `gorm:"type:varchar(5)" json:"endTime,omitempty"`
	ParentPhone  string       `gorm:"type:varchar(20)" json:"parentPhone,omitempty"`
	Notes        string       `gorm:"type:text" json:"notes,omitempty"`
	Status       LeaveStatus  `gorm:"type:varchar(20);not null;default:'pending';index" json:"status"`
	RejectReason string       `gorm:"type:text" json:"rejectReason,omitempty"`
	DecidedBy    *uint        `json:"decidedBy,omitempty"`
	DecidedAt    *time.Time   `json:"decidedAt,omitempty"`
	Attachments  []Attachment `gorm:"foreignKey:LeaveFormID" json:"attachment"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// Date parses LeaveDate.
func (f *LeaveForm) Date() (time.Time, error) {
	return time.Parse(LeaveDateLayout, f.LeaveDate)
}

// HasTimeRange reports whether the form covers part of a day rather than all of it.
func (f *LeaveForm) HasTimeRange() bool {
	return f.StartTime != "" && f.EndTime != ""
}

// CheckDecision enforces the status/reason pairing.
func (f *LeaveForm) CheckDecision() error {
	if !f.Status.Valid() {
		return fmt.Errorf("unknown status %q", f.Status)
	}
	if f.Status == LeaveRejected && strings.TrimSpace(f.RejectReason) == "" {
		return errors.New("a rejected leave form needs a reject reason")
	}
	return nil
}

// ValidateDate checks a DD/MM/YYYY value.
func ValidateDate(s string) error {
	if _, err := time.Parse(LeaveDateLayout, s); err != nil {
		return fmt.Errorf("invalid date %q, expected DD/MM/YYYY", s)
	}
	return nil
}

// ValidateMonth checks a MM/YYYY value.
func ValidateMonth(s string) error {
	if _, err := time.Parse(LeaveMonthLayout, s); err != nil {
		return fmt.Errorf("invalid month %q, expected MM/YYYY", s)
	}
	return nil
}

// ValidateClock checks a HH:mm value.
func ValidateClock(s string) error {
	if _, err := time.Parse(ClockLayout, s); err != nil || len(s) != len(ClockLayout) {
		return fmt.Errorf("invalid time %q, expected HH:mm", s)
	}
	return nil
}
