package model

import "github.com/shopspring/decimal"

// LeaveSummary aggregates approved leave by type for the statistics page.
type LeaveSummary struct {
	Total         int                 `json:"total"`
	ByType        []LeaveTypeCount    `json:"by_type"`
	MostFrequent  []LeaveType         `json:"most_frequent"`
	MostFrequentN int                 `json:"most_frequent_count"`
	ByStatus      map[LeaveStatus]int `json:"by_status"`
}

// LeaveTypeCount is one slice of the summary.
type LeaveTypeCount struct {
	LeaveType LeaveType       `json:"leave_type"`
	Count     int             `json:"count"`
	Share     decimal.Decimal `json:"share"` // percent of Total, 2 dp
}
