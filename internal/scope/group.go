package scope

import "schoolleave/internal/model"

// MonthGroup is a run of records sharing a leave month.
type MonthGroup struct {
	Label   string            `json:"label"` // e.g. "January 2025"
	Month   string            `json:"month"` // MM/YYYY
	Records []model.LeaveForm `json:"records"`
}

// UndatedLabel groups records whose date cannot be parsed.
const UndatedLabel = "Undated"

// GroupByMonth buckets records by leave month. Groups appear in the order their
// first record does, and records keep their relative order.
func GroupByMonth(records []model.LeaveForm) []MonthGroup {
	var groups []MonthGroup
	index := make(map[string]int)
	for _, rec := range records {
		label, month := UndatedLabel, ""
		if d, err := rec.Date(); err == nil {
			label = d.Format("January 2006")
			month = d.Format(model.LeaveMonthLayout)
		}
		i, ok := index[label]
		if !ok {
			i = len(groups)
			index[label] = i
			groups = append(groups, MonthGroup{Label: label, Month: month})
		}
		groups[i].Records = append(groups[i].Records, rec)
	}
	return groups
}

// PendingCount counts records still awaiting a decision.
func PendingCount(records []model.LeaveForm) int {
	n := 0
	for _, rec := range records {
		if rec.Status == model.LeavePending {
			n++
		}
	}
	return n
}
