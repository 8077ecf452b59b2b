package table

import "github.com/shopspring/decimal"

// Status is the lifecycle label of a campaign row.
type Status string

// Campaign statuses rendered by the status select.
const (
	StatusActive    Status = "Active"
	StatusPaused    Status = "Paused"
	StatusCompleted Status = "Completed"
	StatusDraft     Status = "Draft"

	// StatusAll disables status filtering.
	StatusAll Status = "All"
)

var knownStatuses = map[Status]struct{}{
	StatusActive:    {},
	StatusPaused:    {},
	StatusCompleted: {},
	StatusDraft:     {},
}

// Known reports whether s is one of the campaign statuses.
func (s Status) Known() bool {
	_, ok := knownStatuses[s]
	return ok
}

// Record is one campaign row. Records handed to the engine are never modified.
type Record struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Status      Status          `json:"status"`
	Budget      decimal.Decimal `json:"budget"`
	Spent       decimal.Decimal `json:"spent"`
	Conversions int64           `json:"conversions"`
	CTR         float64         `json:"ctr"`
	ROAS        float64         `json:"roas"`
}

// Statuses lists the distinct statuses present in records, in first-seen order.
func Statuses(records []Record) []Status {
	seen := make(map[Status]struct{}, len(knownStatuses))
	out := make([]Status, 0, len(knownStatuses))
	for _, rec := range records {
		if _, ok := seen[rec.Status]; ok {
			continue
		}
		seen[rec.Status] = struct{}{}
		out = append(out, rec.Status)
	}
	return out
}
