package table

import (
	"errors"
	"strings"
)

// DefaultPageSize matches the rows-per-page of the campaign table.
const DefaultPageSize = 5

// ErrInvalidPageSize is returned when a page size is not positive.
var ErrInvalidPageSize = errors.New("table: page size must be positive")

// SortKey identifies a sortable column. The zero value means unsorted.
type SortKey string

// Sortable columns.
const (
	SortNone        SortKey = ""
	SortName        SortKey = "name"
	SortStatus      SortKey = "status"
	SortBudget      SortKey = "budget"
	SortSpent       SortKey = "spent"
	SortConversions SortKey = "conversions"
	SortCTR         SortKey = "ctr"
	SortROAS        SortKey = "roas"
)

// Known reports whether k has an accessor.
func (k SortKey) Known() bool {
	_, ok := comparators[k]
	return ok
}

// Direction is the sort order applied to the active column.
type Direction string

// Sort directions.
const (
	Ascending  Direction = "asc"
	Descending Direction = "desc"
)

// ParseDirection maps free text onto a Direction, defaulting to ascending.
func ParseDirection(raw string) Direction {
	if strings.EqualFold(strings.TrimSpace(raw), string(Descending)) {
		return Descending
	}
	return Ascending
}

// ViewParameters holds every user-controlled knob of the table.
type ViewParameters struct {
	Search    string    `json:"search"`
	Status    Status    `json:"status"`
	SortKey   SortKey   `json:"sort,omitempty"`
	Direction Direction `json:"dir"`
	Page      int       `json:"page"`
	PageSize  int       `json:"page_size"`
}

// DefaultParameters returns the initial table state for the given page size.
func DefaultParameters(pageSize int) ViewParameters {
	return ViewParameters{
		Status:    StatusAll,
		Direction: Ascending,
		Page:      1,
		PageSize:  pageSize,
	}
}

// ViewResult is the ready-to-render page of records.
type ViewResult struct {
	Records      []Record `json:"records"`
	TotalMatched int      `json:"total_matched"`
	PageCount    int      `json:"page_count"`
	Page         int      `json:"page"`
}

// PageSummary carries the "Showing From to To of Total results" footer numbers.
type PageSummary struct {
	From  int `json:"from"`
	To    int `json:"to"`
	Total int `json:"total"`
}

// Summary computes the footer range for a derived view.
func Summary(result ViewResult, pageSize int) PageSummary {
	if result.TotalMatched == 0 || pageSize <= 0 {
		return PageSummary{Total: result.TotalMatched}
	}
	from := (result.Page-1)*pageSize + 1
	to := result.Page * pageSize
	if to > result.TotalMatched {
		to = result.TotalMatched
	}
	return PageSummary{From: from, To: to, Total: result.TotalMatched}
}
