package table

import (
	"log/slog"
	"strings"
)

// Derive applies params to records and returns the visible page. It is a pure
// function of its inputs: records are never modified and repeated calls with
// the same arguments return equal results.
func Derive(records []Record, params ViewParameters) (ViewResult, error) {
	return derive(slog.Default(), records, params)
}

func derive(logger *slog.Logger, records []Record, params ViewParameters) (ViewResult, error) {
	if params.PageSize <= 0 {
		return ViewResult{}, ErrInvalidPageSize
	}

	matched := filterRecords(records, params.Search, params.Status)

	if params.SortKey != SortNone {
		if params.SortKey.Known() {
			matched = sortRecords(matched, params.SortKey, params.Direction)
		} else {
			logger.Warn("table: unknown sort key, leaving rows unsorted", slog.String("sort_key", string(params.SortKey)))
		}
	}

	pageCount := pageCountFor(len(matched), params.PageSize)
	page := clampPage(params.Page, pageCount)
	start := (page - 1) * params.PageSize
	end := start + params.PageSize
	if end > len(matched) {
		end = len(matched)
	}
	visible := []Record{}
	if start < end {
		visible = append(visible, matched[start:end]...)
	}

	return ViewResult{
		Records:      visible,
		TotalMatched: len(matched),
		PageCount:    pageCount,
		Page:         page,
	}, nil
}

// filterRecords keeps records whose name contains search (case-insensitive)
// and whose status equals status. StatusAll and unknown statuses match all.
// The result always has its own backing array.
func filterRecords(records []Record, search string, status Status) []Record {
	needle := strings.ToLower(search)
	restrict := status != StatusAll && status.Known()

	out := make([]Record, 0, len(records))
	for _, rec := range records {
		if needle != "" && !strings.Contains(strings.ToLower(rec.Name), needle) {
			continue
		}
		if restrict && rec.Status != status {
			continue
		}
		out = append(out, rec)
	}
	return out
}

func pageCountFor(total, pageSize int) int {
	pages := (total + pageSize - 1) / pageSize
	if pages < 1 {
		return 1
	}
	return pages
}

func clampPage(page, pageCount int) int {
	if page < 1 {
		return 1
	}
	if page > pageCount {
		return pageCount
	}
	return page
}
