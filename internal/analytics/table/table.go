package table

import (
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

// Option customises a Table.
type Option func(*Table)

// WithLogger sets the logger used for caller errors such as unknown sort keys.
func WithLogger(logger *slog.Logger) Option {
	return func(t *Table) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// WithOnChange registers a callback fired with the committed parameters each
// time a setter changes them.
func WithOnChange(fn func(ViewParameters)) Option {
	return func(t *Table) {
		t.onChange = fn
	}
}

// Table owns a record set and the parameters currently applied to it.
type Table struct {
	mu       sync.Mutex
	records  []Record
	params   ViewParameters
	view     ViewResult
	logger   *slog.Logger
	onChange func(ViewParameters)
}

// NewTable builds a table over records showing pageSize rows per page.
func NewTable(records []Record, pageSize int, opts ...Option) (*Table, error) {
	if pageSize <= 0 {
		return nil, fmt.Errorf("new table: %w", ErrInvalidPageSize)
	}
	t := &Table{
		records: slices.Clone(records),
		params:  DefaultParameters(pageSize),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	view, err := derive(t.logger, t.records, t.params)
	if err != nil {
		return nil, err
	}
	t.view = view
	return t, nil
}

// Params returns the parameters currently applied.
func (t *Table) Params() ViewParameters {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.params
}

// View returns the current visible page.
func (t *Table) View() ViewResult {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.view
}

// Sort returns the active sort column and direction.
func (t *Table) Sort() SortState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return SortState{Key: t.params.SortKey, Direction: t.params.Direction}
}

// Statuses lists the statuses offered by the status select.
func (t *Table) Statuses() []Status {
	return Statuses(t.records)
}

// SetSearch changes the name search text.
func (t *Table) SetSearch(search string) ViewResult {
	return t.commit(func(p *ViewParameters) { p.Search = search })
}

// SetStatus changes the status filter. Unknown statuses behave like StatusAll.
func (t *Table) SetStatus(status Status) ViewResult {
	return t.commit(func(p *ViewParameters) { p.Status = status })
}

// ToggleSort applies a header click on key. Unknown keys are logged and ignored.
func (t *Table) ToggleSort(key SortKey) ViewResult {
	if !key.Known() {
		t.logger.Warn("table: toggle on unknown sort key", slog.String("sort_key", string(key)))
		return t.View()
	}
	return t.commit(func(p *ViewParameters) {
		next := SortState{Key: p.SortKey, Direction: p.Direction}.Toggle(key)
		p.SortKey = next.Key
		p.Direction = next.Direction
	})
}

// SetPage jumps to page, clamped into the valid range.
func (t *Table) SetPage(page int) ViewResult {
	return t.commit(func(p *ViewParameters) { p.Page = page })
}

// NextPage advances one page, stopping at the last one.
func (t *Table) NextPage() ViewResult {
	return t.commit(func(p *ViewParameters) { p.Page++ })
}

// PrevPage goes back one page, stopping at the first one.
func (t *Table) PrevPage() ViewResult {
	return t.commit(func(p *ViewParameters) { p.Page-- })
}

func (t *Table) commit(mutate func(*ViewParameters)) ViewResult {
	t.mu.Lock()
	prev := t.params
	next := prev
	mutate(&next)

	view, err := derive(t.logger, t.records, next)
	if err != nil {
		// Page size is validated at construction, so this only guards misuse.
		t.mu.Unlock()
		t.logger.Error("table: derive view", slog.Any("error", err))
		return t.View()
	}
	next.Page = view.Page
	t.params = next
	t.view = view
	notify := t.onChange
	t.mu.Unlock()

	if notify != nil && next != prev {
		notify(next)
	}
	return view
}
