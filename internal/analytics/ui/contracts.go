// Package ui shapes analytics domain values into the JSON view models the
// dashboard front end renders.
package ui

import (
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/pulseboard/pulseboard/internal/analytics"
	"github.com/pulseboard/pulseboard/internal/analytics/filters"
	"github.com/pulseboard/pulseboard/internal/analytics/table"
)

const clockLayout = "15:04:05"

// DashboardViewModel combines all dashboard data for rendering.
type DashboardViewModel struct {
	Range         string             `json:"range"`
	RangeLabel    string             `json:"range_label"`
	Metrics       []analytics.Metric `json:"metrics"`
	Charts        analytics.Charts   `json:"charts"`
	LastUpdated   string             `json:"last_updated"`
	LastUpdatedAt time.Time          `json:"last_updated_at"`
}

// DashboardState mirrors the refresher view state.
type DashboardState struct {
	Loading    bool                `json:"loading"`
	Refreshing bool                `json:"refreshing"`
	Error      string              `json:"error,omitempty"`
	Token      uint64              `json:"token"`
	Dashboard  *DashboardViewModel `json:"dashboard,omitempty"`
}

// CampaignRow is one formatted table row.
type CampaignRow struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Status      table.Status `json:"status"`
	Budget      string       `json:"budget"`
	Spent       string       `json:"spent"`
	SpentShare  float64      `json:"spent_share"`
	Conversions string       `json:"conversions"`
	CTR         string       `json:"ctr"`
	ROAS        string       `json:"roas"`
}

// CampaignPage is a ready-to-render page of the campaign table.
type CampaignPage struct {
	Params    table.ViewParameters `json:"params"`
	Statuses  []table.Status       `json:"statuses"`
	Rows      []CampaignRow        `json:"rows"`
	Summary   table.PageSummary    `json:"summary"`
	Footer    string               `json:"footer"`
	Page      int                  `json:"page"`
	PageCount int                  `json:"page_count"`
	HasPrev   bool                 `json:"has_prev"`
	HasNext   bool                 `json:"has_next"`
}

// FilterState is the committed advanced filter selection and its chips.
type FilterState struct {
	Params filters.Params `json:"params"`
	Chips  []filters.Chip `json:"chips"`
}

// FilterOptions lists the selectable values of every filter field.
type FilterOptions struct {
	Keys    []filters.Key                    `json:"keys"`
	Options map[filters.Key][]filters.Option `json:"options"`
	Default filters.Params                   `json:"default"`
}

// ToDashboard converts a snapshot into its view model.
func ToDashboard(snap analytics.Snapshot, loc *time.Location) DashboardViewModel {
	if loc == nil {
		loc = time.UTC
	}
	label, _ := filters.Label(filters.KeyDateRange, snap.Range)
	return DashboardViewModel{
		Range:         snap.Range,
		RangeLabel:    label,
		Metrics:       snap.Metrics,
		Charts:        snap.Charts,
		LastUpdated:   snap.LastUpdated.In(loc).Format(clockLayout),
		LastUpdatedAt: snap.LastUpdated,
	}
}

// ToDashboardState converts the refresher state.
func ToDashboardState(state analytics.State, loc *time.Location) DashboardState {
	out := DashboardState{
		Loading:    state.Loading,
		Refreshing: state.Refreshing,
		Token:      state.Token,
	}
	if state.Err != nil {
		out.Error = "Unable to refresh dashboard data."
	}
	if state.Snapshot != nil {
		vm := ToDashboard(*state.Snapshot, loc)
		out.Dashboard = &vm
	}
	return out
}

// ToCampaignPage formats a derived table page.
func ToCampaignPage(params table.ViewParameters, result table.ViewResult, statuses []table.Status) CampaignPage {
	p := message.NewPrinter(language.English)
	rows := make([]CampaignRow, 0, len(result.Records))
	for _, rec := range result.Records {
		rows = append(rows, toRow(p, rec))
	}
	params.Page = result.Page
	summary := table.Summary(result, params.PageSize)
	options := append([]table.Status{table.StatusAll}, statuses...)
	return CampaignPage{
		Params:    params,
		Statuses:  options,
		Rows:      rows,
		Summary:   summary,
		Footer:    footer(summary),
		Page:      result.Page,
		PageCount: result.PageCount,
		HasPrev:   result.Page > 1,
		HasNext:   result.Page < result.PageCount,
	}
}

// ToFilterOptions lists every filter field with its values.
func ToFilterOptions() FilterOptions {
	opts := make(map[filters.Key][]filters.Option, len(filters.Keys))
	for _, key := range filters.Keys {
		opts[key] = filters.Options(key)
	}
	return FilterOptions{Keys: filters.Keys, Options: opts, Default: filters.DefaultParams()}
}

func toRow(p *message.Printer, rec table.Record) CampaignRow {
	share := 0.0
	if rec.Budget.IsPositive() {
		share, _ = rec.Spent.Div(rec.Budget).Mul(decimal.NewFromInt(100)).Round(1).Float64()
	}
	return CampaignRow{
		ID:          rec.ID,
		Name:        rec.Name,
		Status:      rec.Status,
		Budget:      money(p, rec.Budget),
		Spent:       money(p, rec.Spent),
		SpentShare:  share,
		Conversions: p.Sprintf("%d", rec.Conversions),
		CTR:         strconv.FormatFloat(rec.CTR, 'f', -1, 64) + "%",
		ROAS:        strconv.FormatFloat(rec.ROAS, 'f', -1, 64) + "x",
	}
}

func money(p *message.Printer, d decimal.Decimal) string {
	whole := d.Truncate(0)
	if d.Equal(whole) {
		return p.Sprintf("$%d", whole.IntPart())
	}
	cents := d.Sub(whole).Abs().StringFixed(2)
	return p.Sprintf("$%d", whole.IntPart()) + cents[1:]
}

func footer(s table.PageSummary) string {
	return fmt.Sprintf("Showing %d to %d of %d results", s.From, s.To, s.Total)
}
