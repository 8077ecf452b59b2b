package analytichttp

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pulseboard/pulseboard/internal/analytics"
	"github.com/pulseboard/pulseboard/internal/analytics/export"
	"github.com/pulseboard/pulseboard/internal/analytics/filters"
	"github.com/pulseboard/pulseboard/internal/analytics/table"
	"github.com/pulseboard/pulseboard/internal/analytics/ui"
	"github.com/pulseboard/pulseboard/internal/platform/httpx"
)

type stubDashboard struct {
	mu     sync.Mutex
	ranges []string
	err    error
}

func (s *stubDashboard) Snapshot(_ context.Context, dateRange string) (analytics.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ranges = append(s.ranges, dateRange)
	if s.err != nil {
		return analytics.Snapshot{}, s.err
	}
	return analytics.Snapshot{
		Range:       dateRange,
		Metrics:     []analytics.Metric{{Key: "revenue", Value: "$1"}},
		LastUpdated: time.Date(2024, 2, 3, 9, 30, 0, 0, time.UTC),
	}, nil
}

type stubRefresher struct {
	state analytics.State
	err   error
	calls int
}

func (s *stubRefresher) State() analytics.State { return s.state }

func (s *stubRefresher) Refresh(context.Context) (analytics.State, error) {
	s.calls++
	return s.state, s.err
}

type stubExports struct {
	submitted []export.Request
	statuses  map[string]export.Status
}

func (s *stubExports) Submit(_ context.Context, req export.Request) (export.Status, error) {
	if err := req.Validate(); err != nil {
		return export.Status{}, err
	}
	s.submitted = append(s.submitted, req)
	return export.Status{ID: "e1", Format: req.Format, DateRange: req.DateRange, Phase: export.PhaseQueued}, nil
}

func (s *stubExports) Get(_ context.Context, id string) (export.Status, error) {
	status, ok := s.statuses[id]
	if !ok {
		return export.Status{}, export.ErrNotFound
	}
	return status, nil
}

func campaigns() []table.Record {
	mk := func(id int64, name string, status table.Status, budget int64) table.Record {
		return table.Record{ID: id, Name: name, Status: status, Budget: decimal.NewFromInt(budget), Spent: decimal.NewFromInt(budget / 2)}
	}
	return []table.Record{
		mk(1, "Zeta Launch", table.StatusActive, 500),
		mk(2, "Alpha Push", table.StatusActive, 100),
		mk(3, "Mid Season", table.StatusPaused, 300),
		mk(4, "Holiday Special", table.StatusActive, 200),
		mk(5, "Spring Launch", table.StatusCompleted, 400),
		mk(6, "Back to School", table.StatusDraft, 600),
		mk(7, "Summer Sale", table.StatusActive, 700),
	}
}

type fixture struct {
	router    chi.Router
	dashboard *stubDashboard
	refresher *stubRefresher
	exports   *stubExports
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	snap := analytics.Snapshot{Range: analytics.DefaultRange, LastUpdated: time.Date(2024, 2, 3, 10, 0, 0, 0, time.UTC)}
	f := &fixture{
		dashboard: &stubDashboard{},
		refresher: &stubRefresher{state: analytics.State{Snapshot: &snap, Token: 3}},
		exports:   &stubExports{statuses: map[string]export.Status{"e1": {ID: "e1", Phase: export.PhaseExporting}}},
	}
	h, err := NewHandler(Config{
		Dashboard: f.dashboard,
		Refresher: f.refresher,
		Exports:   f.exports,
		Records:   campaigns(),
		PageSize:  2,
	})
	require.NoError(t, err)
	r := chi.NewRouter()
	h.MountRoutes(r)
	f.router = r
	return f
}

func (f *fixture) do(t *testing.T, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	return out
}

func TestNewHandlerValidatesConfig(t *testing.T) {
	_, err := NewHandler(Config{PageSize: 0})
	assert.ErrorIs(t, err, table.ErrInvalidPageSize)
	_, err = NewHandler(Config{PageSize: 5})
	assert.Error(t, err)
}

func TestDashboardUsesRefresherSnapshotForDefaultRange(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[DashboardResponse](t, rec)
	require.NotNil(t, resp.Dashboard)
	assert.Equal(t, "10:00:00", resp.Dashboard.LastUpdated)
	assert.EqualValues(t, 3, resp.State.Token)
	assert.Nil(t, resp.State.Dashboard)
	assert.Empty(t, f.dashboard.ranges)
	assert.Len(t, resp.Campaigns.Rows, 2)
	assert.Equal(t, 4, resp.Campaigns.PageCount)
}

func TestDashboardLoadsOtherRanges(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/dashboard?range=7days", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[DashboardResponse](t, rec)
	require.NotNil(t, resp.Dashboard)
	assert.Equal(t, "7days", resp.Dashboard.Range)
	assert.Equal(t, []string{"7days"}, f.dashboard.ranges)
}

func TestDashboardMapsUnknownRange(t *testing.T) {
	f := newFixture(t)
	f.dashboard.err = analytics.ErrUnknownRange
	rec := f.do(t, http.MethodGet, "/api/dashboard?range=forever", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDashboardWhileInitialLoadPending(t *testing.T) {
	f := newFixture(t)
	f.refresher.state = analytics.State{Loading: true, Token: 1}
	rec := f.do(t, http.MethodGet, "/api/dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[DashboardResponse](t, rec)
	assert.True(t, resp.State.Loading)
	assert.Nil(t, resp.Dashboard)
}

func TestRefresh(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/dashboard/refresh", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, f.refresher.calls)
	state := decode[ui.DashboardState](t, rec)
	require.NotNil(t, state.Dashboard)

	f.refresher.err = analytics.ErrSuperseded
	rec = f.do(t, http.MethodPost, "/api/dashboard/refresh", "")
	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestRefreshFailureIsReportedInState(t *testing.T) {
	f := newFixture(t)
	f.refresher.state.Err = errors.New("source down")
	rec := f.do(t, http.MethodGet, "/api/dashboard/state", "")
	require.Equal(t, http.StatusOK, rec.Code)
	state := decode[ui.DashboardState](t, rec)
	assert.NotEmpty(t, state.Error)
	assert.NotNil(t, state.Dashboard)
}

func TestCampaignsFilterSortPaginate(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/campaigns?status=Active&sort=budget&dir=asc&page=1", "")
	require.Equal(t, http.StatusOK, rec.Code)

	page := decode[ui.CampaignPage](t, rec)
	require.Len(t, page.Rows, 2)
	assert.Equal(t, "Alpha Push", page.Rows[0].Name)
	assert.Equal(t, "Holiday Special", page.Rows[1].Name)
	assert.Equal(t, 2, page.PageCount)
	assert.Equal(t, "Showing 1 to 2 of 4 results", page.Footer)
	assert.Equal(t, table.SortBudget, page.Params.SortKey)
}

func TestCampaignsToggleFlipsDirection(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/campaigns?sort=budget&dir=asc&toggle=budget", "")
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[ui.CampaignPage](t, rec)
	assert.Equal(t, table.Descending, page.Params.Direction)
	assert.Equal(t, "Summer Sale", page.Rows[0].Name)

	rec = f.do(t, http.MethodGet, "/api/campaigns?sort=budget&dir=desc&toggle=name", "")
	page = decode[ui.CampaignPage](t, rec)
	assert.Equal(t, table.SortName, page.Params.SortKey)
	assert.Equal(t, table.Ascending, page.Params.Direction)
	assert.Equal(t, "Alpha Push", page.Rows[0].Name)
}

func TestCampaignsClampsPage(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/campaigns?search=launch&page=9", "")
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[ui.CampaignPage](t, rec)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 1, page.Params.Page)
	assert.Len(t, page.Rows, 2)
}

func TestCampaignsClampsNegativePage(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodGet, "/api/campaigns?page=-1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[ui.CampaignPage](t, rec)
	assert.Equal(t, 1, page.Page)
	assert.Equal(t, 1, page.Params.Page)
	assert.False(t, page.HasPrev)
}

func TestCampaignsRejectsBadQuery(t *testing.T) {
	f := newFixture(t)
	for _, target := range []string{
		"/api/campaigns?page=two",
		"/api/campaigns?dir=sideways",
	} {
		rec := f.do(t, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
	}
}

func TestFilterPartialParamsKeepDefaults(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodPost, "/api/filters/apply", `{"params":{"source":"paid"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	state := decode[ui.FilterState](t, rec)
	assert.Equal(t, "30days", state.Params.DateRange)
	assert.Equal(t, filters.ValueAll, state.Params.Campaign)
	assert.Equal(t, "paid", state.Params.Source)
	assert.Len(t, state.Chips, 2)

	rec = f.do(t, http.MethodPost, "/api/filters/remove", `{"params":{"source":"paid"},"key":"source"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	state = decode[ui.FilterState](t, rec)
	assert.Equal(t, filters.ValueAll, state.Params.Source)
	assert.Len(t, state.Chips, 1)
}

func TestFilterRoundTrip(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/filters/options", "")
	require.Equal(t, http.StatusOK, rec.Code)
	opts := decode[ui.FilterOptions](t, rec)
	assert.Len(t, opts.Keys, 5)

	rec = f.do(t, http.MethodPost, "/api/filters/apply", `{"params":{"date_range":"7days","campaign":"active","revenue":"all","conversion":"all","source":"paid"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	state := decode[ui.FilterState](t, rec)
	require.Len(t, state.Chips, 3)
	assert.Equal(t, "Paid ads", state.Chips[2].Label)

	rec = f.do(t, http.MethodPost, "/api/filters/remove", `{"params":{"date_range":"7days","campaign":"active","revenue":"all","conversion":"all","source":"paid"},"key":"campaign"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	state = decode[ui.FilterState](t, rec)
	assert.Equal(t, filters.ValueAll, state.Params.Campaign)
	assert.Len(t, state.Chips, 2)

	rec = f.do(t, http.MethodPost, "/api/filters/clear", "")
	require.Equal(t, http.StatusOK, rec.Code)
	state = decode[ui.FilterState](t, rec)
	assert.Equal(t, filters.DefaultParams(), state.Params)
	assert.Empty(t, state.Chips)
}

func TestFilterRejectsUnknownValues(t *testing.T) {
	f := newFixture(t)
	rec := f.do(t, http.MethodPost, "/api/filters/apply", `{"params":{"date_range":"30days","campaign":"archived","revenue":"all","conversion":"all","source":"all"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/filters/remove", `{"key":"region"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportLifecycleEndpoints(t *testing.T) {
	f := newFixture(t)

	rec := f.do(t, http.MethodGet, "/api/exports/options", "")
	require.Equal(t, http.StatusOK, rec.Code)
	opts := decode[ExportOptions](t, rec)
	assert.Len(t, opts.Formats, 3)
	assert.Equal(t, export.FormatPDF, opts.Default.Format)

	rec = f.do(t, http.MethodPost, "/api/exports", `{"format":"csv"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "/api/exports/e1", rec.Header().Get("Location"))
	require.Len(t, f.exports.submitted, 1)
	assert.Equal(t, export.Request{Format: export.FormatCSV, DateRange: "30days"}, f.exports.submitted[0])

	rec = f.do(t, http.MethodGet, "/api/exports/e1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, export.PhaseExporting, decode[export.Status](t, rec).Phase)

	rec = f.do(t, http.MethodGet, "/api/exports/expired", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.do(t, http.MethodPost, "/api/exports", `{"format":"docx"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestExportCreateIsRateLimited(t *testing.T) {
	f := newFixture(t)
	var last int
	for range 11 {
		last = f.do(t, http.MethodPost, "/api/exports", "").Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}

func TestClassify(t *testing.T) {
	assert.ErrorIs(t, classify(export.ErrNotFound), httpx.ErrNotFound)
	assert.ErrorIs(t, classify(filters.ErrUnknownValue), httpx.ErrValidation)
	boom := errors.New("boom")
	assert.Equal(t, boom, classify(boom))
}
