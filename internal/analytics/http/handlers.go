package analytichttp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/pulseboard/pulseboard/internal/analytics"
	"github.com/pulseboard/pulseboard/internal/analytics/export"
	"github.com/pulseboard/pulseboard/internal/analytics/filters"
	"github.com/pulseboard/pulseboard/internal/analytics/table"
	"github.com/pulseboard/pulseboard/internal/analytics/ui"
	"github.com/pulseboard/pulseboard/internal/platform/httpx"
)

const requestTimeout = 5 * time.Second

// DashboardService builds dashboard snapshots.
type DashboardService interface {
	Snapshot(ctx context.Context, dateRange string) (analytics.Snapshot, error)
}

// DashboardRefresher owns the live dashboard view state.
type DashboardRefresher interface {
	State() analytics.State
	Refresh(ctx context.Context) (analytics.State, error)
}

// ExportService accepts and reports simulated exports.
type ExportService interface {
	Submit(ctx context.Context, req export.Request) (export.Status, error)
	Get(ctx context.Context, id string) (export.Status, error)
}

// Config collects the handler dependencies.
type Config struct {
	Logger    *slog.Logger
	Dashboard DashboardService
	Refresher DashboardRefresher
	Exports   ExportService
	Records   []table.Record
	PageSize  int
	Location  *time.Location
}

// Handler serves the dashboard JSON API.
type Handler struct {
	logger    *slog.Logger
	dashboard DashboardService
	refresher DashboardRefresher
	exports   ExportService
	records   []table.Record
	statuses  []table.Status
	pageSize  int
	location  *time.Location
	validate  *validator.Validate
}

// NewHandler constructs the analytics HTTP handler.
func NewHandler(cfg Config) (*Handler, error) {
	if cfg.PageSize <= 0 {
		return nil, fmt.Errorf("analytics handler: %w", table.ErrInvalidPageSize)
	}
	if cfg.Dashboard == nil || cfg.Refresher == nil || cfg.Exports == nil {
		return nil, errors.New("analytics handler: dashboard, refresher and exports are required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	loc := cfg.Location
	if loc == nil {
		loc = time.UTC
	}
	records := append([]table.Record(nil), cfg.Records...)
	return &Handler{
		logger:    logger,
		dashboard: cfg.Dashboard,
		refresher: cfg.Refresher,
		exports:   cfg.Exports,
		records:   records,
		statuses:  table.Statuses(records),
		pageSize:  cfg.PageSize,
		location:  loc,
		validate:  validator.New(),
	}, nil
}

// DashboardResponse is the overview page payload.
type DashboardResponse struct {
	State     ui.DashboardState      `json:"state"`
	Dashboard *ui.DashboardViewModel `json:"dashboard,omitempty"`
	Campaigns ui.CampaignPage        `json:"campaigns"`
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	dateRange := strings.TrimSpace(r.URL.Query().Get("range"))

	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	state := h.refresher.State()
	var resp DashboardResponse
	resp.State = ui.ToDashboardState(state, h.location)
	resp.State.Dashboard = nil

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if (dateRange == "" || dateRange == analytics.DefaultRange) && state.Snapshot != nil {
			vm := ui.ToDashboard(*state.Snapshot, h.location)
			resp.Dashboard = &vm
			return nil
		}
		if state.Loading && state.Snapshot == nil && dateRange == "" {
			return nil
		}
		snap, err := h.dashboard.Snapshot(gctx, dateRange)
		if err != nil {
			return err
		}
		vm := ui.ToDashboard(snap, h.location)
		resp.Dashboard = &vm
		return nil
	})
	g.Go(func() error {
		params := table.DefaultParameters(h.pageSize)
		page, err := h.campaignPage(params)
		if err != nil {
			return err
		}
		resp.Campaigns = page
		return nil
	})
	if err := g.Wait(); err != nil {
		h.respondError(w, "load dashboard", err)
		return
	}
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) handleDashboardState(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, ui.ToDashboardState(h.refresher.State(), h.location))
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	state, err := h.refresher.Refresh(r.Context())
	switch {
	case errors.Is(err, analytics.ErrSuperseded):
		httpx.JSON(w, http.StatusAccepted, ui.ToDashboardState(h.refresher.State(), h.location))
		return
	case err != nil:
		h.respondError(w, "refresh dashboard", err)
		return
	}
	httpx.JSON(w, http.StatusOK, ui.ToDashboardState(state, h.location))
}

type campaignQuery struct {
	Search string `validate:"max=200"`
	Status string `validate:"max=32"`
	Sort   string `validate:"max=32"`
	Dir    string `validate:"omitempty,oneof=asc desc ASC DESC"`
	Page   int
	Toggle string `validate:"max=32"`
}

func (h *Handler) handleCampaigns(w http.ResponseWriter, r *http.Request) {
	params, err := h.parseCampaignQuery(r)
	if err != nil {
		h.respondError(w, "parse campaign query", err)
		return
	}
	page, err := h.campaignPage(params)
	if err != nil {
		h.respondError(w, "derive campaigns", err)
		return
	}
	httpx.JSON(w, http.StatusOK, page)
}

func (h *Handler) parseCampaignQuery(r *http.Request) (table.ViewParameters, error) {
	values := r.URL.Query()
	q := campaignQuery{
		Search: values.Get("search"),
		Status: strings.TrimSpace(values.Get("status")),
		Sort:   strings.TrimSpace(values.Get("sort")),
		Dir:    strings.TrimSpace(values.Get("dir")),
		Toggle: strings.TrimSpace(values.Get("toggle")),
	}
	if raw := strings.TrimSpace(values.Get("page")); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			return table.ViewParameters{}, fmt.Errorf("%w: page must be an integer", httpx.ErrValidation)
		}
		q.Page = page
	}
	if err := h.validate.Struct(q); err != nil {
		return table.ViewParameters{}, fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}

	params := table.DefaultParameters(h.pageSize)
	params.Search = q.Search
	if q.Status != "" {
		params.Status = table.Status(q.Status)
	}
	if q.Page != 0 {
		params.Page = q.Page
	}
	sort := table.SortState{Key: table.SortKey(q.Sort), Direction: table.ParseDirection(q.Dir)}
	if q.Toggle != "" {
		if key := table.SortKey(q.Toggle); key.Known() {
			sort = sort.Toggle(key)
		}
	}
	params.SortKey = sort.Key
	params.Direction = sort.Direction
	return params, nil
}

func (h *Handler) campaignPage(params table.ViewParameters) (ui.CampaignPage, error) {
	result, err := table.Derive(h.records, params)
	if err != nil {
		return ui.CampaignPage{}, err
	}
	return ui.ToCampaignPage(params, result, h.statuses), nil
}

func (h *Handler) handleFilterOptions(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, ui.ToFilterOptions())
}

// filterRequest decodes over the default selection, so omitted fields keep
// their defaults.
type filterRequest struct {
	Params filters.Params `json:"params"`
	Key    filters.Key    `json:"key,omitempty"`
}

func newFilterRequest() filterRequest {
	return filterRequest{Params: filters.DefaultParams()}
}

func (h *Handler) handleFilterApply(w http.ResponseWriter, r *http.Request) {
	req := newFilterRequest()
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.respondError(w, "decode filters", err)
		return
	}
	overlay, err := filters.Restore(req.Params, nil)
	if err != nil {
		h.respondError(w, "apply filters", err)
		return
	}
	chips := overlay.Apply()
	httpx.JSON(w, http.StatusOK, ui.FilterState{Params: overlay.Working(), Chips: chips})
}

func (h *Handler) handleFilterRemove(w http.ResponseWriter, r *http.Request) {
	req := newFilterRequest()
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.respondError(w, "decode filters", err)
		return
	}
	overlay, err := filters.Restore(req.Params, nil)
	if err != nil {
		h.respondError(w, "remove filter", err)
		return
	}
	chips, err := overlay.Remove(req.Key)
	if err != nil {
		h.respondError(w, "remove filter", err)
		return
	}
	httpx.JSON(w, http.StatusOK, ui.FilterState{Params: overlay.Working(), Chips: chips})
}

func (h *Handler) handleFilterClear(w http.ResponseWriter, r *http.Request) {
	overlay := filters.NewOverlay(nil)
	overlay.ClearAll()
	httpx.JSON(w, http.StatusOK, ui.FilterState{Params: overlay.Working(), Chips: overlay.Chips()})
}

// ExportOptions lists the export dialog choices.
type ExportOptions struct {
	Formats    []export.Option `json:"formats"`
	DateRanges []export.Option `json:"date_ranges"`
	Default    export.Request  `json:"default"`
}

func (h *Handler) handleExportOptions(w http.ResponseWriter, r *http.Request) {
	httpx.JSON(w, http.StatusOK, ExportOptions{
		Formats:    export.Formats,
		DateRanges: export.DateRanges,
		Default:    export.DefaultRequest(),
	})
}

func (h *Handler) handleExportCreate(w http.ResponseWriter, r *http.Request) {
	req := export.DefaultRequest()
	if err := httpx.DecodeJSON(r, &req); err != nil {
		h.respondError(w, "decode export", err)
		return
	}
	status, err := h.exports.Submit(r.Context(), req)
	if err != nil {
		h.respondError(w, "submit export", err)
		return
	}
	w.Header().Set("Location", "/api/exports/"+status.ID)
	httpx.JSON(w, http.StatusAccepted, status)
}

func (h *Handler) handleExportStatus(w http.ResponseWriter, r *http.Request) {
	status, err := h.exports.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, "export status", err)
		return
	}
	httpx.JSON(w, http.StatusOK, status)
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	mapped := classify(err)
	if !errors.Is(mapped, httpx.ErrValidation) && !errors.Is(mapped, httpx.ErrNotFound) {
		h.logger.Error(op, slog.Any("error", err))
	}
	httpx.RespondError(w, mapped)
}

func classify(err error) error {
	switch {
	case errors.Is(err, httpx.ErrValidation), errors.Is(err, httpx.ErrNotFound):
		return err
	case errors.Is(err, export.ErrNotFound):
		return fmt.Errorf("%w: %v", httpx.ErrNotFound, err)
	case errors.Is(err, export.ErrInvalidRequest),
		errors.Is(err, analytics.ErrUnknownRange),
		errors.Is(err, filters.ErrUnknownKey),
		errors.Is(err, filters.ErrUnknownValue),
		errors.Is(err, table.ErrInvalidPageSize):
		return fmt.Errorf("%w: %v", httpx.ErrValidation, err)
	}
	return err
}
