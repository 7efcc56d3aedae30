package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/Abhishek-Shewale/salesdash/internal/dashboard"
	"github.com/Abhishek-Shewale/salesdash/internal/period"
	"github.com/Abhishek-Shewale/salesdash/internal/pkg/httputil"
	"github.com/Abhishek-Shewale/salesdash/internal/pkg/logger"
	"github.com/Abhishek-Shewale/salesdash/internal/recommend"
	"github.com/Abhishek-Shewale/salesdash/internal/sheets"
)

// Handlers carries the services the routes dispatch to.
type Handlers struct {
	svc            *dashboard.Service
	recommender    *recommend.Client
	requestTimeout time.Duration
	startedAt      time.Time
}

// NewHandlers wires the handler set.
func NewHandlers(svc *dashboard.Service, recommender *recommend.Client, requestTimeout time.Duration) *Handlers {
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}
	return &Handlers{
		svc:            svc,
		recommender:    recommender,
		requestTimeout: requestTimeout,
		startedAt:      time.Now(),
	}
}

// HealthCheck reports liveness.
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.OK(w, map[string]any{
		"status": "ok",
		"uptime": time.Since(h.startedAt).Round(time.Second).String(),
	})
}

// GetSignups serves the free-signup dashboard.
func (h *Handlers) GetSignups(w http.ResponseWriter, r *http.Request) {
	q, err := parseDashboardQuery(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	resp, err := h.svc.Signups(ctx, q)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	httputil.OK(w, resp)
}

// GetWhatsApp serves the WhatsApp-leads dashboard.
func (h *Handlers) GetWhatsApp(w http.ResponseWriter, r *http.Request) {
	q, err := parseDashboardQuery(r)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	resp, err := h.svc.WhatsApp(ctx, q)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	httputil.OK(w, resp)
}

// GetConversions serves activation analytics over the conversion sheet.
func (h *Handlers) GetConversions(w http.ResponseWriter, r *http.Request) {
	if !h.svc.HasConversionSource() {
		httputil.NotFound(w, "no conversion sheet configured")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	includeRecords := r.URL.Query().Get("records") == "true"
	resp, err := h.svc.Conversions(ctx, includeRecords)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	httputil.OK(w, resp)
}

// GetDemoStatus serves the demo-status sheet.
func (h *Handlers) GetDemoStatus(w http.ResponseWriter, r *http.Request) {
	if !h.svc.HasDemoStatusSource() {
		httputil.NotFound(w, "no demo status sheet configured")
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	includeRecords := r.URL.Query().Get("records") == "true"
	resp, err := h.svc.DemoStatus(ctx, includeRecords)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	httputil.OK(w, resp)
}

type recommendationsRequest struct {
	Kind  string `json:"kind"`
	Date  string `json:"date,omitempty"`
	Month int    `json:"month,omitempty"`
	Year  int    `json:"year,omitempty"`
	LastN int    `json:"lastN,omitempty"`
}

// PostRecommendations aggregates the requested dashboard and asks the model
// for a weekly action plan.
func (h *Handlers) PostRecommendations(w http.ResponseWriter, r *http.Request) {
	if h.recommender == nil {
		httputil.Error(w, http.StatusServiceUnavailable, "recommendations are not configured")
		return
	}

	var req recommendationsRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	kind := recommend.Kind(req.Kind)
	switch kind {
	case recommend.KindFreeSignup, recommend.KindCompare, recommend.KindWhatsApp:
	default:
		httputil.BadRequest(w, fmt.Sprintf("unknown kind %q", req.Kind))
		return
	}
	spec, err := specFromRequest(req)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.requestTimeout)
	defer cancel()

	var resp *dashboard.Response
	if kind == recommend.KindFreeSignup {
		resp, err = h.svc.Signups(ctx, dashboard.Query{Spec: spec})
	} else {
		resp, err = h.svc.WhatsApp(ctx, dashboard.Query{Spec: spec})
	}
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	recs, err := h.recommender.Generate(ctx, kind, resp.Summary)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	httputil.OK(w, map[string]any{
		"period":          resp.Period,
		"recommendations": recs,
	})
}

// ClearCache drops every cached dashboard response.
func (h *Handlers) ClearCache(w http.ResponseWriter, r *http.Request) {
	h.svc.ClearCache(r.Context())
	httputil.OK(w, map[string]any{"cleared": true})
}

// parseDashboardQuery builds a dashboard query from query parameters.
// Exactly as much validation as possible happens here, before any sheet is
// read.
func parseDashboardQuery(r *http.Request) (dashboard.Query, error) {
	spec, err := parsePeriodQuery(r)
	if err != nil {
		return dashboard.Query{}, err
	}
	q := r.URL.Query()
	return dashboard.Query{
		Spec:          spec,
		Assignee:      q.Get("assignee"),
		SpreadsheetID: q.Get("spreadsheetId"),
	}, nil
}

// parsePeriodQuery builds a period spec from query parameters. date wins,
// then monthYear, then month+year, then a trailing-sheet count.
func parsePeriodQuery(r *http.Request) (period.Spec, error) {
	q := r.URL.Query()
	if date := q.Get("date"); date != "" {
		return period.ForDate(date)
	}
	if p := q.Get("monthYear"); p != "" {
		return period.ParseMonthYear(p)
	}
	if p := q.Get("period"); p != "" {
		return period.ParseMonthYear(p)
	}
	if m := q.Get("month"); m != "" {
		month, err := strconv.Atoi(m)
		if err != nil {
			return period.Spec{}, fmt.Errorf("month must be a number")
		}
		year, err := strconv.Atoi(q.Get("year"))
		if err != nil {
			return period.Spec{}, fmt.Errorf("year is required with month")
		}
		return period.ForMonth(month, year)
	}
	// dateRange is the historical name for the trailing-sheet count.
	for _, name := range []string{"lastN", "dateRange"} {
		if n := q.Get(name); n != "" {
			count, err := strconv.Atoi(n)
			if err != nil {
				return period.Spec{}, fmt.Errorf("%s must be a number", name)
			}
			return period.ForLastN(count), nil
		}
	}
	return period.ForLastN(period.DefaultLastN), nil
}

func specFromRequest(req recommendationsRequest) (period.Spec, error) {
	switch {
	case req.Date != "":
		return period.ForDate(req.Date)
	case req.Month != 0:
		return period.ForMonth(req.Month, req.Year)
	case req.LastN != 0:
		return period.ForLastN(req.LastN), nil
	default:
		return period.ForLastN(period.DefaultLastN), nil
	}
}

func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var authErr *sheets.AuthError
	switch {
	case errors.Is(err, dashboard.ErrSpreadsheetOverride):
		httputil.BadRequest(w, err.Error())
	case sheets.IsNotFound(err):
		httputil.NotFound(w, err.Error())
	case sheets.IsRateLimited(err):
		httputil.Error(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		httputil.Error(w, http.StatusGatewayTimeout, "request timed out")
	case errors.As(err, &authErr):
		logger.Error("sheet auth failure", "request_id", requestID(r.Context()), "error", err.Error())
		httputil.Error(w, http.StatusInternalServerError, "spreadsheet access failed")
	default:
		logger.Error("request failed", "request_id", requestID(r.Context()), "error", err.Error())
		httputil.Error(w, http.StatusInternalServerError, "internal error")
	}
}


