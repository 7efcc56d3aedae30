package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abhishek-Shewale/salesdash/internal/dashboard"
	"github.com/Abhishek-Shewale/salesdash/internal/normalize"
	"github.com/Abhishek-Shewale/salesdash/internal/sheets"
)

type stubSource struct {
	titles []string
	rows   map[string][]normalize.Row
}

func (s *stubSource) Titles(ctx context.Context) ([]string, error) { return s.titles, nil }

func (s *stubSource) Rows(ctx context.Context, title string) ([]normalize.Row, error) {
	rows, ok := s.rows[title]
	if !ok {
		return nil, &sheets.NotFoundError{Title: title}
	}
	return rows, nil
}

func testRouter(t *testing.T) http.Handler {
	t.Helper()
	signup := &stubSource{
		titles: []string{"01-09-2025"},
		rows: map[string][]normalize.Row{
			"01-09-2025": {
				{"Name": "Asha", "Phone": "9876543210", "Timestamp": "2025-09-01 10:00:00", "Demo Requested": "Yes"},
			},
		},
	}
	conversion := &stubSource{
		titles: []string{"Sales"},
		rows: map[string][]normalize.Row{
			"Sales": {{"Name": "Asha", "Contact": "9876543210", "Activated": "Yes"}},
		},
	}
	svc := dashboard.NewService(dashboard.Options{
		Signup:     signup,
		Conversion: conversion,
		Collect: sheets.CollectOptions{
			Fetch: sheets.FetchOptions{MaxRetries: 1, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond, Jitter: time.Millisecond},
		},
	})
	return SetupRoutes(NewHandlers(svc, nil, time.Second), nil)
}

func doRequest(t *testing.T, handler http.Handler, method, target string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestHealthCheck(t *testing.T) {
	rec := doRequest(t, testRouter(t), http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
}

func TestGetWhatsApp(t *testing.T) {
	rec := doRequest(t, testRouter(t), http.MethodGet, "/api/whatsapp?month=9&year=2025", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp dashboard.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Summary.TotalContacts)
	assert.Equal(t, 1, resp.Summary.SalesCount)
	assert.True(t, resp.Complete)
}

func TestGetSignupsByDate(t *testing.T) {
	rec := doRequest(t, testRouter(t), http.MethodGet, "/api/signups?date=01-09-2025", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp dashboard.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Specific date: 01-09-2025", resp.Period)
	assert.Equal(t, 1, resp.Summary.DemoCompleted)
}

func TestGetWhatsAppMonthYearParam(t *testing.T) {
	rec := doRequest(t, testRouter(t), http.MethodGet, "/api/whatsapp?monthYear=09-2025", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp dashboard.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Month: 09-2025", resp.Period)
}

func TestGetSignupsDateRangeParam(t *testing.T) {
	rec := doRequest(t, testRouter(t), http.MethodGet, "/api/signups?dateRange=3", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp dashboard.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Last 3 sheets", resp.Period)
}

func TestGetSignupsAssigneeParam(t *testing.T) {
	rec := doRequest(t, testRouter(t), http.MethodGet, "/api/signups?month=9&year=2025&assignee=nobody", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp dashboard.Response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, resp.Summary.TotalContacts)
}

func TestGetSignupsSpreadsheetOverrideIs400(t *testing.T) {
	rec := doRequest(t, testRouter(t), http.MethodGet, "/api/signups?spreadsheetId=other", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSignupsUnknownDateIs404(t *testing.T) {
	rec := doRequest(t, testRouter(t), http.MethodGet, "/api/signups?date=31-09-2025", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetSignupsInvalidMonthIs400(t *testing.T) {
	rec := doRequest(t, testRouter(t), http.MethodGet, "/api/signups?month=13&year=2025", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetSignupsInvalidLastNIs400(t *testing.T) {
	rec := doRequest(t, testRouter(t), http.MethodGet, "/api/signups?lastN=abc", "")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetConversions(t *testing.T) {
	rec := doRequest(t, testRouter(t), http.MethodGet, "/api/conversions", "")

	require.Equal(t, http.StatusOK, rec.Code)

	var resp dashboard.ConversionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Stats.TotalRecords)
	assert.Equal(t, 1, resp.Stats.Activated)
}

func TestGetDemoStatusUnconfigured(t *testing.T) {
	rec := doRequest(t, testRouter(t), http.MethodGet, "/api/demostatus", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPostRecommendationsUnconfigured(t *testing.T) {
	rec := doRequest(t, testRouter(t), http.MethodPost, "/api/recommendations", `{"kind":"whatsapp"}`)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestClearCache(t *testing.T) {
	rec := doRequest(t, testRouter(t), http.MethodPost, "/api/cache/clear", "")

	assert.Equal(t, http.StatusOK, rec.Code)
}
