// Package dashboard orchestrates one dashboard request: resolve the period,
// pull the sheets, reconcile sales and demo completions, aggregate, cache.
package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/Abhishek-Shewale/salesdash/internal/analytics"
	"github.com/Abhishek-Shewale/salesdash/internal/cache"
	"github.com/Abhishek-Shewale/salesdash/internal/normalize"
	"github.com/Abhishek-Shewale/salesdash/internal/period"
	"github.com/Abhishek-Shewale/salesdash/internal/pkg/logger"
	"github.com/Abhishek-Shewale/salesdash/internal/reconcile"
	"github.com/Abhishek-Shewale/salesdash/internal/sheets"
)

// SheetsMeta reports which sheets a response was built from.
type SheetsMeta struct {
	Targeted  []string             `json:"targeted"`
	Available []string             `json:"available"`
	Processed []sheets.SheetReport `json:"processed"`
	Failed    []sheets.FailedSheet `json:"failed,omitempty"`
	TotalRows int                  `json:"totalRows"`
}

// Response is one dashboard payload. Complete=false means at least one
// targeted sheet could not be read; such responses are never cached.
type Response struct {
	Period      string              `json:"period"`
	Summary     *analytics.Summary  `json:"summary"`
	Sheets      SheetsMeta          `json:"sheets"`
	Complete    bool                `json:"complete"`
	Cached      bool                `json:"cached"`
	GeneratedAt time.Time           `json:"generatedAt"`
	Contacts    []normalize.Contact `json:"contacts,omitempty"`
}

// ConversionResponse is the conversion-sheet analytics payload.
type ConversionResponse struct {
	Sheet       string                     `json:"sheet"`
	Stats       *analytics.ConversionStats `json:"stats"`
	Records     []normalize.SaleRecord     `json:"records,omitempty"`
	Cached      bool                       `json:"cached"`
	GeneratedAt time.Time                  `json:"generatedAt"`
}

// DemoStatusResponse is the demo-status sheet payload.
type DemoStatusResponse struct {
	Sheet       string                       `json:"sheet"`
	Total       int                          `json:"total"`
	Completed   int                          `json:"completed"`
	Records     []normalize.DemoStatusRecord `json:"records,omitempty"`
	Cached      bool                         `json:"cached"`
	GeneratedAt time.Time                    `json:"generatedAt"`
}

// ErrSpreadsheetOverride is returned when a request names a spreadsheet but
// the service has no way to open arbitrary spreadsheets.
var ErrSpreadsheetOverride = errors.New("per-request spreadsheetId is not supported")

// Query selects what one dashboard request aggregates.
type Query struct {
	Spec period.Spec
	// Assignee restricts the contact set to one owner (case-insensitive,
	// trimmed). Empty means everyone.
	Assignee string
	// SpreadsheetID overrides the configured signup spreadsheet for this
	// request. Requires Options.NewSource.
	SpreadsheetID string
}

// Options wires one Service.
type Options struct {
	Signup     sheets.Source // required
	WhatsApp   sheets.Source // optional
	Conversion sheets.Source // optional
	DemoStatus sheets.Source // optional

	// NewSource opens an arbitrary spreadsheet for Query.SpreadsheetID
	// overrides. Optional.
	NewSource func(spreadsheetID string) (sheets.Source, error)

	ConversionSheetName string
	DemoStatusSheetName string

	Collect sheets.CollectOptions
	Store   cache.Store
	TTL     time.Duration
	Now     func() time.Time
}

// Service serves all dashboard queries for one deployment's spreadsheets.
type Service struct {
	opts Options
	now  func() time.Time
}

// NewService builds a service. Store may be nil to disable caching.
func NewService(opts Options) *Service {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Service{opts: opts, now: now}
}

// Signups serves the free-signup dashboard.
func (s *Service) Signups(ctx context.Context, q Query) (*Response, error) {
	return s.aggregate(ctx, q, s.opts.Signup, analytics.KindFreeSignup, "signups")
}

// WhatsApp serves the WhatsApp-leads dashboard.
func (s *Service) WhatsApp(ctx context.Context, q Query) (*Response, error) {
	src := s.opts.WhatsApp
	if src == nil {
		src = s.opts.Signup
	}
	return s.aggregate(ctx, q, src, analytics.KindWhatsApp, "whatsapp")
}

func (s *Service) resolveSource(q Query, configured sheets.Source) (sheets.Source, error) {
	if q.SpreadsheetID == "" {
		return configured, nil
	}
	if s.opts.NewSource == nil {
		return nil, ErrSpreadsheetOverride
	}
	return s.opts.NewSource(q.SpreadsheetID)
}

func (q Query) cacheKey(name string) string {
	parts := []string{name, q.Spec.CacheKeyPart()}
	if q.SpreadsheetID != "" {
		parts = append(parts, "sheet:"+q.SpreadsheetID)
	}
	if a := strings.ToLower(strings.TrimSpace(q.Assignee)); a != "" {
		parts = append(parts, "assignee:"+a)
	}
	return cache.MakeKey(parts...)
}

func (s *Service) aggregate(ctx context.Context, q Query, src sheets.Source, kind analytics.Kind, name string) (*Response, error) {
	src, err := s.resolveSource(q, src)
	if err != nil {
		return nil, err
	}
	key := q.cacheKey(name)
	spec := q.Spec
	if resp, ok := s.cachedResponse(ctx, key); ok {
		return resp, nil
	}

	// Rebuilds are expensive (many sheet reads under a shared quota), so
	// instances coordinate through the store's lock when it has one. Losing
	// the race means another instance is already rebuilding; wait briefly
	// for its result instead of hammering the API in parallel.
	if locker, ok := s.opts.Store.(cache.Locker); ok {
		release, acquired := locker.TryLock(ctx, "rebuild:"+key, time.Minute)
		if acquired {
			defer release(ctx)
		} else if resp, ok := s.awaitCached(ctx, key); ok {
			return resp, nil
		}
	}

	collector := sheets.NewCollector(src, s.opts.Collect)

	var (
		wg       sync.WaitGroup
		collRes  *sheets.Result
		collErr  error
		sales    []normalize.SaleRecord
		salesErr error
		demos    []normalize.DemoStatusRecord
		demoErr  error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		collRes, collErr = collector.Collect(ctx, spec)
	}()

	if s.opts.Conversion != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sales, _, salesErr = sheets.CollectSales(ctx, s.opts.Conversion, s.opts.ConversionSheetName, s.opts.Collect.Fetch)
		}()
	}
	if s.opts.DemoStatus != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			demos, _, demoErr = sheets.CollectDemoStatus(ctx, s.opts.DemoStatus, s.opts.DemoStatusSheetName, s.opts.Collect.Fetch)
		}()
	}
	wg.Wait()

	if collErr != nil {
		return nil, collErr
	}

	contacts := collRes.Contacts
	if a := strings.TrimSpace(q.Assignee); a != "" {
		filtered := make([]normalize.Contact, 0, len(contacts))
		for _, c := range contacts {
			if strings.EqualFold(strings.TrimSpace(c.AssignedTo), a) {
				filtered = append(filtered, c)
			}
		}
		contacts = filtered
	}

	complete := collRes.Complete
	// The side sheets are best effort: a failed conversion or demo-status
	// read degrades the response instead of failing it, but the result is
	// incomplete and will not be cached.
	if salesErr != nil {
		logger.Warn("conversion sheet unavailable", "error", salesErr.Error())
		sales = nil
		complete = false
	}
	if demoErr != nil {
		logger.Warn("demo status sheet unavailable", "error", demoErr.Error())
		demos = nil
		complete = false
	}

	in := analytics.Input{Kind: kind, Contacts: contacts}
	if len(sales) > 0 {
		matched := reconcile.MatchSales(contacts, sales)
		in.Sales = &matched
	}
	if len(demos) > 0 {
		in.Demo = reconcile.NewDemoIndex(demos)
	}

	resp := &Response{
		Period:  spec.String(),
		Summary: analytics.Aggregate(in),
		Sheets: SheetsMeta{
			Targeted:  collRes.Targeted,
			Available: collRes.Available,
			Processed: collRes.Processed,
			Failed:    collRes.Failed,
			TotalRows: collRes.TotalRows,
		},
		Complete:    complete,
		GeneratedAt: s.now().UTC(),
		Contacts:    contacts,
	}

	s.cachePut(ctx, key, resp, resp.Complete)
	return resp, nil
}

// Conversions serves activation analytics over the conversion sheet.
func (s *Service) Conversions(ctx context.Context, includeRecords bool) (*ConversionResponse, error) {
	key := cache.MakeKey("conversions", s.opts.ConversionSheetName)
	if cached, ok := s.cacheGet(ctx, key); ok {
		var resp ConversionResponse
		if err := json.Unmarshal(cached, &resp); err == nil {
			resp.Cached = true
			if !includeRecords {
				resp.Records = nil
			}
			return &resp, nil
		}
		s.opts.Store.Delete(ctx, key)
	}

	records, title, err := sheets.CollectSales(ctx, s.opts.Conversion, s.opts.ConversionSheetName, s.opts.Collect.Fetch)
	if err != nil {
		return nil, err
	}

	resp := &ConversionResponse{
		Sheet:       title,
		Stats:       analytics.Conversion(records),
		Records:     records,
		GeneratedAt: s.now().UTC(),
	}
	s.cachePut(ctx, key, resp, true)
	if !includeRecords {
		resp.Records = nil
	}
	return resp, nil
}

// DemoStatus serves the raw demo-status sheet with completion counts.
func (s *Service) DemoStatus(ctx context.Context, includeRecords bool) (*DemoStatusResponse, error) {
	key := cache.MakeKey("demostatus", s.opts.DemoStatusSheetName)
	if cached, ok := s.cacheGet(ctx, key); ok {
		var resp DemoStatusResponse
		if err := json.Unmarshal(cached, &resp); err == nil {
			resp.Cached = true
			if !includeRecords {
				resp.Records = nil
			}
			return &resp, nil
		}
		s.opts.Store.Delete(ctx, key)
	}

	records, title, err := sheets.CollectDemoStatus(ctx, s.opts.DemoStatus, s.opts.DemoStatusSheetName, s.opts.Collect.Fetch)
	if err != nil {
		return nil, err
	}

	resp := &DemoStatusResponse{
		Sheet:       title,
		Total:       len(records),
		GeneratedAt: s.now().UTC(),
	}
	for _, r := range records {
		if r.Completed() {
			resp.Completed++
		}
	}
	resp.Records = records
	s.cachePut(ctx, key, resp, true)
	if !includeRecords {
		resp.Records = nil
	}
	return resp, nil
}

// HasConversionSource reports whether a conversion sheet is configured.
func (s *Service) HasConversionSource() bool { return s.opts.Conversion != nil }

// HasDemoStatusSource reports whether a demo-status sheet is configured.
func (s *Service) HasDemoStatusSource() bool { return s.opts.DemoStatus != nil }

// ClearCache drops every cached dashboard response.
func (s *Service) ClearCache(ctx context.Context) {
	if s.opts.Store != nil {
		s.opts.Store.Clear(ctx)
	}
}

func (s *Service) cachedResponse(ctx context.Context, key string) (*Response, bool) {
	cached, ok := s.cacheGet(ctx, key)
	if !ok {
		return nil, false
	}
	var resp Response
	if err := json.Unmarshal(cached, &resp); err != nil {
		// A corrupt entry is dropped and rebuilt.
		s.opts.Store.Delete(ctx, key)
		return nil, false
	}
	resp.Cached = true
	return &resp, true
}

// awaitCached polls for the entry another instance is building. Gives up
// after a few seconds and builds locally.
func (s *Service) awaitCached(ctx context.Context, key string) (*Response, bool) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()
	deadline := time.NewTimer(5 * time.Second)
	defer deadline.Stop()
	for {
		select {
		case <-ticker.C:
			if resp, ok := s.cachedResponse(ctx, key); ok {
				return resp, true
			}
		case <-deadline.C:
			return nil, false
		case <-ctx.Done():
			return nil, false
		}
	}
}

func (s *Service) cacheGet(ctx context.Context, key string) ([]byte, bool) {
	if s.opts.Store == nil {
		return nil, false
	}
	return s.opts.Store.Get(ctx, key)
}

func (s *Service) cachePut(ctx context.Context, key string, v any, complete bool) {
	if s.opts.Store == nil || !complete {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		logger.Warn("caching response failed", "key", key, "error", err.Error())
		return
	}
	s.opts.Store.Set(ctx, key, data, s.opts.TTL)
}
