package sheets

import (
	"context"
	"sort"
	"time"

	"github.com/Abhishek-Shewale/salesdash/internal/normalize"
	"github.com/Abhishek-Shewale/salesdash/internal/period"
	"github.com/Abhishek-Shewale/salesdash/internal/pkg/logger"
)

// CollectOptions tunes one collection run.
type CollectOptions struct {
	Fetch FetchOptions
	// Delay inserted between per-sheet fetches to stay under the shared API
	// quota. This is rate shaping, not error handling.
	InterSheetDelay  time.Duration
	InterSheetJitter time.Duration
	// FallbackLastN is the trailing-sheet window used when a month spec
	// matches no existing sheet. Defaults to period.DefaultLastN.
	FallbackLastN int
}

// SheetReport records one successfully processed sheet.
type SheetReport struct {
	Title    string `json:"title"`
	RowCount int    `json:"rowCount"`
}

// FailedSheet records one sheet that was targeted but skipped, with why.
type FailedSheet struct {
	Title  string `json:"title"`
	Reason string `json:"reason"`
}

// Result is the outcome of one collection run. Partial results are returned
// with Complete=false; only complete results may be cached.
type Result struct {
	Contacts  []normalize.Contact `json:"contacts"`
	Targeted  []string            `json:"targeted"`
	Processed []SheetReport       `json:"processed"`
	Failed    []FailedSheet       `json:"failed,omitempty"`
	Available []string            `json:"available"`
	TotalRows int                 `json:"totalRows"`
	Complete  bool                `json:"complete"`
}

// Collector resolves a period specifier against one spreadsheet's dated
// sheets and produces a deduplicated contact list.
type Collector struct {
	src  Source
	opts CollectOptions
}

// NewCollector builds a collector over one signup spreadsheet.
func NewCollector(src Source, opts CollectOptions) *Collector {
	if opts.FallbackLastN <= 0 {
		opts.FallbackLastN = period.DefaultLastN
	}
	return &Collector{src: src, opts: opts}
}

type datedSheet struct {
	title string
	date  time.Time
}

// Collect fetches and deduplicates all contacts for the period. Per-sheet
// failures that are recognized (rate-limit exhaustion, missing header, sheet
// vanished between listing and fetch) are reported in Result.Failed; any
// other fetch error aborts the run. An explicitly requested date whose sheet
// does not exist returns NotFoundError.
func (c *Collector) Collect(ctx context.Context, spec period.Spec) (*Result, error) {
	titles, err := c.src.Titles(ctx)
	if err != nil {
		return nil, err
	}

	// Titles that do not parse as DD-MM-YYYY are not part of the dated-sheet
	// universe at all.
	dated := make([]datedSheet, 0, len(titles))
	for _, t := range titles {
		d, err := period.ParseSheetTitle(t)
		if err != nil {
			continue
		}
		dated = append(dated, datedSheet{title: t, date: d})
	}
	sort.SliceStable(dated, func(i, j int) bool { return dated[i].date.After(dated[j].date) })

	available := make([]string, len(dated))
	for i, ds := range dated {
		available[i] = ds.title
	}

	targets, err := c.resolveTargets(spec, titles, dated)
	if err != nil {
		return nil, err
	}

	res := &Result{
		Targeted:  targets,
		Available: available,
		Processed: []SheetReport{},
	}

	var contacts []normalize.Contact
	for i, title := range targets {
		if i > 0 {
			if err := pause(ctx, c.opts.InterSheetDelay, c.opts.InterSheetJitter); err != nil {
				return nil, err
			}
		}
		rows, err := FetchRows(ctx, c.src, title, c.opts.Fetch)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			if IsMissingHeader(err) || IsNotFound(err) || IsRateLimited(err) {
				logger.Warn("skipping sheet", "sheet", title, "reason", err.Error())
				res.Failed = append(res.Failed, FailedSheet{Title: title, Reason: err.Error()})
				continue
			}
			return nil, err
		}
		for _, row := range rows {
			contacts = append(contacts, normalize.MapContact(row))
		}
		res.TotalRows += len(rows)
		res.Processed = append(res.Processed, SheetReport{Title: title, RowCount: len(rows)})
	}

	res.Contacts = Dedupe(contacts)
	res.Complete = len(res.Failed) == 0
	return res, nil
}

func (c *Collector) resolveTargets(spec period.Spec, titles []string, dated []datedSheet) ([]string, error) {
	switch spec.Kind {
	case period.KindDate:
		for _, t := range titles {
			if t == spec.Date {
				return []string{spec.Date}, nil
			}
		}
		return nil, &NotFoundError{Title: spec.Date}
	case period.KindMonth:
		// Month sheets are walked oldest-first; dated is newest-first.
		var targets []string
		for i := len(dated) - 1; i >= 0; i-- {
			if spec.Matches(dated[i].date) {
				targets = append(targets, dated[i].title)
			}
		}
		if len(targets) == 0 {
			// No sheet of that month exists; fall back to the most recent
			// dated sheets rather than returning nothing.
			return lastN(dated, c.opts.FallbackLastN), nil
		}
		return targets, nil
	default:
		n := spec.LastN
		if n <= 0 {
			n = c.opts.FallbackLastN
		}
		return lastN(dated, n), nil
	}
}

func lastN(dated []datedSheet, n int) []string {
	if n > len(dated) {
		n = len(dated)
	}
	out := make([]string, 0, n)
	for _, ds := range dated[:n] {
		out = append(out, ds.title)
	}
	return out
}

// Dedupe keeps at most one contact per identity key (normalized phone),
// preferring the most recent timestamp; rows with no parsable timestamp sort
// last. The sort is stable, so two rows with identical timestamps keep their
// input order and the earlier one wins. Rows with an empty identity key are
// dropped entirely: they cannot be deduplicated.
func Dedupe(contacts []normalize.Contact) []normalize.Contact {
	sorted := make([]normalize.Contact, len(contacts))
	copy(sorted, contacts)
	sort.SliceStable(sorted, func(i, j int) bool {
		ti, tj := sorted[i].Timestamp, sorted[j].Timestamp
		switch {
		case ti == nil:
			return false
		case tj == nil:
			return true
		default:
			return ti.After(*tj)
		}
	})

	seen := make(map[string]bool, len(sorted))
	unique := make([]normalize.Contact, 0, len(sorted))
	for _, ct := range sorted {
		key := ct.IdentityKey()
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, ct)
	}
	return unique
}

// CollectSales reads the conversion sheet. sheetName selects a sheet by
// title; empty means the spreadsheet's first sheet. Empty rows (no name and
// no contact) are filtered out.
func CollectSales(ctx context.Context, src Source, sheetName string, opts FetchOptions) ([]normalize.SaleRecord, string, error) {
	title, err := pickSheet(ctx, src, sheetName)
	if err != nil {
		return nil, "", err
	}
	rows, err := FetchRows(ctx, src, title, opts)
	if err != nil {
		return nil, title, err
	}
	records := make([]normalize.SaleRecord, 0, len(rows))
	for _, row := range rows {
		rec := normalize.MapSale(row)
		if rec.Empty() {
			continue
		}
		records = append(records, rec)
	}
	return records, title, nil
}

// CollectDemoStatus reads the dedicated demo-status sheet.
func CollectDemoStatus(ctx context.Context, src Source, sheetName string, opts FetchOptions) ([]normalize.DemoStatusRecord, string, error) {
	title, err := pickSheet(ctx, src, sheetName)
	if err != nil {
		return nil, "", err
	}
	rows, err := FetchRows(ctx, src, title, opts)
	if err != nil {
		return nil, title, err
	}
	records := make([]normalize.DemoStatusRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, normalize.MapDemoStatus(row))
	}
	return records, title, nil
}

func pickSheet(ctx context.Context, src Source, sheetName string) (string, error) {
	titles, err := src.Titles(ctx)
	if err != nil {
		return "", err
	}
	if len(titles) == 0 {
		return "", &NotFoundError{Title: sheetName}
	}
	if sheetName == "" {
		return titles[0], nil
	}
	for _, t := range titles {
		if t == sheetName {
			return t, nil
		}
	}
	return "", &NotFoundError{Title: sheetName}
}
