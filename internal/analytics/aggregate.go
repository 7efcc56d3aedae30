// Package analytics folds reconciled contact lists into the summary objects
// the dashboard and the recommendation service consume.
package analytics

import (
	"math"
	"sort"
	"strings"

	"github.com/Abhishek-Shewale/salesdash/internal/normalize"
	"github.com/Abhishek-Shewale/salesdash/internal/reconcile"
)

// Kind selects the dashboard's classification rules.
type Kind string

const (
	// KindFreeSignup treats every contact as having requested and completed
	// a demo; signup itself is the demo.
	KindFreeSignup Kind = "freesignup"
	// KindWhatsApp classifies demos from the contact's own fields plus the
	// demo-status sheet.
	KindWhatsApp Kind = "whatsapp"
)

// LanguageCount is one entry of the language breakdown.
type LanguageCount struct {
	Language string `json:"language"`
	Count    int    `json:"count"`
}

// DayStat is one per-day bucket. Languages carries a key for every language
// seen anywhere in the period, zero-filled, so chart consumers never
// null-check.
type DayStat struct {
	Day                int            `json:"day"`
	TotalContacts      int            `json:"totalContacts"`
	DemoRequested      int            `json:"demoRequested"`
	DemoDeclined       int            `json:"demoNo"`
	DemoCompleted      int            `json:"demoCompleted"`
	Sales              int            `json:"sales"`
	ConversionRate     int            `json:"conversionRate"`
	DemoCompletionRate int            `json:"demoConversionRate"`
	Languages          map[string]int `json:"languages"`
}

// Summary is the aggregation output. Every rate is an integer percentage in
// [0,100]; a zero denominator yields exactly 0, never NaN.
type Summary struct {
	TotalContacts int `json:"totalContacts"`
	DemoRequested int `json:"demoRequested"`
	DemoDeclined  int `json:"demoNo"`
	DemoCompleted int `json:"demoCompleted"`
	SalesCount    int `json:"salesCount"`

	ConversionRate         int `json:"conversionRate"`
	DemoCompletionRate     int `json:"demoConversionRate"`
	SalesFromCompletedRate int `json:"salesFromCompletedRate"`
	SalesFromRequestedRate int `json:"salesFromRequestedRate"`

	Languages        []LanguageCount `json:"languages"`
	MostUsedLanguage LanguageCount   `json:"mostUsedLanguage"`
	Daily            []DayStat       `json:"dailyData"`

	AssignedContacts   int            `json:"assignedContacts"`
	UnassignedContacts int            `json:"unassignedContacts"`
	SalesByAssignee    map[string]int `json:"salesByAssignee,omitempty"`

	Boards   map[string]int `json:"boards,omitempty"`
	Grades   map[string]int `json:"grades,omitempty"`
	Statuses map[string]int `json:"statuses,omitempty"`
	Sources  map[string]int `json:"sources,omitempty"`

	AvgDailyContacts int `json:"avgDailyContacts"`
	AvgDailyDemos    int `json:"avgDailyDemos"`
}

// Input bundles one aggregation run. Sales and Demo are optional; a nil
// Sales means no conversion sheet was configured, a nil Demo classifies
// completion from the contact's own demo-status column instead of the
// demo-status sheet.
type Input struct {
	Kind     Kind
	Contacts []normalize.Contact
	Sales    *reconcile.SalesResult
	Demo     *reconcile.DemoIndex
}

// Aggregate folds the contact list into a Summary in one pass.
func Aggregate(in Input) *Summary {
	s := &Summary{
		TotalContacts: len(in.Contacts),
		Boards:        map[string]int{},
		Grades:        map[string]int{},
		Statuses:      map[string]int{},
		Sources:       map[string]int{},
	}

	var salesByDay map[int]int
	if in.Sales != nil {
		s.SalesCount = in.Sales.Count
		s.SalesByAssignee = in.Sales.ByAssignee
		salesByDay = in.Sales.ByDay
	}

	demo := reconcile.MatchDemoCompletions(in.Contacts, in.Demo)

	days := make(map[int]*DayStat)
	langCounts := make(map[string]int)
	var langOrder []string

	for _, c := range in.Contacts {
		day := reconcile.DayOfMonth(c)
		stat, ok := days[day]
		if !ok {
			stat = &DayStat{Day: day, Languages: map[string]int{}}
			days[day] = stat
		}
		stat.TotalContacts++

		switch in.Kind {
		case KindFreeSignup:
			// Signing up is the demo: totals count everyone. The per-day
			// request split still follows the recorded demo status so the
			// chart reflects scheduling activity.
			// Status values are free text ("Demo Scheduled", "Completed -
			// follow up done"), so this match is substring, not strict.
			v := strings.ToLower(strings.TrimSpace(c.DemoStatus))
			if strings.Contains(v, "scheduled") || strings.Contains(v, "completed") {
				stat.DemoRequested++
			} else {
				stat.DemoDeclined++
			}
		default:
			switch {
			case normalize.StrictYes(c.DemoRequested):
				stat.DemoRequested++
			case normalize.StrictNo(c.DemoRequested):
				stat.DemoDeclined++
				s.DemoDeclined++
			}
		}

		lang := normalize.Language(c.Language)
		if _, seen := langCounts[lang]; !seen {
			langOrder = append(langOrder, lang)
		}
		langCounts[lang]++
		stat.Languages[lang]++

		if strings.TrimSpace(c.AssignedTo) != "" {
			s.AssignedContacts++
		}

		countInto(s.Boards, c.Board)
		countInto(s.Grades, c.Grade)
		countInto(s.Statuses, c.Status)
		countInto(s.Sources, c.LeadSource)
	}

	s.UnassignedContacts = s.TotalContacts - s.AssignedContacts

	if in.Kind == KindFreeSignup {
		s.DemoRequested = s.TotalContacts
		s.DemoCompleted = s.TotalContacts
		s.DemoDeclined = 0
	} else {
		s.DemoRequested = demo.Requested
		s.DemoCompleted = demo.Completed
	}

	s.ConversionRate = Percent(s.SalesCount, s.TotalContacts)
	s.DemoCompletionRate = Percent(s.DemoCompleted, s.DemoRequested)
	s.SalesFromCompletedRate = Percent(s.SalesCount, s.DemoCompleted)
	s.SalesFromRequestedRate = Percent(s.SalesCount, s.DemoRequested)

	s.Languages = sortedLanguages(langCounts, langOrder)
	if len(s.Languages) > 0 {
		s.MostUsedLanguage = s.Languages[0]
	}

	s.Daily = buildDaily(days, salesByDay, demo.ByDayCompleted, s.Languages, in.Kind)

	dayCount := len(s.Daily)
	if dayCount < 1 {
		dayCount = 1
	}
	s.AvgDailyContacts = int(math.Round(float64(s.TotalContacts) / float64(dayCount)))
	s.AvgDailyDemos = int(math.Round(float64(s.DemoRequested) / float64(dayCount)))

	return s
}

func buildDaily(days map[int]*DayStat, salesByDay, completedByDay map[int]int, langs []LanguageCount, kind Kind) []DayStat {
	out := make([]DayStat, 0, len(days))
	for _, stat := range days {
		stat.Sales = salesByDay[stat.Day]
		if kind == KindFreeSignup {
			// Chart parity with totals: every signup counts as a completed
			// demo for the day.
			stat.DemoCompleted = stat.TotalContacts
		} else {
			stat.DemoCompleted = completedByDay[stat.Day]
		}
		stat.ConversionRate = Percent(stat.Sales, stat.TotalContacts)
		if kind == KindFreeSignup {
			stat.DemoCompletionRate = Percent(stat.DemoCompleted, stat.TotalContacts)
		} else {
			stat.DemoCompletionRate = Percent(stat.DemoCompleted, stat.DemoRequested)
		}
		for _, lc := range langs {
			if _, ok := stat.Languages[lc.Language]; !ok {
				stat.Languages[lc.Language] = 0
			}
		}
		out = append(out, *stat)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Day < out[j].Day })
	return out
}

func sortedLanguages(counts map[string]int, order []string) []LanguageCount {
	out := make([]LanguageCount, 0, len(order))
	for _, lang := range order {
		out = append(out, LanguageCount{Language: lang, Count: counts[lang]})
	}
	// Stable: equal counts keep first-seen order.
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	return out
}

func countInto(m map[string]int, v string) {
	v = strings.TrimSpace(v)
	if v == "" {
		v = "Not provided"
	}
	m[v]++
}

// Percent is the integer-rounded percentage num/den*100, and exactly 0 when
// the denominator is 0.
func Percent(num, den int) int {
	if den == 0 {
		return 0
	}
	return int(math.Round(float64(num) / float64(den) * 100))
}
