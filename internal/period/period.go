// Package period resolves the dashboard's period specifiers into a concrete
// selection of dated sheets. Sheet titles follow DD-MM-YYYY.
package period

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SheetTitleLayout is the date layout used by sheet titles.
const SheetTitleLayout = "02-01-2006"

// DefaultLastN is the trailing-sheet window used when no explicit period is
// given.
const DefaultLastN = 7

// Kind discriminates the period specifier variants.
type Kind string

const (
	KindDate  Kind = "date"  // one explicit DD-MM-YYYY sheet title
	KindMonth Kind = "month" // all sheets of one calendar month
	KindLastN Kind = "lastN" // most recent N dated sheets
)

// Spec is a validated period specifier.
type Spec struct {
	Kind  Kind
	Date  string // KindDate: the requested sheet title as given
	Month int    // KindMonth: 1-12
	Year  int    // KindMonth
	LastN int    // KindLastN
}

// String renders the spec the way request metadata reports it.
func (s Spec) String() string {
	switch s.Kind {
	case KindDate:
		return "Specific date: " + s.Date
	case KindMonth:
		return fmt.Sprintf("Month: %02d-%d", s.Month, s.Year)
	default:
		return fmt.Sprintf("Last %d sheets", s.LastN)
	}
}

// CacheKeyPart is the canonical serialization used in cache keys.
func (s Spec) CacheKeyPart() string {
	switch s.Kind {
	case KindDate:
		return "date:" + s.Date
	case KindMonth:
		return fmt.Sprintf("month:%02d-%d", s.Month, s.Year)
	default:
		return fmt.Sprintf("last:%d", s.LastN)
	}
}

// ForDate builds a specific-date spec. The title is taken as given: a date
// that matches no existing sheet (including impossible dates like 31-09-2025)
// is a not-found condition at collection time, not an input error here.
func ForDate(title string) (Spec, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Spec{}, fmt.Errorf("empty date")
	}
	return Spec{Kind: KindDate, Date: title}, nil
}

// ForMonth builds a month spec from numeric month and year.
func ForMonth(month, year int) (Spec, error) {
	if month < 1 || month > 12 {
		return Spec{}, fmt.Errorf("invalid month %d (expected 1-12)", month)
	}
	if year < 1000 || year > 9999 {
		return Spec{}, fmt.Errorf("invalid year %d", year)
	}
	return Spec{Kind: KindMonth, Month: month, Year: year}, nil
}

// ForLastN builds a trailing-window spec; n is clamped to at least 1.
func ForLastN(n int) Spec {
	if n < 1 {
		n = 1
	}
	return Spec{Kind: KindLastN, LastN: n}
}

// ParseMonthYear parses a combined month/year string. Both "MM-YYYY" and
// "YYYY-MM" occur in the wild; the ambiguity is resolved by checking which
// component exceeds 12. Precedence is documented and tested: the first
// component is read as the month unless it exceeds 12, in which case the
// string is read as year-first. Values where neither reading yields a valid
// month are rejected.
func ParseMonthYear(s string) (Spec, error) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 2 {
		return Spec{}, fmt.Errorf("invalid monthYear %q (expected MM-YYYY or YYYY-MM)", s)
	}
	a, errA := strconv.Atoi(parts[0])
	b, errB := strconv.Atoi(parts[1])
	if errA != nil || errB != nil {
		return Spec{}, fmt.Errorf("invalid monthYear %q (expected MM-YYYY or YYYY-MM)", s)
	}
	if a > 12 {
		// Year-first form.
		return ForMonth(b, a)
	}
	return ForMonth(a, b)
}

// ParseSheetTitle parses a DD-MM-YYYY sheet title, tolerating single-digit
// day and month. Titles that do not parse are not errors for the collector:
// they simply fall outside the dated-sheet universe.
func ParseSheetTitle(title string) (time.Time, error) {
	parts := strings.Split(strings.TrimSpace(title), "-")
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("title %q is not DD-MM-YYYY", title)
	}
	day := pad2(parts[0])
	month := pad2(parts[1])
	return time.Parse(SheetTitleLayout, day+"-"+month+"-"+parts[2])
}

// Matches reports whether a sheet date falls inside a month spec.
func (s Spec) Matches(d time.Time) bool {
	if s.Kind != KindMonth {
		return false
	}
	return int(d.Month()) == s.Month && d.Year() == s.Year
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
