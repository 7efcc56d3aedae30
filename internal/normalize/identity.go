// Package normalize turns raw spreadsheet values into canonical comparison
// keys. The sheets it feeds on are maintained by hand, so every function here
// is deliberately forgiving about input shape and strict about output shape.
package normalize

import (
	"strings"
	"time"
	"unicode"
)

// Phone strips everything but digits and drops the Indian country code when
// the raw value carries it ("91" prefix with exactly 12 digits total). Shorter
// values come back as-is; two raw inputs that clean to the same digit string
// are treated as the same identity.
func Phone(raw string) string {
	var b strings.Builder
	for _, r := range raw {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) == 12 && strings.HasPrefix(digits, "91") {
		return digits[2:]
	}
	return digits
}

// Name lowercases, trims, and collapses internal whitespace runs to a single
// space.
func Name(raw string) string {
	return strings.Join(strings.Fields(strings.ToLower(raw)), " ")
}

// Email lowercases and trims. Empty stays empty.
func Email(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// LanguageOther is the bucket for unknown, missing, or unrecognized languages.
const LanguageOther = "Other"

// canonicalLanguages maps lowercase labels to their canonical display form.
var canonicalLanguages = map[string]string{
	"english":   "English",
	"hindi":     "Hindi",
	"marathi":   "Marathi",
	"bengali":   "Bengali",
	"gujarati":  "Gujarati",
	"telugu":    "Telugu",
	"tamil":     "Tamil",
	"kannada":   "Kannada",
	"malayalam": "Malayalam",
	"punjabi":   "Punjabi",
	"odia":      "Odia",
	"assamese":  "Assamese",
	"urdu":      "Urdu",
}

// Language maps a free-text language label to its canonical form. Empty
// values, the sheet placeholders "not selected"/"not provided", and anything
// outside the known table all collapse to "Other".
func Language(raw string) string {
	v := strings.ToLower(strings.TrimSpace(raw))
	if v == "" || v == "not selected" || v == "not provided" {
		return LanguageOther
	}
	if canonical, ok := canonicalLanguages[v]; ok {
		return canonical
	}
	return LanguageOther
}

// StrictYes reports whether the value is exactly "yes" after trim+lowercase.
// Substring checks are banned here: "Yesterday" and "Yes please" must not
// classify as yes.
func StrictYes(v string) bool {
	return strings.ToLower(strings.TrimSpace(v)) == "yes"
}

// StrictNo reports whether the value is exactly "no" after trim+lowercase.
func StrictNo(v string) bool {
	return strings.ToLower(strings.TrimSpace(v)) == "no"
}

// nativeLayouts are tried in order before falling back to the DD-MM-YYYY
// reinterpretation. They cover the formats observed across sheet history.
var nativeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"01/02/2006 15:04:05",
	"01/02/2006",
}

// Timestamp parses the loosest timestamp formats the sheets contain. It tries
// the native layouts first, then splits the value on the first space and
// reinterprets the date part as DD-MM-YYYY (zero-padding single digits,
// defaulting the time to 00:00:00 and completing HH:MM to HH:MM:SS). A nil
// return means unparsable; callers sort nil last and bucket it into day 1.
func Timestamp(raw string) *time.Time {
	v := strings.TrimSpace(raw)
	if v == "" {
		return nil
	}
	for _, layout := range nativeLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return &t
		}
	}

	datePart, timePart, found := strings.Cut(v, " ")
	if !found || strings.TrimSpace(timePart) == "" {
		timePart = "00:00:00"
	}
	timePart = strings.TrimSpace(timePart)
	if strings.Count(timePart, ":") == 1 {
		timePart += ":00"
	}

	dparts := strings.Split(datePart, "-")
	if len(dparts) != 3 {
		return nil
	}
	day := pad2(dparts[0])
	month := pad2(dparts[1])
	year := dparts[2]

	t, err := time.Parse("2006-01-02T15:04:05", year+"-"+month+"-"+day+"T"+timePart)
	if err != nil {
		return nil
	}
	return &t
}

func pad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
