package period

import (
	"testing"
	"time"
)

func TestParseMonthYear(t *testing.T) {
	tests := []struct {
		name      string
		in        string
		wantMonth int
		wantYear  int
		wantErr   bool
	}{
		{"month first", "09-2025", 9, 2025, false},
		{"month first no pad", "9-2025", 9, 2025, false},
		{"year first", "2025-09", 9, 2025, false},
		{"year first no pad", "2025-9", 9, 2025, false},
		{"december either way", "12-2025", 12, 2025, false},
		{"zero month", "0-2025", 0, 0, true},
		{"thirteen both sides", "13-13", 0, 0, true},
		{"not numeric", "sep-2025", 0, 0, true},
		{"single part", "2025", 0, 0, true},
		{"empty", "", 0, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMonthYear(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseMonthYear(%q) expected error, got %+v", tt.in, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseMonthYear(%q) error: %v", tt.in, err)
			}
			if got.Month != tt.wantMonth || got.Year != tt.wantYear {
				t.Errorf("ParseMonthYear(%q) = %d-%d, want %d-%d",
					tt.in, got.Month, got.Year, tt.wantMonth, tt.wantYear)
			}
		})
	}
}

func TestParseSheetTitle(t *testing.T) {
	d, err := ParseSheetTitle("1-9-2025")
	if err != nil {
		t.Fatalf("ParseSheetTitle: %v", err)
	}
	want := time.Date(2025, 9, 1, 0, 0, 0, 0, time.UTC)
	if !d.Equal(want) {
		t.Errorf("ParseSheetTitle = %v, want %v", d, want)
	}

	bad := []string{"31-09-2025", "Summary", "2025-09-01", "01-09", ""}
	for _, title := range bad {
		if _, err := ParseSheetTitle(title); err == nil {
			t.Errorf("ParseSheetTitle(%q) expected error", title)
		}
	}
}

func TestForDate(t *testing.T) {
	// An impossible date is accepted here; whether the sheet exists is the
	// collector's concern.
	if _, err := ForDate("31-09-2025"); err != nil {
		t.Errorf("ForDate(31-09-2025) unexpected error: %v", err)
	}
	if _, err := ForDate("  "); err == nil {
		t.Error("ForDate(blank) expected error")
	}
	spec, err := ForDate("01-09-2025")
	if err != nil {
		t.Fatalf("ForDate: %v", err)
	}
	if spec.Kind != KindDate || spec.Date != "01-09-2025" {
		t.Errorf("unexpected spec %+v", spec)
	}
}

func TestForLastNClamps(t *testing.T) {
	if got := ForLastN(0); got.LastN != 1 {
		t.Errorf("ForLastN(0).LastN = %d, want 1", got.LastN)
	}
	if got := ForLastN(-3); got.LastN != 1 {
		t.Errorf("ForLastN(-3).LastN = %d, want 1", got.LastN)
	}
}

func TestMatches(t *testing.T) {
	spec, _ := ForMonth(9, 2025)
	if !spec.Matches(time.Date(2025, 9, 15, 0, 0, 0, 0, time.UTC)) {
		t.Error("Matches should accept a day inside the month")
	}
	if spec.Matches(time.Date(2025, 8, 31, 0, 0, 0, 0, time.UTC)) {
		t.Error("Matches should reject a day outside the month")
	}
}
