package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abhishek-Shewale/salesdash/internal/normalize"
	"github.com/Abhishek-Shewale/salesdash/internal/reconcile"
)

func dayTime(day int) *time.Time {
	t := time.Date(2025, 9, day, 10, 0, 0, 0, time.UTC)
	return &t
}

func TestAggregateTotals(t *testing.T) {
	contacts := []normalize.Contact{
		{Name: "Asha", Phone: "9876543210", Email: "asha@example.com", Language: "Hindi", DemoRequested: "Yes", Timestamp: dayTime(1)},
		{Name: "Bela", Phone: "9123456789", Language: "Tamil", DemoRequested: "No", Timestamp: dayTime(1)},
	}
	idx := reconcile.NewDemoIndex([]normalize.DemoStatusRecord{
		{Phone: "9876543210", DemoStatus: "yes"},
	})
	sales := reconcile.MatchSales(contacts, []normalize.SaleRecord{
		{Name: "Asha", Email: "asha@example.com", Contact: "9876543210"},
	})

	s := Aggregate(Input{Kind: KindWhatsApp, Contacts: contacts, Sales: &sales, Demo: idx})

	assert.Equal(t, 2, s.TotalContacts)
	assert.Equal(t, 1, s.DemoRequested)
	assert.Equal(t, 1, s.DemoCompleted)
	assert.Equal(t, 1, s.DemoDeclined)
	assert.Equal(t, 1, s.SalesCount)
	assert.Equal(t, 50, s.ConversionRate)
	assert.Equal(t, 100, s.DemoCompletionRate)
	assert.Equal(t, 100, s.SalesFromCompletedRate)
}

func TestAggregateWithoutDemoSheet(t *testing.T) {
	// No demo-status sheet: the contact's own status column drives
	// completion, in the totals and the per-day buckets alike.
	contacts := []normalize.Contact{
		{Name: "Asha", Phone: "9876543210", Email: "asha@example.com", DemoRequested: "Yes", DemoStatus: "Yes", Timestamp: dayTime(1)},
		{Name: "Bela", Phone: "9123456789", DemoRequested: "No", Timestamp: dayTime(1)},
	}
	sales := reconcile.MatchSales(contacts, []normalize.SaleRecord{
		{Name: "Asha", Email: "asha@example.com"},
	})

	s := Aggregate(Input{Kind: KindWhatsApp, Contacts: contacts, Sales: &sales})

	assert.Equal(t, 2, s.TotalContacts)
	assert.Equal(t, 1, s.DemoRequested)
	assert.Equal(t, 1, s.DemoDeclined)
	assert.Equal(t, 1, s.DemoCompleted)
	assert.Equal(t, 1, s.SalesCount)
	assert.Equal(t, 50, s.ConversionRate)
	assert.Equal(t, 100, s.DemoCompletionRate)
	require.Len(t, s.Daily, 1)
	assert.Equal(t, 1, s.Daily[0].DemoCompleted)
	assert.Equal(t, 100, s.Daily[0].DemoCompletionRate)
}

func TestAggregateEmptyInput(t *testing.T) {
	s := Aggregate(Input{Kind: KindWhatsApp})

	assert.Equal(t, 0, s.TotalContacts)
	assert.Equal(t, 0, s.ConversionRate)
	assert.Equal(t, 0, s.DemoCompletionRate)
	assert.Equal(t, 0, s.SalesFromCompletedRate)
	assert.Equal(t, 0, s.SalesFromRequestedRate)
	assert.Empty(t, s.Daily)
}

func TestAggregateRateBounds(t *testing.T) {
	// More sales than demo completions must still cap every rate at 100.
	contacts := []normalize.Contact{
		{Name: "A", Phone: "9000000001", Email: "a@example.com", DemoRequested: "Yes", Timestamp: dayTime(2)},
		{Name: "B", Phone: "9000000002", Email: "b@example.com", DemoRequested: "Yes", Timestamp: dayTime(2)},
	}
	sales := reconcile.MatchSales(contacts, []normalize.SaleRecord{
		{Name: "A", Email: "a@example.com"},
		{Name: "B", Email: "b@example.com"},
	})

	s := Aggregate(Input{Kind: KindWhatsApp, Contacts: contacts, Sales: &sales})

	for name, rate := range map[string]int{
		"conversionRate":         s.ConversionRate,
		"demoConversionRate":     s.DemoCompletionRate,
		"salesFromCompletedRate": s.SalesFromCompletedRate,
		"salesFromRequestedRate": s.SalesFromRequestedRate,
	} {
		assert.GreaterOrEqual(t, rate, 0, name)
		assert.LessOrEqual(t, rate, 100, name)
	}
}

func TestAggregateDailyZeroFill(t *testing.T) {
	contacts := []normalize.Contact{
		{Name: "A", Phone: "9000000001", Language: "Hindi", Timestamp: dayTime(1)},
		{Name: "B", Phone: "9000000002", Language: "Tamil", Timestamp: dayTime(3)},
	}

	s := Aggregate(Input{Kind: KindWhatsApp, Contacts: contacts})

	require.Len(t, s.Daily, 2)
	for _, day := range s.Daily {
		assert.Contains(t, day.Languages, "Hindi", "day %d", day.Day)
		assert.Contains(t, day.Languages, "Tamil", "day %d", day.Day)
	}
	assert.Equal(t, 1, s.Daily[0].Day)
	assert.Equal(t, 3, s.Daily[1].Day)
	assert.Equal(t, 0, s.Daily[0].Languages["Tamil"])
}

func TestAggregateNilTimestampBucketsDayOne(t *testing.T) {
	contacts := []normalize.Contact{
		{Name: "A", Phone: "9000000001", RawTimestamp: "garbage"},
	}

	s := Aggregate(Input{Kind: KindWhatsApp, Contacts: contacts})

	require.Len(t, s.Daily, 1)
	assert.Equal(t, 1, s.Daily[0].Day)
}

func TestAggregateLanguageOrdering(t *testing.T) {
	contacts := []normalize.Contact{
		{Name: "A", Phone: "1", Language: "Tamil", Timestamp: dayTime(1)},
		{Name: "B", Phone: "2", Language: "Hindi", Timestamp: dayTime(1)},
		{Name: "C", Phone: "3", Language: "Hindi", Timestamp: dayTime(1)},
		{Name: "D", Phone: "4", Language: "Marathi", Timestamp: dayTime(1)},
	}

	s := Aggregate(Input{Kind: KindWhatsApp, Contacts: contacts})

	require.Len(t, s.Languages, 3)
	assert.Equal(t, LanguageCount{Language: "Hindi", Count: 2}, s.Languages[0])
	// Equal counts keep first-seen order.
	assert.Equal(t, "Tamil", s.Languages[1].Language)
	assert.Equal(t, "Marathi", s.Languages[2].Language)
	assert.Equal(t, "Hindi", s.MostUsedLanguage.Language)
}

func TestAggregateFreeSignup(t *testing.T) {
	contacts := []normalize.Contact{
		{Name: "A", Phone: "9000000001", Timestamp: dayTime(1), DemoStatus: "Scheduled"},
		{Name: "B", Phone: "9000000002", Timestamp: dayTime(1)},
	}
	sales := reconcile.MatchSales(contacts, []normalize.SaleRecord{
		{Name: "A", Contact: "9000000001"},
	})

	s := Aggregate(Input{Kind: KindFreeSignup, Contacts: contacts, Sales: &sales})

	assert.Equal(t, 2, s.TotalContacts)
	assert.Equal(t, 2, s.DemoRequested)
	assert.Equal(t, 2, s.DemoCompleted)
	assert.Equal(t, 0, s.DemoDeclined)
	assert.Equal(t, 50, s.ConversionRate)
	assert.Equal(t, 100, s.DemoCompletionRate)

	require.Len(t, s.Daily, 1)
	assert.Equal(t, 2, s.Daily[0].DemoCompleted)
	assert.Equal(t, 1, s.Daily[0].Sales)
	assert.Equal(t, 50, s.Daily[0].ConversionRate)
}

func TestAggregateFreeSignupStatusSubstring(t *testing.T) {
	// Free-text statuses like "Demo Scheduled" still count as requested on
	// the daily split.
	contacts := []normalize.Contact{
		{Name: "A", Phone: "9000000001", Timestamp: dayTime(1), DemoStatus: "Demo Scheduled"},
		{Name: "B", Phone: "9000000002", Timestamp: dayTime(1), DemoStatus: "Completed - follow up done"},
		{Name: "C", Phone: "9000000003", Timestamp: dayTime(1), DemoStatus: "Not interested"},
	}

	s := Aggregate(Input{Kind: KindFreeSignup, Contacts: contacts})

	require.Len(t, s.Daily, 1)
	assert.Equal(t, 2, s.Daily[0].DemoRequested)
	assert.Equal(t, 1, s.Daily[0].DemoDeclined)
}

func TestAggregateCountBreakdowns(t *testing.T) {
	contacts := []normalize.Contact{
		{Name: "A", Phone: "1", Board: "CBSE", Grade: "5", AssignedTo: "Ravi", Timestamp: dayTime(1)},
		{Name: "B", Phone: "2", Board: " ", Timestamp: dayTime(1)},
	}

	s := Aggregate(Input{Kind: KindWhatsApp, Contacts: contacts})

	assert.Equal(t, 1, s.Boards["CBSE"])
	assert.Equal(t, 1, s.Boards["Not provided"])
	assert.Equal(t, 1, s.AssignedContacts)
	assert.Equal(t, 1, s.UnassignedContacts)
}

func TestPercent(t *testing.T) {
	assert.Equal(t, 0, Percent(5, 0))
	assert.Equal(t, 50, Percent(1, 2))
	assert.Equal(t, 33, Percent(1, 3))
	assert.Equal(t, 67, Percent(2, 3))
	assert.Equal(t, 100, Percent(3, 3))
}
