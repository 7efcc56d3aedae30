package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abhishek-Shewale/salesdash/internal/normalize"
)

func TestConversion(t *testing.T) {
	records := []normalize.SaleRecord{
		{Name: "A", Activated: "Yes", Rating: "5", PurchaseMonth: "September"},
		{Name: "B", Activated: "TRUE", PurchaseMonth: "September"},
		{Name: "C", Activated: "activated", PurchaseMonth: "August"},
		{Name: "D", Activated: "pending"},
		{Name: "E", Activated: "", Rating: " "},
		{Name: "F", Activated: "yes ", Rating: "4", PurchaseMonth: "September"},
	}

	s := Conversion(records)

	assert.Equal(t, 6, s.TotalRecords)
	assert.Equal(t, 4, s.Activated)
	assert.Equal(t, 2, s.PendingActivation)
	assert.Equal(t, 2, s.WithRatings)
	assert.Equal(t, 66.7, s.ActivationRate)
	assert.Equal(t, 33.3, s.RatingsRate)

	require.Len(t, s.ByMonth, 3)
	assert.Equal(t, MonthCount{Month: "September", Count: 3}, s.ByMonth[0])
	assert.Equal(t, MonthCount{Month: "Unknown", Count: 2}, s.ByMonth[1])
	assert.Equal(t, MonthCount{Month: "August", Count: 1}, s.ByMonth[2])
}

func TestConversionEmpty(t *testing.T) {
	s := Conversion(nil)

	assert.Equal(t, 0, s.TotalRecords)
	assert.Equal(t, float64(0), s.ActivationRate)
	assert.Equal(t, float64(0), s.RatingsRate)
	assert.Empty(t, s.ByMonth)
}
