package analytics

import (
	"math"
	"sort"
	"strings"

	"github.com/Abhishek-Shewale/salesdash/internal/normalize"
)

// MonthCount is one entry of the purchase-month breakdown.
type MonthCount struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// ConversionStats summarizes a conversion sheet: how many purchasers
// activated their account and how many left a rating. Rates carry one
// decimal place.
type ConversionStats struct {
	TotalRecords      int          `json:"totalRecords"`
	Activated         int          `json:"activated"`
	PendingActivation int          `json:"pendingActivation"`
	WithRatings       int          `json:"withRatings"`
	ActivationRate    float64      `json:"activationRate"`
	RatingsRate       float64      `json:"ratingsRate"`
	ByMonth           []MonthCount `json:"byMonth"`
}

// activatedValues are the accepted markers for an activated account.
var activatedValues = map[string]bool{
	"yes":       true,
	"true":      true,
	"activated": true,
}

// Conversion folds sale records into activation statistics. Records with an
// empty purchase month land under "Unknown".
func Conversion(records []normalize.SaleRecord) *ConversionStats {
	s := &ConversionStats{TotalRecords: len(records)}

	byMonth := make(map[string]int)
	var monthOrder []string

	for _, r := range records {
		if activatedValues[strings.ToLower(strings.TrimSpace(r.Activated))] {
			s.Activated++
		}
		if strings.TrimSpace(r.Rating) != "" {
			s.WithRatings++
		}

		month := strings.TrimSpace(r.PurchaseMonth)
		if month == "" {
			month = "Unknown"
		}
		if _, seen := byMonth[month]; !seen {
			monthOrder = append(monthOrder, month)
		}
		byMonth[month]++
	}

	s.PendingActivation = s.TotalRecords - s.Activated
	s.ActivationRate = percent1(s.Activated, s.TotalRecords)
	s.RatingsRate = percent1(s.WithRatings, s.TotalRecords)

	s.ByMonth = make([]MonthCount, 0, len(monthOrder))
	for _, m := range monthOrder {
		s.ByMonth = append(s.ByMonth, MonthCount{Month: m, Count: byMonth[m]})
	}
	sort.SliceStable(s.ByMonth, func(i, j int) bool { return s.ByMonth[i].Count > s.ByMonth[j].Count })

	return s
}

// percent1 is num/den*100 rounded to one decimal, 0 on a zero denominator.
func percent1(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return math.Round(float64(num)/float64(den)*1000) / 10
}
