package reconcile

import (
	"strings"

	"github.com/Abhishek-Shewale/salesdash/internal/normalize"
)

// DemoStatus is the completion state recorded for one phone or name key.
type DemoStatus struct {
	Status    string `json:"demoStatus"`
	Completed bool   `json:"isCompleted"`
}

// DemoIndex holds the demo-status sheet as lookup maps. Phone keys are raw
// trim-only values: the demo sheet and the signup sheets share the exact
// phone spelling, and normalizing here was found to break matches. Name keys
// are normalized (lowercased, whitespace-collapsed).
type DemoIndex struct {
	ByPhone map[string]DemoStatus `json:"phoneNumberMapping"`
	ByName  map[string]DemoStatus `json:"nameMapping"`
}

// NewDemoIndex builds the lookup maps from demo-status sheet records. Later
// rows overwrite earlier ones for the same key.
func NewDemoIndex(records []normalize.DemoStatusRecord) *DemoIndex {
	idx := &DemoIndex{
		ByPhone: make(map[string]DemoStatus, len(records)),
		ByName:  make(map[string]DemoStatus, len(records)),
	}
	for _, rec := range records {
		status := DemoStatus{
			Status:    strings.ToLower(strings.TrimSpace(rec.DemoStatus)),
			Completed: rec.Completed(),
		}
		if rec.Phone != "" {
			idx.ByPhone[rec.Phone] = status
		}
		if rec.NameKey != "" {
			idx.ByName[rec.NameKey] = status
		}
	}
	return idx
}

// CompletedFor reports whether a contact's demo is completed: the contact
// must have demoRequested strictly "yes" AND its raw phone must map to a
// completed entry. Completion is never counted for a contact without a
// recorded demo request.
func (idx *DemoIndex) CompletedFor(c normalize.Contact) bool {
	if idx == nil || !normalize.StrictYes(c.DemoRequested) {
		return false
	}
	status, ok := idx.ByPhone[strings.TrimSpace(c.Phone)]
	return ok && status.Completed
}

// DemoResult aggregates demo-completion matching over a contact list.
type DemoResult struct {
	Requested int
	Completed int
	// ByDayCompleted buckets completions by the contact's signup day.
	ByDayCompleted map[int]int
}

// MatchDemoCompletions walks the contact list once, counting demo requests
// and completions. With a demo-status sheet the phone map is authoritative;
// without one the contact's own demo-status column decides. Each phone is
// credited at most once even if it appears on several contacts.
func MatchDemoCompletions(contacts []normalize.Contact, idx *DemoIndex) DemoResult {
	res := DemoResult{ByDayCompleted: make(map[int]int)}
	seen := make(map[string]bool)
	for _, c := range contacts {
		if !normalize.StrictYes(c.DemoRequested) {
			continue
		}
		res.Requested++
		if !demoCompleted(c, idx) {
			continue
		}
		if phone := strings.TrimSpace(c.Phone); phone != "" {
			if seen[phone] {
				continue
			}
			seen[phone] = true
		}
		res.Completed++
		res.ByDayCompleted[DayOfMonth(c)]++
	}
	return res
}

func demoCompleted(c normalize.Contact, idx *DemoIndex) bool {
	if idx != nil {
		return idx.CompletedFor(c)
	}
	return normalize.StrictYes(c.DemoStatus)
}
