// Package reconcile attributes sale records and demo completions to
// contacts. Matching tries identity keys in priority order and credits each
// contact at most once per run.
package reconcile

import (
	"fmt"

	"github.com/Abhishek-Shewale/salesdash/internal/normalize"
)

// MatchedSale records one sale credited to a contact.
type MatchedSale struct {
	Sale    normalize.SaleRecord
	Contact normalize.Contact
	// UniqueKey is the key that prevented double attribution: canonical
	// email, else normalized phone, else a deterministic per-contact
	// synthetic key.
	UniqueKey string
}

// SalesResult aggregates the outcome of matching sale records against a
// contact list.
type SalesResult struct {
	Count      int
	ByAssignee map[string]int
	// ByDay attributes each sale to the calendar day-of-month of the matched
	// contact's signup; unparsable timestamps land on day 1.
	ByDay   map[int]int
	Matched []MatchedSale
}

type indexedContact struct {
	contact normalize.Contact
	index   int
}

// MatchSales cross-references sale records against contacts. Each sale tries
// an email match first, then a normalized-phone match. A contact is credited
// at most once no matter how many sale rows reference it. The fallback key
// for a contact with neither email nor phone is derived from its position in
// the list, so reruns over the same input credit the same contact.
func MatchSales(contacts []normalize.Contact, sales []normalize.SaleRecord) SalesResult {
	res := SalesResult{
		ByAssignee: make(map[string]int),
		ByDay:      make(map[int]int),
	}

	byEmail := make(map[string]indexedContact, len(contacts))
	byPhone := make(map[string]indexedContact, len(contacts))
	for i, c := range contacts {
		if email := c.SecondaryKey(); email != "" {
			if _, exists := byEmail[email]; !exists {
				byEmail[email] = indexedContact{contact: c, index: i}
			}
		}
		if phone := c.IdentityKey(); phone != "" {
			if _, exists := byPhone[phone]; !exists {
				byPhone[phone] = indexedContact{contact: c, index: i}
			}
		}
	}

	seen := make(map[string]bool)
	for _, sale := range sales {
		var matched *indexedContact
		if email := normalize.Email(sale.Email); email != "" {
			if ic, ok := byEmail[email]; ok {
				matched = &ic
			}
		}
		if matched == nil {
			if phone := normalize.Phone(sale.Contact); phone != "" {
				if ic, ok := byPhone[phone]; ok {
					matched = &ic
				}
			}
		}
		if matched == nil {
			continue
		}

		key := uniqueKey(matched.contact, matched.index)
		if seen[key] {
			continue
		}
		seen[key] = true

		res.Count++
		assignee := matched.contact.AssignedTo
		if assignee == "" {
			assignee = "Unassigned"
		}
		res.ByAssignee[assignee]++
		res.ByDay[DayOfMonth(matched.contact)]++
		res.Matched = append(res.Matched, MatchedSale{
			Sale:      sale,
			Contact:   matched.contact,
			UniqueKey: key,
		})
	}
	return res
}

func uniqueKey(c normalize.Contact, index int) string {
	if email := c.SecondaryKey(); email != "" {
		return email
	}
	if phone := c.IdentityKey(); phone != "" {
		return phone
	}
	return fmt.Sprintf("contact:%d", index)
}

// DayOfMonth buckets a contact by the calendar day of its signup timestamp.
// Unparsable timestamps bucket into day 1.
func DayOfMonth(c normalize.Contact) int {
	if c.Timestamp == nil {
		return 1
	}
	return c.Timestamp.Day()
}
