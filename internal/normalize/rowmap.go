package normalize

import (
	"strings"
	"time"
)

// Row is one spreadsheet row as returned by the sheet source: header name to
// cell value. Header names vary across the sheets' history, so all access
// goes through the alias table below.
type Row map[string]string

// CanonicalField names a logical column shared across sheet generations.
type CanonicalField string

const (
	FieldTimestamp     CanonicalField = "timestamp"
	FieldName          CanonicalField = "name"
	FieldPhone         CanonicalField = "phone"
	FieldEmail         CanonicalField = "email"
	FieldCity          CanonicalField = "city"
	FieldLanguage      CanonicalField = "language"
	FieldBoard         CanonicalField = "board"
	FieldGrade         CanonicalField = "grade"
	FieldStatus        CanonicalField = "status"
	FieldLeadSource    CanonicalField = "lead_source"
	FieldCurrentStatus CanonicalField = "current_status"
	FieldFormSubmitted CanonicalField = "form_submitted"
	FieldDemoRequested CanonicalField = "demo_requested"
	FieldDemoDate      CanonicalField = "demo_date"
	FieldDemoStatus    CanonicalField = "demo_status"
	FieldDemoCompleted CanonicalField = "demo_completed"
	FieldFollowUpDay1  CanonicalField = "follow_up_day_1"
	FieldNextAction    CanonicalField = "next_action"
	FieldSalesOwner    CanonicalField = "sales_owner"
	FieldFeedback      CanonicalField = "feedback"
	FieldAssignedTo    CanonicalField = "assigned_to"
	FieldAssignedPhone CanonicalField = "assigned_phone"
	FieldAssignedAt    CanonicalField = "assigned_at"
	FieldPurchaseMonth CanonicalField = "purchase_month"
	FieldActivated     CanonicalField = "activated"
	FieldRating        CanonicalField = "rating"
	FieldLastFollowUp  CanonicalField = "last_follow_up"
)

// fieldAliases lists every header spelling observed for each canonical field,
// in priority order. Adding a newly observed spelling is a one-line change
// here, never new lookup code.
var fieldAliases = map[CanonicalField][]string{
	FieldTimestamp:     {"Timestamp", "Registration Date", "Registration"},
	FieldName:          {"Name", "Full Name"},
	FieldPhone:         {"Phone", "Phone Number", "Contact"},
	FieldEmail:         {"Email", "Email ID", "Email Address"},
	FieldCity:          {"City"},
	FieldLanguage:      {"Language"},
	FieldBoard:         {"Board"},
	FieldGrade:         {"Grade"},
	FieldStatus:        {"Status"},
	FieldLeadSource:    {"Source", "Lead Source"},
	FieldCurrentStatus: {"Current Status"},
	FieldFormSubmitted: {"Form Submitted", "Form Submited", "Form Submittet"},
	FieldDemoRequested: {"Demo Requested"},
	FieldDemoDate:      {"Demo Date"},
	FieldDemoStatus:    {"Demo Status"},
	FieldDemoCompleted: {"Demo Completed"},
	FieldFollowUpDay1:  {"Follow-up day-1", "Follow up day-1", "Follow-up day 1"},
	FieldNextAction:    {"Next Action"},
	FieldSalesOwner:    {"Sales Owner"},
	FieldFeedback:      {"Feedback from Customer", "Feedback From Customer"},
	FieldAssignedTo:    {"Assigned To"},
	FieldAssignedPhone: {"Assigned Phone"},
	FieldAssignedAt:    {"Assigned At"},
	FieldPurchaseMonth: {"Purchase Month"},
	FieldActivated:     {"Activated"},
	FieldRating:        {"Ratings in Amazon", "Rating"},
	FieldLastFollowUp:  {"Last Follow-Up", "Last Follow Up"},
}

func headerKey(h string) string {
	return strings.Join(strings.Fields(strings.ToLower(h)), " ")
}

// Lookup resolves a canonical field against a row by trying each known alias
// in order; the first non-empty value wins. Header comparison ignores case
// and internal whitespace. A field with no matching column resolves to the
// empty string so downstream string handling never sees a missing value.
func (r Row) Lookup(field CanonicalField) string {
	if len(r) == 0 {
		return ""
	}
	byKey := make(map[string]string, len(r))
	for h, v := range r {
		k := headerKey(h)
		if _, exists := byKey[k]; !exists || strings.TrimSpace(v) != "" {
			byKey[k] = v
		}
	}
	for _, alias := range fieldAliases[field] {
		if v, ok := byKey[headerKey(alias)]; ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// Contact is one lead/signup record in canonical form. It lives only for the
// duration of one aggregation request and is never persisted.
type Contact struct {
	Timestamp     *time.Time `json:"timestamp,omitempty"`
	RawTimestamp  string     `json:"rawTimestamp,omitempty"`
	Name          string     `json:"name"`
	Phone         string     `json:"phone"`
	Email         string     `json:"email"`
	City          string     `json:"city,omitempty"`
	Language      string     `json:"language"`
	Board         string     `json:"board,omitempty"`
	Grade         string     `json:"grade,omitempty"`
	Status        string     `json:"status,omitempty"`
	LeadSource    string     `json:"leadSource,omitempty"`
	CurrentStatus string     `json:"currentStatus,omitempty"`
	FormSubmitted string     `json:"formSubmitted,omitempty"`
	DemoRequested string     `json:"demoRequested"`
	DemoDate      string     `json:"demoDate,omitempty"`
	DemoStatus    string     `json:"demoStatus"`
	FollowUpDay1  string     `json:"followUpDay1,omitempty"`
	NextAction    string     `json:"nextAction,omitempty"`
	SalesOwner    string     `json:"salesOwner,omitempty"`
	Feedback      string     `json:"feedback,omitempty"`
	AssignedTo    string     `json:"assignedTo,omitempty"`
	AssignedPhone string     `json:"assignedPhone,omitempty"`
	AssignedAt    string     `json:"assignedAt,omitempty"`
}

// IdentityKey is the canonical dedup/match key: the normalized phone number.
// Empty means the contact cannot be deduplicated and is dropped upstream.
func (c Contact) IdentityKey() string {
	return Phone(c.Phone)
}

// SecondaryKey is the canonical email, optional.
func (c Contact) SecondaryKey() string {
	return Email(c.Email)
}

// MapContact builds a canonical Contact from a raw row.
func MapContact(r Row) Contact {
	rawTS := r.Lookup(FieldTimestamp)
	return Contact{
		Timestamp:     Timestamp(rawTS),
		RawTimestamp:  rawTS,
		Name:          r.Lookup(FieldName),
		Phone:         r.Lookup(FieldPhone),
		Email:         r.Lookup(FieldEmail),
		City:          r.Lookup(FieldCity),
		Language:      r.Lookup(FieldLanguage),
		Board:         r.Lookup(FieldBoard),
		Grade:         r.Lookup(FieldGrade),
		Status:        r.Lookup(FieldStatus),
		LeadSource:    r.Lookup(FieldLeadSource),
		CurrentStatus: r.Lookup(FieldCurrentStatus),
		FormSubmitted: r.Lookup(FieldFormSubmitted),
		DemoRequested: r.Lookup(FieldDemoRequested),
		DemoDate:      r.Lookup(FieldDemoDate),
		DemoStatus:    r.Lookup(FieldDemoStatus),
		FollowUpDay1:  r.Lookup(FieldFollowUpDay1),
		NextAction:    r.Lookup(FieldNextAction),
		SalesOwner:    r.Lookup(FieldSalesOwner),
		Feedback:      r.Lookup(FieldFeedback),
		AssignedTo:    r.Lookup(FieldAssignedTo),
		AssignedPhone: r.Lookup(FieldAssignedPhone),
		AssignedAt:    r.Lookup(FieldAssignedAt),
	}
}

// SaleRecord is one row from the conversion/enrollment sheet. Read-only input.
type SaleRecord struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Contact       string `json:"contact"`
	PurchaseMonth string `json:"purchaseMonth"`
	Activated     string `json:"activated"`
	Rating        string `json:"ratingsInAmazon"`
	LastFollowUp  string `json:"lastFollowUp"`
}

// Empty reports whether the row carries neither a name nor a contact and
// should be filtered out.
func (s SaleRecord) Empty() bool {
	return strings.TrimSpace(s.Name) == "" && strings.TrimSpace(s.Contact) == ""
}

// MapSale builds a SaleRecord from a raw conversion-sheet row.
func MapSale(r Row) SaleRecord {
	return SaleRecord{
		Name:          r.Lookup(FieldName),
		Email:         r.Lookup(FieldEmail),
		Contact:       r.Lookup(FieldPhone),
		PurchaseMonth: r.Lookup(FieldPurchaseMonth),
		Activated:     r.Lookup(FieldActivated),
		Rating:        r.Lookup(FieldRating),
		LastFollowUp:  r.Lookup(FieldLastFollowUp),
	}
}

// DemoStatusRecord is one row of the dedicated demo-status sheet. Phone keys
// stay raw (trim-only) on purpose: the demo sheet and the signup sheets are
// maintained by the same team and share the exact phone spelling.
type DemoStatusRecord struct {
	Phone      string `json:"phoneNumber"`
	Name       string `json:"name"`
	NameKey    string `json:"nameKey"`
	DemoStatus string `json:"demoStatus"`
}

// Completed reports whether the demo was completed: the status column equals
// "yes" strictly.
func (d DemoStatusRecord) Completed() bool {
	return StrictYes(d.DemoStatus)
}

// MapDemoStatus builds a DemoStatusRecord from a raw demo-status sheet row.
func MapDemoStatus(r Row) DemoStatusRecord {
	name := r.Lookup(FieldName)
	return DemoStatusRecord{
		Phone:      strings.TrimSpace(r.Lookup(FieldPhone)),
		Name:       name,
		NameKey:    Name(name),
		DemoStatus: r.Lookup(FieldDemoCompleted),
	}
}
