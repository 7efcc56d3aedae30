package sheets

import (
	"errors"
	"fmt"
	"strings"
)

// RateLimitError signals that the spreadsheet API rejected a call for quota
// reasons. The fetcher retries these with backoff; nothing else does.
type RateLimitError struct {
	StatusCode int
	Message    string
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited (status %d): %s", e.StatusCode, e.Message)
}

// MissingHeaderError marks a sheet whose first row has no values. It is never
// retried; the collector reports the sheet as skipped.
type MissingHeaderError struct {
	Title string
}

func (e *MissingHeaderError) Error() string {
	return fmt.Sprintf("sheet %q has no header row", e.Title)
}

// NotFoundError marks a sheet title that does not exist in the spreadsheet.
type NotFoundError struct {
	Title string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("sheet %q not found", e.Title)
}

// AuthError marks a credential failure against the sheet source. Always
// fatal for the whole request.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("spreadsheet authentication failed: %v", e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// IsRateLimited reports whether an error carries a rate-limit signal: either
// the typed error above, or a message containing "429", "quota", "rate", or
// "limit". The message check mirrors how the upstream client libraries
// surface quota errors as plain strings.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return true
	}
	msg := err.Error()
	if strings.Contains(msg, "429") {
		return true
	}
	lower := strings.ToLower(msg)
	return strings.Contains(lower, "quota") ||
		strings.Contains(lower, "rate") ||
		strings.Contains(lower, "limit")
}

// IsMissingHeader reports whether an error marks a header-less sheet.
func IsMissingHeader(err error) bool {
	var mh *MissingHeaderError
	return errors.As(err, &mh)
}

// IsNotFound reports whether an error marks a nonexistent sheet.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
