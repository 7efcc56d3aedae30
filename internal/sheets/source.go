package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"

	"github.com/Abhishek-Shewale/salesdash/internal/normalize"
)

// Source is the read-only view of one spreadsheet: its sheet titles and the
// rows of a named sheet as header->value records. Implementations may return
// RateLimitError, MissingHeaderError, or NotFoundError; anything else is
// treated as fatal by callers.
type Source interface {
	Titles(ctx context.Context) ([]string, error)
	Rows(ctx context.Context, title string) ([]normalize.Row, error)
}

const defaultBaseURL = "https://sheets.googleapis.com/v4/spreadsheets"

// GoogleSource reads a spreadsheet through the Sheets REST API using a
// service account. It holds no per-request state and is safe for concurrent
// use.
type GoogleSource struct {
	spreadsheetID string
	baseURL       string
	httpClient    *http.Client
}

// ServiceAccount holds the credentials the source authenticates with.
type ServiceAccount struct {
	Email      string
	PrivateKey string
}

// NewGoogleSource builds a source for one spreadsheet. The private key may
// carry literal "\n" sequences from env files; they are unescaped here.
func NewGoogleSource(sa ServiceAccount, spreadsheetID string) (*GoogleSource, error) {
	if sa.Email == "" || sa.PrivateKey == "" {
		return nil, &AuthError{Err: fmt.Errorf("missing service account email or private key")}
	}
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheetID is required")
	}
	conf := &jwt.Config{
		Email:      sa.Email,
		PrivateKey: []byte(strings.ReplaceAll(sa.PrivateKey, `\n`, "\n")),
		Scopes:     []string{"https://www.googleapis.com/auth/spreadsheets.readonly"},
		TokenURL:   google.JWTTokenURL,
	}
	client := conf.Client(context.Background())
	client.Timeout = 30 * time.Second
	return &GoogleSource{
		spreadsheetID: spreadsheetID,
		baseURL:       defaultBaseURL,
		httpClient:    client,
	}, nil
}

func (g *GoogleSource) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	fullURL := g.baseURL + path
	if len(params) > 0 {
		fullURL += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		return body, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &RateLimitError{StatusCode: resp.StatusCode, Message: truncate(string(body), 200)}
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &AuthError{Err: fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(body), 200))}
	default:
		return nil, fmt.Errorf("sheets API error (status %d): %s", resp.StatusCode, truncate(string(body), 200))
	}
}

// Titles lists all sheet titles in the spreadsheet.
func (g *GoogleSource) Titles(ctx context.Context) ([]string, error) {
	params := url.Values{}
	params.Set("fields", "sheets.properties.title")
	body, err := g.get(ctx, "/"+g.spreadsheetID, params)
	if err != nil {
		return nil, err
	}

	var meta struct {
		Sheets []struct {
			Properties struct {
				Title string `json:"title"`
			} `json:"properties"`
		} `json:"sheets"`
	}
	if err := json.Unmarshal(body, &meta); err != nil {
		return nil, fmt.Errorf("decoding spreadsheet metadata: %w", err)
	}

	titles := make([]string, 0, len(meta.Sheets))
	for _, s := range meta.Sheets {
		titles = append(titles, s.Properties.Title)
	}
	return titles, nil
}

// Rows fetches all rows of one sheet. The first row is the header; a sheet
// whose header row has no values yields MissingHeaderError, and an unknown
// title yields NotFoundError.
func (g *GoogleSource) Rows(ctx context.Context, title string) ([]normalize.Row, error) {
	body, err := g.get(ctx, "/"+g.spreadsheetID+"/values/"+url.PathEscape("'"+title+"'"), nil)
	if err != nil {
		if strings.Contains(err.Error(), "Unable to parse range") {
			return nil, &NotFoundError{Title: title}
		}
		return nil, err
	}

	var vr struct {
		Values [][]any `json:"values"`
	}
	if err := json.Unmarshal(body, &vr); err != nil {
		return nil, fmt.Errorf("decoding sheet %q values: %w", title, err)
	}
	return rowsFromValues(title, vr.Values)
}

// rowsFromValues zips the header row onto every data row. Cells beyond the
// header width are dropped; short rows leave trailing fields empty.
func rowsFromValues(title string, values [][]any) ([]normalize.Row, error) {
	if len(values) == 0 {
		return nil, &MissingHeaderError{Title: title}
	}
	header := make([]string, len(values[0]))
	empty := true
	for i, cell := range values[0] {
		header[i] = strings.TrimSpace(cellString(cell))
		if header[i] != "" {
			empty = false
		}
	}
	if empty {
		return nil, &MissingHeaderError{Title: title}
	}

	rows := make([]normalize.Row, 0, len(values)-1)
	for _, raw := range values[1:] {
		row := make(normalize.Row, len(header))
		for i, name := range header {
			if name == "" {
				continue
			}
			if i < len(raw) {
				row[name] = cellString(raw[i])
			} else {
				row[name] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func cellString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	case float64:
		// Sheets formatted values arrive as strings; numbers only show up
		// when a caller overrides the render option.
		if t == float64(int64(t)) {
			return fmt.Sprintf("%d", int64(t))
		}
		return fmt.Sprintf("%v", t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
