package sheets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSource(t *testing.T, handler http.HandlerFunc) *GoogleSource {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return &GoogleSource{
		spreadsheetID: "sheet-id",
		baseURL:       server.URL,
		httpClient:    server.Client(),
	}
}

func TestTitles(t *testing.T) {
	src := testSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sheet-id", r.URL.Path)
		assert.Equal(t, "sheets.properties.title", r.URL.Query().Get("fields"))
		w.Write([]byte(`{"sheets":[{"properties":{"title":"01-09-2025"}},{"properties":{"title":"Summary"}}]}`))
	})

	titles, err := src.Titles(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"01-09-2025", "Summary"}, titles)
}

func TestRows(t *testing.T) {
	src := testSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"values":[["Name","Phone","City"],["Asha","9876543210"],["Bela","9123456789","Pune","extra"]]}`))
	})

	rows, err := src.Rows(context.Background(), "01-09-2025")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Asha", rows[0]["Name"])
	// Short rows leave trailing fields empty.
	assert.Equal(t, "", rows[0]["City"])
	// Cells beyond the header width are dropped.
	assert.Equal(t, "Pune", rows[1]["City"])
}

func TestRowsRateLimited(t *testing.T) {
	src := testSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"Quota exceeded"}}`))
	})

	_, err := src.Rows(context.Background(), "01-09-2025")
	require.Error(t, err)
	assert.True(t, IsRateLimited(err))
}

func TestRowsUnknownTitle(t *testing.T) {
	src := testSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"Unable to parse range: '31-09-2025'"}}`))
	})

	_, err := src.Rows(context.Background(), "31-09-2025")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestRowsAuthError(t *testing.T) {
	src := testSource(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	_, err := src.Rows(context.Background(), "01-09-2025")
	require.Error(t, err)
	var ae *AuthError
	assert.ErrorAs(t, err, &ae)
}

func TestRowsFromValues(t *testing.T) {
	t.Run("no rows", func(t *testing.T) {
		_, err := rowsFromValues("raw", nil)
		assert.True(t, IsMissingHeader(err))
	})
	t.Run("blank header", func(t *testing.T) {
		_, err := rowsFromValues("raw", [][]any{{" ", ""}})
		assert.True(t, IsMissingHeader(err))
	})
	t.Run("numeric cells", func(t *testing.T) {
		rows, err := rowsFromValues("raw", [][]any{{"Phone"}, {float64(9876543210)}})
		require.NoError(t, err)
		assert.Equal(t, "9876543210", rows[0]["Phone"])
	})
}

func TestNewGoogleSourceValidation(t *testing.T) {
	_, err := NewGoogleSource(ServiceAccount{}, "sheet-id")
	require.Error(t, err)
	var ae *AuthError
	assert.ErrorAs(t, err, &ae)

	_, err = NewGoogleSource(ServiceAccount{Email: "svc@example.iam.gserviceaccount.com", PrivateKey: "key"}, "")
	require.Error(t, err)
}
