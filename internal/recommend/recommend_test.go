package recommend

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Abhishek-Shewale/salesdash/internal/analytics"
	"github.com/Abhishek-Shewale/salesdash/internal/pkg/httpretry"
)

func TestParseRecommendationsJSON(t *testing.T) {
	text := "Here is the plan:\n```json\n{\"currentWeek\": [\"Call Hindi leads before noon\"], \"nextWeek\": [\"Batch demo slots\"]}\n```"

	recs := parseRecommendations(text)

	assert.Equal(t, []string{"Call Hindi leads before noon"}, recs.CurrentWeek)
	assert.Equal(t, []string{"Batch demo slots"}, recs.NextWeek)
}

func TestParseRecommendationsFallback(t *testing.T) {
	text := "- Call leads within an hour\n\n* Follow up twice\n3. Send demo reminders"

	recs := parseRecommendations(text)

	assert.Equal(t, []string{
		"Call leads within an hour",
		"Follow up twice",
		"Send demo reminders",
	}, recs.CurrentWeek)
	assert.Empty(t, recs.NextWeek)
}

func TestFilterActionable(t *testing.T) {
	recs := []string{
		"Call Tamil leads in the evening",
		"Offer a bonus for top performers",
		"Ask management to approve extra slots",
		"Run a sales contest this week",
		"Send WhatsApp reminders the day before the demo",
	}

	got := filterActionable(recs)

	assert.Equal(t, []string{
		"Call Tamil leads in the evening",
		"Send WhatsApp reminders the day before the demo",
	}, got)
}

func TestGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Contains(t, r.URL.Path, ":generateContent")
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"{\"currentWeek\":[\"Call new leads same day\",\"Offer cash rewards\"],\"nextWeek\":[\"Shift Tamil demos to evenings\"]}"}]}}]}`))
	}))
	t.Cleanup(server.Close)

	c := &Client{
		apiKey:  "test-key",
		model:   "gemini-test",
		baseURL: server.URL,
		http:    httpretry.New(&http.Client{Timeout: time.Second}, 0),
	}

	recs, err := c.Generate(context.Background(), KindWhatsApp, &analytics.Summary{TotalContacts: 10})
	require.NoError(t, err)
	// The cash-rewards entry is filtered out.
	assert.Equal(t, []string{"Call new leads same day"}, recs.CurrentWeek)
	assert.Equal(t, []string{"Shift Tamil demos to evenings"}, recs.NextWeek)
}

func TestGenerateAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":400,"message":"invalid key"}}`))
	}))
	t.Cleanup(server.Close)

	c := &Client{
		apiKey:  "bad",
		model:   "gemini-test",
		baseURL: server.URL,
		http:    httpretry.New(&http.Client{Timeout: time.Second}, 0),
	}

	_, err := c.Generate(context.Background(), KindWhatsApp, &analytics.Summary{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient("", "")
	require.Error(t, err)

	c, err := NewClient("key", "")
	require.NoError(t, err)
	assert.Equal(t, defaultModel, c.model)
}
