package recommend

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Abhishek-Shewale/salesdash/internal/analytics"
	"github.com/Abhishek-Shewale/salesdash/internal/pkg/logger"
)

// Kind selects which dashboard's numbers the prompt describes.
type Kind string

const (
	KindFreeSignup Kind = "freesignup"
	KindCompare    Kind = "compare"
	KindWhatsApp   Kind = "whatsapp"
)

// Recommendations is the two-bucket plan returned to the dashboard.
type Recommendations struct {
	CurrentWeek []string `json:"currentWeek"`
	NextWeek    []string `json:"nextWeek"`
}

// blockedKeywords mark recommendations outside the sales team's control:
// compensation, contests, and management or policy changes. Any
// recommendation containing one is dropped.
var blockedKeywords = []string{
	"bonus", "reward", "gamify", "gamification", "incentive",
	"compensation", "salary", "pay", "money", "financial",
	"prize", "competition", "contest",
	"management", "hr", "policy", "decision", "admin", "administrative",
}

// Generate produces filtered recommendations for one dashboard's summary.
func (c *Client) Generate(ctx context.Context, kind Kind, s *analytics.Summary) (*Recommendations, error) {
	if s == nil {
		return nil, fmt.Errorf("summary is required")
	}

	text, err := c.generate(ctx, buildPrompt(kind, s))
	if err != nil {
		return nil, err
	}

	recs := parseRecommendations(text)
	recs.CurrentWeek = filterActionable(recs.CurrentWeek)
	recs.NextWeek = filterActionable(recs.NextWeek)
	logger.Info("recommendations generated",
		"kind", string(kind),
		"current_week", len(recs.CurrentWeek),
		"next_week", len(recs.NextWeek))
	return recs, nil
}

func buildPrompt(kind Kind, s *analytics.Summary) string {
	var sb strings.Builder
	sb.WriteString("You are a sales operations analyst for an ed-tech company in India.\n")

	switch kind {
	case KindFreeSignup:
		sb.WriteString("The data below covers free-signup leads; every signup already counts as a completed demo.\n")
	case KindCompare:
		sb.WriteString("The data below compares lead performance across languages and days.\n")
	default:
		sb.WriteString("The data below covers WhatsApp leads and their demo funnel.\n")
	}

	fmt.Fprintf(&sb, "\nTotals: %d contacts, %d demos requested, %d demos completed, %d sales.\n",
		s.TotalContacts, s.DemoRequested, s.DemoCompleted, s.SalesCount)
	fmt.Fprintf(&sb, "Rates: conversion %d%%, demo completion %d%%, sales from completed demos %d%%.\n",
		s.ConversionRate, s.DemoCompletionRate, s.SalesFromCompletedRate)

	if len(s.Languages) > 0 {
		sb.WriteString("Leads by language:")
		for _, lc := range s.Languages {
			fmt.Fprintf(&sb, " %s=%d", lc.Language, lc.Count)
		}
		sb.WriteString("\n")
	}
	if len(s.Daily) > 0 {
		sb.WriteString("Daily contacts:")
		for _, d := range s.Daily {
			fmt.Fprintf(&sb, " day%d=%d", d.Day, d.TotalContacts)
		}
		sb.WriteString("\n")
	}

	sb.WriteString(`
Suggest concrete actions the sales agents themselves can take: follow-up timing,
messaging, language targeting, demo scheduling. Do not suggest incentives,
compensation changes, contests, or anything requiring management approval.

Respond with ONLY a JSON object of this exact shape:
{"currentWeek": ["...", "..."], "nextWeek": ["...", "..."]}
Give 3 to 5 short recommendations per bucket.`)

	return sb.String()
}

// parseRecommendations pulls the JSON object out of the model's text. Models
// often wrap JSON in prose or code fences, so it takes the span from the
// first '{' to the last '}'. If no valid object is found, non-empty lines
// become current-week entries.
func parseRecommendations(text string) *Recommendations {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		var recs Recommendations
		if err := json.Unmarshal([]byte(text[start:end+1]), &recs); err == nil {
			return &recs
		}
	}

	recs := &Recommendations{}
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(line), "-*•0123456789. "))
		if line == "" {
			continue
		}
		recs.CurrentWeek = append(recs.CurrentWeek, line)
	}
	return recs
}

// filterActionable drops recommendations containing blocked keywords.
func filterActionable(recs []string) []string {
	out := make([]string, 0, len(recs))
	for _, rec := range recs {
		if isActionable(rec) {
			out = append(out, rec)
		}
	}
	return out
}

func isActionable(rec string) bool {
	lower := strings.ToLower(rec)
	for _, kw := range blockedKeywords {
		if strings.Contains(lower, kw) {
			return false
		}
	}
	return true
}
