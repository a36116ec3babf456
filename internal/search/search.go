// Package search provides the web-search lookup used to enrich market research.
//
// The Stub backend is rule-based: it matches market and competition vocabulary
// in the query and returns canned hits. A real search backend can replace it
// by satisfying Searcher.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Result is a single search hit.
type Result struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Searcher looks up web results for a query. Implementations never fail
// observably: errors yield an empty slice.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) []Result
}

var (
	marketVocabulary     = []string{"market size", "industry"}
	competitorVocabulary = []string{"competitor", "competition"}

	marketReport = Result{
		Title:   "Industry Market Research Report 2024",
		URL:     "https://example-research.com/market-report",
		Snippet: "Market analysis shows significant growth potential with increasing demand...",
	}
	competitorAnalysis = Result{
		Title:   "Competitive Landscape Analysis",
		URL:     "https://example-competitors.com/analysis",
		Snippet: "Leading competitors in the space include established players and emerging startups...",
	}
)

// Stub simulates web search by pattern matching over the query text.
type Stub struct{}

// NewStub returns the simulated search backend.
func NewStub() *Stub {
	return &Stub{}
}

// Search returns at most maxResults canned hits for query.
func (s *Stub) Search(_ context.Context, query string, maxResults int) (results []Result) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Search failed", "query", query, "error", fmt.Sprint(r))
			results = []Result{}
		}
	}()

	results = []Result{}
	if maxResults <= 0 {
		return results
	}

	q := strings.ToLower(query)
	if containsAny(q, marketVocabulary) {
		results = append(results, marketReport)
	}
	if containsAny(q, competitorVocabulary) {
		results = append(results, competitorAnalysis)
	}
	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

var _ Searcher = (*Stub)(nil)

// currentYear is overridden in tests.
var currentYear = func() int { return time.Now().Year() }
