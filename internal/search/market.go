package search

import (
	"context"
	"fmt"
	"log/slog"
	"slices"

	"github.com/ashureev/productlens/internal/domain"
	"golang.org/x/sync/errgroup"
)

const (
	trendTitleLimit = 50

	insightMarketDemand   = "Market research indicates growing demand in recent industry reports"
	insightCompetitorBase = "Competitive analysis shows established market presence"
)

// fallbackTrends is returned when the trends search yields nothing.
var fallbackTrends = []string{
	"Digital transformation accelerating across industries",
	"Increased focus on sustainability and ESG practices",
	"AI and automation adoption growing rapidly",
}

// Market combines a Searcher with the market-research helpers.
type Market struct {
	searcher Searcher
}

// NewMarket wraps searcher. A nil searcher uses the Stub backend.
func NewMarket(searcher Searcher) *Market {
	if searcher == nil {
		searcher = NewStub()
	}
	return &Market{searcher: searcher}
}

// Trends returns short trend sentences for industry. It always returns at
// least the generic fallback trends.
func (m *Market) Trends(ctx context.Context, industry string) []string {
	query := fmt.Sprintf("%s trends %d emerging technologies", industry, currentYear())
	hits := m.searcher.Search(ctx, query, 3)

	trends := make([]string, 0, len(hits))
	for _, h := range hits {
		trends = append(trends, "Market trend: "+truncate(h.Title, trendTitleLimit)+"...")
	}
	if len(trends) == 0 {
		return slices.Clone(fallbackTrends)
	}
	return trends
}

// Enhance appends search-derived insights to mr. The input is never
// modified; on any failure the input is returned unchanged.
func (m *Market) Enhance(ctx context.Context, productInput, industry string, mr *domain.MarketResearch) *domain.MarketResearch {
	if mr == nil {
		return nil
	}

	year := currentYear()
	marketQuery := fmt.Sprintf("%s market size growth rate %d", industry, year)
	competitorQuery := fmt.Sprintf("%s competitors analysis %d", industry, year)

	var marketHits, competitorHits []Result
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		defer recoverInto(&err)
		marketHits = m.searcher.Search(gctx, marketQuery, 3)
		return nil
	})
	g.Go(func() (err error) {
		defer recoverInto(&err)
		competitorHits = m.searcher.Search(gctx, competitorQuery, 5)
		return nil
	})
	if err := g.Wait(); err != nil {
		slog.Error("Failed to enhance market research with web data",
			"product_length", len(productInput), "industry", industry, "error", err)
		return mr
	}

	enhanced := mr.Clone()
	if len(marketHits) > 0 {
		enhanced.KeyInsights = append(enhanced.KeyInsights, insightMarketDemand)
	}
	if len(competitorHits) > 0 {
		enhanced.KeyInsights = append(enhanced.KeyInsights, insightCompetitorBase)
	}
	if enhanced.KeyInsights == nil {
		enhanced.KeyInsights = []string{}
	}
	return enhanced
}

func recoverInto(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("search panicked: %v", r)
	}
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
