package analysis

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/ashureev/productlens/internal/domain"
	"github.com/ashureev/productlens/internal/llm"
	"github.com/ashureev/productlens/internal/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCompleter struct {
	mu        sync.Mutex
	responses map[string]string
	err       error
	requests  []llm.Request
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return "", f.err
	}
	return f.responses[req.Kind], nil
}

func (f *fakeCompleter) last() llm.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func newProvider(responses map[domain.Kind]string) (*Provider, *fakeCompleter) {
	fc := &fakeCompleter{responses: map[string]string{}}
	for k, v := range responses {
		fc.responses[string(k)] = v
	}
	return New(fc, nil).ForSession("sess-1"), fc
}

func TestSentimentClamping(t *testing.T) {
	tests := []struct {
		name           string
		raw            string
		wantRating     int
		wantConfidence float64
	}{
		{name: "above range", raw: `{"rating": 7.8, "confidence": -0.2, "insights": ["a"]}`, wantRating: 5, wantConfidence: 0},
		{name: "rounds", raw: `{"rating": 3.5, "confidence": 0.75}`, wantRating: 4, wantConfidence: 0.75},
		{name: "below range", raw: `{"rating": 0.2, "confidence": 1.7}`, wantRating: 1, wantConfidence: 1},
		{name: "absent", raw: `{}`, wantRating: 1, wantConfidence: 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, _ := newProvider(map[domain.Kind]string{domain.KindSentiment: tt.raw})
			got, err := p.Sentiment(context.Background(), "A great product")
			require.NoError(t, err)
			assert.Equal(t, tt.wantRating, got.Rating)
			assert.InDelta(t, tt.wantConfidence, got.Confidence, 1e-9)
			assert.NotNil(t, got.Insights)
		})
	}
}

func TestSentimentRejectsNonNumericRating(t *testing.T) {
	p, _ := newProvider(map[domain.Kind]string{domain.KindSentiment: `{"rating": "five"}`})
	_, err := p.Sentiment(context.Background(), "x")

	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, domain.KindSentiment, pe.Kind)
	var se *SchemaError
	assert.ErrorAs(t, err, &se)
}

func TestSentimentSendsProductInputAsUserPrompt(t *testing.T) {
	p, fc := newProvider(map[domain.Kind]string{domain.KindSentiment: `{"rating": 4}`})
	_, err := p.Sentiment(context.Background(), "Marketplace for used camera gear")
	require.NoError(t, err)

	req := fc.last()
	assert.Equal(t, "Marketplace for used camera gear", req.User)
	assert.Equal(t, "sess-1", req.SessionID)
	assert.Equal(t, string(domain.KindSentiment), req.Kind)
}

func TestProviderErrors(t *testing.T) {
	t.Run("no backend", func(t *testing.T) {
		p := New(nil, nil)
		_, err := p.Problems(context.Background(), "x")
		var pe *ProviderError
		require.ErrorAs(t, err, &pe)
		assert.ErrorIs(t, err, llm.ErrNotConfigured)
	})

	t.Run("backend failure", func(t *testing.T) {
		fc := &fakeCompleter{err: errors.New("503 from upstream")}
		_, err := New(fc, nil).Risk(context.Background(), "x", "fintech")
		var pe *ProviderError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, domain.KindRiskAssessment, pe.Kind)
		assert.Contains(t, err.Error(), "503 from upstream")
	})

	t.Run("not json", func(t *testing.T) {
		p, _ := newProvider(map[domain.Kind]string{domain.KindTechStack: `here is your stack`})
		_, err := p.TechStack(context.Background(), "x", "")
		var pe *ProviderError
		require.ErrorAs(t, err, &pe)
		assert.Equal(t, domain.KindTechStack, pe.Kind)
	})

	t.Run("top level array", func(t *testing.T) {
		p, _ := newProvider(map[domain.Kind]string{domain.KindPRD: `[]`})
		_, err := p.PRD(context.Background(), "x", "", &domain.MarketResearch{})
		var pe *ProviderError
		require.ErrorAs(t, err, &pe)
	})
}

func TestMarketResearchNormalizesAndEnhances(t *testing.T) {
	raw := `{
		"marketSize": "$2.1B",
		"growthRate": "9%",
		"competitorCount": -3,
		"competitors": [
			{"name": "KEH", "type": "direct", "description": "Used gear", "strength": "Trust", "weakness": "Fees"},
			{"name": "eBay", "type": "marketplace"}
		]
	}`
	p, fc := newProvider(map[domain.Kind]string{domain.KindMarketResearch: raw})
	mr, err := p.MarketResearch(context.Background(), "Marketplace for used camera gear", "")
	require.NoError(t, err)

	assert.Equal(t, "$2.1B", mr.MarketSize)
	assert.Equal(t, 0, mr.CompetitorCount)
	require.Len(t, mr.Competitors, 2)
	assert.Equal(t, domain.CompetitorDirect, mr.Competitors[0].Type)
	assert.Equal(t, domain.CompetitorIndirect, mr.Competitors[1].Type)
	assert.NotNil(t, mr.KeyInsights)

	req := fc.last()
	assert.Contains(t, req.User, "Industry: general")
	assert.Contains(t, req.User, "Current Market Trends: Digital transformation accelerating across industries")
	assert.True(t, strings.HasPrefix(req.User, "Product: Marketplace for used camera gear\n"))
}

type hitSearcher struct{}

func (hitSearcher) Search(context.Context, string, int) []search.Result {
	return []search.Result{{Title: "Hit"}}
}

func TestMarketResearchAppendsSearchInsights(t *testing.T) {
	fc := &fakeCompleter{responses: map[string]string{
		string(domain.KindMarketResearch): `{"marketSize": "$1B", "keyInsights": ["from model"]}`,
	}}
	p := New(fc, search.NewMarket(hitSearcher{}))

	mr, err := p.MarketResearch(context.Background(), "x", "retail")
	require.NoError(t, err)
	assert.Equal(t, []string{
		"from model",
		"Market research indicates growing demand in recent industry reports",
		"Competitive analysis shows established market presence",
	}, mr.KeyInsights)
	assert.Contains(t, fc.last().User, "Current Market Trends: Market trend: Hit...")
}

func TestRiskUnknownLevelsFallBackToMedium(t *testing.T) {
	raw := `{"risks": [{"type": "Legal", "description": "d", "probability": "extreme", "impact": "low", "mitigation": "m"}], "overallRiskLevel": "severe"}`
	p, _ := newProvider(map[domain.Kind]string{domain.KindRiskAssessment: raw})
	ra, err := p.Risk(context.Background(), "x", "fintech")
	require.NoError(t, err)

	require.Len(t, ra.Risks, 1)
	assert.Equal(t, domain.LevelMedium, ra.Risks[0].Probability)
	assert.Equal(t, domain.LevelLow, ra.Risks[0].Impact)
	assert.Equal(t, domain.LevelMedium, ra.OverallRiskLevel)
}

func TestMissingListsBecomeEmpty(t *testing.T) {
	p, _ := newProvider(map[domain.Kind]string{
		domain.KindProblemAnalysis:         `{"problems": [{"problem": "p", "description": "d"}]}`,
		domain.KindCompetitiveIntelligence: `{"marketPosition": "niche"}`,
		domain.KindTechStack:               `{"recommendations": [{"category": "Backend", "primary": "Go"}]}`,
		domain.KindPRD:                     `{}`,
		domain.KindWireframe:               `{"screens": [{"name": "Home", "priority": "urgent"}]}`,
	})
	ctx := context.Background()

	problems, err := p.Problems(ctx, "x")
	require.NoError(t, err)
	require.Len(t, problems, 1)
	assert.Equal(t, []string{}, problems[0].Solutions)

	ci, err := p.Competitive(ctx, "x", "")
	require.NoError(t, err)
	assert.Equal(t, "niche", ci.MarketPosition)
	assert.Equal(t, []string{}, ci.SWOTAnalysis.Strengths)
	assert.Equal(t, []string{}, ci.SWOTAnalysis.Threats)
	assert.Equal(t, []string{}, ci.DifferentiationStrategy)

	stack, err := p.TechStack(ctx, "x", "")
	require.NoError(t, err)
	require.Len(t, stack, 1)
	assert.Equal(t, []string{}, stack[0].Alternatives)

	prd, err := p.PRD(ctx, "x", "", &domain.MarketResearch{MarketSize: "$1B"})
	require.NoError(t, err)
	assert.Equal(t, []domain.PRDSection{}, prd)

	wf, err := p.Wireframe(ctx, "x", "")
	require.NoError(t, err)
	require.Len(t, wf.Screens, 1)
	assert.Equal(t, domain.PriorityMedium, wf.Screens[0].Priority)
	assert.Equal(t, []string{}, wf.DesignConsiderations)
	assert.Equal(t, []string{}, wf.NextSteps)
}

func TestPRDPromptEmbedsMarketResearch(t *testing.T) {
	p, fc := newProvider(map[domain.Kind]string{domain.KindPRD: `{"sections": [{"title": "Overview", "content": "c"}]}`})
	sections, err := p.PRD(context.Background(), "x", "travel", &domain.MarketResearch{MarketSize: "$9B"})
	require.NoError(t, err)
	assert.Equal(t, []domain.PRDSection{{Title: "Overview", Content: "c"}}, sections)

	user := fc.last().User
	assert.Contains(t, user, `Market Research: {"marketSize":"$9B"`)
	assert.Contains(t, user, "Go-to-Market Strategy")
}
