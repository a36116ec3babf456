// Package analysis turns a product idea into analysis artifacts by prompting
// a completion backend and normalizing its JSON answers.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/ashureev/productlens/internal/domain"
	"github.com/ashureev/productlens/internal/llm"
	"github.com/ashureev/productlens/internal/search"
)

// ProviderError reports a failed analysis call of one kind.
type ProviderError struct {
	Kind domain.Kind
	Err  error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("generate %s: %v", e.Kind, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// Provider runs one completion per analysis kind. Each method makes a single
// attempt.
type Provider struct {
	completer llm.Completer
	market    *search.Market
	sessionID string
}

// New returns a Provider backed by completer. A nil market uses the
// simulated search backend.
func New(completer llm.Completer, market *search.Market) *Provider {
	if market == nil {
		market = search.NewMarket(nil)
	}
	return &Provider{completer: completer, market: market}
}

// ForSession returns a copy of p tagging its requests with sessionID.
func (p *Provider) ForSession(sessionID string) *Provider {
	c := *p
	c.sessionID = sessionID
	return &c
}

// complete asks the backend for kind, checks the answer against the kind's
// schema and decodes it into out.
func (p *Provider) complete(ctx context.Context, kind domain.Kind, system, user string, out any) error {
	if p.completer == nil {
		return &ProviderError{Kind: kind, Err: llm.ErrNotConfigured}
	}
	raw, err := p.completer.Complete(ctx, llm.Request{
		SessionID: p.sessionID,
		Kind:      string(kind),
		System:    system,
		User:      user,
	})
	if err != nil {
		return &ProviderError{Kind: kind, Err: err}
	}
	if strings.TrimSpace(raw) == "" {
		raw = "{}"
	}
	if err := checkSchema(kind, raw); err != nil {
		return &ProviderError{Kind: kind, Err: err}
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return &ProviderError{Kind: kind, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func industryOrDefault(industry string) string {
	if strings.TrimSpace(industry) == "" {
		return domain.DefaultIndustry
	}
	return industry
}

type sentimentWire struct {
	Rating     *float64 `json:"rating"`
	Confidence *float64 `json:"confidence"`
	Insights   []string `json:"insights"`
}

// Sentiment rates the tone of productInput on a 1-5 scale.
func (p *Provider) Sentiment(ctx context.Context, productInput string) (*domain.Sentiment, error) {
	var w sentimentWire
	if err := p.complete(ctx, domain.KindSentiment, sentimentSystem, productInput, &w); err != nil {
		return nil, err
	}
	rating, confidence := 1.0, 0.0
	if w.Rating != nil {
		rating = *w.Rating
	}
	if w.Confidence != nil {
		confidence = *w.Confidence
	}
	return &domain.Sentiment{
		Rating:     int(clamp(math.Round(rating), 1, 5)),
		Confidence: clamp(confidence, 0, 1),
		Insights:   nonNil(w.Insights),
	}, nil
}

type competitorWire struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Strength    string `json:"strength"`
	Weakness    string `json:"weakness"`
}

type marketResearchWire struct {
	MarketSize      string           `json:"marketSize"`
	GrowthRate      string           `json:"growthRate"`
	CompetitorCount float64          `json:"competitorCount"`
	KeyInsights     []string         `json:"keyInsights"`
	Competitors     []competitorWire `json:"competitors"`
}

// MarketResearch sizes the market for productInput. Current trends from the
// search backend are embedded in the prompt and the parsed answer is
// enriched with search-derived insights.
func (p *Provider) MarketResearch(ctx context.Context, productInput, industry string) (*domain.MarketResearch, error) {
	industry = industryOrDefault(industry)
	trends := p.market.Trends(ctx, industry)

	var w marketResearchWire
	if err := p.complete(ctx, domain.KindMarketResearch, marketResearchSystem,
		marketResearchUser(productInput, industry, trends), &w); err != nil {
		return nil, err
	}

	mr := &domain.MarketResearch{
		MarketSize:      w.MarketSize,
		GrowthRate:      w.GrowthRate,
		CompetitorCount: max(0, int(math.Round(w.CompetitorCount))),
		KeyInsights:     nonNil(w.KeyInsights),
		Competitors:     make([]domain.Competitor, 0, len(w.Competitors)),
	}
	for _, c := range w.Competitors {
		mr.Competitors = append(mr.Competitors, domain.Competitor{
			Name:        c.Name,
			Type:        domain.ParseCompetitorType(c.Type),
			Description: c.Description,
			Strength:    c.Strength,
			Weakness:    c.Weakness,
		})
	}
	return p.market.Enhance(ctx, productInput, industry, mr), nil
}

type problemsWire struct {
	Problems []domain.ProblemSolution `json:"problems"`
}

// Problems lists the problems productInput addresses with solutions.
func (p *Provider) Problems(ctx context.Context, productInput string) ([]domain.ProblemSolution, error) {
	var w problemsWire
	if err := p.complete(ctx, domain.KindProblemAnalysis, problemsSystem, problemsUser(productInput), &w); err != nil {
		return nil, err
	}
	out := nonNil(w.Problems)
	for i := range out {
		out[i].Solutions = nonNil(out[i].Solutions)
	}
	return out, nil
}

type competitiveWire struct {
	SWOTAnalysis            *domain.SWOT `json:"swotAnalysis"`
	MarketPosition          string       `json:"marketPosition"`
	DifferentiationStrategy []string     `json:"differentiationStrategy"`
}

// Competitive produces a SWOT analysis and positioning.
func (p *Provider) Competitive(ctx context.Context, productInput, industry string) (*domain.CompetitiveIntelligence, error) {
	industry = industryOrDefault(industry)
	var w competitiveWire
	if err := p.complete(ctx, domain.KindCompetitiveIntelligence, competitiveSystem,
		competitiveUser(productInput, industry), &w); err != nil {
		return nil, err
	}
	var swot domain.SWOT
	if w.SWOTAnalysis != nil {
		swot = *w.SWOTAnalysis
	}
	return &domain.CompetitiveIntelligence{
		SWOTAnalysis: domain.SWOT{
			Strengths:     nonNil(swot.Strengths),
			Weaknesses:    nonNil(swot.Weaknesses),
			Opportunities: nonNil(swot.Opportunities),
			Threats:       nonNil(swot.Threats),
		},
		MarketPosition:          w.MarketPosition,
		DifferentiationStrategy: nonNil(w.DifferentiationStrategy),
	}, nil
}

type riskWire struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Probability string `json:"probability"`
	Impact      string `json:"impact"`
	Mitigation  string `json:"mitigation"`
}

type riskAssessmentWire struct {
	Risks            []riskWire `json:"risks"`
	OverallRiskLevel string     `json:"overallRiskLevel"`
}

// Risk assesses technical, market, financial and regulatory risks.
func (p *Provider) Risk(ctx context.Context, productInput, industry string) (*domain.RiskAssessment, error) {
	industry = industryOrDefault(industry)
	var w riskAssessmentWire
	if err := p.complete(ctx, domain.KindRiskAssessment, riskSystem, riskUser(productInput, industry), &w); err != nil {
		return nil, err
	}
	ra := &domain.RiskAssessment{
		Risks:            make([]domain.Risk, 0, len(w.Risks)),
		OverallRiskLevel: domain.ParseLevel(w.OverallRiskLevel),
	}
	for _, r := range w.Risks {
		ra.Risks = append(ra.Risks, domain.Risk{
			Type:        r.Type,
			Description: r.Description,
			Probability: domain.ParseLevel(r.Probability),
			Impact:      domain.ParseLevel(r.Impact),
			Mitigation:  r.Mitigation,
		})
	}
	return ra, nil
}

type techStackWire struct {
	Recommendations []domain.TechRecommendation `json:"recommendations"`
}

// TechStack recommends technologies per category.
func (p *Provider) TechStack(ctx context.Context, productInput, industry string) ([]domain.TechRecommendation, error) {
	industry = industryOrDefault(industry)
	var w techStackWire
	if err := p.complete(ctx, domain.KindTechStack, techStackSystem, techStackUser(productInput, industry), &w); err != nil {
		return nil, err
	}
	out := nonNil(w.Recommendations)
	for i := range out {
		out[i].Alternatives = nonNil(out[i].Alternatives)
	}
	return out, nil
}

type prdWire struct {
	Sections []domain.PRDSection `json:"sections"`
}

// PRD drafts a product requirements document informed by mr.
func (p *Provider) PRD(ctx context.Context, productInput, industry string, mr *domain.MarketResearch) ([]domain.PRDSection, error) {
	industry = industryOrDefault(industry)
	user, err := prdUser(productInput, industry, mr)
	if err != nil {
		return nil, &ProviderError{Kind: domain.KindPRD, Err: err}
	}
	var w prdWire
	if err := p.complete(ctx, domain.KindPRD, prdSystem, user, &w); err != nil {
		return nil, err
	}
	return nonNil(w.Sections), nil
}

type screenWire struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
}

type wireframeWire struct {
	Screens              []screenWire `json:"screens"`
	DesignConsiderations []string     `json:"designConsiderations"`
	NextSteps            []string     `json:"nextSteps"`
}

// Wireframe suggests MVP screens and design guidance.
func (p *Provider) Wireframe(ctx context.Context, productInput, industry string) (*domain.Wireframe, error) {
	industry = industryOrDefault(industry)
	var w wireframeWire
	if err := p.complete(ctx, domain.KindWireframe, wireframeSystem, wireframeUser(productInput, industry), &w); err != nil {
		return nil, err
	}
	wf := &domain.Wireframe{
		Screens:              make([]domain.WireframeScreen, 0, len(w.Screens)),
		DesignConsiderations: nonNil(w.DesignConsiderations),
		NextSteps:            nonNil(w.NextSteps),
	}
	for _, s := range w.Screens {
		wf.Screens = append(wf.Screens, domain.WireframeScreen{
			Name:        s.Name,
			Description: s.Description,
			Priority:    domain.ParsePriority(s.Priority),
		})
	}
	return wf, nil
}

// LogFailure records a provider failure at the appropriate level.
func LogFailure(logger *slog.Logger, sessionID string, err error) {
	var pe *ProviderError
	if errors.As(err, &pe) && errors.Is(pe.Err, llm.ErrNotConfigured) {
		logger.Info("Analysis backend not configured", "session_id", sessionID, "kind", pe.Kind)
		return
	}
	if errors.As(err, &pe) {
		logger.Warn("Analysis call failed", "session_id", sessionID, "kind", pe.Kind, "error", pe.Err)
		return
	}
	logger.Warn("Analysis failed", "session_id", sessionID, "error", err)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
