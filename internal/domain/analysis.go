package domain

import "slices"

// Kind names one analysis artifact.
type Kind string

const (
	KindSentiment               Kind = "sentiment"
	KindMarketResearch          Kind = "marketResearch"
	KindProblemAnalysis         Kind = "problemAnalysis"
	KindCompetitiveIntelligence Kind = "competitiveIntelligence"
	KindRiskAssessment          Kind = "riskAssessment"
	KindTechStack               Kind = "techStack"
	KindPRD                     Kind = "prd"
	KindWireframe               Kind = "wireframe"
)

// Level is a low/medium/high rating used by risk assessment.
type Level string

const (
	LevelLow    Level = "low"
	LevelMedium Level = "medium"
	LevelHigh   Level = "high"
)

// ParseLevel maps s onto a Level, falling back to medium.
func ParseLevel(s string) Level {
	switch Level(s) {
	case LevelLow, LevelMedium, LevelHigh:
		return Level(s)
	}
	return LevelMedium
}

// Priority ranks a wireframe screen.
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// ParsePriority maps s onto a Priority, falling back to medium.
func ParsePriority(s string) Priority {
	switch Priority(s) {
	case PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow:
		return Priority(s)
	}
	return PriorityMedium
}

// CompetitorType distinguishes direct from indirect competitors.
type CompetitorType string

const (
	CompetitorDirect   CompetitorType = "direct"
	CompetitorIndirect CompetitorType = "indirect"
)

// ParseCompetitorType maps s onto a CompetitorType, falling back to indirect.
func ParseCompetitorType(s string) CompetitorType {
	if CompetitorType(s) == CompetitorDirect {
		return CompetitorDirect
	}
	return CompetitorIndirect
}

// Sentiment is the tone analysis of the product description.
type Sentiment struct {
	Rating     int      `json:"rating" yaml:"rating"`
	Confidence float64  `json:"confidence" yaml:"confidence"`
	Insights   []string `json:"insights" yaml:"insights"`
}

// Competitor is one entry of the market research competitor list.
type Competitor struct {
	Name        string         `json:"name" yaml:"name"`
	Type        CompetitorType `json:"type" yaml:"type"`
	Description string         `json:"description" yaml:"description"`
	Strength    string         `json:"strength" yaml:"strength"`
	Weakness    string         `json:"weakness" yaml:"weakness"`
}

// MarketResearch sizes the market and lists competitors.
type MarketResearch struct {
	MarketSize      string       `json:"marketSize" yaml:"marketSize"`
	GrowthRate      string       `json:"growthRate" yaml:"growthRate"`
	CompetitorCount int          `json:"competitorCount" yaml:"competitorCount"`
	KeyInsights     []string     `json:"keyInsights" yaml:"keyInsights"`
	Competitors     []Competitor `json:"competitors" yaml:"competitors"`
}

// ProblemSolution is one problem the product addresses.
type ProblemSolution struct {
	Problem     string   `json:"problem" yaml:"problem"`
	Description string   `json:"description" yaml:"description"`
	Solutions   []string `json:"solutions" yaml:"solutions"`
}

// SWOT holds the four SWOT lists.
type SWOT struct {
	Strengths     []string `json:"strengths" yaml:"strengths"`
	Weaknesses    []string `json:"weaknesses" yaml:"weaknesses"`
	Opportunities []string `json:"opportunities" yaml:"opportunities"`
	Threats       []string `json:"threats" yaml:"threats"`
}

// CompetitiveIntelligence is the SWOT and positioning analysis.
type CompetitiveIntelligence struct {
	SWOTAnalysis            SWOT     `json:"swotAnalysis" yaml:"swotAnalysis"`
	MarketPosition          string   `json:"marketPosition" yaml:"marketPosition"`
	DifferentiationStrategy []string `json:"differentiationStrategy" yaml:"differentiationStrategy"`
}

// Risk is one identified risk.
type Risk struct {
	Type        string `json:"type" yaml:"type"`
	Description string `json:"description" yaml:"description"`
	Probability Level  `json:"probability" yaml:"probability"`
	Impact      Level  `json:"impact" yaml:"impact"`
	Mitigation  string `json:"mitigation" yaml:"mitigation"`
}

// RiskAssessment lists risks with an overall level.
type RiskAssessment struct {
	Risks            []Risk `json:"risks" yaml:"risks"`
	OverallRiskLevel Level  `json:"overallRiskLevel" yaml:"overallRiskLevel"`
}

// TechRecommendation is one tech stack choice.
type TechRecommendation struct {
	Category     string   `json:"category" yaml:"category"`
	Primary      string   `json:"primary" yaml:"primary"`
	Alternatives []string `json:"alternatives" yaml:"alternatives"`
	Reasoning    string   `json:"reasoning" yaml:"reasoning"`
}

// PRDSection is one ordered section of a product requirements document.
type PRDSection struct {
	Title   string `json:"title" yaml:"title"`
	Content string `json:"content" yaml:"content"`
}

// WireframeScreen is one screen suggested for the MVP.
type WireframeScreen struct {
	Name        string   `json:"name" yaml:"name"`
	Description string   `json:"description" yaml:"description"`
	Priority    Priority `json:"priority" yaml:"priority"`
}

// Wireframe is the UX guidance for an MVP.
type Wireframe struct {
	Screens              []WireframeScreen `json:"screens" yaml:"screens"`
	DesignConsiderations []string          `json:"designConsiderations" yaml:"designConsiderations"`
	NextSteps            []string          `json:"nextSteps" yaml:"nextSteps"`
}

// AnalysisResult aggregates every analysis artifact. Each field is optional;
// a present field never carries nil lists once normalized. A nil list
// section means absent; an empty one is present and encodes as [].
type AnalysisResult struct {
	Sentiment               *Sentiment               `json:"sentiment,omitempty"`
	MarketResearch          *MarketResearch          `json:"marketResearch,omitempty"`
	ProblemAnalysis         []ProblemSolution        `json:"problemAnalysis,omitzero"`
	CompetitiveIntelligence *CompetitiveIntelligence `json:"competitiveIntelligence,omitempty"`
	RiskAssessment          *RiskAssessment          `json:"riskAssessment,omitempty"`
	TechStack               []TechRecommendation     `json:"techStack,omitzero"`
	PRD                     []PRDSection             `json:"prd,omitzero"`
	Wireframe               *Wireframe               `json:"wireframe,omitempty"`
}

// yamlResult mirrors AnalysisResult for YAML, where omitempty would also
// drop empty lists. Pointers to slices keep [] distinct from absent.
type yamlResult struct {
	Sentiment               *Sentiment               `yaml:"sentiment,omitempty"`
	MarketResearch          *MarketResearch          `yaml:"marketResearch,omitempty"`
	ProblemAnalysis         *[]ProblemSolution       `yaml:"problemAnalysis,omitempty"`
	CompetitiveIntelligence *CompetitiveIntelligence `yaml:"competitiveIntelligence,omitempty"`
	RiskAssessment          *RiskAssessment          `yaml:"riskAssessment,omitempty"`
	TechStack               *[]TechRecommendation    `yaml:"techStack,omitempty"`
	PRD                     *[]PRDSection            `yaml:"prd,omitempty"`
	Wireframe               *Wireframe               `yaml:"wireframe,omitempty"`
}

// MarshalYAML implements yaml.Marshaler.
func (r AnalysisResult) MarshalYAML() (interface{}, error) {
	return yamlResult{
		Sentiment:               r.Sentiment,
		MarketResearch:          r.MarketResearch,
		ProblemAnalysis:         present(r.ProblemAnalysis),
		CompetitiveIntelligence: r.CompetitiveIntelligence,
		RiskAssessment:          r.RiskAssessment,
		TechStack:               present(r.TechStack),
		PRD:                     present(r.PRD),
		Wireframe:               r.Wireframe,
	}, nil
}

func present[T any](s []T) *[]T {
	if s == nil {
		return nil
	}
	return &s
}

// Flags selects the optional analysis sections of a session.
type Flags struct {
	MarketResearch bool
	PRD            bool
	Wireframe      bool
}

// FlagsOf returns the feature flags of s.
func FlagsOf(s *Session) Flags {
	return Flags{
		MarketResearch: s.IncludeMarketResearch,
		PRD:            s.GeneratePRD,
		Wireframe:      s.WireframeGuidance,
	}
}

// Restrict drops the sections disabled by f. PRD is dropped when market
// research is absent, since it is derived from it.
func (r *AnalysisResult) Restrict(f Flags) {
	if r == nil {
		return
	}
	if !f.MarketResearch {
		r.MarketResearch = nil
	}
	if !f.PRD || r.MarketResearch == nil {
		r.PRD = nil
	}
	if !f.Wireframe {
		r.Wireframe = nil
	}
}

// Normalize replaces nil lists with empty ones in every present section.
func (r *AnalysisResult) Normalize() {
	if r == nil {
		return
	}
	if s := r.Sentiment; s != nil {
		s.Insights = nonNil(s.Insights)
	}
	if m := r.MarketResearch; m != nil {
		m.KeyInsights = nonNil(m.KeyInsights)
		m.Competitors = nonNil(m.Competitors)
	}
	for i := range r.ProblemAnalysis {
		r.ProblemAnalysis[i].Solutions = nonNil(r.ProblemAnalysis[i].Solutions)
	}
	if c := r.CompetitiveIntelligence; c != nil {
		c.SWOTAnalysis.Strengths = nonNil(c.SWOTAnalysis.Strengths)
		c.SWOTAnalysis.Weaknesses = nonNil(c.SWOTAnalysis.Weaknesses)
		c.SWOTAnalysis.Opportunities = nonNil(c.SWOTAnalysis.Opportunities)
		c.SWOTAnalysis.Threats = nonNil(c.SWOTAnalysis.Threats)
		c.DifferentiationStrategy = nonNil(c.DifferentiationStrategy)
	}
	if ra := r.RiskAssessment; ra != nil {
		ra.Risks = nonNil(ra.Risks)
	}
	for i := range r.TechStack {
		r.TechStack[i].Alternatives = nonNil(r.TechStack[i].Alternatives)
	}
	if w := r.Wireframe; w != nil {
		w.Screens = nonNil(w.Screens)
		w.DesignConsiderations = nonNil(w.DesignConsiderations)
		w.NextSteps = nonNil(w.NextSteps)
	}
}

// Clone returns a deep copy of r.
func (r *AnalysisResult) Clone() *AnalysisResult {
	if r == nil {
		return nil
	}
	c := &AnalysisResult{}
	if r.Sentiment != nil {
		s := *r.Sentiment
		s.Insights = slices.Clone(s.Insights)
		c.Sentiment = &s
	}
	c.MarketResearch = r.MarketResearch.Clone()
	if r.ProblemAnalysis != nil {
		c.ProblemAnalysis = make([]ProblemSolution, len(r.ProblemAnalysis))
		for i, p := range r.ProblemAnalysis {
			p.Solutions = slices.Clone(p.Solutions)
			c.ProblemAnalysis[i] = p
		}
	}
	if r.CompetitiveIntelligence != nil {
		ci := *r.CompetitiveIntelligence
		ci.SWOTAnalysis = SWOT{
			Strengths:     slices.Clone(ci.SWOTAnalysis.Strengths),
			Weaknesses:    slices.Clone(ci.SWOTAnalysis.Weaknesses),
			Opportunities: slices.Clone(ci.SWOTAnalysis.Opportunities),
			Threats:       slices.Clone(ci.SWOTAnalysis.Threats),
		}
		ci.DifferentiationStrategy = slices.Clone(ci.DifferentiationStrategy)
		c.CompetitiveIntelligence = &ci
	}
	if r.RiskAssessment != nil {
		ra := *r.RiskAssessment
		ra.Risks = slices.Clone(ra.Risks)
		c.RiskAssessment = &ra
	}
	if r.TechStack != nil {
		c.TechStack = make([]TechRecommendation, len(r.TechStack))
		for i, t := range r.TechStack {
			t.Alternatives = slices.Clone(t.Alternatives)
			c.TechStack[i] = t
		}
	}
	c.PRD = slices.Clone(r.PRD)
	if r.Wireframe != nil {
		w := Wireframe{
			Screens:              slices.Clone(r.Wireframe.Screens),
			DesignConsiderations: slices.Clone(r.Wireframe.DesignConsiderations),
			NextSteps:            slices.Clone(r.Wireframe.NextSteps),
		}
		c.Wireframe = &w
	}
	return c
}

// Clone returns a deep copy of m.
func (m *MarketResearch) Clone() *MarketResearch {
	if m == nil {
		return nil
	}
	c := *m
	c.KeyInsights = slices.Clone(m.KeyInsights)
	c.Competitors = slices.Clone(m.Competitors)
	return &c
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
