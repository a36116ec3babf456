package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/ashureev/productlens/internal/demo"
	"github.com/ashureev/productlens/internal/domain"
	"github.com/ashureev/productlens/internal/events"
	"github.com/ashureev/productlens/internal/llm"
	"github.com/ashureev/productlens/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticResolver struct {
	backend *llm.Backend
	err     error
}

func (r staticResolver) Resolve() (*llm.Backend, error) {
	return r.backend, r.err
}

var noCredential = staticResolver{err: llm.ErrNotConfigured}

func liveResolver(c llm.Completer) staticResolver {
	return staticResolver{backend: &llm.Backend{Completer: c, Provider: "fake", Model: "fake-1"}}
}

// scriptedCompleter answers by kind and can fail one kind.
type scriptedCompleter struct {
	mu     sync.Mutex
	failOn string
	calls  []string
}

var liveResponses = map[string]string{
	string(domain.KindSentiment):               `{"rating": 3, "confidence": 0.6, "insights": ["live"]}`,
	string(domain.KindMarketResearch):          `{"marketSize": "$9.9B", "growthRate": "2%", "competitorCount": 4, "keyInsights": [], "competitors": []}`,
	string(domain.KindProblemAnalysis):         `{"problems": [{"problem": "Live problem", "description": "d", "solutions": ["s"]}]}`,
	string(domain.KindCompetitiveIntelligence): `{"swotAnalysis": {"strengths": ["live"]}, "marketPosition": "live", "differentiationStrategy": []}`,
	string(domain.KindRiskAssessment):          `{"risks": [], "overallRiskLevel": "low"}`,
	string(domain.KindTechStack):               `{"recommendations": [{"category": "Backend", "primary": "Go", "alternatives": [], "reasoning": "r"}]}`,
	string(domain.KindPRD):                     `{"sections": [{"title": "Live PRD", "content": "c"}]}`,
	string(domain.KindWireframe):               `{"screens": [{"name": "Home", "description": "d", "priority": "high"}], "designConsiderations": [], "nextSteps": []}`,
}

// emptyListCompleter answers every kind, with empty problem and tech stack lists.
func emptyListCompleter() llm.Completer {
	return llm.CompleterFunc(func(_ context.Context, req llm.Request) (string, error) {
		switch domain.Kind(req.Kind) {
		case domain.KindProblemAnalysis:
			return `{"problems": []}`, nil
		case domain.KindTechStack:
			return `{"recommendations": []}`, nil
		}
		return liveResponses[req.Kind], nil
	})
}

func (s *scriptedCompleter) Complete(_ context.Context, req llm.Request) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req.Kind)
	s.mu.Unlock()
	if req.Kind == s.failOn {
		return "", errors.New("backend unavailable")
	}
	return liveResponses[req.Kind], nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (p *recordingPublisher) Publish(ev events.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
}

func (p *recordingPublisher) statuses() []domain.Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]domain.Status, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Status)
	}
	return out
}

func strPtr(s string) *string { return &s }

func boolPtr(b bool) *bool { return &b }

func createSession(t *testing.T, repo store.Repository, input domain.CreateSessionInput) *domain.Session {
	t.Helper()
	if input.Title == "" {
		input.Title = "Idea"
	}
	if input.ProductInput == "" {
		input.ProductInput = "A marketplace for renting camera gear"
	}
	sess, err := repo.Create(context.Background(), input)
	require.NoError(t, err)
	return sess
}

func TestAnalyzeWithoutCredentialUsesDemoBundle(t *testing.T) {
	repo := store.NewMemory()
	pub := &recordingPublisher{}
	orch := New(repo, noCredential, pub)

	sess := createSession(t, repo, domain.CreateSessionInput{
		Title:        "Camera rentals",
		ProductInput: "A marketplace for renting camera gear",
		Industry:     strPtr("ecommerce"),
	})
	assert.Equal(t, domain.StatusPending, sess.Status)
	assert.Nil(t, sess.Results)

	got, err := orch.Analyze(context.Background(), sess.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCompleted, got.Status)
	require.NotNil(t, got.Results)
	assert.Equal(t, "$4.2B", got.Results.MarketResearch.MarketSize)
	assert.Len(t, got.Results.PRD, 6)
	require.Len(t, got.Results.Wireframe.Screens, 7)
	for _, s := range got.Results.Wireframe.Screens[:4] {
		assert.Equal(t, domain.PriorityCritical, s.Priority)
	}
	assert.Equal(t, demo.FullBundle("", ""), got.Results)
	assert.Equal(t, []domain.Status{domain.StatusProcessing, domain.StatusCompleted}, pub.statuses())

	stored, err := repo.Get(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, got.Results, stored.Results)
}

func TestAnalyzeLiveResult(t *testing.T) {
	repo := store.NewMemory()
	completer := &scriptedCompleter{}
	orch := New(repo, liveResolver(completer), nil)
	sess := createSession(t, repo, domain.CreateSessionInput{})

	got, err := orch.Analyze(context.Background(), sess.ID)
	require.NoError(t, err)

	r := got.Results
	require.NotNil(t, r)
	assert.Equal(t, 3, r.Sentiment.Rating)
	assert.Equal(t, "$9.9B", r.MarketResearch.MarketSize)
	assert.Equal(t, "Live problem", r.ProblemAnalysis[0].Problem)
	assert.Equal(t, []string{}, r.CompetitiveIntelligence.SWOTAnalysis.Threats)
	assert.Equal(t, domain.LevelLow, r.RiskAssessment.OverallRiskLevel)
	assert.Equal(t, "Go", r.TechStack[0].Primary)
	assert.Equal(t, "Live PRD", r.PRD[0].Title)
	assert.Equal(t, domain.PriorityHigh, r.Wireframe.Screens[0].Priority)

	assert.Equal(t, []string{
		string(domain.KindSentiment),
		string(domain.KindMarketResearch),
		string(domain.KindProblemAnalysis),
		string(domain.KindCompetitiveIntelligence),
		string(domain.KindRiskAssessment),
		string(domain.KindTechStack),
		string(domain.KindPRD),
		string(domain.KindWireframe),
	}, completer.calls)
}

func TestAnalyzeProviderFailureSubstitutesWholeBundle(t *testing.T) {
	for _, kind := range []domain.Kind{
		domain.KindSentiment,
		domain.KindCompetitiveIntelligence,
		domain.KindWireframe,
	} {
		t.Run(string(kind), func(t *testing.T) {
			repo := store.NewMemory()
			orch := New(repo, liveResolver(&scriptedCompleter{failOn: string(kind)}), nil)
			sess := createSession(t, repo, domain.CreateSessionInput{})

			got, err := orch.Analyze(context.Background(), sess.ID)
			require.NoError(t, err)
			assert.Equal(t, domain.StatusCompleted, got.Status)
			assert.Equal(t, demo.FullBundle("", ""), got.Results)
		})
	}
}

func TestAnalyzeRespectsFlags(t *testing.T) {
	repo := store.NewMemory()
	completer := &scriptedCompleter{}
	orch := New(repo, liveResolver(completer), nil)
	sess := createSession(t, repo, domain.CreateSessionInput{
		IncludeMarketResearch: boolPtr(false),
		GeneratePRD:           boolPtr(true),
		WireframeGuidance:     boolPtr(false),
	})

	got, err := orch.Analyze(context.Background(), sess.ID)
	require.NoError(t, err)

	assert.Nil(t, got.Results.MarketResearch)
	assert.Nil(t, got.Results.PRD, "PRD depends on market research")
	assert.Nil(t, got.Results.Wireframe)
	assert.NotNil(t, got.Results.Sentiment)
	assert.NotContains(t, completer.calls, string(domain.KindMarketResearch))
	assert.NotContains(t, completer.calls, string(domain.KindPRD))
	assert.NotContains(t, completer.calls, string(domain.KindWireframe))
}

func TestAnalyzeDemoRespectsFlags(t *testing.T) {
	repo := store.NewMemory()
	orch := New(repo, noCredential, nil)
	sess := createSession(t, repo, domain.CreateSessionInput{GeneratePRD: boolPtr(false)})

	got, err := orch.Analyze(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Nil(t, got.Results.PRD)
	assert.NotNil(t, got.Results.MarketResearch)
	assert.NotNil(t, got.Results.Wireframe)
}

func TestAnalyzeUnknownSession(t *testing.T) {
	orch := New(store.NewMemory(), noCredential, nil)
	_, err := orch.Analyze(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAnalyzeIsReentrant(t *testing.T) {
	repo := store.NewMemory()
	orch := New(repo, noCredential, nil)
	sess := createSession(t, repo, domain.CreateSessionInput{})

	first, err := orch.Analyze(context.Background(), sess.ID)
	require.NoError(t, err)
	second, err := orch.Analyze(context.Background(), sess.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.StatusCompleted, second.Status)
	assert.Equal(t, first.Results, second.Results)
	assert.False(t, second.UpdatedAt.Before(first.UpdatedAt))
}

// failingRepo fails updates that would complete a session.
type failingRepo struct {
	store.Repository
}

func (r failingRepo) Update(ctx context.Context, id string, u domain.SessionUpdate) (*domain.Session, error) {
	if u.Status != nil && *u.Status == domain.StatusCompleted {
		return nil, errors.New("disk full")
	}
	return r.Repository.Update(ctx, id, u)
}

func TestAnalyzePersistenceFailure(t *testing.T) {
	mem := store.NewMemory()
	pub := &recordingPublisher{}
	orch := New(failingRepo{mem}, noCredential, pub)
	sess := createSession(t, mem, domain.CreateSessionInput{})

	_, err := orch.Analyze(context.Background(), sess.ID)

	var perr *domain.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, sess.ID, perr.SessionID)

	stored, err := mem.Get(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusError, stored.Status)
	assert.Nil(t, stored.Results)
	assert.Equal(t, []domain.Status{domain.StatusProcessing, domain.StatusError}, pub.statuses())
}

func TestAnalyzeSurvivesExpiredDeadline(t *testing.T) {
	repo := store.NewMemory()
	orch := New(repo, liveResolver(llm.CompleterFunc(func(ctx context.Context, _ llm.Request) (string, error) {
		<-ctx.Done()
		return "", ctx.Err()
	})), nil)
	sess := createSession(t, repo, domain.CreateSessionInput{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	got, err := orch.Analyze(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, demo.FullBundle("", ""), got.Results)
}

func TestAnalyzeKeepsEmptyListsThroughSQLite(t *testing.T) {
	repo, err := store.NewSQLite(filepath.Join(t.TempDir(), "sessions.db"))
	require.NoError(t, err)
	defer repo.Close()

	orch := New(repo, liveResolver(emptyListCompleter()), nil)
	sess := createSession(t, repo, domain.CreateSessionInput{})

	_, err = orch.Analyze(context.Background(), sess.ID)
	require.NoError(t, err)

	stored, err := repo.Get(context.Background(), sess.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Results)
	assert.NotNil(t, stored.Results.ProblemAnalysis)
	assert.Empty(t, stored.Results.ProblemAnalysis)
	assert.NotNil(t, stored.Results.TechStack)

	data, err := json.Marshal(stored.Results)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"problemAnalysis":[]`)
	assert.Contains(t, string(data), `"techStack":[]`)
}
