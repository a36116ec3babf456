// Package orchestrator drives the analysis state machine of a session and
// exposes the session operations used by the transport layer.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ashureev/productlens/internal/analysis"
	"github.com/ashureev/productlens/internal/demo"
	"github.com/ashureev/productlens/internal/domain"
	"github.com/ashureev/productlens/internal/events"
	"github.com/ashureev/productlens/internal/llm"
	"github.com/ashureev/productlens/internal/search"
	"github.com/ashureev/productlens/internal/store"
)

const persistTimeout = 5 * time.Second

// BackendResolver picks the completion backend for one analysis run.
type BackendResolver interface {
	Resolve() (*llm.Backend, error)
}

// Orchestrator runs analyses and persists their outcome.
type Orchestrator struct {
	repo        store.Repository
	resolver    BackendResolver
	market      *search.Market
	publisher   events.Publisher
	exchangeLog llm.ExchangeLogger
	logger      *slog.Logger
}

// New creates an orchestrator. A nil publisher discards events.
func New(repo store.Repository, resolver BackendResolver, publisher events.Publisher) *Orchestrator {
	if publisher == nil {
		publisher = discardPublisher{}
	}
	return &Orchestrator{
		repo:      repo,
		resolver:  resolver,
		market:    search.NewMarket(nil),
		publisher: publisher,
		logger:    slog.Default(),
	}
}

// SetMarket replaces the search helper used for market research.
func (o *Orchestrator) SetMarket(market *search.Market) {
	o.market = market
}

// SetExchangeLog records every backend exchange in log.
func (o *Orchestrator) SetExchangeLog(log llm.ExchangeLogger) {
	o.exchangeLog = log
}

// Analyze moves the session to processing, produces a result (live or demo)
// and stores it with status completed. Backend failures never surface:
// they are replaced by the demo bundle. A store failure leaves the session
// in status error and is returned as *domain.PersistenceError.
//
// Analyze may be called in any status; concurrent runs on one session race
// and the last write wins.
func (o *Orchestrator) Analyze(ctx context.Context, id string) (*domain.Session, error) {
	sess, err := o.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	if sess == nil {
		return nil, domain.ErrNotFound
	}

	processing, err := o.repo.Update(ctx, id, domain.SessionUpdate{Status: domain.StatusPtr(domain.StatusProcessing)})
	if err != nil {
		return nil, o.fail(ctx, id, err)
	}
	if processing == nil {
		return nil, domain.ErrNotFound
	}
	o.publish(id, domain.StatusProcessing, "")
	o.logger.Info("Analysis started", "session_id", id)

	results := o.produce(ctx, processing)
	results.Restrict(domain.FlagsOf(processing))
	results.Normalize()

	// The run may have consumed the caller's deadline; the outcome must
	// still be stored.
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()
	updated, err := o.repo.Update(pctx, id, domain.SessionUpdate{
		Status:  domain.StatusPtr(domain.StatusCompleted),
		Results: results,
	})
	if err != nil {
		return nil, o.fail(pctx, id, err)
	}
	if updated == nil {
		return nil, o.fail(pctx, id, errors.New("session deleted during analysis"))
	}

	o.publish(id, domain.StatusCompleted, "")
	o.logger.Info("Analysis completed", "session_id", id)
	return updated, nil
}

// produce returns the live result, or the demo bundle when no backend is
// configured or any provider call fails.
func (o *Orchestrator) produce(ctx context.Context, sess *domain.Session) *domain.AnalysisResult {
	backend, err := o.resolver.Resolve()
	if err != nil {
		o.logger.Info("Using demo analysis", "session_id", sess.ID, "reason", err)
		return demo.FullBundle(sess.ProductInput, sess.IndustryOrDefault())
	}

	completer := backend.Completer
	if o.exchangeLog != nil {
		completer = llm.WithExchangeLog(completer, o.exchangeLog)
	}
	provider := analysis.New(completer, o.market).ForSession(sess.ID)

	results, err := runProviders(ctx, provider, sess)
	if err != nil {
		analysis.LogFailure(o.logger, sess.ID, err)
		o.logger.Info("Using demo analysis", "session_id", sess.ID,
			"provider", backend.Provider, "model", backend.Model, "reason", "provider failure")
		return demo.FullBundle(sess.ProductInput, sess.IndustryOrDefault())
	}
	return results
}

// runProviders issues the provider calls in order and stops at the first
// failure.
func runProviders(ctx context.Context, p *analysis.Provider, sess *domain.Session) (*domain.AnalysisResult, error) {
	input := sess.ProductInput
	industry := sess.IndustryOrDefault()
	r := &domain.AnalysisResult{}
	var err error

	if r.Sentiment, err = p.Sentiment(ctx, input); err != nil {
		return nil, err
	}
	if sess.IncludeMarketResearch {
		if r.MarketResearch, err = p.MarketResearch(ctx, input, industry); err != nil {
			return nil, err
		}
	}
	if r.ProblemAnalysis, err = p.Problems(ctx, input); err != nil {
		return nil, err
	}
	if r.CompetitiveIntelligence, err = p.Competitive(ctx, input, industry); err != nil {
		return nil, err
	}
	if r.RiskAssessment, err = p.Risk(ctx, input, industry); err != nil {
		return nil, err
	}
	if r.TechStack, err = p.TechStack(ctx, input, industry); err != nil {
		return nil, err
	}
	if sess.GeneratePRD && r.MarketResearch != nil {
		if r.PRD, err = p.PRD(ctx, input, industry, r.MarketResearch); err != nil {
			return nil, err
		}
	}
	if sess.WireframeGuidance {
		if r.Wireframe, err = p.Wireframe(ctx, input, industry); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// fail marks the session as errored (best effort) and wraps cause.
func (o *Orchestrator) fail(ctx context.Context, id string, cause error) error {
	if _, err := o.repo.Update(ctx, id, domain.SessionUpdate{Status: domain.StatusPtr(domain.StatusError)}); err != nil {
		o.logger.Error("Failed to mark session as errored", "session_id", id, "error", err)
	}
	o.publish(id, domain.StatusError, cause.Error())
	o.logger.Error("Analysis failed", "session_id", id, "error", cause)
	return &domain.PersistenceError{SessionID: id, Err: cause}
}

func (o *Orchestrator) publish(id string, status domain.Status, errMsg string) {
	o.publisher.Publish(events.Event{SessionID: id, Status: status, Error: errMsg})
}

type discardPublisher struct{}

func (discardPublisher) Publish(events.Event) {}
