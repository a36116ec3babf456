package orchestrator

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ashureev/productlens/internal/domain"
	"github.com/ashureev/productlens/internal/store"
)

const (
	MaxTitleLength        = 200
	MaxProductInputLength = 10000
)

// SessionCloser is notified when a session is deleted.
type SessionCloser interface {
	CloseSession(sessionID string)
}

// Service is the session boundary used by the HTTP API and the CLI.
type Service struct {
	repo   store.Repository
	orch   *Orchestrator
	closer SessionCloser
}

// NewService creates a session service. closer may be nil.
func NewService(repo store.Repository, orch *Orchestrator, closer SessionCloser) *Service {
	return &Service{repo: repo, orch: orch, closer: closer}
}

// CreateSession validates input and stores a new pending session.
func (s *Service) CreateSession(ctx context.Context, input domain.CreateSessionInput) (*domain.Session, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.ProductInput = strings.TrimSpace(input.ProductInput)
	if err := validateCreate(input); err != nil {
		return nil, err
	}
	sess, err := s.repo.Create(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	return sess, nil
}

// GetSession returns the session or domain.ErrNotFound.
func (s *Service) GetSession(ctx context.Context, id string) (*domain.Session, error) {
	sess, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	if sess == nil {
		return nil, domain.ErrNotFound
	}
	return sess, nil
}

// ListSessions returns the sessions of owner, newest first. An empty owner
// lists every session.
func (s *Service) ListSessions(ctx context.Context, owner string) ([]*domain.Session, error) {
	sessions, err := s.repo.ListByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return sessions, nil
}

// UpdateSession edits the descriptive fields and flags of a session.
// Status and results are owned by the orchestrator and cannot be set here.
func (s *Service) UpdateSession(ctx context.Context, id string, update domain.SessionUpdate) (*domain.Session, error) {
	update.Status = nil
	update.Results = nil
	if err := validateUpdate(&update); err != nil {
		return nil, err
	}

	sess, err := s.repo.Update(ctx, id, update)
	if err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	if sess == nil {
		return nil, domain.ErrNotFound
	}
	return sess, nil
}

// AnalyzeSession runs the analysis to completion and returns the updated
// session.
func (s *Service) AnalyzeSession(ctx context.Context, id string) (*domain.Session, error) {
	return s.orch.Analyze(ctx, id)
}

// DeleteSession removes a session and reports whether it existed.
func (s *Service) DeleteSession(ctx context.Context, id string) (bool, error) {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}
	if deleted && s.closer != nil {
		s.closer.CloseSession(id)
	}
	return deleted, nil
}

// ExportSession returns the download projection of a session.
func (s *Service) ExportSession(ctx context.Context, id string) (*domain.Export, error) {
	sess, err := s.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	return domain.ExportOf(sess), nil
}

func validateCreate(input domain.CreateSessionInput) error {
	verr := &domain.ValidationError{}
	checkRequired(verr, "title", input.Title, MaxTitleLength)
	checkRequired(verr, "productInput", input.ProductInput, MaxProductInputLength)
	return verr.OrNil()
}

func validateUpdate(u *domain.SessionUpdate) error {
	verr := &domain.ValidationError{}
	if u.Title != nil {
		v := strings.TrimSpace(*u.Title)
		u.Title = &v
		checkRequired(verr, "title", v, MaxTitleLength)
	}
	if u.ProductInput != nil {
		v := strings.TrimSpace(*u.ProductInput)
		u.ProductInput = &v
		checkRequired(verr, "productInput", v, MaxProductInputLength)
	}
	return verr.OrNil()
}

func checkRequired(verr *domain.ValidationError, field, value string, maxLen int) {
	switch {
	case value == "":
		verr.Add(field, "is required")
	case utf8.RuneCountInString(value) > maxLen:
		verr.Add(field, fmt.Sprintf("must be at most %d characters", maxLen))
	}
}
