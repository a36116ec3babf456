// Package store provides session persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/ashureev/productlens/internal/domain"
)

// Repository defines the interface for persisting analysis sessions.
type Repository interface {
	// Get retrieves a session by id. Returns nil, nil when absent.
	Get(ctx context.Context, id string) (*domain.Session, error)

	// ListByOwner returns sessions newest first. An empty owner lists all sessions.
	ListByOwner(ctx context.Context, owner string) ([]*domain.Session, error)

	// Create stores a new pending session built from input.
	Create(ctx context.Context, input domain.CreateSessionInput) (*domain.Session, error)

	// Update merges the provided fields and refreshes updatedAt.
	// Returns nil, nil when the id is unknown.
	Update(ctx context.Context, id string, update domain.SessionUpdate) (*domain.Session, error)

	// Delete removes a session and reports whether it existed.
	Delete(ctx context.Context, id string) (bool, error)

	// ListStale returns sessions in status whose updatedAt is before cutoff.
	ListStale(ctx context.Context, status domain.Status, cutoff time.Time) ([]*domain.Session, error)

	// Ping verifies the backing store is reachable.
	Ping(ctx context.Context) error

	// Close releases store resources.
	Close() error
}

// newSession builds a pending session from input, applying flag defaults.
func newSession(id string, input domain.CreateSessionInput, now time.Time) *domain.Session {
	return &domain.Session{
		ID:                    id,
		OwnerID:               input.OwnerID,
		Title:                 input.Title,
		Description:           nonEmpty(input.Description),
		ProductInput:          input.ProductInput,
		Industry:              nonEmpty(input.Industry),
		Urgency:               nonEmpty(input.Urgency),
		IncludeMarketResearch: boolOr(input.IncludeMarketResearch, true),
		GeneratePRD:           boolOr(input.GeneratePRD, true),
		WireframeGuidance:     boolOr(input.WireframeGuidance, true),
		Status:                domain.StatusPending,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
}

func boolOr(p *bool, fallback bool) bool {
	if p == nil {
		return fallback
	}
	return *p
}

func nonEmpty(p *string) *string {
	if p == nil || *p == "" {
		return nil
	}
	v := *p
	return &v
}
