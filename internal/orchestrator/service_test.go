package orchestrator

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/ashureev/productlens/internal/demo"
	"github.com/ashureev/productlens/internal/domain"
	"github.com/ashureev/productlens/internal/events"
	"github.com/ashureev/productlens/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newService() (*Service, *events.Broker) {
	repo := store.NewMemory()
	broker := events.NewBroker()
	return NewService(repo, New(repo, noCredential, broker), broker), broker
}

func TestCreateSessionValidation(t *testing.T) {
	tests := []struct {
		name       string
		input      domain.CreateSessionInput
		wantFields []string
	}{
		{name: "missing both", input: domain.CreateSessionInput{}, wantFields: []string{"title", "productInput"}},
		{name: "blank title", input: domain.CreateSessionInput{Title: "   ", ProductInput: "x"}, wantFields: []string{"title"}},
		{name: "title too long", input: domain.CreateSessionInput{Title: strings.Repeat("a", MaxTitleLength+1), ProductInput: "x"}, wantFields: []string{"title"}},
		{name: "input too long", input: domain.CreateSessionInput{Title: "t", ProductInput: strings.Repeat("a", MaxProductInputLength+1)}, wantFields: []string{"productInput"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newService()
			_, err := svc.CreateSession(context.Background(), tt.input)

			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
			for _, f := range tt.wantFields {
				assert.Contains(t, verr.Fields, f)
			}
			assert.Len(t, verr.Fields, len(tt.wantFields))
		})
	}
}

func TestCreateSessionDefaults(t *testing.T) {
	svc, _ := newService()
	sess, err := svc.CreateSession(context.Background(), domain.CreateSessionInput{
		Title:        "  Camera rentals ",
		ProductInput: "A marketplace for renting camera gear",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, "Camera rentals", sess.Title)
	assert.Equal(t, domain.StatusPending, sess.Status)
	assert.Nil(t, sess.Results)
	assert.True(t, sess.IncludeMarketResearch)
	assert.True(t, sess.GeneratePRD)
	assert.True(t, sess.WireframeGuidance)
}

func TestGetSessionNotFound(t *testing.T) {
	svc, _ := newService()
	_, err := svc.GetSession(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.ExportSession(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDeleteSessionTwice(t *testing.T) {
	svc, broker := newService()
	ctx := context.Background()
	sess, err := svc.CreateSession(ctx, domain.CreateSessionInput{Title: "t", ProductInput: "p"})
	require.NoError(t, err)

	ch, cancel := broker.Subscribe(sess.ID)
	defer cancel()

	deleted, err := svc.DeleteSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.True(t, deleted)

	_, open := <-ch
	assert.False(t, open, "subscribers are closed on delete")

	deleted, err = svc.DeleteSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.False(t, deleted)

	deleted, err = svc.DeleteSession(ctx, "never-existed")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestExportSession(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	sess, err := svc.CreateSession(ctx, domain.CreateSessionInput{
		Title:        "Camera rentals",
		ProductInput: "A marketplace for renting camera gear",
		Industry:     strPtr("ecommerce"),
	})
	require.NoError(t, err)
	_, err = svc.AnalyzeSession(ctx, sess.ID)
	require.NoError(t, err)

	exp, err := svc.ExportSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "Camera rentals", exp.Title)
	assert.Equal(t, "ecommerce", *exp.Industry)
	assert.Nil(t, exp.Description)
	require.NotNil(t, exp.Results)
	assert.Equal(t, "$4.2B", exp.Results.MarketResearch.MarketSize)
	assert.Equal(t, sess.CreatedAt, exp.CreatedAt)
}

func TestListSessionsByOwner(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	_, err := svc.CreateSession(ctx, domain.CreateSessionInput{OwnerID: "a", Title: "one", ProductInput: "p"})
	require.NoError(t, err)
	_, err = svc.CreateSession(ctx, domain.CreateSessionInput{OwnerID: "b", Title: "two", ProductInput: "p"})
	require.NoError(t, err)

	all, err := svc.ListSessions(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := svc.ListSessions(ctx, "a")
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "one", mine[0].Title)
}

func TestUpdateSession(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()
	sess, err := svc.CreateSession(ctx, domain.CreateSessionInput{Title: "t", ProductInput: "p"})
	require.NoError(t, err)
	_, err = svc.AnalyzeSession(ctx, sess.ID)
	require.NoError(t, err)

	pending := domain.StatusPending
	updated, err := svc.UpdateSession(ctx, sess.ID, domain.SessionUpdate{
		Title:  strPtr(" renamed "),
		Status: &pending,
	})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)
	assert.Equal(t, domain.StatusCompleted, updated.Status, "status is not editable")
	assert.NotNil(t, updated.Results)

	_, err = svc.UpdateSession(ctx, sess.ID, domain.SessionUpdate{ProductInput: strPtr("")})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "productInput")

	_, err = svc.UpdateSession(ctx, "missing", domain.SessionUpdate{Title: strPtr("x")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// completingRepo finishes an in-flight analysis just before the first edit
// reaches the store.
type completingRepo struct {
	store.Repository
	once sync.Once
}

func (r *completingRepo) Update(ctx context.Context, id string, u domain.SessionUpdate) (*domain.Session, error) {
	if u.Title != nil {
		r.once.Do(func() {
			_, _ = r.Repository.Update(ctx, id, domain.SessionUpdate{
				Status:  domain.StatusPtr(domain.StatusCompleted),
				Results: demo.FullBundle("", ""),
			})
		})
	}
	return r.Repository.Update(ctx, id, u)
}

func TestUpdateSessionDuringAnalysisKeepsResult(t *testing.T) {
	mem := store.NewMemory()
	repo := &completingRepo{Repository: mem}
	svc := NewService(repo, New(repo, noCredential, nil), nil)
	ctx := context.Background()

	sess, err := svc.CreateSession(ctx, domain.CreateSessionInput{Title: "t", ProductInput: "p"})
	require.NoError(t, err)
	_, err = mem.Update(ctx, sess.ID, domain.SessionUpdate{Status: domain.StatusPtr(domain.StatusProcessing)})
	require.NoError(t, err)

	updated, err := svc.UpdateSession(ctx, sess.ID, domain.SessionUpdate{Title: strPtr("Renamed")})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, domain.StatusCompleted, updated.Status)
	assert.Equal(t, demo.FullBundle("", ""), updated.Results)

	stored, err := mem.Get(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusCompleted, stored.Status)
	assert.NotNil(t, stored.Results)
}
