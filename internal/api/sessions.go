package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/ashureev/productlens/internal/domain"
	"github.com/ashureev/productlens/internal/identity"
	"github.com/ashureev/productlens/internal/middleware"
	"github.com/go-chi/chi/v5"
)

// SessionService is the session boundary the handlers call into.
type SessionService interface {
	CreateSession(ctx context.Context, input domain.CreateSessionInput) (*domain.Session, error)
	GetSession(ctx context.Context, id string) (*domain.Session, error)
	ListSessions(ctx context.Context, owner string) ([]*domain.Session, error)
	UpdateSession(ctx context.Context, id string, update domain.SessionUpdate) (*domain.Session, error)
	AnalyzeSession(ctx context.Context, id string) (*domain.Session, error)
	DeleteSession(ctx context.Context, id string) (bool, error)
	ExportSession(ctx context.Context, id string) (*domain.Export, error)
}

// SessionHandler handles session endpoints.
type SessionHandler struct {
	svc            SessionService
	limiter        *middleware.RateLimiter
	analyzeTimeout time.Duration
}

// NewSessionHandler creates a session handler. Analyze requests are
// throttled by limiter per device and bounded by analyzeTimeout.
func NewSessionHandler(svc SessionService, limiter *middleware.RateLimiter, analyzeTimeout time.Duration) *SessionHandler {
	return &SessionHandler{svc: svc, limiter: limiter, analyzeTimeout: analyzeTimeout}
}

// RegisterRoutes registers session routes.
func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/sessions", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.Get)
			r.Patch("/", h.Update)
			r.Delete("/", h.Delete)
			r.Get("/export", h.Export)
			if h.limiter != nil {
				r.With(h.limiter.Limit(throttleKey)).Post("/analyze", h.Analyze)
			} else {
				r.Post("/analyze", h.Analyze)
			}
		})
	})
}

// throttleKey keys analyze throttling on the device owner, falling back to IP.
func throttleKey(r *http.Request) string {
	if owner := identity.OwnerIDFromContext(r.Context()); owner != "" {
		return owner
	}
	return identity.IPFromRequest(r)
}

// List returns all sessions, or only the caller's with ?scope=mine.
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	owner := ""
	if r.URL.Query().Get("scope") == "mine" {
		owner = identity.OwnerIDFromContext(r.Context())
	}
	sessions, err := h.svc.ListSessions(r.Context(), owner)
	if err != nil {
		writeServiceError(w, err, "list", "")
		return
	}
	JSON(w, http.StatusOK, sessions)
}

// Create stores a new pending session.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input domain.CreateSessionInput
	if err := decodeBody(w, r, &input); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	input.OwnerID = identity.OwnerIDFromContext(r.Context())

	sess, err := h.svc.CreateSession(r.Context(), input)
	if err != nil {
		writeServiceError(w, err, "create", "")
		return
	}
	JSON(w, http.StatusCreated, sess)
}

// Get returns one session.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, err := h.svc.GetSession(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "get", id)
		return
	}
	JSON(w, http.StatusOK, sess)
}

// Update edits the descriptive fields and flags of a session.
func (h *SessionHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var update domain.SessionUpdate
	if err := decodeBody(w, r, &update); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}
	sess, err := h.svc.UpdateSession(r.Context(), id, update)
	if err != nil {
		writeServiceError(w, err, "update", id)
		return
	}
	JSON(w, http.StatusOK, sess)
}

// Analyze runs the analysis to completion and returns the updated session.
func (h *SessionHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx := r.Context()
	if h.analyzeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.analyzeTimeout)
		defer cancel()
	}

	sess, err := h.svc.AnalyzeSession(ctx, id)
	if err != nil {
		writeServiceError(w, err, "analyze", id)
		return
	}
	JSON(w, http.StatusOK, sess)
}

// Delete removes a session.
func (h *SessionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	deleted, err := h.svc.DeleteSession(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "delete", id)
		return
	}
	if !deleted {
		Error(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Export returns the session as a JSON download.
func (h *SessionHandler) Export(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	export, err := h.svc.ExportSession(r.Context(), id)
	if err != nil {
		writeServiceError(w, err, "export", id)
		return
	}
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="session-%s.json"`, id))
	JSON(w, http.StatusOK, export)
}
