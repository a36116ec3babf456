package events

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"time"

	"github.com/ashureev/productlens/internal/domain"
	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
)

const writeTimeout = 5 * time.Second

// SessionGetter loads a session snapshot.
type SessionGetter interface {
	GetSession(ctx context.Context, id string) (*domain.Session, error)
}

// WebSocketHandler streams status events of one session. The first message
// is the current status; the stream ends after a terminal status.
type WebSocketHandler struct {
	sessions       SessionGetter
	broker         *Broker
	allowedOrigins []string
	isDev          bool
}

// NewWebSocketHandler creates a new WebSocket handler.
func NewWebSocketHandler(sessions SessionGetter, broker *Broker, allowedOrigins []string, isDev bool) *WebSocketHandler {
	return &WebSocketHandler{
		sessions:       sessions,
		broker:         broker,
		allowedOrigins: allowedOrigins,
		isDev:          isDev,
	}
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	sess, err := h.sessions.GetSession(r.Context(), sessionID)
	if errors.Is(err, domain.ErrNotFound) {
		http.Error(w, "session not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("Failed to load session for stream", "error", err, "session_id", sessionID)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	events, cancelSub := h.broker.Subscribe(sessionID)
	defer cancelSub()

	ws, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "session_id", sessionID)
		return
	}
	defer func() {
		if closeErr := ws.Close(websocket.StatusNormalClosure, "stream ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "session_id", sessionID)
		}
	}()

	// Clients only listen; CloseRead handles control frames and cancels ctx
	// when the peer goes away.
	ctx := ws.CloseRead(r.Context())

	snapshot := Event{SessionID: sess.ID, Status: sess.Status, At: sess.UpdatedAt}
	if err := writeJSON(ctx, ws, snapshot); err != nil {
		slog.Debug("Failed to send status snapshot", "error", err, "session_id", sessionID)
		return
	}
	if sess.Status.Terminal() {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := writeJSON(ctx, ws, ev); err != nil {
				slog.Debug("Failed to send status event", "error", err, "session_id", sessionID)
				return
			}
			if ev.Status.Terminal() {
				return
			}
		}
	}
}

func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || slices.Contains(h.allowedOrigins, "*") || slices.Contains(h.allowedOrigins, origin) {
		return true
	}
	slog.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.allowedOrigins)
	return false
}

func writeJSON(ctx context.Context, ws *websocket.Conn, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return ws.Write(ctx, websocket.MessageText, data)
}
