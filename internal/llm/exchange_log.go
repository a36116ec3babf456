package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"
)

// ExchangeLogConfig controls the NDJSON exchange log.
type ExchangeLogConfig struct {
	Enabled   bool
	Dir       string
	QueueSize int
}

// Exchange is one prompt/response pair written to the log.
type Exchange struct {
	Timestamp  time.Time `json:"ts"`
	SessionID  string    `json:"session_id"`
	Kind       string    `json:"kind"`
	System     string    `json:"system"`
	User       string    `json:"user"`
	Response   string    `json:"response,omitempty"`
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"duration_ms"`
}

// ExchangeLogger records exchanges. Log must never block the caller.
type ExchangeLogger interface {
	Log(ex Exchange)
	Close() error
}

// NewExchangeLogger returns a file-backed logger, or a no-op logger when
// logging is disabled.
func NewExchangeLogger(cfg ExchangeLogConfig, logger *slog.Logger) (ExchangeLogger, error) {
	if !cfg.Enabled {
		return noopExchangeLogger{}, nil
	}
	if cfg.Dir == "" {
		return nil, fmt.Errorf("exchange log dir is required")
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("create exchange log dir: %w", err)
	}

	l := &fileExchangeLogger{
		dir:    cfg.Dir,
		queue:  make(chan Exchange, cfg.QueueSize),
		logger: logger,
		done:   make(chan struct{}),
	}
	go l.run()
	return l, nil
}

type fileExchangeLogger struct {
	dir    string
	queue  chan Exchange
	logger *slog.Logger

	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
	done      chan struct{}
}

func (l *fileExchangeLogger) Log(ex Exchange) {
	if ex.Timestamp.IsZero() {
		ex.Timestamp = time.Now().UTC()
	}

	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return
	}
	select {
	case l.queue <- ex:
	default:
		l.logger.Warn("Exchange log queue full, dropping event",
			"session_id", ex.SessionID, "kind", ex.Kind)
	}
}

func (l *fileExchangeLogger) Close() error {
	l.closeOnce.Do(func() {
		l.mu.Lock()
		l.closed = true
		close(l.queue)
		l.mu.Unlock()
	})
	<-l.done
	return nil
}

func (l *fileExchangeLogger) run() {
	defer close(l.done)
	for ex := range l.queue {
		if err := l.write(ex); err != nil {
			l.logger.Warn("Failed to write exchange log",
				"session_id", ex.SessionID, "kind", ex.Kind, "error", err)
		}
	}
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

func (l *fileExchangeLogger) write(ex Exchange) error {
	name := unsafeFileChars.ReplaceAllString(ex.SessionID, "_")
	if name == "" {
		name = "unknown"
	}
	path := filepath.Join(l.dir, name+".ndjson")

	line, err := json.Marshal(ex)
	if err != nil {
		return fmt.Errorf("encode exchange: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil {
			l.logger.Warn("Failed to close exchange log file", "path", path, "error", closeErr)
		}
	}()
	if _, err := f.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("append %s: %w", path, err)
	}
	return nil
}

type noopExchangeLogger struct{}

func (noopExchangeLogger) Log(Exchange) {}
func (noopExchangeLogger) Close() error { return nil }

// WithExchangeLog wraps c so that every call is recorded in log.
func WithExchangeLog(c Completer, log ExchangeLogger) Completer {
	if log == nil {
		return c
	}
	return CompleterFunc(func(ctx context.Context, req Request) (string, error) {
		start := time.Now()
		out, err := c.Complete(ctx, req)
		ex := Exchange{
			Timestamp:  start.UTC(),
			SessionID:  req.SessionID,
			Kind:       req.Kind,
			System:     req.System,
			User:       req.User,
			Response:   out,
			DurationMs: time.Since(start).Milliseconds(),
		}
		if err != nil {
			ex.Error = err.Error()
		}
		log.Log(ex)
		return out, err
	})
}
