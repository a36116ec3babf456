package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/ashureev/productlens/internal/domain"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const (
	writeMaxRetries     = 3
	writeRetryBaseDelay = 50 * time.Millisecond
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db      *sql.DB
	writeMu sync.Mutex // serializes read-modify-write updates
	now     func() time.Time

	// afterRead runs inside Update between the read and the write.
	afterRead func(id string)
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL DEFAULT '',
		title TEXT NOT NULL,
		description TEXT,
		product_input TEXT NOT NULL,
		industry TEXT,
		urgency TEXT,
		include_market_research INTEGER NOT NULL DEFAULT 1,
		generate_prd INTEGER NOT NULL DEFAULT 1,
		wireframe_guidance INTEGER NOT NULL DEFAULT 1,
		status TEXT NOT NULL DEFAULT 'pending',
		results_json TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_owner_created ON sessions(owner_id, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_sessions_status_updated ON sessions(status, updated_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

const sessionColumns = `id, owner_id, title, description, product_input, industry, urgency,
	include_market_research, generate_prd, wireframe_guidance, status, results_json,
	created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*domain.Session, error) {
	var sess domain.Session
	var description, industry, urgency, resultsJSON sql.NullString
	var status string
	var createdAt, updatedAt int64
	var marketResearch, prd, wireframe bool
	if err := row.Scan(
		&sess.ID, &sess.OwnerID, &sess.Title, &description, &sess.ProductInput, &industry, &urgency,
		&marketResearch, &prd, &wireframe, &status, &resultsJSON,
		&createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}

	sess.Description = nullToPtr(description)
	sess.Industry = nullToPtr(industry)
	sess.Urgency = nullToPtr(urgency)
	sess.IncludeMarketResearch = marketResearch
	sess.GeneratePRD = prd
	sess.WireframeGuidance = wireframe
	sess.Status = domain.Status(status)
	sess.CreatedAt = time.Unix(0, createdAt)
	sess.UpdatedAt = time.Unix(0, updatedAt)

	if resultsJSON.Valid && resultsJSON.String != "" {
		var results domain.AnalysisResult
		if err := json.Unmarshal([]byte(resultsJSON.String), &results); err != nil {
			return nil, fmt.Errorf("decode results for %s: %w", sess.ID, err)
		}
		results.Normalize()
		sess.Results = &results
	}
	return &sess, nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Get retrieves a session by id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)
	sess, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan session row: %w", err)
	}
	return sess, nil
}

// ListByOwner returns sessions newest first.
func (s *SQLiteStore) ListByOwner(ctx context.Context, owner string) ([]*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions`
	var args []any
	if owner != "" {
		query += ` WHERE owner_id = ?`
		args = append(args, owner)
	}
	query += ` ORDER BY created_at DESC, id ASC`
	return s.query(ctx, "list sessions", query, args...)
}

// ListStale returns sessions in status last updated before cutoff.
func (s *SQLiteStore) ListStale(ctx context.Context, status domain.Status, cutoff time.Time) ([]*domain.Session, error) {
	query := `SELECT ` + sessionColumns + ` FROM sessions WHERE status = ? AND updated_at < ?`
	return s.query(ctx, "list stale sessions", query, string(status), cutoff.UnixNano())
}

func (s *SQLiteStore) query(ctx context.Context, op, query string, args ...any) ([]*domain.Session, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close session rows", "op", op, "error", closeErr)
		}
	}()

	out := make([]*domain.Session, 0)
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		out = append(out, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: iterate: %w", op, err)
	}
	return out, nil
}

// Create stores a new pending session.
func (s *SQLiteStore) Create(ctx context.Context, input domain.CreateSessionInput) (*domain.Session, error) {
	sess := newSession(uuid.NewString(), input, s.now())

	err := withRetry(ctx, "create session", func() error {
		_, err := s.db.ExecContext(ctx, `INSERT INTO sessions (`+sessionColumns+`)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`, sessionArgs(sess, nil)...)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	return sess, nil
}

// Update merges update into the stored session.
func (s *SQLiteStore) Update(ctx context.Context, id string, update domain.SessionUpdate) (*domain.Session, error) {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	sess, err := s.Get(ctx, id)
	if err != nil || sess == nil {
		return nil, err
	}
	update.Apply(sess, s.now())
	if s.afterRead != nil {
		s.afterRead(id)
	}

	var resultsJSON any
	if sess.Results != nil {
		data, err := json.Marshal(sess.Results)
		if err != nil {
			return nil, fmt.Errorf("encode results: %w", err)
		}
		resultsJSON = string(data)
	}

	var rows int64
	err = withRetry(ctx, "update session", func() error {
		res, err := s.db.ExecContext(ctx, `UPDATE sessions SET
			title = ?, description = ?, product_input = ?, industry = ?, urgency = ?,
			include_market_research = ?, generate_prd = ?, wireframe_guidance = ?,
			status = ?, results_json = ?, updated_at = ?
			WHERE id = ?`,
			sess.Title, ptrToNull(sess.Description), sess.ProductInput,
			ptrToNull(sess.Industry), ptrToNull(sess.Urgency),
			sess.IncludeMarketResearch, sess.GeneratePRD, sess.WireframeGuidance,
			string(sess.Status), resultsJSON, sess.UpdatedAt.UnixNano(), id,
		)
		if err != nil {
			return err
		}
		rows, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("update session: %w", err)
	}
	if rows == 0 {
		return nil, nil
	}
	return sess, nil
}

// Delete removes a session.
func (s *SQLiteStore) Delete(ctx context.Context, id string) (bool, error) {
	var rows int64
	err := withRetry(ctx, "delete session", func() error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
		if err != nil {
			return err
		}
		rows, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return false, fmt.Errorf("delete session: %w", err)
	}
	return rows > 0, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

func sessionArgs(sess *domain.Session, resultsJSON any) []any {
	return []any{
		sess.ID, sess.OwnerID, sess.Title, ptrToNull(sess.Description), sess.ProductInput,
		ptrToNull(sess.Industry), ptrToNull(sess.Urgency),
		sess.IncludeMarketResearch, sess.GeneratePRD, sess.WireframeGuidance,
		string(sess.Status), resultsJSON,
		sess.CreatedAt.UnixNano(), sess.UpdatedAt.UnixNano(),
	}
}

// withRetry retries fn with exponential backoff on SQLITE_BUSY or locked errors.
func withRetry(ctx context.Context, op string, fn func() error) error {
	var err error
	for i := 0; i < writeMaxRetries; i++ {
		err = fn()
		if err == nil || !isConflictError(err) {
			return err
		}
		if i == writeMaxRetries-1 {
			break
		}
		delay := writeRetryBaseDelay * time.Duration(1<<i) // 50ms, 100ms
		slog.Debug("Database locked, retrying", "op", op, "attempt", i+1, "delay", delay)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("%s after %d attempts: %w", op, writeMaxRetries, err)
}

// isConflictError reports SQLite concurrency errors that warrant a retry.
func isConflictError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func nullToPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}

func ptrToNull(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

var _ Repository = (*SQLiteStore)(nil)
