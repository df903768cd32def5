package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists sessions in an embedded sqlite database, for
// deployments that must survive restarts. The contract and error set are
// identical to MemoryStore.
//
// sqlite has a single writer, so mutations on distinct conversation ids do
// serialize at the database level. The connection pool is capped at one
// connection to avoid SQLITE_BUSY under concurrent load; each mutator is a
// read-modify-write transaction, which also serializes same-id operations.
type SQLiteStore struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	decision   TEXT NOT NULL,
	questions  TEXT NOT NULL DEFAULT '[]',
	answers    TEXT NOT NULL DEFAULT '[]',
	status     TEXT NOT NULL DEFAULT 'active',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
`

// NewSQLiteStore opens (creating if needed) the sqlite database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating store directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Create(ctx context.Context, id, decision string) (*Session, error) {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, decision, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, decision, string(StatusActive), now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateSession
		}
		return nil, fmt.Errorf("inserting session: %w", err)
	}
	return &Session{
		ID:        id,
		Decision:  decision,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*Session, error) {
	return s.get(ctx, s.db, id)
}

func (s *SQLiteStore) AppendQuestion(ctx context.Context, id, text string) (*Session, error) {
	return s.mutate(ctx, id, func(sess *Session) error {
		if sess.Status == StatusCompleted {
			return ErrSessionCompleted
		}
		if sess.PendingQuestion() {
			return ErrQuestionPending
		}
		sess.Questions = append(sess.Questions, text)
		return nil
	})
}

func (s *SQLiteStore) AppendAnswer(ctx context.Context, id, text string) (*Session, error) {
	return s.mutate(ctx, id, func(sess *Session) error {
		if sess.Status == StatusCompleted {
			return ErrSessionCompleted
		}
		if !sess.PendingQuestion() {
			return ErrNoPendingQuestion
		}
		sess.Answers = append(sess.Answers, text)
		return nil
	})
}

func (s *SQLiteStore) MarkCompleted(ctx context.Context, id string) (*Session, error) {
	return s.mutate(ctx, id, func(sess *Session) error {
		sess.Status = StatusCompleted
		return nil
	})
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *SQLiteStore) get(ctx context.Context, q querier, id string) (*Session, error) {
	var (
		sess                 Session
		questions, answers   string
		createdAt, updatedAt string
	)
	err := q.QueryRowContext(ctx,
		`SELECT id, decision, questions, answers, status, created_at, updated_at FROM sessions WHERE id = ?`, id,
	).Scan(&sess.ID, &sess.Decision, &questions, &answers, (*string)(&sess.Status), &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}

	if err := json.Unmarshal([]byte(questions), &sess.Questions); err != nil {
		return nil, fmt.Errorf("decoding questions: %w", err)
	}
	if err := json.Unmarshal([]byte(answers), &sess.Answers); err != nil {
		return nil, fmt.Errorf("decoding answers: %w", err)
	}
	if sess.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("decoding created_at: %w", err)
	}
	if sess.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("decoding updated_at: %w", err)
	}
	return &sess, nil
}

// mutate runs a read-modify-write transaction against one session.
func (s *SQLiteStore) mutate(ctx context.Context, id string, apply func(*Session) error) (*Session, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	sess, err := s.get(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if err := apply(sess); err != nil {
		return nil, err
	}
	sess.UpdatedAt = time.Now().UTC()

	questions, err := json.Marshal(sess.Questions)
	if err != nil {
		return nil, fmt.Errorf("encoding questions: %w", err)
	}
	answers, err := json.Marshal(sess.Answers)
	if err != nil {
		return nil, fmt.Errorf("encoding answers: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`UPDATE sessions SET questions = ?, answers = ?, status = ?, updated_at = ? WHERE id = ?`,
		string(questions), string(answers), string(sess.Status),
		sess.UpdatedAt.Format(time.RFC3339Nano), id,
	)
	if err != nil {
		return nil, fmt.Errorf("updating session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing transaction: %w", err)
	}
	return sess, nil
}

// isUniqueViolation reports whether err is a primary-key conflict.
func isUniqueViolation(err error) bool {
	// modernc.org/sqlite reports constraint failures in the error text;
	// it does not export a stable error type for them.
	return err != nil && strings.Contains(err.Error(), "constraint failed")
}

// Ensure SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)
