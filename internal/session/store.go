// Package session holds per-conversation dialogue state.
//
// A Session records the decision under discussion, the ordered question and
// answer history, and the lifecycle status. The Store contract guarantees the
// core invariant len(Questions)-len(Answers) ∈ {0, 1}: the engine never has
// more than one outstanding unanswered question. Every mutator revalidates
// the invariant before applying, so a corrupted sequence of calls fails fast
// instead of silently skewing the history.
package session

import (
	"context"
	"errors"
	"time"
)

// Status is the lifecycle state of a session.
type Status string

const (
	// StatusActive means the dialogue is still collecting answers.
	StatusActive Status = "active"
	// StatusCompleted means the question budget is exhausted. Completed
	// sessions are immutable; the transition is monotonic.
	StatusCompleted Status = "completed"
)

var (
	// ErrNotFound indicates an unknown conversation id.
	ErrNotFound = errors.New("session not found")
	// ErrDuplicateSession indicates Create was called with an id that
	// already exists. Restarting a conversation requires Delete first.
	ErrDuplicateSession = errors.New("session already exists")
	// ErrSessionCompleted indicates a mutation was attempted on a
	// completed session.
	ErrSessionCompleted = errors.New("session already completed")
	// ErrNoPendingQuestion indicates AppendAnswer was called while no
	// question is outstanding. Two concurrent submissions for the same
	// conversation resolve this way: exactly one wins.
	ErrNoPendingQuestion = errors.New("no pending question to answer")
	// ErrQuestionPending indicates AppendQuestion was called while a
	// previous question is still unanswered.
	ErrQuestionPending = errors.New("a question is already pending")
)

// Session is one decision-dialogue instance, keyed by a caller-supplied
// conversation id. The id is an opaque untrusted key.
type Session struct {
	ID        string    `json:"id"`
	Decision  string    `json:"decision"`
	Questions []string  `json:"questions"`
	Answers   []string  `json:"answers"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PendingQuestion reports whether a question is awaiting an answer.
func (s *Session) PendingQuestion() bool {
	return len(s.Questions) > len(s.Answers)
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (s *Session) Clone() *Session {
	cp := *s
	cp.Questions = append([]string(nil), s.Questions...)
	cp.Answers = append([]string(nil), s.Answers...)
	return &cp
}

// Store is the session persistence contract consumed by the dialogue engine.
//
// Implementations must serialize operations on the same conversation id.
// Operations on distinct ids should not contend (the memory store guarantees
// this; see the sqlite store's note on its single-writer model).
type Store interface {
	// Create registers a new session. Fails with ErrDuplicateSession if
	// the id already exists.
	Create(ctx context.Context, id, decision string) (*Session, error)

	// Get returns a copy of the session or ErrNotFound.
	Get(ctx context.Context, id string) (*Session, error)

	// AppendQuestion records the next question. Fails with
	// ErrQuestionPending if one is already outstanding, or
	// ErrSessionCompleted on a completed session.
	AppendQuestion(ctx context.Context, id, text string) (*Session, error)

	// AppendAnswer records the answer to the outstanding question. Fails
	// with ErrNoPendingQuestion if none is outstanding, or
	// ErrSessionCompleted on a completed session.
	AppendAnswer(ctx context.Context, id, text string) (*Session, error)

	// MarkCompleted transitions the session to StatusCompleted. The
	// transition is idempotent.
	MarkCompleted(ctx context.Context, id string) (*Session, error)

	// Delete removes a session. Eviction hook for external expiry
	// policies; deleting an unknown id returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Close releases store resources.
	Close() error
}
