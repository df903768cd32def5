package session

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the default in-process Store.
//
// The map is guarded by a read-write mutex used only for entry lookup and
// insertion; each session carries its own mutex, so operations on different
// conversation ids never contend with each other while operations on the
// same id serialize.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*memoryEntry
}

type memoryEntry struct {
	mu   sync.Mutex
	sess *Session
}

// NewMemoryStore creates an empty in-memory session store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*memoryEntry),
	}
}

func (m *MemoryStore) Create(ctx context.Context, id, decision string) (*Session, error) {
	now := time.Now().UTC()
	entry := &memoryEntry{
		sess: &Session{
			ID:        id,
			Decision:  decision,
			Status:    StatusActive,
			CreatedAt: now,
			UpdatedAt: now,
		},
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[id]; exists {
		return nil, ErrDuplicateSession
	}
	m.sessions[id] = entry
	return entry.sess.Clone(), nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	entry, err := m.entry(id)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	return entry.sess.Clone(), nil
}

func (m *MemoryStore) AppendQuestion(ctx context.Context, id, text string) (*Session, error) {
	entry, err := m.entry(id)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.sess.Status == StatusCompleted {
		return nil, ErrSessionCompleted
	}
	if entry.sess.PendingQuestion() {
		return nil, ErrQuestionPending
	}
	entry.sess.Questions = append(entry.sess.Questions, text)
	entry.sess.UpdatedAt = time.Now().UTC()
	return entry.sess.Clone(), nil
}

func (m *MemoryStore) AppendAnswer(ctx context.Context, id, text string) (*Session, error) {
	entry, err := m.entry(id)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.sess.Status == StatusCompleted {
		return nil, ErrSessionCompleted
	}
	if !entry.sess.PendingQuestion() {
		return nil, ErrNoPendingQuestion
	}
	entry.sess.Answers = append(entry.sess.Answers, text)
	entry.sess.UpdatedAt = time.Now().UTC()
	return entry.sess.Clone(), nil
}

func (m *MemoryStore) MarkCompleted(ctx context.Context, id string) (*Session, error) {
	entry, err := m.entry(id)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()

	if entry.sess.Status != StatusCompleted {
		entry.sess.Status = StatusCompleted
		entry.sess.UpdatedAt = time.Now().UTC()
	}
	return entry.sess.Clone(), nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.sessions[id]; !exists {
		return ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *MemoryStore) Close() error {
	return nil
}

func (m *MemoryStore) entry(id string) (*memoryEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return entry, nil
}

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
