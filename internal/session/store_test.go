package session

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreContract exercises the Store contract against any implementation.
func runStoreContract(t *testing.T, newStore func(t *testing.T) Store) {
	ctx := context.Background()

	t.Run("create and get", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		created, err := store.Create(ctx, "c1", "Should I move to Berlin?")
		require.NoError(t, err)
		assert.Equal(t, StatusActive, created.Status)
		assert.Empty(t, created.Questions)

		got, err := store.Get(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, "Should I move to Berlin?", got.Decision)
	})

	t.Run("duplicate id rejected", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		_, err := store.Create(ctx, "c1", "decision text here")
		require.NoError(t, err)
		_, err = store.Create(ctx, "c1", "another decision")
		require.ErrorIs(t, err, ErrDuplicateSession)
	})

	t.Run("unknown id", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		_, err := store.Get(ctx, "missing")
		require.ErrorIs(t, err, ErrNotFound)
		_, err = store.AppendAnswer(ctx, "missing", "answer")
		require.ErrorIs(t, err, ErrNotFound)
		require.ErrorIs(t, store.Delete(ctx, "missing"), ErrNotFound)
	})

	t.Run("question answer ordering invariant", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		_, err := store.Create(ctx, "c1", "decision text here")
		require.NoError(t, err)

		// No question outstanding yet: answering must fail.
		_, err = store.AppendAnswer(ctx, "c1", "early answer")
		require.ErrorIs(t, err, ErrNoPendingQuestion)

		sess, err := store.AppendQuestion(ctx, "c1", "Why now?")
		require.NoError(t, err)
		assert.True(t, sess.PendingQuestion())

		// A second question before the answer violates the invariant.
		_, err = store.AppendQuestion(ctx, "c1", "What else?")
		require.ErrorIs(t, err, ErrQuestionPending)

		sess, err = store.AppendAnswer(ctx, "c1", "Because my lease is up.")
		require.NoError(t, err)
		assert.False(t, sess.PendingQuestion())
		assert.Equal(t, []string{"Why now?"}, sess.Questions)
		assert.Equal(t, []string{"Because my lease is up."}, sess.Answers)
	})

	t.Run("completed sessions are immutable", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		_, err := store.Create(ctx, "c1", "decision text here")
		require.NoError(t, err)
		_, err = store.AppendQuestion(ctx, "c1", "Why?")
		require.NoError(t, err)
		_, err = store.AppendAnswer(ctx, "c1", "Reasons.")
		require.NoError(t, err)

		sess, err := store.MarkCompleted(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, sess.Status)

		_, err = store.AppendQuestion(ctx, "c1", "One more?")
		require.ErrorIs(t, err, ErrSessionCompleted)
		_, err = store.AppendAnswer(ctx, "c1", "late answer")
		require.ErrorIs(t, err, ErrSessionCompleted)

		// Idempotent.
		sess, err = store.MarkCompleted(ctx, "c1")
		require.NoError(t, err)
		assert.Equal(t, StatusCompleted, sess.Status)
	})

	t.Run("delete", func(t *testing.T) {
		store := newStore(t)
		defer store.Close()

		_, err := store.Create(ctx, "c1", "decision text here")
		require.NoError(t, err)
		require.NoError(t, store.Delete(ctx, "c1"))
		_, err = store.Get(ctx, "c1")
		require.ErrorIs(t, err, ErrNotFound)

		// The id can be reused after eviction.
		_, err = store.Create(ctx, "c1", "a fresh decision")
		require.NoError(t, err)
	})
}

func TestMemoryStoreContract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		return NewMemoryStore()
	})
}

func TestSQLiteStoreContract(t *testing.T) {
	runStoreContract(t, func(t *testing.T) Store {
		store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "sessions.db"))
		require.NoError(t, err)
		return store
	})
}

func TestMemoryStoreConcurrentAnswers(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, err := store.Create(ctx, "c1", "decision text here")
	require.NoError(t, err)
	_, err = store.AppendQuestion(ctx, "c1", "Why?")
	require.NoError(t, err)

	// Many concurrent submissions for the same conversation: exactly one
	// may answer the single outstanding question.
	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = store.AppendAnswer(ctx, "c1", "mine")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else {
			require.ErrorIs(t, err, ErrNoPendingQuestion)
		}
	}
	assert.Equal(t, 1, succeeded)

	sess, err := store.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, sess.Answers, 1)
}

func TestSQLiteStorePersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "sessions.db")

	store, err := NewSQLiteStore(path)
	require.NoError(t, err)
	_, err = store.Create(ctx, "c1", "decision text here")
	require.NoError(t, err)
	_, err = store.AppendQuestion(ctx, "c1", "Why?")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path)
	require.NoError(t, err)
	defer reopened.Close()

	sess, err := reopened.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, []string{"Why?"}, sess.Questions)
	assert.True(t, sess.PendingQuestion())
}
