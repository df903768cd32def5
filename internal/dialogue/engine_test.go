package dialogue

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/decisiond/internal/provider"
	"github.com/fyrsmithlabs/decisiond/internal/session"
)

const testDecision = "Should I move to Berlin for the new role?"

// scriptedProvider returns queued responses in order, failing on entries
// whose text is empty. It records every prompt it receives.
type scriptedProvider struct {
	responses []scriptedResponse
	calls     []scriptedCall
}

type scriptedResponse struct {
	text string
	fail bool
}

type scriptedCall struct {
	role   provider.Role
	prompt string
}

func (p *scriptedProvider) Complete(ctx context.Context, role provider.Role, prompt string) (string, error) {
	p.calls = append(p.calls, scriptedCall{role: role, prompt: prompt})
	if len(p.responses) == 0 {
		return "", provider.ErrUnavailable
	}
	next := p.responses[0]
	p.responses = p.responses[1:]
	if next.fail {
		return "", provider.ErrUnavailable
	}
	return next.text, nil
}

func respond(texts ...string) []scriptedResponse {
	out := make([]scriptedResponse, len(texts))
	for i, t := range texts {
		out[i] = scriptedResponse{text: t}
	}
	return out
}

func newTestEngine(t *testing.T, prov provider.Provider, cfg Config) (*Engine, session.Store) {
	t.Helper()
	store := session.NewMemoryStore()
	engine, err := NewEngine(store, prov, zap.NewNop(), cfg)
	require.NoError(t, err)
	return engine, store
}

func TestStartAsksExactlyOneQuestion(t *testing.T) {
	prov := &scriptedProvider{responses: respond("Why Berlin specifically?")}
	engine, store := newTestEngine(t, prov, Config{})

	turn, err := engine.Start(context.Background(), "c1", testDecision)
	require.NoError(t, err)

	assert.Equal(t, "c1", turn.ConversationID)
	assert.Equal(t, "Why Berlin specifically?", turn.Question)
	assert.Equal(t, "What's driving this decision?", turn.Hint)
	assert.False(t, turn.IsFinal)

	sess, err := store.Get(context.Background(), "c1")
	require.NoError(t, err)
	assert.Len(t, sess.Questions, 1)
	assert.Empty(t, sess.Answers)
	assert.True(t, sess.PendingQuestion())
}

func TestStartGeneratesConversationID(t *testing.T) {
	prov := &scriptedProvider{responses: respond("Why?")}
	engine, _ := newTestEngine(t, prov, Config{})

	turn, err := engine.Start(context.Background(), "", testDecision)
	require.NoError(t, err)
	assert.NotEmpty(t, turn.ConversationID)
}

func TestStartValidatesDecisionLength(t *testing.T) {
	engine, store := newTestEngine(t, &scriptedProvider{}, Config{})

	_, err := engine.Start(context.Background(), "c1", "too short")
	require.ErrorIs(t, err, ErrDecisionLength)

	_, err = engine.Start(context.Background(), "c1", strings.Repeat("x", 1001))
	require.ErrorIs(t, err, ErrDecisionLength)

	// Rejected before any session exists.
	_, err = store.Get(context.Background(), "c1")
	require.ErrorIs(t, err, session.ErrNotFound)
}

func TestStartDuplicateConversation(t *testing.T) {
	prov := &scriptedProvider{responses: respond("Why?", "Why again?")}
	engine, _ := newTestEngine(t, prov, Config{})

	_, err := engine.Start(context.Background(), "c1", testDecision)
	require.NoError(t, err)
	_, err = engine.Start(context.Background(), "c1", testDecision)
	require.ErrorIs(t, err, session.ErrDuplicateSession)
}

func TestStartProviderFailureUsesFallback(t *testing.T) {
	prov := &scriptedProvider{responses: []scriptedResponse{{fail: true}}}
	engine, _ := newTestEngine(t, prov, Config{})

	turn, err := engine.Start(context.Background(), "c1", testDecision)
	require.NoError(t, err)
	assert.Equal(t, "Why is this decision important to you?", turn.Question)
	assert.False(t, turn.IsFinal)
}

func TestSubmitAnswerAsksFollowUpWithFullHistory(t *testing.T) {
	prov := &scriptedProvider{responses: respond("Why Berlin?", "What about the risk of a downturn?")}
	engine, _ := newTestEngine(t, prov, Config{})

	_, err := engine.Start(context.Background(), "c1", testDecision)
	require.NoError(t, err)

	turn, err := engine.SubmitAnswer(context.Background(), "c1", "The team is stronger there.")
	require.NoError(t, err)
	assert.Equal(t, "What about the risk of a downturn?", turn.Question)
	assert.Equal(t, "What worries you most?", turn.Hint)
	assert.False(t, turn.IsFinal)

	// The follow-up prompt carries the complete prior history verbatim.
	followUp := prov.calls[1]
	assert.Equal(t, provider.RoleCoach, followUp.role)
	assert.Contains(t, followUp.prompt, testDecision)
	assert.Contains(t, followUp.prompt, "Why Berlin?")
	assert.Contains(t, followUp.prompt, "The team is stronger there.")
}

func TestSubmitAnswerUnknownConversation(t *testing.T) {
	engine, _ := newTestEngine(t, &scriptedProvider{}, Config{})

	_, err := engine.SubmitAnswer(context.Background(), "missing", "an answer")
	require.ErrorIs(t, err, session.ErrNotFound)
}

func TestSubmitAnswerFallbackMidDialogue(t *testing.T) {
	prov := &scriptedProvider{responses: []scriptedResponse{
		{text: "Why Berlin?"},
		{fail: true},
	}}
	engine, _ := newTestEngine(t, prov, Config{})

	_, err := engine.Start(context.Background(), "c1", testDecision)
	require.NoError(t, err)

	turn, err := engine.SubmitAnswer(context.Background(), "c1", "Better pay.")
	require.NoError(t, err, "mid-dialogue provider failure must not surface")
	assert.Equal(t, "What else should you consider before deciding?", turn.Question)
	assert.False(t, turn.IsFinal)
}

func TestBudgetExhaustionFinalizesFreeText(t *testing.T) {
	prov := &scriptedProvider{responses: respond(
		"Q1?", "Q2?", "Q3?", // budget 3: Q3 asked after answer 2
		"Take the Berlin role. The upside dominates.",
	)}
	engine, store := newTestEngine(t, prov, Config{})

	_, err := engine.Start(context.Background(), "c1", testDecision)
	require.NoError(t, err)

	var turn *Turn
	for i, answer := range []string{"a1", "a2", "a3"} {
		turn, err = engine.SubmitAnswer(context.Background(), "c1", answer)
		require.NoError(t, err)
		sess, serr := store.Get(context.Background(), "c1")
		require.NoError(t, serr)
		assert.LessOrEqual(t, len(sess.Answers), engine.QuestionBudget())
		if i < 2 {
			assert.False(t, turn.IsFinal)
			assert.Equal(t, session.StatusActive, sess.Status)
		} else {
			assert.True(t, turn.IsFinal)
			assert.Equal(t, session.StatusCompleted, sess.Status)
		}
	}

	assert.Equal(t, "Take the Berlin role. The upside dominates.", turn.Recommendation)
	assert.Nil(t, turn.Analysis)

	// Final prompt went to the analyst with the full history.
	last := prov.calls[len(prov.calls)-1]
	assert.Equal(t, provider.RoleAnalyst, last.role)
	assert.Contains(t, last.prompt, "Q3?")
	assert.Contains(t, last.prompt, "a3")
}

func TestBudgetIsConfigurable(t *testing.T) {
	prov := &scriptedProvider{responses: respond("Q1?", "final advice text here")}
	engine, _ := newTestEngine(t, prov, Config{QuestionBudget: 1})

	_, err := engine.Start(context.Background(), "c1", testDecision)
	require.NoError(t, err)

	turn, err := engine.SubmitAnswer(context.Background(), "c1", "a1")
	require.NoError(t, err)
	assert.True(t, turn.IsFinal)
}

func TestCompletedSessionRejectsAnswers(t *testing.T) {
	prov := &scriptedProvider{responses: respond("Q1?", "final advice text here")}
	engine, store := newTestEngine(t, prov, Config{QuestionBudget: 1})

	_, err := engine.Start(context.Background(), "c1", testDecision)
	require.NoError(t, err)
	_, err = engine.SubmitAnswer(context.Background(), "c1", "a1")
	require.NoError(t, err)

	before, err := store.Get(context.Background(), "c1")
	require.NoError(t, err)

	_, err = engine.SubmitAnswer(context.Background(), "c1", "late answer")
	require.ErrorIs(t, err, session.ErrSessionCompleted)

	// No state mutated by the rejected submission.
	after, err := store.Get(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, before.Questions, after.Questions)
	assert.Equal(t, before.Answers, after.Answers)
}

func TestFinalizationFailureIsSurfaced(t *testing.T) {
	prov := &scriptedProvider{responses: []scriptedResponse{
		{text: "Q1?"},
		{fail: true}, // analyst call fails
	}}
	engine, store := newTestEngine(t, prov, Config{QuestionBudget: 1})

	_, err := engine.Start(context.Background(), "c1", testDecision)
	require.NoError(t, err)

	_, err = engine.SubmitAnswer(context.Background(), "c1", "a1")
	require.ErrorIs(t, err, ErrAnalysisUnavailable)

	// The session still completed; the dialogue is over either way.
	sess, err := store.Get(context.Background(), "c1")
	require.NoError(t, err)
	assert.Equal(t, session.StatusCompleted, sess.Status)
}

func TestFinalizationStructuredAnalysis(t *testing.T) {
	structured := `{
		"options": ["stay", "move"],
		"criteria": [{"name": "cost", "weight": 0.6}, {"name": "growth", "weight": 0.4}],
		"scores": [
			{"option": "stay", "scores": [8, 4], "total_score": 99},
			{"option": "move", "scores": [7, 9], "total_score": 0}
		],
		"recommendation": "move, the growth outlook is stronger",
		"confidence": 10
	}`
	prov := &scriptedProvider{responses: respond("Q1?", structured)}
	engine, _ := newTestEngine(t, prov, Config{QuestionBudget: 1})

	_, err := engine.Start(context.Background(), "c1", testDecision)
	require.NoError(t, err)

	turn, err := engine.SubmitAnswer(context.Background(), "c1", "a1")
	require.NoError(t, err)
	require.True(t, turn.IsFinal)
	require.NotNil(t, turn.Analysis)

	// Totals recomputed: stay = 8*0.6+4*0.4 = 6.4, move = 7*0.6+9*0.4 = 7.8.
	assert.Equal(t, "move", turn.Analysis.Scores[0].Option)
	assert.InDelta(t, 7.8, turn.Analysis.Scores[0].TotalScore, 1e-9)
	assert.InDelta(t, 6.4, turn.Analysis.Scores[1].TotalScore, 1e-9)

	// Confidence derived from separation, not the provider's claim:
	// clamp(70 + 1.4) truncated = 71.
	assert.Equal(t, 71, turn.Analysis.Confidence)
	assert.Equal(t, "move, the growth outlook is stronger", turn.Recommendation)
	assert.Equal(t, testDecision, turn.Analysis.Decision)
}

func TestFinalizationUnscorableStructuredFallsBackToFreeText(t *testing.T) {
	// Parses as JSON but score lengths do not match the criteria.
	malformed := `{
		"options": ["stay", "move"],
		"criteria": [{"name": "cost", "weight": 0.6}, {"name": "growth", "weight": 0.4}],
		"scores": [{"option": "stay", "scores": [8]}],
		"recommendation": "stay"
	}`
	prov := &scriptedProvider{responses: respond("Q1?", malformed)}
	engine, _ := newTestEngine(t, prov, Config{QuestionBudget: 1})

	_, err := engine.Start(context.Background(), "c1", testDecision)
	require.NoError(t, err)

	turn, err := engine.SubmitAnswer(context.Background(), "c1", "a1")
	require.NoError(t, err)
	assert.True(t, turn.IsFinal)
	assert.Nil(t, turn.Analysis)
	assert.NotEmpty(t, turn.Recommendation)
}

func TestEvict(t *testing.T) {
	prov := &scriptedProvider{responses: respond("Q1?")}
	engine, store := newTestEngine(t, prov, Config{})

	_, err := engine.Start(context.Background(), "c1", testDecision)
	require.NoError(t, err)

	require.NoError(t, engine.Evict(context.Background(), "c1"))
	_, err = store.Get(context.Background(), "c1")
	require.ErrorIs(t, err, session.ErrNotFound)

	require.ErrorIs(t, engine.Evict(context.Background(), "c1"), session.ErrNotFound)
}

func TestNewEngineValidation(t *testing.T) {
	store := session.NewMemoryStore()
	prov := &scriptedProvider{}

	_, err := NewEngine(nil, prov, zap.NewNop(), Config{})
	require.Error(t, err)
	_, err = NewEngine(store, nil, zap.NewNop(), Config{})
	require.Error(t, err)
	_, err = NewEngine(store, prov, nil, Config{})
	require.Error(t, err)
	_, err = NewEngine(store, prov, zap.NewNop(), Config{QuestionBudget: -1})
	require.Error(t, err)
}
