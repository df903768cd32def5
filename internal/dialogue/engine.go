package dialogue

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/decisiond/internal/prompt"
	"github.com/fyrsmithlabs/decisiond/internal/provider"
	"github.com/fyrsmithlabs/decisiond/internal/scoring"
	"github.com/fyrsmithlabs/decisiond/internal/session"
)

// Service is the dialogue contract exposed to transports.
type Service interface {
	// Start begins a session and returns the first question.
	Start(ctx context.Context, conversationID, decision string) (*Turn, error)
	// SubmitAnswer records an answer and returns the next question or,
	// once the question budget is reached, the final recommendation.
	SubmitAnswer(ctx context.Context, conversationID, answer string) (*Turn, error)
	// Evict removes a session. Hook for external expiry policies.
	Evict(ctx context.Context, conversationID string) error
}

// Config holds engine tunables.
type Config struct {
	// QuestionBudget is the number of answers collected before
	// finalization. Defaults to DefaultQuestionBudget.
	QuestionBudget int
	// Fallback substitutes question text when the provider fails during
	// the questioning phase. Defaults to DefaultFallbacks.
	Fallback FallbackPolicy
}

// Engine orchestrates sessions, prompts, the reasoning provider, and
// scoring.
//
// Provider calls are made outside any session lock: the engine appends
// state through the store, releases, calls the provider, then re-appends.
// The store's per-id serialization and invariant checks keep concurrent
// submissions for one conversation from corrupting the history.
type Engine struct {
	store    session.Store
	provider provider.Provider
	fallback FallbackPolicy
	budget   int
	logger   *zap.Logger
	metrics  *Metrics
}

// NewEngine creates a dialogue engine.
func NewEngine(store session.Store, prov provider.Provider, logger *zap.Logger, cfg Config) (*Engine, error) {
	if store == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if prov == nil {
		return nil, fmt.Errorf("reasoning provider is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	budget := cfg.QuestionBudget
	if budget == 0 {
		budget = DefaultQuestionBudget
	}
	if budget < 1 {
		return nil, fmt.Errorf("question budget must be >= 1, got %d", budget)
	}

	fallback := cfg.Fallback
	if fallback == nil {
		fallback = DefaultFallbacks
	}

	return &Engine{
		store:    store,
		provider: prov,
		fallback: fallback,
		budget:   budget,
		logger:   logger,
	}, nil
}

// WithMetrics attaches engine metrics. Returns the engine for chaining.
func (e *Engine) WithMetrics(m *Metrics) *Engine {
	e.metrics = m
	return e
}

// QuestionBudget returns the configured budget.
func (e *Engine) QuestionBudget() int {
	return e.budget
}

// Start validates the decision text, creates the session, and asks the
// opening question. A missing conversation id is filled with a generated
// one. Provider failure here yields the first-question fallback, never an
// error: the conversation must not stall on an external failure.
func (e *Engine) Start(ctx context.Context, conversationID, decision string) (*Turn, error) {
	decision = strings.TrimSpace(decision)
	if n := utf8.RuneCountInString(decision); n < MinDecisionLen || n > MaxDecisionLen {
		return nil, ErrDecisionLength
	}

	if conversationID == "" {
		conversationID = uuid.NewString()
	}

	if _, err := e.store.Create(ctx, conversationID, decision); err != nil {
		return nil, err
	}
	e.metrics.recordStart(ctx)

	question := e.askQuestion(ctx, PhaseFirstQuestion, prompt.FirstQuestion(decision))
	if _, err := e.store.AppendQuestion(ctx, conversationID, question); err != nil {
		return nil, err
	}

	e.logger.Info("dialogue started",
		zap.String("conversation_id", conversationID),
		zap.Int("question_budget", e.budget),
	)

	return &Turn{
		ConversationID: conversationID,
		Question:       question,
		Hint:           Hint(question),
	}, nil
}

// SubmitAnswer appends the answer and either asks the next question or,
// when the budget is exhausted, finalizes the recommendation.
func (e *Engine) SubmitAnswer(ctx context.Context, conversationID, answer string) (*Turn, error) {
	sess, err := e.store.AppendAnswer(ctx, conversationID, strings.TrimSpace(answer))
	if err != nil {
		return nil, err
	}

	if len(sess.Answers) >= e.budget {
		if _, err := e.store.MarkCompleted(ctx, conversationID); err != nil {
			return nil, err
		}
		e.metrics.recordCompleted(ctx)
		e.logger.Info("dialogue completed",
			zap.String("conversation_id", conversationID),
			zap.Int("answers", len(sess.Answers)),
		)
		return e.finalize(ctx, sess)
	}

	question := e.askQuestion(ctx, PhaseFollowUp, prompt.FollowUp(sess.Decision, exchanges(sess)))
	if _, err := e.store.AppendQuestion(ctx, conversationID, question); err != nil {
		return nil, err
	}

	return &Turn{
		ConversationID: conversationID,
		Question:       question,
		Hint:           Hint(question),
	}, nil
}

// Evict removes a session from the store.
func (e *Engine) Evict(ctx context.Context, conversationID string) error {
	return e.store.Delete(ctx, conversationID)
}

// askQuestion requests a question from the provider, substituting the
// phase's fallback on any failure or blank completion.
func (e *Engine) askQuestion(ctx context.Context, phase Phase, p string) string {
	text, err := e.provider.Complete(ctx, provider.RoleCoach, p)
	if err != nil {
		e.logger.Warn("provider failed during questioning, using fallback",
			zap.Int("phase", int(phase)),
			zap.Error(err),
		)
		e.metrics.recordFallback(ctx, phase)
		return e.fallback(phase)
	}
	if text = strings.TrimSpace(text); text == "" {
		e.metrics.recordFallback(ctx, phase)
		return e.fallback(phase)
	}
	return text
}

// finalize requests the terminal analysis and shapes the final turn.
//
// Structured responses go through the scoring engine; anything else is
// returned verbatim as a free-text recommendation. A provider failure is
// surfaced as ErrAnalysisUnavailable: unlike questions, a recommendation is
// never substituted.
func (e *Engine) finalize(ctx context.Context, sess *session.Session) (*Turn, error) {
	raw, err := e.provider.Complete(ctx, provider.RoleAnalyst, prompt.FinalAnalysis(sess.Decision, exchanges(sess)))
	if err != nil {
		e.metrics.recordAnalysis(ctx, "failed")
		e.logger.Error("provider failed during finalization",
			zap.String("conversation_id", sess.ID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("%w: %v", ErrAnalysisUnavailable, err)
	}

	analysis, perr := scoring.Parse(raw)
	if perr != nil {
		// Free-text output mode: the provider's own words, verbatim.
		e.metrics.recordAnalysis(ctx, "freetext")
		return &Turn{
			ConversationID: sess.ID,
			IsFinal:        true,
			Recommendation: strings.TrimSpace(raw),
		}, nil
	}

	if analysis.Decision == "" {
		analysis.Decision = sess.Decision
	}
	if err := scoring.Finalize(analysis); err != nil {
		// Structured on the surface but unscorable: degrade to the
		// free-text mode rather than discard the provider's output.
		e.logger.Warn("structured analysis failed validation, returning free text",
			zap.String("conversation_id", sess.ID),
			zap.Error(err),
		)
		e.metrics.recordAnalysis(ctx, "freetext")
		return &Turn{
			ConversationID: sess.ID,
			IsFinal:        true,
			Recommendation: strings.TrimSpace(raw),
		}, nil
	}

	e.metrics.recordAnalysis(ctx, "structured")
	return &Turn{
		ConversationID: sess.ID,
		IsFinal:        true,
		Recommendation: analysis.Recommendation,
		Analysis:       analysis,
	}, nil
}

// exchanges pairs the session's questions with their answers, dropping any
// trailing unanswered question.
func exchanges(sess *session.Session) []prompt.Exchange {
	n := len(sess.Answers)
	out := make([]prompt.Exchange, 0, n)
	for i := 0; i < n && i < len(sess.Questions); i++ {
		out = append(out, prompt.Exchange{
			Question: sess.Questions[i],
			Answer:   sess.Answers[i],
		})
	}
	return out
}

// Ensure Engine implements Service.
var _ Service = (*Engine)(nil)
