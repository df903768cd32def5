package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/decisiond/internal/config"
)

// fakeModel scripts llms.Model behavior for gateway tests.
type fakeModel struct {
	response string
	err      error
	choices  int

	gotMessages []llms.MessageContent
}

func (f *fakeModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, opts ...llms.CallOption) (*llms.ContentResponse, error) {
	f.gotMessages = messages
	if f.err != nil {
		return nil, f.err
	}
	choices := f.choices
	if choices == 0 {
		choices = 1
	}
	resp := &llms.ContentResponse{}
	for i := 0; i < choices; i++ {
		resp.Choices = append(resp.Choices, &llms.ContentChoice{Content: f.response})
	}
	return resp, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, opts ...llms.CallOption) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

func testConfig() config.ProviderConfig {
	return config.ProviderConfig{
		Backend:     "openai",
		Model:       "test-model",
		Timeout:     5 * time.Second,
		Temperature: 0.7,
		RateLimit:   100,
		Burst:       100,
	}
}

func TestCompleteReturnsTrimmedText(t *testing.T) {
	model := &fakeModel{response: "  Why is this decision important to you?\n"}
	g := NewWithModel(model, testConfig(), zap.NewNop())

	got, err := g.Complete(context.Background(), RoleCoach, "prompt")
	require.NoError(t, err)
	assert.Equal(t, "Why is this decision important to you?", got)
}

func TestCompleteSendsRoleSystemPrompt(t *testing.T) {
	model := &fakeModel{response: "ok"}
	g := NewWithModel(model, testConfig(), zap.NewNop())

	_, err := g.Complete(context.Background(), RoleAnalyst, "analyze this")
	require.NoError(t, err)

	require.Len(t, model.gotMessages, 2)
	assert.Equal(t, schema.ChatMessageTypeSystem, model.gotMessages[0].Role)
	assert.Equal(t, schema.ChatMessageTypeHuman, model.gotMessages[1].Role)

	sys, ok := model.gotMessages[0].Parts[0].(llms.TextContent)
	require.True(t, ok)
	assert.Contains(t, sys.Text, "decision analyst")

	_, err = g.Complete(context.Background(), RoleCoach, "ask something")
	require.NoError(t, err)
	sys, ok = model.gotMessages[0].Parts[0].(llms.TextContent)
	require.True(t, ok)
	assert.Contains(t, sys.Text, "decision-making coach")
}

func TestCompleteWrapsFailures(t *testing.T) {
	model := &fakeModel{err: errors.New("boom")}
	g := NewWithModel(model, testConfig(), zap.NewNop())

	_, err := g.Complete(context.Background(), RoleCoach, "prompt")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestCompleteEmptyChoicesIsUnavailable(t *testing.T) {
	model := &fakeModel{choices: -1} // GenerateContent returns zero choices
	g := NewWithModel(model, testConfig(), zap.NewNop())

	_, err := g.Complete(context.Background(), RoleCoach, "prompt")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestCompleteBlankCompletionIsUnavailable(t *testing.T) {
	model := &fakeModel{response: "   \n "}
	g := NewWithModel(model, testConfig(), zap.NewNop())

	_, err := g.Complete(context.Background(), RoleCoach, "prompt")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestCompleteCancelledContext(t *testing.T) {
	model := &fakeModel{response: "ok"}
	cfg := testConfig()
	cfg.RateLimit = 0.0001 // force the limiter to block
	cfg.Burst = 1
	g := NewWithModel(model, cfg, zap.NewNop())

	// Drain the single burst token.
	_, err := g.Complete(context.Background(), RoleCoach, "first")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = g.Complete(ctx, RoleCoach, "second")
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	cfg := testConfig()
	cfg.Backend = "ollama"
	_, err := New(cfg, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown provider backend")
}
