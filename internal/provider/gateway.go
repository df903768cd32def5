package provider

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/decisiond/internal/config"
)

// Gateway implements Provider over a langchaingo model.
//
// Calls are rate limited and bounded by a per-call timeout so a slow
// provider cannot stall the dialogue indefinitely. A timed-out call is
// indistinguishable from any other provider failure.
type Gateway struct {
	model       llms.Model
	limiter     *rate.Limiter
	timeout     time.Duration
	temperature float64
	logger      *zap.Logger
}

// New creates a gateway from config, constructing the backend client.
func New(cfg config.ProviderConfig, logger *zap.Logger) (*Gateway, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}

	var (
		model llms.Model
		err   error
	)
	switch cfg.Backend {
	case "openai":
		apiKey := cfg.APIKey
		if apiKey == "" {
			// langchaingo requires a token even for keyless local
			// OpenAI-compatible servers.
			apiKey = "placeholder"
		}
		model, err = openai.New(
			openai.WithBaseURL(cfg.BaseURL),
			openai.WithModel(cfg.Model),
			openai.WithToken(apiKey),
		)
	case "anthropic":
		model, err = anthropic.New(
			anthropic.WithModel(cfg.Model),
			anthropic.WithToken(cfg.APIKey),
		)
	default:
		return nil, fmt.Errorf("unknown provider backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("creating %s client: %w", cfg.Backend, err)
	}

	return NewWithModel(model, cfg, logger), nil
}

// NewWithModel creates a gateway around an existing model. Tests inject a
// fake llms.Model through this constructor.
func NewWithModel(model llms.Model, cfg config.ProviderConfig, logger *zap.Logger) *Gateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	limit := cfg.RateLimit
	if limit <= 0 {
		limit = 2
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}

	return &Gateway{
		model:       model,
		limiter:     rate.NewLimiter(rate.Limit(limit), burst),
		timeout:     timeout,
		temperature: cfg.Temperature,
		logger:      logger,
	}
}

// Complete sends the prompt under the role's system persona and returns the
// trimmed completion text.
func (g *Gateway) Complete(ctx context.Context, role Role, prompt string) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: rate limiter: %v", ErrUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	resp, err := g.model.GenerateContent(ctx,
		[]llms.MessageContent{
			llms.TextParts(schema.ChatMessageTypeSystem, systemPrompt(role)),
			llms.TextParts(schema.ChatMessageTypeHuman, prompt),
		},
		llms.WithTemperature(g.temperature),
	)
	if err != nil {
		g.logger.Warn("provider call failed",
			zap.String("role", string(role)),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion", ErrUnavailable)
	}

	text := strings.TrimSpace(resp.Choices[0].Content)
	if text == "" {
		return "", fmt.Errorf("%w: blank completion", ErrUnavailable)
	}

	g.logger.Debug("provider call complete",
		zap.String("role", string(role)),
		zap.Duration("duration", time.Since(start)),
		zap.Int("response_chars", len(text)),
	)
	return text, nil
}

// Ensure Gateway implements Provider.
var _ Provider = (*Gateway)(nil)
