package dialogue

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

const instrumentationName = "github.com/fyrsmithlabs/decisiond/internal/dialogue"

// Metrics holds dialogue engine metrics. All recording methods are nil-safe
// so the engine works without instrumentation wired.
type Metrics struct {
	sessionsStarted   metric.Int64Counter
	sessionsCompleted metric.Int64Counter
	providerFallbacks metric.Int64Counter
	analyses          metric.Int64Counter
}

// NewMetrics creates dialogue metrics on the global meter provider.
func NewMetrics(logger *zap.Logger) *Metrics {
	if logger == nil {
		logger = zap.NewNop()
	}
	meter := otel.Meter(instrumentationName)

	m := &Metrics{}
	var err error

	m.sessionsStarted, err = meter.Int64Counter(
		"decisiond.dialogue.sessions_started",
		metric.WithDescription("Decision dialogue sessions started"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		logger.Warn("failed to create sessions_started counter", zap.Error(err))
	}

	m.sessionsCompleted, err = meter.Int64Counter(
		"decisiond.dialogue.sessions_completed",
		metric.WithDescription("Decision dialogue sessions that reached the question budget"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		logger.Warn("failed to create sessions_completed counter", zap.Error(err))
	}

	m.providerFallbacks, err = meter.Int64Counter(
		"decisiond.dialogue.provider_fallbacks",
		metric.WithDescription("Questioning-phase provider failures recovered with a fallback question"),
		metric.WithUnit("{call}"),
	)
	if err != nil {
		logger.Warn("failed to create provider_fallbacks counter", zap.Error(err))
	}

	m.analyses, err = meter.Int64Counter(
		"decisiond.dialogue.analyses",
		metric.WithDescription("Finalization outcomes labeled by mode (structured, freetext, failed)"),
		metric.WithUnit("{analysis}"),
	)
	if err != nil {
		logger.Warn("failed to create analyses counter", zap.Error(err))
	}

	return m
}

func (m *Metrics) recordStart(ctx context.Context) {
	if m != nil && m.sessionsStarted != nil {
		m.sessionsStarted.Add(ctx, 1)
	}
}

func (m *Metrics) recordCompleted(ctx context.Context) {
	if m != nil && m.sessionsCompleted != nil {
		m.sessionsCompleted.Add(ctx, 1)
	}
}

func (m *Metrics) recordFallback(ctx context.Context, phase Phase) {
	if m != nil && m.providerFallbacks != nil {
		label := "follow_up"
		if phase == PhaseFirstQuestion {
			label = "first_question"
		}
		m.providerFallbacks.Add(ctx, 1, metric.WithAttributes(attribute.String("phase", label)))
	}
}

func (m *Metrics) recordAnalysis(ctx context.Context, mode string) {
	if m != nil && m.analyses != nil {
		m.analyses.Add(ctx, 1, metric.WithAttributes(attribute.String("mode", mode)))
	}
}
