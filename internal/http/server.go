// Package http provides the HTTP API for decisiond.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/decisiond/internal/dialogue"
	"github.com/fyrsmithlabs/decisiond/internal/session"
)

// Server exposes the dialogue engine over HTTP.
type Server struct {
	echo     *echo.Echo
	dialogue dialogue.Service
	logger   *zap.Logger
	config   *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// NewServer creates a new HTTP server.
func NewServer(svc dialogue.Service, logger *zap.Logger, cfg *Config) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("dialogue service cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 8800,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:     e,
		dialogue: svc,
		logger:   logger,
		config:   cfg,
	}

	// Register routes
	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	// Health check
	s.echo.GET("/health", s.handleHealth)

	// API v1 routes
	v1 := s.echo.Group("/api/v1")
	v1.POST("/decision/start", s.handleStart)
	v1.POST("/decision/answer", s.handleAnswer)
	v1.DELETE("/decision/:id", s.handleEvict)
}

// Echo exposes the underlying router so callers can attach extra handlers
// such as the Prometheus metrics endpoint.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleStart opens a new decision dialogue and returns the first question.
func (s *Server) handleStart(c echo.Context) error {
	var req StartRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid start request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Decision == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "decision field is required")
	}

	turn, err := s.dialogue.Start(c.Request().Context(), req.ConversationID, req.Decision)
	if err != nil {
		return s.mapError(err)
	}

	return c.JSON(http.StatusOK, turnResponse(turn))
}

// handleAnswer records an answer and returns the next question or the final
// recommendation.
func (s *Server) handleAnswer(c echo.Context) error {
	var req AnswerRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid answer request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.ConversationID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "conversation_id field is required")
	}
	if req.Answer == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "answer field is required")
	}

	turn, err := s.dialogue.SubmitAnswer(c.Request().Context(), req.ConversationID, req.Answer)
	if err != nil {
		return s.mapError(err)
	}

	return c.JSON(http.StatusOK, turnResponse(turn))
}

// handleEvict removes a session.
func (s *Server) handleEvict(c echo.Context) error {
	id := c.Param("id")
	if err := s.dialogue.Evict(c.Request().Context(), id); err != nil {
		return s.mapError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// mapError translates domain errors into HTTP status codes.
func (s *Server) mapError(err error) error {
	switch {
	case errors.Is(err, dialogue.ErrDecisionLength):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, session.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "conversation not found")
	case errors.Is(err, session.ErrDuplicateSession):
		return echo.NewHTTPError(http.StatusConflict, "conversation already exists")
	case errors.Is(err, session.ErrSessionCompleted):
		return echo.NewHTTPError(http.StatusConflict, "conversation already completed")
	case errors.Is(err, session.ErrNoPendingQuestion):
		return echo.NewHTTPError(http.StatusConflict, "no question awaiting an answer")
	case errors.Is(err, dialogue.ErrAnalysisUnavailable):
		return echo.NewHTTPError(http.StatusBadGateway, "analysis unavailable")
	default:
		s.logger.Error("unhandled dialogue error", zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
}

func turnResponse(t *dialogue.Turn) TurnResponse {
	return TurnResponse{
		ConversationID: t.ConversationID,
		Question:       t.Question,
		Hint:           t.Hint,
		IsFinal:        t.IsFinal,
		Recommendation: t.Recommendation,
		Analysis:       t.Analysis,
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
