package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	apperrors "health-assistant/internal/common/errors"
	"health-assistant/internal/common/logger"
	"health-assistant/internal/common/observability"
	"health-assistant/internal/models"
	"health-assistant/internal/pipeline"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type ChatService interface {
	Answer(ctx context.Context, req *pipeline.Request) (*pipeline.Result, error)
	Strategy() pipeline.Strategy
}

type FeedbackService interface {
	Record(ctx context.Context, body map[string]interface{}) (*models.Feedback, error)
	Summary(ctx context.Context) (*models.RatingSummary, error)
}

// Check is a named readiness probe.
type Check struct {
	Name string
	Run  func(ctx context.Context) error
}

type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	AllowedOrigins  []string
	BodyLimit       string
	Version         string
}

type Server struct {
	config   *Config
	echo     *echo.Echo
	chat     ChatService
	feedback FeedbackService
	checks   []Check
	errors   *apperrors.ErrorHandler
	obs      *observability.Observability
	logger   logger.Logger
}

// NewServer builds the echo instance and registers every route. obs may be
// nil.
func NewServer(
	config *Config,
	chat ChatService,
	feedback FeedbackService,
	checks []Check,
	obs *observability.Observability,
	log logger.Logger,
) *Server {
	s := &Server{
		config:   config,
		echo:     echo.New(),
		chat:     chat,
		feedback: feedback,
		checks:   checks,
		errors:   apperrors.NewErrorHandler(log),
		obs:      obs,
		logger: log.With(map[string]interface{}{
			"component": "api",
		}),
	}

	e := s.echo
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = s.handleEchoError
	e.Server.ReadTimeout = config.ReadTimeout
	e.Server.WriteTimeout = config.WriteTimeout

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: config.AllowedOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
	}))
	if config.BodyLimit != "" {
		e.Use(middleware.BodyLimit(config.BodyLimit))
	}
	e.Use(s.requestMetrics())
	e.Use(s.requestLogger())

	e.POST("/chat", s.handleChat)
	e.POST("/feedback", s.handleFeedback)
	e.GET("/feedback/summary", s.handleFeedbackSummary)
	e.GET("/health", s.handleHealth)
	e.GET("/ready", s.handleReady)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start blocks serving until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info("http server listening", map[string]interface{}{
		"address":  s.config.Address,
		"strategy": string(s.chat.Strategy()),
	})
	if err := s.echo.Start(s.config.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()
	return s.echo.Shutdown(ctx)
}

// handleEchoError renders router level failures (unknown route, body too
// large, panics) with the same body shape as every other error.
func (s *Server) handleEchoError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code := apperrors.ErrCodeValidation
		message := http.StatusText(he.Code)
		if he.Code >= http.StatusInternalServerError {
			code = apperrors.ErrCodeInternal
			message = apperrors.GenericApology
		}
		_ = c.JSON(he.Code, apperrors.Response{
			Answer:  message,
			Sources: []string{},
			Code:    code,
		})
		return
	}

	status, body := s.errors.Resolve(c.Path(), err)
	_ = c.JSON(status, body)
}
