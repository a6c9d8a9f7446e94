// Package api exposes the ledger over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/Veraticus/feeledger/internal/common"
	"github.com/Veraticus/feeledger/internal/ledger"
	"github.com/Veraticus/feeledger/internal/model"
)

// Ledger is the part of ledger.Service the handlers use.
type Ledger interface {
	AddStudent(ctx context.Context, in ledger.NewStudent) (ledger.Admission, error)
	ListStudents(ctx context.Context) ([]model.Student, error)
	PayFee(ctx context.Context, p ledger.Payment) (model.Receipt, error)
	ListFeeLogs(ctx context.Context) ([]model.FeeLog, error)
}

var _ Ledger = (*ledger.Service)(nil)

type (
	// Options configures the HTTP server.
	Options struct {
		Ledger         Ledger
		Logger         *slog.Logger
		Address        string
		AllowedOrigin  string
		DisableReqLogs bool
	}

	// Server serves the ledger API.
	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
	}

	server struct {
		opts      *Options
		app       *echo.Echo
		validator *requestValidator
		logger    *slog.Logger
	}
)

var _ Server = (*server)(nil)

// NewServer builds the echo application and registers every route.
func NewServer(opts *Options) (Server, error) {
	if opts == nil || opts.Ledger == nil {
		return nil, fmt.Errorf("%w: api server needs a ledger", common.ErrInvalidConfig)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &server{
		opts:      opts,
		app:       echo.New(),
		validator: newRequestValidator(),
		logger:    logger,
	}
	s.setup()
	return s, nil
}

func (s *server) setup() {
	s.app.HideBanner = true
	s.app.HidePort = true
	s.app.HTTPErrorHandler = s.httpErrorHandler

	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	s.app.Use(s.contextLogger)
	if !s.opts.DisableReqLogs {
		s.app.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
			LogMethod:    true,
			LogURI:       true,
			LogStatus:    true,
			LogLatency:   true,
			LogRequestID: true,
			LogError:     true,
			HandleError:  true,
			LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
				attrs := []any{
					"method", v.Method,
					"uri", v.URI,
					"status", v.Status,
					"latency", v.Latency,
					"request_id", v.RequestID,
				}
				if v.Error != nil {
					s.logger.Warn("Request failed", append(attrs, "error", v.Error)...)
					return nil
				}
				s.logger.Info("Request", attrs...)
				return nil
			},
		}))
	}
	s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			common.LoggerFromContext(c.Request().Context()).Error("Handler panicked",
				"error", err,
				"stack", string(stack))
			return err
		},
	}))
	if s.opts.AllowedOrigin != "" {
		s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     []string{s.opts.AllowedOrigin},
			AllowCredentials: true,
		}))
	}

	h := &handlers{ledger: s.opts.Ledger, validator: s.validator}
	s.app.GET("/healthz", health)
	s.app.POST("/add-student", h.addStudent)
	s.app.GET("/students", h.listStudents)
	s.app.POST("/pay-fee", h.payFee)
	s.app.GET("/feelogs", h.listFeeLogs)
}

// contextLogger stores a request-scoped logger carrying the request id.
func (s *server) contextLogger(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Response().Header().Get(echo.HeaderXRequestID)
		logger := s.logger.With("request_id", id)
		ctx := common.ContextWithLogger(c.Request().Context(), logger)
		c.SetRequest(c.Request().WithContext(ctx))
		return next(c)
	}
}

// Start listens until Stop is called.
func (s *server) Start() error {
	s.logger.Info("HTTP server listening", "address", s.opts.Address)
	if err := s.app.Start(s.opts.Address); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// Stop drains in-flight requests until ctx expires.
func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.app.ServeHTTP(w, r)
}

// httpErrorHandler renders errors that escape the handlers, such as unknown
// routes and recovered panics, in the same envelope as handler failures.
func (s *server) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	message := http.StatusText(code)

	var herr *echo.HTTPError
	if errors.As(err, &herr) {
		code = herr.Code
		if m, ok := herr.Message.(string); ok {
			message = m
		} else {
			message = http.StatusText(code)
		}
	} else {
		common.LoggerFromContext(c.Request().Context()).Error("Unhandled error", "error", err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, failure(message))
	}
	if err != nil {
		s.logger.Error("Failed to write error response", "error", err)
	}
}
