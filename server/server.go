package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/brettboylen/creator-tracker/models"
	"github.com/brettboylen/creator-tracker/stats"
)

// DashboardService computes dashboards and manages account settings
type DashboardService interface {
	Ranges() []models.TimeRangeOption
	Compute(ctx context.Context, username string, tr models.TimeRange, tzOverride string) (*stats.DashboardResult, error)
	Posts(ctx context.Context, username string, tr models.TimeRange) ([]models.Post, error)
	SetTimezone(ctx context.Context, username, timezone string) error
}

// Ingester runs on-demand ingests
type Ingester interface {
	IngestOnce(ctx context.Context, username string) (*models.IngestRun, error)
	LastRuns() map[string]models.IngestRun
	Runs(ctx context.Context, username string, limit int) ([]models.IngestRun, error)
}

const defaultRunHistory = 20

// Server is the HTTP API over the dashboard and ingest services
type Server struct {
	echo      *echo.Echo
	dashboard DashboardService
	ingester  Ingester
	log       *logrus.Logger
}

type timezoneRequest struct {
	Timezone string `json:"timezone"`
}

// New builds the Echo instance with middleware and routes.
// maxRequestsPerMinute bounds each client IP; zero or less disables the limiter.
func New(dashboard DashboardService, ingester Ingester, maxRequestsPerMinute int, log *logrus.Logger) *Server {
	e := echo.New()
	e.HideBanner = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	if maxRequestsPerMinute > 0 {
		e.Use(middleware.RateLimiterWithConfig(rateLimiterConfig(maxRequestsPerMinute)))
	}

	s := &Server{
		echo:      e,
		dashboard: dashboard,
		ingester:  ingester,
		log:       log,
	}
	s.routes()
	return s
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

func rateLimiterConfig(maxRequestsPerMinute int) middleware.RateLimiterConfig {
	requestsPerSecond := float64(maxRequestsPerMinute) / 60.0

	deny := func(ctx echo.Context) error {
		return ctx.JSON(http.StatusTooManyRequests, map[string]string{
			"error": "Rate limit exceeded, please try again later",
		})
	}

	return middleware.RateLimiterConfig{
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/healthz"
		},
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(
			middleware.RateLimiterMemoryStoreConfig{
				Rate:      rate.Limit(requestsPerSecond),
				Burst:     max(1, maxRequestsPerMinute/10),
				ExpiresIn: 3 * time.Minute,
			},
		),
		IdentifierExtractor: func(ctx echo.Context) (string, error) {
			return ctx.RealIP(), nil
		},
		ErrorHandler: func(ctx echo.Context, err error) error {
			return deny(ctx)
		},
		DenyHandler: func(ctx echo.Context, identifier string, err error) error {
			return deny(ctx)
		},
	}
}

func (s *Server) routes() {
	s.echo.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "OK")
	})

	api := s.echo.Group("/api")
	api.GET("/ranges", s.handleRanges)
	api.GET("/dashboard/:username", s.handleDashboard)
	api.GET("/posts/:username", s.handlePosts)
	api.GET("/ingest", s.handleLastRuns)
	api.GET("/ingest/:username", s.handleRunHistory)
	api.POST("/ingest/:username", s.handleIngest)
	api.PUT("/timezone/:username", s.handleSetTimezone)
}

func (s *Server) handleRanges(c echo.Context) error {
	return c.JSON(http.StatusOK, s.dashboard.Ranges())
}

func (s *Server) handleDashboard(c echo.Context) error {
	tr, err := parseTimeRange(c)
	if err != nil {
		return jsonError(c, http.StatusBadRequest, err.Error())
	}

	result, err := s.dashboard.Compute(c.Request().Context(), c.Param("username"), tr, c.QueryParam("tz"))
	if err != nil {
		return s.serviceError(c, err)
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handlePosts(c echo.Context) error {
	tr, err := parseTimeRange(c)
	if err != nil {
		return jsonError(c, http.StatusBadRequest, err.Error())
	}

	posts, err := s.dashboard.Posts(c.Request().Context(), c.Param("username"), tr)
	if err != nil {
		return s.serviceError(c, err)
	}
	return c.JSON(http.StatusOK, posts)
}

func (s *Server) handleLastRuns(c echo.Context) error {
	return c.JSON(http.StatusOK, s.ingester.LastRuns())
}

func (s *Server) handleRunHistory(c echo.Context) error {
	limit := defaultRunHistory
	if limitStr := c.QueryParam("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			return jsonError(c, http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = parsed
	}

	runs, err := s.ingester.Runs(c.Request().Context(), c.Param("username"), limit)
	if err != nil {
		return s.serviceError(c, err)
	}
	return c.JSON(http.StatusOK, runs)
}

func (s *Server) handleIngest(c echo.Context) error {
	username := models.NormalizeUsername(c.Param("username"))
	if username == "" {
		return jsonError(c, http.StatusBadRequest, "username is required")
	}

	run, err := s.ingester.IngestOnce(c.Request().Context(), username)
	if err != nil {
		s.log.WithError(err).WithField("username", username).Error("On-demand ingest failed")
		return c.JSON(http.StatusBadGateway, map[string]any{
			"error": err.Error(),
			"run":   run,
		})
	}
	return c.JSON(http.StatusOK, run)
}

func (s *Server) handleSetTimezone(c echo.Context) error {
	var req timezoneRequest
	if err := c.Bind(&req); err != nil {
		return jsonError(c, http.StatusBadRequest, "invalid request body")
	}

	if err := s.dashboard.SetTimezone(c.Request().Context(), c.Param("username"), req.Timezone); err != nil {
		return s.serviceError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]string{
		"username": models.NormalizeUsername(c.Param("username")),
		"timezone": strings.TrimSpace(req.Timezone),
	})
}

// serviceError maps service errors to status codes
func (s *Server) serviceError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, stats.ErrInvalidRange), errors.Is(err, stats.ErrInvalidTimezone):
		return jsonError(c, http.StatusBadRequest, err.Error())
	default:
		s.log.WithError(err).WithField("path", c.Path()).Error("Request failed")
		return jsonError(c, http.StatusInternalServerError, "internal error")
	}
}

func jsonError(c echo.Context, status int, message string) error {
	return c.JSON(status, map[string]string{"error": message})
}

// parseTimeRange reads ?range= (default all) and ?days= for custom ranges
func parseTimeRange(c echo.Context) (models.TimeRange, error) {
	key := models.TimeRangeKey(c.QueryParam("range"))
	if key == "" {
		key = models.RangeAll
	}

	tr := models.TimeRange{Key: key}
	if daysStr := c.QueryParam("days"); daysStr != "" {
		days, err := strconv.Atoi(daysStr)
		if err != nil {
			return tr, fmt.Errorf("days must be an integer")
		}
		tr.CustomDays = &days
	}
	return tr, nil
}

// Start serves on port until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context, port int) error {
	errCh := make(chan error, 1)
	go func() {
		serverAddr := fmt.Sprintf(":%d", port)
		s.log.WithField("port", port).Info("Starting API server")
		if err := s.echo.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("API server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("Shutting down API server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.echo.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("API server shutdown failed: %w", err)
	}
	return nil
}
