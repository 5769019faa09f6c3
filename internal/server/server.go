package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"nidsboard/internal/dashboard"
	"nidsboard/internal/explain"
	"nidsboard/internal/logger"
	"nidsboard/internal/simulator"
)

// Options configures the HTTP server.
type Options struct {
	Addr           string
	AllowOrigins   []string
	RequestTimeout time.Duration
	EnableMetrics  bool
	AccessLog      bool
}

// Server serves the dashboard, its fragments and the JSON API.
type Server struct {
	echo      *echo.Echo
	addr      string
	renderer  *dashboard.Renderer
	explainer *explain.Explainer
	sim       *simulator.Simulator
	validate  *validator.Validate
	timeout   time.Duration
}

// New builds the echo router.
func New(opts Options, renderer *dashboard.Renderer, explainer *explain.Explainer, sim *simulator.Simulator) *Server {
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 10 * time.Second
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(echomiddleware.Recover())
	if opts.AccessLog {
		e.Use(echomiddleware.LoggerWithConfig(echomiddleware.LoggerConfig{
			Format: "${time_rfc3339} [ACCESS] ${method} ${uri} ${status} ${latency_human}\n",
			Output: logger.Writer(),
		}))
	}
	if len(opts.AllowOrigins) > 0 {
		e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
			AllowOrigins: opts.AllowOrigins,
			AllowMethods: []string{http.MethodGet, http.MethodPost},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}

	s := &Server{
		echo:      e,
		addr:      opts.Addr,
		renderer:  renderer,
		explainer: explainer,
		sim:       sim,
		validate:  validator.New(),
		timeout:   opts.RequestTimeout,
	}

	e.GET("/", s.Index)
	e.GET("/healthz", s.Health)
	if opts.EnableMetrics {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}

	fragments := e.Group("/fragments")
	fragments.GET("/samples", s.SamplesFragment)
	fragments.GET("/samples/:id", s.ModalFragment)
	fragments.GET("/importance/:model", s.ImportanceFragment)
	fragments.GET("/insights/:tab", s.InsightsFragment)

	api := e.Group("/api")
	api.GET("/samples/:id/explanation", s.Explanation)
	api.GET("/presets", s.ListPresets)
	api.GET("/presets/:name", s.GetPreset)
	api.POST("/simulate", s.Simulate)

	return s
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start listens on the configured address until Shutdown is called.
func (s *Server) Start() error {
	logger.Infof("Dashboard server listening on %s", s.addr)
	if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
