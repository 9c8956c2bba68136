package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/gray-logic-links/internal/automation"
	"github.com/nerrad567/gray-logic-links/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-links/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-links/internal/item"
	"github.com/nerrad567/gray-logic-links/internal/link"
	"github.com/nerrad567/gray-logic-links/internal/thing"
)

// gracefulShutdownTimeout bounds how long Close waits for in-flight requests.
const gracefulShutdownTimeout = 10 * time.Second

// HealthCheck checks one dependency. A nil error means healthy.
type HealthCheck func(ctx context.Context) error

// Deps holds the dependencies of the API server.
type Deps struct {
	Config config.APIConfig
	WS     config.WebSocketConfig
	Logger *logging.Logger

	Items      *item.Registry
	Things     *thing.Registry
	Links      *link.ItemChannelLinkRegistry
	ThingLinks *link.ItemThingLinkRegistry
	Types      *automation.TypeRegistry
	Rules      *automation.RuleRegistry

	// Metrics serves GET /metrics when set.
	Metrics http.Handler

	// Hub is shared with the event pipeline. A private hub is created when nil.
	Hub *Hub

	// Checks are reported by GET /api/v1/health, keyed by component.
	Checks map[string]HealthCheck

	Version string
}

// Server is the HTTP API and WebSocket endpoint of the link core.
type Server struct {
	cfg        config.APIConfig
	wsCfg      config.WebSocketConfig
	logger     *logging.Logger
	items      *item.Registry
	things     *thing.Registry
	links      *link.ItemChannelLinkRegistry
	thingLinks *link.ItemThingLinkRegistry
	types      *automation.TypeRegistry
	rules      *automation.RuleRegistry
	metrics    http.Handler
	checks     map[string]HealthCheck
	version    string
	startTime  time.Time

	hub         *Hub
	externalHub bool
	server      *http.Server
	cancel      context.CancelFunc
}

// New creates a server. It does not listen until Start.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Items == nil || deps.Things == nil || deps.Links == nil || deps.ThingLinks == nil {
		return nil, fmt.Errorf("item, thing and link registries are required")
	}
	if deps.Types == nil || deps.Rules == nil {
		return nil, fmt.Errorf("module type and rule registries are required")
	}

	s := &Server{
		cfg:        deps.Config,
		wsCfg:      deps.WS,
		logger:     deps.Logger.Component("api"),
		items:      deps.Items,
		things:     deps.Things,
		links:      deps.Links,
		thingLinks: deps.ThingLinks,
		types:      deps.Types,
		rules:      deps.Rules,
		metrics:    deps.Metrics,
		checks:     deps.Checks,
		version:    deps.Version,
		startTime:  time.Now(),
	}

	if deps.Hub != nil {
		s.hub = deps.Hub
		s.externalHub = true
	} else {
		s.hub = NewHub(deps.WS, s.logger)
	}

	return s, nil
}

// Hub returns the WebSocket hub events are broadcast through.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start builds the router and listens in the background.
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if !s.externalHub {
		go s.hub.Run(srvCtx)
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS", "address", s.server.Addr, "cert", s.cfg.TLS.CertFile)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close shuts the listener down, waiting up to gracefulShutdownTimeout.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck reports whether the server has been started.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
