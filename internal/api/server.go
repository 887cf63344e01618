// Package api provides the HTTP surface of the FIWARE gateway.
//
// It exposes login and session endpoints, proxies for Keyrock identity
// management, the IoT Agent and the Orion context broker (via the PEP
// proxy), plus the activity log with its live SSE and WebSocket streams.
//
// The server follows the same lifecycle pattern as the other
// infrastructure components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/ssio-project/fiware-gateway/internal/activity"
	"github.com/ssio-project/fiware-gateway/internal/auth"
	"github.com/ssio-project/fiware-gateway/internal/fiware/iotagent"
	"github.com/ssio-project/fiware-gateway/internal/fiware/keyrock"
	"github.com/ssio-project/fiware-gateway/internal/fiware/pep"
	"github.com/ssio-project/fiware-gateway/internal/infrastructure/config"
	"github.com/ssio-project/fiware-gateway/internal/infrastructure/influxdb"
	"github.com/ssio-project/fiware-gateway/internal/infrastructure/logging"
	"github.com/ssio-project/fiware-gateway/internal/session"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.GatewayConfig
	WS       config.WebSocketConfig
	Logger   *logging.Logger
	Auth     *auth.Service
	Store    *session.Store
	Sessions *session.Manager
	Keyrock  *keyrock.Client
	PEP      *pep.Forwarder
	IoT      *iotagent.Client
	Activity *activity.Log
	Influx   *influxdb.Client // nil disables the telemetry mirror
	Version  string
}

// Server is the gateway's HTTP server.
//
// It manages the HTTP listener, routes, middleware, and the live activity
// streams. The server is created with New() and started with Start().
type Server struct {
	cfg      config.GatewayConfig
	wsCfg    config.WebSocketConfig
	logger   *logging.Logger
	auth     *auth.Service
	store    *session.Store
	sessions *session.Manager
	keyrock  *keyrock.Client
	pep      *pep.Forwarder
	iot      *iotagent.Client
	activity *activity.Log
	influx   *influxdb.Client
	version  string
	server   *http.Server
	cancel   context.CancelFunc
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Auth == nil {
		return nil, fmt.Errorf("auth service is required")
	}
	if deps.Store == nil || deps.Sessions == nil {
		return nil, fmt.Errorf("session store and manager are required")
	}
	if deps.Activity == nil {
		return nil, fmt.Errorf("activity log is required")
	}

	return &Server{
		cfg:      deps.Config,
		wsCfg:    deps.WS,
		logger:   deps.Logger,
		auth:     deps.Auth,
		store:    deps.Store,
		sessions: deps.Sessions,
		keyrock:  deps.Keyrock,
		pep:      deps.PEP,
		iot:      deps.IoT,
		activity: deps.Activity,
		influx:   deps.Influx,
		version:  deps.Version,
	}, nil
}

// Start begins listening for HTTP connections.
//
// The listener runs in a background goroutine; the server is stopped with
// Close().
func (s *Server) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		// SSE and WebSocket connections outlive any sane write timeout;
		// per-upstream timeouts bound the proxied work instead.
		IdleTimeout: time.Duration(s.cfg.Timeouts.Idle) * time.Second,
		// Request contexts derive from the server's lifetime, so Close
		// ends the long-lived streams and Shutdown is not held open by them.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	go func() {
		err := s.server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	s.logger.Info("API server started", "address", s.server.Addr)
	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete, then
// forcefully closes remaining connections.
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

// HealthCheck verifies the API server is running and responsive.
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
