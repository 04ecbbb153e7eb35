package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/iotnatural/poolwatch-core/internal/account"
	"github.com/iotnatural/poolwatch-core/internal/controller"
	"github.com/iotnatural/poolwatch-core/internal/datasource"
	"github.com/iotnatural/poolwatch-core/internal/export"
	"github.com/iotnatural/poolwatch-core/internal/infrastructure/config"
	"github.com/iotnatural/poolwatch-core/internal/infrastructure/logging"
	"github.com/iotnatural/poolwatch-core/internal/session"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// defaultQueryTimeout bounds the queries of one request when none is configured.
const defaultQueryTimeout = 30 * time.Second

// HealthChecker is implemented by optional components reported on /health.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	Security config.SecurityConfig
	Debug    config.DebugConfig
	Logger   *logging.Logger

	Provider   datasource.Provider
	Accounts   *account.Service
	Aggregator *controller.Aggregator
	Sessions   *session.Store

	// Exporter is optional; a nil publisher disables snapshot export.
	Exporter *export.Publisher

	// Checks are reported by name on /health. Failures mark the service degraded.
	Checks map[string]HealthChecker

	// QueryTimeout bounds all queries issued for one request.
	QueryTimeout time.Duration

	Version string
}

// Server is the HTTP API server for Pool Watch Core.
//
// The server is created with New() and started with Start().
type Server struct {
	cfg    config.APIConfig
	secCfg config.SecurityConfig
	dbgCfg config.DebugConfig
	logger *logging.Logger

	provider   datasource.Provider
	accounts   *account.Service
	aggregator *controller.Aggregator
	sessions   *session.Store
	exporter   *export.Publisher
	checks     map[string]HealthChecker

	queryTimeout time.Duration
	version      string
	startTime    time.Time
	server       *http.Server
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Provider == nil {
		return nil, fmt.Errorf("datasource provider is required")
	}
	if deps.Accounts == nil {
		return nil, fmt.Errorf("account service is required")
	}
	if deps.Aggregator == nil {
		return nil, fmt.Errorf("controller aggregator is required")
	}
	if deps.Sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}

	queryTimeout := deps.QueryTimeout
	if queryTimeout <= 0 {
		queryTimeout = defaultQueryTimeout
	}

	return &Server{
		cfg:          deps.Config,
		secCfg:       deps.Security,
		dbgCfg:       deps.Debug,
		logger:       deps.Logger,
		provider:     deps.Provider,
		accounts:     deps.Accounts,
		aggregator:   deps.Aggregator,
		sessions:     deps.Sessions,
		exporter:     deps.Exporter,
		checks:       deps.Checks,
		queryTimeout: queryTimeout,
		version:      deps.Version,
		startTime:    time.Now(),
	}, nil
}

// Start begins listening for HTTP connections in a background goroutine.
// The server can be stopped with Close().
//
// Returns:
//   - error: Currently always nil; listener errors are logged
func (s *Server) Start(_ context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Handler returns the fully wired router without starting a listener.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete, then waits
// for snapshot exports they started.
//
// Returns:
//   - error: If shutdown encounters an error
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	s.exporter.Wait()
	return nil
}

// HealthCheck verifies the API server is running.
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
