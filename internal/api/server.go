package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/nerrad567/factory-telemetry/internal/infrastructure/config"
	"github.com/nerrad567/factory-telemetry/internal/infrastructure/logging"
	"github.com/nerrad567/factory-telemetry/internal/session"
	"github.com/nerrad567/factory-telemetry/internal/telemetry"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// StatusSource reports the live counters of the tick loop.
// *telemetry.Runner satisfies it.
type StatusSource interface {
	Status() telemetry.Status
}

// ConnectionState reports whether the broker connection is up.
// *mqtt.Client satisfies it.
type ConnectionState interface {
	IsConnected() bool
}

// DBStats reports connection pool statistics.
// *database.DB satisfies it.
type DBStats interface {
	Stats() sql.DBStats
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config    config.APIConfig
	Logger    *logging.Logger
	Runner    StatusSource
	Broker    ConnectionState    // optional
	Sessions  session.Repository // optional: /sessions returns 503 without it
	DB        DBStats            // optional
	SessionID string             // the session journalled by this process, if any
	FactoryID string
	Version   string
}

// Server is the HTTP status server.
type Server struct {
	cfg       config.APIConfig
	logger    *logging.Logger
	runner    StatusSource
	broker    ConnectionState
	sessions  session.Repository
	db        DBStats
	sessionID string
	factoryID string
	version   string
	startedAt time.Time

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// New creates a new API server. It is not listening until Start is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Runner == nil {
		return nil, fmt.Errorf("runner is required")
	}

	return &Server{
		cfg:       deps.Config,
		logger:    deps.Logger,
		runner:    deps.Runner,
		broker:    deps.Broker,
		sessions:  deps.Sessions,
		db:        deps.DB,
		sessionID: deps.SessionID,
		factoryID: deps.FactoryID,
		version:   deps.Version,
		startedAt: time.Now(),
	}, nil
}

// Start binds the listener and serves in a background goroutine. Binding
// errors (port in use) are returned; later serve errors are logged.
func (s *Server) Start(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.server != nil {
		return fmt.Errorf("api server already started")
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		s.server = nil
		return fmt.Errorf("listening on %s: %w", fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port), err)
	}
	s.listener = ln

	s.logger.Info("API server starting", "address", ln.Addr().String())

	srv := s.server
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close gracefully shuts down the server, waiting up to 10 seconds for
// in-flight requests.
func (s *Server) Close() error {
	s.mu.Lock()
	srv := s.server
	s.mu.Unlock()

	if srv == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
