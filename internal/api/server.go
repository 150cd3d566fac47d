package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/nerrad567/switchsched/internal/device"
	"github.com/nerrad567/switchsched/internal/driver"
	"github.com/nerrad567/switchsched/internal/infrastructure/config"
	"github.com/nerrad567/switchsched/internal/infrastructure/logging"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// StatusSource provides driver snapshots. *driver.Handle implements it.
type StatusSource interface {
	Status() driver.Status
}

// DeviceSource provides per-device records. *device.Tracker implements it.
type DeviceSource interface {
	Records() []device.Record
	Record(id string) (device.Record, bool)
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config  config.APIConfig
	Logger  *logging.Logger
	Status  StatusSource
	Devices DeviceSource // optional
	Version string

	// Now defaults to time.Now; used for ?upcoming=true.
	Now func() time.Time
}

// Server is the read-only status HTTP server.
type Server struct {
	cfg     config.APIConfig
	logger  *logging.Logger
	status  StatusSource
	devices DeviceSource
	version string
	now     func() time.Time

	server *http.Server
	addr   net.Addr
}

// New creates a new API server. It is not listening until Start is called.
//
// Parameters:
//   - deps: Config, Logger and Status are required
//
// Returns:
//   - *Server: configured server
//   - error: if a required dependency is missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Status == nil {
		return nil, fmt.Errorf("status source is required")
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	return &Server{
		cfg:     deps.Config,
		logger:  deps.Logger,
		status:  deps.Status,
		devices: deps.Devices,
		version: deps.Version,
		now:     deps.Now,
	}, nil
}

// Start binds the listener and serves in a background goroutine. Binding
// happens synchronously so a port conflict is reported here.
func (s *Server) Start(_ context.Context) error {
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
		return fmt.Errorf("starting API server: %w", err)
	}
	s.addr = ln.Addr()
	s.logger.Info("API server listening", "address", s.addr.String())

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound address, or nil before Start.
func (s *Server) Addr() net.Addr {
	return s.addr
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
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
	return nil
}
