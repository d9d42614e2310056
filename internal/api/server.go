package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/audit"
	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/document"
	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/infrastructure/config"
	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/infrastructure/logging"
	"github.com/EamonHetherton/PVBeanCounter-sub003/internal/settings"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// SettingsStore gives handlers serialised access to the live settings tree.
type SettingsStore interface {
	// View calls fn with the live tree. fn must not keep references to it.
	View(fn func(app *settings.ApplicationSettings) error) error

	// SetDeviceAttributes applies attrs to the named device, validates the
	// tree and saves it. A failed validation is wrapped with ErrRejected and
	// leaves the tree unchanged.
	SetDeviceAttributes(device string, attrs map[string]string) error
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config    config.APIConfig
	WS        config.WebSocketConfig
	Security  config.SecurityConfig
	Logger    *logging.Logger
	Settings  SettingsStore
	History   audit.Repository    // optional; history routes answer 503 without it
	Snapshots document.Repository // optional; snapshot routes answer 503 without it
	Version   string
}

// Server is the HTTP API server.
//
// The hub exists from New so it can be subscribed to the settings tree
// before Start is called.
type Server struct {
	cfg       config.APIConfig
	wsCfg     config.WebSocketConfig
	secCfg    config.SecurityConfig
	logger    *logging.Logger
	store     SettingsStore
	history   audit.Repository
	snapshots document.Repository
	version   string
	startTime time.Time
	server    *http.Server
	hub       *Hub
	tickets   *ticketStore
	cancel    context.CancelFunc // cancels background goroutines on Close()
}

// New creates a new API server with the given dependencies.
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Settings == nil {
		return nil, fmt.Errorf("settings store is required")
	}

	return &Server{
		cfg:       deps.Config,
		wsCfg:     deps.WS,
		secCfg:    deps.Security,
		logger:    deps.Logger,
		store:     deps.Settings,
		history:   deps.History,
		snapshots: deps.Snapshots,
		version:   deps.Version,
		startTime: time.Now(),
		hub:       NewHub(deps.WS, deps.Logger),
		tickets:   newTicketStore(),
	}, nil
}

// Hub returns the WebSocket hub. It implements settings.Observer and can
// receive poll results.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Handler returns the router with every route and middleware installed.
func (s *Server) Handler() http.Handler {
	return s.buildRouter()
}

// Start runs the hub and begins listening for HTTP connections in the
// background. The server can be stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	go s.hub.Run(srvCtx)
	go s.tickets.cleanLoop(srvCtx)

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
			s.logger.Info("API server starting with TLS",
				"address", s.server.Addr,
				"cert", s.cfg.TLS.CertFile,
			)
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

// Close gracefully shuts down the API server, waiting up to 10 seconds for
// in-flight requests.
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
