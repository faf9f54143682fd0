package http

// this is entry point of the http request handlers

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"gitlab.com/appserver.net/internal/core/ports/primary"
	"gitlab.com/appserver.net/internal/handlers"
)

// RouteRegistrar is implemented by every API handler group
type RouteRegistrar interface {
	RegisterRoutes(router *mux.Router)
}

const DefaultWriteTimeout = 15 * time.Second

type Server struct {
	router      *mux.Router
	Host        string
	Port        int
	ServiceName string
	// WriteTimeout must cover the slowest handler; it defaults to DefaultWriteTimeout
	WriteTimeout time.Duration
	logger       primary.Logger
	srv          *http.Server
	listener     net.Listener
}

func NewServer(host string, port int, serviceName string, logger primary.Logger) *Server {
	return &Server{
		Host:         host,
		Port:         port,
		ServiceName:  serviceName,
		WriteTimeout: DefaultWriteTimeout,
		logger:       logger.With("server", serviceName),
	}
}

// Init builds the router with the health and metrics endpoints plus every registrar's routes
func (s *Server) Init(registrars ...RouteRegistrar) error {
	r := mux.NewRouter()
	r.Use(handlers.RecoveryMiddleware(s.logger), handlers.LoggingMiddleware(s.logger))

	r.HandleFunc("/healthz", s.health).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	for _, registrar := range registrars {
		registrar.RegisterRoutes(r)
	}

	s.router = r
	return nil
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	handlers.ResponseWithJson(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": s.ServiceName,
	})
}

// Start binds the port and serves in the background; a bind failure is returned
func (s *Server) Start() error {
	if s.router == nil {
		if err := s.Init(); err != nil {
			return err
		}
	}

	// Set up server
	s.srv = &http.Server{
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: s.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	listener, err := net.Listen("tcp", net.JoinHostPort(s.Host, fmt.Sprint(s.Port)))
	if err != nil {
		return fmt.Errorf("failed to start %s http server: %w", s.ServiceName, err)
	}
	s.listener = listener

	// Start the server in a goroutine
	go func() {
		s.logger.Info("Server listening", "addr", listener.Addr().String())
		if err := s.srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Server error", "error", err)
		}
	}()
	return nil
}

// Addr returns the bound address; only valid after Start
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	s.logger.Info("Shutting down http server...")
	return s.srv.Shutdown(ctx)
}
