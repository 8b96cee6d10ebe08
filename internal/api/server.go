package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/reaperio/autoitem/internal/catalog"
)

const (
	defaultHost         = "127.0.0.1"
	defaultMaxBodyBytes = 64 << 10

	// Exports are sampled inside the request, so the write deadline has to
	// cover a full run over a long timeline.
	exportWriteTimeout = 5 * time.Minute
)

// Server is the agent's loopback HTTP API: scene registration, object
// listing and REAPER exports.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger

	mu       sync.Mutex
	listener net.Listener
}

// ServerConfig wires the API to the catalog. Host defaults to loopback;
// Port 0 picks a free port, reported by Addr after Listen.
type ServerConfig struct {
	Host         string
	Port         int
	MaxBodyBytes int64

	CatalogService catalog.CatalogService
	Tokens         TokenStore
	Logger         *slog.Logger

	StartTime time.Time
	Version   string
}

func (c ServerConfig) addr() string {
	host := c.Host
	if host == "" {
		host = defaultHost
	}
	return net.JoinHostPort(host, fmt.Sprint(c.Port))
}

func (c ServerConfig) maxBodyBytes() int64 {
	if c.MaxBodyBytes <= 0 {
		return defaultMaxBodyBytes
	}
	return c.MaxBodyBytes
}

func NewServer(cfg ServerConfig) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.addr(),
			Handler:           NewRouter(cfg),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      exportWriteTimeout,
			IdleTimeout:       60 * time.Second,
		},
		logger: cfg.Logger,
	}
}

// Listen binds the configured address without serving yet.
func (s *Server) Listen() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return nil
	}
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	s.listener = ln
	return nil
}

// Start binds if needed and serves until Shutdown.
func (s *Server) Start() error {
	if err := s.Listen(); err != nil {
		return err
	}
	s.logger.Info("api listening", "addr", s.Addr())
	err := s.httpServer.Serve(s.listener)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown waits for in-flight exports up to ctx's deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("api shutting down")
	return s.httpServer.Shutdown(ctx)
}

// Addr is the bound address once listening, the configured one before.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.httpServer.Addr
}
