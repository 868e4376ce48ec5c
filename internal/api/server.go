// Package api exposes the output session over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"dmxout/internal/engine"
	"dmxout/internal/logger"
)

const (
	readTimeout             = 5 * time.Second
	gracefulShutdownTimeout = 5 * time.Second
	maxBodyBytes            = 64 << 10
)

// Engine is the part of the output session the API drives.
type Engine interface {
	SetChannels(values []engine.ChannelValue)
	Apply(cmd engine.Command) error
	Initialize() error
	Send()
	State() engine.State
}

// Server is the HTTP control surface.
type Server struct {
	log     logger.Logger
	listen  string
	origins []string
	engine  Engine
	server  *http.Server
}

// New конструктор. An empty origins list disables CORS.
func New(log logger.Logger, listen string, origins []string, e Engine) *Server {
	return &Server{
		log:     log,
		listen:  listen,
		origins: origins,
		engine:  e,
	}
}

// Start binds the listener and serves in the background.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.listen, err)
	}

	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readTimeout,
	}

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.With(logger.Fields{"module": "http"}).Errorf("API server error: %v", err)
		}
	}()

	s.log.With(logger.Fields{"module": "http"}).Infof("API listening on %s", ln.Addr())
	return nil
}

// Close waits for in-flight requests, then closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}
