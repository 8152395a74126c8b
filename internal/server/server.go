package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/hushh-labs/hushhmcp-server/internal/logger"
	"github.com/hushh-labs/hushhmcp-server/internal/model"
)

// HTTPServer serves the API over a listener produced by a SecurityLayer.
type HTTPServer struct {
	address string
	server  *http.Server
	logger  *logger.Logger
}

// NewHTTPServer creates a new HTTPServer for the given handler.
func NewHTTPServer(address string, handler http.Handler, logger *logger.Logger) *HTTPServer {
	return &HTTPServer{
		address: address,
		server:  &http.Server{Handler: handler},
		logger:  logger,
	}
}

// Start listens on the configured address and serves until Stop is
// called. It blocks the calling goroutine.
func (s *HTTPServer) Start(securityLayer model.SecurityLayer) error {
	listener, err := securityLayer.Listen("tcp", s.address)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.address, err)
	}

	s.logger.Info("http server listening", "address", s.address)
	if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server stopped: %w", err)
	}
	return nil
}

// Stop shuts the server down gracefully, waiting for in-flight
// requests up to the context deadline.
func (s *HTTPServer) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

// Address returns the address the server is configured to listen on.
func (s *HTTPServer) Address() string {
	return s.address
}
