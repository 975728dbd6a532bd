package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/quantumauth-io/quantum-go-utils/log"
)

// Server is the local status server.
type Server struct {
	srv *http.Server
}

func NewServer(host, port string, handler http.Handler) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              net.JoinHostPort(host, port),
			Handler:           handler,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}
}

func (s *Server) Addr() string { return s.srv.Addr }

// Start serves in the background.
func (s *Server) Start() {
	go func() {
		log.Info("status server listening", "addr", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server error", "error", err)
		}
	}()
}

func (s *Server) Shutdown(ctx context.Context) {
	if err := s.srv.Shutdown(ctx); err != nil {
		log.Error("HTTP server shutdown failed", "error", err)
	} else {
		log.Info("HTTP server gracefully stopped")
	}
}
