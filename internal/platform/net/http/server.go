package http

import (
	"context"
	"errors"
	"net"
	stdhttp "net/http"
	"time"

	"enrollcam/internal/platform/logger"
)

// Server owns the control API listener
type Server struct {
	addr   string
	router Router
	srv    *stdhttp.Server
	grace  time.Duration
}

// NewServer builds a server on addr (eg ":4000"); routes are mounted through Router()
func NewServer(addr string) *Server {
	r := NewRouter()
	return &Server{
		addr:   addr,
		router: r,
		grace:  5 * time.Second,
		srv: &stdhttp.Server{
			Addr:              addr,
			Handler:           r.Mux(),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Router returns the root router
func (s *Server) Router() Router { return s.router }

// Addr returns the configured listen address
func (s *Server) Addr() string { return s.addr }

// Run listens until ctx is done, then shuts down within the grace period
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	log := logger.Named("http")
	errc := make(chan error, 1)
	go func() { errc <- s.srv.Serve(ln) }()
	log.Info().Str("addr", ln.Addr().String()).Msg("http listening")

	select {
	case err := <-errc:
		if errors.Is(err, stdhttp.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.grace)
	defer cancel()
	log.Info().Msg("http shutting down")
	if err := s.srv.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
		return err
	}
	return nil
}
