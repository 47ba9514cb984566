package tcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/linechat-server/internal/config"
	"github.com/vovakirdan/linechat-server/internal/core"
	"github.com/vovakirdan/linechat-server/internal/transport"
)

// Server accepts TCP connections and runs one session goroutine per connection.
type Server struct {
	addr           string
	maxRequestSize int64
	writeTimeout   time.Duration
	hub            *core.Hub
	log            *zerolog.Logger

	mu       sync.Mutex
	listener net.Listener
	conns    map[net.Conn]struct{}
	closing  bool
	wg       sync.WaitGroup
}

// NewServer builds a TCP chat server for cfg.Addr.
func NewServer(hub *core.Hub, cfg *config.Config, logger *zerolog.Logger) *Server {
	return &Server{
		addr:           cfg.Addr,
		maxRequestSize: cfg.RequestLimit(),
		writeTimeout:   cfg.WriteTimeout,
		hub:            hub,
		log:            logger,
		conns:          make(map[net.Conn]struct{}),
	}
}

// Listen binds the listening socket without accepting yet.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}

	s.mu.Lock()
	s.listener = ln
	s.mu.Unlock()
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// ListenAndServe binds and accepts until Shutdown.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

// Serve runs the accept loop. It never blocks on session work and returns nil
// once Shutdown closes the listener.
func (s *Server) Serve(ctx context.Context) error {
	s.mu.Lock()
	ln := s.listener
	s.mu.Unlock()
	if ln == nil {
		return errors.New("tcp server: Listen not called")
	}

	s.log.Info().Str("addr", ln.Addr().String()).Msg("tcp chat listener started")

	for {
		c, err := ln.Accept()
		if err != nil {
			if s.isClosing() || errors.Is(err, net.ErrClosed) {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				s.log.Warn().Err(err).Msg("accept timeout")
				continue
			}
			return fmt.Errorf("accept: %w", err)
		}

		if !s.track(c) {
			_ = c.Close()
			return nil
		}

		go func() {
			defer s.wg.Done()
			defer s.untrack(c)
			_ = transport.Serve(ctx, s.hub, NewConn(c, s.maxRequestSize, s.writeTimeout), s.log)
		}()
	}
}

// Shutdown stops accepting, closes live connections and waits for their
// sessions to finish or ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closing = true
	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}
	for c := range s.conns {
		_ = c.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	if errors.Is(err, net.ErrClosed) {
		err = nil
	}
	return err
}

func (s *Server) track(c net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.conns[c] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(c net.Conn) {
	s.mu.Lock()
	delete(s.conns, c)
	s.mu.Unlock()
}

func (s *Server) isClosing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closing
}
