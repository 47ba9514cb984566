package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/linechat-server/internal/config"
	"github.com/vovakirdan/linechat-server/internal/core"
	"github.com/vovakirdan/linechat-server/internal/store"
	"github.com/vovakirdan/linechat-server/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/linechat-server/internal/transport/http"
	"github.com/vovakirdan/linechat-server/internal/transport/tcp"
)

// App wires together core and transport layers.
type App struct {
	tcpServer       *tcp.Server
	httpServer      *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	a := &App{
		shutdownTimeout: cfg.ShutdownTimeout,
		log:             logger,
	}

	var audit store.EventStore
	if cfg.AuditDBPath != "" {
		st, err := sqlite.New(cfg.AuditDBPath)
		if err != nil {
			return nil, fmt.Errorf("init store: %w", err)
		}
		logger.Info().Str("db_path", cfg.AuditDBPath).Msg("audit store initialized")
		a.store = st
		audit = st
	}

	a.hub = core.NewHub(core.Options{
		ExcludeSender:  cfg.ExcludeSender,
		OutboundBuffer: cfg.OutboundBuffer,
		HistorySize:    cfg.HistorySize,
	}, audit, logger)

	a.tcpServer = tcp.NewServer(a.hub, cfg, logger)
	if cfg.HTTPAddr != "" {
		a.httpServer = transporthttp.NewServer(a.hub, audit, cfg, logger)
	}

	return a, nil
}

// Hub exposes the shared chat hub.
func (a *App) Hub() *core.Hub {
	return a.hub
}

// TCPAddr returns the bound chat listener address, or nil before Run binds it.
func (a *App) TCPAddr() net.Addr {
	return a.tcpServer.Addr()
}

// Run binds the listeners and blocks until context cancellation or a fatal
// listener error, then shuts everything down.
func (a *App) Run(ctx context.Context) error {
	defer a.cleanup()

	if err := a.tcpServer.Listen(); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.tcpServer.Serve(gctx)
	})

	if a.httpServer != nil {
		// Hijacked WebSocket connections outlive Shutdown; tie them to gctx.
		a.httpServer.BaseContext = func(net.Listener) context.Context { return gctx }
		g.Go(func() error {
			a.log.Info().Str("addr", a.httpServer.Addr).Msg("http listener started")
			if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		return a.shutdown()
	})

	return g.Wait()
}

func (a *App) shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
	defer cancel()

	a.log.Info().Int("online", a.hub.Online()).Msg("shutting down listeners")

	var errs []error
	if a.httpServer != nil {
		if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
			errs = append(errs, fmt.Errorf("http shutdown: %w", err))
		}
	}
	if err := a.tcpServer.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("tcp shutdown: %w", err))
	}
	return errors.Join(errs...)
}

// cleanup closes database and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
