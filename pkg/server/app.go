package server

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	domrepo "QuantForge/internal/domain/repository"
	"QuantForge/internal/services/registry"
	pkgch "QuantForge/pkg/clickhouse"
	"QuantForge/pkg/config"
	xhttp "QuantForge/pkg/http"
	applogger "QuantForge/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	logger      *applogger.Logger
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
	chClient    *pkgch.Client
	archive     domrepo.CandleArchive
	events      domrepo.EventPublisher
	store       *registry.Store
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	l *applogger.Logger,
	handler xhttp.Handler,
	chClient *pkgch.Client,
	archive domrepo.CandleArchive,
	events domrepo.EventPublisher,
	store *registry.Store,
) *App {
	return &App{
		cfg:         cfg,
		logger:      l,
		httpHandler: handler,
		chClient:    chClient,
		archive:     archive,
		events:      events,
		store:       store,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := a.logger
	if l == nil {
		l, _ = applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
	}

	if a.archive != nil {
		initCtx, initCancel := context.WithTimeout(ctx, 10*time.Second)
		if err := a.archive.Init(initCtx); err != nil {
			l.Warn("candle archive init failed", applogger.Error(err))
		}
		initCancel()
	}

	// trim the registry on boot when a retention budget is configured
	if a.store != nil && a.cfg.Registry.KeepLatest > 0 {
		if removed, err := a.store.RetainLatest(a.cfg.Registry.KeepLatest); err != nil {
			l.Warn("registry cleanup failed", applogger.Error(err))
		} else if removed > 0 {
			l.Info("registry trimmed", applogger.Int("removed", removed))
		}
	}

	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)
	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}
	l.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	l := a.logger
	if l == nil {
		var err error
		l, err = applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
		if err != nil {
			log.Printf("failed to create logger: %v", err)
			return err
		}
	}
	l.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if a.httpServer != nil {
		if err := a.httpServer.Stop(shutdownCtx); err != nil {
			l.Error("http shutdown error", applogger.Error(err))
		}
	}

	if a.events != nil {
		if err := a.events.Close(); err != nil {
			l.Warn("event publisher close error", applogger.Error(err))
		}
	}
	if a.archive != nil {
		if err := a.archive.Close(); err != nil {
			l.Warn("archive close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	l.Info("shutdown complete")
	return nil
}
