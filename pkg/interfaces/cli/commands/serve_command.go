package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/curielabs/elusched/pkg/infrastructure/config"
	"github.com/curielabs/elusched/pkg/infrastructure/events"
	"github.com/curielabs/elusched/pkg/interfaces/httpapi"
)

// ServeCommand runs the HTTP API server.
type ServeCommand struct {
	cfg    *config.Config
	logger *zap.Logger
}

func NewServeCommand(cfg *config.Config, logger *zap.Logger) *ServeCommand {
	return &ServeCommand{cfg: cfg, logger: logger}
}

// Execute opens the store, performs a startup rescan, and serves the
// API until the process receives SIGINT or SIGTERM.
func (c *ServeCommand) Execute(ctx context.Context) error {
	store, closeStore, err := openStore(c.cfg)
	if err != nil {
		return fmt.Errorf("while opening store: %w", err)
	}
	defer closeStore()

	if err := seedSettings(ctx, store, c.cfg); err != nil {
		return fmt.Errorf("while seeding settings: %w", err)
	}

	svc := newRescanService(store, c.logger)
	eventLog := events.NewInMemoryLog(0)
	svc.SetRecorder(eventLog)
	if _, err := svc.Rescan(ctx); err != nil {
		return fmt.Errorf("while running startup rescan: %w", err)
	}

	handlers := httpapi.NewHandlers(svc, store, c.logger)
	handlers.SetEventLog(eventLog)
	router := httpapi.NewRouter(handlers)
	server := &http.Server{
		Addr:    c.cfg.ListenAddr,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		c.logger.Info("listening", zap.String("addr", c.cfg.ListenAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("while serving: %w", err)
	case <-ctx.Done():
	}

	c.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("while shutting down: %w", err)
	}
	return nil
}
