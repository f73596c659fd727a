package commands

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/curielabs/elusched/pkg/infrastructure/config"
)

// RescanCommand reassigns every stored order and prints the audit trail.
type RescanCommand struct {
	cfg    *config.Config
	logger *zap.Logger

	Format  string
	Verbose bool
}

func NewRescanCommand(cfg *config.Config, logger *zap.Logger) *RescanCommand {
	return &RescanCommand{cfg: cfg, logger: logger}
}

func (c *RescanCommand) Execute(ctx context.Context) error {
	if err := requireDataDir(c.cfg); err != nil {
		return err
	}
	store, closeStore, err := openStore(c.cfg)
	if err != nil {
		return fmt.Errorf("while opening store: %w", err)
	}
	defer closeStore()

	result, err := newRescanService(store, c.logger).Rescan(ctx)
	if err != nil {
		return fmt.Errorf("while rescanning: %w", err)
	}
	return printResult(result, c.Format, c.Verbose)
}
