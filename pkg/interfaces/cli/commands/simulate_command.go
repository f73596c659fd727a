package commands

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/curielabs/elusched/pkg/application/services/rescan"
	"github.com/curielabs/elusched/pkg/infrastructure/config"
)

// SimulateCommand runs a what-if pass over the stored orders without
// persisting anything.
type SimulateCommand struct {
	cfg    *config.Config
	logger *zap.Logger
	opts   rescan.SimulationOptions

	// Future selects the future-order vault instead of the live orders.
	// That variant persists speculative assignments onto the vault.
	Future bool

	Format  string
	Verbose bool
}

func NewSimulateCommand(cfg *config.Config, logger *zap.Logger, opts rescan.SimulationOptions) *SimulateCommand {
	return &SimulateCommand{cfg: cfg, logger: logger, opts: opts}
}

func (c *SimulateCommand) Execute(ctx context.Context) error {
	if err := requireDataDir(c.cfg); err != nil {
		return err
	}
	store, closeStore, err := openStore(c.cfg)
	if err != nil {
		return fmt.Errorf("while opening store: %w", err)
	}
	defer closeStore()

	svc := newRescanService(store, c.logger)
	simulate := svc.Simulate
	if c.Future {
		simulate = svc.SimulateFuture
	}
	result, err := simulate(ctx, c.opts)
	if err != nil {
		return fmt.Errorf("while simulating: %w", err)
	}
	return printResult(result, c.Format, c.Verbose)
}
