// Package commands implements the CLI subcommands.
package commands

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/curielabs/elusched/pkg/application/dto"
	"github.com/curielabs/elusched/pkg/application/services/assignment"
	"github.com/curielabs/elusched/pkg/application/services/rescan"
	"github.com/curielabs/elusched/pkg/domain/entities"
	"github.com/curielabs/elusched/pkg/domain/repositories"
	"github.com/curielabs/elusched/pkg/infrastructure/config"
	"github.com/curielabs/elusched/pkg/infrastructure/repositories/badgerstore"
	"github.com/curielabs/elusched/pkg/infrastructure/repositories/memory"
	"github.com/curielabs/elusched/pkg/interfaces/cli/output"
)

// openStore selects the persistence backend from the configuration.
// The returned close function is a no-op for the in-memory store.
func openStore(cfg *config.Config) (repositories.Store, func() error, error) {
	if cfg.DataDir == "" {
		return memory.NewStore(), func() error { return nil }, nil
	}
	store, err := badgerstore.Open(cfg.DataDir)
	if err != nil {
		return nil, nil, err
	}
	return store, store.Close, nil
}

// requireDataDir guards subcommands that only make sense against a
// persistent database.
func requireDataDir(cfg *config.Config) error {
	if cfg.DataDir == "" {
		return fmt.Errorf("data_dir must be set for this command")
	}
	return nil
}

// seedSettings writes the configured lock window into the store.
// The configuration is authoritative at process start; a bundle import
// may change the stored value afterwards.
func seedSettings(ctx context.Context, store repositories.Store, cfg *config.Config) error {
	return store.Update(ctx, func(tx repositories.Tx) error {
		return tx.PutSettings(&entities.Settings{MinLockMinutes: cfg.MinLockMinutes})
	})
}

func newRescanService(store repositories.Store, logger *zap.Logger) *rescan.Service {
	return rescan.NewService(store, assignment.NewService(logger), logger)
}

// printResult renders the result to stdout.
func printResult(result *dto.AssignmentResult, format string, verbose bool) error {
	return output.Generate(os.Stdout, result, output.Config{Format: format, Verbose: verbose})
}
