package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/curielabs/elusched/pkg/infrastructure/bundle"
	"github.com/curielabs/elusched/pkg/infrastructure/config"
	"github.com/curielabs/elusched/pkg/infrastructure/repositories/csv"
)

// ImportCommand replaces the dataset with a JSON bundle and rescans.
type ImportCommand struct {
	cfg    *config.Config
	logger *zap.Logger
	path   string

	// CSVDir selects CSV seeding instead of a JSON bundle. The
	// directory must contain generators.csv, hospitals.csv and
	// orders.csv.
	CSVDir string
}

// NewImportCommand reads from path, or from stdin when path is "-".
func NewImportCommand(cfg *config.Config, logger *zap.Logger, path string) *ImportCommand {
	return &ImportCommand{cfg: cfg, logger: logger, path: path}
}

func (c *ImportCommand) Execute(ctx context.Context) error {
	if err := requireDataDir(c.cfg); err != nil {
		return err
	}
	if c.path == "" && c.CSVDir == "" {
		return fmt.Errorf("an input file or CSV directory is required")
	}

	var b *bundle.Bundle
	var err error
	if c.CSVDir != "" {
		b, err = c.loadCSV()
	} else {
		b, err = c.loadBundle()
	}
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(c.cfg)
	if err != nil {
		return fmt.Errorf("while opening store: %w", err)
	}
	defer closeStore()

	if err := bundle.Import(ctx, store, b); err != nil {
		return err
	}

	result, err := newRescanService(store, c.logger).Rescan(ctx)
	if err != nil {
		return fmt.Errorf("while rescanning after import: %w", err)
	}
	return printResult(result, "text", false)
}

func (c *ImportCommand) loadBundle() (*bundle.Bundle, error) {
	in := os.Stdin
	if c.path != "-" {
		f, err := os.Open(c.path)
		if err != nil {
			return nil, fmt.Errorf("while opening bundle file %q: %w", c.path, err)
		}
		defer f.Close()
		in = f
	}
	return bundle.Read(in)
}

func (c *ImportCommand) loadCSV() (*bundle.Bundle, error) {
	loader := csv.NewLoader()
	gens, err := loader.LoadGenerators(filepath.Join(c.CSVDir, "generators.csv"))
	if err != nil {
		return nil, err
	}
	hospitals, err := loader.LoadHospitals(filepath.Join(c.CSVDir, "hospitals.csv"))
	if err != nil {
		return nil, err
	}
	orders, err := loader.LoadOrders(filepath.Join(c.CSVDir, "orders.csv"))
	if err != nil {
		return nil, err
	}
	return &bundle.Bundle{
		Generators: gens,
		Hospitals:  hospitals,
		Orders:     orders,
		Meta:       bundle.Meta{MinLockMinutes: c.cfg.MinLockMinutes},
	}, nil
}
