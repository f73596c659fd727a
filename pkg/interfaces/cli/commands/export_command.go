package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/curielabs/elusched/pkg/infrastructure/bundle"
	"github.com/curielabs/elusched/pkg/infrastructure/config"
)

// ExportCommand writes the full dataset as a JSON bundle.
type ExportCommand struct {
	cfg  *config.Config
	path string
}

// NewExportCommand writes to path, or to stdout when path is "-" or empty.
func NewExportCommand(cfg *config.Config, path string) *ExportCommand {
	return &ExportCommand{cfg: cfg, path: path}
}

func (c *ExportCommand) Execute(ctx context.Context) error {
	if err := requireDataDir(c.cfg); err != nil {
		return err
	}
	store, closeStore, err := openStore(c.cfg)
	if err != nil {
		return fmt.Errorf("while opening store: %w", err)
	}
	defer closeStore()

	b, err := bundle.Export(ctx, store, time.Now())
	if err != nil {
		return err
	}

	out := os.Stdout
	if c.path != "" && c.path != "-" {
		f, err := os.Create(c.path)
		if err != nil {
			return fmt.Errorf("while creating bundle file %q: %w", c.path, err)
		}
		defer f.Close()
		out = f
	}
	return bundle.Write(out, b)
}
