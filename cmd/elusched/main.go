package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/curielabs/elusched/pkg/application/services/rescan"
	"github.com/curielabs/elusched/pkg/infrastructure/config"
	"github.com/curielabs/elusched/pkg/infrastructure/logging"
	"github.com/curielabs/elusched/pkg/interfaces/cli/commands"
)

const usage = `Usage: elusched <command> [flags]

Commands:
  serve     Run the HTTP API server
  rescan    Reassign every stored order and print the audit trail
  simulate  Run a what-if assignment pass without changing the schedule
  export    Write the full dataset as a JSON bundle
  import    Replace the dataset with a JSON bundle and rescan

Run "elusched <command> -help" for command flags.
`

type command interface {
	Execute(ctx context.Context) error
}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cmd, err := buildCommand(os.Args[1], os.Args[2:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	if err := cmd.Execute(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func buildCommand(name string, args []string) (command, error) {
	fs := flag.NewFlagSet(name, flag.ExitOnError)
	configPath := fs.String("config", "", "Path to YAML config file")
	dataDir := fs.String("data", "", "Data directory (overrides config)")

	switch name {
	case "serve":
		listenAddr := fs.String("listen", "", "HTTP listen address (overrides config)")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		cfg, logger, err := load(*configPath, *dataDir)
		if err != nil {
			return nil, err
		}
		if *listenAddr != "" {
			cfg.ListenAddr = *listenAddr
		}
		return commands.NewServeCommand(cfg, logger), nil

	case "rescan":
		format := fs.String("format", "text", "Output format: text, json, timeline")
		verbose := fs.Bool("verbose", false, "Include the per-order audit trail")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		cfg, logger, err := load(*configPath, *dataDir)
		if err != nil {
			return nil, err
		}
		cmd := commands.NewRescanCommand(cfg, logger)
		cmd.Format = *format
		cmd.Verbose = *verbose
		return cmd, nil

	case "simulate":
		future := fs.Bool("future", false, "Simulate the future-order vault instead of live orders")
		respectLock := fs.Bool("respect-lock", false, "Honor the regeneration lock during simulation")
		firstUseMax := fs.Bool("first-use-max", true, "Credit full theoretical yield on first use of each generator")
		format := fs.String("format", "text", "Output format: text, json, timeline")
		verbose := fs.Bool("verbose", false, "Include the per-order audit trail")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		cfg, logger, err := load(*configPath, *dataDir)
		if err != nil {
			return nil, err
		}
		opts := rescan.SimulationOptions{
			RespectLock:         *respectLock,
			TreatFirstUseMax:    *firstUseMax,
			FirstUseIgnoresLock: *firstUseMax,
		}
		cmd := commands.NewSimulateCommand(cfg, logger, opts)
		cmd.Future = *future
		cmd.Format = *format
		cmd.Verbose = *verbose
		return cmd, nil

	case "export":
		out := fs.String("out", "-", "Output file, - for stdout")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		cfg, _, err := load(*configPath, *dataDir)
		if err != nil {
			return nil, err
		}
		return commands.NewExportCommand(cfg, *out), nil

	case "import":
		in := fs.String("in", "", "Input file, - for stdin")
		csvDir := fs.String("csv-dir", "", "Directory with generators.csv, hospitals.csv and orders.csv")
		if err := fs.Parse(args); err != nil {
			return nil, err
		}
		cfg, logger, err := load(*configPath, *dataDir)
		if err != nil {
			return nil, err
		}
		cmd := commands.NewImportCommand(cfg, logger, *in)
		cmd.CSVDir = *csvDir
		return cmd, nil

	default:
		return nil, fmt.Errorf("unknown command %q\n\n%s", name, usage)
	}
}

func load(configPath, dataDir string) (*config.Config, *zap.Logger, error) {
	cfg := config.Default()
	if configPath != "" {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return nil, nil, err
		}
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, nil, fmt.Errorf("while building logger: %w", err)
	}
	return cfg, logger, nil
}
