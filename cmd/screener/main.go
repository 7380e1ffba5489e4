package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/eddiefleurent/downtrend_puts/internal/config"
	"github.com/eddiefleurent/downtrend_puts/internal/nse"
	"github.com/eddiefleurent/downtrend_puts/internal/pipeline"
	"github.com/eddiefleurent/downtrend_puts/internal/report"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// defaultEnvFile is loaded when present and --env-file is not given.
const defaultEnvFile = ".env"

type runArgs struct {
	ConfigPath string
	EnvFile    string
	JSON       bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var args runArgs
	cmd := &cobra.Command{
		Use:   "screener",
		Short: "Pick one PUT option for each NIFTY stock in a confirmed downtrend",
		Long: "Ranks the index constituents that lag the index, keeps those whose price\n" +
			"history confirms the move, and selects the most liquid option nearest a\n" +
			"volatility-banded target strike. The selection is printed on stdout; logs\n" +
			"go to stderr.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), args, stdout, stderr)
		},
	}
	cmd.Flags().StringVar(&args.ConfigPath, "config", "", "path to configuration file (default config.yaml when present)")
	cmd.Flags().StringVar(&args.EnvFile, "env-file", "", "dotenv file loaded before the config is expanded")
	cmd.Flags().BoolVar(&args.JSON, "json", false, "print the result as JSON")
	return cmd
}

func run(ctx context.Context, args runArgs, stdout, stderr io.Writer) error {
	if err := loadEnv(args.EnvFile); err != nil {
		return err
	}
	cfg, err := loadConfig(args.ConfigPath)
	if err != nil {
		return err
	}

	logger := cfg.Logger()
	logger.SetOutput(stderr)

	selection, err := cfg.SelectionConfig()
	if err != nil {
		return err
	}
	p := pipeline.New(newSource(cfg, logger), selection, pipeline.Options{
		Concurrency:   cfg.Runner.Concurrency,
		HistoryWindow: cfg.Market.HistoryWindow,
	}, logger)

	result, err := p.Run(ctx)
	if err != nil {
		return fmt.Errorf("screening run failed: %w", err)
	}
	logger.WithField("run", shortID(result.RunID)).Infof("Selected %d of %d stocks", len(result.Selections), len(result.Outcomes))

	if args.JSON {
		return report.RenderJSON(stdout, result)
	}
	return report.Render(stdout, result)
}

func loadEnv(path string) error {
	if path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("loading env file %s: %w", path, err)
		}
		return nil
	}
	if _, err := os.Stat(defaultEnvFile); err == nil {
		if err := godotenv.Load(defaultEnvFile); err != nil {
			return fmt.Errorf("loading env file %s: %w", defaultEnvFile, err)
		}
	}
	return nil
}

// loadConfig reads path, or config.yaml when path is empty and the file
// exists, or falls back to the defaults.
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		if _, err := os.Stat(config.DefaultPath); errors.Is(err, os.ErrNotExist) {
			return config.Default(), nil
		}
		path = config.DefaultPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func newSource(cfg *config.Config, logger logrus.FieldLogger) nse.Source {
	opts := cfg.NSEOptions()
	opts.Logger = logger
	client := nse.NewClient(opts)
	if !cfg.CircuitBreaker.Enabled {
		logger.Debug("Circuit breaker disabled")
		return client
	}
	settings := cfg.BreakerSettings()
	settings.Logger = logger
	return nse.NewCircuitBreakerSourceWithSettings(client, settings)
}
