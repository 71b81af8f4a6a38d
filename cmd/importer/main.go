package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aviladevs/fiscal-importer/internal/bootstrap"
	"github.com/aviladevs/fiscal-importer/internal/config"
	"github.com/aviladevs/fiscal-importer/internal/core/domain"
	"github.com/aviladevs/fiscal-importer/internal/observability/logging"
	"github.com/aviladevs/fiscal-importer/internal/report"
)

// Version is set at build time with -ldflags "-X main.Version=...".
var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fiscal-importer: %v\n", err)
		os.Exit(1)
	}
}

type cliOptions struct {
	configPath string
	stdout     io.Writer
	stderr     io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	opts := &cliOptions{stdout: stdout, stderr: stderr}

	root := &cobra.Command{
		Use:           "fiscal-importer",
		Short:         "Import NF-e and CT-e XML documents into PostgreSQL",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runImport(cmd.Context(), opts)
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", config.DefaultPath, "path to the YAML config file")

	root.AddCommand(&cobra.Command{
		Use:   "schema",
		Short: "Create the tables and indexes, then exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSchema(cmd.Context(), opts)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(opts.stdout, "fiscal-importer %s (%s)\n", Version, runtime.Version())
		},
	})
	return root
}

func loadConfig(opts *cliOptions) (config.Config, *slog.Logger, error) {
	if err := config.LoadDotEnv(".env", filepath.Join(filepath.Dir(opts.configPath), ".env")); err != nil {
		return config.Config{}, nil, err
	}
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		if domain.IsKind(err, domain.ErrConfigNotFound) {
			fmt.Fprintf(opts.stderr, "config file %s not found, create one like this:\n\n%s\n", opts.configPath, config.ExampleTemplate)
		}
		return config.Config{}, nil, err
	}
	logger := logging.NewJSONLogger(opts.stderr, bootstrap.ServiceName, cfg.LogLevel)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func runSchema(ctx context.Context, opts *cliOptions) error {
	cfg, logger, err := loadConfig(opts)
	if err != nil {
		return err
	}
	gateway, err := bootstrap.OpenGateway(ctx, cfg)
	if err != nil {
		return err
	}
	defer gateway.Close()
	logger.Info("schema_ready", "host", cfg.Database.Host, "database", cfg.Database.Name)
	fmt.Fprintln(opts.stdout, "schema ready")
	return nil
}

func runImport(ctx context.Context, opts *cliOptions) error {
	cfg, logger, err := loadConfig(opts)
	if err != nil {
		return err
	}
	app, err := bootstrap.New(ctx, cfg, opts.stdout, logger)
	if err != nil {
		return err
	}
	defer app.Close()

	stats, runErr := app.ImportUC.Run(ctx, app.Directories())
	if err := report.Print(opts.stdout, stats); err != nil {
		logger.Warn("report_print_failed", "error", err)
	}
	if path := cfg.Report.XLSXPath; path != "" {
		if err := report.WriteXLSX(path, stats); err != nil {
			logger.Warn("report_xlsx_failed", "path", path, "error", err)
		}
	}

	app.Metrics.FinishRun(runErr == nil, float64(time.Now().Unix()))
	if path := cfg.Metrics.TextfilePath; path != "" {
		if err := app.Metrics.WriteTextfile(path); err != nil {
			logger.Warn("metrics_textfile_failed", "path", path, "error", err)
		}
	}
	return runErr
}
