package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/aviladevs/fiscal-importer/internal/config"
	"github.com/aviladevs/fiscal-importer/internal/core/ports"
	"github.com/aviladevs/fiscal-importer/internal/core/usecase"
	"github.com/aviladevs/fiscal-importer/internal/infrastructure/parser/fiscalxml"
	"github.com/aviladevs/fiscal-importer/internal/infrastructure/queue/nats"
	"github.com/aviladevs/fiscal-importer/internal/infrastructure/repository/postgres"
	"github.com/aviladevs/fiscal-importer/internal/infrastructure/resilience"
	"github.com/aviladevs/fiscal-importer/internal/infrastructure/source/localfs"
	"github.com/aviladevs/fiscal-importer/internal/observability/metrics"
)

const ServiceName = "fiscal-importer"

type App struct {
	Config config.Config

	Gateway   *postgres.FiscalRepository
	Publisher ports.EventPublisher
	Metrics   *metrics.ImportMetrics
	ImportUC  ports.DocumentImporter

	closeFn func()
}

// OpenGateway connects to the database and applies the schema.
func OpenGateway(ctx context.Context, cfg config.Config) (*postgres.FiscalRepository, error) {
	ddl, err := postgres.LoadSchema(cfg.Database.SchemaFile)
	if err != nil {
		return nil, err
	}
	db, err := postgres.OpenDB(ctx, cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo, err := postgres.NewFiscalRepository(ctx, db, postgres.WithSchema(ddl))
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = repo.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	return repo, nil
}

// New wires the import run. Progress lines go to progress; an unreachable
// event broker only disables events.
func New(ctx context.Context, cfg config.Config, progress io.Writer, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	repo, err := OpenGateway(ctx, cfg)
	if err != nil {
		return nil, err
	}

	importMetrics := metrics.NewImportMetrics(ServiceName)
	publisher := newPublisher(cfg, logger)

	importUC := usecase.NewImportUseCase(
		localfs.New(cfg.Import.Extension),
		fiscalxml.New(),
		repo,
		usecase.ImportOptions{
			ParseWorkers: cfg.Import.ParseWorkers,
			Progress:     progress,
			Logger:       logger,
			Publisher:    publisher,
			Observer:     importMetrics,
		},
	)

	return &App{
		Config:    cfg,
		Gateway:   repo,
		Publisher: publisher,
		Metrics:   importMetrics,
		ImportUC:  importUC,

		closeFn: func() {
			if publisher != nil {
				publisher.Close()
			}
			if err := repo.Close(); err != nil {
				logger.Warn("database_close_failed", "error", err)
			}
		},
	}, nil
}

func (a *App) Directories() ports.DirectorySet {
	return ports.DirectorySet{
		Invoice: a.Config.Directories.Invoice,
		Freight: a.Config.Directories.Freight,
	}
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

func newPublisher(cfg config.Config, logger *slog.Logger) ports.EventPublisher {
	if cfg.NATS.URL == "" {
		return nil
	}
	policy := resilience.DefaultConfig()
	if cfg.NATS.RetryAttempts > 0 {
		policy.RetryMaxAttempts = cfg.NATS.RetryAttempts
	}
	publisher, err := nats.NewWithOptions(cfg.NATS.URL, cfg.NATS.SubjectPrefix, nats.Options{
		ResilienceExecutor: resilience.NewExecutor(policy).WithLogger(logger),
	})
	if err != nil {
		logger.Warn("event_publisher_unavailable", "url", cfg.NATS.URL, "error", err)
		return nil
	}
	return publisher
}
