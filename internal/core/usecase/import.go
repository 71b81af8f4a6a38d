package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/aviladevs/fiscal-importer/internal/core/domain"
	"github.com/aviladevs/fiscal-importer/internal/core/ports"
)

type ImportOptions struct {
	// ParseWorkers bounds how many files are read and parsed at once.
	// Writes are always sequential.
	ParseWorkers int
	Progress     io.Writer
	Logger       *slog.Logger
	Publisher    ports.EventPublisher
	Observer     ports.ImportObserver
}

type ImportUseCase struct {
	source    ports.SourceDirectory
	parser    ports.DocumentParser
	gateway   ports.DocumentGateway
	publisher ports.EventPublisher
	observer  ports.ImportObserver
	progress  io.Writer
	logger    *slog.Logger
	workers   int

	now   func() time.Time
	newID func() string
}

func NewImportUseCase(
	source ports.SourceDirectory,
	parser ports.DocumentParser,
	gateway ports.DocumentGateway,
	opts ImportOptions,
) *ImportUseCase {
	uc := &ImportUseCase{
		source:    source,
		parser:    parser,
		gateway:   gateway,
		publisher: opts.Publisher,
		observer:  opts.Observer,
		progress:  opts.Progress,
		logger:    opts.Logger,
		workers:   opts.ParseWorkers,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	if uc.progress == nil {
		uc.progress = io.Discard
	}
	if uc.logger == nil {
		uc.logger = slog.Default()
	}
	if uc.observer == nil {
		uc.observer = noopObserver{}
	}
	if uc.workers <= 0 {
		uc.workers = 1
	}
	return uc
}

// Run imports the invoice directory, then the freight directory. Statistics
// are returned even when the run aborts on a connection failure.
func (uc *ImportUseCase) Run(ctx context.Context, dirs ports.DirectorySet) (*domain.RunStatistics, error) {
	stats := domain.NewRunStatistics(uc.newID())
	uc.logger.Info("import_started", "run_id", stats.RunID, "invoice_dir", dirs.Invoice, "freight_dir", dirs.Freight)

	steps := []struct {
		dir  string
		kind domain.DocumentKind
	}{
		{dir: dirs.Invoice, kind: domain.KindInvoice},
		{dir: dirs.Freight, kind: domain.KindFreight},
	}
	for _, step := range steps {
		if err := uc.ProcessDirectory(ctx, step.dir, step.kind, stats); err != nil {
			uc.logger.Error("import_aborted", "run_id", stats.RunID, "kind", step.kind, "error", err)
			return stats, err
		}
	}

	uc.logger.Info("import_finished",
		"run_id", stats.RunID,
		"success", stats.TotalSuccess(),
		"errors", stats.TotalError(),
		"items_inserted", stats.ItemsInserted,
	)
	return stats, nil
}

type loadedDocument struct {
	path     string
	filename string
	record   *domain.Record
	err      error
	started  time.Time
}

// ProcessDirectory imports every matching file of dir. Per-document failures
// are recorded in stats; only connection failures and cancellation return.
func (uc *ImportUseCase) ProcessDirectory(ctx context.Context, dir string, kind domain.DocumentKind, stats *domain.RunStatistics) error {
	files, err := uc.source.List(ctx, dir)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		uc.logger.Warn("directory_unavailable", "kind", kind, "dir", dir, "error", err)
		fmt.Fprintf(uc.progress, "[%s] directory unavailable, skipping: %s\n", kind, dir)
		return nil
	}
	fmt.Fprintf(uc.progress, "[%s] %d files found in %s\n", kind, len(files), dir)

	batch := uc.workers * 4
	for start := 0; start < len(files); start += batch {
		end := min(start+batch, len(files))
		docs, err := uc.loadBatch(ctx, files[start:end], kind)
		if err != nil {
			return err
		}
		for _, doc := range docs {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := uc.importDocument(ctx, doc, kind, stats); err != nil {
				return err
			}
		}
	}
	return nil
}

// loadBatch reads and parses files concurrently, keeping listing order.
func (uc *ImportUseCase) loadBatch(ctx context.Context, paths []string, kind domain.DocumentKind) ([]loadedDocument, error) {
	out := make([]loadedDocument, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(uc.workers)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			out[i] = uc.load(gctx, path, kind)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, ctx.Err()
}

func (uc *ImportUseCase) load(ctx context.Context, path string, kind domain.DocumentKind) loadedDocument {
	doc := loadedDocument{path: path, filename: filepath.Base(path), started: uc.now()}
	raw, err := uc.source.Read(ctx, path)
	if err != nil {
		doc.err = fmt.Errorf("read file: %w", err)
		return doc
	}
	doc.record, doc.err = uc.parser.Parse(raw, kind)
	return doc
}

func (uc *ImportUseCase) importDocument(ctx context.Context, doc loadedDocument, kind domain.DocumentKind, stats *domain.RunStatistics) error {
	outcome, err := uc.persist(ctx, doc, kind)
	if err != nil {
		stats.Record(kind, doc.filename, domain.Failed(err.Error()))
		fmt.Fprintf(uc.progress, "[%s] aborted at %s: %v\n", kind, doc.filename, err)
		return err
	}

	stats.Record(kind, doc.filename, outcome)
	uc.audit(ctx, stats.RunID, kind, doc, outcome)
	uc.observer.ObserveDocument(kind, outcome.Status, uc.now().Sub(doc.started).Seconds())

	switch outcome.Status {
	case domain.OutcomeInserted:
		uc.observer.ObserveItems(outcome.ItemsInserted)
		fmt.Fprintf(uc.progress, "[%s] imported %s (%d items)\n", kind, doc.filename, outcome.ItemsInserted)
		uc.logger.Debug("document_imported", "kind", kind, "file", doc.filename, "access_key", doc.record.AccessKey, "row_id", outcome.RowID)
		if doc.record.DroppedItems > 0 {
			uc.logger.Warn("items_dropped", "kind", kind, "file", doc.filename, "dropped", doc.record.DroppedItems)
		}
		uc.publish(ctx, stats.RunID, doc, outcome)
	case domain.OutcomeDuplicate:
		fmt.Fprintf(uc.progress, "[%s] already imported %s\n", kind, doc.filename)
	default:
		fmt.Fprintf(uc.progress, "[%s] failed %s: %s\n", kind, doc.filename, outcome.Reason)
		uc.logger.Warn("document_failed", "kind", kind, "file", doc.filename, "reason", outcome.Reason)
	}
	return nil
}

// persist runs the duplicate check and the insert. The error return is
// reserved for connection failures.
func (uc *ImportUseCase) persist(ctx context.Context, doc loadedDocument, kind domain.DocumentKind) (domain.ImportOutcome, error) {
	if doc.err != nil {
		return domain.Failed(doc.err.Error()), nil
	}

	exists, err := uc.gateway.Exists(ctx, doc.record.AccessKey, kind)
	if err != nil {
		if domain.IsKind(err, domain.ErrConnection) {
			return domain.ImportOutcome{}, err
		}
		return domain.Failed(fmt.Sprintf("check duplicate: %v", err)), nil
	}
	if exists {
		return domain.SkippedDuplicate(), nil
	}
	return uc.gateway.InsertDocument(ctx, doc.record, doc.filename)
}

func (uc *ImportUseCase) audit(ctx context.Context, runID string, kind domain.DocumentKind, doc loadedDocument, outcome domain.ImportOutcome) {
	entry := domain.AuditEntry{
		RunID:    runID,
		Kind:     kind,
		Filename: doc.filename,
		Status:   domain.LogSuccess,
	}
	if doc.record != nil {
		entry.AccessKey = doc.record.AccessKey
	}
	switch outcome.Status {
	case domain.OutcomeInserted:
		entry.Message = fmt.Sprintf("imported with %d items", outcome.ItemsInserted)
	case domain.OutcomeDuplicate:
		entry.Message = "skipped: already imported"
	default:
		entry.Status = domain.LogError
		entry.Message = outcome.Reason
	}

	if err := uc.gateway.AppendLog(ctx, entry); err != nil {
		uc.logger.Warn("audit_log_failed", "kind", kind, "file", doc.filename, "error", err)
	}
}

func (uc *ImportUseCase) publish(ctx context.Context, runID string, doc loadedDocument, outcome domain.ImportOutcome) {
	if uc.publisher == nil {
		return
	}
	err := uc.publisher.PublishDocumentImported(ctx, newDocumentEvent(uc.newID(), runID, doc, outcome, uc.now()))
	uc.observer.ObservePublish(err)
	if err != nil {
		uc.logger.Warn("event_publish_failed", "file", doc.filename, "access_key", doc.record.AccessKey, "error", err)
	}
}

func newDocumentEvent(eventID, runID string, doc loadedDocument, outcome domain.ImportOutcome, at time.Time) domain.DocumentEvent {
	rec := doc.record
	ev := domain.DocumentEvent{
		EventID:        eventID,
		RunID:          runID,
		Kind:           rec.Kind,
		AccessKey:      rec.AccessKey,
		DocumentNumber: rec.Number(),
		Series:         deref(rec.Series),
		IssuedAt:       rec.IssuedAtText(),
		IssuerTaxID:    deref(rec.Issuer.TaxID),
		IssuerName:     deref(rec.Issuer.LegalName),
		RecipientTaxID: deref(rec.Recipient.TaxID),
		RecipientName:  deref(rec.Recipient.LegalName),
		StatusCode:     deref(rec.Authorization.StatusCode),
		Items:          outcome.ItemsInserted,
		Filename:       doc.filename,
		CommittedAt:    at.UTC(),
	}
	if rec.Totals.Total.Valid {
		ev.TotalValue = rec.Totals.Total.Decimal.StringFixed(2)
	}
	return ev
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

type noopObserver struct{}

func (noopObserver) ObserveDocument(domain.DocumentKind, domain.OutcomeStatus, float64) {}
func (noopObserver) ObserveItems(int)                                                   {}
func (noopObserver) ObservePublish(error)                                               {}
