package ports

import (
	"context"

	"github.com/aviladevs/fiscal-importer/internal/core/domain"
)

// DocumentParser turns raw XML into a record. Implementations are pure.
type DocumentParser interface {
	Parse(raw []byte, kind domain.DocumentKind) (*domain.Record, error)
}

// DocumentGateway persists records over a single connection. InsertDocument
// returns a non-nil error only when the connection itself is unusable; data
// failures come back as a failed outcome.
type DocumentGateway interface {
	EnsureSchema(ctx context.Context) error
	Exists(ctx context.Context, accessKey string, kind domain.DocumentKind) (bool, error)
	InsertDocument(ctx context.Context, rec *domain.Record, filename string) (domain.ImportOutcome, error)
	AppendLog(ctx context.Context, entry domain.AuditEntry) error
	Close() error
}

// SourceDirectory lists and reads input files.
type SourceDirectory interface {
	List(ctx context.Context, dir string) ([]string, error)
	Read(ctx context.Context, path string) ([]byte, error)
}

// EventPublisher announces committed documents to downstream consumers.
type EventPublisher interface {
	PublishDocumentImported(ctx context.Context, event domain.DocumentEvent) error
	Close()
}

// ImportObserver receives per-document measurements.
type ImportObserver interface {
	ObserveDocument(kind domain.DocumentKind, outcome domain.OutcomeStatus, seconds float64)
	ObserveItems(n int)
	ObservePublish(err error)
}
