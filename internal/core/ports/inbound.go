package ports

import (
	"context"

	"github.com/aviladevs/fiscal-importer/internal/core/domain"
)

// DirectorySet names the input directory for each document kind.
type DirectorySet struct {
	Invoice string
	Freight string
}

// DocumentImporter is the inbound contract for a batch import run.
type DocumentImporter interface {
	Run(ctx context.Context, dirs DirectorySet) (*domain.RunStatistics, error)
	ProcessDirectory(ctx context.Context, dir string, kind domain.DocumentKind, stats *domain.RunStatistics) error
}
