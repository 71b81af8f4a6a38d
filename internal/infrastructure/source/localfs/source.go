package localfs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/aviladevs/fiscal-importer/internal/core/domain"
)

// Source reads input documents from local directories.
type Source struct {
	extension string
}

func New(extension string) *Source {
	if extension == "" {
		extension = ".xml"
	}
	if !strings.HasPrefix(extension, ".") {
		extension = "." + extension
	}
	return &Source{extension: strings.ToLower(extension)}
}

// List returns the regular files in dir whose extension matches, in the
// order the directory listing yields them (lexical by name).
func (s *Source) List(ctx context.Context, dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.WrapError(domain.ErrSourceNotFound, "list directory", err)
		}
		return nil, fmt.Errorf("list directory: %w", err)
	}

	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() {
			continue
		}
		if strings.ToLower(filepath.Ext(entry.Name())) != s.extension {
			continue
		}
		out = append(out, filepath.Join(dir, entry.Name()))
	}
	return out, nil
}

func (s *Source) Read(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return raw, nil
}
