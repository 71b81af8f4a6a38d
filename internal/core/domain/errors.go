package domain

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrTemporary        = errors.New("temporary failure")
	ErrMissingStructure = errors.New("missing document structure")
	ErrConnection       = errors.New("database connection failure")
	ErrConfigNotFound   = errors.New("config file not found")
	ErrSourceNotFound   = errors.New("source directory not found")
)

// StructuralError reports that a document lacks its wrapper or information
// element. It is the only error the parser surfaces.
type StructuralError struct {
	Kind   DocumentKind
	Detail string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Kind, ErrMissingStructure.Error(), e.Detail)
}

func (e *StructuralError) Unwrap() error {
	return ErrMissingStructure
}

func MissingStructure(kind DocumentKind, format string, args ...any) error {
	return &StructuralError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}
