package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aviladevs/fiscal-importer/internal/core/domain"
)

func TestMissingConfigPrintsTemplate(t *testing.T) {
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs([]string{"--config", filepath.Join(t.TempDir(), "config.yaml")})

	err := cmd.Execute()
	if !domain.IsKind(err, domain.ErrConfigNotFound) {
		t.Fatalf("expected ErrConfigNotFound, got %v", err)
	}
	if !strings.Contains(stderr.String(), "parse_workers:") {
		t.Fatalf("expected example template on stderr, got %q", stderr.String())
	}
	if stdout.Len() != 0 {
		t.Fatalf("unexpected stdout output %q", stdout.String())
	}
}

func TestVersionCommand(t *testing.T) {
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs([]string{"version"})

	if err := cmd.Execute(); err != nil {
		t.Fatalf("version error = %v", err)
	}
	if !strings.HasPrefix(stdout.String(), "fiscal-importer dev") {
		t.Fatalf("unexpected version output %q", stdout.String())
	}
}

func TestRejectsPositionalArguments(t *testing.T) {
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetArgs([]string{"extra"})

	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected error for positional argument")
	}
}
