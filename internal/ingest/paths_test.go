package ingest

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"filehub/internal/core"
)

func assertParsedPath(t *testing.T, parsed ParsedPath, expectedPath string, expectedKind PathKind) {
	t.Helper()
	if parsed.FullPath != expectedPath {
		t.Errorf("expected path %s, got %s", expectedPath, parsed.FullPath)
	}
	if parsed.Kind != expectedKind {
		t.Errorf("expected kind %v, got %v", expectedKind, parsed.Kind)
	}
}

func assertValidationError(t *testing.T, err error, expectedValue string, expectedCause string) {
	t.Helper()
	var validationErr *core.ValidationError
	if !errors.As(err, &validationErr) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if expectedValue != "" && validationErr.Value != expectedValue {
		t.Errorf("expected Value to be %q, got %q", expectedValue, validationErr.Value)
	}
	if expectedCause != "" && validationErr.Cause != expectedCause {
		t.Errorf("expected Cause to be %q, got %q", expectedCause, validationErr.Cause)
	}
}

func TestParseArgs(t *testing.T) {
	t.Run("empty args returns error", func(t *testing.T) {
		result, err := ParseArgs([]string{})

		if result != nil {
			t.Error("expected nil result for empty args")
		}
		assertValidationError(t, err, "<files>", "no files provided")
	})

	t.Run("file and directory", func(t *testing.T) {
		dir := t.TempDir()
		file := filepath.Join(dir, "a.txt")
		if err := os.WriteFile(file, []byte("a"), 0644); err != nil {
			t.Fatal(err)
		}

		result, err := ParseArgs([]string{file, dir + "/"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(result) != 2 {
			t.Fatalf("expected 2 results, got %d", len(result))
		}
		assertParsedPath(t, result[0], file, PathFile)
		assertParsedPath(t, result[1], dir, PathDir)
	})

	t.Run("missing path", func(t *testing.T) {
		missing := filepath.Join(t.TempDir(), "nope.txt")

		_, err := ParseArgs([]string{missing})
		assertValidationError(t, err, missing, "not found or not accessible")
		if !errors.Is(err, core.ErrInvalid) {
			t.Error("expected error to match core.ErrInvalid")
		}
	})
}
