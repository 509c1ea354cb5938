package store

import (
	"context"
	"path/filepath"
	"testing"
)

// createTestStore creates a new file-backed store in a temp dir.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// testRun returns a run with minimal required fields.
func testRun(id string) Run {
	return Run{
		ID:            id,
		Scenario:      "test-scenario",
		SampleRate:    8000,
		BlockSize:     2000,
		EngineVersion: "0.1.0",
	}
}

func insertRun(t *testing.T, s *Store, id string) {
	t.Helper()
	if err := s.BeginRun(context.Background(), testRun(id)); err != nil {
		t.Fatalf("BeginRun(%q) failed: %v", id, err)
	}
}
