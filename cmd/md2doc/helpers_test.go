package main

// Notes:
// - Test infrastructure shared by the command tests: environments with
//   captured output, temp trees, and a mock converter pool.
// No coverage gaps: this is test infrastructure, not production code.

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	md2doc "github.com/alnah/go-md2doc"
)

// ---------------------------------------------------------------------------
// Environment
// ---------------------------------------------------------------------------

// testEnv returns an environment reading stdin and capturing output.
func testEnv(stdin string) (*Environment, *bytes.Buffer, *bytes.Buffer) {
	var stdout, stderr bytes.Buffer
	env := &Environment{
		Now:    time.Now,
		Stdin:  strings.NewReader(stdin),
		Stdout: &stdout,
		Stderr: &stderr,
	}
	return env, &stdout, &stderr
}

// setupTestDir creates a temp directory with the given file structure.
func setupTestDir(t *testing.T, files map[string]string) string {
	t.Helper()
	tempDir := t.TempDir()

	for path, content := range files {
		fullPath := filepath.Join(tempDir, path)
		if err := os.MkdirAll(filepath.Dir(fullPath), 0o750); err != nil {
			t.Fatalf("failed to create dir for %s: %v", path, err)
		}
		if err := os.WriteFile(fullPath, []byte(content), 0o644); err != nil {
			t.Fatalf("failed to write %s: %v", path, err)
		}
	}

	return tempDir
}

// readFile returns the content of path or fails the test.
func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

// ---------------------------------------------------------------------------
// Mock Implementations
// ---------------------------------------------------------------------------

// mockConverter records inputs and returns canned output.
type mockConverter struct {
	mu     sync.Mutex
	inputs []md2doc.Input
	out    []byte
	err    error
}

func (m *mockConverter) Convert(_ context.Context, input md2doc.Input) (*md2doc.ConvertResult, error) {
	m.mu.Lock()
	m.inputs = append(m.inputs, input)
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return &md2doc.ConvertResult{
		Document: &md2doc.Document{Type: "doc"},
		Stats:    md2doc.Stats{Capsules: 1, Structured: 1},
	}, nil
}

func (m *mockConverter) Render(_ context.Context, _ *md2doc.Document, _ md2doc.Format, _ string) ([]byte, error) {
	return m.out, nil
}

func (m *mockConverter) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.inputs)
}

// testPool hands out the same converter, or nil to simulate creation failures.
type testPool struct {
	svc  CLIConverter
	size int
}

func (p *testPool) Acquire() CLIConverter {
	if p.svc == nil {
		return nil
	}
	return p.svc
}

func (p *testPool) Release(CLIConverter) {}

func (p *testPool) Size() int { return p.size }
