package main

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	md2doc "github.com/alnah/go-md2doc"
)

func TestResolveOutputPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		outputDir string
		baseDir   string
		format    md2doc.Format
		want      string
		wantErr   error
	}{
		{
			name:   "next to input",
			input:  filepath.Join("docs", "a.md"),
			format: md2doc.FormatJSON,
			want:   filepath.Join("docs", "a.json"),
		},
		{
			name:      "into output dir",
			input:     filepath.Join("docs", "a.markdown"),
			outputDir: "out",
			format:    md2doc.FormatYAML,
			want:      filepath.Join("out", "a.yaml"),
		},
		{
			name:      "explicit output file",
			input:     "a.md",
			outputDir: filepath.Join("out", "result.json"),
			format:    md2doc.FormatJSON,
			want:      filepath.Join("out", "result.json"),
		},
		{
			name:      "keeps relative layout",
			input:     filepath.Join("docs", "guide", "a.md"),
			outputDir: "out",
			baseDir:   "docs",
			format:    md2doc.FormatHTML,
			want:      filepath.Join("out", "guide", "a.html"),
		},
		{
			name:      "markdown into another dir",
			input:     "a.md",
			outputDir: "out",
			format:    md2doc.FormatMarkdown,
			want:      filepath.Join("out", "a.md"),
		},
		{
			name:    "markdown over its input",
			input:   filepath.Join("docs", "a.md"),
			format:  md2doc.FormatMarkdown,
			wantErr: ErrOutputIsInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := resolveOutputPath(tt.input, tt.outputDir, tt.baseDir, tt.format)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("resolveOutputPath() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("resolveOutputPath() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("resolveOutputPath() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDiscoverFiles(t *testing.T) {
	t.Parallel()

	dir := setupTestDir(t, map[string]string{
		"a.md":          "# A",
		"b.txt":         "skip",
		"sub/c.MD":      "# C",
		"sub/deep/d.md": "# D",
	})

	files, err := discoverFiles(dir, "", md2doc.FormatJSON)
	if err != nil {
		t.Fatalf("discoverFiles() error = %v", err)
	}

	want := []FileToConvert{
		{InputPath: filepath.Join(dir, "a.md"), OutputPath: filepath.Join(dir, "a.json")},
		{InputPath: filepath.Join(dir, "sub", "c.MD"), OutputPath: filepath.Join(dir, "sub", "c.json")},
		{InputPath: filepath.Join(dir, "sub", "deep", "d.md"), OutputPath: filepath.Join(dir, "sub", "deep", "d.json")},
	}
	if diff := cmp.Diff(want, files); diff != "" {
		t.Errorf("discoverFiles() mismatch (-want +got):\n%s", diff)
	}
}

func TestDiscoverFiles_SingleFileExtension(t *testing.T) {
	t.Parallel()

	dir := setupTestDir(t, map[string]string{"notes.txt": "x"})
	if _, err := discoverFiles(filepath.Join(dir, "notes.txt"), "", md2doc.FormatJSON); !errors.Is(err, ErrInvalidExtension) {
		t.Errorf("discoverFiles() error = %v, want ErrInvalidExtension", err)
	}
}

func TestValidateWorkers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		n       int
		wantErr bool
	}{
		{n: 0},
		{n: 1},
		{n: md2doc.MaxPoolSize},
		{n: -1, wantErr: true},
		{n: md2doc.MaxPoolSize + 1, wantErr: true},
	}

	for _, tt := range tests {
		err := validateWorkers(tt.n)
		if tt.wantErr && !errors.Is(err, ErrInvalidWorkerCount) {
			t.Errorf("validateWorkers(%d) error = %v, want ErrInvalidWorkerCount", tt.n, err)
		}
		if !tt.wantErr && err != nil {
			t.Errorf("validateWorkers(%d) error = %v", tt.n, err)
		}
	}
}
