package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	md2doc "github.com/alnah/go-md2doc"
	"github.com/alnah/go-md2doc/internal/fileutil"
)

// Sentinel errors for file discovery.
var (
	ErrInvalidExtension   = errors.New("file must have .md or .markdown extension")
	ErrInvalidWorkerCount = errors.New("invalid worker count")
	ErrOutputIsInput      = errors.New("output would overwrite its input")
)

// FileToConvert represents a single file to process.
type FileToConvert struct {
	InputPath  string
	OutputPath string
}

// discoverFiles finds all Markdown files to convert and their output paths.
func discoverFiles(inputPath, outputDir string, format md2doc.Format) ([]FileToConvert, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, err
	}

	if !info.IsDir() {
		if err := validateMarkdownExtension(inputPath); err != nil {
			return nil, err
		}
		outPath, err := resolveOutputPath(inputPath, outputDir, "", format)
		if err != nil {
			return nil, err
		}
		return []FileToConvert{{InputPath: inputPath, OutputPath: outPath}}, nil
	}

	var files []FileToConvert
	err = filepath.WalkDir(inputPath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("scanning %s: %w", path, err)
		}
		if d.IsDir() || validateMarkdownExtension(path) != nil {
			return nil
		}
		outPath, err := resolveOutputPath(path, outputDir, inputPath, format)
		if err != nil {
			return err
		}
		files = append(files, FileToConvert{InputPath: path, OutputPath: outPath})
		return nil
	})

	return files, err
}

// resolveOutputPath determines the output path for a Markdown file.
// An outputDir ending in the format's extension is used as the file itself.
// Directory inputs keep their relative layout under outputDir.
func resolveOutputPath(inputPath, outputDir, baseInputDir string, format md2doc.Format) (string, error) {
	ext := format.Extension()
	name, err := fileutil.ReplaceExtension(filepath.Base(inputPath), ext)
	if err != nil {
		return "", err
	}

	var out string
	switch {
	case outputDir == "":
		out = filepath.Join(filepath.Dir(inputPath), name)
	case baseInputDir == "" && strings.HasSuffix(strings.ToLower(outputDir), "."+ext):
		out = outputDir
	case baseInputDir != "":
		relPath, relErr := filepath.Rel(baseInputDir, inputPath)
		if relErr != nil {
			out = filepath.Join(outputDir, name)
			break
		}
		out = filepath.Join(outputDir, filepath.Dir(relPath), name)
	default:
		out = filepath.Join(outputDir, name)
	}

	if filepath.Clean(out) == filepath.Clean(inputPath) {
		return "", fmt.Errorf("%w: %s (use --output)", ErrOutputIsInput, inputPath)
	}
	return out, nil
}

// validateMarkdownExtension checks that the file has a .md or .markdown extension.
func validateMarkdownExtension(path string) error {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return nil
	}
	return fmt.Errorf("%w: got %q", ErrInvalidExtension, filepath.Ext(path))
}

// validateWorkers checks that the worker count is within valid bounds.
func validateWorkers(n int) error {
	if n < 0 {
		return fmt.Errorf("%w: %d (must be >= 0, 0 means auto)", ErrInvalidWorkerCount, n)
	}
	if n > md2doc.MaxPoolSize {
		return fmt.Errorf("%w: %d (maximum is %d)", ErrInvalidWorkerCount, n, md2doc.MaxPoolSize)
	}
	return nil
}
