package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	md2doc "github.com/alnah/go-md2doc"
	"github.com/alnah/go-md2doc/internal/fileutil"
	"github.com/alnah/go-md2doc/internal/hints"
)

// File permission constants.
const (
	dirPermissions  = 0o750 // rwxr-x---: owner full, group read+execute
	filePermissions = 0o644 // rw-r--r--: owner read+write, others read
)

// CLIConverter is the part of md2doc.Converter the CLI drives.
type CLIConverter interface {
	Convert(ctx context.Context, input md2doc.Input) (*md2doc.ConvertResult, error)
	Render(ctx context.Context, doc *md2doc.Document, format md2doc.Format, sourceDir string) ([]byte, error)
}

// Compile-time interface implementation check.
var _ CLIConverter = (*md2doc.Converter)(nil)

// Pool abstracts converter pool operations for testability.
type Pool interface {
	Acquire() CLIConverter
	Release(CLIConverter)
	Size() int
}

// poolAdapter exposes an md2doc.ConverterPool as a Pool.
type poolAdapter struct {
	pool *md2doc.ConverterPool
}

// Compile-time check that poolAdapter implements Pool.
var _ Pool = (*poolAdapter)(nil)

// Acquire returns nil, not a typed nil, when the pool cannot build a converter.
func (a *poolAdapter) Acquire() CLIConverter {
	c := a.pool.Acquire()
	if c == nil {
		return nil
	}
	return c
}

// Release panics on converters that did not come from Acquire.
func (a *poolAdapter) Release(c CLIConverter) {
	conv, ok := c.(*md2doc.Converter)
	if !ok {
		panic(fmt.Sprintf("poolAdapter.Release: unexpected type %T", c))
	}
	a.pool.Release(conv)
}

func (a *poolAdapter) Size() int {
	return a.pool.Size()
}

// ConversionResult holds the outcome of a single conversion.
type ConversionResult struct {
	InputPath  string
	OutputPath string
	Stats      md2doc.Stats
	Err        error
	Duration   time.Duration
}

// convertBatch processes files concurrently using the converter pool.
func convertBatch(ctx context.Context, pool Pool, files []FileToConvert, params *conversionParams) []ConversionResult {
	if len(files) == 0 {
		return nil
	}

	concurrency := min(pool.Size(), len(files))

	results := make([]ConversionResult, len(files))
	var wg sync.WaitGroup
	jobs := make(chan int, len(files))

	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			svc := pool.Acquire()
			if svc == nil {
				// Converter creation failed, mark remaining jobs as failed
				for idx := range jobs {
					results[idx] = ConversionResult{
						InputPath: files[idx].InputPath,
						Err:       ErrConverterCreation,
					}
				}
				return
			}
			defer pool.Release(svc)

			for idx := range jobs {
				if ctx.Err() != nil {
					results[idx] = ConversionResult{
						InputPath: files[idx].InputPath,
						Err:       ctx.Err(),
					}
					continue
				}
				results[idx] = convertFile(ctx, svc, files[idx], params)
			}
		}()
	}

	for i := range files {
		jobs <- i
	}
	close(jobs)

	wg.Wait()
	return results
}

// convertFile converts a single file and writes its output.
func convertFile(ctx context.Context, svc CLIConverter, f FileToConvert, params *conversionParams) (result ConversionResult) {
	start := time.Now()
	result = ConversionResult{
		InputPath:  f.InputPath,
		OutputPath: f.OutputPath,
	}
	defer func() { result.Duration = time.Since(start) }()

	content, err := os.ReadFile(f.InputPath) // #nosec G304 -- discovered path
	if err != nil {
		result.Err = fmt.Errorf("%w: %w", ErrReadMarkdown, err)
		return result
	}

	out, stats, err := render(ctx, svc, string(content), filepath.Dir(f.InputPath), params.format)
	result.Stats = stats
	if err != nil {
		result.Err = err
		return result
	}

	if err := os.MkdirAll(filepath.Dir(f.OutputPath), dirPermissions); err != nil {
		result.Err = withHint(fmt.Errorf("creating output directory: %w", err), hints.ForOutputDirectory())
		return result
	}
	if err := fileutil.WriteAtomic(f.OutputPath, out, filePermissions); err != nil {
		result.Err = fmt.Errorf("%w: %w", ErrWriteOutput, err)
		return result
	}
	return result
}

// render converts markdown and encodes the document in format.
func render(ctx context.Context, svc CLIConverter, markdown, sourceDir string, format md2doc.Format) ([]byte, md2doc.Stats, error) {
	res, err := svc.Convert(ctx, md2doc.Input{Markdown: markdown, SourceDir: sourceDir})
	if err != nil {
		return nil, md2doc.Stats{}, err
	}
	out, err := svc.Render(ctx, res.Document, format, sourceDir)
	if err != nil {
		return nil, res.Stats, fmt.Errorf("rendering %s: %w", format, err)
	}
	return out, res.Stats, nil
}

// ResultSummary holds the count of succeeded and failed conversions.
type ResultSummary struct {
	Succeeded int
	Failed    int
}

// countResults tallies succeeded and failed conversions.
func countResults(results []ConversionResult) ResultSummary {
	var summary ResultSummary
	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
	}
	return summary
}

// firstError returns the error of the first failed result, or nil.
func firstError(results []ConversionResult) error {
	for _, r := range results {
		if r.Err != nil {
			return r.Err
		}
	}
	return nil
}

// printResultsWithWriter outputs conversion results and returns the failure count.
func printResultsWithWriter(results []ConversionResult, quiet, verbose bool, env *Environment) int {
	summary := countResults(results)

	for _, r := range results {
		if r.Err != nil {
			fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", r.InputPath, r.Err)
			continue
		}

		if quiet {
			continue
		}

		if verbose {
			fmt.Fprintf(env.Stdout, "%s -> %s (%v, %d capsules, %d fallback)\n",
				r.InputPath, r.OutputPath, r.Duration.Round(time.Millisecond), r.Stats.Capsules, r.Stats.Fallback)
		} else {
			fmt.Fprintf(env.Stdout, "Created %s\n", r.OutputPath)
		}
	}

	if !quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed\n", summary.Succeeded, summary.Failed)
	}

	return summary.Failed
}
