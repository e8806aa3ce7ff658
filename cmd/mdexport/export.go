package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	mdexport "github.com/alnah/go-mdexport"
)

const (
	dirPermissions  = 0o750
	filePermissions = 0o644 // exported documents are shared
)

// exportParams groups parameters shared across batch/file export.
type exportParams struct {
	format mdexport.Format
	width  int
}

// ConversionResult holds the outcome of a single export.
type ConversionResult struct {
	InputPath  string
	OutputPath string
	Pages      int
	Err        error
	Duration   time.Duration
}

// runExport converts markdown files to DOC or PDF without the editor.
// Returns the number of failed files alongside any setup error.
func runExport(ctx context.Context, args []string, env *Environment) (int, error) {
	flags, positional, err := parseExportFlags(args, env.Stderr)
	if err != nil {
		return 0, err
	}
	if len(positional) == 0 {
		return 0, ErrNoInput
	}
	if len(positional) > 1 {
		return 0, fmt.Errorf("%w: export takes one file or directory, got %d", ErrUsage, len(positional))
	}

	format, err := mdexport.ParseFormat(flags.format)
	if err != nil {
		return 0, err
	}

	cfg, err := loadSettings(flags.common, flags.render, env)
	if err != nil {
		return 0, err
	}
	if flags.workers != 0 {
		cfg.Export.Workers = flags.workers
	}
	if err := validateWorkers(cfg.Export.Workers); err != nil {
		return 0, err
	}

	files, err := discoverFiles(positional[0], flags.output, "."+string(format))
	if err != nil {
		return 0, fmt.Errorf("discovering files: %w", err)
	}
	if len(files) == 0 {
		return 0, fmt.Errorf("%w: no markdown files found in %s", ErrNoInput, positional[0])
	}

	logger := newLogger(env.Stderr, cfg.Log)
	undo := setMaxProcs(logger)
	defer undo()

	opts, err := converterOptions(cfg, logger)
	if err != nil {
		return 0, err
	}
	// Surface option errors before spawning workers.
	probe, err := mdexport.NewConverter(append(opts, mdexport.WithRasterizer(nopRasterizer{}))...)
	if err != nil {
		return 0, err
	}
	_ = probe.Close()

	size := mdexport.ResolvePoolSize(cfg.Export.Workers)
	if size > len(files) {
		size = len(files)
	}
	logger.Debug("export starting", "files", len(files), "workers", size, "format", format)

	convPool := mdexport.NewConverterPool(size, opts...)
	defer func() {
		if err := convPool.Close(); err != nil {
			logger.Warn("closing converter pool", "error", err)
		}
	}()

	params := &exportParams{format: format, width: cfg.Preview.Width}
	results := convertBatch(ctx, &poolAdapter{pool: convPool}, files, params)
	failed := printResults(results, flags.common.quiet, flags.common.verbose, env)
	if failed > 0 {
		// Report the first cause so the exit code reflects it.
		for _, r := range results {
			if r.Err != nil {
				return failed, r.Err
			}
		}
	}
	return 0, nil
}

// nopRasterizer lets runExport validate options without a browser.
type nopRasterizer struct{}

func (nopRasterizer) Rasterize(context.Context, string, mdexport.RasterOptions) (*mdexport.Bitmap, error) {
	return nil, mdexport.ErrRasterize
}

func (nopRasterizer) Close() error { return nil }

// convertBatch processes files concurrently using the converter pool.
func convertBatch(ctx context.Context, pool Pool, files []FileToConvert, params *exportParams) []ConversionResult {
	if len(files) == 0 {
		return nil
	}

	concurrency := min(pool.Size(), len(files))

	results := make([]ConversionResult, len(files))
	var wg sync.WaitGroup
	jobs := make(chan int, len(files))

	for range concurrency {
		wg.Add(1)
		go func() {
			defer wg.Done()

			conv, err := pool.Acquire(ctx)
			if err != nil {
				// Converter creation failed, mark remaining jobs as failed
				for idx := range jobs {
					results[idx] = ConversionResult{
						InputPath: files[idx].InputPath,
						Err:       fmt.Errorf("%w: %w", ErrConverterInit, err),
					}
				}
				return
			}
			defer pool.Release(conv)

			for idx := range jobs {
				if ctx.Err() != nil {
					results[idx] = ConversionResult{
						InputPath: files[idx].InputPath,
						Err:       ctx.Err(),
					}
					continue
				}
				results[idx] = convertFile(ctx, conv, files[idx], params)
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

// convertFile processes a single file and returns the result.
func convertFile(ctx context.Context, conv CLIConverter, f FileToConvert, params *exportParams) ConversionResult {
	start := time.Now()
	result := ConversionResult{
		InputPath:  f.InputPath,
		OutputPath: f.OutputPath,
	}
	fail := func(err error) ConversionResult {
		result.Err = err
		result.Duration = time.Since(start)
		return result
	}

	content, err := os.ReadFile(f.InputPath) // #nosec G304 -- discovered path
	if err != nil {
		return fail(fmt.Errorf("%w: %w", ErrReadMarkdown, err))
	}

	if err := os.MkdirAll(filepath.Dir(f.OutputPath), dirPermissions); err != nil {
		return fail(fmt.Errorf("%w: creating output directory: %w", ErrWriteOutput, err))
	}

	dl, err := conv.Convert(ctx, mdexport.Input{
		Markdown: string(content),
		Format:   params.format,
		Width:    params.width,
		BaseDir:  filepath.Dir(f.InputPath),
	})
	if err != nil {
		return fail(err)
	}

	// #nosec G306 -- exported documents are meant to be readable
	if err := os.WriteFile(f.OutputPath, dl.Data, filePermissions); err != nil {
		return fail(fmt.Errorf("%w: %w", ErrWriteOutput, err))
	}

	result.Pages = dl.Pages
	result.Duration = time.Since(start)
	return result
}

// printResults reports each export and returns how many failed. Failures
// always go to stderr; quiet silences the rest.
func printResults(results []ConversionResult, quiet, verbose bool, env *Environment) int {
	failed, pages := 0, 0
	for _, r := range results {
		if r.Err != nil {
			failed++
			fmt.Fprintf(env.Stderr, "FAILED %s: %v\n", r.InputPath, r.Err)
			continue
		}
		pages += r.Pages
		if quiet {
			continue
		}
		if !verbose {
			fmt.Fprintf(env.Stdout, "Created %s\n", r.OutputPath)
			continue
		}
		took := r.Duration.Round(time.Millisecond)
		if r.Pages > 0 {
			fmt.Fprintf(env.Stdout, "%s -> %s (%d pages, %v)\n", r.InputPath, r.OutputPath, r.Pages, took)
		} else {
			fmt.Fprintf(env.Stdout, "%s -> %s (%v)\n", r.InputPath, r.OutputPath, took)
		}
	}

	if !quiet && len(results) > 1 {
		fmt.Fprintf(env.Stdout, "\n%d succeeded, %d failed", len(results)-failed, failed)
		if pages > 0 {
			fmt.Fprintf(env.Stdout, ", %d pages", pages)
		}
		fmt.Fprintln(env.Stdout)
	}
	return failed
}
