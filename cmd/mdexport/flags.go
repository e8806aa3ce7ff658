package main

import (
	"errors"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config    string
	quiet     bool
	verbose   bool
	logFormat string
}

// renderFlags holds preview and PDF layout flags.
type renderFlags struct {
	pageSize    string
	orientation string
	scale       float64
	placement   string
	blockRemote bool
	rasterizer  string
	timeout     string
	width       int
	style       string
	assetPath   string
}

// serveFlags holds all flags for the serve command.
type serveFlags struct {
	common commonFlags
	render renderFlags
	addr   string
	file   string
	watch  bool
}

// exportFlags holds all flags for the export command.
type exportFlags struct {
	common  commonFlags
	render  renderFlags
	output  string
	format  string
	workers int
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "debug logging and timings")
	fs.StringVar(&f.logFormat, "log-format", "", "log format: text, json")
}

// addRenderFlags adds page, capture and style flags to a FlagSet.
func addRenderFlags(fs *flag.FlagSet, f *renderFlags) {
	fs.StringVarP(&f.pageSize, "page-size", "p", "", "page size: a4, letter, legal")
	fs.StringVar(&f.orientation, "orientation", "", "page orientation: portrait, landscape")
	fs.Float64Var(&f.scale, "scale", 0, "capture oversampling factor (1-4)")
	fs.StringVar(&f.placement, "placement", "", "image placement: logical, fit-width, fit-page")
	fs.BoolVar(&f.blockRemote, "block-remote", false, "block remote images during capture")
	fs.StringVar(&f.rasterizer, "rasterizer", "", "browser backend: rod, chromedp")
	fs.StringVarP(&f.timeout, "timeout", "t", "", "browser timeout (e.g., 30s, 2m)")
	fs.IntVar(&f.width, "width", 0, "preview width in CSS px for headless exports")
	fs.StringVar(&f.style, "style", "", "CSS style name or file path")
	fs.StringVar(&f.assetPath, "asset-path", "", "custom asset directory")
}

// parseServeFlags parses serve command flags and returns positional args.
func parseServeFlags(args []string, stderr io.Writer) (*serveFlags, []string, error) {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.SetOutput(stderr)
	f := &serveFlags{}

	fs.StringVarP(&f.addr, "addr", "a", "", "listen address (default 127.0.0.1:8080)")
	fs.StringVarP(&f.file, "file", "f", "", "markdown file to load")
	fs.BoolVarP(&f.watch, "watch", "w", false, "reload --file when it changes on disk")
	addCommonFlags(fs, &f.common)
	addRenderFlags(fs, &f.render)

	fs.Usage = func() { printServeUsage(stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, usageError(err)
	}
	return f, fs.Args(), nil
}

// parseExportFlags parses export command flags and returns positional args.
func parseExportFlags(args []string, stderr io.Writer) (*exportFlags, []string, error) {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	fs.SetOutput(stderr)
	f := &exportFlags{}

	fs.StringVarP(&f.output, "output", "o", "", "output file or directory")
	fs.StringVarP(&f.format, "format", "F", "pdf", "output format: pdf, doc")
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")
	addCommonFlags(fs, &f.common)
	addRenderFlags(fs, &f.render)

	fs.Usage = func() { printExportUsage(stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, usageError(err)
	}
	return f, fs.Args(), nil
}

// usageError tags flag parse failures as usage errors. ErrHelp passes
// through so --help exits cleanly.
func usageError(err error) error {
	if errors.Is(err, flag.ErrHelp) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrUsage, err)
}
