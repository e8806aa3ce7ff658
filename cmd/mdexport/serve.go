package main

import (
	"context"
	"fmt"
	"path/filepath"

	mdexport "github.com/alnah/go-mdexport"
	"github.com/alnah/go-mdexport/internal/config"
	"github.com/alnah/go-mdexport/internal/server"
)

// serveTarget is the resolved input of the serve command.
type serveTarget struct {
	file  string // markdown file to load, optional
	watch string // file to follow, optional
}

// resolveServeTarget picks the markdown file from --file or the single
// positional argument, and decides whether to follow it.
func resolveServeTarget(flags *serveFlags, args []string, cfg *config.Config) (serveTarget, error) {
	if len(args) > 1 {
		return serveTarget{}, fmt.Errorf("%w: serve takes at most one file, got %d", ErrUsage, len(args))
	}

	file := flags.file
	if file == "" && len(args) == 1 {
		file = args[0]
	}
	if file == "" && cfg.Server.WatchFile != "" {
		return serveTarget{file: cfg.Server.WatchFile, watch: cfg.Server.WatchFile}, nil
	}
	if file != "" {
		if err := validateMarkdownExtension(file); err != nil {
			return serveTarget{}, err
		}
	}

	t := serveTarget{file: file}
	if flags.watch {
		if file == "" {
			return serveTarget{}, fmt.Errorf("%w: --watch needs a file", ErrUsage)
		}
		t.watch = file
	}
	return t, nil
}

// runServe starts the editor server and blocks until ctx is cancelled.
func runServe(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseServeFlags(args, env.Stderr)
	if err != nil {
		return err
	}

	cfg, err := loadSettings(flags.common, flags.render, env)
	if err != nil {
		return err
	}
	setString(&cfg.Server.Addr, flags.addr)

	target, err := resolveServeTarget(flags, positional, cfg)
	if err != nil {
		return err
	}

	logger := newLogger(env.Stderr, cfg.Log)
	undo := setMaxProcs(logger)
	defer undo()

	opts, err := converterOptions(cfg, logger)
	if err != nil {
		return err
	}
	conv, err := mdexport.NewConverter(opts...)
	if err != nil {
		return err
	}
	defer func() {
		if err := conv.Close(); err != nil {
			logger.Warn("closing converter", "error", err)
		}
	}()

	sessionOpts := []mdexport.SessionOption{mdexport.WithSessionLogger(logger)}
	if target.file != "" {
		text, err := server.ReadMarkdownFile(target.file)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrReadMarkdown, err)
		}
		sessionOpts = append(sessionOpts,
			mdexport.WithInitialText(text),
			mdexport.WithBaseDir(filepath.Dir(target.file)),
		)
	}
	session := mdexport.NewSession(conv, sessionOpts...)

	srv, err := server.New(session, server.Options{
		Addr:        cfg.Server.Addr,
		Style:       conv.Style(),
		Assets:      conv.AssetLoader(),
		PDFFilename: cfg.Export.PDFFilename,
		WatchFile:   target.watch,
		Logger:      logger,
	})
	if err != nil {
		return err
	}

	if !flags.common.quiet {
		fmt.Fprintf(env.Stdout, "Editor on http://%s (Ctrl+C to stop)\n", cfg.Server.Addr)
	}
	return srv.Run(ctx)
}
