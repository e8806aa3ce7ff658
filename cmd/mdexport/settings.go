package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"

	mdexport "github.com/alnah/go-mdexport"
	"github.com/alnah/go-mdexport/internal/config"
)

// loadSettings builds the effective config.
// Priority: CLI flags > env vars > config file > defaults.
func loadSettings(common commonFlags, render renderFlags, env *Environment) (*config.Config, error) {
	envCfg := loadEnvConfig(env.Getenv)
	warnUnknownEnvVars(env.Stderr, env.Environ())

	cfg := config.DefaultConfig()
	name := common.config
	if name == "" {
		name = envCfg.ConfigPath
	}
	if name != "" {
		loaded, err := config.LoadConfig(name)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	applyEnvConfig(envCfg, cfg)
	mergeCommonFlags(common, cfg)
	mergeRenderFlags(render, cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeCommonFlags applies logging flags to config (CLI wins).
func mergeCommonFlags(f commonFlags, cfg *config.Config) {
	if f.verbose {
		cfg.Log.Level = "debug"
	}
	if f.quiet {
		cfg.Log.Level = "error"
	}
	setString(&cfg.Log.Format, f.logFormat)
}

// mergeRenderFlags applies layout and capture flags to config (CLI wins).
func mergeRenderFlags(f renderFlags, cfg *config.Config) {
	setString(&cfg.Page.Size, f.pageSize)
	setString(&cfg.Page.Orientation, f.orientation)
	setString(&cfg.Export.Placement, f.placement)
	setString(&cfg.Export.Rasterizer, f.rasterizer)
	setString(&cfg.Export.Timeout, f.timeout)
	setString(&cfg.Preview.Style, f.style)
	setString(&cfg.Assets.BasePath, f.assetPath)
	if f.scale != 0 {
		cfg.Export.Scale = f.scale
	}
	if f.width != 0 {
		cfg.Preview.Width = f.width
	}
	if f.blockRemote {
		cfg.Export.BlockRemote = true
	}
}

// converterOptions translates config into converter options.
func converterOptions(cfg *config.Config, logger *slog.Logger) ([]mdexport.Option, error) {
	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return nil, err
	}

	page := mdexport.DefaultPageFormat()
	if cfg.Page.Size != "" {
		page.Size = strings.ToLower(cfg.Page.Size)
	}
	if cfg.Page.Orientation != "" {
		page.Orientation = strings.ToLower(cfg.Page.Orientation)
	}

	opts := []mdexport.Option{
		mdexport.WithPageFormat(page),
		mdexport.WithUseCORS(!cfg.Export.BlockRemote),
		mdexport.WithFilenames(cfg.Export.DocFilename, cfg.Export.PDFFilename),
		mdexport.WithLogger(logger),
	}
	if timeout > 0 {
		opts = append(opts, mdexport.WithTimeout(timeout))
	}
	if cfg.Export.Scale != 0 {
		opts = append(opts, mdexport.WithScale(cfg.Export.Scale))
	}
	if cfg.Export.Placement != "" {
		opts = append(opts, mdexport.WithPlacement(mdexport.Placement(strings.ToLower(cfg.Export.Placement))))
	}
	if cfg.Export.Rasterizer != "" {
		opts = append(opts, mdexport.WithRasterizerBackend(strings.ToLower(cfg.Export.Rasterizer)))
	}
	if cfg.Preview.Width > 0 {
		opts = append(opts, mdexport.WithPreviewWidth(cfg.Preview.Width))
	}
	if cfg.Preview.Style != "" {
		opts = append(opts, mdexport.WithStyle(cfg.Preview.Style))
	}
	if cfg.Assets.BasePath != "" {
		opts = append(opts, mdexport.WithAssetPath(cfg.Assets.BasePath))
	}
	return opts, nil
}

// newLogger builds the slog logger described by cfg.Log.
func newLogger(w io.Writer, cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(cfg.Format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
