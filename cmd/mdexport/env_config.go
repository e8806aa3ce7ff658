package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/alnah/go-mdexport/internal/config"
)

// envPrefix marks mdexport environment variables.
const envPrefix = "MDEXPORT_"

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	// Tier 1 - Essential
	ConfigPath string // MDEXPORT_CONFIG: config file name or path
	Addr       string // MDEXPORT_ADDR: server listen address
	Style      string // MDEXPORT_STYLE: CSS style name, path, or content
	Timeout    string // MDEXPORT_TIMEOUT: browser timeout

	// Tier 2 - Export
	PageSize    string // MDEXPORT_PAGE_SIZE: a4, letter, legal
	Orientation string // MDEXPORT_ORIENTATION: portrait, landscape
	Placement   string // MDEXPORT_PLACEMENT: logical, fit-width, fit-page
	Rasterizer  string // MDEXPORT_RASTERIZER: rod, chromedp
	Scale       float64
	Workers     int
	AssetPath   string // MDEXPORT_ASSET_PATH: custom asset directory

	// Tier 3 - Logging
	LogLevel  string // MDEXPORT_LOG_LEVEL
	LogFormat string // MDEXPORT_LOG_FORMAT
}

// knownEnvVars lists valid MDEXPORT_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"MDEXPORT_CONFIG":      true,
	"MDEXPORT_ADDR":        true,
	"MDEXPORT_STYLE":       true,
	"MDEXPORT_TIMEOUT":     true,
	"MDEXPORT_PAGE_SIZE":   true,
	"MDEXPORT_ORIENTATION": true,
	"MDEXPORT_PLACEMENT":   true,
	"MDEXPORT_RASTERIZER":  true,
	"MDEXPORT_SCALE":       true,
	"MDEXPORT_WORKERS":     true,
	"MDEXPORT_ASSET_PATH":  true,
	"MDEXPORT_LOG_LEVEL":   true,
	"MDEXPORT_LOG_FORMAT":  true,
	"MDEXPORT_CONTAINER":   true,
}

// loadEnvConfig reads configuration from environment variables.
// Unparseable numbers are ignored; Validate reports bad enum values later.
func loadEnvConfig(getenv func(string) string) *envConfig {
	cfg := &envConfig{
		ConfigPath:  getenv("MDEXPORT_CONFIG"),
		Addr:        getenv("MDEXPORT_ADDR"),
		Style:       getenv("MDEXPORT_STYLE"),
		Timeout:     getenv("MDEXPORT_TIMEOUT"),
		PageSize:    getenv("MDEXPORT_PAGE_SIZE"),
		Orientation: getenv("MDEXPORT_ORIENTATION"),
		Placement:   getenv("MDEXPORT_PLACEMENT"),
		Rasterizer:  getenv("MDEXPORT_RASTERIZER"),
		AssetPath:   getenv("MDEXPORT_ASSET_PATH"),
		LogLevel:    getenv("MDEXPORT_LOG_LEVEL"),
		LogFormat:   getenv("MDEXPORT_LOG_FORMAT"),
	}

	if scale := getenv("MDEXPORT_SCALE"); scale != "" {
		if s, err := strconv.ParseFloat(scale, 64); err == nil && s > 0 {
			cfg.Scale = s
		}
	}
	if workers := getenv("MDEXPORT_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	return cfg
}

// warnUnknownEnvVars logs warnings for unrecognized MDEXPORT_* variables.
func warnUnknownEnvVars(w io.Writer, environ []string) {
	for _, env := range environ {
		if strings.HasPrefix(env, envPrefix) {
			name, _, _ := strings.Cut(env, "=")
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig applies environment variable values over the config file.
// Priority: CLI flags > env vars > config file > defaults
// (CLI flags are applied later via mergeFlags).
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	setString(&cfg.Server.Addr, env.Addr)
	setString(&cfg.Preview.Style, env.Style)
	setString(&cfg.Export.Timeout, env.Timeout)
	setString(&cfg.Page.Size, env.PageSize)
	setString(&cfg.Page.Orientation, env.Orientation)
	setString(&cfg.Export.Placement, env.Placement)
	setString(&cfg.Export.Rasterizer, env.Rasterizer)
	setString(&cfg.Assets.BasePath, env.AssetPath)
	setString(&cfg.Log.Level, env.LogLevel)
	setString(&cfg.Log.Format, env.LogFormat)

	if env.Scale > 0 {
		cfg.Export.Scale = env.Scale
	}
	if env.Workers > 0 {
		cfg.Export.Workers = env.Workers
	}
}

// setString overwrites dst when v is set.
func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
