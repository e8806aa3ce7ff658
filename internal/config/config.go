package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/alnah/go-mdexport/internal/fileutil"
)

// AppName names the user config directory.
const AppName = "mdexport"

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrConfigTooLarge  = errors.New("config file too large")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxAddrLength     = 255
	MaxPathLength     = 4096
	MaxNameLength     = 64
	MaxFilenameLength = 255
)

// Allowed enum values.
var (
	PageSizes    = []string{"a4", "letter", "legal"}
	Orientations = []string{"portrait", "landscape"}
	Placements   = []string{"logical", "fit-width", "fit-page"}
	Rasterizers  = []string{"rod", "chromedp"}
	LogLevels    = []string{"debug", "info", "warn", "error"}
	LogFormats   = []string{"text", "json"}
)

// Config holds all settings for the editor server and exports.
type Config struct {
	Server  ServerConfig  `yaml:"server"`
	Preview PreviewConfig `yaml:"preview"`
	Page    PageConfig    `yaml:"page"`
	Export  ExportConfig  `yaml:"export"`
	Assets  AssetsConfig  `yaml:"assets"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig defines the HTTP editor server.
type ServerConfig struct {
	Addr      string `yaml:"addr"`      // listen address (default 127.0.0.1:8080)
	WatchFile string `yaml:"watchFile"` // markdown file to seed and follow (optional)
}

// PreviewConfig defines the preview pane.
type PreviewConfig struct {
	Width int    `yaml:"width"` // CSS px used by headless exports (default 793)
	Style string `yaml:"style"` // built-in style name, CSS path, or CSS content
}

// PageConfig defines PDF page settings.
type PageConfig struct {
	Size        string `yaml:"size"`        // "a4", "letter", "legal"
	Orientation string `yaml:"orientation"` // "portrait", "landscape"
}

// ExportConfig defines export behavior.
type ExportConfig struct {
	Scale       float64 `yaml:"scale"`       // oversampling factor, 1-4
	Placement   string  `yaml:"placement"`   // "logical", "fit-width", "fit-page"
	BlockRemote bool    `yaml:"blockRemote"` // block http(s) loads during capture
	Rasterizer  string  `yaml:"rasterizer"`  // "rod", "chromedp"
	Timeout     string  `yaml:"timeout"`     // Go duration, e.g. "30s"
	Workers     int     `yaml:"workers"`     // CLI batch parallelism (0 = auto)
	DocFilename string  `yaml:"docFilename"`
	PDFFilename string  `yaml:"pdfFilename"`
}

// AssetsConfig defines asset loading options.
type AssetsConfig struct {
	BasePath string `yaml:"basePath"` // empty = embedded assets only
}

// LogConfig defines structured logging.
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "text", "json"
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Server:  ServerConfig{Addr: "127.0.0.1:8080"},
		Preview: PreviewConfig{Width: 793, Style: "preview"},
		Page:    PageConfig{Size: "a4", Orientation: "portrait"},
		Export: ExportConfig{
			Scale:       2,
			Placement:   "logical",
			Rasterizer:  "rod",
			Timeout:     "30s",
			DocFilename: "document.doc",
			PDFFilename: "document.pdf",
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// TimeoutDuration parses Export.Timeout. Empty means zero (use the
// library default).
func (c *Config) TimeoutDuration() (time.Duration, error) {
	if c.Export.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Export.Timeout)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w: export.timeout %q (use a positive duration like 30s)", ErrInvalidValue, c.Export.Timeout)
	}
	return d, nil
}

// Validate checks lengths, enums and ranges.
// Called by LoadConfig, and again by the CLI after env and flag overrides.
func (c *Config) Validate() error {
	lengths := []struct {
		field string
		value string
		max   int
	}{
		{"server.addr", c.Server.Addr, MaxAddrLength},
		{"server.watchFile", c.Server.WatchFile, MaxPathLength},
		{"assets.basePath", c.Assets.BasePath, MaxPathLength},
		{"export.docFilename", c.Export.DocFilename, MaxFilenameLength},
		{"export.pdfFilename", c.Export.PDFFilename, MaxFilenameLength},
	}
	for _, l := range lengths {
		if err := validateFieldLength(l.field, l.value, l.max); err != nil {
			return err
		}
	}
	// Style may be literal CSS, so only names and paths are capped.
	if !fileutil.IsCSS(c.Preview.Style) {
		if err := validateFieldLength("preview.style", c.Preview.Style, MaxPathLength); err != nil {
			return err
		}
	}

	enums := []struct {
		field   string
		value   string
		allowed []string
	}{
		{"page.size", c.Page.Size, PageSizes},
		{"page.orientation", c.Page.Orientation, Orientations},
		{"export.placement", c.Export.Placement, Placements},
		{"export.rasterizer", c.Export.Rasterizer, Rasterizers},
		{"log.level", c.Log.Level, LogLevels},
		{"log.format", c.Log.Format, LogFormats},
	}
	for _, e := range enums {
		if err := validateEnum(e.field, e.value, e.allowed); err != nil {
			return err
		}
	}

	if c.Preview.Width < 0 {
		return fmt.Errorf("%w: preview.width must be positive, got %d", ErrInvalidValue, c.Preview.Width)
	}
	if c.Export.Scale != 0 && (c.Export.Scale < 1 || c.Export.Scale > 4) {
		return fmt.Errorf("%w: export.scale must be between 1 and 4, got %.2f", ErrInvalidValue, c.Export.Scale)
	}
	if c.Export.Workers < 0 {
		return fmt.Errorf("%w: export.workers must not be negative, got %d", ErrInvalidValue, c.Export.Workers)
	}
	if _, err := c.TimeoutDuration(); err != nil {
		return err
	}
	return nil
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// validateEnum accepts empty values (meaning default) and known values,
// case-insensitively.
func validateEnum(fieldName, value string, allowed []string) error {
	if value == "" || slices.Contains(allowed, strings.ToLower(value)) {
		return nil
	}
	return fmt.Errorf("%w: %s %q (must be one of %s)", ErrInvalidValue, fieldName, value, strings.Join(allowed, ", "))
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's searched in the working directory then the user config
// directory. Missing fields keep their defaults.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !fileutil.IsFilePath(nameOrPath) {
		var err error
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := decodeStrict(data, cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SearchPaths lists where a config name is looked up, in order.
func SearchPaths(name string) []string {
	extensions := []string{".yaml", ".yml"}
	paths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(userConfigDir, AppName, name+ext))
		}
	}
	return paths
}

// resolveConfigPath returns the first existing search path.
func resolveConfigPath(name string) (string, error) {
	paths := SearchPaths(name)
	for _, p := range paths {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(paths, ", "))
}
