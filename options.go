package mdexport

import (
	"io"
	"log/slog"
	"time"
)

// Default converter settings.
const (
	defaultTimeout = 30 * time.Second

	// RasterizerRod drives Chrome through go-rod.
	RasterizerRod = "rod"

	// RasterizerChromedp drives Chrome through chromedp.
	RasterizerChromedp = "chromedp"
)

// converterConfig holds converter settings collected from options.
type converterConfig struct {
	timeout        time.Duration
	pageFormat     PageFormat
	scale          float64
	placement      Placement
	useCORS        bool
	previewWidth   int
	rasterizerName string
	styleInput     string // name, file path, or CSS content
	resolvedStyle  string
	assetPath      string
	docFilename    string
	pdfFilename    string
}

func defaultConverterConfig() converterConfig {
	return converterConfig{
		timeout:        defaultTimeout,
		pageFormat:     DefaultPageFormat(),
		scale:          DefaultScale,
		placement:      PlacementLogical,
		useCORS:        true,
		previewWidth:   DefaultPreviewWidth,
		rasterizerName: RasterizerRod,
		styleInput:     DefaultStyle,
		docFilename:    DefaultDocFilename,
		pdfFilename:    DefaultPDFFilename,
	}
}

// Option configures a Converter.
type Option func(*Converter)

// WithTimeout bounds each browser operation.
func WithTimeout(d time.Duration) Option {
	return func(c *Converter) {
		if d > 0 {
			c.cfg.timeout = d
		}
	}
}

// WithPageFormat sets the PDF page size and orientation.
func WithPageFormat(p PageFormat) Option {
	return func(c *Converter) {
		c.cfg.pageFormat = p
	}
}

// WithScale sets the rasterization oversampling factor.
func WithScale(scale float64) Option {
	return func(c *Converter) {
		c.cfg.scale = scale
	}
}

// WithPlacement sets how the captured image is painted on PDF pages.
func WithPlacement(p Placement) Option {
	return func(c *Converter) {
		c.cfg.placement = p
	}
}

// WithUseCORS allows the rasterizer to fetch cross-origin resources such as
// remote images. When false, http and https requests are blocked.
func WithUseCORS(enabled bool) Option {
	return func(c *Converter) {
		c.cfg.useCORS = enabled
	}
}

// WithPreviewWidth sets the capture width used by Convert.
func WithPreviewWidth(px int) Option {
	return func(c *Converter) {
		if px > 0 {
			c.cfg.previewWidth = px
		}
	}
}

// WithRasterizerBackend selects a built-in rasterizer by name
// (RasterizerRod or RasterizerChromedp).
func WithRasterizerBackend(name string) Option {
	return func(c *Converter) {
		c.cfg.rasterizerName = name
	}
}

// WithRasterizer injects a rasterizer, overriding the backend name.
// The converter takes ownership and closes it on Close.
func WithRasterizer(r Rasterizer) Option {
	return func(c *Converter) {
		c.rasterizer = r
	}
}

// WithStyle sets the preview stylesheet: a built-in name, a CSS file path,
// or literal CSS content.
func WithStyle(style string) Option {
	return func(c *Converter) {
		c.cfg.styleInput = style
	}
}

// WithAssetPath loads styles and templates from a directory, falling back
// to embedded assets.
func WithAssetPath(path string) Option {
	return func(c *Converter) {
		c.cfg.assetPath = path
	}
}

// WithAssetLoader sets a custom asset loader.
func WithAssetLoader(loader AssetLoader) Option {
	return func(c *Converter) {
		c.assetLoader = loader
	}
}

// WithFilenames overrides the download names.
func WithFilenames(doc, pdf string) Option {
	return func(c *Converter) {
		if doc != "" {
			c.cfg.docFilename = doc
		}
		if pdf != "" {
			c.cfg.pdfFilename = pdf
		}
	}
}

// WithLogger sets the logger. Nil discards logs.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Converter) {
		c.logger = logger
	}
}

// discardLogger returns a logger that drops every record.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
