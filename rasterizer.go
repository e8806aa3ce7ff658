package mdexport

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/png" // register PNG decoder for DecodeConfig
)

// defaultViewportHeight is the initial viewport height before the document
// is measured.
const defaultViewportHeight = 1024

// RasterOptions controls a single rasterization.
type RasterOptions struct {
	// Scale is the oversampling factor (device pixels per CSS px).
	Scale float64

	// UseCORS allows cross-origin resource loads. When false, http and https
	// requests are blocked.
	UseCORS bool

	// WindowWidth is the layout width in CSS px.
	WindowWidth int

	// WindowHeight is the capture height in CSS px; 0 measures the full
	// scrollable height of the document.
	WindowHeight int
}

// Bitmap is a rasterized region.
type Bitmap struct {
	PNG    []byte
	Width  int // device pixels
	Height int // device pixels
}

// Rasterizer renders a standalone HTML document and captures it as a PNG.
// Implementations must capture the full scrollable area, not just the
// visible viewport.
type Rasterizer interface {
	Rasterize(ctx context.Context, document string, opts RasterOptions) (*Bitmap, error)
	Close() error
}

// newBitmap reads the pixel dimensions of a PNG screenshot.
func newBitmap(png []byte) (*Bitmap, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(png))
	if err != nil {
		return nil, fmt.Errorf("%w: decoding screenshot: %v", ErrRasterize, err)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return nil, fmt.Errorf("%w: %dx%d pixels", ErrEmptyImage, cfg.Width, cfg.Height)
	}
	return &Bitmap{PNG: png, Width: cfg.Width, Height: cfg.Height}, nil
}

// newRasterizer builds a built-in rasterizer by backend name.
func newRasterizer(name string, cfg converterConfig) (Rasterizer, error) {
	switch name {
	case "", RasterizerRod:
		return newRodRasterizer(cfg.timeout), nil
	case RasterizerChromedp:
		return newChromedpRasterizer(cfg.timeout), nil
	}
	return nil, fmt.Errorf("%w: %q (must be %s or %s)", ErrUnknownRasterizer, name, RasterizerRod, RasterizerChromedp)
}

// measureScript reports the full scrollable size of the document.
const measureScript = `({
	width: Math.max(document.documentElement.scrollWidth, document.body ? document.body.scrollWidth : 0),
	height: Math.max(document.documentElement.scrollHeight, document.body ? document.body.scrollHeight : 0)
})`

// blockedURLPatterns blocks remote loads when cross-origin fetching is off.
var blockedURLPatterns = []string{"http://*", "https://*"}

// captureSize resolves the capture area from the measured document size.
func captureSize(opts RasterOptions, measuredWidth, measuredHeight int) (int, int) {
	width := max(opts.WindowWidth, measuredWidth)
	height := opts.WindowHeight
	if height <= 0 {
		height = measuredHeight
	}
	return width, max(height, 1)
}
