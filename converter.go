package mdexport

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/alnah/go-mdexport/internal/assets"
	"github.com/alnah/go-mdexport/internal/fileutil"
	"github.com/alnah/go-mdexport/internal/pipeline"
)

// Converter bundles the renderer and both exporters behind one set of
// options. It is the headless entry point used by the CLI and by Session.
// Create with NewConverter and call Close when done.
type Converter struct {
	cfg         converterConfig
	assetLoader AssetLoader
	rasterizer  Rasterizer
	logger      *slog.Logger

	renderer *Renderer
	doc      *DocumentExporter
	pdf      *PDFExporter
}

// Compile-time interface check.
var _ Engine = (*Converter)(nil)

// NewConverter creates a Converter with default configuration: A4 portrait,
// scale 2, logical placement, the go-rod rasterizer and the built-in
// preview style.
// Returns an error if an option is invalid or an asset cannot be loaded.
func NewConverter(opts ...Option) (*Converter, error) {
	c := &Converter{cfg: defaultConverterConfig()}
	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = discardLogger()
	}
	if err := c.validate(); err != nil {
		return nil, err
	}

	if c.assetLoader == nil {
		loader, err := NewAssetLoader(c.cfg.assetPath)
		if err != nil {
			return nil, err
		}
		c.assetLoader = loader
	}

	if err := c.resolveStyle(); err != nil {
		return nil, err
	}

	tmpl, err := c.assetLoader.LoadTemplate(CaptureTemplate)
	if err != nil {
		return nil, fmt.Errorf("loading capture template: %w", err)
	}
	builder, err := pipeline.NewCaptureBuilder(tmpl)
	if err != nil {
		return nil, fmt.Errorf("initializing capture builder: %w", err)
	}

	if c.rasterizer == nil {
		c.rasterizer, err = newRasterizer(c.cfg.rasterizerName, c.cfg)
		if err != nil {
			return nil, err
		}
	}

	c.renderer = NewRenderer()
	c.doc = NewDocumentExporter(c.cfg.docFilename)
	c.pdf = &PDFExporter{
		rasterizer:   c.rasterizer,
		builder:      builder,
		css:          c.cfg.resolvedStyle,
		format:       c.cfg.pageFormat,
		scale:        c.cfg.scale,
		useCORS:      c.cfg.useCORS,
		placement:    c.cfg.placement,
		filename:     c.cfg.pdfFilename,
		newAssembler: newFPDFAssembler,
	}
	return c, nil
}

// Render converts markdown to the sanitized preview fragment.
func (c *Converter) Render(ctx context.Context, markdown string) (string, error) {
	return c.renderer.Render(ctx, markdown)
}

// ExportDocument packages a rendered fragment as document.doc.
func (c *Converter) ExportDocument(fragment string) *Download {
	return c.doc.Export(fragment)
}

// ExportPDF rasterizes a mounted preview and paginates it into document.pdf.
func (c *Converter) ExportPDF(ctx context.Context, p Preview) (*Download, error) {
	return c.pdf.Export(ctx, p)
}

// PDFExporter exposes the two-phase PDF exporter.
func (c *Converter) PDFExporter() *PDFExporter {
	return c.pdf
}

// Style returns the resolved preview stylesheet.
func (c *Converter) Style() string {
	return c.cfg.resolvedStyle
}

// AssetLoader returns the loader used for styles and templates.
func (c *Converter) AssetLoader() AssetLoader {
	return c.assetLoader
}

// Convert renders markdown and exports it in the requested format.
// Recovers from internal panics to prevent crashes from propagating to callers.
func (c *Converter) Convert(ctx context.Context, input Input) (dl *Download, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("internal error: %v", r)
		}
	}()

	format := input.Format
	if format == "" {
		format = FormatPDF
	}
	if _, err := ParseFormat(string(format)); err != nil {
		return nil, err
	}

	fragment, err := c.Render(ctx, input.Markdown)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if format == FormatDoc {
		return c.ExportDocument(fragment), nil
	}

	width := input.Width
	if width <= 0 {
		width = c.cfg.previewWidth
	}
	dl, err = c.ExportPDF(ctx, Preview{HTML: fragment, Width: width, BaseDir: input.BaseDir})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPDFExport, err)
	}
	return dl, nil
}

// Close releases the rasterizer (headless Chrome).
func (c *Converter) Close() error {
	if c.rasterizer != nil {
		return c.rasterizer.Close()
	}
	return nil
}

func (c *Converter) validate() error {
	if err := c.cfg.pageFormat.Validate(); err != nil {
		return err
	}
	if err := c.cfg.placement.Validate(); err != nil {
		return err
	}
	if c.cfg.scale < MinScale || c.cfg.scale > MaxScale {
		return fmt.Errorf("%w: %v (must be between %v and %v)", ErrInvalidScale, c.cfg.scale, MinScale, MaxScale)
	}
	return nil
}

// resolveStyle resolves the style input (name, path, or CSS content) to CSS content.
func (c *Converter) resolveStyle() error {
	input := c.cfg.styleInput
	if input == "" {
		input = assets.DefaultStyleName
	}

	if fileutil.IsFilePath(input) {
		content, err := os.ReadFile(input) // #nosec G304 -- user-provided path
		if err != nil {
			return fmt.Errorf("loading style file %q: %w", input, err)
		}
		c.cfg.resolvedStyle = string(content)
		return nil
	}

	if fileutil.IsCSS(input) {
		c.cfg.resolvedStyle = input
		return nil
	}

	css, err := c.assetLoader.LoadStyle(input)
	if err != nil {
		return fmt.Errorf("loading style %q: %w", input, err)
	}
	c.cfg.resolvedStyle = css
	return nil
}
