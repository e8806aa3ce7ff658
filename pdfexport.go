package mdexport

import (
	"context"
	"errors"
	"fmt"

	"github.com/alnah/go-mdexport/internal/pipeline"
)

// captureImageName keys the screenshot inside the PDF so every page
// references the same embedded image.
const captureImageName = "capture"

// Capture is the result of the first export phase.
type Capture struct {
	Bitmap *Bitmap
	Scale  float64
}

// PDFExporter rasterizes a preview and paginates the image into a PDF.
// Export runs in two phases: Capture talks to the browser, Assemble is
// synchronous.
type PDFExporter struct {
	rasterizer   Rasterizer
	builder      *pipeline.CaptureBuilder
	css          string
	format       PageFormat
	scale        float64
	useCORS      bool
	placement    Placement
	filename     string
	newAssembler func(PageFormat) (Assembler, error)
}

// Capture renders the preview as a standalone page at the preview width and
// screenshots its full scrollable height.
func (e *PDFExporter) Capture(ctx context.Context, p Preview) (*Capture, error) {
	if p.Width <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidWidth, p.Width)
	}

	fragment := p.HTML
	if p.BaseDir != "" {
		var err error
		fragment, err = pipeline.ResolveImagePaths(fragment, p.BaseDir)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRasterize, err)
		}
	}

	doc, err := e.builder.Build(pipeline.CaptureData{
		Content: fragment,
		CSS:     e.css,
		Width:   p.Width,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRasterize, err)
	}

	bmp, err := e.rasterizer.Rasterize(ctx, doc, RasterOptions{
		Scale:       e.scale,
		UseCORS:     e.useCORS,
		WindowWidth: p.Width,
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrRasterize) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", ErrRasterize, err)
	}
	return &Capture{Bitmap: bmp, Scale: e.scale}, nil
}

// Layout computes the page layout of a capture without producing a PDF.
func (e *PDFExporter) Layout(c *Capture) (Layout, error) {
	asm, err := e.newAssembler(e.format)
	if err != nil {
		return Layout{}, err
	}
	return e.layout(asm, c)
}

func (e *PDFExporter) layout(asm Assembler, c *Capture) (Layout, error) {
	if c == nil || c.Bitmap == nil {
		return Layout{}, fmt.Errorf("%w: no capture", ErrEmptyImage)
	}
	pageW, pageH := asm.PageSize()
	return ComputeLayout(pageW, pageH, c.Bitmap.Width, c.Bitmap.Height, c.Scale, e.placement)
}

// Assemble paints the captured image on as many pages as its painted
// height needs. Page 1 shows the top of the image; every further page
// shifts the image up by one page height.
func (e *PDFExporter) Assemble(c *Capture) (*Download, error) {
	asm, err := e.newAssembler(e.format)
	if err != nil {
		return nil, err
	}

	l, err := e.layout(asm, c)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrPDFAssemble, err)
	}

	for i, y := range l.Offsets {
		if i > 0 {
			asm.AddPage()
		}
		if err := asm.AddImage(captureImageName, c.Bitmap.PNG, 0, y, l.DrawWidth, l.DrawHeight); err != nil {
			return nil, err
		}
	}

	data, err := asm.Output()
	if err != nil {
		return nil, err
	}

	return &Download{
		Filename:    e.filename,
		ContentType: PDFContentType,
		Data:        data,
		Pages:       asm.PageCount(),
	}, nil
}

// Export runs both phases.
func (e *PDFExporter) Export(ctx context.Context, p Preview) (*Download, error) {
	c, err := e.Capture(ctx, p)
	if err != nil {
		return nil, err
	}
	return e.Assemble(c)
}
