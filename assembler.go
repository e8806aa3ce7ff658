package mdexport

import (
	"bytes"
	"fmt"
	"strings"

	"codeberg.org/go-pdf/fpdf"
)

// Assembler builds a PDF out of full-page images.
// Lengths are CSS px; the implementation converts to its own unit.
type Assembler interface {
	// PageSize reports the printable width and height of a page.
	PageSize() (width, height float64)

	// AddImage paints a PNG on the current page. Images sharing a name are
	// embedded once.
	AddImage(name string, png []byte, x, y, width, height float64) error

	// AddPage starts a new page.
	AddPage()

	// PageCount reports the number of pages so far.
	PageCount() int

	// Output serializes the document.
	Output() ([]byte, error)
}

// Compile-time interface check.
var _ Assembler = (*fpdfAssembler)(nil)

// fpdfAssembler implements Assembler with go-pdf/fpdf, in points, with no
// margins and no automatic page breaks.
type fpdfAssembler struct {
	pdf *fpdf.Fpdf
}

// newFPDFAssembler creates a document with its first page already added.
func newFPDFAssembler(format PageFormat) (Assembler, error) {
	if err := format.Validate(); err != nil {
		return nil, err
	}

	pdf := fpdf.New(fpdfOrientation(format.Orientation), "pt", fpdfSize(format.Size), "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("mdexport", true)
	pdf.AddPage()

	if err := pdf.Error(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFAssemble, err)
	}
	return &fpdfAssembler{pdf: pdf}, nil
}

func (a *fpdfAssembler) PageSize() (float64, float64) {
	w, h := a.pdf.GetPageSize()
	return w / pointsPerPixel, h / pointsPerPixel
}

func (a *fpdfAssembler) AddImage(name string, png []byte, x, y, width, height float64) error {
	opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
	if a.pdf.GetImageInfo(name) == nil {
		a.pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(png))
	}
	a.pdf.ImageOptions(name,
		x*pointsPerPixel, y*pointsPerPixel,
		width*pointsPerPixel, height*pointsPerPixel,
		false, opts, 0, "")
	if err := a.pdf.Error(); err != nil {
		return fmt.Errorf("%w: %v", ErrPDFAssemble, err)
	}
	return nil
}

func (a *fpdfAssembler) AddPage() {
	a.pdf.AddPage()
}

func (a *fpdfAssembler) PageCount() int {
	return a.pdf.PageCount()
}

func (a *fpdfAssembler) Output() ([]byte, error) {
	var buf bytes.Buffer
	if err := a.pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPDFAssemble, err)
	}
	return buf.Bytes(), nil
}

func fpdfOrientation(orientation string) string {
	if strings.EqualFold(orientation, OrientationLandscape) {
		return "L"
	}
	return "P"
}

func fpdfSize(size string) string {
	switch strings.ToLower(size) {
	case PageSizeLetter:
		return "Letter"
	case PageSizeLegal:
		return "Legal"
	default:
		return "A4"
	}
}
