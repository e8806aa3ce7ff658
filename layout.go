package mdexport

import "fmt"

// pointsPerPixel converts CSS pixels (96 dpi) to PDF points (72 dpi).
const pointsPerPixel = 0.75

// paginationEpsilon absorbs float drift so an exact multiple of the page
// height does not produce a trailing empty page.
const paginationEpsilon = 1e-6

// Layout is the page layout for one PDF export. All lengths are CSS px.
type Layout struct {
	PageWidth  float64
	PageHeight float64

	// Logical image size: bitmap pixels divided by the oversampling scale.
	ImageWidth  float64
	ImageHeight float64

	// Aspect-preserving fit of the logical image onto one page.
	FitWidth  float64
	FitHeight float64

	Placement Placement

	// Size the image is painted at on every page.
	DrawWidth  float64
	DrawHeight float64

	// Vertical offset of the image on each page; page 1 is always 0.
	Offsets []float64
}

// PageCount returns the number of pages the layout produces.
func (l Layout) PageCount() int {
	return len(l.Offsets)
}

// ComputeLayout derives the layout of a pixelWidth x pixelHeight bitmap
// captured at scale onto pages of pageWidth x pageHeight.
func ComputeLayout(pageWidth, pageHeight float64, pixelWidth, pixelHeight int, scale float64, placement Placement) (Layout, error) {
	if pixelWidth <= 0 || pixelHeight <= 0 {
		return Layout{}, fmt.Errorf("%w: %dx%d pixels", ErrEmptyImage, pixelWidth, pixelHeight)
	}
	if scale <= 0 {
		return Layout{}, fmt.Errorf("%w: %v", ErrInvalidScale, scale)
	}
	if pageWidth <= 0 || pageHeight <= 0 {
		return Layout{}, fmt.Errorf("%w: %vx%v", ErrInvalidPageSize, pageWidth, pageHeight)
	}
	if err := placement.Validate(); err != nil {
		return Layout{}, err
	}

	l := Layout{
		PageWidth:   pageWidth,
		PageHeight:  pageHeight,
		ImageWidth:  float64(pixelWidth) / scale,
		ImageHeight: float64(pixelHeight) / scale,
		Placement:   placement,
	}

	ratio := l.ImageWidth / l.ImageHeight
	pageRatio := pageWidth / pageHeight
	if ratio > pageRatio {
		l.FitWidth = pageWidth
		l.FitHeight = pageWidth / ratio
	} else {
		l.FitHeight = pageHeight
		l.FitWidth = pageHeight * ratio
	}

	switch placement {
	case PlacementFitWidth:
		l.DrawWidth = pageWidth
		l.DrawHeight = pageWidth / ratio
	case PlacementFitPage:
		l.DrawWidth = l.FitWidth
		l.DrawHeight = l.FitHeight
	default:
		l.DrawWidth = l.ImageWidth
		l.DrawHeight = l.ImageHeight
		// A capture wider than the page is scaled down to the page width.
		if l.ImageWidth > pageWidth {
			l.DrawWidth = pageWidth
			l.DrawHeight = pageWidth / ratio
		}
	}

	l.Offsets = Paginate(l.DrawHeight, pageHeight)
	return l, nil
}

// Paginate slices an image of the given painted height over pages of
// pageHeight. Each returned offset is where the image's top edge sits on
// that page, so page n shows the band starting (n-1)*pageHeight into the
// image. The result has ceil(height/pageHeight) entries, at least one.
func Paginate(height, pageHeight float64) []float64 {
	offsets := []float64{0}
	if pageHeight <= 0 {
		return offsets
	}
	remaining := height - pageHeight
	for remaining > paginationEpsilon {
		offsets = append(offsets, remaining-height)
		remaining -= pageHeight
	}
	return offsets
}
