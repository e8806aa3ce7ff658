package mdexport

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"strings"
)

// Page size constants.
const (
	PageSizeA4     = "a4"
	PageSizeLetter = "letter"
	PageSizeLegal  = "legal"
)

// Orientation constants.
const (
	OrientationPortrait  = "portrait"
	OrientationLandscape = "landscape"
)

// Scale bounds for rasterization oversampling.
const (
	DefaultScale = 2.0
	MinScale     = 1.0
	MaxScale     = 4.0
)

// Fixed download names and MIME types.
const (
	DefaultDocFilename = "document.doc"
	DefaultPDFFilename = "document.pdf"
	DocContentType     = "application/vnd.ms-word"
	PDFContentType     = "application/pdf"
)

// DefaultPreviewWidth is the capture width (CSS px) used when no browser
// reported its preview pane width, e.g. for CLI exports. It is the width of
// the default A4 portrait page, floor(595.28pt / 0.75).
const DefaultPreviewWidth = 793

// PageFormat selects the PDF page size.
type PageFormat struct {
	Size        string // "a4", "letter", "legal"
	Orientation string // "portrait", "landscape"
}

// DefaultPageFormat returns A4 portrait.
func DefaultPageFormat() PageFormat {
	return PageFormat{Size: PageSizeA4, Orientation: OrientationPortrait}
}

// Validate checks that the page format is known.
// Uses case-insensitive comparison and does not mutate.
func (p PageFormat) Validate() error {
	switch strings.ToLower(p.Size) {
	case PageSizeA4, PageSizeLetter, PageSizeLegal:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidPageSize, p.Size)
	}
	switch strings.ToLower(p.Orientation) {
	case OrientationPortrait, OrientationLandscape:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidOrientation, p.Orientation)
	}
	return nil
}

// Placement controls how the captured image is painted on the pages.
type Placement string

const (
	// PlacementLogical paints the image at its logical size (pixels divided
	// by the oversampling scale) and slices it vertically across pages.
	PlacementLogical Placement = "logical"

	// PlacementFitWidth scales the image to the page width and slices the
	// scaled height across pages.
	PlacementFitWidth Placement = "fit-width"

	// PlacementFitPage scales the image to fit a single page, keeping its
	// aspect ratio.
	PlacementFitPage Placement = "fit-page"
)

// Validate checks that the placement is known.
func (p Placement) Validate() error {
	switch p {
	case PlacementLogical, PlacementFitWidth, PlacementFitPage:
		return nil
	}
	return fmt.Errorf("%w: %q (must be logical, fit-width, or fit-page)", ErrInvalidPlacement, string(p))
}

// Format names an export format.
type Format string

const (
	FormatDoc Format = "doc"
	FormatPDF Format = "pdf"
)

// ParseFormat converts a user-supplied name to a Format.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimPrefix(s, "."))) {
	case FormatDoc:
		return FormatDoc, nil
	case FormatPDF:
		return FormatPDF, nil
	}
	return "", fmt.Errorf("%w: %q (must be doc or pdf)", ErrUnknownFormat, s)
}

// Preview is a mounted preview region: the rendered fragment and the width
// it is laid out at.
type Preview struct {
	HTML    string
	Width   int    // CSS px
	BaseDir string // resolves relative image paths during capture (optional)
}

// Input contains headless conversion parameters.
type Input struct {
	Markdown string
	Format   Format
	Width    int    // preview width in CSS px (0 = DefaultPreviewWidth)
	BaseDir  string // directory for relative image paths (optional)
}

// Download is a file ready to hand to the user.
type Download struct {
	Filename    string
	ContentType string
	Charset     string // set for text payloads
	Data        []byte
	Pages       int // PDF page count, 0 for documents
}

// DataURI encodes the download as a data URI. Text payloads use URI
// component encoding with their charset, binary payloads use base64.
func (d *Download) DataURI() string {
	if d.Charset != "" {
		return "data:" + d.ContentType + ";charset=" + d.Charset + "," + encodeURIComponent(string(d.Data))
	}
	return "data:" + d.ContentType + ";base64," + base64.StdEncoding.EncodeToString(d.Data)
}

// DecodeDataURI reverses DataURI, returning the media type (parameters
// included) and the payload.
func DecodeDataURI(uri string) (mediaType string, data []byte, err error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, fmt.Errorf("%w: missing data: prefix", ErrInvalidDataURI)
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return "", nil, fmt.Errorf("%w: missing comma", ErrInvalidDataURI)
	}

	if mt, isBase64 := strings.CutSuffix(meta, ";base64"); isBase64 {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			return "", nil, fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
		}
		return mt, data, nil
	}

	decoded, err := url.PathUnescape(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidDataURI, err)
	}
	return meta, []byte(decoded), nil
}

// encodeURIComponent percent-encodes every byte except the unreserved set
// A-Z a-z 0-9 - _ . ! ~ * ' ( ), matching what browsers do for data URIs.
func encodeURIComponent(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isURIUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0F])
	}
	return b.String()
}

func isURIUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
