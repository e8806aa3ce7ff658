package mdexport

import "errors"

// Sentinel errors for library operations.
var (
	// Editor shell errors.
	ErrPreviewUnavailable = errors.New("preview is not mounted")
	ErrExportInProgress   = errors.New("an export is already in progress")
	ErrInvalidWidth       = errors.New("invalid preview width")

	// Export errors.
	ErrHTMLConversion = errors.New("HTML conversion failed")
	ErrPDFExport      = errors.New("PDF export failed")
	ErrRasterize      = errors.New("rasterization failed")
	ErrPDFAssemble    = errors.New("PDF assembly failed")
	ErrEmptyImage     = errors.New("captured image is empty")
	ErrUnknownFormat  = errors.New("unknown export format")
	ErrInvalidDataURI = errors.New("invalid data URI")
	ErrHTMLImport     = errors.New("HTML import failed")

	// Browser errors.
	ErrBrowserConnect    = errors.New("failed to connect to browser")
	ErrPageCreate        = errors.New("failed to create browser page")
	ErrPageLoad          = errors.New("failed to load page")
	ErrUnknownRasterizer = errors.New("unknown rasterizer")

	// Page format validation errors.
	ErrInvalidPageSize    = errors.New("invalid page size")
	ErrInvalidOrientation = errors.New("invalid orientation")
	ErrInvalidPlacement   = errors.New("invalid placement")
	ErrInvalidScale       = errors.New("invalid scale")

	// Asset loading errors.
	ErrStyleNotFound    = errors.New("style not found")
	ErrTemplateNotFound = errors.New("template not found")
	ErrInvalidAssetPath = errors.New("invalid asset path")
)
