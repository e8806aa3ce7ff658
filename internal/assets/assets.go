package assets

// Built-in asset names.
const (
	// DefaultStyleName styles the preview pane and the PDF capture.
	DefaultStyleName = "preview"

	// EditorTemplateName is the single-page editor UI.
	EditorTemplateName = "editor"

	// CaptureTemplateName wraps a rendered fragment into a standalone
	// document for rasterization.
	CaptureTemplateName = "capture"
)
