package mdexport

// Word-compatible HTML envelope. Word opens this markup as a document when
// it is served with the .doc extension and the ms-word MIME type.
const (
	docHeader = "<html xmlns:o='urn:schemas-microsoft-com:office:office' " +
		"xmlns:w='urn:schemas-microsoft-com:office:word' " +
		"xmlns='http://www.w3.org/TR/REC-html40'>" +
		"<head><meta charset='utf-8'><title>Export HTML To Doc</title></head><body>"
	docFooter = "</body></html>"
)

// DocumentExporter packages a rendered fragment as a legacy word-processor
// document.
type DocumentExporter struct {
	filename string
}

// NewDocumentExporter creates an exporter. An empty filename falls back to
// DefaultDocFilename.
func NewDocumentExporter(filename string) *DocumentExporter {
	if filename == "" {
		filename = DefaultDocFilename
	}
	return &DocumentExporter{filename: filename}
}

// Envelope wraps the fragment in the Word HTML header and footer.
func (e *DocumentExporter) Envelope(fragment string) string {
	return docHeader + fragment + docFooter
}

// Export builds the download. It cannot fail: an empty fragment still
// yields the bare envelope.
func (e *DocumentExporter) Export(fragment string) *Download {
	return &Download{
		Filename:    e.filename,
		ContentType: DocContentType,
		Charset:     "utf-8",
		Data:        []byte(e.Envelope(fragment)),
	}
}
