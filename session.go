package mdexport

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/google/uuid"
)

// Engine renders markdown and produces downloads. *Converter implements it.
type Engine interface {
	Render(ctx context.Context, markdown string) (string, error)
	ExportDocument(fragment string) *Download
	ExportPDF(ctx context.Context, p Preview) (*Download, error)
}

// PreviewEvent is published after every state change. Version increases
// with every change, so a consumer can drop an event older than one it has
// already seen.
type PreviewEvent struct {
	Version uint64 `json:"version"`
	Text    string `json:"text"`
	HTML    string `json:"html"`
	Loading bool   `json:"loading"`
	Mounted bool   `json:"mounted"`
}

// Session is the editor state: the document text, whether an export is in
// progress, and whether a preview pane is mounted. It is safe for
// concurrent use. Only one export runs at a time.
type Session struct {
	engine Engine
	logger *slog.Logger

	mu      sync.Mutex
	version uint64 // bumped under mu by every mutation
	text    string
	loading bool
	mounted bool
	width   int
	baseDir string

	subMu   sync.Mutex
	subs    map[int]func(PreviewEvent)
	nextSub int

	// pubMu orders deliveries; published is the newest version delivered.
	pubMu     sync.Mutex
	published uint64
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithInitialText seeds the document text. The default is DefaultMarkdown.
func WithInitialText(text string) SessionOption {
	return func(s *Session) {
		s.text = text
	}
}

// WithBaseDir resolves relative image paths against dir during PDF capture.
func WithBaseDir(dir string) SessionOption {
	return func(s *Session) {
		s.baseDir = dir
	}
}

// WithSessionLogger sets the logger for export outcomes.
func WithSessionLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSession creates a session with the sample document and no mounted
// preview.
func NewSession(engine Engine, opts ...SessionOption) *Session {
	s := &Session{
		engine:  engine,
		logger:  discardLogger(),
		version: 1,
		text:    DefaultMarkdown,
		subs:   make(map[int]func(PreviewEvent)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Text returns the current document text.
func (s *Session) Text() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.text
}

// SetText replaces the document text.
func (s *Session) SetText(ctx context.Context, text string) {
	s.mu.Lock()
	s.text = text
	s.version++
	s.mu.Unlock()
	s.publish(ctx)
}

// ImportHTML converts pasted HTML to markdown and makes it the document.
func (s *Session) ImportHTML(ctx context.Context, html string) error {
	markdown, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrHTMLImport, err)
	}
	s.SetText(ctx, markdown)
	return nil
}

// Loading reports whether an export is running.
func (s *Session) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Mounted reports whether a preview pane is attached.
func (s *Session) Mounted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mounted
}

// Mount attaches a preview pane laid out at width CSS px.
func (s *Session) Mount(ctx context.Context, width int) error {
	if width <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidWidth, width)
	}
	s.mu.Lock()
	s.mounted = true
	s.width = width
	s.version++
	s.mu.Unlock()
	s.publish(ctx)
	return nil
}

// Unmount detaches the preview pane. Exports fail with
// ErrPreviewUnavailable until the next Mount.
func (s *Session) Unmount(ctx context.Context) {
	s.mu.Lock()
	s.mounted = false
	s.width = 0
	s.version++
	s.mu.Unlock()
	s.publish(ctx)
}

// Preview returns the mounted preview region. The boolean is false when no
// preview is mounted.
func (s *Session) Preview(ctx context.Context) (Preview, bool, error) {
	s.mu.Lock()
	text, mounted, width, baseDir := s.text, s.mounted, s.width, s.baseDir
	s.mu.Unlock()

	if !mounted {
		return Preview{}, false, nil
	}
	html, err := s.engine.Render(ctx, text)
	if err != nil {
		return Preview{}, true, err
	}
	return Preview{HTML: html, Width: width, BaseDir: baseDir}, true, nil
}

// Snapshot returns the current state as an event.
func (s *Session) Snapshot(ctx context.Context) (PreviewEvent, error) {
	s.mu.Lock()
	ev := PreviewEvent{Version: s.version, Text: s.text, Loading: s.loading, Mounted: s.mounted}
	s.mu.Unlock()

	html, err := s.engine.Render(ctx, ev.Text)
	if err != nil {
		return ev, err
	}
	ev.HTML = html
	return ev, nil
}

// ExportDocument packages the preview markup as document.doc.
// Returns ErrPreviewUnavailable without changing state when no preview is
// mounted, and ErrExportInProgress while another export runs.
func (s *Session) ExportDocument(ctx context.Context) (*Download, error) {
	p, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer s.end(ctx)

	id := uuid.NewString()
	html, err := s.engine.Render(ctx, p.text)
	if err != nil {
		s.logger.Error("document export failed", "export_id", id, "format", FormatDoc, "error", err)
		return nil, err
	}

	dl := s.engine.ExportDocument(html)
	s.logger.Info("document exported", "export_id", id, "format", FormatDoc, "bytes", len(dl.Data))
	return dl, nil
}

// ExportPDF rasterizes the mounted preview and paginates it into
// document.pdf. The loading flag is set for the duration of the call and
// cleared on success and on failure. Failures are logged with an export id
// and returned wrapped in ErrPDFExport.
func (s *Session) ExportPDF(ctx context.Context) (*Download, error) {
	p, err := s.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer s.end(ctx)

	id := uuid.NewString()
	html, err := s.engine.Render(ctx, p.text)
	if err != nil {
		s.logger.Error("PDF export failed", "export_id", id, "format", FormatPDF, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrPDFExport, err)
	}

	dl, err := s.engine.ExportPDF(ctx, Preview{HTML: html, Width: p.width, BaseDir: p.baseDir})
	if err != nil {
		s.logger.Error("PDF export failed", "export_id", id, "format", FormatPDF, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrPDFExport, err)
	}

	s.logger.Info("PDF exported", "export_id", id, "format", FormatPDF, "pages", dl.Pages, "bytes", len(dl.Data))
	return dl, nil
}

// Subscribe registers fn for state change events. Callbacks run on the
// goroutine that changed the state, in version order, and must neither
// block nor call back into the session.
func (s *Session) Subscribe(fn func(PreviewEvent)) (cancel func()) {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// exportState is the state captured when an export starts.
type exportState struct {
	text    string
	width   int
	baseDir string
}

// begin checks the preview and claims the loading flag.
func (s *Session) begin(ctx context.Context) (exportState, error) {
	s.mu.Lock()
	if !s.mounted {
		s.mu.Unlock()
		return exportState{}, ErrPreviewUnavailable
	}
	if s.loading {
		s.mu.Unlock()
		return exportState{}, ErrExportInProgress
	}
	s.loading = true
	s.version++
	st := exportState{text: s.text, width: s.width, baseDir: s.baseDir}
	s.mu.Unlock()

	s.publish(ctx)
	return st, nil
}

// end releases the loading flag.
func (s *Session) end(ctx context.Context) {
	s.mu.Lock()
	s.loading = false
	s.version++
	s.mu.Unlock()
	s.publish(context.WithoutCancel(ctx))
}

// publish sends the current state to every subscriber. Rendering happens
// outside any lock, so concurrent publishes can finish out of order; an
// event older than the last one delivered is dropped. The publish of the
// latest change therefore always delivers the latest state.
func (s *Session) publish(ctx context.Context) {
	s.subMu.Lock()
	if len(s.subs) == 0 {
		s.subMu.Unlock()
		return
	}
	subs := make([]func(PreviewEvent), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	ev, err := s.Snapshot(ctx)
	if err != nil {
		s.logger.Warn("preview render failed", "error", err)
	}

	s.pubMu.Lock()
	defer s.pubMu.Unlock()
	if ev.Version <= s.published {
		return
	}
	s.published = ev.Version
	for _, fn := range subs {
		fn(ev)
	}
}
