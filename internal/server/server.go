package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	mdexport "github.com/alnah/go-mdexport"
)

// Defaults for Options fields left empty.
const (
	DefaultAddr            = "127.0.0.1:8080"
	DefaultShutdownTimeout = 10 * time.Second
	maxRequestBody         = 4 << 20
	editorTitle            = "Markdown Editor"
)

// Sentinel errors for server setup.
var (
	ErrNilSession    = errors.New("session is nil")
	ErrEditorPage    = errors.New("editor page template")
	ErrListen        = errors.New("listen failed")
	ErrServerStopped = errors.New("server stopped")
)

// Options configures a Server.
type Options struct {
	// Addr is the listen address. Defaults to DefaultAddr.
	Addr string

	// Style is the preview stylesheet served at /assets/preview.css.
	Style string

	// Assets loads the editor page template. Defaults to embedded assets.
	Assets mdexport.AssetLoader

	// PDFFilename is offered to the browser when saving the PDF.
	// Defaults to mdexport.DefaultPDFFilename.
	PDFFilename string

	// WatchFile, when set, is reloaded into the session on every write.
	WatchFile string

	// ShutdownTimeout bounds graceful shutdown. Defaults to
	// DefaultShutdownTimeout.
	ShutdownTimeout time.Duration

	Logger *slog.Logger
}

// Server serves the editor page, the JSON API and the live preview socket
// for one Session.
type Server struct {
	session *mdexport.Session
	opts    Options
	logger  *slog.Logger
	editor  *template.Template
	hub     *Hub
	router  chi.Router
}

// New builds a server around session. It subscribes the websocket hub to
// session events; call Close (or let Run return) to unsubscribe.
func New(session *mdexport.Session, opts Options) (*Server, error) {
	if session == nil {
		return nil, ErrNilSession
	}
	if opts.Addr == "" {
		opts.Addr = DefaultAddr
	}
	if opts.PDFFilename == "" {
		opts.PDFFilename = mdexport.DefaultPDFFilename
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = DefaultShutdownTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	if opts.Assets == nil {
		loader, err := mdexport.NewAssetLoader("")
		if err != nil {
			return nil, err
		}
		opts.Assets = loader
	}

	page, err := opts.Assets.LoadTemplate(mdexport.EditorTemplate)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEditorPage, err)
	}
	editor, err := template.New(mdexport.EditorTemplate).Parse(page)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEditorPage, err)
	}

	s := &Server{
		session: session,
		opts:    opts,
		logger:  opts.Logger,
		editor:  editor,
		hub:     NewHub(session, opts.Logger),
	}
	s.router = s.routes()
	return s, nil
}

// Handler returns the HTTP handler with all routes and middleware.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Hub returns the websocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)
	r.Use(noSniff)

	r.Get("/", s.handleEditor)
	r.Get("/assets/preview.css", s.handleStyle)
	r.Get("/ws", s.hub.HandleWebSocket)

	r.Route("/api", func(r chi.Router) {
		r.Use(maxBody(maxRequestBody))
		r.Get("/status", s.handleStatus)
		r.Get("/document", s.handleGetDocument)
		r.Put("/document", s.handlePutDocument)
		r.Post("/document/import", s.handleImport)
		r.Post("/preview/mount", s.handleMount)
		r.Delete("/preview/mount", s.handleUnmount)
		r.Post("/export/doc", s.handleExportDoc)
		r.Post("/export/pdf", s.handleExportPDF)
	})
	return r
}

// Run listens on the configured address and serves until ctx is cancelled,
// then shuts down gracefully. A watched file, if any, is followed for the
// lifetime of the server.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrListen, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer s.Close()

	srv := &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()
	if s.opts.WatchFile != "" {
		w, err := NewWatcher(s.opts.WatchFile, s.session, s.logger)
		if err != nil {
			_ = ln.Close()
			return err
		}
		s.logger.Info("watching file", "path", w.Path())
		go func() {
			if err := w.Run(watchCtx); err != nil {
				s.logger.Error("file watcher stopped", "path", w.Path(), "error", err)
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("editor listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("%w: %w", ErrServerStopped, err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.ShutdownTimeout)
	defer cancel()
	s.hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("%w: %w", ErrServerStopped, err)
	}
	return nil
}

// Close disconnects websocket clients and unsubscribes from the session.
func (s *Server) Close() {
	s.hub.Close()
}
