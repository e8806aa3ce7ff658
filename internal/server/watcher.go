package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	mdexport "github.com/alnah/go-mdexport"
)

// ErrWatch is returned when the watched file cannot be followed.
var ErrWatch = errors.New("watch failed")

// maxWatchedFileSize caps reloads of the watched file.
const maxWatchedFileSize = 10 << 20

// Watcher reloads a markdown file into the session whenever it is written.
// The parent directory is watched so editors that save by rename are seen.
type Watcher struct {
	path    string
	session *mdexport.Session
	logger  *slog.Logger
	watcher *fsnotify.Watcher
}

// NewWatcher starts watching path's directory.
func NewWatcher(path string, session *mdexport.Session, logger *slog.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWatch, err)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrWatch, err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("%w: %w", ErrWatch, err)
	}

	return &Watcher{path: abs, session: session, logger: logger, watcher: fw}, nil
}

// Path returns the absolute path being followed.
func (w *Watcher) Path() string {
	return w.path
}

// Run processes file events until ctx is cancelled or the watcher fails.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.reload(ctx)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "path", w.path, "error", err)
		case <-ctx.Done():
			return nil
		}
	}
}

// reload reads the file and replaces the session text when it changed.
func (w *Watcher) reload(ctx context.Context) {
	text, err := ReadMarkdownFile(w.path)
	if err != nil {
		w.logger.Warn("reload failed", "path", w.path, "error", err)
		return
	}
	if text == w.session.Text() {
		return
	}
	w.session.SetText(ctx, text)
	w.logger.Info("document reloaded", "path", w.path, "bytes", len(text))
}

// ReadMarkdownFile reads a markdown file, refusing files larger than the
// reload cap.
func ReadMarkdownFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", err
	}
	if info.Size() > maxWatchedFileSize {
		return "", fmt.Errorf("%w: %s is %d bytes, limit %d", ErrWatch, path, info.Size(), maxWatchedFileSize)
	}
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided path
	if err != nil {
		return "", err
	}
	return string(data), nil
}
