package catalog

import (
	"context"
	"fmt"
	"path/filepath"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	prefs "github.com/goliatone/go-prefs"
)

// FileSource serves the catalog of one YAML file. Reads always see a fully
// parsed catalog; a broken file never replaces a good one.
type FileSource struct {
	path     string
	current  atomic.Pointer[Catalog]
	logger   *zap.Logger
	onReload func(*Catalog, error)
}

var _ prefs.DescriptorSource = (*FileSource)(nil)

// FileSourceOption configures a FileSource.
type FileSourceOption func(*FileSource)

// WithLogger logs reloads and watch errors. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) FileSourceOption {
	return func(s *FileSource) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithReloadHook is called after every reload attempt made by Watch.
func WithReloadHook(fn func(*Catalog, error)) FileSourceOption {
	return func(s *FileSource) {
		s.onReload = fn
	}
}

// NewFileSource loads path and fails when the initial catalog is invalid.
func NewFileSource(path string, opts ...FileSourceOption) (*FileSource, error) {
	s := &FileSource{path: path, logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if _, err := s.Reload(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *FileSource) Path() string { return s.path }

// Catalog returns the current catalog.
func (s *FileSource) Catalog() *Catalog {
	return s.current.Load()
}

// Reload re-reads the file. On error the previous catalog stays active.
func (s *FileSource) Reload() (*Catalog, error) {
	c, err := Load(s.path)
	if err != nil {
		s.logger.Warn("catalog reload failed", zap.String("path", s.path), zap.Error(err))
		return nil, err
	}
	s.current.Store(c)
	s.logger.Info("catalog loaded", zap.String("path", s.path), zap.Int("stylesheets", len(c.stylesheets)))
	return c, nil
}

// Watch reloads the catalog whenever the file is written, created or
// renamed into place. It blocks until ctx is done and watches the parent
// directory so editors that replace the file are handled.
func (s *FileSource) Watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("catalog: create watcher: %w", err)
	}
	defer func() { _ = w.Close() }()

	dir := filepath.Dir(s.path)
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("catalog: watch %s: %w", dir, err)
	}
	filename := filepath.Base(s.path)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			c, err := s.Reload()
			if s.onReload != nil {
				s.onReload(c, err)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			s.logger.Warn("catalog watch error", zap.String("path", s.path), zap.Error(err))
		}
	}
}

func (s *FileSource) StylesheetDescriptor(ctx context.Context, id int64) (*prefs.StylesheetDescriptor, error) {
	return s.Catalog().StylesheetDescriptor(ctx, id)
}

func (s *FileSource) StylesheetDescriptorByName(ctx context.Context, name string) (*prefs.StylesheetDescriptor, error) {
	return s.Catalog().StylesheetDescriptorByName(ctx, name)
}
