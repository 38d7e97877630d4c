// Package watcher keeps the index in sync with a directory: files that are
// created or modified are ingested, files that are removed are dropped.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/domain"
	"github.com/jjgordon89/huggingchatbot-sub001/internal/core/ports/driving"
	"github.com/jjgordon89/huggingchatbot-sub001/internal/extract"
	"github.com/jjgordon89/huggingchatbot-sub001/internal/logger"
)

// DefaultDebounce is how long events for a path are coalesced before acting.
const DefaultDebounce = 500 * time.Millisecond

// ErrClosed is returned by Run after Close.
var ErrClosed = errors.New("watcher is closed")

// ChangeType is what happened to a file.
type ChangeType string

// Change types.
const (
	ChangeUpserted ChangeType = "upserted"
	ChangeRemoved  ChangeType = "removed"
)

// Change is a pending index update for one file.
type Change struct {
	Type ChangeType
	Path string
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the event coalescing interval.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithOnChange registers a callback invoked after each applied change.
// err is nil on success.
func WithOnChange(fn func(Change, error)) Option {
	return func(w *Watcher) {
		w.onChange = fn
	}
}

// Watcher mirrors a directory tree into the index.
type Watcher struct {
	root     string
	rag      driving.RAGService
	debounce time.Duration
	onChange func(Change, error)

	mu     sync.Mutex
	closed bool
}

// New creates a watcher for root.
func New(root string, rag driving.RAGService, opts ...Option) *Watcher {
	w := &Watcher{
		root:     root,
		rag:      rag,
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Sync ingests every visible file under root. Files that cannot be
// extracted are skipped. It returns the number of files ingested.
func (w *Watcher) Sync(ctx context.Context) (int, error) {
	count := 0
	err := filepath.WalkDir(w.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != w.root && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if w.apply(ctx, Change{Type: ChangeUpserted, Path: path}) == nil {
			count++
		}
		return nil
	})
	if err != nil {
		return count, fmt.Errorf("sync %s: %w", w.root, err)
	}
	return count, nil
}

// Run watches root until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return ErrClosed
	}

	info, err := os.Stat(w.root)
	if err != nil {
		return fmt.Errorf("root path error: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("root path error: %s is not a directory", w.root)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := w.addTree(fw, w.root, nil); err != nil {
		return err
	}
	logger.Info("Watching %s", w.root)

	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	pending := make(map[string]Change)
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() && !isHidden(filepath.Base(event.Name)) {
					// Files moved in with the directory produce no events of their own.
					if err := w.addTree(fw, event.Name, pending); err != nil {
						logger.Warn("watch %s: %v", event.Name, err)
					}
					continue
				}
			}
			if change := w.handleEvent(event); change != nil {
				pending[change.Path] = *change
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error: %v", err)

		case <-ticker.C:
			w.flush(ctx, pending)
		}
	}
}

// Close stops future Run calls.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

// handleEvent maps a filesystem event to an index change, or nil when the
// event is irrelevant.
func (w *Watcher) handleEvent(event fsnotify.Event) *Change {
	if isHiddenPath(w.root, event.Name) {
		return nil
	}

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		return &Change{Type: ChangeRemoved, Path: event.Name}
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		info, err := os.Stat(event.Name)
		if err != nil || info.IsDir() {
			return nil
		}
		return &Change{Type: ChangeUpserted, Path: event.Name}
	default:
		return nil
	}
}

// flush applies pending changes in path order and empties the map.
func (w *Watcher) flush(ctx context.Context, pending map[string]Change) {
	if len(pending) == 0 {
		return
	}
	paths := make([]string, 0, len(pending))
	for p := range pending {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		w.apply(ctx, pending[p]) //nolint:errcheck
		delete(pending, p)
	}
}

func (w *Watcher) apply(ctx context.Context, change Change) error {
	var err error
	switch change.Type {
	case ChangeRemoved:
		_, err = w.rag.RemoveDocument(ctx, extract.DocumentID(change.Path))
	case ChangeUpserted:
		var doc domain.Document
		if doc, err = extract.File(change.Path); err == nil {
			err = w.rag.Ingest(ctx, doc)
		}
	}

	switch {
	case err == nil:
		logger.Debug("%s %s", change.Type, change.Path)
	case errors.Is(err, extract.ErrUnsupported), errors.Is(err, domain.ErrInvalidInput):
		logger.Debug("Skipping %s: %v", change.Path, err)
	default:
		logger.Warn("%s %s: %v", change.Type, change.Path, err)
	}
	if w.onChange != nil {
		w.onChange(change, err)
	}
	return err
}

// addTree watches dir and its visible subdirectories. When pending is
// non-nil, visible files found in the tree are queued for ingestion.
func (w *Watcher) addTree(fw *fsnotify.Watcher, dir string, pending map[string]Change) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path != dir && isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			if pending != nil && d.Type().IsRegular() {
				pending[path] = Change{Type: ChangeUpserted, Path: path}
			}
			return nil
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}

// isHiddenPath reports whether any element of path below root is hidden.
func isHiddenPath(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		rel = path
	}
	for _, part := range strings.Split(filepath.ToSlash(rel), "/") {
		if isHidden(part) {
			return true
		}
	}
	return false
}
