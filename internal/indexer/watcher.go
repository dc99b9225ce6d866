package indexer

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"adi/internal/codegraph"
)

// Watcher re-indexes a project incrementally as its files change, rather
// than requiring a full IndexProject re-run after every edit. Grounded in
// the teacher's internal/core/mangle_watcher.go (fsnotify.Watcher wrapped
// with a debounce map so a burst of saves collapses into one reindex per
// settled file).
type Watcher struct {
	mu          sync.Mutex
	ix          *Indexer
	watcher     *fsnotify.Watcher
	projectRoot string
	cfg         DiscoveryConfig
	debounceMap map[string]time.Time
	debounceDur time.Duration
	stopCh      chan struct{}
	doneCh      chan struct{}
	running     bool
	log         *zap.Logger
}

// NewWatcher builds a Watcher for projectRoot. Call Start to begin
// watching; Stop to shut it down.
func NewWatcher(ix *Indexer, projectRoot string, cfg DiscoveryConfig) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		ix:          ix,
		watcher:     fw,
		projectRoot: projectRoot,
		cfg:         cfg,
		debounceMap: make(map[string]time.Time),
		debounceDur: 500 * time.Millisecond,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
		log:         ix.log.With(zap.String("component", "watcher")),
	}, nil
}

// Start walks projectRoot adding every non-hidden directory to the
// underlying fsnotify watch list, then begins the debounced event loop in
// a goroutine. Non-blocking, matching MangleWatcher.Start's shape.
func (w *Watcher) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	if err := w.addDirs(); err != nil {
		return err
	}

	go w.run(ctx)
	return nil
}

// Stop halts the event loop and closes the underlying watcher.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh
	_ = w.watcher.Close()
}

// addDirs registers projectRoot and every subdirectory not skipped by
// discoverFiles' own hidden-directory rule, since fsnotify watches are
// not recursive.
func (w *Watcher) addDirs() error {
	return filepath.Walk(w.projectRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			return nil
		}
		base := info.Name()
		if base != "." && strings.HasPrefix(base, ".") && path != w.projectRoot {
			return filepath.SkipDir
		}
		if err := w.watcher.Add(path); err != nil {
			w.log.Warn("watch add failed", zap.String("dir", path), zap.Error(err))
		}
		return nil
	})
}

func (w *Watcher) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", zap.Error(err))
		case <-ticker.C:
			w.processDebounced(ctx)
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return // ignore chmod, etc.
	}
	if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
		if event.Op&fsnotify.Create != 0 {
			_ = w.watcher.Add(event.Name)
		}
		return
	}
	if languageFromExtension(filepath.Ext(event.Name)) == codegraph.LangUnknown {
		return
	}

	w.mu.Lock()
	w.debounceMap[event.Name] = time.Now()
	w.mu.Unlock()
}

func (w *Watcher) processDebounced(ctx context.Context) {
	w.mu.Lock()
	now := time.Now()
	var settled []string
	for path, t := range w.debounceMap {
		if now.Sub(t) >= w.debounceDur {
			settled = append(settled, path)
			delete(w.debounceMap, path)
		}
	}
	w.mu.Unlock()
	if len(settled) == 0 {
		return
	}

	rel := make([]string, 0, len(settled))
	for _, abs := range settled {
		r, err := filepath.Rel(w.projectRoot, abs)
		if err != nil {
			continue
		}
		rel = append(rel, filepath.ToSlash(r))
	}

	w.log.Info("reindexing changed files", zap.Strings("paths", rel))
	if err := w.ix.ReindexPaths(ctx, w.projectRoot, rel); err != nil {
		w.log.Warn("watch-triggered reindex failed", zap.Error(err))
	}
}
