// Package watcher ingests documents dropped into a local directory, so a
// knowledge base can be bulk-loaded without going through the upload API.
package watcher

import (
	"context"
	"fmt"
	"log"
	"mime"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"msmehub.io/platform/internal/core"
)

// defaultDebounce is how long a file must stay quiet before it is ingested.
// Copies and editors emit bursts of write events; only the last one counts.
const defaultDebounce = 500 * time.Millisecond

type Watcher struct {
	ingest    *core.IngestService
	namespace core.Namespace
	dir       string
	fsWatcher *fsnotify.Watcher
	debounce  time.Duration

	mu      sync.Mutex
	pending map[string]*time.Timer
}

func New(ingest *core.IngestService, dir string, namespace core.Namespace) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}

	return &Watcher{
		ingest:    ingest,
		namespace: namespace,
		dir:       dir,
		fsWatcher: fsWatcher,
		debounce:  defaultDebounce,
		pending:   make(map[string]*time.Timer),
	}, nil
}

// Run watches the directory until the context is cancelled. Ingestion
// failures are logged and skipped; they never stop the watch.
func (w *Watcher) Run(ctx context.Context) error {
	if err := w.fsWatcher.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}
	log.Printf("Watching %s for documents to ingest into namespace %s", w.dir, w.namespace)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if !watchedExtension(event.Name) {
				continue
			}
			w.scheduleIngest(event.Name)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return nil
			}
			log.Printf("Watcher error: %v", err)
		}
	}
}

func (w *Watcher) Close() error {
	w.mu.Lock()
	for path, timer := range w.pending {
		timer.Stop()
		delete(w.pending, path)
	}
	w.mu.Unlock()
	return w.fsWatcher.Close()
}

// scheduleIngest (re)arms the per-path debounce timer.
func (w *Watcher) scheduleIngest(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[path]; ok {
		timer.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.pending, path)
		w.mu.Unlock()
		w.ingestFile(path)
	})
}

func (w *Watcher) ingestFile(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		log.Printf("Cannot read dropped file %s: %v", path, err)
		return
	}

	contentType := mime.TypeByExtension(filepath.Ext(path))
	added, err := w.ingest.IngestDocument(w.namespace, filepath.Base(path), contentType, data)
	if err != nil {
		log.Printf("Cannot ingest dropped file %s: %v", path, err)
		return
	}
	log.Printf("Ingested %s: %d chunks added to namespace %s", filepath.Base(path), added, w.namespace)
}

func watchedExtension(path string) bool {
	switch filepath.Ext(path) {
	case ".txt", ".pdf":
		return true
	}
	return false
}
