// Package watcher monitors the uploads directory for files that disappear
// or appear outside the server's control (manual cleanup, restored backups,
// rsync). Removal events let the server flag attachment rows whose bytes
// are gone instead of serving dead links.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/edubase4teachers/edubase-server/internal/logger"
)

// EventType represents the kind of change seen in the uploads directory.
type EventType int

const (
	// EventAdded is emitted when a new file appears (after settling).
	EventAdded EventType = iota
	// EventRemoved is emitted when a file is deleted or renamed away.
	EventRemoved
)

// String returns the string representation of the event type.
func (t EventType) String() string {
	switch t {
	case EventAdded:
		return "added"
	case EventRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Event is one settled change to a stored upload.
type Event struct {
	Type       EventType
	StoredName string // File name relative to the uploads dir
}

// settleDelay is how long a newly written file must stay quiet before an
// Added event fires. Copies into the directory arrive in bursts of writes.
const settleDelay = 2 * time.Second

// Watcher watches a single uploads directory, debouncing write bursts.
type Watcher struct {
	dir string
	log *logger.Logger
	fsw *fsnotify.Watcher

	mu      sync.Mutex
	pending map[string]*time.Timer

	events chan Event
}

// New creates a watcher for the uploads directory. Call Run to start it.
func New(dir string, log *logger.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch uploads dir: %w", err)
	}

	return &Watcher{
		dir:     dir,
		log:     log,
		fsw:     fsw,
		pending: make(map[string]*time.Timer),
		events:  make(chan Event, 100),
	}, nil
}

// Events returns the channel of settled upload changes.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Run processes filesystem events until the context is canceled.
// It always returns the context's error.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()
	defer w.cancelPending()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.fsw.Events:
			if !ok {
				return ctx.Err()
			}
			w.handle(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return ctx.Err()
			}
			w.log.Warn("uploads watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") {
		return // Editor/rsync temp files.
	}

	switch {
	case event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename):
		w.cancelTimer(name)
		w.emit(Event{Type: EventRemoved, StoredName: name})
	case event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write):
		w.resetTimer(name)
	}
}

// resetTimer (re)arms the settle timer for a file being written.
func (w *Watcher) resetTimer(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[name]; ok {
		timer.Reset(settleDelay)
		return
	}
	w.pending[name] = time.AfterFunc(settleDelay, func() {
		w.mu.Lock()
		delete(w.pending, name)
		w.mu.Unlock()
		w.emit(Event{Type: EventAdded, StoredName: name})
	})
}

func (w *Watcher) cancelTimer(name string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if timer, ok := w.pending[name]; ok {
		timer.Stop()
		delete(w.pending, name)
	}
}

func (w *Watcher) cancelPending() {
	w.mu.Lock()
	defer w.mu.Unlock()

	for name, timer := range w.pending {
		timer.Stop()
		delete(w.pending, name)
	}
}

// emit drops events when the consumer is saturated; the watcher is an
// advisory signal, not a durable queue.
func (w *Watcher) emit(e Event) {
	select {
	case w.events <- e:
	default:
		w.log.Warn("uploads watcher event dropped", "file", e.StoredName, "type", e.Type.String())
	}
}
