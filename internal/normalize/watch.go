package normalize

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Watcher keeps a sessions tree normalized as new rollout files
// appear, debouncing the write bursts an active recorder produces.
// Normalization failures are logged, never fatal; the outputs of a
// split or move re-trigger events that settle into no-ops.
type Watcher struct {
	root     string
	watcher  *fsnotify.Watcher
	debounce time.Duration
	pending  map[string]time.Time
	mu       sync.Mutex
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	now      func() time.Time
}

// NewWatcher creates a watcher over a sessions root. Call Start to
// add watches and begin processing.
func NewWatcher(root string, debounce time.Duration) (*Watcher, error) {
	if root == "" {
		return nil, fmt.Errorf("sessions root is empty: %w", os.ErrInvalid)
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		root:     root,
		watcher:  fsw,
		debounce: debounce,
		pending:  make(map[string]time.Time),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		now:      time.Now,
	}, nil
}

// Start watches the whole tree and begins processing events in a
// goroutine.
func (w *Watcher) Start() error {
	if err := w.watchTree(); err != nil {
		return err
	}
	go w.loop()
	return nil
}

// Stop halts event processing and releases the underlying watches.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
		<-w.done
		w.watcher.Close()
	})
}

// watchTree adds the root and every subdirectory to the watch list,
// iteratively; unreadable directories are skipped.
func (w *Watcher) watchTree() error {
	if err := w.watcher.Add(w.root); err != nil {
		return fmt.Errorf("watch %s: %w", w.root, err)
	}
	stack := []string{w.root}
	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		entries, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, entry := range entries {
			if !entry.IsDir() {
				continue
			}
			sub := filepath.Join(dir, entry.Name())
			_ = w.watcher.Add(sub)
			stack = append(stack, sub)
		}
	}
	return nil
}

func (w *Watcher) loop() {
	defer close(w.done)
	ticker := time.NewTicker(w.debounce)
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
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
			log.Printf("warning: watcher: %v", err)

		case <-ticker.C:
			w.flush()
		}
	}
}

// handleEvent records a pending change for rollout files and
// auto-watches newly created directories. Everything else, including
// the .mixed.bak renames we produce ourselves, is ignored.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}

	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			_ = w.watcher.Add(event.Name)
			return
		}
	}

	if !strings.EqualFold(filepath.Ext(event.Name), ".jsonl") {
		return
	}

	w.mu.Lock()
	w.pending[event.Name] = w.now()
	w.mu.Unlock()
}

// flush normalizes every path whose debounce period has elapsed.
func (w *Watcher) flush() {
	w.mu.Lock()
	now := w.now()
	var ready []string
	for path, t := range w.pending {
		if now.Sub(t) >= w.debounce {
			ready = append(ready, path)
		}
	}
	for _, path := range ready {
		delete(w.pending, path)
	}
	w.mu.Unlock()

	if len(ready) == 0 {
		return
	}
	sort.Strings(ready)
	for _, path := range ready {
		if err := File(w.root, path); err != nil {
			log.Printf("warning: normalize %s: %v", path, err)
		}
	}
}
