package storage

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ragline/ragline/internal/logging"
)

// ChangeHandler is called when another process writes the state database
// (e.g. `ragline login` completing while the chat TUI is open).
type ChangeHandler func()

// StateWatcher watches the state database and debounces change
// notifications to its handlers.
type StateWatcher struct {
	watcher  *fsnotify.Watcher
	path     string
	handlers []ChangeHandler
	debounce time.Duration
	mu       sync.Mutex
	timer    *time.Timer
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewStateWatcher creates a watcher for the given state-database path.
func NewStateWatcher(path string) (*StateWatcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fs watcher: %w", err)
	}
	return &StateWatcher{
		watcher:  fsWatcher,
		path:     path,
		debounce: 250 * time.Millisecond,
		stopCh:   make(chan struct{}),
	}, nil
}

// AddHandler registers a change handler. Handlers run on the watcher
// goroutine and should hand off anything slow.
func (w *StateWatcher) AddHandler(handler ChangeHandler) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.handlers = append(w.handlers, handler)
}

// Start begins watching. SQLite in WAL mode writes sibling -wal/-shm
// files, so the whole parent directory is watched and events filtered by
// prefix.
func (w *StateWatcher) Start() error {
	if err := w.watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(w.path), err)
	}
	w.wg.Add(1)
	go w.loop()
	return nil
}

// Stop shuts the watcher down and waits for the loop to exit.
func (w *StateWatcher) Stop() error {
	close(w.stopCh)
	err := w.watcher.Close()
	w.wg.Wait()
	return err
}

func (w *StateWatcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.matches(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.schedule()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			logging.Logger().Warn("state watcher", "error", err)
		}
	}
}

func (w *StateWatcher) matches(name string) bool {
	base := filepath.Base(w.path)
	got := filepath.Base(name)
	return got == base || got == base+"-wal" || got == base+"-shm"
}

// schedule coalesces a burst of writes into one notification.
func (w *StateWatcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

func (w *StateWatcher) fire() {
	w.mu.Lock()
	handlers := make([]ChangeHandler, len(w.handlers))
	copy(handlers, w.handlers)
	w.mu.Unlock()
	for _, handler := range handlers {
		handler()
	}
}
