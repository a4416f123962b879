package rulestore

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/dshills/textmark/internal/rule"
)

// DefaultQuietPeriod is the debounce window for rules-file change events.
// Editors often emit several write/rename events per save; only the last
// one within the window triggers a reload.
const DefaultQuietPeriod = 100 * time.Millisecond

// ReloadFunc receives the freshly loaded rule list after a file change.
type ReloadFunc func([]rule.Rule)

// ErrorFunc receives load or watch errors. The watcher keeps running after
// an error; a corrupt intermediate file state usually resolves on the next
// event.
type ErrorFunc func(error)

// Watcher reloads a Store when its file changes on disk.
//
// The watch is placed on the file's directory, not the file itself,
// because atomic saves replace the file by rename and a file-level watch
// would die with the old inode.
type Watcher struct {
	store    *Store
	onReload ReloadFunc
	onError  ErrorFunc
	quiet    time.Duration

	watcher  *fsnotify.Watcher
	closeCh  chan struct{}
	closedWg sync.WaitGroup

	mu     sync.Mutex
	closed bool
}

// WatcherOption configures a Watcher.
type WatcherOption func(*Watcher)

// WithQuietPeriod sets the debounce window.
func WithQuietPeriod(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.quiet = d
		}
	}
}

// WithErrorFunc sets the error callback.
func WithErrorFunc(fn ErrorFunc) WatcherOption {
	return func(w *Watcher) {
		w.onError = fn
	}
}

// NewWatcher starts watching the store's file. onReload is invoked with
// the new rule list after every debounced change.
func NewWatcher(store *Store, onReload ReloadFunc, opts ...WatcherOption) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		store:    store,
		onReload: onReload,
		onError:  func(error) {},
		quiet:    DefaultQuietPeriod,
		watcher:  fsw,
		closeCh:  make(chan struct{}),
	}

	for _, opt := range opts {
		opt(w)
	}

	if err := fsw.Add(filepath.Dir(store.Path())); err != nil {
		fsw.Close()
		return nil, err
	}

	w.closedWg.Add(1)
	go w.processLoop()

	return w, nil
}

// Close stops the watcher. Close is idempotent.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	close(w.closeCh)
	w.mu.Unlock()

	w.closedWg.Wait()
	return w.watcher.Close()
}

// processLoop handles incoming fsnotify events with debouncing.
func (w *Watcher) processLoop() {
	defer w.closedWg.Done()

	var timer *time.Timer
	var timerCh <-chan time.Time

	for {
		select {
		case <-w.closeCh:
			if timer != nil {
				timer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.quiet)
				timerCh = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.quiet)
			}

		case <-timerCh:
			timer = nil
			timerCh = nil
			w.reload()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.onError(err)
		}
	}
}

// relevant reports whether an event concerns the rules file.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != filepath.Clean(w.store.Path()) {
		return false
	}
	return event.Op.Has(fsnotify.Write) || event.Op.Has(fsnotify.Create) ||
		event.Op.Has(fsnotify.Rename)
}

// reload loads the store and delivers the result.
func (w *Watcher) reload() {
	rules, err := w.store.Load()
	if err != nil {
		w.onError(err)
		return
	}
	w.onReload(rules)
}
