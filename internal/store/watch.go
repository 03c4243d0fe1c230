package store

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cenkalti/backoff/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/toolgate-ai/toolgate/internal/config"
)

// debounceWindow collapses a burst of filesystem events into a single
// reload and a single change notification.
const debounceWindow = 200 * time.Millisecond

// watchLoop funnels filesystem events for the global config directory
// and every project root into one debounced reload. All attachment
// failures degrade silently: a directory that does not exist yet
// simply is not observed until it appears.
type watchLoop struct {
	store   *Store
	watcher *fsnotify.Watcher

	mu       sync.Mutex
	roots    map[string]bool
	debounce *time.Timer

	done     chan struct{}
	stopOnce sync.Once
}

func newWatchLoop(s *Store) *watchLoop {
	return &watchLoop{
		store: s,
		roots: make(map[string]bool),
		done:  make(chan struct{}),
	}
}

func (w *watchLoop) start() {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		w.store.log.Debug().Err(err).Msg("file watching unavailable")
		return
	}
	w.watcher = watcher

	w.attach(dirOf(w.store.globalPath))
	for _, root := range w.store.Roots() {
		w.addRoot(root)
	}

	go w.loop()
}

func (w *watchLoop) stop() {
	w.stopOnce.Do(func() {
		close(w.done)
	})
	w.mu.Lock()
	if w.debounce != nil {
		w.debounce.Stop()
		w.debounce = nil
	}
	w.mu.Unlock()
	if w.watcher != nil {
		_ = w.watcher.Close()
	}
}

// syncRoots updates the watched project roots after the open-project
// set changed.
func (w *watchLoop) syncRoots(roots []string) {
	if w.watcher == nil {
		return
	}

	next := make(map[string]bool, len(roots))
	for _, root := range roots {
		next[filepath.Clean(root)] = true
	}

	w.mu.Lock()
	prev := w.roots
	w.roots = next
	w.mu.Unlock()

	for root := range prev {
		if !next[root] {
			_ = w.watcher.Remove(root)
			_ = w.watcher.Remove(filepath.Join(root, config.ProjectConfigDir))
		}
	}
	for root := range next {
		if !prev[root] {
			w.addRoot(root)
		}
	}
}

func (w *watchLoop) addRoot(root string) {
	root = filepath.Clean(root)
	w.mu.Lock()
	w.roots[root] = true
	w.mu.Unlock()

	w.attach(root)
	w.attach(filepath.Join(root, config.ProjectConfigDir))
}

// attach adds dir to the watcher, retrying in the background with
// capped exponential backoff when the directory does not exist yet.
// Gives up silently after the maximum elapsed retry time.
func (w *watchLoop) attach(dir string) {
	if w.watcher == nil {
		return
	}
	if err := w.watcher.Add(dir); err == nil {
		return
	}

	go func() {
		policy := backoff.NewExponentialBackOff()
		policy.InitialInterval = 250 * time.Millisecond
		policy.MaxInterval = 10 * time.Second
		policy.MaxElapsedTime = 5 * time.Minute

		for {
			next := policy.NextBackOff()
			if next == backoff.Stop {
				return
			}
			select {
			case <-w.done:
				return
			case <-time.After(next):
			}
			if err := w.watcher.Add(dir); err == nil {
				return
			}
		}
	}()
}

func (w *watchLoop) loop() {
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ev)
		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
		}
	}
}

func (w *watchLoop) handleEvent(ev fsnotify.Event) {
	name := filepath.Clean(ev.Name)

	// A project config directory appearing means its document can now
	// be observed.
	if ev.Op&fsnotify.Create != 0 && filepath.Base(name) == config.ProjectConfigDir {
		w.mu.Lock()
		isRoot := w.roots[filepath.Dir(name)]
		w.mu.Unlock()
		if isRoot {
			w.attach(name)
		}
	}

	if !w.matches(name) {
		return
	}
	w.scheduleReload()
}

// matches reports whether name is one of the documents this store
// tracks: the global document, or a project document identified by
// the per-root relative config glob.
func (w *watchLoop) matches(name string) bool {
	if name == filepath.Clean(w.store.globalPath) {
		return true
	}

	pattern := config.ProjectApprovalsRelPattern()
	w.mu.Lock()
	defer w.mu.Unlock()
	for root := range w.roots {
		rel, err := filepath.Rel(root, name)
		if err != nil {
			continue
		}
		if ok, err := doublestar.Match(pattern, filepath.ToSlash(rel)); err == nil && ok {
			return true
		}
	}
	return false
}

func (w *watchLoop) scheduleReload() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounce != nil {
		w.debounce.Reset(debounceWindow)
		return
	}
	w.debounce = time.AfterFunc(debounceWindow, func() {
		w.mu.Lock()
		w.debounce = nil
		w.mu.Unlock()

		select {
		case <-w.done:
			return
		default:
		}
		w.store.Reload()
	})
}
