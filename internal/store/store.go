// Package store loads, persists, and watches the approvals config
// documents: one global document under the user's profile and one
// document per open project root. Every mutation replaces the
// document wholesale through an atomic temp-and-rename write; external
// edits are picked up by a debounced file watcher.
package store

import (
	"errors"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"

	"github.com/toolgate-ai/toolgate/internal/config"
	"github.com/toolgate-ai/toolgate/internal/event"
	"github.com/toolgate-ai/toolgate/internal/logging"
	"github.com/toolgate-ai/toolgate/pkg/types"
)

// ErrUnknownProject is returned when a project mutation names a root
// the store does not track.
var ErrUnknownProject = errors.New("project root is not tracked")

// Store owns the in-memory approvals documents and their on-disk
// synchronization.
type Store struct {
	mu         sync.RWMutex
	globalPath string
	global     *types.ApprovalsDocument
	projects   map[string]*types.ApprovalsDocument // keyed by root

	bus *event.Bus
	log zerolog.Logger

	watch *watchLoop
}

// New creates a store for the global document at globalPath and loads
// it. Project documents are added through SyncProjects.
func New(globalPath string, bus *event.Bus) *Store {
	if bus == nil {
		bus = event.Default()
	}
	s := &Store{
		globalPath: globalPath,
		global:     loadDocument(globalPath),
		projects:   make(map[string]*types.ApprovalsDocument),
		bus:        bus,
		log:        logging.For("store"),
	}
	return s
}

// StartWatching begins observing the global config directory and all
// tracked project roots for external edits. Failure to attach any
// individual watch degrades silently: edits made through this process
// are still seen.
func (s *Store) StartWatching() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.watch != nil {
		return
	}
	s.watch = newWatchLoop(s)
	s.watch.start()
}

// Close stops watching. The in-memory documents stay usable.
func (s *Store) Close() {
	s.mu.Lock()
	w := s.watch
	s.watch = nil
	s.mu.Unlock()
	if w != nil {
		w.stop()
	}
}

// Global returns a copy of the global document.
func (s *Store) Global() *types.ApprovalsDocument {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.global.Clone()
}

// Project returns a copy of the document for root, or the empty
// default when root is not tracked.
func (s *Store) Project(root string) *types.ApprovalsDocument {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if doc, ok := s.projects[filepath.Clean(root)]; ok {
		return doc.Clone()
	}
	return types.NewApprovalsDocument()
}

// Roots returns the tracked project roots.
func (s *Store) Roots() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	roots := make([]string, 0, len(s.projects))
	for root := range s.projects {
		roots = append(roots, root)
	}
	return roots
}

// SyncProjects replaces the set of tracked project roots, loading
// documents for new roots and dropping documents for closed ones,
// then fires a change notification.
func (s *Store) SyncProjects(roots []string) {
	s.mu.Lock()
	next := make(map[string]*types.ApprovalsDocument, len(roots))
	for _, root := range roots {
		root = filepath.Clean(root)
		if doc, ok := s.projects[root]; ok {
			next[root] = doc
		} else {
			next[root] = loadDocument(config.ProjectApprovalsPath(root))
		}
	}
	s.projects = next
	w := s.watch
	s.mu.Unlock()

	if w != nil {
		w.syncRoots(roots)
	}
	s.bus.Publish(event.Event{Type: event.ApprovalsUpdated})
}

// PersistGlobal applies mutate to a copy of the global document and
// atomically writes it. Only on a successful write does the in-memory
// document get replaced and a change notification fire.
func (s *Store) PersistGlobal(mutate func(*types.ApprovalsDocument)) error {
	s.mu.Lock()
	next := s.global.Clone()
	mutate(next)
	normalize(next)
	if err := writeDocument(s.globalPath, next); err != nil {
		s.mu.Unlock()
		s.log.Error().Err(err).Str("path", s.globalPath).Msg("failed to persist global approvals")
		return err
	}
	s.global = next
	s.mu.Unlock()

	s.bus.Publish(event.Event{Type: event.ApprovalsUpdated})
	return nil
}

// PersistProject is PersistGlobal for the document under root.
func (s *Store) PersistProject(root string, mutate func(*types.ApprovalsDocument)) error {
	root = filepath.Clean(root)

	s.mu.Lock()
	current, ok := s.projects[root]
	if !ok {
		s.mu.Unlock()
		return ErrUnknownProject
	}
	next := current.Clone()
	mutate(next)
	normalize(next)
	path := config.ProjectApprovalsPath(root)
	if err := writeDocument(path, next); err != nil {
		s.mu.Unlock()
		s.log.Error().Err(err).Str("path", path).Msg("failed to persist project approvals")
		return err
	}
	s.projects[root] = next
	s.mu.Unlock()

	s.bus.Publish(event.Event{Type: event.ApprovalsUpdated})
	return nil
}

// Reload re-reads every tracked document from disk and fires a single
// change notification. Used by the watcher after external edits.
func (s *Store) Reload() {
	s.mu.Lock()
	s.global = loadDocument(s.globalPath)
	for root := range s.projects {
		s.projects[root] = loadDocument(config.ProjectApprovalsPath(root))
	}
	s.mu.Unlock()

	s.log.Debug().Msg("approvals reloaded from disk")
	s.bus.Publish(event.Event{Type: event.ConfigReloaded})
}

// normalize enforces the document invariants before persistence: a
// current version stamp and rule collections deduplicated by
// (pattern, mode).
func normalize(doc *types.ApprovalsDocument) {
	if doc.Version <= 0 {
		doc.Version = types.ApprovalsVersion
	}
	doc.CommandRules = types.DedupeRules(doc.CommandRules)
	doc.PathRules = types.DedupeRules(doc.PathRules)
	doc.WriteRules = types.DedupeRules(doc.WriteRules)
}

func dirOf(path string) string { return filepath.Dir(path) }
