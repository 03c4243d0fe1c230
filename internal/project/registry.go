// Package project tracks the set of open project roots. The host
// editor owns the set; the policy core only observes it to resolve
// project-scoped rules and config documents.
package project

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/toolgate-ai/toolgate/internal/event"
)

// Registry holds the open project roots in opening order.
type Registry struct {
	mu    sync.RWMutex
	roots []string
	bus   *event.Bus
}

// NewRegistry creates an empty registry publishing on bus.
func NewRegistry(bus *event.Bus) *Registry {
	if bus == nil {
		bus = event.Default()
	}
	return &Registry{bus: bus}
}

// Sync replaces the tracked set of roots. Paths are normalized to
// absolute, cleaned form; duplicates are dropped. Fires
// ProjectsChanged when the set actually changed.
func (r *Registry) Sync(roots []string) {
	normalized := make([]string, 0, len(roots))
	seen := make(map[string]bool, len(roots))
	for _, root := range roots {
		abs, err := filepath.Abs(root)
		if err != nil {
			continue
		}
		abs = filepath.Clean(abs)
		if seen[abs] {
			continue
		}
		seen[abs] = true
		normalized = append(normalized, abs)
	}

	r.mu.Lock()
	changed := !equalRoots(r.roots, normalized)
	r.roots = normalized
	r.mu.Unlock()

	if changed {
		r.bus.Publish(event.Event{Type: event.ProjectsChanged})
	}
}

// Roots returns the tracked roots in opening order.
func (r *Registry) Roots() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.roots...)
}

// First returns the first open root, or "" when no project is open.
func (r *Registry) First() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.roots) == 0 {
		return ""
	}
	return r.roots[0]
}

// Contains reports whether root is tracked.
func (r *Registry) Contains(root string) bool {
	abs, err := filepath.Abs(root)
	if err != nil {
		return false
	}
	abs = filepath.Clean(abs)
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, existing := range r.roots {
		if existing == abs {
			return true
		}
	}
	return false
}

// RootOf returns the tracked root containing path, preferring the
// most specific (longest) root, and "" when path is outside every
// open project.
func (r *Registry) RootOf(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return ""
	}
	abs = filepath.Clean(abs)

	r.mu.RLock()
	candidates := append([]string(nil), r.roots...)
	r.mu.RUnlock()

	sort.Slice(candidates, func(i, j int) bool {
		return len(candidates[i]) > len(candidates[j])
	})
	for _, root := range candidates {
		rel, err := filepath.Rel(root, abs)
		if err != nil {
			continue
		}
		// Only a bare ".." or a "../" prefix escapes the root; an
		// entry whose own name starts with dots is still inside.
		if rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return root
		}
	}
	return ""
}

func equalRoots(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
