package approval

import (
	"errors"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/rs/zerolog"

	"github.com/toolgate-ai/toolgate/internal/event"
	"github.com/toolgate-ai/toolgate/internal/logging"
	"github.com/toolgate-ai/toolgate/internal/project"
	"github.com/toolgate-ai/toolgate/internal/rules"
	"github.com/toolgate-ai/toolgate/internal/store"
	"github.com/toolgate-ai/toolgate/pkg/types"
)

// RuleKind selects which rule collection an operation targets.
type RuleKind string

const (
	KindCommand RuleKind = "command"
	KindPath    RuleKind = "path"
	KindWrite   RuleKind = "write"
)

var (
	// ErrNoProject is returned when a project-scoped mutation is
	// requested with no open project. Lookups never return it: an
	// absent project scope simply contributes no rules.
	ErrNoProject = errors.New("no open project")
	// ErrInvalidRule is returned when a mutation carries a rule whose
	// mode is not valid for its kind or whose pattern is empty.
	ErrInvalidRule = errors.New("invalid rule")
	// ErrInvalidScope is returned for an unrecognized scope.
	ErrInvalidScope = errors.New("invalid scope")
)

// SettingsGlobs supplies the host-configured write-allow glob list.
type SettingsGlobs interface {
	WriteGlobs() []string
}

// Engine resolves write, path, and command authorization across
// session, project, and global scopes, and owns the ephemeral session
// state. Every lookup is total and defaults to deny; every mutation
// either persists or leaves prior state intact.
type Engine struct {
	store    *store.Store
	projects *project.Registry
	settings SettingsGlobs
	bus      *event.Bus
	log      zerolog.Logger

	sessions *sessionMap
}

// NewEngine creates an engine over the given store and project
// registry. settings may be nil when the host supplies no glob list.
// The session prune timer starts immediately; Close stops it.
func NewEngine(st *store.Store, projects *project.Registry, settings SettingsGlobs, bus *event.Bus) *Engine {
	if bus == nil {
		bus = event.Default()
	}
	e := &Engine{
		store:    st,
		projects: projects,
		settings: settings,
		bus:      bus,
		log:      logging.For("approval"),
		sessions: newSessionMap(),
	}
	e.sessions.startPruning()
	return e
}

// Close cancels the prune timer and discards all session state.
func (e *Engine) Close() {
	e.sessions.close()
}

func (e *Engine) notify() {
	e.bus.Publish(event.Event{Type: event.ApprovalsUpdated})
}

// firstRoot returns the project root that project-scoped operations
// target: the first open project, or "" when none is open.
func (e *Engine) firstRoot() string {
	if e.projects == nil {
		return ""
	}
	return e.projects.First()
}

// candidatePaths builds the forms of path that rules are tested
// against: the form relative to the containing project root, and the
// absolute form, both when they differ.
func (e *Engine) candidatePaths(path string) []string {
	abs := path
	if !filepath.IsAbs(abs) {
		if a, err := filepath.Abs(abs); err == nil {
			abs = a
		}
	}
	abs = filepath.Clean(abs)

	candidates := []string{abs}
	root := ""
	if e.projects != nil {
		root = e.projects.RootOf(abs)
	}
	if root != "" {
		if rel, err := filepath.Rel(root, abs); err == nil && rel != abs {
			candidates = append([]string{filepath.ToSlash(rel)}, candidates...)
		}
	}
	return candidates
}

// IsWriteApproved reports whether writes are authorized for the
// session: the global blanket flag, then the first project's blanket
// flag, then the session's, and finally, when a path is supplied,
// file-level rule matching. path may be empty.
func (e *Engine) IsWriteApproved(sessionID, path string) bool {
	if e.store.Global().WriteApproved {
		return true
	}
	if root := e.firstRoot(); root != "" && e.store.Project(root).WriteApproved {
		return true
	}
	if s, ok := e.sessions.peek(sessionID); ok && s.writeApproved {
		return true
	}
	if path != "" {
		return e.IsFileWriteApproved(sessionID, path)
	}
	return false
}

// SetWriteApproval sets the blanket write flag at the requested scope.
func (e *Engine) SetWriteApproval(sessionID string, scope types.Scope) error {
	switch scope {
	case types.ScopeGlobal:
		return e.store.PersistGlobal(func(d *types.ApprovalsDocument) {
			d.WriteApproved = true
		})
	case types.ScopeProject:
		root := e.firstRoot()
		if root == "" {
			return ErrNoProject
		}
		return e.store.PersistProject(root, func(d *types.ApprovalsDocument) {
			d.WriteApproved = true
		})
	case types.ScopeSession:
		e.sessions.mutate(sessionID, func(s *session) {
			s.writeApproved = true
		})
		e.notify()
		return nil
	}
	return ErrInvalidScope
}

// ResetWriteApproval clears the blanket flag at global scope, at every
// open project, and in every live session, in one operation.
func (e *Engine) ResetWriteApproval() error {
	var errs []error
	if err := e.store.PersistGlobal(func(d *types.ApprovalsDocument) {
		d.WriteApproved = false
	}); err != nil {
		errs = append(errs, err)
	}
	for _, root := range e.store.Roots() {
		if err := e.store.PersistProject(root, func(d *types.ApprovalsDocument) {
			d.WriteApproved = false
		}); err != nil {
			errs = append(errs, err)
		}
	}
	e.sessions.each(func(s *session) {
		s.writeApproved = false
	})
	e.notify()
	return errors.Join(errs...)
}

// IsFileWriteApproved reports whether writing path is authorized by
// the settings-sourced glob list, or by a write rule in session,
// project, or global scope, tested against both the relative and
// absolute forms of path.
func (e *Engine) IsFileWriteApproved(sessionID, path string) bool {
	candidates := e.candidatePaths(path)

	if e.settings != nil {
		for _, pattern := range e.settings.WriteGlobs() {
			for _, c := range candidates {
				if ok, err := doublestar.Match(pattern, filepath.ToSlash(c)); err == nil && ok {
					return true
				}
			}
		}
	}

	if s, ok := e.sessions.peek(sessionID); ok {
		if rules.MatchesAny(candidates, s.writeRules) {
			return true
		}
	}
	if root := e.writeRuleRoot(path); root != "" {
		if rules.MatchesAny(candidates, e.store.Project(root).WriteRules) {
			return true
		}
	}
	return rules.MatchesAny(candidates, e.store.Global().WriteRules)
}

// writeRuleRoot picks the project document consulted for a path: the
// project containing it, else the first open project.
func (e *Engine) writeRuleRoot(path string) string {
	if e.projects == nil {
		return ""
	}
	if root := e.projects.RootOf(path); root != "" {
		return root
	}
	return e.projects.First()
}

// IsPathTrusted reports whether path matches a path rule in session,
// project, or global scope. Default deny.
func (e *Engine) IsPathTrusted(sessionID, path string) bool {
	candidates := e.candidatePaths(path)

	if s, ok := e.sessions.peek(sessionID); ok {
		if rules.MatchesAny(candidates, s.pathRules) {
			return true
		}
	}
	if root := e.writeRuleRoot(path); root != "" {
		if rules.MatchesAny(candidates, e.store.Project(root).PathRules) {
			return true
		}
	}
	return rules.MatchesAny(candidates, e.store.Global().PathRules)
}

// IsCommandApproved reports whether the trimmed command matches a
// command rule in session, project, or global scope. Default deny.
func (e *Engine) IsCommandApproved(sessionID, command string) bool {
	_, _, ok := e.FindMatchingCommandRule(sessionID, command)
	return ok
}

// FindMatchingCommandRule returns the rule and scope that authorize
// command, checking session, then project, then global scope. Used to
// show the user what is already trusted before asking for a decision.
func (e *Engine) FindMatchingCommandRule(sessionID, command string) (types.Rule, types.Scope, bool) {
	command = strings.TrimSpace(command)

	if s, ok := e.sessions.peek(sessionID); ok {
		if r, ok := rules.FindMatch(command, s.commandRules); ok {
			return r, types.ScopeSession, true
		}
	}
	if root := e.firstRoot(); root != "" {
		if r, ok := rules.FindMatch(command, e.store.Project(root).CommandRules); ok {
			return r, types.ScopeProject, true
		}
	}
	if r, ok := rules.FindMatch(command, e.store.Global().CommandRules); ok {
		return r, types.ScopeGlobal, true
	}
	return types.Rule{}, "", false
}

// validFor reports whether r is well-formed for kind.
func validFor(kind RuleKind, r types.Rule) bool {
	if kind == KindCommand {
		return rules.ValidCommandRule(r)
	}
	return rules.ValidPathRule(r)
}

// rulesOf selects the rule collection for kind in doc.
func rulesOf(doc *types.ApprovalsDocument, kind RuleKind) *[]types.Rule {
	switch kind {
	case KindCommand:
		return &doc.CommandRules
	case KindPath:
		return &doc.PathRules
	default:
		return &doc.WriteRules
	}
}

// AddRule stores r in the given scope, deduplicating by
// (pattern, mode). Session rules live in memory; project and global
// rules write through to the config store.
func (e *Engine) AddRule(sessionID string, scope types.Scope, kind RuleKind, r types.Rule) error {
	if !validFor(kind, r) {
		return ErrInvalidRule
	}
	return e.mutateRules(sessionID, scope, kind, func(list []types.Rule) []types.Rule {
		return types.DedupeRules(append(list, r))
	})
}

// RemoveRule deletes every rule with the given pattern from the scope.
func (e *Engine) RemoveRule(sessionID string, scope types.Scope, kind RuleKind, pattern string) error {
	return e.mutateRules(sessionID, scope, kind, func(list []types.Rule) []types.Rule {
		out := list[:0:0]
		for _, existing := range list {
			if existing.Pattern != pattern {
				out = append(out, existing)
			}
		}
		return out
	})
}

// EditRule replaces the rule with originalPattern by updated.
func (e *Engine) EditRule(sessionID string, scope types.Scope, kind RuleKind, originalPattern string, updated types.Rule) error {
	if !validFor(kind, updated) {
		return ErrInvalidRule
	}
	return e.mutateRules(sessionID, scope, kind, func(list []types.Rule) []types.Rule {
		out := make([]types.Rule, 0, len(list))
		for _, existing := range list {
			if existing.Pattern == originalPattern {
				out = append(out, updated)
			} else {
				out = append(out, existing)
			}
		}
		return types.DedupeRules(out)
	})
}

func (e *Engine) mutateRules(sessionID string, scope types.Scope, kind RuleKind, apply func([]types.Rule) []types.Rule) error {
	switch scope {
	case types.ScopeGlobal:
		return e.store.PersistGlobal(func(d *types.ApprovalsDocument) {
			field := rulesOf(d, kind)
			*field = apply(*field)
		})
	case types.ScopeProject:
		root := e.firstRoot()
		if root == "" {
			return ErrNoProject
		}
		return e.store.PersistProject(root, func(d *types.ApprovalsDocument) {
			field := rulesOf(d, kind)
			*field = apply(*field)
		})
	case types.ScopeSession:
		e.sessions.mutate(sessionID, func(s *session) {
			field := s.rulesOf(kind)
			*field = apply(*field)
		})
		e.notify()
		return nil
	}
	return ErrInvalidScope
}

// SessionRules returns a copy of the session's rules of one kind, for
// display. A missing session yields nil.
func (e *Engine) SessionRules(sessionID string, kind RuleKind) []types.Rule {
	s, ok := e.sessions.peek(sessionID)
	if !ok {
		return nil
	}
	return append([]types.Rule(nil), *s.rulesOf(kind)...)
}

// TouchSession refreshes the session's activity clock, creating the
// session if needed.
func (e *Engine) TouchSession(sessionID string) {
	e.sessions.mutate(sessionID, func(*session) {})
}

// ClearSession discards all state for the session.
func (e *Engine) ClearSession(sessionID string) {
	e.sessions.clear(sessionID)
	e.notify()
}

// PruneExpiredSessions removes sessions idle past the TTL and returns
// how many were removed.
func (e *Engine) PruneExpiredSessions() int {
	return e.sessions.prune()
}
