package approval

import (
	"sync"
	"time"

	"github.com/toolgate-ai/toolgate/pkg/types"
)

const (
	// SessionTTL is how long a session may stay idle before the
	// periodic sweep removes it.
	SessionTTL = 24 * time.Hour
	// pruneInterval is how often the sweep runs.
	pruneInterval = time.Hour
)

// session is the ephemeral per-session approval state. It lives only
// in process memory; a process restart loses it by design.
type session struct {
	writeApproved bool
	commandRules  []types.Rule
	pathRules     []types.Rule
	writeRules    []types.Rule
	lastActivity  time.Time
}

func (s *session) rulesOf(kind RuleKind) *[]types.Rule {
	switch kind {
	case KindCommand:
		return &s.commandRules
	case KindPath:
		return &s.pathRules
	default:
		return &s.writeRules
	}
}

// sessionMap owns the session table and its expiry sweep. It is
// created empty with the engine and discarded with it.
type sessionMap struct {
	mu       sync.Mutex
	sessions map[string]*session

	now      func() time.Time // test hook
	ticker   *time.Ticker
	done     chan struct{}
	stopOnce sync.Once
}

func newSessionMap() *sessionMap {
	return &sessionMap{
		sessions: make(map[string]*session),
		now:      time.Now,
		done:     make(chan struct{}),
	}
}

func (m *sessionMap) startPruning() {
	m.ticker = time.NewTicker(pruneInterval)
	go func() {
		for {
			select {
			case <-m.done:
				return
			case <-m.ticker.C:
				m.prune()
			}
		}
	}()
}

func (m *sessionMap) close() {
	m.stopOnce.Do(func() {
		close(m.done)
		if m.ticker != nil {
			m.ticker.Stop()
		}
	})
	m.mu.Lock()
	m.sessions = make(map[string]*session)
	m.mu.Unlock()
}

// peek returns a snapshot of the session without creating it.
func (m *sessionMap) peek(id string) (session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return session{}, false
	}
	return *s, true
}

// mutate applies fn to the session, creating it lazily, and refreshes
// its activity clock.
func (m *sessionMap) mutate(id string, fn func(*session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		s = &session{}
		m.sessions[id] = s
	}
	fn(s)
	s.lastActivity = m.now()
}

// each applies fn to every live session without refreshing activity.
func (m *sessionMap) each(fn func(*session)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		fn(s)
	}
}

func (m *sessionMap) clear(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// prune removes sessions idle past the TTL.
func (m *sessionMap) prune() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := m.now().Add(-SessionTTL)
	removed := 0
	for id, s := range m.sessions {
		if s.lastActivity.Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}
