package store

import (
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toolgate-ai/toolgate/internal/config"
	"github.com/toolgate-ai/toolgate/internal/event"
	"github.com/toolgate-ai/toolgate/pkg/types"
)

func newTestStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config", config.ApprovalsFileName)
	return New(path, event.NewBus()), path
}

func TestLoadMissingFileYieldsDefault(t *testing.T) {
	s, _ := newTestStore(t)

	doc := s.Global()
	assert.Equal(t, types.ApprovalsVersion, doc.Version)
	assert.False(t, doc.WriteApproved)
	assert.Empty(t, doc.CommandRules)
}

func TestLoadInvalidJSONYieldsDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.ApprovalsFileName)
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	s := New(path, event.NewBus())
	doc := s.Global()
	assert.Equal(t, types.ApprovalsVersion, doc.Version)
	assert.Empty(t, doc.CommandRules)
}

func TestLoadNonObjectYieldsDefault(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.ApprovalsFileName)
	require.NoError(t, os.WriteFile(path, []byte(`["not", "an", "object"]`), 0o644))

	s := New(path, event.NewBus())
	assert.Equal(t, types.ApprovalsVersion, s.Global().Version)
}

func TestLoadDropsMalformedRuleEntries(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.ApprovalsFileName)
	content := `{
		"version": 1,
		"commandRules": [
			{"pattern": "git status", "mode": "exact"},
			{"pattern": "bad", "mode": "glob"},
			"not an object",
			{"mode": "exact"},
			{"pattern": "npm test", "mode": "prefix"}
		],
		"writeRules": [
			{"pattern": "*.md", "mode": "glob"},
			{"pattern": "x", "mode": "regex"}
		]
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s := New(path, event.NewBus())
	doc := s.Global()
	assert.Equal(t, []types.Rule{
		{Pattern: "git status", Mode: types.ModeExact},
		{Pattern: "npm test", Mode: types.ModePrefix},
	}, doc.CommandRules)
	assert.Equal(t, []types.Rule{
		{Pattern: "*.md", Mode: types.ModeGlob},
	}, doc.WriteRules)
}

func TestPersistRoundTrip(t *testing.T) {
	s, path := newTestStore(t)

	require.NoError(t, s.PersistGlobal(func(d *types.ApprovalsDocument) {
		d.WriteApproved = true
		d.CommandRules = append(d.CommandRules, types.Rule{Pattern: "git status", Mode: types.ModeExact})
	}))

	// A fresh store reading the same path sees the same document.
	reloaded := New(path, event.NewBus()).Global()
	assert.Equal(t, s.Global(), reloaded)
	assert.True(t, reloaded.WriteApproved)
	assert.Equal(t, []types.Rule{{Pattern: "git status", Mode: types.ModeExact}}, reloaded.CommandRules)

	// Pretty-printed with a trailing newline.
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, len(data) > 0 && data[len(data)-1] == '\n')
	assert.Contains(t, string(data), "  \"version\": 1")
}

func TestPersistDeduplicatesByPatternAndMode(t *testing.T) {
	s, _ := newTestStore(t)

	add := func() {
		require.NoError(t, s.PersistGlobal(func(d *types.ApprovalsDocument) {
			d.CommandRules = append(d.CommandRules, types.Rule{Pattern: "npm test", Mode: types.ModeExact})
		}))
	}
	add()
	add()

	assert.Len(t, s.Global().CommandRules, 1)
}

func TestPersistFailureLeavesStateUntouched(t *testing.T) {
	dir := t.TempDir()
	// Parent of the target path is a regular file, so persisting
	// cannot create the directory.
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))
	path := filepath.Join(blocker, config.ApprovalsFileName)

	s := New(path, event.NewBus())
	err := s.PersistGlobal(func(d *types.ApprovalsDocument) {
		d.WriteApproved = true
	})
	require.Error(t, err)
	assert.False(t, s.Global().WriteApproved)
}

func TestStrayTempFileDoesNotCorruptTarget(t *testing.T) {
	s, path := newTestStore(t)
	require.NoError(t, s.PersistGlobal(func(d *types.ApprovalsDocument) {
		d.CommandRules = []types.Rule{{Pattern: "ls", Mode: types.ModeExact}}
	}))

	original, err := os.ReadFile(path)
	require.NoError(t, err)

	// Simulate a crash after the temp write but before the rename:
	// the temp sibling exists, the target is untouched.
	require.NoError(t, os.WriteFile(path+".tmp", []byte("half-written"), 0o644))

	after, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, original, after)

	reloaded := New(path, event.NewBus()).Global()
	assert.Equal(t, []types.Rule{{Pattern: "ls", Mode: types.ModeExact}}, reloaded.CommandRules)
}

func TestSyncProjects(t *testing.T) {
	s, _ := newTestStore(t)
	root := t.TempDir()

	projPath := config.ProjectApprovalsPath(root)
	require.NoError(t, os.MkdirAll(filepath.Dir(projPath), 0o755))
	require.NoError(t, os.WriteFile(projPath, []byte(`{"version":1,"writeApproved":true}`), 0o644))

	s.SyncProjects([]string{root})
	assert.True(t, s.Project(root).WriteApproved)
	assert.ElementsMatch(t, []string{filepath.Clean(root)}, s.Roots())

	s.SyncProjects(nil)
	assert.Empty(t, s.Roots())
	assert.False(t, s.Project(root).WriteApproved)
}

func TestPersistProjectUnknownRoot(t *testing.T) {
	s, _ := newTestStore(t)
	err := s.PersistProject("/nowhere", func(d *types.ApprovalsDocument) {})
	assert.ErrorIs(t, err, ErrUnknownProject)
}

func TestPersistFiresChangeNotification(t *testing.T) {
	dir := t.TempDir()
	bus := event.NewBus()
	s := New(filepath.Join(dir, config.ApprovalsFileName), bus)

	fired := make(chan event.Event, 1)
	bus.Subscribe(event.ApprovalsUpdated, func(ev event.Event) {
		select {
		case fired <- ev:
		default:
		}
	})

	require.NoError(t, s.PersistGlobal(func(d *types.ApprovalsDocument) {
		d.WriteApproved = true
	}))

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("expected a change notification after persist")
	}
}

func TestWatchReloadsOnExternalEdit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.ApprovalsFileName)
	bus := event.NewBus()
	s := New(path, bus)
	s.StartWatching()
	defer s.Close()

	reloaded := make(chan struct{}, 1)
	bus.Subscribe(event.ConfigReloaded, func(event.Event) {
		select {
		case reloaded <- struct{}{}:
		default:
		}
	})

	// External edit: another process rewrites the document.
	content := `{"version":1,"commandRules":[{"pattern":"make","mode":"exact"}]}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	select {
	case <-reloaded:
	case <-time.After(3 * time.Second):
		t.Fatal("expected a reload after an external edit")
	}
	assert.Equal(t, []types.Rule{{Pattern: "make", Mode: types.ModeExact}}, s.Global().CommandRules)
}

func TestWatchDebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.ApprovalsFileName)
	bus := event.NewBus()
	s := New(path, bus)
	s.StartWatching()
	defer s.Close()

	var count atomic.Int32
	done := make(chan struct{})
	var once sync.Once
	bus.Subscribe(event.ConfigReloaded, func(event.Event) {
		count.Add(1)
		once.Do(func() { close(done) })
	})

	// A burst of writes inside the debounce window.
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte(`{"version":1}`), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("expected at least one reload")
	}
	// Allow any stragglers to arrive, then confirm the burst
	// collapsed into very few reloads.
	time.Sleep(500 * time.Millisecond)
	assert.LessOrEqual(t, count.Load(), int32(2))
}
