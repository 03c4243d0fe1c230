package state

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSetRoundTrip(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "state.json"))

	require.NoError(t, s.Set("flag", true))
	require.NoError(t, s.Set("items", []string{"a", "b"}))

	var flag bool
	require.NoError(t, s.Get("flag", &flag))
	assert.True(t, flag)

	var items []string
	require.NoError(t, s.Get("items", &items))
	assert.Equal(t, []string{"a", "b"}, items)
}

func TestGetMissingKey(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "state.json"))
	var v string
	assert.ErrorIs(t, s.Get("absent", &v), ErrNotFound)
}

func TestDeleteMissingKeyIsNoError(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "state.json")
	s := New(path)

	require.NoError(t, s.Delete("never-set"))
	// Deleting nothing must not create the file either.
	_, err := os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestDeleteRemovesKeys(t *testing.T) {
	s := New(filepath.Join(t.TempDir(), "state.json"))
	require.NoError(t, s.Set("a", 1))
	require.NoError(t, s.Set("b", 2))

	require.NoError(t, s.Delete("a", "missing"))

	var v int
	assert.ErrorIs(t, s.Get("a", &v), ErrNotFound)
	require.NoError(t, s.Get("b", &v))
	assert.Equal(t, 2, v)

	keys, err := s.Keys()
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, keys)
}

func TestSetCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "deep", "state.json")
	s := New(path)
	require.NoError(t, s.Set("k", "v"))

	var v string
	require.NoError(t, New(path).Get("k", &v))
	assert.Equal(t, "v", v)
}
