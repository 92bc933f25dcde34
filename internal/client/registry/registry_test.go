package registry

import (
	"testing"

	"github.com/openmined/projectsync/internal/client/sync"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_UpsertAndGet(t *testing.T) {
	s := newTestStore(t)

	err := s.Upsert(sync.LocalProjectEntry{FullName: "acme/proj", Dir: "/tmp/proj", Version: 3})
	require.NoError(t, err)

	entry, ok := s.Get("acme/proj")
	require.True(t, ok)
	require.Equal(t, "/tmp/proj", entry.Dir)
	require.Equal(t, 3, entry.Version)
}

func TestStore_Get_Missing(t *testing.T) {
	s := newTestStore(t)
	_, ok := s.Get("nope/nope")
	require.False(t, ok)
}

func TestStore_Upsert_Overwrites(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Upsert(sync.LocalProjectEntry{FullName: "acme/proj", Dir: "/tmp/a", Version: 1}))
	require.NoError(t, s.Upsert(sync.LocalProjectEntry{FullName: "acme/proj", Dir: "/tmp/b", Version: 2}))

	entry, ok := s.Get("acme/proj")
	require.True(t, ok)
	require.Equal(t, "/tmp/b", entry.Dir)
	require.Equal(t, 2, entry.Version)
}

func TestStore_Remove(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Upsert(sync.LocalProjectEntry{FullName: "acme/proj", Dir: "/tmp/a"}))
	require.NoError(t, s.Remove("acme/proj"))

	_, ok := s.Get("acme/proj")
	require.False(t, ok)
}

func TestStore_Remove_Missing_NoError(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Remove("nope/nope"))
}

func TestStore_List_OrderedByFullName(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Upsert(sync.LocalProjectEntry{FullName: "b/proj", Dir: "/tmp/b"}))
	require.NoError(t, s.Upsert(sync.LocalProjectEntry{FullName: "a/proj", Dir: "/tmp/a"}))

	entries, err := s.List()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.Equal(t, "a/proj", entries[0].FullName)
	require.Equal(t, "b/proj", entries[1].FullName)
}
