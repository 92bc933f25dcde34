package workspace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormPath(t *testing.T) {
	cases := []struct {
		name     string
		input    string
		expected string
	}{
		{"empty-is-local-dir", "", "."},
		{"unix-relative", "./path/to/test/path", "path/to/test/path"},
		{"unix-absolute", "/var/lib/check/path", "var/lib/check/path"},
		{"windows-relative", "\\project\\a\\test.txt", "project/a/test.txt"},
		{"windows-absolute", "C:\\windows\\system32\\test.txt", "C:/windows/system32/test.txt"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.expected, NormPath(c.input))
		})
	}
}

func TestNew_ResolvesAbsolutePath(t *testing.T) {
	root := t.TempDir()
	w, err := New(filepath.Join(root, "proj"))
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(w.Dir))
}

func TestEnsureDirs_CreatesProjectAndMetadataDirs(t *testing.T) {
	root := t.TempDir()
	w, err := New(filepath.Join(root, "proj"))
	require.NoError(t, err)

	require.NoError(t, w.EnsureDirs())

	assert.DirExists(t, w.Dir)
	assert.DirExists(t, w.MetadataDir())
	assert.Equal(t, filepath.Join(w.Dir, ".mergin", "metadata.json"), w.MetadataPath())
}

func TestNewStagingDir_UniquePerCall(t *testing.T) {
	root := t.TempDir()
	w, err := New(root)
	require.NoError(t, err)

	d1, err := w.NewStagingDir()
	require.NoError(t, err)
	d2, err := w.NewStagingDir()
	require.NoError(t, err)

	assert.NotEqual(t, d1, d2)
	assert.DirExists(t, d1)
	assert.DirExists(t, d2)
	assert.Equal(t, w.StagingRoot(), filepath.Dir(d1))
}

func TestLocking_SingleInstance(t *testing.T) {
	root := t.TempDir()

	w1, err := New(root)
	require.NoError(t, err)
	w2, err := New(root)
	require.NoError(t, err)

	require.NoError(t, w1.Lock())

	err = w2.Lock()
	require.ErrorIs(t, err, ErrWorkspaceLocked)

	lockPath := filepath.Join(root, ".mergin", "mergin.lock")
	assert.FileExists(t, lockPath)

	require.NoError(t, w1.Unlock())
	_, statErr := os.Stat(lockPath)
	require.ErrorIs(t, statErr, os.ErrNotExist)

	require.NoError(t, w2.Lock())
	t.Cleanup(func() { _ = w2.Unlock() })
}

func TestRemoveStaging_LeavesProjectDirIntact(t *testing.T) {
	root := t.TempDir()
	w, err := New(root)
	require.NoError(t, err)

	_, err = w.NewStagingDir()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(root, "a.txt"), []byte("x"), 0o644))

	require.NoError(t, w.RemoveStaging())

	assert.NoDirExists(t, w.StagingRoot())
	assert.FileExists(t, filepath.Join(root, "a.txt"))
}

func TestRemoveAll_DeletesProjectDir(t *testing.T) {
	root := t.TempDir()
	projDir := filepath.Join(root, "proj")
	w, err := New(projDir)
	require.NoError(t, err)
	require.NoError(t, w.EnsureDirs())

	require.NoError(t, w.RemoveAll())
	assert.NoDirExists(t, projDir)
}
