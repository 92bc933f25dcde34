package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/openmined/projectsync/internal/client/workspace"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMetadata_MissingFileIsEmptySnapshot(t *testing.T) {
	w, err := workspace.New(t.TempDir())
	require.NoError(t, err)

	meta, err := LoadMetadata(w)
	require.NoError(t, err)
	assert.Equal(t, 0, meta.Version)
	assert.Empty(t, meta.Files)
}

func TestSaveAndLoadMetadata_Roundtrip(t *testing.T) {
	w, err := workspace.New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, w.EnsureDirs())

	meta := &ProjectMetadata{
		Version: 3,
		Files: FileList{
			"a.txt": {Path: "a.txt", Size: 5, Checksum: "abc", Chunks: []string{"0"}},
		},
	}
	require.NoError(t, SaveMetadata(w, meta))

	loaded, err := LoadMetadata(w)
	require.NoError(t, err)
	assert.Equal(t, meta.Version, loaded.Version)
	assert.Equal(t, meta.Files, loaded.Files)

	// byte-identical on re-serialize
	data1, _ := os.ReadFile(w.MetadataPath())
	require.NoError(t, SaveMetadata(w, loaded))
	data2, _ := os.ReadFile(w.MetadataPath())
	assert.Equal(t, data1, data2)
}

func TestLoadMetadata_CorruptFile(t *testing.T) {
	w, err := workspace.New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, w.EnsureDirs())
	require.NoError(t, os.WriteFile(w.MetadataPath(), []byte("{not json"), 0o644))

	_, err = LoadMetadata(w)
	require.Error(t, err)
}

func TestListLocalFiles_SkipsIgnoredAndInternalDirs(t *testing.T) {
	w, err := workspace.New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, w.EnsureDirs())

	require.NoError(t, os.WriteFile(filepath.Join(w.Dir, "a.txt"), []byte("hello"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(w.Dir, ".DS_Store"), []byte("x"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(w.Dir, "sub"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(w.Dir, "sub", "b.gpkg-wal"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(w.MetadataDir(), "metadata.json"), []byte("{}"), 0o644))
	staging, err := w.NewStagingDir()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(staging, "partial.txt"), []byte("x"), 0o644))

	files, err := ListLocalFiles(w)
	require.NoError(t, err)

	_, hasA := files["a.txt"]
	assert.True(t, hasA)
	assert.Len(t, files, 1)
}

func TestUniqueConflictName(t *testing.T) {
	dir := t.TempDir()
	assert.Equal(t, "x_conflict_copy.txt", UniqueConflictName(dir, "x.txt"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "x_conflict_copy.txt"), []byte("x"), 0o644))
	assert.Equal(t, "x_conflict_copy_1.txt", UniqueConflictName(dir, "x.txt"))

	require.NoError(t, os.WriteFile(filepath.Join(dir, "x_conflict_copy_1.txt"), []byte("x"), 0o644))
	assert.Equal(t, "x_conflict_copy_2.txt", UniqueConflictName(dir, "x.txt"))
}
