package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChecksum_KnownVector(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(p, []byte("hello"), 0o644))

	sum, err := Checksum(p)
	require.NoError(t, err)
	// sha1("hello")
	assert.Equal(t, "aaf4c61ddcc5e8a2dabede0f3b482cd9aea9434d", sum)
}

func TestChecksum_Deterministic(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(p, []byte("some content here"), 0o644))

	a, err := Checksum(p)
	require.NoError(t, err)
	b, err := Checksum(p)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestChunkIDs(t *testing.T) {
	cases := []struct {
		name      string
		size      int64
		chunkSize int64
		want      int
	}{
		{"zero-byte-one-chunk", 0, 1024, 1},
		{"exact-multiple", 2048, 1024, 2},
		{"remainder", 2049, 1024, 3},
		{"smaller-than-chunk", 10, 1024, 1},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			ids := ChunkIDs(c.size, c.chunkSize)
			assert.Len(t, ids, c.want)
		})
	}
}

func TestUploadChunkIDs_TenMiBPlusOne(t *testing.T) {
	ids := UploadChunkIDs(10*1024*1024 + 1)
	assert.Len(t, ids, 2)
}
