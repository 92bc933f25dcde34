package project

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

// DownloadChunkSize is the fixed size of one pull-side chunk request.
const DownloadChunkSize = 64 * 1024

// UploadChunkSize is the fixed size of one push-side chunk upload.
const UploadChunkSize = 10 * 1024 * 1024

// Checksum streams file and returns a lowercase hex SHA-1 digest, the
// reference hash used by the server.
func Checksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("checksum: open %s: %w", path, err)
	}
	defer f.Close()

	h := sha1.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("checksum: read %s: %w", path, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

// ChunkIDs returns the chunk identifiers for a file of the given size,
// chunkSize bytes each, in transfer order. A zero-byte file still gets
// exactly one synthetic chunk.
func ChunkIDs(size int64, chunkSize int64) []string {
	n := size / chunkSize
	if size%chunkSize != 0 || size == 0 {
		n++
	}

	ids := make([]string, n)
	for i := range ids {
		ids[i] = fmt.Sprintf("%d", i)
	}
	return ids
}

// UploadChunkIDs is ChunkIDs at UploadChunkSize, matching the chunk plan
// stored in FileEntry for files queued to push.
func UploadChunkIDs(size int64) []string {
	return ChunkIDs(size, UploadChunkSize)
}
