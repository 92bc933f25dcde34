package project

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/openmined/projectsync/internal/client/workspace"
	"github.com/openmined/projectsync/internal/syncerr"
	"github.com/openmined/projectsync/internal/utils"
	"golang.org/x/sync/errgroup"
)

// LoadMetadata reads and parses a workspace's metadata.json. A missing file
// is not an error: it's reported as an empty, version-0 snapshot (the
// "old-server is empty" case for a first-time pull).
func LoadMetadata(w *workspace.ProjectWorkspace) (*ProjectMetadata, error) {
	data, err := os.ReadFile(w.MetadataPath())
	if os.IsNotExist(err) {
		return &ProjectMetadata{Files: FileList{}}, nil
	}
	if err != nil {
		return nil, syncerr.Wrap(syncerr.KindLocalIOError, "read metadata", err)
	}

	var meta ProjectMetadata
	if err := jsonUnmarshal(data, &meta); err != nil {
		return nil, syncerr.Wrap(syncerr.KindMetadataCorrupt, w.MetadataPath(), err)
	}
	if meta.Files == nil {
		meta.Files = FileList{}
	}

	return &meta, nil
}

// SaveMetadata writes meta to the workspace's metadata.json atomically
// (write-temp-then-rename), overwriting any previous snapshot.
func SaveMetadata(w *workspace.ProjectWorkspace, meta *ProjectMetadata) error {
	if err := utils.EnsureDir(w.MetadataDir()); err != nil {
		return syncerr.Wrap(syncerr.KindLocalIOError, "create metadata dir", err)
	}

	raw, err := jsonMarshal(meta)
	if err != nil {
		return syncerr.Wrap(syncerr.KindLocalIOError, "marshal metadata", err)
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return syncerr.Wrap(syncerr.KindLocalIOError, "indent metadata", err)
	}
	data := buf.Bytes()

	tmp := w.MetadataPath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return syncerr.Wrap(syncerr.KindLocalIOError, "write metadata temp", err)
	}
	if err := os.Rename(tmp, w.MetadataPath()); err != nil {
		return syncerr.Wrap(syncerr.KindLocalIOError, "rename metadata", err)
	}

	return nil
}

// walkEntry is one file discovered by the tree walk, still awaiting a
// checksum.
type walkEntry struct {
	rel string
	abs string
	size int64
}

// ListLocalFiles enumerates the working directory, skipping ignored paths
// and the metadata/staging subtrees, then computes a fresh checksum and
// chunk plan for every file found. Checksumming, the expensive part for a
// large tree, is offloaded to a bounded worker pool drawing from a
// checksumQueue seeded largest-file-first so a few big files don't
// serialize behind a long tail of small ones; callers only ever see the
// fully merged result.
func ListLocalFiles(w *workspace.ProjectWorkspace) (FileList, error) {
	var entries []walkEntry

	err := filepath.Walk(w.Dir, func(abs string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, relErr := w.RelPath(abs)
		if relErr != nil {
			return relErr
		}

		if info.IsDir() {
			if rel == workspace.MetadataDirName || rel == workspace.StagingDirName {
				return filepath.SkipDir
			}
			return nil
		}

		if IsIgnored(rel) || strings.HasPrefix(rel, workspace.MetadataDirName+"/") || strings.HasPrefix(rel, workspace.StagingDirName+"/") {
			return nil
		}

		entries = append(entries, walkEntry{rel: rel, abs: abs, size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, syncerr.Wrap(syncerr.KindLocalIOError, "list local files", err)
	}

	files, err := checksumConcurrently(entries)
	if err != nil {
		return nil, syncerr.Wrap(syncerr.KindLocalIOError, "list local files", err)
	}

	return files, nil
}

// checksumConcurrently drains a checksumQueue of walkEntry (largest file
// first) through a bounded worker pool, merging results under a mutex.
func checksumConcurrently(entries []walkEntry) (FileList, error) {
	files := FileList{}
	if len(entries) == 0 {
		return files, nil
	}

	q := newChecksumQueue(entries)

	workers := runtime.NumCPU()
	if workers > len(entries) {
		workers = len(entries)
	}

	var mu sync.Mutex
	group := new(errgroup.Group)

	for i := 0; i < workers; i++ {
		group.Go(func() error {
			for {
				entry, ok := q.next()
				if !ok {
					return nil
				}

				sum, err := Checksum(entry.abs)
				if err != nil {
					return err
				}

				mu.Lock()
				files[entry.rel] = FileEntry{
					Path:     entry.rel,
					Size:     entry.size,
					Checksum: sum,
					Chunks:   UploadChunkIDs(entry.size),
				}
				mu.Unlock()
			}
		})
	}

	if err := group.Wait(); err != nil {
		return nil, err
	}

	return files, nil
}

// UniqueConflictName finds the first unused "<stem>_conflict_copy[_N].<ext>"
// path for relPath within dir, N≥1 for the second and later collision.
func UniqueConflictName(dir, relPath string) string {
	ext := filepath.Ext(relPath)
	stem := strings.TrimSuffix(relPath, ext)

	candidate := fmt.Sprintf("%s_conflict_copy%s", stem, ext)
	if !utils.FileExists(filepath.Join(dir, candidate)) {
		return candidate
	}

	for n := 1; ; n++ {
		candidate = fmt.Sprintf("%s_conflict_copy_%d%s", stem, n, ext)
		if !utils.FileExists(filepath.Join(dir, candidate)) {
			return candidate
		}
	}
}
