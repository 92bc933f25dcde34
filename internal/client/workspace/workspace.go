// Package workspace describes the on-disk layout of a single project
// working copy: where its metadata lives, where pull staging happens, and
// the lock file that keeps two processes from syncing it at once.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
	"github.com/openmined/projectsync/internal/utils"
)

const (
	// MetadataDirName is fixed for server compatibility.
	MetadataDirName  = ".mergin"
	MetadataFileName = "metadata.json"
	StagingDirName   = ".temp"
	lockFileName     = "mergin.lock"
)

var ErrWorkspaceLocked = errors.New("workspace: project locked by another process")

// ProjectWorkspace is the local working copy of one namespace/name project.
type ProjectWorkspace struct {
	Dir string

	flock *flock.Flock
}

// New resolves dir to an absolute path and prepares (without creating) the
// workspace for a project rooted there.
func New(dir string) (*ProjectWorkspace, error) {
	root, err := utils.ResolvePath(dir)
	if err != nil {
		return nil, fmt.Errorf("workspace: resolve dir %q: %w", dir, err)
	}

	lockPath := filepath.Join(root, MetadataDirName, lockFileName)

	return &ProjectWorkspace{
		Dir:   root,
		flock: flock.New(lockPath),
	}, nil
}

// MetadataDir is <dir>/.mergin
func (w *ProjectWorkspace) MetadataDir() string {
	return filepath.Join(w.Dir, MetadataDirName)
}

// MetadataPath is <dir>/.mergin/metadata.json
func (w *ProjectWorkspace) MetadataPath() string {
	return filepath.Join(w.MetadataDir(), MetadataFileName)
}

// StagingRoot is <dir>/.temp, the hidden sibling directory holding all
// in-flight staging subdirectories for this project.
func (w *ProjectWorkspace) StagingRoot() string {
	return filepath.Join(w.Dir, StagingDirName)
}

// NewStagingDir creates and returns a fresh, uniquely named staging
// directory under StagingRoot for one pull transaction.
func (w *ProjectWorkspace) NewStagingDir() (string, error) {
	dir := filepath.Join(w.StagingRoot(), uuid.NewString())
	if err := utils.EnsureDir(dir); err != nil {
		return "", fmt.Errorf("workspace: create staging dir: %w", err)
	}
	return dir, nil
}

// EnsureDirs creates the project directory and its .mergin metadata dir.
func (w *ProjectWorkspace) EnsureDirs() error {
	if err := utils.EnsureDir(w.Dir); err != nil {
		return fmt.Errorf("workspace: create project dir: %w", err)
	}
	if err := utils.EnsureDir(w.MetadataDir()); err != nil {
		return fmt.Errorf("workspace: create metadata dir: %w", err)
	}
	return nil
}

// Lock takes an exclusive, process-scoped lock on the project so that at
// most one projectsync process syncs it at a time.
func (w *ProjectWorkspace) Lock() error {
	if err := utils.EnsureDir(w.MetadataDir()); err != nil {
		return fmt.Errorf("workspace: create metadata dir: %w", err)
	}

	locked, err := w.flock.TryLock()
	if err != nil {
		return fmt.Errorf("workspace: lock: %w", err)
	}
	if !locked {
		return ErrWorkspaceLocked
	}

	return nil
}

// Unlock releases the lock taken by Lock. It is a no-op if this process
// never acquired it.
func (w *ProjectWorkspace) Unlock() error {
	if !w.flock.Locked() {
		return nil
	}
	if err := w.flock.Unlock(); err != nil {
		return fmt.Errorf("workspace: unlock: %w", err)
	}
	return os.Remove(w.flock.Path())
}

// RemoveStaging deletes StagingRoot entirely; called on every terminal
// outcome of a transaction.
func (w *ProjectWorkspace) RemoveStaging() error {
	if err := os.RemoveAll(w.StagingRoot()); err != nil {
		return fmt.Errorf("workspace: remove staging: %w", err)
	}
	return nil
}

// RemoveAll deletes the entire project directory, used when a first-time
// download fails.
func (w *ProjectWorkspace) RemoveAll() error {
	if err := os.RemoveAll(w.Dir); err != nil {
		return fmt.Errorf("workspace: remove project dir: %w", err)
	}
	return nil
}

// Exists reports whether the project directory is already present locally.
func (w *ProjectWorkspace) Exists() bool {
	return utils.DirExists(w.Dir)
}

// AbsPath joins a normalized relative path onto the project root.
func (w *ProjectWorkspace) AbsPath(relPath string) string {
	return filepath.Join(w.Dir, relPath)
}

// RelPath returns the normalized path of absPath relative to the project root.
func (w *ProjectWorkspace) RelPath(absPath string) (string, error) {
	rel, err := filepath.Rel(w.Dir, absPath)
	if err != nil {
		return "", err
	}
	return NormPath(rel), nil
}

// NormPath cleans a path, forces forward slashes, and strips any leading
// slash so relative paths are always forward-slash normalized and never
// lead with /, matching the wire convention.
func NormPath(path string) string {
	path = filepath.Clean(path)
	path = strings.ReplaceAll(path, "\\", "/")
	path = strings.TrimLeft(path, "/")
	return path
}
