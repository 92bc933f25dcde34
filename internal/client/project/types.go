// Package project holds the pure, filesystem- and network-free data model
// for a synced project: its file list, its on-disk metadata snapshot, and
// the diff between two snapshots.
package project

import (
	"sort"

	mapset "github.com/deckarep/golang-set/v2"
)

// FileEntry describes one tracked file: its normalized relative path, size,
// content checksum, and the ordered chunk identifiers used to transfer it.
type FileEntry struct {
	Path     string   `json:"path"`
	Size     int64    `json:"size"`
	Checksum string   `json:"checksum"`
	Chunks   []string `json:"chunks"`
}

// FileList is a path-keyed snapshot of files, always normalized to contain
// at most one entry per path (the ProjectMetadata invariant).
type FileList map[string]FileEntry

// SortedPaths returns the paths of fl in lexical order.
func (fl FileList) SortedPaths() []string {
	paths := make([]string, 0, len(fl))
	for p := range fl {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// ProjectMetadata is the parsed snapshot persisted at
// <projectDir>/.mergin/metadata.json.
type ProjectMetadata struct {
	Version int       `json:"version"`
	Files   FileList  `json:"files"`
}

// ProjectDiff classifies every path seen across three file lists into one
// of ten disjoint sets. See Compare in diff.go for how it's built. Sets
// are backed by mapset.Set so callers get union/intersection algebra
// (DownloadSet, UploadSet) without hand-rolled merge loops.
type ProjectDiff struct {
	LocalAdded   mapset.Set[string]
	LocalUpdated mapset.Set[string]
	LocalDeleted mapset.Set[string]

	RemoteAdded   mapset.Set[string]
	RemoteUpdated mapset.Set[string]
	RemoteDeleted mapset.Set[string]

	ConflictRemoteUpdatedLocalUpdated mapset.Set[string]
	ConflictRemoteAddedLocalAdded     mapset.Set[string]
	ConflictRemoteDeletedLocalUpdated mapset.Set[string]
	ConflictRemoteUpdatedLocalDeleted mapset.Set[string]
}

func newProjectDiff() *ProjectDiff {
	return &ProjectDiff{
		LocalAdded:                         mapset.NewThreadUnsafeSet[string](),
		LocalUpdated:                       mapset.NewThreadUnsafeSet[string](),
		LocalDeleted:                       mapset.NewThreadUnsafeSet[string](),
		RemoteAdded:                        mapset.NewThreadUnsafeSet[string](),
		RemoteUpdated:                      mapset.NewThreadUnsafeSet[string](),
		RemoteDeleted:                      mapset.NewThreadUnsafeSet[string](),
		ConflictRemoteUpdatedLocalUpdated:  mapset.NewThreadUnsafeSet[string](),
		ConflictRemoteAddedLocalAdded:      mapset.NewThreadUnsafeSet[string](),
		ConflictRemoteDeletedLocalUpdated:  mapset.NewThreadUnsafeSet[string](),
		ConflictRemoteUpdatedLocalDeleted:  mapset.NewThreadUnsafeSet[string](),
	}
}

// DownloadSet returns the union of paths a pull must fetch: everything new
// or changed on the remote side, including the remote half of a conflict.
func (d *ProjectDiff) DownloadSet() mapset.Set[string] {
	return d.RemoteAdded.
		Union(d.RemoteUpdated).
		Union(d.ConflictRemoteUpdatedLocalUpdated).
		Union(d.ConflictRemoteAddedLocalAdded)
}

// UploadSet returns the union of paths a push must send: everything added
// or changed locally.
func (d *ProjectDiff) UploadSet() mapset.Set[string] {
	return d.LocalAdded.Union(d.LocalUpdated)
}

// IsEmpty reports whether the diff carries no work in any of its ten sets.
func (d *ProjectDiff) IsEmpty() bool {
	for _, set := range []mapset.Set[string]{
		d.LocalAdded, d.LocalUpdated, d.LocalDeleted,
		d.RemoteAdded, d.RemoteUpdated, d.RemoteDeleted,
		d.ConflictRemoteUpdatedLocalUpdated, d.ConflictRemoteAddedLocalAdded,
		d.ConflictRemoteDeletedLocalUpdated, d.ConflictRemoteUpdatedLocalDeleted,
	} {
		if set.Cardinality() > 0 {
			return false
		}
	}
	return true
}

// SortedPaths returns the paths of set (one of d's sets) in lexical order,
// useful for deterministic test assertions and log lines.
func (d *ProjectDiff) SortedPaths(set mapset.Set[string]) []string {
	paths := set.ToSlice()
	sort.Strings(paths)
	return paths
}
