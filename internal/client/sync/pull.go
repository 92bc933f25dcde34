package sync

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/openmined/projectsync/internal/client/project"
	"github.com/openmined/projectsync/internal/client/syncapi"
	"github.com/openmined/projectsync/internal/client/workspace"
	"github.com/openmined/projectsync/internal/syncerr"
)

// PullOptions customizes a pull run. OnFileDone fires once per file as its
// last chunk lands.
type PullOptions struct {
	OnFileDone func(path string)
}

// RunPull drives tx (already allocated by the caller, Kind KindPull or a
// push's pre-pull step) through FetchingInfo -> Downloading -> Applying ->
// Done. It never touches the Registry: callers own
// Insert/Remove around this call.
func RunPull(ctx context.Context, api *syncapi.Client, ws *workspace.ProjectWorkspace, namespace, name string, tx *TransactionState, emit Emitter, opts PullOptions) error {
	fullName := tx.ProjectFullName

	tx.setState(StateFetchingInfo)
	emit.PullFilesStarted(fullName)

	tx.FirstTimeDownload = !ws.Exists()
	if tx.FirstTimeDownload {
		if err := ws.EnsureDirs(); err != nil {
			return failWithWorkspace(tx, emit, err, ws)
		}
	}

	info, err := api.GetProjectInfo(ctx, namespace, name)
	if err != nil {
		return failWithWorkspace(tx, emit, err, ws)
	}

	newMeta, err := info.ToMetadata()
	if err != nil {
		return failWithWorkspace(tx, emit, syncerr.Wrap(syncerr.KindMetadataCorrupt, "parse server metadata", err), ws)
	}

	oldMeta, err := project.LoadMetadata(ws)
	if err != nil {
		return failWithWorkspace(tx, emit, err, ws)
	}

	local, err := project.ListLocalFiles(ws)
	if err != nil {
		return failWithWorkspace(tx, emit, err, ws)
	}

	diff := project.Compare(oldMeta.Files, newMeta.Files, local)
	tx.Diff = diff
	tx.NewMetadata = newMeta
	tx.Version = newMeta.Version

	paths := diff.DownloadSet().ToSlice()
	sort.Strings(paths)

	tx.Files = make([]project.FileEntry, 0, len(paths))
	var total int64
	for _, p := range paths {
		entry := newMeta.Files[p]
		tx.Files = append(tx.Files, entry)
		total += entry.Size
	}
	tx.TotalBytes = total

	if len(paths) == 0 {
		if err := applyPull(ws, tx); err != nil {
			return failWithWorkspace(tx, emit, err, ws)
		}
		tx.setState(StateDone)
		emit.SyncProjectStatusChanged(fullName, 1.0)
		emit.SyncProjectStatusChanged(fullName, -1)
		return nil
	}

	tx.setState(StateDownloading)

	staging, err := ws.NewStagingDir()
	if err != nil {
		return failWithWorkspace(tx, emit, err, ws)
	}
	tx.StagingDir = staging

	for _, entry := range tx.Files {
		if err := ctx.Err(); err != nil {
			return cancelled(tx, emit, ws)
		}

		if err := downloadFile(ctx, api, namespace, name, newMeta.Version, entry, staging, tx, emit); err != nil {
			if errors.Is(err, syncerr.Cancelled) {
				return cancelled(tx, emit, ws)
			}
			return failWithWorkspace(tx, emit, err, ws)
		}

		if opts.OnFileDone != nil {
			opts.OnFileDone(entry.Path)
		}
	}

	tx.setState(StateApplying)
	if err := applyPull(ws, tx); err != nil {
		return failWithWorkspace(tx, emit, err, ws)
	}

	tx.setState(StateDone)
	emit.SyncProjectStatusChanged(fullName, 1.0)
	emit.SyncProjectStatusChanged(fullName, -1)
	return nil
}

// downloadFile pulls every chunk of one file into <staging>/<path>, in
// order, updating tx.TransferredBytes and emitting progress after each
// chunk lands.
func downloadFile(ctx context.Context, api *syncapi.Client, namespace, name string, version int, entry project.FileEntry, staging string, tx *TransactionState, emit Emitter) error {
	dest := filepath.Join(staging, entry.Path)
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return syncerr.Wrap(syncerr.KindLocalIOError, "create staging parent dir", err)
	}

	f, err := os.Create(dest)
	if err != nil {
		return syncerr.Wrap(syncerr.KindLocalIOError, "create staged file", err)
	}
	defer f.Close()

	for i := range entry.Chunks {
		if err := ctx.Err(); err != nil {
			return syncerr.Cancelled
		}

		streamCtx, cancel := syncapi.NewStreamContext(ctx)
		err := api.DownloadChunk(streamCtx, namespace, name, entry.Path, version, i, f, nil)
		cancel()
		if err != nil {
			return err
		}

		frac := tx.addTransferred(chunkSize(entry, i))
		emit.SyncProjectStatusChanged(tx.ProjectFullName, frac)
	}

	return f.Sync()
}

// chunkSize approximates the byte size of chunk i of entry as an equal
// share of entry.Size across len(entry.Chunks), the final chunk taking
// whatever remains. Used purely for progress accounting since the wire protocol
// doesn't echo per-chunk size back.
func chunkSize(entry project.FileEntry, i int) int64 {
	n := len(entry.Chunks)
	if n <= 1 {
		return entry.Size
	}
	full := entry.Size / int64(n)
	if i == n-1 {
		return entry.Size - full*int64(n-1)
	}
	return full
}

// applyPull performs the atomic-as-possible apply phase:
// conflict renames, then overwrites, then remote deletes, then staging
// removal, in that order.
func applyPull(ws *workspace.ProjectWorkspace, tx *TransactionState) error {
	diff := tx.Diff

	conflictPaths := diff.ConflictRemoteUpdatedLocalUpdated.Union(diff.ConflictRemoteAddedLocalAdded).ToSlice()
	sort.Strings(conflictPaths)

	for _, p := range conflictPaths {
		local := ws.AbsPath(p)
		if !fileExists(local) {
			continue
		}
		conflictRel := project.UniqueConflictName(ws.Dir, p)
		if err := os.Rename(local, ws.AbsPath(conflictRel)); err != nil {
			return syncerr.Wrap(syncerr.KindLocalIOError, "rename conflict copy", err)
		}
	}

	if tx.StagingDir != "" {
		paths := diff.DownloadSet().ToSlice()
		sort.Strings(paths)

		for _, p := range paths {
			src := filepath.Join(tx.StagingDir, p)
			dst := ws.AbsPath(p)
			if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
				return syncerr.Wrap(syncerr.KindLocalIOError, "create dest parent dir", err)
			}
			if err := os.Rename(src, dst); err != nil {
				return syncerr.Wrap(syncerr.KindLocalIOError, "move staged file", err)
			}
		}
	}

	deletePaths := diff.RemoteDeleted.ToSlice()
	sort.Strings(deletePaths)
	for _, p := range deletePaths {
		if err := os.Remove(ws.AbsPath(p)); err != nil && !os.IsNotExist(err) {
			return syncerr.Wrap(syncerr.KindLocalIOError, "delete remote-deleted file", err)
		}
	}

	if err := ws.RemoveStaging(); err != nil {
		return err
	}

	if err := project.SaveMetadata(ws, tx.NewMetadata); err != nil {
		return err
	}

	return nil
}

func fileExists(p string) bool {
	_, err := os.Stat(p)
	return err == nil
}

// failWithWorkspace transitions tx to Failed, runs the cleanup
// policy (remove the whole project dir on a first-time-download failure,
// otherwise just staging), and reports the terminal event. ws may be nil
// when the failure happened before a workspace was ever resolved.
func failWithWorkspace(tx *TransactionState, emit Emitter, err error, ws *workspace.ProjectWorkspace) error {
	tx.setState(StateFailed)

	result := &multierror.Error{Errors: []error{err}}
	if ws != nil {
		if tx.FirstTimeDownload {
			if cleanupErr := ws.RemoveAll(); cleanupErr != nil {
				result = multierror.Append(result, fmt.Errorf("cleanup project dir: %w", cleanupErr))
			}
		} else if tx.StagingDir != "" {
			if cleanupErr := ws.RemoveStaging(); cleanupErr != nil {
				result = multierror.Append(result, fmt.Errorf("cleanup staging dir: %w", cleanupErr))
			}
		}
	}

	se := asSyncError(err)
	if se.Kind == syncerr.KindUnauthorized {
		emit.AuthRequested(tx.ProjectFullName)
	}
	emit.NetworkErrorOccurred(se.Message, se.Detail, false)
	emit.SyncProjectStatusChanged(tx.ProjectFullName, -1)
	return result.ErrorOrNil()
}

func cancelled(tx *TransactionState, emit Emitter, ws *workspace.ProjectWorkspace) error {
	tx.setState(StateCancelling)
	_ = ws.RemoveStaging()
	tx.setState(StateCancelled)
	emit.SyncProjectStatusChanged(tx.ProjectFullName, -1)
	return syncerr.Cancelled
}

func asSyncError(err error) *syncerr.SyncError {
	var se *syncerr.SyncError
	if errors.As(err, &se) {
		return se
	}
	return syncerr.Wrap(syncerr.KindLocalIOError, fmt.Sprintf("%v", err), err)
}
