package sync

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/openmined/projectsync/internal/client/project"
	"github.com/openmined/projectsync/internal/client/syncapi"
	"github.com/openmined/projectsync/internal/client/workspace"
	"github.com/openmined/projectsync/internal/syncerr"
)

// PushOptions customizes a push run, mirroring PullOptions.
type PushOptions struct {
	OnFileDone func(path string)
}

// RunPush drives tx through PrePull -> ComputingDiff -> TxStarting ->
// Uploading -> TxFinishing -> Done. It allocates and drives a
// nested KindPull transaction for the mandatory pre-pull step but never
// registers it: the Registry slot for fullName already belongs to tx.
func RunPush(ctx context.Context, api *syncapi.Client, ws *workspace.ProjectWorkspace, namespace, name string, tx *TransactionState, emit Emitter, opts PushOptions) error {
	fullName := tx.ProjectFullName

	tx.setState(StatePrePull)
	pullTx := &TransactionState{
		Kind:            KindPull,
		ProjectFullName: fullName,
		ProjectDir:      tx.ProjectDir,
	}
	if err := RunPull(ctx, api, ws, namespace, name, pullTx, emit, PullOptions{}); err != nil {
		if errors.Is(err, syncerr.Cancelled) {
			return cancelled(tx, emit, ws)
		}
		return failWithWorkspace(tx, emit, err, ws)
	}

	tx.setState(StateComputingDiff)
	emit.PushFilesStarted(fullName)

	local, err := project.ListLocalFiles(ws)
	if err != nil {
		return failWithWorkspace(tx, emit, err, ws)
	}

	// The pull just brought old-server and new-server into agreement, so
	// the diff's remote-side sets are empty by construction; only the
	// local-side sets drive the upload.
	diff := project.Compare(pullTx.NewMetadata.Files, pullTx.NewMetadata.Files, local)
	tx.Diff = diff
	tx.Version = pullTx.Version

	uploadSet := diff.UploadSet()
	if uploadSet.Cardinality() == 0 && diff.LocalDeleted.Cardinality() == 0 {
		tx.setState(StateDone)
		emit.SyncProjectStatusChanged(fullName, 1.0)
		emit.SyncProjectStatusChanged(fullName, -1)
		return nil
	}

	paths := uploadSet.ToSlice()
	sort.Strings(paths)

	tx.Files = make([]project.FileEntry, 0, len(paths))
	var total int64
	for _, p := range paths {
		entry := local[p]
		tx.Files = append(tx.Files, entry)
		total += entry.Size
	}
	tx.TotalBytes = total

	tx.setState(StateTxStarting)
	changes := syncapi.UploadChangesFromDiff(pullTx.Version, diff, local)

	startResp, err := api.PushStart(ctx, namespace, name, changes)
	if err != nil {
		return failWithWorkspace(tx, emit, err, ws)
	}

	tx.mu.Lock()
	cancelOnArrival := tx.CancelOnArrival
	if !cancelOnArrival {
		tx.UUID = startResp.Transaction
	}
	tx.mu.Unlock()

	if cancelOnArrival {
		_ = api.PushCancel(context.WithoutCancel(ctx), startResp.Transaction)
		return cancelled(tx, emit, ws)
	}

	targetVersion, verr := syncapi.ParseVersion(startResp.Version)
	if verr != nil {
		return failWithWorkspace(tx, emit, pushCancelBestEffort(ctx, api, tx.UUID, verr), ws)
	}
	tx.Version = targetVersion

	tx.setState(StateUploading)
	for _, entry := range tx.Files {
		if err := ctx.Err(); err != nil {
			_ = api.PushCancel(context.WithoutCancel(ctx), tx.UUID)
			return cancelled(tx, emit, ws)
		}

		if err := uploadFile(ctx, api, tx, ws, entry, emit); err != nil {
			if errors.Is(err, syncerr.Cancelled) {
				_ = api.PushCancel(context.WithoutCancel(ctx), tx.UUID)
				return cancelled(tx, emit, ws)
			}
			return failWithWorkspace(tx, emit, pushCancelBestEffort(ctx, api, tx.UUID, err), ws)
		}

		if opts.OnFileDone != nil {
			opts.OnFileDone(entry.Path)
		}
	}

	tx.setState(StateTxFinishing)
	finishResp, err := api.PushFinish(ctx, tx.UUID)
	if err != nil {
		return failWithWorkspace(tx, emit, pushCancelBestEffort(ctx, api, tx.UUID, err), ws)
	}

	newMeta, err := finishResp.ToMetadata()
	if err != nil {
		return failWithWorkspace(tx, emit, syncerr.Wrap(syncerr.KindMetadataCorrupt, "parse finish metadata", err), ws)
	}
	tx.NewMetadata = newMeta
	tx.Version = newMeta.Version

	if err := project.SaveMetadata(ws, newMeta); err != nil {
		return failWithWorkspace(tx, emit, err, ws)
	}
	api.InvalidateProjectInfo(namespace, name)

	tx.setState(StateDone)
	emit.SyncProjectStatusChanged(fullName, 1.0)
	emit.SyncProjectStatusChanged(fullName, -1)
	return nil
}

// pushCancelBestEffort tells the server to abandon uuid after a failed
// upload step and folds a cancel failure into the original error so it
// isn't silently dropped, without letting it mask the primary cause.
func pushCancelBestEffort(ctx context.Context, api *syncapi.Client, uuid string, cause error) error {
	result := &multierror.Error{Errors: []error{cause}}
	if cancelErr := api.PushCancel(ctx, uuid); cancelErr != nil {
		result = multierror.Append(result, fmt.Errorf("cancel transaction %s: %w", uuid, cancelErr))
	}
	return result.ErrorOrNil()
}

// uploadChunkByteSize returns the real byte count of the chunk starting at
// offset within a file of entry.Size bytes: a full UploadChunkSize except
// for the last chunk, which is whatever remains. Unlike chunkSize (an
// equal partition used only for progress display), this must match the
// exact byte range PushChunk reads from disk.
func uploadChunkByteSize(entry project.FileEntry, offset int64) int64 {
	remaining := entry.Size - offset
	if remaining > project.UploadChunkSize {
		return project.UploadChunkSize
	}
	return remaining
}

// uploadFile pushes every chunk of one file in order.
func uploadFile(ctx context.Context, api *syncapi.Client, tx *TransactionState, ws *workspace.ProjectWorkspace, entry project.FileEntry, emit Emitter) error {
	path := ws.AbsPath(entry.Path)

	for i, chunkID := range entry.Chunks {
		if err := ctx.Err(); err != nil {
			return syncerr.Cancelled
		}

		offset := int64(i) * project.UploadChunkSize
		size := uploadChunkByteSize(entry, offset)

		streamCtx, cancel := syncapi.NewStreamContext(ctx)
		err := api.PushChunk(streamCtx, tx.UUID, chunkID, path, offset, size)
		cancel()
		if err != nil {
			return err
		}

		frac := tx.addTransferred(size)
		emit.SyncProjectStatusChanged(tx.ProjectFullName, frac)
	}

	return nil
}
