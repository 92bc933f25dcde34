package sync

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/openmined/projectsync/internal/client/syncapi"
	"github.com/openmined/projectsync/internal/client/workspace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// Orchestrator is the sync engine's public entry point: the
// object a shell (CLI, daemon, UI) holds for the lifetime of a session. It
// owns the HTTP client, the transaction registry, and the LocalProjects
// store, and drives the pull/push protocols while emitting the
// shell-facing events.
type Orchestrator struct {
	api      *syncapi.Client
	registry *Registry
	local    LocalProjects
	emit     Emitter
	dataDir  string

	// sf collapses concurrent duplicate updateProject/uploadProject calls
	// for the same project into one in-flight run, matching the
	// singleflight use for its datasite view refresh.
	sf singleflight.Group
}

// NewOrchestrator builds an Orchestrator rooted at dataDir, talking to api,
// persisting clones through local, and reporting through emit.
func NewOrchestrator(api *syncapi.Client, local LocalProjects, emit Emitter, dataDir string) *Orchestrator {
	if emit == nil {
		emit = NoopEmitter{}
	}
	return &Orchestrator{
		api:      api,
		registry: NewRegistry(),
		local:    local,
		emit:     emit,
		dataDir:  dataDir,
	}
}

// projectDir resolves the working directory for fullName: whatever
// LocalProjects already knows about, or a fresh <dataDir>/<namespace>/<name> the first
// time it's synced.
func (o *Orchestrator) projectDir(fullName, namespace, name string) string {
	if entry, ok := o.local.Get(fullName); ok && entry.Dir != "" {
		return entry.Dir
	}
	return filepath.Join(o.dataDir, namespace, name)
}

// ListProjects fetches the server's project listing and annotates each
// entry with whether a local clone already exists.
func (o *Orchestrator) ListProjects(ctx context.Context, filter syncapi.ListProjectsParams) {
	items, err := o.api.ListProjects(ctx, filter)
	if err != nil {
		o.emit.ListProjectsFailed(err)
		return
	}

	listing := make([]ProjectListing, len(items))
	for i, item := range items {
		fullName := syncapi.ProjectFullName(item.Namespace, item.Name)
		_, hasClone := o.local.Get(fullName)
		listing[i] = ProjectListing{ProjectListItem: item, HasLocalClone: hasClone}
	}

	o.emit.ListProjectsFinished(listing)
}

// UpdateProject runs the pull protocol to bring the local working copy of
// fullName up to the server's current version.
func (o *Orchestrator) UpdateProject(ctx context.Context, namespace, name string) error {
	fullName := syncapi.ProjectFullName(namespace, name)

	_, err, _ := o.sf.Do("update:"+fullName, func() (any, error) {
		return nil, o.runPull(ctx, namespace, name, fullName)
	})
	return err
}

func (o *Orchestrator) runPull(ctx context.Context, namespace, name, fullName string) error {
	dir := o.projectDir(fullName, namespace, name)

	ws, err := workspace.New(dir)
	if err != nil {
		return fmt.Errorf("sync: resolve workspace %s: %w", dir, err)
	}

	tx := &TransactionState{
		Kind:            KindPull,
		ProjectFullName: fullName,
		ProjectDir:      ws.Dir,
	}
	txCtx, cancel := context.WithCancel(ctx)
	tx.cancel = cancel
	defer cancel()

	if err := o.registry.Insert(tx); err != nil {
		return err
	}
	defer o.registry.Remove(fullName)

	if lockErr := ws.Lock(); lockErr != nil {
		o.emit.NetworkErrorOccurred("project locked", lockErr.Error(), false)
		o.emit.SyncProjectFinished(ws.Dir, fullName, false)
		return lockErr
	}
	defer ws.Unlock()

	runErr := RunPull(txCtx, o.api, ws, namespace, name, tx, o.emit, PullOptions{})
	ok := runErr == nil

	if ok {
		_ = o.local.Upsert(LocalProjectEntry{FullName: fullName, Dir: ws.Dir, Version: tx.Version})
		o.emit.ReloadProject(ws.Dir)
	}
	o.emit.SyncProjectFinished(ws.Dir, fullName, ok)

	return runErr
}

// UploadProject runs the push protocol for fullName: pre-pull, diff,
// transactional upload, finalize.
func (o *Orchestrator) UploadProject(ctx context.Context, namespace, name string) error {
	fullName := syncapi.ProjectFullName(namespace, name)

	_, err, _ := o.sf.Do("upload:"+fullName, func() (any, error) {
		return nil, o.runPush(ctx, namespace, name, fullName)
	})
	return err
}

func (o *Orchestrator) runPush(ctx context.Context, namespace, name, fullName string) error {
	dir := o.projectDir(fullName, namespace, name)

	ws, err := workspace.New(dir)
	if err != nil {
		return fmt.Errorf("sync: resolve workspace %s: %w", dir, err)
	}

	tx := &TransactionState{
		Kind:            KindPush,
		ProjectFullName: fullName,
		ProjectDir:      ws.Dir,
	}
	txCtx, cancel := context.WithCancel(ctx)
	tx.cancel = cancel
	defer cancel()

	if err := o.registry.Insert(tx); err != nil {
		return err
	}
	defer o.registry.Remove(fullName)

	if lockErr := ws.Lock(); lockErr != nil {
		o.emit.NetworkErrorOccurred("project locked", lockErr.Error(), false)
		o.emit.SyncProjectFinished(ws.Dir, fullName, false)
		return lockErr
	}
	defer ws.Unlock()

	runErr := RunPush(txCtx, o.api, ws, namespace, name, tx, o.emit, PushOptions{})
	ok := runErr == nil

	if ok {
		_ = o.local.Upsert(LocalProjectEntry{FullName: fullName, Dir: ws.Dir, Version: tx.Version})
		o.emit.ReloadProject(ws.Dir)
	}
	o.emit.SyncProjectFinished(ws.Dir, fullName, ok)

	return runErr
}

// UpdateCancel cancels an in-flight pull for fullName. Idempotent: it is
// not an error to cancel a project with no in-flight transaction.
func (o *Orchestrator) UpdateCancel(fullName string) {
	o.registry.Cancel(fullName)
}

// UploadCancel cancels an in-flight push for fullName.
func (o *Orchestrator) UploadCancel(fullName string) {
	o.registry.Cancel(fullName)
}

// UpdateAll runs UpdateProject for every (namespace, name) pair
// concurrently, one goroutine per project via errgroup. A
// per-project failure doesn't cancel siblings; the first error is
// returned once every project's run has finished so a caller can inspect
// syncProjectFinished events for the rest.
func (o *Orchestrator) UpdateAll(ctx context.Context, projects []LocalProjectEntry) error {
	g := new(errgroup.Group)
	g.SetLimit(8)

	for _, p := range projects {
		p := p
		ns, name, err := splitFullName(p.FullName)
		if err != nil {
			continue
		}
		g.Go(func() error {
			return o.UpdateProject(ctx, ns, name)
		})
	}

	return g.Wait()
}

func splitFullName(fullName string) (namespace, name string, err error) {
	for i := 0; i < len(fullName); i++ {
		if fullName[i] == '/' {
			return fullName[:i], fullName[i+1:], nil
		}
	}
	return "", "", errors.New("sync: malformed full name " + fullName)
}
