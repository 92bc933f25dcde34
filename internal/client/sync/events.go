package sync

// Emitter is the shell-facing event sink. The orchestrator
// calls these synchronously from whatever goroutine drives a transaction;
// implementations that render to a UI must hop to their own thread.
type Emitter interface {
	ListProjectsFinished(items []ProjectListing)
	ListProjectsFailed(err error)

	// SyncProjectStatusChanged reports progress in [0,1], or -1 to mean
	// "no byte-granular progress available".
	SyncProjectStatusChanged(fullName string, progress float64)

	SyncProjectFinished(dir, fullName string, ok bool)

	NetworkErrorOccurred(msg, detail string, asDialog bool)
	Notify(msg string)

	PullFilesStarted(fullName string)
	PushFilesStarted(fullName string)

	ReloadProject(dir string)
	AuthRequested(fullName string)
}

// NoopEmitter implements Emitter with no-ops; embed it to implement only
// the events a test or a headless caller cares about.
type NoopEmitter struct{}

func (NoopEmitter) ListProjectsFinished(items []ProjectListing) {}
func (NoopEmitter) ListProjectsFailed(err error)                        {}
func (NoopEmitter) SyncProjectStatusChanged(fullName string, progress float64) {}
func (NoopEmitter) SyncProjectFinished(dir, fullName string, ok bool)   {}
func (NoopEmitter) NetworkErrorOccurred(msg, detail string, asDialog bool) {}
func (NoopEmitter) Notify(msg string)                                   {}
func (NoopEmitter) PullFilesStarted(fullName string)                   {}
func (NoopEmitter) PushFilesStarted(fullName string)                   {}
func (NoopEmitter) ReloadProject(dir string)                           {}
func (NoopEmitter) AuthRequested(fullName string)                      {}
