// Package sync implements the transaction/state model tying the pull and
// push protocols together: a registry of at most one
// in-flight transaction per project, and the orchestrator that drives
// update/upload/cancel and emits the shell-facing events.
package sync

import (
	"context"
	"sync"

	"github.com/openmined/projectsync/internal/client/project"
)

// Kind distinguishes the two transaction shapes a project can have open.
type Kind string

const (
	KindPull Kind = "pull"
	KindPush Kind = "push"
)

// State is one state of the Pull or Push state machine.
type State string

const (
	StateIdle          State = "idle"
	StateFetchingInfo  State = "fetching_info"
	StateDownloading   State = "downloading"
	StateApplying      State = "applying"
	StatePrePull       State = "pre_pull"
	StateComputingDiff State = "computing_diff"
	StateTxStarting    State = "tx_starting"
	StateUploading     State = "uploading"
	StateTxFinishing   State = "tx_finishing"
	StateDone          State = "done"
	StateCancelling    State = "cancelling"
	StateCancelled     State = "cancelled"
	StateFailed        State = "failed"
)

// TransactionState is the per-project mutable record of one in-flight
// sync. Exactly zero or one exists per
// projectFullName at any time, owned by the Registry.
type TransactionState struct {
	mu sync.Mutex

	Kind            Kind
	State           State
	ProjectFullName string
	ProjectDir      string

	TotalBytes       int64
	TransferredBytes int64

	// UUID is the server-issued transaction id (Push only), present only
	// after uploadStart succeeds. The empty string before that point is
	// overloaded as the "cancel on arrival" sentinel once CancelOnArrival
	// is set.
	UUID            string
	CancelOnArrival bool

	Files      []project.FileEntry
	StagingDir string

	NewMetadata *project.ProjectMetadata
	Version     int

	FirstTimeDownload bool
	Diff              *project.ProjectDiff

	cancel context.CancelFunc
}

// setState transitions the transaction to s. Guarded so pull/push
// goroutines and a concurrent cancel() never race on the field.
func (t *TransactionState) setState(s State) {
	t.mu.Lock()
	t.State = s
	t.mu.Unlock()
}

// CurrentState returns the transaction's state under lock.
func (t *TransactionState) CurrentState() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.State
}

// addTransferred advances TransferredBytes and returns the new progress
// fraction in [0,1], or -1 if TotalBytes is zero.
func (t *TransactionState) addTransferred(n int64) float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.TransferredBytes += n
	if t.TotalBytes <= 0 {
		return -1
	}
	frac := float64(t.TransferredBytes) / float64(t.TotalBytes)
	if frac > 1 {
		frac = 1
	}
	return frac
}

// progress returns the current progress fraction without mutating state.
func (t *TransactionState) progress() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.TotalBytes <= 0 {
		return -1
	}
	return float64(t.TransferredBytes) / float64(t.TotalBytes)
}
