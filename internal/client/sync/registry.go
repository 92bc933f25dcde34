package sync

import (
	"sync"

	"github.com/openmined/projectsync/internal/syncerr"
)

// Registry is the per-process map from projectFullName to at most one
// in-flight TransactionState. The orchestrator runs each
// project's sync on its own goroutine, so every method here is
// mutex-guarded.
type Registry struct {
	mu    sync.Mutex
	byTxn map[string]*TransactionState
}

// NewRegistry returns an empty transaction registry.
func NewRegistry() *Registry {
	return &Registry{byTxn: make(map[string]*TransactionState)}
}

// Insert registers tx for its ProjectFullName, or fails with
// AlreadyInProgress if one is already open.
func (r *Registry) Insert(tx *TransactionState) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byTxn[tx.ProjectFullName]; exists {
		return syncerr.AlreadyInProgress(tx.ProjectFullName)
	}
	r.byTxn[tx.ProjectFullName] = tx
	return nil
}

// Get returns the in-flight transaction for fullName, if any.
func (r *Registry) Get(fullName string) (*TransactionState, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tx, ok := r.byTxn[fullName]
	return tx, ok
}

// Remove frees the registry slot for fullName. Called when a protocol
// reaches a terminal state.
func (r *Registry) Remove(fullName string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byTxn, fullName)
}

// Cancel signals the owning protocol's context and returns the
// transaction that was cancelled, or false if none was open. Cancellation
// itself is asynchronous; the protocol goroutine observes ctx.Done() and
// runs its own cleanup before the slot is freed.
func (r *Registry) Cancel(fullName string) (*TransactionState, bool) {
	r.mu.Lock()
	tx, ok := r.byTxn[fullName]
	r.mu.Unlock()

	if !ok {
		return nil, false
	}

	tx.mu.Lock()
	if tx.Kind == KindPush && tx.UUID == "" {
		tx.CancelOnArrival = true
	}
	cancel := tx.cancel
	tx.mu.Unlock()

	if cancel != nil {
		cancel()
	}

	return tx, true
}
