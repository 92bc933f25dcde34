package sync

import (
	"context"
	"testing"

	"github.com/openmined/projectsync/internal/syncerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTx(fullName string, kind Kind) *TransactionState {
	_, cancel := context.WithCancel(context.Background())
	return &TransactionState{
		Kind:            kind,
		ProjectFullName: fullName,
		cancel:          cancel,
	}
}

func TestRegistry_InsertRejectsDuplicate(t *testing.T) {
	r := NewRegistry()
	tx := newTestTx("acme/widgets", KindPull)

	require.NoError(t, r.Insert(tx))

	err := r.Insert(newTestTx("acme/widgets", KindPush))
	require.Error(t, err)

	var syncErr *syncerr.SyncError
	require.ErrorAs(t, err, &syncErr)
	assert.Equal(t, syncerr.KindAlreadyInProgress, syncErr.Kind)
}

func TestRegistry_InsertAllowsDistinctProjects(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Insert(newTestTx("acme/widgets", KindPull)))
	require.NoError(t, r.Insert(newTestTx("acme/gadgets", KindPull)))
}

func TestRegistry_GetAndRemove(t *testing.T) {
	r := NewRegistry()
	tx := newTestTx("acme/widgets", KindPull)
	require.NoError(t, r.Insert(tx))

	got, ok := r.Get("acme/widgets")
	require.True(t, ok)
	assert.Same(t, tx, got)

	_, ok = r.Get("acme/absent")
	assert.False(t, ok)

	r.Remove("acme/widgets")
	_, ok = r.Get("acme/widgets")
	assert.False(t, ok)

	// Removing an unknown project is a no-op, not an error.
	r.Remove("acme/absent")
}

func TestRegistry_CancelSignalsContextAndReportsMissing(t *testing.T) {
	r := NewRegistry()

	_, ok := r.Cancel("acme/absent")
	assert.False(t, ok)

	ctx, cancel := context.WithCancel(context.Background())
	tx := &TransactionState{Kind: KindPull, ProjectFullName: "acme/widgets", cancel: cancel}
	require.NoError(t, r.Insert(tx))

	got, ok := r.Cancel("acme/widgets")
	require.True(t, ok)
	assert.Same(t, tx, got)

	select {
	case <-ctx.Done():
	default:
		t.Fatal("expected context to be cancelled")
	}
}

func TestRegistry_CancelPushBeforeUUIDSetsCancelOnArrival(t *testing.T) {
	r := NewRegistry()
	_, cancel := context.WithCancel(context.Background())
	tx := &TransactionState{Kind: KindPush, ProjectFullName: "acme/widgets", cancel: cancel}
	require.NoError(t, r.Insert(tx))

	_, ok := r.Cancel("acme/widgets")
	require.True(t, ok)

	assert.True(t, tx.CancelOnArrival)
}

func TestRegistry_CancelPushAfterUUIDDoesNotSetCancelOnArrival(t *testing.T) {
	r := NewRegistry()
	_, cancel := context.WithCancel(context.Background())
	tx := &TransactionState{Kind: KindPush, ProjectFullName: "acme/widgets", UUID: "server-issued-uuid", cancel: cancel}
	require.NoError(t, r.Insert(tx))

	_, ok := r.Cancel("acme/widgets")
	require.True(t, ok)

	assert.False(t, tx.CancelOnArrival)
}
