// Package syncerr defines the typed error taxonomy shared by every
// component that talks to the server or the local filesystem, so the
// orchestrator can branch on what went wrong instead of parsing messages.
package syncerr

import (
	"errors"
	"fmt"
)

// Kind is one of the error categories a sync operation can fail with.
type Kind string

const (
	KindNetworkUnavailable  Kind = "network_unavailable"
	KindTimeout             Kind = "timeout"
	KindHTTPStatus          Kind = "http_status"
	KindUnauthorized        Kind = "unauthorized"
	KindNotFound            Kind = "not_found"
	KindConflict            Kind = "conflict"
	KindStorageLimitExceeded Kind = "storage_limit_exceeded"
	KindMetadataCorrupt     Kind = "metadata_corrupt"
	KindChecksumMismatch    Kind = "checksum_mismatch"
	KindLocalIOError        Kind = "local_io_error"
	KindCancelled           Kind = "cancelled"
	KindAlreadyInProgress   Kind = "already_in_progress"
	KindVersionIncompatible Kind = "version_incompatible"
)

// SyncError is the concrete error type returned by every component in this
// module that can fail. It always carries a human-readable message and,
// when the failure originated in a server response, the server's detail
// string.
type SyncError struct {
	Kind       Kind
	Message    string
	Detail     string
	StatusCode int
	Err        error
}

func (e *SyncError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Kind, e.Message, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *SyncError) Unwrap() error {
	return e.Err
}

// New builds a SyncError with no wrapped cause.
func New(kind Kind, message string) *SyncError {
	return &SyncError{Kind: kind, Message: message}
}

// Wrap builds a SyncError with message and an underlying cause.
func Wrap(kind Kind, message string, err error) *SyncError {
	return &SyncError{Kind: kind, Message: message, Err: err}
}

// WithDetail attaches a server-returned detail string and returns e for
// chaining.
func (e *SyncError) WithDetail(detail string) *SyncError {
	e.Detail = detail
	return e
}

// HTTPStatus builds a KindHTTPStatus SyncError for a non-2xx response that
// doesn't map to a more specific kind.
func HTTPStatus(code int, message string) *SyncError {
	return &SyncError{Kind: KindHTTPStatus, Message: message, StatusCode: code}
}

// Is reports whether err is a SyncError of the given kind, unwrapping as
// needed.
func Is(err error, kind Kind) bool {
	var se *SyncError
	return errors.As(err, &se) && se.Kind == kind
}

// Cancelled is the sentinel SyncError used throughout the protocol state
// machines when cancel() has been called.
var Cancelled = New(KindCancelled, "operation cancelled")

// AlreadyInProgress is returned by the transaction registry when a second
// transaction is attempted for a project that already has one.
func AlreadyInProgress(fullName string) *SyncError {
	return New(KindAlreadyInProgress, fmt.Sprintf("sync already in progress for %s", fullName))
}
