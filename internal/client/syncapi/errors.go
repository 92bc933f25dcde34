package syncapi

import (
	"context"
	"errors"
	"fmt"

	"github.com/imroc/req/v3"
	"github.com/openmined/projectsync/internal/syncerr"
)

// APIError is the JSON error body the server sends on a non-2xx response.
type APIError struct {
	Message string `json:"message"`
	Detail  string `json:"detail"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

// handleResponse turns a req round trip into a *syncerr.SyncError, or nil
// if the call succeeded. operation names the call for the wrapped message.
func handleResponse(resp *req.Response, requestErr error, operation string) error {
	if requestErr != nil {
		if errors.Is(requestErr, context.DeadlineExceeded) {
			return syncerr.Wrap(syncerr.KindTimeout, operation, requestErr)
		}
		return syncerr.Wrap(syncerr.KindNetworkUnavailable, operation, requestErr)
	}

	if !resp.IsErrorState() {
		return nil
	}

	code := resp.GetStatusCode()
	apiErr, _ := resp.ErrorResult().(*APIError)
	message := operation
	detail := ""
	if apiErr != nil {
		message = apiErr.Message
		detail = apiErr.Detail
	}

	se := classifyStatus(code, message)
	se.Detail = detail
	return se
}

func classifyStatus(code int, message string) *syncerr.SyncError {
	switch code {
	case 401, 403:
		return syncerr.New(syncerr.KindUnauthorized, message)
	case 404:
		return syncerr.New(syncerr.KindNotFound, message)
	case 409:
		return syncerr.New(syncerr.KindConflict, message)
	case 413, 507:
		return syncerr.New(syncerr.KindStorageLimitExceeded, message)
	default:
		se := syncerr.HTTPStatus(code, message)
		return se
	}
}
