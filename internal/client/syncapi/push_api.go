package syncapi

import (
	"context"
	"fmt"
)

const (
	v1PushStart  = "/v1/project/push/%s/%s"
	v1PushFinish = "/v1/project/push/finish/%s"
	v1PushCancel = "/v1/project/push/cancel/%s"
)

// PushStart opens an upload transaction. On success the server replies with the
// transaction UUID and the target version.
func (c *Client) PushStart(ctx context.Context, namespace, name string, changes UploadChanges) (*PushStartResponse, error) {
	var resp PushStartResponse

	_, err := c.do(ctx, "push start", func(ctx context.Context) (*reqResponse, error) {
		return c.request(ctx).
			SetBody(changes).
			SetSuccessResult(&resp).
			SetErrorResult(&APIError{}).
			Post(fmt.Sprintf(v1PushStart, namespace, name))
	})
	if err != nil {
		return nil, fmt.Errorf("syncapi: push start %s/%s: %w", namespace, name, err)
	}

	return &resp, nil
}

// PushFinish commits an open transaction, returning the server's new canonical
// metadata.
func (c *Client) PushFinish(ctx context.Context, uuid string) (*PushFinishResponse, error) {
	var resp PushFinishResponse

	_, err := c.do(ctx, "push finish", func(ctx context.Context) (*reqResponse, error) {
		return c.request(ctx).
			SetSuccessResult(&resp).
			SetErrorResult(&APIError{}).
			Post(fmt.Sprintf(v1PushFinish, uuid))
	})
	if err != nil {
		return nil, fmt.Errorf("syncapi: push finish %s: %w", uuid, err)
	}

	return &resp, nil
}

// PushCancel aborts an open transaction. Always called best-effort: on
// the cancel paths its error is discarded, and after a failed upload step
// it is appended behind the primary error, never in place of it.
func (c *Client) PushCancel(ctx context.Context, uuid string) error {
	if uuid == "" {
		return nil
	}

	resp, err := c.request(ctx).
		SetErrorResult(&APIError{}).
		Post(fmt.Sprintf(v1PushCancel, uuid))

	return handleResponse(resp, err, "push cancel")
}
