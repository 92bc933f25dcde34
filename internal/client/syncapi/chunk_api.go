package syncapi

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/openmined/projectsync/internal/syncerr"
)

const v1ProjectRaw = "/v1/project/raw/%s/%s"

// ChunkProgressFunc is invoked after each buffered read/write (up to 32 KiB)
// with the cumulative bytes moved for the current chunk.
type ChunkProgressFunc func(movedBytes int64)

// DownloadChunk fetches one file chunk and appends
// its body to w. The caller owns w and decides when to flush/close it.
func (c *Client) DownloadChunk(ctx context.Context, namespace, name, file string, version, chunk int, w io.Writer, onProgress ChunkProgressFunc) error {
	var moved int64

	resp, err := c.request(ctx).
		DisableAutoReadResponse().
		SetQueryParam("file", file).
		SetQueryParam("version", formatVersion(version)).
		SetQueryParam("chunk", fmt.Sprintf("%d", chunk)).
		SetErrorResult(&APIError{}).
		Get(fmt.Sprintf(v1ProjectRaw, namespace, name))

	if err := handleResponse(resp, err, "download chunk"); err != nil {
		return err
	}
	defer resp.Body.Close()

	buf := make([]byte, 32*1024)
	for {
		n, readErr := resp.Body.Read(buf)
		if n > 0 {
			if _, writeErr := w.Write(buf[:n]); writeErr != nil {
				return syncerr.Wrap(syncerr.KindLocalIOError, "write staged chunk", writeErr)
			}
			moved += int64(n)
			if onProgress != nil {
				onProgress(moved)
			}
		}
		if readErr == io.EOF {
			return nil
		}
		if readErr != nil {
			return syncerr.Wrap(syncerr.KindNetworkUnavailable, "read chunk body", readErr)
		}
		select {
		case <-ctx.Done():
			return syncerr.Cancelled
		default:
		}
	}
}

const v1PushChunk = "/v1/project/push/chunk/%s/%s"

// cancelableReader checks ctx before every Read so a cancelled upload stops
// pulling bytes from disk instead of streaming a chunk body to completion.
type cancelableReader struct {
	ctx context.Context
	r   io.Reader
}

func (r *cancelableReader) Read(p []byte) (int, error) {
	select {
	case <-r.ctx.Done():
		return 0, r.ctx.Err()
	default:
	}
	return r.r.Read(p)
}

// PushChunk uploads one chunk's raw bytes for an open transaction.
func (c *Client) PushChunk(ctx context.Context, uuid, chunkID string, path string, offset, size int64) error {
	f, err := os.Open(path)
	if err != nil {
		return syncerr.Wrap(syncerr.KindLocalIOError, "open chunk source", err)
	}
	defer f.Close()

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return syncerr.Wrap(syncerr.KindLocalIOError, "seek chunk source", err)
	}

	body := &cancelableReader{ctx: ctx, r: io.LimitReader(f, size)}

	resp, err := c.request(ctx).
		SetHeader("Content-Type", "application/octet-stream").
		SetContentLength(true).
		SetBody(body).
		SetErrorResult(&APIError{}).
		Post(fmt.Sprintf(v1PushChunk, uuid, chunkID))

	if err != nil && ctx.Err() != nil {
		return syncerr.Cancelled
	}
	return handleResponse(resp, err, "push chunk")
}

// idleGapTimeout is the deadline NewStreamContext gives one whole chunk
// transfer, download or upload.
const idleGapTimeout = 60 * time.Second

// NewStreamContext derives a context for a single chunk transfer: bounded
// by parent cancellation and by idleGapTimeout counted from the start of
// the chunk. The deadline does not reset as bytes move, so a chunk that
// takes longer than idleGapTimeout in total fails even while data flows.
func NewStreamContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, idleGapTimeout)
}
