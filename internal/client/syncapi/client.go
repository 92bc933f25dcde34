// Package syncapi is the HTTP client for the project-sync server:
// metadata fetch, chunked download/upload, transaction start/finish/cancel,
// auth, and the administrative project endpoints. It is the concrete
// HttpClient capability the core protocol state machines (E, F) are built
// on, mirroring the syftsdk package: one req.Client carrying
// common headers/retries, one file per concern.
package syncapi

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/imroc/req/v3"
	"github.com/openmined/projectsync/internal/syncerr"
	"github.com/openmined/projectsync/internal/version"
)

// projectInfoCacheTTL bounds how long a fetched ProjectInfo is reused
// within one orchestrator tick.
const projectInfoCacheTTL = 5 * time.Second

const (
	HeaderUserAgent = "User-Agent"
	HeaderClientID  = "X-Client-Id"

	// metadataTimeout bounds the small JSON request/response calls.
	metadataTimeout = 60 * time.Second
)

var UserAgent = fmt.Sprintf("projectsync/%s", version.Version)

// reqResponse aliases req.Response so call sites elsewhere in this package
// don't need to import req directly just to spell the callback signature.
type reqResponse = req.Response

// Client is the bound HTTP surface for one server; it holds no
// project-specific state, so a single instance is shared by every
// in-flight transaction in the orchestrator.
type Client struct {
	http    *req.Client
	baseURL string
	creds   Credentials

	infoCache *expirable.LRU[string, *ProjectInfo]
}

// New builds a Client talking to baseURL, authenticating every request via
// creds. clientID is sent as X-Client-Id (the machineid-derived
// correlation id, see DESIGN.md).
func New(baseURL string, creds Credentials, clientID string) *Client {
	http := req.C().
		SetBaseURL(baseURL).
		SetCommonRetryCount(3).
		SetCommonRetryFixedInterval(1 * time.Second).
		SetUserAgent(UserAgent).
		SetCommonHeader(HeaderClientID, clientID).
		SetJsonMarshal(jsonMarshal).
		SetJsonUnmarshal(jsonUnmarshal)

	return &Client{
		http:      http,
		baseURL:   baseURL,
		creds:     creds,
		infoCache: expirable.NewLRU[string, *ProjectInfo](32, nil, projectInfoCacheTTL),
	}
}

// InvalidateProjectInfo drops any cached metadata for namespace/name.
// RunPush calls this right after a push finish changes the server's
// canonical version, so the next GetProjectInfo is never stale.
func (c *Client) InvalidateProjectInfo(namespace, name string) {
	c.infoCache.Remove(ProjectFullName(namespace, name))
}

// Close releases the underlying transport's idle connections.
func (c *Client) Close() {
	c.http.GetTransport().CloseIdleConnections()
}

// request builds a new request carrying the current bearer header. It sets
// no deadline of its own: metadata calls get metadataTimeout from do, and
// streaming calls (download/upload) bring their own context.
func (c *Client) request(ctx context.Context) *req.Request {
	r := c.http.R().SetContext(ctx)
	if h := c.creds.Header(); h != "" {
		r.SetHeader("Authorization", h)
	}
	return r
}

// do executes fn, and on a 401/403 makes the one reauthentication attempt
// allowed before retrying fn exactly once more.
func (c *Client) do(ctx context.Context, operation string, fn func(ctx context.Context) (*req.Response, error)) (*req.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, metadataTimeout)
	defer cancel()

	resp, err := fn(ctx)
	if handleErr := handleResponse(resp, err, operation); handleErr != nil {
		se, ok := handleErr.(*syncerr.SyncError)
		if ok && se.Kind == syncerr.KindUnauthorized {
			if authErr := c.creds.Reauthenticate(); authErr != nil {
				return resp, handleErr
			}
			resp, err = fn(ctx)
			if retryErr := handleResponse(resp, err, operation); retryErr != nil {
				return resp, retryErr
			}
			return resp, nil
		}
		return resp, handleErr
	}
	return resp, nil
}
