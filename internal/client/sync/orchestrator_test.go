package sync

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/openmined/projectsync/internal/client/syncapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeLocalProjects is an in-memory LocalProjects for tests that don't
// need a real sqlite-backed registry.
type fakeLocalProjects struct {
	mu      sync.Mutex
	entries map[string]LocalProjectEntry
}

func newFakeLocalProjects() *fakeLocalProjects {
	return &fakeLocalProjects{entries: map[string]LocalProjectEntry{}}
}

func (f *fakeLocalProjects) Get(fullName string) (*LocalProjectEntry, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.entries[fullName]
	if !ok {
		return nil, false
	}
	return &e, true
}

func (f *fakeLocalProjects) Upsert(entry LocalProjectEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[entry.FullName] = entry
	return nil
}

func (f *fakeLocalProjects) Remove(fullName string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, fullName)
	return nil
}

func (f *fakeLocalProjects) List() ([]LocalProjectEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]LocalProjectEntry, 0, len(f.entries))
	for _, e := range f.entries {
		out = append(out, e)
	}
	return out, nil
}

func sha1Hex(data string) string {
	h := sha1.Sum([]byte(data))
	return hex.EncodeToString(h[:])
}

// newFakeProjectServer serves one project's metadata and single-chunk file
// content, enough to drive a full pull through RunPull/Orchestrator.
func newFakeProjectServer(t *testing.T, namespace, name, version, path, content string) *httptest.Server {
	t.Helper()

	info := syncapi.ProjectInfo{
		Name:      name,
		Namespace: namespace,
		Version:   version,
		Files: []syncapi.ServerFileEntry{
			{Path: path, Size: int64(len(content)), Checksum: sha1Hex(content), Chunks: []string{"0"}},
		},
	}

	mux := http.NewServeMux()
	mux.HandleFunc(fmt.Sprintf("/v1/project/%s/%s", namespace, name), func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(info))
	})
	mux.HandleFunc(fmt.Sprintf("/v1/project/raw/%s/%s", namespace, name), func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(content))
	})

	return httptest.NewServer(mux)
}

func TestOrchestrator_UpdateProject_FirstTimeDownload(t *testing.T) {
	server := newFakeProjectServer(t, "acme", "widgets", "v1", "hello.txt", "hello")
	defer server.Close()

	dataDir := t.TempDir()
	api := syncapi.New(server.URL, syncapi.StaticCredentials("token"), "test-client")
	defer api.Close()

	local := newFakeLocalProjects()
	orch := NewOrchestrator(api, local, NoopEmitter{}, dataDir)

	err := orch.UpdateProject(context.Background(), "acme", "widgets")
	require.NoError(t, err)

	content, err := os.ReadFile(filepath.Join(dataDir, "acme", "widgets", "hello.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(content))

	entry, ok := local.Get("acme/widgets")
	require.True(t, ok)
	assert.Equal(t, 1, entry.Version)
	assert.Equal(t, filepath.Join(dataDir, "acme", "widgets"), entry.Dir)
}

func TestOrchestrator_UpdateProject_NoOpWhenAlreadyCurrent(t *testing.T) {
	server := newFakeProjectServer(t, "acme", "widgets", "v1", "hello.txt", "hello")
	defer server.Close()

	dataDir := t.TempDir()
	api := syncapi.New(server.URL, syncapi.StaticCredentials("token"), "test-client")
	defer api.Close()

	local := newFakeLocalProjects()
	orch := NewOrchestrator(api, local, NoopEmitter{}, dataDir)

	require.NoError(t, orch.UpdateProject(context.Background(), "acme", "widgets"))
	// Second pull of the same unchanged version should be a clean no-op,
	// not an error.
	require.NoError(t, orch.UpdateProject(context.Background(), "acme", "widgets"))

	content, err := os.ReadFile(filepath.Join(dataDir, "acme", "widgets", "hello.txt"))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(content))
}

func TestOrchestrator_ListProjects_AnnotatesLocalClone(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/project", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		items := []syncapi.ProjectListItem{
			{Namespace: "acme", Name: "widgets", Version: "v1"},
			{Namespace: "acme", Name: "gadgets", Version: "v3"},
		}
		require.NoError(t, json.NewEncoder(w).Encode(items))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	api := syncapi.New(server.URL, syncapi.StaticCredentials("token"), "test-client")
	defer api.Close()

	local := newFakeLocalProjects()
	require.NoError(t, local.Upsert(LocalProjectEntry{FullName: "acme/widgets", Dir: "/tmp/widgets", Version: 1}))

	var got []ProjectListing
	rec := &recordingEmitter{onFinished: func(items []ProjectListing) { got = items }}

	orch := NewOrchestrator(api, local, rec, t.TempDir())
	orch.ListProjects(context.Background(), syncapi.ListProjectsParams{})

	require.Len(t, got, 2)
	byName := map[string]ProjectListing{}
	for _, item := range got {
		byName[item.Namespace+"/"+item.Name] = item
	}
	assert.True(t, byName["acme/widgets"].HasLocalClone)
	assert.False(t, byName["acme/gadgets"].HasLocalClone)
}

// recordingEmitter captures the ListProjectsFinished/Failed and
// AuthRequested calls a test cares about and no-ops everything else via
// NoopEmitter.
type recordingEmitter struct {
	NoopEmitter
	onFinished      func(items []ProjectListing)
	onFailed        func(err error)
	onAuthRequested func(fullName string)
}

func (r *recordingEmitter) ListProjectsFinished(items []ProjectListing) {
	if r.onFinished != nil {
		r.onFinished(items)
	}
}

func (r *recordingEmitter) ListProjectsFailed(err error) {
	if r.onFailed != nil {
		r.onFailed(err)
	}
}

func (r *recordingEmitter) AuthRequested(fullName string) {
	if r.onAuthRequested != nil {
		r.onAuthRequested(fullName)
	}
}

func TestOrchestrator_UpdateCancel_IsIdempotentForUnknownProject(t *testing.T) {
	api := syncapi.New("http://127.0.0.1:0", syncapi.StaticCredentials(""), "test-client")
	defer api.Close()

	orch := NewOrchestrator(api, newFakeLocalProjects(), NoopEmitter{}, t.TempDir())
	// No transaction is in flight; cancelling must not panic or block.
	orch.UpdateCancel("acme/widgets")
	orch.UploadCancel("acme/widgets")
}
