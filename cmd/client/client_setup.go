package main

import (
	"fmt"
	"path/filepath"

	"github.com/openmined/projectsync/internal/client/registry"
	"github.com/openmined/projectsync/internal/client/sync"
	"github.com/openmined/projectsync/internal/client/syncapi"
)

// syncSession bundles the collaborators one CLI invocation needs to drive
// the sync engine, and their teardown.
type syncSession struct {
	API          *syncapi.Client
	Registry     *registry.Store
	Orchestrator *sync.Orchestrator
}

func (s *syncSession) Close() {
	s.API.Close()
	s.Registry.Close()
}

func newSyncSession(apiRoot, token, dataDir string, emit sync.Emitter) (*syncSession, error) {
	api := syncapi.New(apiRoot, syncapi.StaticCredentials(token), machineClientID())

	dbPath := filepath.Join(dataDir, ".projectsync.db")
	store, err := registry.Open(dbPath)
	if err != nil {
		api.Close()
		return nil, fmt.Errorf("open local project registry: %w", err)
	}

	orch := sync.NewOrchestrator(api, store, emit, dataDir)

	return &syncSession{API: api, Registry: store, Orchestrator: orch}, nil
}
