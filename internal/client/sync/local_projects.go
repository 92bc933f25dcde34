package sync

import "github.com/openmined/projectsync/internal/client/syncapi"

// LocalProjectEntry is one row of the LocalProjects store.
type LocalProjectEntry struct {
	FullName string
	Dir      string
	Version  int
}

// LocalProjects is the registry of local clones the shell persists across
// runs. The core only ever reads/writes entries through this interface,
// never the storage directly.
type LocalProjects interface {
	Get(fullName string) (*LocalProjectEntry, bool)
	Upsert(entry LocalProjectEntry) error
	Remove(fullName string) error
	List() ([]LocalProjectEntry, error)
}

// ProjectListing is one server-visible project annotated with whether it
// already has a local clone, so a shell can render "clone" vs "sync".
type ProjectListing struct {
	syncapi.ProjectListItem
	HasLocalClone bool
}
