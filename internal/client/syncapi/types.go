package syncapi

import "github.com/openmined/projectsync/internal/client/project"

// ServerFileEntry is the wire shape of one file in a metadata response; it
// mirrors project.FileEntry exactly but is kept separate so the wire
// contract can evolve independently of the in-memory model.
type ServerFileEntry struct {
	Path     string   `json:"path"`
	Size     int64    `json:"size"`
	Checksum string   `json:"checksum"`
	Chunks   []string `json:"chunks"`
}

// ProjectInfo is the response body of GET /v1/project/{ns}/{name}.
type ProjectInfo struct {
	Name      string            `json:"name"`
	Namespace string            `json:"namespace"`
	Version   string            `json:"version"` // "v{N}"
	Files     []ServerFileEntry `json:"files"`
}

// ProjectListItem is one entry of GET /v1/project.
type ProjectListItem struct {
	Name      string `json:"name"`
	Namespace string `json:"namespace"`
	Version   string `json:"version"`
}

// UploadFileChange is one file entry inside an UploadChanges body.
type UploadFileChange struct {
	Path     string   `json:"path"`
	Size     int64    `json:"size"`
	Checksum string   `json:"checksum"`
	Chunks   []string `json:"chunks"`
}

// RemovedFileChange is one deleted-file entry inside an UploadChanges body.
type RemovedFileChange struct {
	Path string `json:"path"`
}

// UploadChanges is the push start request body.
type UploadChanges struct {
	Version string               `json:"version"`
	Added   []UploadFileChange   `json:"added"`
	Updated []UploadFileChange   `json:"updated"`
	Removed []RemovedFileChange  `json:"removed"`
}

// PushStartResponse is the reply to POST /v1/project/push/{ns}/{name}.
type PushStartResponse struct {
	Transaction string `json:"transaction"`
	Version     string `json:"version"`
}

// PushFinishResponse is the reply to POST /v1/project/push/finish/{uuid}:
// the server's new canonical metadata.
type PushFinishResponse = ProjectInfo

// LoginRequest is the body of POST /v1/auth/login.
type LoginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// LoginResponse carries the bearer token issued by the server.
type LoginResponse struct {
	Token string `json:"token"`
}

// PingResponse is the body of GET /ping.
type PingResponse struct {
	Version string `json:"version"`
}

// APIVersionStatus classifies the client/server version compatibility
// observed from /ping.
type APIVersionStatus string

const (
	APIVersionUnknown      APIVersionStatus = "UNKNOWN"
	APIVersionOK           APIVersionStatus = "OK"
	APIVersionIncompatible APIVersionStatus = "INCOMPATIBLE"
	APIVersionNotFound     APIVersionStatus = "NOT_FOUND"
)

// ToMetadata converts a wire ProjectInfo into the in-memory
// project.ProjectMetadata, parsing its "v{N}" version string.
func (p *ProjectInfo) ToMetadata() (*project.ProjectMetadata, error) {
	n, err := parseVersion(p.Version)
	if err != nil {
		return nil, err
	}

	files := project.FileList{}
	for _, f := range p.Files {
		files[f.Path] = project.FileEntry{
			Path:     f.Path,
			Size:     f.Size,
			Checksum: f.Checksum,
			Chunks:   f.Chunks,
		}
	}

	return &project.ProjectMetadata{Version: n, Files: files}, nil
}

// UploadChangesFromDiff builds the push start request body from a diff and
// the current local file list, walking paths in stable sorted order so
// repeated runs over the same diff produce byte-identical request bodies.
func UploadChangesFromDiff(version int, diff *project.ProjectDiff, local project.FileList) UploadChanges {
	uc := UploadChanges{Version: formatVersion(version)}

	for _, p := range sortedKeys(diff.LocalAdded) {
		uc.Added = append(uc.Added, toUploadChange(local[p]))
	}
	for _, p := range sortedKeys(diff.LocalUpdated) {
		uc.Updated = append(uc.Updated, toUploadChange(local[p]))
	}
	for _, p := range sortedKeys(diff.LocalDeleted) {
		uc.Removed = append(uc.Removed, RemovedFileChange{Path: p})
	}

	return uc
}

func toUploadChange(f project.FileEntry) UploadFileChange {
	return UploadFileChange{Path: f.Path, Size: f.Size, Checksum: f.Checksum, Chunks: f.Chunks}
}
