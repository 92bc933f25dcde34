package syncapi

import (
	"context"
	"fmt"

	"github.com/openmined/projectsync/internal/client/project"
)

const (
	v1Project    = "/v1/project/%s/%s"
	v1ProjectAll = "/v1/project"
)

// ProjectFullName returns the "namespace/name" form used in log lines and
// the transaction registry key.
func ProjectFullName(namespace, name string) string {
	return namespace + "/" + name
}

// GetProjectInfo fetches the server's current metadata for one project,
// serving a cached copy when one is fresh enough.
func (c *Client) GetProjectInfo(ctx context.Context, namespace, name string) (*ProjectInfo, error) {
	key := ProjectFullName(namespace, name)
	if cached, ok := c.infoCache.Get(key); ok {
		return cached, nil
	}

	var info ProjectInfo

	_, err := c.do(ctx, "get project info", func(ctx context.Context) (*reqResponse, error) {
		return c.request(ctx).
			SetSuccessResult(&info).
			SetErrorResult(&APIError{}).
			Get(fmt.Sprintf(v1Project, namespace, name))
	})
	if err != nil {
		return nil, fmt.Errorf("syncapi: get project info %s/%s: %w", namespace, name, err)
	}

	c.infoCache.Add(key, &info)
	return &info, nil
}

// ListProjects fetches the project listing.
func (c *Client) ListProjects(ctx context.Context, filter ListProjectsParams) ([]ProjectListItem, error) {
	var items []ProjectListItem

	_, err := c.do(ctx, "list projects", func(ctx context.Context) (*reqResponse, error) {
		r := c.request(ctx).SetSuccessResult(&items).SetErrorResult(&APIError{})
		if filter.Filter != "" {
			r.SetQueryParam("filter", filter.Filter)
		}
		if filter.User != "" {
			r.SetQueryParam("user", filter.User)
		}
		if filter.Flag != "" {
			r.SetQueryParam("flag", filter.Flag)
		}
		if filter.Tags != "" {
			r.SetQueryParam("tags", filter.Tags)
		}
		return r.Get(v1ProjectAll)
	})
	if err != nil {
		return nil, fmt.Errorf("syncapi: list projects: %w", err)
	}

	return items, nil
}

// ListProjectsParams are the query parameters accepted by GET /v1/project.
type ListProjectsParams struct {
	Filter string
	User   string
	Flag   string // "created" or "shared"
	Tags   string
}

// CreateProject issues the administrative POST /v1/project/{ns}/{name}.
func (c *Client) CreateProject(ctx context.Context, namespace, name string) error {
	_, err := c.do(ctx, "create project", func(ctx context.Context) (*reqResponse, error) {
		return c.request(ctx).
			SetErrorResult(&APIError{}).
			Post(fmt.Sprintf(v1Project, namespace, name))
	})
	if err != nil {
		return fmt.Errorf("syncapi: create project %s/%s: %w", namespace, name, err)
	}
	return nil
}

// DeleteProject issues the administrative DELETE /v1/project/{ns}/{name}.
func (c *Client) DeleteProject(ctx context.Context, namespace, name string) error {
	_, err := c.do(ctx, "delete project", func(ctx context.Context) (*reqResponse, error) {
		return c.request(ctx).
			SetErrorResult(&APIError{}).
			Delete(fmt.Sprintf(v1Project, namespace, name))
	})
	if err != nil {
		return fmt.Errorf("syncapi: delete project %s/%s: %w", namespace, name, err)
	}
	return nil
}

// ToFileList converts a ProjectInfo's wire file entries into a
// project.FileList, ignoring the version.
func (p *ProjectInfo) ToFileList() project.FileList {
	files := project.FileList{}
	for _, f := range p.Files {
		files[f.Path] = project.FileEntry{
			Path:     f.Path,
			Size:     f.Size,
			Checksum: f.Checksum,
			Chunks:   f.Chunks,
		}
	}
	return files
}
