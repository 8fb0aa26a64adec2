package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/fruitsalade/explorer/pkg/models"
	"github.com/fruitsalade/explorer/pkg/protocol"
)

// FolderService implements ports.FolderPort.
type FolderService struct {
	c *Client
}

// Folders returns the folder endpoints.
func (c *Client) Folders() *FolderService {
	return &FolderService{c: c}
}

// List fetches one page of folders.
func (s *FolderService) List(ctx context.Context, params protocol.ListParams) (*protocol.Page[models.Folder], error) {
	return callPage[models.Folder](ctx, s.c, "folders.list", "/folders", params)
}

// Get fetches a folder by id.
func (s *FolderService) Get(ctx context.Context, id int64) (*models.Folder, error) {
	f, err := call[models.Folder](ctx, s.c, "folders.get", http.MethodGet, fmt.Sprintf("/folders/%d", id), nil, nil)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Contents fetches the immediate children of a folder.
func (s *FolderService) Contents(ctx context.Context, id int64) (*protocol.FolderContents, error) {
	contents, err := call[protocol.FolderContents](ctx, s.c, "folders.contents", http.MethodGet, fmt.Sprintf("/folders/%d/contents", id), nil, nil)
	if err != nil {
		return nil, err
	}
	return &contents, nil
}

// Tree fetches the whole folder hierarchy.
func (s *FolderService) Tree(ctx context.Context) ([]*models.Folder, error) {
	return call[[]*models.Folder](ctx, s.c, "folders.tree", http.MethodGet, "/folders/tree/all", nil, nil)
}

// Create creates a folder.
func (s *FolderService) Create(ctx context.Context, req protocol.CreateFolderRequest) (*models.Folder, error) {
	f, err := call[models.Folder](ctx, s.c, "folders.create", http.MethodPost, "/folders", nil, req)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Update applies a partial update to a folder.
func (s *FolderService) Update(ctx context.Context, id int64, req protocol.UpdateFolderRequest) (*models.Folder, error) {
	f, err := call[models.Folder](ctx, s.c, "folders.update", http.MethodPut, fmt.Sprintf("/folders/%d", id), nil, req)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Delete removes a folder.
func (s *FolderService) Delete(ctx context.Context, id int64) error {
	_, err := call[json.RawMessage](ctx, s.c, "folders.delete", http.MethodDelete, fmt.Sprintf("/folders/%d", id), nil, nil)
	return err
}
