package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/fruitsalade/explorer/pkg/models"
	"github.com/fruitsalade/explorer/pkg/protocol"
)

// FileService implements ports.FilePort.
type FileService struct {
	c *Client
}

// Files returns the file endpoints.
func (c *Client) Files() *FileService {
	return &FileService{c: c}
}

// List fetches one page of files.
func (s *FileService) List(ctx context.Context, params protocol.ListParams) (*protocol.Page[models.File], error) {
	return callPage[models.File](ctx, s.c, "files.list", "/files", params)
}

// Get fetches a file by id.
func (s *FileService) Get(ctx context.Context, id int64) (*models.File, error) {
	f, err := call[models.File](ctx, s.c, "files.get", http.MethodGet, fmt.Sprintf("/files/%d", id), nil, nil)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// ByFolder fetches the files owned by a folder.
func (s *FileService) ByFolder(ctx context.Context, folderID int64) ([]models.File, error) {
	return call[[]models.File](ctx, s.c, "files.by_folder", http.MethodGet, fmt.Sprintf("/files/folder/%d", folderID), nil, nil)
}

// ByExtension fetches files with the given extension.
func (s *FileService) ByExtension(ctx context.Context, ext string) ([]models.File, error) {
	return call[[]models.File](ctx, s.c, "files.by_extension", http.MethodGet, "/files/extension/"+url.PathEscape(ext), nil, nil)
}

// Stats fetches aggregate storage statistics.
func (s *FileService) Stats(ctx context.Context) (*protocol.StorageStats, error) {
	stats, err := call[protocol.StorageStats](ctx, s.c, "files.stats", http.MethodGet, "/files/stats/storage", nil, nil)
	if err != nil {
		return nil, err
	}
	return &stats, nil
}

// Create creates a file record.
func (s *FileService) Create(ctx context.Context, req protocol.CreateFileRequest) (*models.File, error) {
	f, err := call[models.File](ctx, s.c, "files.create", http.MethodPost, "/files", nil, req)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Update applies a partial update to a file.
func (s *FileService) Update(ctx context.Context, id int64, req protocol.UpdateFileRequest) (*models.File, error) {
	f, err := call[models.File](ctx, s.c, "files.update", http.MethodPut, fmt.Sprintf("/files/%d", id), nil, req)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Move reassigns the owning folder. A nil folderID unfiles the file.
func (s *FileService) Move(ctx context.Context, id int64, folderID *int64) (*models.File, error) {
	f, err := call[models.File](ctx, s.c, "files.move", http.MethodPost, fmt.Sprintf("/files/%d/move", id), nil,
		protocol.MoveFileRequest{FolderID: folderID})
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Delete removes a file.
func (s *FileService) Delete(ctx context.Context, id int64) error {
	_, err := call[json.RawMessage](ctx, s.c, "files.delete", http.MethodDelete, fmt.Sprintf("/files/%d", id), nil, nil)
	return err
}
