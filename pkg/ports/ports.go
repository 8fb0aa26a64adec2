// Package ports declares the remote operations the explorer depends on.
// Implementations may fail with any error; callers treat failures as opaque
// and do not retry.
package ports

import (
	"context"
	"errors"

	"github.com/fruitsalade/explorer/pkg/models"
	"github.com/fruitsalade/explorer/pkg/protocol"
)

// ErrNotFound is matched by errors.Is when a call fails because the
// requested item does not exist.
var ErrNotFound = errors.New("not found")

// FolderPort queries and mutates folders.
type FolderPort interface {
	List(ctx context.Context, params protocol.ListParams) (*protocol.Page[models.Folder], error)
	Get(ctx context.Context, id int64) (*models.Folder, error)
	// Contents returns the immediate child folders and files of a folder.
	Contents(ctx context.Context, id int64) (*protocol.FolderContents, error)
	// Tree returns the full folder hierarchy as nested roots.
	Tree(ctx context.Context) ([]*models.Folder, error)
	Create(ctx context.Context, req protocol.CreateFolderRequest) (*models.Folder, error)
	Update(ctx context.Context, id int64, req protocol.UpdateFolderRequest) (*models.Folder, error)
	Delete(ctx context.Context, id int64) error
}

// FilePort queries and mutates files.
type FilePort interface {
	List(ctx context.Context, params protocol.ListParams) (*protocol.Page[models.File], error)
	Get(ctx context.Context, id int64) (*models.File, error)
	ByFolder(ctx context.Context, folderID int64) ([]models.File, error)
	ByExtension(ctx context.Context, ext string) ([]models.File, error)
	Stats(ctx context.Context) (*protocol.StorageStats, error)
	Create(ctx context.Context, req protocol.CreateFileRequest) (*models.File, error)
	Update(ctx context.Context, id int64, req protocol.UpdateFileRequest) (*models.File, error)
	// Move reassigns the owning folder; a nil folderID unfiles the file.
	Move(ctx context.Context, id int64, folderID *int64) (*models.File, error)
	Delete(ctx context.Context, id int64) error
}

// FavoritePort manages favorites.
type FavoritePort interface {
	List(ctx context.Context) ([]models.Favorite, error)
	Add(ctx context.Context, ref models.ItemRef) (*models.Favorite, error)
	Remove(ctx context.Context, id int64) error
	Check(ctx context.Context, ref models.ItemRef) (bool, error)
}

// Remote bundles the three port surfaces.
type Remote struct {
	Folders   FolderPort
	Files     FilePort
	Favorites FavoritePort
}
