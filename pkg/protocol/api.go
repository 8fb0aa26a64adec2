// Package protocol defines the API request/response types.
package protocol

import (
	"net/url"
	"strconv"

	"github.com/fruitsalade/explorer/pkg/models"
)

// Response is the envelope every endpoint answers with.
type Response[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Pagination describes one page of a list endpoint.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

// PaginatedResponse is returned by GET /folders and GET /files.
type PaginatedResponse[T any] struct {
	Success    bool       `json:"success"`
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
	Message    string     `json:"message,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// Page is a decoded page of results.
type Page[T any] struct {
	Items      []T
	Page       int
	Limit      int
	Total      int
	TotalPages int
}

// PageOf unwraps a paginated response.
func PageOf[T any](r PaginatedResponse[T]) *Page[T] {
	return &Page[T]{
		Items:      r.Data,
		Page:       r.Pagination.Page,
		Limit:      r.Pagination.Limit,
		Total:      r.Pagination.Total,
		TotalPages: r.Pagination.TotalPages,
	}
}

// SortOrder is the direction of a sorted listing.
type SortOrder string

const (
	Ascending  SortOrder = "ASC"
	Descending SortOrder = "DESC"
)

// Reverse returns the opposite direction.
func (o SortOrder) Reverse() SortOrder {
	if o == Descending {
		return Ascending
	}
	return Descending
}

// ListParams are the query parameters of the list endpoints. Zero values are
// omitted from the query string.
type ListParams struct {
	Page      int
	Limit     int
	Search    string
	SortBy    string
	SortOrder SortOrder
}

// Values encodes the params as a query string.
func (p ListParams) Values() url.Values {
	v := url.Values{}
	if p.Page > 0 {
		v.Set("page", strconv.Itoa(p.Page))
	}
	if p.Limit > 0 {
		v.Set("limit", strconv.Itoa(p.Limit))
	}
	if p.Search != "" {
		v.Set("search", p.Search)
	}
	if p.SortBy != "" {
		v.Set("sortBy", p.SortBy)
	}
	if p.SortOrder != "" {
		v.Set("sortOrder", string(p.SortOrder))
	}
	return v
}

// CreateFolderRequest is the body for POST /folders.
type CreateFolderRequest struct {
	Name     string `json:"name"`
	Path     string `json:"path"`
	ParentID *int64 `json:"parent_id,omitempty"`
}

// UpdateFolderRequest is the body for PUT /folders/{id}. Nil fields are left
// unchanged.
type UpdateFolderRequest struct {
	Name     *string `json:"name,omitempty"`
	Path     *string `json:"path,omitempty"`
	ParentID *int64  `json:"parent_id,omitempty"`
}

// FolderContents is returned by GET /folders/{id}/contents.
type FolderContents struct {
	Folders []models.Folder `json:"folders"`
	Files   []models.File   `json:"files"`
}

// CreateFileRequest is the body for POST /files.
type CreateFileRequest struct {
	Name      string  `json:"name"`
	Path      string  `json:"path"`
	FolderID  *int64  `json:"folder_id,omitempty"`
	Extension *string `json:"extension,omitempty"`
	Size      *int64  `json:"size,omitempty"`
	MimeType  *string `json:"mime_type,omitempty"`
}

// UpdateFileRequest is the body for PUT /files/{id}.
type UpdateFileRequest struct {
	Name      *string `json:"name,omitempty"`
	Path      *string `json:"path,omitempty"`
	FolderID  *int64  `json:"folder_id,omitempty"`
	Extension *string `json:"extension,omitempty"`
	Size      *int64  `json:"size,omitempty"`
	MimeType  *string `json:"mime_type,omitempty"`
}

// MoveFileRequest is the body for POST /files/{id}/move. A null folder_id
// moves the file to the unfiled root.
type MoveFileRequest struct {
	FolderID *int64 `json:"folder_id"`
}

// ExtensionStats is one row of the storage breakdown.
type ExtensionStats struct {
	Extension string `json:"extension"`
	Count     int    `json:"count"`
	TotalSize int64  `json:"total_size"`
}

// StorageStats is returned by GET /files/stats/storage.
type StorageStats struct {
	TotalSize   int64            `json:"total_size"`
	TotalFiles  int              `json:"total_files"`
	ByExtension []ExtensionStats `json:"by_extension"`
}

// AddFavoriteRequest is the body for POST /favorites.
type AddFavoriteRequest struct {
	ItemType models.ItemType `json:"item_type"`
	ItemID   int64           `json:"item_id"`
}

// FavoriteCheck is returned by GET /favorites/check/{itemType}/{itemId}.
type FavoriteCheck struct {
	IsFavorite bool `json:"is_favorite"`
}

// OK reports whether the server flagged the call as successful.
func (r Response[T]) OK() bool { return r.Success }

// Reason is the server's explanation for a failure, if any.
func (r Response[T]) Reason() string { return reason(r.Error, r.Message) }

// OK reports whether the server flagged the call as successful.
func (r PaginatedResponse[T]) OK() bool { return r.Success }

// Reason is the server's explanation for a failure, if any.
func (r PaginatedResponse[T]) Reason() string { return reason(r.Error, r.Message) }

func reason(errMsg, message string) string {
	if errMsg != "" {
		return errMsg
	}
	return message
}
