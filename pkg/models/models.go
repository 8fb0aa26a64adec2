// Package models contains the filesystem entity types shared by the explorer.
package models

import (
	"fmt"
	"time"
)

const (
	// RootFolderID is the id the remote store assigns to the root folder.
	RootFolderID int64 = 1
	// RootPath is the materialized path of the root folder.
	RootPath = "/"
)

// ItemType discriminates what a Favorite points at.
type ItemType string

const (
	ItemFile   ItemType = "file"
	ItemFolder ItemType = "folder"
)

// Valid reports whether t is one of the known item types.
func (t ItemType) Valid() bool {
	return t == ItemFile || t == ItemFolder
}

// ParseItemType parses "file" or "folder".
func ParseItemType(s string) (ItemType, error) {
	t := ItemType(s)
	if !t.Valid() {
		return "", fmt.Errorf("invalid item type %q", s)
	}
	return t, nil
}

// Item is the capability set shared by folders and files.
type Item interface {
	ItemID() int64
	ItemName() string
	ItemPath() string
	ItemType() ItemType
	ItemSize() int64
	ItemCreated() time.Time
	ItemUpdated() time.Time
}

// Folder is a directory in the virtual filesystem. Path is always the
// parent's path joined with Name; the root has no parent and path "/".
type Folder struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	ParentID  *int64    `json:"parent_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
	Children  []*Folder `json:"children,omitempty"`
}

// IsRoot reports whether the folder has no parent.
func (f Folder) IsRoot() bool { return f.ParentID == nil }

func (f Folder) ItemID() int64          { return f.ID }
func (f Folder) ItemName() string       { return f.Name }
func (f Folder) ItemPath() string       { return f.Path }
func (f Folder) ItemType() ItemType     { return ItemFolder }
func (f Folder) ItemSize() int64        { return 0 }
func (f Folder) ItemCreated() time.Time { return f.CreatedAt }
func (f Folder) ItemUpdated() time.Time { return f.UpdatedAt }

// File is a leaf entry. A nil FolderID means the file is unfiled.
type File struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	FolderID  *int64    `json:"folder_id"`
	Extension *string   `json:"extension"` // lower-case, no leading dot
	Size      int64     `json:"size"`
	MimeType  *string   `json:"mime_type"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (f File) ItemID() int64          { return f.ID }
func (f File) ItemName() string       { return f.Name }
func (f File) ItemPath() string       { return f.Path }
func (f File) ItemType() ItemType     { return ItemFile }
func (f File) ItemSize() int64        { return f.Size }
func (f File) ItemCreated() time.Time { return f.CreatedAt }
func (f File) ItemUpdated() time.Time { return f.UpdatedAt }

// Ext returns the extension or "" when unset.
func (f File) Ext() string {
	if f.Extension == nil {
		return ""
	}
	return *f.Extension
}

// ItemRef is a weak reference to a file or folder. The referent may no
// longer exist.
type ItemRef struct {
	Type ItemType `json:"item_type"`
	ID   int64    `json:"item_id"`
}

func (r ItemRef) String() string {
	return fmt.Sprintf("%s:%d", r.Type, r.ID)
}

// RefOf returns the reference for an item.
func RefOf(it Item) ItemRef {
	return ItemRef{Type: it.ItemType(), ID: it.ItemID()}
}

// Favorite is a bookmarked file or folder. Name and Path are cached at the
// time the favorite was created.
type Favorite struct {
	ID        int64     `json:"id"`
	ItemType  ItemType  `json:"item_type"`
	ItemID    int64     `json:"item_id"`
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
}

// Ref returns the reference this favorite points at.
func (f Favorite) Ref() ItemRef {
	return ItemRef{Type: f.ItemType, ID: f.ItemID}
}

// ID returns a pointer to id, for optional id fields.
func ID(id int64) *int64 {
	return &id
}

// String returns a pointer to s, for optional string fields.
func String(s string) *string {
	return &s
}
