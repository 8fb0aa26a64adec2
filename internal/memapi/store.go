// Package memapi serves the explorer REST API from memory. It backs the
// development server and the client and session tests; nothing is persisted.
package memapi

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fruitsalade/explorer/pkg/explorer"
	"github.com/fruitsalade/explorer/pkg/format"
	"github.com/fruitsalade/explorer/pkg/models"
	"github.com/fruitsalade/explorer/pkg/protocol"
	"github.com/fruitsalade/explorer/pkg/tree"
)

// statusError carries the HTTP status a handler should answer with.
type statusError struct {
	code int
	msg  string
}

func (e *statusError) Error() string { return e.msg }

func notFound(msg string, args ...any) error {
	return &statusError{code: http.StatusNotFound, msg: fmt.Sprintf(msg, args...)}
}

func badRequest(msg string, args ...any) error {
	return &statusError{code: http.StatusBadRequest, msg: fmt.Sprintf(msg, args...)}
}

// Store holds folders, files and favorites. The root folder always exists.
type Store struct {
	mu        sync.RWMutex
	folders   map[int64]*models.Folder
	files     map[int64]*models.File
	favorites map[int64]*models.Favorite

	nextFolder   int64
	nextFile     int64
	nextFavorite int64

	now func() time.Time
}

// NewStore returns a store containing only the root folder.
func NewStore() *Store {
	s := &Store{
		folders:      make(map[int64]*models.Folder),
		files:        make(map[int64]*models.File),
		favorites:    make(map[int64]*models.Favorite),
		nextFolder:   models.RootFolderID + 1,
		nextFile:     1,
		nextFavorite: 1,
		now:          func() time.Time { return time.Now().UTC() },
	}
	ts := s.now()
	s.folders[models.RootFolderID] = &models.Folder{
		ID:        models.RootFolderID,
		Name:      "",
		Path:      models.RootPath,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	return s
}

// ─── Folders ────────────────────────────────────────────────────────────────

func (s *Store) allFolders() []models.Folder {
	out := make([]models.Folder, 0, len(s.folders))
	for _, f := range s.folders {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// ListFolders returns a page of folders.
func (s *Store) ListFolders(p protocol.ListParams) ([]models.Folder, protocol.Pagination) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]models.Item, 0, len(s.folders))
	for _, f := range s.allFolders() {
		items = append(items, f)
	}
	page, pg := paginate(items, p)
	return explorer.Split(page).Folders, pg
}

// GetFolder returns a folder by id.
func (s *Store) GetFolder(id int64) (models.Folder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.folders[id]
	if !ok {
		return models.Folder{}, notFound("folder %d not found", id)
	}
	return *f, nil
}

// Contents returns the direct child folders and files of a folder.
func (s *Store) Contents(id int64) (protocol.FolderContents, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.folders[id]; !ok {
		return protocol.FolderContents{}, notFound("folder %d not found", id)
	}
	out := protocol.FolderContents{Folders: []models.Folder{}, Files: []models.File{}}
	for _, f := range s.allFolders() {
		if f.ParentID != nil && *f.ParentID == id {
			out.Folders = append(out.Folders, f)
		}
	}
	out.Files = s.filesIn(&id)
	return out, nil
}

// Tree returns the folder hierarchy.
func (s *Store) Tree() []*models.Folder {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return tree.Nest(s.allFolders())
}

// CreateFolder adds a folder. An omitted parent means the root folder.
func (s *Store) CreateFolder(req protocol.CreateFolderRequest) (models.Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(req.Name) == "" {
		return models.Folder{}, badRequest("name is required")
	}
	parentID := models.RootFolderID
	if req.ParentID != nil {
		parentID = *req.ParentID
	}
	parent, ok := s.folders[parentID]
	if !ok {
		return models.Folder{}, badRequest("parent folder %d not found", parentID)
	}
	path := tree.BuildChildPath(parent.Path, req.Name)
	if req.Path != "" && req.Path != path {
		return models.Folder{}, badRequest("path %q does not match parent path %q", req.Path, path)
	}
	if s.siblingExists(parentID, req.Name, 0) {
		return models.Folder{}, badRequest("folder %q already exists", path)
	}

	ts := s.now()
	f := &models.Folder{
		ID:        s.nextFolder,
		Name:      req.Name,
		Path:      path,
		ParentID:  models.ID(parentID),
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	s.nextFolder++
	s.folders[f.ID] = f
	return *f, nil
}

// siblingExists reports whether parentID already holds a folder called name,
// ignoring the folder with id except.
func (s *Store) siblingExists(parentID int64, name string, except int64) bool {
	for _, f := range s.folders {
		if f.ID != except && f.ParentID != nil && *f.ParentID == parentID && f.Name == name {
			return true
		}
	}
	return false
}

// UpdateFolder renames or re-parents a folder. The path is always derived;
// an explicit path must agree with it.
func (s *Store) UpdateFolder(id int64, req protocol.UpdateFolderRequest) (models.Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.folders[id]
	if !ok {
		return models.Folder{}, notFound("folder %d not found", id)
	}
	if f.IsRoot() {
		return models.Folder{}, badRequest("root folder cannot be modified")
	}

	name := f.Name
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return models.Folder{}, badRequest("name cannot be empty")
		}
		name = *req.Name
	}
	parentID := *f.ParentID
	if req.ParentID != nil {
		parentID = *req.ParentID
	}
	parent, ok := s.folders[parentID]
	if !ok {
		return models.Folder{}, badRequest("parent folder %d not found", parentID)
	}
	if parentID == id || s.isDescendant(parentID, id) {
		return models.Folder{}, badRequest("cannot move a folder into itself")
	}
	path := tree.BuildChildPath(parent.Path, name)
	if req.Path != nil && *req.Path != path {
		return models.Folder{}, badRequest("path %q does not match parent path %q", *req.Path, path)
	}
	if (name != f.Name || parentID != *f.ParentID) && s.siblingExists(parentID, name, id) {
		return models.Folder{}, badRequest("folder %q already exists", path)
	}

	f.Name = name
	f.ParentID = models.ID(parentID)
	f.UpdatedAt = s.now()
	if f.Path != path {
		f.Path = path
		s.rewritePaths(f)
	}
	return *f, nil
}

// isDescendant reports whether id lies under ancestor.
func (s *Store) isDescendant(id, ancestor int64) bool {
	for cur, ok := s.folders[id]; ok && cur.ParentID != nil; cur, ok = s.folders[*cur.ParentID] {
		if *cur.ParentID == ancestor {
			return true
		}
	}
	return false
}

// rewritePaths re-derives the paths of everything below f.
func (s *Store) rewritePaths(f *models.Folder) {
	for _, file := range s.files {
		if file.FolderID != nil && *file.FolderID == f.ID {
			file.Path = tree.BuildChildPath(f.Path, file.Name)
		}
	}
	for _, child := range s.folders {
		if child.ParentID != nil && *child.ParentID == f.ID {
			child.Path = tree.BuildChildPath(f.Path, child.Name)
			s.rewritePaths(child)
		}
	}
}

// DeleteFolder removes a folder with all its descendants and their files.
// Favorites pointing at them are left in place.
func (s *Store) DeleteFolder(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.folders[id]
	if !ok {
		return notFound("folder %d not found", id)
	}
	if f.IsRoot() {
		return badRequest("root folder cannot be deleted")
	}
	s.deleteRecursive(id)
	return nil
}

func (s *Store) deleteRecursive(id int64) {
	for childID, child := range s.folders {
		if child.ParentID != nil && *child.ParentID == id {
			s.deleteRecursive(childID)
		}
	}
	for fileID, file := range s.files {
		if file.FolderID != nil && *file.FolderID == id {
			delete(s.files, fileID)
		}
	}
	delete(s.folders, id)
}

// ─── Files ──────────────────────────────────────────────────────────────────

func (s *Store) allFiles() []models.File {
	out := make([]models.File, 0, len(s.files))
	for _, f := range s.files {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// filesIn returns files owned by folderID; nil selects unfiled files.
func (s *Store) filesIn(folderID *int64) []models.File {
	out := []models.File{}
	for _, f := range s.allFiles() {
		switch {
		case folderID == nil && f.FolderID == nil:
			out = append(out, f)
		case folderID != nil && f.FolderID != nil && *f.FolderID == *folderID:
			out = append(out, f)
		}
	}
	return out
}

// ListFiles returns a page of files.
func (s *Store) ListFiles(p protocol.ListParams) ([]models.File, protocol.Pagination) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]models.Item, 0, len(s.files))
	for _, f := range s.allFiles() {
		items = append(items, f)
	}
	page, pg := paginate(items, p)
	return explorer.Split(page).Files, pg
}

// GetFile returns a file by id.
func (s *Store) GetFile(id int64) (models.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.files[id]
	if !ok {
		return models.File{}, notFound("file %d not found", id)
	}
	return *f, nil
}

// FilesByFolder returns the files of an existing folder.
func (s *Store) FilesByFolder(folderID int64) ([]models.File, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.folders[folderID]; !ok {
		return nil, notFound("folder %d not found", folderID)
	}
	return s.filesIn(&folderID), nil
}

// FilesByExtension returns files whose extension matches ext, ignoring case.
func (s *Store) FilesByExtension(ext string) []models.File {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	out := []models.File{}
	for _, f := range s.allFiles() {
		if f.Ext() == ext {
			out = append(out, f)
		}
	}
	return out
}

// Stats aggregates sizes and counts per extension, largest first.
func (s *Store) Stats() protocol.StorageStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := protocol.StorageStats{ByExtension: []protocol.ExtensionStats{}}
	byExt := make(map[string]*protocol.ExtensionStats)
	for _, f := range s.files {
		stats.TotalSize += f.Size
		stats.TotalFiles++
		ext := f.Ext()
		row, ok := byExt[ext]
		if !ok {
			row = &protocol.ExtensionStats{Extension: ext}
			byExt[ext] = row
		}
		row.Count++
		row.TotalSize += f.Size
	}
	for _, row := range byExt {
		stats.ByExtension = append(stats.ByExtension, *row)
	}
	sort.Slice(stats.ByExtension, func(i, j int) bool {
		a, b := stats.ByExtension[i], stats.ByExtension[j]
		if a.TotalSize != b.TotalSize {
			return a.TotalSize > b.TotalSize
		}
		return a.Extension < b.Extension
	})
	return stats
}

func (s *Store) filePath(folderID *int64, name string) (string, error) {
	if folderID == nil {
		return tree.BuildChildPath(models.RootPath, name), nil
	}
	folder, ok := s.folders[*folderID]
	if !ok {
		return "", badRequest("folder %d not found", *folderID)
	}
	return tree.BuildChildPath(folder.Path, name), nil
}

// CreateFile adds a file record. Missing extension and MIME type are derived
// from the name; an explicit path must agree with the folder's.
func (s *Store) CreateFile(req protocol.CreateFileRequest) (models.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(req.Name) == "" {
		return models.File{}, badRequest("name is required")
	}
	path, err := s.filePath(req.FolderID, req.Name)
	if err != nil {
		return models.File{}, err
	}
	if req.Path != "" && req.Path != path {
		return models.File{}, badRequest("path %q does not match folder path %q", req.Path, path)
	}
	var size int64
	if req.Size != nil {
		if *req.Size < 0 {
			return models.File{}, badRequest("size cannot be negative")
		}
		size = *req.Size
	}
	ext := req.Extension
	if ext == nil {
		ext = format.Extension(req.Name)
	} else {
		ext = models.String(strings.ToLower(strings.TrimPrefix(*ext, ".")))
	}
	mime := req.MimeType
	if mime == nil && ext != nil {
		mime = models.String(format.MimeType(ext))
	}

	ts := s.now()
	f := &models.File{
		ID:        s.nextFile,
		Name:      req.Name,
		Path:      path,
		FolderID:  copyID(req.FolderID),
		Extension: ext,
		Size:      size,
		MimeType:  mime,
		CreatedAt: ts,
		UpdatedAt: ts,
	}
	s.nextFile++
	s.files[f.ID] = f
	return *f, nil
}

// UpdateFile applies a partial update. Changing the name or folder re-derives
// the path; an explicit path must agree with it.
func (s *Store) UpdateFile(id int64, req protocol.UpdateFileRequest) (models.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.files[id]
	if !ok {
		return models.File{}, notFound("file %d not found", id)
	}
	updated := *f
	relocate := false
	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return models.File{}, badRequest("name cannot be empty")
		}
		updated.Name = *req.Name
		relocate = true
	}
	if req.FolderID != nil {
		updated.FolderID = copyID(req.FolderID)
		relocate = true
	}
	if req.Extension != nil {
		updated.Extension = models.String(strings.ToLower(strings.TrimPrefix(*req.Extension, ".")))
	}
	if req.Size != nil {
		if *req.Size < 0 {
			return models.File{}, badRequest("size cannot be negative")
		}
		updated.Size = *req.Size
	}
	if req.MimeType != nil {
		updated.MimeType = models.String(*req.MimeType)
	}
	if relocate || req.Path != nil {
		path, err := s.filePath(updated.FolderID, updated.Name)
		if err != nil {
			return models.File{}, err
		}
		if req.Path != nil && *req.Path != path {
			return models.File{}, badRequest("path %q does not match folder path %q", *req.Path, path)
		}
		updated.Path = path
	}
	updated.UpdatedAt = s.now()
	*f = updated
	return updated, nil
}

// MoveFile reassigns a file's folder; nil unfiles it.
func (s *Store) MoveFile(id int64, folderID *int64) (models.File, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, ok := s.files[id]
	if !ok {
		return models.File{}, notFound("file %d not found", id)
	}
	path, err := s.filePath(folderID, f.Name)
	if err != nil {
		return models.File{}, err
	}
	f.FolderID = copyID(folderID)
	f.Path = path
	f.UpdatedAt = s.now()
	return *f, nil
}

// DeleteFile removes a file. Favorites pointing at it are left in place.
func (s *Store) DeleteFile(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.files[id]; !ok {
		return notFound("file %d not found", id)
	}
	delete(s.files, id)
	return nil
}

// ─── Favorites ──────────────────────────────────────────────────────────────

// lookup resolves a reference; ok is false when the item is gone.
func (s *Store) lookup(ref models.ItemRef) (models.Item, bool) {
	switch ref.Type {
	case models.ItemFolder:
		if f, ok := s.folders[ref.ID]; ok {
			return *f, true
		}
	case models.ItemFile:
		if f, ok := s.files[ref.ID]; ok {
			return *f, true
		}
	}
	return nil, false
}

// Favorites returns all favorites, newest first, dangling ones included.
func (s *Store) Favorites() []models.Favorite {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Favorite, 0, len(s.favorites))
	for _, f := range s.favorites {
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

// AddFavorite favorites an existing item. Adding twice returns the existing
// favorite.
func (s *Store) AddFavorite(ref models.ItemRef) (models.Favorite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !ref.Type.Valid() {
		return models.Favorite{}, badRequest("invalid item type %q", ref.Type)
	}
	item, ok := s.lookup(ref)
	if !ok {
		return models.Favorite{}, notFound("%s %d not found", ref.Type, ref.ID)
	}
	for _, f := range s.favorites {
		if f.Ref() == ref {
			return *f, nil
		}
	}
	fav := &models.Favorite{
		ID:        s.nextFavorite,
		ItemType:  ref.Type,
		ItemID:    ref.ID,
		Name:      item.ItemName(),
		Path:      item.ItemPath(),
		CreatedAt: s.now(),
	}
	s.nextFavorite++
	s.favorites[fav.ID] = fav
	return *fav, nil
}

// RemoveFavorite deletes a favorite by id.
func (s *Store) RemoveFavorite(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.favorites[id]; !ok {
		return notFound("favorite %d not found", id)
	}
	delete(s.favorites, id)
	return nil
}

// IsFavorite reports whether ref is favorited and still exists.
func (s *Store) IsFavorite(ref models.ItemRef) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.lookup(ref); !ok {
		return false
	}
	for _, f := range s.favorites {
		if f.Ref() == ref {
			return true
		}
	}
	return false
}

// ─── Helpers ────────────────────────────────────────────────────────────────

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// paginate filters, sorts and slices items according to p.
func paginate(items []models.Item, p protocol.ListParams) ([]models.Item, protocol.Pagination) {
	if p.Page < 1 {
		p.Page = defaultPage
	}
	if p.Limit < 1 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	if p.SortBy == "" {
		p.SortBy = "name"
	}
	if p.SortOrder != protocol.Descending {
		p.SortOrder = protocol.Ascending
	}

	items = explorer.FilterItems(items, p.Search)
	explorer.SortItems(items, p.SortBy, p.SortOrder)

	total := len(items)
	pg := protocol.Pagination{
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      total,
		TotalPages: (total + p.Limit - 1) / p.Limit,
	}
	start := (p.Page - 1) * p.Limit
	if start >= total {
		return nil, pg
	}
	end := start + p.Limit
	if end > total {
		end = total
	}
	return items[start:end], pg
}

func copyID(id *int64) *int64 {
	if id == nil {
		return nil
	}
	return models.ID(*id)
}
