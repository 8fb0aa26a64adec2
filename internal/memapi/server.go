package memapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/fruitsalade/explorer/internal/logging"
	"github.com/fruitsalade/explorer/internal/metrics"
	"github.com/fruitsalade/explorer/pkg/models"
	"github.com/fruitsalade/explorer/pkg/protocol"
)

// Server is the HTTP front of a Store.
type Server struct {
	store  *Store
	log    *zap.Logger
	router chi.Router
}

// New creates a server over store and registers its routes.
func New(store *Store) *Server {
	s := &Server{
		store: store,
		log:   logging.Named("memapi"),
	}
	s.setupRoutes()
	return s
}

// Store returns the backing store.
func (s *Server) Store() *Store { return s.store }

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.CleanPath)
	r.Use(logging.Middleware)
	r.Use(metrics.Middleware(routePattern))

	r.Get("/health", s.handleHealth)

	r.Route("/folders", func(r chi.Router) {
		r.Get("/", s.handleListFolders)
		r.Post("/", s.handleCreateFolder)
		r.Get("/tree/all", s.handleFolderTree)
		r.Get("/{id}", s.handleGetFolder)
		r.Put("/{id}", s.handleUpdateFolder)
		r.Delete("/{id}", s.handleDeleteFolder)
		r.Get("/{id}/contents", s.handleFolderContents)
	})

	r.Route("/files", func(r chi.Router) {
		r.Get("/", s.handleListFiles)
		r.Post("/", s.handleCreateFile)
		r.Get("/stats/storage", s.handleStorageStats)
		r.Get("/folder/{folderId}", s.handleFilesByFolder)
		r.Get("/extension/{ext}", s.handleFilesByExtension)
		r.Get("/{id}", s.handleGetFile)
		r.Put("/{id}", s.handleUpdateFile)
		r.Delete("/{id}", s.handleDeleteFile)
		r.Post("/{id}/move", s.handleMoveFile)
	})

	r.Route("/favorites", func(r chi.Router) {
		r.Get("/", s.handleListFavorites)
		r.Post("/", s.handleAddFavorite)
		r.Delete("/{id}", s.handleRemoveFavorite)
		r.Get("/check/{itemType}/{itemId}", s.handleCheckFavorite)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.sendError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.sendError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	s.router = r
}

// routePattern labels metrics with the matched chi pattern.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// ─── Responses ──────────────────────────────────────────────────────────────

func (s *Server) sendJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Warn("encode response", zap.Error(err))
	}
}

func (s *Server) sendData(w http.ResponseWriter, code int, data any, message string) {
	s.sendJSON(w, code, protocol.Response[any]{Success: true, Data: data, Message: message})
}

func (s *Server) sendError(w http.ResponseWriter, code int, message string) {
	s.sendJSON(w, code, protocol.Response[any]{Success: false, Error: message})
}

// sendStoreError maps a store error to its status.
func (s *Server) sendStoreError(w http.ResponseWriter, r *http.Request, err error) {
	var se *statusError
	if errors.As(err, &se) {
		s.sendError(w, se.code, se.msg)
		return
	}
	logging.WithContext(r.Context()).Error("store failure", zap.Error(err))
	s.sendError(w, http.StatusInternalServerError, "internal error")
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	return id, err == nil && id > 0
}

func decodeBody(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func listParams(r *http.Request) protocol.ListParams {
	q := r.URL.Query()
	p := protocol.ListParams{
		Search:    q.Get("search"),
		SortBy:    q.Get("sortBy"),
		SortOrder: protocol.SortOrder(strings.ToUpper(q.Get("sortOrder"))),
	}
	p.Page, _ = strconv.Atoi(q.Get("page"))
	p.Limit, _ = strconv.Atoi(q.Get("limit"))
	return p
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.sendData(w, http.StatusOK, map[string]string{"status": "ok"}, "")
}

// ─── Folders ────────────────────────────────────────────────────────────────

func (s *Server) handleListFolders(w http.ResponseWriter, r *http.Request) {
	folders, pg := s.store.ListFolders(listParams(r))
	if folders == nil {
		folders = []models.Folder{}
	}
	s.sendJSON(w, http.StatusOK, protocol.PaginatedResponse[models.Folder]{
		Success:    true,
		Data:       folders,
		Pagination: pg,
	})
}

func (s *Server) handleFolderTree(w http.ResponseWriter, r *http.Request) {
	s.sendData(w, http.StatusOK, s.store.Tree(), "")
}

func (s *Server) handleGetFolder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		s.sendError(w, http.StatusBadRequest, "invalid folder id")
		return
	}
	f, err := s.store.GetFolder(id)
	if err != nil {
		s.sendStoreError(w, r, err)
		return
	}
	s.sendData(w, http.StatusOK, f, "")
}

func (s *Server) handleFolderContents(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		s.sendError(w, http.StatusBadRequest, "invalid folder id")
		return
	}
	contents, err := s.store.Contents(id)
	if err != nil {
		s.sendStoreError(w, r, err)
		return
	}
	s.sendData(w, http.StatusOK, contents, "")
}

func (s *Server) handleCreateFolder(w http.ResponseWriter, r *http.Request) {
	var req protocol.CreateFolderRequest
	if err := decodeBody(r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	f, err := s.store.CreateFolder(req)
	if err != nil {
		s.sendStoreError(w, r, err)
		return
	}
	logging.WithContext(r.Context()).Info("folder created",
		zap.Int64("id", f.ID), zap.String("path", f.Path))
	s.sendData(w, http.StatusCreated, f, "Folder created successfully")
}

func (s *Server) handleUpdateFolder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		s.sendError(w, http.StatusBadRequest, "invalid folder id")
		return
	}
	var req protocol.UpdateFolderRequest
	if err := decodeBody(r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	f, err := s.store.UpdateFolder(id, req)
	if err != nil {
		s.sendStoreError(w, r, err)
		return
	}
	s.sendData(w, http.StatusOK, f, "Folder updated successfully")
}

func (s *Server) handleDeleteFolder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		s.sendError(w, http.StatusBadRequest, "invalid folder id")
		return
	}
	if err := s.store.DeleteFolder(id); err != nil {
		s.sendStoreError(w, r, err)
		return
	}
	logging.WithContext(r.Context()).Info("folder deleted", zap.Int64("id", id))
	s.sendData(w, http.StatusOK, nil, "Folder deleted successfully")
}

// ─── Files ──────────────────────────────────────────────────────────────────

func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	files, pg := s.store.ListFiles(listParams(r))
	if files == nil {
		files = []models.File{}
	}
	s.sendJSON(w, http.StatusOK, protocol.PaginatedResponse[models.File]{
		Success:    true,
		Data:       files,
		Pagination: pg,
	})
}

func (s *Server) handleGetFile(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		s.sendError(w, http.StatusBadRequest, "invalid file id")
		return
	}
	f, err := s.store.GetFile(id)
	if err != nil {
		s.sendStoreError(w, r, err)
		return
	}
	s.sendData(w, http.StatusOK, f, "")
}

func (s *Server) handleFilesByFolder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "folderId")
	if !ok {
		s.sendError(w, http.StatusBadRequest, "invalid folder id")
		return
	}
	files, err := s.store.FilesByFolder(id)
	if err != nil {
		s.sendStoreError(w, r, err)
		return
	}
	s.sendData(w, http.StatusOK, files, "")
}

func (s *Server) handleFilesByExtension(w http.ResponseWriter, r *http.Request) {
	ext := chi.URLParam(r, "ext")
	if ext == "" {
		s.sendError(w, http.StatusBadRequest, "extension is required")
		return
	}
	s.sendData(w, http.StatusOK, s.store.FilesByExtension(ext), "")
}

func (s *Server) handleStorageStats(w http.ResponseWriter, r *http.Request) {
	s.sendData(w, http.StatusOK, s.store.Stats(), "")
}

func (s *Server) handleCreateFile(w http.ResponseWriter, r *http.Request) {
	var req protocol.CreateFileRequest
	if err := decodeBody(r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	f, err := s.store.CreateFile(req)
	if err != nil {
		s.sendStoreError(w, r, err)
		return
	}
	logging.WithContext(r.Context()).Info("file created",
		zap.Int64("id", f.ID), zap.String("path", f.Path))
	s.sendData(w, http.StatusCreated, f, "File created successfully")
}

func (s *Server) handleUpdateFile(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		s.sendError(w, http.StatusBadRequest, "invalid file id")
		return
	}
	var req protocol.UpdateFileRequest
	if err := decodeBody(r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	f, err := s.store.UpdateFile(id, req)
	if err != nil {
		s.sendStoreError(w, r, err)
		return
	}
	s.sendData(w, http.StatusOK, f, "File updated successfully")
}

func (s *Server) handleMoveFile(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		s.sendError(w, http.StatusBadRequest, "invalid file id")
		return
	}
	var req protocol.MoveFileRequest
	if err := decodeBody(r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	f, err := s.store.MoveFile(id, req.FolderID)
	if err != nil {
		s.sendStoreError(w, r, err)
		return
	}
	s.sendData(w, http.StatusOK, f, "File moved successfully")
}

func (s *Server) handleDeleteFile(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		s.sendError(w, http.StatusBadRequest, "invalid file id")
		return
	}
	if err := s.store.DeleteFile(id); err != nil {
		s.sendStoreError(w, r, err)
		return
	}
	s.sendData(w, http.StatusOK, nil, "File deleted successfully")
}

// ─── Favorites ──────────────────────────────────────────────────────────────

func (s *Server) handleListFavorites(w http.ResponseWriter, r *http.Request) {
	s.sendData(w, http.StatusOK, s.store.Favorites(), "")
}

func (s *Server) handleAddFavorite(w http.ResponseWriter, r *http.Request) {
	var req protocol.AddFavoriteRequest
	if err := decodeBody(r, &req); err != nil {
		s.sendError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	fav, err := s.store.AddFavorite(models.ItemRef{Type: req.ItemType, ID: req.ItemID})
	if err != nil {
		s.sendStoreError(w, r, err)
		return
	}
	s.sendData(w, http.StatusCreated, fav, "Added to favorites")
}

func (s *Server) handleRemoveFavorite(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r, "id")
	if !ok {
		s.sendError(w, http.StatusBadRequest, "invalid favorite id")
		return
	}
	if err := s.store.RemoveFavorite(id); err != nil {
		s.sendStoreError(w, r, err)
		return
	}
	s.sendData(w, http.StatusOK, nil, "Removed from favorites")
}

func (s *Server) handleCheckFavorite(w http.ResponseWriter, r *http.Request) {
	itemType, err := models.ParseItemType(chi.URLParam(r, "itemType"))
	if err != nil {
		s.sendError(w, http.StatusBadRequest, err.Error())
		return
	}
	id, ok := pathID(r, "itemId")
	if !ok {
		s.sendError(w, http.StatusBadRequest, "invalid item id")
		return
	}
	ref := models.ItemRef{Type: itemType, ID: id}
	s.sendData(w, http.StatusOK, protocol.FavoriteCheck{IsFavorite: s.store.IsFavorite(ref)}, "")
}
