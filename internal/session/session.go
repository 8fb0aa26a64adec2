// Package session drives one explorer view: it owns a navigation State,
// fetches listings through the remote ports and publishes every change.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fruitsalade/explorer/internal/events"
	"github.com/fruitsalade/explorer/internal/logging"
	"github.com/fruitsalade/explorer/internal/metrics"
	"github.com/fruitsalade/explorer/pkg/explorer"
	"github.com/fruitsalade/explorer/pkg/models"
	"github.com/fruitsalade/explorer/pkg/ports"
	"github.com/fruitsalade/explorer/pkg/protocol"
	"github.com/fruitsalade/explorer/pkg/tree"
)

var (
	// ErrNotInListing is returned when selecting an id that is not displayed.
	ErrNotInListing = errors.New("item is not in the current listing")
	// ErrNoFolder is returned by operations that need a folder context.
	ErrNoFolder = errors.New("no current folder")
	// ErrAmbiguousSelection is returned by delete and move when a selected id
	// names both a folder and a file in the listing.
	ErrAmbiguousSelection = errors.New("selected id matches both a folder and a file")
)

const (
	defaultPageLimit    = 50
	mutationConcurrency = 4
)

// Options configures a Session.
type Options struct {
	RootID    int64
	PageLimit int // page size of the global listing
	Events    *events.Broadcaster
}

// Session is safe for concurrent use; calls are serialized.
type Session struct {
	mu        sync.Mutex
	state     *explorer.State
	remote    ports.Remote
	events    *events.Broadcaster
	log       *zap.Logger
	rootID    int64
	pageLimit int

	raw     explorer.Listing // as fetched
	listing explorer.Listing // filtered and sorted for display
}

// New creates a session positioned at opts.RootID. Nothing is fetched until
// Open or Refresh is called.
func New(remote ports.Remote, opts Options) *Session {
	if opts.RootID <= 0 {
		opts.RootID = models.RootFolderID
	}
	if opts.PageLimit <= 0 {
		opts.PageLimit = defaultPageLimit
	}
	if opts.Events == nil {
		opts.Events = events.NewBroadcaster()
	}
	return &Session{
		state:     explorer.New(opts.RootID),
		remote:    remote,
		events:    opts.Events,
		log:       logging.Named("session"),
		rootID:    opts.RootID,
		pageLimit: opts.PageLimit,
	}
}

// Events returns the broadcaster the session publishes to.
func (s *Session) Events() *events.Broadcaster { return s.events }

// Snapshot copies the navigation state.
func (s *Session) Snapshot() explorer.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Snapshot()
}

// Listing returns the displayed listing.
func (s *Session) Listing() explorer.Listing {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.listing
}

func (s *Session) publish(kind string) {
	metrics.SetSelectionSize(s.state.SelectionCount())
	s.events.Publish(events.Event{Kind: kind, State: s.state.Snapshot()})
}

// ─── Navigation ─────────────────────────────────────────────────────────────

// Open moves to folderID. A nil id opens the global listing with no folder
// context. The state is only changed once the listing has been fetched; on
// error the session still shows the previous folder.
func (s *Session) Open(ctx context.Context, folderID *int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openLocked(ctx, folderID)
}

func (s *Session) openLocked(ctx context.Context, folderID *int64) error {
	raw, err := s.fetch(ctx, folderID)
	if err != nil {
		return fmt.Errorf("open folder %s: %w", folderLabel(folderID), err)
	}
	s.state.SetCurrentFolder(folderID)
	s.setListing(raw)
	s.log.Debug("opened folder",
		zap.String("folder", folderLabel(folderID)),
		zap.Int("entries", s.listing.Len()))
	s.publish(events.KindFolder)
	return nil
}

// Home opens the folder the session was created at.
func (s *Session) Home(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.openLocked(ctx, models.ID(s.rootID))
}

// Refresh re-fetches the current listing and drops selected ids that are no
// longer part of it.
func (s *Session) Refresh(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshLocked(ctx)
}

func (s *Session) refreshLocked(ctx context.Context) error {
	current := s.currentFolder()
	raw, err := s.fetch(ctx, current)
	if err != nil {
		return fmt.Errorf("refresh folder %s: %w", folderLabel(current), err)
	}
	s.setListing(raw)
	s.pruneSelection()
	s.publish(events.KindListing)
	return nil
}

// Up opens the parent of the current folder. At a top-level folder, or with
// no folder context, it does nothing.
func (s *Session) Up(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.state.CurrentFolderID()
	if !ok {
		return nil
	}
	folder, err := s.remote.Folders.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get folder %d: %w", id, err)
	}
	if folder.ParentID == nil {
		return nil
	}
	return s.openLocked(ctx, folder.ParentID)
}

// Sort applies SetSortBy: the same field reverses the order, a new field
// sorts ascending.
func (s *Session) Sort(ctx context.Context, field string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SetSortBy(field)
	s.publish(events.KindSort)
	return s.rearrangeLocked(ctx)
}

// Search filters the listing by name. The empty string clears the filter.
func (s *Session) Search(ctx context.Context, query string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SetSearchQuery(query)
	s.publish(events.KindSearch)
	return s.rearrangeLocked(ctx)
}

// rearrangeLocked re-applies sort and search. A folder listing is complete
// and is rearranged locally; the global listing is paged by the server and
// has to be fetched again.
func (s *Session) rearrangeLocked(ctx context.Context) error {
	if _, ok := s.state.CurrentFolderID(); !ok {
		return s.refreshLocked(ctx)
	}
	s.listing = s.state.Arrange(s.raw)
	metrics.SetListingSize(s.listing.Len())
	s.pruneSelection()
	s.publish(events.KindListing)
	return nil
}

// ToggleView flips between list and grid layout.
func (s *Session) ToggleView() explorer.ViewMode {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.ToggleViewMode()
	s.publish(events.KindView)
	return s.state.ViewMode()
}

// Breadcrumbs returns the folders from the top of the tree down to the
// current folder. It is empty without a folder context.
func (s *Session) Breadcrumbs(ctx context.Context) ([]models.Folder, error) {
	s.mu.Lock()
	id, ok := s.state.CurrentFolderID()
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}

	roots, err := s.remote.Folders.Tree(ctx)
	if err != nil {
		return nil, fmt.Errorf("load folder tree: %w", err)
	}
	chain := tree.Ancestors(roots, id)
	if chain == nil {
		return nil, fmt.Errorf("folder %d: %w", id, ports.ErrNotFound)
	}
	out := make([]models.Folder, len(chain))
	for i, f := range chain {
		out[i] = *f
		out[i].Children = nil
	}
	return out, nil
}

// Tree returns the whole folder hierarchy.
func (s *Session) Tree(ctx context.Context) ([]*models.Folder, error) {
	return s.remote.Folders.Tree(ctx)
}

// Stats returns storage statistics.
func (s *Session) Stats(ctx context.Context) (*protocol.StorageStats, error) {
	return s.remote.Files.Stats(ctx)
}

// ─── Selection ──────────────────────────────────────────────────────────────

// Toggle flips the selection of a displayed item.
func (s *Session) Toggle(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.listing.Find(id); !ok {
		return fmt.Errorf("toggle %d: %w", id, ErrNotInListing)
	}
	s.state.ToggleSelection(id)
	s.publish(events.KindSelection)
	return nil
}

// Select adds a displayed item to the selection.
func (s *Session) Select(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.listing.Find(id); !ok {
		return fmt.Errorf("select %d: %w", id, ErrNotInListing)
	}
	s.state.SelectItem(id)
	s.publish(events.KindSelection)
	return nil
}

// Deselect removes id from the selection.
func (s *Session) Deselect(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.DeselectItem(id)
	s.publish(events.KindSelection)
}

// ClearSelection empties the selection.
func (s *Session) ClearSelection() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.ClearSelection()
	s.publish(events.KindSelection)
}

// SelectAll adds every displayed item to the selection.
func (s *Session) SelectAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SelectAll(s.listing.Items())
	s.publish(events.KindSelection)
}

// Selected resolves the selection against the displayed listing. The
// selection holds bare ids, so an id matching both a folder and a file
// yields both. Delete and move refuse such a selection.
func (s *Session) Selected() []models.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedLocked()
}

func (s *Session) selectedLocked() []models.Item {
	var out []models.Item
	for _, it := range s.listing.Items() {
		if s.state.IsSelected(it.ItemID()) {
			out = append(out, it)
		}
	}
	return out
}

// ─── Mutations ──────────────────────────────────────────────────────────────

// CreateFolder creates name inside the current folder and refreshes.
func (s *Session) CreateFolder(ctx context.Context, name string) (*models.Folder, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.state.CurrentFolderID()
	if !ok {
		return nil, fmt.Errorf("create folder %q: %w", name, ErrNoFolder)
	}
	parent, err := s.remote.Folders.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get folder %d: %w", id, err)
	}
	folder, err := s.remote.Folders.Create(ctx, protocol.CreateFolderRequest{
		Name:     name,
		Path:     tree.BuildChildPath(parent.Path, name),
		ParentID: models.ID(parent.ID),
	})
	if err != nil {
		return nil, fmt.Errorf("create folder %q: %w", name, err)
	}
	s.log.Info("folder created", zap.Int64("id", folder.ID), zap.String("path", folder.Path))
	return folder, s.refreshLocked(ctx)
}

// DeleteSelected deletes every selected item and refreshes. It returns how
// many deletions succeeded; the first failure is returned after the refresh.
// Nothing is deleted if the selection is ambiguous.
func (s *Session) DeleteSelected(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.forEachSelected(ctx, func(ctx context.Context, it models.Item) (bool, error) {
		if it.ItemType() == models.ItemFolder {
			return true, s.remote.Folders.Delete(ctx, it.ItemID())
		}
		return true, s.remote.Files.Delete(ctx, it.ItemID())
	})
	s.log.Info("deleted selection", zap.Int("deleted", n), zap.Error(err))
	return n, errors.Join(err, s.refreshLocked(ctx))
}

// MoveSelectedFiles moves the selected files to dest; nil unfiles them.
// Selected folders are left alone. Nothing is moved if the selection is
// ambiguous.
func (s *Session) MoveSelectedFiles(ctx context.Context, dest *int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, err := s.forEachSelected(ctx, func(ctx context.Context, it models.Item) (bool, error) {
		if it.ItemType() != models.ItemFile {
			return false, nil
		}
		_, err := s.remote.Files.Move(ctx, it.ItemID(), dest)
		return true, err
	})
	s.log.Info("moved selection",
		zap.String("dest", folderLabel(dest)), zap.Int("moved", n), zap.Error(err))
	return n, errors.Join(err, s.refreshLocked(ctx))
}

// forEachSelected runs fn over the selected items with bounded concurrency.
// fn reports whether it acted on the item; the count of successful actions
// is returned.
func (s *Session) forEachSelected(ctx context.Context, fn func(context.Context, models.Item) (bool, error)) (int, error) {
	items := s.selectedLocked()
	if len(items) == 0 {
		return 0, nil
	}
	if id, ok := sharedID(items); ok {
		return 0, fmt.Errorf("item %d: %w", id, ErrAmbiguousSelection)
	}

	var (
		countMu sync.Mutex
		count   int
	)
	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(mutationConcurrency)
	for _, it := range items {
		eg.Go(func() error {
			acted, err := fn(egCtx, it)
			if err != nil {
				return fmt.Errorf("%s: %w", models.RefOf(it), err)
			}
			if acted {
				countMu.Lock()
				count++
				countMu.Unlock()
			}
			return nil
		})
	}
	err := eg.Wait()
	return count, err
}

// sharedID returns the first id carried by more than one item.
func sharedID(items []models.Item) (int64, bool) {
	seen := make(map[int64]bool, len(items))
	for _, it := range items {
		if seen[it.ItemID()] {
			return it.ItemID(), true
		}
		seen[it.ItemID()] = true
	}
	return 0, false
}

// ─── Favorites ──────────────────────────────────────────────────────────────

// Favorites lists favorites, including ones whose item no longer exists.
func (s *Session) Favorites(ctx context.Context) ([]models.Favorite, error) {
	return s.remote.Favorites.List(ctx)
}

// ToggleFavorite favorites ref, or unfavorites it if it already is one. It
// returns whether ref is a favorite afterwards.
func (s *Session) ToggleFavorite(ctx context.Context, ref models.ItemRef) (bool, error) {
	favorited, err := s.remote.Favorites.Check(ctx, ref)
	if err != nil {
		return false, fmt.Errorf("check favorite %s: %w", ref, err)
	}
	if !favorited {
		if _, err := s.remote.Favorites.Add(ctx, ref); err != nil {
			return false, fmt.Errorf("add favorite %s: %w", ref, err)
		}
		return true, nil
	}

	favs, err := s.remote.Favorites.List(ctx)
	if err != nil {
		return true, fmt.Errorf("list favorites: %w", err)
	}
	for _, f := range favs {
		if f.Ref() == ref {
			if err := s.remote.Favorites.Remove(ctx, f.ID); err != nil {
				return true, fmt.Errorf("remove favorite %s: %w", ref, err)
			}
		}
	}
	return false, nil
}

// ResolveFavorite loads the item a favorite points at. A deleted item is
// reported as absent rather than as an error.
func (s *Session) ResolveFavorite(ctx context.Context, fav models.Favorite) (models.Item, bool, error) {
	var (
		item models.Item
		err  error
	)
	switch fav.ItemType {
	case models.ItemFolder:
		var f *models.Folder
		if f, err = s.remote.Folders.Get(ctx, fav.ItemID); err == nil {
			item = *f
		}
	case models.ItemFile:
		var f *models.File
		if f, err = s.remote.Files.Get(ctx, fav.ItemID); err == nil {
			item = *f
		}
	default:
		return nil, false, fmt.Errorf("favorite %d: invalid item type %q", fav.ID, fav.ItemType)
	}
	switch {
	case errors.Is(err, ports.ErrNotFound):
		s.log.Debug("favorite is dangling", zap.Stringer("ref", fav.Ref()))
		return nil, false, nil
	case err != nil:
		return nil, false, fmt.Errorf("resolve favorite %s: %w", fav.Ref(), err)
	}
	return item, true, nil
}

// ─── Helpers ────────────────────────────────────────────────────────────────

func (s *Session) currentFolder() *int64 {
	if id, ok := s.state.CurrentFolderID(); ok {
		return models.ID(id)
	}
	return nil
}

func (s *Session) setListing(raw explorer.Listing) {
	s.raw = raw
	s.listing = s.state.Arrange(raw)
	metrics.SetListingSize(s.listing.Len())
}

func (s *Session) pruneSelection() {
	if n := s.state.PruneSelection(s.listing.Items()); n > 0 {
		metrics.RecordSelectionPruned(n)
		s.log.Debug("pruned selection", zap.Int("dropped", n))
		s.publish(events.KindSelection)
	}
}

// fetch loads the listing for folderID without touching the state.
func (s *Session) fetch(ctx context.Context, folderID *int64) (explorer.Listing, error) {
	if folderID != nil {
		contents, err := s.remote.Folders.Contents(ctx, *folderID)
		if err != nil {
			return explorer.Listing{}, err
		}
		return explorer.Listing{Folders: contents.Folders, Files: contents.Files}, nil
	}

	params := protocol.ListParams{
		Page:      1,
		Limit:     s.pageLimit,
		Search:    s.state.SearchQuery(),
		SortBy:    s.state.SortBy(),
		SortOrder: s.state.SortOrder(),
	}
	var l explorer.Listing
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		page, err := s.remote.Folders.List(egCtx, params)
		if err != nil {
			return fmt.Errorf("list folders: %w", err)
		}
		l.Folders = page.Items
		return nil
	})
	eg.Go(func() error {
		page, err := s.remote.Files.List(egCtx, params)
		if err != nil {
			return fmt.Errorf("list files: %w", err)
		}
		l.Files = page.Items
		return nil
	})
	if err := eg.Wait(); err != nil {
		return explorer.Listing{}, err
	}
	return l, nil
}

func folderLabel(id *int64) string {
	if id == nil {
		return "<none>"
	}
	return fmt.Sprintf("%d", *id)
}
