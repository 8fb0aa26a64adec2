// Package explorer holds the navigation and selection state of one explorer
// view: the current folder, the selected items, and how the listing is
// displayed, sorted and filtered.
//
// A State performs no I/O. Whoever owns it observes the new state after a
// mutation and fetches whatever the new state needs. A State is not safe for
// concurrent use.
package explorer

import (
	"sort"

	"github.com/fruitsalade/explorer/pkg/models"
	"github.com/fruitsalade/explorer/pkg/protocol"
)

// ViewMode is how a listing is laid out.
type ViewMode string

const (
	ViewList ViewMode = "list"
	ViewGrid ViewMode = "grid"
)

// DefaultSortField is the sort field of a new State.
const DefaultSortField = "name"

// State is the navigation state machine. The zero value is not usable; call
// New.
type State struct {
	currentFolder *int64
	selected      map[int64]struct{}
	viewMode      ViewMode
	sortBy        string
	sortOrder     protocol.SortOrder
	searchQuery   string
}

// New returns a State positioned at rootID with nothing selected, list view,
// sorted by name ascending and no search filter.
func New(rootID int64) *State {
	return &State{
		currentFolder: models.ID(rootID),
		selected:      make(map[int64]struct{}),
		viewMode:      ViewList,
		sortBy:        DefaultSortField,
		sortOrder:     protocol.Ascending,
	}
}

// SetCurrentFolder moves to folderID and clears the selection. A nil id
// means no folder context, which is distinct from the root folder. The
// selection is cleared even when folderID equals the current folder.
func (s *State) SetCurrentFolder(folderID *int64) {
	if folderID == nil {
		s.currentFolder = nil
	} else {
		s.currentFolder = models.ID(*folderID)
	}
	s.ClearSelection()
}

// ToggleSelection removes itemID if selected, otherwise adds it.
func (s *State) ToggleSelection(itemID int64) {
	if _, ok := s.selected[itemID]; ok {
		delete(s.selected, itemID)
		return
	}
	s.selected[itemID] = struct{}{}
}

// SelectItem adds itemID to the selection.
func (s *State) SelectItem(itemID int64) {
	s.selected[itemID] = struct{}{}
}

// DeselectItem removes itemID from the selection.
func (s *State) DeselectItem(itemID int64) {
	delete(s.selected, itemID)
}

// ClearSelection empties the selection.
func (s *State) ClearSelection() {
	clear(s.selected)
}

// SelectAll adds every item's id to the selection. Existing selections are
// kept.
func (s *State) SelectAll(items []models.Item) {
	for _, it := range items {
		s.selected[it.ItemID()] = struct{}{}
	}
}

// PruneSelection drops selected ids that are not in listing and returns how
// many were dropped.
func (s *State) PruneSelection(listing []models.Item) int {
	keep := make(map[int64]struct{}, len(listing))
	for _, it := range listing {
		keep[it.ItemID()] = struct{}{}
	}
	dropped := 0
	for id := range s.selected {
		if _, ok := keep[id]; !ok {
			delete(s.selected, id)
			dropped++
		}
	}
	return dropped
}

// ToggleViewMode flips between list and grid.
func (s *State) ToggleViewMode() {
	if s.viewMode == ViewList {
		s.viewMode = ViewGrid
	} else {
		s.viewMode = ViewList
	}
}

// SetSortBy reverses the order when field is already the sort field.
// Otherwise it switches to field and restarts at ascending.
func (s *State) SetSortBy(field string) {
	if s.sortBy == field {
		s.sortOrder = s.sortOrder.Reverse()
		return
	}
	s.sortBy = field
	s.sortOrder = protocol.Ascending
}

// SetSearchQuery sets the listing filter. The empty string clears it.
func (s *State) SetSearchQuery(query string) {
	s.searchQuery = query
}

// CurrentFolderID returns the current folder and whether there is one.
func (s *State) CurrentFolderID() (int64, bool) {
	if s.currentFolder == nil {
		return 0, false
	}
	return *s.currentFolder, true
}

// HasSelection reports whether anything is selected.
func (s *State) HasSelection() bool { return len(s.selected) > 0 }

// SelectionCount is the number of selected ids.
func (s *State) SelectionCount() int { return len(s.selected) }

// IsSelected reports whether itemID is selected.
func (s *State) IsSelected(itemID int64) bool {
	_, ok := s.selected[itemID]
	return ok
}

// SelectedIDs returns the selection in ascending order.
func (s *State) SelectedIDs() []int64 {
	ids := make([]int64, 0, len(s.selected))
	for id := range s.selected {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (s *State) ViewMode() ViewMode            { return s.viewMode }
func (s *State) SortBy() string                { return s.sortBy }
func (s *State) SortOrder() protocol.SortOrder { return s.sortOrder }
func (s *State) SearchQuery() string           { return s.searchQuery }

// Snapshot is a read-only copy of a State.
type Snapshot struct {
	CurrentFolderID *int64             `json:"current_folder_id"`
	SelectedItems   []int64            `json:"selected_items"`
	ViewMode        ViewMode           `json:"view_mode"`
	SortBy          string             `json:"sort_by"`
	SortOrder       protocol.SortOrder `json:"sort_order"`
	SearchQuery     string             `json:"search_query"`
}

// Snapshot copies the current state.
func (s *State) Snapshot() Snapshot {
	snap := Snapshot{
		SelectedItems: s.SelectedIDs(),
		ViewMode:      s.viewMode,
		SortBy:        s.sortBy,
		SortOrder:     s.sortOrder,
		SearchQuery:   s.searchQuery,
	}
	if id, ok := s.CurrentFolderID(); ok {
		snap.CurrentFolderID = models.ID(id)
	}
	return snap
}
