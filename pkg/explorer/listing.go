package explorer

import (
	"sort"
	"strings"

	"github.com/fruitsalade/explorer/pkg/models"
	"github.com/fruitsalade/explorer/pkg/protocol"
)

// Listing is the displayed contents of one folder (or of the global view
// when there is no folder context).
type Listing struct {
	Folders []models.Folder
	Files   []models.File
}

// Items returns folders followed by files.
func (l Listing) Items() []models.Item {
	items := make([]models.Item, 0, len(l.Folders)+len(l.Files))
	for _, f := range l.Folders {
		items = append(items, f)
	}
	for _, f := range l.Files {
		items = append(items, f)
	}
	return items
}

// Len is the number of entries.
func (l Listing) Len() int { return len(l.Folders) + len(l.Files) }

// Find returns the entry with the given id. Folders are searched first.
func (l Listing) Find(id int64) (models.Item, bool) {
	for _, f := range l.Folders {
		if f.ID == id {
			return f, true
		}
	}
	for _, f := range l.Files {
		if f.ID == id {
			return f, true
		}
	}
	return nil, false
}

// Split separates items back into folders and files.
func Split(items []models.Item) Listing {
	var l Listing
	for _, it := range items {
		switch v := it.(type) {
		case models.Folder:
			l.Folders = append(l.Folders, v)
		case models.File:
			l.Files = append(l.Files, v)
		}
	}
	return l
}

// SortItems sorts items in place by field, keeping folders ahead of files.
// Known fields are name, size, date (alias updated_at), created_at and type
// (alias extension); anything else sorts by name. Ties keep input order.
func SortItems(items []models.Item, field string, order protocol.SortOrder) {
	less := lessFunc(field)
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if ta, tb := a.ItemType(), b.ItemType(); ta != tb {
			return ta == models.ItemFolder
		}
		if order == protocol.Descending {
			return less(b, a)
		}
		return less(a, b)
	})
}

func lessFunc(field string) func(a, b models.Item) bool {
	switch field {
	case "size":
		return func(a, b models.Item) bool { return a.ItemSize() < b.ItemSize() }
	case "date", "updated_at":
		return func(a, b models.Item) bool { return a.ItemUpdated().Before(b.ItemUpdated()) }
	case "created_at":
		return func(a, b models.Item) bool { return a.ItemCreated().Before(b.ItemCreated()) }
	case "type", "extension":
		return func(a, b models.Item) bool { return extensionOf(a) < extensionOf(b) }
	default:
		return func(a, b models.Item) bool {
			return strings.ToLower(a.ItemName()) < strings.ToLower(b.ItemName())
		}
	}
}

func extensionOf(it models.Item) string {
	if f, ok := it.(models.File); ok {
		return f.Ext()
	}
	return ""
}

// FilterItems keeps items whose name contains query, ignoring case. An empty
// query keeps everything.
func FilterItems(items []models.Item, query string) []models.Item {
	if query == "" {
		return items
	}
	q := strings.ToLower(query)
	out := make([]models.Item, 0, len(items))
	for _, it := range items {
		if strings.Contains(strings.ToLower(it.ItemName()), q) {
			out = append(out, it)
		}
	}
	return out
}

// Arrange filters then sorts a listing according to the state.
func (s *State) Arrange(l Listing) Listing {
	items := FilterItems(l.Items(), s.searchQuery)
	SortItems(items, s.sortBy, s.sortOrder)
	return Split(items)
}
