package session

import (
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/fruitsalade/explorer/internal/events"
	"github.com/fruitsalade/explorer/internal/logging"
	"github.com/fruitsalade/explorer/internal/memapi"
	"github.com/fruitsalade/explorer/pkg/client"
	"github.com/fruitsalade/explorer/pkg/explorer"
	"github.com/fruitsalade/explorer/pkg/models"
	"github.com/fruitsalade/explorer/pkg/ports"
	"github.com/fruitsalade/explorer/pkg/protocol"
)

func TestMain(m *testing.M) {
	logging.InitNop()
	os.Exit(m.Run())
}

// Seeded ids, see memapi.Seed.
const (
	documentsID = 2
	workID      = 3
	personalID  = 4
	picturesID  = 5
	photos2024  = 6

	reportPDF  = 1
	notesTXT   = 2
	budgetXLSX = 3
	roadmapDoc = 4
)

func testRemote(t *testing.T) ports.Remote {
	t.Helper()
	store := memapi.NewStore()
	if err := memapi.Seed(store); err != nil {
		t.Fatalf("Seed: %v", err)
	}
	ts := httptest.NewServer(memapi.New(store))
	t.Cleanup(ts.Close)
	return client.New(client.Config{BaseURL: ts.URL, Timeout: 5 * time.Second}).Remote()
}

func openAt(t *testing.T, s *Session, id int64) {
	t.Helper()
	if err := s.Open(context.Background(), models.ID(id)); err != nil {
		t.Fatalf("Open(%d): %v", id, err)
	}
}

func current(t *testing.T, s *Session) int64 {
	t.Helper()
	snap := s.Snapshot()
	if snap.CurrentFolderID == nil {
		t.Fatal("expected a current folder, got none")
	}
	return *snap.CurrentFolderID
}

func itemNames(l explorer.Listing) []string {
	var out []string
	for _, it := range l.Items() {
		out = append(out, it.ItemName())
	}
	return out
}

func TestOpenFolder(t *testing.T) {
	s := New(testRemote(t), Options{})
	openAt(t, s, models.RootFolderID)

	l := s.Listing()
	if len(l.Folders) != 4 || len(l.Files) != 0 {
		t.Errorf("expected 4 folders and 0 files at root, got %v", itemNames(l))
	}
	if want := "Documents,Music,Pictures,Projects"; strings.Join(itemNames(l), ",") != want {
		t.Errorf("expected %s, got %v", want, itemNames(l))
	}
	if current(t, s) != models.RootFolderID {
		t.Errorf("expected current folder 1, got %d", current(t, s))
	}
}

func TestOpenClearsSelection(t *testing.T) {
	s := New(testRemote(t), Options{})
	openAt(t, s, models.RootFolderID)
	if err := s.Select(documentsID); err != nil {
		t.Fatalf("Select: %v", err)
	}

	openAt(t, s, documentsID)
	if n := len(s.Snapshot().SelectedItems); n != 0 {
		t.Errorf("expected empty selection after open, got %d", n)
	}

	// Re-opening the same folder clears too.
	if err := s.Select(workID); err != nil {
		t.Fatalf("Select: %v", err)
	}
	openAt(t, s, documentsID)
	if n := len(s.Snapshot().SelectedItems); n != 0 {
		t.Errorf("expected empty selection after re-open, got %d", n)
	}
}

type failingFolders struct {
	ports.FolderPort
	err error
}

func (f failingFolders) Contents(ctx context.Context, id int64) (*protocol.FolderContents, error) {
	return nil, f.err
}

func TestOpenFailureKeepsState(t *testing.T) {
	remote := testRemote(t)
	s := New(remote, Options{})
	openAt(t, s, documentsID)
	if err := s.Select(reportPDF); err != nil {
		t.Fatalf("Select: %v", err)
	}

	boom := errors.New("connection reset")
	s.remote.Folders = failingFolders{FolderPort: remote.Folders, err: boom}

	err := s.Open(context.Background(), models.ID(workID))
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped fetch error, got %v", err)
	}
	if current(t, s) != documentsID {
		t.Errorf("expected to stay in folder %d, got %d", documentsID, current(t, s))
	}
	if got := s.Snapshot().SelectedItems; len(got) != 1 || got[0] != reportPDF {
		t.Errorf("expected selection untouched, got %v", got)
	}
}

func TestOpenMissingFolder(t *testing.T) {
	s := New(testRemote(t), Options{})
	openAt(t, s, models.RootFolderID)

	err := s.Open(context.Background(), models.ID(999))
	if !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if current(t, s) != models.RootFolderID {
		t.Errorf("expected to stay at root, got %d", current(t, s))
	}
}

func TestUp(t *testing.T) {
	s := New(testRemote(t), Options{})
	ctx := context.Background()
	openAt(t, s, workID)

	for _, want := range []int64{documentsID, models.RootFolderID, models.RootFolderID} {
		if err := s.Up(ctx); err != nil {
			t.Fatalf("Up: %v", err)
		}
		if got := current(t, s); got != want {
			t.Errorf("expected folder %d, got %d", want, got)
		}
	}
}

func TestHome(t *testing.T) {
	s := New(testRemote(t), Options{RootID: workID})
	openAt(t, s, picturesID)

	if err := s.Home(context.Background()); err != nil {
		t.Fatalf("Home: %v", err)
	}
	if got := current(t, s); got != workID {
		t.Errorf("expected folder %d, got %d", workID, got)
	}
}

func TestSortInFolder(t *testing.T) {
	s := New(testRemote(t), Options{})
	ctx := context.Background()
	openAt(t, s, documentsID)

	if err := s.Sort(ctx, "size"); err != nil {
		t.Fatalf("Sort: %v", err)
	}
	// Folders tie on size and keep the order they were fetched in.
	if want := "Work,Personal,notes.txt,budget.xlsx,report.pdf"; strings.Join(itemNames(s.Listing()), ",") != want {
		t.Errorf("ascending size: got %v", itemNames(s.Listing()))
	}

	if err := s.Sort(ctx, "size"); err != nil {
		t.Fatalf("Sort: %v", err)
	}
	snap := s.Snapshot()
	if snap.SortBy != "size" || snap.SortOrder != protocol.Descending {
		t.Errorf("expected size DESC, got %s %s", snap.SortBy, snap.SortOrder)
	}
	files := s.Listing().Files
	if len(files) != 3 || files[0].Name != "report.pdf" || files[2].Name != "notes.txt" {
		t.Errorf("descending size: got %v", itemNames(s.Listing()))
	}

	if err := s.Sort(ctx, "name"); err != nil {
		t.Fatalf("Sort: %v", err)
	}
	if snap := s.Snapshot(); snap.SortOrder != protocol.Ascending {
		t.Errorf("expected new field to reset to ASC, got %s", snap.SortOrder)
	}
}

func TestSearchPrunesSelection(t *testing.T) {
	s := New(testRemote(t), Options{})
	openAt(t, s, documentsID)

	s.SelectAll()
	if got := s.Snapshot().SelectedItems; len(got) != 4 {
		// Folders 3,4 and files 1,2,3 share the id space: {1,2,3,4}.
		t.Fatalf("expected 4 selected ids, got %v", got)
	}

	if err := s.Search(context.Background(), "REPORT"); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if got := itemNames(s.Listing()); len(got) != 1 || got[0] != "report.pdf" {
		t.Errorf("expected only report.pdf, got %v", got)
	}
	if got := s.Snapshot().SelectedItems; len(got) != 1 || got[0] != reportPDF {
		t.Errorf("expected selection pruned to [1], got %v", got)
	}

	if err := s.Search(context.Background(), ""); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if n := s.Listing().Len(); n != 5 {
		t.Errorf("expected 5 entries after clearing search, got %d", n)
	}
}

func TestNoFolderContext(t *testing.T) {
	s := New(testRemote(t), Options{})
	ctx := context.Background()

	if err := s.Open(ctx, nil); err != nil {
		t.Fatalf("Open(nil): %v", err)
	}
	if s.Snapshot().CurrentFolderID != nil {
		t.Error("expected no folder context")
	}
	l := s.Listing()
	if len(l.Folders) != 8 || len(l.Files) != 17 {
		t.Errorf("expected 8 folders and 17 files, got %d/%d", len(l.Folders), len(l.Files))
	}

	if err := s.Search(ctx, "o"); err != nil {
		t.Fatalf("Search: %v", err)
	}
	for _, name := range itemNames(s.Listing()) {
		if !strings.Contains(strings.ToLower(name), "o") {
			t.Errorf("search result %q does not match", name)
		}
	}

	if err := s.Up(ctx); err != nil {
		t.Errorf("Up without a folder should be a no-op, got %v", err)
	}
	crumbs, err := s.Breadcrumbs(ctx)
	if err != nil || crumbs != nil {
		t.Errorf("expected no breadcrumbs, got %v, %v", crumbs, err)
	}
	if _, err := s.CreateFolder(ctx, "x"); !errors.Is(err, ErrNoFolder) {
		t.Errorf("expected ErrNoFolder, got %v", err)
	}
}

func TestPageLimit(t *testing.T) {
	s := New(testRemote(t), Options{PageLimit: 3})
	if err := s.Open(context.Background(), nil); err != nil {
		t.Fatalf("Open(nil): %v", err)
	}
	l := s.Listing()
	if len(l.Folders) != 3 || len(l.Files) != 3 {
		t.Errorf("expected one page of each, got %d/%d", len(l.Folders), len(l.Files))
	}
}

func TestToggleAndSelect(t *testing.T) {
	s := New(testRemote(t), Options{})
	openAt(t, s, documentsID)

	if err := s.Toggle(999); !errors.Is(err, ErrNotInListing) {
		t.Errorf("expected ErrNotInListing, got %v", err)
	}
	if err := s.Select(999); !errors.Is(err, ErrNotInListing) {
		t.Errorf("expected ErrNotInListing, got %v", err)
	}

	for i := 0; i < 3; i++ {
		if err := s.Toggle(notesTXT); err != nil {
			t.Fatalf("Toggle: %v", err)
		}
	}
	if got := s.Snapshot().SelectedItems; len(got) != 1 || got[0] != notesTXT {
		t.Errorf("odd toggles should select, got %v", got)
	}

	sel := s.Selected()
	if len(sel) != 1 || sel[0].ItemName() != "notes.txt" {
		t.Errorf("expected notes.txt selected, got %v", sel)
	}

	s.Deselect(notesTXT)
	if len(s.Selected()) != 0 {
		t.Error("expected empty selection after deselect")
	}

	s.SelectAll()
	s.ClearSelection()
	if len(s.Snapshot().SelectedItems) != 0 {
		t.Error("expected empty selection after clear")
	}
}

func TestSelectedSharesIDSpace(t *testing.T) {
	s := New(testRemote(t), Options{})
	openAt(t, s, documentsID)

	// Folder Work and file budget.xlsx both have id 3.
	if err := s.Select(workID); err != nil {
		t.Fatalf("Select: %v", err)
	}
	sel := s.Selected()
	if len(sel) != 2 {
		t.Fatalf("expected folder and file for id 3, got %v", sel)
	}
	if sel[0].ItemType() != models.ItemFolder || sel[1].ItemType() != models.ItemFile {
		t.Errorf("expected folder then file, got %s then %s", sel[0].ItemType(), sel[1].ItemType())
	}
}

func TestMutationsRefuseSharedID(t *testing.T) {
	remote := testRemote(t)
	s := New(remote, Options{})
	ctx := context.Background()
	openAt(t, s, documentsID)

	if err := s.Select(budgetXLSX); err != nil {
		t.Fatalf("Select: %v", err)
	}
	n, err := s.DeleteSelected(ctx)
	if !errors.Is(err, ErrAmbiguousSelection) {
		t.Fatalf("DeleteSelected: expected ErrAmbiguousSelection, got %v", err)
	}
	if n != 0 {
		t.Errorf("expected nothing deleted, got %d", n)
	}
	n, err = s.MoveSelectedFiles(ctx, models.ID(personalID))
	if !errors.Is(err, ErrAmbiguousSelection) || n != 0 {
		t.Errorf("MoveSelectedFiles: expected 0, ErrAmbiguousSelection; got %d, %v", n, err)
	}

	if _, err := remote.Folders.Get(ctx, workID); err != nil {
		t.Errorf("folder Work: %v", err)
	}
	if _, err := remote.Files.Get(ctx, roadmapDoc); err != nil {
		t.Errorf("roadmap.docx inside Work: %v", err)
	}
	f, err := remote.Files.Get(ctx, budgetXLSX)
	if err != nil {
		t.Fatalf("budget.xlsx: %v", err)
	}
	if f.FolderID == nil || *f.FolderID != documentsID {
		t.Errorf("budget.xlsx moved to %v", f.FolderID)
	}
	if len(s.Snapshot().SelectedItems) != 1 {
		t.Errorf("expected selection kept, got %v", s.Snapshot().SelectedItems)
	}
}

func TestCreateFolder(t *testing.T) {
	s := New(testRemote(t), Options{})
	openAt(t, s, documentsID)

	f, err := s.CreateFolder(context.Background(), "Archive")
	if err != nil {
		t.Fatalf("CreateFolder: %v", err)
	}
	if f.Path != "/Documents/Archive" {
		t.Errorf("expected /Documents/Archive, got %s", f.Path)
	}
	if _, ok := s.Listing().Find(f.ID); !ok {
		t.Error("expected new folder in refreshed listing")
	}
}

func TestDeleteSelected(t *testing.T) {
	s := New(testRemote(t), Options{})
	openAt(t, s, workID)

	if err := s.Select(roadmapDoc); err != nil {
		t.Fatalf("Select: %v", err)
	}
	n, err := s.DeleteSelected(context.Background())
	if err != nil {
		t.Fatalf("DeleteSelected: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 deletion, got %d", n)
	}
	if got := itemNames(s.Listing()); len(got) != 1 || got[0] != "slides.pptx" {
		t.Errorf("expected only slides.pptx left, got %v", got)
	}
	if len(s.Snapshot().SelectedItems) != 0 {
		t.Errorf("expected deleted id pruned from selection, got %v", s.Snapshot().SelectedItems)
	}

	if n, err := s.DeleteSelected(context.Background()); err != nil || n != 0 {
		t.Errorf("empty selection: expected 0, nil; got %d, %v", n, err)
	}
}

func TestMoveSelectedFiles(t *testing.T) {
	s := New(testRemote(t), Options{})
	ctx := context.Background()
	openAt(t, s, documentsID)

	if err := s.Select(notesTXT); err != nil {
		t.Fatalf("Select: %v", err)
	}
	if err := s.Select(personalID); err != nil {
		t.Fatalf("Select: %v", err)
	}
	n, err := s.MoveSelectedFiles(ctx, models.ID(personalID))
	if err != nil {
		t.Fatalf("MoveSelectedFiles: %v", err)
	}
	if n != 1 {
		t.Errorf("expected 1 file moved, folders skipped; got %d", n)
	}
	if len(s.Listing().Files) != 2 {
		t.Errorf("expected 2 files left in Documents, got %v", itemNames(s.Listing()))
	}

	openAt(t, s, personalID)
	if got := itemNames(s.Listing()); strings.Join(got, ",") != "notes.txt,recipes.md" {
		t.Errorf("expected notes.txt,recipes.md in Personal, got %v", got)
	}
}

func TestToggleFavorite(t *testing.T) {
	s := New(testRemote(t), Options{})
	ctx := context.Background()
	ref := models.ItemRef{Type: models.ItemFile, ID: notesTXT}

	on, err := s.ToggleFavorite(ctx, ref)
	if err != nil || !on {
		t.Fatalf("expected favorited, got %v, %v", on, err)
	}
	on, err = s.ToggleFavorite(ctx, ref)
	if err != nil || on {
		t.Fatalf("expected unfavorited, got %v, %v", on, err)
	}
	favs, err := s.Favorites(ctx)
	if err != nil {
		t.Fatalf("Favorites: %v", err)
	}
	for _, f := range favs {
		if f.Ref() == ref {
			t.Errorf("favorite %s still listed", ref)
		}
	}
}

func TestResolveFavorite(t *testing.T) {
	remote := testRemote(t)
	s := New(remote, Options{})
	ctx := context.Background()

	favs, err := s.Favorites(ctx)
	if err != nil {
		t.Fatalf("Favorites: %v", err)
	}
	var docs models.Favorite
	for _, f := range favs {
		if f.ItemType == models.ItemFolder && f.ItemID == documentsID {
			docs = f
		}
	}
	if docs.ID == 0 {
		t.Fatalf("seeded Documents favorite missing from %v", favs)
	}

	item, ok, err := s.ResolveFavorite(ctx, docs)
	if err != nil || !ok || item.ItemName() != "Documents" {
		t.Fatalf("expected Documents, got %v, %v, %v", item, ok, err)
	}

	if err := remote.Folders.Delete(ctx, documentsID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	item, ok, err = s.ResolveFavorite(ctx, docs)
	if err != nil {
		t.Fatalf("dangling favorite should not be an error, got %v", err)
	}
	if ok || item != nil {
		t.Errorf("expected absent item, got %v", item)
	}

	if _, _, err := s.ResolveFavorite(ctx, models.Favorite{ItemType: "link"}); err == nil {
		t.Error("expected error for invalid item type")
	}
}

func TestBreadcrumbs(t *testing.T) {
	s := New(testRemote(t), Options{})
	openAt(t, s, photos2024)

	crumbs, err := s.Breadcrumbs(context.Background())
	if err != nil {
		t.Fatalf("Breadcrumbs: %v", err)
	}
	var paths []string
	for _, c := range crumbs {
		paths = append(paths, c.Path)
	}
	if want := "/,/Pictures,/Pictures/2024"; strings.Join(paths, ",") != want {
		t.Errorf("expected %s, got %v", want, paths)
	}
}

func TestStats(t *testing.T) {
	s := New(testRemote(t), Options{})
	stats, err := s.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.TotalFiles != 17 {
		t.Errorf("expected 17 files, got %d", stats.TotalFiles)
	}
}

func TestEventsPublished(t *testing.T) {
	b := events.NewBroadcaster()
	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	s := New(testRemote(t), Options{Events: b})
	openAt(t, s, picturesID)

	ev := next(t, ch)
	if ev.Kind != events.KindFolder {
		t.Errorf("expected folder event, got %s", ev.Kind)
	}
	if ev.State.CurrentFolderID == nil || *ev.State.CurrentFolderID != picturesID {
		t.Errorf("expected state at folder %d, got %+v", picturesID, ev.State)
	}

	if mode := s.ToggleView(); mode != explorer.ViewGrid {
		t.Errorf("expected grid, got %s", mode)
	}
	ev = next(t, ch)
	if ev.Kind != events.KindView || ev.State.ViewMode != explorer.ViewGrid {
		t.Errorf("expected view event in grid mode, got %+v", ev)
	}

	s.SelectAll()
	if ev := next(t, ch); ev.Kind != events.KindSelection || len(ev.State.SelectedItems) == 0 {
		t.Errorf("expected selection event, got %+v", ev)
	}
}

func next(t *testing.T, ch <-chan events.Event) events.Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return events.Event{}
	}
}
