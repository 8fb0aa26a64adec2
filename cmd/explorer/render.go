package main

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/fruitsalade/explorer/pkg/explorer"
	"github.com/fruitsalade/explorer/pkg/format"
	"github.com/fruitsalade/explorer/pkg/models"
)

const gridColumns = 4

func icon(it models.Item) string {
	if f, ok := it.(models.File); ok {
		return format.FileIcon(f.Extension)
	}
	return format.FolderIcon
}

func (sh *shell) printListing() {
	snap := sh.sess.Snapshot()
	l := sh.sess.Listing()

	header := "(no folder)"
	if snap.CurrentFolderID != nil {
		header = fmt.Sprintf("Folder %d", *snap.CurrentFolderID)
	}
	fmt.Fprintf(sh.out, "%s  sort=%s %s", header, snap.SortBy, snap.SortOrder)
	if snap.SearchQuery != "" {
		fmt.Fprintf(sh.out, "  search=%q", snap.SearchQuery)
	}
	fmt.Fprintln(sh.out)

	if l.Len() == 0 {
		fmt.Fprintln(sh.out, "This folder is empty")
		return
	}

	selected := make(map[int64]bool, len(snap.SelectedItems))
	for _, id := range snap.SelectedItems {
		selected[id] = true
	}
	mark := func(it models.Item) string {
		if selected[it.ItemID()] {
			return "*"
		}
		return " "
	}

	w := tabwriter.NewWriter(sh.out, 0, 0, 2, ' ', 0)
	defer w.Flush()

	if snap.ViewMode == explorer.ViewGrid {
		cells := make([]string, 0, l.Len())
		for _, it := range l.Items() {
			cells = append(cells, fmt.Sprintf("%s%s %s [%d]", mark(it), icon(it), it.ItemName(), it.ItemID()))
		}
		for i := 0; i < len(cells); i += gridColumns {
			end := min(i+gridColumns, len(cells))
			fmt.Fprintln(w, strings.Join(cells[i:end], "\t"))
		}
		return
	}

	fmt.Fprintln(w, " \tID\tNAME\tSIZE\tMODIFIED")
	fmt.Fprintln(w, " \t--\t----\t----\t--------")
	for _, it := range l.Items() {
		size := "-"
		if it.ItemType() == models.ItemFile {
			size = format.FileSize(it.ItemSize())
		}
		fmt.Fprintf(w, "%s\t%d\t%s %s\t%s\t%s\n",
			mark(it),
			it.ItemID(),
			icon(it), it.ItemName(),
			size,
			format.Date(it.ItemUpdated()))
	}
}

func (sh *shell) printSelection() {
	items := sh.sess.Selected()
	if len(items) == 0 {
		fmt.Fprintln(sh.out, "Nothing selected")
		return
	}
	names := make([]string, len(items))
	for i, it := range items {
		names[i] = fmt.Sprintf("%s [%d]", it.ItemName(), it.ItemID())
	}
	fmt.Fprintf(sh.out, "Selected (%d): %s\n", len(items), strings.Join(names, ", "))
}

func (sh *shell) printFavorites(ctx context.Context) error {
	favs, err := sh.sess.Favorites(ctx)
	if err != nil {
		return err
	}
	if len(favs) == 0 {
		fmt.Fprintln(sh.out, "No favorites")
		return nil
	}

	w := tabwriter.NewWriter(sh.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TYPE\tID\tNAME\tPATH\tSTATUS")
	fmt.Fprintln(w, "----\t--\t----\t----\t------")
	for _, f := range favs {
		status := "ok"
		name, path := f.Name, f.Path
		item, ok, err := sh.sess.ResolveFavorite(ctx, f)
		switch {
		case err != nil:
			status = "error"
		case !ok:
			status = "missing"
		default:
			name, path = item.ItemName(), item.ItemPath()
		}
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%s\n", f.ItemType, f.ItemID, name, path, status)
	}
	return w.Flush()
}

func (sh *shell) printTree(ctx context.Context) error {
	roots, err := sh.sess.Tree(ctx)
	if err != nil {
		return err
	}
	var walk func(nodes []*models.Folder, depth int)
	walk = func(nodes []*models.Folder, depth int) {
		for _, n := range nodes {
			name := n.Name
			if n.IsRoot() {
				name = models.RootPath
			}
			fmt.Fprintf(sh.out, "%s%s %s [%d]\n", strings.Repeat("  ", depth), format.FolderIcon, name, n.ID)
			walk(n.Children, depth+1)
		}
	}
	walk(roots, 0)
	return nil
}

func (sh *shell) printStats(ctx context.Context) error {
	stats, err := sh.sess.Stats(ctx)
	if err != nil {
		return err
	}

	fmt.Fprintln(sh.out, "Storage Statistics")
	fmt.Fprintln(sh.out, "------------------")
	fmt.Fprintf(sh.out, "Files:        %d\n", stats.TotalFiles)
	fmt.Fprintf(sh.out, "Used:         %s\n", format.FileSize(stats.TotalSize))
	if len(stats.ByExtension) == 0 {
		return nil
	}

	fmt.Fprintln(sh.out)
	w := tabwriter.NewWriter(sh.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "EXTENSION\tFILES\tSIZE")
	fmt.Fprintln(w, "---------\t-----\t----")
	for _, row := range stats.ByExtension {
		ext := row.Extension
		if ext == "" {
			ext = "(none)"
		}
		fmt.Fprintf(w, "%s\t%d\t%s\n", ext, row.Count, format.FileSize(row.TotalSize))
	}
	return w.Flush()
}
