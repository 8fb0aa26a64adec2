// Package tree provides shared utilities for working with folder trees.
package tree

import (
	"github.com/fruitsalade/explorer/pkg/models"
)

// BuildChildPath constructs a child path from parent + name.
func BuildChildPath(parentPath, name string) string {
	if parentPath == "/" {
		return "/" + name
	}
	return parentPath + "/" + name
}

// Nest builds a folder tree from a flat list using parent ids. Folders whose
// parent is absent from the list become roots. Input order is kept among
// siblings. The returned nodes are copies; the input is not modified.
func Nest(flat []models.Folder) []*models.Folder {
	nodes := make(map[int64]*models.Folder, len(flat))
	ordered := make([]*models.Folder, 0, len(flat))
	for _, f := range flat {
		n := f
		n.Children = nil
		nodes[n.ID] = &n
		ordered = append(ordered, &n)
	}

	var roots []*models.Folder
	for _, n := range ordered {
		if n.ParentID != nil {
			if parent, ok := nodes[*n.ParentID]; ok && parent != n {
				parent.Children = append(parent.Children, n)
				continue
			}
		}
		roots = append(roots, n)
	}
	return roots
}

// FindByID finds a folder by its ID in the tree (recursive).
func FindByID(roots []*models.Folder, id int64) *models.Folder {
	for _, n := range roots {
		if n.ID == id {
			return n
		}
		if found := FindByID(n.Children, id); found != nil {
			return found
		}
	}
	return nil
}

// FindByPath resolves a path in the tree (recursive).
func FindByPath(roots []*models.Folder, path string) *models.Folder {
	for _, n := range roots {
		if n.Path == path {
			return n
		}
		if found := FindByPath(n.Children, path); found != nil {
			return found
		}
	}
	return nil
}

// Ancestors returns the chain from a root down to the folder with the given
// id, inclusive. It returns nil if the id is not in the tree.
func Ancestors(roots []*models.Folder, id int64) []*models.Folder {
	for _, n := range roots {
		if n.ID == id {
			return []*models.Folder{n}
		}
		if chain := Ancestors(n.Children, id); chain != nil {
			return append([]*models.Folder{n}, chain...)
		}
	}
	return nil
}

// CountNodes counts all folders in a tree.
func CountNodes(roots []*models.Folder) int {
	count := 0
	for _, n := range roots {
		count += 1 + CountNodes(n.Children)
	}
	return count
}

// Flatten returns all folders in a flat map keyed by path.
func Flatten(roots []*models.Folder) map[string]*models.Folder {
	result := make(map[string]*models.Folder)
	for _, n := range roots {
		flattenRecursive(n, result)
	}
	return result
}

func flattenRecursive(node *models.Folder, result map[string]*models.Folder) {
	result[node.Path] = node
	for _, child := range node.Children {
		flattenRecursive(child, result)
	}
}

// PathMismatch describes a folder whose stored path disagrees with the path
// derived from its parent.
type PathMismatch struct {
	FolderID int64
	Got      string
	Want     string
}

// CheckPaths walks the tree and reports every folder whose path is not
// BuildChildPath(parent.Path, name). Top-level folders without a parent must
// have path "/".
func CheckPaths(roots []*models.Folder) []PathMismatch {
	var out []PathMismatch
	for _, n := range roots {
		if n.ParentID == nil && n.Path != models.RootPath {
			out = append(out, PathMismatch{FolderID: n.ID, Got: n.Path, Want: models.RootPath})
		}
		out = checkChildren(n, out)
	}
	return out
}

func checkChildren(parent *models.Folder, out []PathMismatch) []PathMismatch {
	for _, child := range parent.Children {
		if want := BuildChildPath(parent.Path, child.Name); child.Path != want {
			out = append(out, PathMismatch{FolderID: child.ID, Got: child.Path, Want: want})
		}
		out = checkChildren(child, out)
	}
	return out
}
