package memapi

import (
	"fmt"

	"github.com/fruitsalade/explorer/pkg/models"
	"github.com/fruitsalade/explorer/pkg/protocol"
)

type seedFile struct {
	name string
	size int64
}

type seedFolder struct {
	name    string
	files   []seedFile
	folders []seedFolder
}

var sampleTree = []seedFolder{
	{
		name: "Documents",
		files: []seedFile{
			{"report.pdf", 248_312},
			{"notes.txt", 1_204},
			{"budget.xlsx", 48_900},
		},
		folders: []seedFolder{
			{name: "Work", files: []seedFile{{"roadmap.docx", 31_744}, {"slides.pptx", 2_340_112}}},
			{name: "Personal", files: []seedFile{{"recipes.md", 5_010}}},
		},
	},
	{
		name: "Pictures",
		files: []seedFile{
			{"beach.jpg", 3_482_110},
			{"family.png", 1_982_004},
			{"logo.svg", 12_200},
		},
		folders: []seedFolder{
			{name: "2024", files: []seedFile{{"holiday.jpg", 4_104_552}}},
		},
	},
	{
		name:  "Music",
		files: []seedFile{{"song.mp3", 6_220_800}, {"podcast.ogg", 28_114_000}},
	},
	{
		name:  "Projects",
		files: []seedFile{{"main.go", 3_211}, {"app.ts", 8_420}, {"README.md", 2_048}, {"backup.zip", 52_428_800}},
	},
}

// Seed fills the store with a small sample hierarchy under the root folder
// and favorites one folder and one file.
func Seed(s *Store) error {
	for _, f := range sampleTree {
		if err := seedInto(s, models.RootFolderID, f); err != nil {
			return err
		}
	}
	if _, err := s.CreateFile(protocol.CreateFileRequest{Name: "todo.txt", Size: models.ID(312)}); err != nil {
		return fmt.Errorf("seed unfiled file: %w", err)
	}

	if _, err := s.AddFavorite(models.ItemRef{Type: models.ItemFolder, ID: models.RootFolderID + 1}); err != nil {
		return fmt.Errorf("seed favorite folder: %w", err)
	}
	if _, err := s.AddFavorite(models.ItemRef{Type: models.ItemFile, ID: 1}); err != nil {
		return fmt.Errorf("seed favorite file: %w", err)
	}
	return nil
}

func seedInto(s *Store, parentID int64, sf seedFolder) error {
	folder, err := s.CreateFolder(protocol.CreateFolderRequest{Name: sf.name, ParentID: models.ID(parentID)})
	if err != nil {
		return fmt.Errorf("seed folder %q: %w", sf.name, err)
	}
	for _, file := range sf.files {
		req := protocol.CreateFileRequest{
			Name:     file.name,
			FolderID: models.ID(folder.ID),
			Size:     models.ID(file.size),
		}
		if _, err := s.CreateFile(req); err != nil {
			return fmt.Errorf("seed file %q: %w", file.name, err)
		}
	}
	for _, child := range sf.folders {
		if err := seedInto(s, folder.ID, child); err != nil {
			return err
		}
	}
	return nil
}
