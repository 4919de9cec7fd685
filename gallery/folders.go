package gallery

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fotomu/models"
)

// Folders returns every folder.
func (g *Gallery) Folders(ctx context.Context) ([]models.Folder, error) {
	state, err := g.store.Read(ctx)
	if err != nil {
		return nil, err
	}
	return state.Folders, nil
}

// CreateFolder adds a folder. Names are trimmed and compared exactly.
func (g *Gallery) CreateFolder(ctx context.Context, name string) (models.Folder, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Folder{}, fmt.Errorf("%w: folder name is required", ErrValidation)
	}

	folder := models.Folder{Name: name, CreatedAt: time.Now().UTC()}
	err := g.store.Update(ctx, func(s *models.State) error {
		if s.FolderIndex(name) >= 0 {
			return fmt.Errorf("%w: %q", ErrDuplicateFolder, name)
		}
		s.Folders = append(s.Folders, folder)
		return nil
	})
	if err != nil {
		return models.Folder{}, err
	}

	g.logger.Info("folder created", "folder", name)
	return folder, nil
}

// RenameFolder renames a folder and moves its files along with it.
func (g *Gallery) RenameFolder(ctx context.Context, oldName, newName string) error {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return fmt.Errorf("%w: new folder name is required", ErrValidation)
	}

	err := g.store.Update(ctx, func(s *models.State) error {
		i := s.FolderIndex(oldName)
		if i < 0 {
			return fmt.Errorf("%w: folder %q", ErrNotFound, oldName)
		}
		if newName == oldName {
			return nil
		}
		if s.FolderIndex(newName) >= 0 {
			return fmt.Errorf("%w: %q", ErrDuplicateFolder, newName)
		}

		s.Folders[i].Name = newName
		for j := range s.Files {
			if s.Files[j].Folder == oldName {
				s.Files[j].Folder = newName
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	g.logger.Info("folder renamed", "from", oldName, "to", newName)
	return nil
}

// DeleteFolder removes a folder; its files move to the root. Deleting a
// missing folder is a no-op.
func (g *Gallery) DeleteFolder(ctx context.Context, name string) error {
	err := g.store.Update(ctx, func(s *models.State) error {
		if i := s.FolderIndex(name); i >= 0 {
			s.Folders = append(s.Folders[:i], s.Folders[i+1:]...)
		}
		for j := range s.Files {
			if s.Files[j].Folder == name {
				s.Files[j].Folder = ""
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	g.logger.Info("folder deleted", "folder", name)
	return nil
}

// Move assigns files to target. Ids without a local record get a bare
// record so files not yet seen by a listing can still be organised.
// It returns the number of distinct files moved.
func (g *Gallery) Move(ctx context.Context, fileIDs []string, target string) (int, error) {
	ids := uniqueIDs(fileIDs)
	if len(ids) == 0 {
		return 0, fmt.Errorf("%w: fileIds is required", ErrValidation)
	}

	err := g.store.Update(ctx, func(s *models.State) error {
		for _, id := range ids {
			if i := s.FileIndex(id); i >= 0 {
				s.Files[i].Folder = target
				continue
			}
			s.Files = append(s.Files, models.FileRecord{FileID: id, Folder: target})
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// Like marks a file as favorite.
func (g *Gallery) Like(ctx context.Context, fileID string) error {
	return g.setFavorite(ctx, fileID, true)
}

// Unlike clears a file's favorite mark.
func (g *Gallery) Unlike(ctx context.Context, fileID string) error {
	return g.setFavorite(ctx, fileID, false)
}

func (g *Gallery) setFavorite(ctx context.Context, fileID string, favorite bool) error {
	fileID = strings.TrimSpace(fileID)
	if fileID == "" {
		return fmt.Errorf("%w: fileId is required", ErrValidation)
	}

	return g.store.Update(ctx, func(s *models.State) error {
		if favorite && s.FileIndex(fileID) < 0 {
			s.Files = append(s.Files, models.FileRecord{FileID: fileID})
		}
		s.SetFavorite(fileID, favorite)
		return nil
	})
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
