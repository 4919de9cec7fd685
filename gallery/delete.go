package gallery

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"fotomu/models"
	"fotomu/storage"
)

// Delete drops a file from the gallery. Local metadata is updated first and
// unconditionally; the remote copy is then removed with bounded retries.
// deletedFromCloud reports whether that succeeded. A remote failure is not
// an error: the file is already gone from the gallery and the remote object
// is recorded as an orphan, hidden from listings until SweepOrphans removes
// it.
func (g *Gallery) Delete(ctx context.Context, fileID string) (deletedFromCloud bool, err error) {
	fileID = strings.TrimSpace(fileID)
	if fileID == "" {
		return false, fmt.Errorf("%w: fileId is required", ErrValidation)
	}

	if !g.owns(fileID) {
		return false, fmt.Errorf("%w: file %q", ErrNotFound, fileID)
	}

	state, err := g.store.Read(ctx)
	if err != nil {
		return false, err
	}
	if state.FileIndex(fileID) < 0 && !state.IsFavorite(fileID) && !state.IsOrphan(fileID) {
		if _, err := g.remote.Details(ctx, fileID); errors.Is(err, storage.ErrNotFound) {
			return false, fmt.Errorf("%w: file %q", ErrNotFound, fileID)
		}
	}

	// Marked as an orphan in the same update so a listing that runs before
	// the remote delete finishes cannot bring the file back.
	err = g.store.Update(ctx, func(s *models.State) error {
		s.RemoveFile(fileID)
		s.SetOrphan(fileID, true)
		return nil
	})
	if err != nil {
		return false, err
	}

	// The gallery no longer shows the file; finish the remote cleanup even
	// if the client goes away.
	ctx = context.WithoutCancel(ctx)
	deletedFromCloud = g.deleteRemote(ctx, fileID)
	if deletedFromCloud {
		err := g.store.Update(ctx, func(s *models.State) error {
			s.SetOrphan(fileID, false)
			return nil
		})
		if err != nil {
			g.logger.Error("clearing orphan", "fileId", fileID, "error", err)
		}
	}

	g.logger.Info("file deleted", "fileId", fileID, "deletedFromCloud", deletedFromCloud)
	return deletedFromCloud, nil
}

// SweepOrphans makes one more remote delete attempt for every orphan and
// forgets those that succeed. It returns how many were removed.
func (g *Gallery) SweepOrphans(ctx context.Context) (int, error) {
	state, err := g.store.Read(ctx)
	if err != nil {
		return 0, err
	}
	if len(state.Orphans) == 0 {
		return 0, nil
	}

	var removed []string
	for _, id := range state.Orphans {
		if err := g.remote.Delete(ctx, id); err != nil {
			g.logger.Warn("orphan delete failed", "fileId", id, "error", err)
			continue
		}
		removed = append(removed, id)
	}
	if len(removed) == 0 {
		return 0, nil
	}

	err = g.store.Update(ctx, func(s *models.State) error {
		for _, id := range removed {
			s.SetOrphan(id, false)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	g.logger.Info("orphans swept", "removed", len(removed), "remaining", len(state.Orphans)-len(removed))
	return len(removed), nil
}

func (g *Gallery) deleteRemote(ctx context.Context, fileID string) bool {
	for attempt := 1; attempt <= g.opts.DeleteAttempts; attempt++ {
		err := g.remote.Delete(ctx, fileID)
		if err == nil {
			return true
		}
		g.logger.Warn("remote delete failed", "fileId", fileID, "attempt", attempt, "error", err)

		if attempt < g.opts.DeleteAttempts {
			time.Sleep(g.opts.DeleteRetryDelay)
		}
	}
	return false
}

// owns reports whether fileID names an object under the gallery root.
func (g *Gallery) owns(fileID string) bool {
	return strings.HasPrefix(fileID, g.opts.Root+"/") && path.Clean(fileID) == fileID
}
