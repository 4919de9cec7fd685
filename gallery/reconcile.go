package gallery

import (
	"sort"

	"fotomu/models"
)

// Folder scopes understood by Filter besides a folder name.
const (
	ScopeAll       = "all"
	ScopeFavorites = "favorites"
	ScopeRecent    = "recent"
)

// RecentLimit caps the "recent" scope.
const RecentLimit = 50

// Reconcile merges a remote listing with local metadata. The remote listing
// decides which files exist; local state supplies folder and favorite.
// Files unknown locally land in the root, unfavorited.
//
// The returned state is the projection of every observed remote file, so
// records for objects that vanished remotely are dropped. Orphans (files
// deleted locally whose remote copy survived) stay hidden until the remote
// copy is gone. Folders are kept as they are. The merged list is filtered
// by scope.
func Reconcile(remote []models.Descriptor, local *models.State, scope string) ([]models.MergedFile, *models.State) {
	records := make(map[string]models.FileRecord, len(local.Files))
	for _, f := range local.Files {
		records[f.FileID] = f
	}
	favorites := local.FavoriteSet()
	orphans := make(map[string]bool, len(local.Orphans))
	for _, id := range local.Orphans {
		orphans[id] = true
	}

	merged := make([]models.MergedFile, 0, len(remote))
	next := &models.State{
		Files:     make([]models.FileRecord, 0, len(remote)),
		Favorites: []string{},
		Folders:   local.Folders,
	}
	seen := make(map[string]bool, len(remote))

	for _, d := range remote {
		if seen[d.FileID] {
			continue
		}
		seen[d.FileID] = true
		if orphans[d.FileID] {
			next.Orphans = append(next.Orphans, d.FileID)
			continue
		}

		rec := records[d.FileID]
		fav := favorites[d.FileID]
		d.FileType = Classify(d.Name, d.FileType)

		merged = append(merged, models.MergedFile{Descriptor: d, Folder: rec.Folder, IsFavorite: fav})
		next.Files = append(next.Files, models.FileRecord{
			FileID:     d.FileID,
			Folder:     rec.Folder,
			IsFavorite: fav,
			FileType:   d.FileType,
		})
	}

	for _, id := range local.Favorites {
		if seen[id] && !orphans[id] {
			next.Favorites = append(next.Favorites, id)
		}
	}

	return Filter(merged, scope), next
}

// Filter applies a folder scope: "" or "all" keeps everything, "favorites"
// keeps favorites, "recent" keeps the newest RecentLimit files (newest
// first) and anything else keeps files in the folder with that exact name.
func Filter(files []models.MergedFile, scope string) []models.MergedFile {
	switch scope {
	case "", ScopeAll:
		return files
	case ScopeFavorites:
		return keep(files, func(f models.MergedFile) bool { return f.IsFavorite })
	case ScopeRecent:
		recent := append([]models.MergedFile(nil), files...)
		sort.SliceStable(recent, func(i, j int) bool {
			return recent[i].CreatedAt.After(recent[j].CreatedAt)
		})
		if len(recent) > RecentLimit {
			recent = recent[:RecentLimit]
		}
		return recent
	default:
		return keep(files, func(f models.MergedFile) bool { return f.Folder == scope })
	}
}

func keep(files []models.MergedFile, pred func(models.MergedFile) bool) []models.MergedFile {
	out := make([]models.MergedFile, 0, len(files))
	for _, f := range files {
		if pred(f) {
			out = append(out, f)
		}
	}
	return out
}
