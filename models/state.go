package models

// State is the whole persisted metadata document.
type State struct {
	Files     []FileRecord `json:"files"`
	Favorites []string     `json:"favorites"`
	Folders   []Folder     `json:"folders"`
	// Orphans are files removed from the gallery whose remote copy could
	// not be deleted yet.
	Orphans   []string     `json:"orphans,omitempty"`
}

// NewState returns an empty document with non-nil collections.
func NewState() *State {
	return &State{
		Files:     []FileRecord{},
		Favorites: []string{},
		Folders:   []Folder{},
	}
}

// Normalize makes the favorites set the single source of truth. Records
// flagged as favorite by older documents are folded into the set first,
// then every record's IsFavorite is re-derived from it.
func (s *State) Normalize() {
	if s.Files == nil {
		s.Files = []FileRecord{}
	}
	if s.Folders == nil {
		s.Folders = []Folder{}
	}

	seen := make(map[string]bool, len(s.Favorites))
	favorites := make([]string, 0, len(s.Favorites))
	for _, id := range s.Favorites {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		favorites = append(favorites, id)
	}
	for _, f := range s.Files {
		if f.IsFavorite && !seen[f.FileID] {
			seen[f.FileID] = true
			favorites = append(favorites, f.FileID)
		}
	}
	s.Favorites = favorites
	s.syncFavoriteFlags(seen)
}

// SyncFavoriteFlags re-derives IsFavorite on every record from the set.
func (s *State) SyncFavoriteFlags() {
	s.syncFavoriteFlags(s.FavoriteSet())
}

func (s *State) syncFavoriteFlags(set map[string]bool) {
	for i := range s.Files {
		s.Files[i].IsFavorite = set[s.Files[i].FileID]
	}
}

// FavoriteSet returns the favorites as a lookup map.
func (s *State) FavoriteSet() map[string]bool {
	set := make(map[string]bool, len(s.Favorites))
	for _, id := range s.Favorites {
		set[id] = true
	}
	return set
}

// IsFavorite reports whether id is in the favorites set.
func (s *State) IsFavorite(id string) bool {
	for _, fav := range s.Favorites {
		if fav == id {
			return true
		}
	}
	return false
}

// SetFavorite adds or removes id from the favorites set and keeps the
// record flag in step. Both directions are idempotent.
func (s *State) SetFavorite(id string, favorite bool) {
	if favorite {
		if !s.IsFavorite(id) {
			s.Favorites = append(s.Favorites, id)
		}
	} else {
		kept := s.Favorites[:0]
		for _, fav := range s.Favorites {
			if fav != id {
				kept = append(kept, fav)
			}
		}
		s.Favorites = kept
	}
	if i := s.FileIndex(id); i >= 0 {
		s.Files[i].IsFavorite = favorite
	}
}

// FileIndex returns the index of the record for id, or -1.
func (s *State) FileIndex(id string) int {
	for i := range s.Files {
		if s.Files[i].FileID == id {
			return i
		}
	}
	return -1
}

// FolderIndex returns the index of the folder with the exact name, or -1.
func (s *State) FolderIndex(name string) int {
	for i := range s.Folders {
		if s.Folders[i].Name == name {
			return i
		}
	}
	return -1
}

// RemoveFile drops the record for id and its favorite membership.
// It reports whether a record existed.
func (s *State) RemoveFile(id string) bool {
	s.SetFavorite(id, false)
	i := s.FileIndex(id)
	if i < 0 {
		return false
	}
	s.Files = append(s.Files[:i], s.Files[i+1:]...)
	return true
}

// IsOrphan reports whether id awaits remote deletion.
func (s *State) IsOrphan(id string) bool {
	for _, o := range s.Orphans {
		if o == id {
			return true
		}
	}
	return false
}

// SetOrphan adds or removes id from the orphan list.
func (s *State) SetOrphan(id string, orphan bool) {
	if orphan {
		if !s.IsOrphan(id) {
			s.Orphans = append(s.Orphans, id)
		}
		return
	}
	kept := s.Orphans[:0]
	for _, o := range s.Orphans {
		if o != id {
			kept = append(kept, o)
		}
	}
	s.Orphans = kept
}
