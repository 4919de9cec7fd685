// Package metadata persists the gallery's organisation document: folder
// membership, favorites and cached file types.
package metadata

import (
	"context"
	"sync"

	"fotomu/models"
)

// Repository loads and saves the whole metadata document.
type Repository interface {
	Load(ctx context.Context) (*models.State, error)
	Save(ctx context.Context, state *models.State) error
}

// Store serialises read-modify-write cycles against a Repository so two
// concurrent mutations can never overwrite each other.
type Store struct {
	mu   sync.Mutex
	repo Repository
}

// NewStore wraps repo.
func NewStore(repo Repository) *Store {
	return &Store{repo: repo}
}

// Read returns a normalised snapshot of the document.
func (s *Store) Read(ctx context.Context) (*models.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load(ctx)
}

// Update loads the document, applies fn and saves the result. When fn
// returns an error nothing is saved and the error is returned unchanged.
func (s *Store) Update(ctx context.Context, fn func(*models.State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, err := s.load(ctx)
	if err != nil {
		return err
	}
	if err := fn(state); err != nil {
		return err
	}

	state.SyncFavoriteFlags()
	return s.repo.Save(ctx, state)
}

func (s *Store) load(ctx context.Context) (*models.State, error) {
	state, err := s.repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	if state == nil {
		state = models.NewState()
	}
	state.Normalize()
	return state, nil
}
