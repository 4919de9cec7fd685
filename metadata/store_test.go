package metadata

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fotomu/db"
	"fotomu/models"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func sampleState() *models.State {
	return &models.State{
		Files: []models.FileRecord{
			{FileID: "gallery/a.jpg", Folder: "Trip", FileType: models.TypeImage},
			{FileID: "gallery/b.mp4", FileType: models.TypeVideo},
		},
		Favorites: []string{"gallery/b.mp4"},
		Folders: []models.Folder{
			{Name: "Trip", CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)},
		},
	}
}

func TestJSONFile_MissingFileIsEmpty(t *testing.T) {
	repo := NewJSONFile(filepath.Join(t.TempDir(), "metadata.json"), discardLogger())

	state, err := repo.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, state.Files)
	assert.Empty(t, state.Favorites)
	assert.Empty(t, state.Folders)
	assert.NotNil(t, state.Files)
}

func TestJSONFile_CorruptFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))

	state, err := NewJSONFile(path, discardLogger()).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, state.Files)
}

func TestJSONFile_SaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "metadata.json")
	repo := NewJSONFile(path, discardLogger())
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, sampleState()))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleState(), got)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files should not be left behind")
}

func TestJSONFile_KeepsDocumentFieldNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "metadata.json")
	require.NoError(t, NewJSONFile(path, discardLogger()).Save(context.Background(), sampleState()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	for _, key := range []string{`"files"`, `"favorites"`, `"folders"`, `"fileId"`, `"isFavorite"`, `"createdAt"`} {
		assert.Contains(t, string(data), key)
	}
}

func TestSQLite_SaveLoadRoundTrip(t *testing.T) {
	conn, err := db.Open(filepath.Join(t.TempDir(), "gallery.db"), false)
	require.NoError(t, err)
	repo := NewSQLite(conn)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, sampleState()))

	// A second save replaces rather than appends.
	next := sampleState()
	next.Files = next.Files[:1]
	next.Favorites = nil
	require.NoError(t, repo.Save(ctx, next))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got.Files, 1)
	assert.Equal(t, "gallery/a.jpg", got.Files[0].FileID)
	assert.Equal(t, "Trip", got.Files[0].Folder)
	assert.Empty(t, got.Favorites)
	require.Len(t, got.Folders, 1)
	assert.Equal(t, "Trip", got.Folders[0].Name)
	assert.True(t, got.Folders[0].CreatedAt.Equal(next.Folders[0].CreatedAt))
}

func TestSQLite_SavesLargeGallery(t *testing.T) {
	conn, err := db.Open(filepath.Join(t.TempDir(), "gallery.db"), false)
	require.NoError(t, err)
	repo := NewSQLite(conn)
	ctx := context.Background()

	const n = 9000
	state := models.NewState()
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("gallery/%05d.jpg", i)
		state.Files = append(state.Files, models.FileRecord{FileID: id, Folder: "Trip", FileType: models.TypeImage})
		state.Favorites = append(state.Favorites, id)
		state.Orphans = append(state.Orphans, fmt.Sprintf("gallery/gone-%05d.jpg", i))
	}
	state.Folders = []models.Folder{{Name: "Trip", CreatedAt: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)}}

	require.NoError(t, repo.Save(ctx, state))
	require.NoError(t, repo.Save(ctx, state))

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, got.Files, n)
	assert.Len(t, got.Favorites, n)
	assert.Len(t, got.Orphans, n)
	assert.Equal(t, "gallery/08999.jpg", got.Files[n-1].FileID)
}

func TestBolt_SaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "metadata.db")
	repo, err := OpenBolt(path)
	require.NoError(t, err)
	ctx := context.Background()

	got, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, got.Files)

	require.NoError(t, repo.Save(ctx, sampleState()))
	got, err = repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, sampleState(), got)

	next := sampleState()
	next.Files = next.Files[:1]
	next.Favorites = []string{}
	next.Orphans = []string{"gallery/old.jpg"}
	require.NoError(t, repo.Save(ctx, next))
	require.NoError(t, repo.Close())

	// Reopening sees the replaced document.
	repo, err = OpenBolt(path)
	require.NoError(t, err)
	defer repo.Close()

	got, err = repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, next, got)
}

func TestBolt_FoldersOrderedByCreation(t *testing.T) {
	repo, err := OpenBolt(filepath.Join(t.TempDir(), "metadata.db"))
	require.NoError(t, err)
	defer repo.Close()

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	state := &models.State{Folders: []models.Folder{
		{Name: "b", CreatedAt: base},
		{Name: "a", CreatedAt: base.Add(time.Hour)},
	}}
	require.NoError(t, repo.Save(context.Background(), state))

	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, got.Folders, 2)
	assert.Equal(t, "b", got.Folders[0].Name)
}

type memRepo struct {
	mu      sync.Mutex
	state   *models.State
	saves   int
	saveErr error
}

func (m *memRepo) Load(context.Context) (*models.State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == nil {
		return models.NewState(), nil
	}
	cp := *m.state
	cp.Files = append([]models.FileRecord(nil), m.state.Files...)
	cp.Favorites = append([]string(nil), m.state.Favorites...)
	cp.Folders = append([]models.Folder(nil), m.state.Folders...)
	return &cp, nil
}

func (m *memRepo) Save(_ context.Context, s *models.State) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.saveErr != nil {
		return m.saveErr
	}
	m.saves++
	m.state = s
	return nil
}

func TestStore_UpdateSerialisesWriters(t *testing.T) {
	repo := &memRepo{}
	store := NewStore(repo)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			err := store.Update(ctx, func(s *models.State) error {
				s.Files = append(s.Files, models.FileRecord{FileID: string(rune('A' + n))})
				return nil
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	state, err := store.Read(ctx)
	require.NoError(t, err)
	assert.Len(t, state.Files, 50, "no update should be lost")
}

func TestStore_UpdateErrorSkipsSave(t *testing.T) {
	repo := &memRepo{}
	store := NewStore(repo)
	boom := errors.New("boom")

	err := store.Update(context.Background(), func(s *models.State) error {
		s.Files = append(s.Files, models.FileRecord{FileID: "x"})
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Zero(t, repo.saves)
}

func TestStore_UpdateDerivesFavoriteFlags(t *testing.T) {
	repo := &memRepo{state: &models.State{
		Files: []models.FileRecord{{FileID: "a"}, {FileID: "b", IsFavorite: true}},
	}}
	store := NewStore(repo)

	err := store.Update(context.Background(), func(s *models.State) error {
		s.Favorites = []string{"a"}
		return nil
	})
	require.NoError(t, err)

	assert.True(t, repo.state.Files[0].IsFavorite)
	assert.False(t, repo.state.Files[1].IsFavorite)
}

func TestStore_SaveErrorPropagates(t *testing.T) {
	boom := errors.New("disk full")
	store := NewStore(&memRepo{saveErr: boom})

	err := store.Update(context.Background(), func(*models.State) error { return nil })
	assert.ErrorIs(t, err, boom)
}
