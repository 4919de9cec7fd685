package gallery

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fotomu/models"
)

func TestCreateFolder(t *testing.T) {
	env := newTestEnv(t, Options{})
	ctx := context.Background()

	f, err := env.g.CreateFolder(ctx, "  Trip  ")
	require.NoError(t, err)
	assert.Equal(t, "Trip", f.Name)
	assert.False(t, f.CreatedAt.IsZero())

	_, err = env.g.CreateFolder(ctx, "Trip")
	assert.ErrorIs(t, err, ErrDuplicateFolder)

	_, err = env.g.CreateFolder(ctx, "trip")
	assert.NoError(t, err, "names are case-sensitive")

	_, err = env.g.CreateFolder(ctx, "   ")
	assert.ErrorIs(t, err, ErrValidation)

	folders, err := env.g.Folders(ctx)
	require.NoError(t, err)
	assert.Len(t, folders, 2)
}

func TestRenameFolder_CascadesToFiles(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.seed(t, &models.State{
		Files: []models.FileRecord{
			{FileID: "gallery/a.jpg", Folder: "X"},
			{FileID: "gallery/b.jpg", Folder: "X"},
			{FileID: "gallery/c.jpg"},
		},
		Folders: []models.Folder{{Name: "X"}},
	})
	env.expectListing(desc("gallery/a.jpg", 0), desc("gallery/b.jpg", 0), desc("gallery/c.jpg", 0))
	ctx := context.Background()

	before, err := env.g.List(ctx, "X")
	require.NoError(t, err)

	require.NoError(t, env.g.RenameFolder(ctx, "X", " Y "))

	after, err := env.g.List(ctx, "Y")
	require.NoError(t, err)
	assert.Equal(t, ids(before), ids(after))

	old, err := env.g.List(ctx, "X")
	require.NoError(t, err)
	assert.Empty(t, old)

	state := env.state(t)
	assert.Equal(t, "Y", state.Folders[0].Name)
	assert.Equal(t, "", state.Files[2].Folder)
}

func TestRenameFolder_Errors(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.seed(t, &models.State{Folders: []models.Folder{{Name: "A"}, {Name: "B"}}})
	ctx := context.Background()

	assert.ErrorIs(t, env.g.RenameFolder(ctx, "Missing", "C"), ErrNotFound)
	assert.ErrorIs(t, env.g.RenameFolder(ctx, "A", "B"), ErrDuplicateFolder)
	assert.ErrorIs(t, env.g.RenameFolder(ctx, "A", ""), ErrValidation)
	assert.NoError(t, env.g.RenameFolder(ctx, "A", "A"))

	folders, err := env.g.Folders(ctx)
	require.NoError(t, err)
	assert.Equal(t, "A", folders[0].Name)
	assert.Equal(t, "B", folders[1].Name)
}

func TestDeleteFolder_MovesFilesToRoot(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.seed(t, &models.State{
		Files: []models.FileRecord{
			{FileID: "gallery/a.jpg", Folder: "X"},
			{FileID: "gallery/b.jpg", Folder: "Other"},
		},
		Folders: []models.Folder{{Name: "X"}, {Name: "Other"}},
	})
	env.expectListing(desc("gallery/a.jpg", 0), desc("gallery/b.jpg", 0))
	ctx := context.Background()

	require.NoError(t, env.g.DeleteFolder(ctx, "X"))
	require.NoError(t, env.g.DeleteFolder(ctx, "X"), "deleting a missing folder is a no-op")

	all, err := env.g.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2, "files survive folder deletion")
	assert.Equal(t, "", all[0].Folder)
	assert.Equal(t, "Other", all[1].Folder)

	folders, err := env.g.Folders(ctx)
	require.NoError(t, err)
	require.Len(t, folders, 1)
	assert.Equal(t, "Other", folders[0].Name)
}

func TestMove_ThenListFolder(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.seed(t, &models.State{Folders: []models.Folder{{Name: "Trip", CreatedAt: time.Now()}}})
	env.expectListing(desc("gallery/a.jpg", 0), desc("gallery/b.jpg", 0), desc("gallery/c.jpg", 0))
	ctx := context.Background()

	// Records are created by the first listing.
	_, err := env.g.List(ctx, "")
	require.NoError(t, err)

	moved, err := env.g.Move(ctx, []string{"gallery/a.jpg", "gallery/c.jpg", "gallery/a.jpg"}, "Trip")
	require.NoError(t, err)
	assert.Equal(t, 2, moved)

	trip, err := env.g.List(ctx, "Trip")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"gallery/a.jpg", "gallery/c.jpg"}, ids(trip))
}

func TestMove_UnknownIDsCreateBareRecords(t *testing.T) {
	env := newTestEnv(t, Options{})
	ctx := context.Background()

	moved, err := env.g.Move(ctx, []string{"gallery/unseen.jpg"}, "Trip")
	require.NoError(t, err)
	assert.Equal(t, 1, moved)
	assert.Equal(t, []models.FileRecord{{FileID: "gallery/unseen.jpg", Folder: "Trip"}}, env.state(t).Files)

	_, err = env.g.Move(ctx, nil, "Trip")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestLikeUnlike_RoundTrip(t *testing.T) {
	env := newTestEnv(t, Options{})
	env.seed(t, &models.State{
		Files:     []models.FileRecord{{FileID: "a"}, {FileID: "b"}},
		Favorites: []string{"b"},
	})
	ctx := context.Background()
	before := env.state(t).Favorites

	require.NoError(t, env.g.Like(ctx, "a"))
	require.NoError(t, env.g.Like(ctx, "a"))
	mid := env.state(t)
	assert.ElementsMatch(t, []string{"a", "b"}, mid.Favorites)
	assert.True(t, mid.Files[0].IsFavorite)

	require.NoError(t, env.g.Unlike(ctx, "a"))
	require.NoError(t, env.g.Unlike(ctx, "a"))
	after := env.state(t)
	assert.Equal(t, before, after.Favorites)
	assert.False(t, after.Files[0].IsFavorite)

	assert.ErrorIs(t, env.g.Like(ctx, " "), ErrValidation)
}
