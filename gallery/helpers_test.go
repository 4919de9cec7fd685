package gallery

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"fotomu/metadata"
	"fotomu/models"
	"fotomu/storage"
)

type testEnv struct {
	g      *Gallery
	remote *storage.MockStorage
	store  *metadata.Store
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestEnv(t *testing.T, opts Options) *testEnv {
	t.Helper()
	ctrl := gomock.NewController(t)
	remote := storage.NewMockStorage(ctrl)
	store := metadata.NewStore(metadata.NewJSONFile(filepath.Join(t.TempDir(), "metadata.json"), discardLogger()))

	if opts.DeleteRetryDelay == 0 {
		opts.DeleteRetryDelay = time.Millisecond
	}
	return &testEnv{
		g:      New(store, remote, opts, discardLogger()),
		remote: remote,
		store:  store,
	}
}

// seed replaces the stored metadata.
func (e *testEnv) seed(t *testing.T, state *models.State) {
	t.Helper()
	err := e.store.Update(context.Background(), func(s *models.State) error {
		*s = *state
		s.Normalize()
		return nil
	})
	require.NoError(t, err)
}

func (e *testEnv) state(t *testing.T) *models.State {
	t.Helper()
	s, err := e.store.Read(context.Background())
	require.NoError(t, err)
	return s
}

// expectListing makes every remote listing return descs.
func (e *testEnv) expectListing(descs ...models.Descriptor) {
	e.remote.EXPECT().List(gomock.Any(), "gallery", 0).Return(descs, nil).AnyTimes()
}

var baseTime = time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

func desc(id string, age time.Duration) models.Descriptor {
	name := filepath.Base(id)
	return models.Descriptor{
		FileID:       id,
		Name:         name,
		URL:          "https://cdn.example.com/" + id,
		ThumbnailURL: "https://cdn.example.com/" + id,
		Size:         1024,
		FileType:     models.TypeImage,
		CreatedAt:    baseTime.Add(-age),
	}
}

func ids(files []models.MergedFile) []string {
	out := make([]string, 0, len(files))
	for _, f := range files {
		out = append(out, f.FileID)
	}
	return out
}
