package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"fotomu/models"
)

const (
	dirPerm  = fs.FileMode(0o755)
	filePerm = fs.FileMode(0o644)
)

// JSONFile keeps the document as a single JSON file on local disk.
type JSONFile struct {
	path   string
	logger *slog.Logger
}

// NewJSONFile returns a JSON sidecar repository at path.
func NewJSONFile(path string, logger *slog.Logger) *JSONFile {
	return &JSONFile{path: path, logger: logger}
}

// Load reads the document. A missing, unreadable or corrupt file yields an
// empty document rather than an error.
func (j *JSONFile) Load(_ context.Context) (*models.State, error) {
	data, err := os.ReadFile(j.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			j.logger.Warn("reading metadata, starting empty", "path", j.path, "error", err)
		}
		return models.NewState(), nil
	}

	state := models.NewState()
	if err := json.Unmarshal(data, state); err != nil {
		j.logger.Warn("decoding metadata, starting empty", "path", j.path, "error", err)
		return models.NewState(), nil
	}
	return state, nil
}

// Save writes the document to a temp file beside the target and renames it
// into place.
func (j *JSONFile) Save(_ context.Context, state *models.State) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding metadata: %w", err)
	}

	dir := filepath.Dir(j.path)
	if err := os.MkdirAll(dir, dirPerm); err != nil {
		return fmt.Errorf("creating metadata directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".metadata-*.json")
	if err != nil {
		return fmt.Errorf("creating temp metadata file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing metadata: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing metadata: %w", err)
	}
	if err := os.Chmod(tmpName, filePerm); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("setting metadata permissions: %w", err)
	}
	if err := os.Rename(tmpName, j.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing metadata: %w", err)
	}
	return nil
}
