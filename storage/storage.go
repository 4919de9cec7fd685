// Package storage is the remote object store holding the gallery's media.
package storage

//go:generate mockgen -destination=mock_storage.go -package=storage fotomu/storage Storage

import (
	"context"
	"errors"

	"fotomu/models"
)

// ErrNotFound is returned when a remote object does not exist.
var ErrNotFound = errors.New("remote object not found")

// UploadRequest is one file pushed to remote storage.
type UploadRequest struct {
	Name         string
	OriginalName string
	Folder       string
	ContentType  string
	Data         []byte
}

// Storage is the remote storage capability used by the gallery.
type Storage interface {
	Upload(ctx context.Context, req UploadRequest) (models.Descriptor, error)
	Delete(ctx context.Context, fileID string) error
	List(ctx context.Context, pathPrefix string, limit int) ([]models.Descriptor, error)
	Details(ctx context.Context, fileID string) (models.Descriptor, error)
}
