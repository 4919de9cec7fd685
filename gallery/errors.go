package gallery

import "errors"

// Client errors.
var (
	ErrValidation      = errors.New("invalid request")
	ErrNotFound        = errors.New("not found")
	ErrDuplicateFolder = errors.New("folder already exists")
)

// ErrRemoteStorage wraps failures of the remote object store.
var ErrRemoteStorage = errors.New("remote storage error")
