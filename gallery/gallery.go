// Package gallery implements the photo and video gallery: listing with
// metadata reconciliation, folders and favorites, uploads, deletion and
// zip archives.
package gallery

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"fotomu/metadata"
	"fotomu/models"
	"fotomu/storage"
)

// Options tunes the gallery. Zero values take the defaults below.
type Options struct {
	// Root is the remote path every gallery object lives under.
	Root string
	// ListLimit caps a remote listing; 0 lists everything.
	ListLimit int

	MaxFileSize  int64
	MaxFiles     int
	AllowedTypes []string

	DeleteAttempts   int
	DeleteRetryDelay time.Duration

	ArchiveFetchTimeout time.Duration
	ArchiveConcurrency  int
	// HTTPClient fetches archive members. Built from ArchiveFetchTimeout
	// when nil.
	HTTPClient *http.Client
}

const (
	defaultRoot               = "gallery"
	defaultMaxFileSize        = 100 << 20
	defaultMaxFiles           = 20
	defaultDeleteAttempts     = 3
	defaultDeleteRetryDelay   = time.Second
	defaultFetchTimeout       = 30 * time.Second
	defaultArchiveConcurrency = 8
)

func (o Options) withDefaults() Options {
	if o.Root == "" {
		o.Root = defaultRoot
	}
	o.Root = strings.Trim(o.Root, "/")
	if o.MaxFileSize <= 0 {
		o.MaxFileSize = defaultMaxFileSize
	}
	if o.MaxFiles <= 0 {
		o.MaxFiles = defaultMaxFiles
	}
	if o.DeleteAttempts <= 0 {
		o.DeleteAttempts = defaultDeleteAttempts
	}
	if o.DeleteRetryDelay <= 0 {
		o.DeleteRetryDelay = defaultDeleteRetryDelay
	}
	if o.ArchiveFetchTimeout <= 0 {
		o.ArchiveFetchTimeout = defaultFetchTimeout
	}
	if o.ArchiveConcurrency <= 0 {
		o.ArchiveConcurrency = defaultArchiveConcurrency
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{
			Transport: &http.Transport{
				Proxy:                 http.ProxyFromEnvironment,
				MaxIdleConnsPerHost:   o.ArchiveConcurrency,
				IdleConnTimeout:       90 * time.Second,
				ResponseHeaderTimeout: o.ArchiveFetchTimeout,
			},
		}
	}
	return o
}

// Gallery ties the metadata store to remote storage.
type Gallery struct {
	store   *metadata.Store
	remote  storage.Storage
	opts    Options
	allowed map[string]bool
	logger  *slog.Logger
}

// New returns a Gallery.
func New(store *metadata.Store, remote storage.Storage, opts Options, logger *slog.Logger) *Gallery {
	opts = opts.withDefaults()
	allowed := make(map[string]bool, len(opts.AllowedTypes))
	for _, t := range opts.AllowedTypes {
		allowed[strings.ToLower(strings.TrimSpace(t))] = true
	}
	return &Gallery{
		store:   store,
		remote:  remote,
		opts:    opts,
		allowed: allowed,
		logger:  logger,
	}
}

// List lists remote storage, reconciles it with local metadata, persists
// the reconciled metadata and returns the files in scope. Listing is
// therefore also how local metadata heals: files added out of band appear
// in the root and records of vanished files are pruned.
func (g *Gallery) List(ctx context.Context, scope string) ([]models.MergedFile, error) {
	var files []models.MergedFile
	err := g.store.Update(ctx, func(s *models.State) error {
		// Listing under the lock keeps an upload that finishes meanwhile
		// from being pruned as unseen.
		remote, err := g.remote.List(ctx, g.opts.Root, g.opts.ListLimit)
		if err != nil {
			return fmt.Errorf("%w: listing files: %w", ErrRemoteStorage, err)
		}

		var next *models.State
		files, next = Reconcile(remote, s, scope)
		*s = *next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

// remoteFolder is the remote path uploads into folder are stored under.
func (g *Gallery) remoteFolder(folder string) string {
	if folder == "" {
		return g.opts.Root
	}
	seg := strings.NewReplacer("/", "-", `\`, "-").Replace(folder)
	if seg == "." || seg == ".." {
		seg = "_"
	}
	return g.opts.Root + "/" + seg
}
