package gallery

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"path"
	"strings"

	"golang.org/x/sync/errgroup"

	"fotomu/models"
	"fotomu/storage"
)

// ArchiveRequest selects archive members: explicit file ids, or when none
// are given, a folder scope ("" for everything).
type ArchiveRequest struct {
	Files  []string `json:"files"`
	Folder string   `json:"folder"`
}

// ResolveArchive turns a request into the descriptors to pack. Ids that no
// longer resolve are logged and skipped.
func (g *Gallery) ResolveArchive(ctx context.Context, req ArchiveRequest) ([]models.Descriptor, error) {
	var members []models.Descriptor

	if ids := uniqueIDs(req.Files); len(ids) > 0 {
		state, err := g.store.Read(ctx)
		if err != nil {
			return nil, err
		}
		for _, id := range ids {
			if !g.owns(id) {
				g.logger.Warn("archive member outside the gallery, skipping", "fileId", id)
				continue
			}
			if state.IsOrphan(id) {
				g.logger.Warn("archive member was deleted, skipping", "fileId", id)
				continue
			}
			d, err := g.remote.Details(ctx, id)
			if err != nil {
				if errors.Is(err, storage.ErrNotFound) {
					g.logger.Warn("archive member not found, skipping", "fileId", id)
				} else {
					g.logger.Warn("archive member lookup failed, skipping", "fileId", id, "error", err)
				}
				continue
			}
			d.FileType = Classify(d.Name, d.FileType)
			members = append(members, d)
		}
	} else {
		remote, err := g.remote.List(ctx, g.opts.Root, g.opts.ListLimit)
		if err != nil {
			return nil, fmt.Errorf("%w: listing files: %w", ErrRemoteStorage, err)
		}
		state, err := g.store.Read(ctx)
		if err != nil {
			return nil, err
		}
		// Folder membership is local, so the scope is resolved through the
		// reconciled view. Nothing is persisted here.
		files, _ := Reconcile(remote, state, req.Folder)
		for _, f := range files {
			members = append(members, f.Descriptor)
		}
	}

	if len(members) == 0 {
		return nil, fmt.Errorf("%w: no files to download", ErrNotFound)
	}
	return members, nil
}

type fetchedMember struct {
	desc models.Descriptor
	body io.ReadCloser
}

// WriteArchive fetches every member concurrently and streams the ones that
// could be retrieved into a zip written to w. Members that fail to fetch are
// logged and left out. The archive is finalised only after every fetch has
// finished. It returns the number of entries written.
func (g *Gallery) WriteArchive(ctx context.Context, w io.Writer, members []models.Descriptor) (int, error) {
	zw := zip.NewWriter(w)
	bodies := make(chan fetchedMember)

	go func() {
		var eg errgroup.Group
		eg.SetLimit(g.opts.ArchiveConcurrency)
		for _, d := range members {
			eg.Go(func() error {
				body, err := g.fetch(ctx, d.URL)
				if err != nil {
					g.logger.Warn("archive member fetch failed, skipping", "fileId", d.FileID, "error", err)
					return nil
				}
				bodies <- fetchedMember{desc: d, body: body}
				return nil
			})
		}
		_ = eg.Wait()
		close(bodies)
	}()

	names := entryNamer{}
	written := 0
	var writeErr error

	for m := range bodies {
		if writeErr != nil {
			m.body.Close()
			continue
		}

		method := zip.Deflate
		if m.desc.FileType == models.TypeImage || m.desc.FileType == models.TypeVideo {
			// Media is already compressed.
			method = zip.Store
		}
		entry, err := zw.CreateHeader(&zip.FileHeader{
			Name:     names.next(m.desc.Name),
			Method:   method,
			Modified: m.desc.CreatedAt,
		})
		if err != nil {
			writeErr = fmt.Errorf("creating zip entry: %w", err)
			m.body.Close()
			continue
		}

		if _, err := io.Copy(entry, m.body); err != nil {
			g.logger.Warn("archive member truncated", "fileId", m.desc.FileID, "error", err)
		}
		m.body.Close()
		written++
	}

	if writeErr != nil {
		return written, writeErr
	}
	if err := zw.Close(); err != nil {
		return written, fmt.Errorf("finalising zip: %w", err)
	}
	return written, nil
}

func (g *Gallery) fetch(ctx context.Context, url string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := g.opts.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return resp.Body, nil
}

// entryNamer hands out unique archive entry names, suffixing repeats as
// "name (1).ext".
type entryNamer map[string]bool

func (n entryNamer) next(name string) string {
	name = strings.TrimLeft(path.Clean("/"+strings.ReplaceAll(name, `\`, "/")), "/")
	if name == "" {
		name = "file"
	}
	candidate := name
	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	for i := 1; n[candidate]; i++ {
		candidate = fmt.Sprintf("%s (%d)%s", stem, i, ext)
	}
	n[candidate] = true
	return candidate
}
