package gallery

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"fotomu/models"
	"fotomu/storage"
)

const maxStemLength = 40

// stripMarks folds accented letters to their base letter ("é" to "e").
// Chained transformers hold state, so each call gets its own.
func stripMarks() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// UploadFile is one file of an upload batch.
type UploadFile struct {
	Filename    string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// UploadSummary reports what happened to each file of a batch.
type UploadSummary struct {
	Uploaded []models.UploadResult
	Errors   []models.UploadError
}

// Upload stores a batch of files in folder. A file that is rejected or fails
// to upload is reported in Errors and does not stop the rest of the batch.
// Metadata for the stored files is persisted once at the end.
func (g *Gallery) Upload(ctx context.Context, files []UploadFile, folder string) (UploadSummary, error) {
	if len(files) == 0 {
		return UploadSummary{}, fmt.Errorf("%w: no files uploaded", ErrValidation)
	}
	if len(files) > g.opts.MaxFiles {
		return UploadSummary{}, fmt.Errorf("%w: at most %d files per upload", ErrValidation, g.opts.MaxFiles)
	}
	folder = strings.TrimSpace(folder)

	summary := UploadSummary{Uploaded: []models.UploadResult{}}
	records := make([]models.FileRecord, 0, len(files))

	for _, f := range files {
		result, err := g.uploadOne(ctx, f, folder)
		if err != nil {
			g.logger.Warn("upload failed", "file", f.Filename, "error", err)
			summary.Errors = append(summary.Errors, models.UploadError{Filename: f.Filename, Error: err.Error()})
			continue
		}
		summary.Uploaded = append(summary.Uploaded, result)
		records = append(records, models.FileRecord{
			FileID:   result.FileID,
			Folder:   folder,
			FileType: result.FileType,
		})
	}

	if len(records) > 0 {
		err := g.store.Update(ctx, func(s *models.State) error {
			for _, rec := range records {
				if i := s.FileIndex(rec.FileID); i >= 0 {
					s.Files[i] = rec
					continue
				}
				s.Files = append(s.Files, rec)
			}
			return nil
		})
		if err != nil {
			return summary, fmt.Errorf("saving metadata: %w", err)
		}
	}

	g.logger.Info("upload batch finished", "folder", folder, "uploaded", len(summary.Uploaded), "failed", len(summary.Errors))
	return summary, nil
}

func (g *Gallery) uploadOne(ctx context.Context, f UploadFile, folder string) (models.UploadResult, error) {
	contentType := strings.ToLower(strings.TrimSpace(f.ContentType))
	if !g.allowed[contentType] {
		return models.UploadResult{}, fmt.Errorf("%w: file type %q is not allowed", ErrValidation, f.ContentType)
	}
	if f.Size > g.opts.MaxFileSize {
		return models.UploadResult{}, fmt.Errorf("%w: file exceeds %d bytes", ErrValidation, g.opts.MaxFileSize)
	}

	rc, err := f.Open()
	if err != nil {
		return models.UploadResult{}, fmt.Errorf("opening upload: %w", err)
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, g.opts.MaxFileSize+1))
	if err != nil {
		return models.UploadResult{}, fmt.Errorf("reading upload: %w", err)
	}
	if int64(len(data)) > g.opts.MaxFileSize {
		return models.UploadResult{}, fmt.Errorf("%w: file exceeds %d bytes", ErrValidation, g.opts.MaxFileSize)
	}

	name := uniqueName(f.Filename)
	fileType := TypeFromContentType(contentType)

	d, err := g.remote.Upload(ctx, storage.UploadRequest{
		Name:         name,
		OriginalName: f.Filename,
		Folder:       g.remoteFolder(folder),
		ContentType:  contentType,
		Data:         data,
	})
	if err != nil {
		return models.UploadResult{}, fmt.Errorf("%w: %w", ErrRemoteStorage, err)
	}

	return models.UploadResult{
		OriginalName: f.Filename,
		Name:         name,
		FileID:       d.FileID,
		URL:          d.URL,
		ThumbnailURL: d.ThumbnailURL,
		FileType:     fileType,
		Size:         int64(len(data)),
	}, nil
}

// uniqueName turns an uploaded filename into a storage-safe name that cannot
// collide with any other upload: <normalised stem>_<uuid><ext>.
func uniqueName(filename string) string {
	base := path.Base(strings.ReplaceAll(filename, `\`, "/"))
	ext := strings.ToLower(path.Ext(base))
	stem := strings.TrimSuffix(base, path.Ext(base))
	if folded, _, err := transform.String(stripMarks(), stem); err == nil {
		stem = folded
	}

	var b strings.Builder
	for _, r := range stem {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
		if b.Len() >= maxStemLength {
			break
		}
	}
	clean := strings.Trim(b.String(), "_")
	if clean == "" {
		clean = "file"
	}

	if !isSafeExt(ext) {
		ext = ""
	}
	return clean + "_" + uuid.NewString() + ext
}

func isSafeExt(ext string) bool {
	if len(ext) < 2 || len(ext) > 6 {
		return false
	}
	for _, r := range ext[1:] {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
			return false
		}
	}
	return true
}
