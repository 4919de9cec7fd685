package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"fotomu/models"
)

const (
	thumbPrefix = "_thumbs/"

	metaOriginalName = "original-name"
	metaWidth        = "width"
	metaHeight       = "height"
	metaThumbnail    = "thumbnail"
)

// MinioConfig locates the bucket holding the gallery.
type MinioConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	// PublicURL is the base clients use to reach objects, e.g. a CDN in
	// front of the bucket. Defaults to the endpoint itself.
	PublicURL string
}

// objectAPI is the subset of *minio.Client used here.
type objectAPI interface {
	BucketExists(ctx context.Context, bucket string) (bool, error)
	MakeBucket(ctx context.Context, bucket string, opts minio.MakeBucketOptions) error
	PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	RemoveObject(ctx context.Context, bucket, key string, opts minio.RemoveObjectOptions) error
	ListObjects(ctx context.Context, bucket string, opts minio.ListObjectsOptions) <-chan minio.ObjectInfo
	StatObject(ctx context.Context, bucket, key string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
}

// Minio stores gallery media in an S3 compatible bucket. The object key is
// the file id.
type Minio struct {
	client    objectAPI
	bucket    string
	publicURL string
	logger    *slog.Logger
}

var _ Storage = (*Minio)(nil)

// NewMinio connects to the configured endpoint.
func NewMinio(cfg MinioConfig, logger *slog.Logger) (*Minio, error) {
	endpoint := strings.TrimPrefix(strings.TrimPrefix(cfg.Endpoint, "https://"), "http://")
	if i := strings.Index(endpoint, "/"); i != -1 {
		endpoint = endpoint[:i]
	}

	// The default transport keeps only 2 idle conns per host.
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     90 * time.Second,
	}
	client, err := minio.New(endpoint, &minio.Options{
		Creds:     credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure:    cfg.UseSSL,
		Transport: transport,
	})
	if err != nil {
		return nil, fmt.Errorf("creating minio client: %w", err)
	}

	publicURL := cfg.PublicURL
	if publicURL == "" {
		scheme := "http"
		if cfg.UseSSL {
			scheme = "https"
		}
		publicURL = scheme + "://" + endpoint + "/" + cfg.Bucket
	}
	return newMinio(client, cfg.Bucket, publicURL, logger), nil
}

func newMinio(client objectAPI, bucket, publicURL string, logger *slog.Logger) *Minio {
	return &Minio{
		client:    client,
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
		logger:    logger,
	}
}

// EnsureBucket creates the bucket when it does not exist yet.
func (m *Minio) EnsureBucket(ctx context.Context) error {
	ok, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("checking bucket %q: %w", m.bucket, err)
	}
	if ok {
		return nil
	}
	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("creating bucket %q: %w", m.bucket, err)
	}
	m.logger.Info("created bucket", "bucket", m.bucket)
	return nil
}

// Upload stores req.Data under <folder>/<name>. Raster images also get a
// JPEG thumbnail and their dimensions recorded as object metadata.
func (m *Minio) Upload(ctx context.Context, req UploadRequest) (models.Descriptor, error) {
	key := objectKey(req.Folder, req.Name)
	meta := map[string]string{
		metaOriginalName: url.QueryEscape(req.OriginalName),
	}

	if strings.HasPrefix(req.ContentType, "image/") {
		if thumb, ok := makeThumbnail(req.Data); ok {
			meta[metaWidth] = strconv.Itoa(thumb.width)
			meta[metaHeight] = strconv.Itoa(thumb.height)

			tkey := thumbPrefix + key + ".jpg"
			_, err := m.client.PutObject(ctx, m.bucket, tkey, bytes.NewReader(thumb.data), int64(len(thumb.data)),
				minio.PutObjectOptions{ContentType: "image/jpeg"})
			if err != nil {
				m.logger.Warn("uploading thumbnail", "key", tkey, "error", err)
			} else {
				meta[metaThumbnail] = tkey
			}
		}
	}

	info, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(req.Data), int64(len(req.Data)),
		minio.PutObjectOptions{ContentType: req.ContentType, UserMetadata: meta})
	if err != nil {
		return models.Descriptor{}, fmt.Errorf("put %q: %w", key, err)
	}

	created := info.LastModified
	if created.IsZero() {
		created = time.Now()
	}
	return m.describe(minio.ObjectInfo{
		Key:          key,
		Size:         info.Size,
		ContentType:  req.ContentType,
		LastModified: created,
		UserMetadata: meta,
	}), nil
}

// Delete removes the object and, best effort, its thumbnail.
func (m *Minio) Delete(ctx context.Context, fileID string) error {
	if err := m.client.RemoveObject(ctx, m.bucket, fileID, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove %q: %w", fileID, err)
	}
	if err := m.client.RemoveObject(ctx, m.bucket, thumbPrefix+fileID+".jpg", minio.RemoveObjectOptions{}); err != nil {
		m.logger.Debug("removing thumbnail", "key", fileID, "error", err)
	}
	return nil
}

// List returns up to limit objects below pathPrefix; limit <= 0 means all.
func (m *Minio) List(ctx context.Context, pathPrefix string, limit int) ([]models.Descriptor, error) {
	prefix := strings.Trim(pathPrefix, "/")
	if prefix != "" {
		prefix += "/"
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ch := m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{
		Prefix:       prefix,
		Recursive:    true,
		WithMetadata: true,
	})
	descriptors := []models.Descriptor{}
	for obj := range ch {
		if obj.Err != nil {
			return nil, fmt.Errorf("list %q: %w", prefix, obj.Err)
		}
		if strings.HasSuffix(obj.Key, "/") || strings.HasPrefix(obj.Key, thumbPrefix) {
			continue
		}
		descriptors = append(descriptors, m.describe(obj))
		if limit > 0 && len(descriptors) >= limit {
			break
		}
	}
	return descriptors, nil
}

// Details returns the descriptor of one object, or ErrNotFound.
func (m *Minio) Details(ctx context.Context, fileID string) (models.Descriptor, error) {
	info, err := m.client.StatObject(ctx, m.bucket, fileID, minio.StatObjectOptions{})
	if err != nil {
		if isNotFound(err) {
			return models.Descriptor{}, fmt.Errorf("%q: %w", fileID, ErrNotFound)
		}
		return models.Descriptor{}, fmt.Errorf("stat %q: %w", fileID, err)
	}
	return m.describe(info), nil
}

func (m *Minio) describe(obj minio.ObjectInfo) models.Descriptor {
	d := models.Descriptor{
		FileID:    obj.Key,
		Name:      path.Base(obj.Key),
		URL:       m.objectURL(obj.Key),
		Size:      obj.Size,
		FileType:  reportedType(obj.ContentType),
		CreatedAt: obj.LastModified,
	}
	d.ThumbnailURL = d.URL

	if v := userMeta(obj.UserMetadata, metaOriginalName); v != "" {
		if name, err := url.QueryUnescape(v); err == nil && name != "" {
			d.Name = name
		}
	}
	if v := userMeta(obj.UserMetadata, metaThumbnail); v != "" {
		d.ThumbnailURL = m.objectURL(v)
	}
	d.Width, _ = strconv.Atoi(userMeta(obj.UserMetadata, metaWidth))
	d.Height, _ = strconv.Atoi(userMeta(obj.UserMetadata, metaHeight))
	return d
}

func (m *Minio) objectURL(key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return m.publicURL + "/" + strings.Join(segments, "/")
}

// objectKey joins the folder path and name into an object key.
func objectKey(folder, name string) string {
	folder = strings.Trim(folder, "/")
	if folder == "" {
		return name
	}
	return folder + "/" + name
}

// reportedType mirrors what a CDN provider reports: images are recognised
// from their content type, everything else is "non-image".
func reportedType(contentType string) string {
	if strings.HasPrefix(contentType, "image/") {
		return models.TypeImage
	}
	return "non-image"
}

// userMeta looks a key up in object metadata. Stat returns canonical header
// names without the amz prefix while listings may keep it.
func userMeta(meta map[string]string, key string) string {
	for k, v := range meta {
		k = strings.ToLower(k)
		k = strings.TrimPrefix(k, "x-amz-meta-")
		if k == key {
			return v
		}
	}
	return ""
}

func isNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	if resp.Code == "NoSuchKey" || resp.StatusCode == http.StatusNotFound {
		return true
	}
	return errors.Is(err, ErrNotFound)
}
