// Package media stores uploaded images and hands back the URL that posts
// and avatars reference. The rest of the application only ever sees that
// URL; image bytes are never inspected beyond the declared content type.
package media

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/xid"

	"github.com/sakif/postagram/internal/apperror"
	"github.com/sakif/postagram/internal/config"
)

// MaxImageSize caps a single upload.
const MaxImageSize = 5 << 20

// Store accepts an image and returns its stable reference URL.
type Store interface {
	Put(ctx context.Context, filename string, r io.Reader, size int64, contentType string) (string, error)
}

// MinIOStore is a Store backed by MinIO or any S3-compatible service.
type MinIOStore struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

var _ Store = (*MinIOStore)(nil)

// NewMinIO builds the client. It does not touch the network; call
// EnsureBucket at startup for that.
func NewMinIO(cfg config.MinIOConfig) (*MinIOStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("media: creating minio client: %w", err)
	}

	return &MinIOStore{
		client:    client,
		bucket:    cfg.Bucket,
		publicURL: publicBase(cfg),
	}, nil
}

// EnsureBucket creates the bucket if it does not exist yet.
func (s *MinIOStore) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("media: checking bucket %s: %w", s.bucket, err)
	}
	if exists {
		return nil
	}
	if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("media: creating bucket %s: %w", s.bucket, err)
	}
	return nil
}

// Put validates and uploads an image under a freshly generated name and
// returns its public URL.
func (s *MinIOStore) Put(ctx context.Context, filename string, r io.Reader, size int64, contentType string) (string, error) {
	if err := Validate(contentType, size); err != nil {
		return "", err
	}

	name := ObjectName(filename)
	_, err := s.client.PutObject(ctx, s.bucket, name, r, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("media: uploading %s: %w", name, err)
	}

	return s.publicURL + "/" + name, nil
}

// Validate accepts image/* content up to MaxImageSize bytes.
func Validate(contentType string, size int64) error {
	if !strings.HasPrefix(strings.ToLower(contentType), "image/") {
		return apperror.ValidationFailed("file", "only image uploads are allowed")
	}
	if size <= 0 {
		return apperror.ValidationFailed("file", "file is empty")
	}
	if size > MaxImageSize {
		return apperror.ValidationFailed("file",
			fmt.Sprintf("file must be %d MB or less", MaxImageSize>>20))
	}
	return nil
}

// ObjectName keeps the original extension and replaces the rest with an xid,
// so user-supplied names never reach the bucket.
func ObjectName(filename string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(filename)))
	if len(ext) > 10 || strings.ContainsAny(ext, `/\ `) {
		ext = ""
	}
	return xid.New().String() + ext
}

func publicBase(cfg config.MinIOConfig) string {
	if cfg.PublicURL != "" {
		return strings.TrimRight(cfg.PublicURL, "/")
	}
	scheme := "http"
	if cfg.UseSSL {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/%s", scheme, cfg.Endpoint, cfg.Bucket)
}
