package storage

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	cfg "github.com/devikamindvault/mindvault-bolt-1--sub000/internal/config"
)

var ErrNotFound = errors.New("stored file not found")

// Storage defines the interface for file storage operations
type Storage interface {
	// Save stores a file at the given path
	Save(path string, file io.Reader, size int64, contentType string) error

	// Open returns the stored bytes; callers close the reader
	Open(path string) (io.ReadCloser, error)

	// Delete removes a file at the given path
	Delete(path string) error
}

// Presigner is implemented by remote backends that hand out direct links.
// Public files get the long expiry.
type Presigner interface {
	SignedURL(path string, public bool) (string, error)
}

// New picks the backend named by STORAGE_DRIVER.
func New(c *cfg.Config) (Storage, error) {
	switch c.StorageDriver {
	case "", "local":
		slog.Info("initializing local storage", "dir", c.UploadDir)
		return NewLocalStorage(c.UploadDir)
	case "s3":
		slog.Info("initializing S3 storage",
			"bucket", c.S3Bucket,
			"region", c.S3Region,
			"endpoint", c.S3Endpoint,
		)
		return NewS3Storage(S3Config{
			Region:               c.S3Region,
			Bucket:               c.S3Bucket,
			AccessKey:            c.S3AccessKey,
			SecretKey:            c.S3SecretKey,
			Endpoint:             c.S3Endpoint,
			PresignExpiryPublic:  c.S3PresignExpiryPublic,
			PresignExpiryPrivate: c.S3PresignExpiryPrivate,
		})
	case "minio":
		slog.Info("initializing MinIO storage", "endpoint", c.MinioEndpoint, "bucket", c.MinioBucket)
		return NewMinioStorage(MinioConfig{
			Endpoint:  c.MinioEndpoint,
			AccessKey: c.MinioAccessKey,
			SecretKey: c.MinioSecretKey,
			Bucket:    c.MinioBucket,
			UseSSL:    c.MinioUseSSL,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", c.StorageDriver)
	}
}
