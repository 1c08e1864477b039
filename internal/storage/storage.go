package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/BerylCAtieno/plumbing-sheet-classifier/internal/config"
)

// ErrNotFound is returned by Download when no object exists under the key.
var ErrNotFound = errors.New("object not found")

type Storage interface {
	Upload(ctx context.Context, key string, data []byte, contentType string) error
	Download(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
}

// ProjectKey is the object key of a project's uploaded PDF.
func ProjectKey(projectID string) string {
	return projectID + ".pdf"
}

// New returns the backend selected by cfg.StorageBackend.
func New(cfg *config.Config) (Storage, error) {
	switch cfg.StorageBackend {
	case "", config.StorageLocal:
		return NewLocalStorage(cfg.UploadDir)
	case config.StorageS3:
		return NewS3Storage(cfg)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
