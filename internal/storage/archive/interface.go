// internal/storage/archive/interface.go
package archive

import (
	"context"
	"fmt"

	"github.com/newthinker/augur/internal/config"
)

// Storage is a cold-storage backend addressed by slash-separated paths.
type Storage interface {
	// Write stores data at the given path, replacing any previous object.
	Write(ctx context.Context, path string, data []byte) error

	// Read retrieves data from the given path. A missing object yields
	// core.ErrNotFound.
	Read(ctx context.Context, path string) ([]byte, error)

	// List returns all paths under prefix.
	List(ctx context.Context, prefix string) ([]string, error)

	// Exists checks if data exists at the given path.
	Exists(ctx context.Context, path string) (bool, error)
}

// New builds the backend named by cfg.Type.
func New(cfg config.ArchiveConfig) (Storage, error) {
	switch cfg.Type {
	case "", "localfs":
		return NewLocalFS(cfg.Path)
	case "s3":
		return NewS3(S3Config{
			Bucket:    cfg.S3.Bucket,
			Endpoint:  cfg.S3.Endpoint,
			Region:    cfg.S3.Region,
			AccessKey: cfg.S3.AccessKey,
			SecretKey: cfg.S3.SecretKey,
			Prefix:    cfg.S3.Prefix,
		})
	default:
		return nil, fmt.Errorf("unknown archive type: %s", cfg.Type)
	}
}
