package archive

import (
	"context"
	"fmt"

	"gallery-go/internal/config"
	"gallery-go/internal/gallery"
)

// NewArchiveStoreFromConfig creates an ArchiveStore based on the archive
// config type. It returns nil for "none" (or unset): evicted artifacts are
// deleted without a copy.
func NewArchiveStoreFromConfig(ctx context.Context, cfg config.ArchiveConfig) (gallery.ArchiveStore, error) {
	switch cfg.Type {
	case "none", "":
		return nil, nil
	case "memory":
		return NewMemoryStore("memory"), nil
	case "filesystem":
		if cfg.FSRoot == "" {
			return nil, fmt.Errorf("filesystem archive requires fs_root to be set")
		}
		store, err := NewFileSystemStore(cfg.FSRoot)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "s3":
		store, err := NewS3Store(ctx, s3OptionsFromEnv(S3Options{
			Bucket:   cfg.S3Bucket,
			Prefix:   cfg.S3Prefix,
			Region:   cfg.S3Region,
			Endpoint: cfg.S3Endpoint,
		}))
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unknown archive type: %s", cfg.Type)
	}
}
