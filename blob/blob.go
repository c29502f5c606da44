package blob

import (
	"context"

	"github.com/awantoch/portflow/config"
	"github.com/awantoch/portflow/constants"
	"github.com/awantoch/portflow/utils"
)

// BlobStore is the interface for pluggable blob storage backends. Keys may
// contain "/" separators; the returned URL identifies the blob for Get.
type BlobStore interface {
	Put(ctx context.Context, data []byte, mime, key string) (url string, err error)
	Get(ctx context.Context, url string) ([]byte, error)
}

// NewBlobStore returns the store selected by cfg, or nil when archiving is disabled.
func NewBlobStore(ctx context.Context, cfg config.BlobConfig) (BlobStore, error) {
	switch cfg.Driver {
	case "":
		return nil, nil
	case constants.BlobDriverFilesystem:
		dir := cfg.Directory
		if dir == "" {
			dir = constants.DefaultBlobDirectory
		}
		return NewFilesystemBlobStore(dir)
	case constants.BlobDriverS3:
		if cfg.Bucket == "" || cfg.Region == "" {
			return nil, utils.Errorf("s3 driver requires bucket and region")
		}
		return NewS3BlobStore(ctx, cfg.Bucket, cfg.Region)
	default:
		return nil, utils.Errorf("unsupported blob driver: %s", cfg.Driver)
	}
}
