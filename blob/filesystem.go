package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/awantoch/portflow/utils"
)

const fileURLPrefix = "file://"

// FilesystemBlobStore implements BlobStore using the local filesystem.
type FilesystemBlobStore struct {
	dir string
}

var _ BlobStore = (*FilesystemBlobStore)(nil)

// NewFilesystemBlobStore creates a new FilesystemBlobStore with the given directory.
// The directory will be created if it does not exist.
func NewFilesystemBlobStore(dir string) (*FilesystemBlobStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FilesystemBlobStore{dir: dir}, nil
}

// Put stores the blob below the directory and returns a file:// URL. Keys
// that would escape the directory are rejected.
func (f *FilesystemBlobStore) Put(ctx context.Context, data []byte, mime, key string) (string, error) {
	if key == "" {
		key = fmt.Sprintf("blob-%d", time.Now().UnixNano())
	}
	rel := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(rel) || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", utils.Errorf("invalid blob key: %s", key)
	}
	path := filepath.Join(f.dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	// Write atomically
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return "", err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return "", err
	}
	return fileURLPrefix + path, nil
}

// Get retrieves the blob from the file:// URL.
func (f *FilesystemBlobStore) Get(ctx context.Context, url string) ([]byte, error) {
	if !strings.HasPrefix(url, fileURLPrefix) {
		return nil, utils.Errorf("invalid file URL: %s", url)
	}
	return os.ReadFile(url[len(fileURLPrefix):])
}
