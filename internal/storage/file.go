// Package storage provides blob-based persistence for local caches.
package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/roshan4665/fundfolio/internal/common"
)

// ErrBlobNotFound is returned when a key has never been written.
var ErrBlobNotFound = errors.New("blob not found")

// Well-known cache keys.
const (
	KeyPortfolio = "portfolio/holdings.json"
	KeyCatalog   = "catalog/funds.json"
)

// FileBlobStore implements BlobStore on the local filesystem. Keys map to
// file paths under the base directory: "portfolio/holdings.json" ->
// "{basePath}/portfolio/holdings.json".
type FileBlobStore struct {
	basePath string
	logger   *common.Logger
}

// NewFileBlobStore creates a new file-based blob store.
func NewFileBlobStore(logger *common.Logger, basePath string) (*FileBlobStore, error) {
	if basePath == "" {
		return nil, fmt.Errorf("blob store base path is required")
	}

	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base directory %s: %w", basePath, err)
	}

	fb := &FileBlobStore{
		basePath: basePath,
		logger:   logger,
	}

	logger.Debug().Str("path", basePath).Msg("FileBlobStore initialized")
	return fb, nil
}

// sanitizeKey converts a key to a safe filesystem path, allowing "/" for
// subdirectories while rejecting traversal segments.
func (fb *FileBlobStore) sanitizeKey(key string) string {
	clean := filepath.Clean(key)
	clean = strings.TrimPrefix(clean, "/")
	if strings.Contains(clean, "..") {
		clean = strings.ReplaceAll(clean, "..", "__")
	}
	return clean
}

func (fb *FileBlobStore) keyToPath(key string) string {
	return filepath.Join(fb.basePath, fb.sanitizeKey(key))
}

// Get retrieves a blob by key.
func (fb *FileBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(fb.keyToPath(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrBlobNotFound
		}
		return nil, fmt.Errorf("failed to read blob %s: %w", key, err)
	}
	return data, nil
}

// Put stores a blob atomically using temp file + rename.
func (fb *FileBlobStore) Put(ctx context.Context, key string, data []byte) error {
	path := fb.keyToPath(key)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".blob-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", key, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write blob %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close blob %s: %w", key, err)
	}

	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to finalize blob %s: %w", key, err)
	}
	return nil
}

// Delete removes a blob. Deleting a missing key is not an error.
func (fb *FileBlobStore) Delete(ctx context.Context, key string) error {
	err := os.Remove(fb.keyToPath(key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete blob %s: %w", key, err)
	}
	return nil
}
