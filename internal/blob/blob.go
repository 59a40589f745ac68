// Package blob implements talentflow.BlobStore on several backends.
package blob

import (
	"fmt"
	"io"
	"path"
	"strings"

	"talentflow/internal/talentflow"
)

// ErrNotFound is returned by Get when a key has no blob.
// It matches talentflow.ErrNotFound with errors.Is.
var ErrNotFound = fmt.Errorf("blob %w", talentflow.ErrNotFound)

func notFound(key string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, key)
}

// validateKey rejects keys that could escape a backend's namespace.
func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("empty blob key")
	}
	if strings.HasPrefix(key, "/") || path.Clean(key) != key || strings.HasPrefix(key, "../") || key == ".." {
		return fmt.Errorf("invalid blob key %q", key)
	}
	return nil
}

// readSized reads exactly size bytes from r.
func readSized(r io.Reader, size int64) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob: %w", err)
	}
	if int64(len(data)) != size {
		return nil, fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}
	return data, nil
}
