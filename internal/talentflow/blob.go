package talentflow

import (
	"context"
	"io"
)

// BlobStore provides an interface for opaque key/value blob storage.
// It holds the session slot and raw assessment submissions.
// Keys are slash-separated paths such as "session/talentflow_user_id".
type BlobStore interface {
	// Put stores the blob under key, replacing any previous value.
	// size is the number of bytes that will be read from r.
	Put(ctx context.Context, key string, r io.Reader, size int64) error

	// Get writes the blob stored under key to w. It returns an error
	// matching ErrNotFound when the key is absent.
	Get(ctx context.Context, key string, w io.Writer) error

	// List returns the keys starting with prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)

	// Delete removes the blob. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
