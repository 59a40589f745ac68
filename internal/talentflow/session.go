package talentflow

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// SessionKey is the blob key holding the logged-in user's id.
const SessionKey = "session/talentflow_user_id"

// SessionStore holds the id of the currently logged-in user.
type SessionStore interface {
	// UserID returns the stored user id, or ok=false when nobody is logged in.
	UserID(ctx context.Context) (id int64, ok bool, err error)
	SetUserID(ctx context.Context, id int64) error
	Clear(ctx context.Context) error
}

// BlobSession keeps the session slot in a BlobStore.
type BlobSession struct {
	blobs BlobStore
}

func NewBlobSession(blobs BlobStore) *BlobSession {
	return &BlobSession{blobs: blobs}
}

func (s *BlobSession) UserID(ctx context.Context) (int64, bool, error) {
	var buf bytes.Buffer
	if err := s.blobs.Get(ctx, SessionKey, &buf); err != nil {
		if errors.Is(err, ErrNotFound) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("reading session: %w", err)
	}
	raw := strings.TrimSpace(buf.String())
	if raw == "" {
		return 0, false, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("parsing session user id %q: %w", raw, err)
	}
	return id, true, nil
}

func (s *BlobSession) SetUserID(ctx context.Context, id int64) error {
	raw := strconv.FormatInt(id, 10)
	if err := s.blobs.Put(ctx, SessionKey, strings.NewReader(raw), int64(len(raw))); err != nil {
		return fmt.Errorf("writing session: %w", err)
	}
	return nil
}

func (s *BlobSession) Clear(ctx context.Context) error {
	if err := s.blobs.Delete(ctx, SessionKey); err != nil {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

var _ SessionStore = (*BlobSession)(nil)
