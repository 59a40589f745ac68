package blob

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/redis/go-redis/v9"

	"talentflow/internal/talentflow"
)

// RedisStore keeps each blob as a string value under prefix+key.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore creates a store on a new client. The connection is made
// lazily on first use.
func NewRedisStore(addr, password string, db int, prefix string) *RedisStore {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &RedisStore{client: rdb, prefix: prefix}
}

func (s *RedisStore) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	if err := validateKey(key); err != nil {
		return err
	}
	data, err := readSized(r, size)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.prefix+key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, key string, w io.Writer) error {
	data, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return notFound(key)
	}
	if err != nil {
		return fmt.Errorf("redis get %s: %w", key, err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write blob: %w", err)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context, prefix string) ([]string, error) {
	var raw []string
	iter := s.client.Scan(ctx, 0, globEscape(s.prefix+prefix)+"*", 100).Iterator()
	for iter.Next(ctx) {
		raw = append(raw, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("redis scan %s: %w", prefix, err)
	}
	return scannedKeys(raw, s.prefix), nil
}

// scannedKeys strips the store prefix and sorts. SCAN may return a key more
// than once, so duplicates are dropped.
func scannedKeys(raw []string, prefix string) []string {
	keys := make([]string, 0, len(raw))
	for _, k := range raw {
		keys = append(keys, strings.TrimPrefix(k, prefix))
	}
	slices.Sort(keys)
	return slices.Compact(keys)
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis del %s: %w", key, err)
	}
	return nil
}

// Close releases the client's connections.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

var globEscaper = strings.NewReplacer(`\`, `\\`, `*`, `\*`, `?`, `\?`, `[`, `\[`, `]`, `\]`)

func globEscape(s string) string {
	return globEscaper.Replace(s)
}

var _ talentflow.BlobStore = (*RedisStore)(nil)
