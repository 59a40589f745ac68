package blob

import (
	"context"
	"fmt"

	"talentflow/internal/config"
	"talentflow/internal/talentflow"
)

// NewStoreFromConfig creates the BlobStore selected by cfg.Type, wrapped in
// an EncryptedStore when enc.Enabled is set.
func NewStoreFromConfig(ctx context.Context, cfg config.BlobConfig, enc config.EncryptionConfig) (talentflow.BlobStore, error) {
	var store talentflow.BlobStore
	switch cfg.Type {
	case "memory":
		store = NewMemoryStore()
	case "filesystem":
		if cfg.Root == "" {
			return nil, fmt.Errorf("filesystem blob store requires root to be set")
		}
		fsStore, err := NewFileSystemStore(cfg.Root)
		if err != nil {
			return nil, err
		}
		store = fsStore
	case "s3":
		s3Store, err := NewS3Store(ctx, S3Options{
			Bucket:    cfg.S3Bucket,
			Prefix:    cfg.S3Prefix,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
		})
		if err != nil {
			return nil, err
		}
		store = s3Store
	case "redis":
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("redis blob store requires redis_addr to be set")
		}
		store = NewRedisStore(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisPrefix)
	default:
		return nil, fmt.Errorf("unknown blob type: %s", cfg.Type)
	}

	if !enc.Enabled {
		return store, nil
	}
	return NewEncryptedStoreFromFiles(store, enc.PublicKeyPath, enc.PrivateKeyPath)
}
