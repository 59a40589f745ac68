package store

import (
	"fmt"
	"os"
	"path/filepath"

	"talentflow/internal/config"
)

// DatabaseFile is the file name of the sqlite store under the data dir.
const DatabaseFile = "talentflow.db"

// NewStoreFromConfig opens the store selected by the database config type.
func NewStoreFromConfig(cfg config.DatabaseConfig) (*Store, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.DataDir == "" {
			return nil, fmt.Errorf("data_dir required for sqlite database")
		}
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return nil, fmt.Errorf("creating data dir: %w", err)
		}
		return Open(filepath.Join(cfg.DataDir, DatabaseFile))
	case "memory":
		return Open(MemoryPath)
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
