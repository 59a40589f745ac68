package config

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the TalentFlow configuration file.
type Config struct {
	BaseDir    string           `toml:"base_dir"`
	LogDir     string           `toml:"log_dir"`
	Database   DatabaseConfig   `toml:"database"`
	Blob       BlobConfig       `toml:"blob"`
	Encryption EncryptionConfig `toml:"encryption"`
	Gateway    GatewayConfig    `toml:"gateway"`
	Seed       SeedConfig       `toml:"seed"`
}

// DatabaseConfig selects the local store backend.
// Tagged union: Type decides which other fields apply.
type DatabaseConfig struct {
	Type    string `toml:"type"`               // "sqlite" or "memory"
	DataDir string `toml:"data_dir,omitempty"` // type=sqlite only
}

// BlobConfig selects where session data and raw submissions are kept.
// Tagged union: Type decides which other fields apply.
type BlobConfig struct {
	Type string `toml:"type"` // "memory", "filesystem", "s3" or "redis"

	// type=filesystem
	Root string `toml:"root,omitempty"`

	// type=s3
	S3Bucket    string `toml:"s3_bucket,omitempty"`
	S3Prefix    string `toml:"s3_prefix,omitempty"`
	S3Region    string `toml:"s3_region,omitempty"`
	S3Endpoint  string `toml:"s3_endpoint,omitempty"` // for S3-compatible services
	S3AccessKey string `toml:"s3_access_key,omitempty"`
	S3SecretKey string `toml:"s3_secret_key,omitempty"`

	// type=redis
	RedisAddr     string `toml:"redis_addr,omitempty"`
	RedisPassword string `toml:"redis_password,omitempty"`
	RedisDB       int    `toml:"redis_db,omitempty"`
	RedisPrefix   string `toml:"redis_prefix,omitempty"`
}

// EncryptionConfig holds the age key pair used to encrypt blobs at rest.
type EncryptionConfig struct {
	Enabled        bool   `toml:"enabled"`
	PublicKeyPath  string `toml:"public_key_path"`
	PrivateKeyPath string `toml:"private_key_path"`
}

// GatewayConfig configures the mock API gateway.
type GatewayConfig struct {
	Addr string `toml:"addr"`
	// Mode is "snapshot" (serve a copy taken at startup) or "live"
	// (serve the local store directly).
	Mode           string   `toml:"mode"`
	FaultRate      float64  `toml:"fault_rate"`
	RateLimitRPS   float64  `toml:"rate_limit_rps"` // 0 disables rate limiting
	RateLimitBurst int      `toml:"rate_limit_burst"`
	AllowOrigins   []string `toml:"allow_origins"`
}

// SeedConfig sets how much demo data the first run creates.
type SeedConfig struct {
	Recruiters  int `toml:"recruiters"`
	Applicants  int `toml:"applicants"`
	Jobs        int `toml:"jobs"`
	Candidates  int `toml:"candidates"`
	Assessments int `toml:"assessments"`
}

const (
	GatewayModeSnapshot = "snapshot"
	GatewayModeLive     = "live"
)

// NewConfig returns a Config with every default filled in, rooted at baseDir.
func NewConfig(baseDir string) *Config {
	return &Config{
		BaseDir: baseDir,
		LogDir:  filepath.Join(baseDir, "log"),
		Database: DatabaseConfig{
			Type:    "sqlite",
			DataDir: filepath.Join(baseDir, "db"),
		},
		Blob: BlobConfig{
			Type: "filesystem",
			Root: filepath.Join(baseDir, "blobs"),
		},
		Encryption: EncryptionConfig{
			PublicKeyPath:  filepath.Join(baseDir, "keys", "talentflow.pub"),
			PrivateKeyPath: filepath.Join(baseDir, "keys", "talentflow.key"),
		},
		Gateway: DefaultGatewayConfig(),
		Seed:    DefaultSeedConfig(),
	}
}

func DefaultGatewayConfig() GatewayConfig {
	return GatewayConfig{
		Addr:           "127.0.0.1:8080",
		Mode:           GatewayModeSnapshot,
		FaultRate:      0.1,
		RateLimitRPS:   50,
		RateLimitBurst: 100,
		AllowOrigins:   []string{"http://localhost:5173"},
	}
}

func DefaultSeedConfig() SeedConfig {
	return SeedConfig{
		Recruiters:  2,
		Applicants:  2,
		Jobs:        1000,
		Candidates:  50,
		Assessments: 10,
	}
}

// Validate checks the tagged unions and ranges that the factories rely on.
func (c *Config) Validate() error {
	switch c.Database.Type {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("unknown database type: %q", c.Database.Type)
	}
	switch c.Blob.Type {
	case "memory", "filesystem", "s3", "redis":
	default:
		return fmt.Errorf("unknown blob type: %q", c.Blob.Type)
	}
	switch c.Gateway.Mode {
	case GatewayModeSnapshot, GatewayModeLive:
	default:
		return fmt.Errorf("unknown gateway mode: %q", c.Gateway.Mode)
	}
	if c.Gateway.FaultRate < 0 || c.Gateway.FaultRate > 1 {
		return fmt.Errorf("gateway fault_rate must be within [0, 1], got %v", c.Gateway.FaultRate)
	}
	if c.Seed.Jobs < 0 || c.Seed.Candidates < 0 || c.Seed.Assessments < 0 || c.Seed.Recruiters < 0 || c.Seed.Applicants < 0 {
		return fmt.Errorf("seed counts must not be negative")
	}
	return nil
}

// Manager handles reading and writing configuration.
type Manager struct{}

// Read decodes a Config. Sections missing from the input keep their defaults.
func (m *Manager) Read(r io.Reader) (*Config, error) {
	cfg := Config{
		Gateway: DefaultGatewayConfig(),
		Seed:    DefaultSeedConfig(),
	}
	if _, err := toml.NewDecoder(r).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return &cfg, nil
}

// Write encodes a Config to the provided writer.
func (m *Manager) Write(w io.Writer, cfg *Config) error {
	if err := toml.NewEncoder(w).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// ReadFromFile reads and validates the Config at path.
func ReadFromFile(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	cfg, err := m.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Init writes cfg to a new file at path. An existing file is never overwritten.
func Init(path string, cfg *Config) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	m := &Manager{}
	if err := m.Write(f, cfg); err != nil {
		return fmt.Errorf("initializing config at %s: %w", path, err)
	}
	return nil
}
