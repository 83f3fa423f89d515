// Package config assembles the bot's configuration from a file, a .env file
// and the environment.
package config

import (
	"fmt"
	"strings"

	"github.com/kelseyhightower/envconfig"

	coreconfig "github.com/m3rciful/vidbot/core/config"
	coredatabase "github.com/m3rciful/vidbot/core/database"
)

const (
	// DefaultMaxFileSize is 2 GiB, the largest download the Bot API allows.
	DefaultMaxFileSize int64 = 2 << 30
	// DefaultCaption is attached to every delivered file.
	DefaultCaption    = "➤ -AnimeBuddy"
	DefaultStagingDir = "downloads"
)

// TransferConfig tunes the rename pipeline.
type TransferConfig struct {
	StagingDir        string `yaml:"staging_dir" toml:"staging_dir" envconfig:"STAGING_DIR"`
	MaxFileSize       int64  `yaml:"max_file_size" toml:"max_file_size" envconfig:"MAX_FILE_SIZE"`
	Caption           string `yaml:"caption" toml:"caption" envconfig:"WATERMARK_CAPTION"`
	RejectWhileActive bool   `yaml:"reject_while_active" toml:"reject_while_active" envconfig:"REJECT_WHILE_ACTIVE"`
	RateLimitRetries  int    `yaml:"rate_limit_retries" toml:"rate_limit_retries" envconfig:"RATE_LIMIT_RETRIES"`
	VerifyStaged      bool   `yaml:"verify_staged" toml:"verify_staged" envconfig:"VERIFY_STAGED"`
}

// Config is the full application configuration.
type Config struct {
	coreconfig.Config `yaml:",inline"`

	Transfer TransferConfig      `yaml:"transfer" toml:"transfer"`
	Database coredatabase.Config `yaml:"database" toml:"database"`
}

// CoreConfig exposes the embedded core configuration.
func (c *Config) CoreConfig() *coreconfig.Config {
	return &c.Config
}

// Load reads path (YAML or TOML, optional) and applies environment
// overrides. Missing credentials come back as *coreconfig.MissingError.
func Load(path string) (*Config, error) {
	var cfg Config
	if err := coreconfig.Decode(path, &cfg); err != nil {
		return nil, err
	}
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env: %w", err)
	}
	if err := Normalize(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Normalize validates the core section and fills transfer defaults.
func Normalize(cfg *Config) error {
	if err := coreconfig.Normalize(&cfg.Config); err != nil {
		return err
	}
	t := &cfg.Transfer
	t.StagingDir = strings.TrimSpace(t.StagingDir)
	if t.StagingDir == "" {
		t.StagingDir = DefaultStagingDir
	}
	if t.MaxFileSize <= 0 {
		t.MaxFileSize = DefaultMaxFileSize
	}
	if strings.TrimSpace(t.Caption) == "" {
		t.Caption = DefaultCaption
	}
	if t.RateLimitRetries < 0 {
		return fmt.Errorf("transfer.rate_limit_retries must be >= 0")
	}
	return nil
}
