package souqfeed

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// Config holds the data-layer settings. Zero fields fall back to the
// defaults below.
type Config struct {
	PostsPath       string `toml:"posts_path" yaml:"posts_path"`               // PostsPath is the posts collection path.
	UsersPath       string `toml:"users_path" yaml:"users_path"`               // UsersPath is the user profiles collection path.
	ImagePrefix     string `toml:"image_prefix" yaml:"image_prefix"`           // ImagePrefix is the storage key prefix for uploaded media.
	PageSize        int    `toml:"page_size" yaml:"page_size"`                 // PageSize is the default feed page size.
	ProfileCacheMax int    `toml:"profile_cache_max" yaml:"profile_cache_max"` // ProfileCacheMax is the profile LRU capacity.
	ProfileCacheTTL string `toml:"profile_cache_ttl" yaml:"profile_cache_ttl"` // ProfileCacheTTL is the profile cache entry lifetime (Go duration).
}

// DefaultConfig returns the settings the original application shipped
// with.
func DefaultConfig() *Config {
	return &Config{
		PostsPath:       "posts",
		UsersPath:       "users",
		ImagePrefix:     "post_images",
		PageSize:        10,
		ProfileCacheMax: 128,
		ProfileCacheTTL: "5m",
	}
}

// LoadConfig reads a config file, dispatching on extension: .toml, .yaml,
// or .yml. Missing fields keep their defaults.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	switch filepath.Ext(path) {
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse TOML config: %w", err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", filepath.Ext(path))
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.PostsPath == "" || c.UsersPath == "" {
		return fmt.Errorf("posts_path and users_path must not be empty")
	}

	if _, err := c.profileTTL(); err != nil {
		return fmt.Errorf("invalid profile_cache_ttl: %w", err)
	}
	return nil
}

func (c *Config) profileTTL() (time.Duration, error) {
	if c.ProfileCacheTTL == "" {
		return 5 * time.Minute, nil
	}
	return time.ParseDuration(c.ProfileCacheTTL)
}
