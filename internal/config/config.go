package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the server configuration. Values come from an optional yaml
// file, then environment variables override field by field.
type Config struct {
	// ListenAddr is the HTTP bind address.
	ListenAddr string `yaml:"listen_addr"`

	Store struct {
		// Mode selects the backend: memory, sqlite or postgres.
		Mode string `yaml:"mode"`
		// DSN is the postgres connection string.
		DSN string `yaml:"dsn"`
		// SQLitePath is the database file for the sqlite backend.
		SQLitePath string `yaml:"sqlite_path"`
		// UserCacheSize bounds the user-info LRU; 0 means the default.
		UserCacheSize int `yaml:"user_cache_size"`
	} `yaml:"store"`

	// Seed fixes all engine randomness; 0 means time-seeded.
	Seed int64 `yaml:"seed"`
}

func Default() Config {
	var c Config
	c.ListenAddr = ":8080"
	c.Store.Mode = "memory"
	return c
}

// Load reads the yaml file (missing file is fine when path is empty) and
// applies environment overrides.
func Load(path string) (Config, error) {
	c := Default()
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(raw, &c); err != nil {
			return Config{}, fmt.Errorf("config %s: %w", path, err)
		}
	}
	c.applyEnv()
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		c.ListenAddr = v
	}
	if v := os.Getenv("STORE_MODE"); v != "" {
		c.Store.Mode = v
	}
	if v := os.Getenv("STORE_DATABASE_DSN"); v != "" {
		c.Store.DSN = v
	}
	if v := os.Getenv("STORE_SQLITE_PATH"); v != "" {
		c.Store.SQLitePath = v
	}
	if v := os.Getenv("GAME_SEED"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			c.Seed = n
		}
	}
}

func (c *Config) validate() error {
	switch strings.ToLower(c.Store.Mode) {
	case "", "memory", "mem", "sqlite", "local", "postgres", "postgresql", "db":
	default:
		return fmt.Errorf("unknown store mode %q", c.Store.Mode)
	}
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr must not be empty")
	}
	return nil
}
