package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/dgallion1/taskdoc/internal/engine"
	"github.com/dgallion1/taskdoc/internal/marker"
)

type Config struct {
	Port string `toml:"port"`

	// Auth
	APIKey string `toml:"api_key"`

	// Link resolution
	RootPath string `toml:"root_path"`

	// Generated text
	IDPrefix              string `toml:"id_prefix"`
	TopLevelDepth         int    `toml:"top_level_depth"`
	PlaceholderBody       string `toml:"placeholder_body"`
	ClearCompletedOnStart bool   `toml:"clear_completed_on_start"`

	// Document limits
	MaxDocumentBytes int64         `toml:"max_document_bytes"`
	DocumentTTL      time.Duration `toml:"document_ttl"`

	// File edits
	LockTimeout time.Duration `toml:"lock_timeout"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Port:             "8090",
		IDPrefix:         "R",
		TopLevelDepth:    2,
		PlaceholderBody:  engine.DefaultPlaceholder,
		MaxDocumentBytes: 5242880, // 5MB
		DocumentTTL:      24 * time.Hour,
		LockTimeout:      5 * time.Second,
	}
}

// Load reads the configuration from the environment.
func Load() Config {
	cfg := Defaults()
	cfg.applyEnv()
	cfg.normalize()
	return cfg
}

// LoadFile decodes a TOML file over the defaults, then applies environment
// overrides. An empty path behaves like Load.
func LoadFile(path string) (Config, error) {
	cfg := Defaults()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	cfg.applyEnv()
	cfg.normalize()
	return cfg, nil
}

func (c *Config) applyEnv() {
	c.Port = envOr("PORT", c.Port)
	c.APIKey = envOr("TASKDOC_API_KEY", c.APIKey)
	c.RootPath = envOr("ROOT_PATH", c.RootPath)

	c.IDPrefix = envOr("ID_PREFIX", c.IDPrefix)
	c.TopLevelDepth = envInt("TOP_LEVEL_DEPTH", c.TopLevelDepth)
	c.PlaceholderBody = envOr("PLACEHOLDER_BODY", c.PlaceholderBody)
	c.ClearCompletedOnStart = envBool("CLEAR_COMPLETED_ON_START", c.ClearCompletedOnStart)

	c.MaxDocumentBytes = envInt64("MAX_DOCUMENT_BYTES", c.MaxDocumentBytes)
	c.DocumentTTL = envDuration("DOCUMENT_TTL", c.DocumentTTL)
	c.LockTimeout = envDuration("LOCK_TIMEOUT", c.LockTimeout)
}

func (c *Config) normalize() {
	def := Defaults()
	if c.Port == "" {
		c.Port = def.Port
	}
	if c.IDPrefix == "" {
		c.IDPrefix = def.IDPrefix
	}
	if c.TopLevelDepth <= 0 {
		c.TopLevelDepth = def.TopLevelDepth
	}
	if c.PlaceholderBody == "" {
		c.PlaceholderBody = def.PlaceholderBody
	}
	if c.MaxDocumentBytes <= 0 {
		c.MaxDocumentBytes = def.MaxDocumentBytes
	}
	if c.DocumentTTL <= 0 {
		c.DocumentTTL = def.DocumentTTL
	}
	if c.LockTimeout <= 0 {
		c.LockTimeout = def.LockTimeout
	}
}

// Validate checks the settings shared by every entry point.
func (c Config) Validate() error {
	if len(c.IDPrefix) != 1 || !isLetter(c.IDPrefix[0]) {
		return fmt.Errorf("ID_PREFIX must be a single letter, got %q", c.IDPrefix)
	}
	if c.TopLevelDepth < 1 || c.TopLevelDepth > 5 {
		return fmt.Errorf("TOP_LEVEL_DEPTH must be between 1 and 5, got %d", c.TopLevelDepth)
	}
	return nil
}

// ValidateServer additionally requires the settings the HTTP server needs.
func (c Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.APIKey == "" {
		return fmt.Errorf("TASKDOC_API_KEY is required")
	}
	return nil
}

// EngineOptions maps the configuration onto edit options.
func (c Config) EngineOptions() engine.Options {
	return engine.Options{
		Prefix:        c.IDPrefix,
		TopLevelDepth: c.TopLevelDepth,
		Placeholder:   c.PlaceholderBody,
		Markers:       marker.Policy{ClearCompletedOnStart: c.ClearCompletedOnStart},
	}
}

func isLetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
