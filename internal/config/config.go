// Package config loads server settings from defaults, an optional TOML file
// and the environment, in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/Zachkp/zach-dev-sky/internal/background"
	"github.com/Zachkp/zach-dev-sky/internal/cache"
	"github.com/Zachkp/zach-dev-sky/internal/scheduler"
)

// Development credentials, used when none are configured.
const (
	DefaultAdminUsername = "admin"
	DefaultAdminPassword = "admin123"
)

// Duration decodes "90s" style strings from TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// Config holds every tunable of the site.
type Config struct {
	Port          string   `toml:"port"`
	DBPath        string   `toml:"db_path"`
	RedisURL      string   `toml:"redis_url"`
	AdminUsername string   `toml:"admin_username"`
	AdminPassword string   `toml:"admin_password"`
	LogLevel      string   `toml:"log_level"`
	DebounceMS    int      `toml:"debounce_ms"`
	RenderPolicy  string   `toml:"render_policy"`
	NodeVariant   string   `toml:"node_variant"`
	CacheTTL      Duration `toml:"cache_ttl"`
	CacheEntries  int      `toml:"cache_entries"`
}

// Default returns the settings used when nothing is configured.
func Default() Config {
	return Config{
		Port:          "8080",
		DBPath:        "portfolio.db",
		AdminUsername: DefaultAdminUsername,
		AdminPassword: DefaultAdminPassword,
		LogLevel:      "info",
		DebounceMS:    int(scheduler.DefaultDebounce / time.Millisecond),
		RenderPolicy:  scheduler.PolicyReseed.String(),
		NodeVariant:   background.VariantLinear.String(),
		CacheTTL:      Duration{time.Hour},
		CacheEntries:  cache.DefaultMaxEntries,
	}
}

// Load reads the TOML file at path (a missing file is fine, and an empty
// path skips it) and then applies environment overrides from getenv.
func Load(path string, getenv func(string) string) (Config, error) {
	cfg := Default()
	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	if getenv == nil {
		getenv = os.Getenv
	}
	if err := cfg.applyEnv(getenv); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	strs := map[string]*string{
		"PORT":           &c.Port,
		"DB_PATH":        &c.DBPath,
		"REDIS_URL":      &c.RedisURL,
		"ADMIN_USERNAME": &c.AdminUsername,
		"ADMIN_PASSWORD": &c.AdminPassword,
		"LOG_LEVEL":      &c.LogLevel,
		"RENDER_POLICY":  &c.RenderPolicy,
		"NODE_VARIANT":   &c.NodeVariant,
	}
	for key, dst := range strs {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}
	if v := getenv("DEBOUNCE_MS"); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("DEBOUNCE_MS: %w", err)
		}
		c.DebounceMS = ms
	}
	if v := getenv("CACHE_ENTRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("CACHE_ENTRIES: %w", err)
		}
		c.CacheEntries = n
	}
	if v := getenv("CACHE_TTL"); v != "" {
		if err := c.CacheTTL.UnmarshalText([]byte(v)); err != nil {
			return fmt.Errorf("CACHE_TTL: %w", err)
		}
	}
	return nil
}

// Validate checks the enumerated settings parse.
func (c Config) Validate() error {
	if _, err := c.Policy(); err != nil {
		return err
	}
	if _, err := c.Variant(); err != nil {
		return err
	}
	if c.DebounceMS < 0 {
		return fmt.Errorf("debounce_ms must not be negative, got %d", c.DebounceMS)
	}
	return nil
}

// Policy is the parsed render policy.
func (c Config) Policy() (scheduler.Policy, error) {
	return scheduler.ParsePolicy(c.RenderPolicy)
}

// Variant is the parsed node variant.
func (c Config) Variant() (background.Variant, error) {
	return background.ParseVariant(c.NodeVariant)
}

// Debounce is the re-render quiet interval.
func (c Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// DefaultCredentials reports whether the admin login still uses the
// development username or password.
func (c Config) DefaultCredentials() bool {
	return c.AdminUsername == DefaultAdminUsername || c.AdminPassword == DefaultAdminPassword
}
