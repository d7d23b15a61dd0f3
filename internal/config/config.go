// Package config loads lifelog settings from a TOML file with environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/julianstephens/lifelog/internal/constants"
)

// Config holds the top-level lifelog configuration.
type Config struct {
	Database  DatabaseConfig  `toml:"database"`
	Ledger    LedgerConfig    `toml:"ledger"`
	Analytics AnalyticsConfig `toml:"analytics"`
	Log       LogConfig       `toml:"log"`
}

// DatabaseConfig selects the storage provider. URL is either a SQLite file
// path or a postgres:// connection string without a password.
type DatabaseConfig struct {
	URL string `toml:"url"`
}

// LedgerConfig controls day bucketing and ownership of records written from this host.
type LedgerConfig struct {
	OwnerID   string `toml:"owner_id"`
	UTCOffset string `toml:"utc_offset"` // e.g. "+05:30"
	Currency  string `toml:"currency"`
}

type AnalyticsConfig struct {
	DomainTimeout Duration `toml:"domain_timeout"`
}

type LogConfig struct {
	Debug bool `toml:"debug"`
}

// Duration is a time.Duration that round-trips through TOML as "5s".
type Duration struct {
	time.Duration
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = parsed
	return nil
}

// Paths holds the XDG-style locations lifelog reads and writes.
type Paths struct {
	ConfigDir  string
	DataDir    string
	ConfigFile string
	DBFile     string
}

// GetPaths returns the resolved paths, respecting XDG env vars.
func GetPaths() Paths {
	home, _ := os.UserHomeDir()

	configDir := filepath.Join(envOr("XDG_CONFIG_HOME", filepath.Join(home, ".config")), constants.AppName)
	dataDir := filepath.Join(envOr("XDG_DATA_HOME", filepath.Join(home, ".local", "share")), constants.AppName)

	return Paths{
		ConfigDir:  configDir,
		DataDir:    dataDir,
		ConfigFile: filepath.Join(configDir, "config.toml"),
		DBFile:     filepath.Join(dataDir, constants.AppName+".db"),
	}
}

// Load reads the config file at path (or the default location when empty),
// falls back to defaults when it does not exist, then applies environment overrides.
func Load(path string) (*Config, error) {
	if path == "" {
		path = GetPaths().ConfigFile
	}

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path as TOML, creating parent directories.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{URL: GetPaths().DBFile},
		Ledger: LedgerConfig{
			OwnerID:   constants.DefaultOwnerID,
			UTCOffset: constants.DefaultUTCOffset,
			Currency:  constants.DefaultCurrency,
		},
		Analytics: AnalyticsConfig{DomainTimeout: Duration{constants.DefaultDomainTimeout}},
	}
}

// Validate checks fields that would otherwise fail late inside the engine.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Database.URL) == "" {
		return fmt.Errorf("database.url must not be empty")
	}
	if strings.TrimSpace(c.Ledger.OwnerID) == "" {
		return fmt.Errorf("ledger.owner_id must not be empty")
	}
	if _, err := ParseOffset(c.Ledger.UTCOffset); err != nil {
		return err
	}
	if c.Analytics.DomainTimeout.Duration <= 0 {
		return fmt.Errorf("analytics.domain_timeout must be positive")
	}
	return nil
}

// Location returns the fixed reference zone used for day bucketing.
func (c *Config) Location() *time.Location {
	loc, err := ParseOffset(c.Ledger.UTCOffset)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsPostgres reports whether the database URL points at PostgreSQL.
func (c *Config) IsPostgres() bool {
	return strings.HasPrefix(c.Database.URL, "postgres://") || strings.HasPrefix(c.Database.URL, "postgresql://")
}

// ParseOffset turns "+05:30", "-0800" or "Z" into a fixed zone.
func ParseOffset(offset string) (*time.Location, error) {
	offset = strings.TrimSpace(offset)
	if offset == "" || offset == "Z" || strings.EqualFold(offset, "UTC") {
		return time.UTC, nil
	}

	sign := 1
	switch offset[0] {
	case '+':
	case '-':
		sign = -1
	default:
		return nil, fmt.Errorf("invalid utc offset %q: must start with + or -", offset)
	}

	body := strings.ReplaceAll(offset[1:], ":", "")
	if len(body) != 2 && len(body) != 4 {
		return nil, fmt.Errorf("invalid utc offset %q", offset)
	}
	hours, err := strconv.Atoi(body[:2])
	if err != nil {
		return nil, fmt.Errorf("invalid utc offset %q: %w", offset, err)
	}
	minutes := 0
	if len(body) == 4 {
		minutes, err = strconv.Atoi(body[2:])
		if err != nil {
			return nil, fmt.Errorf("invalid utc offset %q: %w", offset, err)
		}
	}
	if hours > 14 || minutes > 59 {
		return nil, fmt.Errorf("invalid utc offset %q: out of range", offset)
	}

	seconds := sign * (hours*3600 + minutes*60)
	return time.FixedZone(offset, seconds), nil
}

func applyEnv(cfg *Config) {
	cfg.Database.URL = envOr("LIFELOG_DB", cfg.Database.URL)
	cfg.Ledger.OwnerID = envOr("LIFELOG_OWNER", cfg.Ledger.OwnerID)
	cfg.Ledger.UTCOffset = envOr("LIFELOG_UTC_OFFSET", cfg.Ledger.UTCOffset)
	cfg.Ledger.Currency = envOr("LIFELOG_CURRENCY", cfg.Ledger.Currency)

	if value, ok := os.LookupEnv("LIFELOG_DOMAIN_TIMEOUT"); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			cfg.Analytics.DomainTimeout = Duration{parsed}
		}
	}
	if value, ok := os.LookupEnv("LIFELOG_DEBUG"); ok && value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			cfg.Log.Debug = parsed
		}
	}
}

func envOr(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}
