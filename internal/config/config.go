// ABOUTME: Configuration loading and parsing for the guardian CLI
// ABOUTME: Supports YAML files with environment variable expansion, defaults, and duration parsing

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage drivers accepted in storage.driver.
const (
	DriverSQLite  = "sqlite"  // modernc.org/sqlite, pure Go
	DriverSQLite3 = "sqlite3" // github.com/mattn/go-sqlite3, cgo
	DriverMemory  = "memory"
)

// Location permission answers accepted in location.permission.
const (
	PermissionGranted = "granted"
	PermissionDenied  = "denied"
)

// Config represents the complete guardian configuration
type Config struct {
	Storage     StorageConfig     `yaml:"storage"`
	Logging     LoggingConfig     `yaml:"logging"`
	Alert       AlertConfig       `yaml:"alert"`
	Location    LocationConfig    `yaml:"location"`
	SMS         SMSConfig         `yaml:"sms"`
	AddressBook AddressBookConfig `yaml:"address_book"`
}

// StorageConfig selects where settings and journals are persisted
type StorageConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// AlertConfig holds emergency trigger configuration
type AlertConfig struct {
	SenderName      string        `yaml:"sender_name"`
	LogLimit        int           `yaml:"log_limit"`
	LocationTimeout time.Duration `yaml:"-"`
	SendTimeout     time.Duration `yaml:"-"`

	// Raw string values for YAML unmarshaling
	LocationTimeoutRaw string `yaml:"location_timeout"`
	SendTimeoutRaw     string `yaml:"send_timeout"`
}

// LocationConfig describes the simulated location provider
type LocationConfig struct {
	Enabled    bool          `yaml:"enabled"`
	Permission string        `yaml:"permission"`
	Latitude   float64       `yaml:"latitude"`
	Longitude  float64       `yaml:"longitude"`
	Latency    time.Duration `yaml:"-"`

	LatencyRaw string `yaml:"latency"`
}

// SMSConfig describes the console SMS sender
type SMSConfig struct {
	Enabled bool   `yaml:"enabled"`
	Outbox  string `yaml:"outbox"`
}

// AddressBookConfig points at the TOML address book used for contact import
type AddressBookConfig struct {
	Path string `yaml:"path"`
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Driver: DriverSQLite,
			Path:   filepath.Join(DataDir(), "guardian.db"),
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
		Alert: AlertConfig{
			SenderName:      "User",
			LogLimit:        50,
			LocationTimeout: 10 * time.Second,
			SendTimeout:     30 * time.Second,
		},
		Location: LocationConfig{
			Enabled:    true,
			Permission: PermissionGranted,
		},
		SMS: SMSConfig{Enabled: true},
	}
}

// Path returns the path to the config file.
// Priority: GUARDIAN_CONFIG env var > XDG_CONFIG_HOME/guardian/config.yaml > ~/.config/guardian/config.yaml
func Path() string {
	if envPath := os.Getenv("GUARDIAN_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "guardian", "config.yaml")
}

// DataDir returns the guardian data directory.
// Priority: XDG_DATA_HOME/guardian > ~/.local/share/guardian
func DataDir() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "guardian")
}

// Load reads a configuration file from the given path and returns a parsed Config.
// A missing file yields Default(). Values absent from the file keep their defaults.
// Environment variables in the format ${VAR_NAME} are expanded.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expandedData := expandEnvVars(string(data))

	if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(envVarPattern.FindStringSubmatch(match)[1])
	})
}

// Validate checks that all configuration fields are valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverSQLite, DriverSQLite3:
		if c.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for driver %q", c.Storage.Driver)
		}
	case DriverMemory:
	default:
		return fmt.Errorf("storage.driver must be one of sqlite, sqlite3, memory (got %q)", c.Storage.Driver)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error (got %q)", c.Logging.Level)
	}
	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be text or json (got %q)", c.Logging.Format)
	}

	if c.Alert.LogLimit <= 0 {
		return fmt.Errorf("alert.log_limit must be positive")
	}
	if c.Alert.LocationTimeout <= 0 || c.Alert.SendTimeout <= 0 {
		return fmt.Errorf("alert timeouts must be positive")
	}

	if c.Location.Permission != PermissionGranted && c.Location.Permission != PermissionDenied {
		return fmt.Errorf("location.permission must be granted or denied (got %q)", c.Location.Permission)
	}
	if c.Location.Latitude < -90 || c.Location.Latitude > 90 {
		return fmt.Errorf("location.latitude out of range: %v", c.Location.Latitude)
	}
	if c.Location.Longitude < -180 || c.Location.Longitude > 180 {
		return fmt.Errorf("location.longitude out of range: %v", c.Location.Longitude)
	}
	if c.Location.Latency < 0 {
		return fmt.Errorf("location.latency must not be negative")
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	fields := []struct {
		name string
		raw  string
		dst  *time.Duration
	}{
		{"location_timeout", cfg.Alert.LocationTimeoutRaw, &cfg.Alert.LocationTimeout},
		{"send_timeout", cfg.Alert.SendTimeoutRaw, &cfg.Alert.SendTimeout},
		{"latency", cfg.Location.LatencyRaw, &cfg.Location.Latency},
	}

	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		d, err := time.ParseDuration(f.raw)
		if err != nil {
			return fmt.Errorf("parsing %s %q: %w", f.name, f.raw, err)
		}
		*f.dst = d
	}

	return nil
}
