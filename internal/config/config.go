package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	// Global settings
	Format   string `mapstructure:"format" yaml:"format" json:"format"`
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Quiet    bool   `mapstructure:"quiet" yaml:"quiet" json:"quiet"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// How long the dashboard splash screen stays up
	SplashDuration string `mapstructure:"splash_duration" yaml:"splash_duration" json:"splash_duration"`

	Scan    ScanConfig    `mapstructure:"scan" yaml:"scan" json:"scan"`
	History HistoryConfig `mapstructure:"history" yaml:"history" json:"history"`
	Server  ServerConfig  `mapstructure:"server" yaml:"server" json:"server"`
	Export  ExportConfig  `mapstructure:"export" yaml:"export" json:"export"`
}

// ScanConfig configures the mock instrument
type ScanConfig struct {
	Location string `mapstructure:"location" yaml:"location" json:"location"`
	// Seed makes scans reproducible; 0 means random
	Seed    uint64 `mapstructure:"seed" yaml:"seed" json:"seed"`
	Timeout string `mapstructure:"timeout" yaml:"timeout" json:"timeout"`
	// Latency simulates acquisition time
	Latency string `mapstructure:"latency" yaml:"latency" json:"latency"`
}

// HistoryConfig selects the history backend
type HistoryConfig struct {
	Backend string `mapstructure:"backend" yaml:"backend" json:"backend"` // memory or sqlite
	Path    string `mapstructure:"path" yaml:"path" json:"path"`
}

// ServerConfig configures `mscope serve`
type ServerConfig struct {
	Addr           string   `mapstructure:"addr" yaml:"addr" json:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins" json:"allowed_origins"`
}

// ExportConfig configures report exports
type ExportConfig struct {
	Dir string `mapstructure:"dir" yaml:"dir" json:"dir"`
}

// Default returns a Config with default values
func Default() *Config {
	return &Config{
		Format:         "ndjson",
		LogLevel:       "info",
		SplashDuration: "3s",
		Scan: ScanConfig{
			Location: "13.0827° N, 80.2707° E",
			Timeout:  "10s",
			Latency:  "0s",
		},
		History: HistoryConfig{
			Backend: "memory",
			Path:    DefaultHistoryPath(),
		},
		Server: ServerConfig{
			Addr:           "127.0.0.1:8080",
			AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		},
		Export: ExportConfig{
			Dir: ".",
		},
	}
}

// DefaultHistoryPath is where the sqlite backend stores saved samples.
func DefaultHistoryPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "mscope-history.db"
	}
	return filepath.Join(dir, "mscope", "history.db")
}

// Load loads configuration from files and environment
// Config file search order (highest precedence first):
// 1. ./.mscope.yaml or ./.mscope.yml
// 2. ~/.mscope.yaml or ~/.mscope.yml
// 3. $XDG_CONFIG_HOME/mscope/config.yaml (or ~/.config/mscope/config.yaml)
// 4. /etc/mscope/config.yaml
//
// A .env file in the working directory is loaded first; its values only
// fill variables that are not already set.
func Load() (*Config, error) {
	cfg, _, err := Resolve("")
	return cfg, err
}

// Resolve loads explicit if non-empty, otherwise the first config file found
// in the search path. It returns the file used ("" for defaults only).
func Resolve(explicit string) (*Config, string, error) {
	_ = godotenv.Load()

	path := explicit
	if path == "" {
		path = findConfigFile()
	}

	cfg := Default()
	if path != "" {
		loaded, err := LoadFromFile(path)
		if err != nil {
			return nil, "", err
		}
		cfg = loaded
	}

	// Override with environment variables
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, "", err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

// findConfigFile searches for config file in standard locations
func findConfigFile() string {
	names := []string{".mscope.yaml", ".mscope.yml", "mscope.yaml", "mscope.yml"}

	home, homeErr := os.UserHomeDir()
	configDir, configDirErr := os.UserConfigDir()

	var searchPaths []string
	if cwd, err := os.Getwd(); err == nil {
		searchPaths = append(searchPaths, cwd)
	}
	if homeErr == nil {
		searchPaths = append(searchPaths, home)
	}
	if configDirErr == nil {
		searchPaths = append(searchPaths, filepath.Join(configDir, "mscope"))
	}
	searchPaths = append(searchPaths, "/etc/mscope")

	for _, dir := range searchPaths {
		for _, name := range names {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path
			}
		}
		// Only the mscope-specific dirs own a bare config.yaml
		if filepath.Base(dir) != "mscope" {
			continue
		}
		path := filepath.Join(dir, "config.yaml")
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// applyEnvOverrides applies MSCOPE_* environment variables to config
func applyEnvOverrides(cfg *Config) error {
	str := map[string]*string{
		"MSCOPE_FORMAT":          &cfg.Format,
		"MSCOPE_LOG_LEVEL":       &cfg.LogLevel,
		"MSCOPE_SPLASH_DURATION": &cfg.SplashDuration,
		"MSCOPE_SCAN_LOCATION":   &cfg.Scan.Location,
		"MSCOPE_SCAN_TIMEOUT":    &cfg.Scan.Timeout,
		"MSCOPE_SCAN_LATENCY":    &cfg.Scan.Latency,
		"MSCOPE_HISTORY_BACKEND": &cfg.History.Backend,
		"MSCOPE_HISTORY_PATH":    &cfg.History.Path,
		"MSCOPE_SERVER_ADDR":     &cfg.Server.Addr,
		"MSCOPE_EXPORT_DIR":      &cfg.Export.Dir,
	}
	for key, dst := range str {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	if v := os.Getenv("MSCOPE_QUIET"); v == "true" || v == "1" {
		cfg.Quiet = true
	}
	if v := os.Getenv("MSCOPE_VERBOSE"); v == "true" || v == "1" {
		cfg.Verbose = true
	}
	if v := os.Getenv("MSCOPE_SCAN_SEED"); v != "" {
		seed, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("MSCOPE_SCAN_SEED: %w", err)
		}
		cfg.Scan.Seed = seed
	}
	if v := os.Getenv("MSCOPE_SERVER_ALLOWED_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.Server.AllowedOrigins = origins
	}
	return nil
}

// LoadFromFile loads configuration from a specific file
func LoadFromFile(path string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	cfg := Default()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ConfigFile returns the path to the config file that would be loaded
func ConfigFile() string {
	return findConfigFile()
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	switch c.Format {
	case "ndjson", "text":
	default:
		errs = append(errs, fmt.Errorf("format: %q is not ndjson or text", c.Format))
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		errs = append(errs, fmt.Errorf("log_level: %q is not debug, info, warn or error", c.LogLevel))
	}
	switch c.History.Backend {
	case "memory":
	case "sqlite":
		if c.History.Path == "" {
			errs = append(errs, errors.New("history.path: required for the sqlite backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("history.backend: %q is not memory or sqlite", c.History.Backend))
	}
	for key, d := range map[string]string{
		"splash_duration": c.SplashDuration,
		"scan.timeout":    c.Scan.Timeout,
		"scan.latency":    c.Scan.Latency,
	} {
		parsed, err := time.ParseDuration(d)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", key, err))
			continue
		}
		if parsed < 0 {
			errs = append(errs, fmt.Errorf("%s: must not be negative", key))
		}
	}
	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr: required"))
	}
	return errors.Join(errs...)
}

// Splash returns the parsed splash duration.
func (c *Config) Splash() time.Duration { return durationOrZero(c.SplashDuration) }

// ScanTimeout returns the parsed scan timeout. Zero disables the timeout.
func (c *Config) ScanTimeout() time.Duration { return durationOrZero(c.Scan.Timeout) }

// ScanLatency returns the parsed simulated acquisition time.
func (c *Config) ScanLatency() time.Duration { return durationOrZero(c.Scan.Latency) }

// durationOrZero parses a duration already checked by Validate.
func durationOrZero(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}

// Generate writes cfg as a YAML config file.
func Generate(w io.Writer, cfg *Config) error {
	if _, err := io.WriteString(w, "# mscope configuration\n"); err != nil {
		return err
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	return enc.Close()
}
