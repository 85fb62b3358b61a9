package config

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/jamesainslie/rig/pkg/rig/api"
	"github.com/jamesainslie/rig/pkg/rig/logging"
	"github.com/jamesainslie/rig/pkg/rig/types"
)

// HTTPConfig configures the HTTP client used for every download.
type HTTPConfig struct {
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

// Client returns an HTTP client whose dial, TLS handshake and response
// header waits are bounded by Timeout. Zero means no bound.
func (h HTTPConfig) Client() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	if h.Timeout > 0 {
		transport.DialContext = (&net.Dialer{Timeout: h.Timeout, KeepAlive: 30 * time.Second}).DialContext
		transport.TLSHandshakeTimeout = h.Timeout
		transport.ResponseHeaderTimeout = h.Timeout
	}
	return &http.Client{Transport: transport}
}

// CacheConfig configures the verified-file cache.
type CacheConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// HistoryConfig configures install history.
type HistoryConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	Path          string `mapstructure:"path"`
	RetentionDays int    `mapstructure:"retention_days"`
}

// RotationConfig configures log file rotation.
type RotationConfig struct {
	MaxSize    string `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// LoggingConfig configures application logging.
type LoggingConfig struct {
	Level      string            `mapstructure:"level"`
	Path       string            `mapstructure:"path"`
	Rotation   RotationConfig    `mapstructure:"rotation"`
	Components map[string]string `mapstructure:"components"`
}

// Logging converts the file settings into a logging.Config.
func (l LoggingConfig) Logging() (logging.Config, error) {
	cfg := logging.DefaultConfig()
	if l.Level != "" {
		cfg.Level = l.Level
	}
	if l.Path != "" {
		path, err := ExpandPath(l.Path)
		if err != nil {
			return cfg, err
		}
		cfg.Path = path
	}
	if l.Rotation.MaxSize != "" {
		size, err := types.ParseSize(l.Rotation.MaxSize)
		if err != nil {
			return cfg, fmt.Errorf("logging.rotation.max_size: %w", err)
		}
		cfg.Rotation.MaxSize = size
	}
	cfg.Rotation.MaxAge = l.Rotation.MaxAge
	cfg.Rotation.MaxBackups = l.Rotation.MaxBackups
	cfg.Components = l.Components
	return cfg, nil
}

// Config represents the application configuration.
type Config struct {
	Root     string        `mapstructure:"root"`
	Workers  int           `mapstructure:"workers"`
	Features []string      `mapstructure:"features"`
	API      api.Client    `mapstructure:"api"`
	HTTP     HTTPConfig    `mapstructure:"http"`
	Cache    CacheConfig   `mapstructure:"cache"`
	History  HistoryConfig `mapstructure:"history"`
	Logging  LoggingConfig `mapstructure:"logging"`
}

// flagKeys maps CLI flag names to config keys for Load.
var flagKeys = map[string]string{
	"root":    "root",
	"workers": "workers",
}

// Load loads configuration from file, environment variables and flags.
// An empty file searches (in order of precedence):
//   - $XDG_CONFIG_HOME/rig/config.yaml
//   - $HOME/.config/rig/config.yaml
//
// Environment variables are prefixed with RIG_ (e.g., RIG_ROOT,
// RIG_HTTP_TIMEOUT). Flags in flags whose names appear in the flag table
// override both when they were set on the command line. flags may be nil.
func Load(file string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			v.AddConfigPath(filepath.Join(xdgConfigHome, "rig"))
		}
		if homeDir, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(homeDir, ".config", "rig"))
		}
	}

	v.SetEnvPrefix("RIG")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	for _, p := range []*string{&cfg.Root, &cfg.Cache.Path, &cfg.History.Path} {
		expanded, err := ExpandPath(*p)
		if err != nil {
			return nil, err
		}
		*p = expanded
	}
	cfg.API = cfg.API.WithDefaults()

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("root", DataDir())
	v.SetDefault("workers", DefaultWorkers)
	v.SetDefault("features", DefaultFeatures)

	v.SetDefault("api.versions_url", api.DefaultVersionsURL)
	v.SetDefault("api.runtime_url", api.DefaultRuntimeURL)
	v.SetDefault("api.resources_url", api.DefaultResourcesURL)

	v.SetDefault("http.timeout", DefaultHTTPTimeout)
	v.SetDefault("http.user_agent", DefaultUserAgent)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.path", DefaultCachePath())

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", DefaultHistoryPath())
	v.SetDefault("history.retention_days", DefaultRetentionDays)

	v.SetDefault("logging.level", DefaultLogLevel)
	v.SetDefault("logging.path", "") // Empty means logging.DefaultLogPath
	v.SetDefault("logging.rotation.max_size", DefaultLogMaxSize)
	v.SetDefault("logging.rotation.max_age", 30)
	v.SetDefault("logging.rotation.max_backups", 5)
	v.SetDefault("logging.components", DefaultComponents)
}

// ConfigDir returns the configuration directory path.
func ConfigDir() (string, error) {
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, "rig"), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, ".config", "rig"), nil
}

// ConfigPath returns the path of the default config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.yaml"), nil
}

// WriteDefault writes a default config file if none exists and returns its
// path. An existing file is left untouched.
func WriteDefault() (string, error) {
	path, err := ConfigPath()
	if err != nil {
		return "", err
	}
	return path, writeDefault(path)
}

func writeDefault(path string) error {
	if err := EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}

	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("failed to check config file: %w", err)
	}

	defaultConfig := fmt.Sprintf(`# rig configuration

# Install root holding libraries, assets, versions and runtimes
root: %s

# Concurrent downloads (0 picks a value from the CPU count)
workers: %d

# Launcher features used when evaluating argument rules
features:
  - has_custom_resolution

# Remote endpoints
api:
  versions_url: %s
  runtime_url: %s
  resources_url: %s

http:
  # Bounds connection setup and response headers, not bodies
  timeout: %s
  user_agent: %s

# Remembers files already verified so unchanged files are not rehashed
cache:
  enabled: true
  path: %s

# Install history
history:
  enabled: true
  path: %s
  retention_days: %d

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: %s
  # Log file path (empty means use default: $XDG_STATE_HOME/rig/rig.log)
  path: ""
  rotation:
    max_size: %s
    max_age: 30       # days
    max_backups: 5
  # Per-component log levels
  components:
    download: info
    install: info
    cache: warn
    tui: info
`, DataDir(), DefaultWorkers,
		api.DefaultVersionsURL, api.DefaultRuntimeURL, api.DefaultResourcesURL,
		DefaultHTTPTimeout, DefaultUserAgent,
		DefaultCachePath(), DefaultHistoryPath(), DefaultRetentionDays,
		DefaultLogLevel, DefaultLogMaxSize)

	if err := os.WriteFile(path, []byte(defaultConfig), 0o644); err != nil {
		return fmt.Errorf("failed to write default config: %w", err)
	}

	return nil
}

// ExpandPath expands ~ in a path to the user's home directory.
func ExpandPath(path string) (string, error) {
	if !strings.HasPrefix(path, "~") {
		return path, nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}

	return filepath.Join(homeDir, path[1:]), nil
}

// EnsureDir creates dir if it doesn't exist.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}
	return nil
}

// DataDir returns $XDG_DATA_HOME/rig/, the default install root.
func DataDir() string {
	return filepath.Join(xdg.DataHome, "rig")
}

// StateDir returns $XDG_STATE_HOME/rig/ for logs and history.
func StateDir() string {
	return filepath.Join(xdg.StateHome, "rig")
}

// CacheDir returns $XDG_CACHE_HOME/rig/.
func CacheDir() string {
	return filepath.Join(xdg.CacheHome, "rig")
}

// DefaultCachePath returns the default verified-file cache directory.
func DefaultCachePath() string {
	return filepath.Join(CacheDir(), "verified")
}

// DefaultHistoryPath returns the default history directory.
func DefaultHistoryPath() string {
	return filepath.Join(StateDir(), "history")
}
