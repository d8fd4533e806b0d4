package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete mindnode configuration
type Config struct {
	Storage  StorageConfig  `mapstructure:"storage" yaml:"storage"`
	Layout   LayoutConfig   `mapstructure:"layout" yaml:"layout"`
	Import   ImportConfig   `mapstructure:"import" yaml:"import"`
	Autosave AutosaveConfig `mapstructure:"autosave" yaml:"autosave"`
	Watch    WatchConfig    `mapstructure:"watch" yaml:"watch"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
}

// StorageConfig controls where board state is persisted
type StorageConfig struct {
	// Backend is the persistence backend: "file", "sqlite" or "memory" (default: "file")
	Backend string `mapstructure:"backend" yaml:"backend"`
	// Dir is the data directory. Empty means the platform data directory.
	// Supports ~ for home directory expansion.
	Dir string `mapstructure:"dir" yaml:"dir"`
	// Key is the name of the persisted state document (default: "mind-node-storage")
	Key string `mapstructure:"key" yaml:"key"`
}

// LayoutConfig controls automatic layout
type LayoutConfig struct {
	// Direction is the default relayout direction: "TB" or "LR" (default: "TB")
	Direction string `mapstructure:"direction" yaml:"direction"`
}

// ImportConfig controls plan import
type ImportConfig struct {
	// Description is given to imported boards whose plan has none
	Description string `mapstructure:"description" yaml:"description"`
}

// AutosaveConfig controls debounced canvas saves
type AutosaveConfig struct {
	// DebounceMs is the quiet period before a canvas edit is written (default: 2000)
	DebounceMs int `mapstructure:"debounce_ms" yaml:"debounce_ms"`
}

// WatchConfig controls reloading when the state file changes on disk
type WatchConfig struct {
	// Enabled turns the watcher on for the file backend (default: true)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// DebounceMs is how long to wait for file events to settle (default: 100)
	DebounceMs int `mapstructure:"debounce_ms" yaml:"debounce_ms"`
}

// ServerConfig controls the HTTP API
type ServerConfig struct {
	// Addr is the listen address (default: ":8787")
	Addr string `mapstructure:"addr" yaml:"addr"`
	// AllowedOrigins are the CORS origins allowed to call the API
	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
}

// LoggingConfig controls logging behavior
type LoggingConfig struct {
	// Enabled controls whether logging to the data directory is enabled (default: true)
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level" yaml:"level"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	// MaxBackups is the number of backup log files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups" yaml:"max_backups"`
	// Compress gzips rotated log files (default: false)
	Compress bool `mapstructure:"compress" yaml:"compress"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend: "file",
			Dir:     "",
			Key:     "mind-node-storage",
		},
		Layout: LayoutConfig{
			Direction: "TB",
		},
		Import: ImportConfig{
			Description: "Imported from AI Plan",
		},
		Autosave: AutosaveConfig{
			DebounceMs: 2000,
		},
		Watch: WatchConfig{
			Enabled:    true,
			DebounceMs: 100,
		},
		Server: ServerConfig{
			Addr:           ":8787",
			AllowedOrigins: []string{"http://localhost:5173"},
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
			Compress:   false,
		},
	}
}

// AutosaveDelay returns the autosave debounce as a time.Duration
func (c *AutosaveConfig) AutosaveDelay() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// Debounce returns the watch debounce as a time.Duration
func (c *WatchConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMs) * time.Millisecond
}

// ResolveDir returns the resolved data directory.
// If Dir is empty, it returns DataDir().
// If Dir starts with ~, it expands to the user's home directory.
func (s *StorageConfig) ResolveDir() string {
	if s.Dir == "" {
		return DataDir()
	}

	path := s.Dir

	// Expand ~ to home directory
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}

	return path
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Storage defaults
	viper.SetDefault("storage.backend", defaults.Storage.Backend)
	viper.SetDefault("storage.dir", defaults.Storage.Dir)
	viper.SetDefault("storage.key", defaults.Storage.Key)

	// Layout defaults
	viper.SetDefault("layout.direction", defaults.Layout.Direction)

	// Import defaults
	viper.SetDefault("import.description", defaults.Import.Description)

	// Autosave defaults
	viper.SetDefault("autosave.debounce_ms", defaults.Autosave.DebounceMs)

	// Watch defaults
	viper.SetDefault("watch.enabled", defaults.Watch.Enabled)
	viper.SetDefault("watch.debounce_ms", defaults.Watch.DebounceMs)

	// Server defaults
	viper.SetDefault("server.addr", defaults.Server.Addr)
	viper.SetDefault("server.allowed_origins", defaults.Server.AllowedOrigins)

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
	viper.SetDefault("logging.compress", defaults.Logging.Compress)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Validate the configuration
	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	// Check XDG_CONFIG_HOME first
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "mindnode")
	}
	// Fall back to ~/.config/mindnode
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mindnode"
	}
	return filepath.Join(home, ".config", "mindnode")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DataDir returns the default directory for board state and logs
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "mindnode")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mindnode"
	}
	return filepath.Join(home, ".local", "share", "mindnode")
}
