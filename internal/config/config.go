// Package config handles configuration loading and validation.
//
// Values come from, in increasing precedence: built-in defaults, an optional
// YAML file, a .env file, and TASKTRACK_* environment variables
// (database.url is read from TASKTRACK_DATABASE_URL).
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable name
const EnvPrefix = "TASKTRACK"

// Config represents the complete configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Server   ServerConfig   `mapstructure:"server" yaml:"server"`
	Logging  LoggingConfig  `mapstructure:"logging" yaml:"logging"`
	Search   SearchConfig   `mapstructure:"search" yaml:"search"`
	Breaker  BreakerConfig  `mapstructure:"breaker" yaml:"breaker"`
	Board    BoardConfig    `mapstructure:"board" yaml:"board"`
}

// DatabaseConfig locates the store.
type DatabaseConfig struct {
	URL        string `mapstructure:"url" yaml:"url"`               // sqlite://path or a file path
	Credential string `mapstructure:"credential" yaml:"credential"` // user:password, optional
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Addr          string        `mapstructure:"addr" yaml:"addr"`
	AllowedOrigin string        `mapstructure:"allowed_origin" yaml:"allowed_origin"` // the single CORS origin
	ReadTimeout   time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format     string `mapstructure:"format" yaml:"format"` // text, json
	File       string `mapstructure:"file" yaml:"file"`     // empty logs to stderr
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days" yaml:"max_age_days"`
}

// SearchConfig controls free-text search in the board.
type SearchConfig struct {
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
}

// BreakerConfig tunes the circuit breaker around store calls made by the
// HTTP server.
type BreakerConfig struct {
	MaxFailures uint32        `mapstructure:"max_failures" yaml:"max_failures"`
	OpenTimeout time.Duration `mapstructure:"open_timeout" yaml:"open_timeout"`
}

// BoardConfig contains terminal board settings.
type BoardConfig struct {
	UserID int64 `mapstructure:"user_id" yaml:"user_id"` // acting user for group management
}

// Options selects where configuration is read from.
type Options struct {
	ConfigFile string // optional YAML file
	EnvFile    string // optional dotenv file, ".env" when empty
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:          ":8080",
			AllowedOrigin: "http://localhost:3000",
			ReadTimeout:   10 * time.Second,
			WriteTimeout:  10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		Search: SearchConfig{
			Debounce: 300 * time.Millisecond,
		},
		Breaker: BreakerConfig{
			MaxFailures: 5,
			OpenTimeout: 30 * time.Second,
		},
	}
}

// Load reads configuration. It does not validate; call Validate before use.
func Load(opts Options) (*Config, error) {
	if err := loadEnvFile(opts.EnvFile); err != nil {
		return nil, err
	}
	v, err := newViper(opts.ConfigFile)
	if err != nil {
		return nil, err
	}
	return decode(v)
}

// Watch re-reads the config file whenever it changes and passes the result
// to onChange. It does nothing when no config file is in use.
func Watch(opts Options, onChange func(*Config, error)) error {
	if opts.ConfigFile == "" {
		return nil
	}
	v, err := newViper(opts.ConfigFile)
	if err != nil {
		return err
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		onChange(decode(v))
	})
	v.WatchConfig()
	return nil
}

func loadEnvFile(path string) error {
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) && !explicit {
			return nil
		}
		return fmt.Errorf("failed to read env file: %w", err)
	}
	// godotenv.Load never overrides variables already set in the process
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to parse env file %s: %w", path, err)
	}
	return nil
}

func newViper(configFile string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v, DefaultConfig())

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	return v, nil
}

// setDefaults registers every key so AutomaticEnv can see it during Unmarshal
func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("database.url", d.Database.URL)
	v.SetDefault("database.credential", d.Database.Credential)
	v.SetDefault("server.addr", d.Server.Addr)
	v.SetDefault("server.allowed_origin", d.Server.AllowedOrigin)
	v.SetDefault("server.read_timeout", d.Server.ReadTimeout)
	v.SetDefault("server.write_timeout", d.Server.WriteTimeout)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("logging.max_size_mb", d.Logging.MaxSizeMB)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
	v.SetDefault("logging.max_age_days", d.Logging.MaxAgeDays)
	v.SetDefault("search.debounce", d.Search.Debounce)
	v.SetDefault("breaker.max_failures", d.Breaker.MaxFailures)
	v.SetDefault("breaker.open_timeout", d.Breaker.OpenTimeout)
	v.SetDefault("board.user_id", d.Board.UserID)
}

func decode(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.Database.URL = strings.TrimSpace(cfg.Database.URL)
	cfg.Server.AllowedOrigin = strings.TrimRight(strings.TrimSpace(cfg.Server.AllowedOrigin), "/")
	return cfg, nil
}

// Validate validates the configuration and returns every problem found.
func Validate(cfg *Config) []error {
	var errs []error

	if cfg.Database.URL == "" {
		errs = append(errs, fmt.Errorf("database.url is required (set %s_DATABASE_URL)", EnvPrefix))
	}
	if c := cfg.Database.Credential; c != "" && !strings.Contains(c, ":") {
		errs = append(errs, errors.New("database.credential must have the form user:password"))
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[cfg.Logging.Level] {
		errs = append(errs, fmt.Errorf("invalid logging level: %s", cfg.Logging.Level))
	}
	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[cfg.Logging.Format] {
		errs = append(errs, fmt.Errorf("invalid logging format: %s", cfg.Logging.Format))
	}

	if cfg.Server.AllowedOrigin == "" || cfg.Server.AllowedOrigin == "*" {
		errs = append(errs, errors.New("server.allowed_origin must name a single origin"))
	} else if u, err := url.Parse(cfg.Server.AllowedOrigin); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("invalid server.allowed_origin: %s", cfg.Server.AllowedOrigin))
	}
	if cfg.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if cfg.Server.ReadTimeout <= 0 || cfg.Server.WriteTimeout <= 0 {
		errs = append(errs, errors.New("server timeouts must be positive"))
	}

	if cfg.Search.Debounce <= 0 {
		errs = append(errs, fmt.Errorf("search.debounce must be positive, got %s", cfg.Search.Debounce))
	}
	if cfg.Breaker.MaxFailures == 0 {
		errs = append(errs, errors.New("breaker.max_failures must be at least 1"))
	}
	if cfg.Breaker.OpenTimeout <= 0 {
		errs = append(errs, errors.New("breaker.open_timeout must be positive"))
	}

	return errs
}
