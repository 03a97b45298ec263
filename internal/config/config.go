// Package config loads settings from config.yaml in the data directory,
// TIMEBUDDY_* environment variables and built-in defaults, in that order of
// increasing precedence: env > file > defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// EnvDir overrides the data directory (keeps tests away from ~/.timebuddy).
	EnvDir = "TIMEBUDDY_CONFIG_DIR"

	envPrefix      = "TIMEBUDDY"
	configFileName = "config"
)

type Config struct {
	// Dir is the resolved data directory; it is not read from the file.
	Dir string `mapstructure:"-"`

	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Google   GoogleConfig   `mapstructure:"google"`
	Log      LogConfig      `mapstructure:"log"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// DatabaseConfig points at the Postgres instance that holds online documents.
// An empty URL means the app only works offline.
type DatabaseConfig struct {
	URL      string `mapstructure:"url"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// RedisConfig is used for revoking session tokens on sign-out. Optional.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
	Issuer    string        `mapstructure:"issuer"`
	ResetTTL  time.Duration `mapstructure:"reset_ttl"`
}

type GoogleConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	RedirectURL  string `mapstructure:"redirect_url"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	// File receives log output instead of stderr when set.
	File string `mapstructure:"file"`
}

type MetricsConfig struct {
	Addr string `mapstructure:"addr"`
}

// Dir returns the data directory: $TIMEBUDDY_CONFIG_DIR, else ~/.timebuddy.
func Dir() (string, error) {
	if v := strings.TrimSpace(os.Getenv(EnvDir)); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".timebuddy"), nil
}

// Load reads config.yaml from dir (resolved with Dir when empty).
// A missing file is not an error.
func Load(dir string) (*Config, error) {
	if strings.TrimSpace(dir) == "" {
		d, err := Dir()
		if err != nil {
			return nil, err
		}
		dir = d
	}

	v := viper.New()

	v.SetDefault("database.url", "")
	v.SetDefault("database.max_conns", 4)

	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", "720h")
	v.SetDefault("auth.issuer", "timebuddy")
	v.SetDefault("auth.reset_ttl", "1h")

	v.SetDefault("google.client_id", "")
	v.SetDefault("google.client_secret", "")
	v.SetDefault("google.redirect_url", "urn:ietf:wg:oauth:2.0:oob")

	v.SetDefault("log.level", "warn")
	v.SetDefault("log.format", "console")
	v.SetDefault("log.file", "")

	v.SetDefault("metrics.addr", "")

	v.SetConfigName(configFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(dir)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	cfg.Dir = dir

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the settings that would otherwise fail late.
func (c *Config) Validate() error {
	if c.OnlineEnabled() {
		if len(c.Auth.JWTSecret) < 16 {
			return errors.New("config: auth.jwt_secret must be at least 16 characters when database.url is set")
		}
		if c.Auth.TokenTTL <= 0 {
			return errors.New("config: auth.token_ttl must be positive")
		}
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("config: log.format must be console or json, got %q", c.Log.Format)
	}
	return nil
}

// OnlineEnabled reports whether a remote database is configured.
func (c *Config) OnlineEnabled() bool {
	return strings.TrimSpace(c.Database.URL) != ""
}

// GoogleEnabled reports whether Google sign-in can be offered.
func (c *Config) GoogleEnabled() bool {
	return c.Google.ClientID != "" && c.Google.ClientSecret != ""
}
