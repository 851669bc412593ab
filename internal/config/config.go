// Package config provides configuration management for the Atelier API.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// ErrConfigNotFound indicates no usable config file was found.
var ErrConfigNotFound = errors.New("config not found")

// Config matches the structure of atelier.json.
type Config struct {
	Env       string          `json:"env" yaml:"env" mapstructure:"env"`
	Server    ServerConfig    `json:"server" yaml:"server" mapstructure:"server"`
	Database  DatabaseConfig  `json:"database" yaml:"database" mapstructure:"database"`
	Auth      AuthConfig      `json:"auth" yaml:"auth" mapstructure:"auth"`
	RateLimit RateLimitConfig `json:"rateLimit" yaml:"rateLimit" mapstructure:"rateLimit"`
	CORS      CORSConfig      `json:"cors" yaml:"cors" mapstructure:"cors"`
	Uploads   UploadsConfig   `json:"uploads" yaml:"uploads" mapstructure:"uploads"`
	Locales   LocalesConfig   `json:"locales" yaml:"locales" mapstructure:"locales"`
	Events    EventsConfig    `json:"events" yaml:"events" mapstructure:"events"`
	Contact   ContactConfig   `json:"contact" yaml:"contact" mapstructure:"contact"`
}

type ServerConfig struct {
	Host string `json:"host" yaml:"host" mapstructure:"host"`
	Port int    `json:"port" yaml:"port" mapstructure:"port"`
}

type DatabaseConfig struct {
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

type AuthConfig struct {
	Secret           string `json:"secret" yaml:"secret" mapstructure:"secret"`
	AccessTTLMinutes int    `json:"accessTtlMinutes" yaml:"accessTtlMinutes" mapstructure:"accessTtlMinutes"`
	RefreshTTLDays   int    `json:"refreshTtlDays" yaml:"refreshTtlDays" mapstructure:"refreshTtlDays"`
}

type RateLimitConfig struct {
	Enabled bool    `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	RPS     float64 `json:"rps" yaml:"rps" mapstructure:"rps"`
	Burst   int     `json:"burst" yaml:"burst" mapstructure:"burst"`
}

type CORSConfig struct {
	Origins []string `json:"origins" yaml:"origins" mapstructure:"origins"`
}

type UploadsConfig struct {
	Dir       string   `json:"dir" yaml:"dir" mapstructure:"dir"`
	MaxSizeMB int      `json:"maxSizeMb" yaml:"maxSizeMb" mapstructure:"maxSizeMb"`
	MIMETypes []string `json:"mimeTypes" yaml:"mimeTypes" mapstructure:"mimeTypes"`
}

type LocalesConfig struct {
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`
}

type EventsConfig struct {
	URL      string `json:"url" yaml:"url" mapstructure:"url"`
	Exchange string `json:"exchange" yaml:"exchange" mapstructure:"exchange"`
}

type ContactConfig struct {
	WebhookURL string `json:"webhookUrl" yaml:"webhookUrl" mapstructure:"webhookUrl"`
}

// ConfigPath returns the default config file path.
// Can be overridden via ATELIER_CONFIG_PATH environment variable.
func ConfigPath() string {
	if override := strings.TrimSpace(os.Getenv("ATELIER_CONFIG_PATH")); override != "" {
		return expandPath(override)
	}
	return "atelier.json"
}

// expandPath expands ~ to home directory and resolves the path.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = strings.Replace(path, "~", home, 1)
		}
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return absPath
}

// LoadViper loads the configuration into a Viper instance.
func LoadViper() (*viper.Viper, error) {
	v := viper.New()

	setDefaults(v)

	// Check for explicit config path override
	if configPath := strings.TrimSpace(os.Getenv("ATELIER_CONFIG_PATH")); configPath != "" {
		expandedPath := expandPath(configPath)
		fileInfo, err := os.Stat(expandedPath)
		if err == nil && fileInfo.IsDir() {
			v.SetConfigName("atelier")
			v.AddConfigPath(expandedPath)
		} else {
			v.SetConfigFile(expandedPath)
		}
	} else {
		v.SetConfigName("atelier")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/atelier")
	}

	// Env vars - use ATELIER_ prefix
	v.SetEnvPrefix("ATELIER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Running on defaults + environment only is fine.
			return v, nil
		}
		if os.IsNotExist(err) {
			return v, nil
		}
		return nil, err
	}

	return v, nil
}

// Load reads the configuration from file or environment variables.
func Load() (*Config, error) {
	v, err := LoadViper()
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	expandEnvVars(&cfg)

	return &cfg, nil
}

// setDefaults sets default configuration values.
func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "development")

	v.SetDefault("server.host", "127.0.0.1")
	v.SetDefault("server.port", 8080)

	v.SetDefault("database.path", "data/atelier.db")

	v.SetDefault("auth.accessTtlMinutes", 15)
	v.SetDefault("auth.refreshTtlDays", 30)

	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.rps", 20)
	v.SetDefault("rateLimit.burst", 40)

	v.SetDefault("cors.origins", []string{"*"})

	v.SetDefault("uploads.dir", "data/uploads")
	v.SetDefault("uploads.maxSizeMb", 10)
	v.SetDefault("uploads.mimeTypes", []string{
		"image/jpeg", "image/png", "image/webp", "image/svg+xml", "application/pdf",
	})

	v.SetDefault("events.exchange", "atelier.content")
}

// expandEnvVars expands environment variables in sensitive fields,
// e.g. "secret": "${ATELIER_JWT_SECRET}".
func expandEnvVars(cfg *Config) {
	cfg.Auth.Secret = os.ExpandEnv(cfg.Auth.Secret)
	cfg.Events.URL = os.ExpandEnv(cfg.Events.URL)
	cfg.Contact.WebhookURL = os.ExpandEnv(cfg.Contact.WebhookURL)
}

// Production reports whether the process runs in production mode. This
// controls internal-error redaction at the HTTP boundary.
func (c *Config) Production() bool {
	return strings.EqualFold(c.Env, "production")
}

// Validate checks for semantic errors in the config.
func (c *Config) Validate() error {
	if c.Auth.Secret == "" {
		return fmt.Errorf("auth.secret is required")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}
	if c.Auth.AccessTTLMinutes <= 0 {
		return fmt.Errorf("auth.accessTtlMinutes must be positive")
	}
	if c.Auth.RefreshTTLDays <= 0 {
		return fmt.Errorf("auth.refreshTtlDays must be positive")
	}
	return nil
}
