package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"

	"github.com/florianilch/taskconsole/internal/devserver"
	"github.com/florianilch/taskconsole/internal/observability"
	"github.com/florianilch/taskconsole/internal/tokenstore"
)

// LogFormat represents the logging output format.
type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

// TokenStorageType represents the different storage types supported for the session token pair.
type TokenStorageType string

const (
	TokenStorageTypeFile    TokenStorageType = "file"
	TokenStorageTypeKeyring TokenStorageType = "keyring"
	TokenStorageTypeRedis   TokenStorageType = "redis"
	TokenStorageTypeMemory  TokenStorageType = "memory"
)

// Default configuration values
const (
	DefaultConfigLogFormat         = LogFormatText
	DefaultConfigTelemetryExporter = observability.ExporterNone
	DefaultConfigBackendBaseURL    = "http://127.0.0.1:8080"
	DefaultConfigBackendTimeout    = 30 * time.Second
	DefaultConfigAuthStorage       = TokenStorageTypeFile
	DefaultConfigAuthKeyringName   = "taskconsole-token"
	DefaultConfigAuthRedisKey      = "taskconsole:token"
	DefaultConfigDevServerHost     = "127.0.0.1"
	DefaultConfigDevServerPort     = 8080
	DefaultConfigDevServerAdmin    = "admin"
	DefaultConfigShutdownTimeout   = 5 * time.Second
)

// TelemetryConfig selects where log records are exported besides stderr.
type TelemetryConfig struct {
	Exporter string `json:"exporter" validate:"oneof=none stdout otlp-http otlp-grpc"`
	Endpoint string `json:"endpoint,omitempty" validate:"omitempty,url"`
}

// BackendConfig holds the backend API configuration.
type BackendConfig struct {
	BaseURL string        `json:"base_url" validate:"required,url"`
	Timeout time.Duration `json:"timeout" validate:"gte=0"`
}

// AuthConfig describes where the session's token pair is persisted.
type AuthConfig struct {
	Storage TokenStorageType `json:"storage" validate:"required,oneof=file keyring redis memory"`

	// Storage-specific settings (mutually exclusive based on Storage type)
	File        string `json:"file,omitempty"`         // For file storage: path to token file
	KeyringUser string `json:"keyring_user,omitempty"` // For keyring storage: user identifier
	RedisAddr   string `json:"redis_addr,omitempty" validate:"omitempty,hostname_port"`
	RedisKey    string `json:"redis_key,omitempty"`
}

// NewTokenStore creates the durable slot from the authentication configuration.
// Stores holding connections also implement io.Closer.
func (a *AuthConfig) NewTokenStore() (tokenstore.TokenStore, error) {
	switch a.Storage {
	case TokenStorageTypeFile:
		return tokenstore.NewFileStore(a.File)
	case TokenStorageTypeKeyring:
		return tokenstore.NewKeyringStore(DefaultConfigAuthKeyringName, a.KeyringUser)
	case TokenStorageTypeRedis:
		return tokenstore.NewRedisStore(redis.NewClient(&redis.Options{Addr: a.RedisAddr}), a.RedisKey)
	case TokenStorageTypeMemory:
		return tokenstore.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", a.Storage)
	}
}

// DevServerConfig holds the development backend configuration.
type DevServerConfig struct {
	Host string `json:"host" validate:"hostname_rfc1123|ip"`
	Port uint16 `json:"port"`

	// SigningKey signs issued tokens. Left empty, a random key is used and
	// tokens do not survive a restart.
	SigningKey string        `json:"signing_key,omitempty" validate:"omitempty,min=32"`
	AccessTTL  time.Duration `json:"access_ttl" validate:"gt=0"`
	RefreshTTL time.Duration `json:"refresh_ttl" validate:"gtfield=AccessTTL"`

	AdminUsername string `json:"admin_username" validate:"required,alphanum"`
	// AdminPassword left empty is generated and logged at startup.
	AdminPassword string `json:"admin_password,omitempty" validate:"omitempty,min=6"`
}

// ShutdownConfig holds shutdown behavior configuration.
type ShutdownConfig struct {
	// Timeout for graceful shutdown.
	Timeout time.Duration `json:"timeout"`
}

// Config holds the application's configuration.
type Config struct {
	// LogLevel for logging output (defaults to Info if unset).
	LogLevel  slog.Level      `json:"log_level"`
	LogFormat LogFormat       `json:"log_format" validate:"oneof=text json"`
	Telemetry TelemetryConfig `json:"telemetry"`
	Backend   BackendConfig   `json:"backend"`
	Auth      AuthConfig      `json:"auth"`
	DevServer DevServerConfig `json:"devserver"`
	Shutdown  ShutdownConfig  `json:"shutdown"`
}

// Default creates a new Config with default values applied.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := cfg.ApplyDefaults(); err != nil {
		return nil, fmt.Errorf("failed to apply defaults: %w", err)
	}
	return cfg, nil
}

// ApplyDefaults fills unset config fields with sensible defaults.
func (c *Config) ApplyDefaults() error {
	if c.LogFormat == "" {
		c.LogFormat = DefaultConfigLogFormat
	}
	if c.Telemetry.Exporter == "" {
		c.Telemetry.Exporter = DefaultConfigTelemetryExporter
	}
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = DefaultConfigBackendBaseURL
	}
	if c.Backend.Timeout == 0 {
		c.Backend.Timeout = DefaultConfigBackendTimeout
	}
	if c.Auth.Storage == "" {
		c.Auth.Storage = DefaultConfigAuthStorage
	}
	if c.DevServer.Host == "" {
		c.DevServer.Host = DefaultConfigDevServerHost
	}
	if c.DevServer.Port == 0 {
		c.DevServer.Port = DefaultConfigDevServerPort
	}
	if c.DevServer.AccessTTL == 0 {
		c.DevServer.AccessTTL = devserver.DefaultAccessTTL
	}
	if c.DevServer.RefreshTTL == 0 {
		c.DevServer.RefreshTTL = devserver.DefaultRefreshTTL
	}
	if c.DevServer.AdminUsername == "" {
		c.DevServer.AdminUsername = DefaultConfigDevServerAdmin
	}
	if c.Shutdown.Timeout == 0 {
		c.Shutdown.Timeout = DefaultConfigShutdownTimeout
	}

	// Dynamic defaults based on storage type
	switch c.Auth.Storage {
	case TokenStorageTypeFile:
		if c.Auth.File == "" {
			configDir, err := os.UserConfigDir()
			if err != nil {
				return fmt.Errorf("auth.file required (auto-detect failed: %w)", err)
			}
			c.Auth.File = filepath.Join(configDir, "taskconsole", "token")
		}
	case TokenStorageTypeKeyring:
		if c.Auth.KeyringUser == "" {
			currentUser, err := user.Current()
			if err != nil {
				return fmt.Errorf("auth.keyring_user required (auto-detect failed: %w)", err)
			}
			c.Auth.KeyringUser = currentUser.Username
		}
	case TokenStorageTypeRedis:
		if c.Auth.RedisKey == "" {
			c.Auth.RedisKey = DefaultConfigAuthRedisKey
		}
		// redis_addr must be explicitly configured (no sensible default)
	}

	return nil
}

// Validate validates the configuration using struct tags and enum values.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	if c.Telemetry.Exporter == observability.ExporterNone && c.Telemetry.Endpoint != "" {
		return errors.New("telemetry.endpoint set without an exporter")
	}

	switch c.Auth.Storage {
	case TokenStorageTypeFile:
		if c.Auth.File == "" {
			return errors.New("file path required for file storage")
		}
	case TokenStorageTypeKeyring:
		if c.Auth.KeyringUser == "" {
			return errors.New("keyring_user required for keyring storage")
		}
	case TokenStorageTypeRedis:
		if c.Auth.RedisAddr == "" {
			return errors.New("redis_addr required for redis storage")
		}
		if c.Auth.RedisKey == "" {
			return errors.New("redis_key required for redis storage")
		}
	}

	return nil
}
