package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/florianilch/taskconsole/internal/devserver"
	"github.com/florianilch/taskconsole/internal/tokenstore"
)

func TestDefault(t *testing.T) {
	cfg, err := Default()
	require.NoError(t, err)

	assert.Equal(t, LogFormatText, cfg.LogFormat)
	assert.Equal(t, "none", cfg.Telemetry.Exporter)
	assert.Equal(t, DefaultConfigBackendBaseURL, cfg.Backend.BaseURL)
	assert.Equal(t, DefaultConfigBackendTimeout, cfg.Backend.Timeout)
	assert.Equal(t, TokenStorageTypeFile, cfg.Auth.Storage)
	assert.Equal(t, filepath.Join("taskconsole", "token"), filepath.Join(filepath.Base(filepath.Dir(cfg.Auth.File)), filepath.Base(cfg.Auth.File)))
	assert.Equal(t, devserver.DefaultAccessTTL, cfg.DevServer.AccessTTL)
	assert.Equal(t, devserver.DefaultRefreshTTL, cfg.DevServer.RefreshTTL)
	assert.Equal(t, uint16(DefaultConfigDevServerPort), cfg.DevServer.Port)
	assert.Equal(t, DefaultConfigShutdownTimeout, cfg.Shutdown.Timeout)

	require.NoError(t, cfg.Validate())
}

func TestApplyDefaultsPerStorage(t *testing.T) {
	cfg := &Config{Auth: AuthConfig{Storage: TokenStorageTypeRedis, RedisAddr: "localhost:6379"}}
	require.NoError(t, cfg.ApplyDefaults())
	assert.Equal(t, DefaultConfigAuthRedisKey, cfg.Auth.RedisKey)
	assert.Empty(t, cfg.Auth.File)
	require.NoError(t, cfg.Validate())

	cfg = &Config{Auth: AuthConfig{Storage: TokenStorageTypeMemory}}
	require.NoError(t, cfg.ApplyDefaults())
	require.NoError(t, cfg.Validate())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown log format", func(c *Config) { c.LogFormat = "xml" }},
		{"unknown exporter", func(c *Config) { c.Telemetry.Exporter = "zipkin" }},
		{"endpoint without exporter", func(c *Config) { c.Telemetry.Endpoint = "http://collector:4318" }},
		{"missing base url", func(c *Config) { c.Backend.BaseURL = "" }},
		{"relative base url", func(c *Config) { c.Backend.BaseURL = "api/v1" }},
		{"unknown storage", func(c *Config) { c.Auth.Storage = "env" }},
		{"file storage without path", func(c *Config) { c.Auth.File = "" }},
		{"keyring storage without user", func(c *Config) { c.Auth.Storage = TokenStorageTypeKeyring }},
		{"redis storage without address", func(c *Config) {
			c.Auth.Storage = TokenStorageTypeRedis
			c.Auth.RedisKey = DefaultConfigAuthRedisKey
		}},
		{"malformed redis address", func(c *Config) {
			c.Auth.Storage = TokenStorageTypeRedis
			c.Auth.RedisAddr = "no-port"
			c.Auth.RedisKey = DefaultConfigAuthRedisKey
		}},
		{"short signing key", func(c *Config) { c.DevServer.SigningKey = "short" }},
		{"refresh shorter than access", func(c *Config) { c.DevServer.RefreshTTL = time.Minute }},
		{"short admin password", func(c *Config) { c.DevServer.AdminPassword = "abc" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Default()
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestNewTokenStore(t *testing.T) {
	cfg := AuthConfig{Storage: TokenStorageTypeFile, File: filepath.Join(t.TempDir(), "token")}
	store, err := cfg.NewTokenStore()
	require.NoError(t, err)
	assert.IsType(t, &tokenstore.FileStore{}, store)

	cfg = AuthConfig{Storage: TokenStorageTypeMemory}
	store, err = cfg.NewTokenStore()
	require.NoError(t, err)
	assert.IsType(t, &tokenstore.MemoryStore{}, store)

	cfg = AuthConfig{Storage: "carrier-pigeon"}
	_, err = cfg.NewTokenStore()
	assert.Error(t, err)
}
