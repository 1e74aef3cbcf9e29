package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")

	cfg, err := LoadConfig("does-not-exist.env")
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, []string{"xxx"}, cfg.UpstreamTokens)
	assert.Equal(t, "replicate/google/veo-3", cfg.DefaultModel)
	assert.Equal(t, int64(100*1024*1024), cfg.MaxUploadBytes)
	assert.Equal(t, 3, cfg.MaxPendingMedia)
	assert.Equal(t, 3*time.Second, cfg.SuccessResetDelay)
	assert.Equal(t, 5*time.Second, cfg.FailureResetDelay)
	assert.Equal(t, time.Duration(0), cfg.UpstreamTimeout)
	assert.True(t, cfg.VideoPreviews)
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "Badger")
	t.Setenv("DATA_DIR", "/tmp/aivideo")
	t.Setenv("UPSTREAM_TOKENS", " a, b ,,c ")
	t.Setenv("MAX_PENDING_MEDIA", "5")
	t.Setenv("UPSTREAM_TIMEOUT", "90s")
	t.Setenv("MAX_UPLOAD_BYTES", "not-a-number")
	t.Setenv("VIDEO_PREVIEWS", "false")

	cfg, err := LoadConfig("does-not-exist.env")
	require.NoError(t, err)

	assert.Equal(t, StoreBadger, cfg.StoreBackend)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.UpstreamTokens)
	assert.Equal(t, 5, cfg.MaxPendingMedia)
	assert.Equal(t, 90*time.Second, cfg.UpstreamTimeout)
	assert.Equal(t, int64(100*1024*1024), cfg.MaxUploadBytes)
	assert.False(t, cfg.VideoPreviews)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{
			Port:            "8080",
			UpstreamBaseURL: "http://upstream",
			UpstreamTokens:  []string{"t"},
			MaxUploadBytes:  1,
			MaxPendingMedia: 1,
			StoreBackend:    StoreMemory,
		}
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "valid", mutate: func(c *Config) {}},
		{name: "no tokens", mutate: func(c *Config) { c.UpstreamTokens = nil }, wantErr: "UPSTREAM_TOKENS"},
		{name: "zero pending", mutate: func(c *Config) { c.MaxPendingMedia = 0 }, wantErr: "MAX_PENDING_MEDIA"},
		{name: "redis without addr", mutate: func(c *Config) { c.StoreBackend = StoreRedis }, wantErr: "REDIS_ADDR"},
		{name: "postgres without dsn", mutate: func(c *Config) { c.StoreBackend = StorePostgres }, wantErr: "DATABASE_URL"},
		{name: "unknown backend", mutate: func(c *Config) { c.StoreBackend = "etcd" }, wantErr: "unknown STORE_BACKEND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
