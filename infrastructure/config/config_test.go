package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("ENVIRONMENT", "")
	t.Setenv("PODCAST_CACHE_TTL_SECONDS", "")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, "CLIPS", cfg.ClipsTable)
	assert.Equal(t, "ACCID-CLPTS-index", cfg.ClipsByAccountIndex)
	assert.Equal(t, 5*time.Minute, cfg.PodcastCacheTTL)
	assert.True(t, cfg.ClipConditionalWrites)
}

func TestLoadConfigFromEnvironment(t *testing.T) {
	t.Setenv("CLIPS_TABLE", "clips-test")
	t.Setenv("PODCAST_CACHE_TTL_SECONDS", "0")
	t.Setenv("CLIP_CONDITIONAL_WRITES", "false")
	t.Setenv("ENABLE_EVENTS", "1")
	t.Setenv("DYNAMODB_ENDPOINT", "http://localhost:8000")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, ,https://b.example.com")
	t.Setenv("RATE_LIMIT_PER_MINUTE", "120")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "clips-test", cfg.ClipsTable)
	assert.Zero(t, cfg.PodcastCacheTTL)
	assert.False(t, cfg.ClipConditionalWrites)
	assert.True(t, cfg.EnableEvents)
	assert.Equal(t, "http://localhost:8000", cfg.DynamoDBEndpoint)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 120, cfg.RateLimitPerMinute)
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Environment:            "production",
			PodcastsTable:          "PODCASTS",
			EpisodesTable:          "EPISODES",
			FollowedPodcastsTable:  "FLWDPODCASTS",
			ClipsTable:             "CLIPS",
			ClipsByAccountIndex:    "ACCID-CLPTS-index",
			EpisodesByReleaseIndex: "PID-RLSTS-index",
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		errText string
	}{
		{"valid", func(*Config) {}, ""},
		{"missing table in production", func(c *Config) { c.ClipsTable = "" }, "CLIPS_TABLE"},
		{"missing table outside production", func(c *Config) { c.Environment = "development"; c.ClipsTable = "" }, ""},
		{"local endpoint in production", func(c *Config) { c.DynamoDBEndpoint = "http://localhost:8000" }, "DYNAMODB_ENDPOINT"},
		{"negative cache ttl", func(c *Config) { c.PodcastCacheTTL = -time.Second }, "PODCAST_CACHE_TTL_SECONDS"},
		{"negative rate limit", func(c *Config) { c.RateLimitPerMinute = -1 }, "RATE_LIMIT_PER_MINUTE"},
		{"events without bus", func(c *Config) { c.EnableEvents = true }, "EVENT_BUS_NAME"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if tt.errText == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errText)
		})
	}
}
