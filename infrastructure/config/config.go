package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string
	Environment   string
	PublicBaseURL string

	// AWS configuration
	AWSRegion        string
	DynamoDBEndpoint string // empty for the regional endpoint
	EventBusName     string
	MetricsNamespace string

	// Tables
	PodcastsTable          string
	EpisodesTable          string
	FollowedPodcastsTable  string
	ClipsTable             string
	ClipsByAccountIndex    string
	EpisodesByReleaseIndex string

	// Lambda configuration
	IsLambda           bool
	LambdaFunctionName string

	// Logging
	LogLevel string

	// Caching
	PodcastCacheTTL time.Duration

	// HTTP
	CORSAllowedOrigins []string
	RateLimitPerMinute int // 0 disables rate limiting

	// Feature flags
	EnableMetrics         bool
	EnableTracing         bool
	EnableCORS            bool
	EnableEvents          bool
	ClipConditionalWrites bool
	ValidateSchema        bool
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{
		ServerAddress: getEnv("SERVER_ADDRESS", ":8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:8080"),

		AWSRegion:        getEnv("AWS_REGION", "eu-central-1"),
		DynamoDBEndpoint: getEnv("DYNAMODB_ENDPOINT", ""),
		EventBusName:     getEnv("EVENT_BUS_NAME", "aika-events"),
		MetricsNamespace: getEnv("METRICS_NAMESPACE", "Aika"),

		PodcastsTable:          getEnv("PODCASTS_TABLE", "PODCASTS"),
		EpisodesTable:          getEnv("EPISODES_TABLE", "EPISODES"),
		FollowedPodcastsTable:  getEnv("FOLLOWED_PODCASTS_TABLE", "FLWDPODCASTS"),
		ClipsTable:             getEnv("CLIPS_TABLE", "CLIPS"),
		ClipsByAccountIndex:    getEnv("CLIPS_BY_ACCOUNT_INDEX", "ACCID-CLPTS-index"),
		EpisodesByReleaseIndex: getEnv("EPISODES_BY_RELEASE_INDEX", "PID-RLSTS-index"),

		// Lambda configuration
		IsLambda:           getEnvBool("IS_LAMBDA", false),
		LambdaFunctionName: getEnv("AWS_LAMBDA_FUNCTION_NAME", ""),

		PodcastCacheTTL: time.Duration(getEnvInt("PODCAST_CACHE_TTL_SECONDS", 300)) * time.Second,

		CORSAllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS"),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 0),

		// Logging and features
		LogLevel:              getEnv("LOG_LEVEL", "info"),
		EnableMetrics:         getEnvBool("ENABLE_METRICS", false),
		EnableTracing:         getEnvBool("ENABLE_TRACING", false),
		EnableCORS:            getEnvBool("ENABLE_CORS", true),
		EnableEvents:          getEnvBool("ENABLE_EVENTS", false),
		ClipConditionalWrites: getEnvBool("CLIP_CONDITIONAL_WRITES", true),
		ValidateSchema:        getEnvBool("VALIDATE_SCHEMA", false),
	}

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if c.PodcastCacheTTL < 0 {
		return fmt.Errorf("PODCAST_CACHE_TTL_SECONDS must not be negative")
	}
	if c.RateLimitPerMinute < 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must not be negative")
	}
	if c.EnableEvents && c.EventBusName == "" {
		return fmt.Errorf("EVENT_BUS_NAME is required when events are enabled")
	}

	if c.IsProduction() {
		required := []struct{ key, value string }{
			{"PODCASTS_TABLE", c.PodcastsTable},
			{"EPISODES_TABLE", c.EpisodesTable},
			{"FOLLOWED_PODCASTS_TABLE", c.FollowedPodcastsTable},
			{"CLIPS_TABLE", c.ClipsTable},
			{"CLIPS_BY_ACCOUNT_INDEX", c.ClipsByAccountIndex},
			{"EPISODES_BY_RELEASE_INDEX", c.EpisodesByReleaseIndex},
		}
		for _, r := range required {
			if r.value == "" {
				return fmt.Errorf("%s is required in production", r.key)
			}
		}
		if c.DynamoDBEndpoint != "" {
			return fmt.Errorf("DYNAMODB_ENDPOINT must not be set in production")
		}
	}

	return nil
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated environment variable
func getEnvList(key string) []string {
	var values []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}
