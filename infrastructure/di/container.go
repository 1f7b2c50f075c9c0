package di

import (
	"go.uber.org/zap"

	"github.com/TorresLabs/aika-server/application/services"
	"github.com/TorresLabs/aika-server/infrastructure/cache"
	"github.com/TorresLabs/aika-server/infrastructure/config"
	"github.com/TorresLabs/aika-server/infrastructure/persistence/dynamodb"
	"github.com/TorresLabs/aika-server/interfaces/http/rest"
	"github.com/TorresLabs/aika-server/pkg/ratelimit"
)

// Container holds all application dependencies
type Container struct {
	Config         *config.Config
	Logger         *zap.Logger
	Tables         dynamodb.Tables
	TableClient    *dynamodb.TableClient
	ClipService    *services.ClipService
	PodcastService *services.PodcastQueryService
	PodcastCache   *cache.InMemoryCache
	RateLimiter    *ratelimit.TokenBucketLimiter
	Router         *rest.Router
}

// Close stops background workers and flushes the logger
func (c *Container) Close() {
	c.PodcastCache.Stop()
	if c.RateLimiter != nil {
		c.RateLimiter.Stop()
	}
	_ = c.Logger.Sync()
}
