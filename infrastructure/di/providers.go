package di

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscloudwatch "github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-xray-sdk-go/instrumentation/awsv2"
	"go.uber.org/zap"

	"github.com/TorresLabs/aika-server/application/ports"
	"github.com/TorresLabs/aika-server/application/services"
	"github.com/TorresLabs/aika-server/infrastructure/cache"
	"github.com/TorresLabs/aika-server/infrastructure/config"
	"github.com/TorresLabs/aika-server/infrastructure/feed"
	"github.com/TorresLabs/aika-server/infrastructure/messaging/eventbridge"
	"github.com/TorresLabs/aika-server/infrastructure/persistence/dynamodb"
	"github.com/TorresLabs/aika-server/interfaces/http/rest"
	"github.com/TorresLabs/aika-server/pkg/observability"
	"github.com/TorresLabs/aika-server/pkg/ratelimit"
)

const serviceName = "aika-server"

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	zapCfg := zap.NewDevelopmentConfig()
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zap.ParseAtomicLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL %q: %w", cfg.LogLevel, err)
	}
	zapCfg.Level = level

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("service", serviceName), zap.String("environment", cfg.Environment)), nil
}

// ProvideAWSConfig creates AWS configuration. With tracing enabled every
// AWS call is recorded as an X-Ray subsegment.
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
	if err != nil {
		return aws.Config{}, err
	}

	if cfg.EnableTracing {
		awsv2.AWSV2Instrumentor(&awsCfg.APIOptions)
	}
	return awsCfg, nil
}

// ProvideDynamoDBClient creates a DynamoDB client, pointed at a local
// endpoint when one is configured
func ProvideDynamoDBClient(awsCfg aws.Config, cfg *config.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg, func(o *awsdynamodb.Options) {
		if cfg.DynamoDBEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.DynamoDBEndpoint)
		}
	})
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg)
}

// ProvideCloudWatchClient creates a CloudWatch client
func ProvideCloudWatchClient(awsCfg aws.Config) *awscloudwatch.Client {
	return awscloudwatch.NewFromConfig(awsCfg)
}

// ProvideMetrics creates metrics instance. Disabled metrics record nothing.
func ProvideMetrics(client *awscloudwatch.Client, cfg *config.Config, logger *zap.Logger) *observability.Metrics {
	namespace := fmt.Sprintf("%s/%s", cfg.MetricsNamespace, cfg.Environment)
	if !cfg.EnableMetrics {
		return observability.NewMetrics(namespace, nil, logger)
	}
	return observability.NewMetrics(namespace, client, logger)
}

// ProvideTracer creates the tracer for service operations
func ProvideTracer(cfg *config.Config) *observability.Tracer {
	return observability.NewTracer(serviceName, cfg.EnableTracing)
}

// ProvideTables maps configured table names onto the store layout
func ProvideTables(cfg *config.Config) dynamodb.Tables {
	return dynamodb.Tables{
		Podcasts:               cfg.PodcastsTable,
		Episodes:               cfg.EpisodesTable,
		FollowedPodcasts:       cfg.FollowedPodcastsTable,
		Clips:                  cfg.ClipsTable,
		ClipsByAccountIndex:    cfg.ClipsByAccountIndex,
		EpisodesByReleaseIndex: cfg.EpisodesByReleaseIndex,
	}
}

// ProvideTableClient creates the shared table client
func ProvideTableClient(client *awsdynamodb.Client, logger *zap.Logger, metrics *observability.Metrics) *dynamodb.TableClient {
	return dynamodb.NewTableClient(client, logger, metrics)
}

// ProvideClipRepository creates a clip repository
func ProvideClipRepository(client *dynamodb.TableClient, tables dynamodb.Tables, cfg *config.Config, logger *zap.Logger) ports.ClipRepository {
	return dynamodb.NewClipRepository(client, tables, logger,
		dynamodb.WithConditionalCreate(cfg.ClipConditionalWrites))
}

// ProvidePodcastCache creates the in-process podcast cache
func ProvidePodcastCache(cfg *config.Config) *cache.InMemoryCache {
	return cache.NewInMemoryCache(cfg.PodcastCacheTTL)
}

// ProvidePodcastRepository creates a podcast repository that serves
// resolved podcasts from the cache
func ProvidePodcastRepository(
	client *dynamodb.TableClient,
	tables dynamodb.Tables,
	podcastCache *cache.InMemoryCache,
	cfg *config.Config,
	logger *zap.Logger,
) ports.PodcastRepository {
	store := dynamodb.NewPodcastRepository(client, tables, logger)
	return cache.NewPodcastRepository(store, podcastCache, cfg.PodcastCacheTTL, logger)
}

// ProvideFollowRepository creates a follow repository
func ProvideFollowRepository(client *dynamodb.TableClient, tables dynamodb.Tables, logger *zap.Logger) ports.FollowRepository {
	return dynamodb.NewFollowRepository(client, tables, logger)
}

// ProvideEventPublisher creates the domain event publisher, or nil when
// events are disabled
func ProvideEventPublisher(client *awseventbridge.Client, cfg *config.Config, logger *zap.Logger) ports.EventPublisher {
	if !cfg.EnableEvents {
		return nil
	}
	return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
}

// ProvideFeedRenderer creates the RSS renderer
func ProvideFeedRenderer(cfg *config.Config) services.FeedRenderer {
	return feed.NewRenderer(cfg.PublicBaseURL)
}

// ProvideServiceOptions collects what every service runs with
func ProvideServiceOptions(
	tracer *observability.Tracer,
	metrics *observability.Metrics,
	publisher ports.EventPublisher,
) []services.Option {
	opts := []services.Option{
		services.WithTracer(tracer),
		services.WithMetrics(metrics),
	}
	if publisher != nil {
		opts = append(opts, services.WithPublisher(publisher))
	}
	return opts
}

// ProvideClipService creates the clip service
func ProvideClipService(
	clips ports.ClipRepository,
	podcasts ports.PodcastRepository,
	logger *zap.Logger,
	opts []services.Option,
) *services.ClipService {
	return services.NewClipService(clips, podcasts, logger, opts...)
}

// ProvidePodcastQueryService creates the podcast query service
func ProvidePodcastQueryService(
	podcasts ports.PodcastRepository,
	follows ports.FollowRepository,
	renderer services.FeedRenderer,
	logger *zap.Logger,
	opts []services.Option,
) *services.PodcastQueryService {
	return services.NewPodcastQueryService(podcasts, follows, renderer, logger, opts...)
}

// ProvideRateLimiter creates the per-caller rate limiter, or nil when rate
// limiting is disabled
func ProvideRateLimiter(cfg *config.Config) *ratelimit.TokenBucketLimiter {
	if cfg.RateLimitPerMinute <= 0 {
		return nil
	}
	return ratelimit.NewPerMinuteLimiter(cfg.RateLimitPerMinute, 5*time.Minute)
}

// ProvideRouter creates the HTTP router
func ProvideRouter(
	clipService *services.ClipService,
	podcastService *services.PodcastQueryService,
	client *dynamodb.TableClient,
	tables dynamodb.Tables,
	limiter *ratelimit.TokenBucketLimiter,
	cfg *config.Config,
	logger *zap.Logger,
) *rest.Router {
	opts := rest.Options{
		EnableCORS:     cfg.EnableCORS,
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Debug:          cfg.IsDevelopment(),
		Ready: func(ctx context.Context) error {
			return client.ValidateSchema(ctx, tables.Schemas()...)
		},
	}
	if limiter != nil {
		opts.Limiter = limiter
	}
	return rest.NewRouter(clipService, podcastService, opts, logger)
}
