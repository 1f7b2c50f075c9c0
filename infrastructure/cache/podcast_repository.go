package cache

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/TorresLabs/aika-server/application/ports"
	"github.com/TorresLabs/aika-server/domain/core/entities"
	"github.com/TorresLabs/aika-server/domain/core/valueobjects"
)

const podcastKeyPrefix = "podcast:"

// PodcastRepository caches resolved podcasts in front of another
// PodcastRepository. Ids that did not resolve are not cached. Episode reads
// pass through.
type PodcastRepository struct {
	next   ports.PodcastRepository
	cache  *InMemoryCache
	ttl    time.Duration
	logger *zap.Logger
}

var _ ports.PodcastRepository = (*PodcastRepository)(nil)

// NewPodcastRepository wraps next. A non-positive ttl disables caching.
func NewPodcastRepository(next ports.PodcastRepository, cache *InMemoryCache, ttl time.Duration, logger *zap.Logger) *PodcastRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PodcastRepository{
		next:   next,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}
}

// GetPodcasts serves cached podcasts and resolves the rest through the
// wrapped repository
func (r *PodcastRepository) GetPodcasts(ctx context.Context, ids []string) ([]entities.Podcast, error) {
	if r.ttl <= 0 || r.cache == nil {
		return r.next.GetPodcasts(ctx, ids)
	}

	podcasts := make([]entities.Podcast, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	var misses []string

	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		if v, ok := r.cache.Get(ctx, podcastKeyPrefix+id); ok {
			podcasts = append(podcasts, v.(entities.Podcast))
			continue
		}
		misses = append(misses, id)
	}

	if len(misses) == 0 {
		return podcasts, nil
	}

	r.logger.Debug("Podcast cache misses",
		zap.Int("hits", len(podcasts)),
		zap.Int("misses", len(misses)),
	)

	fetched, err := r.next.GetPodcasts(ctx, misses)
	if err != nil {
		return nil, err
	}
	for _, p := range fetched {
		r.cache.Set(ctx, podcastKeyPrefix+p.ID, p, r.ttl)
	}

	return append(podcasts, fetched...), nil
}

// GetEpisode passes through
func (r *PodcastRepository) GetEpisode(ctx context.Context, id valueobjects.EpisodeID) (*entities.Episode, error) {
	return r.next.GetEpisode(ctx, id)
}

// ListEpisodes passes through
func (r *PodcastRepository) ListEpisodes(ctx context.Context, podcastID string, rng ports.EpisodeRange, limit int) ([]entities.Episode, error) {
	return r.next.ListEpisodes(ctx, podcastID, rng, limit)
}
