package dynamodb

import (
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/TorresLabs/aika-server/application/ports"
	"github.com/TorresLabs/aika-server/domain/core/entities"
	"github.com/TorresLabs/aika-server/domain/core/valueobjects"
)

// PodcastRepository reads the podcasts and episodes tables
type PodcastRepository struct {
	client *TableClient
	tables Tables
	logger *zap.Logger
}

var _ ports.PodcastRepository = (*PodcastRepository)(nil)

// NewPodcastRepository creates a new PodcastRepository
func NewPodcastRepository(client *TableClient, tables Tables, logger *zap.Logger) *PodcastRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PodcastRepository{
		client: client,
		tables: tables,
		logger: logger,
	}
}

// GetPodcasts batch-gets podcasts, MaxBatchGetKeys per request, with the
// requests running concurrently. Duplicate ids are fetched once.
func (r *PodcastRepository) GetPodcasts(ctx context.Context, ids []string) ([]entities.Podcast, error) {
	keys := make([]Item, 0, len(ids))
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup || id == "" {
			continue
		}
		seen[id] = struct{}{}

		key, err := attributevalue.MarshalMap(podcastKey{PID: id})
		if err != nil {
			return nil, fmt.Errorf("failed to marshal podcast key: %w", err)
		}
		keys = append(keys, key)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	var (
		mu       sync.Mutex
		podcasts = make([]entities.Podcast, 0, len(keys))
	)

	g, gctx := errgroup.WithContext(ctx)
	for start := 0; start < len(keys); start += MaxBatchGetKeys {
		chunk := keys[start:min(start+MaxBatchGetKeys, len(keys))]

		g.Go(func() error {
			result, err := r.client.BatchGet(gctx, r.tables.Podcasts, chunk)
			if err != nil {
				return err
			}

			var rows []podcastItem
			if err := attributevalue.UnmarshalListOfMaps(result.Items, &rows); err != nil {
				return fmt.Errorf("failed to unmarshal podcasts: %w", err)
			}

			mu.Lock()
			defer mu.Unlock()
			for _, row := range rows {
				podcasts = append(podcasts, row.toEntity())
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(podcasts) < len(keys) {
		r.logger.Debug("Not every podcast resolved",
			zap.Int("requested", len(keys)),
			zap.Int("resolved", len(podcasts)),
		)
	}

	return podcasts, nil
}

// GetEpisode returns an episode by its composite id
func (r *PodcastRepository) GetEpisode(ctx context.Context, id valueobjects.EpisodeID) (*entities.Episode, error) {
	key, err := attributevalue.MarshalMap(episodeKey{PID: id.PodcastID(), IDX: id.ReleaseIndex()})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal episode key: %w", err)
	}

	item, err := r.client.Get(ctx, r.tables.Episodes, key)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}

	var row episodeItem
	if err := attributevalue.UnmarshalMap(item, &row); err != nil {
		return nil, fmt.Errorf("failed to unmarshal episode: %w", err)
	}
	episode := row.toEntity()
	return &episode, nil
}

// ListEpisodes lists episodes newest first through the release timestamp
// index. Both range bounds are exclusive.
func (r *PodcastRepository) ListEpisodes(ctx context.Context, podcastID string, rng ports.EpisodeRange, limit int) ([]entities.Episode, error) {
	cond, err := BuildPartitionQuery(AttrPodcastID, podcastID,
		WithIndex(r.tables.EpisodesByReleaseIndex),
		WithLimit(limit),
		Descending(),
	)
	if err != nil {
		return nil, err
	}

	switch {
	case rng.ReleasedAfter != nil && rng.ReleasedBefore != nil:
		lower, upper := *rng.ReleasedAfter+1, *rng.ReleasedBefore-1
		if lower > upper {
			return []entities.Episode{}, nil
		}
		err = AddSortKeyBetween(cond, AttrReleaseTimestamp, lower, upper)
	case rng.ReleasedAfter != nil:
		err = AddSortKeyCondition(cond, AttrReleaseTimestamp, *rng.ReleasedAfter, OpGreater)
	case rng.ReleasedBefore != nil:
		err = AddSortKeyCondition(cond, AttrReleaseTimestamp, *rng.ReleasedBefore, OpLess)
	}
	if err != nil {
		return nil, err
	}

	result, err := r.client.Query(ctx, r.tables.Episodes, cond)
	if err != nil {
		return nil, err
	}

	var rows []episodeItem
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal episodes: %w", err)
	}

	episodes := make([]entities.Episode, 0, len(rows))
	for _, row := range rows {
		episodes = append(episodes, row.toEntity())
	}
	return episodes, nil
}
