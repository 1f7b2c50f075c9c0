package dynamodb

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/TorresLabs/aika-server/application/ports"
	"github.com/TorresLabs/aika-server/domain/core/entities"
)

// FollowRepository implements the FollowRepository port on the followed
// podcasts table, keyed by (ACCID, FLWTS).
type FollowRepository struct {
	client *TableClient
	tables Tables
	logger *zap.Logger
}

var _ ports.FollowRepository = (*FollowRepository)(nil)

// NewFollowRepository creates a new FollowRepository
func NewFollowRepository(client *TableClient, tables Tables, logger *zap.Logger) *FollowRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FollowRepository{
		client: client,
		tables: tables,
		logger: logger,
	}
}

// ListFollowed lists follow entries oldest first. Entries are immutable, so
// the follow timestamp of the last entry is a stable cursor.
func (r *FollowRepository) ListFollowed(ctx context.Context, accountID string, after *int64, limit int) ([]entities.FollowedPodcast, error) {
	cond, err := BuildPartitionQuery(AttrAccountID, accountID, WithLimit(limit))
	if err != nil {
		return nil, err
	}
	if after != nil {
		if err := AddSortKeyCondition(cond, AttrFollowTimestamp, *after, OpGreater); err != nil {
			return nil, err
		}
	}

	result, err := r.client.Query(ctx, r.tables.FollowedPodcasts, cond)
	if err != nil {
		return nil, err
	}
	return unmarshalFollows(result.Items)
}

// GetLatest returns the account's most recent follow entry
func (r *FollowRepository) GetLatest(ctx context.Context, accountID string) (*entities.FollowedPodcast, error) {
	cond, err := BuildPartitionQuery(AttrAccountID, accountID, WithLimit(1), Descending())
	if err != nil {
		return nil, err
	}

	result, err := r.client.Query(ctx, r.tables.FollowedPodcasts, cond)
	if err != nil {
		return nil, err
	}

	follows, err := unmarshalFollows(result.Items)
	if err != nil || len(follows) == 0 {
		return nil, err
	}
	return &follows[0], nil
}

// FindByPodcast scans all of the account's entries for one podcast
func (r *FollowRepository) FindByPodcast(ctx context.Context, accountID, podcastID string) ([]entities.FollowedPodcast, error) {
	var (
		found    []entities.FollowedPodcast
		startKey Item
	)

	for {
		cond, err := BuildPartitionQuery(AttrAccountID, accountID,
			WithFilterEqual(AttrPodcastID, podcastID),
			WithStartKey(startKey),
		)
		if err != nil {
			return nil, err
		}

		result, err := r.client.Query(ctx, r.tables.FollowedPodcasts, cond)
		if err != nil {
			return nil, err
		}

		page, err := unmarshalFollows(result.Items)
		if err != nil {
			return nil, err
		}
		found = append(found, page...)

		if result.LastEvaluatedKey == nil {
			return found, nil
		}
		startKey = result.LastEvaluatedKey
	}
}

// Save stores a new follow entry. An entry with the same follow timestamp
// is never replaced.
func (r *FollowRepository) Save(ctx context.Context, follow entities.FollowedPodcast) error {
	av, err := attributevalue.MarshalMap(newFollowItem(follow))
	if err != nil {
		return fmt.Errorf("failed to marshal follow entry: %w", err)
	}

	cond, err := IfNotExists(AttrAccountID)
	if err != nil {
		return err
	}

	return r.client.Put(ctx, r.tables.FollowedPodcasts, av, cond)
}

// Delete batch-deletes follow entries, MaxBatchWriteItems per request, and
// returns the entries the store did not process.
func (r *FollowRepository) Delete(ctx context.Context, follows []entities.FollowedPodcast) ([]entities.FollowedPodcast, error) {
	var unprocessed []entities.FollowedPodcast

	for start := 0; start < len(follows); start += MaxBatchWriteItems {
		chunk := follows[start:min(start+MaxBatchWriteItems, len(follows))]

		requests := make([]types.WriteRequest, 0, len(chunk))
		for _, f := range chunk {
			key, err := attributevalue.MarshalMap(followKey{ACCID: f.AccountID, FLWTS: f.FollowTimestamp})
			if err != nil {
				return nil, fmt.Errorf("failed to marshal follow key: %w", err)
			}
			requests = append(requests, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{Key: key},
			})
		}

		left, err := r.client.BatchWrite(ctx, r.tables.FollowedPodcasts, requests)
		if err != nil {
			return nil, err
		}

		for _, req := range left {
			if req.DeleteRequest == nil {
				continue
			}
			var key followKey
			if err := attributevalue.UnmarshalMap(req.DeleteRequest.Key, &key); err != nil {
				return nil, fmt.Errorf("failed to unmarshal unprocessed follow key: %w", err)
			}
			unprocessed = append(unprocessed, entities.FollowedPodcast{AccountID: key.ACCID, FollowTimestamp: key.FLWTS})
		}
	}

	return unprocessed, nil
}

func unmarshalFollows(items []Item) ([]entities.FollowedPodcast, error) {
	var rows []followItem
	if err := attributevalue.UnmarshalListOfMaps(items, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal follow entries: %w", err)
	}

	follows := make([]entities.FollowedPodcast, 0, len(rows))
	for _, row := range rows {
		follows = append(follows, row.toEntity())
	}
	return follows, nil
}
