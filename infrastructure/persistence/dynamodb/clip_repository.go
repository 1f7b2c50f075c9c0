package dynamodb

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"go.uber.org/zap"

	"github.com/TorresLabs/aika-server/application/ports"
	"github.com/TorresLabs/aika-server/domain/core/entities"
	"github.com/TorresLabs/aika-server/domain/core/valueobjects"
	pkgerrors "github.com/TorresLabs/aika-server/pkg/errors"
)

// ClipRepository implements the ClipRepository port on the clips table.
//
// Rows are keyed by (EID, ACCIDX). ACCIDX is the account id followed by the
// zero-padded clip index, so one account's clips for an episode sort by index
// and the latest one is a single descending begins_with query.
type ClipRepository struct {
	client            *TableClient
	tables            Tables
	logger            *zap.Logger
	conditionalCreate bool
}

var _ ports.ClipRepository = (*ClipRepository)(nil)

// ClipRepositoryOption configures a ClipRepository
type ClipRepositoryOption func(*ClipRepository)

// WithConditionalCreate makes Save fail with a conflict instead of
// overwriting when a clip already exists at the same position. Off by
// default, which keeps last-writer-wins.
func WithConditionalCreate(enabled bool) ClipRepositoryOption {
	return func(r *ClipRepository) {
		r.conditionalCreate = enabled
	}
}

// NewClipRepository creates a new ClipRepository
func NewClipRepository(client *TableClient, tables Tables, logger *zap.Logger, opts ...ClipRepositoryOption) *ClipRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &ClipRepository{
		client: client,
		tables: tables,
		logger: logger,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Save stores a new clip
func (r *ClipRepository) Save(ctx context.Context, clip *entities.Clip) error {
	av, err := attributevalue.MarshalMap(newClipItem(clip))
	if err != nil {
		return fmt.Errorf("failed to marshal clip: %w", err)
	}

	var cond *WriteCondition
	if r.conditionalCreate {
		if cond, err = IfNotExists(AttrEpisodeID); err != nil {
			return err
		}
	}

	if err := r.client.Put(ctx, r.tables.Clips, av, cond); err != nil {
		if pkgerrors.IsConflict(err) {
			return pkgerrors.NewConflictError(pkgerrors.CodeClipAlreadyExists,
				fmt.Sprintf("clip %s already exists", clip.ID())).WithCause(err)
		}
		return err
	}
	return nil
}

// GetByID retrieves a clip by its composite id
func (r *ClipRepository) GetByID(ctx context.Context, id valueobjects.ClipID) (*entities.Clip, error) {
	key, err := attributevalue.MarshalMap(newClipKey(id))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal clip key: %w", err)
	}

	item, err := r.client.Get(ctx, r.tables.Clips, key)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, pkgerrors.NewNotFoundError(pkgerrors.CodeClipDataDoesntExist, "clip")
	}

	return unmarshalClip(item)
}

// GetLatest returns the account's clip with the highest index for the episode
func (r *ClipRepository) GetLatest(ctx context.Context, accountID string, episodeID valueobjects.EpisodeID) (*entities.Clip, error) {
	cond, err := r.episodeClipsQuery(accountID, episodeID, WithLimit(1), Descending())
	if err != nil {
		return nil, err
	}

	result, err := r.client.Query(ctx, r.tables.Clips, cond)
	if err != nil {
		return nil, err
	}
	if len(result.Items) == 0 {
		return nil, nil
	}

	return unmarshalClip(result.Items[0])
}

// clipChangeFields maps the changeable clip fields to their attributes.
// Empty values count as unchanged.
func clipChangeFields(changes entities.ClipChanges) []FieldUpdate {
	var fields []FieldUpdate
	if changes.Title != nil && *changes.Title != "" {
		fields = append(fields, FieldUpdate{Name: AttrTitle, Value: *changes.Title})
	}
	if changes.Notes != nil && *changes.Notes != "" {
		fields = append(fields, FieldUpdate{Name: AttrNotes, Value: *changes.Notes})
	}
	return fields
}

// Update changes title and notes of an existing clip
func (r *ClipRepository) Update(ctx context.Context, id valueobjects.ClipID, changes entities.ClipChanges) (*entities.Clip, error) {
	update, err := BuildUpdateExpression(clipChangeFields(changes),
		expression.AttributeExists(expression.Name(AttrEpisodeID)))
	if err != nil {
		return nil, err
	}
	if update.IsEmpty() {
		return nil, pkgerrors.NewValidationError(pkgerrors.CodeUpdatedClipDataMissing, "updated clip data is missing")
	}

	key, err := attributevalue.MarshalMap(newClipKey(id))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal clip key: %w", err)
	}

	item, err := r.client.Update(ctx, r.tables.Clips, key, update)
	if err != nil {
		if pkgerrors.IsConflict(err) {
			return nil, pkgerrors.NewNotFoundError(pkgerrors.CodeClipDataDoesntExist, "clip").WithCause(err)
		}
		return nil, err
	}

	return unmarshalClip(item)
}

// Delete removes a clip
func (r *ClipRepository) Delete(ctx context.Context, id valueobjects.ClipID) error {
	key, err := attributevalue.MarshalMap(newClipKey(id))
	if err != nil {
		return fmt.Errorf("failed to marshal clip key: %w", err)
	}

	old, err := r.client.Delete(ctx, r.tables.Clips, key, nil)
	if err != nil {
		return err
	}
	if old == nil {
		return pkgerrors.NewNotFoundError(pkgerrors.CodeClipDataDoesntExist, "clip")
	}
	return nil
}

// ListByAccount lists clips across episodes through the account index
func (r *ClipRepository) ListByAccount(ctx context.Context, accountID string, after *int64, limit int) ([]*entities.Clip, error) {
	cond, err := BuildPartitionQuery(AttrAccountID, accountID,
		WithIndex(r.tables.ClipsByAccountIndex),
		WithLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	if after != nil {
		if err := AddSortKeyCondition(cond, AttrClipTimestamp, *after, OpGreater); err != nil {
			return nil, err
		}
	}

	result, err := r.client.Query(ctx, r.tables.Clips, cond)
	if err != nil {
		return nil, err
	}

	return unmarshalClips(result.Items)
}

// ListByAccountAndEpisode lists one account's clips of an episode, newest first
func (r *ClipRepository) ListByAccountAndEpisode(ctx context.Context, accountID string, episodeID valueobjects.EpisodeID, startKey *ports.ClipPageKey, limit int) (ports.ClipPage, error) {
	opts := []QueryOption{WithLimit(limit), Descending()}

	if startKey != nil {
		if startKey.EpisodeID != episodeID.String() || !strings.HasPrefix(startKey.SortKey, clipSortKeyPrefix(accountID)) {
			return ports.ClipPage{}, pkgerrors.NewValidationError(pkgerrors.CodePaginationTokenInvalid,
				"pagination token does not belong to this listing")
		}
		av, err := attributevalue.MarshalMap(clipKey{EID: startKey.EpisodeID, ACCIDX: startKey.SortKey})
		if err != nil {
			return ports.ClipPage{}, fmt.Errorf("failed to marshal start key: %w", err)
		}
		opts = append(opts, WithStartKey(av))
	}

	cond, err := r.episodeClipsQuery(accountID, episodeID, opts...)
	if err != nil {
		return ports.ClipPage{}, err
	}

	result, err := r.client.Query(ctx, r.tables.Clips, cond)
	if err != nil {
		return ports.ClipPage{}, err
	}

	clips, err := unmarshalClips(result.Items)
	if err != nil {
		return ports.ClipPage{}, err
	}

	page := ports.ClipPage{Clips: clips}
	if result.LastEvaluatedKey != nil {
		var last clipKey
		if err := attributevalue.UnmarshalMap(result.LastEvaluatedKey, &last); err != nil {
			return ports.ClipPage{}, fmt.Errorf("failed to unmarshal last evaluated key: %w", err)
		}
		page.LastKey = &ports.ClipPageKey{EpisodeID: last.EID, SortKey: last.ACCIDX}
	}

	r.logger.Debug("Listed episode clips",
		zap.String("episodeID", episodeID.String()),
		zap.Int("count", len(clips)),
		zap.Bool("hasMore", page.LastKey != nil),
	)

	return page, nil
}

func (r *ClipRepository) episodeClipsQuery(accountID string, episodeID valueobjects.EpisodeID, opts ...QueryOption) (*KeyCondition, error) {
	cond, err := BuildPartitionQuery(AttrEpisodeID, episodeID.String(), opts...)
	if err != nil {
		return nil, err
	}
	if err := AddSortKeyCondition(cond, AttrAccountIndex, clipSortKeyPrefix(accountID), OpBeginsWith); err != nil {
		return nil, err
	}
	return cond, nil
}

func unmarshalClip(item Item) (*entities.Clip, error) {
	var ci clipItem
	if err := attributevalue.UnmarshalMap(item, &ci); err != nil {
		return nil, fmt.Errorf("failed to unmarshal clip: %w", err)
	}
	return ci.toEntity()
}

func unmarshalClips(items []Item) ([]*entities.Clip, error) {
	var rows []clipItem
	if err := attributevalue.UnmarshalListOfMaps(items, &rows); err != nil {
		return nil, fmt.Errorf("failed to unmarshal clips: %w", err)
	}

	clips := make([]*entities.Clip, 0, len(rows))
	for _, row := range rows {
		clip, err := row.toEntity()
		if err != nil {
			return nil, err
		}
		clips = append(clips, clip)
	}
	return clips, nil
}
