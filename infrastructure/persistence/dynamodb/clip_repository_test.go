package dynamodb

import (
	"context"
	"strconv"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TorresLabs/aika-server/application/ports"
	"github.com/TorresLabs/aika-server/domain/core/entities"
	"github.com/TorresLabs/aika-server/domain/core/valueobjects"
	pkgerrors "github.com/TorresLabs/aika-server/pkg/errors"
)

const testEpisodeID = "6b1b3e0e-5f6c-4d0b-9a8e-2f3c4d5e6f703"

func testEpisode(t *testing.T) valueobjects.EpisodeID {
	t.Helper()
	id, err := valueobjects.ParseEpisodeID(testEpisodeID)
	require.NoError(t, err)
	return id
}

func testClip(t *testing.T, index int, ts int64) *entities.Clip {
	t.Helper()
	clip, err := entities.NewClip(testEpisode(t), "u1",
		valueobjects.ClipPosition{Index: index, Timestamp: ts},
		entities.ClipRange{Start: 10, End: 20}, "Title", "Notes")
	require.NoError(t, err)
	return clip
}

func storedClip(sortKey string, ts int64) Item {
	return Item{
		"EID":    str(testEpisodeID),
		"ACCIDX": str(sortKey),
		"ACCID":  str("u1"),
		"CLPTS":  num(strconv.FormatInt(ts, 10)),
		"STRT":   num("10"),
		"ENDT":   num("20.5"),
		"TITL":   str("Title"),
	}
}

func newClipRepo(api API, opts ...ClipRepositoryOption) *ClipRepository {
	return NewClipRepository(newTestClient(api), DefaultTables(), nil, opts...)
}

func TestClipRepositorySave(t *testing.T) {
	var saved *dynamodb.PutItemInput
	api := &mockAPI{
		putItemFunc: func(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
			saved = params
			return &dynamodb.PutItemOutput{}, nil
		},
	}

	require.NoError(t, newClipRepo(api).Save(context.Background(), testClip(t, 12, 1700)))

	require.NotNil(t, saved)
	assert.Equal(t, "CLIPS", aws.ToString(saved.TableName))
	assert.Nil(t, saved.ConditionExpression)
	assert.Equal(t, str(testEpisodeID), saved.Item["EID"])
	assert.Equal(t, str("u1_0000000012"), saved.Item["ACCIDX"])
	assert.Equal(t, str("u1"), saved.Item["ACCID"])
	assert.Equal(t, num("1700"), saved.Item["CLPTS"])
	assert.Equal(t, str("Notes"), saved.Item["NTS"])
}

func TestClipRepositorySaveConditional(t *testing.T) {
	api := &mockAPI{
		putItemFunc: func(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
			assert.NotNil(t, params.ConditionExpression)
			return nil, &types.ConditionalCheckFailedException{}
		},
	}

	err := newClipRepo(api, WithConditionalCreate(true)).Save(context.Background(), testClip(t, 0, 1))

	assert.True(t, pkgerrors.IsConflict(err))
	assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeClipAlreadyExists))
}

func TestClipRepositoryGetByID(t *testing.T) {
	clip := testClip(t, 3, 1)

	t.Run("found", func(t *testing.T) {
		api := &mockAPI{
			getItemFunc: func(_ context.Context, params *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
				assert.Equal(t, str("u1_0000000003"), params.Key["ACCIDX"])
				return &dynamodb.GetItemOutput{Item: storedClip("u1_0000000003", 1)}, nil
			},
		}

		got, err := newClipRepo(api).GetByID(context.Background(), clip.ID())
		require.NoError(t, err)
		assert.True(t, got.ID().Equals(clip.ID()))
		assert.Equal(t, 20.5, got.Range().End)
		assert.Empty(t, got.Notes())
	})

	t.Run("missing", func(t *testing.T) {
		_, err := newClipRepo(&mockAPI{}).GetByID(context.Background(), clip.ID())
		assert.True(t, pkgerrors.IsNotFound(err))
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeClipDataDoesntExist))
	})
}

func TestClipRepositoryGetLatest(t *testing.T) {
	t.Run("parses the index from the sort key", func(t *testing.T) {
		api := &mockAPI{
			queryFunc: func(_ context.Context, params *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
				assert.Equal(t, int32(1), aws.ToInt32(params.Limit))
				assert.False(t, aws.ToBool(params.ScanIndexForward))
				assert.Contains(t, aws.ToString(params.KeyConditionExpression), "begins_with")
				assert.Contains(t, valuesOf(params.ExpressionAttributeValues), str("u1_"))
				return &dynamodb.QueryOutput{Items: []Item{storedClip("u1_0000000007", 900)}}, nil
			},
		}

		latest, err := newClipRepo(api).GetLatest(context.Background(), "u1", testEpisode(t))
		require.NoError(t, err)
		require.NotNil(t, latest)
		assert.Equal(t, 7, latest.Position().Index)
		assert.Equal(t, int64(900), latest.Position().Timestamp)
	})

	t.Run("no clips", func(t *testing.T) {
		latest, err := newClipRepo(&mockAPI{}).GetLatest(context.Background(), "u1", testEpisode(t))
		require.NoError(t, err)
		assert.Nil(t, latest)
	})
}

func TestClipRepositoryUpdate(t *testing.T) {
	clip := testClip(t, 1, 1)
	title := "New"

	t.Run("empty changes never reach the store", func(t *testing.T) {
		empty := ""
		api := &mockAPI{
			updateItemFunc: func(context.Context, *dynamodb.UpdateItemInput, ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
				t.Fatal("store called")
				return nil, nil
			},
		}

		_, err := newClipRepo(api).Update(context.Background(), clip.ID(), entities.ClipChanges{Title: &empty})
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeUpdatedClipDataMissing))
	})

	t.Run("guards on existence and returns the new row", func(t *testing.T) {
		api := &mockAPI{
			updateItemFunc: func(_ context.Context, params *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
				assert.Contains(t, aws.ToString(params.ConditionExpression), "attribute_exists")
				row := storedClip("u1_0000000001", 1)
				row["TITL"] = str(title)
				return &dynamodb.UpdateItemOutput{Attributes: row}, nil
			},
		}

		updated, err := newClipRepo(api).Update(context.Background(), clip.ID(), entities.ClipChanges{Title: &title})
		require.NoError(t, err)
		assert.Equal(t, "New", updated.Title())
	})

	t.Run("missing row", func(t *testing.T) {
		api := &mockAPI{
			updateItemFunc: func(context.Context, *dynamodb.UpdateItemInput, ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
				return nil, &types.ConditionalCheckFailedException{}
			},
		}

		_, err := newClipRepo(api).Update(context.Background(), clip.ID(), entities.ClipChanges{Title: &title})
		assert.True(t, pkgerrors.IsNotFound(err))
		assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodeClipDataDoesntExist))
	})
}

func TestClipRepositoryDelete(t *testing.T) {
	clip := testClip(t, 1, 1)

	err := newClipRepo(&mockAPI{}).Delete(context.Background(), clip.ID())
	assert.True(t, pkgerrors.IsNotFound(err))

	api := &mockAPI{
		deleteItemFunc: func(context.Context, *dynamodb.DeleteItemInput, ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
			return &dynamodb.DeleteItemOutput{Attributes: storedClip("u1_0000000001", 1)}, nil
		},
	}
	assert.NoError(t, newClipRepo(api).Delete(context.Background(), clip.ID()))
}

func TestClipRepositoryListByAccount(t *testing.T) {
	after := int64(500)
	api := &mockAPI{
		queryFunc: func(_ context.Context, params *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
			assert.Equal(t, "ACCID-CLPTS-index", aws.ToString(params.IndexName))
			assert.Equal(t, int32(5), aws.ToInt32(params.Limit))
			assert.Nil(t, params.ScanIndexForward)
			assert.Contains(t, aws.ToString(params.KeyConditionExpression), ">")
			assert.ElementsMatch(t, []types.AttributeValue{str("u1"), num("500")}, valuesOf(params.ExpressionAttributeValues))
			return &dynamodb.QueryOutput{Items: []Item{storedClip("u1_0000000001", 600), storedClip("u1_0000000002", 700)}}, nil
		},
	}

	clips, err := newClipRepo(api).ListByAccount(context.Background(), "u1", &after, 5)
	require.NoError(t, err)
	require.Len(t, clips, 2)
	assert.Equal(t, int64(700), clips[1].CreationTimestamp())
}

func TestClipRepositoryListByAccountAndEpisode(t *testing.T) {
	episode := testEpisode(t)

	t.Run("last evaluated key becomes the page key", func(t *testing.T) {
		api := &mockAPI{
			queryFunc: func(_ context.Context, params *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
				assert.False(t, aws.ToBool(params.ScanIndexForward))
				assert.Nil(t, params.ExclusiveStartKey)
				return &dynamodb.QueryOutput{
					Items:            []Item{storedClip("u1_0000000009", 9), storedClip("u1_0000000008", 8)},
					LastEvaluatedKey: Item{"EID": str(testEpisodeID), "ACCIDX": str("u1_0000000008")},
				}, nil
			},
		}

		page, err := newClipRepo(api).ListByAccountAndEpisode(context.Background(), "u1", episode, nil, 2)
		require.NoError(t, err)
		assert.Len(t, page.Clips, 2)
		assert.Equal(t, &ports.ClipPageKey{EpisodeID: testEpisodeID, SortKey: "u1_0000000008"}, page.LastKey)
	})

	t.Run("resumes after the start key", func(t *testing.T) {
		api := &mockAPI{
			queryFunc: func(_ context.Context, params *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
				assert.Equal(t, Item{"EID": str(testEpisodeID), "ACCIDX": str("u1_0000000008")}, params.ExclusiveStartKey)
				return &dynamodb.QueryOutput{}, nil
			},
		}

		page, err := newClipRepo(api).ListByAccountAndEpisode(context.Background(), "u1", episode,
			&ports.ClipPageKey{EpisodeID: testEpisodeID, SortKey: "u1_0000000008"}, 2)
		require.NoError(t, err)
		assert.Empty(t, page.Clips)
		assert.Nil(t, page.LastKey)
	})

	t.Run("rejects a key of another listing", func(t *testing.T) {
		api := &mockAPI{
			queryFunc: func(context.Context, *dynamodb.QueryInput, ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
				t.Fatal("store called")
				return nil, nil
			},
		}
		repo := newClipRepo(api)

		for _, key := range []ports.ClipPageKey{
			{EpisodeID: "other", SortKey: "u1_0000000008"},
			{EpisodeID: testEpisodeID, SortKey: "u2_0000000008"},
		} {
			_, err := repo.ListByAccountAndEpisode(context.Background(), "u1", episode, &key, 2)
			assert.True(t, pkgerrors.HasCode(err, pkgerrors.CodePaginationTokenInvalid))
		}
	})
}

func TestClipSortKey(t *testing.T) {
	assert.Equal(t, "u1_0000000000", clipSortKey("u1", 0))
	assert.Equal(t, "u1_0000000123", clipSortKey("u1", 123))
	assert.Less(t, clipSortKey("u1", 9), clipSortKey("u1", 10))

	for _, key := range []string{"u1_0000000123", "u1_123"} {
		account, index, err := parseClipSortKey(key)
		require.NoError(t, err)
		assert.Equal(t, "u1", account)
		assert.Equal(t, 123, index)
	}

	for _, bad := range []string{"", "u1", "_5", "u1_", "u1_x", "u1_-1"} {
		_, _, err := parseClipSortKey(bad)
		assert.Error(t, err, bad)
	}
}
