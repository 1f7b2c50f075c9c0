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

	"github.com/TorresLabs/aika-server/domain/core/entities"
	pkgerrors "github.com/TorresLabs/aika-server/pkg/errors"
)

func newFollowRepo(api API) *FollowRepository {
	return NewFollowRepository(newTestClient(api), DefaultTables(), nil)
}

func followRow(ts int64, podcastID string) Item {
	return Item{
		"ACCID": str("u1"),
		"FLWTS": num(strconv.FormatInt(ts, 10)),
		"PID":   str(podcastID),
		"PLAYD": num("0"),
	}
}

func TestFollowRepositoryListFollowed(t *testing.T) {
	after := int64(100)
	api := &mockAPI{
		queryFunc: func(_ context.Context, params *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
			assert.Equal(t, "FLWDPODCASTS", aws.ToString(params.TableName))
			assert.Equal(t, int32(100), aws.ToInt32(params.Limit))
			assert.Nil(t, params.ScanIndexForward)
			assert.Equal(t, "(#0 = :0) AND (#1 > :1)", aws.ToString(params.KeyConditionExpression))
			return &dynamodb.QueryOutput{Items: []Item{followRow(101, "p1"), followRow(102, "p2")}}, nil
		},
	}

	follows, err := newFollowRepo(api).ListFollowed(context.Background(), "u1", &after, 100)
	require.NoError(t, err)
	require.Len(t, follows, 2)
	assert.Equal(t, entities.FollowedPodcast{AccountID: "u1", FollowTimestamp: 102, PodcastID: "p2"}, follows[1])
}

func TestFollowRepositoryGetLatest(t *testing.T) {
	api := &mockAPI{
		queryFunc: func(_ context.Context, params *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
			assert.Equal(t, int32(1), aws.ToInt32(params.Limit))
			assert.False(t, aws.ToBool(params.ScanIndexForward))
			return &dynamodb.QueryOutput{Items: []Item{followRow(500, "p9")}}, nil
		},
	}

	latest, err := newFollowRepo(api).GetLatest(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, int64(500), latest.FollowTimestamp)

	none, err := newFollowRepo(&mockAPI{}).GetLatest(context.Background(), "u1")
	require.NoError(t, err)
	assert.Nil(t, none)
}

func TestFollowRepositoryFindByPodcastFollowsPages(t *testing.T) {
	calls := 0
	api := &mockAPI{
		queryFunc: func(_ context.Context, params *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
			calls++
			require.NotNil(t, params.FilterExpression)
			assert.Contains(t, valuesOf(params.ExpressionAttributeValues), str("p1"))

			if calls == 1 {
				assert.Nil(t, params.ExclusiveStartKey)
				return &dynamodb.QueryOutput{
					Items:            []Item{followRow(1, "p1")},
					LastEvaluatedKey: Item{"ACCID": str("u1"), "FLWTS": num("7")},
				}, nil
			}
			assert.Equal(t, Item{"ACCID": str("u1"), "FLWTS": num("7")}, params.ExclusiveStartKey)
			return &dynamodb.QueryOutput{Items: []Item{followRow(9, "p1")}}, nil
		},
	}

	found, err := newFollowRepo(api).FindByPodcast(context.Background(), "u1", "p1")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	require.Len(t, found, 2)
	assert.Equal(t, int64(9), found[1].FollowTimestamp)
}

func TestFollowRepositorySave(t *testing.T) {
	api := &mockAPI{
		putItemFunc: func(_ context.Context, params *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
			assert.Contains(t, aws.ToString(params.ConditionExpression), "attribute_not_exists")
			assert.Equal(t, num("42"), params.Item["FLWTS"])
			assert.NotContains(t, params.Item, "LUTS")
			return nil, &types.ConditionalCheckFailedException{}
		},
	}

	err := newFollowRepo(api).Save(context.Background(), entities.FollowedPodcast{AccountID: "u1", FollowTimestamp: 42, PodcastID: "p1"})
	assert.True(t, pkgerrors.IsConflict(err))
}

func TestFollowRepositoryDeleteChunksAndReportsUnprocessed(t *testing.T) {
	follows := make([]entities.FollowedPodcast, 0, 30)
	for i := 0; i < 30; i++ {
		follows = append(follows, entities.FollowedPodcast{AccountID: "u1", FollowTimestamp: int64(i), PodcastID: "p1"})
	}

	var sizes []int
	api := &mockAPI{
		batchWriteItemFunc: func(_ context.Context, params *dynamodb.BatchWriteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
			requests := params.RequestItems["FLWDPODCASTS"]
			sizes = append(sizes, len(requests))
			for _, req := range requests {
				require.NotNil(t, req.DeleteRequest)
			}
			if len(sizes) == 2 {
				return &dynamodb.BatchWriteItemOutput{
					UnprocessedItems: map[string][]types.WriteRequest{"FLWDPODCASTS": requests[:1]},
				}, nil
			}
			return &dynamodb.BatchWriteItemOutput{}, nil
		},
	}

	unprocessed, err := newFollowRepo(api).Delete(context.Background(), follows)
	require.NoError(t, err)

	assert.Equal(t, []int{25, 5}, sizes)
	assert.Equal(t, []entities.FollowedPodcast{{AccountID: "u1", FollowTimestamp: 25}}, unprocessed)
}

func TestFollowRepositoryDeleteNothing(t *testing.T) {
	unprocessed, err := newFollowRepo(&mockAPI{}).Delete(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, unprocessed)
}
