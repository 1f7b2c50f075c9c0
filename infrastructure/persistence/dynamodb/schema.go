package dynamodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"
)

// TableSchema is the key layout a table must have
type TableSchema struct {
	Table        string
	PartitionKey string
	SortKey      string
	Indexes      []IndexSchema
}

// IndexSchema is the key layout of a secondary index
type IndexSchema struct {
	Name         string
	PartitionKey string
	SortKey      string
	Local        bool
}

// Schemas returns the expected layout of every table
func (t Tables) Schemas() []TableSchema {
	return []TableSchema{
		{Table: t.Podcasts, PartitionKey: AttrPodcastID},
		{
			Table:        t.Episodes,
			PartitionKey: AttrPodcastID,
			SortKey:      AttrReleaseIndex,
			Indexes: []IndexSchema{
				{Name: t.EpisodesByReleaseIndex, PartitionKey: AttrPodcastID, SortKey: AttrReleaseTimestamp, Local: true},
			},
		},
		{Table: t.FollowedPodcasts, PartitionKey: AttrAccountID, SortKey: AttrFollowTimestamp},
		{
			Table:        t.Clips,
			PartitionKey: AttrEpisodeID,
			SortKey:      AttrAccountIndex,
			Indexes: []IndexSchema{
				{Name: t.ClipsByAccountIndex, PartitionKey: AttrAccountID, SortKey: AttrClipTimestamp},
			},
		},
	}
}

// ValidateSchema checks that each table exists, is active and has the
// expected keys and indexes.
func (c *TableClient) ValidateSchema(ctx context.Context, schemas ...TableSchema) error {
	for _, schema := range schemas {
		out, err := c.api.DescribeTable(ctx, &dynamodb.DescribeTableInput{
			TableName: aws.String(schema.Table),
		})
		if err != nil {
			var notFound *types.ResourceNotFoundException
			if errors.As(err, &notFound) {
				return fmt.Errorf("table %s does not exist", schema.Table)
			}
			return fmt.Errorf("failed to describe table %s: %w", schema.Table, err)
		}
		if out.Table == nil {
			return fmt.Errorf("table %s has no description", schema.Table)
		}

		if err := verifyKeySchema("table "+schema.Table, out.Table.KeySchema, schema.PartitionKey, schema.SortKey); err != nil {
			return err
		}
		if out.Table.TableStatus != types.TableStatusActive {
			return fmt.Errorf("table %s is not active (status: %s)", schema.Table, out.Table.TableStatus)
		}

		for _, index := range schema.Indexes {
			if err := verifyIndex(out.Table, index); err != nil {
				return err
			}
		}

		c.log(ctx).Info("Table schema verified", zap.String("table", schema.Table))
	}
	return nil
}

func verifyKeySchema(what string, keys []types.KeySchemaElement, partitionKey, sortKey string) error {
	if len(keys) < 1 {
		return fmt.Errorf("%s has no key schema", what)
	}
	if got := aws.ToString(keys[0].AttributeName); got != partitionKey {
		return fmt.Errorf("%s has partition key %s, expected %s", what, got, partitionKey)
	}
	if sortKey == "" {
		if len(keys) != 1 {
			return fmt.Errorf("%s has a composite key, expected a simple key", what)
		}
		return nil
	}
	if len(keys) != 2 {
		return fmt.Errorf("%s has a simple key, expected composite", what)
	}
	if got := aws.ToString(keys[1].AttributeName); got != sortKey {
		return fmt.Errorf("%s has sort key %s, expected %s", what, got, sortKey)
	}
	return nil
}

func verifyIndex(table *types.TableDescription, index IndexSchema) error {
	if index.Local {
		for _, lsi := range table.LocalSecondaryIndexes {
			if aws.ToString(lsi.IndexName) == index.Name {
				return verifyKeySchema("local secondary index "+index.Name, lsi.KeySchema, index.PartitionKey, index.SortKey)
			}
		}
		return fmt.Errorf("local secondary index %s not found", index.Name)
	}

	for _, gsi := range table.GlobalSecondaryIndexes {
		if aws.ToString(gsi.IndexName) != index.Name {
			continue
		}
		if err := verifyKeySchema("global secondary index "+index.Name, gsi.KeySchema, index.PartitionKey, index.SortKey); err != nil {
			return err
		}
		if gsi.IndexStatus != types.IndexStatusActive {
			return fmt.Errorf("global secondary index %s is not active (status: %s)", index.Name, gsi.IndexStatus)
		}
		return nil
	}
	return fmt.Errorf("global secondary index %s not found", index.Name)
}
