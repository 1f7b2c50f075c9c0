package dynamodb

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keySchema(partition, sort string) []types.KeySchemaElement {
	keys := []types.KeySchemaElement{{AttributeName: aws.String(partition), KeyType: types.KeyTypeHash}}
	if sort != "" {
		keys = append(keys, types.KeySchemaElement{AttributeName: aws.String(sort), KeyType: types.KeyTypeRange})
	}
	return keys
}

// describeFromSchemas answers DescribeTable with the expected layout
func describeFromSchemas(schemas []TableSchema) func(context.Context, *dynamodb.DescribeTableInput, ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	return func(_ context.Context, params *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
		for _, s := range schemas {
			if s.Table != aws.ToString(params.TableName) {
				continue
			}
			desc := &types.TableDescription{
				TableName:   aws.String(s.Table),
				TableStatus: types.TableStatusActive,
				KeySchema:   keySchema(s.PartitionKey, s.SortKey),
			}
			for _, idx := range s.Indexes {
				if idx.Local {
					desc.LocalSecondaryIndexes = append(desc.LocalSecondaryIndexes, types.LocalSecondaryIndexDescription{
						IndexName: aws.String(idx.Name),
						KeySchema: keySchema(idx.PartitionKey, idx.SortKey),
					})
					continue
				}
				desc.GlobalSecondaryIndexes = append(desc.GlobalSecondaryIndexes, types.GlobalSecondaryIndexDescription{
					IndexName:   aws.String(idx.Name),
					IndexStatus: types.IndexStatusActive,
					KeySchema:   keySchema(idx.PartitionKey, idx.SortKey),
				})
			}
			return &dynamodb.DescribeTableOutput{Table: desc}, nil
		}
		return nil, &types.ResourceNotFoundException{Message: aws.String("not found")}
	}
}

func TestValidateSchema(t *testing.T) {
	schemas := DefaultTables().Schemas()
	client := newTestClient(&mockAPI{describeTableFunc: describeFromSchemas(schemas)})

	assert.NoError(t, client.ValidateSchema(context.Background(), schemas...))
}

func TestValidateSchemaMismatches(t *testing.T) {
	schemas := DefaultTables().Schemas()

	tests := []struct {
		name     string
		expected TableSchema
		errText  string
	}{
		{
			name:     "missing table",
			expected: TableSchema{Table: "NOPE", PartitionKey: AttrPodcastID},
			errText:  "does not exist",
		},
		{
			name:     "wrong partition key",
			expected: TableSchema{Table: "PODCASTS", PartitionKey: AttrEpisodeID},
			errText:  "partition key",
		},
		{
			name:     "expected composite key",
			expected: TableSchema{Table: "PODCASTS", PartitionKey: AttrPodcastID, SortKey: AttrReleaseIndex},
			errText:  "simple key",
		},
		{
			name: "missing index",
			expected: TableSchema{
				Table: "CLIPS", PartitionKey: AttrEpisodeID, SortKey: AttrAccountIndex,
				Indexes: []IndexSchema{{Name: "missing-index", PartitionKey: AttrAccountID, SortKey: AttrClipTimestamp}},
			},
			errText: "not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(&mockAPI{describeTableFunc: describeFromSchemas(schemas)})

			err := client.ValidateSchema(context.Background(), tt.expected)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errText)
		})
	}
}

func TestValidateSchemaInactiveTable(t *testing.T) {
	api := &mockAPI{
		describeTableFunc: func(context.Context, *dynamodb.DescribeTableInput, ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
			return &dynamodb.DescribeTableOutput{Table: &types.TableDescription{
				TableStatus: types.TableStatusCreating,
				KeySchema:   keySchema(AttrPodcastID, ""),
			}}, nil
		},
	}

	err := newTestClient(api).ValidateSchema(context.Background(), TableSchema{Table: "PODCASTS", PartitionKey: AttrPodcastID})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not active")
}
