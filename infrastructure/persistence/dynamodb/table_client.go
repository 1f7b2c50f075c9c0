package dynamodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"github.com/TorresLabs/aika-server/pkg/common"
	pkgerrors "github.com/TorresLabs/aika-server/pkg/errors"
	"github.com/TorresLabs/aika-server/pkg/observability"
)

// Store limits per batch request
const (
	MaxBatchGetKeys    = 100
	MaxBatchWriteItems = 25
)

// Item is a stored row in its attribute value form
type Item = map[string]types.AttributeValue

// QueryResult is one page of a query
type QueryResult struct {
	Items            []Item
	LastEvaluatedKey Item
}

// BatchGetResult holds the rows found and the keys the store did not process
type BatchGetResult struct {
	Items           []Item
	UnprocessedKeys []Item
}

// WriteCondition guards a put, update or delete
type WriteCondition struct {
	expr expression.Expression
}

// IfNotExists succeeds only when no row with the item's key exists yet
func IfNotExists(keyAttribute string) (*WriteCondition, error) {
	return newWriteCondition(expression.AttributeNotExists(expression.Name(keyAttribute)))
}

// IfExists succeeds only when the targeted row exists
func IfExists(keyAttribute string) (*WriteCondition, error) {
	return newWriteCondition(expression.AttributeExists(expression.Name(keyAttribute)))
}

func newWriteCondition(cond expression.ConditionBuilder) (*WriteCondition, error) {
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build write condition: %w", err)
	}
	return &WriteCondition{expr: expr}, nil
}

// TableClient is a thin facade over the store primitives. It returns only
// the payload of each call, turns store failures into typed errors and logs
// every call through the request-scoped logger. Batch calls report
// unprocessed entries instead of retrying them.
type TableClient struct {
	api     API
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewTableClient creates a new TableClient
func NewTableClient(api API, logger *zap.Logger, metrics *observability.Metrics) *TableClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TableClient{
		api:     api,
		logger:  logger,
		metrics: metrics,
	}
}

func (c *TableClient) log(ctx context.Context) *zap.Logger {
	return common.Logger(ctx, c.logger)
}

// fail logs a failed call and wraps its cause
func (c *TableClient) fail(ctx context.Context, operation, table string, err error) error {
	c.log(ctx).Warn("DB call failed",
		zap.String("operation", operation),
		zap.String("table", table),
		zap.Error(err),
	)

	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		return pkgerrors.NewConflictError("", fmt.Sprintf("conditional %s on table '%s' failed", operation, table)).WithCause(err)
	}
	return pkgerrors.NewStoreError(operation, table, err)
}

// Get returns the item with the given key, or nil if it does not exist
func (c *TableClient) Get(ctx context.Context, table string, key Item) (Item, error) {
	c.log(ctx).Info("DB Get", zap.String("table", table))

	out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(table),
		Key:       key,
	})
	if err != nil {
		return nil, c.fail(ctx, "Get", table, err)
	}

	c.log(ctx).Info("DB Got item", zap.String("table", table), zap.Bool("found", len(out.Item) > 0))
	if len(out.Item) == 0 {
		return nil, nil
	}
	return out.Item, nil
}

// Put writes an item, replacing any row with the same key unless cond
// forbids it.
func (c *TableClient) Put(ctx context.Context, table string, item Item, cond *WriteCondition) error {
	c.log(ctx).Info("DB Put", zap.String("table", table), zap.Bool("conditional", cond != nil))

	input := &dynamodb.PutItemInput{
		TableName: aws.String(table),
		Item:      item,
	}
	if cond != nil {
		input.ConditionExpression = cond.expr.Condition()
		input.ExpressionAttributeNames = cond.expr.Names()
		input.ExpressionAttributeValues = cond.expr.Values()
	}

	if _, err := c.api.PutItem(ctx, input); err != nil {
		return c.fail(ctx, "Put", table, err)
	}

	c.log(ctx).Info("DB Put done", zap.String("table", table))
	return nil
}

// Update applies a partial update and returns the row as it is afterwards.
// An empty update is rejected without a store call.
func (c *TableClient) Update(ctx context.Context, table string, key Item, update UpdateExpression) (Item, error) {
	if update.IsEmpty() {
		return nil, errEmptyUpdate
	}

	c.log(ctx).Info("DB Update", zap.String("table", table), zap.Strings("fields", update.Fields()))

	input := &dynamodb.UpdateItemInput{
		TableName:                 aws.String(table),
		Key:                       key,
		UpdateExpression:          update.Expression(),
		ConditionExpression:       update.Condition(),
		ExpressionAttributeNames:  update.Names(),
		ExpressionAttributeValues: update.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	}

	out, err := c.api.UpdateItem(ctx, input)
	if err != nil {
		return nil, c.fail(ctx, "Update", table, err)
	}

	c.log(ctx).Info("DB Updated item", zap.String("table", table))
	return out.Attributes, nil
}

// Delete removes the row with the given key and returns its old attributes,
// or nil if there was no such row.
func (c *TableClient) Delete(ctx context.Context, table string, key Item, cond *WriteCondition) (Item, error) {
	c.log(ctx).Info("DB Delete", zap.String("table", table))

	input := &dynamodb.DeleteItemInput{
		TableName:    aws.String(table),
		Key:          key,
		ReturnValues: types.ReturnValueAllOld,
	}
	if cond != nil {
		input.ConditionExpression = cond.expr.Condition()
		input.ExpressionAttributeNames = cond.expr.Names()
		input.ExpressionAttributeValues = cond.expr.Values()
	}

	out, err := c.api.DeleteItem(ctx, input)
	if err != nil {
		return nil, c.fail(ctx, "Delete", table, err)
	}

	c.log(ctx).Info("DB Deleted item", zap.String("table", table), zap.Bool("existed", len(out.Attributes) > 0))
	if len(out.Attributes) == 0 {
		return nil, nil
	}
	return out.Attributes, nil
}

// Query runs one page of a key condition query
func (c *TableClient) Query(ctx context.Context, table string, cond *KeyCondition) (QueryResult, error) {
	if cond == nil {
		return QueryResult{}, errNoPartitionCondition
	}

	input, err := cond.QueryInput(table)
	if err != nil {
		return QueryResult{}, err
	}

	c.log(ctx).Info("DB Query",
		zap.String("table", table),
		zap.String("index", cond.IndexName()),
		zap.Stringp("keyCondition", input.KeyConditionExpression),
		zap.Bool("resumed", input.ExclusiveStartKey != nil),
	)

	out, err := c.api.Query(ctx, input)
	if err != nil {
		return QueryResult{}, c.fail(ctx, "Query", table, err)
	}

	c.log(ctx).Info("DB Query data",
		zap.String("table", table),
		zap.Int("count", len(out.Items)),
		zap.Bool("hasMore", out.LastEvaluatedKey != nil),
	)

	return QueryResult{Items: out.Items, LastEvaluatedKey: out.LastEvaluatedKey}, nil
}

// BatchGet fetches up to MaxBatchGetKeys rows of one table. Keys the store
// did not process are returned, logged and counted but not retried.
func (c *TableClient) BatchGet(ctx context.Context, table string, keys []Item) (BatchGetResult, error) {
	if len(keys) == 0 {
		return BatchGetResult{}, nil
	}
	if len(keys) > MaxBatchGetKeys {
		return BatchGetResult{}, fmt.Errorf("batch get of %d keys exceeds the limit of %d", len(keys), MaxBatchGetKeys)
	}

	c.log(ctx).Info("DB GetMany", zap.String("table", table), zap.Int("keys", len(keys)))

	out, err := c.api.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{
		RequestItems: map[string]types.KeysAndAttributes{
			table: {Keys: keys},
		},
	})
	if err != nil {
		return BatchGetResult{}, c.fail(ctx, "BatchGet", table, err)
	}

	result := BatchGetResult{Items: out.Responses[table]}
	if unprocessed, ok := out.UnprocessedKeys[table]; ok && len(unprocessed.Keys) > 0 {
		result.UnprocessedKeys = unprocessed.Keys
		c.reportUnprocessed(ctx, "BatchGet", table, len(unprocessed.Keys), len(keys))
	}

	c.log(ctx).Info("DB Got many", zap.String("table", table), zap.Int("count", len(result.Items)))
	return result, nil
}

// BatchWrite sends up to MaxBatchWriteItems put or delete requests for one
// table and returns the requests the store did not process.
func (c *TableClient) BatchWrite(ctx context.Context, table string, requests []types.WriteRequest) ([]types.WriteRequest, error) {
	if len(requests) == 0 {
		return nil, nil
	}
	if len(requests) > MaxBatchWriteItems {
		return nil, fmt.Errorf("batch write of %d requests exceeds the limit of %d", len(requests), MaxBatchWriteItems)
	}

	c.log(ctx).Info("DB WriteMany", zap.String("table", table), zap.Int("requests", len(requests)))

	out, err := c.api.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
		RequestItems: map[string][]types.WriteRequest{
			table: requests,
		},
	})
	if err != nil {
		return nil, c.fail(ctx, "BatchWrite", table, err)
	}

	unprocessed := out.UnprocessedItems[table]
	if len(unprocessed) > 0 {
		c.reportUnprocessed(ctx, "BatchWrite", table, len(unprocessed), len(requests))
	}

	c.log(ctx).Info("DB Wrote many", zap.String("table", table), zap.Int("processed", len(requests)-len(unprocessed)))
	return unprocessed, nil
}

func (c *TableClient) reportUnprocessed(ctx context.Context, operation, table string, unprocessed, requested int) {
	c.log(ctx).Warn("Unprocessed batch entries",
		zap.String("operation", operation),
		zap.String("table", table),
		zap.Int("unprocessed", unprocessed),
		zap.Int("requested", requested),
	)
	c.metrics.RecordCount(ctx, observability.MetricUnprocessedBatchEntries, unprocessed, map[string]string{
		"Operation": operation,
		"Table":     table,
	})
}
