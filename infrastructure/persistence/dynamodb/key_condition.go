package dynamodb

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// SortOperator is a comparison applied to the sort key of a query
type SortOperator string

const (
	OpEqual        SortOperator = "="
	OpLess         SortOperator = "<"
	OpLessEqual    SortOperator = "<="
	OpGreater      SortOperator = ">"
	OpGreaterEqual SortOperator = ">="
	OpBeginsWith   SortOperator = "begins_with"
)

var errNoPartitionCondition = errors.New("sort key condition requires a partition condition")

// KeyCondition describes a query over one partition of a table or index.
// It holds no table name so the same condition can be rendered against
// differently configured tables.
type KeyCondition struct {
	partitionKey string
	keyCond      expression.KeyConditionBuilder
	sortKey      string
	filter       *expression.ConditionBuilder
	indexName    string
	projection   []string
	limit        int32
	descending   bool
	startKey     map[string]types.AttributeValue
}

// QueryOption configures a KeyCondition
type QueryOption func(*KeyCondition)

// WithIndex runs the query against a secondary index
func WithIndex(indexName string) QueryOption {
	return func(c *KeyCondition) {
		c.indexName = indexName
	}
}

// KeysOnly projects the partition key plus the given attributes
func KeysOnly(attributes ...string) QueryOption {
	return func(c *KeyCondition) {
		c.projection = append([]string{c.partitionKey}, attributes...)
	}
}

// WithLimit caps the number of items evaluated
func WithLimit(limit int) QueryOption {
	return func(c *KeyCondition) {
		if limit > 0 {
			c.limit = int32(limit)
		}
	}
}

// Descending reverses the scan direction
func Descending() QueryOption {
	return func(c *KeyCondition) {
		c.descending = true
	}
}

// WithStartKey resumes the query after the given store key
func WithStartKey(key map[string]types.AttributeValue) QueryOption {
	return func(c *KeyCondition) {
		c.startKey = key
	}
}

// WithFilterEqual keeps only items whose attribute equals value. The filter
// runs after the limit is applied.
func WithFilterEqual(attribute string, value interface{}) QueryOption {
	return func(c *KeyCondition) {
		cond := expression.Name(attribute).Equal(expression.Value(value))
		if c.filter != nil {
			cond = c.filter.And(cond)
		}
		c.filter = &cond
	}
}

// BuildPartitionQuery creates the condition "partitionKey = partitionValue"
func BuildPartitionQuery(partitionKeyName string, partitionValue interface{}, opts ...QueryOption) (*KeyCondition, error) {
	if partitionKeyName == "" {
		return nil, errors.New("partition key name is required")
	}
	if partitionValue == nil {
		return nil, fmt.Errorf("partition value for %s is required", partitionKeyName)
	}

	c := &KeyCondition{
		partitionKey: partitionKeyName,
		keyCond:      expression.Key(partitionKeyName).Equal(expression.Value(partitionValue)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// AddSortKeyCondition appends "AND sortKey <op> sortValue". begins_with
// requires a string value. A query carries at most one sort key condition.
func AddSortKeyCondition(cond *KeyCondition, sortKeyName string, sortValue interface{}, op SortOperator) error {
	if err := checkSortKey(cond, sortKeyName, sortValue); err != nil {
		return err
	}

	key := expression.Key(sortKeyName)
	var sortCond expression.KeyConditionBuilder

	switch op {
	case OpEqual:
		sortCond = key.Equal(expression.Value(sortValue))
	case OpLess:
		sortCond = key.LessThan(expression.Value(sortValue))
	case OpLessEqual:
		sortCond = key.LessThanEqual(expression.Value(sortValue))
	case OpGreater:
		sortCond = key.GreaterThan(expression.Value(sortValue))
	case OpGreaterEqual:
		sortCond = key.GreaterThanEqual(expression.Value(sortValue))
	case OpBeginsWith:
		prefix, ok := sortValue.(string)
		if !ok {
			return fmt.Errorf("begins_with on %s requires a string prefix, got %T", sortKeyName, sortValue)
		}
		sortCond = key.BeginsWith(prefix)
	default:
		return fmt.Errorf("unsupported sort key operator %q", op)
	}

	cond.keyCond = cond.keyCond.And(sortCond)
	cond.sortKey = sortKeyName
	return nil
}

// AddSortKeyBetween appends "AND sortKey BETWEEN lower AND upper" (inclusive)
func AddSortKeyBetween(cond *KeyCondition, sortKeyName string, lower, upper interface{}) error {
	if err := checkSortKey(cond, sortKeyName, lower); err != nil {
		return err
	}
	if upper == nil {
		return fmt.Errorf("upper bound for %s is required", sortKeyName)
	}

	cond.keyCond = cond.keyCond.And(
		expression.Key(sortKeyName).Between(expression.Value(lower), expression.Value(upper)),
	)
	cond.sortKey = sortKeyName
	return nil
}

func checkSortKey(cond *KeyCondition, sortKeyName string, value interface{}) error {
	if cond == nil {
		return errNoPartitionCondition
	}
	if cond.sortKey != "" {
		return fmt.Errorf("query already has a sort key condition on %s", cond.sortKey)
	}
	if sortKeyName == "" {
		return errors.New("sort key name is required")
	}
	if value == nil {
		return fmt.Errorf("sort value for %s is required", sortKeyName)
	}
	return nil
}

// IndexName returns the secondary index the query targets, if any
func (c *KeyCondition) IndexName() string { return c.indexName }

// QueryInput renders the condition into a query against tableName
func (c *KeyCondition) QueryInput(tableName string) (*dynamodb.QueryInput, error) {
	builder := expression.NewBuilder().WithKeyCondition(c.keyCond)

	if c.filter != nil {
		builder = builder.WithFilter(*c.filter)
	}

	if len(c.projection) > 0 {
		names := make([]expression.NameBuilder, 0, len(c.projection))
		for _, attr := range c.projection {
			names = append(names, expression.Name(attr))
		}
		builder = builder.WithProjection(expression.ProjectionBuilder{}.AddNames(names...))
	}

	expr, err := builder.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build key condition: %w", err)
	}

	input := &dynamodb.QueryInput{
		TableName:                 aws.String(tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ExclusiveStartKey:         c.startKey,
	}

	if c.indexName != "" {
		input.IndexName = aws.String(c.indexName)
	}
	if c.filter != nil {
		input.FilterExpression = expr.Filter()
	}
	if len(c.projection) > 0 {
		input.ProjectionExpression = expr.Projection()
	}
	if c.limit > 0 {
		input.Limit = aws.Int32(c.limit)
	}
	if c.descending {
		input.ScanIndexForward = aws.Bool(false)
	}

	return input, nil
}
