package dynamodb

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

var errEmptyUpdate = errors.New("update expression has no fields")

// FieldUpdate sets one attribute to a new value
type FieldUpdate struct {
	Name  string
	Value interface{}
}

// UpdateExpression is a rendered partial update. Attribute names and values
// are aliased positionally (#0, :0, ...) in input order, so reserved words
// never collide with attribute names.
type UpdateExpression struct {
	fields []string
	expr   expression.Expression
}

// BuildUpdateExpression sets every field in order. An empty field list
// yields an expression whose IsEmpty is true; it must not be sent to the
// store. Conditions, if given, guard the update.
func BuildUpdateExpression(fields []FieldUpdate, conditions ...expression.ConditionBuilder) (UpdateExpression, error) {
	if len(fields) == 0 {
		return UpdateExpression{}, nil
	}

	var update expression.UpdateBuilder
	names := make([]string, 0, len(fields))
	for i, f := range fields {
		if f.Name == "" {
			return UpdateExpression{}, fmt.Errorf("update field %d has no name", i)
		}
		update = update.Set(expression.Name(f.Name), expression.Value(f.Value))
		names = append(names, f.Name)
	}

	builder := expression.NewBuilder().WithUpdate(update)
	if len(conditions) > 0 {
		cond := conditions[0]
		for _, c := range conditions[1:] {
			cond = cond.And(c)
		}
		builder = builder.WithCondition(cond)
	}

	expr, err := builder.Build()
	if err != nil {
		return UpdateExpression{}, fmt.Errorf("failed to build update expression: %w", err)
	}

	return UpdateExpression{fields: names, expr: expr}, nil
}

// IsEmpty reports whether the expression sets nothing
func (u UpdateExpression) IsEmpty() bool { return len(u.fields) == 0 }

// Fields returns the updated attribute names in order
func (u UpdateExpression) Fields() []string { return u.fields }

// Expression returns the SET clause
func (u UpdateExpression) Expression() *string { return u.expr.Update() }

// Condition returns the guarding condition, or nil
func (u UpdateExpression) Condition() *string { return u.expr.Condition() }

// Names returns the attribute name placeholders
func (u UpdateExpression) Names() map[string]string { return u.expr.Names() }

// Values returns the attribute value placeholders
func (u UpdateExpression) Values() map[string]types.AttributeValue { return u.expr.Values() }
