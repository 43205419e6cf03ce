// Package conditions implements the pure condition gate that decides whether
// a deal snapshot matches a workflow's condition list.
package conditions

import (
	"strconv"
	"strings"

	"github.com/dealgrid/dealgrid/pkg/models"
)

// Evaluate reports whether every condition holds for the given deal.
// Conditions combine with logical AND and evaluation stops at the first
// failing one. An empty list always matches.
func Evaluate(deal models.DealSnapshot, conditions []models.Condition) bool {
	for _, condition := range conditions {
		if !evaluateOne(deal, condition) {
			return false
		}
	}

	return true
}

// evaluateOne never errors: unknown fields resolve to an absent value,
// absent values behave as empty strings for string operators and as not
// comparable for numeric ones.
func evaluateOne(deal models.DealSnapshot, condition models.Condition) bool {
	switch condition.Operator {
	case models.OperatorEquals:
		value, _ := deal.FieldString(condition.Field)

		return value == condition.Value
	case models.OperatorNotEquals:
		value, _ := deal.FieldString(condition.Field)

		return value != condition.Value
	case models.OperatorGreaterThan:
		number, operand, ok := numericOperands(deal, condition)

		return ok && number > operand
	case models.OperatorLessThan:
		number, operand, ok := numericOperands(deal, condition)

		return ok && number < operand
	case models.OperatorContains:
		return contains(deal, condition)
	case models.OperatorNotContains:
		return !contains(deal, condition)
	case models.OperatorIsEmpty:
		return isEmpty(deal, condition.Field)
	case models.OperatorIsNotEmpty:
		return !isEmpty(deal, condition.Field)
	default:
		return false
	}
}

func numericOperands(deal models.DealSnapshot, condition models.Condition) (float64, float64, bool) {
	number, ok := deal.FieldNumber(condition.Field)
	if !ok {
		return 0, 0, false
	}

	operand, err := strconv.ParseFloat(condition.Value, 64)
	if err != nil {
		return 0, 0, false
	}

	return number, operand, true
}

// contains is set membership for the tags field and substring search on the
// canonical string form for everything else.
func contains(deal models.DealSnapshot, condition models.Condition) bool {
	if condition.Field == models.FieldTags {
		return deal.HasTag(condition.Value)
	}

	value, _ := deal.FieldString(condition.Field)

	return strings.Contains(value, condition.Value)
}

// isEmpty ignores the condition value entirely; only the resolved field
// matters.
func isEmpty(deal models.DealSnapshot, field models.DealField) bool {
	if field == models.FieldTags {
		return len(deal.Tags) == 0
	}

	value, present := deal.FieldString(field)

	return !present || value == ""
}
