package conditions

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dealgrid/dealgrid/pkg/models"
)

func floatPtr(v float64) *float64 {
	return &v
}

func timePtr(v time.Time) *time.Time {
	return &v
}

func testDeal() models.DealSnapshot {
	closeDate := time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)

	return models.DealSnapshot{
		ID:          "deal-1",
		TeamID:      "team-1",
		Title:       "Acme renewal",
		Stage:       "negotiation",
		Amount:      floatPtr(15000.50),
		Probability: floatPtr(60),
		CloseDate:   timePtr(closeDate),
		Tags:        []string{"enterprise", "renewal"},
	}
}

func TestEvaluate_EmptyConditions(t *testing.T) {
	assert.True(t, Evaluate(testDeal(), nil))
	assert.True(t, Evaluate(testDeal(), []models.Condition{}))
}

func TestEvaluate_Operators(t *testing.T) {
	deal := testDeal()

	tests := []struct {
		name      string
		condition models.Condition
		want      bool
	}{
		{
			name:      "equals on stage matches",
			condition: models.Condition{Field: models.FieldStage, Operator: models.OperatorEquals, Value: "negotiation"},
			want:      true,
		},
		{
			name:      "equals on stage does not match",
			condition: models.Condition{Field: models.FieldStage, Operator: models.OperatorEquals, Value: "won"},
			want:      false,
		},
		{
			name:      "equals on amount uses canonical decimal form",
			condition: models.Condition{Field: models.FieldAmount, Operator: models.OperatorEquals, Value: "15000.5"},
			want:      true,
		},
		{
			name:      "equals on close date uses ISO date form",
			condition: models.Condition{Field: models.FieldCloseDate, Operator: models.OperatorEquals, Value: "2026-03-15"},
			want:      true,
		},
		{
			name:      "not_equals on stage",
			condition: models.Condition{Field: models.FieldStage, Operator: models.OperatorNotEquals, Value: "won"},
			want:      true,
		},
		{
			name:      "greater_than on amount",
			condition: models.Condition{Field: models.FieldAmount, Operator: models.OperatorGreaterThan, Value: "10000"},
			want:      true,
		},
		{
			name:      "greater_than fails on equal values",
			condition: models.Condition{Field: models.FieldAmount, Operator: models.OperatorGreaterThan, Value: "15000.5"},
			want:      false,
		},
		{
			name:      "less_than on probability",
			condition: models.Condition{Field: models.FieldProbability, Operator: models.OperatorLessThan, Value: "75"},
			want:      true,
		},
		{
			name:      "greater_than with non-numeric operand is false",
			condition: models.Condition{Field: models.FieldAmount, Operator: models.OperatorGreaterThan, Value: "lots"},
			want:      false,
		},
		{
			name:      "greater_than on non-numeric field is false",
			condition: models.Condition{Field: models.FieldStage, Operator: models.OperatorGreaterThan, Value: "10"},
			want:      false,
		},
		{
			name:      "contains on tags is set membership",
			condition: models.Condition{Field: models.FieldTags, Operator: models.OperatorContains, Value: "enterprise"},
			want:      true,
		},
		{
			name:      "contains on tags does not substring match",
			condition: models.Condition{Field: models.FieldTags, Operator: models.OperatorContains, Value: "enter"},
			want:      false,
		},
		{
			name:      "contains on stage is substring search",
			condition: models.Condition{Field: models.FieldStage, Operator: models.OperatorContains, Value: "negoti"},
			want:      true,
		},
		{
			name:      "not_contains on tags",
			condition: models.Condition{Field: models.FieldTags, Operator: models.OperatorNotContains, Value: "smb"},
			want:      true,
		},
		{
			name:      "is_empty on populated stage",
			condition: models.Condition{Field: models.FieldStage, Operator: models.OperatorIsEmpty},
			want:      false,
		},
		{
			name:      "is_not_empty on populated tags",
			condition: models.Condition{Field: models.FieldTags, Operator: models.OperatorIsNotEmpty},
			want:      true,
		},
		{
			name:      "unknown operator is false",
			condition: models.Condition{Field: models.FieldStage, Operator: "matches", Value: "negotiation"},
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(deal, []models.Condition{tt.condition}))
		})
	}
}

func TestEvaluate_AbsentValues(t *testing.T) {
	deal := models.DealSnapshot{ID: "deal-2", TeamID: "team-1", Title: "Bare deal"}

	tests := []struct {
		name      string
		condition models.Condition
		want      bool
	}{
		{
			name:      "is_empty on absent amount",
			condition: models.Condition{Field: models.FieldAmount, Operator: models.OperatorIsEmpty},
			want:      true,
		},
		{
			name:      "is_empty on empty tags",
			condition: models.Condition{Field: models.FieldTags, Operator: models.OperatorIsEmpty},
			want:      true,
		},
		{
			name:      "is_empty ignores the condition value",
			condition: models.Condition{Field: models.FieldAmount, Operator: models.OperatorIsEmpty, Value: "ignored"},
			want:      true,
		},
		{
			name:      "equals against absent amount compares empty string",
			condition: models.Condition{Field: models.FieldAmount, Operator: models.OperatorEquals, Value: ""},
			want:      true,
		},
		{
			name:      "greater_than on absent amount is false",
			condition: models.Condition{Field: models.FieldAmount, Operator: models.OperatorGreaterThan, Value: "0"},
			want:      false,
		},
		{
			name:      "less_than on absent amount is false",
			condition: models.Condition{Field: models.FieldAmount, Operator: models.OperatorLessThan, Value: "100"},
			want:      false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Evaluate(deal, []models.Condition{tt.condition}))
		})
	}
}

func TestEvaluate_AndShortCircuit(t *testing.T) {
	deal := testDeal()

	// Second condition would match, first fails, so the list fails.
	conditions := []models.Condition{
		{Field: models.FieldStage, Operator: models.OperatorEquals, Value: "won"},
		{Field: models.FieldAmount, Operator: models.OperatorGreaterThan, Value: "1"},
	}

	assert.False(t, Evaluate(deal, conditions))

	// All conditions hold.
	conditions = []models.Condition{
		{Field: models.FieldStage, Operator: models.OperatorEquals, Value: "negotiation"},
		{Field: models.FieldAmount, Operator: models.OperatorGreaterThan, Value: "10000"},
		{Field: models.FieldTags, Operator: models.OperatorContains, Value: "renewal"},
	}

	assert.True(t, Evaluate(deal, conditions))
}
