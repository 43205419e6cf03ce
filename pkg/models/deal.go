package models

import (
	"slices"
	"strconv"
	"time"
)

// DealSnapshot is a read-only view of a deal's fields at event time. The
// engine never mutates it; pointer fields distinguish absent values from
// zero values.
type DealSnapshot struct {
	ID          string     `json:"id"`
	TeamID      string     `json:"team_id"`
	Title       string     `json:"title"`
	Stage       string     `json:"stage"`
	Amount      *float64   `json:"amount,omitempty"`
	Probability *float64   `json:"probability,omitempty"`
	CloseDate   *time.Time `json:"close_date,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
}

// FieldString returns the canonical string form of a deal field and whether
// the field carries a value. Numbers use their shortest decimal
// representation and dates the ISO-8601 date form, so string comparisons are
// deterministic across producers.
func (d DealSnapshot) FieldString(field DealField) (string, bool) {
	switch field {
	case FieldStage:
		return d.Stage, d.Stage != ""
	case FieldAmount:
		if d.Amount == nil {
			return "", false
		}

		return strconv.FormatFloat(*d.Amount, 'f', -1, 64), true
	case FieldProbability:
		if d.Probability == nil {
			return "", false
		}

		return strconv.FormatFloat(*d.Probability, 'f', -1, 64), true
	case FieldCloseDate:
		if d.CloseDate == nil {
			return "", false
		}

		return d.CloseDate.Format("2006-01-02"), true
	case FieldTags:
		return "", len(d.Tags) > 0
	default:
		return "", false
	}
}

// FieldNumber returns the numeric value of a deal field, or false when the
// field is absent or not comparable as a number.
func (d DealSnapshot) FieldNumber(field DealField) (float64, bool) {
	switch field {
	case FieldAmount:
		if d.Amount == nil {
			return 0, false
		}

		return *d.Amount, true
	case FieldProbability:
		if d.Probability == nil {
			return 0, false
		}

		return *d.Probability, true
	default:
		return 0, false
	}
}

// HasTag reports set membership in the deal's tag set.
func (d DealSnapshot) HasTag(tag string) bool {
	return slices.Contains(d.Tags, tag)
}
