// Package models defines the core domain models for deal automation workflows.
package models

import "time"

// TriggerType identifies the CRM lifecycle event that makes a workflow
// eligible to run.
type TriggerType string

const (
	TriggerDealCreated      TriggerType = "deal_created"
	TriggerDealUpdated      TriggerType = "deal_updated"
	TriggerDealStageChanged TriggerType = "deal_stage_changed"
	TriggerDealDeleted      TriggerType = "deal_deleted"
	TriggerDealRotting      TriggerType = "deal_rotting"
)

// Operator is a comparison applied by a single workflow condition.
type Operator string

const (
	OperatorEquals      Operator = "equals"
	OperatorNotEquals   Operator = "not_equals"
	OperatorGreaterThan Operator = "greater_than"
	OperatorLessThan    Operator = "less_than"
	OperatorContains    Operator = "contains"
	OperatorNotContains Operator = "not_contains"
	OperatorIsEmpty     Operator = "is_empty"
	OperatorIsNotEmpty  Operator = "is_not_empty"
)

// DealField names a field of the deal snapshot that conditions can test.
type DealField string

const (
	FieldStage       DealField = "stage"
	FieldAmount      DealField = "amount"
	FieldProbability DealField = "probability"
	FieldCloseDate   DealField = "close_date"
	FieldTags        DealField = "tags"
)

// Workflow is a team-scoped automation rule: one trigger, AND-ed conditions
// and an ordered action list.
type Workflow struct {
	ID          string      `json:"id"`
	TeamID      string      `json:"team_id"     validate:"required"`
	Name        string      `json:"name"        validate:"required,min=3"`
	Description string      `json:"description"`
	Enabled     bool        `json:"enabled"`
	Trigger     Trigger     `json:"trigger"     validate:"required"`
	Conditions  []Condition `json:"conditions"  validate:"dive"`
	Actions     []Action    `json:"actions"     validate:"required,min=1,dive"`
	Stats       Stats       `json:"stats"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// Trigger binds a workflow to one CRM event type. Config is an open
// string map validated against the registry's descriptor schema.
type Trigger struct {
	Type   TriggerType       `json:"type"             validate:"required"`
	Config map[string]string `json:"config,omitempty"`
}

// Condition is a single field/operator/value test against a deal snapshot.
// All conditions of a workflow must hold for it to fire.
type Condition struct {
	Field    DealField `json:"field"           validate:"required"`
	Operator Operator  `json:"operator"        validate:"required,oneof=equals not_equals greater_than less_than contains not_contains is_empty is_not_empty"`
	Value    string    `json:"value,omitempty"`
}

// Action is one unit of work executed through a capability binding.
type Action struct {
	Type   string            `json:"type"             validate:"required"`
	Config map[string]string `json:"config,omitempty"`
}

// Stats holds per-workflow execution counters. Counters only grow except
// through an explicit reset; LastExecutedAt records the most recent attempt
// regardless of outcome.
type Stats struct {
	TotalExecutions      int64      `json:"total_executions"`
	SuccessfulExecutions int64      `json:"successful_executions"`
	FailedExecutions     int64      `json:"failed_executions"`
	LastExecutedAt       *time.Time `json:"last_executed_at,omitempty"`
}

// ExecutionOutcome classifies one finished workflow execution.
type ExecutionOutcome string

const (
	OutcomeSuccess ExecutionOutcome = "success"
	OutcomeFailure ExecutionOutcome = "failure"
)
