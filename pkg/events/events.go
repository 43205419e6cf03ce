// Package events defines the domain events exchanged between the CRM
// mutation layer, the automation engine and the observability feed.
package events

import (
	"time"

	"github.com/dealgrid/dealgrid/pkg/models"
)

// Kafka topics.
const DealTopic = "dealgrid.deal.events"             // CRM deal lifecycle events consumed by the engine
const ExecutionTopic = "dealgrid.automation.results" // Workflow execution outcomes for the notification feed

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

// ExecutionEventType is the metadata value used for execution result events.
const ExecutionEventType = "automation.executed"

// DealEvent is one CRM deal mutation. PreviousDeal is present only for
// change-type events such as deal_stage_changed.
type DealEvent struct {
	ID           string               `json:"id"`
	Type         models.TriggerType   `json:"type"`
	TeamID       string               `json:"team_id"`
	Deal         models.DealSnapshot  `json:"deal"`
	PreviousDeal *models.DealSnapshot `json:"previous_deal,omitempty"`
	OccurredAt   time.Time            `json:"occurred_at"`
}

func (e DealEvent) GetType() models.TriggerType {
	return e.Type
}

// NewDealEvent builds a deal event stamped with the current time. The team
// is taken from the snapshot.
func NewDealEvent(id string, eventType models.TriggerType, deal models.DealSnapshot, previous *models.DealSnapshot) *DealEvent {
	return &DealEvent{
		ID:           id,
		Type:         eventType,
		TeamID:       deal.TeamID,
		Deal:         deal,
		PreviousDeal: previous,
		OccurredAt:   time.Now().UTC(),
	}
}

// AutomationExecuted is published after each executed workflow so the
// notification layer can surface failures without polling stats.
type AutomationExecuted struct {
	ID            string                `json:"id"`
	WorkflowID    string                `json:"workflow_id"`
	WorkflowName  string                `json:"workflow_name"`
	TeamID        string                `json:"team_id"`
	DealID        string                `json:"deal_id"`
	TriggerType   models.TriggerType    `json:"trigger_type"`
	Success       bool                  `json:"success"`
	ActionResults []models.ActionResult `json:"action_results"`
	ExecutedAt    time.Time             `json:"executed_at"`
}
