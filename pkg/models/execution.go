package models

// ActionResult is the outcome of executing a single action.
type ActionResult struct {
	ActionType string `json:"action_type"`
	OK         bool   `json:"ok"`
	Error      string `json:"error,omitempty"`
}

// ExecutionResult is returned synchronously per candidate workflow for one
// domain event. It is not persisted beyond the workflow stats.
type ExecutionResult struct {
	WorkflowID    string         `json:"workflow_id"`
	Matched       bool           `json:"matched"`
	ActionResults []ActionResult `json:"action_results,omitempty"`
}

// Succeeded reports whether a matched execution finished with every action
// ok. Partial success counts as failure.
func (r ExecutionResult) Succeeded() bool {
	if !r.Matched {
		return false
	}

	for _, ar := range r.ActionResults {
		if !ar.OK {
			return false
		}
	}

	return true
}

// Outcome maps the result to the stats outcome recorded for it.
func (r ExecutionResult) Outcome() ExecutionOutcome {
	if r.Succeeded() {
		return OutcomeSuccess
	}

	return OutcomeFailure
}
