// Package template renders placeholder expressions in action configuration
// values, so workflow authors can reference deal fields in emails, task
// titles and webhook bodies.
package template

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/dealgrid/dealgrid/pkg/models"
	"github.com/dealgrid/dealgrid/pkg/protocol"
)

// Render expands {{.deal.*}} / {{.workflow.*}} placeholders in input using
// the capability context. Inputs without placeholders pass through
// untouched.
func Render(input string, capCtx protocol.CapabilityContext) (string, error) {
	if !strings.Contains(input, "{{") {
		return input, nil
	}

	tmpl, err := template.New("config").Option("missingkey=zero").Parse(input)
	if err != nil {
		return "", fmt.Errorf("invalid template %q: %w", input, err)
	}

	var buf bytes.Buffer

	err = tmpl.Execute(&buf, templateData(capCtx))
	if err != nil {
		return "", fmt.Errorf("failed to render template %q: %w", input, err)
	}

	return buf.String(), nil
}

func templateData(capCtx protocol.CapabilityContext) map[string]any {
	deal := capCtx.Deal

	amount, _ := deal.FieldString(models.FieldAmount)
	probability, _ := deal.FieldString(models.FieldProbability)
	closeDate, _ := deal.FieldString(models.FieldCloseDate)

	data := map[string]any{
		"team_id": capCtx.TeamID,
		"deal": map[string]any{
			"id":          deal.ID,
			"title":       deal.Title,
			"stage":       deal.Stage,
			"amount":      amount,
			"probability": probability,
			"close_date":  closeDate,
			"tags":        strings.Join(deal.Tags, ", "),
		},
	}

	if capCtx.Workflow != nil {
		data["workflow"] = map[string]any{
			"id":   capCtx.Workflow.ID,
			"name": capCtx.Workflow.Name,
		}
	}

	if capCtx.PreviousDeal != nil {
		data["previous_deal"] = map[string]any{
			"stage": capCtx.PreviousDeal.Stage,
		}
	}

	return data
}
