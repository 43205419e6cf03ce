package persistence

import (
	"sort"

	"github.com/dealgrid/dealgrid/pkg/models"
)

// OrderByCreation sorts workflows into the engine's deterministic candidate
// order: creation time ascending, ties broken by id.
func OrderByCreation(workflows []*models.Workflow) {
	sort.SliceStable(workflows, func(i, j int) bool {
		if !workflows[i].CreatedAt.Equal(workflows[j].CreatedAt) {
			return workflows[i].CreatedAt.Before(workflows[j].CreatedAt)
		}

		return workflows[i].ID < workflows[j].ID
	})
}
