package dto

import (
	"github.com/curielabs/elusched/pkg/domain/entities"
)

// AssignmentResult contains the complete output of one assignment run.
//
// Orders holds every processed order in processing order (calibration time
// ascending, id ascending on ties), each annotated with its assignment
// outcome. Generators holds the post-run working copies of the pool, sorted
// by id. Audit carries one human-readable message per processed order, index
// aligned with Orders.
type AssignmentResult struct {
	Orders     []*entities.Order     `json:"orders"`
	Generators []*entities.Generator `json:"generators"`
	Audit      []string              `json:"audit"`
}
