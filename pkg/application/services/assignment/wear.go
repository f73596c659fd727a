package assignment

import (
	"github.com/shopspring/decimal"

	"github.com/curielabs/elusched/pkg/domain/entities"
)

// NormalizeWear returns working copies of the generators with the daily wear
// counter reset wherever the stored wear date is not today. Must run before
// any live assignment pass so that wear-based tie-breaking reflects only
// same-day usage.
func NormalizeWear(generators []*entities.Generator, today entities.LocalDay) []*entities.Generator {
	out := make([]*entities.Generator, len(generators))
	for i, g := range generators {
		c := g.Clone()
		if !c.WearDate.Equal(today) {
			c.WearToday = decimal.Zero
			c.WearDate = today
		}
		out[i] = c
	}
	return out
}
