package services

import (
	"fmt"
	"math"
	"time"

	"github.com/curielabs/elusched/pkg/domain/entities"
)

// ReasonExpired is the eligibility reason reported for expired generators.
const ReasonExpired = "Expired"

// ExpiryDayEnd returns the last schedulable minute of the generator's shelf
// life: one year minus one day after calibration, at the end of that local
// day.
func ExpiryDayEnd(g *entities.Generator) time.Time {
	day := entities.LocalDayOf(g.CalibrationTime.AddDate(1, 0, -1))
	return day.End(g.CalibrationTime.Location())
}

// Expired reports whether eluting at t would fall past the generator's
// expiry day.
func Expired(g *entities.Generator, t time.Time) bool {
	return t.After(ExpiryDayEnd(g))
}

// Eligibility is the verdict for one generator at one candidate elution
// instant. Reason is empty when the generator is eligible.
type Eligibility struct {
	Eligible       bool
	Expired        bool
	AvailableMCi   float64
	ElapsedMinutes float64
	Reason         string
}

// EvaluateEligibility computes a generator's availability and verdict for a
// candidate elution time under a minimum reuse lock window. The evaluator is
// policy-neutral: first-use exceptions belong to the what-if policy, not
// here.
func EvaluateEligibility(g *entities.Generator, eluteTime time.Time, minLockMinutes int) Eligibility {
	avail := AvailableActivityAt(g, eluteTime)
	result := Eligibility{
		AvailableMCi:   avail.ActivityMCi,
		ElapsedMinutes: avail.ElapsedMinutes,
	}

	if Expired(g, eluteTime) {
		result.Expired = true
		result.Reason = ReasonExpired
		return result
	}

	if avail.ElapsedMinutes < float64(minLockMinutes) {
		short := math.Ceil(float64(minLockMinutes) - avail.ElapsedMinutes)
		result.Reason = fmt.Sprintf("locked for %.0f more minutes", short)
		return result
	}

	result.Eligible = true
	return result
}
