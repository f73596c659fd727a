// Package services holds pure domain calculations: radioactive decay and
// ingrowth math, and generator eligibility evaluation. Nothing here touches
// persistence or wall-clock state; every function is deterministic in its
// inputs.
package services

import (
	"math"
	"time"

	"github.com/curielabs/elusched/pkg/domain/entities"
)

// Published half-lives. The daughter isotope (Ga-68) decays within hours; the
// parent (Ge-68) over months. Both decay constants are expressed per minute.
const (
	DaughterHalfLifeMinutes = 67.71
	ParentHalfLifeDays      = 270.95
)

var (
	// LambdaDaughter is the Ga-68 decay constant per minute.
	LambdaDaughter = math.Ln2 / DaughterHalfLifeMinutes
	// LambdaParent is the Ge-68 decay constant per minute.
	LambdaParent = math.Ln2 / (ParentHalfLifeDays * 24 * 60)
)

// MinutesBetween returns the signed minutes from one instant to another.
func MinutesBetween(from, to time.Time) float64 {
	return to.Sub(from).Minutes()
}

// ParentActivityAt returns the Ge-68 activity of the generator at t,
// decayed from the calibrated activity.
func ParentActivityAt(g *entities.Generator, t time.Time) float64 {
	minutes := MinutesBetween(g.CalibrationTime, t)
	return g.ParentActivityMCi * math.Exp(-LambdaParent*minutes)
}

// Availability is the eluate a generator can deliver at an instant, plus the
// ingrowth minutes that produced it (kept for tie-breaking and audit).
type Availability struct {
	ActivityMCi    float64
	ElapsedMinutes float64
}

// AvailableActivityAt returns the Ga-68 activity available from the
// generator at t, grown in since the last elution. The ingrowth fraction
// asymptotically approaches the generator's efficiency.
func AvailableActivityAt(g *entities.Generator, t time.Time) Availability {
	elapsed := MinutesBetween(g.LastElutedTime, t)
	fraction := g.Efficiency() * (1 - math.Exp(-LambdaDaughter*elapsed))
	return Availability{
		ActivityMCi:    ParentActivityAt(g, t) * fraction,
		ElapsedMinutes: elapsed,
	}
}

// MaxAvailableActivityAt returns the theoretical ceiling of a single elution
// at t: full parent activity adjusted by efficiency, as if ingrowth had fully
// saturated. Used by the what-if policy's first-use override.
func MaxAvailableActivityAt(g *entities.Generator, t time.Time) float64 {
	return ParentActivityAt(g, t) * g.Efficiency()
}

// LeadMinutes returns how long before the calibration deadline the dose must
// be eluted: prep plus travel.
func LeadMinutes(o *entities.Order) float64 {
	return float64(o.PrepMinutes + o.TravelMinutes)
}

// EluteTime returns the instant the dose must be extracted: the calibration
// deadline minus the lead time.
func EluteTime(o *entities.Order) time.Time {
	return o.CalibrationTime.Add(-time.Duration(o.PrepMinutes+o.TravelMinutes) * time.Minute)
}

// RequiredAtElution returns the activity that must be eluted so that, after
// daughter decay over the lead time, the requested activity remains at
// calibration. This reverses the decay: required >= requested always.
func RequiredAtElution(o *entities.Order) float64 {
	return o.RequestedActivityMCi * math.Exp(LambdaDaughter*LeadMinutes(o))
}
