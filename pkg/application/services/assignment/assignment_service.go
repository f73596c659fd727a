// Package assignment implements the generator assignment engine: the
// standard (live) policy and the what-if (simulation) policy. Both are
// greedy, order-dependent, single-pass folds over a working copy of the
// generator pool; neither touches persisted state.
package assignment

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/curielabs/elusched/pkg/application/dto"
	"github.com/curielabs/elusched/pkg/domain/entities"
	"github.com/curielabs/elusched/pkg/domain/services"
)

// Options controls one assignment run.
//
// The standard policy uses RespectLock only. The what-if policy may disable
// the lock check entirely (RespectLock=false) and may treat the first use of
// each generator within the run as a fresh full-capacity elution
// (TreatFirstUseMax), optionally bypassing the lock for that first use.
// Expiry is enforced under every combination of knobs.
type Options struct {
	MinLockMinutes      int
	Today               entities.LocalDay
	RespectLock         bool
	TreatFirstUseMax    bool
	FirstUseIgnoresLock bool
}

// StandardOptions returns the live-scheduling policy knobs.
func StandardOptions(minLockMinutes int, today entities.LocalDay) Options {
	return Options{
		MinLockMinutes: minLockMinutes,
		Today:          today,
		RespectLock:    true,
	}
}

// WhatIfOptions returns the default simulation knobs: lock respected except
// for each generator's first use, which is treated as a fresh full-capacity
// elution.
func WhatIfOptions(minLockMinutes int, today entities.LocalDay) Options {
	return Options{
		MinLockMinutes:      minLockMinutes,
		Today:               today,
		RespectLock:         true,
		TreatFirstUseMax:    true,
		FirstUseIgnoresLock: true,
	}
}

// Service runs assignment policies over order batches.
type Service struct {
	logger *zap.Logger
}

// NewService creates an assignment service.
func NewService(logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{logger: logger}
}

// candidate is an eligible generator's standing for one order.
type candidate struct {
	gen            *entities.Generator
	availableMCi   float64
	elapsedMinutes float64
}

// Assign processes the batch in calibration-time order against working
// copies of the generator pool. Inputs are never mutated; the returned
// orders and generators are fresh copies. Identical inputs produce
// identical output.
func (s *Service) Assign(orders []*entities.Order, generators []*entities.Generator, opts Options) *dto.AssignmentResult {
	pool := make(map[entities.GeneratorID]*entities.Generator, len(generators))
	ids := make([]entities.GeneratorID, 0, len(generators))
	for _, g := range generators {
		pool[g.ID] = g.Clone()
		ids = append(ids, g.ID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	sorted := make([]*entities.Order, len(orders))
	for i, o := range orders {
		sorted[i] = o.Clone()
	}
	// Earlier deadlines consume capacity first; id breaks exact ties so that
	// batch composition can never reorder two orders relative to each other.
	sort.Slice(sorted, func(i, j int) bool {
		if !sorted[i].CalibrationTime.Equal(sorted[j].CalibrationTime) {
			return sorted[i].CalibrationTime.Before(sorted[j].CalibrationTime)
		}
		return sorted[i].ID < sorted[j].ID
	})

	used := make(map[entities.GeneratorID]bool)
	audit := make([]string, 0, len(sorted))
	for _, o := range sorted {
		audit = append(audit, s.assignOne(pool, ids, used, o, opts))
	}

	outGens := make([]*entities.Generator, 0, len(ids))
	for _, id := range ids {
		outGens = append(outGens, pool[id])
	}

	return &dto.AssignmentResult{Orders: sorted, Generators: outGens, Audit: audit}
}

// assignOne attempts one order against the current pool state, advancing the
// working copies of any generators it selects. Returns the audit message.
func (s *Service) assignOne(
	pool map[entities.GeneratorID]*entities.Generator,
	ids []entities.GeneratorID,
	used map[entities.GeneratorID]bool,
	o *entities.Order,
	opts Options,
) string {
	o.ClearAssignment()

	required := services.RequiredAtElution(o)
	eluteTime := services.EluteTime(o)

	cands, rejections := s.gatherCandidates(pool, ids, used, eluteTime, opts)
	rankCandidates(cands)

	chosen := selectSingle(cands, required)
	if chosen == nil && o.Product.CombinesGenerators() {
		chosen = selectPair(cands, required)
	}

	if chosen == nil {
		o.Notes = fmt.Sprintf("unmet: no generator can supply %.2f mCi at %s",
			required, eluteTime.Format("2006-01-02 15:04"))
		msg := auditLine(o, required, o.Notes)
		if len(rejections) > 0 {
			msg += " [" + strings.Join(rejections, "; ") + "]"
		}
		s.logger.Debug("order unmet",
			zap.String("order", string(o.ID)),
			zap.Float64("required_mci", required))
		return msg
	}

	s.commit(pool, used, o, chosen, required, eluteTime, opts)
	return auditLine(o, required, o.Notes)
}

// gatherCandidates evaluates every generator at the candidate elution time
// against the current lock state, applying the policy knobs. Ineligible
// generators are reported with their reasons for the audit trail.
func (s *Service) gatherCandidates(
	pool map[entities.GeneratorID]*entities.Generator,
	ids []entities.GeneratorID,
	used map[entities.GeneratorID]bool,
	eluteTime time.Time,
	opts Options,
) ([]candidate, []string) {
	var cands []candidate
	var rejections []string

	for _, id := range ids {
		g := pool[id]
		elig := services.EvaluateEligibility(g, eluteTime, opts.MinLockMinutes)
		if elig.Expired {
			rejections = append(rejections, fmt.Sprintf("%s: %s", id, elig.Reason))
			continue
		}

		available := elig.AvailableMCi
		lockSatisfied := elig.Eligible
		if opts.TreatFirstUseMax && !used[id] {
			// First selection of this generator within a what-if run models a
			// fresh full-capacity elution.
			available = services.MaxAvailableActivityAt(g, eluteTime)
			if opts.FirstUseIgnoresLock {
				lockSatisfied = true
			}
		}
		if !opts.RespectLock {
			lockSatisfied = true
		}
		if !lockSatisfied {
			rejections = append(rejections, fmt.Sprintf("%s: %s", id, elig.Reason))
			continue
		}

		cands = append(cands, candidate{
			gen:            g,
			availableMCi:   available,
			elapsedMinutes: elig.ElapsedMinutes,
		})
	}
	return cands, rejections
}

// rankCandidates orders candidates by efficiency descending, available
// activity descending, minutes since last elution descending, today's wear
// ascending, then id ascending. The id tail makes the ranking a total order.
func rankCandidates(cands []candidate) {
	sort.Slice(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.gen.EfficiencyPercent != b.gen.EfficiencyPercent {
			return a.gen.EfficiencyPercent > b.gen.EfficiencyPercent
		}
		if a.availableMCi != b.availableMCi {
			return a.availableMCi > b.availableMCi
		}
		if a.elapsedMinutes != b.elapsedMinutes {
			return a.elapsedMinutes > b.elapsedMinutes
		}
		if wearCmp := a.gen.WearToday.Cmp(b.gen.WearToday); wearCmp != 0 {
			return wearCmp < 0
		}
		return a.gen.ID < b.gen.ID
	})
}

// selectSingle returns the best-ranked candidate that alone satisfies the
// requirement, or nil.
func selectSingle(cands []candidate, required float64) []candidate {
	for i := range cands {
		if cands[i].availableMCi >= required {
			return []candidate{cands[i]}
		}
	}
	return nil
}

// selectPair searches all candidate pairs for the greatest combined
// availability meeting the requirement. Only a strictly greater total
// displaces the incumbent, so exact ties resolve to the first pair in rank
// order; input reordering cannot change the outcome.
func selectPair(cands []candidate, required float64) []candidate {
	var best []candidate
	bestTotal := 0.0
	for i := 0; i < len(cands); i++ {
		for j := i + 1; j < len(cands); j++ {
			total := cands[i].availableMCi + cands[j].availableMCi
			if total >= required && total > bestTotal {
				best = []candidate{cands[i], cands[j]}
				bestTotal = total
			}
		}
	}
	return best
}

// commit records the assignment on the order and advances the working copies
// of the chosen generators. The required activity is split evenly across the
// chosen generators for wear accounting only.
func (s *Service) commit(
	pool map[entities.GeneratorID]*entities.Generator,
	used map[entities.GeneratorID]bool,
	o *entities.Order,
	chosen []candidate,
	required float64,
	eluteTime time.Time,
	opts Options,
) {
	share := decimal.NewFromFloat(required).Div(decimal.NewFromInt(int64(len(chosen))))

	names := make([]string, 0, len(chosen))
	avails := make([]string, 0, len(chosen))
	for _, c := range chosen {
		g := pool[c.gen.ID]
		g.LastElutedTime = eluteTime
		if !g.WearDate.Equal(opts.Today) {
			g.WearToday = decimal.Zero
		}
		g.WearToday = g.WearToday.Add(share)
		g.WearDate = opts.Today
		used[g.ID] = true

		o.AssignedGeneratorIDs = append(o.AssignedGeneratorIDs, g.ID)
		o.AssignedDeltaMinutes = append(o.AssignedDeltaMinutes, c.elapsedMinutes)
		names = append(names, string(g.ID))
		avails = append(avails, fmt.Sprintf("%.2f", c.availableMCi))
	}
	t := eluteTime
	o.AssignedEluteTime = &t
	o.Notes = fmt.Sprintf("assigned %s: %s mCi available, %.2f mCi required at elution",
		strings.Join(names, "+"), strings.Join(avails, "+"), required)

	s.logger.Debug("order assigned",
		zap.String("order", string(o.ID)),
		zap.Strings("generators", names),
		zap.Float64("required_mci", required))
}

func auditLine(o *entities.Order, required float64, outcome string) string {
	return fmt.Sprintf("order %s (%s %.2f mCi cal %s): %s",
		o.ID, o.Product, o.RequestedActivityMCi,
		o.CalibrationTime.Format("2006-01-02 15:04"), outcome)
}
