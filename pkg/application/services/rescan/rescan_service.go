// Package rescan orchestrates scheduling: after any live order or generator
// mutation it re-runs the standard assignment policy over the full live
// order set and persists the resulting assignments and generator wear state
// as one atomic unit.
package rescan

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/curielabs/elusched/pkg/application/dto"
	"github.com/curielabs/elusched/pkg/application/services/assignment"
	"github.com/curielabs/elusched/pkg/domain/entities"
	"github.com/curielabs/elusched/pkg/domain/repositories"
	"github.com/curielabs/elusched/pkg/domain/services"
	"github.com/curielabs/elusched/pkg/infrastructure/events"
)

var (
	ErrUnknownHospital = errors.New("order references an unknown hospital")
	ErrOrderNotFound   = errors.New("no order with that id")
	ErrNilRecord       = errors.New("record must not be nil")
)

// Service drives rescans against the persistence port. It holds no internal
// mutual exclusion: callers must not trigger overlapping rescans (the HTTP
// layer guards with an in-flight flag).
type Service struct {
	store    repositories.Store
	engine   *assignment.Service
	logger   *zap.Logger
	now      func() time.Time
	recorder events.Recorder
}

// NewService creates a rescan service using the wall clock.
func NewService(store repositories.Store, engine *assignment.Service, logger *zap.Logger) *Service {
	return NewServiceWithClock(store, engine, logger, time.Now)
}

// NewServiceWithClock creates a rescan service with an injected clock.
func NewServiceWithClock(store repositories.Store, engine *assignment.Service, logger *zap.Logger, now func() time.Time) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, engine: engine, logger: logger, now: now, recorder: events.NopRecorder{}}
}

// SetRecorder installs an event recorder for committed rescans.
func (s *Service) SetRecorder(r events.Recorder) {
	if r == nil {
		r = events.NopRecorder{}
	}
	s.recorder = r
}

// SimulationOptions are the operator-facing what-if knobs. Lock and expiry
// semantics are documented on assignment.Options.
type SimulationOptions struct {
	RespectLock         bool
	TreatFirstUseMax    bool
	FirstUseIgnoresLock bool
}

// DefaultSimulationOptions mirrors assignment.WhatIfOptions.
func DefaultSimulationOptions() SimulationOptions {
	return SimulationOptions{
		RespectLock:         true,
		TreatFirstUseMax:    true,
		FirstUseIgnoresLock: true,
	}
}

// Rescan re-runs the standard policy over the live order set and commits the
// updated orders and generators in one transaction.
func (s *Service) Rescan(ctx context.Context) (*dto.AssignmentResult, error) {
	var result *dto.AssignmentResult
	err := s.store.Update(ctx, func(tx repositories.Tx) error {
		var err error
		result, err = s.rescanTx(tx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("while rescanning: %w", err)
	}
	s.logger.Info("rescan complete",
		zap.Int("orders", len(result.Orders)),
		zap.Int("generators", len(result.Generators)))
	s.record(result)
	return result, nil
}

// record emits events for a committed rescan. Speculative runs never
// reach here.
func (s *Service) record(result *dto.AssignmentResult) {
	for i, o := range result.Orders {
		eventType := events.TypeOrderAssigned
		if !o.Assigned() {
			eventType = events.TypeOrderUnmet
		}
		s.recorder.Record(eventType, string(o.ID), result.Audit[i])
	}
	s.recorder.Record(events.TypeRescanCompleted, "rescan",
		fmt.Sprintf("%d orders processed", len(result.Orders)))
}

// rescanTx performs the fetch/normalize/assign/persist cycle inside an
// already-open read-write transaction.
func (s *Service) rescanTx(tx repositories.Tx) (*dto.AssignmentResult, error) {
	orders, err := tx.ListOrders()
	if err != nil {
		return nil, fmt.Errorf("while listing orders: %w", err)
	}
	generators, err := tx.ListGenerators()
	if err != nil {
		return nil, fmt.Errorf("while listing generators: %w", err)
	}
	settings, err := tx.Settings()
	if err != nil {
		return nil, fmt.Errorf("while reading settings: %w", err)
	}

	today := entities.LocalDayOf(s.now())
	generators = assignment.NormalizeWear(generators, today)
	result := s.engine.Assign(orders, generators, assignment.StandardOptions(settings.MinLockMinutes, today))

	for _, o := range result.Orders {
		if err := tx.PutOrder(o); err != nil {
			return nil, fmt.Errorf("while persisting order %s: %w", o.ID, err)
		}
	}
	// Stored generator records are the physical baseline the operator
	// maintains. Only the daily wear normalization is written back;
	// planned elution times and wear live on the result, so re-running
	// the rescan from the stored state reproduces the same schedule.
	for _, g := range generators {
		if err := tx.PutGenerator(g); err != nil {
			return nil, fmt.Errorf("while persisting generator %s: %w", g.ID, err)
		}
	}
	return result, nil
}

// AddOrder validates and persists a live order, then rescans, all in one
// transaction. A missing id is generated from the order's timestamp,
// hospital, and product. Travel minutes are copied from the referenced
// hospital.
func (s *Service) AddOrder(ctx context.Context, o *entities.Order) (*dto.AssignmentResult, error) {
	if o == nil {
		return nil, ErrNilRecord
	}
	var result *dto.AssignmentResult
	err := s.store.Update(ctx, func(tx repositories.Tx) error {
		stored := o.Clone()
		stored.ClearAssignment()
		if stored.ID == "" {
			stored.ID = generateOrderID(stored)
		}
		if err := s.resolveHospital(tx, stored); err != nil {
			return err
		}
		if err := stored.Validate(); err != nil {
			return err
		}
		if err := tx.PutOrder(stored); err != nil {
			return fmt.Errorf("while persisting order %s: %w", stored.ID, err)
		}
		var err error
		result, err = s.rescanTx(tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.record(result)
	return result, nil
}

// UpdateOrder edits a live order in place and rescans.
func (s *Service) UpdateOrder(ctx context.Context, o *entities.Order) (*dto.AssignmentResult, error) {
	return s.AddOrder(ctx, o)
}

// DeleteOrder removes a live order and rescans the remaining set.
func (s *Service) DeleteOrder(ctx context.Context, id entities.OrderID) (*dto.AssignmentResult, error) {
	var result *dto.AssignmentResult
	err := s.store.Update(ctx, func(tx repositories.Tx) error {
		if err := tx.DeleteOrder(id); err != nil {
			return fmt.Errorf("while deleting order %s: %w", id, err)
		}
		var err error
		result, err = s.rescanTx(tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.record(result)
	return result, nil
}

// PutGenerator validates and upserts a generator, then rescans.
func (s *Service) PutGenerator(ctx context.Context, g *entities.Generator) (*dto.AssignmentResult, error) {
	if g == nil {
		return nil, ErrNilRecord
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	var result *dto.AssignmentResult
	err := s.store.Update(ctx, func(tx repositories.Tx) error {
		if err := tx.PutGenerator(g.Clone()); err != nil {
			return fmt.Errorf("while persisting generator %s: %w", g.ID, err)
		}
		var err error
		result, err = s.rescanTx(tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.record(result)
	return result, nil
}

// DeleteGenerator removes a generator and rescans. Orders that referenced it
// lose or change their assignments through the rescan itself; until then any
// dangling reference is tolerated, never fatal.
func (s *Service) DeleteGenerator(ctx context.Context, id entities.GeneratorID) (*dto.AssignmentResult, error) {
	var result *dto.AssignmentResult
	err := s.store.Update(ctx, func(tx repositories.Tx) error {
		if err := tx.DeleteGenerator(id); err != nil {
			return fmt.Errorf("while deleting generator %s: %w", id, err)
		}
		var err error
		result, err = s.rescanTx(tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.record(result)
	return result, nil
}

// PutHospital validates and upserts a hospital. Orders keep their stored
// travel minutes; no rescan is triggered.
func (s *Service) PutHospital(ctx context.Context, h *entities.Hospital) error {
	if h == nil {
		return ErrNilRecord
	}
	if err := h.Validate(); err != nil {
		return err
	}
	return s.store.Update(ctx, func(tx repositories.Tx) error {
		return tx.PutHospital(h.Clone())
	})
}

// DeleteHospital removes a hospital.
func (s *Service) DeleteHospital(ctx context.Context, id entities.HospitalID) error {
	return s.store.Update(ctx, func(tx repositories.Tx) error {
		return tx.DeleteHospital(id)
	})
}

// AddFutureOrder validates and persists a vault order. Future orders are not
// part of the daily rescan.
func (s *Service) AddFutureOrder(ctx context.Context, o *entities.Order) error {
	if o == nil {
		return ErrNilRecord
	}
	return s.store.Update(ctx, func(tx repositories.Tx) error {
		stored := o.Clone()
		if stored.ID == "" {
			stored.ID = generateOrderID(stored)
		}
		if err := s.resolveHospital(tx, stored); err != nil {
			return err
		}
		if err := stored.Validate(); err != nil {
			return err
		}
		return tx.PutFutureOrder(stored)
	})
}

// DeleteFutureOrder removes a vault order.
func (s *Service) DeleteFutureOrder(ctx context.Context, id entities.OrderID) error {
	return s.store.Update(ctx, func(tx repositories.Tx) error {
		return tx.DeleteFutureOrder(id)
	})
}

// PromoteFutureOrder moves a vault order into the live pool under a fresh id
// and rescans, all in one transaction. Any speculative assignment carried by
// the vault copy is discarded.
func (s *Service) PromoteFutureOrder(ctx context.Context, id entities.OrderID) (*dto.AssignmentResult, error) {
	var result *dto.AssignmentResult
	err := s.store.Update(ctx, func(tx repositories.Tx) error {
		future, err := tx.ListFutureOrders()
		if err != nil {
			return fmt.Errorf("while listing future orders: %w", err)
		}
		var promoted *entities.Order
		for _, o := range future {
			if o.ID == id {
				promoted = o.Clone()
				break
			}
		}
		if promoted == nil {
			return fmt.Errorf("%w: %s", ErrOrderNotFound, id)
		}
		if err := tx.DeleteFutureOrder(id); err != nil {
			return fmt.Errorf("while removing future order %s: %w", id, err)
		}
		promoted.ID = generateOrderID(promoted)
		promoted.ClearAssignment()
		if err := tx.PutOrder(promoted); err != nil {
			return fmt.Errorf("while persisting promoted order %s: %w", promoted.ID, err)
		}
		result, err = s.rescanTx(tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.record(result)
	return result, nil
}

// CheckFeasibility trial-runs the standard policy with the candidate
// injected into the live set and reports whether it would receive an
// assignment. Nothing is persisted.
func (s *Service) CheckFeasibility(ctx context.Context, candidate *entities.Order) (bool, error) {
	if candidate == nil {
		return false, ErrNilRecord
	}
	feasible := false
	err := s.store.View(ctx, func(tx repositories.Tx) error {
		orders, err := tx.ListOrders()
		if err != nil {
			return fmt.Errorf("while listing orders: %w", err)
		}
		generators, err := tx.ListGenerators()
		if err != nil {
			return fmt.Errorf("while listing generators: %w", err)
		}
		settings, err := tx.Settings()
		if err != nil {
			return fmt.Errorf("while reading settings: %w", err)
		}

		trial := candidate.Clone()
		if trial.ID == "" {
			trial.ID = generateOrderID(trial)
		}
		if err := s.resolveHospital(tx, trial); err != nil {
			return err
		}
		if err := trial.Validate(); err != nil {
			return err
		}

		batch := make([]*entities.Order, 0, len(orders)+1)
		for _, o := range orders {
			if o.ID != trial.ID {
				batch = append(batch, o)
			}
		}
		batch = append(batch, trial)

		today := entities.LocalDayOf(s.now())
		generators = assignment.NormalizeWear(generators, today)
		result := s.engine.Assign(batch, generators, assignment.StandardOptions(settings.MinLockMinutes, today))
		for _, o := range result.Orders {
			if o.ID == trial.ID {
				feasible = o.Assigned()
			}
		}
		return nil
	})
	if err != nil {
		return false, err
	}
	return feasible, nil
}

// Simulate runs the what-if policy over the live order set against a
// disposable generator snapshot. Nothing is persisted.
func (s *Service) Simulate(ctx context.Context, opts SimulationOptions) (*dto.AssignmentResult, error) {
	var result *dto.AssignmentResult
	err := s.store.View(ctx, func(tx repositories.Tx) error {
		orders, err := tx.ListOrders()
		if err != nil {
			return fmt.Errorf("while listing orders: %w", err)
		}
		result, err = s.simulate(tx, orders, opts)
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// SimulateFuture runs the what-if policy over the vault order set and
// persists the speculative assignments onto the future orders. The live
// generator pool is never touched.
func (s *Service) SimulateFuture(ctx context.Context, opts SimulationOptions) (*dto.AssignmentResult, error) {
	var result *dto.AssignmentResult
	err := s.store.Update(ctx, func(tx repositories.Tx) error {
		future, err := tx.ListFutureOrders()
		if err != nil {
			return fmt.Errorf("while listing future orders: %w", err)
		}
		result, err = s.simulate(tx, future, opts)
		if err != nil {
			return err
		}
		for _, o := range result.Orders {
			if err := tx.PutFutureOrder(o); err != nil {
				return fmt.Errorf("while persisting future order %s: %w", o.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Service) simulate(tx repositories.Tx, orders []*entities.Order, opts SimulationOptions) (*dto.AssignmentResult, error) {
	generators, err := tx.ListGenerators()
	if err != nil {
		return nil, fmt.Errorf("while listing generators: %w", err)
	}
	settings, err := tx.Settings()
	if err != nil {
		return nil, fmt.Errorf("while reading settings: %w", err)
	}

	today := entities.LocalDayOf(s.now())
	generators = assignment.NormalizeWear(generators, today)
	engineOpts := assignment.Options{
		MinLockMinutes:      settings.MinLockMinutes,
		Today:               today,
		RespectLock:         opts.RespectLock,
		TreatFirstUseMax:    opts.TreatFirstUseMax,
		FirstUseIgnoresLock: opts.FirstUseIgnoresLock,
	}
	return s.engine.Assign(orders, generators, engineOpts), nil
}

// GeneratorAvailability is a display projection of one assigned generator's
// current standing for an order.
type GeneratorAvailability struct {
	GeneratorID  entities.GeneratorID
	AvailableMCi float64
	Missing      bool
}

// AssignedAvailability projects the current availability of an order's
// assigned generators at its elute time. Deleted generators show up as
// Missing rather than failing the call.
func (s *Service) AssignedAvailability(ctx context.Context, id entities.OrderID) ([]GeneratorAvailability, error) {
	var projections []GeneratorAvailability
	err := s.store.View(ctx, func(tx repositories.Tx) error {
		orders, err := tx.ListOrders()
		if err != nil {
			return fmt.Errorf("while listing orders: %w", err)
		}
		var order *entities.Order
		for _, o := range orders {
			if o.ID == id {
				order = o
				break
			}
		}
		if order == nil {
			return fmt.Errorf("%w: %s", ErrOrderNotFound, id)
		}
		generators, err := tx.ListGenerators()
		if err != nil {
			return fmt.Errorf("while listing generators: %w", err)
		}
		pool := make(map[entities.GeneratorID]*entities.Generator, len(generators))
		for _, g := range generators {
			pool[g.ID] = g
		}

		eluteTime := services.EluteTime(order)
		if order.AssignedEluteTime != nil {
			eluteTime = *order.AssignedEluteTime
		}
		for _, gid := range order.AssignedGeneratorIDs {
			g, ok := pool[gid]
			if !ok {
				projections = append(projections, GeneratorAvailability{GeneratorID: gid, Missing: true})
				continue
			}
			avail := services.AvailableActivityAt(g, eluteTime)
			projections = append(projections, GeneratorAvailability{
				GeneratorID:  gid,
				AvailableMCi: avail.ActivityMCi,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return projections, nil
}

// resolveHospital verifies the order's hospital reference and copies the
// hospital's travel minutes onto the order.
func (s *Service) resolveHospital(tx repositories.Tx, o *entities.Order) error {
	hospitals, err := tx.ListHospitals()
	if err != nil {
		return fmt.Errorf("while listing hospitals: %w", err)
	}
	for _, h := range hospitals {
		if h.ID == o.HospitalID {
			o.TravelMinutes = h.TravelMinutes
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnknownHospital, o.HospitalID)
}

// generateOrderID builds an id from the order's calibration timestamp,
// hospital, and product, with a short random suffix for uniqueness.
func generateOrderID(o *entities.Order) entities.OrderID {
	suffix := strings.Split(uuid.NewString(), "-")[0]
	return entities.OrderID(fmt.Sprintf("%s-%s-%s-%s",
		o.CalibrationTime.Format("20060102-1504"), o.HospitalID, o.Product, suffix))
}
