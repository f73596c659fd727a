// Package httpapi exposes the scheduling service over HTTP.
package httpapi

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/curielabs/elusched/pkg/application/services/rescan"
	"github.com/curielabs/elusched/pkg/domain/entities"
	"github.com/curielabs/elusched/pkg/domain/repositories"
	"github.com/curielabs/elusched/pkg/infrastructure/bundle"
	"github.com/curielabs/elusched/pkg/infrastructure/events"
)

// Handlers binds the scheduling service to HTTP endpoints.
type Handlers struct {
	svc    *rescan.Service
	store  repositories.Store
	logger *zap.Logger
	now    func() time.Time

	// eventLog, when set, backs the events endpoint.
	eventLog *events.InMemoryLog

	// rescanMu serializes writes that trigger a rescan, so two
	// concurrent requests cannot interleave their transactions.
	rescanMu sync.Mutex
}

// NewHandlers wires the handler set. A nil logger disables logging.
func NewHandlers(svc *rescan.Service, store repositories.Store, logger *zap.Logger) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{svc: svc, store: store, logger: logger, now: time.Now}
}

// SetEventLog enables the events endpoint.
func (h *Handlers) SetEventLog(log *events.InMemoryLog) {
	h.eventLog = log
}

// GET /api/events
func (h *Handlers) ListEvents(c *gin.Context) {
	if h.eventLog == nil {
		respondOK(c, gin.H{"events": []events.Event{}})
		return
	}
	if stream := c.Query("stream"); stream != "" {
		respondOK(c, gin.H{"events": h.eventLog.ByStream(stream)})
		return
	}
	respondOK(c, gin.H{"events": h.eventLog.All()})
}

// tryRescanLock returns false, after answering 409, when another
// rescan-triggering request is in flight.
func (h *Handlers) tryRescanLock(c *gin.Context) bool {
	if !h.rescanMu.TryLock() {
		respondError(c, http.StatusConflict, "rescan_in_progress", errors.New("another rescan is in progress"))
		return false
	}
	return true
}

func (h *Handlers) respondServiceError(c *gin.Context, code string, err error) {
	switch {
	case errors.Is(err, rescan.ErrOrderNotFound):
		respondError(c, http.StatusNotFound, code, err)
	case errors.Is(err, rescan.ErrUnknownHospital),
		errors.Is(err, entities.ErrOrderIDEmpty),
		errors.Is(err, entities.ErrHospitalRefEmpty),
		errors.Is(err, entities.ErrInvalidProduct),
		errors.Is(err, entities.ErrRequestedActivity),
		errors.Is(err, entities.ErrOrderCalibrationZero),
		errors.Is(err, entities.ErrPrepNegative),
		errors.Is(err, entities.ErrTravelNegative),
		errors.Is(err, entities.ErrGeneratorIDEmpty),
		errors.Is(err, entities.ErrParentActivity),
		errors.Is(err, entities.ErrEfficiencyRange),
		errors.Is(err, entities.ErrCalibrationTimeZero),
		errors.Is(err, entities.ErrHospitalIDEmpty),
		errors.Is(err, entities.ErrHospitalNameEmpty):
		respondError(c, http.StatusBadRequest, code, err)
	default:
		h.logger.Error("request failed", zap.String("code", code), zap.Error(err))
		respondError(c, http.StatusInternalServerError, code, err)
	}
}

// GET /healthz
func (h *Handlers) Health(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// GET /api/generators
func (h *Handlers) ListGenerators(c *gin.Context) {
	var gens []*entities.Generator
	err := h.store.View(c.Request.Context(), func(tx repositories.Tx) error {
		var err error
		gens, err = tx.ListGenerators()
		return err
	})
	if err != nil {
		h.respondServiceError(c, "list_generators_failed", err)
		return
	}
	respondOK(c, gin.H{"generators": gens})
}

// PUT /api/generators/:id
func (h *Handlers) PutGenerator(c *gin.Context) {
	var g entities.Generator
	if err := c.ShouldBindJSON(&g); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_generator", err)
		return
	}
	g.ID = entities.GeneratorID(c.Param("id"))
	if !h.tryRescanLock(c) {
		return
	}
	defer h.rescanMu.Unlock()
	result, err := h.svc.PutGenerator(c.Request.Context(), &g)
	if err != nil {
		h.respondServiceError(c, "put_generator_failed", err)
		return
	}
	respondOK(c, result)
}

// DELETE /api/generators/:id
func (h *Handlers) DeleteGenerator(c *gin.Context) {
	if !h.tryRescanLock(c) {
		return
	}
	defer h.rescanMu.Unlock()
	result, err := h.svc.DeleteGenerator(c.Request.Context(), entities.GeneratorID(c.Param("id")))
	if err != nil {
		h.respondServiceError(c, "delete_generator_failed", err)
		return
	}
	respondOK(c, result)
}

// GET /api/hospitals
func (h *Handlers) ListHospitals(c *gin.Context) {
	var hospitals []*entities.Hospital
	err := h.store.View(c.Request.Context(), func(tx repositories.Tx) error {
		var err error
		hospitals, err = tx.ListHospitals()
		return err
	})
	if err != nil {
		h.respondServiceError(c, "list_hospitals_failed", err)
		return
	}
	respondOK(c, gin.H{"hospitals": hospitals})
}

// PUT /api/hospitals/:id
func (h *Handlers) PutHospital(c *gin.Context) {
	var hospital entities.Hospital
	if err := c.ShouldBindJSON(&hospital); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_hospital", err)
		return
	}
	hospital.ID = entities.HospitalID(c.Param("id"))
	if err := h.svc.PutHospital(c.Request.Context(), &hospital); err != nil {
		h.respondServiceError(c, "put_hospital_failed", err)
		return
	}
	respondOK(c, gin.H{"hospital": hospital})
}

// DELETE /api/hospitals/:id
func (h *Handlers) DeleteHospital(c *gin.Context) {
	if err := h.svc.DeleteHospital(c.Request.Context(), entities.HospitalID(c.Param("id"))); err != nil {
		h.respondServiceError(c, "delete_hospital_failed", err)
		return
	}
	respondOK(c, gin.H{"deleted": c.Param("id")})
}

// GET /api/orders
func (h *Handlers) ListOrders(c *gin.Context) {
	var orders []*entities.Order
	err := h.store.View(c.Request.Context(), func(tx repositories.Tx) error {
		var err error
		orders, err = tx.ListOrders()
		return err
	})
	if err != nil {
		h.respondServiceError(c, "list_orders_failed", err)
		return
	}
	respondOK(c, gin.H{"orders": orders})
}

// POST /api/orders
func (h *Handlers) AddOrder(c *gin.Context) {
	var o entities.Order
	if err := c.ShouldBindJSON(&o); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_order", err)
		return
	}
	if !h.tryRescanLock(c) {
		return
	}
	defer h.rescanMu.Unlock()
	result, err := h.svc.AddOrder(c.Request.Context(), &o)
	if err != nil {
		h.respondServiceError(c, "add_order_failed", err)
		return
	}
	respondOK(c, result)
}

// PUT /api/orders/:id
func (h *Handlers) UpdateOrder(c *gin.Context) {
	var o entities.Order
	if err := c.ShouldBindJSON(&o); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_order", err)
		return
	}
	o.ID = entities.OrderID(c.Param("id"))
	if !h.tryRescanLock(c) {
		return
	}
	defer h.rescanMu.Unlock()
	result, err := h.svc.UpdateOrder(c.Request.Context(), &o)
	if err != nil {
		h.respondServiceError(c, "update_order_failed", err)
		return
	}
	respondOK(c, result)
}

// DELETE /api/orders/:id
func (h *Handlers) DeleteOrder(c *gin.Context) {
	if !h.tryRescanLock(c) {
		return
	}
	defer h.rescanMu.Unlock()
	result, err := h.svc.DeleteOrder(c.Request.Context(), entities.OrderID(c.Param("id")))
	if err != nil {
		h.respondServiceError(c, "delete_order_failed", err)
		return
	}
	respondOK(c, result)
}

// POST /api/orders/check
func (h *Handlers) CheckOrder(c *gin.Context) {
	var o entities.Order
	if err := c.ShouldBindJSON(&o); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_order", err)
		return
	}
	feasible, err := h.svc.CheckFeasibility(c.Request.Context(), &o)
	if err != nil {
		h.respondServiceError(c, "check_order_failed", err)
		return
	}
	respondOK(c, gin.H{"feasible": feasible})
}

// GET /api/orders/:id/availability
func (h *Handlers) OrderAvailability(c *gin.Context) {
	projections, err := h.svc.AssignedAvailability(c.Request.Context(), entities.OrderID(c.Param("id")))
	if err != nil {
		h.respondServiceError(c, "order_availability_failed", err)
		return
	}
	respondOK(c, gin.H{"availability": projections})
}

// GET /api/future-orders
func (h *Handlers) ListFutureOrders(c *gin.Context) {
	var orders []*entities.Order
	err := h.store.View(c.Request.Context(), func(tx repositories.Tx) error {
		var err error
		orders, err = tx.ListFutureOrders()
		return err
	})
	if err != nil {
		h.respondServiceError(c, "list_future_orders_failed", err)
		return
	}
	respondOK(c, gin.H{"future_orders": orders})
}

// POST /api/future-orders
func (h *Handlers) AddFutureOrder(c *gin.Context) {
	var o entities.Order
	if err := c.ShouldBindJSON(&o); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_order", err)
		return
	}
	if err := h.svc.AddFutureOrder(c.Request.Context(), &o); err != nil {
		h.respondServiceError(c, "add_future_order_failed", err)
		return
	}
	respondOK(c, gin.H{"future_order": o})
}

// DELETE /api/future-orders/:id
func (h *Handlers) DeleteFutureOrder(c *gin.Context) {
	if err := h.svc.DeleteFutureOrder(c.Request.Context(), entities.OrderID(c.Param("id"))); err != nil {
		h.respondServiceError(c, "delete_future_order_failed", err)
		return
	}
	respondOK(c, gin.H{"deleted": c.Param("id")})
}

// POST /api/future-orders/:id/promote
func (h *Handlers) PromoteFutureOrder(c *gin.Context) {
	if !h.tryRescanLock(c) {
		return
	}
	defer h.rescanMu.Unlock()
	result, err := h.svc.PromoteFutureOrder(c.Request.Context(), entities.OrderID(c.Param("id")))
	if err != nil {
		h.respondServiceError(c, "promote_future_order_failed", err)
		return
	}
	respondOK(c, result)
}

// POST /api/rescan
func (h *Handlers) Rescan(c *gin.Context) {
	if !h.tryRescanLock(c) {
		return
	}
	defer h.rescanMu.Unlock()
	result, err := h.svc.Rescan(c.Request.Context())
	if err != nil {
		h.respondServiceError(c, "rescan_failed", err)
		return
	}
	respondOK(c, result)
}

type simulateRequest struct {
	RespectLock         bool `json:"respect_lock"`
	TreatFirstUseMax    bool `json:"treat_first_use_max"`
	FirstUseIgnoresLock bool `json:"first_use_ignores_lock"`
}

func (r simulateRequest) options() rescan.SimulationOptions {
	return rescan.SimulationOptions{
		RespectLock:         r.RespectLock,
		TreatFirstUseMax:    r.TreatFirstUseMax,
		FirstUseIgnoresLock: r.FirstUseIgnoresLock,
	}
}

// POST /api/simulate
func (h *Handlers) Simulate(c *gin.Context) {
	req := simulateRequest{TreatFirstUseMax: true, FirstUseIgnoresLock: true}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid_simulation_request", err)
			return
		}
	}
	result, err := h.svc.Simulate(c.Request.Context(), req.options())
	if err != nil {
		h.respondServiceError(c, "simulate_failed", err)
		return
	}
	respondOK(c, result)
}

// POST /api/simulate/future
func (h *Handlers) SimulateFuture(c *gin.Context) {
	req := simulateRequest{TreatFirstUseMax: true, FirstUseIgnoresLock: true}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid_simulation_request", err)
			return
		}
	}
	result, err := h.svc.SimulateFuture(c.Request.Context(), req.options())
	if err != nil {
		h.respondServiceError(c, "simulate_future_failed", err)
		return
	}
	respondOK(c, result)
}

// GET /api/bundle
func (h *Handlers) ExportBundle(c *gin.Context) {
	b, err := bundle.Export(c.Request.Context(), h.store, h.now())
	if err != nil {
		h.respondServiceError(c, "export_bundle_failed", err)
		return
	}
	respondOK(c, b)
}

// POST /api/bundle
func (h *Handlers) ImportBundle(c *gin.Context) {
	var b bundle.Bundle
	if err := c.ShouldBindJSON(&b); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_bundle", err)
		return
	}
	if !h.tryRescanLock(c) {
		return
	}
	defer h.rescanMu.Unlock()
	if err := bundle.Import(c.Request.Context(), h.store, &b); err != nil {
		respondError(c, http.StatusBadRequest, "import_bundle_failed", err)
		return
	}
	result, err := h.svc.Rescan(c.Request.Context())
	if err != nil {
		h.respondServiceError(c, "rescan_failed", err)
		return
	}
	respondOK(c, result)
}
