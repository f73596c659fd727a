package entities

import (
	"errors"
	"fmt"
)

// HospitalID represents a unique hospital identifier
type HospitalID string

var (
	ErrHospitalIDEmpty   = errors.New("hospital id cannot be empty")
	ErrHospitalNameEmpty = errors.New("hospital name cannot be empty")
	ErrTravelNegative    = errors.New("travel minutes cannot be negative")
)

// Hospital represents a delivery destination. TravelMinutes feeds the
// delivery lead time of orders referencing the hospital; it is copied onto
// orders at entry time, not referenced live.
type Hospital struct {
	ID            HospitalID `json:"id"`
	Name          string     `json:"name"`
	TravelMinutes int        `json:"travel_minutes"`
}

// NewHospital creates a validated Hospital.
func NewHospital(id HospitalID, name string, travelMinutes int) (*Hospital, error) {
	h := &Hospital{ID: id, Name: name, TravelMinutes: travelMinutes}
	if err := h.Validate(); err != nil {
		return nil, err
	}
	return h, nil
}

// Validate checks the operator-supplied fields.
func (h *Hospital) Validate() error {
	if h.ID == "" {
		return ErrHospitalIDEmpty
	}
	if h.Name == "" {
		return ErrHospitalNameEmpty
	}
	if h.TravelMinutes < 0 {
		return fmt.Errorf("%w, got %d", ErrTravelNegative, h.TravelMinutes)
	}
	return nil
}

// Clone returns an independent copy.
func (h *Hospital) Clone() *Hospital {
	c := *h
	return &c
}
