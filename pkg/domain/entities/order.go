package entities

import (
	"errors"
	"fmt"
	"time"
)

// OrderID represents a unique dose order identifier
type OrderID string

// Product represents the dose product category. PSMA doses may combine two
// generators; all other products are single-generator only.
type Product string

const (
	ProductPSMA     Product = "PSMA"
	ProductDOTATATE Product = "DOTATATE"
	ProductFAPI     Product = "FAPI"
)

// ParseProduct validates a product category string.
func ParseProduct(s string) (Product, error) {
	switch Product(s) {
	case ProductPSMA, ProductDOTATATE, ProductFAPI:
		return Product(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidProduct, s)
	}
}

// CombinesGenerators reports whether the product may be satisfied by a
// two-generator combination.
func (p Product) CombinesGenerators() bool {
	return p == ProductPSMA
}

var (
	ErrOrderIDEmpty         = errors.New("order id cannot be empty")
	ErrHospitalRefEmpty     = errors.New("order must reference a hospital")
	ErrInvalidProduct       = errors.New("invalid product category")
	ErrRequestedActivity    = errors.New("requested activity must be positive")
	ErrOrderCalibrationZero = errors.New("order calibration time must be set")
	ErrPrepNegative         = errors.New("prep minutes cannot be negative")
)

// Order represents a dose request. RequestedActivityMCi is quoted at
// CalibrationTime (the hospital-side deadline); the engine derives the larger
// required-at-elution activity from it. TravelMinutes is copied from the
// referenced hospital at entry time and stored independently.
//
// The Assigned* fields are computed by the assignment engine and persisted
// back for display and audit; they are never operator input.
type Order struct {
	ID                   OrderID    `json:"id"`
	HospitalID           HospitalID `json:"hospital_id"`
	Product              Product    `json:"product"`
	RequestedActivityMCi float64    `json:"requested_activity_mci"`
	CalibrationTime      time.Time  `json:"calibration_time"`
	PrepMinutes          int        `json:"prep_minutes"`
	TravelMinutes        int        `json:"travel_minutes"`

	AssignedGeneratorIDs []GeneratorID `json:"assigned_generator_ids,omitempty"`
	AssignedEluteTime    *time.Time    `json:"assigned_elute_time,omitempty"`
	AssignedDeltaMinutes []float64     `json:"assigned_delta_minutes,omitempty"`
	Notes                string        `json:"notes,omitempty"`
}

// NewOrder creates a validated Order.
func NewOrder(
	id OrderID,
	hospitalID HospitalID,
	product Product,
	requestedActivityMCi float64,
	calibrationTime time.Time,
	prepMinutes int,
	travelMinutes int,
) (*Order, error) {
	o := &Order{
		ID:                   id,
		HospitalID:           hospitalID,
		Product:              product,
		RequestedActivityMCi: requestedActivityMCi,
		CalibrationTime:      calibrationTime,
		PrepMinutes:          prepMinutes,
		TravelMinutes:        travelMinutes,
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}
	return o, nil
}

// Validate checks the operator-supplied fields. Assignment fields are engine
// output and not validated here.
func (o *Order) Validate() error {
	if o.ID == "" {
		return ErrOrderIDEmpty
	}
	if o.HospitalID == "" {
		return ErrHospitalRefEmpty
	}
	if _, err := ParseProduct(string(o.Product)); err != nil {
		return err
	}
	if o.RequestedActivityMCi <= 0 {
		return fmt.Errorf("%w, got %v", ErrRequestedActivity, o.RequestedActivityMCi)
	}
	if o.CalibrationTime.IsZero() {
		return ErrOrderCalibrationZero
	}
	if o.PrepMinutes < 0 {
		return fmt.Errorf("%w, got %d", ErrPrepNegative, o.PrepMinutes)
	}
	if o.TravelMinutes < 0 {
		return fmt.Errorf("%w, got %d", ErrTravelNegative, o.TravelMinutes)
	}
	return nil
}

// Assigned reports whether the order currently holds a generator assignment.
func (o *Order) Assigned() bool {
	return len(o.AssignedGeneratorIDs) > 0
}

// ClearAssignment removes any previous assignment outcome before a rescan.
func (o *Order) ClearAssignment() {
	o.AssignedGeneratorIDs = nil
	o.AssignedEluteTime = nil
	o.AssignedDeltaMinutes = nil
	o.Notes = ""
}

// Clone returns an independent copy, including assignment slices.
func (o *Order) Clone() *Order {
	c := *o
	if o.AssignedGeneratorIDs != nil {
		c.AssignedGeneratorIDs = append([]GeneratorID(nil), o.AssignedGeneratorIDs...)
	}
	if o.AssignedDeltaMinutes != nil {
		c.AssignedDeltaMinutes = append([]float64(nil), o.AssignedDeltaMinutes...)
	}
	if o.AssignedEluteTime != nil {
		t := *o.AssignedEluteTime
		c.AssignedEluteTime = &t
	}
	return &c
}
