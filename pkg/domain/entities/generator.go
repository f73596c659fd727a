package entities

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// GeneratorID represents a unique generator identifier
type GeneratorID string

var (
	ErrGeneratorIDEmpty    = errors.New("generator id cannot be empty")
	ErrParentActivity      = errors.New("parent activity must be positive")
	ErrEfficiencyRange     = errors.New("efficiency must be between 0 and 100 percent")
	ErrCalibrationTimeZero = errors.New("calibration time must be set")
)

// Generator represents a physical Ge-68/Ga-68 elution unit.
//
// ParentActivityMCi is the Ge-68 activity in millicuries quoted at
// CalibrationTime. LastElutedTime advances every time the assignment engine
// uses the generator. WearToday accumulates the activity dispensed during
// WearDate and is reset by the daily wear normalizer when the local day rolls
// over.
type Generator struct {
	ID                GeneratorID     `json:"id"`
	ParentActivityMCi float64         `json:"parent_activity_mci"`
	EfficiencyPercent float64         `json:"efficiency_percent"`
	CalibrationTime   time.Time       `json:"calibration_time"`
	LastElutedTime    time.Time       `json:"last_eluted_time"`
	WearToday         decimal.Decimal `json:"wear_today"`
	WearDate          LocalDay        `json:"wear_date"`
}

// NewGenerator creates a validated Generator.
func NewGenerator(
	id GeneratorID,
	parentActivityMCi float64,
	efficiencyPercent float64,
	calibrationTime time.Time,
	lastElutedTime time.Time,
) (*Generator, error) {
	if lastElutedTime.IsZero() {
		lastElutedTime = calibrationTime
	}
	g := &Generator{
		ID:                id,
		ParentActivityMCi: parentActivityMCi,
		EfficiencyPercent: efficiencyPercent,
		CalibrationTime:   calibrationTime,
		LastElutedTime:    lastElutedTime,
		WearToday:         decimal.Zero,
		WearDate:          LocalDayOf(calibrationTime),
	}
	if err := g.Validate(); err != nil {
		return nil, err
	}
	return g, nil
}

// Validate checks the operator-supplied fields.
func (g *Generator) Validate() error {
	if g.ID == "" {
		return ErrGeneratorIDEmpty
	}
	if g.ParentActivityMCi <= 0 {
		return fmt.Errorf("%w, got %v", ErrParentActivity, g.ParentActivityMCi)
	}
	if g.EfficiencyPercent < 0 || g.EfficiencyPercent > 100 {
		return fmt.Errorf("%w, got %v", ErrEfficiencyRange, g.EfficiencyPercent)
	}
	if g.CalibrationTime.IsZero() {
		return ErrCalibrationTimeZero
	}
	return nil
}

// Efficiency returns the elution efficiency as a 0..1 fraction.
func (g *Generator) Efficiency() float64 {
	return g.EfficiencyPercent / 100
}

// Clone returns an independent copy suitable for use as an engine working
// copy. Decimal values are immutable, so a field copy is sufficient.
func (g *Generator) Clone() *Generator {
	c := *g
	return &c
}
