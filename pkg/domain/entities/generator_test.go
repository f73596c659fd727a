package entities

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

var genCal = time.Date(2026, 1, 15, 9, 0, 0, 0, time.Local)

func TestNewGenerator_Valid(t *testing.T) {
	g, err := NewGenerator("G-1", 50, 60, genCal, time.Time{})
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}
	if !g.LastElutedTime.Equal(genCal) {
		t.Errorf("zero last-eluted time must default to calibration time, got %v", g.LastElutedTime)
	}
	if !g.WearToday.IsZero() {
		t.Errorf("fresh generator wear = %v, want 0", g.WearToday)
	}
	if !g.WearDate.Equal(LocalDayOf(genCal)) {
		t.Errorf("wear date = %v, want calibration day", g.WearDate)
	}
}

func TestNewGenerator_Validation(t *testing.T) {
	cases := []struct {
		name       string
		id         GeneratorID
		activity   float64
		efficiency float64
		wantErr    error
	}{
		{"empty id", "", 50, 60, ErrGeneratorIDEmpty},
		{"zero activity", "G-1", 0, 60, ErrParentActivity},
		{"negative efficiency", "G-1", 50, -1, ErrEfficiencyRange},
		{"efficiency above 100", "G-1", 50, 100.5, ErrEfficiencyRange},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewGenerator(tc.id, tc.activity, tc.efficiency, genCal, genCal)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestNewGenerator_ZeroCalibration(t *testing.T) {
	if _, err := NewGenerator("G-1", 50, 60, time.Time{}, time.Time{}); !errors.Is(err, ErrCalibrationTimeZero) {
		t.Errorf("err = %v, want %v", err, ErrCalibrationTimeZero)
	}
}

func TestGenerator_Efficiency(t *testing.T) {
	g, _ := NewGenerator("G-1", 50, 60, genCal, genCal)
	if g.Efficiency() != 0.6 {
		t.Errorf("Efficiency = %v, want 0.6", g.Efficiency())
	}
}

func TestGenerator_CloneIsIndependent(t *testing.T) {
	g, _ := NewGenerator("G-1", 50, 60, genCal, genCal)
	g.WearToday = decimal.NewFromFloat(12.5)

	c := g.Clone()
	c.WearToday = c.WearToday.Add(decimal.NewFromInt(5))
	c.LastElutedTime = genCal.Add(time.Hour)

	if !g.WearToday.Equal(decimal.NewFromFloat(12.5)) {
		t.Errorf("clone mutated original wear: %v", g.WearToday)
	}
	if !g.LastElutedTime.Equal(genCal) {
		t.Error("clone mutated original last-eluted time")
	}
}
