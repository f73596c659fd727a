package services

import (
	"math"
	"testing"
	"time"

	"github.com/curielabs/elusched/pkg/domain/entities"
)

var t0 = time.Date(2026, 3, 10, 8, 0, 0, 0, time.Local)

func testGenerator(t *testing.T) *entities.Generator {
	t.Helper()
	g, err := entities.NewGenerator("GEN-1", 50, 60, t0, t0)
	if err != nil {
		t.Fatalf("NewGenerator failed: %v", err)
	}
	return g
}

func TestParentActivityAt_DecaysFromCalibration(t *testing.T) {
	g := testGenerator(t)

	if got := ParentActivityAt(g, t0); math.Abs(got-50) > 1e-9 {
		t.Errorf("activity at calibration = %v, want 50", got)
	}

	// One parent half-life later, half the activity remains.
	halfLife := t0.Add(time.Duration(ParentHalfLifeDays * 24 * float64(time.Hour)))
	if got := ParentActivityAt(g, halfLife); math.Abs(got-25) > 0.01 {
		t.Errorf("activity after one half-life = %v, want 25", got)
	}
}

func TestAvailableActivityAt_MonotoneAndBounded(t *testing.T) {
	g := testGenerator(t)

	prev := 0.0
	for minutes := 10; minutes <= 600; minutes += 10 {
		at := t0.Add(time.Duration(minutes) * time.Minute)
		avail := AvailableActivityAt(g, at)
		if avail.ActivityMCi <= prev {
			t.Fatalf("availability not strictly increasing at %d minutes: %v <= %v",
				minutes, avail.ActivityMCi, prev)
		}
		ceiling := ParentActivityAt(g, at) * g.Efficiency()
		if avail.ActivityMCi >= ceiling {
			t.Fatalf("availability %v exceeded ceiling %v at %d minutes",
				avail.ActivityMCi, ceiling, minutes)
		}
		prev = avail.ActivityMCi
	}

	// After many daughter half-lives the ingrowth is essentially saturated.
	late := t0.Add(24 * time.Hour)
	avail := AvailableActivityAt(g, late)
	ceiling := ParentActivityAt(g, late) * g.Efficiency()
	if avail.ActivityMCi < ceiling*0.999 {
		t.Errorf("availability %v did not approach ceiling %v after 24h", avail.ActivityMCi, ceiling)
	}
}

func TestAvailableActivityAt_ReportsElapsedMinutes(t *testing.T) {
	g := testGenerator(t)
	avail := AvailableActivityAt(g, t0.Add(150*time.Minute))
	if math.Abs(avail.ElapsedMinutes-150) > 1e-9 {
		t.Errorf("elapsed = %v, want 150", avail.ElapsedMinutes)
	}
}

func TestRequiredAtElution_RoundTrip(t *testing.T) {
	order := &entities.Order{
		ID:                   "O-1",
		HospitalID:           "H-1",
		Product:              entities.ProductPSMA,
		RequestedActivityMCi: 5,
		CalibrationTime:      t0.Add(180 * time.Minute),
		PrepMinutes:          15,
		TravelMinutes:        15,
	}

	required := RequiredAtElution(order)
	if required <= order.RequestedActivityMCi {
		t.Fatalf("required %v must exceed requested %v", required, order.RequestedActivityMCi)
	}

	// Decaying the required activity forward over the lead time must land
	// back on the requested activity.
	back := required * math.Exp(-LambdaDaughter*LeadMinutes(order))
	if math.Abs(back-order.RequestedActivityMCi) > 1e-9 {
		t.Errorf("round trip = %v, want %v", back, order.RequestedActivityMCi)
	}
}

func TestEluteTime_SubtractsLead(t *testing.T) {
	order := &entities.Order{
		CalibrationTime: t0.Add(180 * time.Minute),
		PrepMinutes:     15,
		TravelMinutes:   15,
	}
	want := t0.Add(150 * time.Minute)
	if got := EluteTime(order); !got.Equal(want) {
		t.Errorf("EluteTime = %v, want %v", got, want)
	}
}

func TestReferenceScenarioNumbers(t *testing.T) {
	// 50 mCi at 60% efficiency, order for 5 mCi at T0+180 with 30 minutes of
	// lead: elution at T0+150, required ~= 5 * exp(lambda_d * 30).
	g := testGenerator(t)
	order := &entities.Order{
		RequestedActivityMCi: 5,
		CalibrationTime:      t0.Add(180 * time.Minute),
		PrepMinutes:          15,
		TravelMinutes:        15,
	}

	elute := EluteTime(order)
	required := RequiredAtElution(order)

	wantRequired := 5 * math.Exp(LambdaDaughter*30)
	if math.Abs(required-wantRequired) > 1e-9 {
		t.Errorf("required = %v, want %v", required, wantRequired)
	}
	if required < 6.7 || required > 6.9 {
		t.Errorf("required = %v, expected about 6.80", required)
	}

	avail := AvailableActivityAt(g, elute)
	wantAvail := ParentActivityAt(g, elute) * 0.6 * (1 - math.Exp(-LambdaDaughter*150))
	if math.Abs(avail.ActivityMCi-wantAvail) > 1e-9 {
		t.Errorf("available = %v, want %v", avail.ActivityMCi, wantAvail)
	}
	if avail.ActivityMCi < 23 || avail.ActivityMCi > 24 {
		t.Errorf("available = %v, expected about 23.5", avail.ActivityMCi)
	}
	if avail.ActivityMCi <= required {
		t.Errorf("available %v must exceed required %v in the reference scenario",
			avail.ActivityMCi, required)
	}
}
