package services

import (
	"strings"
	"testing"
	"time"
)

func TestEvaluateEligibility_LockBoundary(t *testing.T) {
	g := testGenerator(t)
	const lock = 20

	// One minute short of the lock window.
	at := g.LastElutedTime.Add(19 * time.Minute)
	result := EvaluateEligibility(g, at, lock)
	if result.Eligible {
		t.Error("generator eligible 1 minute before lock expiry")
	}
	if !strings.Contains(result.Reason, "1 more minute") {
		t.Errorf("reason %q does not state the remaining lock minutes", result.Reason)
	}

	// Exactly at the lock window.
	at = g.LastElutedTime.Add(20 * time.Minute)
	result = EvaluateEligibility(g, at, lock)
	if !result.Eligible {
		t.Errorf("generator not eligible exactly at lock expiry: %q", result.Reason)
	}
	if result.Reason != "" {
		t.Errorf("eligible verdict carries reason %q", result.Reason)
	}

	// Well past the lock window.
	at = g.LastElutedTime.Add(5 * time.Hour)
	if result = EvaluateEligibility(g, at, lock); !result.Eligible {
		t.Errorf("generator not eligible well past lock: %q", result.Reason)
	}
}

func TestEvaluateEligibility_ZeroLockAlwaysSatisfied(t *testing.T) {
	g := testGenerator(t)
	result := EvaluateEligibility(g, g.LastElutedTime, 0)
	if !result.Eligible {
		t.Errorf("zero lock window rejected: %q", result.Reason)
	}
}

func TestEvaluateEligibility_ExpiryBoundary(t *testing.T) {
	g := testGenerator(t)

	// Calibrated 2026-03-10: eligible through the end of 2027-03-09.
	lastMinute := time.Date(2027, 3, 9, 23, 59, 0, 0, time.Local)
	result := EvaluateEligibility(g, lastMinute, 0)
	if result.Expired {
		t.Error("generator expired at the last minute of its expiry day")
	}
	if !result.Eligible {
		t.Errorf("generator not eligible at the last minute of its expiry day: %q", result.Reason)
	}

	oneMinuteLater := lastMinute.Add(time.Minute)
	result = EvaluateEligibility(g, oneMinuteLater, 0)
	if !result.Expired {
		t.Error("generator not expired one minute past its expiry day")
	}
	if result.Eligible {
		t.Error("expired generator reported eligible")
	}
	if result.Reason != ReasonExpired {
		t.Errorf("reason = %q, want %q", result.Reason, ReasonExpired)
	}
}

func TestEvaluateEligibility_ExpiryTrumpsLock(t *testing.T) {
	g := testGenerator(t)
	pastExpiry := ExpiryDayEnd(g).Add(time.Hour)
	result := EvaluateEligibility(g, pastExpiry, 100000)
	if result.Reason != ReasonExpired {
		t.Errorf("reason = %q, want expiry to take precedence over lock", result.Reason)
	}
}

func TestEvaluateEligibility_LockReasonRounding(t *testing.T) {
	g := testGenerator(t)
	// 10 minutes elapsed against a 20 minute lock.
	at := g.LastElutedTime.Add(10 * time.Minute)
	result := EvaluateEligibility(g, at, 20)
	if result.Eligible {
		t.Fatal("generator eligible inside lock window")
	}
	if !strings.Contains(result.Reason, "10 more minutes") {
		t.Errorf("reason = %q, want 10 remaining minutes", result.Reason)
	}
	if result.AvailableMCi <= 0 {
		t.Errorf("availability %v should still be reported for locked generators", result.AvailableMCi)
	}
}
