package entities

import (
	"errors"
	"testing"
	"time"
)

var calTime = time.Date(2026, 4, 2, 11, 0, 0, 0, time.Local)

func TestNewOrder_Valid(t *testing.T) {
	o, err := NewOrder("O-1", "H-1", ProductDOTATATE, 7.5, calTime, 10, 25)
	if err != nil {
		t.Fatalf("NewOrder failed: %v", err)
	}
	if o.Assigned() {
		t.Error("fresh order must not carry an assignment")
	}
}

func TestNewOrder_Validation(t *testing.T) {
	cases := []struct {
		name     string
		id       OrderID
		hospital HospitalID
		product  Product
		activity float64
		prep     int
		travel   int
		wantErr  error
	}{
		{"empty id", "", "H-1", ProductPSMA, 5, 10, 10, ErrOrderIDEmpty},
		{"missing hospital", "O-1", "", ProductPSMA, 5, 10, 10, ErrHospitalRefEmpty},
		{"bad product", "O-1", "H-1", "GA-CITRATE", 5, 10, 10, ErrInvalidProduct},
		{"zero activity", "O-1", "H-1", ProductPSMA, 0, 10, 10, ErrRequestedActivity},
		{"negative activity", "O-1", "H-1", ProductPSMA, -3, 10, 10, ErrRequestedActivity},
		{"negative prep", "O-1", "H-1", ProductPSMA, 5, -1, 10, ErrPrepNegative},
		{"negative travel", "O-1", "H-1", ProductPSMA, 5, 10, -1, ErrTravelNegative},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewOrder(tc.id, tc.hospital, tc.product, tc.activity, calTime, tc.prep, tc.travel)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("err = %v, want %v", err, tc.wantErr)
			}
		})
	}
}

func TestParseProduct(t *testing.T) {
	for _, valid := range []string{"PSMA", "DOTATATE", "FAPI"} {
		if _, err := ParseProduct(valid); err != nil {
			t.Errorf("ParseProduct(%q) failed: %v", valid, err)
		}
	}
	if _, err := ParseProduct("psma"); err == nil {
		t.Error("product categories are case sensitive; lowercase must be rejected")
	}
}

func TestProduct_CombinesGenerators(t *testing.T) {
	if !ProductPSMA.CombinesGenerators() {
		t.Error("PSMA must allow dual-generator combination")
	}
	if ProductDOTATATE.CombinesGenerators() || ProductFAPI.CombinesGenerators() {
		t.Error("only PSMA may combine generators")
	}
}

func TestOrder_CloneIsIndependent(t *testing.T) {
	o, err := NewOrder("O-1", "H-1", ProductPSMA, 5, calTime, 10, 10)
	if err != nil {
		t.Fatalf("NewOrder failed: %v", err)
	}
	elute := calTime.Add(-20 * time.Minute)
	o.AssignedGeneratorIDs = []GeneratorID{"G-1", "G-2"}
	o.AssignedEluteTime = &elute
	o.AssignedDeltaMinutes = []float64{120, 95}

	c := o.Clone()
	c.AssignedGeneratorIDs[0] = "G-9"
	*c.AssignedEluteTime = calTime
	c.AssignedDeltaMinutes[1] = 1

	if o.AssignedGeneratorIDs[0] != "G-1" {
		t.Error("clone shares assigned generator slice")
	}
	if !o.AssignedEluteTime.Equal(elute) {
		t.Error("clone shares elute time pointer")
	}
	if o.AssignedDeltaMinutes[1] != 95 {
		t.Error("clone shares delta minutes slice")
	}
}

func TestOrder_ClearAssignment(t *testing.T) {
	o, _ := NewOrder("O-1", "H-1", ProductPSMA, 5, calTime, 10, 10)
	elute := calTime
	o.AssignedGeneratorIDs = []GeneratorID{"G-1"}
	o.AssignedEluteTime = &elute
	o.Notes = "assigned"

	o.ClearAssignment()
	if o.Assigned() || o.AssignedEluteTime != nil || o.Notes != "" {
		t.Error("ClearAssignment left residue")
	}
}
