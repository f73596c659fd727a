// A self-contained demo of the scheduling library: seeds an in-memory
// store with one clinic day, schedules the orders, and prints the
// resulting day plan.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/curielabs/elusched/pkg/application/dto"
	"github.com/curielabs/elusched/pkg/application/services/assignment"
	"github.com/curielabs/elusched/pkg/application/services/rescan"
	"github.com/curielabs/elusched/pkg/domain/entities"
	"github.com/curielabs/elusched/pkg/domain/repositories"
	"github.com/curielabs/elusched/pkg/infrastructure/repositories/memory"
	"github.com/curielabs/elusched/pkg/interfaces/cli/output"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()
	store := memory.NewStore()
	morning := time.Date(2026, 3, 10, 7, 0, 0, 0, time.Local)

	if err := seed(ctx, store, morning); err != nil {
		return err
	}

	svc := rescan.NewService(store, assignment.NewService(nil), nil)

	specs := []struct {
		id       entities.OrderID
		hospital entities.HospitalID
		product  entities.Product
		mci      float64
		cal      time.Time
	}{
		{"ORD-1", "H-CENTRAL", entities.ProductPSMA, 6, morning.Add(3 * time.Hour)},
		{"ORD-2", "H-STLUKE", entities.ProductDOTATATE, 4, morning.Add(5 * time.Hour)},
		{"ORD-3", "H-CENTRAL", entities.ProductPSMA, 12, morning.Add(8 * time.Hour)},
	}

	var result *dto.AssignmentResult
	for _, spec := range specs {
		o, err := entities.NewOrder(spec.id, spec.hospital, spec.product, spec.mci, spec.cal, 20, 0)
		if err != nil {
			return err
		}
		result, err = svc.AddOrder(ctx, o)
		if err != nil {
			return err
		}
	}

	if err := output.Generate(os.Stdout, result, output.Config{Format: "text", Verbose: true}); err != nil {
		return err
	}
	fmt.Println()
	return output.Generate(os.Stdout, result, output.Config{Format: "timeline"})
}

func seed(ctx context.Context, store repositories.Store, morning time.Time) error {
	return store.Update(ctx, func(tx repositories.Tx) error {
		hospitals := []struct {
			id     entities.HospitalID
			name   string
			travel int
		}{
			{"H-CENTRAL", "Central University Hospital", 20},
			{"H-STLUKE", "St. Luke's Clinic", 45},
		}
		for _, spec := range hospitals {
			h, err := entities.NewHospital(spec.id, spec.name, spec.travel)
			if err != nil {
				return err
			}
			if err := tx.PutHospital(h); err != nil {
				return err
			}
		}

		// An aging generator alongside a fresh one, so the ranking
		// between efficiency and raw activity is visible.
		oldGen, err := entities.NewGenerator("GEN-2025-07", 28, 52, morning.AddDate(0, -8, 0), time.Time{})
		if err != nil {
			return err
		}
		newGen, err := entities.NewGenerator("GEN-2026-02", 48, 62, morning.AddDate(0, -1, 0), time.Time{})
		if err != nil {
			return err
		}
		if err := tx.PutGenerator(oldGen); err != nil {
			return err
		}
		if err := tx.PutGenerator(newGen); err != nil {
			return err
		}
		return tx.PutSettings(&entities.Settings{MinLockMinutes: 30})
	})
}
