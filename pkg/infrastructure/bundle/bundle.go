// Package bundle moves the whole scheduling dataset in and out of a
// single JSON document, for backup and for seeding one environment
// from another.
package bundle

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/curielabs/elusched/pkg/domain/entities"
	"github.com/curielabs/elusched/pkg/domain/repositories"
)

// Meta carries dataset-level fields alongside the collections.
type Meta struct {
	ExportedAt     time.Time `json:"exported_at"`
	MinLockMinutes int       `json:"min_lock_minutes"`
}

// Bundle is the portable snapshot of every collection in the store.
type Bundle struct {
	Generators   []*entities.Generator `json:"generators"`
	Hospitals    []*entities.Hospital  `json:"hospitals"`
	Orders       []*entities.Order     `json:"orders"`
	FutureOrders []*entities.Order     `json:"future_orders"`
	Meta         Meta                  `json:"meta"`
}

// Export reads every collection in one consistent view and returns the
// snapshot. Records are listed in id order.
func Export(ctx context.Context, store repositories.Store, now time.Time) (*Bundle, error) {
	b := &Bundle{}
	err := store.View(ctx, func(tx repositories.Tx) error {
		var err error
		if b.Generators, err = tx.ListGenerators(); err != nil {
			return err
		}
		if b.Hospitals, err = tx.ListHospitals(); err != nil {
			return err
		}
		if b.Orders, err = tx.ListOrders(); err != nil {
			return err
		}
		if b.FutureOrders, err = tx.ListFutureOrders(); err != nil {
			return err
		}
		settings, err := tx.Settings()
		if err != nil {
			return err
		}
		b.Meta = Meta{ExportedAt: now, MinLockMinutes: settings.MinLockMinutes}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("while exporting bundle: %w", err)
	}
	return b, nil
}

// Import validates the bundle and then replaces the full contents of
// the store with it in one transaction. A validation failure leaves
// the store untouched.
func Import(ctx context.Context, store repositories.Store, b *Bundle) error {
	if err := validate(b); err != nil {
		return fmt.Errorf("while validating bundle: %w", err)
	}
	err := store.Update(ctx, func(tx repositories.Tx) error {
		if err := clear(tx); err != nil {
			return err
		}
		for _, g := range b.Generators {
			if err := tx.PutGenerator(g); err != nil {
				return err
			}
		}
		for _, h := range b.Hospitals {
			if err := tx.PutHospital(h); err != nil {
				return err
			}
		}
		for _, o := range b.Orders {
			if err := tx.PutOrder(o); err != nil {
				return err
			}
		}
		for _, o := range b.FutureOrders {
			if err := tx.PutFutureOrder(o); err != nil {
				return err
			}
		}
		return tx.PutSettings(&entities.Settings{MinLockMinutes: b.Meta.MinLockMinutes})
	})
	if err != nil {
		return fmt.Errorf("while importing bundle: %w", err)
	}
	return nil
}

// Write encodes the bundle as indented JSON.
func Write(w io.Writer, b *Bundle) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(b); err != nil {
		return fmt.Errorf("while encoding bundle: %w", err)
	}
	return nil
}

// Read decodes a bundle from JSON.
func Read(r io.Reader) (*Bundle, error) {
	var b Bundle
	if err := json.NewDecoder(r).Decode(&b); err != nil {
		return nil, fmt.Errorf("while decoding bundle: %w", err)
	}
	return &b, nil
}

func validate(b *Bundle) error {
	if b == nil {
		return fmt.Errorf("bundle is nil")
	}
	if b.Meta.MinLockMinutes < 0 {
		return fmt.Errorf("min_lock_minutes must not be negative, got %d", b.Meta.MinLockMinutes)
	}
	hospitals := make(map[entities.HospitalID]bool, len(b.Hospitals))
	for _, h := range b.Hospitals {
		if err := h.Validate(); err != nil {
			return fmt.Errorf("hospital %q: %w", h.ID, err)
		}
		if hospitals[h.ID] {
			return fmt.Errorf("duplicate hospital id %q", h.ID)
		}
		hospitals[h.ID] = true
	}
	gens := make(map[entities.GeneratorID]bool, len(b.Generators))
	for _, g := range b.Generators {
		if err := g.Validate(); err != nil {
			return fmt.Errorf("generator %q: %w", g.ID, err)
		}
		if gens[g.ID] {
			return fmt.Errorf("duplicate generator id %q", g.ID)
		}
		gens[g.ID] = true
	}
	if err := validateOrders("order", b.Orders, hospitals); err != nil {
		return err
	}
	return validateOrders("future order", b.FutureOrders, hospitals)
}

func validateOrders(kind string, orders []*entities.Order, hospitals map[entities.HospitalID]bool) error {
	seen := make(map[entities.OrderID]bool, len(orders))
	for _, o := range orders {
		if err := o.Validate(); err != nil {
			return fmt.Errorf("%s %q: %w", kind, o.ID, err)
		}
		if seen[o.ID] {
			return fmt.Errorf("duplicate %s id %q", kind, o.ID)
		}
		seen[o.ID] = true
		if !hospitals[o.HospitalID] {
			return fmt.Errorf("%s %q references unknown hospital %q", kind, o.ID, o.HospitalID)
		}
	}
	return nil
}

func clear(tx repositories.Tx) error {
	gens, err := tx.ListGenerators()
	if err != nil {
		return err
	}
	for _, g := range gens {
		if err := tx.DeleteGenerator(g.ID); err != nil {
			return err
		}
	}
	hospitals, err := tx.ListHospitals()
	if err != nil {
		return err
	}
	for _, h := range hospitals {
		if err := tx.DeleteHospital(h.ID); err != nil {
			return err
		}
	}
	orders, err := tx.ListOrders()
	if err != nil {
		return err
	}
	for _, o := range orders {
		if err := tx.DeleteOrder(o.ID); err != nil {
			return err
		}
	}
	future, err := tx.ListFutureOrders()
	if err != nil {
		return err
	}
	for _, o := range future {
		if err := tx.DeleteFutureOrder(o.ID); err != nil {
			return err
		}
	}
	return nil
}
