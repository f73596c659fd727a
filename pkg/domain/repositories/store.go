// Package repositories defines the persistence ports the application layer
// depends on. Implementations live under pkg/infrastructure/repositories.
package repositories

import (
	"context"

	"github.com/curielabs/elusched/pkg/domain/entities"
)

// Tx exposes the four record collections plus the settings record inside one
// transaction. Every List method returns records sorted by id ascending;
// callers rely on that ordering for deterministic scheduling output.
type Tx interface {
	ListGenerators() ([]*entities.Generator, error)
	PutGenerator(g *entities.Generator) error
	DeleteGenerator(id entities.GeneratorID) error

	ListHospitals() ([]*entities.Hospital, error)
	PutHospital(h *entities.Hospital) error
	DeleteHospital(id entities.HospitalID) error

	ListOrders() ([]*entities.Order, error)
	PutOrder(o *entities.Order) error
	DeleteOrder(id entities.OrderID) error

	ListFutureOrders() ([]*entities.Order, error)
	PutFutureOrder(o *entities.Order) error
	DeleteFutureOrder(id entities.OrderID) error

	Settings() (*entities.Settings, error)
	PutSettings(s *entities.Settings) error
}

// Store is the transactional key-value persistence port. Update runs fn in a
// read-write transaction: either every write in fn commits or none do. View
// runs fn read-only; writes made inside a View must not survive it.
type Store interface {
	View(ctx context.Context, fn func(tx Tx) error) error
	Update(ctx context.Context, fn func(tx Tx) error) error
}
