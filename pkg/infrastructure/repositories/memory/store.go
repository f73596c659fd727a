// Package memory provides an in-memory Store used by tests and dry runs.
// Commits are copy-and-swap: a transaction works on a deep copy of the
// dataset and the copy replaces the live dataset only if the transaction
// function returns nil, which gives the same all-or-nothing guarantee as the
// durable store.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/curielabs/elusched/pkg/domain/entities"
	"github.com/curielabs/elusched/pkg/domain/repositories"
)

// Store is an in-memory implementation of repositories.Store.
type Store struct {
	mu   sync.Mutex
	data *dataset
}

// NewStore creates an empty in-memory store with default settings.
func NewStore() *Store {
	return &Store{data: newDataset()}
}

// Verify interface compliance
var _ repositories.Store = (*Store)(nil)

// View runs fn over a snapshot copy; any writes fn makes are discarded.
func (s *Store) View(ctx context.Context, fn func(tx repositories.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	scratch := s.data.clone()
	s.mu.Unlock()
	return fn(&memTx{data: scratch})
}

// Update runs fn over a scratch copy and swaps it in only on success.
func (s *Store) Update(ctx context.Context, fn func(tx repositories.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	scratch := s.data.clone()
	if err := fn(&memTx{data: scratch}); err != nil {
		return err
	}
	s.data = scratch
	return nil
}

type dataset struct {
	generators   map[entities.GeneratorID]*entities.Generator
	hospitals    map[entities.HospitalID]*entities.Hospital
	orders       map[entities.OrderID]*entities.Order
	futureOrders map[entities.OrderID]*entities.Order
	settings     *entities.Settings
}

func newDataset() *dataset {
	return &dataset{
		generators:   make(map[entities.GeneratorID]*entities.Generator),
		hospitals:    make(map[entities.HospitalID]*entities.Hospital),
		orders:       make(map[entities.OrderID]*entities.Order),
		futureOrders: make(map[entities.OrderID]*entities.Order),
		settings:     entities.DefaultSettings(),
	}
}

func (d *dataset) clone() *dataset {
	c := newDataset()
	for id, g := range d.generators {
		c.generators[id] = g.Clone()
	}
	for id, h := range d.hospitals {
		c.hospitals[id] = h.Clone()
	}
	for id, o := range d.orders {
		c.orders[id] = o.Clone()
	}
	for id, o := range d.futureOrders {
		c.futureOrders[id] = o.Clone()
	}
	c.settings = d.settings.Clone()
	return c
}

type memTx struct {
	data *dataset
}

var _ repositories.Tx = (*memTx)(nil)

func (t *memTx) ListGenerators() ([]*entities.Generator, error) {
	out := make([]*entities.Generator, 0, len(t.data.generators))
	for _, g := range t.data.generators {
		out = append(out, g.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *memTx) PutGenerator(g *entities.Generator) error {
	t.data.generators[g.ID] = g.Clone()
	return nil
}

func (t *memTx) DeleteGenerator(id entities.GeneratorID) error {
	delete(t.data.generators, id)
	return nil
}

func (t *memTx) ListHospitals() ([]*entities.Hospital, error) {
	out := make([]*entities.Hospital, 0, len(t.data.hospitals))
	for _, h := range t.data.hospitals {
		out = append(out, h.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *memTx) PutHospital(h *entities.Hospital) error {
	t.data.hospitals[h.ID] = h.Clone()
	return nil
}

func (t *memTx) DeleteHospital(id entities.HospitalID) error {
	delete(t.data.hospitals, id)
	return nil
}

func (t *memTx) ListOrders() ([]*entities.Order, error) {
	return listOrders(t.data.orders), nil
}

func (t *memTx) PutOrder(o *entities.Order) error {
	t.data.orders[o.ID] = o.Clone()
	return nil
}

func (t *memTx) DeleteOrder(id entities.OrderID) error {
	delete(t.data.orders, id)
	return nil
}

func (t *memTx) ListFutureOrders() ([]*entities.Order, error) {
	return listOrders(t.data.futureOrders), nil
}

func (t *memTx) PutFutureOrder(o *entities.Order) error {
	t.data.futureOrders[o.ID] = o.Clone()
	return nil
}

func (t *memTx) DeleteFutureOrder(id entities.OrderID) error {
	delete(t.data.futureOrders, id)
	return nil
}

func (t *memTx) Settings() (*entities.Settings, error) {
	return t.data.settings.Clone(), nil
}

func (t *memTx) PutSettings(s *entities.Settings) error {
	t.data.settings = s.Clone()
	return nil
}

func listOrders(m map[entities.OrderID]*entities.Order) []*entities.Order {
	out := make([]*entities.Order, 0, len(m))
	for _, o := range m {
		out = append(out, o.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
