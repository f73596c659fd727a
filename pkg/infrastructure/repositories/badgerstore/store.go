// Package badgerstore persists the scheduling dataset in an embedded
// Badger key-value database. Records are stored as JSON values under
// per-collection key prefixes, and every Store.Update runs inside a
// single Badger transaction so multi-collection writes commit or roll
// back together.
package badgerstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	badger "github.com/dgraph-io/badger"

	"github.com/curielabs/elusched/pkg/domain/entities"
	"github.com/curielabs/elusched/pkg/domain/repositories"
)

const (
	prefixGenerator   = "gen/"
	prefixHospital    = "hos/"
	prefixOrder       = "ord/"
	prefixFutureOrder = "fut/"
	keySettings       = "settings"
)

// Store is a Badger-backed implementation of repositories.Store.
type Store struct {
	db *badger.DB
}

// Interface compliance check.
var _ repositories.Store = (*Store)(nil)

// Open opens (creating if necessary) a Badger database rooted at dir.
func Open(dir string) (*Store, error) {
	opts := badger.DefaultOptions(dir)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("while opening badger database at %q: %w", dir, err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database.
func (s *Store) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("while closing badger database: %w", err)
	}
	return nil
}

// View runs fn against a read-only transaction.
func (s *Store) View(ctx context.Context, fn func(repositories.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.View(func(txn *badger.Txn) error {
		return fn(&badgerTx{txn: txn})
	})
}

// Update runs fn against a read-write transaction. The transaction
// commits only if fn returns nil; any error discards every write.
func (s *Store) Update(ctx context.Context, fn func(repositories.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return fn(&badgerTx{txn: txn})
	})
}

type badgerTx struct {
	txn *badger.Txn
}

var _ repositories.Tx = (*badgerTx)(nil)

func (t *badgerTx) ListGenerators() ([]*entities.Generator, error) {
	var out []*entities.Generator
	err := t.scan(prefixGenerator, func(value []byte) error {
		var g entities.Generator
		if err := json.Unmarshal(value, &g); err != nil {
			return err
		}
		out = append(out, &g)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("while listing generators: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *badgerTx) PutGenerator(g *entities.Generator) error {
	if err := t.put(prefixGenerator+string(g.ID), g); err != nil {
		return fmt.Errorf("while storing generator %q: %w", g.ID, err)
	}
	return nil
}

func (t *badgerTx) DeleteGenerator(id entities.GeneratorID) error {
	if err := t.delete(prefixGenerator + string(id)); err != nil {
		return fmt.Errorf("while deleting generator %q: %w", id, err)
	}
	return nil
}

func (t *badgerTx) ListHospitals() ([]*entities.Hospital, error) {
	var out []*entities.Hospital
	err := t.scan(prefixHospital, func(value []byte) error {
		var h entities.Hospital
		if err := json.Unmarshal(value, &h); err != nil {
			return err
		}
		out = append(out, &h)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("while listing hospitals: %w", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *badgerTx) PutHospital(h *entities.Hospital) error {
	if err := t.put(prefixHospital+string(h.ID), h); err != nil {
		return fmt.Errorf("while storing hospital %q: %w", h.ID, err)
	}
	return nil
}

func (t *badgerTx) DeleteHospital(id entities.HospitalID) error {
	if err := t.delete(prefixHospital + string(id)); err != nil {
		return fmt.Errorf("while deleting hospital %q: %w", id, err)
	}
	return nil
}

func (t *badgerTx) ListOrders() ([]*entities.Order, error) {
	out, err := t.scanOrders(prefixOrder)
	if err != nil {
		return nil, fmt.Errorf("while listing orders: %w", err)
	}
	return out, nil
}

func (t *badgerTx) PutOrder(o *entities.Order) error {
	if err := t.put(prefixOrder+string(o.ID), o); err != nil {
		return fmt.Errorf("while storing order %q: %w", o.ID, err)
	}
	return nil
}

func (t *badgerTx) DeleteOrder(id entities.OrderID) error {
	if err := t.delete(prefixOrder + string(id)); err != nil {
		return fmt.Errorf("while deleting order %q: %w", id, err)
	}
	return nil
}

func (t *badgerTx) ListFutureOrders() ([]*entities.Order, error) {
	out, err := t.scanOrders(prefixFutureOrder)
	if err != nil {
		return nil, fmt.Errorf("while listing future orders: %w", err)
	}
	return out, nil
}

func (t *badgerTx) PutFutureOrder(o *entities.Order) error {
	if err := t.put(prefixFutureOrder+string(o.ID), o); err != nil {
		return fmt.Errorf("while storing future order %q: %w", o.ID, err)
	}
	return nil
}

func (t *badgerTx) DeleteFutureOrder(id entities.OrderID) error {
	if err := t.delete(prefixFutureOrder + string(id)); err != nil {
		return fmt.Errorf("while deleting future order %q: %w", id, err)
	}
	return nil
}

func (t *badgerTx) Settings() (*entities.Settings, error) {
	item, err := t.txn.Get([]byte(keySettings))
	if err == badger.ErrKeyNotFound {
		return entities.DefaultSettings(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("while reading settings: %w", err)
	}
	value, err := item.ValueCopy(nil)
	if err != nil {
		return nil, fmt.Errorf("while reading settings value: %w", err)
	}
	var s entities.Settings
	if err := json.Unmarshal(value, &s); err != nil {
		return nil, fmt.Errorf("while decoding settings: %w", err)
	}
	return &s, nil
}

func (t *badgerTx) PutSettings(s *entities.Settings) error {
	if err := t.put(keySettings, s); err != nil {
		return fmt.Errorf("while storing settings: %w", err)
	}
	return nil
}

func (t *badgerTx) scanOrders(prefix string) ([]*entities.Order, error) {
	var out []*entities.Order
	err := t.scan(prefix, func(value []byte) error {
		var o entities.Order
		if err := json.Unmarshal(value, &o); err != nil {
			return err
		}
		out = append(out, &o)
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *badgerTx) scan(prefix string, visit func(value []byte) error) error {
	opts := badger.DefaultIteratorOptions
	opts.Prefix = []byte(prefix)
	it := t.txn.NewIterator(opts)
	defer it.Close()
	for it.Rewind(); it.Valid(); it.Next() {
		value, err := it.Item().ValueCopy(nil)
		if err != nil {
			return err
		}
		if err := visit(value); err != nil {
			return err
		}
	}
	return nil
}

func (t *badgerTx) put(key string, record interface{}) error {
	value, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return t.txn.Set([]byte(key), value)
}

func (t *badgerTx) delete(key string) error {
	err := t.txn.Delete([]byte(key))
	if err == badger.ErrKeyNotFound {
		return nil
	}
	return err
}
