package badgerstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/curielabs/elusched/pkg/domain/entities"
	"github.com/curielabs/elusched/pkg/domain/repositories"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})
	return store
}

func testGenerator(t *testing.T, id entities.GeneratorID) *entities.Generator {
	t.Helper()
	cal := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
	g, err := entities.NewGenerator(id, 50, 60, cal, cal)
	require.NoError(t, err)
	return g
}

func testOrder(t *testing.T, id entities.OrderID) *entities.Order {
	t.Helper()
	cal := time.Date(2026, 3, 10, 11, 0, 0, 0, time.UTC)
	o, err := entities.NewOrder(id, "H-1", entities.ProductPSMA, 5, cal, 15, 15)
	require.NoError(t, err)
	return o
}

func TestRoundTripSurvivesReopen(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(dir)
	require.NoError(t, err)

	ctx := context.Background()
	err = store.Update(ctx, func(tx repositories.Tx) error {
		if err := tx.PutGenerator(testGenerator(t, "G-1")); err != nil {
			return err
		}
		if err := tx.PutOrder(testOrder(t, "O-1")); err != nil {
			return err
		}
		if err := tx.PutFutureOrder(testOrder(t, "F-1")); err != nil {
			return err
		}
		h, err := entities.NewHospital("H-1", "General", 15)
		if err != nil {
			return err
		}
		if err := tx.PutHospital(h); err != nil {
			return err
		}
		return tx.PutSettings(&entities.Settings{MinLockMinutes: 45})
	})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = Open(dir)
	require.NoError(t, err)
	defer store.Close()

	err = store.View(ctx, func(tx repositories.Tx) error {
		gens, err := tx.ListGenerators()
		require.NoError(t, err)
		require.Len(t, gens, 1)
		assert.Equal(t, entities.GeneratorID("G-1"), gens[0].ID)
		assert.InDelta(t, 50.0, gens[0].ParentActivityMCi, 1e-9)

		orders, err := tx.ListOrders()
		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.Equal(t, entities.OrderID("O-1"), orders[0].ID)

		future, err := tx.ListFutureOrders()
		require.NoError(t, err)
		require.Len(t, future, 1)
		assert.Equal(t, entities.OrderID("F-1"), future[0].ID)

		hospitals, err := tx.ListHospitals()
		require.NoError(t, err)
		require.Len(t, hospitals, 1)

		settings, err := tx.Settings()
		require.NoError(t, err)
		assert.Equal(t, 45, settings.MinLockMinutes)
		return nil
	})
	require.NoError(t, err)
}

func TestListGenerators_SortedByID(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	err := store.Update(ctx, func(tx repositories.Tx) error {
		for _, id := range []entities.GeneratorID{"G-C", "G-A", "G-B"} {
			if err := tx.PutGenerator(testGenerator(t, id)); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	err = store.View(ctx, func(tx repositories.Tx) error {
		gens, err := tx.ListGenerators()
		require.NoError(t, err)
		require.Len(t, gens, 3)
		assert.Equal(t, entities.GeneratorID("G-A"), gens[0].ID)
		assert.Equal(t, entities.GeneratorID("G-B"), gens[1].ID)
		assert.Equal(t, entities.GeneratorID("G-C"), gens[2].ID)
		return nil
	})
	require.NoError(t, err)
}

func TestUpdateIsAtomic(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	require.NoError(t, store.Update(ctx, func(tx repositories.Tx) error {
		return tx.PutGenerator(testGenerator(t, "G-1"))
	}))

	boom := errors.New("boom")
	err := store.Update(ctx, func(tx repositories.Tx) error {
		if err := tx.DeleteGenerator("G-1"); err != nil {
			return err
		}
		if err := tx.PutGenerator(testGenerator(t, "G-2")); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = store.View(ctx, func(tx repositories.Tx) error {
		gens, err := tx.ListGenerators()
		require.NoError(t, err)
		require.Len(t, gens, 1)
		assert.Equal(t, entities.GeneratorID("G-1"), gens[0].ID)
		return nil
	})
	require.NoError(t, err)
}

func TestFutureOrdersAreSeparateFromLive(t *testing.T) {
	store := openStore(t)
	ctx := context.Background()

	require.NoError(t, store.Update(ctx, func(tx repositories.Tx) error {
		if err := tx.PutOrder(testOrder(t, "O-1")); err != nil {
			return err
		}
		return tx.PutFutureOrder(testOrder(t, "O-2"))
	}))

	err := store.View(ctx, func(tx repositories.Tx) error {
		orders, err := tx.ListOrders()
		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.Equal(t, entities.OrderID("O-1"), orders[0].ID)

		future, err := tx.ListFutureOrders()
		require.NoError(t, err)
		require.Len(t, future, 1)
		assert.Equal(t, entities.OrderID("O-2"), future[0].ID)
		return nil
	})
	require.NoError(t, err)
}

func TestSettingsDefaultWhenAbsent(t *testing.T) {
	store := openStore(t)

	err := store.View(context.Background(), func(tx repositories.Tx) error {
		settings, err := tx.Settings()
		require.NoError(t, err)
		assert.Equal(t, entities.DefaultSettings().MinLockMinutes, settings.MinLockMinutes)
		return nil
	})
	require.NoError(t, err)
}

func TestDeleteIsIdempotent(t *testing.T) {
	store := openStore(t)

	err := store.Update(context.Background(), func(tx repositories.Tx) error {
		return tx.DeleteOrder("NO-SUCH")
	})
	require.NoError(t, err)
}

func TestCancelledContextRejected(t *testing.T) {
	store := openStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := store.View(ctx, func(repositories.Tx) error { return nil })
	require.ErrorIs(t, err, context.Canceled)

	err = store.Update(ctx, func(repositories.Tx) error { return nil })
	require.ErrorIs(t, err, context.Canceled)
}
