package portalclient

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soulsirensomatics/portal/internal/models"
)

func TestStoreLoad(t *testing.T) {
	fetched := []*models.Booking{{ID: 1}, {ID: 2}}
	store := NewStore(func(ctx context.Context) ([]*models.Booking, error) {
		return fetched, nil
	})

	_, state, _ := store.Snapshot()
	assert.Equal(t, StoreIdle, state)

	require.NoError(t, store.Load(context.Background()))

	items, state, err := store.Snapshot()
	assert.Equal(t, StoreReady, state)
	assert.NoError(t, err)
	assert.Len(t, items, 2)
}

func TestStoreLoadRetryAfterError(t *testing.T) {
	var fail bool
	store := NewStore(func(ctx context.Context) ([]*models.Booking, error) {
		if fail {
			return nil, errors.New("connection refused")
		}
		return []*models.Booking{{ID: 1}}, nil
	})

	fail = true
	require.Error(t, store.Load(context.Background()))

	_, state, err := store.Snapshot()
	assert.Equal(t, StoreError, state)
	assert.Error(t, err)

	// Повторная загрузка и есть retry.
	fail = false
	require.NoError(t, store.Load(context.Background()))

	items, state, err := store.Snapshot()
	assert.Equal(t, StoreReady, state)
	assert.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestStoreMutateOptimistic(t *testing.T) {
	store := NewStore(func(ctx context.Context) ([]*models.Booking, error) {
		return []*models.Booking{{ID: 1}, {ID: 2}}, nil
	})
	require.NoError(t, store.Load(context.Background()))

	removeFirst := func(items []*models.Booking) []*models.Booking {
		out := items[:0]
		for _, b := range items {
			if b.ID != 1 {
				out = append(out, b)
			}
		}
		return out
	}

	err := store.Mutate(context.Background(), removeFirst, func(ctx context.Context) error {
		// Сервер принял отмену: список уже обновлен оптимистично.
		items, _, _ := store.Snapshot()
		assert.Len(t, items, 1)
		return nil
	})
	require.NoError(t, err)

	items, _, _ := store.Snapshot()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].ID)
}

func TestStoreMutateRollsBackOnRejection(t *testing.T) {
	store := NewStore(func(ctx context.Context) ([]*models.Booking, error) {
		return []*models.Booking{{ID: 1}, {ID: 2}}, nil
	})
	require.NoError(t, store.Load(context.Background()))

	rejected := &APIError{Status: http.StatusForbidden, Message: "Not authorized to delete this booking"}

	err := store.Mutate(context.Background(),
		func(items []*models.Booking) []*models.Booking { return items[1:] },
		func(ctx context.Context) error { return rejected },
	)
	require.ErrorIs(t, err, rejected)

	items, _, _ := store.Snapshot()
	require.Len(t, items, 2)
	assert.Equal(t, 1, items[0].ID)
}

func TestStoreReconcile(t *testing.T) {
	serverItems := []*models.Booking{{ID: 1}, {ID: 2}}
	store := NewStore(func(ctx context.Context) ([]*models.Booking, error) {
		return serverItems, nil
	})
	require.NoError(t, store.Load(context.Background()))

	serverItems = []*models.Booking{{ID: 2}}
	require.NoError(t, store.Reconcile(context.Background()))

	items, _, _ := store.Snapshot()
	require.Len(t, items, 1)
	assert.Equal(t, 2, items[0].ID)
}
