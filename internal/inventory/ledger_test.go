package inventory

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MikeMC777/marketplace-ordenes/internal/apperr"
)

func seed(t *testing.T, l *Ledger, vendor string, stock int) *Item {
	t.Helper()
	it, err := l.AddItem(context.Background(), vendor, CreateItemRequest{
		Name:  "Widget",
		Price: decimal.RequireFromString("10"),
		Stock: stock,
	})
	require.NoError(t, err)
	return it
}

func stockOf(t *testing.T, l *Ledger, id string) int {
	t.Helper()
	it, err := l.Get(context.Background(), id)
	require.NoError(t, err)
	return it.Stock
}

func TestReserveAndRelease(t *testing.T) {
	l := NewLedger(NewMemory())
	ctx := context.Background()
	x := seed(t, l, "v1", 5)

	require.NoError(t, l.Reserve(ctx, "o1", []Line{{ItemID: x.ID, Quantity: 2}}))
	assert.Equal(t, 3, stockOf(t, l, x.ID))

	require.NoError(t, l.Release(ctx, "o1", []Line{{ItemID: x.ID, Quantity: 2}}))
	assert.Equal(t, 5, stockOf(t, l, x.ID))

	movs, err := l.Movements(ctx, x.ID)
	require.NoError(t, err)
	require.Len(t, movs, 2)
	assert.Equal(t, MovementReserved, movs[0].Type)
	assert.Equal(t, 5, movs[0].PrevStock)
	assert.Equal(t, 3, movs[0].NewStock)
	assert.Equal(t, "o1", movs[0].OrderID)
	assert.Equal(t, MovementReleased, movs[1].Type)
}

func TestReserveIsAllOrNothing(t *testing.T) {
	l := NewLedger(NewMemory())
	ctx := context.Background()
	a := seed(t, l, "v1", 5)
	b := seed(t, l, "v2", 1)

	err := l.Reserve(ctx, "o1", []Line{{ItemID: a.ID, Quantity: 2}, {ItemID: b.ID, Quantity: 3}})
	require.Error(t, err)
	assert.Equal(t, apperr.InsufficientStock, apperr.KindOf(err))

	var short *InsufficientStockError
	require.True(t, errors.As(err, &short))
	assert.Equal(t, []Shortfall{{ItemID: b.ID, Requested: 3, Available: 1}}, short.Items)
	assert.Equal(t, short.Items, apperr.As(err).Details)

	assert.Equal(t, 5, stockOf(t, l, a.ID))
	assert.Equal(t, 1, stockOf(t, l, b.ID))

	movs, err := l.Movements(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, movs)
}

func TestReserveSumsDuplicateLines(t *testing.T) {
	l := NewLedger(NewMemory())
	ctx := context.Background()
	x := seed(t, l, "v1", 3)

	err := l.Reserve(ctx, "o1", []Line{{ItemID: x.ID, Quantity: 2}, {ItemID: x.ID, Quantity: 2}})
	var short *InsufficientStockError
	require.True(t, errors.As(err, &short))
	assert.Equal(t, 4, short.Items[0].Requested)
	assert.Equal(t, 3, stockOf(t, l, x.ID))
}

func TestReserveValidation(t *testing.T) {
	l := NewLedger(NewMemory())
	ctx := context.Background()

	assert.Equal(t, apperr.ValidationFailed, apperr.KindOf(l.Reserve(ctx, "o1", nil)))
	assert.Equal(t, apperr.ValidationFailed, apperr.KindOf(l.Reserve(ctx, "o1", []Line{{ItemID: "x", Quantity: 0}})))
	assert.Equal(t, apperr.NotFound, apperr.KindOf(l.Reserve(ctx, "o1", []Line{{ItemID: "missing", Quantity: 1}})))
}

func TestConcurrentReserveNeverOversells(t *testing.T) {
	l := NewLedger(NewMemory())
	ctx := context.Background()
	x := seed(t, l, "v1", 10)
	y := seed(t, l, "v1", 100)

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// mixed line order exercises the sorted locking
			lines := []Line{{ItemID: y.ID, Quantity: 1}, {ItemID: x.ID, Quantity: 1}}
			if i%2 == 0 {
				lines[0], lines[1] = lines[1], lines[0]
			}
			if err := l.Reserve(ctx, "o", lines); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, ok)
	assert.Equal(t, 0, stockOf(t, l, x.ID))
	assert.Equal(t, 90, stockOf(t, l, y.ID))
}

func TestRestockOwnership(t *testing.T) {
	l := NewLedger(NewMemory())
	ctx := context.Background()
	x := seed(t, l, "v1", 1)

	_, err := l.Restock(ctx, "v2", x.ID, 5)
	assert.Equal(t, apperr.Forbidden, apperr.KindOf(err))

	it, err := l.Restock(ctx, "v1", x.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 6, it.Stock)

	_, err = l.Restock(ctx, "v1", x.ID, 0)
	assert.Equal(t, apperr.ValidationFailed, apperr.KindOf(err))
}

func TestAddItemValidation(t *testing.T) {
	l := NewLedger(NewMemory())
	_, err := l.AddItem(context.Background(), "v1", CreateItemRequest{Name: "Free", Price: decimal.Zero})
	assert.Equal(t, apperr.ValidationFailed, apperr.KindOf(err))
}
