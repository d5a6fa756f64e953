// Package inventory owns item stock. Stock only changes through the Ledger:
// reservations at checkout, releases on cancellation and vendor restocks.
package inventory

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"

	"github.com/MikeMC777/marketplace-ordenes/internal/apperr"
)

type Ledger struct {
	store Store
}

func NewLedger(store Store) *Ledger { return &Ledger{store: store} }

// normalize sums duplicate item lines and sorts them by item id.
func normalize(lines []Line) ([]Line, error) {
	if len(lines) == 0 {
		return nil, apperr.E(apperr.ValidationFailed, "no items")
	}
	sum := make(map[string]int, len(lines))
	for _, l := range lines {
		if l.ItemID == "" || l.Quantity <= 0 {
			return nil, apperr.E(apperr.ValidationFailed, "each line needs an item id and a positive quantity")
		}
		sum[l.ItemID] += l.Quantity
	}
	out := make([]Line, 0, len(sum))
	for id, q := range sum {
		out = append(out, Line{ItemID: id, Quantity: q})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemID < out[j].ItemID })
	return out, nil
}

func classify(err error, msg string) error {
	var short *InsufficientStockError
	switch {
	case errors.As(err, &short):
		return &apperr.Error{Kind: apperr.InsufficientStock, Message: "insufficient stock", Details: short.Items, Err: err}
	case errors.Is(err, ErrNotFound):
		return apperr.Wrap(apperr.NotFound, "item not found", err)
	default:
		return apperr.Wrap(apperr.Internal, msg, err)
	}
}

// Reserve takes stock for every line or for none of them.
func (l *Ledger) Reserve(ctx context.Context, orderID string, lines []Line) error {
	norm, err := normalize(lines)
	if err != nil {
		return err
	}
	if err := l.store.Reserve(ctx, orderID, norm); err != nil {
		return classify(err, "reserve stock")
	}
	return nil
}

// Release gives stock back. Callers guarantee an order is released at most
// once.
func (l *Ledger) Release(ctx context.Context, orderID string, lines []Line) error {
	norm, err := normalize(lines)
	if err != nil {
		return err
	}
	if err := l.store.Release(ctx, orderID, norm); err != nil {
		return classify(err, "release stock")
	}
	return nil
}

func (l *Ledger) Get(ctx context.Context, id string) (*Item, error) {
	it, err := l.store.Get(ctx, id)
	if err != nil {
		return nil, classify(err, "get item")
	}
	return it, nil
}

func (l *Ledger) GetMany(ctx context.Context, ids []string) (map[string]Item, error) {
	items, err := l.store.GetMany(ctx, ids)
	if err != nil {
		return nil, classify(err, "get items")
	}
	return items, nil
}

func (l *Ledger) AddItem(ctx context.Context, vendorID string, in CreateItemRequest) (*Item, error) {
	if in.Name == "" {
		return nil, apperr.E(apperr.ValidationFailed, "name is required")
	}
	if !in.Price.IsPositive() {
		return nil, apperr.E(apperr.ValidationFailed, "price must be positive")
	}
	if in.Stock < 0 {
		return nil, apperr.E(apperr.ValidationFailed, "stock must be non-negative")
	}
	it := &Item{
		ID:         uuid.NewString(),
		VendorID:   vendorID,
		Name:       in.Name,
		Price:      in.Price.Round(2),
		Stock:      in.Stock,
		CategoryID: in.CategoryID,
	}
	if err := l.store.Create(ctx, it); err != nil {
		return nil, apperr.Wrap(apperr.Internal, "create item", err)
	}
	return it, nil
}

// Restock adds qty to an item owned by vendorID.
func (l *Ledger) Restock(ctx context.Context, vendorID, itemID string, qty int) (*Item, error) {
	if qty <= 0 {
		return nil, apperr.E(apperr.ValidationFailed, "quantity must be positive")
	}
	it, err := l.Get(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if it.VendorID != vendorID {
		return nil, apperr.E(apperr.Forbidden, "Access denied")
	}
	it, err = l.store.Restock(ctx, itemID, qty)
	if err != nil {
		return nil, classify(err, "restock")
	}
	return it, nil
}

func (l *Ledger) Movements(ctx context.Context, itemID string) ([]Movement, error) {
	movs, err := l.store.Movements(ctx, itemID)
	if err != nil {
		return nil, classify(err, "list movements")
	}
	return movs, nil
}
