package inventory

import (
	"context"
	"errors"
)

var (
	ErrNotFound = errors.New("item not found")
)

// Store holds items and their stock movements. Reserve must be all or
// nothing and must serialize concurrent changes to the same item.
// Lines passed to Reserve and Release are deduplicated and sorted by item id.
type Store interface {
	Create(ctx context.Context, it *Item) error
	Get(ctx context.Context, id string) (*Item, error)
	GetMany(ctx context.Context, ids []string) (map[string]Item, error)
	Reserve(ctx context.Context, orderID string, lines []Line) error
	Release(ctx context.Context, orderID string, lines []Line) error
	Restock(ctx context.Context, id string, qty int) (*Item, error)
	Movements(ctx context.Context, itemID string) ([]Movement, error)
}
