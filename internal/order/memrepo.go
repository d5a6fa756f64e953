package order

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"
)

type MemRepo struct {
	mu     sync.RWMutex
	orders map[string]*Order
}

func NewMemRepo() *MemRepo { return &MemRepo{orders: map[string]*Order{}} }

func (r *MemRepo) Create(_ context.Context, o *Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[o.ID]; ok {
		return fmt.Errorf("order %s already exists", o.ID)
	}
	r.orders[o.ID] = o.clone()
	return nil
}

func (r *MemRepo) GetByID(_ context.Context, id string) (*Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return o.clone(), nil
}

func (r *MemRepo) List(_ context.Context, f Filter, limit, offset int) ([]Order, int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*Order
	for _, o := range r.orders {
		if f.OwnerID != "" && o.OwnerID != f.OwnerID {
			continue
		}
		if f.VendorID != "" && !slices.Contains(o.VendorIDs(), f.VendorID) {
			continue
		}
		matched = append(matched, o)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].PlacedAt.Equal(matched[j].PlacedAt) {
			return matched[i].ID < matched[j].ID
		}
		return matched[i].PlacedAt.After(matched[j].PlacedAt)
	})

	total := len(matched)
	offset = max(min(offset, total), 0)
	end := max(min(offset+max(limit, 0), total), offset)
	out := make([]Order, 0, end-offset)
	for _, o := range matched[offset:end] {
		out = append(out, *o.clone())
	}
	return out, total, nil
}

func (r *MemRepo) Transition(_ context.Context, id string, from, to Status, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return ErrNotFound
	}
	if o.Status != from {
		return ErrStatusChanged
	}
	o.stamp(to, at)
	return nil
}
