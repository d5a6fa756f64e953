package inventory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

type memItem struct {
	mu   sync.Mutex
	item Item
}

// Memory keeps one mutex per item. Batches lock their items in id order so
// two checkouts sharing items cannot deadlock, and checkouts on disjoint
// items never wait on each other.
type Memory struct {
	mu        sync.RWMutex
	items     map[string]*memItem
	movMu     sync.Mutex
	movements map[string][]Movement
}

func NewMemory() *Memory {
	return &Memory{items: map[string]*memItem{}, movements: map[string][]Movement{}}
}

func (m *Memory) Create(_ context.Context, it *Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[it.ID]; ok {
		return fmt.Errorf("item %s already exists", it.ID)
	}
	now := time.Now().UTC()
	it.CreatedAt, it.UpdatedAt = now, now
	m.items[it.ID] = &memItem{item: *it}
	return nil
}

func (m *Memory) lookup(id string) (*memItem, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mi, ok := m.items[id]
	return mi, ok
}

func (m *Memory) Get(_ context.Context, id string) (*Item, error) {
	mi, ok := m.lookup(id)
	if !ok {
		return nil, ErrNotFound
	}
	mi.mu.Lock()
	defer mi.mu.Unlock()
	it := mi.item
	return &it, nil
}

func (m *Memory) GetMany(ctx context.Context, ids []string) (map[string]Item, error) {
	out := make(map[string]Item, len(ids))
	for _, id := range ids {
		it, err := m.Get(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("%w: %s", err, id)
		}
		out[id] = *it
	}
	return out, nil
}

// lockAll locks the items of lines in order and returns them with an unlock
// func.
func (m *Memory) lockAll(lines []Line) ([]*memItem, func(), error) {
	held := make([]*memItem, 0, len(lines))
	unlock := func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].mu.Unlock()
		}
	}
	for _, l := range lines {
		mi, ok := m.lookup(l.ItemID)
		if !ok {
			unlock()
			return nil, nil, fmt.Errorf("%w: %s", ErrNotFound, l.ItemID)
		}
		mi.mu.Lock()
		held = append(held, mi)
	}
	return held, unlock, nil
}

func (m *Memory) Reserve(_ context.Context, orderID string, lines []Line) error {
	held, unlock, err := m.lockAll(lines)
	if err != nil {
		return err
	}
	defer unlock()

	var short []Shortfall
	for i, l := range lines {
		if held[i].item.Stock < l.Quantity {
			short = append(short, Shortfall{ItemID: l.ItemID, Requested: l.Quantity, Available: held[i].item.Stock})
		}
	}
	if len(short) > 0 {
		return &InsufficientStockError{Items: short}
	}
	now := time.Now().UTC()
	movs := make([]Movement, 0, len(lines))
	for i, l := range lines {
		prev := held[i].item.Stock
		held[i].item.Stock -= l.Quantity
		held[i].item.UpdatedAt = now
		movs = append(movs, newMovement(l.ItemID, orderID, MovementReserved, l.Quantity, prev, held[i].item.Stock, now))
	}
	m.record(movs)
	return nil
}

func (m *Memory) Release(_ context.Context, orderID string, lines []Line) error {
	held, unlock, err := m.lockAll(lines)
	if err != nil {
		return err
	}
	defer unlock()

	now := time.Now().UTC()
	movs := make([]Movement, 0, len(lines))
	for i, l := range lines {
		prev := held[i].item.Stock
		held[i].item.Stock += l.Quantity
		held[i].item.UpdatedAt = now
		movs = append(movs, newMovement(l.ItemID, orderID, MovementReleased, l.Quantity, prev, held[i].item.Stock, now))
	}
	m.record(movs)
	return nil
}

func (m *Memory) Restock(_ context.Context, id string, qty int) (*Item, error) {
	mi, ok := m.lookup(id)
	if !ok {
		return nil, ErrNotFound
	}
	mi.mu.Lock()
	defer mi.mu.Unlock()
	now := time.Now().UTC()
	prev := mi.item.Stock
	mi.item.Stock += qty
	mi.item.UpdatedAt = now
	m.record([]Movement{newMovement(id, "", MovementRestocked, qty, prev, mi.item.Stock, now)})
	it := mi.item
	return &it, nil
}

func (m *Memory) Movements(_ context.Context, itemID string) ([]Movement, error) {
	if _, ok := m.lookup(itemID); !ok {
		return nil, ErrNotFound
	}
	m.movMu.Lock()
	defer m.movMu.Unlock()
	return append([]Movement(nil), m.movements[itemID]...), nil
}

func (m *Memory) record(movs []Movement) {
	m.movMu.Lock()
	defer m.movMu.Unlock()
	for _, mv := range movs {
		m.movements[mv.ItemID] = append(m.movements[mv.ItemID], mv)
	}
}

func newMovement(itemID, orderID string, typ MovementType, qty, prev, next int, at time.Time) Movement {
	return Movement{
		ID:        uuid.NewString(),
		ItemID:    itemID,
		OrderID:   orderID,
		Type:      typ,
		Quantity:  qty,
		PrevStock: prev,
		NewStock:  next,
		CreatedAt: at,
	}
}
