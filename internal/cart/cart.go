// Package cart holds each client's basket until checkout consumes it.
package cart

import (
	"context"
	"sort"
	"sync"
)

type Line struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

type Store interface {
	Get(ctx context.Context, userID string) ([]Line, error)
	// Add increments the quantity of itemID; a non-positive result removes it.
	Add(ctx context.Context, userID, itemID string, qty int) error
	Clear(ctx context.Context, userID string) error
}

func sortLines(lines []Line) {
	sort.Slice(lines, func(i, j int) bool { return lines[i].ItemID < lines[j].ItemID })
}

type Memory struct {
	mu    sync.Mutex
	carts map[string]map[string]int
}

func NewMemory() *Memory { return &Memory{carts: map[string]map[string]int{}} }

func (m *Memory) Get(_ context.Context, userID string) ([]Line, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Line, 0, len(m.carts[userID]))
	for id, q := range m.carts[userID] {
		out = append(out, Line{ItemID: id, Quantity: q})
	}
	sortLines(out)
	return out, nil
}

func (m *Memory) Add(_ context.Context, userID, itemID string, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[userID]
	if !ok {
		c = map[string]int{}
		m.carts[userID] = c
	}
	c[itemID] += qty
	if c[itemID] <= 0 {
		delete(c, itemID)
	}
	return nil
}

func (m *Memory) Clear(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, userID)
	return nil
}
