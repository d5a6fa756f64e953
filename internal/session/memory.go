package session

import (
	"context"
	"sort"
	"sync"
)

type Memory struct {
	mu   sync.RWMutex
	sets map[string]map[string]Record
}

func NewMemory() *Memory {
	return &Memory{sets: map[string]map[string]Record{}}
}

func (m *Memory) Append(_ context.Context, userID string, rec Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.sets[userID]
	if !ok {
		set = map[string]Record{}
		m.sets[userID] = set
	}
	set[rec.JTI] = rec
	return nil
}

func (m *Memory) Has(_ context.Context, userID, jti string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.sets[userID][jti]
	return ok, nil
}

func (m *Memory) Remove(_ context.Context, userID, jti string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sets[userID], jti)
	return nil
}

func (m *Memory) Clear(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sets, userID)
	return nil
}

func (m *Memory) List(_ context.Context, userID string) ([]Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Record, 0, len(m.sets[userID]))
	for _, rec := range m.sets[userID] {
		out = append(out, rec)
	}
	sortRecords(out)
	return out, nil
}

func sortRecords(recs []Record) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].IssuedAt.Equal(recs[j].IssuedAt) {
			return recs[i].JTI < recs[j].JTI
		}
		return recs[i].IssuedAt.Before(recs[j].IssuedAt)
	})
}
