package user

import (
	"context"
	"strings"
	"sync"
	"time"
)

// MemRepo backs local runs and tests when no POSTGRES_DSN is configured.
type MemRepo struct {
	mu    sync.RWMutex
	byID  map[string]User
	email map[string]string
}

func NewMemRepo() *MemRepo {
	return &MemRepo{byID: map[string]User{}, email: map[string]string{}}
}

func (r *MemRepo) Create(_ context.Context, u *User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.ToLower(u.Email)
	if _, ok := r.email[key]; ok {
		return ErrAlreadyExist
	}
	if _, ok := r.byID[u.ID]; ok {
		return ErrAlreadyExist
	}
	now := time.Now().UTC()
	u.CreatedAt, u.UpdatedAt = now, now
	r.byID[u.ID] = *u
	r.email[key] = u.ID
	return nil
}

func (r *MemRepo) GetByID(_ context.Context, id string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &u, nil
}

func (r *MemRepo) GetByEmail(ctx context.Context, email string) (*User, error) {
	r.mu.RLock()
	id, ok := r.email[strings.ToLower(email)]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *MemRepo) SetRole(_ context.Context, id string, role Role) error {
	return r.update(id, func(u *User) { u.Role = role })
}

func (r *MemRepo) SetBanned(_ context.Context, id string, banned bool) error {
	return r.update(id, func(u *User) { u.Banned = banned })
}

func (r *MemRepo) update(id string, fn func(*User)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.byID[id]
	if !ok {
		return ErrNotFound
	}
	fn(&u)
	u.UpdatedAt = time.Now().UTC()
	r.byID[id] = u
	return nil
}
