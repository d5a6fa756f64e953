package coupon

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrAlreadyExist = errors.New("coupon already exists")

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

func (r *PGRepo) Create(ctx context.Context, c *Coupon) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var expires *time.Time
	if !c.ExpiresAt.IsZero() {
		expires = &c.ExpiresAt
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO coupons (code, type, value, min_amount, max_discount, starts_at, expires_at, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, c.Code, c.Type, c.Value, c.MinAmount, c.MaxDiscount, c.StartsAt, expires, c.Active)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrAlreadyExist
	}
	return err
}

func (r *PGRepo) GetByCode(ctx context.Context, code string) (*Coupon, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var (
		c       Coupon
		expires *time.Time
	)
	err := r.db.QueryRow(ctx, `
		SELECT code, type, value, min_amount, max_discount, starts_at, expires_at, active
		FROM coupons WHERE code=$1
	`, code).Scan(&c.Code, &c.Type, &c.Value, &c.MinAmount, &c.MaxDiscount, &c.StartsAt, &expires, &c.Active)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if expires != nil {
		c.ExpiresAt = *expires
	}
	return &c, nil
}

type MemRepo struct {
	mu      sync.RWMutex
	coupons map[string]Coupon
}

func NewMemRepo() *MemRepo { return &MemRepo{coupons: map[string]Coupon{}} }

func (r *MemRepo) Create(_ context.Context, c *Coupon) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.coupons[c.Code]; ok {
		return ErrAlreadyExist
	}
	r.coupons[c.Code] = *c
	return nil
}

func (r *MemRepo) GetByCode(_ context.Context, code string) (*Coupon, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.coupons[code]
	if !ok {
		return nil, ErrNotFound
	}
	return &c, nil
}
