// Package coupon resolves a coupon code into the discount frozen into an
// order at checkout.
package coupon

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MikeMC777/marketplace-ordenes/internal/apperr"
)

type Type string

const (
	Percentage Type = "percentage"
	Fixed      Type = "fixed"
)

var (
	ErrNotFound = errors.New("coupon not found")
)

type Coupon struct {
	Code        string              `json:"code"`
	Type        Type                `json:"type"`
	Value       decimal.Decimal     `json:"value"`
	MinAmount   decimal.Decimal     `json:"min_amount"`
	MaxDiscount decimal.NullDecimal `json:"max_discount"`
	StartsAt    time.Time           `json:"starts_at"`
	ExpiresAt   time.Time           `json:"expires_at"`
	Active      bool                `json:"active"`
}

// Snapshot is the coupon as recorded on an order.
type Snapshot struct {
	Code     string          `json:"code"`
	Type     Type            `json:"type"`
	Discount decimal.Decimal `json:"discount"`
}

func (c *Coupon) validate() error {
	switch c.Type {
	case Percentage:
		if !c.Value.IsPositive() || c.Value.GreaterThan(decimal.NewFromInt(100)) {
			return apperr.E(apperr.ValidationFailed, "percentage must be in (0, 100]")
		}
	case Fixed:
		if !c.Value.IsPositive() {
			return apperr.E(apperr.ValidationFailed, "value must be positive")
		}
	default:
		return apperr.E(apperr.ValidationFailed, "type must be percentage or fixed")
	}
	if c.Code == "" {
		return apperr.E(apperr.ValidationFailed, "code is required")
	}
	if !c.ExpiresAt.IsZero() && !c.ExpiresAt.After(c.StartsAt) {
		return apperr.E(apperr.ValidationFailed, "expires_at must be after starts_at")
	}
	return nil
}

// Discount computes the discount for subtotal at now. The discount never
// exceeds the subtotal.
func (c *Coupon) Discount(subtotal decimal.Decimal, now time.Time) (decimal.Decimal, error) {
	if !c.Active {
		return decimal.Zero, apperr.E(apperr.ValidationFailed, "coupon is not active")
	}
	if now.Before(c.StartsAt) || (!c.ExpiresAt.IsZero() && !now.Before(c.ExpiresAt)) {
		return decimal.Zero, apperr.E(apperr.ValidationFailed, "coupon is expired or not yet valid")
	}
	if subtotal.LessThan(c.MinAmount) {
		return decimal.Zero, apperr.E(apperr.ValidationFailed, "order does not reach the coupon minimum amount")
	}
	var d decimal.Decimal
	switch c.Type {
	case Percentage:
		d = subtotal.Mul(c.Value).Div(decimal.NewFromInt(100)).Round(2)
	case Fixed:
		d = c.Value
	default:
		return decimal.Zero, apperr.E(apperr.ValidationFailed, "invalid coupon")
	}
	if c.MaxDiscount.Valid && d.GreaterThan(c.MaxDiscount.Decimal) {
		d = c.MaxDiscount.Decimal
	}
	if d.GreaterThan(subtotal) {
		d = subtotal
	}
	return d, nil
}

type Repository interface {
	Create(ctx context.Context, c *Coupon) error
	GetByCode(ctx context.Context, code string) (*Coupon, error)
}

type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (s *Service) Create(ctx context.Context, c Coupon) (*Coupon, error) {
	c.Code = normalizeCode(c.Code)
	if err := c.validate(); err != nil {
		return nil, err
	}
	if c.StartsAt.IsZero() {
		c.StartsAt = s.now().UTC()
	}
	if err := s.repo.Create(ctx, &c); err != nil {
		if errors.Is(err, ErrAlreadyExist) {
			return nil, apperr.Wrap(apperr.Conflict, "coupon code already exists", err)
		}
		return nil, apperr.Wrap(apperr.Internal, "create coupon", err)
	}
	return &c, nil
}

// Resolve validates code against subtotal. An unknown code is a client error.
func (s *Service) Resolve(ctx context.Context, code string, subtotal decimal.Decimal) (*Snapshot, error) {
	c, err := s.repo.GetByCode(ctx, normalizeCode(code))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, apperr.Wrap(apperr.ValidationFailed, "invalid coupon", err)
		}
		return nil, apperr.Wrap(apperr.Internal, "load coupon", err)
	}
	d, err := c.Discount(subtotal, s.now())
	if err != nil {
		return nil, err
	}
	return &Snapshot{Code: c.Code, Type: c.Type, Discount: d}, nil
}
