package inventory

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Item struct {
	ID         string          `json:"id"`
	VendorID   string          `json:"vendor_id"`
	Name       string          `json:"name"`
	Price      decimal.Decimal `json:"price"`
	Stock      int             `json:"stock"`
	CategoryID string          `json:"category_id,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// Line is a quantity of one item to reserve or release.
type Line struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

type MovementType string

const (
	MovementReserved  MovementType = "reserved"
	MovementReleased  MovementType = "released"
	MovementRestocked MovementType = "restocked"
)

// Movement records one stock change of one item.
type Movement struct {
	ID        string       `json:"id"`
	ItemID    string       `json:"item_id"`
	OrderID   string       `json:"order_id,omitempty"`
	Type      MovementType `json:"type"`
	Quantity  int          `json:"quantity"`
	PrevStock int          `json:"prev_stock"`
	NewStock  int          `json:"new_stock"`
	CreatedAt time.Time    `json:"created_at"`
}

type Shortfall struct {
	ItemID    string `json:"item_id"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

// InsufficientStockError lists every item of a batch that could not be
// covered.
type InsufficientStockError struct {
	Items []Shortfall
}

func (e *InsufficientStockError) Error() string {
	parts := make([]string, 0, len(e.Items))
	for _, s := range e.Items {
		parts = append(parts, fmt.Sprintf("%s (requested %d, available %d)", s.ItemID, s.Requested, s.Available))
	}
	return "insufficient stock: " + strings.Join(parts, ", ")
}

// CreateItemRequest payload of item creation.
// swagger:model CreateItemRequest
type CreateItemRequest struct {
	Name       string          `json:"name"        binding:"required"        example:"Mechanical Keyboard"`
	Price      decimal.Decimal `json:"price"       swaggertype:"string"      example:"199.90"`
	Stock      int             `json:"stock"       binding:"gte=0"           example:"10"`
	CategoryID string          `json:"category_id" example:"keyboards"`
}

// RestockRequest payload of a vendor restock.
// swagger:model RestockRequest
type RestockRequest struct {
	Quantity int `json:"quantity" binding:"required,gt=0" example:"5"`
}
