package order

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/MikeMC777/marketplace-ordenes/internal/coupon"
	"github.com/MikeMC777/marketplace-ordenes/internal/inventory"
)

type PaymentMethod string

const (
	PaymentCard           PaymentMethod = "card"
	PaymentCashOnDelivery PaymentMethod = "cash_on_delivery"
)

func (p PaymentMethod) Valid() bool {
	return p == PaymentCard || p == PaymentCashOnDelivery
}

type Address struct {
	Street     string `json:"street"      binding:"required" example:"Av. Siempre Viva 742"`
	City       string `json:"city"        binding:"required" example:"Bogota"`
	State      string `json:"state"       example:"Cundinamarca"`
	PostalCode string `json:"postal_code" example:"110111"`
	Country    string `json:"country"     binding:"required" example:"CO"`
}

// LineItem snapshots the item at checkout; later price changes do not
// affect the order.
type LineItem struct {
	ItemID    string          `json:"item_id"`
	VendorID  string          `json:"vendor_id"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// Order is immutable after creation except for Status and the transition
// timestamps.
type Order struct {
	ID            string           `json:"id"`
	OwnerID       string           `json:"owner_id"`
	Items         []LineItem       `json:"items"`
	Address       Address          `json:"address"`
	ContactPhone  string           `json:"contact_phone"`
	PaymentMethod PaymentMethod    `json:"payment_method"`
	Coupon        *coupon.Snapshot `json:"coupon,omitempty"`
	Subtotal      decimal.Decimal  `json:"subtotal"`
	Discount      decimal.Decimal  `json:"discount"`
	Total         decimal.Decimal  `json:"total"`
	Status        Status           `json:"status"`
	PlacedAt      time.Time        `json:"placed_at"`
	ConfirmedAt   *time.Time       `json:"confirmed_at,omitempty"`
	ShippedAt     *time.Time       `json:"shipped_at,omitempty"`
	DeliveredAt   *time.Time       `json:"delivered_at,omitempty"`
	CancelledAt   *time.Time       `json:"cancelled_at,omitempty"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// VendorIDs returns the distinct vendors of the line items in order.
func (o *Order) VendorIDs() []string {
	seen := make(map[string]bool, len(o.Items))
	out := make([]string, 0, len(o.Items))
	for _, it := range o.Items {
		if !seen[it.VendorID] {
			seen[it.VendorID] = true
			out = append(out, it.VendorID)
		}
	}
	return out
}

func (o *Order) Lines() []inventory.Line {
	out := make([]inventory.Line, 0, len(o.Items))
	for _, it := range o.Items {
		out = append(out, inventory.Line{ItemID: it.ItemID, Quantity: it.Quantity})
	}
	return out
}

// stamp sets the timestamp that belongs to status s.
func (o *Order) stamp(s Status, at time.Time) {
	t := at
	switch s {
	case StatusConfirmed:
		o.ConfirmedAt = &t
	case StatusShipped:
		o.ShippedAt = &t
	case StatusDelivered:
		o.DeliveredAt = &t
	case StatusCancelled:
		o.CancelledAt = &t
	}
	o.Status = s
	o.UpdatedAt = at
}

func (o *Order) clone() *Order {
	cp := *o
	cp.Items = append([]LineItem(nil), o.Items...)
	if o.Coupon != nil {
		c := *o.Coupon
		cp.Coupon = &c
	}
	return &cp
}
