package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound      = errors.New("order not found")
	ErrStatusChanged = errors.New("order status changed concurrently")
)

// Filter scopes a listing. Empty fields do not filter.
type Filter struct {
	OwnerID  string
	VendorID string
}

type Repository interface {
	Create(ctx context.Context, o *Order) error
	GetByID(ctx context.Context, id string) (*Order, error)
	List(ctx context.Context, f Filter, limit, offset int) ([]Order, int, error)
	// Transition moves id from one status to another only if it is still in
	// from; otherwise it returns ErrStatusChanged.
	Transition(ctx context.Context, id string, from, to Status, at time.Time) error
}

type PGRepo struct{ db *pgxpool.Pool }

func NewPGRepo(db *pgxpool.Pool) *PGRepo { return &PGRepo{db: db} }

const orderColumns = `id, owner_id, address, contact_phone, payment_method, coupon,
	subtotal, discount, total, status, placed_at, confirmed_at, shipped_at, delivered_at, cancelled_at, updated_at`

func (r *PGRepo) Create(ctx context.Context, o *Order) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		INSERT INTO orders (id, owner_id, address, contact_phone, payment_method, coupon,
			subtotal, discount, total, status, placed_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$11)
	`, o.ID, o.OwnerID, o.Address, o.ContactPhone, o.PaymentMethod, o.Coupon,
		o.Subtotal, o.Discount, o.Total, o.Status, o.PlacedAt); err != nil {
		return err
	}

	for i, it := range o.Items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO order_items (order_id, position, item_id, vendor_id, name, quantity, unit_price)
			VALUES ($1,$2,$3,$4,$5,$6,$7)
		`, o.ID, i, it.ItemID, it.VendorID, it.Name, it.Quantity, it.UnitPrice); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func scanOrder(row pgx.Row) (*Order, error) {
	var o Order
	err := row.Scan(&o.ID, &o.OwnerID, &o.Address, &o.ContactPhone, &o.PaymentMethod, &o.Coupon,
		&o.Subtotal, &o.Discount, &o.Total, &o.Status, &o.PlacedAt,
		&o.ConfirmedAt, &o.ShippedAt, &o.DeliveredAt, &o.CancelledAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*Order, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	o, err := scanOrder(r.db.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id=$1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := r.loadItems(ctx, []*Order{o}); err != nil {
		return nil, err
	}
	return o, nil
}

func (r *PGRepo) List(ctx context.Context, f Filter, limit, offset int) ([]Order, int, error) {
	offset = max(offset, 0)
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	const where = `
		WHERE ($1 = '' OR owner_id::text = $1)
		  AND ($2 = '' OR EXISTS (SELECT 1 FROM order_items oi WHERE oi.order_id = orders.id AND oi.vendor_id::text = $2))`

	var total int
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM orders`+where, f.OwnerID, f.VendorID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.Query(ctx, `SELECT `+orderColumns+` FROM orders`+where+`
		ORDER BY placed_at DESC, id
		LIMIT $3 OFFSET $4`, f.OwnerID, f.VendorID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, o)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if err := r.loadItems(ctx, out); err != nil {
		return nil, 0, err
	}
	orders := make([]Order, 0, len(out))
	for _, o := range out {
		orders = append(orders, *o)
	}
	return orders, total, nil
}

func (r *PGRepo) loadItems(ctx context.Context, orders []*Order) error {
	if len(orders) == 0 {
		return nil
	}
	byID := make(map[string]*Order, len(orders))
	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		byID[o.ID] = o
		ids = append(ids, o.ID)
	}
	rows, err := r.db.Query(ctx, `
		SELECT order_id, item_id, vendor_id, name, quantity, unit_price
		FROM order_items WHERE order_id = ANY($1)
		ORDER BY order_id, position
	`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			orderID string
			it      LineItem
		)
		if err := rows.Scan(&orderID, &it.ItemID, &it.VendorID, &it.Name, &it.Quantity, &it.UnitPrice); err != nil {
			return err
		}
		if o, ok := byID[orderID]; ok {
			o.Items = append(o.Items, it)
		}
	}
	return rows.Err()
}

var stampColumn = map[Status]string{
	StatusConfirmed: "confirmed_at",
	StatusShipped:   "shipped_at",
	StatusDelivered: "delivered_at",
	StatusCancelled: "cancelled_at",
}

func (r *PGRepo) Transition(ctx context.Context, id string, from, to Status, at time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	col, ok := stampColumn[to]
	if !ok {
		return fmt.Errorf("no transition into %q", to)
	}
	tag, err := r.db.Exec(ctx, `
		UPDATE orders
		SET status = $3, `+col+` = $4, updated_at = $4
		WHERE id = $1 AND status = $2
	`, id, from, to, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	var exists bool
	if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE id=$1)`, id).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrStatusChanged
}
