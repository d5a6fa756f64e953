package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PGStore struct{ db *pgxpool.Pool }

func NewPGStore(db *pgxpool.Pool) *PGStore { return &PGStore{db: db} }

const itemColumns = `id, vendor_id, name, price, stock, category_id, created_at, updated_at`

func scanItem(row pgx.Row) (*Item, error) {
	var it Item
	err := row.Scan(&it.ID, &it.VendorID, &it.Name, &it.Price, &it.Stock, &it.CategoryID, &it.CreatedAt, &it.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (s *PGStore) Create(ctx context.Context, it *Item) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return s.db.QueryRow(ctx, `
		INSERT INTO items (id, vendor_id, name, price, stock, category_id, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,NOW(),NOW())
		RETURNING created_at, updated_at
	`, it.ID, it.VendorID, it.Name, it.Price, it.Stock, it.CategoryID).Scan(&it.CreatedAt, &it.UpdatedAt)
}

func (s *PGStore) Get(ctx context.Context, id string) (*Item, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	return scanItem(s.db.QueryRow(ctx, `SELECT `+itemColumns+` FROM items WHERE id=$1`, id))
}

func (s *PGStore) GetMany(ctx context.Context, ids []string) (map[string]Item, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := s.db.Query(ctx, `SELECT `+itemColumns+` FROM items WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]Item, len(ids))
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		out[it.ID] = *it
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, id := range ids {
		if _, ok := out[id]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
	}
	return out, nil
}

// Reserve decrements every line with a conditional update inside one
// transaction. Row locks are taken in id order; any shortfall rolls the whole
// batch back.
func (s *PGStore) Reserve(ctx context.Context, orderID string, lines []Line) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var short []Shortfall
	movs := make([]Movement, 0, len(lines))
	now := time.Now().UTC()
	for _, l := range lines {
		var next int
		err := tx.QueryRow(ctx, `
			UPDATE items SET stock = stock - $2, updated_at = NOW()
			WHERE id = $1 AND stock >= $2
			RETURNING stock
		`, l.ItemID, l.Quantity).Scan(&next)
		if errors.Is(err, pgx.ErrNoRows) {
			var available int
			if err := tx.QueryRow(ctx, `SELECT stock FROM items WHERE id=$1 FOR UPDATE`, l.ItemID).Scan(&available); err != nil {
				if errors.Is(err, pgx.ErrNoRows) {
					return fmt.Errorf("%w: %s", ErrNotFound, l.ItemID)
				}
				return err
			}
			short = append(short, Shortfall{ItemID: l.ItemID, Requested: l.Quantity, Available: available})
			continue
		}
		if err != nil {
			return err
		}
		movs = append(movs, newMovement(l.ItemID, orderID, MovementReserved, l.Quantity, next+l.Quantity, next, now))
	}
	if len(short) > 0 {
		return &InsufficientStockError{Items: short}
	}
	if err := insertMovements(ctx, tx, movs); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PGStore) Release(ctx context.Context, orderID string, lines []Line) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	movs := make([]Movement, 0, len(lines))
	now := time.Now().UTC()
	for _, l := range lines {
		var next int
		err := tx.QueryRow(ctx, `
			UPDATE items SET stock = stock + $2, updated_at = NOW()
			WHERE id = $1
			RETURNING stock
		`, l.ItemID, l.Quantity).Scan(&next)
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("%w: %s", ErrNotFound, l.ItemID)
		}
		if err != nil {
			return err
		}
		movs = append(movs, newMovement(l.ItemID, orderID, MovementReleased, l.Quantity, next-l.Quantity, next, now))
	}
	if err := insertMovements(ctx, tx, movs); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func (s *PGStore) Restock(ctx context.Context, id string, qty int) (*Item, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	it, err := scanItem(tx.QueryRow(ctx, `
		UPDATE items SET stock = stock + $2, updated_at = NOW()
		WHERE id = $1
		RETURNING `+itemColumns, id, qty))
	if err != nil {
		return nil, err
	}
	mv := newMovement(id, "", MovementRestocked, qty, it.Stock-qty, it.Stock, time.Now().UTC())
	if err := insertMovements(ctx, tx, []Movement{mv}); err != nil {
		return nil, err
	}
	return it, tx.Commit(ctx)
}

func (s *PGStore) Movements(ctx context.Context, itemID string) ([]Movement, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := s.db.Query(ctx, `
		SELECT id, item_id, COALESCE(order_id::text, ''), type, quantity, prev_stock, new_stock, created_at
		FROM stock_movements WHERE item_id=$1
		ORDER BY created_at, id
	`, itemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Movement
	for rows.Next() {
		var mv Movement
		if err := rows.Scan(&mv.ID, &mv.ItemID, &mv.OrderID, &mv.Type, &mv.Quantity, &mv.PrevStock, &mv.NewStock, &mv.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, mv)
	}
	return out, rows.Err()
}

func insertMovements(ctx context.Context, tx pgx.Tx, movs []Movement) error {
	batch := &pgx.Batch{}
	for _, mv := range movs {
		var orderID *string
		if mv.OrderID != "" {
			orderID = &mv.OrderID
		}
		batch.Queue(`
			INSERT INTO stock_movements (id, item_id, order_id, type, quantity, prev_stock, new_stock, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
		`, mv.ID, mv.ItemID, orderID, mv.Type, mv.Quantity, mv.PrevStock, mv.NewStock, mv.CreatedAt)
	}
	return tx.SendBatch(ctx, batch).Close()
}
