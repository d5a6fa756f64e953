package session

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PG stores sessions in user_sessions when Redis is not configured but
// Postgres is.
type PG struct{ db *pgxpool.Pool }

func NewPG(db *pgxpool.Pool) *PG { return &PG{db: db} }

func (p *PG) Append(ctx context.Context, userID string, rec Record) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := p.db.Exec(ctx, `
		INSERT INTO user_sessions (jti, user_id, device, issued_at, expires_at)
		VALUES ($1,$2,$3,$4,$5)
	`, rec.JTI, userID, rec.Device, rec.IssuedAt, rec.ExpiresAt)
	return err
}

func (p *PG) Has(ctx context.Context, userID, jti string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var ok bool
	err := p.db.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM user_sessions WHERE user_id=$1 AND jti=$2)
	`, userID, jti).Scan(&ok)
	return ok, err
}

func (p *PG) Remove(ctx context.Context, userID, jti string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := p.db.Exec(ctx, `DELETE FROM user_sessions WHERE user_id=$1 AND jti=$2`, userID, jti)
	return err
}

func (p *PG) Clear(ctx context.Context, userID string) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	_, err := p.db.Exec(ctx, `DELETE FROM user_sessions WHERE user_id=$1`, userID)
	return err
}

func (p *PG) List(ctx context.Context, userID string) ([]Record, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := p.db.Query(ctx, `
		SELECT jti, device, issued_at, expires_at
		FROM user_sessions WHERE user_id=$1
		ORDER BY issued_at, jti
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.JTI, &rec.Device, &rec.IssuedAt, &rec.ExpiresAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
