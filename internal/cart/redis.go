package cart

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis stores a cart as the hash cart:<userID> of item id to quantity.
// Idle carts expire after ttl.
type Redis struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedis(rdb redis.Cmdable, ttl time.Duration) *Redis { return &Redis{rdb: rdb, ttl: ttl} }

func cartKey(userID string) string { return fmt.Sprintf("cart:%s", userID) }

func (r *Redis) Get(ctx context.Context, userID string) ([]Line, error) {
	fields, err := r.rdb.HGetAll(ctx, cartKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Line, 0, len(fields))
	for id, raw := range fields {
		q, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("cart %s item %s: %w", userID, id, err)
		}
		if q > 0 {
			out = append(out, Line{ItemID: id, Quantity: q})
		}
	}
	sortLines(out)
	return out, nil
}

func (r *Redis) Add(ctx context.Context, userID, itemID string, qty int) error {
	key := cartKey(userID)
	n, err := r.rdb.HIncrBy(ctx, key, itemID, int64(qty)).Result()
	if err != nil {
		return err
	}
	if n <= 0 {
		if err := r.rdb.HDel(ctx, key, itemID).Err(); err != nil {
			return err
		}
	}
	return r.rdb.Expire(ctx, key, r.ttl).Err()
}

func (r *Redis) Clear(ctx context.Context, userID string) error {
	return r.rdb.Del(ctx, cartKey(userID)).Err()
}
