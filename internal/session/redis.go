package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis keeps each user's sessions in the hash sessions:<userID>, one field
// per token id. The hash expires together with the newest token.
type Redis struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewRedis(rdb redis.Cmdable, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl}
}

func sessionsKey(userID string) string { return fmt.Sprintf("sessions:%s", userID) }

func (r *Redis) Append(ctx context.Context, userID string, rec Record) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	key := sessionsKey(userID)
	pipe := r.rdb.TxPipeline()
	pipe.HSet(ctx, key, rec.JTI, raw)
	pipe.Expire(ctx, key, r.ttl)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *Redis) Has(ctx context.Context, userID, jti string) (bool, error) {
	return r.rdb.HExists(ctx, sessionsKey(userID), jti).Result()
}

func (r *Redis) Remove(ctx context.Context, userID, jti string) error {
	return r.rdb.HDel(ctx, sessionsKey(userID), jti).Err()
}

func (r *Redis) Clear(ctx context.Context, userID string) error {
	return r.rdb.Del(ctx, sessionsKey(userID)).Err()
}

func (r *Redis) List(ctx context.Context, userID string) ([]Record, error) {
	fields, err := r.rdb.HGetAll(ctx, sessionsKey(userID)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(fields))
	for _, raw := range fields {
		var rec Record
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("decode session: %w", err)
		}
		out = append(out, rec)
	}
	sortRecords(out)
	return out, nil
}
