package notify

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// LogSink writes each event to the log.
type LogSink struct{ Log *slog.Logger }

func (s LogSink) Deliver(_ context.Context, ev Event) error {
	s.Log.Info("notify", "event", ev.Name, "order_id", ev.OrderID, "status", ev.Status, "audience", ev.Audience)
	return nil
}

// RedisSink publishes each event as JSON on a pub/sub channel for the
// delivery services to consume.
type RedisSink struct {
	rdb     redis.Cmdable
	channel string
}

func NewRedisSink(rdb redis.Cmdable, channel string) *RedisSink {
	return &RedisSink{rdb: rdb, channel: channel}
}

func (s *RedisSink) Deliver(ctx context.Context, ev Event) error {
	raw, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.rdb.Publish(ctx, s.channel, raw).Err()
}
