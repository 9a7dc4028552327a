package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Channel is the Redis pub/sub channel shared by all server processes.
const Channel = "domino:events"

// RedisRelay publishes events through Redis so that every process attached
// to the same Redis sees them. Run re-delivers received events into the
// local Broker; Publish never writes to the Broker directly.
type RedisRelay struct {
	rdb    *redis.Client
	local  *Broker
	logger *slog.Logger
}

func NewRedisRelay(rdb *redis.Client, local *Broker, logger *slog.Logger) *RedisRelay {
	return &RedisRelay{rdb: rdb, local: local, logger: logger}
}

func (r *RedisRelay) Publish(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		r.logger.Error("encoding event", "error", err)
		return
	}
	if err := r.rdb.Publish(context.Background(), Channel, data).Err(); err != nil {
		// Keep local subscribers current even when Redis is unavailable.
		r.logger.Error("publishing event to redis", "game_id", ev.GameID, "error", err)
		r.local.deliver(ev.GameID, data)
	}
}

// Run subscribes to Channel until ctx is cancelled.
func (r *RedisRelay) Run(ctx context.Context) error {
	sub := r.rdb.Subscribe(ctx, Channel)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribing to %s: %w", Channel, err)
	}
	return r.forward(ctx, sub.Channel())
}

// forward delivers messages from ch to local subscribers until ctx ends or
// ch is closed.
func (r *RedisRelay) forward(ctx context.Context, ch <-chan *redis.Message) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				r.logger.Warn("dropping malformed event", "error", err)
				continue
			}
			r.local.deliver(ev.GameID, []byte(msg.Payload))
		}
	}
}
