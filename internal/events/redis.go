package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/playrummy/backend/internal/session"
)

// recentLimit caps the per-session list of recent events
const recentLimit = 200

// RedisPublisher publishes each event as JSON on a pub/sub channel and
// keeps the most recent ones in a capped list per session.
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
}

// NewRedisPublisher creates a publisher on the given channel
func NewRedisPublisher(rdb *redis.Client, channel string) *RedisPublisher {
	return &RedisPublisher{rdb: rdb, channel: channel}
}

func (p *RedisPublisher) Name() string { return "redis" }

// RecentKey is the list holding a session's latest events
func RecentKey(sessionID string) string {
	return "rummy:session:" + sessionID + ":events"
}

// Write publishes one event and appends it to the session's recent list
func (p *RedisPublisher) Write(ctx context.Context, e session.Event) error {
	b, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	key := RecentKey(e.SessionID.String())
	pipe := p.rdb.TxPipeline()
	pipe.Publish(ctx, p.channel, b)
	pipe.RPush(ctx, key, b)
	pipe.LTrim(ctx, key, -recentLimit, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("publish event %d: %w", e.Seq, err)
	}
	return nil
}

// Recent returns up to limit of the latest events recorded for a session
func (p *RedisPublisher) Recent(ctx context.Context, sessionID string, limit int64) ([]session.Event, error) {
	if limit <= 0 || limit > recentLimit {
		limit = recentLimit
	}
	raw, err := p.rdb.LRange(ctx, RecentKey(sessionID), -limit, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("read recent events: %w", err)
	}

	out := make([]session.Event, 0, len(raw))
	for _, r := range raw {
		var e session.Event
		if err := json.Unmarshal([]byte(r), &e); err != nil {
			return nil, fmt.Errorf("decode recent event: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}
