package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/adchub/hub/internal/session"
	"github.com/redis/go-redis/v9"
)

const (
	defaultStream       = "hub:events"
	defaultStreamMaxLen = 10000
	redisTimeout        = 2 * time.Second
)

// RedisPlugin appends every event to a Redis stream. The stream is trimmed
// to roughly maxLen entries; maxLen < 0 disables trimming.
type RedisPlugin struct {
	client *redis.Client
	stream string
	maxLen int64
}

func NewRedisPlugin(client *redis.Client, stream string, maxLen int64) *RedisPlugin {
	return &RedisPlugin{client: client, stream: stream, maxLen: maxLen}
}

// DialRedisPlugin connects to addr and checks the server answers.
func DialRedisPlugin(addr, stream string, maxLen int64) (*RedisPlugin, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return NewRedisPlugin(client, stream, maxLen), nil
}

func (p *RedisPlugin) Name() string { return "redis" }

func (p *RedisPlugin) OnEvent(ev session.Event, _ *session.User) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	args := &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"event": ev.Name,
			"sid":   ev.User.SID,
			"data":  data,
		},
	}
	if p.maxLen > 0 {
		args.MaxLen = p.maxLen
		args.Approx = true
	}

	ctx, cancel := context.WithTimeout(context.Background(), redisTimeout)
	defer cancel()
	return p.client.XAdd(ctx, args).Err()
}

func (p *RedisPlugin) Close() error {
	return p.client.Close()
}
