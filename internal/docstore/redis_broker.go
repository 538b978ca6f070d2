package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/redis/go-redis/v9"
)

const redisChannelPrefix = "docstore:changes:"

// RedisBroker fans changes out over Redis pub/sub so every instance behind a
// load balancer sees writes made by the others.
type RedisBroker struct {
	rdb *redis.Client
}

func NewRedisBroker(rdb *redis.Client) *RedisBroker {
	return &RedisBroker{rdb: rdb}
}

// NewRedisBrokerFromURL parses a redis:// URL and verifies the server answers.
func NewRedisBrokerFromURL(ctx context.Context, url string) (*RedisBroker, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisBroker{rdb: rdb}, nil
}

// ChangeChannel derives the Redis channel name for a collection.
func ChangeChannel(collection string) string {
	return redisChannelPrefix + collection
}

func (b *RedisBroker) Publish(ctx context.Context, change Change) error {
	payload, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("marshal change: %w", err)
	}
	return b.rdb.Publish(ctx, ChangeChannel(change.Collection), payload).Err()
}

func (b *RedisBroker) Listen(ctx context.Context, collection string, fn func(Change)) (func(), error) {
	sub := b.rdb.Subscribe(ctx, ChangeChannel(collection))
	// Wait for the subscription confirmation so no publish after Listen
	// returns can be missed.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, fmt.Errorf("subscribe %s: %w", collection, err)
	}
	ch := sub.Channel()

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var change Change
				if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
					slog.Warn("dropping malformed change", "channel", msg.Channel, "error", err)
					continue
				}
				func() {
					defer func() {
						if r := recover(); r != nil {
							slog.Error("panic in change listener", "panic", r, "stack", string(debug.Stack()))
						}
					}()
					fn(change)
				}()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}, nil
}

func (b *RedisBroker) Close() error {
	return b.rdb.Close()
}
