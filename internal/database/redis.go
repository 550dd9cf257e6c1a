package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis holds two connections to the same server. Store carries session
// reads and writes plus the blocking generation queue; Events is reserved
// for pub/sub so a BLPOP never delays a subscription.
type Redis struct {
	Store  *redis.Client
	Events *redis.Client
}

func OpenRedis(redisURL string) (*Redis, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	store, err := connectRedis(ctx, "store", opt)
	if err != nil {
		return nil, err
	}
	eventsOpt := *opt
	events, err := connectRedis(ctx, "events", &eventsOpt)
	if err != nil {
		store.Close()
		return nil, err
	}

	return &Redis{Store: store, Events: events}, nil
}

func connectRedis(ctx context.Context, role string, opt *redis.Options) (*redis.Client, error) {
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping Redis (%s): %w", role, err)
	}
	return client, nil
}

func (r *Redis) Close() {
	r.Store.Close()
	r.Events.Close()
}
