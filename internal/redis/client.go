package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	connectAttempts = 3
	connectBackoff  = 500 * time.Millisecond
)

// NewRedisClient connects to the Redis shared by gateway replicas. Locks are
// the only traffic, so the pool stays small. The first ping is retried to
// ride out a Redis that starts alongside the gateway.
func NewRedisClient(ctx context.Context, addr, username, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Username:     username,
		Password:     password,
		ClientName:   "clinic-gateway",
		DialTimeout:  2 * time.Second,
		ReadTimeout:  time.Second,
		WriteTimeout: time.Second,
		PoolSize:     4,
	})

	var err error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		err = rdb.Ping(pingCtx).Err()
		cancel()
		if err == nil {
			return rdb, nil
		}
		if attempt == connectAttempts {
			break
		}

		select {
		case <-ctx.Done():
			_ = rdb.Close()
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * connectBackoff):
		}
	}

	_ = rdb.Close()
	return nil, fmt.Errorf("ping redis at %s after %d attempts: %w", addr, connectAttempts, err)
}
