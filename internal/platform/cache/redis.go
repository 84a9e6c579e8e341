package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const pingTimeout = 3 * time.Second

// Connect opens a Redis client and pings it once. An unreachable server is
// logged, not fatal: Versioned reads fall through to their loaders and the
// PDF cache is skipped until Redis answers.
func Connect(ctx context.Context, addr string, logger *slog.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{Addr: addr})

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil && logger != nil {
		logger.Warn("redis ping", slog.String("addr", addr), slog.Any("error", err))
	}
	return client
}

// Close releases client, logging failures.
func Close(client *redis.Client, logger *slog.Logger) {
	if client == nil {
		return
	}
	if err := client.Close(); err != nil && logger != nil {
		logger.Warn("redis close", slog.Any("error", err))
	}
}
