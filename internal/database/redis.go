package database

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/cbtarena/cbtarena-backend/internal/config"
)

// NewRedisClient connects to Redis and verifies the connection. Redis backs
// the paper cache, draft autosave, worker queues and the monitor pub/sub,
// so the server refuses to start without it.
func NewRedisClient(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*redis.Client, error) {
	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}

	rdb := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	log.Info().Str("addr", opt.Addr).Int("db", opt.DB).Msg("redis ready")
	return rdb, nil
}
