// Package audit is the fire-and-forget activity sink of the attempt engine.
// Events are queued to a Redis list for background persistence and published
// to the per-exam monitor channel for live admin dashboards. A failure here
// is logged and swallowed: audit must never block or roll back an attempt
// operation.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cbtarena/cbtarena-backend/internal/config"
	"github.com/cbtarena/cbtarena-backend/internal/model"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Recorder accepts activity events without reporting errors to the caller.
type Recorder interface {
	Record(ctx context.Context, event model.ActivityEvent)
}

// RedisRecorder queues events to Redis.
type RedisRecorder struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewRecorder creates a RedisRecorder.
func NewRecorder(rdb *redis.Client, log zerolog.Logger) *RedisRecorder {
	return &RedisRecorder{
		rdb: rdb,
		log: log.With().Str("component", "audit").Logger(),
	}
}

// Record queues one event for persistence and fans it out to the exam's
// monitor channel.
func (r *RedisRecorder) Record(ctx context.Context, event model.ActivityEvent) {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().Unix()
	}

	raw, err := json.Marshal(event)
	if err != nil {
		r.log.Error().Err(err).Str("type", string(event.Type)).Msg("Marshal event failed")
		return
	}

	pipe := r.rdb.Pipeline()
	pipe.RPush(ctx, config.WorkerKey.PersistActivityQueue, raw)
	pipe.Publish(ctx, config.CacheKey.ExamMonitorChannel(event.ExamID), raw)

	if _, err := pipe.Exec(ctx); err != nil {
		// Swallowed: attempt operations must not fail on audit errors.
		r.log.Warn().Err(err).Str("type", string(event.Type)).Msg("Queue event failed")
	}
}

// Nop discards every event. Useful in tests and CLIs.
type Nop struct{}

// Record implements Recorder.
func (Nop) Record(context.Context, model.ActivityEvent) {}
