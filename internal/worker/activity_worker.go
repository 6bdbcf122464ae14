package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cbtarena/cbtarena-backend/internal/config"
	"github.com/cbtarena/cbtarena-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const (
	BatchSize    = 50
	BatchTimeout = 2 * time.Second
	PollTimeout  = 1 * time.Second // Must be >= 1s to satisfy Redis
)

// ActivityWorker consumes the attempt activity queue and bulk-inserts events
// into activity_logs. The attempt engine only pays the cost of a Redis push;
// durable persistence happens here.
type ActivityWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewActivityWorker creates a new ActivityWorker.
func NewActivityWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *ActivityWorker {
	return &ActivityWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "activity_worker").Logger(),
	}
}

// Start begins the batching loop. Call in a goroutine.
func (w *ActivityWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	buffer := make([]*model.ActivityEvent, 0, BatchSize)
	lastFlushTime := time.Now()

	for {
		// 1. Check flush conditions (time or size).
		if len(buffer) > 0 {
			if len(buffer) >= BatchSize || time.Since(lastFlushTime) >= BatchTimeout {
				w.flushSafe(ctx, buffer)
				buffer = buffer[:0] // Clear buffer, keep capacity
				lastFlushTime = time.Now()
			}
		}

		// 2. Check context (graceful shutdown).
		select {
		case <-ctx.Done():
			w.shutdown(buffer)
			return
		default:
		}

		// 3. Fetch from Redis. BLPop blocks for 1 second, returns
		// immediately if data exists.
		result, err := w.rdb.BLPop(ctx, PollTimeout, config.WorkerKey.PersistActivityQueue).Result()
		if err != nil {
			if err == redis.Nil {
				continue // Queue empty, loop back to check flush timer
			}
			if ctx.Err() != nil {
				return
			}
			w.log.Error().Err(err).Msg("Redis connection error, sleeping 3s")
			time.Sleep(3 * time.Second)
			continue
		}

		if len(result) < 2 {
			continue
		}

		var event model.ActivityEvent
		if err := json.Unmarshal([]byte(result[1]), &event); err != nil {
			// Malformed JSON cannot be retried. Log and discard.
			w.log.Error().Err(err).Str("data", result[1]).Msg("Discarding malformed JSON")
			continue
		}

		buffer = append(buffer, &event)
	}
}

// flushSafe attempts bulk insert, then row-by-row fallback, then requeue.
func (w *ActivityWorker) flushSafe(ctx context.Context, batch []*model.ActivityEvent) {
	if err := w.bulkInsert(ctx, batch); err != nil {
		w.log.Warn().Err(err).Int("count", len(batch)).Msg("Bulk insert failed, attempting row-by-row recovery")
		w.fallbackInsert(ctx, batch)
	}
}

func (w *ActivityWorker) bulkInsert(ctx context.Context, batch []*model.ActivityEvent) error {
	rows := make([][]interface{}, 0, len(batch))
	for _, e := range batch {
		examID, err := uuid.Parse(e.ExamID)
		if err != nil {
			// Trigger fallback, which handles the bad UUID individually.
			return err
		}
		rows = append(rows, []interface{}{
			examID, e.StudentID, string(e.Type), detailJSON(e), time.Unix(e.Timestamp, 0),
		})
	}

	_, err := w.pool.CopyFrom(
		ctx,
		pgx.Identifier{"activity_logs"},
		[]string{"exam_id", "student_id", "activity_type", "detail", "recorded_at"},
		pgx.CopyFromRows(rows),
	)
	return err
}

func (w *ActivityWorker) fallbackInsert(ctx context.Context, batch []*model.ActivityEvent) {
	requeueList := make([]*model.ActivityEvent, 0)

	for _, e := range batch {
		examID, err := uuid.Parse(e.ExamID)
		if err != nil {
			w.log.Error().Str("exam_id", e.ExamID).Msg("Dropping activity event with invalid UUID")
			continue
		}

		_, err = w.pool.Exec(ctx,
			`INSERT INTO activity_logs (exam_id, student_id, activity_type, detail, recorded_at)
             VALUES ($1, $2, $3, $4::jsonb, $5)`,
			examID, e.StudentID, string(e.Type), detailJSON(e), time.Unix(e.Timestamp, 0),
		)
		if err != nil {
			// Requeue on any insert failure; a DB outage looks the same as a
			// data error here and losing audit rows is worse than a retry.
			w.log.Error().Err(err).Int("student_id", e.StudentID).Msg("Insert failed, requeueing")
			requeueList = append(requeueList, e)
		}
	}

	if len(requeueList) > 0 {
		w.requeue(ctx, requeueList)
	}
}

func (w *ActivityWorker) requeue(ctx context.Context, items []*model.ActivityEvent) {
	pipe := w.rdb.Pipeline()
	for _, e := range items {
		data, _ := json.Marshal(e)
		pipe.RPush(ctx, config.WorkerKey.PersistActivityQueue, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		w.log.Error().Err(err).Msg("CRITICAL: Failed to requeue items to Redis. Data loss occurred.")
	} else {
		w.log.Info().Int("count", len(items)).Msg("Requeued failed items back to Redis")
		// Avoid thrashing if the DB is down hard.
		time.Sleep(2 * time.Second)
	}
}

func (w *ActivityWorker) shutdown(buffer []*model.ActivityEvent) {
	w.log.Info().Msg("Worker stopping, flushing remaining buffer...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if len(buffer) > 0 {
		w.flushSafe(shutdownCtx, buffer)
	}
}

func detailJSON(e *model.ActivityEvent) string {
	if len(e.Detail) == 0 {
		return "{}"
	}
	return string(e.Detail)
}
