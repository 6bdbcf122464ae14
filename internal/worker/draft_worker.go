package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cbtarena/cbtarena-backend/internal/config"
	"github.com/cbtarena/cbtarena-backend/internal/service"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DraftWorker consumes the draft persistence queue and UPSERTs draft answers
// to PostgreSQL, so an in-progress attempt survives a Redis flush.
type DraftWorker struct {
	pool *pgxpool.Pool
	rdb  *redis.Client
	log  zerolog.Logger
}

// NewDraftWorker creates a new DraftWorker.
func NewDraftWorker(pool *pgxpool.Pool, rdb *redis.Client, log zerolog.Logger) *DraftWorker {
	return &DraftWorker{
		pool: pool,
		rdb:  rdb,
		log:  log.With().Str("component", "draft_worker").Logger(),
	}
}

// Start begins the infinite worker loop. Call in a goroutine.
func (w *DraftWorker) Start(ctx context.Context) {
	w.log.Info().Msg("Worker started")

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Worker stopping...")
			// Drain remaining items before exit.
			w.drain(context.Background())
			w.log.Info().Msg("Worker stopped")
			return
		default:
			w.processNext(ctx)
		}
	}
}

func (w *DraftWorker) processNext(ctx context.Context) {
	// BLPop blocks until an item is available or timeout (1 second).
	result, err := w.rdb.BLPop(ctx, time.Second, config.WorkerKey.PersistDraftsQueue).Result()
	if err != nil {
		if err != redis.Nil && ctx.Err() == nil {
			w.log.Error().Err(err).Msg("BLPop error")
		}
		return
	}

	if len(result) < 2 {
		return
	}

	var payload service.DraftPayload
	if err := json.Unmarshal([]byte(result[1]), &payload); err != nil {
		w.log.Error().Err(err).Msg("Unmarshal error")
		return
	}

	if err := w.persistDraft(ctx, &payload); err != nil {
		w.log.Error().Err(err).
			Int("student_id", payload.StudentID).
			Str("exam_id", payload.ExamID).
			Msg("Persist error, retrying in 5s")
		// Push back to queue for retry.
		w.rdb.RPush(ctx, config.WorkerKey.PersistDraftsQueue, result[1])
		time.Sleep(5 * time.Second)
	}
}

func (w *DraftWorker) persistDraft(ctx context.Context, p *service.DraftPayload) error {
	examID, err := uuid.Parse(p.ExamID)
	if err != nil {
		return err
	}

	questionID, err := uuid.Parse(p.QuestionID)
	if err != nil {
		return err
	}

	// UPSERT the draft — creates or updates without locking.
	_, err = w.pool.Exec(ctx,
		`INSERT INTO draft_answers (exam_id, student_id, question_id, selected_option)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (exam_id, student_id, question_id) DO UPDATE
		 SET selected_option = EXCLUDED.selected_option, updated_at = NOW()`,
		examID, p.StudentID, questionID, p.SelectedOption,
	)
	return err
}

// drain processes all remaining items in the queue before shutdown.
func (w *DraftWorker) drain(ctx context.Context) {
	drained := 0
	for {
		result, err := w.rdb.LPop(ctx, config.WorkerKey.PersistDraftsQueue).Result()
		if err != nil {
			break
		}

		var payload service.DraftPayload
		if err := json.Unmarshal([]byte(result), &payload); err != nil {
			w.log.Error().Err(err).Msg("Drain unmarshal error")
			continue
		}

		if err := w.persistDraft(ctx, &payload); err != nil {
			w.log.Error().Err(err).Msg("Drain persist error")
			w.rdb.RPush(ctx, config.WorkerKey.PersistDraftsQueue, result)
			break
		}
		drained++
	}

	if drained > 0 {
		w.log.Info().Int("count", drained).Msg("Drained remaining items")
	}
}
