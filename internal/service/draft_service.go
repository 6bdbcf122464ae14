package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cbtarena/cbtarena-backend/internal/config"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DraftService stores in-progress answer drafts in Redis and queues them for
// durable persistence. Drafts are a crash-recovery convenience only; the
// graded submission payload is what the client sends at submit time.
type DraftService struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewDraftService creates a new DraftService.
func NewDraftService(rdb *redis.Client, log zerolog.Logger) *DraftService {
	return &DraftService{
		rdb: rdb,
		log: log.With().Str("component", "draft_service").Logger(),
	}
}

// DraftPayload is the queue item consumed by the draft persistence worker.
type DraftPayload struct {
	StudentID      int    `json:"student_id"`
	ExamID         string `json:"exam_id"`
	QuestionID     string `json:"question_id"`
	SelectedOption string `json:"selected_option"`
}

// Save writes one draft answer to the student's Redis hash and enqueues it
// for the background UPSERT into PostgreSQL.
func (s *DraftService) Save(ctx context.Context, examID uuid.UUID, studentID int, questionID uuid.UUID, selectedOption string) error {
	key := config.CacheKey.StudentDraftAnswersKey(examID.String(), studentID)

	item, err := json.Marshal(DraftPayload{
		StudentID:      studentID,
		ExamID:         examID.String(),
		QuestionID:     questionID.String(),
		SelectedOption: selectedOption,
	})
	if err != nil {
		return fmt.Errorf("marshal draft: %w", err)
	}

	pipe := s.rdb.Pipeline()
	pipe.HSet(ctx, key, questionID.String(), selectedOption)
	pipe.RPush(ctx, config.WorkerKey.PersistDraftsQueue, item)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save draft: %w", err)
	}
	return nil
}

// List returns the student's drafts for one exam, keyed by question ID.
func (s *DraftService) List(ctx context.Context, examID uuid.UUID, studentID int) (map[string]string, error) {
	key := config.CacheKey.StudentDraftAnswersKey(examID.String(), studentID)
	drafts, err := s.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("list drafts: %w", err)
	}
	return drafts, nil
}

// Clear drops the Redis draft hash after a successful submission. Rows the
// worker already persisted stay in PostgreSQL as history.
func (s *DraftService) Clear(ctx context.Context, examID uuid.UUID, studentID int) {
	key := config.CacheKey.StudentDraftAnswersKey(examID.String(), studentID)
	if err := s.rdb.Del(ctx, key).Err(); err != nil {
		s.log.Warn().Err(err).
			Int("student_id", studentID).
			Str("exam_id", examID.String()).
			Msg("Failed to clear drafts")
	}
}
