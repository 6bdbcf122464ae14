package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cbtarena/cbtarena-backend/internal/config"
	"github.com/cbtarena/cbtarena-backend/internal/model"
	"github.com/cbtarena/cbtarena-backend/internal/repository"
	"github.com/cbtarena/cbtarena-backend/internal/response"
	"github.com/cbtarena/cbtarena-backend/internal/shuffle"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Domain Errors
var (
	ErrNoQuestions      = errors.New("exam has no questions, cannot publish/start")
	ErrExamNotDraft     = errors.New("exam status is not DRAFT")
	ErrExamNotPublished = errors.New("exam status is not PUBLISHED")
)

// ExamService handles exam lifecycle, Redis payload caching and the
// per-student personalized paper.
type ExamService struct {
	examRepo     *repository.ExamRepository
	questionRepo *repository.QuestionRepository
	rdb          *redis.Client
	log          zerolog.Logger
}

// NewExamService creates a new ExamService.
func NewExamService(
	examRepo *repository.ExamRepository,
	questionRepo *repository.QuestionRepository,
	rdb *redis.Client,
	log zerolog.Logger,
) *ExamService {
	return &ExamService{
		examRepo:     examRepo,
		questionRepo: questionRepo,
		rdb:          rdb,
		log:          log.With().Str("component", "exam_service").Logger(),
	}
}

// GetByID retrieves an exam by its UUID.
func (s *ExamService) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	return s.examRepo.GetByID(ctx, id)
}

// List retrieves exams with pagination.
func (s *ExamService) List(ctx context.Context, page, perPage int) ([]model.Exam, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	limit := perPage
	offset := (page - 1) * perPage

	exams, total, err := s.examRepo.ListPaginated(ctx, limit, offset)
	if err != nil {
		return nil, nil, err
	}

	if exams == nil {
		exams = []model.Exam{}
	}

	totalPages := (total + perPage - 1) / perPage

	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: totalPages,
	}

	return exams, pagination, nil
}

// ListPublished retrieves all published exams, for the student lobby.
func (s *ExamService) ListPublished(ctx context.Context) ([]model.Exam, error) {
	return s.examRepo.ListPublished(ctx)
}

// Create inserts a new exam as DRAFT.
func (s *ExamService) Create(ctx context.Context, exam *model.Exam) error {
	exam.Status = model.ExamStatusDraft
	exam.Normalize()
	return s.examRepo.Create(ctx, exam)
}

// Update modifies an existing draft exam.
func (s *ExamService) Update(ctx context.Context, exam *model.Exam) error {
	existing, err := s.examRepo.GetByID(ctx, exam.ID)
	if err != nil {
		return err
	}
	if existing.Status != model.ExamStatusDraft {
		return ErrExamNotDraft
	}
	exam.Normalize()
	return s.examRepo.Update(ctx, exam)
}

// Delete removes a draft exam.
func (s *ExamService) Delete(ctx context.Context, id uuid.UUID) error {
	existing, err := s.examRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if existing.Status != model.ExamStatusDraft {
		return ErrExamNotDraft
	}
	return s.examRepo.Delete(ctx, id)
}

// ReplaceQuestions bulk-replaces a draft exam's questions.
func (s *ExamService) ReplaceQuestions(ctx context.Context, examID uuid.UUID, questions []model.Question) error {
	exam, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		return err
	}
	if exam.Status != model.ExamStatusDraft {
		return ErrExamNotDraft
	}
	return s.questionRepo.ReplaceForExam(ctx, examID, questions)
}

// Publish changes exam status to PUBLISHED and caches the student payload in
// Redis. An exam without questions cannot be published.
func (s *ExamService) Publish(ctx context.Context, examID uuid.UUID) error {
	exam, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		return fmt.Errorf("get exam: %w", err)
	}
	if exam.Status != model.ExamStatusDraft {
		return ErrExamNotDraft
	}

	if err := s.WarmExamCache(ctx, exam); err != nil {
		return err
	}

	if err := s.examRepo.UpdateStatus(ctx, examID, model.ExamStatusPublished); err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	s.log.Info().Str("exam_id", examID.String()).Msg("Exam published")
	return nil
}

// Archive retires a published exam. The cached payload is dropped so the
// student paper endpoint stops serving it.
func (s *ExamService) Archive(ctx context.Context, examID uuid.UUID) error {
	exam, err := s.examRepo.GetByID(ctx, examID)
	if err != nil {
		return fmt.Errorf("get exam: %w", err)
	}
	if exam.Status != model.ExamStatusPublished {
		return ErrExamNotPublished
	}

	if err := s.examRepo.UpdateStatus(ctx, examID, model.ExamStatusArchived); err != nil {
		return fmt.Errorf("update status: %w", err)
	}
	if err := s.rdb.Del(ctx, config.CacheKey.ExamPayloadKey(examID.String())).Err(); err != nil {
		s.log.Warn().Err(err).Str("exam_id", examID.String()).Msg("Failed to drop cached payload")
	}

	s.log.Info().Str("exam_id", examID.String()).Msg("Exam archived")
	return nil
}

// WarmExamCache loads an exam's student payload from PostgreSQL into Redis.
// The payload is cached in canonical order; per-student shuffling happens at
// read time so one cache entry serves every student.
func (s *ExamService) WarmExamCache(ctx context.Context, exam *model.Exam) error {
	questions, err := s.questionRepo.ListByExam(ctx, exam.ID)
	if err != nil {
		return fmt.Errorf("list questions: %w", err)
	}
	if len(questions) == 0 {
		return ErrNoQuestions
	}

	studentQuestions := make([]model.QuestionForStudent, len(questions))
	for i, q := range questions {
		studentQuestions[i] = q.ForStudent()
	}

	paper := model.ExamPaper{
		ExamID:          exam.ID,
		Title:           exam.Title,
		DurationMinutes: exam.DurationMinutes,
		Questions:       studentQuestions,
	}

	paperJSON, err := json.Marshal(paper)
	if err != nil {
		return fmt.Errorf("marshal paper: %w", err)
	}

	if err := s.rdb.Set(ctx, config.CacheKey.ExamPayloadKey(exam.ID.String()), paperJSON, 0).Err(); err != nil {
		return fmt.Errorf("cache to redis: %w", err)
	}

	s.log.Debug().
		Str("exam_id", exam.ID.String()).
		Int("questions", len(questions)).
		Msg("Cache warmed")
	return nil
}

// PrewarmAllCaches loads all published exams into Redis on application startup.
// This prevents any lazy-loading race conditions under thundering herd traffic.
func (s *ExamService) PrewarmAllCaches(ctx context.Context) error {
	exams, err := s.examRepo.ListPublished(ctx)
	if err != nil {
		return fmt.Errorf("list published exams: %w", err)
	}

	if len(exams) == 0 {
		s.log.Info().Msg("No published exams to prewarm")
		return nil
	}

	s.log.Info().Int("count", len(exams)).Msg("Prewarming published exams...")

	warmed := 0
	for i := range exams {
		if err := s.WarmExamCache(ctx, &exams[i]); err != nil {
			s.log.Warn().
				Err(err).
				Str("exam_id", exams[i].ID.String()).
				Msg("Failed to warm exam, skipping")
			continue
		}
		warmed++
	}

	s.log.Info().
		Int("warmed", warmed).
		Int("total", len(exams)).
		Msg("Prewarming complete")
	return nil
}

// GetShuffledPaper returns the exam paper personalized for one student:
// question order and option order are shuffled deterministically from the
// (student, exam) identity, so reloads and resumes always see the same
// arrangement without storing it anywhere.
func (s *ExamService) GetShuffledPaper(ctx context.Context, examID uuid.UUID, studentID int) (*model.ExamPaper, error) {
	paper, err := s.getCanonicalPaper(ctx, examID)
	if err != nil {
		return nil, err
	}

	questions := shuffle.Shuffle(shuffle.QuestionSeed(studentID, examID.String()), paper.Questions)
	for i := range questions {
		questions[i].Options = shuffle.Shuffle(
			shuffle.OptionSeed(studentID, examID.String(), questions[i].ID.String()),
			questions[i].Options,
		)
	}
	paper.Questions = questions

	return paper, nil
}

// getCanonicalPaper fetches the cached payload, rebuilding the cache from
// PostgreSQL if Redis lost it (eviction, restart).
func (s *ExamService) getCanonicalPaper(ctx context.Context, examID uuid.UUID) (*model.ExamPaper, error) {
	key := config.CacheKey.ExamPayloadKey(examID.String())

	data, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("get payload: %w", err)
		}

		exam, err := s.examRepo.GetByID(ctx, examID)
		if err != nil {
			return nil, err
		}
		if exam.Status != model.ExamStatusPublished {
			return nil, ErrExamNotPublished
		}
		if err := s.WarmExamCache(ctx, exam); err != nil {
			return nil, err
		}

		data, err = s.rdb.Get(ctx, key).Bytes()
		if err != nil {
			return nil, fmt.Errorf("get payload after warm: %w", err)
		}
	}

	var paper model.ExamPaper
	if err := json.Unmarshal(data, &paper); err != nil {
		return nil, fmt.Errorf("unmarshal paper: %w", err)
	}
	return &paper, nil
}
