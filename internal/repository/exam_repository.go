package repository

import (
	"context"
	"errors"

	"github.com/cbtarena/cbtarena-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrExamNotFound is returned when an exam row does not exist.
var ErrExamNotFound = errors.New("exam not found")

// ExamRepository handles exam data access. The attempt engine consumes it
// read-only; writes come from the admin surface.
type ExamRepository struct {
	pool *pgxpool.Pool
}

// NewExamRepository creates a new ExamRepository.
func NewExamRepository(pool *pgxpool.Pool) *ExamRepository {
	return &ExamRepository{pool: pool}
}

const examColumns = `e.id, e.title, e.timer_mode, e.duration_minutes, e.min_time_minutes,
	e.max_attempts, e.availability_start, e.availability_end, e.status,
	(SELECT COUNT(*) FROM questions q WHERE q.exam_id = e.id) AS question_count,
	e.created_at, e.updated_at`

func scanExam(row pgx.Row) (*model.Exam, error) {
	e := &model.Exam{}
	err := row.Scan(&e.ID, &e.Title, &e.TimerMode, &e.DurationMinutes, &e.MinTimeMinutes,
		&e.MaxAttempts, &e.AvailabilityStart, &e.AvailabilityEnd, &e.Status,
		&e.QuestionCount, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	e.Normalize()
	return e, nil
}

// GetByID retrieves an exam by its UUID.
func (r *ExamRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	e, err := scanExam(r.pool.QueryRow(ctx,
		`SELECT `+examColumns+` FROM exams e WHERE e.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrExamNotFound
		}
		return nil, err
	}
	return e, nil
}

// Create inserts a new exam.
func (r *ExamRepository) Create(ctx context.Context, e *model.Exam) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO exams (title, timer_mode, duration_minutes, min_time_minutes,
		                    max_attempts, availability_start, availability_end, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at, updated_at`,
		e.Title, e.TimerMode, e.DurationMinutes, e.MinTimeMinutes,
		e.MaxAttempts, e.AvailabilityStart, e.AvailabilityEnd, e.Status,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

// Update modifies an existing exam's settings.
func (r *ExamRepository) Update(ctx context.Context, e *model.Exam) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exams
		 SET title = $1, timer_mode = $2, duration_minutes = $3, min_time_minutes = $4,
		     max_attempts = $5, availability_start = $6, availability_end = $7,
		     updated_at = NOW()
		 WHERE id = $8`,
		e.Title, e.TimerMode, e.DurationMinutes, e.MinTimeMinutes,
		e.MaxAttempts, e.AvailabilityStart, e.AvailabilityEnd, e.ID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrExamNotFound
	}
	return nil
}

// UpdateStatus transitions the exam lifecycle status.
func (r *ExamRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.ExamStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE exams SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrExamNotFound
	}
	return nil
}

// Delete removes a draft exam.
func (r *ExamRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM exams WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrExamNotFound
	}
	return nil
}

// ListPaginated retrieves exams ordered by creation, newest first.
func (r *ExamRepository) ListPaginated(ctx context.Context, limit, offset int) ([]model.Exam, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM exams`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+examColumns+` FROM exams e
		 ORDER BY e.created_at DESC
		 LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	exams, err := collectExams(rows)
	if err != nil {
		return nil, 0, err
	}
	return exams, total, nil
}

// ListPublished retrieves all published exams, e.g. for cache prewarming and
// the student lobby.
func (r *ExamRepository) ListPublished(ctx context.Context) ([]model.Exam, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+examColumns+` FROM exams e
		 WHERE e.status = $1
		 ORDER BY e.availability_start ASC NULLS LAST, e.created_at DESC`,
		model.ExamStatusPublished)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectExams(rows)
}

func collectExams(rows pgx.Rows) ([]model.Exam, error) {
	var exams []model.Exam
	for rows.Next() {
		e := model.Exam{}
		if err := rows.Scan(&e.ID, &e.Title, &e.TimerMode, &e.DurationMinutes, &e.MinTimeMinutes,
			&e.MaxAttempts, &e.AvailabilityStart, &e.AvailabilityEnd, &e.Status,
			&e.QuestionCount, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		e.Normalize()
		exams = append(exams, e)
	}
	return exams, rows.Err()
}
