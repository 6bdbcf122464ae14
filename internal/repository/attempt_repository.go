package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cbtarena/cbtarena-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrAttemptNotFound is returned when an attempt row does not exist.
var ErrAttemptNotFound = errors.New("attempt not found")

// AttemptStore is the transactional surface the attempt engine runs on.
// Locking is enforced structurally: the only way to mutate attempt state is
// from inside one of the With*Lock callbacks, which always run in a single
// transaction that commits on nil and rolls back on error.
type AttemptStore interface {
	// WithLock serializes callers on the (exam, student) pair. Two
	// concurrent starts for the same pair cannot both observe "no active
	// attempt"; the loser blocks until the winner commits.
	WithLock(ctx context.Context, examID uuid.UUID, studentID int, fn func(tx AttemptTx) error) error

	// WithAttemptLock locks one existing attempt row (SELECT ... FOR UPDATE)
	// and hands its current state to fn. Used by submission and the
	// administrative mutations.
	WithAttemptLock(ctx context.Context, attemptID uuid.UUID, fn func(tx AttemptTx, att *model.ExamAttempt) error) error
}

// AttemptTx exposes the row operations available inside a locked transaction.
type AttemptTx interface {
	FindActive(ctx context.Context, examID uuid.UUID, studentID int) (*model.ExamAttempt, error)
	Create(ctx context.Context, examID uuid.UUID, studentID int, startedAt time.Time) (*model.ExamAttempt, error)
	CountByExamAndStudent(ctx context.Context, examID uuid.UUID, studentID int) (int, error)
	MarkCompleted(ctx context.Context, attemptID uuid.UUID, finishedAt time.Time, score *float64) error
	AddTimeCredit(ctx context.Context, attemptID uuid.UUID, seconds int) error
	SaveAnswers(ctx context.Context, answers []model.StudentAnswer) error
}

// AttemptRepository implements AttemptStore on PostgreSQL plus a few
// lock-free read paths used for display only.
type AttemptRepository struct {
	pool *pgxpool.Pool
}

// NewAttemptRepository creates a new AttemptRepository.
func NewAttemptRepository(pool *pgxpool.Pool) *AttemptRepository {
	return &AttemptRepository{pool: pool}
}

const attemptColumns = `id, exam_id, student_id, started_at, finished_at, status, final_score, time_credit_seconds`

func scanAttempt(row pgx.Row) (*model.ExamAttempt, error) {
	a := &model.ExamAttempt{}
	err := row.Scan(&a.ID, &a.ExamID, &a.StudentID, &a.StartedAt, &a.FinishedAt,
		&a.Status, &a.FinalScore, &a.TimeCreditSeconds)
	if err != nil {
		return nil, err
	}
	return a, nil
}

// WithLock runs fn inside a transaction holding a pg advisory lock scoped to
// the (exam, student) pair. The lock is released automatically at
// commit/rollback. The partial unique index on IN_PROGRESS rows is the
// backstop should anything ever write outside this path.
func (r *AttemptRepository) WithLock(ctx context.Context, examID uuid.UUID, studentID int, fn func(tx AttemptTx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin attempt tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	lockKey := fmt.Sprintf("attempt:%s:%d", examID, studentID)
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, lockKey); err != nil {
		return fmt.Errorf("acquire attempt lock: %w", err)
	}

	if err := fn(&attemptTx{tx: tx}); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// WithAttemptLock locks a single attempt row and passes its current state to fn.
func (r *AttemptRepository) WithAttemptLock(ctx context.Context, attemptID uuid.UUID, fn func(tx AttemptTx, att *model.ExamAttempt) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin attempt tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	att, err := scanAttempt(tx.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM exam_attempts WHERE id = $1 FOR UPDATE`, attemptID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrAttemptNotFound
		}
		return fmt.Errorf("lock attempt row: %w", err)
	}

	if err := fn(&attemptTx{tx: tx}, att); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// GetByID retrieves one attempt without locking. Display only — eligibility
// decisions never run on this path.
func (r *AttemptRepository) GetByID(ctx context.Context, attemptID uuid.UUID) (*model.ExamAttempt, error) {
	a, err := scanAttempt(r.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM exam_attempts WHERE id = $1`, attemptID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAttemptNotFound
		}
		return nil, err
	}
	return a, nil
}

// FindActiveByExamAndStudent retrieves the IN_PROGRESS attempt without
// locking, for the state/display endpoints.
func (r *AttemptRepository) FindActiveByExamAndStudent(ctx context.Context, examID uuid.UUID, studentID int) (*model.ExamAttempt, error) {
	a, err := scanAttempt(r.pool.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM exam_attempts
		 WHERE exam_id = $1 AND student_id = $2 AND status = $3`,
		examID, studentID, model.AttemptStatusInProgress))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAttemptNotFound
		}
		return nil, err
	}
	return a, nil
}

// ListByStudent retrieves all attempts for a student, newest first.
func (r *AttemptRepository) ListByStudent(ctx context.Context, studentID int) ([]model.ExamAttempt, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+attemptColumns+` FROM exam_attempts
		 WHERE student_id = $1
		 ORDER BY started_at DESC`, studentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAttempts(rows)
}

// AttemptResult combines student data with attempt details for admin listings.
type AttemptResult struct {
	AttemptID  uuid.UUID           `json:"attempt_id"`
	StudentID  int                 `json:"student_id"`
	Name       string              `json:"name"`
	NISN       string              `json:"nisn"`
	ClassName  string              `json:"class_name"`
	Status     model.AttemptStatus `json:"status"`
	FinalScore *float64            `json:"score"`
	StartedAt  time.Time           `json:"started_at"`
	FinishedAt *time.Time          `json:"finished_at"`
}

// ListByExam retrieves paginated attempt results for an exam.
func (r *AttemptRepository) ListByExam(ctx context.Context, examID uuid.UUID, page, perPage int) ([]AttemptResult, int64, error) {
	offset := (page - 1) * perPage

	var total int64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM exam_attempts WHERE exam_id = $1`, examID).Scan(&total)
	if err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT a.id, s.id, s.name, s.nisn, s.class_name,
		        a.status, a.final_score, a.started_at, a.finished_at
		 FROM exam_attempts a
		 JOIN students s ON a.student_id = s.id
		 WHERE a.exam_id = $1
		 ORDER BY s.class_name ASC, s.name ASC, a.started_at DESC
		 LIMIT $2 OFFSET $3`, examID, perPage, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var results []AttemptResult
	for rows.Next() {
		var res AttemptResult
		if err := rows.Scan(&res.AttemptID, &res.StudentID, &res.Name, &res.NISN, &res.ClassName,
			&res.Status, &res.FinalScore, &res.StartedAt, &res.FinishedAt); err != nil {
			return nil, 0, err
		}
		results = append(results, res)
	}
	return results, total, rows.Err()
}

func collectAttempts(rows pgx.Rows) ([]model.ExamAttempt, error) {
	var attempts []model.ExamAttempt
	for rows.Next() {
		var a model.ExamAttempt
		if err := rows.Scan(&a.ID, &a.ExamID, &a.StudentID, &a.StartedAt, &a.FinishedAt,
			&a.Status, &a.FinalScore, &a.TimeCreditSeconds); err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

// ────────────────────────────────────────────────────────────────────────────
// Transactional surface
// ────────────────────────────────────────────────────────────────────────────

type attemptTx struct {
	tx pgx.Tx
}

// FindActive returns the IN_PROGRESS attempt for the pair, or nil when none.
func (t *attemptTx) FindActive(ctx context.Context, examID uuid.UUID, studentID int) (*model.ExamAttempt, error) {
	a, err := scanAttempt(t.tx.QueryRow(ctx,
		`SELECT `+attemptColumns+` FROM exam_attempts
		 WHERE exam_id = $1 AND student_id = $2 AND status = $3
		 FOR UPDATE`,
		examID, studentID, model.AttemptStatusInProgress))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find active attempt: %w", err)
	}
	return a, nil
}

// Create inserts a new IN_PROGRESS attempt. startedAt is the server time the
// caller observed; it is immutable afterwards.
func (t *attemptTx) Create(ctx context.Context, examID uuid.UUID, studentID int, startedAt time.Time) (*model.ExamAttempt, error) {
	a := &model.ExamAttempt{
		ExamID:    examID,
		StudentID: studentID,
		StartedAt: startedAt,
		Status:    model.AttemptStatusInProgress,
	}
	err := t.tx.QueryRow(ctx,
		`INSERT INTO exam_attempts (exam_id, student_id, started_at, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		examID, studentID, startedAt, model.AttemptStatusInProgress,
	).Scan(&a.ID)
	if err != nil {
		return nil, fmt.Errorf("insert attempt: %w", err)
	}
	return a, nil
}

// CountByExamAndStudent counts every attempt the student has made on the
// exam, regardless of status. Used for max-attempt enforcement.
func (t *attemptTx) CountByExamAndStudent(ctx context.Context, examID uuid.UUID, studentID int) (int, error) {
	var n int
	err := t.tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM exam_attempts WHERE exam_id = $1 AND student_id = $2`,
		examID, studentID).Scan(&n)
	return n, err
}

// MarkCompleted transitions the attempt to COMPLETED. score may be nil for
// lazy expiration or administrative reset, where no grading happened.
func (t *attemptTx) MarkCompleted(ctx context.Context, attemptID uuid.UUID, finishedAt time.Time, score *float64) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE exam_attempts
		 SET status = $1, finished_at = $2, final_score = COALESCE($3, final_score)
		 WHERE id = $4 AND status = $5`,
		model.AttemptStatusCompleted, finishedAt, score, attemptID, model.AttemptStatusInProgress)
	if err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAttemptNotFound
	}
	return nil
}

// AddTimeCredit grants extra seconds to a running attempt.
func (t *attemptTx) AddTimeCredit(ctx context.Context, attemptID uuid.UUID, seconds int) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE exam_attempts
		 SET time_credit_seconds = time_credit_seconds + $1
		 WHERE id = $2 AND status = $3`,
		seconds, attemptID, model.AttemptStatusInProgress)
	if err != nil {
		return fmt.Errorf("add time credit: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAttemptNotFound
	}
	return nil
}

// SaveAnswers bulk-inserts the graded answer rows for an attempt.
func (t *attemptTx) SaveAnswers(ctx context.Context, answers []model.StudentAnswer) error {
	if len(answers) == 0 {
		return nil
	}

	rows := make([][]interface{}, 0, len(answers))
	for _, a := range answers {
		rows = append(rows, []interface{}{a.AttemptID, a.QuestionID, a.SelectedOption, a.IsCorrect})
	}

	_, err := t.tx.CopyFrom(
		ctx,
		pgx.Identifier{"student_answers"},
		[]string{"attempt_id", "question_id", "selected_option", "is_correct"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("copy student answers: %w", err)
	}
	return nil
}
