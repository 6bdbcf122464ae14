package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/cbtarena/cbtarena-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// QuestionRepository handles question data access. Options live in a jsonb
// column keyed by option letter; the key is the only thing grading compares.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ListByExam retrieves an exam's questions in authoring order.
func (r *QuestionRepository) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, exam_id, question_text, options, correct_option, order_num
		 FROM questions
		 WHERE exam_id = $1
		 ORDER BY order_num ASC, id ASC`, examID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		var q model.Question
		var opts []byte
		if err := rows.Scan(&q.ID, &q.ExamID, &q.QuestionText, &opts, &q.CorrectOption, &q.OrderNum); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(opts, &q.Options); err != nil {
			return nil, fmt.Errorf("decode options for question %s: %w", q.ID, err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// ReplaceForExam atomically swaps the full question set of an exam.
func (r *QuestionRepository) ReplaceForExam(ctx context.Context, examID uuid.UUID, questions []model.Question) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin replace questions tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM questions WHERE exam_id = $1`, examID); err != nil {
		return fmt.Errorf("clear questions: %w", err)
	}

	for _, q := range questions {
		opts, err := json.Marshal(q.Options)
		if err != nil {
			return fmt.Errorf("encode options: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`INSERT INTO questions (exam_id, question_text, options, correct_option, order_num)
			 VALUES ($1, $2, $3, $4, $5)`,
			examID, q.QuestionText, opts, q.CorrectOption, q.OrderNum); err != nil {
			return fmt.Errorf("insert question: %w", err)
		}
	}

	return tx.Commit(ctx)
}

// CountByExam returns how many questions an exam has.
func (r *QuestionRepository) CountByExam(ctx context.Context, examID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM questions WHERE exam_id = $1`, examID).Scan(&n)
	return n, err
}
