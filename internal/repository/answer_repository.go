package repository

import (
	"context"

	"github.com/cbtarena/cbtarena-backend/internal/model"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// AnswerRepository reads graded answer rows. Writes happen exclusively
// inside the scoring transaction (AttemptTx.SaveAnswers).
type AnswerRepository struct {
	pool *pgxpool.Pool
}

// NewAnswerRepository creates a new AnswerRepository.
func NewAnswerRepository(pool *pgxpool.Pool) *AnswerRepository {
	return &AnswerRepository{pool: pool}
}

// ListByAttempt retrieves the graded answers of a finished attempt.
func (r *AnswerRepository) ListByAttempt(ctx context.Context, attemptID uuid.UUID) ([]model.StudentAnswer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT attempt_id, question_id, selected_option, is_correct
		 FROM student_answers
		 WHERE attempt_id = $1`, attemptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var answers []model.StudentAnswer
	for rows.Next() {
		var a model.StudentAnswer
		if err := rows.Scan(&a.AttemptID, &a.QuestionID, &a.SelectedOption, &a.IsCorrect); err != nil {
			return nil, err
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}
