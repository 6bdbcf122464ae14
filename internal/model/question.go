package model

import (
	"sort"

	"github.com/google/uuid"
)

// Question represents a single exam question. Options are stored keyed
// ("A", "B", ...) rather than by position, so reordering the presentation
// never changes which key is correct.
type Question struct {
	ID            uuid.UUID         `json:"id"`
	ExamID        uuid.UUID         `json:"exam_id"`
	QuestionText  string            `json:"question_text"`
	Options       map[string]string `json:"options"`
	CorrectOption string            `json:"correct_option"`
	OrderNum      int               `json:"order_num"`
}

// Option is one keyed answer choice; the key travels with its text so the
// correct-option reference survives shuffling.
type Option struct {
	Key  string `json:"key"`
	Text string `json:"text"`
}

// QuestionForStudent is a question without the correct answer, sent to students.
type QuestionForStudent struct {
	ID           uuid.UUID `json:"id"`
	QuestionText string    `json:"question_text"`
	Options      []Option  `json:"options"`
}

// ForStudent strips the correct option and flattens the keyed options into a
// stable, key-sorted slice. That order is the canonical input to the shuffler.
func (q *Question) ForStudent() QuestionForStudent {
	opts := make([]Option, 0, len(q.Options))
	for k, v := range q.Options {
		opts = append(opts, Option{Key: k, Text: v})
	}
	sort.Slice(opts, func(i, j int) bool { return opts[i].Key < opts[j].Key })

	return QuestionForStudent{
		ID:           q.ID,
		QuestionText: q.QuestionText,
		Options:      opts,
	}
}

// ExamPaper is the student-facing exam payload. Question and option order is
// already personalized for the requesting student.
type ExamPaper struct {
	ExamID          uuid.UUID            `json:"exam_id"`
	Title           string               `json:"title"`
	DurationMinutes int                  `json:"duration_minutes"`
	Questions       []QuestionForStudent `json:"questions"`
}

// AddQuestionRequest is the payload for adding a question to an exam.
type AddQuestionRequest struct {
	QuestionText  string            `json:"question_text" binding:"required,min=1,max=2000"`
	Options       map[string]string `json:"options" binding:"required,min=2"`
	CorrectOption string            `json:"correct_option" binding:"required,max=10"`
	OrderNum      int               `json:"order_num" binding:"min=0"`
}

// ReplaceQuestionsRequest is the payload for bulk replacing questions.
type ReplaceQuestionsRequest struct {
	Questions []AddQuestionRequest `json:"questions" binding:"required,min=1,dive"`
}
