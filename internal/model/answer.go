package model

import "github.com/google/uuid"

// StudentAnswer is one graded answer row, written only by the submission
// scorer. Unanswered questions get no row, so "not answered" stays
// distinguishable from "answered incorrectly".
type StudentAnswer struct {
	AttemptID      uuid.UUID `json:"attempt_id"`
	QuestionID     uuid.UUID `json:"question_id"`
	SelectedOption string    `json:"selected_option"`
	IsCorrect      bool      `json:"is_correct"`
}

// SubmitAttemptRequest is the submit payload: question ID → selected option
// key. Questions absent from the map count as unanswered.
type SubmitAttemptRequest struct {
	Answers map[string]string `json:"answers" binding:"required"`
}

// SubmitResult is the wire payload for a finalized attempt.
type SubmitResult struct {
	AttemptID    uuid.UUID `json:"attempt_id"`
	Score        float64   `json:"score"`
	CorrectCount int       `json:"correct_count"`
	TotalCount   int       `json:"total_count"`
}

// SaveDraftRequest is the autosave payload for one in-flight answer.
type SaveDraftRequest struct {
	QuestionID     string `json:"question_id" binding:"required,uuid"`
	SelectedOption string `json:"selected_option" binding:"required,max=10"`
}
