package model

import (
	"time"

	"github.com/google/uuid"
)

// AttemptStatus enumerates exam attempt states. An attempt only ever moves
// IN_PROGRESS → COMPLETED, never back.
type AttemptStatus string

const (
	AttemptStatusInProgress AttemptStatus = "IN_PROGRESS"
	AttemptStatusCompleted  AttemptStatus = "COMPLETED"
)

// ExamAttempt represents one student's run of one exam. At most one
// IN_PROGRESS row may exist per (exam, student) at any instant; the store
// enforces this with a partial unique index plus a per-pair lock.
type ExamAttempt struct {
	ID                uuid.UUID     `json:"id"`
	ExamID            uuid.UUID     `json:"exam_id"`
	StudentID         int           `json:"student_id"`
	StartedAt         time.Time     `json:"started_at"`
	FinishedAt        *time.Time    `json:"finished_at,omitempty"`
	Status            AttemptStatus `json:"status"`
	FinalScore        *float64      `json:"final_score,omitempty"`
	TimeCreditSeconds int           `json:"time_credit_seconds"`
}

// TimeCredit returns the administratively granted extension as a duration.
func (a *ExamAttempt) TimeCredit() time.Duration {
	return time.Duration(a.TimeCreditSeconds) * time.Second
}

// StartDecision tells the caller whether startOrResume created a fresh
// attempt or handed back an existing one.
type StartDecision string

const (
	StartDecisionCreated StartDecision = "created"
	StartDecisionResumed StartDecision = "resumed"
)

// StartAttemptResult is the wire payload for a successful start/resume.
type StartAttemptResult struct {
	Decision         StartDecision `json:"decision"`
	Attempt          *ExamAttempt  `json:"attempt"`
	RemainingSeconds int           `json:"remaining_seconds"`
}

// AttemptState is the periodic re-sync payload for a running attempt: the
// client corrects its countdown from RemainingSeconds and restores draft
// answers after a reload.
type AttemptState struct {
	Attempt          *ExamAttempt      `json:"attempt"`
	RemainingSeconds int               `json:"remaining_seconds"`
	SubmitAllowed    bool              `json:"submit_allowed"`
	DraftAnswers     map[string]string `json:"draft_answers"`
}

// ExtendTimeRequest is the admin payload for granting extra time.
type ExtendTimeRequest struct {
	ExtraMinutes int `json:"extra_minutes" binding:"required,min=1,max=240"`
}
