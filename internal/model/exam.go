package model

import (
	"time"

	"github.com/cbtarena/cbtarena-backend/internal/timing"
	"github.com/google/uuid"
)

// ExamStatus enumerates the possible states of an exam.
type ExamStatus string

const (
	ExamStatusDraft     ExamStatus = "DRAFT"
	ExamStatusPublished ExamStatus = "PUBLISHED"
	ExamStatusArchived  ExamStatus = "ARCHIVED"
)

// Exam represents an exam entity together with its attempt settings.
// The attempt engine treats these fields as read-only.
type Exam struct {
	ID                uuid.UUID   `json:"id"`
	Title             string      `json:"title"`
	TimerMode         timing.Mode `json:"timer_mode"`
	DurationMinutes   int         `json:"duration_minutes"`
	MinTimeMinutes    int         `json:"min_time_minutes"`
	MaxAttempts       int         `json:"max_attempts"` // 0 = unlimited
	AvailabilityStart *time.Time  `json:"availability_start,omitempty"`
	AvailabilityEnd   *time.Time  `json:"availability_end,omitempty"`
	QuestionCount     int         `json:"question_count"`
	Status            ExamStatus  `json:"status"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// Normalize enforces the settings invariant after load: an exam without any
// availability window has no shared deadline to synchronize against, so its
// timer mode degrades to ASYNC.
func (e *Exam) Normalize() {
	if e.AvailabilityStart == nil && e.AvailabilityEnd == nil {
		e.TimerMode = timing.ModeAsync
	}
}

// Timing extracts the settings slice consumed by the timing calculator.
func (e *Exam) Timing() timing.Settings {
	return timing.Settings{
		Mode:              e.TimerMode,
		DurationMinutes:   e.DurationMinutes,
		MinTimeMinutes:    e.MinTimeMinutes,
		AvailabilityStart: e.AvailabilityStart,
		AvailabilityEnd:   e.AvailabilityEnd,
	}
}

// CreateExamRequest is the payload for creating a new exam.
type CreateExamRequest struct {
	Title             string     `json:"title" binding:"required,min=3,max=255"`
	TimerMode         string     `json:"timer_mode" binding:"required,oneof=SYNC ASYNC"`
	DurationMinutes   int        `json:"duration_minutes" binding:"required,min=1,max=480"`
	MinTimeMinutes    int        `json:"min_time_minutes" binding:"min=0,max=480"`
	MaxAttempts       int        `json:"max_attempts" binding:"min=0"`
	AvailabilityStart *time.Time `json:"availability_start" binding:"omitempty"`
	AvailabilityEnd   *time.Time `json:"availability_end" binding:"omitempty,gtfield=AvailabilityStart"`
}

// UpdateExamRequest is the payload for updating an existing draft exam.
type UpdateExamRequest struct {
	Title             string     `json:"title" binding:"omitempty,min=3,max=255"`
	TimerMode         string     `json:"timer_mode" binding:"omitempty,oneof=SYNC ASYNC"`
	DurationMinutes   int        `json:"duration_minutes" binding:"omitempty,min=1,max=480"`
	MinTimeMinutes    *int       `json:"min_time_minutes" binding:"omitempty,min=0,max=480"`
	MaxAttempts       *int       `json:"max_attempts" binding:"omitempty,min=0"`
	AvailabilityStart *time.Time `json:"availability_start" binding:"omitempty"`
	AvailabilityEnd   *time.Time `json:"availability_end" binding:"omitempty,gtfield=AvailabilityStart"`
}
