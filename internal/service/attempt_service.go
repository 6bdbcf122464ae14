package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cbtarena/cbtarena-backend/internal/audit"
	"github.com/cbtarena/cbtarena-backend/internal/model"
	"github.com/cbtarena/cbtarena-backend/internal/repository"
	"github.com/cbtarena/cbtarena-backend/internal/timing"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Domain errors. Eligibility and state-conflict failures are typed so the
// HTTP layer can render precise reasons; anything else is an internal
// storage failure and rolls the transaction back.
var (
	ErrExamNotConfigured  = errors.New("exam is not configured")
	ErrExamNotStarted     = errors.New("exam has not started yet")
	ErrExamEnded          = errors.New("exam availability window has ended")
	ErrMaxAttemptsReached = errors.New("maximum attempts reached")
	ErrAlreadyCompleted   = errors.New("attempt is already completed")
	ErrSubmitLocked       = errors.New("submission is locked until the final minutes")
	ErrAttemptForbidden   = errors.New("attempt belongs to another student")
)

// ExamReader is the read-only exam settings source. The attempt engine
// never mutates exams.
type ExamReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error)
}

// QuestionReader supplies an exam's questions for grading.
type QuestionReader interface {
	ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Question, error)
}

// AttemptReader is the lock-free read path used for display endpoints.
type AttemptReader interface {
	GetByID(ctx context.Context, attemptID uuid.UUID) (*model.ExamAttempt, error)
	FindActiveByExamAndStudent(ctx context.Context, examID uuid.UUID, studentID int) (*model.ExamAttempt, error)
}

// AttemptService is the exam attempt state machine: it decides whether a
// student may start, resume, or be blocked, computes the authoritative
// remaining time and finalizes attempts exactly once.
type AttemptService struct {
	store     repository.AttemptStore
	reader    AttemptReader
	exams     ExamReader
	questions QuestionReader
	audit     audit.Recorder
	log       zerolog.Logger

	// now is swapped out in tests; everything time-related flows through it
	// so the engine never trusts client clocks.
	now func() time.Time
}

// NewAttemptService creates a new AttemptService.
func NewAttemptService(
	store repository.AttemptStore,
	reader AttemptReader,
	exams ExamReader,
	questions QuestionReader,
	rec audit.Recorder,
	log zerolog.Logger,
) *AttemptService {
	return &AttemptService{
		store:     store,
		reader:    reader,
		exams:     exams,
		questions: questions,
		audit:     rec,
		log:       log.With().Str("component", "attempt_service").Logger(),
		now:       time.Now,
	}
}

// StartOrResume is the single entry point for a student opening an exam.
// Inside one locked transaction it either resumes the active attempt,
// lazily expires a timed-out one, or creates a fresh attempt after the
// eligibility checks pass. Repeated calls are idempotent.
func (s *AttemptService) StartOrResume(ctx context.Context, examID uuid.UUID, studentID int) (*model.StartAttemptResult, error) {
	exam, err := s.exams.GetByID(ctx, examID)
	if err != nil {
		if errors.Is(err, repository.ErrExamNotFound) {
			return nil, ErrExamNotConfigured
		}
		return nil, fmt.Errorf("load exam: %w", err)
	}
	if exam.Status != model.ExamStatusPublished {
		return nil, ErrExamNotConfigured
	}

	tset := exam.Timing()

	var (
		result  *model.StartAttemptResult
		expired *model.ExamAttempt
	)

	err = s.store.WithLock(ctx, examID, studentID, func(tx repository.AttemptTx) error {
		now := s.now()

		active, err := tx.FindActive(ctx, examID, studentID)
		if err != nil {
			return err
		}

		if active != nil {
			remaining := timing.RemainingSeconds(tset, active.StartedAt, active.TimeCredit(), now)
			if remaining > 0 {
				result = &model.StartAttemptResult{
					Decision:         model.StartDecisionResumed,
					Attempt:          active,
					RemainingSeconds: remaining,
				}
				return nil
			}

			// The attempt silently timed out. No background sweeper exists;
			// expiration is materialized here, the next time it is touched,
			// and the student falls through to the fresh-start checks.
			if err := tx.MarkCompleted(ctx, active.ID, now, nil); err != nil {
				return err
			}
			expired = active
		}

		if exam.MaxAttempts > 0 {
			count, err := tx.CountByExamAndStudent(ctx, examID, studentID)
			if err != nil {
				return err
			}
			if count >= exam.MaxAttempts {
				return ErrMaxAttemptsReached
			}
		}

		if tset.AvailabilityStart != nil && now.Before(*tset.AvailabilityStart) {
			return ErrExamNotStarted
		}
		if tset.AvailabilityEnd != nil && now.After(*tset.AvailabilityEnd) {
			return ErrExamEnded
		}

		attempt, err := tx.Create(ctx, examID, studentID, now)
		if err != nil {
			return err
		}

		// Creation itself takes time; hand the client a remaining value
		// computed against a fresh clock reading.
		now = s.now()
		result = &model.StartAttemptResult{
			Decision:         model.StartDecisionCreated,
			Attempt:          attempt,
			RemainingSeconds: timing.RemainingSeconds(tset, attempt.StartedAt, 0, now),
		}
		return nil
	})
	if err != nil {
		s.recordBlocked(ctx, examID, studentID, err)
		return nil, err
	}

	if expired != nil {
		s.record(ctx, examID, studentID, model.ActivityAttemptExpired, map[string]any{
			"attempt_id": expired.ID.String(),
		})
	}
	switch result.Decision {
	case model.StartDecisionCreated:
		s.record(ctx, examID, studentID, model.ActivityAttemptStarted, map[string]any{
			"attempt_id": result.Attempt.ID.String(),
		})
	case model.StartDecisionResumed:
		s.record(ctx, examID, studentID, model.ActivityAttemptResumed, map[string]any{
			"attempt_id":        result.Attempt.ID.String(),
			"remaining_seconds": result.RemainingSeconds,
		})
	}

	return result, nil
}

// State returns the current attempt plus its authoritative remaining time.
// Read-only: no locking, no lazy expiration — eligibility decisions never
// run on this path. The client re-syncs its countdown from this every few
// seconds.
func (s *AttemptService) State(ctx context.Context, examID uuid.UUID, studentID int) (*model.AttemptState, error) {
	attempt, err := s.reader.FindActiveByExamAndStudent(ctx, examID, studentID)
	if err != nil {
		return nil, err
	}

	exam, err := s.exams.GetByID(ctx, attempt.ExamID)
	if err != nil {
		return nil, fmt.Errorf("load exam: %w", err)
	}

	remaining := timing.RemainingSeconds(exam.Timing(), attempt.StartedAt, attempt.TimeCredit(), s.now())
	return &model.AttemptState{
		Attempt:          attempt,
		RemainingSeconds: remaining,
		SubmitAllowed:    timing.SubmitAllowed(remaining, exam.MinTimeMinutes),
	}, nil
}

// Submit finalizes an attempt exactly once: it grades the submitted answers
// against the stored correct options, persists one row per answered
// question, computes the percentage score and transitions the attempt to
// COMPLETED — all in one locked transaction. Manual submit and the client's
// timer-expiry auto-submit share this path unchanged.
//
// studentID guards against cross-student submission; pass 0 for trusted
// administrative callers.
func (s *AttemptService) Submit(ctx context.Context, attemptID uuid.UUID, studentID int, answers map[string]string) (*model.SubmitResult, error) {
	var (
		result *model.SubmitResult
		examID uuid.UUID
		owner  int
	)

	err := s.store.WithAttemptLock(ctx, attemptID, func(tx repository.AttemptTx, att *model.ExamAttempt) error {
		if studentID != 0 && att.StudentID != studentID {
			return ErrAttemptForbidden
		}
		if att.Status == model.AttemptStatusCompleted {
			return ErrAlreadyCompleted
		}
		examID, owner = att.ExamID, att.StudentID

		exam, err := s.exams.GetByID(ctx, att.ExamID)
		if err != nil {
			return fmt.Errorf("load exam: %w", err)
		}

		now := s.now()
		remaining := timing.RemainingSeconds(exam.Timing(), att.StartedAt, att.TimeCredit(), now)
		if remaining > 0 && !timing.SubmitAllowed(remaining, exam.MinTimeMinutes) {
			return ErrSubmitLocked
		}

		questions, err := s.questions.ListByExam(ctx, att.ExamID)
		if err != nil {
			return fmt.Errorf("load questions: %w", err)
		}
		if len(questions) == 0 {
			return fmt.Errorf("exam %s has no questions to grade", att.ExamID)
		}

		correct := 0
		rows := make([]model.StudentAnswer, 0, len(answers))
		for _, q := range questions {
			selected, ok := answers[q.ID.String()]
			if !ok || selected == "" {
				// Unanswered: no row, so absence stays distinguishable from
				// a wrong answer.
				continue
			}
			isCorrect := selected == q.CorrectOption
			if isCorrect {
				correct++
			}
			rows = append(rows, model.StudentAnswer{
				AttemptID:      att.ID,
				QuestionID:     q.ID,
				SelectedOption: selected,
				IsCorrect:      isCorrect,
			})
		}

		score := roundScore(float64(correct) / float64(len(questions)) * 100)

		if err := tx.SaveAnswers(ctx, rows); err != nil {
			return err
		}
		if err := tx.MarkCompleted(ctx, att.ID, now, &score); err != nil {
			return err
		}

		result = &model.SubmitResult{
			AttemptID:    att.ID,
			Score:        score,
			CorrectCount: correct,
			TotalCount:   len(questions),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.record(ctx, examID, owner, model.ActivityAttemptSubmitted, map[string]any{
		"attempt_id":    attemptID.String(),
		"score":         result.Score,
		"correct_count": result.CorrectCount,
		"total_count":   result.TotalCount,
	})

	s.log.Info().
		Str("attempt_id", attemptID.String()).
		Float64("score", result.Score).
		Int("correct", result.CorrectCount).
		Int("total", result.TotalCount).
		Msg("Attempt submitted and graded")

	return result, nil
}

// ForceComplete is the administrative reset: it closes a running attempt
// without grading. Goes through the same locked store primitives so the
// single-active-attempt invariant holds.
func (s *AttemptService) ForceComplete(ctx context.Context, attemptID uuid.UUID) error {
	var examID uuid.UUID
	var sid int

	err := s.store.WithAttemptLock(ctx, attemptID, func(tx repository.AttemptTx, att *model.ExamAttempt) error {
		if att.Status == model.AttemptStatusCompleted {
			return ErrAlreadyCompleted
		}
		examID, sid = att.ExamID, att.StudentID
		return tx.MarkCompleted(ctx, att.ID, s.now(), nil)
	})
	if err != nil {
		return err
	}

	s.record(ctx, examID, sid, model.ActivityAttemptReset, map[string]any{
		"attempt_id": attemptID.String(),
	})
	return nil
}

// ExtendTime grants extra minutes to a running attempt.
func (s *AttemptService) ExtendTime(ctx context.Context, attemptID uuid.UUID, extraMinutes int) error {
	var examID uuid.UUID
	var sid int

	err := s.store.WithAttemptLock(ctx, attemptID, func(tx repository.AttemptTx, att *model.ExamAttempt) error {
		if att.Status == model.AttemptStatusCompleted {
			return ErrAlreadyCompleted
		}
		examID, sid = att.ExamID, att.StudentID
		return tx.AddTimeCredit(ctx, att.ID, extraMinutes*60)
	})
	if err != nil {
		return err
	}

	s.record(ctx, examID, sid, model.ActivityTimeExtended, map[string]any{
		"attempt_id":    attemptID.String(),
		"extra_minutes": extraMinutes,
	})
	return nil
}

// ────────────────────────────────────────────────────────────────────────────
// Internal helpers
// ────────────────────────────────────────────────────────────────────────────

func (s *AttemptService) record(ctx context.Context, examID uuid.UUID, studentID int, typ model.ActivityType, detail map[string]any) {
	raw, err := json.Marshal(detail)
	if err != nil {
		raw = nil
	}
	s.audit.Record(ctx, model.ActivityEvent{
		ExamID:    examID.String(),
		StudentID: studentID,
		Type:      typ,
		Detail:    raw,
	})
}

// recordBlocked audits eligibility denials only; storage failures are not
// user actions and stay out of the activity stream.
func (s *AttemptService) recordBlocked(ctx context.Context, examID uuid.UUID, studentID int, cause error) {
	var reason string
	switch {
	case errors.Is(cause, ErrMaxAttemptsReached):
		reason = "max_attempts_reached"
	case errors.Is(cause, ErrExamNotStarted):
		reason = "exam_not_started"
	case errors.Is(cause, ErrExamEnded):
		reason = "exam_ended"
	default:
		return
	}
	s.record(ctx, examID, studentID, model.ActivityStartBlocked, map[string]any{"reason": reason})
}

// roundScore rounds to the two-decimal display precision.
func roundScore(v float64) float64 {
	return math.Round(v*100) / 100
}
