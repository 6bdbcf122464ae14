package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cbtarena/cbtarena-backend/internal/audit"
	"github.com/cbtarena/cbtarena-backend/internal/model"
	"github.com/cbtarena/cbtarena-backend/internal/repository"
	"github.com/cbtarena/cbtarena-backend/internal/timing"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ────────────────────────────────────────────────────────────────────────────
// In-memory store fake. A single mutex serializes every locked section, and a
// snapshot taken before each callback restores state when the callback errors,
// mirroring the commit/rollback contract.
// ────────────────────────────────────────────────────────────────────────────

type fakeStore struct {
	mu       sync.Mutex
	attempts map[uuid.UUID]*model.ExamAttempt
	answers  map[uuid.UUID][]model.StudentAnswer
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		attempts: make(map[uuid.UUID]*model.ExamAttempt),
		answers:  make(map[uuid.UUID][]model.StudentAnswer),
	}
}

func (s *fakeStore) snapshot() map[uuid.UUID]*model.ExamAttempt {
	snap := make(map[uuid.UUID]*model.ExamAttempt, len(s.attempts))
	for id, a := range s.attempts {
		cp := *a
		snap[id] = &cp
	}
	return snap
}

func (s *fakeStore) WithLock(ctx context.Context, examID uuid.UUID, studentID int, fn func(tx repository.AttemptTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	if err := fn(&fakeTx{s: s}); err != nil {
		s.attempts = snap
		return err
	}
	return nil
}

func (s *fakeStore) WithAttemptLock(ctx context.Context, attemptID uuid.UUID, fn func(tx repository.AttemptTx, att *model.ExamAttempt) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	att, ok := s.attempts[attemptID]
	if !ok {
		return repository.ErrAttemptNotFound
	}

	snap := s.snapshot()
	cp := *att
	if err := fn(&fakeTx{s: s}, &cp); err != nil {
		s.attempts = snap
		return err
	}
	return nil
}

func (s *fakeStore) GetByID(ctx context.Context, attemptID uuid.UUID) (*model.ExamAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	att, ok := s.attempts[attemptID]
	if !ok {
		return nil, repository.ErrAttemptNotFound
	}
	cp := *att
	return &cp, nil
}

func (s *fakeStore) FindActiveByExamAndStudent(ctx context.Context, examID uuid.UUID, studentID int) (*model.ExamAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.attempts {
		if a.ExamID == examID && a.StudentID == studentID && a.Status == model.AttemptStatusInProgress {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repository.ErrAttemptNotFound
}

type fakeTx struct {
	s *fakeStore
}

func (t *fakeTx) FindActive(ctx context.Context, examID uuid.UUID, studentID int) (*model.ExamAttempt, error) {
	for _, a := range t.s.attempts {
		if a.ExamID == examID && a.StudentID == studentID && a.Status == model.AttemptStatusInProgress {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (t *fakeTx) Create(ctx context.Context, examID uuid.UUID, studentID int, startedAt time.Time) (*model.ExamAttempt, error) {
	a := &model.ExamAttempt{
		ID:        uuid.New(),
		ExamID:    examID,
		StudentID: studentID,
		StartedAt: startedAt,
		Status:    model.AttemptStatusInProgress,
	}
	t.s.attempts[a.ID] = a
	cp := *a
	return &cp, nil
}

func (t *fakeTx) CountByExamAndStudent(ctx context.Context, examID uuid.UUID, studentID int) (int, error) {
	n := 0
	for _, a := range t.s.attempts {
		if a.ExamID == examID && a.StudentID == studentID {
			n++
		}
	}
	return n, nil
}

func (t *fakeTx) MarkCompleted(ctx context.Context, attemptID uuid.UUID, finishedAt time.Time, score *float64) error {
	a, ok := t.s.attempts[attemptID]
	if !ok || a.Status != model.AttemptStatusInProgress {
		return repository.ErrAttemptNotFound
	}
	a.Status = model.AttemptStatusCompleted
	a.FinishedAt = &finishedAt
	if score != nil {
		a.FinalScore = score
	}
	return nil
}

func (t *fakeTx) AddTimeCredit(ctx context.Context, attemptID uuid.UUID, seconds int) error {
	a, ok := t.s.attempts[attemptID]
	if !ok || a.Status != model.AttemptStatusInProgress {
		return repository.ErrAttemptNotFound
	}
	a.TimeCreditSeconds += seconds
	return nil
}

func (t *fakeTx) SaveAnswers(ctx context.Context, answers []model.StudentAnswer) error {
	for _, a := range answers {
		t.s.answers[a.AttemptID] = append(t.s.answers[a.AttemptID], a)
	}
	return nil
}

type fakeExams struct {
	exams map[uuid.UUID]*model.Exam
}

func (f *fakeExams) GetByID(ctx context.Context, id uuid.UUID) (*model.Exam, error) {
	e, ok := f.exams[id]
	if !ok {
		return nil, repository.ErrExamNotFound
	}
	cp := *e
	return &cp, nil
}

type fakeQuestions struct {
	byExam map[uuid.UUID][]model.Question
}

func (f *fakeQuestions) ListByExam(ctx context.Context, examID uuid.UUID) ([]model.Question, error) {
	return f.byExam[examID], nil
}

// ────────────────────────────────────────────────────────────────────────────
// Fixtures
// ────────────────────────────────────────────────────────────────────────────

var testBase = time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)

func newAsyncExam(durationMin, minTimeMin, maxAttempts int) *model.Exam {
	return &model.Exam{
		ID:              uuid.New(),
		Title:           "Matematika Wajib",
		TimerMode:       timing.ModeAsync,
		DurationMinutes: durationMin,
		MinTimeMinutes:  minTimeMin,
		MaxAttempts:     maxAttempts,
		Status:          model.ExamStatusPublished,
	}
}

func newSyncExam(start, end time.Time, durationMin int) *model.Exam {
	return &model.Exam{
		ID:                uuid.New(),
		Title:             "Bahasa Indonesia",
		TimerMode:         timing.ModeSync,
		DurationMinutes:   durationMin,
		AvailabilityStart: &start,
		AvailabilityEnd:   &end,
		Status:            model.ExamStatusPublished,
	}
}

func makeQuestions(examID uuid.UUID, n int) []model.Question {
	qs := make([]model.Question, n)
	for i := range qs {
		qs[i] = model.Question{
			ID:            uuid.New(),
			ExamID:        examID,
			QuestionText:  "Soal",
			Options:       map[string]string{"A": "satu", "B": "dua", "C": "tiga", "D": "empat"},
			CorrectOption: "A",
			OrderNum:      i + 1,
		}
	}
	return qs
}

type attemptFixture struct {
	svc   *AttemptService
	store *fakeStore
	exam  *model.Exam
	qs    []model.Question
	now   time.Time
}

func newAttemptFixture(exam *model.Exam, questionCount int) *attemptFixture {
	store := newFakeStore()
	qs := makeQuestions(exam.ID, questionCount)

	f := &attemptFixture{
		store: store,
		exam:  exam,
		qs:    qs,
		now:   testBase,
	}
	f.svc = NewAttemptService(
		store,
		store,
		&fakeExams{exams: map[uuid.UUID]*model.Exam{exam.ID: exam}},
		&fakeQuestions{byExam: map[uuid.UUID][]model.Question{exam.ID: qs}},
		audit.Nop{},
		zerolog.Nop(),
	)
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *attemptFixture) advance(d time.Duration) {
	f.now = f.now.Add(d)
}

// ────────────────────────────────────────────────────────────────────────────
// StartOrResume
// ────────────────────────────────────────────────────────────────────────────

func TestStartCreatesAttempt(t *testing.T) {
	f := newAttemptFixture(newAsyncExam(60, 0, 0), 5)

	res, err := f.svc.StartOrResume(context.Background(), f.exam.ID, 101)
	if err != nil {
		t.Fatalf("StartOrResume: %v", err)
	}
	if res.Decision != model.StartDecisionCreated {
		t.Errorf("decision = %s, want created", res.Decision)
	}
	if res.RemainingSeconds != 3600 {
		t.Errorf("remaining = %d, want 3600", res.RemainingSeconds)
	}
	if !res.Attempt.StartedAt.Equal(testBase) {
		t.Errorf("started_at = %v, want server now %v", res.Attempt.StartedAt, testBase)
	}
}

func TestStartOrResumeIsIdempotent(t *testing.T) {
	f := newAttemptFixture(newAsyncExam(60, 0, 0), 5)

	first, err := f.svc.StartOrResume(context.Background(), f.exam.ID, 101)
	if err != nil {
		t.Fatalf("first start: %v", err)
	}

	f.advance(100 * time.Second)

	second, err := f.svc.StartOrResume(context.Background(), f.exam.ID, 101)
	if err != nil {
		t.Fatalf("second start: %v", err)
	}
	if second.Decision != model.StartDecisionResumed {
		t.Errorf("decision = %s, want resumed", second.Decision)
	}
	if second.Attempt.ID != first.Attempt.ID {
		t.Errorf("resumed a different attempt: %s vs %s", second.Attempt.ID, first.Attempt.ID)
	}
	if !second.Attempt.StartedAt.Equal(first.Attempt.StartedAt) {
		t.Errorf("started_at changed on resume")
	}
	if second.RemainingSeconds != 3500 {
		t.Errorf("remaining = %d, want 3500", second.RemainingSeconds)
	}
}

func TestLazyExpirationStartsFreshAttempt(t *testing.T) {
	f := newAttemptFixture(newAsyncExam(60, 0, 0), 5)

	first, err := f.svc.StartOrResume(context.Background(), f.exam.ID, 101)
	if err != nil {
		t.Fatalf("first start: %v", err)
	}

	// Past the deadline the old attempt is expired in place and a fresh one
	// begins within the same call.
	f.advance(61 * time.Minute)

	second, err := f.svc.StartOrResume(context.Background(), f.exam.ID, 101)
	if err != nil {
		t.Fatalf("second start: %v", err)
	}
	if second.Decision != model.StartDecisionCreated {
		t.Errorf("decision = %s, want created", second.Decision)
	}
	if second.Attempt.ID == first.Attempt.ID {
		t.Error("expected a new attempt after expiration")
	}

	old, err := f.store.GetByID(context.Background(), first.Attempt.ID)
	if err != nil {
		t.Fatalf("load expired attempt: %v", err)
	}
	if old.Status != model.AttemptStatusCompleted {
		t.Errorf("expired attempt status = %s, want COMPLETED", old.Status)
	}
	if old.FinalScore != nil {
		t.Errorf("expired attempt got a score: %v", *old.FinalScore)
	}
}

func TestMaxAttemptsBlocksAfterExpiration(t *testing.T) {
	f := newAttemptFixture(newAsyncExam(60, 0, 1), 5)

	if _, err := f.svc.StartOrResume(context.Background(), f.exam.ID, 101); err != nil {
		t.Fatalf("first start: %v", err)
	}

	f.advance(61 * time.Minute)

	_, err := f.svc.StartOrResume(context.Background(), f.exam.ID, 101)
	if !errors.Is(err, ErrMaxAttemptsReached) {
		t.Fatalf("err = %v, want ErrMaxAttemptsReached", err)
	}
}

func TestStartOutsideAvailabilityWindow(t *testing.T) {
	start := testBase.Add(1 * time.Hour)
	end := testBase.Add(2 * time.Hour)
	f := newAttemptFixture(newSyncExam(start, end, 60), 5)

	_, err := f.svc.StartOrResume(context.Background(), f.exam.ID, 101)
	if !errors.Is(err, ErrExamNotStarted) {
		t.Fatalf("before window: err = %v, want ErrExamNotStarted", err)
	}

	f.now = end.Add(time.Minute)
	_, err = f.svc.StartOrResume(context.Background(), f.exam.ID, 101)
	if !errors.Is(err, ErrExamEnded) {
		t.Fatalf("after window: err = %v, want ErrExamEnded", err)
	}
}

func TestStartUnknownExam(t *testing.T) {
	f := newAttemptFixture(newAsyncExam(60, 0, 0), 5)

	_, err := f.svc.StartOrResume(context.Background(), uuid.New(), 101)
	if !errors.Is(err, ErrExamNotConfigured) {
		t.Fatalf("err = %v, want ErrExamNotConfigured", err)
	}
}

func TestSyncRemainingComesFromWindowEnd(t *testing.T) {
	start := testBase.Add(-50 * time.Minute)
	end := testBase.Add(10 * time.Minute)
	f := newAttemptFixture(newSyncExam(start, end, 60), 5)

	// A latecomer joining 10 minutes before the shared deadline gets only
	// those 10 minutes, not the full duration.
	res, err := f.svc.StartOrResume(context.Background(), f.exam.ID, 101)
	if err != nil {
		t.Fatalf("StartOrResume: %v", err)
	}
	if res.RemainingSeconds != 600 {
		t.Errorf("remaining = %d, want 600", res.RemainingSeconds)
	}
}

func TestConcurrentStartSingleWinner(t *testing.T) {
	f := newAttemptFixture(newAsyncExam(60, 0, 0), 5)

	const workers = 32
	results := make([]*model.StartAttemptResult, workers)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := f.svc.StartOrResume(context.Background(), f.exam.ID, 101)
			if err != nil {
				t.Errorf("worker %d: %v", i, err)
				return
			}
			results[i] = res
		}(i)
	}
	wg.Wait()

	created := 0
	ids := make(map[uuid.UUID]bool)
	for _, res := range results {
		if res == nil {
			continue
		}
		if res.Decision == model.StartDecisionCreated {
			created++
		}
		ids[res.Attempt.ID] = true
	}
	if created != 1 {
		t.Errorf("created decisions = %d, want exactly 1", created)
	}
	if len(ids) != 1 {
		t.Errorf("distinct attempts = %d, want 1", len(ids))
	}
}

// ────────────────────────────────────────────────────────────────────────────
// State
// ────────────────────────────────────────────────────────────────────────────

func TestStateReportsRemainingAndLockout(t *testing.T) {
	f := newAttemptFixture(newAsyncExam(60, 10, 0), 5)

	res, err := f.svc.StartOrResume(context.Background(), f.exam.ID, 101)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	f.advance(30 * time.Minute)

	state, err := f.svc.State(context.Background(), f.exam.ID, 101)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if state.Attempt.ID != res.Attempt.ID {
		t.Errorf("state returned wrong attempt")
	}
	if state.RemainingSeconds != 1800 {
		t.Errorf("remaining = %d, want 1800", state.RemainingSeconds)
	}
	if state.SubmitAllowed {
		t.Error("submit should still be locked with 30min left and min_time=10")
	}

	f.advance(21 * time.Minute)
	state, err = f.svc.State(context.Background(), f.exam.ID, 101)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if !state.SubmitAllowed {
		t.Error("submit should unlock inside the final 10 minutes")
	}
}

func TestStateWithoutActiveAttempt(t *testing.T) {
	f := newAttemptFixture(newAsyncExam(60, 0, 0), 5)

	_, err := f.svc.State(context.Background(), f.exam.ID, 101)
	if !errors.Is(err, repository.ErrAttemptNotFound) {
		t.Fatalf("err = %v, want ErrAttemptNotFound", err)
	}
}

// ────────────────────────────────────────────────────────────────────────────
// Submit
// ────────────────────────────────────────────────────────────────────────────

func TestSubmitGradesAndCompletes(t *testing.T) {
	f := newAttemptFixture(newAsyncExam(60, 0, 0), 10)

	res, err := f.svc.StartOrResume(context.Background(), f.exam.ID, 101)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	// 7 correct, 2 wrong, 1 unanswered.
	answers := make(map[string]string)
	for i, q := range f.qs {
		switch {
		case i < 7:
			answers[q.ID.String()] = "A"
		case i < 9:
			answers[q.ID.String()] = "B"
		}
	}

	result, err := f.svc.Submit(context.Background(), res.Attempt.ID, 101, answers)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if result.Score != 70.0 {
		t.Errorf("score = %.2f, want 70.00", result.Score)
	}
	if result.CorrectCount != 7 || result.TotalCount != 10 {
		t.Errorf("counts = %d/%d, want 7/10", result.CorrectCount, result.TotalCount)
	}

	att, err := f.store.GetByID(context.Background(), res.Attempt.ID)
	if err != nil {
		t.Fatalf("load attempt: %v", err)
	}
	if att.Status != model.AttemptStatusCompleted {
		t.Errorf("status = %s, want COMPLETED", att.Status)
	}
	if att.FinalScore == nil || *att.FinalScore != 70.0 {
		t.Errorf("stored score = %v, want 70.00", att.FinalScore)
	}
	if att.FinishedAt == nil {
		t.Error("finished_at not set")
	}

	// Unanswered questions produce no rows.
	if got := len(f.store.answers[res.Attempt.ID]); got != 9 {
		t.Errorf("answer rows = %d, want 9", got)
	}
}

func TestSubmitRoundsScoreToTwoDecimals(t *testing.T) {
	f := newAttemptFixture(newAsyncExam(60, 0, 0), 3)

	res, err := f.svc.StartOrResume(context.Background(), f.exam.ID, 101)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	answers := map[string]string{f.qs[0].ID.String(): "A"}
	result, err := f.svc.Submit(context.Background(), res.Attempt.ID, 101, answers)
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	// 1/3 * 100 = 33.333... → 33.33
	if result.Score != 33.33 {
		t.Errorf("score = %v, want 33.33", result.Score)
	}
}

func TestSubmitTwiceIsRejected(t *testing.T) {
	f := newAttemptFixture(newAsyncExam(60, 0, 0), 5)

	res, err := f.svc.StartOrResume(context.Background(), f.exam.ID, 101)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	answers := map[string]string{f.qs[0].ID.String(): "A"}
	if _, err := f.svc.Submit(context.Background(), res.Attempt.ID, 101, answers); err != nil {
		t.Fatalf("first submit: %v", err)
	}

	_, err = f.svc.Submit(context.Background(), res.Attempt.ID, 101, answers)
	if !errors.Is(err, ErrAlreadyCompleted) {
		t.Fatalf("second submit: err = %v, want ErrAlreadyCompleted", err)
	}
}

func TestSubmitLockedUntilFinalMinutes(t *testing.T) {
	f := newAttemptFixture(newAsyncExam(60, 10, 0), 5)

	res, err := f.svc.StartOrResume(context.Background(), f.exam.ID, 101)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	answers := map[string]string{f.qs[0].ID.String(): "A"}

	f.advance(5 * time.Minute)
	_, err = f.svc.Submit(context.Background(), res.Attempt.ID, 101, answers)
	if !errors.Is(err, ErrSubmitLocked) {
		t.Fatalf("early submit: err = %v, want ErrSubmitLocked", err)
	}

	// The rejected submit must leave the attempt untouched.
	att, err := f.store.GetByID(context.Background(), res.Attempt.ID)
	if err != nil {
		t.Fatalf("load attempt: %v", err)
	}
	if att.Status != model.AttemptStatusInProgress {
		t.Errorf("status after locked submit = %s, want IN_PROGRESS", att.Status)
	}

	f.advance(46 * time.Minute) // 9 minutes remaining
	if _, err := f.svc.Submit(context.Background(), res.Attempt.ID, 101, answers); err != nil {
		t.Fatalf("final-minutes submit: %v", err)
	}
}

func TestSubmitAfterDeadlineStillGrades(t *testing.T) {
	f := newAttemptFixture(newAsyncExam(60, 10, 0), 5)

	res, err := f.svc.StartOrResume(context.Background(), f.exam.ID, 101)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	// The client's timer-expiry auto-submit arrives after remaining hit zero;
	// the min-time lockout must not trap it.
	f.advance(61 * time.Minute)

	answers := map[string]string{f.qs[0].ID.String(): "A"}
	result, err := f.svc.Submit(context.Background(), res.Attempt.ID, 101, answers)
	if err != nil {
		t.Fatalf("auto-submit: %v", err)
	}
	if result.CorrectCount != 1 {
		t.Errorf("correct = %d, want 1", result.CorrectCount)
	}
}

func TestSubmitByOtherStudentIsForbidden(t *testing.T) {
	f := newAttemptFixture(newAsyncExam(60, 0, 0), 5)

	res, err := f.svc.StartOrResume(context.Background(), f.exam.ID, 101)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	_, err = f.svc.Submit(context.Background(), res.Attempt.ID, 202, map[string]string{})
	if !errors.Is(err, ErrAttemptForbidden) {
		t.Fatalf("err = %v, want ErrAttemptForbidden", err)
	}
}

func TestSubmitUnknownAttempt(t *testing.T) {
	f := newAttemptFixture(newAsyncExam(60, 0, 0), 5)

	_, err := f.svc.Submit(context.Background(), uuid.New(), 101, map[string]string{})
	if !errors.Is(err, repository.ErrAttemptNotFound) {
		t.Fatalf("err = %v, want ErrAttemptNotFound", err)
	}
}

// ────────────────────────────────────────────────────────────────────────────
// Administrative mutations
// ────────────────────────────────────────────────────────────────────────────

func TestForceComplete(t *testing.T) {
	f := newAttemptFixture(newAsyncExam(60, 0, 0), 5)

	res, err := f.svc.StartOrResume(context.Background(), f.exam.ID, 101)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := f.svc.ForceComplete(context.Background(), res.Attempt.ID); err != nil {
		t.Fatalf("ForceComplete: %v", err)
	}

	att, err := f.store.GetByID(context.Background(), res.Attempt.ID)
	if err != nil {
		t.Fatalf("load attempt: %v", err)
	}
	if att.Status != model.AttemptStatusCompleted {
		t.Errorf("status = %s, want COMPLETED", att.Status)
	}
	if att.FinalScore != nil {
		t.Errorf("force-complete must not assign a score, got %v", *att.FinalScore)
	}

	if err := f.svc.ForceComplete(context.Background(), res.Attempt.ID); !errors.Is(err, ErrAlreadyCompleted) {
		t.Fatalf("repeat: err = %v, want ErrAlreadyCompleted", err)
	}
}

func TestExtendTimeGrowsRemaining(t *testing.T) {
	f := newAttemptFixture(newAsyncExam(60, 0, 0), 5)

	res, err := f.svc.StartOrResume(context.Background(), f.exam.ID, 101)
	if err != nil {
		t.Fatalf("start: %v", err)
	}

	if err := f.svc.ExtendTime(context.Background(), res.Attempt.ID, 10); err != nil {
		t.Fatalf("ExtendTime: %v", err)
	}

	f.advance(65 * time.Minute)

	// Without the credit the attempt would have expired; with it there are
	// 5 minutes left and the student resumes.
	state, err := f.svc.State(context.Background(), f.exam.ID, 101)
	if err != nil {
		t.Fatalf("State: %v", err)
	}
	if state.RemainingSeconds != 300 {
		t.Errorf("remaining = %d, want 300", state.RemainingSeconds)
	}
	if !state.Attempt.StartedAt.Equal(res.Attempt.StartedAt) {
		t.Error("extension must not touch started_at")
	}
}

func TestExtendTimeOnCompletedAttempt(t *testing.T) {
	f := newAttemptFixture(newAsyncExam(60, 0, 0), 5)

	res, err := f.svc.StartOrResume(context.Background(), f.exam.ID, 101)
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := f.svc.ForceComplete(context.Background(), res.Attempt.ID); err != nil {
		t.Fatalf("ForceComplete: %v", err)
	}

	if err := f.svc.ExtendTime(context.Background(), res.Attempt.ID, 10); !errors.Is(err, ErrAlreadyCompleted) {
		t.Fatalf("err = %v, want ErrAlreadyCompleted", err)
	}
}
