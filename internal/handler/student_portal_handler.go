package handler

import (
	"errors"
	"net/http"

	"github.com/cbtarena/cbtarena-backend/internal/middleware"
	"github.com/cbtarena/cbtarena-backend/internal/model"
	"github.com/cbtarena/cbtarena-backend/internal/repository"
	"github.com/cbtarena/cbtarena-backend/internal/response"
	"github.com/cbtarena/cbtarena-backend/internal/service"
	"github.com/cbtarena/cbtarena-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// StudentPortalHandler serves the student exam-taking surface: lobby, attempt
// lifecycle, personalized paper, draft autosave and submission.
type StudentPortalHandler struct {
	attemptService *service.AttemptService
	examService    *service.ExamService
	draftService   *service.DraftService
	attemptRepo    *repository.AttemptRepository
	log            zerolog.Logger
}

// NewStudentPortalHandler creates a new StudentPortalHandler.
func NewStudentPortalHandler(
	attemptService *service.AttemptService,
	examService *service.ExamService,
	draftService *service.DraftService,
	attemptRepo *repository.AttemptRepository,
	log zerolog.Logger,
) *StudentPortalHandler {
	return &StudentPortalHandler{
		attemptService: attemptService,
		examService:    examService,
		draftService:   draftService,
		attemptRepo:    attemptRepo,
		log:            log.With().Str("component", "student_portal_handler").Logger(),
	}
}

// Lobby godoc
// GET /api/v1/student/exams
// Lists published exams for the student lobby.
func (h *StudentPortalHandler) Lobby(c *gin.Context) {
	exams, err := h.examService.ListPublished(c.Request.Context())
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if exams == nil {
		exams = []model.Exam{}
	}

	response.Success(c, http.StatusOK, gin.H{"exams": exams})
}

// StartAttempt godoc
// POST /api/v1/student/exams/:id/attempt
// Starts a fresh attempt or resumes the active one. Idempotent: the client
// may call this on every page load.
func (h *StudentPortalHandler) StartAttempt(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	result, err := h.attemptService.StartOrResume(c.Request.Context(), examID, claims.UserID)
	if err != nil {
		failAttemptError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}

// GetPaper godoc
// GET /api/v1/student/exams/:id/paper
// Returns the exam paper with question and option order personalized for the
// requesting student. Requires an active attempt.
func (h *StudentPortalHandler) GetPaper(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	// The paper is only served mid-attempt.
	if _, err := h.attemptRepo.FindActiveByExamAndStudent(c.Request.Context(), examID, claims.UserID); err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrAttemptNotFound)
		return
	}

	paper, err := h.examService.GetShuffledPaper(c.Request.Context(), examID, claims.UserID)
	if err != nil {
		if errors.Is(err, service.ErrExamNotPublished) || errors.Is(err, repository.ErrExamNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrNotFound)
			return
		}
		h.log.Error().Err(err).Str("exam_id", examID.String()).Msg("Get paper failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, paper)
}

// GetState godoc
// GET /api/v1/student/exams/:id/state
// Returns the authoritative remaining time, submit availability, and the
// saved draft answers. The client re-syncs its countdown from this.
func (h *StudentPortalHandler) GetState(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	state, err := h.attemptService.State(c.Request.Context(), examID, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrAttemptNotFound) {
			response.Fail(c, http.StatusNotFound, response.ErrAttemptNotFound)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	drafts, err := h.draftService.List(c.Request.Context(), examID, claims.UserID)
	if err != nil {
		h.log.Warn().Err(err).Int("student_id", claims.UserID).Msg("Draft list failed")
		drafts = map[string]string{}
	}
	state.DraftAnswers = drafts

	response.Success(c, http.StatusOK, state)
}

// SaveDraft godoc
// PUT /api/v1/student/exams/:id/draft
// Autosaves one in-flight answer. Drafts are crash recovery only and play no
// part in grading.
func (h *StudentPortalHandler) SaveDraft(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req model.SaveDraftRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if _, err := h.attemptRepo.FindActiveByExamAndStudent(c.Request.Context(), examID, claims.UserID); err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrAttemptNotFound)
		return
	}

	questionID := uuid.MustParse(req.QuestionID) // validated by binding
	if err := h.draftService.Save(c.Request.Context(), examID, claims.UserID, questionID, req.SelectedOption); err != nil {
		h.log.Error().Err(err).Int("student_id", claims.UserID).Msg("Draft save failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": "saved"})
}

// SubmitAttempt godoc
// POST /api/v1/student/attempts/:id/submit
// Finalizes the attempt: grades, stores answers, completes. Exactly once;
// a repeat submit is rejected, whatever its payload.
func (h *StudentPortalHandler) SubmitAttempt(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attemptID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req model.SubmitAttemptRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.attemptService.Submit(c.Request.Context(), attemptID, claims.UserID, req.Answers)
	if err != nil {
		failAttemptError(c, err)
		return
	}

	if att, err := h.attemptRepo.GetByID(c.Request.Context(), attemptID); err == nil {
		h.draftService.Clear(c.Request.Context(), att.ExamID, claims.UserID)
	}

	response.Success(c, http.StatusOK, result)
}

// MyAttempts godoc
// GET /api/v1/student/attempts
// Lists the student's attempt history, newest first.
func (h *StudentPortalHandler) MyAttempts(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	attempts, err := h.attemptRepo.ListByStudent(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if attempts == nil {
		attempts = []model.ExamAttempt{}
	}

	response.Success(c, http.StatusOK, gin.H{"attempts": attempts})
}

// failAttemptError maps attempt engine errors to HTTP responses.
func failAttemptError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrExamNotConfigured):
		response.Fail(c, http.StatusNotFound, response.ErrExamNotConfigured)
	case errors.Is(err, service.ErrExamNotStarted):
		response.Fail(c, http.StatusForbidden, response.ErrExamNotStarted)
	case errors.Is(err, service.ErrExamEnded):
		response.Fail(c, http.StatusForbidden, response.ErrExamEnded)
	case errors.Is(err, service.ErrMaxAttemptsReached):
		response.Fail(c, http.StatusForbidden, response.ErrMaxAttemptsReached)
	case errors.Is(err, service.ErrAlreadyCompleted):
		response.Fail(c, http.StatusConflict, response.ErrAlreadyCompleted)
	case errors.Is(err, service.ErrSubmitLocked):
		response.Fail(c, http.StatusForbidden, response.ErrSubmitLocked)
	case errors.Is(err, service.ErrAttemptForbidden):
		// Hide other students' attempts entirely.
		response.Fail(c, http.StatusNotFound, response.ErrAttemptNotFound)
	case errors.Is(err, repository.ErrAttemptNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrAttemptNotFound)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
