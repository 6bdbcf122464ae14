package handler

import (
	"errors"
	"net/http"

	"github.com/cbtarena/cbtarena-backend/internal/model"
	"github.com/cbtarena/cbtarena-backend/internal/repository"
	"github.com/cbtarena/cbtarena-backend/internal/response"
	"github.com/cbtarena/cbtarena-backend/internal/service"
	"github.com/cbtarena/cbtarena-backend/internal/timing"
	"github.com/cbtarena/cbtarena-backend/internal/validator"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ExamAdminHandler serves the exam administration surface: exam lifecycle,
// question management, results and live-attempt interventions.
type ExamAdminHandler struct {
	examService    *service.ExamService
	attemptService *service.AttemptService
	attemptRepo    *repository.AttemptRepository
	studentRepo    *repository.StudentRepository
	authService    *service.AuthService
	log            zerolog.Logger
}

// NewExamAdminHandler creates a new ExamAdminHandler.
func NewExamAdminHandler(
	examService *service.ExamService,
	attemptService *service.AttemptService,
	attemptRepo *repository.AttemptRepository,
	studentRepo *repository.StudentRepository,
	authService *service.AuthService,
	log zerolog.Logger,
) *ExamAdminHandler {
	return &ExamAdminHandler{
		examService:    examService,
		attemptService: attemptService,
		attemptRepo:    attemptRepo,
		studentRepo:    studentRepo,
		authService:    authService,
		log:            log.With().Str("component", "exam_admin_handler").Logger(),
	}
}

// ─── Exam lifecycle ─────────────────────────────────────────────────

// ListExams godoc
// GET /api/v1/admin/exams
func (h *ExamAdminHandler) ListExams(c *gin.Context) {
	page := queryInt(c, "page", 1)
	perPage := queryInt(c, "per_page", 10)

	exams, pagination, err := h.examService.List(c.Request.Context(), page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"exams": exams}, pagination)
}

// GetExam godoc
// GET /api/v1/admin/exams/:id
func (h *ExamAdminHandler) GetExam(c *gin.Context) {
	examID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	exam, err := h.examService.GetByID(c.Request.Context(), examID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// CreateExam godoc
// POST /api/v1/admin/exams
func (h *ExamAdminHandler) CreateExam(c *gin.Context) {
	var req model.CreateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam := &model.Exam{
		Title:             req.Title,
		TimerMode:         timing.Mode(req.TimerMode),
		DurationMinutes:   req.DurationMinutes,
		MinTimeMinutes:    req.MinTimeMinutes,
		MaxAttempts:       req.MaxAttempts,
		AvailabilityStart: req.AvailabilityStart,
		AvailabilityEnd:   req.AvailabilityEnd,
	}

	if err := h.examService.Create(c.Request.Context(), exam); err != nil {
		h.log.Error().Err(err).Msg("Create exam failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"exam": exam})
}

// UpdateExam godoc
// PUT /api/v1/admin/exams/:id
func (h *ExamAdminHandler) UpdateExam(c *gin.Context) {
	examID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req model.UpdateExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	exam, err := h.examService.GetByID(c.Request.Context(), examID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	if req.Title != "" {
		exam.Title = req.Title
	}
	if req.TimerMode != "" {
		exam.TimerMode = timing.Mode(req.TimerMode)
	}
	if req.DurationMinutes != 0 {
		exam.DurationMinutes = req.DurationMinutes
	}
	if req.MinTimeMinutes != nil {
		exam.MinTimeMinutes = *req.MinTimeMinutes
	}
	if req.MaxAttempts != nil {
		exam.MaxAttempts = *req.MaxAttempts
	}
	if req.AvailabilityStart != nil {
		exam.AvailabilityStart = req.AvailabilityStart
	}
	if req.AvailabilityEnd != nil {
		exam.AvailabilityEnd = req.AvailabilityEnd
	}

	if err := h.examService.Update(c.Request.Context(), exam); err != nil {
		failExamAdminError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"exam": exam})
}

// DeleteExam godoc
// DELETE /api/v1/admin/exams/:id
func (h *ExamAdminHandler) DeleteExam(c *gin.Context) {
	examID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.examService.Delete(c.Request.Context(), examID); err != nil {
		failExamAdminError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// PublishExam godoc
// POST /api/v1/admin/exams/:id/publish
func (h *ExamAdminHandler) PublishExam(c *gin.Context) {
	examID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.examService.Publish(c.Request.Context(), examID); err != nil {
		failExamAdminError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": "published"})
}

// ArchiveExam godoc
// POST /api/v1/admin/exams/:id/archive
func (h *ExamAdminHandler) ArchiveExam(c *gin.Context) {
	examID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.examService.Archive(c.Request.Context(), examID); err != nil {
		failExamAdminError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": "archived"})
}

// ─── Question management ────────────────────────────────────────────

// ReplaceQuestions godoc
// PUT /api/v1/admin/exams/:id/questions
// Bulk-replaces the draft exam's question set.
func (h *ExamAdminHandler) ReplaceQuestions(c *gin.Context) {
	examID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req model.ReplaceQuestionsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	questions := make([]model.Question, 0, len(req.Questions))
	for i, q := range req.Questions {
		if _, ok := q.Options[q.CorrectOption]; !ok {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
				map[string]string{"correct_option": "correct_option harus merupakan salah satu kunci options"})
			return
		}
		orderNum := q.OrderNum
		if orderNum == 0 {
			orderNum = i + 1
		}
		questions = append(questions, model.Question{
			ExamID:        examID,
			QuestionText:  q.QuestionText,
			Options:       q.Options,
			CorrectOption: q.CorrectOption,
			OrderNum:      orderNum,
		})
	}

	if err := h.examService.ReplaceQuestions(c.Request.Context(), examID, questions); err != nil {
		failExamAdminError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"count": len(questions)})
}

// ─── Results and interventions ──────────────────────────────────────

// ExamResults godoc
// GET /api/v1/admin/exams/:id/results
// Paginated attempt roster with student identity and scores.
func (h *ExamAdminHandler) ExamResults(c *gin.Context) {
	examID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	page := queryInt(c, "page", 1)
	perPage := queryInt(c, "per_page", 50)
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 1000 {
		perPage = 50
	}

	results, total, err := h.attemptRepo.ListByExam(c.Request.Context(), examID, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if results == nil {
		results = []repository.AttemptResult{}
	}

	totalPages := (int(total) + perPage - 1) / perPage
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"results": results}, &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: int(total),
		TotalPages: totalPages,
	})
}

// ForceCompleteAttempt godoc
// POST /api/v1/admin/attempts/:id/force-complete
// Closes a stuck attempt without grading, freeing the student to start over
// (subject to max attempts).
func (h *ExamAdminHandler) ForceCompleteAttempt(c *gin.Context) {
	attemptID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.attemptService.ForceComplete(c.Request.Context(), attemptID); err != nil {
		failAttemptError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": "completed"})
}

// ExtendAttemptTime godoc
// POST /api/v1/admin/attempts/:id/extend-time
// Grants extra minutes to a running attempt without touching started_at.
func (h *ExamAdminHandler) ExtendAttemptTime(c *gin.Context) {
	attemptID, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}

	var req model.ExtendTimeRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.attemptService.ExtendTime(c.Request.Context(), attemptID, req.ExtraMinutes); err != nil {
		failAttemptError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"extra_minutes": req.ExtraMinutes})
}

// ─── Student management ─────────────────────────────────────────────

// ListStudents godoc
// GET /api/v1/admin/students
// Paginated student roster ordered by class and name.
func (h *ExamAdminHandler) ListStudents(c *gin.Context) {
	page := queryInt(c, "page", 1)
	perPage := queryInt(c, "per_page", 50)
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 1000 {
		perPage = 50
	}

	students, total, err := h.studentRepo.List(c.Request.Context(), perPage, (page-1)*perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	if students == nil {
		students = []model.Student{}
	}

	totalPages := (total + perPage - 1) / perPage
	response.SuccessWithPagination(c, http.StatusOK, gin.H{"students": students}, &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: totalPages,
	})
}

// CreateStudent godoc
// POST /api/v1/admin/students
func (h *ExamAdminHandler) CreateStudent(c *gin.Context) {
	var req model.CreateStudentRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	hash, err := h.authService.HashPassword(req.Password)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	student := &model.Student{
		NISN:         req.NISN,
		Name:         req.Name,
		ClassName:    req.ClassName,
		PasswordHash: hash,
	}
	if err := h.studentRepo.Create(c.Request.Context(), student); err != nil {
		response.Fail(c, http.StatusConflict, response.ErrConflict)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"student": student})
}

// failExamAdminError maps exam administration errors to HTTP responses.
func failExamAdminError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrExamNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrExamNotDraft):
		response.Fail(c, http.StatusConflict, response.ErrExamNotDraft)
	case errors.Is(err, service.ErrExamNotPublished):
		response.Fail(c, http.StatusConflict, response.ErrExamNotPublished)
	case errors.Is(err, service.ErrNoQuestions):
		response.Fail(c, http.StatusUnprocessableEntity, response.ErrNoQuestions)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}
