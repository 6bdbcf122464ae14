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
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService *service.AuthService
	studentRepo *repository.StudentRepository
	adminRepo   *repository.AdminRepository
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(
	authService *service.AuthService,
	studentRepo *repository.StudentRepository,
	adminRepo *repository.AdminRepository,
) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		studentRepo: studentRepo,
		adminRepo:   adminRepo,
	}
}

// StudentLogin godoc
// POST /api/v1/auth/student/login
// Validates NISN + password, checks for existing session (rejects if active), returns JWT.
func (h *AuthHandler) StudentLogin(c *gin.Context) {
	var req model.StudentLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	student, err := h.studentRepo.GetByNISN(c.Request.Context(), req.NISN)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}

	if err := h.authService.CheckPassword(student.PasswordHash, req.Password); err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}

	token, err := h.authService.GenerateStudentToken(c.Request.Context(), student.ID, student.ClassName)
	if err != nil {
		if errors.Is(err, service.ErrSessionAlreadyActive) {
			response.Fail(c, http.StatusConflict, response.ErrSessionActive)
			return
		}
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token": token,
		"student": gin.H{
			"id":         student.ID,
			"nisn":       student.NISN,
			"name":       student.Name,
			"class_name": student.ClassName,
		},
	})
}

// StudentLogout godoc
// POST /api/v1/auth/student/logout
// Logs out the currently authenticated student.
func (h *AuthHandler) StudentLogout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.authService.ResetStudentSession(c.Request.Context(), claims.UserID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// GetStudentProfile godoc
// GET /api/v1/auth/student/me
// Returns the profile of the currently authenticated student.
func (h *AuthHandler) GetStudentProfile(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	student, err := h.studentRepo.GetByID(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"student": gin.H{
			"id":         student.ID,
			"nisn":       student.NISN,
			"name":       student.Name,
			"class_name": student.ClassName,
		},
	})
}

// AdminLogin godoc
// POST /api/v1/auth/admin/login
// Validates email + password, returns JWT.
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req model.AdminLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	admin, err := h.adminRepo.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}

	if err := h.authService.CheckPassword(admin.PasswordHash, req.Password); err != nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrInvalidCredentials)
		return
	}

	token, err := h.authService.GenerateAdminToken(admin.ID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"token": token,
		"admin": gin.H{
			"id":    admin.ID,
			"email": admin.Email,
			"name":  admin.Name,
		},
	})
}

// ResetStudentSession godoc
// POST /api/v1/admin/students/:id/reset-session
// Clears a student's single-device session so they can log in again.
func (h *AuthHandler) ResetStudentSession(c *gin.Context) {
	studentID, ok := parseIntParam(c, "id")
	if !ok {
		return
	}

	if err := h.authService.ResetStudentSession(c.Request.Context(), studentID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}
