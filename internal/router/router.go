package router

import (
	"net/http"
	"time"

	"github.com/cbtarena/cbtarena-backend/internal/config"
	"github.com/cbtarena/cbtarena-backend/internal/handler"
	"github.com/cbtarena/cbtarena-backend/internal/middleware"
	"github.com/cbtarena/cbtarena-backend/internal/response"
	"github.com/cbtarena/cbtarena-backend/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth          *handler.AuthHandler
	StudentPortal *handler.StudentPortalHandler
	ExamAdmin     *handler.ExamAdminHandler
	Monitor       *handler.MonitorHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/student/login", handlers.Auth.StudentLogin)
		auth.POST("/admin/login", handlers.Auth.AdminLogin)

		// Authenticated profile routes
		auth.POST("/student/logout", middleware.RequireStudentJWT(authService), handlers.Auth.StudentLogout)
		auth.GET("/student/me", middleware.RequireStudentJWT(authService), handlers.Auth.GetStudentProfile)
	}

	// ─── 2. Student Group (JWT + Single Device) ────────────────────────
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(
		middleware.RequireStudentJWT(authService),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		studentAPI.GET("/exams", handlers.StudentPortal.Lobby)
		studentAPI.POST("/exams/:id/attempt", handlers.StudentPortal.StartAttempt)
		studentAPI.GET("/exams/:id/paper", handlers.StudentPortal.GetPaper)
		studentAPI.GET("/exams/:id/state", handlers.StudentPortal.GetState)
		studentAPI.PUT("/exams/:id/draft", handlers.StudentPortal.SaveDraft)
		studentAPI.POST("/attempts/:id/submit", handlers.StudentPortal.SubmitAttempt)
		studentAPI.GET("/attempts", handlers.StudentPortal.MyAttempts)
	}

	// ─── 3. Admin Group (JWT) ──────────────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService))
	{
		// Exam lifecycle
		adminAPI.GET("/exams", handlers.ExamAdmin.ListExams)
		adminAPI.POST("/exams", handlers.ExamAdmin.CreateExam)
		adminAPI.GET("/exams/:id", handlers.ExamAdmin.GetExam)
		adminAPI.PUT("/exams/:id", handlers.ExamAdmin.UpdateExam)
		adminAPI.DELETE("/exams/:id", handlers.ExamAdmin.DeleteExam)
		adminAPI.POST("/exams/:id/publish", handlers.ExamAdmin.PublishExam)
		adminAPI.POST("/exams/:id/archive", handlers.ExamAdmin.ArchiveExam)

		// Question management
		adminAPI.PUT("/exams/:id/questions", handlers.ExamAdmin.ReplaceQuestions)

		// Results and interventions
		adminAPI.GET("/exams/:id/results", handlers.ExamAdmin.ExamResults)
		adminAPI.POST("/attempts/:id/force-complete", handlers.ExamAdmin.ForceCompleteAttempt)
		adminAPI.POST("/attempts/:id/extend-time", handlers.ExamAdmin.ExtendAttemptTime)

		// Student management
		adminAPI.GET("/students", handlers.ExamAdmin.ListStudents)
		adminAPI.POST("/students", handlers.ExamAdmin.CreateStudent)
		adminAPI.POST("/students/:id/reset-session", handlers.Auth.ResetStudentSession)
	}

	// ─── 4. WebSocket Group (Admin WS Auth) ────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireAdminWSAuth(authService))
	{
		ws.GET("/admin/exams/:id/monitor", handlers.Monitor.MonitorExam)
	}

	return router
}
