package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/drivewise/drivewise-backend/internal/handlers"
	"github.com/drivewise/drivewise-backend/internal/middleware"
	"github.com/drivewise/drivewise-backend/internal/types"
)

type RouterConfig struct {
	AuthHandler         *handlers.AuthHandler
	AuthMiddleware      *middleware.AuthMiddleware
	LessonHandler       *handlers.LessonHandler
	FeedbackHandler     *handlers.FeedbackHandler
	AssignmentHandler   *handlers.AssignmentHandler
	NotificationHandler *handlers.NotificationHandler
	ProblemHandler      *handlers.ProblemHandler
	AvailabilityHandler *handlers.AvailabilityHandler
	SSEHandler          *handlers.SSEHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()

	router.Use(otelgin.Middleware("drivewise"))

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5174",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", handlers.HealthCheck)
	router.POST("/api/register", cfg.AuthHandler.Register)
	router.POST("/api/login", cfg.AuthHandler.Login)
	router.POST("/api/refresh", cfg.AuthHandler.Refresh)

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/api")
	protected.Use(cfg.AuthMiddleware.RequireAuth())

	// Auth
	protected.POST("/logout", cfg.AuthHandler.Logout)

	// SSE
	protected.GET("/sse/stream", cfg.SSEHandler.Stream)

	// Lessons
	protected.GET("/lessons", cfg.LessonHandler.Range)
	protected.GET("/lessons/:id", cfg.LessonHandler.Detail)
	protected.POST("/lessons", cfg.LessonHandler.Create)
	protected.POST("/lessons/:id/reschedule", cfg.LessonHandler.Reschedule)
	protected.POST("/lessons/:id/cancel", cfg.LessonHandler.Cancel)
	protected.PUT("/lessons/:id", cfg.LessonHandler.Edit)
	protected.POST("/lessons/:id/confirm", cfg.LessonHandler.Confirm)
	protected.POST("/lessons/:id/files", cfg.LessonHandler.UploadMaterials)
	protected.GET("/lessons/files/:fileID", cfg.LessonHandler.DownloadMaterial)

	// Feedback
	protected.POST("/lessons/:id/feedback", cfg.FeedbackHandler.Submit)
	protected.GET("/feedback/pending", cfg.FeedbackHandler.Pending)

	// Assignments
	protected.POST("/assignments", cfg.AssignmentHandler.Create)
	protected.GET("/assignments", cfg.AssignmentHandler.List)
	protected.GET("/assignments/:id", cfg.AssignmentHandler.Get)
	protected.POST("/assignments/:id/start", cfg.AssignmentHandler.Start)
	protected.POST("/assignments/:id/submit", cfg.AssignmentHandler.Submit)
	protected.POST("/assignments/:id/review", cfg.AssignmentHandler.Review)
	protected.POST("/assignments/:id/revision", cfg.AssignmentHandler.RequestRevision)
	protected.POST("/assignments/:id/complete", cfg.AssignmentHandler.Complete)

	// Notifications
	protected.GET("/notifications", cfg.NotificationHandler.List)
	protected.GET("/notifications/unread", cfg.NotificationHandler.UnreadCount)
	protected.POST("/notifications/:id/read", cfg.NotificationHandler.MarkRead)

	// Problem reports
	protected.POST("/problems", cfg.ProblemHandler.Report)

	// Availability
	protected.POST("/availability", cfg.AvailabilityHandler.Add)
	protected.PUT("/availability/:id", cfg.AvailabilityHandler.Update)
	protected.DELETE("/availability/:id", cfg.AvailabilityHandler.Remove)
	protected.GET("/availability/teacher/:teacherID", cfg.AvailabilityHandler.ListForTeacher)

	// ==========================
	// || Methodist-only admin ||
	// ==========================
	admin := protected.Group("/")
	admin.Use(cfg.AuthMiddleware.RequireRole(types.RoleMethodist))
	admin.POST("/lessons/sweep", cfg.LessonHandler.Sweep)
	admin.GET("/problems/open", cfg.ProblemHandler.ListOpen)
	admin.POST("/problems/:id/resolve", cfg.ProblemHandler.Resolve)

	return router
}
