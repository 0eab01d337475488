package app

import (
	"github.com/gin-gonic/gin"

	"github.com/drivewise/drivewise-backend/internal/server"
)

func wireRouter(handlers Handlers, middleware Middleware) *gin.Engine {
	return server.NewRouter(server.RouterConfig{
		AuthHandler:         handlers.Auth,
		AuthMiddleware:      middleware.Auth,
		LessonHandler:       handlers.Lesson,
		FeedbackHandler:     handlers.Feedback,
		AssignmentHandler:   handlers.Assignment,
		NotificationHandler: handlers.Notification,
		ProblemHandler:      handlers.Problem,
		AvailabilityHandler: handlers.Availability,
		SSEHandler:          handlers.SSE,
	})
}
