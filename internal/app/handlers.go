package app

import (
	"github.com/drivewise/drivewise-backend/internal/handlers"
	"github.com/drivewise/drivewise-backend/internal/pkg/logger"
	"github.com/drivewise/drivewise-backend/internal/sse"
)

type Handlers struct {
	Auth         *handlers.AuthHandler
	Lesson       *handlers.LessonHandler
	Feedback     *handlers.FeedbackHandler
	Assignment   *handlers.AssignmentHandler
	Notification *handlers.NotificationHandler
	Problem      *handlers.ProblemHandler
	Availability *handlers.AvailabilityHandler
	SSE          *handlers.SSEHandler
}

func wireHandlers(log *logger.Logger, services Services, sseHub *sse.Hub) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Auth:         handlers.NewAuthHandler(services.Auth),
		Lesson:       handlers.NewLessonHandler(log, services.Scheduler, services.Expander, services.Completion, services.Calendar, services.File),
		Feedback:     handlers.NewFeedbackHandler(services.Feedback),
		Assignment:   handlers.NewAssignmentHandler(services.Assignment, services.File),
		Notification: handlers.NewNotificationHandler(services.Notifier),
		Problem:      handlers.NewProblemHandler(services.Problem),
		Availability: handlers.NewAvailabilityHandler(services.Availability),
		SSE:          handlers.NewSSEHandler(log, sseHub),
	}
}
