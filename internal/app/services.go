package app

import (
	"gorm.io/gorm"

	"github.com/drivewise/drivewise-backend/internal/pkg/logger"
	"github.com/drivewise/drivewise-backend/internal/services"
)

type Services struct {
	Auth         services.AuthService
	Notifier     services.NotificationService
	Scheduler    services.LessonScheduler
	Expander     services.RecurrenceExpander
	Completion   services.CompletionService
	Feedback     services.FeedbackService
	Assignment   services.AssignmentService
	Calendar     services.CalendarService
	File         services.FileService
	Availability services.AvailabilityService
	Problem      services.ProblemService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, repos Repos, clients Clients) Services {
	log.Info("Wiring services...")

	clock := services.NewSystemClock()
	checker := services.NewConflictChecker(cfg.Policy)

	var bus services.NotificationBus = clients.Bus
	notifier := services.NewNotificationService(db, log, clock, repos.Notification, bus)

	authService := services.NewAuthService(db, log, clock, repos.User, repos.UserToken, cfg.JWTSecretKey, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	scheduler := services.NewLessonScheduler(db, log, clock, checker, cfg.DefaultZone, repos.Lesson, repos.User, repos.Subject, notifier)
	expander := services.NewRecurrenceExpander(db, log, clock, checker, repos.Lesson, repos.User, notifier)
	completion := services.NewCompletionService(db, log, clock, repos.Lesson, notifier)
	feedback := services.NewFeedbackService(db, log, clock, cfg.FeedbackPromptWindow, repos.Lesson, repos.Feedback)
	assignment := services.NewAssignmentService(db, log, clock, repos.Assignment, repos.Submission, repos.User, notifier)
	calendar := services.NewCalendarService(db, log, clock, repos.Lesson, repos.Feedback)
	fileService := services.NewFileService(db, log, clients.Bucket, repos.Lesson, repos.LessonFile)
	availability := services.NewAvailabilityService(db, log, repos.Availability, repos.User)
	problem := services.NewProblemService(db, log, clock, repos.ProblemReport, repos.Lesson, repos.User, notifier)

	return Services{
		Auth:         authService,
		Notifier:     notifier,
		Scheduler:    scheduler,
		Expander:     expander,
		Completion:   completion,
		Feedback:     feedback,
		Assignment:   assignment,
		Calendar:     calendar,
		File:         fileService,
		Availability: availability,
		Problem:      problem,
	}
}
