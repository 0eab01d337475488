package app

import (
	"gorm.io/gorm"

	"github.com/drivewise/drivewise-backend/internal/pkg/logger"
	"github.com/drivewise/drivewise-backend/internal/repos"
)

type Repos struct {
	User          repos.UserRepo
	UserToken     repos.UserTokenRepo
	Subject       repos.SubjectRepo
	Lesson        repos.LessonRepo
	LessonFile    repos.LessonFileRepo
	Feedback      repos.LessonFeedbackRepo
	ProblemReport repos.ProblemReportRepo
	Availability  repos.AvailabilityRepo
	Assignment    repos.AssignmentRepo
	Submission    repos.SubmissionRepo
	Notification  repos.NotificationRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:          repos.NewUserRepo(db, log),
		UserToken:     repos.NewUserTokenRepo(db, log),
		Subject:       repos.NewSubjectRepo(db, log),
		Lesson:        repos.NewLessonRepo(db, log),
		LessonFile:    repos.NewLessonFileRepo(db, log),
		Feedback:      repos.NewLessonFeedbackRepo(db, log),
		ProblemReport: repos.NewProblemReportRepo(db, log),
		Availability:  repos.NewAvailabilityRepo(db, log),
		Assignment:    repos.NewAssignmentRepo(db, log),
		Submission:    repos.NewSubmissionRepo(db, log),
		Notification:  repos.NewNotificationRepo(db, log),
	}
}
