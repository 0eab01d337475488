package app

import (
	"time"

	"github.com/drivewise/drivewise-backend/internal/pkg/logger"
	"github.com/drivewise/drivewise-backend/internal/services"
	"github.com/drivewise/drivewise-backend/internal/utils"
)

type Config struct {
	JWTSecretKey    string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration

	// DefaultZone interprets calendar input for accounts with no
	// timezone of their own.
	DefaultZone string

	Policy               services.SchedulingPolicy
	SweepInterval        time.Duration
	FeedbackPromptWindow time.Duration
}

func LoadConfig(log *logger.Logger) Config {
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTLSeconds := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTLSeconds := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)
	defaultZone := utils.GetEnv("DEFAULT_TIMEZONE", "UTC", log)

	minDurationMinutes := utils.GetEnvAsInt("LESSON_MIN_DURATION_MINUTES", 30, log)
	teacherBreakMinutes := utils.GetEnvAsInt("LESSON_TEACHER_BREAK_MINUTES", 15, log)
	pastGraceMinutes := utils.GetEnvAsInt("LESSON_PAST_GRACE_MINUTES", 5, log)
	sweepIntervalSeconds := utils.GetEnvAsInt("LESSON_SWEEP_INTERVAL_SECONDS", 300, log)
	feedbackPromptMinutes := utils.GetEnvAsInt("FEEDBACK_PROMPT_WINDOW_MINUTES", 60, log)

	return Config{
		JWTSecretKey:    jwtSecretKey,
		AccessTokenTTL:  time.Duration(accessTokenTTLSeconds) * time.Second,
		RefreshTokenTTL: time.Duration(refreshTokenTTLSeconds) * time.Second,
		DefaultZone:     defaultZone,
		Policy: services.SchedulingPolicy{
			MinDuration:  time.Duration(minDurationMinutes) * time.Minute,
			TeacherBreak: time.Duration(teacherBreakMinutes) * time.Minute,
			PastGrace:    time.Duration(pastGraceMinutes) * time.Minute,
		},
		SweepInterval:        time.Duration(sweepIntervalSeconds) * time.Second,
		FeedbackPromptWindow: time.Duration(feedbackPromptMinutes) * time.Minute,
	}
}
