// Seeds a methodist account. Methodists cannot self-register, so the
// first one for an installation is created here:
//
//	METHODIST_EMAIL=admin@example.com METHODIST_PASSWORD=... go run scripts/seed_methodist.go
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/drivewise/drivewise-backend/internal/db"
	"github.com/drivewise/drivewise-backend/internal/pkg/logger"
	"github.com/drivewise/drivewise-backend/internal/repos"
	"github.com/drivewise/drivewise-backend/internal/types"
	"github.com/drivewise/drivewise-backend/internal/utils"
)

func main() {
	log, err := logger.New(os.Getenv("LOG_MODE"))
	if err != nil {
		fmt.Printf("init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	email := utils.NormalizeEmail(os.Getenv("METHODIST_EMAIL"))
	password := os.Getenv("METHODIST_PASSWORD")
	if email == "" || len(password) < 8 {
		log.Fatal("METHODIST_EMAIL and METHODIST_PASSWORD (8+ chars) are required")
	}
	firstName := utils.GetEnv("METHODIST_FIRST_NAME", "Admin", log)
	lastName := utils.GetEnv("METHODIST_LAST_NAME", "Methodist", log)
	timezone := utils.GetEnv("METHODIST_TIMEZONE", "UTC", log)

	pg, err := db.NewPostgresService(log)
	if err != nil {
		log.Fatal("init postgres", "error", err)
	}
	if err := pg.AutoMigrateAll(); err != nil {
		log.Fatal("automigrate", "error", err)
	}

	ctx := context.Background()
	userRepo := repos.NewUserRepo(pg.DB(), log)

	exists, err := userRepo.EmailExists(ctx, nil, email)
	if err != nil {
		log.Fatal("email lookup", "error", err)
	}
	if exists {
		log.Info("account already exists, nothing to do", "email", email)
		return
	}

	hashed, err := utils.HashPassword(password)
	if err != nil {
		log.Fatal("hash password", "error", err)
	}
	user, err := userRepo.Create(ctx, nil, &types.User{
		Email:     email,
		Password:  hashed,
		FirstName: firstName,
		LastName:  lastName,
		Role:      types.RoleMethodist,
		Timezone:  timezone,
	})
	if err != nil {
		log.Fatal("create methodist", "error", err)
	}
	log.Info("methodist account created", "id", user.ID, "email", user.Email)
}
