package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/drivewise/drivewise-backend/internal/requestdata"
	"github.com/drivewise/drivewise-backend/internal/types"
)

func newAuth(e *env) AuthService {
	return NewAuthService(e.db, e.log, e.clock, e.users, e.tokens,
		"test-secret", 15*time.Minute, 7*24*time.Hour)
}

func TestAuthRegisterAndLogin(t *testing.T) {
	e := newEnv(t)
	svc := newAuth(e)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterRequest{
		Email:     "  Anna.Petrova@Example.com ",
		Password:  "correct horse",
		FirstName: "Anna",
		LastName:  "Petrova",
		Role:      "student",
		Timezone:  "Europe/Moscow",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "anna.petrova@example.com" {
		t.Fatalf("email not normalized: %q", user.Email)
	}
	if user.Password == "correct horse" {
		t.Fatal("password stored in plain text")
	}

	// Duplicate email is a conflict.
	if _, err := svc.Register(ctx, RegisterRequest{
		Email: "anna.petrova@example.com", Password: "password1",
		FirstName: "A", LastName: "P", Role: "student",
	}); !errors.Is(err, ErrConflict) {
		t.Fatalf("duplicate register: want ErrConflict, got %v", err)
	}

	_, pair, err := svc.Login(ctx, "ANNA.PETROVA@example.com", "correct horse")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("empty token pair")
	}
	if _, _, err := svc.Login(ctx, "anna.petrova@example.com", "wrong"); !errors.Is(err, ErrPermission) {
		t.Fatalf("bad password: want ErrPermission, got %v", err)
	}

	rd, err := svc.ParseAccessToken(pair.AccessToken)
	if err != nil {
		t.Fatalf("ParseAccessToken: %v", err)
	}
	if rd.UserID != user.ID || rd.Role != types.RoleStudent || rd.Timezone != "Europe/Moscow" {
		t.Fatalf("claims: got user=%s role=%s tz=%s", rd.UserID, rd.Role, rd.Timezone)
	}
}

func TestAuthAccessTokenExpiryFollowsClock(t *testing.T) {
	e := newEnv(t)
	svc := newAuth(e)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterRequest{
		Email: "c@example.com", Password: "password1",
		FirstName: "C", LastName: "C", Role: "student",
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, pair, err := svc.Login(ctx, "c@example.com", "password1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	// A token minted at the injected clock's now must validate against
	// that same clock, whatever the wall clock says.
	if _, err := svc.ParseAccessToken(pair.AccessToken); err != nil {
		t.Fatalf("fresh token: %v", err)
	}

	e.clock.Advance(16 * time.Minute)
	if _, err := svc.ParseAccessToken(pair.AccessToken); !errors.Is(err, ErrPermission) {
		t.Fatalf("expired token: want ErrPermission, got %v", err)
	}
}

func TestAuthRegisterValidation(t *testing.T) {
	e := newEnv(t)
	svc := newAuth(e)
	ctx := context.Background()

	cases := []struct {
		name string
		req  RegisterRequest
	}{
		{"short_password", RegisterRequest{Email: "a@b.c", Password: "short", FirstName: "A", LastName: "B", Role: "student"}},
		{"bad_role", RegisterRequest{Email: "a@b.c", Password: "password1", FirstName: "A", LastName: "B", Role: "admin"}},
		{"bad_timezone", RegisterRequest{Email: "a@b.c", Password: "password1", FirstName: "A", LastName: "B", Role: "student", Timezone: "Mars/Olympus"}},
		{"no_name", RegisterRequest{Email: "a@b.c", Password: "password1", Role: "student"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.Register(ctx, tc.req); !errors.Is(err, ErrValidation) {
				t.Fatalf("want ErrValidation, got %v", err)
			}
		})
	}

	// Methodists are seeded by an operator, not self-registered.
	if _, err := svc.Register(ctx, RegisterRequest{
		Email: "m@b.c", Password: "password1",
		FirstName: "M", LastName: "M", Role: "methodist",
	}); !errors.Is(err, ErrPermission) {
		t.Fatalf("methodist register: want ErrPermission, got %v", err)
	}
}

func TestAuthRefreshRotatesToken(t *testing.T) {
	e := newEnv(t)
	svc := newAuth(e)
	ctx := context.Background()

	if _, err := svc.Register(ctx, RegisterRequest{
		Email: "t@example.com", Password: "password1",
		FirstName: "T", LastName: "T", Role: "teacher",
	}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, pair, err := svc.Login(ctx, "t@example.com", "password1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	next, err := svc.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if next.RefreshToken == pair.RefreshToken {
		t.Fatal("refresh token not rotated")
	}

	// The old token is dead after rotation.
	if _, err := svc.Refresh(ctx, pair.RefreshToken); !errors.Is(err, ErrPermission) {
		t.Fatalf("replayed refresh: want ErrPermission, got %v", err)
	}

	// An expired token is rejected and purged.
	e.clock.Advance(8 * 24 * time.Hour)
	if _, err := svc.Refresh(ctx, next.RefreshToken); !errors.Is(err, ErrPermission) {
		t.Fatalf("expired refresh: want ErrPermission, got %v", err)
	}
}

func TestAuthLogout(t *testing.T) {
	e := newEnv(t)
	svc := newAuth(e)
	ctx := context.Background()

	user, err := svc.Register(ctx, RegisterRequest{
		Email: "s@example.com", Password: "password1",
		FirstName: "S", LastName: "S", Role: "student",
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	_, pair, err := svc.Login(ctx, "s@example.com", "password1")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}

	authed := requestdata.WithRequestData(ctx, &requestdata.RequestData{UserID: user.ID, Role: user.Role})
	if err := svc.Logout(authed, pair.RefreshToken); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := svc.Refresh(ctx, pair.RefreshToken); !errors.Is(err, ErrPermission) {
		t.Fatalf("refresh after logout: want ErrPermission, got %v", err)
	}
}
