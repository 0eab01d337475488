package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/drivewise/drivewise-backend/internal/pkg/logger"
	"github.com/drivewise/drivewise-backend/internal/repos"
	"github.com/drivewise/drivewise-backend/internal/requestdata"
	"github.com/drivewise/drivewise-backend/internal/types"
	"github.com/drivewise/drivewise-backend/internal/utils"
)

type JWTClaims struct {
	jwt.RegisteredClaims
	Role     string `json:"role"`
	Timezone string `json:"tz,omitempty"`
}

type RegisterRequest struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string
	Timezone  string
}

// TokenPair is what login and refresh hand back to the client.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type AuthService interface {
	Register(ctx context.Context, req RegisterRequest) (*types.User, error)
	Login(ctx context.Context, email, password string) (*types.User, *TokenPair, error)
	// Refresh rotates the refresh token: the presented one is deleted and a
	// new pair is issued in the same transaction.
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	// ParseAccessToken verifies the JWT and returns the request identity
	// the middleware installs into the context.
	ParseAccessToken(tokenString string) (*requestdata.RequestData, error)
	AccessTTL() time.Duration
}

type authService struct {
	db            *gorm.DB
	log           *logger.Logger
	clock         Clock
	userRepo      repos.UserRepo
	userTokenRepo repos.UserTokenRepo
	jwtSecretKey  string
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewAuthService(
	db *gorm.DB,
	log *logger.Logger,
	clock Clock,
	userRepo repos.UserRepo,
	userTokenRepo repos.UserTokenRepo,
	jwtSecretKey string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
) AuthService {
	return &authService{
		db:            db,
		log:           log.With("service", "AuthService"),
		clock:         clock,
		userRepo:      userRepo,
		userTokenRepo: userTokenRepo,
		jwtSecretKey:  jwtSecretKey,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

func (as *authService) Register(ctx context.Context, req RegisterRequest) (*types.User, error) {
	email := utils.NormalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: email and password are required", ErrValidation)
	}
	if len(req.Password) < 8 {
		return nil, fmt.Errorf("%w: password must be at least 8 characters", ErrValidation)
	}
	if req.FirstName == "" || req.LastName == "" {
		return nil, fmt.Errorf("%w: first and last name are required", ErrValidation)
	}
	role, err := types.ParseRole(req.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	// Methodist accounts are provisioned by an operator, never through
	// open registration.
	if role == types.RoleMethodist {
		return nil, fmt.Errorf("%w: methodist accounts cannot self-register", ErrPermission)
	}
	timezone := req.Timezone
	if timezone == "" {
		timezone = "UTC"
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return nil, fmt.Errorf("%w: unknown timezone %q", ErrValidation, timezone)
	}

	exists, err := as.userRepo.EmailExists(ctx, nil, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: email already registered", ErrConflict)
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	user := &types.User{
		Email:     email,
		Password:  hashed,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      role,
		Timezone:  timezone,
	}
	if _, err := as.userRepo.Create(ctx, nil, user); err != nil {
		return nil, err
	}
	as.log.Info("user registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

func (as *authService) Login(ctx context.Context, email, password string) (*types.User, *TokenPair, error) {
	email = utils.NormalizeEmail(email)
	user, err := as.userRepo.GetByEmail(ctx, nil, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, fmt.Errorf("%w: invalid email or password", ErrPermission)
		}
		return nil, nil, err
	}
	if !utils.CheckPassword(user.Password, password) {
		return nil, nil, fmt.Errorf("%w: invalid email or password", ErrPermission)
	}

	pair, err := as.issueTokens(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

func (as *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("%w: a refresh token is required", ErrValidation)
	}
	var pair *TokenPair
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		existing, err := as.userTokenRepo.GetByRefreshToken(ctx, tx, refreshToken)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: unknown refresh token", ErrPermission)
			}
			return err
		}
		if existing.ExpiresAt.Before(as.clock.Now()) {
			_ = as.userTokenRepo.DeleteByRefreshToken(ctx, tx, refreshToken)
			return fmt.Errorf("%w: refresh token expired", ErrPermission)
		}
		user, err := as.userRepo.GetByID(ctx, tx, existing.UserID)
		if err != nil {
			return err
		}
		if err := as.userTokenRepo.DeleteByRefreshToken(ctx, tx, refreshToken); err != nil {
			return err
		}
		p, err := as.issueTokensTx(ctx, tx, user)
		if err != nil {
			return err
		}
		pair = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

func (as *authService) Logout(ctx context.Context, refreshToken string) error {
	rd := requestdata.GetRequestData(ctx)
	if rd == nil {
		return ErrPermission
	}
	if refreshToken == "" {
		// No token presented; drop every session for the user.
		return as.userTokenRepo.DeleteByUserID(ctx, nil, rd.UserID)
	}
	token, err := as.userTokenRepo.GetByRefreshToken(ctx, nil, refreshToken)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if token.UserID != rd.UserID {
		return ErrPermission
	}
	return as.userTokenRepo.DeleteByRefreshToken(ctx, nil, refreshToken)
}

func (as *authService) issueTokens(ctx context.Context, user *types.User) (*TokenPair, error) {
	var pair *TokenPair
	err := as.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		p, err := as.issueTokensTx(ctx, tx, user)
		if err != nil {
			return err
		}
		pair = p
		return nil
	})
	if err != nil {
		return nil, err
	}
	return pair, nil
}

func (as *authService) issueTokensTx(ctx context.Context, tx *gorm.DB, user *types.User) (*TokenPair, error) {
	access, err := as.generateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}
	refresh := uuid.New().String()
	userToken := &types.UserToken{
		UserID:       user.ID,
		RefreshToken: refresh,
		ExpiresAt:    as.clock.Now().Add(as.refreshTTL),
	}
	if _, err := as.userTokenRepo.Create(ctx, tx, userToken); err != nil {
		return nil, err
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

func (as *authService) generateAccessToken(user *types.User) (string, error) {
	now := as.clock.Now()
	claims := JWTClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(as.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Role:     string(user.Role),
		Timezone: user.Timezone,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(as.jwtSecretKey))
}

func (as *authService) ParseAccessToken(tokenString string) (*requestdata.RequestData, error) {
	if tokenString == "" {
		return nil, fmt.Errorf("%w: missing token", ErrPermission)
	}
	parsed, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(as.jwtSecretKey), nil
	}, jwt.WithTimeFunc(as.clock.Now))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid token", ErrPermission)
	}
	claims, ok := parsed.Claims.(*JWTClaims)
	if !ok || !parsed.Valid {
		return nil, fmt.Errorf("%w: invalid token", ErrPermission)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid token subject", ErrPermission)
	}
	role, err := types.ParseRole(claims.Role)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid token role", ErrPermission)
	}
	return &requestdata.RequestData{
		UserID:   userID,
		Role:     role,
		Timezone: claims.Timezone,
	}, nil
}

func (as *authService) AccessTTL() time.Duration {
	return as.accessTTL
}
