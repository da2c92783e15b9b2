// Package services содержит логику регистрации, входа и проверки JWT.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ssnapify/ssnapify-backend/internal/billing"
	"github.com/ssnapify/ssnapify-backend/internal/lib/jwt"
	"github.com/ssnapify/ssnapify-backend/internal/lib/password"
	"github.com/ssnapify/ssnapify-backend/internal/models"
)

var (
	// ErrInvalidCredentials — неверная пара email/пароль.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUserInactive — учетная запись деактивирована администратором.
	ErrUserInactive = errors.New("user is deactivated")
	// ErrTokenRevoked — токен отозван через logout.
	ErrTokenRevoked = errors.New("token has been revoked")
)

// UserRepository описывает контракт для работы с пользователями в базе данных.
type UserRepository interface {
	// RegisterUser сохраняет нового пользователя и возвращает его UID.
	RegisterUser(ctx context.Context, user models.User) (string, error)

	// GetUserByEmail возвращает пользователя по email или ошибку, если не найден.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByUID возвращает пользователя по UID.
	GetUserByUID(ctx context.Context, userUID string) (*models.User, error)
}

// TokenBlacklist хранит отозванные токены до истечения их срока жизни.
type TokenBlacklist interface {
	BlacklistToken(token string, ttl time.Duration) error
	IsTokenBlacklisted(token string) (bool, error)
}

// AuthService отвечает за регистрацию, авторизацию и валидацию JWT.
type AuthService struct {
	users     UserRepository
	jwtMaker  jwt.Maker
	blacklist TokenBlacklist
	catalog   *billing.Catalog
	tokenTTL  time.Duration
	log       *slog.Logger
}

// NewAuthService создает новый экземпляр AuthService.
func NewAuthService(users UserRepository, jwtMaker jwt.Maker, blacklist TokenBlacklist,
	catalog *billing.Catalog, tokenTTL time.Duration, log *slog.Logger) *AuthService {
	return &AuthService{
		users:     users,
		jwtMaker:  jwtMaker,
		blacklist: blacklist,
		catalog:   catalog,
		tokenTTL:  tokenTTL,
		log:       log,
	}
}

// Register создает нового пользователя с хэшированием пароля, ролью "user"
// и бесплатным тарифом: стартовые кредиты выдаются сразу, циклы идут по
// календарным месяцам UTC.
func (s *AuthService) Register(ctx context.Context, email, username, rawPassword string) (string, error) {
	const op = "services.auth.Register"

	hashed, err := password.GetHash(rawPassword)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	now := time.Now().UTC()
	user := models.User{
		Email:             email,
		Username:          username,
		PasswordHash:      hashed,
		Role:              models.RoleUser,
		PlanID:            s.catalog.FreeID(),
		CreditBalance:     s.catalog.Free().MonthlyCredits,
		LastCreditResetAt: &now,
		IsActive:          true,
	}
	uid, err := s.users.RegisterUser(ctx, user)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("user registered", slog.String("user_uid", uid), slog.String("email", email))
	return uid, nil
}

// Login проверяет пароль пользователя и генерирует JWT.
func (s *AuthService) Login(ctx context.Context, email, rawPassword string) (token, role string, err error) {
	const op = "services.auth.Login"

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return "", "", ErrInvalidCredentials
	}
	if err := password.CompareHash(user.PasswordHash, rawPassword); err != nil {
		return "", "", ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", "", ErrUserInactive
	}
	token, err = s.jwtMaker.GenerateToken(user.Username, user.Role, user.UID)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	return token, user.Role, nil
}

// Logout отзывает токен: он попадает в черный список до истечения своего TTL.
func (s *AuthService) Logout(_ context.Context, token string) error {
	const op = "services.auth.Logout"

	ttl := s.tokenTTL
	if claims, err := s.jwtMaker.ParseToken(token); err == nil && claims.ExpiresAt != nil {
		if remaining := time.Until(claims.ExpiresAt.Time); remaining > 0 {
			ttl = remaining
		}
	}
	if err := s.blacklist.BlacklistToken(token, ttl); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ValidateToken проверяет JWT, черный список и активность учетной записи.
// Возвращает пользователя из хранилища, чтобы вызывающие видели актуальные
// роль и биллинговое состояние, а не снимок из токена.
func (s *AuthService) ValidateToken(ctx context.Context, token string) (*models.User, error) {
	const op = "services.auth.ValidateToken"

	claims, err := s.jwtMaker.ParseToken(token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	revoked, err := s.blacklist.IsTokenBlacklisted(token)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}
	user, err := s.users.GetUserByUID(ctx, claims.UserUID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !user.IsActive {
		return nil, ErrUserInactive
	}
	return user, nil
}
