package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/ssnapify/ssnapify-backend/internal/config"
	"github.com/ssnapify/ssnapify-backend/internal/lib/password"
	"github.com/ssnapify/ssnapify-backend/internal/models"
	"github.com/ssnapify/ssnapify-backend/internal/storage/repository"
)

const (
	googleUserInfoURL = "https://www.googleapis.com/oauth2/v2/userinfo"
	oauthStateTTL     = 10 * time.Minute
	oauthStatePrefix  = "oauthstate:"
)

var (
	// ErrInvalidOAuthState — state отсутствует, истек или уже использован.
	ErrInvalidOAuthState = errors.New("invalid or expired oauth state")
	// ErrUnverifiedEmail — почта google-аккаунта не подтверждена.
	ErrUnverifiedEmail = errors.New("google account email is not verified")
)

// StateCache хранит одноразовые state-токены OAuth до истечения TTL.
type StateCache interface {
	Set(key string, value any, expiration time.Duration) error
	Get(key string, result any) (bool, error)
	Invalidate(key string) error
}

// GoogleAuthService реализует вход через Google OAuth поверх AuthService:
// пользователь находится по email или создается с бесплатным тарифом.
type GoogleAuthService struct {
	auth   *AuthService
	states StateCache
	oauth  *oauth2.Config
	log    *slog.Logger

	httpClient *http.Client
}

// NewGoogleAuthService создает новый экземпляр GoogleAuthService.
func NewGoogleAuthService(auth *AuthService, states StateCache, cfg config.GoogleOAuth, log *slog.Logger) *GoogleAuthService {
	return &GoogleAuthService{
		auth:   auth,
		states: states,
		oauth: &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.GoogleRedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/userinfo.email",
				"https://www.googleapis.com/auth/userinfo.profile",
			},
			Endpoint: google.Endpoint,
		},
		log:        log,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// AuthURL возвращает URL авторизации Google с одноразовым state-токеном.
func (s *GoogleAuthService) AuthURL(_ context.Context) (string, error) {
	const op = "services.auth.google.AuthURL"

	state, err := generateState()
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err := s.states.Set(oauthStatePrefix+state, true, oauthStateTTL); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return s.oauth.AuthCodeURL(state, oauth2.AccessTypeOffline), nil
}

// HandleCallback обрабатывает редирект от Google: проверяет state, меняет
// код на токен, получает профиль и выдает JWT. Новому пользователю
// назначается бесплатный тариф со стартовыми кредитами.
func (s *GoogleAuthService) HandleCallback(ctx context.Context, code, state string) (token, role string, err error) {
	const op = "services.auth.google.HandleCallback"

	if err := s.consumeState(state); err != nil {
		return "", "", err
	}

	oauthToken, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return "", "", fmt.Errorf("%s: exchange code: %w", op, err)
	}
	info, err := s.fetchUserInfo(ctx, oauthToken.AccessToken)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	if !info.VerifiedEmail {
		return "", "", ErrUnverifiedEmail
	}

	user, err := s.auth.users.GetUserByEmail(ctx, info.Email)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrUserNotFound):
		user, err = s.registerGoogleUser(ctx, info)
		if err != nil {
			return "", "", fmt.Errorf("%s: %w", op, err)
		}
	default:
		return "", "", fmt.Errorf("%s: %w", op, err)
	}

	if !user.IsActive {
		return "", "", ErrUserInactive
	}
	token, err = s.auth.jwtMaker.GenerateToken(user.Username, user.Role, user.UID)
	if err != nil {
		return "", "", fmt.Errorf("%s: %w", op, err)
	}
	return token, user.Role, nil
}

func (s *GoogleAuthService) consumeState(state string) error {
	const op = "services.auth.google.consumeState"

	var seen bool
	found, err := s.states.Get(oauthStatePrefix+state, &seen)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !found {
		return ErrInvalidOAuthState
	}
	// state одноразовый
	if err := s.states.Invalidate(oauthStatePrefix + state); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s *GoogleAuthService) registerGoogleUser(ctx context.Context, info *googleUserInfo) (*models.User, error) {
	// Вход только через Google: локальный пароль не используется,
	// но хранится случайный хэш, чтобы Login с ним никогда не совпал.
	random := make([]byte, 32)
	if _, err := rand.Read(random); err != nil {
		return nil, err
	}
	hashed, err := password.GetHash(base64.URLEncoding.EncodeToString(random))
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	username := info.Name
	if username == "" {
		username = info.Email
	}
	user := models.User{
		Email:             info.Email,
		Username:          username,
		PasswordHash:      hashed,
		Role:              models.RoleUser,
		PlanID:            s.auth.catalog.FreeID(),
		CreditBalance:     s.auth.catalog.Free().MonthlyCredits,
		LastCreditResetAt: &now,
		IsActive:          true,
	}
	uid, err := s.auth.users.RegisterUser(ctx, user)
	if err != nil {
		return nil, err
	}
	s.log.Info("user registered via google", slog.String("user_uid", uid), slog.String("email", info.Email))
	user.UID = uid
	return &user, nil
}

type googleUserInfo struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	VerifiedEmail bool   `json:"verified_email"`
	Name          string `json:"name"`
}

func (s *GoogleAuthService) fetchUserInfo(ctx context.Context, accessToken string) (*googleUserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, googleUserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google api returned status %d", resp.StatusCode)
	}
	var info googleUserInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return nil, err
	}
	return &info, nil
}

func generateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.URLEncoding.EncodeToString(b), nil
}
