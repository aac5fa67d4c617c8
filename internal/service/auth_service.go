package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"todo_webapp/internal/domain"
	"todo_webapp/internal/logger"
	"todo_webapp/internal/repository"
)

var (
	ErrInvalidInitData = errors.New("invalid or stale telegram data")
	ErrInvalidUsername = errors.New("username must be 3-32 letters, digits, '_' or '-'")
	ErrLoginDisabled   = errors.New("login method disabled")
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,32}$`)

type UserStore interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByTgID(ctx context.Context, tgID int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
}

// LoginMeta describes the client a login came from, for the audit trail.
type LoginMeta struct {
	IP        string
	UserAgent string
}

type AuthService struct {
	users    UserStore
	audit    *AuditService
	botToken string
	devMode  bool
}

func NewAuthService(users UserStore, audit *AuditService, botToken string, devMode bool) *AuthService {
	return &AuthService{users: users, audit: audit, botToken: botToken, devMode: devMode}
}

func (s *AuthService) DevMode() bool {
	return s.devMode
}

// LoginTelegram validates WebApp init_data, finds or creates the user, and
// issues a token.
func (s *AuthService) LoginTelegram(ctx context.Context, initData string, meta LoginMeta) (string, *domain.User, error) {
	if s.botToken == "" {
		return "", nil, ErrLoginDisabled
	}
	if len(initData) > MaxInitDataBytes {
		return "", nil, ErrInvalidInitData
	}

	values, ok := ValidateTelegramInitData(initData, s.botToken)
	if !ok {
		return "", nil, ErrInvalidInitData
	}
	tgUser, err := ParseTelegramUser(values)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrInvalidInitData, err)
	}

	user, err := s.users.GetByTgID(ctx, tgUser.ID)
	if errors.Is(err, repository.ErrUserNotFound) {
		username := tgUser.Username
		if username == "" {
			username = fmt.Sprintf("tg_%d", tgUser.ID)
		}
		user = &domain.User{
			TgID:      &tgUser.ID,
			Username:  username,
			FirstName: tgUser.FirstName,
		}
		err = s.users.Create(ctx, user)
	}
	if err != nil {
		return "", nil, fmt.Errorf("telegram user: %w", err)
	}

	return s.issue(ctx, user, "telegram", meta)
}

// LoginDev logs in by username only, creating the user on first use.
// Only available in dev mode.
func (s *AuthService) LoginDev(ctx context.Context, username string, meta LoginMeta) (string, *domain.User, error) {
	if !s.devMode {
		return "", nil, ErrLoginDisabled
	}
	username = strings.TrimSpace(username)
	if !usernamePattern.MatchString(username) {
		return "", nil, ErrInvalidUsername
	}

	user, err := s.EnsureUser(ctx, username)
	if err != nil {
		return "", nil, err
	}
	return s.issue(ctx, user, "dev", meta)
}

// EnsureUser returns the user with the given username, creating it if absent.
func (s *AuthService) EnsureUser(ctx context.Context, username string) (*domain.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if errors.Is(err, repository.ErrUserNotFound) {
		user = &domain.User{Username: username, FirstName: username}
		err = s.users.Create(ctx, user)
	}
	if err != nil {
		return nil, fmt.Errorf("user %q: %w", username, err)
	}
	return user, nil
}

func (s *AuthService) Me(ctx context.Context, userID int64) (*domain.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *AuthService) issue(ctx context.Context, user *domain.User, method string, meta LoginMeta) (string, *domain.User, error) {
	token, err := GenerateJWT(user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("token generation: %w", err)
	}
	logger.FromContext(ctx).Info("user logged in", "user_id", user.ID, "method", method)
	s.audit.LogLogin(ctx, user.ID, method, meta.IP, meta.UserAgent)
	return token, user, nil
}
