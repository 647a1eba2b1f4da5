package user

import (
	"context"
	"errors"

	"compilestrength/internal/auth"
	"compilestrength/internal/logger"
)

var (
	ErrEmailExists        = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// Notifier sends the welcome email after registration.
type Notifier interface {
	SendWelcome(ctx context.Context, email, name string) error
}

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*User, string, string, error)
	Login(ctx context.Context, req LoginRequest) (*User, string, string, error)
	GetByID(ctx context.Context, userID int) (*User, error)
	RefreshToken(ctx context.Context, refreshToken string) (string, *User, error)
}

type service struct {
	repo      Repository
	jwtSecret string
	notifier  Notifier
}

func NewService(repo Repository, jwtSecret string, notifier Notifier) Service {
	return &service{
		repo:      repo,
		jwtSecret: jwtSecret,
		notifier:  notifier,
	}
}

func identityOf(u *User) auth.Identity {
	return auth.Identity{UserID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*User, string, string, error) {
	exists, err := s.repo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, "", "", err
	}
	if exists {
		return nil, "", "", ErrEmailExists
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, "", "", err
	}

	user, err := s.repo.Create(ctx, req.Name, req.Email, passwordHash, auth.RoleMember)
	if err != nil {
		return nil, "", "", err
	}

	accessToken, refreshToken, err := auth.GenerateTokens(identityOf(user), s.jwtSecret, s.jwtSecret)
	if err != nil {
		return nil, "", "", err
	}

	if s.notifier != nil {
		if err := s.notifier.SendWelcome(ctx, user.Email, user.Name); err != nil {
			logger.Warn("welcome email not queued", "user_id", user.ID, "error", err)
		}
	}

	return user, accessToken, refreshToken, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*User, string, string, error) {
	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, "", "", ErrInvalidCredentials
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		return nil, "", "", ErrInvalidCredentials
	}

	accessToken, refreshToken, err := auth.GenerateTokens(identityOf(user), s.jwtSecret, s.jwtSecret)
	if err != nil {
		return nil, "", "", err
	}

	return user, accessToken, refreshToken, nil
}

func (s *service) GetByID(ctx context.Context, userID int) (*User, error) {
	return s.repo.FindByID(ctx, userID)
}

func (s *service) RefreshToken(ctx context.Context, refreshToken string) (string, *User, error) {
	_, claims, err := auth.RefreshAccessToken(refreshToken, s.jwtSecret, s.jwtSecret)
	if err != nil {
		return "", nil, err
	}

	// Re-read so renamed users get a token with the current name.
	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil {
		return "", nil, ErrUserNotFound
	}

	newAccessToken, err := auth.GenerateAccessToken(identityOf(user), s.jwtSecret)
	if err != nil {
		return "", nil, err
	}

	return newAccessToken, user, nil
}
