package auth

import (
	"context"
	"errors"
	"fmt"

	"bookcatalog/internal/apperror"
	"bookcatalog/internal/platform/crypto"
	"bookcatalog/internal/user"

	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidCredentials  = apperror.New(apperror.Authentication, "Invalid username or password")
	ErrInvalidRefreshToken = apperror.New(apperror.InvalidToken, "Invalid refresh token")
)

type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type Service struct {
	users  UserFinder
	tokens TokenService
	log    logrus.FieldLogger
}

func NewService(users UserFinder, tokens TokenService, log logrus.FieldLogger) *Service {
	return &Service{users: users, tokens: tokens, log: log}
}

// Login checks the credentials and issues an access/refresh pair. Unknown
// users and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (TokenPair, error) {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			s.log.WithField("username", username).Warn("login failed: unknown user")
			return TokenPair{}, ErrInvalidCredentials
		}
		return TokenPair{}, err
	}

	if !crypto.VerifyPassword(u.Password, password) {
		s.log.WithField("username", username).Warn("login failed: bad password")
		return TokenPair{}, ErrInvalidCredentials
	}

	access, err := s.tokens.IssueAccessToken(u.Username, u.RoleNames())
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue access token: %w", err)
	}
	refresh, err := s.tokens.IssueRefreshToken(u.Username)
	if err != nil {
		return TokenPair{}, fmt.Errorf("issue refresh token: %w", err)
	}

	s.log.WithField("username", u.Username).Info("user logged in")
	return TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}

// Refresh exchanges a valid refresh token for a new access token carrying the
// user's current roles. The refresh token itself is not rotated.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	subject, err := s.tokens.ExtractSubject(refreshToken)
	if err != nil {
		return "", ErrInvalidRefreshToken
	}

	u, err := s.users.GetByUsername(ctx, subject)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return "", ErrInvalidRefreshToken
		}
		return "", err
	}

	if err := s.tokens.Validate(refreshToken, u.Username, crypto.RefreshToken); err != nil {
		s.log.WithError(err).WithField("username", u.Username).Warn("refresh rejected")
		return "", ErrInvalidRefreshToken
	}

	access, err := s.tokens.IssueAccessToken(u.Username, u.RoleNames())
	if err != nil {
		return "", fmt.Errorf("issue access token: %w", err)
	}
	s.log.WithField("username", u.Username).Info("access token refreshed")
	return access, nil
}
