package auth

import (
	"context"

	"bookcatalog/internal/platform/crypto"
	"bookcatalog/internal/user"
)

// UserFinder loads an account with its password hash and roles.
type UserFinder interface {
	GetByUsername(ctx context.Context, username string) (user.User, error)
}

// TokenService issues and verifies signed tokens.
type TokenService interface {
	IssueAccessToken(subject string, roles []string) (string, error)
	IssueRefreshToken(subject string) (string, error)
	ExtractSubject(token string) (string, error)
	Validate(token, expectedSubject string, typ crypto.TokenType) error
}
