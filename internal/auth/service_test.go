package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"bookcatalog/internal/apperror"
	"bookcatalog/internal/platform/crypto"
	"bookcatalog/internal/platform/logger"
	"bookcatalog/internal/user"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "auth-test-secret-with-at-least-32-chars"

type mockUsers struct {
	mock.Mock
}

func (m *mockUsers) GetByUsername(ctx context.Context, username string) (user.User, error) {
	args := m.Called(ctx, username)
	return args.Get(0).(user.User), args.Error(1)
}

func hashed(t *testing.T, password string) string {
	t.Helper()
	h, err := crypto.HashPassword(password)
	require.NoError(t, err)
	return h
}

func adminUser(t *testing.T) user.User {
	return user.User{
		ID:       1,
		Username: "admin",
		Password: hashed(t, "s3cret-pass"),
		Roles:    []user.Role{{ID: 1, Name: user.RoleAdmin}, {ID: 2, Name: user.RoleUser}},
	}
}

func newTestService(users UserFinder, tokens *crypto.Tokens) *Service {
	return NewService(users, tokens, logger.Discard())
}

func TestService_Login(t *testing.T) {
	tokens := crypto.NewTokens(testSecret, 15*time.Minute, 24*time.Hour)
	admin := adminUser(t)

	users := new(mockUsers)
	users.On("GetByUsername", mock.Anything, "admin").Return(admin, nil)
	users.On("GetByUsername", mock.Anything, "ghost").Return(user.User{}, user.ErrNotFound)
	users.On("GetByUsername", mock.Anything, "flaky").Return(user.User{}, errors.New("too many connections"))
	svc := newTestService(users, tokens)
	ctx := context.Background()

	t.Run("valid credentials", func(t *testing.T) {
		pair, err := svc.Login(ctx, "admin", "s3cret-pass")
		require.NoError(t, err)

		require.NoError(t, tokens.Validate(pair.AccessToken, "admin", crypto.AccessToken))
		require.NoError(t, tokens.Validate(pair.RefreshToken, "admin", crypto.RefreshToken))
		assert.Error(t, tokens.Validate(pair.RefreshToken, "admin", crypto.AccessToken))
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, "admin", "nope")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
		assert.Equal(t, apperror.Authentication, apperror.KindOf(err))
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.Login(ctx, "ghost", "s3cret-pass")
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("store failure is not a credential error", func(t *testing.T) {
		_, err := svc.Login(ctx, "flaky", "whatever")
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrInvalidCredentials)
		assert.Equal(t, apperror.Unexpected, apperror.KindOf(err))
	})
}

func TestService_Refresh(t *testing.T) {
	now := time.Now()
	clock := func() time.Time { return now }
	tokens := crypto.NewTokens(testSecret, 15*time.Minute, time.Hour, crypto.WithClock(clock))
	admin := adminUser(t)

	users := new(mockUsers)
	users.On("GetByUsername", mock.Anything, "admin").Return(admin, nil)
	users.On("GetByUsername", mock.Anything, "gone").Return(user.User{}, user.ErrNotFound)
	svc := newTestService(users, tokens)
	ctx := context.Background()

	refresh, err := tokens.IssueRefreshToken("admin")
	require.NoError(t, err)

	t.Run("valid refresh token", func(t *testing.T) {
		access, err := svc.Refresh(ctx, refresh)
		require.NoError(t, err)
		assert.NoError(t, tokens.Validate(access, "admin", crypto.AccessToken))
	})

	t.Run("access token is rejected", func(t *testing.T) {
		access, err := tokens.IssueAccessToken("admin", []string{user.RoleAdmin})
		require.NoError(t, err)

		_, err = svc.Refresh(ctx, access)
		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
		assert.Equal(t, apperror.InvalidToken, apperror.KindOf(err))
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := svc.Refresh(ctx, "definitely-not-a-token")
		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	})

	t.Run("deleted user", func(t *testing.T) {
		orphan, err := tokens.IssueRefreshToken("gone")
		require.NoError(t, err)

		_, err = svc.Refresh(ctx, orphan)
		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	})

	t.Run("expired refresh token", func(t *testing.T) {
		now = now.Add(2 * time.Hour)
		t.Cleanup(func() { now = now.Add(-2 * time.Hour) })

		_, err := svc.Refresh(ctx, refresh)
		assert.ErrorIs(t, err, ErrInvalidRefreshToken)
	})
}
