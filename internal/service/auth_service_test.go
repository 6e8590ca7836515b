package service

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"home-cloud/internal/model"
	"home-cloud/pkg/apierror"
)

func newTestAuthService(t *testing.T) *AuthService {
	t.Helper()

	usersFile := filepath.Join(t.TempDir(), "users.json")
	svc, err := NewAuthService(usersFile, "test-secret", 30*time.Minute, 7*24*time.Hour)
	require.NoError(t, err)

	return svc
}

func TestLoginWithSeededAdmin(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)

	pair, err := svc.Login("admin", "admin123")
	require.NoError(t, err)
	require.Equal(t, "Bearer", pair.TokenType)
	require.Equal(t, int64(1800), pair.ExpiresIn)
	require.Equal(t, "admin", pair.User.Username)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)

	claims, err := svc.ValidateToken(pair.AccessToken, "access")
	require.NoError(t, err)
	require.Equal(t, "admin", claims.Username)
	require.Equal(t, "access", claims.Type)
	require.NotEmpty(t, claims.TokenID)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login("admin", "wrong")
		requireAPIError(t, err, apierror.CodeUnauthorized)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.Login("nobody", "admin123")
		requireAPIError(t, err, apierror.CodeUnauthorized)
	})
}

func TestRefreshRotatesTokens(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)

	pair, err := svc.Login("admin", "admin123")
	require.NoError(t, err)

	next, err := svc.Refresh(pair.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, next.AccessToken)

	// The consumed token must not work a second time.
	_, err = svc.Refresh(pair.RefreshToken)
	requireAPIError(t, err, apierror.CodeUnauthorized)

	_, err = svc.Refresh(next.RefreshToken)
	require.NoError(t, err)
}

func TestLogoutInvalidatesRefreshToken(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)

	pair, err := svc.Login("admin", "admin123")
	require.NoError(t, err)

	svc.Logout(pair.RefreshToken)

	_, err = svc.Refresh(pair.RefreshToken)
	requireAPIError(t, err, apierror.CodeUnauthorized)
}

func TestValidateTokenRejectsWrongKind(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)

	pair, err := svc.Login("admin", "admin123")
	require.NoError(t, err)

	t.Run("access token is not a refresh token", func(t *testing.T) {
		_, err := svc.ValidateToken(pair.AccessToken, "refresh")
		requireAPIError(t, err, apierror.CodeUnauthorized)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.ValidateToken("not-a-jwt", "access")
		requireAPIError(t, err, apierror.CodeUnauthorized)
	})
}

func TestGetUserByID(t *testing.T) {
	t.Parallel()

	svc := newTestAuthService(t)

	pair, err := svc.Login("admin", "admin123")
	require.NoError(t, err)

	user, err := svc.GetUserByID(pair.User.ID)
	require.NoError(t, err)
	require.Equal(t, "admin", user.Username)

	_, err = svc.GetUserByID("no-such-id")
	requireAPIError(t, err, apierror.CodeNotFound)
}

func TestLoadExistingUsersFile(t *testing.T) {
	t.Parallel()

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	usersFile := filepath.Join(t.TempDir(), "users.json")
	seeded := []model.User{{
		ID:           "u-1",
		Username:     "Frode",
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}}
	data, err := json.MarshalIndent(seeded, "", "  ")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(usersFile, data, 0o600))

	svc, err := NewAuthService(usersFile, "test-secret", time.Minute, time.Hour)
	require.NoError(t, err)

	// Usernames are case-insensitive at login.
	pair, err := svc.Login("frode", "hunter2")
	require.NoError(t, err)
	require.Equal(t, "Frode", pair.User.Username)

	_, err = svc.Login("admin", "admin123")
	requireAPIError(t, err, apierror.CodeUnauthorized)
}
