package service

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edubase4teachers/edubase-server/internal/auth"
	domainerrors "github.com/edubase4teachers/edubase-server/internal/errors"
	"github.com/edubase4teachers/edubase-server/internal/logger"
	"github.com/edubase4teachers/edubase-server/internal/store"
	"github.com/edubase4teachers/edubase-server/internal/store/sqlite"
)

func testLogger() *logger.Logger {
	return logger.New(logger.Config{Writer: io.Discard, Level: slog.LevelError})
}

func testTokenService(t *testing.T, refreshDuration time.Duration) *auth.TokenService {
	t.Helper()
	key := make([]byte, 32)
	for i := range key {
		key[i] = byte(i)
	}
	tokens, err := auth.NewTokenService(key, 15*time.Minute, refreshDuration)
	require.NoError(t, err)
	return tokens
}

func setupAuthTest(t *testing.T, adminEmails []string) (*AuthService, store.Store) {
	t.Helper()

	s, err := sqlite.Open(filepath.Join(t.TempDir(), "test.db"), testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return NewAuthService(s, testTokenService(t, 30*24*time.Hour), adminEmails, testLogger()), s
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := setupAuthTest(t, nil)
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterRequest{
		Email:    "Anna@School.HU",
		Name:     "Anna Kovács",
		Password: "correct-horse",
	}, ClientInfo{UserAgent: "test-agent", IPAddress: "127.0.0.1"})
	require.NoError(t, err)

	assert.NotZero(t, res.User.ID)
	assert.Equal(t, "anna@school.hu", res.User.Email)
	assert.False(t, res.User.IsAdmin)
	assert.NotEmpty(t, res.AccessToken)
	assert.NotEmpty(t, res.RefreshToken)
	assert.True(t, res.ExpiresAt.After(time.Now()))

	login, err := svc.Login(ctx, LoginRequest{
		Email:    "anna@school.hu",
		Password: "correct-horse",
	}, ClientInfo{})
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, login.User.ID)
	assert.NotEqual(t, res.RefreshToken, login.RefreshToken)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc, _ := setupAuthTest(t, nil)
	ctx := context.Background()

	req := RegisterRequest{Email: "anna@school.hu", Name: "Anna", Password: "correct-horse"}
	_, err := svc.Register(ctx, req, ClientInfo{})
	require.NoError(t, err)

	_, err = svc.Register(ctx, req, ClientInfo{})
	assert.ErrorIs(t, err, domainerrors.ErrAlreadyExists)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := setupAuthTest(t, nil)
	ctx := context.Background()

	cases := []struct {
		name string
		req  RegisterRequest
	}{
		{"missing email", RegisterRequest{Name: "Anna", Password: "correct-horse"}},
		{"bad email", RegisterRequest{Email: "not-an-email", Name: "Anna", Password: "correct-horse"}},
		{"short password", RegisterRequest{Email: "anna@school.hu", Name: "Anna", Password: "short"}},
		{"missing name", RegisterRequest{Email: "anna@school.hu", Password: "correct-horse"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.req, ClientInfo{})
			assert.ErrorIs(t, err, domainerrors.ErrValidation)
		})
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	svc, _ := setupAuthTest(t, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, RegisterRequest{
		Email: "anna@school.hu", Name: "Anna", Password: "correct-horse",
	}, ClientInfo{})
	require.NoError(t, err)

	// Wrong password and unknown email must be indistinguishable.
	_, wrongPass := svc.Login(ctx, LoginRequest{Email: "anna@school.hu", Password: "wrong-password"}, ClientInfo{})
	_, unknown := svc.Login(ctx, LoginRequest{Email: "nobody@school.hu", Password: "correct-horse"}, ClientInfo{})

	assert.ErrorIs(t, wrongPass, domainerrors.ErrInvalidCredentials)
	assert.ErrorIs(t, unknown, domainerrors.ErrInvalidCredentials)
	assert.Equal(t, wrongPass.Error(), unknown.Error())
}

func TestAdminEmailGrantsAdmin(t *testing.T) {
	svc, st := setupAuthTest(t, []string{"Head@School.hu"})
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterRequest{
		Email: "head@school.hu", Name: "Head Teacher", Password: "correct-horse",
	}, ClientInfo{})
	require.NoError(t, err)
	assert.True(t, res.User.IsAdmin)

	// An account registered before the email was configured gets promoted
	// on its next login.
	plain, err := svc.Register(ctx, RegisterRequest{
		Email: "late@school.hu", Name: "Late Admin", Password: "correct-horse",
	}, ClientInfo{})
	require.NoError(t, err)
	assert.False(t, plain.User.IsAdmin)

	late := NewAuthService(st, testTokenService(t, time.Hour), []string{"late@school.hu"}, testLogger())
	login, err := late.Login(ctx, LoginRequest{Email: "late@school.hu", Password: "correct-horse"}, ClientInfo{})
	require.NoError(t, err)
	assert.True(t, login.User.IsAdmin)

	stored, err := st.GetUser(ctx, login.User.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsAdmin)
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, _ := setupAuthTest(t, nil)
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterRequest{
		Email: "anna@school.hu", Name: "Anna", Password: "correct-horse",
	}, ClientInfo{})
	require.NoError(t, err)

	refreshed, err := svc.Refresh(ctx, res.RefreshToken, ClientInfo{})
	require.NoError(t, err)
	assert.NotEqual(t, res.RefreshToken, refreshed.RefreshToken)
	assert.Equal(t, res.User.ID, refreshed.User.ID)

	// The spent token no longer works.
	_, err = svc.Refresh(ctx, res.RefreshToken, ClientInfo{})
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)

	// The rotated one does.
	_, err = svc.Refresh(ctx, refreshed.RefreshToken, ClientInfo{})
	assert.NoError(t, err)
}

func TestRefreshUnknownToken(t *testing.T) {
	svc, _ := setupAuthTest(t, nil)

	_, err := svc.Refresh(context.Background(), "definitely-not-a-token", ClientInfo{})
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)

	_, err = svc.Refresh(context.Background(), "", ClientInfo{})
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
}

func TestRefreshExpiredSession(t *testing.T) {
	_, st := setupAuthTest(t, nil)
	ctx := context.Background()

	// A service whose sessions are already expired at creation.
	svc := NewAuthService(st, testTokenService(t, -time.Hour), nil, testLogger())

	res, err := svc.Register(ctx, RegisterRequest{
		Email: "anna@school.hu", Name: "Anna", Password: "correct-horse",
	}, ClientInfo{})
	require.NoError(t, err)

	_, err = svc.Refresh(ctx, res.RefreshToken, ClientInfo{})
	assert.ErrorIs(t, err, domainerrors.ErrTokenExpired)
}

func TestLogout(t *testing.T) {
	svc, _ := setupAuthTest(t, nil)
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterRequest{
		Email: "anna@school.hu", Name: "Anna", Password: "correct-horse",
	}, ClientInfo{})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, res.RefreshToken))

	_, err = svc.Refresh(ctx, res.RefreshToken, ClientInfo{})
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)

	// Logging out again is a no-op.
	assert.NoError(t, svc.Logout(ctx, res.RefreshToken))
}

func TestLogoutAll(t *testing.T) {
	svc, _ := setupAuthTest(t, nil)
	ctx := context.Background()

	first, err := svc.Register(ctx, RegisterRequest{
		Email: "anna@school.hu", Name: "Anna", Password: "correct-horse",
	}, ClientInfo{UserAgent: "laptop"})
	require.NoError(t, err)

	second, err := svc.Login(ctx, LoginRequest{
		Email: "anna@school.hu", Password: "correct-horse",
	}, ClientInfo{UserAgent: "phone"})
	require.NoError(t, err)

	require.NoError(t, svc.LogoutAll(ctx, first.User.ID))

	_, err = svc.Refresh(ctx, first.RefreshToken, ClientInfo{})
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
	_, err = svc.Refresh(ctx, second.RefreshToken, ClientInfo{})
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
}

func TestUpdateProfile(t *testing.T) {
	svc, _ := setupAuthTest(t, nil)
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterRequest{
		Email: "rename@school.hu", Name: "Old Name", Password: "correct-horse",
	}, ClientInfo{})
	require.NoError(t, err)

	updated, err := svc.UpdateProfile(ctx, res.User.ID, UpdateProfileRequest{Name: "New Name"})
	require.NoError(t, err)
	assert.Equal(t, "New Name", updated.Name)
	assert.Equal(t, res.User.Email, updated.Email)

	_, err = svc.UpdateProfile(ctx, res.User.ID, UpdateProfileRequest{Name: "x"})
	assert.ErrorIs(t, err, domainerrors.ErrValidation)

	_, err = svc.UpdateProfile(ctx, 9999, UpdateProfileRequest{Name: "Ghost"})
	assert.ErrorIs(t, err, domainerrors.ErrNotFound)
}

func TestChangePassword(t *testing.T) {
	svc, _ := setupAuthTest(t, nil)
	ctx := context.Background()

	res, err := svc.Register(ctx, RegisterRequest{
		Email: "rotate@school.hu", Name: "Rotator", Password: "old-password-1",
	}, ClientInfo{})
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, res.User.ID, ChangePasswordRequest{
		CurrentPassword: "wrong-password", NewPassword: "new-password-1",
	})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)

	err = svc.ChangePassword(ctx, res.User.ID, ChangePasswordRequest{
		CurrentPassword: "old-password-1", NewPassword: "new-password-1",
	})
	require.NoError(t, err)

	// Old credential is dead, new one works.
	_, err = svc.Login(ctx, LoginRequest{Email: "rotate@school.hu", Password: "old-password-1"}, ClientInfo{})
	assert.ErrorIs(t, err, domainerrors.ErrInvalidCredentials)

	_, err = svc.Login(ctx, LoginRequest{Email: "rotate@school.hu", Password: "new-password-1"}, ClientInfo{})
	assert.NoError(t, err)
}

func TestCleanupSessions(t *testing.T) {
	_, st := setupAuthTest(t, nil)
	ctx := context.Background()

	expired := NewAuthService(st, testTokenService(t, -time.Hour), nil, testLogger())
	res, err := expired.Register(ctx, RegisterRequest{
		Email: "anna@school.hu", Name: "Anna", Password: "correct-horse",
	}, ClientInfo{})
	require.NoError(t, err)

	live := NewAuthService(st, testTokenService(t, time.Hour), nil, testLogger())
	kept, err := live.Login(ctx, LoginRequest{Email: "anna@school.hu", Password: "correct-horse"}, ClientInfo{})
	require.NoError(t, err)

	require.NoError(t, live.CleanupSessions(ctx))

	_, err = live.Refresh(ctx, res.RefreshToken, ClientInfo{})
	assert.ErrorIs(t, err, domainerrors.ErrUnauthorized)
	_, err = live.Refresh(ctx, kept.RefreshToken, ClientInfo{})
	assert.NoError(t, err)
}
