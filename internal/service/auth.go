package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/edubase4teachers/edubase-server/internal/auth"
	"github.com/edubase4teachers/edubase-server/internal/domain"
	domainerrors "github.com/edubase4teachers/edubase-server/internal/errors"
	"github.com/edubase4teachers/edubase-server/internal/id"
	"github.com/edubase4teachers/edubase-server/internal/logger"
	"github.com/edubase4teachers/edubase-server/internal/store"
)

// AuthService handles registration, login, and refresh-token sessions.
type AuthService struct {
	store       store.Store
	tokens      *auth.TokenService
	adminEmails map[string]bool
	logger      *logger.Logger
}

// NewAuthService creates a new auth service. Accounts whose email appears in
// adminEmails are granted admin on registration and on login.
func NewAuthService(st store.Store, tokens *auth.TokenService, adminEmails []string, log *logger.Logger) *AuthService {
	admins := make(map[string]bool, len(adminEmails))
	for _, email := range adminEmails {
		admins[strings.ToLower(strings.TrimSpace(email))] = true
	}
	return &AuthService{
		store:       st,
		tokens:      tokens,
		adminEmails: admins,
		logger:      log,
	}
}

// RegisterRequest is the payload for creating a new account.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Password string `json:"password" validate:"required,min=8,max=128"`
}

// LoginRequest is the payload for an email/password login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ClientInfo carries per-device request metadata stored with the session.
type ClientInfo struct {
	UserAgent string
	IPAddress string
}

// AuthResult is returned by every operation that establishes a session.
type AuthResult struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// Register creates a new account and logs it in.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest, client ClientInfo) (*AuthResult, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	user := &domain.User{
		Email:        email,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: hash,
		IsAdmin:      s.adminEmails[email],
		CreatedAt:    time.Now().UTC(),
	}

	userID, err := s.store.CreateUser(ctx, user)
	if err != nil {
		if domainerrors.Is(err, store.ErrAlreadyExists) {
			return nil, domainerrors.AlreadyExists("email already registered")
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	user.ID = userID

	s.logger.Info("user registered",
		"user_id", userID,
		"email", email,
		"is_admin", user.IsAdmin,
	)

	return s.issueSession(ctx, user, client)
}

// Login verifies credentials and opens a new session. The same error is
// returned for an unknown email and a wrong password so the endpoint does not
// reveal which accounts exist.
func (s *AuthService) Login(ctx context.Context, req LoginRequest, client ClientInfo) (*AuthResult, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.InvalidCredentials("invalid email or password")
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	ok, err := auth.VerifyPassword(user.PasswordHash, req.Password)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, domainerrors.InvalidCredentials("invalid email or password")
	}

	// Promote accounts that were added to the admin list after they
	// registered. Failing to promote does not block login.
	if s.adminEmails[user.Email] && !user.IsAdmin {
		if err := s.store.SetAdmin(ctx, user.ID, true); err != nil {
			s.logger.Warn("failed to promote admin on login",
				"user_id", user.ID,
				"error", err,
			)
		} else {
			user.IsAdmin = true
		}
	}

	return s.issueSession(ctx, user, client)
}

// Refresh rotates a refresh token: the presented session is deleted and a new
// one is created, so a refresh token can be spent exactly once.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, client ClientInfo) (*AuthResult, error) {
	if refreshToken == "" {
		return nil, domainerrors.Unauthorized("refresh token is required")
	}

	session, err := s.store.GetSessionByTokenHash(ctx, auth.HashRefreshToken(refreshToken))
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.Unauthorized("invalid refresh token")
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	if session.IsExpired(time.Now()) {
		if err := s.store.DeleteSession(ctx, session.ID); err != nil && !domainerrors.Is(err, store.ErrNotFound) {
			s.logger.Warn("failed to delete expired session", "session_id", session.ID, "error", err)
		}
		return nil, domainerrors.TokenExpired("refresh token expired")
	}

	user, err := s.store.GetUser(ctx, session.UserID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	if err := s.store.DeleteSession(ctx, session.ID); err != nil && !domainerrors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("rotate session: %w", err)
	}

	return s.issueSession(ctx, user, client)
}

// Logout ends the session identified by the refresh token. Unknown tokens are
// not an error, so logout is idempotent.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}

	session, err := s.store.GetSessionByTokenHash(ctx, auth.HashRefreshToken(refreshToken))
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("get session: %w", err)
	}

	if err := s.store.DeleteSession(ctx, session.ID); err != nil && !domainerrors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// LogoutAll ends every session of a user, across all devices.
func (s *AuthService) LogoutAll(ctx context.Context, userID int64) error {
	return s.store.DeleteUserSessions(ctx, userID)
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, userID int64) (*domain.User, error) {
	return s.store.GetUser(ctx, userID)
}

// UpdateProfileRequest is the payload for changing account details.
type UpdateProfileRequest struct {
	Name string `json:"name" validate:"required,min=2,max=100"`
}

// UpdateProfile changes the display name and returns the updated user.
func (s *AuthService) UpdateProfile(ctx context.Context, userID int64, req UpdateProfileRequest) (*domain.User, error) {
	if err := validate.Struct(req); err != nil {
		return nil, formatValidationError(err)
	}

	if err := s.store.UpdateUserName(ctx, userID, strings.TrimSpace(req.Name)); err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return nil, domainerrors.NotFound("user not found")
		}
		return nil, fmt.Errorf("update user: %w", err)
	}

	return s.store.GetUser(ctx, userID)
}

// ChangePasswordRequest is the payload for replacing the account password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=128"`
}

// ChangePassword verifies the current password and stores a hash of the new
// one. Existing sessions stay valid; only the credential changes.
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, req ChangePasswordRequest) error {
	if err := validate.Struct(req); err != nil {
		return formatValidationError(err)
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		if domainerrors.Is(err, store.ErrNotFound) {
			return domainerrors.NotFound("user not found")
		}
		return fmt.Errorf("get user: %w", err)
	}

	ok, err := auth.VerifyPassword(user.PasswordHash, req.CurrentPassword)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return domainerrors.InvalidCredentials("current password is incorrect")
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.store.UpdateUserPassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	s.logger.Info("password changed", "user_id", userID)
	return nil
}

// CleanupSessions removes sessions whose refresh window has passed. Meant to
// run periodically from the main loop.
func (s *AuthService) CleanupSessions(ctx context.Context) error {
	n, err := s.store.DeleteExpiredSessions(ctx)
	if err != nil {
		return fmt.Errorf("delete expired sessions: %w", err)
	}
	if n > 0 {
		s.logger.Info("expired sessions removed", "count", n)
	}
	return nil
}

// PromoteConfiguredAdmins grants admin to every configured admin email that
// already has an account. Called once at startup.
func (s *AuthService) PromoteConfiguredAdmins(ctx context.Context) error {
	if len(s.adminEmails) == 0 {
		return nil
	}
	emails := make([]string, 0, len(s.adminEmails))
	for email := range s.adminEmails {
		emails = append(emails, email)
	}
	return s.store.PromoteAdmins(ctx, emails)
}

func (s *AuthService) issueSession(ctx context.Context, user *domain.User, client ClientInfo) (*AuthResult, error) {
	accessToken, err := s.tokens.GenerateAccessToken(user)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	refreshToken, err := s.tokens.GenerateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	sessionID, err := id.Generate("session")
	if err != nil {
		return nil, fmt.Errorf("generate session ID: %w", err)
	}

	now := time.Now().UTC()
	session := &domain.Session{
		ID:               sessionID,
		UserID:           user.ID,
		RefreshTokenHash: auth.HashRefreshToken(refreshToken),
		UserAgent:        client.UserAgent,
		IPAddress:        client.IPAddress,
		CreatedAt:        now,
		ExpiresAt:        now.Add(s.tokens.RefreshTokenDuration()),
	}

	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	return &AuthResult{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresAt:    now.Add(s.tokens.AccessTokenDuration()),
	}, nil
}
