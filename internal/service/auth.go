package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Cleamaster322/library/internal/blacklist"
	"github.com/Cleamaster322/library/internal/models"
	"github.com/Cleamaster322/library/internal/repo"
	"github.com/Cleamaster322/library/internal/transport"
	pkg_hash "github.com/Cleamaster322/library/pkg/hash"
	"github.com/Cleamaster322/library/pkg/logging"
	"github.com/Cleamaster322/library/pkg/tokens"
)

type AuthService struct {
	Repo      *repo.GormRepo
	Tokens    *tokens.Issuer
	Blacklist blacklist.Store
	Validator *transport.Validator
}

func (s *AuthService) Register(ctx context.Context, req transport.RegisterRequest) (*models.User, error) {
	l := logging.FromContext(ctx).With("svc", "auth.register", "username", req.Username)

	if err := s.Validator.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrValidation, err)
	}

	pwHash, err := pkg_hash.HashPassword(req.Password)
	if errors.Is(err, pkg_hash.ErrPasswordTooLong) {
		return nil, fmt.Errorf("%w: password: ensure this field has no more than 72 bytes", ErrValidation)
	}
	if err != nil {
		l.Error("register_error", "status", 500, "reason", "cannot hash the password", "error", err)
		return nil, err
	}

	user := &models.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: pwHash,
		Role:         tokens.RoleUser,
	}
	if err := s.Repo.CreateUserIfNotExists(ctx, user); err != nil {
		if errors.Is(err, repo.ErrUserAlreadyExists) {
			return nil, ErrUsernameTaken
		}
		l.Error("register_error", "status", 500, "reason", "cannot create user", "error", err)
		return nil, err
	}

	l.Info("user_registered", "user_id", user.ID)
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, req transport.LoginRequest) (*transport.LoginResult, error) {
	l := logging.FromContext(ctx).With("svc", "auth.login", "username", req.Username)

	user, err := s.Repo.GetUserByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		l.Error("login_error", "status", 500, "error", err)
		return nil, err
	}
	if !pkg_hash.CheckPassword(user.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}

	userID := strconv.FormatUint(uint64(user.ID), 10)
	access, accessExp, err := s.Tokens.CreateAccessToken(userID, user.Role)
	if err != nil {
		l.Error("login_error", "status", 500, "reason", "cannot sign access token", "error", err)
		return nil, err
	}
	refresh, claims, err := s.Tokens.CreateRefreshToken(userID)
	if err != nil {
		l.Error("login_error", "status", 500, "reason", "cannot sign refresh token", "error", err)
		return nil, err
	}

	return &transport.LoginResult{
		AccessToken:  access,
		RefreshToken: refresh,
		AccessExp:    accessExp,
		RefreshExp:   claims.ExpiresAt.Time,
		IsAdmin:      user.IsAdmin(),
	}, nil
}

// Refresh issues a new access token for a live refresh token. The refresh token
// itself is not rotated; the role comes from the stored user.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	if refreshToken == "" {
		return "", ErrMissingField
	}

	claims, err := s.Tokens.ParseRefresh(refreshToken)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrTokenExpired
		}
		return "", fmt.Errorf("%w: %s", ErrInvalidToken, err)
	}

	revoked, err := s.Blacklist.Contains(ctx, claims.ID)
	if err != nil {
		return "", fmt.Errorf("check blacklist: %w", err)
	}
	if revoked {
		return "", ErrBlacklisted
	}

	id, err := strconv.ParseUint(claims.Subject, 10, 64)
	if err != nil {
		return "", fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	user, err := s.Repo.GetUserByID(ctx, uint(id))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return "", fmt.Errorf("%w: user no longer exists", ErrInvalidToken)
		}
		return "", err
	}

	access, _, err := s.Tokens.CreateAccessToken(claims.Subject, user.Role)
	if err != nil {
		return "", err
	}
	return access, nil
}

// Logout revokes the refresh token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	l := logging.FromContext(ctx).With("svc", "auth.logout")

	if refreshToken == "" {
		return ErrMissingField
	}

	claims, err := s.Tokens.ParseRefresh(refreshToken)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidToken, err)
	}

	added, err := s.Blacklist.Add(ctx, claims.ID, claims.Subject, claims.ExpiresAt.Time)
	if err != nil {
		l.Error("logout_error", "status", 500, "reason", "cannot revoke refresh token", "error", err)
		return err
	}
	if !added {
		return ErrBlacklisted
	}

	l.Info("refresh_revoked", "user_id", claims.Subject, "jti", claims.ID)
	return nil
}

// EnsureAdmin creates an admin account unless the username is already taken.
func (s *AuthService) EnsureAdmin(ctx context.Context, username, email, password string) (bool, error) {
	l := logging.FromContext(ctx).With("svc", "auth.ensure_admin", "username", username)

	pwHash, err := pkg_hash.HashPassword(password)
	if err != nil {
		return false, err
	}
	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: pwHash,
		Role:         tokens.RoleAdmin,
	}
	if err := s.Repo.CreateUserIfNotExists(ctx, user); err != nil {
		if !errors.Is(err, repo.ErrUserAlreadyExists) {
			return false, err
		}
		existing, err := s.Repo.GetUserByUsername(ctx, username)
		if err != nil {
			return false, err
		}
		if !existing.IsAdmin() {
			l.Warn("admin_seed_skipped", "reason", "username belongs to a non-admin user")
		}
		return false, nil
	}

	l.Info("admin_created", "user_id", user.ID)
	return true, nil
}
