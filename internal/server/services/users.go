// Package services contains the server-side business logic: the user
// directory with token issuing, the goal store, the transaction poster and
// avatar uploads.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/celengan/internal/common"
	"github.com/dmitrijs2005/celengan/internal/dbx"
	"github.com/dmitrijs2005/celengan/internal/server/auth"
	"github.com/dmitrijs2005/celengan/internal/server/config"
	"github.com/dmitrijs2005/celengan/internal/server/identity"
	"github.com/dmitrijs2005/celengan/internal/server/models"
	"github.com/dmitrijs2005/celengan/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/celengan/internal/server/repositories/users"
)

const maxUsernameSuffix = 10000

// TokenPair bundles a short-lived access token and a long-lived refresh token.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}

// AuthResult is returned by every successful sign-in.
type AuthResult struct {
	User   *models.User
	Tokens *TokenPair
}

// UserService provides the user directory and authentication operations:
//   - Register / Login: local accounts with bcrypt password hashes
//   - ResolveOrProvision / FederatedLogin: accounts backed by an external identity
//   - RefreshToken: rotate refresh tokens and mint new access tokens
type UserService struct {
	db                           *sql.DB
	repomanager                  repomanager.RepositoryManager
	jwtSecret                    []byte
	accessTokenValidityDuration  time.Duration
	refreshTokenValidityDuration time.Duration
	now                          func() time.Time
}

// NewUserService constructs a UserService using repositories and server config.
func NewUserService(db *sql.DB, m repomanager.RepositoryManager, cfg *config.Config) *UserService {
	return &UserService{
		db:                           db,
		repomanager:                  m,
		jwtSecret:                    []byte(cfg.SecretKey),
		accessTokenValidityDuration:  cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration: cfg.RefreshTokenValidityDuration,
		now:                          time.Now,
	}
}

// Register creates a local account and signs it in.
func (s *UserService) Register(ctx context.Context, username, email, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	email = normalizeEmail(email)

	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := validatePassword(password); err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)
	if _, err := repo.GetByEmail(ctx, email); err == nil {
		return nil, common.ErrDuplicateEmail
	} else if !errors.Is(err, common.ErrorNotFound) {
		return nil, fmt.Errorf("error searching user: %w", err)
	}
	exists, err := repo.UsernameExists(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("error searching user: %w", err)
	}
	if exists {
		return nil, common.ErrDuplicateUsername
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, common.ErrorInternal
	}

	var result *AuthResult
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		u, err := s.repomanager.Users(tx).Create(ctx, &models.User{
			Username:     username,
			Email:        email,
			PasswordHash: hash,
		})
		if err != nil {
			return err
		}
		pair, err := s.generateTokenPair(ctx, u.ID, tx)
		if err != nil {
			return err
		}
		result = &AuthResult{User: u, Tokens: pair}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Login checks the password of a local account. An unknown email, a wrong
// password and an account without a password all yield
// common.ErrInvalidCredentials.
func (s *UserService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error searching user: %w", err)
	}
	if !user.HasPassword() {
		return nil, common.ErrInvalidCredentials
	}
	ok, err := auth.CheckPassword(user.PasswordHash, password)
	if err != nil {
		return nil, common.ErrorInternal
	}
	if !ok {
		return nil, common.ErrInvalidCredentials
	}

	pair, err := s.generateTokenPair(ctx, user.ID, s.db)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Tokens: pair}, nil
}

// RefreshToken validates a refresh token, rotates it transactionally, and
// returns a fresh TokenPair. Unknown or already used tokens yield
// ErrInvalidToken, expired ones ErrRefreshTokenExpired.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	if refreshToken == "" {
		return nil, common.ErrNoToken
	}

	token, err := s.repomanager.RefreshTokens(s.db).Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrInvalidToken
		}
		return nil, fmt.Errorf("error searching refresh token: %w", err)
	}
	if token.Expires.Before(s.now()) {
		return nil, common.ErrRefreshTokenExpired
	}

	var pair *TokenPair
	if err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.RefreshTokens(tx).Delete(ctx, refreshToken); err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return common.ErrInvalidToken
			}
			return fmt.Errorf("error deleting refresh token: %w", err)
		}
		var genErr error
		pair, genErr = s.generateTokenPair(ctx, token.UserID, tx)
		return genErr
	}); err != nil {
		return nil, err
	}
	return pair, nil
}

// ResolveOrProvision maps an external identity to a user, linking or
// creating one as needed. The lookup runs in one transaction; when a
// concurrent sign-in wins the insert race the resolve is retried once.
func (s *UserService) ResolveOrProvision(ctx context.Context, id *identity.Identity) (*models.User, error) {
	if id == nil || id.ExternalID == "" {
		return nil, common.ErrInvalidToken
	}
	email := normalizeEmail(id.Email)
	if email == "" {
		return nil, fmt.Errorf("%w: identity has no email", common.ErrInvalidToken)
	}

	var user *models.User
	resolve := func(ctx context.Context, tx dbx.DBTX) error {
		u, err := s.resolve(ctx, s.repomanager.Users(tx), id, email)
		user = u
		return err
	}

	err := dbx.WithTx(ctx, s.db, nil, resolve)
	if isConflict(err) {
		err = dbx.WithTx(ctx, s.db, nil, resolve)
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

// FederatedLogin resolves the identity and signs the user in.
func (s *UserService) FederatedLogin(ctx context.Context, id *identity.Identity) (*AuthResult, error) {
	user, err := s.ResolveOrProvision(ctx, id)
	if err != nil {
		return nil, err
	}
	pair, err := s.generateTokenPair(ctx, user.ID, s.db)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Tokens: pair}, nil
}

// GetByID returns the user or common.ErrorNotFound.
func (s *UserService) GetByID(ctx context.Context, userID string) (*models.User, error) {
	if !validID(userID) {
		return nil, common.ErrorNotFound
	}
	return s.repomanager.Users(s.db).GetByID(ctx, userID)
}

// AccessTokenUserID returns the user id carried by an app access token.
func (s *UserService) AccessTokenUserID(token string) (string, error) {
	return auth.GetUserIDFromToken(token, s.jwtSecret)
}

// --- helpers below ---

func (s *UserService) resolve(ctx context.Context, repo users.Repository, id *identity.Identity, email string) (*models.User, error) {
	u, err := repo.GetByExternalID(ctx, id.ExternalID)
	switch {
	case err == nil:
		// Keep the stored email when the provider's one belongs to someone else.
		if email != u.Email {
			other, err := repo.GetByEmail(ctx, email)
			if err == nil && other.ID != u.ID {
				email = ""
			} else if err != nil && !errors.Is(err, common.ErrorNotFound) {
				return nil, err
			}
		}
		return repo.RefreshProfile(ctx, u.ID, email, id.DisplayName, id.PhotoURL)
	case !errors.Is(err, common.ErrorNotFound):
		return nil, err
	}

	u, err = repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return repo.LinkExternal(ctx, u.ID, id.ExternalID, id.DisplayName, id.PhotoURL)
	case !errors.Is(err, common.ErrorNotFound):
		return nil, err
	}

	username, err := s.uniqueUsername(ctx, repo, email)
	if err != nil {
		return nil, err
	}
	return repo.Create(ctx, &models.User{
		Username:    username,
		Email:       email,
		ExternalID:  id.ExternalID,
		DisplayName: id.DisplayName,
		PhotoURL:    id.PhotoURL,
	})
}

// uniqueUsername derives a username from the local part of email, appending
// 1, 2, ... until it is free.
func (s *UserService) uniqueUsername(ctx context.Context, repo users.Repository, email string) (string, error) {
	base, _, _ := strings.Cut(email, "@")
	if len([]rune(base)) < minUsernameLen {
		base = "user_" + base
	}

	candidate := base
	for i := 1; i <= maxUsernameSuffix; i++ {
		exists, err := repo.UsernameExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = base + strconv.Itoa(i)
	}
	return "", fmt.Errorf("no free username for %q", base)
}

func isConflict(err error) bool {
	return errors.Is(err, common.ErrorAlreadyExists) ||
		errors.Is(err, common.ErrDuplicateEmail) ||
		errors.Is(err, common.ErrDuplicateUsername)
}

func (s *UserService) generateAccessToken(userID string) (string, error) {
	return auth.GenerateToken(userID, s.jwtSecret, s.accessTokenValidityDuration)
}

func (s *UserService) generateRefreshToken() (string, error) {
	return common.MakeRandHexString(32)
}

func (s *UserService) generateTokenPair(ctx context.Context, userID string, tx dbx.DBTX) (*TokenPair, error) {
	access, err := s.generateAccessToken(userID)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := s.generateRefreshToken()
	if err != nil {
		return nil, common.ErrorInternal
	}
	err = s.repomanager.RefreshTokens(tx).Create(ctx, &models.RefreshToken{
		UserID:  userID,
		Token:   refresh,
		Expires: s.now().Add(s.refreshTokenValidityDuration),
	})
	if err != nil {
		return nil, fmt.Errorf("error storing refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh}, nil
}
