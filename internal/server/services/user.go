// Package services contains server-side business logic. This file implements
// UserService: accounts, sessions and password recovery.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/homeshare/internal/common"
	"github.com/dmitrijs2005/homeshare/internal/dbx"
	"github.com/dmitrijs2005/homeshare/internal/logging"
	"github.com/dmitrijs2005/homeshare/internal/server/auth"
	"github.com/dmitrijs2005/homeshare/internal/server/config"
	"github.com/dmitrijs2005/homeshare/internal/server/mailer"
	"github.com/dmitrijs2005/homeshare/internal/server/models"
	"github.com/dmitrijs2005/homeshare/internal/server/repositories/repomanager"
	"github.com/google/uuid"
)

// Reset link failures surface as validation errors: the caller is not
// authenticated, so they must not look like an expired access token.
var (
	ErrResetLinkInvalid = fmt.Errorf("%w: reset link is invalid", common.ErrorValidation)
	ErrResetLinkExpired = fmt.Errorf("%w: reset link has expired", common.ErrorValidation)
)

// Session is an issued access token, its refresh token and the account they belong to.
type Session struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
	User         *models.User
}

type UserService struct {
	db                            *sql.DB
	repomanager                   repomanager.RepositoryManager
	mailer                        mailer.Mailer
	logger                        logging.Logger
	jwtSecret                     []byte
	accessTokenValidityDuration   time.Duration
	refreshTokenValidityDuration  time.Duration
	passwordResetValidityDuration time.Duration
	now                           func() time.Time
}

func NewUserService(db *sql.DB, m repomanager.RepositoryManager, ml mailer.Mailer, logger logging.Logger, cfg *config.Config) *UserService {
	return &UserService{
		db:                            db,
		repomanager:                   m,
		mailer:                        ml,
		logger:                        logger.With("module", "user_service"),
		jwtSecret:                     []byte(cfg.SecretKey),
		accessTokenValidityDuration:   cfg.AccessTokenValidityDuration,
		refreshTokenValidityDuration:  cfg.RefreshTokenValidityDuration,
		passwordResetValidityDuration: cfg.PasswordResetValidityDuration,
		now:                           time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// SignUp creates the account and its profile in one transaction. No session
// is issued; the caller signs in separately.
func (s *UserService) SignUp(ctx context.Context, email, password, firstName, lastName string) (*models.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, common.ErrorInternal
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        normalizeEmail(email),
		PasswordHash: hash,
	}

	err = dbx.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.repomanager.Users(tx).Create(ctx, user); err != nil {
			return err
		}
		return s.repomanager.Profiles(tx).Create(ctx, user.ID, firstName, lastName)
	})
	if err != nil {
		if errors.Is(err, common.ErrorAlreadyExists) {
			return nil, common.ErrorAlreadyExists
		}
		return nil, fmt.Errorf("error creating user: %w", err)
	}

	s.logger.Info(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// SignIn checks the password and issues a session. Unknown emails and wrong
// passwords are indistinguishable to the caller and take comparable time.
func (s *UserService) SignIn(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			auth.VerifyDummy(password)
			return nil, common.ErrorUnauthorized
		}
		return nil, common.ErrorInternal
	}

	if !auth.VerifyPassword(user.PasswordHash, password) {
		return nil, common.ErrorUnauthorized
	}

	return s.issueSession(ctx, user, s.db)
}

// RefreshToken rotates the refresh token transactionally and returns a new
// session. Expired tokens yield common.ErrRefreshTokenExpired.
func (s *UserService) RefreshToken(ctx context.Context, refreshToken string) (*Session, error) {
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

	var session *Session
	err = dbx.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.RefreshTokens(tx).Delete(ctx, refreshToken); err != nil {
			return fmt.Errorf("error deleting refresh token: %w", err)
		}
		user, err := s.repomanager.Users(tx).GetByID(ctx, token.UserID)
		if err != nil {
			return fmt.Errorf("error loading user: %w", err)
		}
		session, err = s.issueSession(ctx, user, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return session, nil
}

// SignOut ends every session of userID. The refresh token identifies the
// session being closed; an unknown token reports common.ErrorNotFound after
// the user's tokens are revoked anyway.
func (s *UserService) SignOut(ctx context.Context, userID, refreshToken string) error {
	repo := s.repomanager.RefreshTokens(s.db)

	known := true
	if refreshToken != "" {
		token, err := repo.Find(ctx, refreshToken)
		switch {
		case errors.Is(err, common.ErrorNotFound):
			known = false
		case err != nil:
			return fmt.Errorf("error searching refresh token: %w", err)
		case token.UserID != userID:
			return common.ErrorForbidden
		}
	}

	if err := repo.DeleteByUser(ctx, userID); err != nil {
		return fmt.Errorf("error revoking sessions: %w", err)
	}

	s.logger.Info(ctx, "user signed out", "user_id", userID)
	if !known {
		return common.ErrorNotFound
	}
	return nil
}

func (s *UserService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		return nil, common.ErrorInternal
	}
	return user, nil
}

// SendPasswordReset mails a reset link when the address belongs to an
// account. It reports success either way so that callers cannot test for
// registered addresses.
func (s *UserService) SendPasswordReset(ctx context.Context, email, redirectURL string) error {
	link, err := url.Parse(redirectURL)
	if err != nil || link.Scheme == "" || link.Host == "" {
		return fmt.Errorf("%w: redirect_url must be an absolute url", common.ErrorValidation)
	}

	user, err := s.repomanager.Users(s.db).GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Debug(ctx, "password reset for unknown address")
			return nil
		}
		return common.ErrorInternal
	}

	token, err := common.NewToken(common.TokenBytes)
	if err != nil {
		return common.ErrorInternal
	}

	reset := &models.PasswordReset{
		Token:   token,
		UserID:  user.ID,
		Expires: s.now().Add(s.passwordResetValidityDuration),
	}
	if err := s.repomanager.PasswordResets(s.db).Create(ctx, reset); err != nil {
		s.logger.Error(ctx, "failed to store reset token", "error", err.Error())
		return common.ErrorInternal
	}

	q := link.Query()
	q.Set("token", token)
	link.RawQuery = q.Encode()

	if err := s.mailer.SendPasswordReset(ctx, user.Email, link.String()); err != nil {
		s.logger.Error(ctx, "failed to deliver reset link", "user_id", user.ID, "error", err.Error())
	}
	return nil
}

// CompletePasswordReset consumes a reset token, stores the new password and
// revokes all sessions of the account.
func (s *UserService) CompletePasswordReset(ctx context.Context, token, newPassword string) error {
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return common.ErrorInternal
	}

	return dbx.WithTx(ctx, s.db, func(ctx context.Context, tx dbx.DBTX) error {
		reset, err := s.repomanager.PasswordResets(tx).Take(ctx, token)
		if err != nil {
			if errors.Is(err, common.ErrorNotFound) {
				return ErrResetLinkInvalid
			}
			return err
		}
		if reset.Expires.Before(s.now()) {
			return ErrResetLinkExpired
		}
		if err := s.repomanager.Users(tx).UpdatePassword(ctx, reset.UserID, hash); err != nil {
			return err
		}
		if err := s.repomanager.PasswordResets(tx).DeleteByUser(ctx, reset.UserID); err != nil {
			return err
		}
		return s.repomanager.RefreshTokens(tx).DeleteByUser(ctx, reset.UserID)
	})
}

func (s *UserService) issueSession(ctx context.Context, user *models.User, tx dbx.DBTX) (*Session, error) {
	access, expires, err := auth.GenerateToken(user.ID, user.Email, s.jwtSecret, s.accessTokenValidityDuration)
	if err != nil {
		return nil, common.ErrorInternal
	}
	refresh, err := common.NewToken(common.TokenBytes)
	if err != nil {
		return nil, common.ErrorInternal
	}

	rt := &models.RefreshToken{
		UserID:  user.ID,
		Token:   refresh,
		Expires: s.now().Add(s.refreshTokenValidityDuration),
	}
	if err := s.repomanager.RefreshTokens(tx).Create(ctx, rt); err != nil {
		return nil, common.ErrorInternal
	}

	return &Session{AccessToken: access, RefreshToken: refresh, ExpiresAt: expires, User: user}, nil
}
