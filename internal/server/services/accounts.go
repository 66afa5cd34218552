// Package services contains the account flows built on top of the user
// store and the credential manager. Every flow loads a record, changes it
// in memory and hands it back to the store; store errors are returned as
// they are.
package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/credkeeper/internal/common"
	"github.com/dmitrijs2005/credkeeper/internal/dbx"
	"github.com/dmitrijs2005/credkeeper/internal/logging"
	"github.com/dmitrijs2005/credkeeper/internal/server/auth"
	"github.com/dmitrijs2005/credkeeper/internal/server/credentials"
	"github.com/dmitrijs2005/credkeeper/internal/server/models"
	"github.com/dmitrijs2005/credkeeper/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/credkeeper/internal/server/repositories/users"
)

// RegisterInput carries the fields of a new account. ProfilePicture is
// optional.
type RegisterInput struct {
	EmailAddr      string
	Username       string
	Password       string
	ProfilePicture []byte
}

// AccountService provides:
// - Register: create a user with a password
// - Login: check a password and issue a token
// - ChangePassword / ResetPassword: replace the stored credential
// - VerifyToken / Authenticate: check an issued token
type AccountService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	credentials *credentials.Manager
	logger      logging.Logger
}

func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, cm *credentials.Manager, logger logging.Logger) *AccountService {
	return &AccountService{
		db:          db,
		repomanager: m,
		credentials: cm,
		logger:      logger.With("module", "accounts"),
	}
}

func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	switch {
	case in.EmailAddr == "":
		return nil, fmt.Errorf("%w: email_addr is required", common.ErrorValidation)
	case in.Username == "":
		return nil, fmt.Errorf("%w: username is required", common.ErrorValidation)
	case in.Password == "":
		return nil, fmt.Errorf("%w: password is required", common.ErrorValidation)
	}

	user := &models.User{
		EmailAddr:      in.EmailAddr,
		Username:       in.Username,
		ProfilePicture: in.ProfilePicture,
	}
	if err := s.credentials.SetPassword(user, in.Password); err != nil {
		return nil, err
	}

	u, err := s.repomanager.Users(s.db).Create(ctx, user)
	if err != nil {
		var uErr *users.UniquenessError
		if errors.As(err, &uErr) {
			s.logger.Warn(ctx, "registration rejected", "field", uErr.Field)
		}
		return nil, err
	}

	s.logger.Info(ctx, "user registered", "user_id", u.ID)
	return u, nil
}

// Login accepts a username or an email address. Unknown users and wrong
// passwords both yield common.ErrorUnauthorized.
func (s *AccountService) Login(ctx context.Context, login, password string) (string, error) {
	user, err := s.findByLogin(ctx, s.repomanager.Users(s.db), login)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Warn(ctx, "login failed", "reason", "unknown user")
			return "", common.ErrorUnauthorized
		}
		return "", err
	}

	if !s.credentials.ValidPassword(user, password) {
		s.logger.Warn(ctx, "login failed", "reason", "bad password", "user_id", user.ID)
		return "", common.ErrorUnauthorized
	}

	token, err := s.credentials.GenerateToken(user)
	if err != nil {
		return "", err
	}

	s.logger.Debug(ctx, "token issued", "user_id", user.ID)
	return token, nil
}

func (s *AccountService) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("%w: password is required", common.ErrorValidation)
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		user, err := repo.FindByID(ctx, userID)
		if err != nil {
			return err
		}
		if !s.credentials.ValidPassword(user, oldPassword) {
			return common.ErrorUnauthorized
		}
		if err := s.credentials.SetPassword(user, newPassword); err != nil {
			return err
		}
		return repo.Save(ctx, user)
	})
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "password changed", "user_id", userID)
	return nil
}

// ResetPassword sets a new password without checking the old one.
func (s *AccountService) ResetPassword(ctx context.Context, login, newPassword string) error {
	if newPassword == "" {
		return fmt.Errorf("%w: password is required", common.ErrorValidation)
	}

	var userID string
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Users(tx)

		user, err := s.findByLogin(ctx, repo, login)
		if err != nil {
			return err
		}
		if err := s.credentials.SetPassword(user, newPassword); err != nil {
			return err
		}
		userID = user.ID
		return repo.Save(ctx, user)
	})
	if err != nil {
		return err
	}

	s.logger.Info(ctx, "password reset", "user_id", userID)
	return nil
}

func (s *AccountService) VerifyToken(token string) (*auth.Claims, error) {
	return s.credentials.ParseToken(token)
}

// Authenticate verifies token and loads the user it was issued to. A token
// for a user that no longer exists yields common.ErrorUnauthorized.
func (s *AccountService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	claims, err := s.credentials.ParseToken(token)
	if err != nil {
		return nil, err
	}

	user, err := s.repomanager.Users(s.db).FindByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, err
	}
	return user, nil
}

// Lookup finds a user by username or email address.
func (s *AccountService) Lookup(ctx context.Context, login string) (*models.User, error) {
	return s.findByLogin(ctx, s.repomanager.Users(s.db), login)
}

func (s *AccountService) findByLogin(ctx context.Context, repo users.Repository, login string) (*models.User, error) {
	if login == "" {
		return nil, common.ErrorNotFound
	}
	user, err := repo.FindByUsername(ctx, login)
	if errors.Is(err, common.ErrorNotFound) {
		return repo.FindByEmail(ctx, login)
	}
	return user, err
}
