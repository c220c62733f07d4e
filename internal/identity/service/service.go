// Package service provides business logic layer for the identity module.
package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/reviewhub/reviewhub/internal/identity/model"
	"github.com/reviewhub/reviewhub/internal/identity/repository"
)

// defaultSessionTTL is how long a session stays valid after creation.
const defaultSessionTTL = 7 * 24 * time.Hour

// Service defines the interface for identity business logic operations.
type Service interface {
	// ResolveOrCreate resolves each external identity entry to a local user,
	// provisioning missing accounts and reconciling changed fields.
	// The call is idempotent: identical input performs zero writes the
	// second time. Users are returned in input order.
	ResolveOrCreate(ctx context.Context, externals []model.ExternalUser) ([]model.User, error)

	// Login authenticates a username/password pair and opens a session.
	Login(ctx context.Context, req *model.LoginRequest) (*model.Session, *model.User, error)

	// Logout deletes the session for the given token, clearing any external
	// credential fields stored with it.
	Logout(ctx context.Context, token string) error

	// AuthenticateSession resolves a session token to its user.
	AuthenticateSession(ctx context.Context, token string) (*model.User, error)

	// AuthenticateBasic validates a username/password pair without opening a session.
	AuthenticateBasic(ctx context.Context, username, password string) (*model.User, error)

	// AuthenticateExternal authenticates with an external bug-tracker
	// login/cookie pair, provisioning the local account when needed, and
	// opens a session carrying the pair.
	AuthenticateExternal(ctx context.Context, login, cookie string) (*model.Session, *model.User, error)

	// GetByUsername returns the user with the given username.
	GetByUsername(ctx context.Context, username string) (*model.User, error)

	// ListActive returns all active users.
	ListActive(ctx context.Context) ([]model.User, error)
}

type service struct {
	repo   repository.Repository
	logger *zap.SugaredLogger
}

// New creates a new identity service instance.
func New(repo repository.Repository, logger *zap.SugaredLogger) Service {
	return &service{
		repo:   repo,
		logger: logger,
	}
}

// ResolveOrCreate resolves each external identity entry to a local user.
func (s *service) ResolveOrCreate(
	ctx context.Context,
	externals []model.ExternalUser,
) ([]model.User, error) {
	resolved := make([]model.User, 0, len(externals))

	for _, external := range externals {
		if external.Login == "" {
			return nil, model.ErrInvalidLogin
		}

		template := &model.User{
			DisplayName: external.DisplayName,
			Email:       external.Login,
			Password:    "external account",
			IsActive:    external.CanAuthenticate,
		}

		user, created, err := s.repo.GetOrCreateByUsername(ctx, external.Login, template)
		if err != nil {
			return nil, err
		}

		if !created {
			// Reconcile fields, persisting only when something changed.
			modified := false
			if user.DisplayName != external.DisplayName {
				user.DisplayName = external.DisplayName
				modified = true
			}
			if user.IsActive != external.CanAuthenticate {
				user.IsActive = external.CanAuthenticate
				modified = true
			}
			if modified {
				if err := s.repo.Save(ctx, user); err != nil {
					return nil, err
				}
			}
		} else {
			s.logger.Infow("provisioned user from external identity", "login", external.Login)
		}

		resolved = append(resolved, *user)
	}

	return resolved, nil
}

// Login authenticates a username/password pair and opens a session.
func (s *service) Login(
	ctx context.Context,
	req *model.LoginRequest,
) (*model.Session, *model.User, error) {
	user, err := s.AuthenticateBasic(ctx, req.Username, req.Password)
	if err != nil {
		return nil, nil, err
	}

	session, err := s.openSession(ctx, user, "", "")
	if err != nil {
		return nil, nil, err
	}

	s.logger.Infow("session opened", "username", user.Username)
	return session, user, nil
}

// Logout deletes the session for the given token.
func (s *service) Logout(ctx context.Context, token string) error {
	return s.repo.DeleteSession(ctx, token)
}

// AuthenticateSession resolves a session token to its user.
func (s *service) AuthenticateSession(ctx context.Context, token string) (*model.User, error) {
	session, err := s.repo.GetSession(ctx, token)
	if err != nil {
		return nil, err
	}
	if session.Expired() {
		// Expired sessions are removed eagerly so stale external
		// credentials do not linger.
		_ = s.repo.DeleteSession(ctx, token)
		return nil, model.ErrSessionNotFound
	}

	user, err := s.repo.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, model.ErrUserInactive
	}
	return user, nil
}

// AuthenticateBasic validates a username/password pair.
func (s *service) AuthenticateBasic(
	ctx context.Context,
	username, password string,
) (*model.User, error) {
	user, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return nil, model.ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.CheckPassword(password) {
		return nil, model.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, model.ErrUserInactive
	}
	return user, nil
}

// AuthenticateExternal authenticates with an external login/cookie pair.
func (s *service) AuthenticateExternal(
	ctx context.Context,
	login, cookie string,
) (*model.Session, *model.User, error) {
	if login == "" || cookie == "" {
		return nil, nil, model.ErrInvalidCredentials
	}

	users, err := s.ResolveOrCreate(ctx, []model.ExternalUser{{
		Login:           login,
		DisplayName:     login,
		CanAuthenticate: true,
	}})
	if err != nil {
		return nil, nil, err
	}

	user := &users[0]
	if !user.IsActive {
		return nil, nil, model.ErrUserInactive
	}

	session, err := s.openSession(ctx, user, login, cookie)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Infow("session opened from external credentials", "login", login)
	return session, user, nil
}

// GetByUsername returns the user with the given username.
func (s *service) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.repo.GetByUsername(ctx, username)
}

// ListActive returns all active users.
func (s *service) ListActive(ctx context.Context) ([]model.User, error) {
	return s.repo.ListActive(ctx)
}

func (s *service) openSession(
	ctx context.Context,
	user *model.User,
	externalLogin, externalCookie string,
) (*model.Session, error) {
	now := time.Now()
	session := &model.Session{
		Token:          uuid.NewString(),
		UserID:         user.ID,
		ExternalLogin:  externalLogin,
		ExternalCookie: externalCookie,
		CreatedAt:      now,
		ExpiresAt:      now.Add(defaultSessionTTL),
	}
	if err := s.repo.CreateSession(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}
