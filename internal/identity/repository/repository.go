// Package repository provides data access layer for the identity module.
package repository

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/reviewhub/reviewhub/internal/identity/model"
)

// Repository defines the interface for identity data access operations.
type Repository interface {
	// GetByID finds a user by primary key.
	GetByID(ctx context.Context, id uint64) (*model.User, error)

	// GetByUsername finds a user by exact username match.
	GetByUsername(ctx context.Context, username string) (*model.User, error)

	// GetOrCreateByUsername returns the user with the given username,
	// creating it from the template when absent. The create is atomic:
	// a concurrent create of the same username resolves to the winning row.
	GetOrCreateByUsername(ctx context.Context, username string, template *model.User) (*model.User, bool, error)

	// Save persists changes to an existing user.
	Save(ctx context.Context, user *model.User) error

	// ListActive returns all active users ordered by username.
	ListActive(ctx context.Context) ([]model.User, error)

	// CreateSession stores a new session.
	CreateSession(ctx context.Context, session *model.Session) error

	// GetSession finds a session by token.
	GetSession(ctx context.Context, token string) (*model.Session, error)

	// DeleteSession removes a session by token, along with its external
	// credential fields.
	DeleteSession(ctx context.Context, token string) error
}

type repository struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// New creates a new identity repository instance.
func New(db *gorm.DB, logger *zap.SugaredLogger) Repository {
	return &repository{db: db, logger: logger}
}

// GetByID finds a user by primary key.
func (r *repository) GetByID(ctx context.Context, id uint64) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrUserNotFound
		}
		r.logger.Errorw("GetByID database error", "id", id, "error", err)
		return nil, err
	}
	return &user, nil
}

// GetByUsername finds a user by exact username match.
func (r *repository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).
		Where("username = ?", username).
		First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrUserNotFound
		}
		r.logger.Errorw("GetByUsername database error", "username", username, "error", err)
		return nil, err
	}
	return &user, nil
}

// GetOrCreateByUsername returns the user with the given username, creating it
// from the template when absent. Returns true when a new row was created.
func (r *repository) GetOrCreateByUsername(
	ctx context.Context,
	username string,
	template *model.User,
) (*model.User, bool, error) {
	user, err := r.GetByUsername(ctx, username)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, model.ErrUserNotFound) {
		return nil, false, err
	}

	created := *template
	created.Username = username
	if createErr := r.db.WithContext(ctx).Create(&created).Error; createErr != nil {
		// A concurrent resolver may have created the row first. The unique
		// index on username makes the loser of that race land here.
		if isDuplicateError(createErr) {
			winner, getErr := r.GetByUsername(ctx, username)
			if getErr != nil {
				return nil, false, getErr
			}
			return winner, false, nil
		}
		r.logger.Errorw("GetOrCreateByUsername create failed", "username", username, "error", createErr)
		return nil, false, createErr
	}

	return &created, true, nil
}

// Save persists changes to an existing user.
func (r *repository) Save(ctx context.Context, user *model.User) error {
	if err := r.db.WithContext(ctx).Save(user).Error; err != nil {
		r.logger.Errorw("Save user failed", "username", user.Username, "error", err)
		return err
	}
	return nil
}

// ListActive returns all active users ordered by username.
func (r *repository) ListActive(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("username ASC").
		Find(&users).Error
	if err != nil {
		r.logger.Errorw("ListActive database error", "error", err)
		return nil, err
	}
	if users == nil {
		users = []model.User{}
	}
	return users, nil
}

// CreateSession stores a new session.
func (r *repository) CreateSession(ctx context.Context, session *model.Session) error {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		r.logger.Errorw("CreateSession failed", "user_id", session.UserID, "error", err)
		return err
	}
	return nil
}

// GetSession finds a session by token.
func (r *repository) GetSession(ctx context.Context, token string) (*model.Session, error) {
	var session model.Session
	err := r.db.WithContext(ctx).
		Where("token = ?", token).
		First(&session).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrSessionNotFound
		}
		r.logger.Errorw("GetSession database error", "error", err)
		return nil, err
	}
	return &session, nil
}

// DeleteSession removes a session by token.
func (r *repository) DeleteSession(ctx context.Context, token string) error {
	result := r.db.WithContext(ctx).
		Where("token = ?", token).
		Delete(&model.Session{})
	if result.Error != nil {
		r.logger.Errorw("DeleteSession failed", "error", result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return model.ErrSessionNotFound
	}
	return nil
}

// isDuplicateError checks if error is a unique constraint violation.
func isDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "UNIQUE constraint")
}
