// Package repository provides data access layer for the group module.
package repository

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/reviewhub/reviewhub/internal/group/model"
	identityModel "github.com/reviewhub/reviewhub/internal/identity/model"
)

// Repository defines the interface for group data access operations.
type Repository interface {
	// Create creates a new review group.
	Create(ctx context.Context, group *model.Group) error

	// GetByName finds a group by name within a local site, with members preloaded.
	GetByName(ctx context.Context, name string, localSiteID *uint64) (*model.Group, error)

	// AddMember adds a user to a group.
	AddMember(ctx context.Context, group *model.Group, user *identityModel.User) error

	// GetMemberUsernames returns usernames of all group members.
	GetMemberUsernames(ctx context.Context, groupID uint64) ([]string, error)
}

type repository struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// New creates a new group repository instance.
func New(db *gorm.DB, logger *zap.SugaredLogger) Repository {
	return &repository{db: db, logger: logger}
}

// Create creates a new review group.
func (r *repository) Create(ctx context.Context, group *model.Group) error {
	err := r.db.WithContext(ctx).Create(group).Error
	if err != nil {
		if isDuplicateError(err) {
			return model.ErrGroupExists
		}
		r.logger.Errorw("Create group failed", "name", group.Name, "error", err)
		return err
	}
	return nil
}

// GetByName finds a group by name within a local site.
func (r *repository) GetByName(
	ctx context.Context,
	name string,
	localSiteID *uint64,
) (*model.Group, error) {
	query := r.db.WithContext(ctx).
		Preload("Users").
		Where("name = ?", name)
	if localSiteID != nil {
		query = query.Where("local_site_id = ?", *localSiteID)
	} else {
		query = query.Where("local_site_id IS NULL")
	}

	var group model.Group
	if err := query.First(&group).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrGroupNotFound
		}
		r.logger.Errorw("GetByName database error", "name", name, "error", err)
		return nil, err
	}
	return &group, nil
}

// AddMember adds a user to a group.
func (r *repository) AddMember(
	ctx context.Context,
	group *model.Group,
	user *identityModel.User,
) error {
	err := r.db.WithContext(ctx).Model(group).Association("Users").Append(user)
	if err != nil {
		r.logger.Errorw("AddMember failed", "group", group.Name, "user", user.Username, "error", err)
		return err
	}
	return nil
}

// GetMemberUsernames returns usernames of all group members.
func (r *repository) GetMemberUsernames(ctx context.Context, groupID uint64) ([]string, error) {
	var usernames []string
	err := r.db.WithContext(ctx).
		Table("users").
		Joins("JOIN review_group_users ON review_group_users.user_id = users.id").
		Where("review_group_users.group_id = ?", groupID).
		Order("users.username ASC").
		Pluck("users.username", &usernames).Error
	if err != nil {
		r.logger.Errorw("GetMemberUsernames database error", "group_id", groupID, "error", err)
		return nil, err
	}
	if usernames == nil {
		usernames = []string{}
	}
	return usernames, nil
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
