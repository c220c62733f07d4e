// Package repository provides data access layer for the scm module.
package repository

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/reviewhub/reviewhub/internal/scm/model"
)

// Repository defines the interface for scm data access operations.
type Repository interface {
	// GetByID finds a repository by primary key within a local site.
	GetByID(ctx context.Context, id uint64, localSiteID *uint64) (*model.Repository, error)

	// GetByPathOrName finds a repository whose path or name equals the
	// given value, within a local site.
	GetByPathOrName(ctx context.Context, value string, localSiteID *uint64) (*model.Repository, error)
}

type repository struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// New creates a new scm repository instance.
func New(db *gorm.DB, logger *zap.SugaredLogger) Repository {
	return &repository{db: db, logger: logger}
}

// GetByID finds a repository by primary key within a local site.
func (r *repository) GetByID(
	ctx context.Context,
	id uint64,
	localSiteID *uint64,
) (*model.Repository, error) {
	var repo model.Repository
	err := scopeSite(r.db.WithContext(ctx), localSiteID).
		Where("id = ?", id).
		First(&repo).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrRepositoryNotFound
		}
		r.logger.Errorw("GetByID database error", "id", id, "error", err)
		return nil, err
	}
	return &repo, nil
}

// GetByPathOrName finds a repository by path or name within a local site.
func (r *repository) GetByPathOrName(
	ctx context.Context,
	value string,
	localSiteID *uint64,
) (*model.Repository, error) {
	var repo model.Repository
	err := scopeSite(r.db.WithContext(ctx), localSiteID).
		Where("path = ? OR name = ?", value, value).
		First(&repo).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrRepositoryNotFound
		}
		r.logger.Errorw("GetByPathOrName database error", "value", value, "error", err)
		return nil, err
	}
	return &repo, nil
}

func scopeSite(db *gorm.DB, localSiteID *uint64) *gorm.DB {
	if localSiteID != nil {
		return db.Where("local_site_id = ?", *localSiteID)
	}
	return db.Where("local_site_id IS NULL")
}
