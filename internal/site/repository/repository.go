// Package repository provides data access layer for the site module.
package repository

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/reviewhub/reviewhub/internal/site/model"
)

// Repository defines the interface for local site data access operations.
type Repository interface {
	// GetByName finds a local site by name, with its members preloaded.
	GetByName(ctx context.Context, name string) (*model.LocalSite, error)
}

type repository struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// New creates a new site repository instance.
func New(db *gorm.DB, logger *zap.SugaredLogger) Repository {
	return &repository{db: db, logger: logger}
}

// GetByName finds a local site by name.
func (r *repository) GetByName(ctx context.Context, name string) (*model.LocalSite, error) {
	var site model.LocalSite
	err := r.db.WithContext(ctx).
		Preload("Users").
		Where("name = ?", name).
		First(&site).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrSiteNotFound
		}
		r.logger.Errorw("GetByName database error", "name", name, "error", err)
		return nil, err
	}
	return &site, nil
}
