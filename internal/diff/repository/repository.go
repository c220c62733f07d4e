// Package repository provides data access layer for the diff module.
package repository

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/reviewhub/reviewhub/internal/diff/model"
)

// Repository defines the interface for diff data access operations.
type Repository interface {
	// CreateDiffSet stores a diffset together with its filediffs.
	CreateDiffSet(ctx context.Context, ds *model.DiffSet) error

	// NextRevision returns the next diffset revision number for a review request.
	NextRevision(ctx context.Context, reviewRequestID uint64) (int, error)

	// GetByID finds a diffset by primary key, with filediffs preloaded.
	GetByID(ctx context.Context, id uint64) (*model.DiffSet, error)

	// GetDraftByRevision finds a draft diffset of a review request by revision.
	GetDraftByRevision(ctx context.Context, reviewRequestID uint64, revision int) (*model.DiffSet, error)

	// ListDraft returns all draft diffsets of a review request ordered by revision.
	ListDraft(ctx context.Context, reviewRequestID uint64) ([]model.DiffSet, error)

	// MarkPublished clears the draft flag on a diffset.
	MarkPublished(ctx context.Context, diffsetID uint64) error

	// GetFileDiffForRequest finds a filediff by id, constrained to diffsets
	// belonging to the given review request's history.
	GetFileDiffForRequest(ctx context.Context, filediffID, reviewRequestID uint64) (*model.FileDiff, error)
}

type repository struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// New creates a new diff repository instance.
func New(db *gorm.DB, logger *zap.SugaredLogger) Repository {
	return &repository{db: db, logger: logger}
}

// CreateDiffSet stores a diffset together with its filediffs.
func (r *repository) CreateDiffSet(ctx context.Context, ds *model.DiffSet) error {
	if err := r.db.WithContext(ctx).Create(ds).Error; err != nil {
		r.logger.Errorw("CreateDiffSet failed", "review_request_id", ds.ReviewRequestID, "error", err)
		return err
	}
	return nil
}

// NextRevision returns the next diffset revision number for a review request.
func (r *repository) NextRevision(ctx context.Context, reviewRequestID uint64) (int, error) {
	var maxRevision int
	err := r.db.WithContext(ctx).
		Model(&model.DiffSet{}).
		Where("review_request_id = ?", reviewRequestID).
		Select("COALESCE(MAX(revision), 0)").
		Scan(&maxRevision).Error
	if err != nil {
		r.logger.Errorw("NextRevision database error", "review_request_id", reviewRequestID, "error", err)
		return 0, err
	}
	return maxRevision + 1, nil
}

// GetByID finds a diffset by primary key.
func (r *repository) GetByID(ctx context.Context, id uint64) (*model.DiffSet, error) {
	var ds model.DiffSet
	err := r.db.WithContext(ctx).
		Preload("FileDiffs").
		First(&ds, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrDiffSetNotFound
		}
		r.logger.Errorw("GetByID database error", "id", id, "error", err)
		return nil, err
	}
	return &ds, nil
}

// GetDraftByRevision finds a draft diffset of a review request by revision.
func (r *repository) GetDraftByRevision(
	ctx context.Context,
	reviewRequestID uint64,
	revision int,
) (*model.DiffSet, error) {
	var ds model.DiffSet
	err := r.db.WithContext(ctx).
		Preload("FileDiffs").
		Where("review_request_id = ? AND revision = ? AND draft = ?", reviewRequestID, revision, true).
		First(&ds).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrDiffSetNotFound
		}
		r.logger.Errorw("GetDraftByRevision database error",
			"review_request_id", reviewRequestID, "revision", revision, "error", err)
		return nil, err
	}
	return &ds, nil
}

// ListDraft returns all draft diffsets of a review request ordered by revision.
func (r *repository) ListDraft(ctx context.Context, reviewRequestID uint64) ([]model.DiffSet, error) {
	var diffsets []model.DiffSet
	err := r.db.WithContext(ctx).
		Preload("FileDiffs").
		Where("review_request_id = ? AND draft = ?", reviewRequestID, true).
		Order("revision ASC").
		Find(&diffsets).Error
	if err != nil {
		r.logger.Errorw("ListDraft database error", "review_request_id", reviewRequestID, "error", err)
		return nil, err
	}
	if diffsets == nil {
		diffsets = []model.DiffSet{}
	}
	return diffsets, nil
}

// MarkPublished clears the draft flag on a diffset.
func (r *repository) MarkPublished(ctx context.Context, diffsetID uint64) error {
	result := r.db.WithContext(ctx).
		Model(&model.DiffSet{}).
		Where("id = ?", diffsetID).
		Update("draft", false)
	if result.Error != nil {
		r.logger.Errorw("MarkPublished failed", "diffset_id", diffsetID, "error", result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return model.ErrDiffSetNotFound
	}
	return nil
}

// GetFileDiffForRequest finds a filediff by id within a review request's history.
func (r *repository) GetFileDiffForRequest(
	ctx context.Context,
	filediffID, reviewRequestID uint64,
) (*model.FileDiff, error) {
	var fd model.FileDiff
	err := r.db.WithContext(ctx).
		Joins("JOIN diffsets ON diffsets.id = filediffs.diffset_id").
		Where("filediffs.id = ? AND diffsets.review_request_id = ?", filediffID, reviewRequestID).
		First(&fd).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrFileDiffNotFound
		}
		r.logger.Errorw("GetFileDiffForRequest database error",
			"filediff_id", filediffID, "review_request_id", reviewRequestID, "error", err)
		return nil, err
	}
	return &fd, nil
}
