package repository

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/reviewhub/reviewhub/internal/review/model"
)

// CommentFilters narrows comment listings.
type CommentFilters struct {
	// Line keeps only comments whose range covers the given line.
	Line *uint64
	// InterFileDiffID filters by the comparison filediff; a pointer to zero
	// keeps only plain (non-interdiff) comments.
	InterFileDiffID *uint64
}

// Repository handles review and diff comment storage.
type Repository interface {
	GetOrCreateDraftReview(ctx context.Context, rv *model.Review) (*model.Review, error)
	GetReview(ctx context.Context, reviewRequestID, reviewID uint64) (*model.Review, error)
	GetDraftReviewByUser(ctx context.Context, reviewRequestID, userID uint64) (*model.Review, error)
	ListReviews(ctx context.Context, reviewRequestID uint64) ([]model.Review, error)
	SaveReview(ctx context.Context, rv *model.Review) error
	DeleteReview(ctx context.Context, rv *model.Review) error

	CreateComment(ctx context.Context, c *model.DiffComment) error
	GetComment(ctx context.Context, reviewID, commentID uint64) (*model.DiffComment, error)
	ListComments(ctx context.Context, reviewID uint64, f CommentFilters) ([]model.DiffComment, error)
	SaveComment(ctx context.Context, c *model.DiffComment) error
	DeleteComment(ctx context.Context, c *model.DiffComment) error

	CountOpenIssues(ctx context.Context, reviewRequestID uint64) (int64, error)
}

type repository struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// New creates a new review repository.
func New(db *gorm.DB, logger *zap.SugaredLogger) Repository {
	return &repository{db: db, logger: logger}
}

// GetOrCreateDraftReview returns the user's draft review on the request,
// creating it from rv when absent. The partial unique index on draft
// reviews makes the create atomic; the loser of a concurrent create
// re-reads the winning row.
func (r *repository) GetOrCreateDraftReview(ctx context.Context, rv *model.Review) (*model.Review, error) {
	existing, err := r.GetDraftReviewByUser(ctx, rv.ReviewRequestID, rv.UserID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, model.ErrReviewNotFound) {
		return nil, err
	}
	if createErr := r.db.WithContext(ctx).Create(rv).Error; createErr != nil {
		if isDuplicateError(createErr) {
			return r.GetDraftReviewByUser(ctx, rv.ReviewRequestID, rv.UserID)
		}
		r.logger.Errorw("failed to create review", "review_request_id", rv.ReviewRequestID, "error", createErr)
		return nil, createErr
	}
	return rv, nil
}

func (r *repository) GetReview(ctx context.Context, reviewRequestID, reviewID uint64) (*model.Review, error) {
	var rv model.Review
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("id = ? AND review_request_id = ?", reviewID, reviewRequestID).
		First(&rv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrReviewNotFound
		}
		r.logger.Errorw("failed to get review", "id", reviewID, "error", err)
		return nil, err
	}
	return &rv, nil
}

func (r *repository) GetDraftReviewByUser(ctx context.Context, reviewRequestID, userID uint64) (*model.Review, error) {
	var rv model.Review
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("review_request_id = ? AND user_id = ? AND public = ?", reviewRequestID, userID, false).
		First(&rv).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrReviewNotFound
		}
		r.logger.Errorw("failed to get draft review", "review_request_id", reviewRequestID, "error", err)
		return nil, err
	}
	return &rv, nil
}

func (r *repository) ListReviews(ctx context.Context, reviewRequestID uint64) ([]model.Review, error) {
	var reviews []model.Review
	err := r.db.WithContext(ctx).
		Preload("User").
		Where("review_request_id = ?", reviewRequestID).
		Order("timestamp ASC").
		Find(&reviews).Error
	if err != nil {
		r.logger.Errorw("failed to list reviews", "review_request_id", reviewRequestID, "error", err)
		return nil, err
	}
	return reviews, nil
}

func (r *repository) SaveReview(ctx context.Context, rv *model.Review) error {
	if err := r.db.WithContext(ctx).Save(rv).Error; err != nil {
		r.logger.Errorw("failed to save review", "id", rv.ID, "error", err)
		return err
	}
	return nil
}

func (r *repository) DeleteReview(ctx context.Context, rv *model.Review) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("review_id = ?", rv.ID).Delete(&model.DiffComment{}).Error; err != nil {
			return err
		}
		return tx.Delete(rv).Error
	})
	if err != nil {
		r.logger.Errorw("failed to delete review", "id", rv.ID, "error", err)
		return err
	}
	return nil
}

func (r *repository) CreateComment(ctx context.Context, c *model.DiffComment) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		r.logger.Errorw("failed to create comment", "review_id", c.ReviewID, "error", err)
		return err
	}
	return nil
}

func (r *repository) GetComment(ctx context.Context, reviewID, commentID uint64) (*model.DiffComment, error) {
	var c model.DiffComment
	err := r.db.WithContext(ctx).
		Where("id = ? AND review_id = ?", commentID, reviewID).
		First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrCommentNotFound
		}
		r.logger.Errorw("failed to get comment", "id", commentID, "error", err)
		return nil, err
	}
	return &c, nil
}

func (r *repository) ListComments(ctx context.Context, reviewID uint64, f CommentFilters) ([]model.DiffComment, error) {
	q := r.db.WithContext(ctx).Where("review_id = ?", reviewID)
	if f.Line != nil {
		q = q.Where("first_line <= ? AND first_line + num_lines > ?", *f.Line, *f.Line)
	}
	if f.InterFileDiffID != nil {
		if *f.InterFileDiffID == 0 {
			q = q.Where("interfilediff_id IS NULL")
		} else {
			q = q.Where("interfilediff_id = ?", *f.InterFileDiffID)
		}
	}
	var comments []model.DiffComment
	if err := q.Order("first_line ASC, id ASC").Find(&comments).Error; err != nil {
		r.logger.Errorw("failed to list comments", "review_id", reviewID, "error", err)
		return nil, err
	}
	return comments, nil
}

func (r *repository) SaveComment(ctx context.Context, c *model.DiffComment) error {
	if err := r.db.WithContext(ctx).Save(c).Error; err != nil {
		r.logger.Errorw("failed to save comment", "id", c.ID, "error", err)
		return err
	}
	return nil
}

func (r *repository) DeleteComment(ctx context.Context, c *model.DiffComment) error {
	if err := r.db.WithContext(ctx).Delete(c).Error; err != nil {
		r.logger.Errorw("failed to delete comment", "id", c.ID, "error", err)
		return err
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

func (r *repository) CountOpenIssues(ctx context.Context, reviewRequestID uint64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.DiffComment{}).
		Joins("JOIN reviews ON reviews.id = diff_comments.review_id").
		Where("reviews.review_request_id = ? AND reviews.public = ? AND diff_comments.issue_status = ?",
			reviewRequestID, true, model.IssueOpen).
		Count(&count).Error
	if err != nil {
		r.logger.Errorw("failed to count open issues", "review_request_id", reviewRequestID, "error", err)
		return 0, err
	}
	return count, nil
}
