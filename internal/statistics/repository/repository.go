// Package repository provides data access layer for statistics module.
package repository

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/reviewhub/reviewhub/internal/statistics/model"
)

// Repository defines the interface for statistics data access operations.
type Repository interface {
	// GetReviewersStatistics returns activity totals for all users.
	GetReviewersStatistics(ctx context.Context) ([]model.ReviewerStatistics, error)

	// GetReviewRequestStatistics returns aggregate review request totals.
	GetReviewRequestStatistics(ctx context.Context) (*model.ReviewRequestStatistics, error)
}

type repository struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

// New creates a new statistics repository instance.
func New(db *gorm.DB, logger *zap.SugaredLogger) Repository {
	return &repository{
		db:     db,
		logger: logger,
	}
}

// GetReviewersStatistics returns activity totals for all users. Only
// published reviews count.
func (r *repository) GetReviewersStatistics(ctx context.Context) ([]model.ReviewerStatistics, error) {
	r.logger.Debugw("GetReviewersStatistics called")

	var stats []model.ReviewerStatistics

	err := r.db.WithContext(ctx).
		Table("users").
		Select(`
			users.id as user_id,
			users.username,
			users.is_active,
			COALESCE(SUM(CASE WHEN reviews.public THEN 1 ELSE 0 END), 0) as review_count,
			COALESCE(SUM(CASE WHEN reviews.public AND reviews.ship_it THEN 1 ELSE 0 END), 0) as ship_it_count
		`).
		Joins("LEFT JOIN reviews ON reviews.user_id = users.id").
		Group("users.id, users.username, users.is_active").
		Order("review_count DESC, users.id ASC").
		Scan(&stats).Error

	if err != nil {
		r.logger.Errorw("GetReviewersStatistics database error", "error", err)
		return nil, err
	}

	if stats == nil {
		stats = []model.ReviewerStatistics{}
	}

	r.logger.Debugw("GetReviewersStatistics completed", "count", len(stats))
	return stats, nil
}

// GetReviewRequestStatistics returns aggregate review request totals.
func (r *repository) GetReviewRequestStatistics(ctx context.Context) (*model.ReviewRequestStatistics, error) {
	r.logger.Debugw("GetReviewRequestStatistics called")

	var result struct {
		TotalRequests        int64   `gorm:"column:total_requests"`
		PendingRequests      int64   `gorm:"column:pending_requests"`
		SubmittedRequests    int64   `gorm:"column:submitted_requests"`
		DiscardedRequests    int64   `gorm:"column:discarded_requests"`
		AverageReviewsPerReq float64 `gorm:"column:avg_reviews"`
	}

	err := r.db.WithContext(ctx).
		Table("review_requests").
		Select(`
			COUNT(*) as total_requests,
			SUM(CASE WHEN status = 'P' THEN 1 ELSE 0 END) as pending_requests,
			SUM(CASE WHEN status = 'S' THEN 1 ELSE 0 END) as submitted_requests,
			SUM(CASE WHEN status = 'D' THEN 1 ELSE 0 END) as discarded_requests,
			COALESCE(AVG(review_counts.review_count), 0) as avg_reviews
		`).
		Joins(`
			LEFT JOIN (
				SELECT review_request_id, CAST(COUNT(*) AS REAL) as review_count
				FROM reviews
				WHERE public
				GROUP BY review_request_id
			) review_counts ON review_requests.id = review_counts.review_request_id
		`).
		Scan(&result).Error

	if err != nil {
		r.logger.Errorw("GetReviewRequestStatistics database error", "error", err)
		return nil, err
	}

	var openIssues int64
	err = r.db.WithContext(ctx).
		Table("diff_comments").
		Joins("JOIN reviews ON reviews.id = diff_comments.review_id").
		Where("reviews.public AND diff_comments.issue_status = ?", "O").
		Count(&openIssues).Error
	if err != nil {
		r.logger.Errorw("GetReviewRequestStatistics open issue count error", "error", err)
		return nil, err
	}

	stats := &model.ReviewRequestStatistics{
		TotalRequests:        int(result.TotalRequests),
		PendingRequests:      int(result.PendingRequests),
		SubmittedRequests:    int(result.SubmittedRequests),
		DiscardedRequests:    int(result.DiscardedRequests),
		AverageReviewsPerReq: result.AverageReviewsPerReq,
		OpenIssues:           int(openIssues),
	}

	r.logger.Debugw("GetReviewRequestStatistics completed", "total_requests", stats.TotalRequests)
	return stats, nil
}
