// Package service provides business logic layer for statistics module.
package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/reviewhub/reviewhub/internal/statistics/model"
	"github.com/reviewhub/reviewhub/internal/statistics/repository"
)

// Service defines the interface for statistics business logic operations.
type Service interface {
	// GetReviewersStatistics returns activity totals for all reviewers.
	GetReviewersStatistics(ctx context.Context) (*model.ReviewersStatisticsResponse, error)

	// GetReviewRequestStatistics returns aggregate review request totals.
	GetReviewRequestStatistics(ctx context.Context) (*model.ReviewRequestStatisticsResponse, error)
}

type service struct {
	repo   repository.Repository
	logger *zap.SugaredLogger
}

// New creates a new statistics service instance.
func New(repo repository.Repository, logger *zap.SugaredLogger) Service {
	return &service{
		repo:   repo,
		logger: logger,
	}
}

// GetReviewersStatistics returns activity totals for all reviewers.
func (s *service) GetReviewersStatistics(ctx context.Context) (*model.ReviewersStatisticsResponse, error) {
	s.logger.Debugw("GetReviewersStatistics called")

	reviewers, err := s.repo.GetReviewersStatistics(ctx)
	if err != nil {
		s.logger.Errorw("GetReviewersStatistics failed", "error", err)
		return nil, err
	}

	if reviewers == nil {
		reviewers = []model.ReviewerStatistics{}
	}

	s.logger.Infow("GetReviewersStatistics completed", "count", len(reviewers))
	return &model.ReviewersStatisticsResponse{
		Reviewers: reviewers,
		Total:     len(reviewers),
	}, nil
}

// GetReviewRequestStatistics returns aggregate review request totals.
func (s *service) GetReviewRequestStatistics(ctx context.Context) (*model.ReviewRequestStatisticsResponse, error) {
	s.logger.Debugw("GetReviewRequestStatistics called")

	stats, err := s.repo.GetReviewRequestStatistics(ctx)
	if err != nil {
		s.logger.Errorw("GetReviewRequestStatistics failed", "error", err)
		return nil, err
	}

	s.logger.Infow("GetReviewRequestStatistics completed", "total", stats.TotalRequests)
	return &model.ReviewRequestStatisticsResponse{
		Statistics: *stats,
	}, nil
}
