// Package router provides review module routes registration.
package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	diffRepository "github.com/reviewhub/reviewhub/internal/diff/repository"
	"github.com/reviewhub/reviewhub/internal/middleware"
	"github.com/reviewhub/reviewhub/internal/review/handler"
	"github.com/reviewhub/reviewhub/internal/review/repository"
	"github.com/reviewhub/reviewhub/internal/review/service"
	rrRepository "github.com/reviewhub/reviewhub/internal/reviewrequest/repository"
)

// RegisterRoutes registers review module routes on the given group.
func RegisterRoutes(g *gin.RouterGroup, db *gorm.DB, logger *zap.SugaredLogger) {
	repo := repository.New(db, logger)
	svc := service.New(
		repo,
		rrRepository.New(db, logger),
		diffRepository.New(db, logger),
		db,
		logger,
	)
	h := handler.New(svc, logger)

	reviews := g.Group("/review-requests/:review_request_id/reviews")
	reviews.GET("/", h.ListReviews)
	reviews.POST("/", middleware.RequireAuth(), h.CreateReview)
	reviews.GET("/:review_id/", h.GetReview)
	reviews.PUT("/:review_id/", middleware.RequireAuth(), h.UpdateReview)
	reviews.DELETE("/:review_id/", middleware.RequireAuth(), h.DeleteReview)

	reviews.GET("/:review_id/diff-comments/", h.ListComments)
	reviews.POST("/:review_id/diff-comments/", middleware.RequireAuth(), h.CreateComment)
	reviews.GET("/:review_id/diff-comments/:comment_id/", h.GetComment)
	reviews.PUT("/:review_id/diff-comments/:comment_id/", middleware.RequireAuth(), h.UpdateComment)
	reviews.DELETE("/:review_id/diff-comments/:comment_id/", middleware.RequireAuth(), h.DeleteComment)
}
