// Package router provides statistics module routes registration.
package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/reviewhub/reviewhub/internal/middleware"
	"github.com/reviewhub/reviewhub/internal/statistics/handler"
	"github.com/reviewhub/reviewhub/internal/statistics/repository"
	"github.com/reviewhub/reviewhub/internal/statistics/service"
)

// RegisterRoutes registers statistics module routes on the given group.
func RegisterRoutes(g *gin.RouterGroup, db *gorm.DB, logger *zap.SugaredLogger) {
	repo := repository.New(db, logger)
	svc := service.New(repo, logger)
	h := handler.New(svc, logger)

	g.GET("/statistics/reviewers/", middleware.RequireAuth(), h.GetReviewers)
	g.GET("/statistics/review-requests/", middleware.RequireAuth(), h.GetReviewRequests)
}
