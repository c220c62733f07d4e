// Package router provides diff module routes registration.
package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/reviewhub/reviewhub/internal/config"
	"github.com/reviewhub/reviewhub/internal/diff/handler"
	"github.com/reviewhub/reviewhub/internal/diff/repository"
	"github.com/reviewhub/reviewhub/internal/diff/service"
	"github.com/reviewhub/reviewhub/internal/middleware"
	rrRepository "github.com/reviewhub/reviewhub/internal/reviewrequest/repository"
)

// RegisterRoutes registers diff module routes on the given group.
func RegisterRoutes(g *gin.RouterGroup, db *gorm.DB, logger *zap.SugaredLogger) {
	repo := repository.New(db, logger)
	cfg := service.Config{
		MaxDiffSize: config.GetEnvInt("DIFF_MAX_SIZE", 0),
	}
	svc := service.New(repo, rrRepository.New(db, logger), db, cfg, logger)
	h := handler.New(svc, logger)

	g.POST("/review-requests/:review_request_id/draft/diffs/", middleware.RequireAuth(), h.Upload)
	g.GET("/review-requests/:review_request_id/draft/diffs/", middleware.RequireAuth(), h.List)
	g.GET("/review-requests/:review_request_id/draft/diffs/:revision/", middleware.RequireAuth(), h.Get)
}
